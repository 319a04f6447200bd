package tui

import (
	"context"

	"github.com/rshade/postquery/internal/post"
	"github.com/rshade/postquery/internal/query"
)

// ErrNilAPI is returned when a model is built without a posts API.
const ErrNilAPI = constError("posts api cannot be nil")

type constError string

func (e constError) Error() string { return string(e) }

// PostsKey returns the cache key shared by every reader of the post collection.
func PostsKey() query.Key {
	return query.Key{"posts"}
}

// PostsAPI is the remote collection the models read from and write to.
type PostsAPI interface {
	ListPosts(ctx context.Context) ([]post.Post, error)
	CreatePost(ctx context.Context, p post.NewPost) (post.Post, error)
}

// PostsQuery returns the list query for api.
func PostsQuery(api PostsAPI) query.Query[[]post.Post] {
	return query.Query[[]post.Post]{
		Key: PostsKey(),
		Fn:  api.ListPosts,
	}
}
