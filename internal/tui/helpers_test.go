package tui

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rshade/postquery/internal/post"
	"github.com/rshade/postquery/internal/query"
)

const testTimeout = 2 * time.Second

// fakeAPI is an in-memory post collection.
type fakeAPI struct {
	mu        sync.Mutex
	posts     []post.Post
	listErr   error
	listGate  chan struct{}
	listCalls int
	created   []post.NewPost
}

func newFakeAPI(titles ...string) *fakeAPI {
	api := &fakeAPI{}
	for _, title := range titles {
		api.add(title)
	}
	return api
}

func (f *fakeAPI) add(title string) post.Post {
	p := post.Post{ID: len(f.posts) + 1, Title: title, Body: title, UserID: post.DefaultUserID}
	f.posts = append(f.posts, p)
	return p
}

func (f *fakeAPI) ListPosts(ctx context.Context) ([]post.Post, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.listGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]post.Post(nil), f.posts...), nil
}

func (f *fakeAPI) CreatePost(_ context.Context, p post.NewPost) (post.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	// The remote collection does not keep created posts.
	return post.Post{ID: 101, Title: p.Title, Body: p.Body, UserID: p.UserID}, nil
}

func (f *fakeAPI) setPosts(titles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = nil
	for _, title := range titles {
		f.add(title)
	}
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeAPI) createdPosts() []post.NewPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]post.NewPost(nil), f.created...)
}

func newTestClient(t *testing.T) *query.Client {
	t.Helper()
	c, err := query.New(query.WithStaleTime(time.Minute))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

// settle feeds observer updates into m until pred holds.
func settle(t *testing.T, m *PostListModel, pred func(query.State[[]post.Post]) bool) {
	t.Helper()
	for !pred(m.State()) {
		msg := m.waitForPosts()()
		stateMsg, ok := msg.(postsStateMsg)
		require.True(t, ok, "subscription stopped: %v", fmt.Sprint(msg))
		m.Update(stateMsg)
	}
}
