package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/postquery/internal/post"
	"github.com/rshade/postquery/internal/query"
)

// maxConcurrentCreates bounds in-flight POST requests.
const maxConcurrentCreates = 4

func newPostsCreateCmd(s *session) *cobra.Command {
	var (
		titles []string
		output string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create one post per --title",
		Long: `Create one post per --title. Each title is sent as an independent
request with the title copied into the body and userId 1. Requests run
concurrently; the created posts are printed in the order given.`,
		Example: `  postquery posts create --title "Hello"
  postquery posts create --title "Hello" --title "World" --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := output
			if format == "" {
				format = s.cfg.Output.DefaultFormat
			}
			return runPostsCreate(cmd, s, titles, format)
		},
	}

	cmd.Flags().StringArrayVarP(&titles, "title", "t", nil, "post title, repeat for several posts")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: table, json or plain (default from config)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func runPostsCreate(cmd *cobra.Command, s *session, titles []string, format string) error {
	if !isValidFormat(format) {
		return fmt.Errorf("%w: %s", errUnsupportedFormat, format)
	}

	api, client, err := s.services()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	create, err := query.NewMutation[post.NewPost, post.Post](client, api.CreatePost)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	created := make([]post.Post, len(titles))
	failures := make([]error, len(titles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCreates)
	for i, title := range titles {
		g.Go(func() error {
			draft := post.Draft{}
			if setErr := draft.Set(post.FieldTitle, title); setErr != nil {
				return setErr
			}
			p, mutateErr := create.Mutate(gctx, draft.Payload())
			if mutateErr != nil {
				failures[i] = fmt.Errorf("creating %q: %w", title, mutateErr)
				return nil
			}
			created[i] = p
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}

	var ok []post.Post
	for i, p := range created {
		if failures[i] == nil {
			ok = append(ok, p)
		}
	}
	s.logger.Debug().Ctx(ctx).Int("created", len(ok)).Int("requested", len(titles)).Msg("posts created")

	if len(ok) > 0 {
		if renderErr := renderPosts(cmd.OutOrStdout(), format, ok); renderErr != nil {
			return renderErr
		}
	}
	return errors.Join(failures...)
}
