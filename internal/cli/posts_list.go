package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/postquery/internal/config"
	"github.com/rshade/postquery/internal/post"
	"github.com/rshade/postquery/internal/query"
	"github.com/rshade/postquery/internal/tui"
)

// errUnsupportedFormat is returned for an --output value the command cannot render.
const errUnsupportedFormat = constError("unsupported output format")

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

func newPostsListCmd(s *session) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every post in server order",
		Example: `  postquery posts list
  postquery posts list --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := output
			if format == "" {
				format = s.cfg.Output.DefaultFormat
			}
			return runPostsList(cmd, s, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "",
		"output format: table, json or plain (default from config)")
	return cmd
}

// runPostsList reads ["posts"] through a fresh query client and renders it.
func runPostsList(cmd *cobra.Command, s *session, format string) error {
	if !isValidFormat(format) {
		return fmt.Errorf("%w: %s", errUnsupportedFormat, format)
	}

	api, client, err := s.services()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	posts, err := query.Fetch(cmd.Context(), client, tui.PostsQuery(api))
	if err != nil {
		return fmt.Errorf("loading posts: %w", err)
	}
	s.logger.Debug().Ctx(cmd.Context()).Int("count", len(posts)).Msg("posts loaded")

	return renderPosts(cmd.OutOrStdout(), format, posts)
}

func isValidFormat(format string) bool {
	switch format {
	case config.FormatTable, config.FormatJSON, config.FormatPlain:
		return true
	default:
		return false
	}
}

func renderPosts(w io.Writer, format string, posts []post.Post) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if posts == nil {
			posts = []post.Post{}
		}
		return enc.Encode(posts)
	case config.FormatPlain:
		for _, p := range posts {
			if _, err := fmt.Fprintln(w, p.Title); err != nil {
				return err
			}
		}
		return nil
	default:
		return renderPostsTable(w, posts)
	}
}

func renderPostsTable(w io.Writer, posts []post.Post) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tUSER\tTITLE")
	for _, p := range posts {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", strconv.Itoa(p.ID), strconv.Itoa(p.UserID), p.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	printer := message.NewPrinter(language.English)
	_, err := printer.Fprintf(w, "\n%d posts\n", len(posts))
	return err
}
