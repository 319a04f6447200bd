package cli

import (
	"github.com/spf13/cobra"
)

func newPostsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Read and create posts without the UI",
	}
	cmd.AddCommand(newPostsListCmd(s), newPostsCreateCmd(s))
	return cmd
}
