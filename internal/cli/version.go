package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/postquery/pkg/version"
)

// NewVersionCmd prints build metadata.
func NewVersionCmd(_ string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Skip config loading so version works with a broken config.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, version.String())
			if version.IsDevelopment() {
				_, _ = fmt.Fprintln(out, "development build")
			}
		},
	}
}
