package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newConfigValidateCmd reports whether the effective configuration loads.
// Loading and validation happen in the root pre-run, so reaching RunE means
// the configuration is valid.
func newConfigValidateCmd(s *session) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		Long: `Loads the configuration from ~/.postquery/config.yaml (or --config), the
project overlay ./.postquery.yaml, ./.env and POSTQUERY_* variables, and checks
the result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println("Configuration is valid")
			if verbose {
				printVerboseDetails(cmd, s)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")
	return cmd
}

func printVerboseDetails(cmd *cobra.Command, s *session) {
	cfg := s.cfg
	cmd.Println()
	cmd.Println("Configuration details:")
	if cfg.Path() != "" {
		cmd.Printf("  Config file:   %s\n", cfg.Path())
	}
	cmd.Printf("  Endpoint:      %s\n", cfg.Endpoint)
	cmd.Printf("  Timeout:       %s\n", cfg.Transport.Timeout)
	cmd.Printf("  Stale time:    %s\n", cfg.Query.StaleTime)
	cmd.Printf("  GC time:       %s\n", cfg.Query.GCTime)
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	cmd.Printf("  Tracing:       %t\n", cfg.Telemetry.Enabled)
}

// newConfigShowCmd prints the effective configuration as YAML.
func newConfigShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := yaml.Marshal(s.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
