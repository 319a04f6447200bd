// Package cli implements the postquery command tree.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/postquery/internal/config"
	"github.com/rshade/postquery/internal/logging"
	"github.com/rshade/postquery/internal/telemetry"
)

// annotationTUI marks commands that take over the terminal.
const annotationTUI = "postquery/tui"

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// session is the per-invocation state shared by every subcommand.
type session struct {
	version string

	cfg       *config.Config
	logger    zerolog.Logger
	logResult *logging.LogPathResult
	shutdown  telemetry.Shutdown
}

// NewRootCmd creates the root command. Running it without a subcommand
// starts the interactive UI.
func NewRootCmd(ver string) *cobra.Command {
	s := &session{version: ver}

	cmd := &cobra.Command{
		Use:           "postquery",
		Short:         "Browse and create JSONPlaceholder posts",
		Long:          "postquery lists and creates posts against a JSONPlaceholder-style REST collection through a shared query cache.",
		Version:       ver,
		Example:       rootCmdExample,
		Annotations:   map[string]string{annotationTUI: "true"},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return s.cleanup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd, s)
		},
	}

	cmd.PersistentFlags().String("endpoint", "", "posts collection URL (overrides config and POSTQUERY_ENDPOINT)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().Duration("timeout", 0, "per-request HTTP timeout, 0 for none")
	cmd.PersistentFlags().String("config", "", "config file (default ~/.postquery/config.yaml)")

	cmd.AddCommand(
		newUICmd(s),
		newPostsCmd(s),
		newConfigCmd(s),
		NewVersionCmd(ver),
	)
	return cmd
}

const rootCmdExample = `  # Open the interactive list and form
  postquery

  # Print all posts as JSON
  postquery posts list --output json

  # Create two posts concurrently
  postquery posts create --title "Hello" --title "World"

  # Use a local JSON server
  postquery --endpoint http://localhost:3000/posts posts list`

// setup loads configuration, applies flag overrides and starts logging and tracing.
func (s *session) setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	cfg, err := config.Load(config.LoadOptions{ConfigPath: configPath, WorkDir: workDir})
	if err != nil {
		return err
	}
	if err = applyFlags(cmd, cfg); err != nil {
		return err
	}
	s.cfg = cfg

	result := setupLogging(cmd, s)
	s.logResult = &result

	shutdown, err := telemetry.Setup(cmd.Context(), cfg.Telemetry, s.version)
	if err != nil {
		s.logger.Warn().Ctx(cmd.Context()).Err(err).Msg("tracing disabled")
	}
	s.shutdown = shutdown
	return nil
}

// applyFlags overrides cfg with the persistent flags the user set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint, _ = flags.GetString("endpoint")
	}
	if flags.Changed("timeout") {
		var timeout time.Duration
		timeout, _ = flags.GetDuration("timeout")
		cfg.Transport.Timeout = timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return nil
}

func (s *session) cleanup(cmd *cobra.Command) error {
	if s.shutdown != nil {
		if err := s.shutdown(cmd.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("flushing traces failed")
		}
	}
	return cleanupLogging(s.logResult)
}

// wantsTUI reports whether cmd takes over the terminal. A TUI command whose
// stdout is not a terminal falls back to plain output and keeps stderr logs.
func wantsTUI(cmd *cobra.Command) bool {
	return cmd.Annotations[annotationTUI] == "true" && isTerminal(os.Stdout)
}
