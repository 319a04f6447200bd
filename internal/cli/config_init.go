package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/postquery/internal/config"
)

func newConfigCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), newConfigValidateCmd(s), newConfigShowCmd(s))
	return cmd
}

// NewConfigInitCmd creates the config init command, which writes the default
// configuration to ~/.postquery/config.yaml or to --path.
func NewConfigInitCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Example: `  # Create ~/.postquery/config.yaml
  postquery config init

  # Overwrite an existing file
  postquery config init --force`,
		Args: cobra.NoArgs,
		// The file being created may not exist or parse yet.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().StringVar(&path, "path", "", "write to this file instead of ~/.postquery/config.yaml")

	return cmd
}

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	if !force {
		_, err := os.Stat(path)
		if err == nil {
			return errors.New("configuration file already exists, use --force to overwrite")
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("cannot access config path %s: %w", path, err)
		}
	}

	if err := config.New().Save(path); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Configuration initialized at %s\n", path)
	return nil
}
