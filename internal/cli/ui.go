package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/postquery/internal/config"
	"github.com/rshade/postquery/internal/tui"
)

func newUICmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:         "ui",
		Short:       "Open the interactive post list and creation form",
		Annotations: map[string]string{annotationTUI: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd, s)
		},
	}
}

// runUI starts the Bubble Tea program. Without a terminal it prints the
// post list instead. NO_COLOR keeps the program but drops its colors.
func runUI(cmd *cobra.Command, s *session) error {
	if tui.DetectOutputMode(false, false, false) != tui.OutputModeInteractive {
		return runPostsList(cmd, s, config.FormatPlain)
	}
	if tui.NoColor(false) {
		tui.DisableColor()
	}

	api, client, err := s.services()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx := cmd.Context()
	app, err := tui.NewAppModel(ctx, client, api)
	if err != nil {
		return err
	}
	defer app.Close()

	p := tea.NewProgram(app,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err = p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
