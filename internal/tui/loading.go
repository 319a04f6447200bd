package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// LoadingText is shown while the first read of a query is outstanding.
const LoadingText = "Loading...."

// LoadingState is an animated spinner with a message.
type LoadingState struct {
	spinner spinner.Model
	message string
}

// NewLoadingState returns a spinner showing LoadingText.
func NewLoadingState() *LoadingState {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SubtleStyle
	return &LoadingState{spinner: s, message: LoadingText}
}

// Init starts the spinner animation.
func (l *LoadingState) Init() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the spinner on its own tick messages and ignores the rest.
func (l *LoadingState) Update(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(spinner.TickMsg)
	if !ok {
		return nil
	}
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(tick)
	return cmd
}

// RenderLoading returns the loading line. A nil state renders the bare message.
func RenderLoading(loading *LoadingState) string {
	if loading == nil {
		return LoadingText
	}
	return fmt.Sprintf("%s %s", loading.spinner.View(), loading.message)
}
