package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// OutputMode selects how results are presented.
type OutputMode int

const (
	// OutputModePlain writes unstyled text, suitable for pipes and files.
	OutputModePlain OutputMode = iota
	// OutputModeStyled writes lipgloss-styled text without interaction.
	OutputModeStyled
	// OutputModeInteractive runs the full Bubble Tea program.
	OutputModeInteractive
)

// String returns the mode name.
func (m OutputMode) String() string {
	switch m {
	case OutputModePlain:
		return "plain"
	case OutputModeStyled:
		return "styled"
	case OutputModeInteractive:
		return "interactive"
	default:
		return "unknown"
	}
}

// DetectOutputMode picks a mode from the flags and the state of stdout.
// plain wins over everything else. noColor, or NO_COLOR in the environment,
// only strips styling: a terminal stays interactive.
func DetectOutputMode(forceColor, noColor, plain bool) OutputMode {
	return detectOutputMode(term.IsTerminal(int(os.Stdout.Fd())), forceColor, NoColor(noColor), plain)
}

func detectOutputMode(isTTY, forceColor, noColor, plain bool) OutputMode {
	switch {
	case plain:
		return OutputModePlain
	case isTTY:
		return OutputModeInteractive
	case forceColor && !noColor:
		return OutputModeStyled
	default:
		return OutputModePlain
	}
}

// NoColor reports whether color is turned off by flag or by NO_COLOR.
func NoColor(flag bool) bool {
	_, env := os.LookupEnv("NO_COLOR")
	return flag || env
}

// DisableColor makes every style render without color from now on.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
