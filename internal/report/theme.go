package report

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Theme defines the styles used for terminal output.
type Theme struct {
	Name    string
	Primary lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
}

// DefaultTheme returns the color theme, rendering for w.
func DefaultTheme(w io.Writer) Theme {
	r := lipgloss.NewRenderer(w)
	return Theme{
		Name:    "default",
		Primary: r.NewStyle().Foreground(lipgloss.Color("39")),  // blue
		Success: r.NewStyle().Foreground(lipgloss.Color("34")),  // green
		Warning: r.NewStyle().Foreground(lipgloss.Color("214")), // orange
		Error:   r.NewStyle().Foreground(lipgloss.Color("196")), // red
		Muted:   r.NewStyle().Foreground(lipgloss.Color("242")), // gray
		Bold:    r.NewStyle().Bold(true),
	}
}

// MonoTheme returns a theme that emits no escape sequences.
func MonoTheme() Theme {
	return Theme{
		Name:    "mono",
		Primary: lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle(),
		Bold:    lipgloss.NewStyle(),
	}
}

// ThemeFor picks the color theme when w is a terminal and NO_COLOR is unset.
func ThemeFor(w io.Writer, lookupEnv func(string) (string, bool)) Theme {
	if v, ok := lookupEnv("NO_COLOR"); ok && v != "" {
		return MonoTheme()
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return DefaultTheme(w)
	}
	return MonoTheme()
}

// Failure renders err as the one-line message pqs prints before exiting.
func (t Theme) Failure(err error) string {
	return t.Error.Render("pqs: " + err.Error())
}
