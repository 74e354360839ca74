package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette of the TUI. Colors are ANSI 256 codes.
type Theme struct {
	Accent     lipgloss.Color // Strava orange.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Border     lipgloss.Color
}

var DefaultTheme = Theme{
	Accent:     lipgloss.Color("202"),
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("243"),
	Border:     lipgloss.Color("238"),
}

// styles are the lipgloss styles derived from a Theme.
type styles struct {
	title      lipgloss.Style
	label      lipgloss.Style
	focused    lipgloss.Style
	help       lipgloss.Style
	link       lipgloss.Style
	alertTitle lipgloss.Style
	alertBody  lipgloss.Style
	alertBox   lipgloss.Style
	spinner    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true).Foreground(t.Accent).MarginBottom(1),
		label:      lipgloss.NewStyle().Foreground(t.FaintText).Width(30),
		focused:    lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Width(30),
		help:       lipgloss.NewStyle().Foreground(t.FaintText).MarginTop(1),
		link:       lipgloss.NewStyle().Foreground(t.NormalText).Underline(true),
		alertTitle: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		alertBody:  lipgloss.NewStyle().Foreground(t.NormalText),
		spinner:    lipgloss.NewStyle().Foreground(t.Accent),
		alertBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1).
			MarginTop(1),
	}
}
