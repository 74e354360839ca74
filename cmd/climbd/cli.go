package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"climbd/internal/flow"
	"climbd/internal/tui"
)

// exitCode ends the process with a status but no extra message; the flow
// has already told the user what happened.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func (e exitCode) ExitCode() int { return int(e) }

// Exit statuses of the login and upload commands.
const (
	exitFailed     exitCode = 1
	exitRejected   exitCode = 2
	exitRedirected exitCode = 3
)

func outcomeError(o flow.Outcome) error {
	switch o {
	case flow.OutcomeUploaded:
		return nil
	case flow.OutcomeRejected:
		return exitRejected
	case flow.OutcomeRedirected:
		return exitRedirected
	default:
		return exitFailed
	}
}

// printer writes alerts and navigation hints to a terminal stream.
type printer struct {
	out   io.Writer
	title lipgloss.Style
	body  lipgloss.Style
	hint  lipgloss.Style

	route flow.Route
}

var (
	_ flow.Navigator = (*printer)(nil)
	_ flow.Notifier  = (*printer)(nil)
)

func newPrinter(out io.Writer) *printer {
	theme := tui.DefaultTheme
	return &printer{
		out:   out,
		title: lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		body:  lipgloss.NewStyle().Foreground(theme.NormalText),
		hint:  lipgloss.NewStyle().Foreground(theme.FaintText),
	}
}

func (p *printer) Alert(title, message string) {
	fmt.Fprintln(p.out, p.title.Render(title))
	if message != "" {
		fmt.Fprintln(p.out, p.body.Render(message))
	}
}

// Navigate records the route. A move to the login screen becomes a hint
// to run climbd login.
func (p *printer) Navigate(route flow.Route) {
	p.route = route
	if route == flow.RouteLogin {
		fmt.Fprintln(p.out, p.hint.Render("Run `climbd login` to sign in to Strava."))
	}
}
