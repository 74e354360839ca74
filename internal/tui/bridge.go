package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"climbd/internal/flow"
)

// navigateMsg switches the visible screen.
type navigateMsg struct {
	route flow.Route
}

// alertMsg opens the alert box.
type alertMsg struct {
	title   string
	message string
}

// authURLMsg carries the Strava authorize URL once the redirect listener
// is ready.
type authURLMsg struct {
	url string
}

// Bridge delivers flow callbacks to a running bubbletea program. Flows run
// inside tea.Cmd goroutines; the bridge turns their Navigate and Alert
// calls into messages for the model.
//
// The bridge must exist before the flows are built. Call SetProgram once
// the tea.Program is created; calls made before that are dropped.
type Bridge struct {
	program atomic.Pointer[tea.Program]
}

var (
	_ flow.Navigator = (*Bridge)(nil)
	_ flow.Notifier  = (*Bridge)(nil)
)

func NewBridge() *Bridge {
	return &Bridge{}
}

// SetProgram sets the program that receives messages. Safe to call from
// any goroutine.
func (b *Bridge) SetProgram(p *tea.Program) {
	b.program.Store(p)
}

func (b *Bridge) Navigate(route flow.Route) {
	b.send(navigateMsg{route: route})
}

func (b *Bridge) Alert(title, message string) {
	b.send(alertMsg{title: title, message: message})
}

// Present shows the authorize URL on the login screen. It is passed to
// flow.NewAuthFlow.
func (b *Bridge) Present(authURL string) {
	b.send(authURLMsg{url: authURL})
}

func (b *Bridge) send(msg tea.Msg) {
	if p := b.program.Load(); p != nil {
		p.Send(msg)
	}
}
