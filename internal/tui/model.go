// Package tui is the interactive terminal front end of climbd: a loading
// screen while the stored login is checked, a login screen and the
// activity upload form.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"climbd/internal/activity"
	"climbd/internal/flow"
)

// Router picks the first screen.
type Router interface {
	Route(ctx context.Context) flow.Route
}

// LoginFlow runs one login attempt.
type LoginFlow interface {
	Login(ctx context.Context) flow.AuthState
}

// SubmitFlow uploads the activity described by a form.
type SubmitFlow interface {
	Submit(ctx context.Context, form *activity.Form) flow.Outcome
}

var (
	_ Router     = (*flow.EntryRouter)(nil)
	_ LoginFlow  = (*flow.AuthFlow)(nil)
	_ SubmitFlow = (*flow.Submitter)(nil)
)

type screen int

const (
	screenLoading screen = iota
	screenLogin
	screenUpload
)

// loginDoneMsg reports the end of a login attempt.
type loginDoneMsg struct {
	state flow.AuthState
}

// submitDoneMsg reports the end of a submission.
type submitDoneMsg struct {
	outcome flow.Outcome
}

var placeholders = map[activity.Field]string{
	activity.FieldTitle:     "My Morning Run",
	activity.FieldDistance:  "10",
	activity.FieldDuration:  "00:45:00",
	activity.FieldDate:      "dd/mm/yyyy",
	activity.FieldTime:      "hh:mm",
	activity.FieldIncline:   "1",
	activity.FieldElevation: "100",
}

// Options configures New. Keys and Theme default to DefaultKeyMap and
// DefaultTheme.
type Options struct {
	Router    Router
	Auth      LoginFlow
	Submitter SubmitFlow
	Form      *activity.Form
	Keys      *KeyMap
	Theme     *Theme
}

// Model is the bubbletea model of the climbd TUI.
type Model struct {
	ctx       context.Context
	router    Router
	auth      LoginFlow
	submitter SubmitFlow
	form      *activity.Form

	keys   KeyMap
	styles styles

	screen  screen
	spinner spinner.Model
	inputs  []textinput.Model
	focus   int

	loggingIn   bool
	cancelLogin context.CancelFunc
	authURL     string
	uploading   bool
	alert       *alertMsg
}

// New returns a model on the loading screen. ctx bounds every flow the
// model starts.
func New(ctx context.Context, opts Options) Model {
	keys := DefaultKeyMap
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	theme := DefaultTheme
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	st := newStyles(theme)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = st.spinner

	inputs := make([]textinput.Model, len(activity.Fields))
	for i, field := range activity.Fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[field]
		in.SetValue(opts.Form.Value(field))
		inputs[i] = in
	}

	return Model{
		ctx:       ctx,
		router:    opts.Router,
		auth:      opts.Auth,
		submitter: opts.Submitter,
		form:      opts.Form,
		keys:      keys,
		styles:    st,
		spinner:   sp,
		inputs:    inputs,
	}
}

func (m Model) Init() tea.Cmd {
	router, ctx := m.router, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return navigateMsg{route: router.Route(ctx)}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case navigateMsg:
		cmd := m.navigate(msg.route)
		return m, cmd

	case alertMsg:
		m.alert = &msg
		return m, nil

	case authURLMsg:
		m.authURL = msg.url
		return m, nil

	case loginDoneMsg:
		m.loggingIn = false
		m.authURL = ""
		if m.cancelLogin != nil {
			m.cancelLogin()
			m.cancelLogin = nil
		}
		return m, nil

	case submitDoneMsg:
		m.uploading = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blink and friends.
	if m.screen == screenUpload {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.cancelLogin != nil {
			m.cancelLogin()
		}
		return m, tea.Quit
	}

	// An open alert is modal.
	if m.alert != nil {
		if key.Matches(msg, m.keys.Dismiss) {
			m.alert = nil
		}
		return m, nil
	}

	switch m.screen {
	case screenLogin:
		return m.handleLoginKey(msg)
	case screenUpload:
		return m.handleUploadKey(msg)
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Login):
		if m.loggingIn {
			return m, nil
		}
		ctx, cancel := context.WithCancel(m.ctx)
		m.loggingIn = true
		m.cancelLogin = cancel
		auth := m.auth
		return m, func() tea.Msg {
			return loginDoneMsg{state: auth.Login(ctx)}
		}

	case key.Matches(msg, m.keys.Cancel):
		if m.cancelLogin != nil {
			m.cancelLogin()
		}
	}
	return m, nil
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		if m.uploading {
			return m, nil
		}
		m.uploading = true
		form, submitter, ctx := m.form.Clone(), m.submitter, m.ctx
		return m, func() tea.Msg {
			return submitDoneMsg{outcome: submitter.Submit(ctx, form)}
		}

	case key.Matches(msg, m.keys.Reset):
		m.form.Reset()
		m.syncInputs()
		return m, nil

	case key.Matches(msg, m.keys.Next):
		cmd := m.focusField((m.focus + 1) % len(m.inputs))
		return m, cmd

	case key.Matches(msg, m.keys.Prev):
		cmd := m.focusField((m.focus + len(m.inputs) - 1) % len(m.inputs))
		return m, cmd
	}

	field := activity.Fields[m.focus]
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if value := m.inputs[m.focus].Value(); value != m.form.Value(field) {
		// A rejected edit is rolled back by syncInputs.
		m.form.Edit(field, value)
		m.syncInputs()
	}
	return m, cmd
}

func (m *Model) navigate(route flow.Route) tea.Cmd {
	if route == flow.RouteUploadActivity {
		if m.screen == screenUpload {
			return nil
		}
		m.screen = screenUpload
		return m.focusField(m.focus)
	}
	m.screen = screenLogin
	m.inputs[m.focus].Blur()
	return nil
}

func (m *Model) focusField(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

// syncInputs copies form values into inputs that differ.
func (m *Model) syncInputs() {
	for i, field := range activity.Fields {
		if value := m.form.Value(field); m.inputs[i].Value() != value {
			m.inputs[i].SetValue(value)
		}
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Climbd"))
	b.WriteString("\n")

	switch m.screen {
	case screenLoading:
		b.WriteString(m.spinner.View() + " Checking your Strava login...")
	case screenLogin:
		b.WriteString(m.loginView())
	case screenUpload:
		b.WriteString(m.uploadView())
	}

	if m.alert != nil {
		b.WriteString("\n")
		b.WriteString(m.alertView())
	}

	b.WriteString("\n")
	b.WriteString(m.helpView())
	return b.String()
}

func (m Model) loginView() string {
	if !m.loggingIn {
		return "Log your treadmill runs to Strava.\n\nPress enter to login with Strava."
	}
	if m.authURL == "" {
		return m.spinner.View() + " Starting login..."
	}
	return "Open this link to authorize Climbd:\n\n" +
		m.styles.link.Render(m.authURL) + "\n\n" +
		m.spinner.View() + " Waiting for Strava..."
}

func (m Model) uploadView() string {
	var b strings.Builder
	for i, field := range activity.Fields {
		label := m.styles.label
		if i == m.focus {
			label = m.styles.focused
		}
		b.WriteString(label.Render(field.Label()))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	if m.uploading {
		b.WriteString("\n" + m.spinner.View() + " Uploading...")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) alertView() string {
	body := m.styles.alertTitle.Render(m.alert.title)
	if m.alert.message != "" {
		body += "\n" + m.styles.alertBody.Render(m.alert.message)
	}
	return m.styles.alertBox.Render(body)
}

func (m Model) helpView() string {
	var bindings []key.Binding
	switch {
	case m.alert != nil:
		bindings = []key.Binding{m.keys.Dismiss}
	case m.screen == screenLogin && m.loggingIn:
		bindings = []key.Binding{m.keys.Cancel}
	case m.screen == screenLogin:
		bindings = []key.Binding{m.keys.Login}
	case m.screen == screenUpload:
		bindings = []key.Binding{m.keys.Next, m.keys.Prev, m.keys.Submit, m.keys.Reset}
	}
	bindings = append(bindings, m.keys.Quit)

	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return m.styles.help.Render(strings.Join(parts, " • "))
}
