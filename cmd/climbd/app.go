package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"climbd/internal/config"
	"climbd/internal/flow"
	"climbd/internal/journal"
	"climbd/internal/oauth"
	"climbd/internal/relay"
	"climbd/internal/storage"
	"climbd/internal/token"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	tokens  *token.Store
	relay   *relay.Client
	journal flow.Recorder

	closeLog func() error
}

// newApp wires storage, relay and journals. In TUI mode logs go to the
// configured file or nowhere, so they cannot corrupt the screen.
func newApp(ctx context.Context, cfg config.Config, tui bool) (*app, error) {
	logger, closeLog, err := newLogger(cfg, tui)
	if err != nil {
		return nil, err
	}

	var httpClient *http.Client
	if cfg.Relay.Timeout > 0 {
		httpClient = &http.Client{Timeout: cfg.Relay.Timeout}
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		tokens:   token.NewStore(storageFor(cfg)),
		relay:    relay.NewClient(cfg.Relay.URL, cfg.Relay.Key, httpClient),
		closeLog: closeLog,
	}

	a.journal, err = newJournal(ctx, cfg, logger)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	return a, nil
}

func storageFor(cfg config.Config) storage.Storage {
	return storage.NewFileStorage(cfg.Storage.Path)
}

func (a *app) Close() error {
	return a.closeLog()
}

func (a *app) deps(nav flow.Navigator, notifier flow.Notifier) flow.Deps {
	return flow.Deps{
		Tokens:    a.tokens,
		Navigator: nav,
		Notifier:  notifier,
		Logger:    a.logger,
	}
}

func (a *app) receiver() (*oauth.Receiver, error) {
	return oauth.NewReceiver(oauth.Config{
		ClientID:     a.cfg.Strava.ClientID,
		AuthorizeURL: a.cfg.Strava.AuthorizeURL,
		RedirectURI:  a.cfg.Strava.RedirectURI,
		Scope:        a.cfg.Strava.Scope,
	}, a.logger)
}

func newLogger(cfg config.Config, tui bool) (*slog.Logger, func() error, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stderr
	closeLog := func() error { return nil }
	switch {
	case cfg.Log.File != "":
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o700); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out, closeLog = f, f.Close
	case tui:
		out = io.Discard
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closeLog, nil
}

// newJournal returns the journals enabled by cfg, or nil when there are
// none.
func newJournal(ctx context.Context, cfg config.Config, logger *slog.Logger) (flow.Recorder, error) {
	var journals journal.Multi

	if cfg.Export.ICSDir != "" {
		journals = append(journals, &journal.ICSExporter{Dir: cfg.Export.ICSDir})
		logger.Debug("ics export enabled", "dir", cfg.Export.ICSDir)
	}

	if cfg.Calendar.ID != "" {
		key, err := cfg.ServiceAccountKey()
		if err != nil {
			return nil, err
		}
		srv, err := journal.NewCalendarService(ctx, key)
		if err != nil {
			return nil, err
		}
		loc, err := cfg.Location()
		if err != nil {
			return nil, fmt.Errorf("calendar.timezone: %w", err)
		}
		journals = append(journals, &journal.CalendarMirror{
			Service:    srv,
			CalendarID: cfg.Calendar.ID,
			Location:   loc,
		})
		logger.Debug("google calendar mirror enabled", "calendar", cfg.Calendar.ID)
	}

	if len(journals) == 0 {
		return nil, nil
	}
	return journals, nil
}

// openBrowser asks the desktop to open url. Failures are logged; the URL
// is always shown to the user as well.
func openBrowser(url string, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("could not open browser", "error", err)
		return
	}
	go func() { _ = cmd.Wait() }()
}
