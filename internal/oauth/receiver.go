// Package oauth drives the browser half of the Strava authorization code
// flow: it builds the authorize URL and waits on a loopback listener for
// Strava to redirect back.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// StravaAuthorizeURL is Strava's OAuth authorization endpoint.
const StravaAuthorizeURL = "https://www.strava.com/oauth/authorize"

// ErrStateMismatch reports a redirect whose state does not match the
// request, which is treated as a failed login.
var ErrStateMismatch = errors.New("oauth state mismatch")

// ResultType classifies how the authorization UI finished.
type ResultType string

const (
	ResultSuccess ResultType = "success"
	ResultError   ResultType = "error"
	// ResultDismiss means the user abandoned the flow.
	ResultDismiss ResultType = "dismiss"
)

// Result is the outcome of one authorization attempt.
type Result struct {
	Type ResultType
	// Code is the authorization code; set only for ResultSuccess.
	Code string
	// Err describes a ResultError.
	Err error
}

// Config describes the client registration.
type Config struct {
	ClientID     string
	AuthorizeURL string
	RedirectURI  string
	Scope        string
}

// Receiver runs one authorization attempt at a time.
type Receiver struct {
	config   oauth2.Config
	redirect *url.URL
	logger   *slog.Logger
	state    func() (string, error)
}

// NewReceiver validates cfg. The redirect URI must be a plain http URL
// with an explicit port so it can be served locally.
func NewReceiver(cfg Config, logger *slog.Logger) (*Receiver, error) {
	redirect, err := url.Parse(cfg.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect uri: %w", err)
	}
	if redirect.Scheme != "http" || redirect.Port() == "" {
		return nil, fmt.Errorf("redirect uri %q must be http://host:port/path", cfg.RedirectURI)
	}
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = StravaAuthorizeURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Receiver{
		config: oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      []string{cfg.Scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		redirect: redirect,
		logger:   logger,
		state:    randomState,
	}, nil
}

// RedirectURI returns the URI Strava redirects back to.
func (r *Receiver) RedirectURI() string {
	return r.config.RedirectURL
}

// AuthCodeURL builds the authorize URL for state.
func (r *Receiver) AuthCodeURL(state string) string {
	return r.config.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "force"))
}

// Authorize listens on the redirect address, hands the authorize URL to
// show, and blocks until the redirect arrives or ctx ends. Listening
// failures are returned as ResultError; cancellation as ResultDismiss.
func (r *Receiver) Authorize(ctx context.Context, show func(authURL string)) Result {
	state, err := r.state()
	if err != nil {
		return Result{Type: ResultError, Err: err}
	}

	listener, err := net.Listen("tcp", r.redirect.Host)
	if err != nil {
		return Result{Type: ResultError, Err: fmt.Errorf("failed to listen for redirect on %s: %w", r.redirect.Host, err)}
	}

	results := make(chan Result, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(r.callbackPath(), func(w http.ResponseWriter, req *http.Request) {
		res := r.parseRedirect(req.URL.Query(), state)
		writeLanding(w, res)
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("redirect listener stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := r.AuthCodeURL(state)
	r.logger.Debug("awaiting authorization redirect", "listen", listener.Addr().String())
	if show != nil {
		show(authURL)
	}

	select {
	case res := <-results:
		return res
	case <-ctx.Done():
		return Result{Type: ResultDismiss, Err: ctx.Err()}
	}
}

func (r *Receiver) callbackPath() string {
	if r.redirect.Path == "" {
		return "/"
	}
	return r.redirect.Path
}

// parseRedirect maps the redirect query to a Result. Strava reports a
// denied request as error=access_denied.
func (r *Receiver) parseRedirect(q url.Values, wantState string) Result {
	if q.Get("state") != wantState {
		return Result{Type: ResultError, Err: ErrStateMismatch}
	}
	if e := q.Get("error"); e != "" {
		msg := e
		if desc := q.Get("error_description"); desc != "" {
			msg = e + ": " + desc
		}
		return Result{Type: ResultError, Err: errors.New(msg)}
	}
	return Result{Type: ResultSuccess, Code: q.Get("code")}
}

func writeLanding(w http.ResponseWriter, res Result) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if res.Type == ResultSuccess {
		fmt.Fprint(w, "<html><body><p>Climbd is signed in. You can close this window.</p></body></html>")
		return
	}
	w.WriteHeader(http.StatusBadRequest)
	msg := "login failed"
	if res.Err != nil {
		msg = res.Err.Error()
	}
	fmt.Fprintf(w, "<html><body><p>Climbd login failed: %s</p></body></html>", html.EscapeString(msg))
}

// randomState returns 32 bytes of base64url randomness.
func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("oauth: failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
