package flow

import (
	"context"
	"errors"
	"sync"

	"climbd/internal/oauth"
	"climbd/internal/relay"
)

// AuthState is a step of the login flow.
type AuthState int

const (
	StateIdle AuthState = iota
	StateAwaitingRedirect
	StateExchangingCode
	StateAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingRedirect:
		return "awaiting-redirect"
	case StateExchangingCode:
		return "exchanging-code"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

const (
	loginFailedTitle    = "Failed to login to Climbd"
	exchangeFailedTitle = "Error"
	exchangeFallback    = "Failed to complete authentication"
)

// AuthFlow logs the user in: it runs the authorization UI, exchanges the
// returned code through the relay and stores the tokens.
type AuthFlow struct {
	deps       Deps
	authorizer Authorizer
	exchanger  CodeExchanger
	present    func(authURL string)

	mu    sync.Mutex
	state AuthState
}

// NewAuthFlow returns an idle flow. present is handed the authorize URL
// once the redirect listener is ready; it may be nil.
func NewAuthFlow(deps Deps, authorizer Authorizer, exchanger CodeExchanger, present func(authURL string)) *AuthFlow {
	return &AuthFlow{
		deps:       deps.withDefaults(),
		authorizer: authorizer,
		exchanger:  exchanger,
		present:    present,
	}
}

// State returns the current step.
func (f *AuthFlow) State() AuthState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy reports whether a login attempt is in progress.
func (f *AuthFlow) Busy() bool {
	s := f.State()
	return s == StateAwaitingRedirect || s == StateExchangingCode
}

// Login runs one attempt and returns the state it ended in: Authenticated
// or Idle. A call made while another attempt is running does nothing and
// returns the running attempt's state.
func (f *AuthFlow) Login(ctx context.Context) AuthState {
	f.mu.Lock()
	if f.state == StateAwaitingRedirect || f.state == StateExchangingCode {
		s := f.state
		f.mu.Unlock()
		return s
	}
	f.state = StateAwaitingRedirect
	f.mu.Unlock()

	res := f.authorizer.Authorize(ctx, f.present)
	return f.handleRedirect(ctx, res)
}

func (f *AuthFlow) handleRedirect(ctx context.Context, res oauth.Result) AuthState {
	log := f.deps.Logger

	switch res.Type {
	case oauth.ResultSuccess:
		if res.Code == "" {
			log.Warn("authorization redirect carried no code")
			return f.set(StateIdle)
		}
		return f.exchange(ctx, res.Code)

	case oauth.ResultError:
		msg := loginFailedTitle
		if res.Err != nil && res.Err.Error() != "" {
			msg = res.Err.Error()
		}
		log.Warn("authorization failed", "error", res.Err)
		f.deps.Notifier.Alert(loginFailedTitle, msg)
		return f.set(StateIdle)

	default:
		log.Info("authorization dismissed")
		return f.set(StateIdle)
	}
}

func (f *AuthFlow) exchange(ctx context.Context, code string) AuthState {
	log := f.deps.Logger
	f.set(StateExchangingCode)

	resp, err := f.exchanger.Auth(ctx, code, f.authorizer.RedirectURI())
	if err != nil {
		var httpErr *relay.HTTPError
		if errors.As(err, &httpErr) {
			log.Warn("auth function returned an error",
				"status", httpErr.StatusCode, "message", httpErr.Message, "body", string(httpErr.Body))
			return f.set(StateIdle)
		}
		f.fail(err)
		return f.set(StateIdle)
	}

	if err := f.deps.Tokens.SetAll(ctx, resp.AccessToken, resp.RefreshToken, resp.ExpiresAt.String()); err != nil {
		f.fail(err)
		return f.set(StateIdle)
	}

	log.Info("signed in to strava", "expires_at", resp.ExpiresAt.String())
	f.deps.Navigator.Navigate(RouteUploadActivity)
	return f.set(StateAuthenticated)
}

func (f *AuthFlow) fail(err error) {
	f.deps.Logger.Error("completing authentication", "error", err)
	msg := err.Error()
	if msg == "" {
		msg = exchangeFallback
	}
	f.deps.Notifier.Alert(exchangeFailedTitle, msg)
}

func (f *AuthFlow) set(s AuthState) AuthState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
	return s
}
