// Package flow holds the user-facing flows of climbd: choosing the first
// screen, logging in with Strava and submitting an activity. Flows never
// return errors; they report to the user through a Notifier and move
// between screens through a Navigator.
package flow

import (
	"context"
	"io"
	"log/slog"
	"time"

	"climbd/internal/activity"
	"climbd/internal/oauth"
	"climbd/internal/relay"
	"climbd/internal/token"
)

// Route names a screen.
type Route string

const (
	RouteLogin          Route = "login"
	RouteUploadActivity Route = "upload-activity"
)

// Navigator switches screens.
type Navigator interface {
	Navigate(route Route)
}

// Notifier shows a modal message to the user. message may be empty.
type Notifier interface {
	Alert(title, message string)
}

// TokenStore is the credential storage used by the flows.
type TokenStore interface {
	ExpiresAt(ctx context.Context) (string, error)
	All(ctx context.Context) (token.Record, error)
	SetAll(ctx context.Context, accessToken, refreshToken, expiresAt string) error
	ClearAll(ctx context.Context) error
}

var _ TokenStore = (*token.Store)(nil)

// Authorizer runs the external authorization UI.
type Authorizer interface {
	Authorize(ctx context.Context, show func(authURL string)) oauth.Result
	RedirectURI() string
}

var _ Authorizer = (*oauth.Receiver)(nil)

// CodeExchanger trades an authorization code for tokens.
type CodeExchanger interface {
	Auth(ctx context.Context, code, redirectURI string) (relay.TokenResponse, error)
}

// Uploader submits an activity.
type Uploader interface {
	Upload(ctx context.Context, accessToken string, a activity.Activity) error
}

var (
	_ CodeExchanger = (*relay.Client)(nil)
	_ Uploader      = (*relay.Client)(nil)
)

// Recorder is told about every activity the relay accepted.
type Recorder interface {
	Record(ctx context.Context, a activity.Activity) error
}

// Deps are the collaborators shared by every flow.
type Deps struct {
	Tokens    TokenStore
	Navigator Navigator
	Notifier  Notifier
	Logger    *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
