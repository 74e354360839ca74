package flow

import (
	"context"
	"errors"
	"sync/atomic"

	"climbd/internal/activity"
	"climbd/internal/relay"
	"climbd/internal/token"
)

// Outcome is how a submission ended.
type Outcome int

const (
	OutcomeUploaded Outcome = iota
	// OutcomeRejected means the relay refused the activity.
	OutcomeRejected
	OutcomeFailed
	// OutcomeRedirected means the credentials were missing or expired and
	// the user was sent to the login screen.
	OutcomeRedirected
	// OutcomeBusy means another submission was still running.
	OutcomeBusy
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUploaded:
		return "uploaded"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	case OutcomeRedirected:
		return "redirected"
	case OutcomeBusy:
		return "busy"
	default:
		return "unknown"
	}
}

const (
	uploadFailedTitle    = "There was an issue uploading your activity."
	uploadSucceededTitle = "Activity uploaded successfully!"
	tokenExpiredTitle    = "Token expired"
	tokenExpiredMessage  = "Please login again"
)

// Submitter uploads the activity described by a form.
type Submitter struct {
	deps     Deps
	uploader Uploader
	recorder Recorder

	inFlight atomic.Bool
}

// NewSubmitter returns a Submitter. recorder may be nil.
func NewSubmitter(deps Deps, uploader Uploader, recorder Recorder) *Submitter {
	return &Submitter{
		deps:     deps.withDefaults(),
		uploader: uploader,
		recorder: recorder,
	}
}

// InFlight reports whether a submission is running.
func (s *Submitter) InFlight() bool {
	return s.inFlight.Load()
}

// Submit checks the stored credentials and uploads form's activity. The
// form is only read.
func (s *Submitter) Submit(ctx context.Context, form *activity.Form) Outcome {
	if !s.inFlight.CompareAndSwap(false, true) {
		return OutcomeBusy
	}
	defer s.inFlight.Store(false)

	log := s.deps.Logger

	rec, err := s.deps.Tokens.All(ctx)
	if err != nil {
		log.Error("reading tokens", "error", err)
		s.deps.Notifier.Alert(uploadFailedTitle, "")
		return OutcomeFailed
	}

	if rec.AccessToken == "" || rec.ExpiresAt == "" {
		s.signOut(ctx)
		return OutcomeRedirected
	}

	if token.IsExpired(rec.ExpiresAt, s.deps.Now()) {
		s.deps.Notifier.Alert(tokenExpiredTitle, tokenExpiredMessage)
		s.signOut(ctx)
		return OutcomeRedirected
	}

	a := form.Activity()
	if err := s.uploader.Upload(ctx, rec.AccessToken, a); err != nil {
		var httpErr *relay.HTTPError
		if errors.As(err, &httpErr) {
			log.Warn("upload function returned an error",
				"status", httpErr.StatusCode, "message", httpErr.Message)
			s.deps.Notifier.Alert(uploadFailedTitle, httpErr.Message)
			return OutcomeRejected
		}
		log.Error("uploading activity", "error", err)
		s.deps.Notifier.Alert(uploadFailedTitle, "")
		return OutcomeFailed
	}

	log.Info("activity uploaded", "name", a.Name, "start", a.StartDateLocal)
	s.deps.Notifier.Alert(uploadSucceededTitle, "")

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, a); err != nil {
			log.Error("recording activity", "error", err)
		}
	}
	return OutcomeUploaded
}

func (s *Submitter) signOut(ctx context.Context) {
	if err := s.deps.Tokens.ClearAll(ctx); err != nil {
		s.deps.Logger.Error("clearing tokens", "error", err)
	}
	s.deps.Navigator.Navigate(RouteLogin)
}
