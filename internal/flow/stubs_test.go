package flow

import (
	"context"
	"sync"
	"time"

	"climbd/internal/activity"
	"climbd/internal/oauth"
	"climbd/internal/relay"
	"climbd/internal/storage"
	"climbd/internal/token"
)

var testNow = time.Unix(1_735_000_000, 0)

type recordingNavigator struct {
	routes []Route
}

var _ Navigator = (*recordingNavigator)(nil)

func (n *recordingNavigator) Navigate(route Route) { n.routes = append(n.routes, route) }

type alert struct {
	title, message string
}

type recordingNotifier struct {
	alerts []alert
}

var _ Notifier = (*recordingNotifier)(nil)

func (n *recordingNotifier) Alert(title, message string) {
	n.alerts = append(n.alerts, alert{title, message})
}

type harness struct {
	storage *storage.MemoryStorage
	tokens  *token.Store
	nav     *recordingNavigator
	alerts  *recordingNotifier
}

func newHarness() *harness {
	mem := storage.NewMemoryStorage()
	return &harness{
		storage: mem,
		tokens:  token.NewStore(mem),
		nav:     &recordingNavigator{},
		alerts:  &recordingNotifier{},
	}
}

func (h *harness) deps() Deps {
	return Deps{
		Tokens:    h.tokens,
		Navigator: h.nav,
		Notifier:  h.alerts,
		Now:       func() time.Time { return testNow },
	}
}

type stubAuthorizer struct {
	result oauth.Result
	// block, when set, is waited on before returning.
	block chan struct{}
}

var _ Authorizer = (*stubAuthorizer)(nil)

func (a *stubAuthorizer) Authorize(ctx context.Context, show func(string)) oauth.Result {
	if show != nil {
		show("https://www.strava.com/oauth/authorize?client_id=1")
	}
	if a.block != nil {
		<-a.block
	}
	return a.result
}

func (a *stubAuthorizer) RedirectURI() string { return "http://localhost:8081/exchange_token" }

type stubExchanger struct {
	resp relay.TokenResponse
	err  error

	code, redirectURI string
	calls             int
}

var _ CodeExchanger = (*stubExchanger)(nil)

func (e *stubExchanger) Auth(_ context.Context, code, redirectURI string) (relay.TokenResponse, error) {
	e.calls++
	e.code, e.redirectURI = code, redirectURI
	return e.resp, e.err
}

type stubUploader struct {
	mu    sync.Mutex
	err   error
	calls int
	token string
	got   activity.Activity
	block chan struct{}
}

var _ Uploader = (*stubUploader)(nil)

func (u *stubUploader) Upload(_ context.Context, accessToken string, a activity.Activity) error {
	u.mu.Lock()
	u.calls++
	u.token = accessToken
	u.got = a
	block := u.block
	u.mu.Unlock()
	if block != nil {
		<-block
	}
	return u.err
}

type stubRecorder struct {
	err      error
	recorded []activity.Activity
}

var _ Recorder = (*stubRecorder)(nil)

func (r *stubRecorder) Record(_ context.Context, a activity.Activity) error {
	r.recorded = append(r.recorded, a)
	return r.err
}
