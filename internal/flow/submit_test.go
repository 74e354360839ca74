package flow

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"climbd/internal/activity"
	"climbd/internal/relay"
)

func filledForm() *activity.Form {
	f := activity.NewForm(testNow)
	f.Apply(map[activity.Field]string{
		activity.FieldTitle:    "Treadmill hills",
		activity.FieldDistance: "10",
		activity.FieldIncline:  "5",
		activity.FieldDuration: "01:02:03",
		activity.FieldDate:     "25/12/2024",
		activity.FieldTime:     "14:30",
	})
	return f
}

func signIn(t *testing.T, h *harness, expiresAt int64) {
	t.Helper()
	require.NoError(t, h.tokens.SetAll(context.Background(), "access", "refresh", strconv.FormatInt(expiresAt, 10)))
}

func TestSubmitUploadsActivity(t *testing.T) {
	h := newHarness()
	signIn(t, h, testNow.Unix()+3600)
	uploader := &stubUploader{}
	recorder := &stubRecorder{}
	form := filledForm()

	outcome := NewSubmitter(h.deps(), uploader, recorder).Submit(context.Background(), form)

	require.Equal(t, OutcomeUploaded, outcome)
	require.Equal(t, 1, uploader.calls)
	require.Equal(t, "access", uploader.token)
	require.Equal(t, "2024-12-25T14:30:00.000Z", uploader.got.StartDateLocal)
	require.Equal(t, activity.Number(3723), uploader.got.ElapsedTime)
	require.Equal(t, activity.Number(10000), uploader.got.Distance)
	require.Equal(t, activity.Number(500), uploader.got.TotalElevationGain)
	require.Equal(t, []alert{{"Activity uploaded successfully!", ""}}, h.alerts.alerts)
	require.Len(t, recorder.recorded, 1)

	// The form is not reset after a successful upload.
	require.Equal(t, "Treadmill hills", form.Value(activity.FieldTitle))
}

func TestSubmitWithoutAccessTokenRedirectsBeforeNetwork(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	require.NoError(t, h.tokens.SetAll(ctx, "", "refresh", strconv.FormatInt(testNow.Unix()+3600, 10)))
	uploader := &stubUploader{}

	outcome := NewSubmitter(h.deps(), uploader, nil).Submit(ctx, filledForm())

	require.Equal(t, OutcomeRedirected, outcome)
	require.Equal(t, 0, uploader.calls)
	require.Equal(t, []Route{RouteLogin}, h.nav.routes)
	require.Empty(t, h.alerts.alerts)
	require.Equal(t, 0, h.storage.Len())
}

func TestSubmitWithExpiredTokenAlertsAndRedirects(t *testing.T) {
	h := newHarness()
	signIn(t, h, testNow.Unix()-10)
	uploader := &stubUploader{}

	outcome := NewSubmitter(h.deps(), uploader, nil).Submit(context.Background(), filledForm())

	require.Equal(t, OutcomeRedirected, outcome)
	require.Equal(t, 0, uploader.calls)
	require.Equal(t, []alert{{"Token expired", "Please login again"}}, h.alerts.alerts)
	require.Equal(t, []Route{RouteLogin}, h.nav.routes)
	require.Equal(t, 0, h.storage.Len())
}

func TestSubmitRelayRejectionKeepsForm(t *testing.T) {
	h := newHarness()
	signIn(t, h, testNow.Unix()+3600)
	uploader := &stubUploader{err: &relay.HTTPError{Function: "upload", StatusCode: 401, Message: "invalid token"}}
	recorder := &stubRecorder{}
	form := filledForm()
	before := form.Clone()

	s := NewSubmitter(h.deps(), uploader, recorder)
	outcome := s.Submit(context.Background(), form)

	require.Equal(t, OutcomeRejected, outcome)
	require.Len(t, h.alerts.alerts, 1)
	require.Contains(t, h.alerts.alerts[0].message, "invalid token")
	require.Equal(t, "There was an issue uploading your activity.", h.alerts.alerts[0].title)
	for _, field := range activity.Fields {
		require.Equal(t, before.Value(field), form.Value(field), field.String())
	}
	require.False(t, s.InFlight())
	require.Empty(t, recorder.recorded)
	require.Empty(t, h.nav.routes)
}

func TestSubmitNetworkFailureShowsGenericAlert(t *testing.T) {
	h := newHarness()
	signIn(t, h, testNow.Unix()+3600)
	uploader := &stubUploader{err: errors.New("connection reset")}

	outcome := NewSubmitter(h.deps(), uploader, nil).Submit(context.Background(), filledForm())

	require.Equal(t, OutcomeFailed, outcome)
	require.Equal(t, []alert{{"There was an issue uploading your activity.", ""}}, h.alerts.alerts)
}

func TestSubmitStorageFailureShowsGenericAlert(t *testing.T) {
	h := newHarness()
	deps := h.deps()
	deps.Tokens = brokenTokens{err: errors.New("io error")}
	uploader := &stubUploader{}

	outcome := NewSubmitter(deps, uploader, nil).Submit(context.Background(), filledForm())

	require.Equal(t, OutcomeFailed, outcome)
	require.Equal(t, 0, uploader.calls)
	require.Len(t, h.alerts.alerts, 1)
}

func TestSubmitRecorderFailureDoesNotFailUpload(t *testing.T) {
	h := newHarness()
	signIn(t, h, testNow.Unix()+3600)

	outcome := NewSubmitter(h.deps(), &stubUploader{}, &stubRecorder{err: errors.New("calendar down")}).
		Submit(context.Background(), filledForm())

	require.Equal(t, OutcomeUploaded, outcome)
	require.Equal(t, []alert{{"Activity uploaded successfully!", ""}}, h.alerts.alerts)
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	h := newHarness()
	signIn(t, h, testNow.Unix()+3600)
	block := make(chan struct{})
	uploader := &stubUploader{block: block}
	s := NewSubmitter(h.deps(), uploader, nil)

	done := make(chan Outcome, 1)
	go func() { done <- s.Submit(context.Background(), filledForm()) }()

	require.Eventually(t, s.InFlight, time.Second, time.Millisecond)
	require.Equal(t, OutcomeBusy, s.Submit(context.Background(), filledForm()))

	close(block)
	require.Equal(t, OutcomeUploaded, <-done)
	require.False(t, s.InFlight())
}
