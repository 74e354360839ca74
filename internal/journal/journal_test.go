package journal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"climbd/internal/activity"
)

func sampleActivity() activity.Activity {
	return activity.Activity{
		Name:               "Hills, repeats; again",
		Type:               activity.TypeRun,
		StartDateLocal:     "2024-12-25T14:30:00.000Z",
		ElapsedTime:        3723,
		Description:        activity.DefaultDescription,
		Distance:           10000,
		Trainer:            1,
		TotalElevationGain: 500,
	}
}

func TestICSExporterWritesEvent(t *testing.T) {
	dir := t.TempDir()
	x := &ICSExporter{Dir: dir, Now: func() time.Time { return time.Date(2024, 12, 25, 16, 0, 0, 0, time.UTC) }}

	require.NoError(t, x.Record(context.Background(), sampleActivity()))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.True(t, strings.HasSuffix(files[0].Name(), ".ics"))

	data, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	ics := string(data)

	require.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n"))
	require.Contains(t, ics, "DTSTART:20241225T143000\r\n")
	require.Contains(t, ics, "DTEND:20241225T153203\r\n")
	require.Contains(t, ics, "DTSTAMP:20241225T160000Z\r\n")
	require.Contains(t, ics, `SUMMARY:Hills\, repeats\; again`)
	require.Contains(t, ics, "@climbd\r\n")
	require.Contains(t, ics, "10.00 km in 1:02:03")
	require.True(t, strings.HasSuffix(ics, "END:VCALENDAR\r\n"))
}

func TestICSExporterRejectsUnparseableStart(t *testing.T) {
	a := sampleActivity()
	a.StartDateLocal = "--25T14:30:00.000Z"

	err := (&ICSExporter{Dir: t.TempDir()}).Record(context.Background(), a)
	require.Error(t, err)
}

func TestFoldLine(t *testing.T) {
	line := strings.Repeat("a", 160)
	folded := foldLine(line)

	parts := strings.Split(folded, "\r\n ")
	require.Len(t, parts, 3)
	require.Len(t, parts[0], 75)
	require.Equal(t, line, strings.Join(parts, ""))

	// Multi-byte runes stay intact.
	folded = foldLine(strings.Repeat("é", 60))
	for _, part := range strings.Split(folded, "\r\n ") {
		require.True(t, len(part) <= 75)
		require.True(t, strings.ToValidUTF8(part, "?") == part)
	}
}

func TestCalendarMirrorInsertsEvent(t *testing.T) {
	var got calendar.Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/calendars/runs@example.com/events"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"evt1"}`)
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := calendar.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	m := &CalendarMirror{Service: svc, CalendarID: "runs@example.com", Location: london}
	require.NoError(t, m.Record(ctx, sampleActivity()))

	require.Equal(t, "Hills, repeats; again", got.Summary)
	require.Equal(t, "2024-12-25T14:30:00Z", got.Start.DateTime)
	require.Equal(t, "2024-12-25T15:32:03Z", got.End.DateTime)
	require.Equal(t, "Europe/London", got.Start.TimeZone)
	require.True(t, strings.HasSuffix(got.ICalUID, "@climbd"))
}

func TestCalendarMirrorReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"forbidden"}}`)
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := calendar.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	err = (&CalendarMirror{Service: svc, CalendarID: "primary"}).Record(ctx, sampleActivity())
	require.Error(t, err)
}

func TestMultiJoinsErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	ok := &recording{}

	err := Multi{failing{first}, ok, failing{second}}.Record(context.Background(), sampleActivity())
	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, second)
	require.Equal(t, 1, ok.calls)
}

type failing struct{ err error }

func (f failing) Record(context.Context, activity.Activity) error { return f.err }

type recording struct{ calls int }

func (r *recording) Record(context.Context, activity.Activity) error {
	r.calls++
	return nil
}
