// Package journal exports uploaded activities outside Strava: as ICS
// files and as events on a Google Calendar.
package journal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"climbd/internal/activity"
)

// startLayout matches Activity.StartDateLocal. The trailing Z is literal:
// the wall clock is local time.
const startLayout = "2006-01-02T15:04:05.000Z"

// Journal receives every uploaded activity.
type Journal interface {
	Record(ctx context.Context, a activity.Activity) error
}

// Multi records into each journal in turn and joins their errors.
type Multi []Journal

func (m Multi) Record(ctx context.Context, a activity.Activity) error {
	var errs []error
	for _, j := range m {
		if err := j.Record(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// entry is an activity resolved to calendar terms.
type entry struct {
	UID         string
	Title       string
	Start       time.Time
	End         time.Time
	Description string
}

func newEntry(a activity.Activity, loc *time.Location) (entry, error) {
	start, err := time.ParseInLocation(startLayout, a.StartDateLocal, loc)
	if err != nil {
		return entry{}, fmt.Errorf("failed to parse start time %q: %w", a.StartDateLocal, err)
	}

	end := start
	if secs := float64(a.ElapsedTime); secs > 0 {
		end = start.Add(time.Duration(secs * float64(time.Second)))
	}

	title := a.Name
	if title == "" {
		title = a.Type
	}

	return entry{
		UID:         uuid.NewString() + "@climbd",
		Title:       title,
		Start:       start,
		End:         end,
		Description: describe(a),
	}, nil
}

func describe(a activity.Activity) string {
	return fmt.Sprintf("%s: %.2f km in %s\nElevation gain: %.0f m\n\nUploaded to Strava with Climbd",
		a.Type,
		float64(a.Distance)/1000,
		formatElapsed(float64(a.ElapsedTime)),
		float64(a.TotalElevationGain))
}

func formatElapsed(secs float64) string {
	if math.IsNaN(secs) || secs <= 0 {
		return "0:00:00"
	}
	d := time.Duration(secs) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
