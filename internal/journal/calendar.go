package journal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"climbd/internal/activity"
)

// NewCalendarService authenticates with a service account JSON key.
func NewCalendarService(ctx context.Context, serviceAccountKey []byte) (*calendar.Service, error) {
	config, err := google.JWTConfigFromJSON(serviceAccountKey, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account key: %w", err)
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar service: %w", err)
	}
	return srv, nil
}

// CalendarMirror inserts each activity as an event on a Google Calendar.
type CalendarMirror struct {
	Service    *calendar.Service
	CalendarID string
	// Location interprets the activity's wall-clock start; defaults to
	// time.Local.
	Location *time.Location
}

var _ Journal = (*CalendarMirror)(nil)

// Record inserts a as a calendar event.
func (c *CalendarMirror) Record(ctx context.Context, a activity.Activity) error {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}

	e, err := newEntry(a, loc)
	if err != nil {
		return err
	}

	if _, err := c.Service.Events.Insert(c.CalendarID, calendarEvent(e, loc)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create calendar event: %w", err)
	}
	return nil
}

func calendarEvent(e entry, loc *time.Location) *calendar.Event {
	// "Local" is not an IANA name; the RFC 3339 offset is enough then.
	zone := loc.String()
	if loc == time.Local || zone == "Local" {
		zone = ""
	}
	return &calendar.Event{
		Summary:     e.Title,
		Description: e.Description,
		Start: &calendar.EventDateTime{
			DateTime: e.Start.Format(time.RFC3339),
			TimeZone: zone,
		},
		End: &calendar.EventDateTime{
			DateTime: e.End.Format(time.RFC3339),
			TimeZone: zone,
		},
		ICalUID: e.UID,
		Source: &calendar.EventSource{
			Title: "Strava",
			Url:   "https://www.strava.com/athlete/training",
		},
	}
}
