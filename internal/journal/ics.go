package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"climbd/internal/activity"
)

// ICSExporter writes one .ics file per activity into Dir.
type ICSExporter struct {
	Dir string
	// Now stamps DTSTAMP; defaults to time.Now.
	Now func() time.Time
}

var _ Journal = (*ICSExporter)(nil)

// Record writes <uid>.ics for a.
func (x *ICSExporter) Record(_ context.Context, a activity.Activity) error {
	e, err := newEntry(a, time.Local)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(x.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	now := time.Now
	if x.Now != nil {
		now = x.Now
	}

	name := strings.TrimSuffix(e.UID, "@climbd") + ".ics"
	path := filepath.Join(x.Dir, name)
	if err := os.WriteFile(path, []byte(generateICS(e, now())), 0o644); err != nil {
		return fmt.Errorf("error saving ICS file: %w", err)
	}
	return nil
}

// generateICS renders a single-event calendar. Start and end are floating
// local times since the activity carries no zone.
func generateICS(e entry, stamp time.Time) string {
	var b strings.Builder

	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//Climbd//Manual Activities//EN\r\n")
	b.WriteString("CALSCALE:GREGORIAN\r\n")
	b.WriteString("METHOD:PUBLISH\r\n")

	b.WriteString("BEGIN:VEVENT\r\n")
	b.WriteString(fmt.Sprintf("UID:%s\r\n", e.UID))
	b.WriteString(fmt.Sprintf("DTSTART:%s\r\n", e.Start.Format("20060102T150405")))
	b.WriteString(fmt.Sprintf("DTEND:%s\r\n", e.End.Format("20060102T150405")))
	b.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", stamp.UTC().Format("20060102T150405Z")))
	b.WriteString(formatICSProperty("SUMMARY", e.Title))
	b.WriteString(formatICSProperty("DESCRIPTION", e.Description))
	b.WriteString("CATEGORIES:Running\r\n")
	b.WriteString("END:VEVENT\r\n")

	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

// escapeICSText escapes TEXT values per RFC 5545.
func escapeICSText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// foldLine wraps content lines at 75 octets, continuing with a space.
func foldLine(line string) string {
	const maxLen = 75

	var b strings.Builder
	for len(line) > maxLen {
		cut := maxLen
		// Do not split a UTF-8 sequence.
		for cut > 0 && line[cut]&0xC0 == 0x80 {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
	}
	b.WriteString(line)
	return b.String()
}

func formatICSProperty(property, value string) string {
	return foldLine(property+":"+escapeICSText(value)) + "\r\n"
}
