package activity

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Layouts of the date and time inputs.
const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04"
)

// Field identifies one input of the form.
type Field int

const (
	FieldTitle Field = iota
	FieldDistance
	FieldDuration
	FieldDate
	FieldTime
	FieldIncline
	FieldElevation

	fieldCount
)

// Fields lists every input in display order.
var Fields = []Field{FieldTitle, FieldDistance, FieldDuration, FieldDate, FieldTime, FieldIncline, FieldElevation}

var fieldNames = [fieldCount]string{"title", "distance", "duration", "date", "time", "incline", "elevation"}

var fieldLabels = [fieldCount]string{
	"Title (e.g. My Morning Run)",
	"Distance (km)",
	"Duration (hh:mm:ss)",
	"Date (dd/mm/yyyy)",
	"Time (hh:mm)",
	"Incline (%)",
	"Elevation (m)",
}

// Character limits; edits that would exceed them are rejected.
var fieldLimits = [fieldCount]int{FieldDate: 10, FieldDuration: 8, FieldTime: 4}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return "unknown"
	}
	return fieldNames[f]
}

// Label is the human-facing prompt for the field.
func (f Field) Label() string {
	if f < 0 || f >= fieldCount {
		return ""
	}
	return fieldLabels[f]
}

// Limit is the maximum length of the field, or 0 when unbounded.
func (f Field) Limit() int {
	if f < 0 || f >= fieldCount {
		return 0
	}
	return fieldLimits[f]
}

// Form holds the text of every input. The zero value is not usable; call
// NewForm.
type Form struct {
	values      [fieldCount]string
	defaultDate string
	defaultTime string
}

// NewForm returns an empty form whose date and time default to now.
func NewForm(now time.Time) *Form {
	f := &Form{
		defaultDate: now.Format(DateLayout),
		defaultTime: now.Format(TimeLayout),
	}
	f.Reset()
	return f
}

// Value returns the current text of field.
func (f *Form) Value(field Field) string {
	return f.values[field]
}

// Edit applies a user edit. Edits longer than the field's limit are
// dropped and Edit returns false. Changing distance or incline recomputes
// the elevation.
func (f *Form) Edit(field Field, value string) bool {
	if limit := field.Limit(); limit > 0 && utf8.RuneCountInString(value) > limit {
		return false
	}

	prev := f.values[field]
	f.values[field] = value
	if prev != value && (field == FieldDistance || field == FieldIncline) {
		f.deriveElevation()
	}
	return true
}

// Apply sets initial values without enforcing limits, then recomputes the
// elevation if distance or incline were among them.
func (f *Form) Apply(values map[Field]string) {
	derive := false
	for field, value := range values {
		f.values[field] = value
		if field == FieldDistance || field == FieldIncline {
			derive = true
		}
	}
	if derive {
		f.deriveElevation()
	}
}

// Reset clears every field and restores the default date and time.
func (f *Form) Reset() {
	f.values = [fieldCount]string{}
	f.values[FieldDate] = f.defaultDate
	f.values[FieldTime] = f.defaultTime
}

// Clone returns an independent copy.
func (f *Form) Clone() *Form {
	c := *f
	return &c
}

// deriveElevation sets elevation to km × % × 10 when both are present,
// overwriting any value typed by hand.
func (f *Form) deriveElevation() {
	distance, incline := f.values[FieldDistance], f.values[FieldIncline]
	if distance == "" || incline == "" {
		return
	}
	gain := ParseNumber(distance) * ParseNumber(incline) * 10
	f.values[FieldElevation] = FormatNumber(gain)
}

// Activity builds the upload payload from the current values.
func (f *Form) Activity() Activity {
	return Activity{
		Name:               f.values[FieldTitle],
		Type:               TypeRun,
		StartDateLocal:     StartDateLocal(f.values[FieldDate], f.values[FieldTime]),
		ElapsedTime:        Number(ElapsedSeconds(f.values[FieldDuration])),
		Description:        DefaultDescription,
		Distance:           Number(ParseNumber(f.values[FieldDistance]) * 1000),
		Trainer:            1,
		Commute:            0,
		TotalElevationGain: Number(ParseNumber(f.values[FieldElevation])),
	}
}

// ElapsedSeconds folds colon separated segments left to right, each step
// multiplying the total by 60. "hh:mm:ss" yields seconds; other shapes
// shift the units.
func ElapsedSeconds(duration string) float64 {
	total := 0.0
	for _, segment := range strings.Split(duration, ":") {
		total = total*60 + ParseNumber(segment)
	}
	return total
}

// StartDateLocal rewrites a dd/mm/yyyy date and hh:mm time as
// yyyy-mm-ddThh:mm:00.000Z. Neither input is validated.
func StartDateLocal(date, clock string) string {
	parts := strings.Split(date, "/")
	part := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	day, month, year := part(0), part(1), part(2)
	return year + "-" + month + "-" + day + "T" + clock + ":00.000Z"
}
