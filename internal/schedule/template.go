package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	// ShiftBoth monopolizes the doctor's day for a single specialty: while it
	// is in effect the doctor may not hold availability for any other
	// specialty on that weekday.
	ShiftBoth Shift = "both"
)

// TemplateEntry is one row of a doctor's weekly recurring availability for a
// specialty. SlotMinutes is the granularity the entry was authored at; the
// resolver materializes slots at exactly this step and never subdivides.
type TemplateEntry struct {
	Weekday     time.Weekday
	Start       MinuteOfDay
	End         MinuteOfDay
	SlotMinutes int
	Shift       Shift
}

// TemplateSource reads the weekly availability templates owned by the doctor
// directory. The scheduling core never writes through this interface.
type TemplateSource interface {
	// TemplatesFor returns the entries for a doctor/specialty pair, all
	// weekdays. An empty result is not an error.
	TemplatesFor(ctx context.Context, doctorID, specialtyID uuid.UUID) ([]TemplateEntry, error)

	// HasExclusiveShiftElsewhere reports whether the doctor holds a
	// both-shift template for a different specialty on the given weekday.
	HasExclusiveShiftElsewhere(ctx context.Context, doctorID, specialtyID uuid.UUID, weekday time.Weekday) (bool, error)
}
