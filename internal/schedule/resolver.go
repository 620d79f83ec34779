package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrPastDate is advisory: availability for a past date is always empty,
	// but the caller decides whether that matters.
	ErrPastDate = errors.New("requested date is in the past")

	// ErrShiftExclusive rejects an availability query for a specialty while
	// the doctor holds a both-shift template for another specialty that day.
	ErrShiftExclusive = errors.New("doctor's day is monopolized by another specialty")
)

type SlotState string

const (
	SlotFree   SlotState = "free"
	SlotBooked SlotState = "booked"
)

// Interval is a half-open slot [Start, End) with a single state. The resolver
// never emits an interval that is partially free.
type Interval struct {
	Start MinuteOfDay `json:"start"`
	End   MinuteOfDay `json:"end"`
	State SlotState   `json:"state"`
}

// DayAvailability is the derived, never-persisted grid for one calendar date.
type DayAvailability struct {
	Date      time.Time  `json:"date"`
	Intervals []Interval `json:"intervals"`
}

// FreeAt reports whether [start, end) is one of the day's FREE intervals.
func (d DayAvailability) FreeAt(start, end MinuteOfDay) bool {
	for _, iv := range d.Intervals {
		if iv.Start == start && iv.End == end {
			return iv.State == SlotFree
		}
	}
	return false
}

// Offers reports whether [start, end) is on the day's slot grid at all,
// whatever its state.
func (d DayAvailability) Offers(start, end MinuteOfDay) bool {
	for _, iv := range d.Intervals {
		if iv.Start == start && iv.End == end {
			return true
		}
	}
	return false
}

// BookedInterval is an occupied range taken from an active reservation.
type BookedInterval struct {
	Start MinuteOfDay
	End   MinuteOfDay
}

// ReservationSource lists the occupied ranges for a doctor on a date,
// excluding cancelled reservations.
type ReservationSource interface {
	BookedIntervals(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]BookedInterval, error)
}

type Resolver struct {
	templates    TemplateSource
	reservations ReservationSource
	now          func() time.Time
}

func NewResolver(templates TemplateSource, reservations ReservationSource) *Resolver {
	return &Resolver{
		templates:    templates,
		reservations: reservations,
		now:          time.Now,
	}
}

// NewResolverAt injects the clock, for tests.
func NewResolverAt(templates TemplateSource, reservations ReservationSource, now func() time.Time) *Resolver {
	return &Resolver{
		templates:    templates,
		reservations: reservations,
		now:          now,
	}
}

// Resolve derives the bookable grid for each date in [from, to]. Past dates
// yield an empty day and the returned error is ErrPastDate, carried alongside
// the usable availability for the remaining dates. Any other error is fatal
// and the availability is nil.
func (r *Resolver) Resolve(ctx context.Context, doctorID, specialtyID uuid.UUID, from, to time.Time) ([]DayAvailability, error) {
	from = dateOnly(from)
	to = dateOnly(to)
	if to.Before(from) {
		return nil, fmt.Errorf("invalid date range: %s after %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	today := dateOnly(r.now())

	var (
		days     []DayAvailability
		advisory error
	)

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if day.Before(today) {
			days = append(days, DayAvailability{Date: day})
			advisory = ErrPastDate
			continue
		}

		resolved, err := r.resolveDay(ctx, doctorID, specialtyID, day)
		if err != nil {
			return nil, err
		}
		days = append(days, resolved)
	}

	return days, advisory
}

func (r *Resolver) resolveDay(ctx context.Context, doctorID, specialtyID uuid.UUID, day time.Time) (DayAvailability, error) {
	exclusive, err := r.templates.HasExclusiveShiftElsewhere(ctx, doctorID, specialtyID, day.Weekday())
	if err != nil {
		return DayAvailability{}, fmt.Errorf("check shift exclusivity: %w", err)
	}
	if exclusive {
		return DayAvailability{}, ErrShiftExclusive
	}

	entries, err := r.templates.TemplatesFor(ctx, doctorID, specialtyID)
	if err != nil {
		return DayAvailability{}, fmt.Errorf("load availability templates: %w", err)
	}

	var intervals []Interval
	for _, entry := range entries {
		if entry.Weekday != day.Weekday() || entry.SlotMinutes <= 0 {
			continue
		}
		for start := entry.Start; start.Add(entry.SlotMinutes) <= entry.End; start = start.Add(entry.SlotMinutes) {
			intervals = append(intervals, Interval{
				Start: start,
				End:   start.Add(entry.SlotMinutes),
				State: SlotFree,
			})
		}
	}

	if len(intervals) == 0 {
		return DayAvailability{Date: day}, nil
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})

	booked, err := r.reservations.BookedIntervals(ctx, doctorID, day)
	if err != nil {
		return DayAvailability{}, fmt.Errorf("load booked intervals: %w", err)
	}

	for i := range intervals {
		for _, b := range booked {
			// Half-open overlap: a reservation ending exactly where a slot
			// starts does not occupy it.
			if b.Start < intervals[i].End && b.End > intervals[i].Start {
				intervals[i].State = SlotBooked
				break
			}
		}
	}

	return DayAvailability{Date: day, Intervals: intervals}, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
