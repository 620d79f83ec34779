package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTemplates struct {
	entries   []TemplateEntry
	exclusive map[time.Weekday]bool
}

func (f *fakeTemplates) TemplatesFor(_ context.Context, _, _ uuid.UUID) ([]TemplateEntry, error) {
	return f.entries, nil
}

func (f *fakeTemplates) HasExclusiveShiftElsewhere(_ context.Context, _, _ uuid.UUID, weekday time.Weekday) (bool, error) {
	return f.exclusive[weekday], nil
}

type fakeReservations struct {
	booked map[string][]BookedInterval
}

func (f *fakeReservations) BookedIntervals(_ context.Context, _ uuid.UUID, day time.Time) ([]BookedInterval, error) {
	return f.booked[day.Format("2006-01-02")], nil
}

// monday is a fixed Monday used as "today" across resolver tests.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newTestResolver(templates *fakeTemplates, reservations *fakeReservations) *Resolver {
	return NewResolverAt(templates, reservations, func() time.Time { return monday })
}

func TestResolveMaterializesFreeSlots(t *testing.T) {
	templates := &fakeTemplates{entries: []TemplateEntry{
		{Weekday: time.Monday, Start: 480, End: 660, SlotMinutes: 60, Shift: ShiftMorning},
	}}
	r := newTestResolver(templates, &fakeReservations{})

	days, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), monday, monday)
	require.NoError(t, err)
	require.Len(t, days, 1)

	want := []Interval{
		{Start: 480, End: 540, State: SlotFree},
		{Start: 540, End: 600, State: SlotFree},
		{Start: 600, End: 660, State: SlotFree},
	}
	assert.Equal(t, want, days[0].Intervals)
}

func TestResolveMarksBookedIntervals(t *testing.T) {
	templates := &fakeTemplates{entries: []TemplateEntry{
		{Weekday: time.Monday, Start: 480, End: 660, SlotMinutes: 60, Shift: ShiftMorning},
	}}
	reservations := &fakeReservations{booked: map[string][]BookedInterval{
		"2026-03-02": {{Start: 540, End: 600}},
	}}
	r := newTestResolver(templates, reservations)

	days, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), monday, monday)
	require.NoError(t, err)
	require.Len(t, days, 1)

	states := []SlotState{}
	for _, iv := range days[0].Intervals {
		states = append(states, iv.State)
	}
	assert.Equal(t, []SlotState{SlotFree, SlotBooked, SlotFree}, states)
}

func TestResolvePartialOverlapBooksWholeSlot(t *testing.T) {
	templates := &fakeTemplates{entries: []TemplateEntry{
		{Weekday: time.Monday, Start: 480, End: 660, SlotMinutes: 60, Shift: ShiftMorning},
	}}
	// 09:30-10:30 straddles two slots; both come back BOOKED, nothing is
	// ever partially free.
	reservations := &fakeReservations{booked: map[string][]BookedInterval{
		"2026-03-02": {{Start: 570, End: 630}},
	}}
	r := newTestResolver(templates, reservations)

	days, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), monday, monday)
	require.NoError(t, err)

	states := []SlotState{}
	for _, iv := range days[0].Intervals {
		states = append(states, iv.State)
	}
	assert.Equal(t, []SlotState{SlotFree, SlotBooked, SlotBooked}, states)
}

func TestResolveHalfOpenBoundaryDoesNotBook(t *testing.T) {
	templates := &fakeTemplates{entries: []TemplateEntry{
		{Weekday: time.Monday, Start: 480, End: 600, SlotMinutes: 60, Shift: ShiftMorning},
	}}
	// A reservation ending at 09:00 does not occupy the 09:00-10:00 slot.
	reservations := &fakeReservations{booked: map[string][]BookedInterval{
		"2026-03-02": {{Start: 480, End: 540}},
	}}
	r := newTestResolver(templates, reservations)

	days, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), monday, monday)
	require.NoError(t, err)
	require.Len(t, days[0].Intervals, 2)
	assert.Equal(t, SlotBooked, days[0].Intervals[0].State)
	assert.Equal(t, SlotFree, days[0].Intervals[1].State)
}

func TestResolvePastDateAdvisory(t *testing.T) {
	templates := &fakeTemplates{entries: []TemplateEntry{
		{Weekday: time.Friday, Start: 480, End: 600, SlotMinutes: 60, Shift: ShiftMorning},
	}}
	r := newTestResolver(templates, &fakeReservations{})

	// Friday before "today" plus today itself: past day comes back empty,
	// current day resolves, and the advisory error rides alongside.
	friday := monday.AddDate(0, 0, -3)
	days, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), friday, monday)
	assert.ErrorIs(t, err, ErrPastDate)
	require.Len(t, days, 4)
	assert.Empty(t, days[0].Intervals)
}

func TestResolveShiftExclusivity(t *testing.T) {
	templates := &fakeTemplates{
		entries: []TemplateEntry{
			{Weekday: time.Monday, Start: 480, End: 600, SlotMinutes: 60, Shift: ShiftMorning},
		},
		exclusive: map[time.Weekday]bool{time.Monday: true},
	}
	r := newTestResolver(templates, &fakeReservations{})

	_, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), monday, monday)
	assert.ErrorIs(t, err, ErrShiftExclusive)
}

func TestResolveNoTemplateYieldsEmptyDay(t *testing.T) {
	r := newTestResolver(&fakeTemplates{}, &fakeReservations{})

	days, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), monday, monday)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Empty(t, days[0].Intervals)
}

func TestResolveRejectsInvertedRange(t *testing.T) {
	r := newTestResolver(&fakeTemplates{}, &fakeReservations{})

	_, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), monday, monday.AddDate(0, 0, -1))
	assert.Error(t, err)
}

func TestResolveUnevenTailIsDropped(t *testing.T) {
	// 08:00-09:50 at 60-minute granularity yields a single full slot; the
	// 50-minute remainder is never offered.
	templates := &fakeTemplates{entries: []TemplateEntry{
		{Weekday: time.Monday, Start: 480, End: 590, SlotMinutes: 60, Shift: ShiftMorning},
	}}
	r := newTestResolver(templates, &fakeReservations{})

	days, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), monday, monday)
	require.NoError(t, err)
	require.Len(t, days[0].Intervals, 1)
	assert.Equal(t, Interval{Start: 480, End: 540, State: SlotFree}, days[0].Intervals[0])
}

func TestFreeAt(t *testing.T) {
	day := DayAvailability{
		Date: monday,
		Intervals: []Interval{
			{Start: 480, End: 540, State: SlotFree},
			{Start: 540, End: 600, State: SlotBooked},
		},
	}

	assert.True(t, day.FreeAt(480, 540))
	assert.False(t, day.FreeAt(540, 600))
	assert.False(t, day.FreeAt(480, 600))
}

func TestOffers(t *testing.T) {
	day := DayAvailability{
		Date: monday,
		Intervals: []Interval{
			{Start: 480, End: 540, State: SlotFree},
			{Start: 540, End: 600, State: SlotBooked},
		},
	}

	// On-grid slots are offered regardless of state.
	assert.True(t, day.Offers(480, 540))
	assert.True(t, day.Offers(540, 600))

	// Off-grid intervals are not, even inside the templated range.
	assert.False(t, day.Offers(480, 600))
	assert.False(t, day.Offers(500, 560))
}
