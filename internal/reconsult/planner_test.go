package reconsult

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medisched/clinic-scheduling/internal/consultation"
	"github.com/medisched/clinic-scheduling/internal/identity"
	"github.com/medisched/clinic-scheduling/internal/reservation"
	"github.com/medisched/clinic-scheduling/internal/schedule"
)

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type fakeTemplates struct{}

func (fakeTemplates) TemplatesFor(_ context.Context, _, _ uuid.UUID) ([]schedule.TemplateEntry, error) {
	return []schedule.TemplateEntry{
		{Weekday: time.Monday, Start: 480, End: 660, SlotMinutes: 60, Shift: schedule.ShiftMorning},
	}, nil
}

func (fakeTemplates) HasExclusiveShiftElsewhere(_ context.Context, _, _ uuid.UUID, _ time.Weekday) (bool, error) {
	return false, nil
}

type fakeReservationStore struct {
	byID   map[uuid.UUID]*reservation.Reservation
	booked []schedule.BookedInterval
}

func newFakeReservationStore() *fakeReservationStore {
	return &fakeReservationStore{byID: map[uuid.UUID]*reservation.Reservation{}}
}

func (f *fakeReservationStore) BookedIntervals(_ context.Context, _ uuid.UUID, _ time.Time) ([]schedule.BookedInterval, error) {
	return f.booked, nil
}

func (f *fakeReservationStore) GetByID(_ context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, reservation.ErrNotFound
	}
	return r, nil
}

func (f *fakeReservationStore) Insert(_ context.Context, nr reservation.NewReservation) (*reservation.Reservation, error) {
	for _, b := range f.booked {
		if b.Start < nr.End && b.End > nr.Start {
			return nil, reservation.ErrSlotConflict
		}
	}
	r := &reservation.Reservation{
		ID:          uuid.New(),
		PatientID:   nr.PatientID,
		DoctorID:    nr.DoctorID,
		SpecialtyID: nr.SpecialtyID,
		Date:        nr.Date,
		Start:       nr.Start,
		End:         nr.End,
		State:       reservation.StatePending,
		FollowUpOf:  nr.FollowUpOf,
	}
	f.byID[r.ID] = r
	f.booked = append(f.booked, schedule.BookedInterval{Start: nr.Start, End: nr.End})
	return r, nil
}

func (f *fakeReservationStore) ListActive(_ context.Context, _ uuid.UUID, _ time.Time) ([]reservation.Reservation, error) {
	return nil, nil
}

func (f *fakeReservationStore) ListByPatient(_ context.Context, _ uuid.UUID, _, _ int) ([]reservation.Reservation, error) {
	return nil, nil
}

func (f *fakeReservationStore) UpdateState(_ context.Context, _ uuid.UUID, _, _ reservation.State) (*reservation.Reservation, error) {
	return nil, reservation.ErrNotFound
}

func (f *fakeReservationStore) Cancel(_ context.Context, _ uuid.UUID, _ reservation.State, _ string) (*reservation.Reservation, error) {
	return nil, reservation.ErrNotFound
}

func (f *fakeReservationStore) Reschedule(_ context.Context, _ uuid.UUID, _ reservation.RescheduleUpdate) (*reservation.Reservation, error) {
	return nil, reservation.ErrNotFound
}

func (f *fakeReservationStore) FindStalePending(_ context.Context, _ time.Time) ([]reservation.Reservation, error) {
	return nil, nil
}

func (f *fakeReservationStore) InsertEvent(_ context.Context, _ reservation.EventLog) error {
	return nil
}

type fakeSessions struct {
	byID map[uuid.UUID]*consultation.Session
}

func (f *fakeSessions) Insert(_ context.Context, _ *consultation.Session) (*consultation.Session, error) {
	return nil, consultation.ErrSessionExists
}

func (f *fakeSessions) GetByID(_ context.Context, id uuid.UUID) (*consultation.Session, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, consultation.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessions) GetByReservation(_ context.Context, _ uuid.UUID) (*consultation.Session, error) {
	return nil, consultation.ErrSessionNotFound
}

func (f *fakeSessions) AppendVitals(_ context.Context, _ uuid.UUID, _ consultation.VitalSigns) error {
	return nil
}

func (f *fakeSessions) Finalize(_ context.Context, _ uuid.UUID, _ consultation.FinalizeInput) (*consultation.Session, error) {
	return nil, consultation.ErrAlreadyFinalized
}

type noopLocker struct{}

func (noopLocker) WithAgendaLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(context.Context) error) error {
	return fn(ctx)
}

type plannerFixture struct {
	planner  *Planner
	store    *fakeReservationStore
	sessions *fakeSessions
	source   *reservation.Reservation
	session  *consultation.Session
}

func newPlannerFixture(t *testing.T) *plannerFixture {
	t.Helper()

	store := newFakeReservationStore()
	source := &reservation.Reservation{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		DoctorID:    uuid.New(),
		SpecialtyID: uuid.New(),
		Date:        monday.AddDate(0, 0, -7),
		Start:       540,
		End:         600,
		State:       reservation.StateAttended,
	}
	store.byID[source.ID] = source

	now := time.Now()
	session := &consultation.Session{
		ID:            uuid.New(),
		ReservationID: source.ID,
		Finalized:     true,
		FinalizedAt:   &now,
	}
	sessions := &fakeSessions{byID: map[uuid.UUID]*consultation.Session{session.ID: session}}

	resolver := schedule.NewResolverAt(fakeTemplates{}, store, func() time.Time { return monday })
	resSvc := reservation.NewService(store, noopLocker{}, resolver, zap.NewNop())

	return &plannerFixture{
		planner:  NewPlanner(resolver, resSvc, sessions, zap.NewNop()),
		store:    store,
		sessions: sessions,
		source:   source,
		session:  session,
	}
}

func TestPromptFor(t *testing.T) {
	f := newPlannerFixture(t)

	prompt, err := f.planner.PromptFor(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, f.session.ID, prompt.SourceConsultationID)
	assert.Equal(t, f.source.PatientID, prompt.PatientID)
	assert.Equal(t, f.source.DoctorID, prompt.DoctorID)
	assert.Equal(t, f.source.SpecialtyID, prompt.SpecialtyID)
}

func TestPromptForUnfinalized(t *testing.T) {
	f := newPlannerFixture(t)
	f.session.Finalized = false

	_, err := f.planner.PromptFor(context.Background(), f.session.ID)
	assert.ErrorIs(t, err, ErrNotFinalized)
}

func TestPromptForUnknownConsultation(t *testing.T) {
	f := newPlannerFixture(t)

	_, err := f.planner.PromptFor(context.Background(), uuid.New())
	assert.ErrorIs(t, err, consultation.ErrSessionNotFound)
}

func TestOptions(t *testing.T) {
	f := newPlannerFixture(t)
	prompt, err := f.planner.PromptFor(context.Background(), f.session.ID)
	require.NoError(t, err)

	days, err := f.planner.Options(context.Background(), prompt, monday)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Len(t, days[0].Intervals, 3)
}

func TestConfirmBooksLinkedFollowUp(t *testing.T) {
	f := newPlannerFixture(t)
	prompt, err := f.planner.PromptFor(context.Background(), f.session.ID)
	require.NoError(t, err)

	staff := identity.Actor{ID: uuid.New(), Role: identity.RoleReceptionist}
	created, err := f.planner.Confirm(context.Background(), staff, prompt, monday, 480, 540)
	require.NoError(t, err)

	assert.Equal(t, f.source.PatientID, created.PatientID)
	assert.Equal(t, f.source.DoctorID, created.DoctorID)
	assert.Equal(t, f.source.SpecialtyID, created.SpecialtyID)
	assert.Equal(t, reservation.StatePending, created.State)
	require.NotNil(t, created.FollowUpOf)
	assert.Equal(t, f.session.ID, *created.FollowUpOf)
}

func TestConfirmLosesSlotRace(t *testing.T) {
	f := newPlannerFixture(t)
	prompt, err := f.planner.PromptFor(context.Background(), f.session.ID)
	require.NoError(t, err)

	// Patient books their own follow-up.
	patient := identity.Actor{ID: f.source.PatientID, Role: identity.RolePatient}
	_, err = f.planner.Confirm(context.Background(), patient, prompt, monday, 480, 540)
	require.NoError(t, err)

	_, err = f.planner.Confirm(context.Background(), patient, prompt, monday, 480, 540)
	assert.Error(t, err)
}
