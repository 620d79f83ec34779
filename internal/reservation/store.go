package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medisched/clinic-scheduling/internal/schedule"
)

var (
	ErrNotFound     = errors.New("reservation not found")
	ErrSlotConflict = errors.New("slot already taken by an overlapping reservation")
)

// NewReservation is the commit payload produced by the booking wizard.
type NewReservation struct {
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	SpecialtyID uuid.UUID
	Date        time.Time
	Start       schedule.MinuteOfDay
	End         schedule.MinuteOfDay
	Urgent      bool
	FollowUpOf  *uuid.UUID
}

// RescheduleUpdate carries the editable fields of a pending reservation.
type RescheduleUpdate struct {
	DoctorID    uuid.UUID
	SpecialtyID uuid.UUID
	Date        time.Time
	Start       schedule.MinuteOfDay
	End         schedule.MinuteOfDay
}

// Store contains all reservation persistence needed by the service.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	ListActive(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Reservation, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Reservation, error)

	// Insert creates the reservation only if no overlapping active
	// reservation exists for the doctor/date; otherwise ErrSlotConflict.
	Insert(ctx context.Context, nr NewReservation) (*Reservation, error)

	// UpdateState is a compare-and-set on the state column: the update
	// applies only while the row is still in `from`, otherwise ErrNotFound.
	UpdateState(ctx context.Context, id uuid.UUID, from, to State) (*Reservation, error)

	// Cancel is UpdateState plus reason bookkeeping.
	Cancel(ctx context.Context, id uuid.UUID, from State, reason string) (*Reservation, error)

	// Reschedule rewrites the slot fields of a pending reservation, guarded
	// by the same overlap condition as Insert (excluding the row itself).
	Reschedule(ctx context.Context, id uuid.UUID, upd RescheduleUpdate) (*Reservation, error)

	// FindStalePending lists pending reservations whose date has passed.
	FindStalePending(ctx context.Context, today time.Time) ([]Reservation, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}

// compile-time check: the pg store also feeds the availability resolver.
var _ schedule.ReservationSource = (*PgStore)(nil)
