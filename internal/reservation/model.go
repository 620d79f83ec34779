package reservation

import (
	"time"

	"github.com/google/uuid"

	"github.com/medisched/clinic-scheduling/internal/schedule"
)

type State string

const (
	StatePending         State = "pending"
	StateDoctorConfirmed State = "doctor_confirmed"
	StateAttended        State = "attended"
	StateCancelled       State = "cancelled"
)

// Confirmation tracks each party's acknowledgement independently. The
// doctor's side drives the state machine; the patient's side is
// informational only.
type Confirmation string

const (
	ConfirmationPending   Confirmation = "pending"
	ConfirmationConfirmed Confirmation = "confirmed"
	ConfirmationCancelled Confirmation = "cancelled"
)

// Reservation is a committed claim on a doctor's slot [Start, End) on Date.
type Reservation struct {
	ID                  uuid.UUID
	PatientID           uuid.UUID
	DoctorID            uuid.UUID
	SpecialtyID         uuid.UUID
	Date                time.Time
	Start               schedule.MinuteOfDay
	End                 schedule.MinuteOfDay
	State               State
	DoctorConfirmation  Confirmation
	PatientConfirmation Confirmation
	Urgent              bool
	// FollowUpOf links a reconsultation back to the consultation that spawned
	// it. Informational only, never enforced referentially.
	FollowUpOf   *uuid.UUID
	CancelReason *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the reservation still occupies its slot.
func (r *Reservation) Active() bool {
	return r.State != StateCancelled
}

// Terminal reports whether the reservation can never transition again.
func (r *Reservation) Terminal() bool {
	return r.State == StateAttended || r.State == StateCancelled
}

type EventLog struct {
	ID            int64
	EventType     string
	ReservationID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
