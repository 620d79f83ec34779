package consultation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound  = errors.New("consultation session not found")
	ErrSessionExists    = errors.New("reservation already has a consultation session")
	ErrAlreadyFinalized = errors.New("consultation session is already finalized")
)

// ValidationError flags a missing or malformed required field. The caller
// re-prompts; nothing is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Session is the clinical record of a reservation being attended. Exactly
// one session exists per reservation. Once finalized it is immutable and
// lives on in the patient's history.
type Session struct {
	ID            uuid.UUID
	ReservationID uuid.UUID
	StartedAt     time.Time
	// WindowEnd is the reservation's scheduled end. The countdown toward it
	// is advisory: running over never closes the session, the clinical
	// record must not be lost.
	WindowEnd     time.Time
	Motive        string
	VitalSigns    []VitalSigns
	PhysicalExam  string
	Diagnosis     string
	TreatmentPlan string
	Prescription  string
	Finalized     bool
	FinalizedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Remaining is the advisory countdown, clamped at zero once the window has
// passed. Recomputed from the wall clock on every read; nothing enforces it.
func (s *Session) Remaining(now time.Time) time.Duration {
	if !now.Before(s.WindowEnd) {
		return 0
	}
	return s.WindowEnd.Sub(now)
}

// Expired reports whether the scheduled window has passed. Informational
// only.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.WindowEnd)
}

// ReconsultationPrompt is returned by a successful finalize: the offer to
// book a follow-up with the same doctor and specialty. Declining it is a
// no-op.
type ReconsultationPrompt struct {
	SourceConsultationID uuid.UUID
	PatientID            uuid.UUID
	DoctorID             uuid.UUID
	SpecialtyID          uuid.UUID
}
