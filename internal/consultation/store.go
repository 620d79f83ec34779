package consultation

import (
	"context"

	"github.com/google/uuid"
)

// FinalizeInput carries the six required clinical fields.
type FinalizeInput struct {
	Motive        string
	VitalSigns    []VitalSigns
	PhysicalExam  string
	Diagnosis     string
	TreatmentPlan string
	Prescription  string
}

// Store persists consultation sessions while they are open, and flips them
// to finalized exactly once.
type Store interface {
	// Insert creates the session; ErrSessionExists if the reservation
	// already has one.
	Insert(ctx context.Context, sess *Session) (*Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	GetByReservation(ctx context.Context, reservationID uuid.UUID) (*Session, error)

	// AppendVitals records a capture on an open session.
	AppendVitals(ctx context.Context, sessionID uuid.UUID, v VitalSigns) error

	// Finalize writes the clinical fields and flips finalized exactly once;
	// a second attempt returns ErrAlreadyFinalized and changes nothing.
	Finalize(ctx context.Context, sessionID uuid.UUID, in FinalizeInput) (*Session, error)
}

// HistoryStore is the external patient-history collaborator. Finalized
// sessions are appended and never modified afterwards.
type HistoryStore interface {
	AppendConsultationRecord(ctx context.Context, sess *Session) error
}
