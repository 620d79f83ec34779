package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medisched/clinic-scheduling/internal/identity"
	"github.com/medisched/clinic-scheduling/internal/reservation"
)

type Service struct {
	sessions     Store
	history      HistoryStore
	reservations *reservation.Service
	log          *zap.Logger
	now          func() time.Time
}

func NewService(sessions Store, history HistoryStore, reservations *reservation.Service, log *zap.Logger) *Service {
	return &Service{
		sessions:     sessions,
		history:      history,
		reservations: reservations,
		log:          log,
		now:          time.Now,
	}
}

// NewServiceAt injects the clock, for tests.
func NewServiceAt(sessions Store, history HistoryStore, reservations *reservation.Service, log *zap.Logger, now func() time.Time) *Service {
	s := NewService(sessions, history, reservations, log)
	s.now = now
	return s
}

// Attend drives the reservation to attended and opens its session. The
// session window ends at the reservation's scheduled end on that date.
//
// Attend is idempotent: if a previous call moved the reservation but the
// session insert failed, a retry opens the missing session; if the session
// already exists it is returned as-is. A terminal reservation is never
// stranded without its session being reachable.
func (s *Service) Attend(ctx context.Context, actor identity.Actor, reservationID uuid.UUID) (*Session, error) {
	res, err := s.reservations.Attend(ctx, actor, reservationID)
	if err != nil {
		if !errors.Is(err, reservation.ErrInvalidTransition) {
			return nil, err
		}
		res, err = s.resumeAttended(ctx, actor, reservationID, err)
		if err != nil {
			return nil, err
		}
	}

	startedAt := s.now()
	windowEnd := time.Date(
		res.Date.Year(), res.Date.Month(), res.Date.Day(),
		int(res.End)/60, int(res.End)%60, 0, 0, res.Date.Location(),
	)

	sess, err := s.sessions.Insert(ctx, &Session{
		ID:            uuid.New(),
		ReservationID: res.ID,
		StartedAt:     startedAt,
		WindowEnd:     windowEnd,
	})
	if err != nil {
		if errors.Is(err, ErrSessionExists) {
			existing, getErr := s.sessions.GetByReservation(ctx, res.ID)
			if getErr != nil {
				return nil, fmt.Errorf("load existing session: %w", getErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("open consultation session: %w", err)
	}

	s.log.Info("consultation session opened",
		zap.String("session_id", sess.ID.String()),
		zap.String("reservation_id", res.ID.String()),
		zap.Time("window_end", windowEnd))

	return sess, nil
}

// resumeAttended re-checks a failed attend transition: if the reservation is
// already attended, the assigned doctor may resume and open or fetch its
// session. Any other state surfaces the original error.
func (s *Service) resumeAttended(ctx context.Context, actor identity.Actor, reservationID uuid.UUID, cause error) (*reservation.Reservation, error) {
	res, err := s.reservations.Get(ctx, reservationID)
	if err != nil {
		return nil, cause
	}
	if res.State != reservation.StateAttended {
		return nil, cause
	}
	if err := reservation.Authorize(actor, res, reservation.OpAttend); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get consultation session: %w", err)
	}
	return sess, nil
}

// RecordVitals saves a capture and returns its advisory flags. Out-of-range
// values are stored exactly as given; the flags only warn.
func (s *Service) RecordVitals(ctx context.Context, actor identity.Actor, sessionID uuid.UUID, v VitalSigns) ([]VitalFlag, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load consultation session: %w", err)
	}
	if sess.Finalized {
		return nil, ErrAlreadyFinalized
	}

	if err := s.authorizeDoctor(ctx, actor, sess); err != nil {
		return nil, err
	}

	if v.TakenAt.IsZero() {
		v.TakenAt = s.now()
	}

	if err := s.sessions.AppendVitals(ctx, sessionID, v); err != nil {
		return nil, fmt.Errorf("append vital signs: %w", err)
	}

	return CheckVitals(v), nil
}

// Finalize closes the session exactly once: validates the six required
// fields, persists them, appends the record to the history store, and
// returns the reconsultation offer.
func (s *Service) Finalize(ctx context.Context, actor identity.Actor, sessionID uuid.UUID, in FinalizeInput) (*ReconsultationPrompt, error) {
	if err := validateFinalize(in); err != nil {
		return nil, err
	}

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load consultation session: %w", err)
	}
	if sess.Finalized {
		return nil, ErrAlreadyFinalized
	}

	if err := s.authorizeDoctor(ctx, actor, sess); err != nil {
		return nil, err
	}

	res, err := s.reservations.Get(ctx, sess.ReservationID)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}

	for _, v := range in.VitalSigns {
		if err := s.sessions.AppendVitals(ctx, sessionID, v); err != nil {
			return nil, fmt.Errorf("append vital signs: %w", err)
		}
	}

	finalized, err := s.sessions.Finalize(ctx, sessionID, in)
	if err != nil {
		return nil, err
	}

	if err := s.history.AppendConsultationRecord(ctx, finalized); err != nil {
		return nil, fmt.Errorf("append to history: %w", err)
	}

	s.log.Info("consultation finalized",
		zap.String("session_id", finalized.ID.String()),
		zap.String("reservation_id", finalized.ReservationID.String()))

	return &ReconsultationPrompt{
		SourceConsultationID: finalized.ID,
		PatientID:            res.PatientID,
		DoctorID:             res.DoctorID,
		SpecialtyID:          res.SpecialtyID,
	}, nil
}

func (s *Service) authorizeDoctor(ctx context.Context, actor identity.Actor, sess *Session) error {
	res, err := s.reservations.Get(ctx, sess.ReservationID)
	if err != nil {
		return fmt.Errorf("load reservation: %w", err)
	}
	if actor.Role == identity.RoleDoctor && actor.ID == res.DoctorID {
		return nil
	}
	return reservation.ErrForbidden
}

func validateFinalize(in FinalizeInput) error {
	fields := map[string]string{
		"motive":         in.Motive,
		"physical_exam":  in.PhysicalExam,
		"diagnosis":      in.Diagnosis,
		"treatment_plan": in.TreatmentPlan,
		"prescription":   in.Prescription,
	}
	for _, name := range []string{"motive", "physical_exam", "diagnosis", "treatment_plan", "prescription"} {
		if strings.TrimSpace(fields[name]) == "" {
			return &ValidationError{Field: name, Reason: "required"}
		}
	}
	if len(in.VitalSigns) == 0 {
		return &ValidationError{Field: "vital_signs", Reason: "at least one capture required"}
	}
	return nil
}
