package reservation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medisched/clinic-scheduling/internal/identity"
	redisclient "github.com/medisched/clinic-scheduling/internal/redis"
	"github.com/medisched/clinic-scheduling/internal/schedule"
)

const (
	EventReservationCreated     = "RESERVATION_CREATED"
	EventReservationConfirmed   = "RESERVATION_CONFIRMED"
	EventReservationUnconfirmed = "RESERVATION_UNCONFIRMED"
	EventReservationCancelled   = "RESERVATION_CANCELLED"
	EventReservationAttended    = "RESERVATION_ATTENDED"
	EventReservationMoved       = "RESERVATION_MOVED"
)

var (
	ErrSlotBusy            = errors.New("slot is currently being booked, please retry")
	ErrMustUnconfirm       = errors.New("confirmed reservation must be unconfirmed before rescheduling")
	ErrInvalidInterval     = errors.New("reservation interval is empty or inverted")
	ErrOutsideAvailability = errors.New("target slot is outside the doctor's availability")
)

type Service struct {
	store    Store
	locker   redisclient.Locker
	resolver *schedule.Resolver
	log      *zap.Logger
}

func NewService(store Store, locker redisclient.Locker, resolver *schedule.Resolver, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		locker:   locker,
		resolver: resolver,
		log:      log,
	}
}

// Create commits a reservation. The check-and-insert runs under the
// per-doctor-day lock so concurrent bookers for the same agenda are
// serialized; the insert itself carries the overlap condition as well, so a
// lost race always surfaces as ErrSlotConflict, never a double booking.
func (s *Service) Create(ctx context.Context, actor identity.Actor, nr NewReservation) (*Reservation, error) {
	if nr.End <= nr.Start {
		return nil, ErrInvalidInterval
	}
	if actor.Role == identity.RolePatient && actor.ID != nr.PatientID {
		return nil, ErrForbidden
	}

	var created *Reservation

	err := s.locker.WithAgendaLock(ctx, nr.DoctorID, nr.Date, func(lockCtx context.Context) error {
		res, err := s.store.Insert(lockCtx, nr)
		if err != nil {
			return err
		}
		created = res

		s.logEvent(lockCtx, res.ID, EventReservationCreated, map[string]any{
			"patient_id":   nr.PatientID.String(),
			"doctor_id":    nr.DoctorID.String(),
			"specialty_id": nr.SpecialtyID.String(),
			"date":         nr.Date.Format("2006-01-02"),
			"start":        nr.Start.String(),
			"end":          nr.End.String(),
			"booked_by":    actor.ID.String(),
		})
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBusy
		}
		return nil, err
	}

	return created, nil
}

// Confirm moves a pending reservation to doctor_confirmed.
func (s *Service) Confirm(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Reservation, error) {
	return s.transition(ctx, actor, id, OpConfirm, StateDoctorConfirmed, EventReservationConfirmed)
}

// Unconfirm returns a confirmed reservation to pending so it can be
// rescheduled.
func (s *Service) Unconfirm(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Reservation, error) {
	return s.transition(ctx, actor, id, OpUnconfirm, StatePending, EventReservationUnconfirmed)
}

// Attend moves a confirmed reservation to its terminal success state. The
// caller is expected to open the consultation session right after.
func (s *Service) Attend(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Reservation, error) {
	return s.transition(ctx, actor, id, OpAttend, StateAttended, EventReservationAttended)
}

// Cancel terminates a pending or confirmed reservation.
func (s *Service) Cancel(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*Reservation, error) {
	res, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}

	if err := Authorize(actor, res, OpCancel); err != nil {
		return nil, err
	}
	if !CanTransition(res.State, StateCancelled) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.store.Cancel(ctx, id, res.State, reason)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Lost a race with another transition.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventReservationCancelled, map[string]any{
		"reason":       reason,
		"cancelled_by": actor.ID.String(),
	})

	return updated, nil
}

// Reschedule rewrites the slot of a pending reservation. A confirmed
// reservation must be explicitly unconfirmed first.
func (s *Service) Reschedule(ctx context.Context, actor identity.Actor, id uuid.UUID, upd RescheduleUpdate) (*Reservation, error) {
	if upd.End <= upd.Start {
		return nil, ErrInvalidInterval
	}

	res, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}

	if err := Authorize(actor, res, OpReschedule); err != nil {
		return nil, err
	}
	if res.State == StateDoctorConfirmed {
		return nil, ErrMustUnconfirm
	}
	if res.State != StatePending {
		return nil, ErrInvalidTransition
	}

	// The target must be a slot the doctor's templates actually offer.
	// Occupancy by other reservations is left to the conditional update,
	// which excludes the row being moved.
	days, err := s.resolver.Resolve(ctx, upd.DoctorID, upd.SpecialtyID, upd.Date, upd.Date)
	if err != nil {
		return nil, err
	}
	if len(days) != 1 || !days[0].Offers(upd.Start, upd.End) {
		return nil, ErrOutsideAvailability
	}

	var moved *Reservation
	err = s.locker.WithAgendaLock(ctx, upd.DoctorID, upd.Date, func(lockCtx context.Context) error {
		updated, err := s.store.Reschedule(lockCtx, id, upd)
		if err != nil {
			return err
		}
		moved = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBusy
		}
		return nil, err
	}

	s.logEvent(ctx, moved.ID, EventReservationMoved, map[string]any{
		"date":     upd.Date.Format("2006-01-02"),
		"start":    upd.Start.String(),
		"end":      upd.End.String(),
		"moved_by": actor.ID.String(),
	})

	return moved, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	res, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (s *Service) ListForDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Reservation, error) {
	list, err := s.store.ListActive(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("list reservations for day: %w", err)
	}
	return list, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Reservation, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.store.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reservations by patient: %w", err)
	}
	return list, nil
}

// CancelStalePending is run by the sweep worker: unconfirmed reservations
// whose date came and went are cancelled through the ordinary edge.
func (s *Service) CancelStalePending(ctx context.Context, today time.Time) (int, error) {
	stale, err := s.store.FindStalePending(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("find stale pending reservations: %w", err)
	}

	cancelled := 0
	for _, res := range stale {
		_, err := s.store.Cancel(ctx, res.ID, StatePending, "date passed without doctor confirmation")
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			s.log.Warn("failed to cancel stale reservation",
				zap.String("reservation_id", res.ID.String()),
				zap.Error(err))
			continue
		}
		cancelled++
		s.logEvent(ctx, res.ID, EventReservationCancelled, map[string]any{
			"reason": "sweep",
		})
	}

	return cancelled, nil
}

func (s *Service) transition(ctx context.Context, actor identity.Actor, id uuid.UUID, op Op, to State, event string) (*Reservation, error) {
	res, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}

	if err := Authorize(actor, res, op); err != nil {
		return nil, err
	}
	if !CanTransition(res.State, to) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.store.UpdateState(ctx, id, res.State, to)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("%s reservation: %w", op, err)
	}

	s.logEvent(ctx, updated.ID, event, map[string]any{
		"actor_id": actor.ID.String(),
	})

	return updated, nil
}

func (s *Service) logEvent(ctx context.Context, reservationID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("failed to marshal event payload",
			zap.String("event_type", eventType),
			zap.Error(err))
		data = nil
	}

	resID := reservationID

	ev := EventLog{
		EventType:     eventType,
		ReservationID: &resID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.store.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("failed to insert event log",
			zap.String("event_type", eventType),
			zap.String("reservation_id", reservationID.String()),
			zap.Error(err))
	}
}
