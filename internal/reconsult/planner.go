package reconsult

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medisched/clinic-scheduling/internal/booking"
	"github.com/medisched/clinic-scheduling/internal/consultation"
	"github.com/medisched/clinic-scheduling/internal/identity"
	"github.com/medisched/clinic-scheduling/internal/reservation"
	"github.com/medisched/clinic-scheduling/internal/schedule"
)

var ErrNotFinalized = errors.New("consultation is not finalized")

// Planner books the optional follow-up offered when a consultation is
// finalized. Same doctor, same specialty; the caller only picks a date and
// slot. Declining the offer means simply never calling Confirm.
type Planner struct {
	resolver     *schedule.Resolver
	reservations *reservation.Service
	sessions     consultation.Store
	log          *zap.Logger
}

func NewPlanner(resolver *schedule.Resolver, reservations *reservation.Service, sessions consultation.Store, log *zap.Logger) *Planner {
	return &Planner{
		resolver:     resolver,
		reservations: reservations,
		sessions:     sessions,
		log:          log,
	}
}

// PromptFor rebuilds the reconsultation offer for a finalized consultation.
// The flow is only reachable after finalize has succeeded.
func (p *Planner) PromptFor(ctx context.Context, consultationID uuid.UUID) (consultation.ReconsultationPrompt, error) {
	sess, err := p.sessions.GetByID(ctx, consultationID)
	if err != nil {
		return consultation.ReconsultationPrompt{}, err
	}
	if !sess.Finalized {
		return consultation.ReconsultationPrompt{}, ErrNotFinalized
	}

	res, err := p.reservations.Get(ctx, sess.ReservationID)
	if err != nil {
		return consultation.ReconsultationPrompt{}, err
	}

	return consultation.ReconsultationPrompt{
		SourceConsultationID: sess.ID,
		PatientID:            res.PatientID,
		DoctorID:             res.DoctorID,
		SpecialtyID:          res.SpecialtyID,
	}, nil
}

// Options resolves availability for the prompt's doctor/specialty on the
// chosen date.
func (p *Planner) Options(ctx context.Context, prompt consultation.ReconsultationPrompt, date time.Time) ([]schedule.DayAvailability, error) {
	return p.resolver.Resolve(ctx, prompt.DoctorID, prompt.SpecialtyID, date, date)
}

// Confirm re-enters the booking wizard path and commits a new pending
// reservation linked back to the source consultation.
func (p *Planner) Confirm(ctx context.Context, actor identity.Actor, prompt consultation.ReconsultationPrompt, date time.Time, start, end schedule.MinuteOfDay) (*reservation.Reservation, error) {
	w := booking.NewWizard(actor, p.resolver, p.reservations)
	w.SetFollowUp(prompt.SourceConsultationID)

	created, err := booking.Book(ctx, w, booking.Selection{
		PatientID:   prompt.PatientID,
		SpecialtyID: prompt.SpecialtyID,
		DoctorID:    prompt.DoctorID,
		Date:        date,
		Start:       start,
		End:         end,
	})
	if err != nil {
		return nil, err
	}

	p.log.Info("reconsultation booked",
		zap.String("reservation_id", created.ID.String()),
		zap.String("source_consultation_id", prompt.SourceConsultationID.String()))

	return created, nil
}
