package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medisched/clinic-scheduling/internal/reservation"
	"github.com/medisched/clinic-scheduling/internal/schedule"
)

// Selection holds every choice of a booking flow for callers that collected
// them up front (the HTTP create endpoint, the reconsultation planner). The
// wizard still validates each step in order.
type Selection struct {
	PatientID   uuid.UUID
	SpecialtyID uuid.UUID
	DoctorID    uuid.UUID
	Date        time.Time
	Start       schedule.MinuteOfDay
	End         schedule.MinuteOfDay
	Urgent      bool
}

// Book drives the wizard through its steps with the given selection and
// commits. Step skipping (patient subject, doctor self-booking) happens as
// usual; the corresponding Selection fields are then ignored.
func Book(ctx context.Context, w *Wizard, sel Selection) (*reservation.Reservation, error) {
	w.SetUrgent(sel.Urgent)

	if w.Step() == StepSubject {
		if err := w.SelectSubject(sel.PatientID); err != nil {
			return nil, err
		}
		if err := w.Advance(); err != nil {
			return nil, err
		}
	}

	if err := w.SelectSpecialty(sel.SpecialtyID); err != nil {
		return nil, err
	}
	if err := w.Advance(); err != nil {
		return nil, err
	}

	if w.Step() == StepDoctor {
		if err := w.SelectDoctor(sel.DoctorID); err != nil {
			return nil, err
		}
		if err := w.Advance(); err != nil {
			return nil, err
		}
	}

	if err := w.SelectSlot(ctx, sel.Date, sel.Start, sel.End); err != nil {
		return nil, err
	}
	if err := w.Advance(); err != nil {
		return nil, err
	}

	return w.Commit(ctx)
}
