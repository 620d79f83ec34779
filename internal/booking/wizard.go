package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medisched/clinic-scheduling/internal/identity"
	"github.com/medisched/clinic-scheduling/internal/reservation"
	"github.com/medisched/clinic-scheduling/internal/schedule"
)

type Step string

const (
	StepSubject   Step = "subject"
	StepSpecialty Step = "specialty"
	StepDoctor    Step = "doctor"
	StepSchedule  Step = "schedule"
	StepConfirm   Step = "confirm"
	StepDone      Step = "done"
)

var (
	ErrStepIncomplete = errors.New("current step is missing its required selection")
	ErrWrongStep      = errors.New("operation not valid at current step")
	ErrSlotNotFree    = errors.New("selected slot is not free")
)

// Wizard is the forward-only booking flow. It holds no server-side state
// beyond this struct: abandoning a wizard before Commit leaves nothing
// behind, and Commit is the single atomic reservation create.
//
// The subject step is skipped for a patient booking for themselves, the
// doctor step for a doctor self-booking.
type Wizard struct {
	actor        identity.Actor
	resolver     *schedule.Resolver
	reservations *reservation.Service

	step        Step
	patientID   uuid.UUID
	specialtyID uuid.UUID
	doctorID    uuid.UUID
	date        time.Time
	start       schedule.MinuteOfDay
	end         schedule.MinuteOfDay
	slotChosen  bool
	urgent      bool
	followUpOf  *uuid.UUID
}

func NewWizard(actor identity.Actor, resolver *schedule.Resolver, reservations *reservation.Service) *Wizard {
	w := &Wizard{
		actor:        actor,
		resolver:     resolver,
		reservations: reservations,
		step:         StepSubject,
	}

	if actor.Role == identity.RolePatient {
		w.patientID = actor.ID
		w.step = StepSpecialty
	}

	return w
}

func (w *Wizard) Step() Step {
	return w.step
}

func (w *Wizard) SetUrgent(urgent bool) {
	w.urgent = urgent
}

// SetFollowUp tags the eventual reservation as a reconsultation of the given
// consultation.
func (w *Wizard) SetFollowUp(consultationID uuid.UUID) {
	id := consultationID
	w.followUpOf = &id
}

func (w *Wizard) SelectSubject(patientID uuid.UUID) error {
	if w.step != StepSubject {
		return ErrWrongStep
	}
	w.patientID = patientID
	return nil
}

func (w *Wizard) SelectSpecialty(specialtyID uuid.UUID) error {
	if w.step != StepSpecialty {
		return ErrWrongStep
	}
	w.specialtyID = specialtyID
	return nil
}

func (w *Wizard) SelectDoctor(doctorID uuid.UUID) error {
	if w.step != StepDoctor {
		return ErrWrongStep
	}
	w.doctorID = doctorID
	return nil
}

// SelectSlot re-resolves availability at call time; a selection made from a
// stale grid is rejected here rather than at commit.
func (w *Wizard) SelectSlot(ctx context.Context, date time.Time, start, end schedule.MinuteOfDay) error {
	if w.step != StepSchedule {
		return ErrWrongStep
	}

	days, err := w.resolver.Resolve(ctx, w.doctorID, w.specialtyID, date, date)
	if err != nil && !errors.Is(err, schedule.ErrPastDate) {
		return fmt.Errorf("resolve availability: %w", err)
	}
	if errors.Is(err, schedule.ErrPastDate) {
		return schedule.ErrPastDate
	}
	if len(days) != 1 || !days[0].FreeAt(start, end) {
		return ErrSlotNotFree
	}

	w.date = date
	w.start = start
	w.end = end
	w.slotChosen = true
	return nil
}

// CanAdvance reports whether the current step's required field is set.
func (w *Wizard) CanAdvance() bool {
	switch w.step {
	case StepSubject:
		return w.patientID != uuid.Nil
	case StepSpecialty:
		return w.specialtyID != uuid.Nil
	case StepDoctor:
		return w.doctorID != uuid.Nil
	case StepSchedule:
		return w.slotChosen
	default:
		return false
	}
}

// Advance moves to the next step, auto-assigning and skipping the doctor
// step for a doctor self-booking.
func (w *Wizard) Advance() error {
	if !w.CanAdvance() {
		return ErrStepIncomplete
	}

	switch w.step {
	case StepSubject:
		w.step = StepSpecialty
	case StepSpecialty:
		if w.actor.Role == identity.RoleDoctor {
			w.doctorID = w.actor.ID
			w.step = StepSchedule
		} else {
			w.step = StepDoctor
		}
	case StepDoctor:
		w.step = StepSchedule
	case StepSchedule:
		w.step = StepConfirm
	default:
		return ErrWrongStep
	}

	return nil
}

// Commit creates the reservation. Losing the slot race rewinds the wizard to
// the schedule step so the caller can pick again from fresh availability.
func (w *Wizard) Commit(ctx context.Context) (*reservation.Reservation, error) {
	if w.step != StepConfirm {
		return nil, ErrWrongStep
	}

	created, err := w.reservations.Create(ctx, w.actor, reservation.NewReservation{
		PatientID:   w.patientID,
		DoctorID:    w.doctorID,
		SpecialtyID: w.specialtyID,
		Date:        w.date,
		Start:       w.start,
		End:         w.end,
		Urgent:      w.urgent,
		FollowUpOf:  w.followUpOf,
	})
	if err != nil {
		if errors.Is(err, reservation.ErrSlotConflict) || errors.Is(err, reservation.ErrSlotBusy) {
			w.step = StepSchedule
			w.slotChosen = false
		}
		return nil, err
	}

	w.step = StepDone
	return created, nil
}
