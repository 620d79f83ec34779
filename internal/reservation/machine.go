package reservation

import (
	"errors"

	"github.com/medisched/clinic-scheduling/internal/identity"
)

var (
	ErrInvalidTransition = errors.New("invalid reservation state transition")
	ErrForbidden         = errors.New("actor may not perform this operation")
)

// transitions is the complete edge set of the reservation lifecycle. The
// doctor_confirmed -> pending edge is the explicit un-confirm that must
// precede rescheduling a confirmed reservation. Terminal states have no
// outgoing edges; reservations are never resurrected.
var transitions = map[State]map[State]bool{
	StatePending: {
		StateDoctorConfirmed: true,
		StateCancelled:       true,
	},
	StateDoctorConfirmed: {
		StateAttended:  true,
		StateCancelled: true,
		StatePending:   true,
	},
}

// CanTransition reports whether from -> to is a declared edge.
func CanTransition(from, to State) bool {
	return transitions[from][to]
}

type Op string

const (
	OpConfirm    Op = "confirm"
	OpUnconfirm  Op = "unconfirm"
	OpCancel     Op = "cancel"
	OpAttend     Op = "attend"
	OpReschedule Op = "reschedule"
)

// Authorize gates an operation on role and assignment. Confirm and attend
// belong to the assigned doctor alone. Cancel, unconfirm and reschedule may
// also be driven by staff on the doctor's behalf; a patient may only cancel
// their own reservation while it is still pending.
func Authorize(actor identity.Actor, r *Reservation, op Op) error {
	assignedDoctor := actor.Role == identity.RoleDoctor && actor.ID == r.DoctorID

	switch op {
	case OpConfirm, OpAttend:
		if assignedDoctor {
			return nil
		}
	case OpUnconfirm, OpReschedule:
		if assignedDoctor || actor.Staff() {
			return nil
		}
	case OpCancel:
		if assignedDoctor || actor.Staff() {
			return nil
		}
		if actor.Role == identity.RolePatient && actor.ID == r.PatientID && r.State == StatePending {
			return nil
		}
	}

	return ErrForbidden
}
