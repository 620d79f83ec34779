package reservation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/medisched/clinic-scheduling/internal/identity"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{"pending to confirmed", StatePending, StateDoctorConfirmed, true},
		{"pending to cancelled", StatePending, StateCancelled, true},
		{"pending to attended", StatePending, StateAttended, false},
		{"confirmed to attended", StateDoctorConfirmed, StateAttended, true},
		{"confirmed to cancelled", StateDoctorConfirmed, StateCancelled, true},
		{"confirmed back to pending", StateDoctorConfirmed, StatePending, true},
		{"attended is terminal", StateAttended, StateCancelled, false},
		{"cancelled is terminal", StateCancelled, StatePending, false},
		{"cancelled cannot confirm", StateCancelled, StateDoctorConfirmed, false},
		{"no self loop", StatePending, StatePending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestAuthorize(t *testing.T) {
	doctorID := uuid.New()
	patientID := uuid.New()

	res := func(state State) *Reservation {
		return &Reservation{
			ID:        uuid.New(),
			DoctorID:  doctorID,
			PatientID: patientID,
			State:     state,
		}
	}

	assignedDoctor := identity.Actor{ID: doctorID, Role: identity.RoleDoctor}
	otherDoctor := identity.Actor{ID: uuid.New(), Role: identity.RoleDoctor}
	owner := identity.Actor{ID: patientID, Role: identity.RolePatient}
	stranger := identity.Actor{ID: uuid.New(), Role: identity.RolePatient}
	receptionist := identity.Actor{ID: uuid.New(), Role: identity.RoleReceptionist}
	admin := identity.Actor{ID: uuid.New(), Role: identity.RoleAdmin}

	tests := []struct {
		name    string
		actor   identity.Actor
		r       *Reservation
		op      Op
		wantErr error
	}{
		{"assigned doctor confirms", assignedDoctor, res(StatePending), OpConfirm, nil},
		{"other doctor cannot confirm", otherDoctor, res(StatePending), OpConfirm, ErrForbidden},
		{"staff cannot confirm", receptionist, res(StatePending), OpConfirm, ErrForbidden},
		{"patient cannot confirm", owner, res(StatePending), OpConfirm, ErrForbidden},

		{"assigned doctor attends", assignedDoctor, res(StateDoctorConfirmed), OpAttend, nil},
		{"staff cannot attend", admin, res(StateDoctorConfirmed), OpAttend, ErrForbidden},

		{"assigned doctor unconfirms", assignedDoctor, res(StateDoctorConfirmed), OpUnconfirm, nil},
		{"receptionist unconfirms", receptionist, res(StateDoctorConfirmed), OpUnconfirm, nil},
		{"patient cannot unconfirm", owner, res(StateDoctorConfirmed), OpUnconfirm, ErrForbidden},

		{"owner cancels own pending", owner, res(StatePending), OpCancel, nil},
		{"owner cannot cancel once confirmed", owner, res(StateDoctorConfirmed), OpCancel, ErrForbidden},
		{"stranger cannot cancel", stranger, res(StatePending), OpCancel, ErrForbidden},
		{"admin cancels confirmed", admin, res(StateDoctorConfirmed), OpCancel, nil},
		{"assigned doctor cancels", assignedDoctor, res(StatePending), OpCancel, nil},

		{"receptionist reschedules", receptionist, res(StatePending), OpReschedule, nil},
		{"owner cannot reschedule", owner, res(StatePending), OpReschedule, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.r, tt.op)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReservationPredicates(t *testing.T) {
	assert.True(t, (&Reservation{State: StatePending}).Active())
	assert.True(t, (&Reservation{State: StateAttended}).Active())
	assert.False(t, (&Reservation{State: StateCancelled}).Active())

	assert.True(t, (&Reservation{State: StateAttended}).Terminal())
	assert.True(t, (&Reservation{State: StateCancelled}).Terminal())
	assert.False(t, (&Reservation{State: StateDoctorConfirmed}).Terminal())
}
