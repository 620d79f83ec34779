package api

import (
	"errors"
	"net/http"

	"github.com/medisched/clinic-scheduling/internal/booking"
	"github.com/medisched/clinic-scheduling/internal/consultation"
	"github.com/medisched/clinic-scheduling/internal/reconsult"
	"github.com/medisched/clinic-scheduling/internal/reservation"
	"github.com/medisched/clinic-scheduling/internal/schedule"
)

// handleDomainError maps the core error taxonomy onto HTTP statuses. Every
// conflict class is a 409 the caller recovers from by re-reading fresh
// state; nothing here is retried automatically.
func handleDomainError(w http.ResponseWriter, err error) {
	var validationErr *consultation.ValidationError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
	case errors.Is(err, reservation.ErrInvalidInterval),
		errors.Is(err, booking.ErrStepIncomplete),
		errors.Is(err, booking.ErrWrongStep):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, reservation.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, reservation.ErrNotFound):
		writeError(w, http.StatusNotFound, "reservation_not_found", err.Error())
	case errors.Is(err, consultation.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "consultation_not_found", err.Error())
	case errors.Is(err, reservation.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, reservation.ErrSlotBusy):
		writeError(w, http.StatusConflict, "slot_busy", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrSlotNotFree):
		writeError(w, http.StatusConflict, "slot_not_free", err.Error())
	case errors.Is(err, reservation.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, reservation.ErrMustUnconfirm):
		writeError(w, http.StatusConflict, "must_unconfirm", err.Error())
	case errors.Is(err, reservation.ErrOutsideAvailability):
		writeError(w, http.StatusConflict, "outside_availability", err.Error())
	case errors.Is(err, consultation.ErrAlreadyFinalized):
		writeError(w, http.StatusConflict, "already_finalized", err.Error())
	case errors.Is(err, consultation.ErrSessionExists):
		writeError(w, http.StatusConflict, "session_exists", err.Error())
	case errors.Is(err, reconsult.ErrNotFinalized):
		writeError(w, http.StatusConflict, "not_finalized", err.Error())
	case errors.Is(err, schedule.ErrShiftExclusive):
		writeError(w, http.StatusConflict, "shift_exclusive", err.Error())
	case errors.Is(err, schedule.ErrPastDate):
		writeError(w, http.StatusUnprocessableEntity, "past_date", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
