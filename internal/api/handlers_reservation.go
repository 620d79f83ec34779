package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/medisched/clinic-scheduling/internal/booking"
	"github.com/medisched/clinic-scheduling/internal/identity"
	"github.com/medisched/clinic-scheduling/internal/reservation"
	"github.com/medisched/clinic-scheduling/internal/schedule"
)

func createReservationHandler(validate *validator.Validate, resolver *schedule.Resolver, reservations *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "caller identity is required")
			return
		}

		var req CreateReservationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		sel, err := selectionFromRequest(actor, req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		wizard := booking.NewWizard(actor, resolver, reservations)
		created, err := booking.Book(r.Context(), wizard, sel)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toReservationResponse(created))
	}
}

func selectionFromRequest(actor identity.Actor, req CreateReservationRequest) (booking.Selection, error) {
	sel := booking.Selection{Urgent: req.Urgent}

	// The wizard skips the subject step for patients and the doctor step for
	// doctors; the corresponding IDs default to the actor.
	if req.PatientID != "" {
		id, err := uuid.Parse(req.PatientID)
		if err != nil {
			return booking.Selection{}, err
		}
		sel.PatientID = id
	} else {
		sel.PatientID = actor.ID
	}

	if req.DoctorID != "" {
		id, err := uuid.Parse(req.DoctorID)
		if err != nil {
			return booking.Selection{}, err
		}
		sel.DoctorID = id
	}

	specialtyID, err := uuid.Parse(req.SpecialtyID)
	if err != nil {
		return booking.Selection{}, err
	}
	sel.SpecialtyID = specialtyID

	sel.Date, err = time.Parse(dateFormat, req.Date)
	if err != nil {
		return booking.Selection{}, err
	}

	sel.Start, err = schedule.ParseMinuteOfDay(req.Start)
	if err != nil {
		return booking.Selection{}, err
	}
	sel.End, err = schedule.ParseMinuteOfDay(req.End)
	if err != nil {
		return booking.Selection{}, err
	}

	return sel, nil
}

func getReservationHandler(reservations *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_reservation_id", "id must be a valid UUID")
			return
		}

		res, err := reservations.Get(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

func listPatientReservationsHandler(reservations *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		list, err := reservations.ListByPatient(r.Context(), patientID, limit, offset)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]ReservationResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toReservationResponse(&list[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func doctorAgendaHandler(reservations *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		day, err := time.Parse(dateFormat, r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		list, err := reservations.ListForDay(r.Context(), doctorID, day)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]ReservationResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toReservationResponse(&list[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func confirmReservationHandler(reservations *reservation.Service) http.HandlerFunc {
	return transitionHandler(reservations.Confirm)
}

func unconfirmReservationHandler(reservations *reservation.Service) http.HandlerFunc {
	return transitionHandler(reservations.Unconfirm)
}

func transitionHandler(op func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*reservation.Reservation, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "caller identity is required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_reservation_id", "id must be a valid UUID")
			return
		}

		res, err := op(r.Context(), actor, id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

func cancelReservationHandler(validate *validator.Validate, reservations *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "caller identity is required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_reservation_id", "id must be a valid UUID")
			return
		}

		var req CancelReservationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		res, err := reservations.Cancel(r.Context(), actor, id, req.Reason)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

func rescheduleReservationHandler(validate *validator.Validate, reservations *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "caller identity is required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_reservation_id", "id must be a valid UUID")
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		upd, err := rescheduleFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		res, err := reservations.Reschedule(r.Context(), actor, id, upd)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

func rescheduleFromRequest(req RescheduleRequest) (reservation.RescheduleUpdate, error) {
	var upd reservation.RescheduleUpdate

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return upd, err
	}
	specialtyID, err := uuid.Parse(req.SpecialtyID)
	if err != nil {
		return upd, err
	}

	date, err := time.Parse(dateFormat, req.Date)
	if err != nil {
		return upd, err
	}
	start, err := schedule.ParseMinuteOfDay(req.Start)
	if err != nil {
		return upd, err
	}
	end, err := schedule.ParseMinuteOfDay(req.End)
	if err != nil {
		return upd, err
	}

	upd.DoctorID = doctorID
	upd.SpecialtyID = specialtyID
	upd.Date = date
	upd.Start = start
	upd.End = end
	return upd, nil
}
