package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/medisched/clinic-scheduling/internal/consultation"
	"github.com/medisched/clinic-scheduling/internal/reconsult"
	"github.com/medisched/clinic-scheduling/internal/schedule"
)

func attendReservationHandler(consultations *consultation.Service) http.HandlerFunc {
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

		sess, err := consultations.Attend(r.Context(), actor, id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSessionResponse(sess, time.Now()))
	}
}

func getSessionHandler(consultations *consultation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_consultation_id", "id must be a valid UUID")
			return
		}

		sess, err := consultations.Get(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSessionResponse(sess, time.Now()))
	}
}

func recordVitalsHandler(validate *validator.Validate, consultations *consultation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "caller identity is required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_consultation_id", "id must be a valid UUID")
			return
		}

		var req VitalSignsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		flags, err := consultations.RecordVitals(r.Context(), actor, id, consultation.VitalSigns{
			HeartRate:       req.HeartRate,
			RespiratoryRate: req.RespiratoryRate,
			Temperature:     req.Temperature,
			Weight:          req.Weight,
			Height:          req.Height,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, VitalsResponse{Saved: true, Flags: flags})
	}
}

func finalizeSessionHandler(validate *validator.Validate, consultations *consultation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "caller identity is required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_consultation_id", "id must be a valid UUID")
			return
		}

		var req FinalizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		vitals := make([]consultation.VitalSigns, 0, len(req.VitalSigns))
		for _, v := range req.VitalSigns {
			vitals = append(vitals, consultation.VitalSigns{
				HeartRate:       v.HeartRate,
				RespiratoryRate: v.RespiratoryRate,
				Temperature:     v.Temperature,
				Weight:          v.Weight,
				Height:          v.Height,
			})
		}

		prompt, err := consultations.Finalize(r.Context(), actor, id, consultation.FinalizeInput{
			Motive:        req.Motive,
			VitalSigns:    vitals,
			PhysicalExam:  req.PhysicalExam,
			Diagnosis:     req.Diagnosis,
			TreatmentPlan: req.TreatmentPlan,
			Prescription:  req.Prescription,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPromptResponse(*prompt))
	}
}

func reconsultationHandler(validate *validator.Validate, planner *reconsult.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "caller identity is required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_consultation_id", "id must be a valid UUID")
			return
		}

		var req ReconsultationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		date, err := time.Parse(dateFormat, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		start, err := schedule.ParseMinuteOfDay(req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", err.Error())
			return
		}
		end, err := schedule.ParseMinuteOfDay(req.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", err.Error())
			return
		}

		prompt, err := planner.PromptFor(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		created, err := planner.Confirm(r.Context(), actor, prompt, date, start, end)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toReservationResponse(created))
	}
}
