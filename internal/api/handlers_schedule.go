package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/medisched/clinic-scheduling/internal/schedule"
)

func resolveAvailabilityHandler(resolver *schedule.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		doctorID, err := uuid.Parse(q.Get("doctor_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		specialtyID, err := uuid.Parse(q.Get("specialty_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_specialty_id", "specialty_id must be a valid UUID")
			return
		}

		from, err := time.Parse(dateFormat, q.Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be YYYY-MM-DD")
			return
		}

		to := from
		if raw := q.Get("to"); raw != "" {
			to, err = time.Parse(dateFormat, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_to", "to must be YYYY-MM-DD")
				return
			}
		}

		days, err := resolver.Resolve(r.Context(), doctorID, specialtyID, from, to)
		if err != nil && !errors.Is(err, schedule.ErrPastDate) {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			DoctorID:         doctorID,
			SpecialtyID:      specialtyID,
			Days:             days,
			PastDateAdvisory: errors.Is(err, schedule.ErrPastDate),
		})
	}
}
