package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/medisched/clinic-scheduling/internal/consultation"
	"github.com/medisched/clinic-scheduling/internal/reservation"
	"github.com/medisched/clinic-scheduling/internal/schedule"
)

const dateFormat = "2006-01-02"

type CreateReservationRequest struct {
	// PatientID may be omitted when a patient books for themselves;
	// DoctorID when a doctor self-books.
	PatientID   string `json:"patient_id" validate:"omitempty,uuid"`
	DoctorID    string `json:"doctor_id" validate:"omitempty,uuid"`
	SpecialtyID string `json:"specialty_id" validate:"required,uuid"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Start       string `json:"start" validate:"required"`
	End         string `json:"end" validate:"required"`
	Urgent      bool   `json:"urgent"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type RescheduleRequest struct {
	DoctorID    string `json:"doctor_id" validate:"required,uuid"`
	SpecialtyID string `json:"specialty_id" validate:"required,uuid"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Start       string `json:"start" validate:"required"`
	End         string `json:"end" validate:"required"`
}

type VitalSignsRequest struct {
	HeartRate       int     `json:"heart_rate" validate:"required"`
	RespiratoryRate int     `json:"respiratory_rate" validate:"required"`
	Temperature     float64 `json:"temperature" validate:"required"`
	Weight          float64 `json:"weight" validate:"required"`
	Height          float64 `json:"height" validate:"required"`
}

type FinalizeRequest struct {
	Motive        string              `json:"motive" validate:"required"`
	VitalSigns    []VitalSignsRequest `json:"vital_signs" validate:"required,min=1,dive"`
	PhysicalExam  string              `json:"physical_exam" validate:"required"`
	Diagnosis     string              `json:"diagnosis" validate:"required"`
	TreatmentPlan string              `json:"treatment_plan" validate:"required"`
	Prescription  string              `json:"prescription" validate:"required"`
}

type ReconsultationRequest struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

type ReservationResponse struct {
	ID                  uuid.UUID            `json:"id"`
	PatientID           uuid.UUID            `json:"patient_id"`
	DoctorID            uuid.UUID            `json:"doctor_id"`
	SpecialtyID         uuid.UUID            `json:"specialty_id"`
	Date                string               `json:"date"`
	Start               schedule.MinuteOfDay `json:"start"`
	End                 schedule.MinuteOfDay `json:"end"`
	State               string               `json:"state"`
	DoctorConfirmation  string               `json:"doctor_confirmation"`
	PatientConfirmation string               `json:"patient_confirmation"`
	Urgent              bool                 `json:"urgent"`
	FollowUpOf          *uuid.UUID           `json:"follow_up_of,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

type AvailabilityResponse struct {
	DoctorID    uuid.UUID                  `json:"doctor_id"`
	SpecialtyID uuid.UUID                  `json:"specialty_id"`
	Days        []schedule.DayAvailability `json:"days"`
	// PastDateAdvisory is set when part of the range lies in the past; those
	// days come back empty and the caller decides what to make of it.
	PastDateAdvisory bool `json:"past_date_advisory,omitempty"`
}

type SessionResponse struct {
	ID               uuid.UUID                 `json:"id"`
	ReservationID    uuid.UUID                 `json:"reservation_id"`
	StartedAt        time.Time                 `json:"started_at"`
	WindowEnd        time.Time                 `json:"window_end"`
	RemainingSeconds int64                     `json:"remaining_seconds"`
	Expired          bool                      `json:"expired"`
	Motive           string                    `json:"motive,omitempty"`
	VitalSigns       []consultation.VitalSigns `json:"vital_signs,omitempty"`
	PhysicalExam     string                    `json:"physical_exam,omitempty"`
	Diagnosis        string                    `json:"diagnosis,omitempty"`
	TreatmentPlan    string                    `json:"treatment_plan,omitempty"`
	Prescription     string                    `json:"prescription,omitempty"`
	Finalized        bool                      `json:"finalized"`
	FinalizedAt      *time.Time                `json:"finalized_at,omitempty"`
}

type VitalsResponse struct {
	Saved bool                     `json:"saved"`
	Flags []consultation.VitalFlag `json:"flags"`
}

type ReconsultationPromptResponse struct {
	SourceConsultationID uuid.UUID `json:"source_consultation_id"`
	PatientID            uuid.UUID `json:"patient_id"`
	DoctorID             uuid.UUID `json:"doctor_id"`
	SpecialtyID          uuid.UUID `json:"specialty_id"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:                  r.ID,
		PatientID:           r.PatientID,
		DoctorID:            r.DoctorID,
		SpecialtyID:         r.SpecialtyID,
		Date:                r.Date.Format(dateFormat),
		Start:               r.Start,
		End:                 r.End,
		State:               string(r.State),
		DoctorConfirmation:  string(r.DoctorConfirmation),
		PatientConfirmation: string(r.PatientConfirmation),
		Urgent:              r.Urgent,
		FollowUpOf:          r.FollowUpOf,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func toSessionResponse(s *consultation.Session, now time.Time) SessionResponse {
	return SessionResponse{
		ID:               s.ID,
		ReservationID:    s.ReservationID,
		StartedAt:        s.StartedAt,
		WindowEnd:        s.WindowEnd,
		RemainingSeconds: int64(s.Remaining(now).Seconds()),
		Expired:          s.Expired(now),
		Motive:           s.Motive,
		VitalSigns:       s.VitalSigns,
		PhysicalExam:     s.PhysicalExam,
		Diagnosis:        s.Diagnosis,
		TreatmentPlan:    s.TreatmentPlan,
		Prescription:     s.Prescription,
		Finalized:        s.Finalized,
		FinalizedAt:      s.FinalizedAt,
	}
}

func toPromptResponse(p consultation.ReconsultationPrompt) ReconsultationPromptResponse {
	return ReconsultationPromptResponse{
		SourceConsultationID: p.SourceConsultationID,
		PatientID:            p.PatientID,
		DoctorID:             p.DoctorID,
		SpecialtyID:          p.SpecialtyID,
	}
}
