package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medisched/clinic-scheduling/internal/consultation"
	"github.com/medisched/clinic-scheduling/internal/identity"
	"github.com/medisched/clinic-scheduling/internal/reconsult"
	"github.com/medisched/clinic-scheduling/internal/reservation"
	"github.com/medisched/clinic-scheduling/internal/schedule"
)

type RouterConfig struct {
	Resolver      *schedule.Resolver
	Reservations  *reservation.Service
	Consultations *consultation.Service
	Planner       *reconsult.Planner
	Directory     identity.Directory
	PgPool        *pgxpool.Pool
	Redis         *redis.Client
	Log           *zap.Logger
	Metrics       *Metrics
	Env           string
	Version       string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Handle("/metrics", promhttp.Handler())
	}

	validate := validator.New()

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Availability is readable without identity; everything that mutates
	// runs behind the actor middleware.
	r.Get("/availability", resolveAvailabilityHandler(cfg.Resolver))

	r.Group(func(r chi.Router) {
		r.Use(ActorMiddleware(cfg.Directory))

		r.Post("/reservations", createReservationHandler(validate, cfg.Resolver, cfg.Reservations))
		r.Get("/reservations/{id}", getReservationHandler(cfg.Reservations))
		r.Post("/reservations/{id}/confirm", confirmReservationHandler(cfg.Reservations))
		r.Post("/reservations/{id}/unconfirm", unconfirmReservationHandler(cfg.Reservations))
		r.Post("/reservations/{id}/cancel", cancelReservationHandler(validate, cfg.Reservations))
		r.Post("/reservations/{id}/attend", attendReservationHandler(cfg.Consultations))
		r.Put("/reservations/{id}/schedule", rescheduleReservationHandler(validate, cfg.Reservations))

		r.Get("/patients/{id}/reservations", listPatientReservationsHandler(cfg.Reservations))
		r.Get("/doctors/{id}/agenda", doctorAgendaHandler(cfg.Reservations))

		r.Get("/consultations/{id}", getSessionHandler(cfg.Consultations))
		r.Post("/consultations/{id}/vitals", recordVitalsHandler(validate, cfg.Consultations))
		r.Post("/consultations/{id}/finalize", finalizeSessionHandler(validate, cfg.Consultations))
		r.Post("/consultations/{id}/reconsultation", reconsultationHandler(validate, cfg.Planner))
	})

	return r
}
