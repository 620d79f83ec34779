package consultation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgHistoryStore appends finalized sessions to the patient-history table.
// The history domain owns that data; this core only ever appends.
type PgHistoryStore struct {
	pool *pgxpool.Pool
}

func NewPgHistoryStore(pool *pgxpool.Pool) *PgHistoryStore {
	return &PgHistoryStore{pool: pool}
}

func (h *PgHistoryStore) AppendConsultationRecord(ctx context.Context, sess *Session) error {
	record, err := json.Marshal(map[string]any{
		"consultation_id": sess.ID.String(),
		"reservation_id":  sess.ReservationID.String(),
		"started_at":      sess.StartedAt,
		"motive":          sess.Motive,
		"vital_signs":     sess.VitalSigns,
		"physical_exam":   sess.PhysicalExam,
		"diagnosis":       sess.Diagnosis,
		"treatment_plan":  sess.TreatmentPlan,
		"prescription":    sess.Prescription,
	})
	if err != nil {
		return fmt.Errorf("marshal consultation record: %w", err)
	}

	_, err = h.pool.Exec(ctx, `
		INSERT INTO consultation_history (consultation_id, record, created_at)
		VALUES ($1, $2, now())
	`, sess.ID, record)
	if err != nil {
		return fmt.Errorf("append consultation record: %w", err)
	}

	return nil
}
