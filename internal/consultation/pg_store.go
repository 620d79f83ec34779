package consultation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `
	id, reservation_id, started_at, window_end, motive, physical_exam,
	diagnosis, treatment_plan, prescription, finalized, finalized_at,
	created_at, updated_at`

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func scanSession(row pgx.Row) (*Session, error) {
	var s Session

	err := row.Scan(
		&s.ID,
		&s.ReservationID,
		&s.StartedAt,
		&s.WindowEnd,
		&s.Motive,
		&s.PhysicalExam,
		&s.Diagnosis,
		&s.TreatmentPlan,
		&s.Prescription,
		&s.Finalized,
		&s.FinalizedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (s *PgStore) Insert(ctx context.Context, sess *Session) (*Session, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO consultation_sessions (
			id, reservation_id, started_at, window_end, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING `+sessionColumns+`
	`, sess.ID, sess.ReservationID, sess.StartedAt, sess.WindowEnd)

	created, err := scanSession(row)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique violation on reservation_id, the 1:1 guard.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSessionExists
		}
		return nil, err
	}
	return created, nil
}

func (s *PgStore) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM consultation_sessions
		WHERE id = $1
	`, id)

	sess, err := scanSession(row)
	if err != nil {
		return nil, err
	}

	if err := s.loadVitals(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *PgStore) GetByReservation(ctx context.Context, reservationID uuid.UUID) (*Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM consultation_sessions
		WHERE reservation_id = $1
	`, reservationID)

	sess, err := scanSession(row)
	if err != nil {
		return nil, err
	}

	if err := s.loadVitals(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *PgStore) AppendVitals(ctx context.Context, sessionID uuid.UUID, v VitalSigns) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO consultation_vitals (
			session_id, heart_rate, respiratory_rate, temperature, weight, height, taken_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))
	`, sessionID, v.HeartRate, v.RespiratoryRate, v.Temperature, v.Weight, v.Height, nullableTime(v.TakenAt))
	return err
}

func (s *PgStore) Finalize(ctx context.Context, sessionID uuid.UUID, in FinalizeInput) (*Session, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE consultation_sessions
		SET motive = $2,
		    physical_exam = $3,
		    diagnosis = $4,
		    treatment_plan = $5,
		    prescription = $6,
		    finalized = true,
		    finalized_at = now(),
		    updated_at = now()
		WHERE id = $1
		  AND finalized = false
		RETURNING `+sessionColumns+`
	`, sessionID, in.Motive, in.PhysicalExam, in.Diagnosis, in.TreatmentPlan, in.Prescription)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			// The row exists but the guard failed: a double finalize.
			return nil, ErrAlreadyFinalized
		}
		return nil, err
	}

	if err := s.loadVitals(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *PgStore) loadVitals(ctx context.Context, sess *Session) error {
	rows, err := s.pool.Query(ctx, `
		SELECT heart_rate, respiratory_rate, temperature, weight, height, taken_at
		FROM consultation_vitals
		WHERE session_id = $1
		ORDER BY taken_at
	`, sess.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v VitalSigns
		if err := rows.Scan(&v.HeartRate, &v.RespiratoryRate, &v.Temperature, &v.Weight, &v.Height, &v.TakenAt); err != nil {
			return err
		}
		sess.VitalSigns = append(sess.VitalSigns, v)
	}

	return rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
