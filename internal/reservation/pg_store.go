package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medisched/clinic-scheduling/internal/schedule"
)

const reservationColumns = `
	id, patient_id, doctor_id, specialty_id, date, start_min, end_min,
	state, doctor_confirmation, patient_confirmation, urgent,
	follow_up_of, cancel_reason, created_at, updated_at`

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var (
		r                Reservation
		startMin, endMin int
		followUpOf       *uuid.UUID
		cancelReason     *string
	)

	err := row.Scan(
		&r.ID,
		&r.PatientID,
		&r.DoctorID,
		&r.SpecialtyID,
		&r.Date,
		&startMin,
		&endMin,
		&r.State,
		&r.DoctorConfirmation,
		&r.PatientConfirmation,
		&r.Urgent,
		&followUpOf,
		&cancelReason,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	r.Start = schedule.MinuteOfDay(startMin)
	r.End = schedule.MinuteOfDay(endMin)
	r.FollowUpOf = followUpOf
	r.CancelReason = cancelReason
	return &r, nil
}

func (s *PgStore) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1
	`, id)
	return scanReservation(row)
}

func (s *PgStore) ListActive(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Reservation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE doctor_id = $1
		  AND date = $2
		  AND state <> 'cancelled'
		ORDER BY start_min
	`, doctorID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReservations(rows)
}

func (s *PgStore) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Reservation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE patient_id = $1
		ORDER BY date DESC, start_min DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReservations(rows)
}

// BookedIntervals feeds the availability resolver: every non-cancelled
// reservation occupies its range regardless of confirmation progress.
func (s *PgStore) BookedIntervals(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]schedule.BookedInterval, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT start_min, end_min
		FROM reservations
		WHERE doctor_id = $1
		  AND date = $2
		  AND state <> 'cancelled'
	`, doctorID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []schedule.BookedInterval
	for rows.Next() {
		var startMin, endMin int
		if err := rows.Scan(&startMin, &endMin); err != nil {
			return nil, err
		}
		result = append(result, schedule.BookedInterval{
			Start: schedule.MinuteOfDay(startMin),
			End:   schedule.MinuteOfDay(endMin),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Insert performs the conditional check-and-insert in a single statement so
// two racing bookers can never both land on the same range.
func (s *PgStore) Insert(ctx context.Context, nr NewReservation) (*Reservation, error) {
	id := uuid.New()

	row := s.pool.QueryRow(ctx, `
		INSERT INTO reservations (
			id, patient_id, doctor_id, specialty_id, date, start_min, end_min,
			state, doctor_confirmation, patient_confirmation, urgent,
			follow_up_of, created_at, updated_at
		)
		SELECT $1, $2, $3, $4, $5, $6, $7,
		       'pending', 'pending', 'pending', $8,
		       $9, now(), now()
		WHERE NOT EXISTS (
			SELECT 1 FROM reservations
			WHERE doctor_id = $3
			  AND date = $5
			  AND state <> 'cancelled'
			  AND start_min < $7
			  AND end_min > $6
		)
		RETURNING `+reservationColumns+`
	`, id, nr.PatientID, nr.DoctorID, nr.SpecialtyID, nr.Date,
		int(nr.Start), int(nr.End), nr.Urgent, nr.FollowUpOf)

	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}
	return res, nil
}

func (s *PgStore) UpdateState(ctx context.Context, id uuid.UUID, from, to State) (*Reservation, error) {
	doctorConfirmation := confirmationFor(to)

	row := s.pool.QueryRow(ctx, `
		UPDATE reservations
		SET state = $2,
		    doctor_confirmation = COALESCE($4, doctor_confirmation),
		    updated_at = now()
		WHERE id = $1
		  AND state = $3
		RETURNING `+reservationColumns+`
	`, id, to, from, doctorConfirmation)

	return scanReservation(row)
}

func (s *PgStore) Cancel(ctx context.Context, id uuid.UUID, from State, reason string) (*Reservation, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE reservations
		SET state = 'cancelled',
		    doctor_confirmation = 'cancelled',
		    cancel_reason = $3,
		    updated_at = now()
		WHERE id = $1
		  AND state = $2
		RETURNING `+reservationColumns+`
	`, id, from, reason)

	return scanReservation(row)
}

func (s *PgStore) Reschedule(ctx context.Context, id uuid.UUID, upd RescheduleUpdate) (*Reservation, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE reservations r
		SET doctor_id = $2,
		    specialty_id = $3,
		    date = $4,
		    start_min = $5,
		    end_min = $6,
		    updated_at = now()
		WHERE r.id = $1
		  AND r.state = 'pending'
		  AND NOT EXISTS (
			SELECT 1 FROM reservations o
			WHERE o.id <> r.id
			  AND o.doctor_id = $2
			  AND o.date = $4
			  AND o.state <> 'cancelled'
			  AND o.start_min < $6
			  AND o.end_min > $5
		  )
		RETURNING `+reservationColumns+`
	`, id, upd.DoctorID, upd.SpecialtyID, upd.Date, int(upd.Start), int(upd.End))

	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}
	return res, nil
}

func (s *PgStore) FindStalePending(ctx context.Context, today time.Time) ([]Reservation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE state = 'pending'
		  AND date < $1
	`, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReservations(rows)
}

func (s *PgStore) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, reservation_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.ReservationID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func collectReservations(rows pgx.Rows) ([]Reservation, error) {
	var result []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// confirmationFor keeps the doctor's confirmation column in step with the
// state machine on the edges it drives.
func confirmationFor(to State) *string {
	var v string
	switch to {
	case StateDoctorConfirmed:
		v = string(ConfirmationConfirmed)
	case StateCancelled:
		v = string(ConfirmationCancelled)
	case StatePending:
		v = string(ConfirmationPending)
	default:
		return nil
	}
	return &v
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
