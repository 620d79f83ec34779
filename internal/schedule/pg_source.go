package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgTemplateSource struct {
	pool *pgxpool.Pool
}

func NewPgTemplateSource(pool *pgxpool.Pool) *PgTemplateSource {
	return &PgTemplateSource{pool: pool}
}

func (s *PgTemplateSource) TemplatesFor(ctx context.Context, doctorID, specialtyID uuid.UUID) ([]TemplateEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT weekday, start_min, end_min, slot_minutes, shift
		FROM availability_templates
		WHERE doctor_id = $1 AND specialty_id = $2
		ORDER BY weekday, start_min
	`, doctorID, specialtyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TemplateEntry
	for rows.Next() {
		var (
			weekday          int
			startMin, endMin int
			slotMinutes      int
			shift            string
		)
		if err := rows.Scan(&weekday, &startMin, &endMin, &slotMinutes, &shift); err != nil {
			return nil, err
		}
		result = append(result, TemplateEntry{
			Weekday:     time.Weekday(weekday),
			Start:       MinuteOfDay(startMin),
			End:         MinuteOfDay(endMin),
			SlotMinutes: slotMinutes,
			Shift:       Shift(shift),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PgTemplateSource) HasExclusiveShiftElsewhere(ctx context.Context, doctorID, specialtyID uuid.UUID, weekday time.Weekday) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM availability_templates
			WHERE doctor_id = $1
			  AND specialty_id <> $2
			  AND weekday = $3
			  AND shift = 'both'
		)
	`, doctorID, specialtyID, int(weekday)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
