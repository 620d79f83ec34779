package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

// Lookup determines the caller's role from the directory tables. Staff rows
// carry an explicit role; doctors and patients are identified by table.
func (d *PgDirectory) Lookup(ctx context.Context, id uuid.UUID) (Actor, error) {
	var role string
	err := d.pool.QueryRow(ctx, `
		SELECT role FROM staff WHERE id = $1
	`, id).Scan(&role)
	if err == nil {
		return Actor{ID: id, Role: Role(role)}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Actor{}, err
	}

	var exists bool
	err = d.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1)
	`, id).Scan(&exists)
	if err != nil {
		return Actor{}, err
	}
	if exists {
		return Actor{ID: id, Role: RoleDoctor}, nil
	}

	err = d.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)
	`, id).Scan(&exists)
	if err != nil {
		return Actor{}, err
	}
	if exists {
		return Actor{ID: id, Role: RolePatient}, nil
	}

	return Actor{}, ErrActorNotFound
}
