package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient      Role = "patient"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
	RoleAdmin        Role = "admin"
)

var ErrActorNotFound = errors.New("actor not found")

// Actor is the authenticated caller as reported by the identity service.
// The scheduling core never authenticates; it only gates transitions on role.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Staff reports whether the actor may act on a doctor's behalf for
// administrative edits (reschedule, cancel, unconfirm).
func (a Actor) Staff() bool {
	return a.Role == RoleReceptionist || a.Role == RoleAdmin
}

// Directory resolves a caller's identity and role. Backed by the external
// identity service; the pg implementation here reads the directory tables
// the clinic backend already maintains.
type Directory interface {
	Lookup(ctx context.Context, id uuid.UUID) (Actor, error)
}
