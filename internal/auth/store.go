package auth

import (
	"context"
	"time"
)

// User is a stored CMS account. PasswordHash uses the encoding produced by
// HashPassword.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// VestigingAssignment links an account to one vestiging it may act upon.
type VestigingAssignment struct {
	UserID      string
	VestigingID string
}

// UserStore describes the persistence operations the auth subsystem needs.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdateRole(ctx context.Context, userID string, role Role) error

	// VestigingIDs returns the assigned vestiging set for a user; empty for
	// users without assignments.
	VestigingIDs(ctx context.Context, userID string) ([]string, error)
	// SetVestigingen replaces the full assignment set for a user.
	SetVestigingen(ctx context.Context, userID string, vestigingIDs []string) error
	// Assignments lists every (user, vestiging) pair.
	Assignments(ctx context.Context) ([]VestigingAssignment, error)
}
