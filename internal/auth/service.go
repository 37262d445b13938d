package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Service authenticates credentials and resolves vestiging scopes.
type Service struct {
	users UserStore
}

// NewService constructs a Service over the given user store.
func NewService(users UserStore) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth: user store is required")
	}
	return &Service{users: users}, nil
}

// Login verifies credentials and mints a session token. An unknown account and
// a wrong password both return ErrInvalidCredentials; the caller cannot tell
// which half failed. The KDF makes this a deliberately expensive call.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", time.Time{}, Identity{}, ErrInvalidCredentials
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", time.Time{}, Identity{}, ErrInvalidCredentials
		}
		return "", time.Time{}, Identity{}, err
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return "", time.Time{}, Identity{}, ErrInvalidCredentials
	}
	identity := Identity{ID: user.ID, Email: user.Email, Role: user.Role}
	token, expiresAt, err := IssueSession(identity)
	if err != nil {
		return "", time.Time{}, Identity{}, err
	}
	return token, expiresAt, identity, nil
}

// ScopeFor loads the assigned vestiging set for an identity. Super admins are
// implicitly scoped to every vestiging and skip the lookup.
func (s *Service) ScopeFor(ctx context.Context, identity Identity) (Scope, error) {
	if identity.Role == RoleSuperAdmin {
		return nil, nil
	}
	ids, err := s.users.VestigingIDs(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	return NewScope(ids), nil
}
