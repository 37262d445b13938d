package cms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kotwijzer.be/internal/audit"
	"kotwijzer.be/internal/auth"
)

// UserService manages CMS accounts and their vestiging assignments. Every
// operation requires the manage-users capability, which only super admins
// hold.
type UserService struct {
	users auth.UserStore
	audit Auditor
}

func NewUserService(users auth.UserStore, auditor Auditor) (*UserService, error) {
	if users == nil || auditor == nil {
		return nil, errors.New("cms: user store and auditor are required")
	}
	return &UserService{users: users, audit: auditor}, nil
}

// Directory is the user listing with assignments resolved.
type Directory struct {
	Users       []*auth.User
	Assignments []auth.VestigingAssignment
}

// List returns all accounts plus the full assignment relation.
func (s *UserService) List(ctx context.Context, actor Actor) (Directory, error) {
	if !auth.CanManageUsers(actor.Identity.Role) {
		return Directory{}, ErrForbidden
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return Directory{}, err
	}
	assignments, err := s.users.Assignments(ctx)
	if err != nil {
		return Directory{}, err
	}
	return Directory{Users: users, Assignments: assignments}, nil
}

// Create adds an account with an initial password and audits it.
func (s *UserService) Create(ctx context.Context, actor Actor, email, fullName, password string, role auth.Role) (*auth.User, error) {
	if !auth.CanManageUsers(actor.Identity.Role) {
		return nil, ErrForbidden
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role", ErrValidation)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &auth.User{
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.recordUserAudit(ctx, actor, audit.ActionCreate, u.ID, map[string]any{
		"email": u.Email,
		"role":  string(u.Role),
	})
	return u, nil
}

// UpdateRoleAndScope sets an account's role and, when vestigingIDs is
// non-nil, replaces its assignment set.
func (s *UserService) UpdateRoleAndScope(ctx context.Context, actor Actor, userID string, role auth.Role, vestigingIDs []string) error {
	if !auth.CanManageUsers(actor.Identity.Role) {
		return ErrForbidden
	}
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role", ErrValidation)
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if vestigingIDs != nil {
		if err := s.users.SetVestigingen(ctx, userID, vestigingIDs); err != nil {
			return err
		}
	}
	s.recordUserAudit(ctx, actor, audit.ActionUpdate, userID, map[string]any{
		"role":          string(role),
		"vestiging_ids": vestigingIDs,
	})
	return nil
}

func (s *UserService) recordUserAudit(ctx context.Context, actor Actor, action, entityID string, changes map[string]any) {
	recordAudit(ctx, s.audit, audit.Entry{
		ActorID:    actorID(actor),
		Action:     action,
		EntityType: "users",
		EntityID:   entityID,
		Changes:    changes,
	})
}
