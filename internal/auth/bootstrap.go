package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kotwijzer.be/internal/audit"
)

// Bootstrap ensures the admin account from the deployment configuration
// exists. It is idempotent: an existing account is left untouched. The audit
// record it writes carries a nil actor because no authenticated identity
// exists yet.
func Bootstrap(ctx context.Context, users UserStore, recorder *audit.Recorder, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return errors.New("auth: bootstrap email and password are required")
	}
	if _, err := users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	u := &User{
		Email:        email,
		FullName:     "Administrator",
		PasswordHash: hash,
		Role:         RoleSuperAdmin,
	}
	if err := users.Create(ctx, u); err != nil {
		return fmt.Errorf("auth: create bootstrap admin: %w", err)
	}
	return recorder.Record(ctx, audit.Entry{
		ActorID:    nil,
		Action:     audit.ActionCreate,
		EntityType: "users",
		EntityID:   u.ID,
		Changes:    map[string]any{"email": u.Email, "role": string(u.Role)},
	})
}
