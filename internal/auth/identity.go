package auth

import "context"

// Identity is the authenticated caller decoded from a session token. It is
// immutable once minted; the embedded role is a copy taken at login and can be
// up to SessionTTL stale until the next login.
type Identity struct {
	ID    string
	Email string
	Role  Role
}

type identityContextKey struct{}

// ContextWithIdentity attaches the authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the authenticated identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(Identity)
	if !ok || v.ID == "" {
		return Identity{}, false
	}
	return v, true
}
