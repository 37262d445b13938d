package auth

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"kotwijzer.be/internal/obs"
)

const (
	issuer            = "kotwijzer"
	secretEnvVariable = "KOTWIJZER_AUTH_SECRET"

	// devFallbackSecret keeps local development working when no secret is
	// configured. It must never reach a production deployment; loadSecret
	// logs a loud warning whenever it is used.
	devFallbackSecret = "change-me-in-env"

	// SessionTTL is the fixed lifetime of a session token. There is no
	// server-side revocation: logout only discards the cookie, and a token
	// stays cryptographically valid until natural expiry.
	SessionTTL = 7 * 24 * time.Hour
)

var (
	secretMu sync.Mutex
	secret   cachedSecret
)

type cachedSecret struct {
	value []byte
	ready bool
}

// SessionClaims is the signed payload of a session token.
type SessionClaims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssueSession signs a session token for the identity using HS256.
func IssueSession(identity Identity) (string, time.Time, error) {
	if strings.TrimSpace(identity.ID) == "" {
		return "", time.Time{}, errors.New("identity id is required")
	}
	if !identity.Role.Valid() {
		return "", time.Time{}, errors.New("identity role is required")
	}

	now := time.Now().UTC()
	expiresAt := now.Add(SessionTTL)
	claims := SessionClaims{
		Role:  string(identity.Role),
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(loadSecret())
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifySession validates signature, structure and expiry and returns the
// embedded identity. Every failure mode yields the same ErrInvalidToken so the
// response cannot be used as an oracle; the distinction is only logged.
func VerifySession(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return loadSecret(), nil
	})
	if err != nil {
		logTokenRejection(err.Error())
		return Identity{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if err := validateSession(claims); err != nil {
		logTokenRejection(err.Error())
		return Identity{}, ErrInvalidToken
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		logTokenRejection("unknown role claim")
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: claims.Subject, Email: claims.Email, Role: role}, nil
}

func validateSession(claims *SessionClaims) error {
	if claims.Issuer != issuer {
		return errors.New("unexpected issuer")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := time.Now().UTC()
	if now.After(claims.ExpiresAt.Time) {
		return errors.New("token expired")
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	return nil
}

func logTokenRejection(reason string) {
	obs.LogEntry(map[string]any{
		"ts":     time.Now().UTC().Format(time.RFC3339Nano),
		"level":  "info",
		"msg":    "session token rejected",
		"reason": reason,
	})
}

func loadSecret() []byte {
	secretMu.Lock()
	defer secretMu.Unlock()
	if secret.ready {
		return secret.value
	}
	raw := strings.TrimSpace(os.Getenv(secretEnvVariable))
	if raw == "" {
		obs.LogEntry(map[string]any{
			"ts":    time.Now().UTC().Format(time.RFC3339Nano),
			"level": "warn",
			"msg":   "KOTWIJZER_AUTH_SECRET is not set; using the insecure development fallback",
		})
		raw = devFallbackSecret
	}
	secret.value = []byte(raw)
	secret.ready = true
	return secret.value
}

// ResetSecretForTests clears the cached secret value. Only intended for test use.
func ResetSecretForTests() {
	secretMu.Lock()
	defer secretMu.Unlock()
	secret = cachedSecret{}
}
