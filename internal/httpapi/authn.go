package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"kotwijzer.be/internal/auth"
	"kotwijzer.be/internal/obs"
)

const (
	sessionCookie = "kot_session"
	authHeader    = "Authorization"
	bearer        = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/login",
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/info",
	"/",
}

// withAuth resolves the session (cookie first, then bearer header), verifies
// it and attaches the identity to the request context. Every non-public path
// requires a valid session.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractSessionToken(r)
		if err != nil {
			obs.AuthDenied("missing")
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		identity, err := auth.VerifySession(token)
		if err != nil {
			obs.AuthDenied("token")
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractSessionToken(r *http.Request) (string, error) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return extractBearerToken(r.Header.Get(authHeader))
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing session")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing session")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
