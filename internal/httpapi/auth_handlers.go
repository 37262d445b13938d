package httpapi

import (
	"net/http"
	"strings"
	"time"

	"kotwijzer.be/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionUser struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	VestigingIDs []string `json:"vestiging_ids,omitempty"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	ip := clientIP(r)
	if ip == "" {
		ip = "unknown"
	}
	if res := a.limits.Allow("login:"+ip, loginLimit, limitWindow); !res.Allowed {
		writeRateLimited(w, r, res.ResetAt)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, expiresAt, identity, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	a.setSessionCookie(w, token, expiresAt)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
		"user": sessionUser{
			ID:    identity.ID,
			Email: identity.Email,
			Role:  string(identity.Role),
		},
	})
}

// handleLogout clears the session cookie. Issued tokens stay valid until
// expiry; there is no server-side revocation.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	u := sessionUser{
		ID:    actor.Identity.ID,
		Email: actor.Identity.Email,
		Role:  string(actor.Identity.Role),
	}
	if actor.Identity.Role != auth.RoleSuperAdmin {
		u.VestigingIDs = actor.Scope.IDs()
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// userKey builds a per-user rate-limit key, falling back to the client IP for
// the unauthenticated edge cases that never reach this far in practice.
func userKey(r *http.Request, prefix string) string {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		return prefix + ":" + identity.ID
	}
	ip := clientIP(r)
	if ip == "" {
		ip = "unknown"
	}
	return prefix + ":" + strings.TrimSpace(ip)
}
