// Package httpapi is the HTTP transport of the kotwijzer backend. Handlers
// translate requests into cms/auth operations and domain errors into status
// codes; no business rule lives here.
package httpapi

import (
	"net/http"
	"time"

	"kotwijzer.be/internal/audit"
	"kotwijzer.be/internal/auth"
	"kotwijzer.be/internal/cms"
	"kotwijzer.be/internal/obs"
	"kotwijzer.be/internal/ratelimit"
)

// Fixed-window quotas for abuse-prone endpoints. The key carries the subject
// (client IP before login, user id after) so tenants do not share windows.
const (
	loginLimit  = 10
	kotenLimit  = 30
	bulkLimit   = 10
	limitWindow = time.Minute
)

// Config carries the transport-level settings read from the environment.
type Config struct {
	Version string
	// SecureCookies marks the session cookie Secure; off for local http dev.
	SecureCookies bool
	// Token-bucket edge limit, per client IP.
	RateBurst  int
	RatePerSec int
}

// API wires handlers, middleware and the service layer together.
type API struct {
	mux        *http.ServeMux
	cfg        Config
	auth       *auth.Service
	cms        *cms.Service
	users      *cms.UserService
	audit      *audit.Recorder
	limits     *ratelimit.Limiter
	readyProbe ReadyProbe
}

func New(cfg Config, authSvc *auth.Service, cmsSvc *cms.Service, userSvc *cms.UserService, rec *audit.Recorder, limits *ratelimit.Limiter, rp ReadyProbe) *API {
	if limits == nil {
		limits = ratelimit.New()
	}
	a := &API{
		mux:        http.NewServeMux(),
		cfg:        cfg,
		auth:       authSvc,
		cms:        cmsSvc,
		users:      userSvc,
		audit:      rec,
		limits:     limits,
		readyProbe: rp,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/me", a.handleMe)

	a.mux.HandleFunc("/v1/koten", a.handleKotenCollection)
	a.mux.HandleFunc("/v1/koten/", a.handleKotenResource)

	a.mux.HandleFunc("/v1/vestigingen", a.handleVestigingenCollection)
	a.mux.HandleFunc("/v1/vestigingen/", a.handleVestigingResource)

	a.mux.HandleFunc("/v1/users", a.handleUsersCollection)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)

	a.mux.HandleFunc("/v1/audit-logs", a.handleAuditLogs)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	if a.cfg.RateBurst > 0 && a.cfg.RatePerSec > 0 {
		h = RateLimit(h, a.cfg.RateBurst, a.cfg.RatePerSec)
	}
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// actor resolves the caller's identity and vestiging scope for handlers that
// gate on them.
func (a *API) actor(r *http.Request) (cms.Actor, error) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return cms.Actor{}, auth.ErrInvalidToken
	}
	scope, err := a.auth.ScopeFor(r.Context(), identity)
	if err != nil {
		return cms.Actor{}, err
	}
	return cms.Actor{Identity: identity, Scope: scope}, nil
}
