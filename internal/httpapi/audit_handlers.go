package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kotwijzer.be/internal/auth"
)

type auditLogItem struct {
	ID         string          `json:"id"`
	ActorID    *string         `json:"actor_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Changes    json.RawMessage `json:"changes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// handleAuditLogs serves the trail to admins, newest first.
func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !auth.CanManageVestigingen(actor.Identity.Role) {
		handleDomainError(w, r, auth.ErrUnauthorized)
		return
	}

	limit := 200
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}

	entries, err := a.audit.List(r.Context(), limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items := make([]auditLogItem, 0, len(entries))
	for _, e := range entries {
		item := auditLogItem{
			ID:         e.ID,
			ActorID:    e.ActorID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			CreatedAt:  e.CreatedAt,
		}
		if raw, ok := e.Changes.(json.RawMessage); ok {
			item.Changes = raw
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
