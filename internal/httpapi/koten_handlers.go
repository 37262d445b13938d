package httpapi

import (
	"net/http"
	"strings"
	"time"

	"kotwijzer.be/internal/cms"
)

type kotRequest struct {
	Action             string     `json:"action,omitempty"`
	VestigingID        string     `json:"vestiging_id,omitempty"`
	Title              string     `json:"title,omitempty"`
	Description        string     `json:"description,omitempty"`
	PriceCents         int64      `json:"price_cents,omitempty"`
	AvailabilityStatus string     `json:"availability_status,omitempty"`
	Status             string     `json:"status,omitempty"`
	ScheduledPublishAt *time.Time `json:"scheduled_publish_at,omitempty"`
	IsHighlighted      bool       `json:"is_highlighted,omitempty"`
}

// toInput validates enum fields at the boundary; the service never sees loose
// strings.
func (req kotRequest) toInput() (cms.KotInput, error) {
	in := cms.KotInput{
		VestigingID:        strings.TrimSpace(req.VestigingID),
		Title:              req.Title,
		Description:        req.Description,
		PriceCents:         req.PriceCents,
		ScheduledPublishAt: req.ScheduledPublishAt,
		IsHighlighted:      req.IsHighlighted,
	}
	if req.AvailabilityStatus != "" {
		availability, err := cms.ParseAvailability(req.AvailabilityStatus)
		if err != nil {
			return cms.KotInput{}, err
		}
		in.Availability = availability
	}
	if req.Status != "" {
		status, err := cms.ParseStatus(req.Status)
		if err != nil {
			return cms.KotInput{}, err
		}
		in.Status = status
	}
	return in, nil
}

type bulkRequest struct {
	Action             string   `json:"action"`
	IDs                []string `json:"ids"`
	AvailabilityStatus string   `json:"availability_status,omitempty"`
}

type historyItem struct {
	ID        string    `json:"id"`
	KotID     string    `json:"kot_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedBy *string   `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

func (a *API) handleKotenCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listKoten(w, r)
	case http.MethodPost:
		a.createKot(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleKotenResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/koten/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	if path == "bulk" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.bulkKoten(w, r)
		return
	}

	if id, ok := strings.CutSuffix(path, "/history"); ok {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.kotHistory(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getKot(w, r, path)
	case http.MethodPatch:
		a.patchKot(w, r, path)
	case http.MethodDelete:
		a.deleteKot(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) listKoten(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := cms.KotFilter{
		VestigingID: strings.TrimSpace(q.Get("vestiging_id")),
		Search:      strings.TrimSpace(q.Get("search")),
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := cms.ParseStatus(raw)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		filter.Status = status
	}
	koten, err := a.cms.ListKoten(r.Context(), filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": koten})
}

func (a *API) getKot(w http.ResponseWriter, r *http.Request, id string) {
	kot, err := a.cms.GetKot(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kot)
}

func (a *API) createKot(w http.ResponseWriter, r *http.Request) {
	if res := a.limits.Allow(userKey(r, "koten"), kotenLimit, limitWindow); !res.Allowed {
		writeRateLimited(w, r, res.ResetAt)
		return
	}
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req kotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	created, err := a.cms.CreateKot(r.Context(), actor, in)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/koten/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

// patchKot is update plus the lifecycle transitions, selected by the action
// field. An absent action means a field update.
func (a *API) patchKot(w http.ResponseWriter, r *http.Request, id string) {
	if res := a.limits.Allow(userKey(r, "koten"), kotenLimit, limitWindow); !res.Allowed {
		writeRateLimited(w, r, res.ResetAt)
		return
	}
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req kotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	switch req.Action {
	case "":
		in, err := req.toInput()
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		updated, err := a.cms.UpdateKot(r.Context(), actor, id, in)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
		return
	case "publish":
		err = a.cms.PublishKot(r.Context(), actor, id)
	case "archive":
		err = a.cms.ArchiveKot(r.Context(), actor, id)
	case "schedule":
		if req.ScheduledPublishAt == nil {
			writeError(w, r, http.StatusBadRequest, "scheduled_publish_at is required")
			return
		}
		err = a.cms.ScheduleKot(r.Context(), actor, id, *req.ScheduledPublishAt)
	default:
		writeError(w, r, http.StatusBadRequest, "unknown action")
		return
	}
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) deleteKot(w http.ResponseWriter, r *http.Request, id string) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.cms.DeleteKot(r.Context(), actor, id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) bulkKoten(w http.ResponseWriter, r *http.Request) {
	if res := a.limits.Allow(userKey(r, "koten-bulk"), bulkLimit, limitWindow); !res.Allowed {
		writeRateLimited(w, r, res.ResetAt)
		return
	}
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req bulkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	switch req.Action {
	case "publish":
		err = a.cms.BulkPublish(r.Context(), actor, req.IDs)
	case "archive":
		err = a.cms.BulkArchive(r.Context(), actor, req.IDs)
	case "availability":
		availability, perr := cms.ParseAvailability(req.AvailabilityStatus)
		if perr != nil {
			handleDomainError(w, r, perr)
			return
		}
		err = a.cms.BulkAvailability(r.Context(), actor, req.IDs, availability)
	default:
		writeError(w, r, http.StatusBadRequest, "unknown action")
		return
	}
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "count": len(req.IDs)})
}

func (a *API) kotHistory(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	changes, err := a.audit.History(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items := make([]historyItem, 0, len(changes))
	for _, c := range changes {
		items = append(items, historyItem{
			ID:        c.ID,
			KotID:     c.KotID,
			OldStatus: c.OldStatus,
			NewStatus: c.NewStatus,
			ChangedBy: c.ChangedBy,
			ChangedAt: c.ChangedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
