package httpapi

import (
	"net/http"
	"strings"
	"time"

	"kotwijzer.be/internal/auth"
)

type createUserRequest struct {
	Email        string   `json:"email"`
	FullName     string   `json:"full_name,omitempty"`
	Password     string   `json:"password"`
	Role         string   `json:"role"`
	VestigingIDs []string `json:"vestiging_ids,omitempty"`
}

type updateUserRequest struct {
	Role         string   `json:"role"`
	VestigingIDs []string `json:"vestiging_ids,omitempty"`
}

type userItem struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	VestigingIDs []string  `json:"vestiging_ids"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r)
	case http.MethodPost:
		a.createUser(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	a.patchUser(w, r, id)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	dir, err := a.users.List(r.Context(), actor)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	assigned := make(map[string][]string, len(dir.Users))
	for _, as := range dir.Assignments {
		assigned[as.UserID] = append(assigned[as.UserID], as.VestigingID)
	}
	items := make([]userItem, 0, len(dir.Users))
	for _, u := range dir.Users {
		ids := assigned[u.ID]
		if ids == nil {
			ids = []string{}
		}
		items = append(items, userItem{
			ID:           u.ID,
			Email:        u.Email,
			FullName:     u.FullName,
			Role:         string(u.Role),
			VestigingIDs: ids,
			CreatedAt:    u.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.users.Create(r.Context(), actor, req.Email, req.FullName, req.Password, role)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if len(req.VestigingIDs) > 0 {
		if err := a.users.UpdateRoleAndScope(r.Context(), actor, created.ID, role, req.VestigingIDs); err != nil {
			handleDomainError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, userItem{
		ID:           created.ID,
		Email:        created.Email,
		FullName:     created.FullName,
		Role:         string(created.Role),
		VestigingIDs: req.VestigingIDs,
		CreatedAt:    created.CreatedAt,
	})
}

func (a *API) patchUser(w http.ResponseWriter, r *http.Request, id string) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.users.UpdateRoleAndScope(r.Context(), actor, id, role, req.VestigingIDs); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
