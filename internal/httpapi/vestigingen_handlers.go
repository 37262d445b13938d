package httpapi

import (
	"net/http"
	"strings"

	"kotwijzer.be/internal/cms"
)

type vestigingRequest struct {
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code,omitempty"`
	Description string `json:"description,omitempty"`
}

func (req vestigingRequest) toInput() cms.VestigingInput {
	return cms.VestigingInput{
		Name:        req.Name,
		Address:     strings.TrimSpace(req.Address),
		City:        req.City,
		PostalCode:  strings.TrimSpace(req.PostalCode),
		Description: strings.TrimSpace(req.Description),
	}
}

func (a *API) handleVestigingenCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listVestigingen(w, r)
	case http.MethodPost:
		a.createVestiging(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleVestigingResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/vestigingen/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		a.patchVestiging(w, r, id)
	case http.MethodDelete:
		a.archiveVestiging(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) listVestigingen(w http.ResponseWriter, r *http.Request) {
	vestigingen, err := a.cms.ListVestigingen(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": vestigingen})
}

func (a *API) createVestiging(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req vestigingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.cms.CreateVestiging(r.Context(), actor, req.toInput())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/vestigingen/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) patchVestiging(w http.ResponseWriter, r *http.Request, id string) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req vestigingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.cms.UpdateVestiging(r.Context(), actor, id, req.toInput())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// archiveVestiging soft-archives; koten under it stay addressable.
func (a *API) archiveVestiging(w http.ResponseWriter, r *http.Request, id string) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.cms.ArchiveVestiging(r.Context(), actor, id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
