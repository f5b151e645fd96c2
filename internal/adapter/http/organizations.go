package http

import (
	"errors"
	"net/http"

	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/organization"
)

// ListOrganizations handles GET /api/organizations.
func (h *Handlers) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	out, err := h.orgs.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetOrganization handles GET /api/organizations/{id}.
func (h *Handlers) GetOrganization(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	out, err := h.orgs.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "Organization not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateOrganization handles POST /api/organizations.
func (h *Handlers) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[organization.CreateRequest](w, r, 1<<20)
	if !ok {
		return
	}
	out, err := h.orgs.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			writeError(w, http.StatusBadRequest, "Organization name already exists")
			return
		}
		writeDomainError(w, err, "Organization not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateOrganization handles PUT /api/organizations/{id}.
func (h *Handlers) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[organization.UpdateRequest](w, r, 1<<20)
	if !ok {
		return
	}
	out, err := h.orgs.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			writeError(w, http.StatusBadRequest, "Organization name already exists")
			return
		}
		writeDomainError(w, err, "Organization not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// DeleteOrganization handles DELETE /api/organizations/{id}. Owned
// datasets survive with their organization link cleared.
func (h *Handlers) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	out, err := h.orgs.Delete(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "Organization not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}
