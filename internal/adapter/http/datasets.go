package http

import (
	"fmt"
	"net/http"

	"github.com/civicbudget/pbb-api/internal/domain/dataset"
)

// ListDatasets handles GET /api/datasets.
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	out, err := h.datasets.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// DatasetFeatures handles GET /api/dataset/{id}/features. Public:
// the frontend reads the flags before rendering any tab.
func (h *Handlers) DatasetFeatures(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	flags, err := h.datasets.Features(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "Dataset not found")
		return
	}
	writeJSON(w, http.StatusOK, flags)
}

// UpdateDataset handles PUT /api/admin/dataset/{id}.
func (h *Handlers) UpdateDataset(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[dataset.UpdateRequest](w, r, 1<<20)
	if !ok {
		return
	}
	out, err := h.datasets.Update(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, err, fmt.Sprintf("Dataset with ID %s not found", id))
		return
	}
	h.cache.Invalidate(r.Context(), id)
	writeJSON(w, http.StatusOK, out)
}

// DeleteDataset handles DELETE /api/admin/dataset/{id}. The schema
// cascades the deletion to every dependent row.
func (h *Handlers) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	out, err := h.datasets.Delete(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, fmt.Sprintf("Dataset with ID %s not found", id))
		return
	}
	h.cache.Invalidate(r.Context(), id)
	writeJSON(w, http.StatusOK, out)
}
