package http

import (
	"net/http"
)

// SpendingByPriority handles GET /api/charts/spending-by-priority.
func (h *Handlers) SpendingByPriority(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDQuery(w, r)
	if !ok {
		return
	}
	group := r.URL.Query().Get("group")
	if group == "" {
		writeError(w, http.StatusBadRequest, "group is required")
		return
	}
	h.cached(w, r, datasetID, func() (any, error) {
		return h.charts.SpendingByPriority(r.Context(), datasetID, group)
	})
}

// ResultBubbles handles GET /api/charts/bubbles/results.
func (h *Handlers) ResultBubbles(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDQuery(w, r)
	if !ok {
		return
	}
	priorityName := r.URL.Query().Get("priority")
	if priorityName == "" {
		writeError(w, http.StatusBadRequest, "priority is required")
		return
	}
	h.cached(w, r, datasetID, func() (any, error) {
		return h.charts.ResultBubbles(r.Context(), datasetID, priorityName)
	})
}

// AttributeBubbles handles GET /api/charts/bubbles/attributes.
func (h *Handlers) AttributeBubbles(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDQuery(w, r)
	if !ok {
		return
	}
	attr := r.URL.Query().Get("attr")
	if attr == "" {
		writeError(w, http.StatusBadRequest, "attr is required")
		return
	}
	h.cached(w, r, datasetID, func() (any, error) {
		return h.charts.AttributeBubbles(r.Context(), datasetID, attr)
	})
}

// CostingBubbles handles GET /api/charts/bubbles/costing.
func (h *Handlers) CostingBubbles(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDQuery(w, r)
	if !ok {
		return
	}
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		writeError(w, http.StatusBadRequest, "mode is required")
		return
	}
	h.cached(w, r, datasetID, func() (any, error) {
		return h.charts.CostingBubbles(r.Context(), datasetID, mode)
	})
}

// ProgramCategories handles GET /api/charts/program-categories.
func (h *Handlers) ProgramCategories(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDQuery(w, r)
	if !ok {
		return
	}
	h.cached(w, r, datasetID, func() (any, error) {
		return h.charts.ProgramCategories(r.Context(), datasetID)
	})
}

// TaxpayerDividend handles GET /api/charts/taxpayer-dividend.
func (h *Handlers) TaxpayerDividend(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDQuery(w, r)
	if !ok {
		return
	}
	h.cached(w, r, datasetID, func() (any, error) {
		return h.dividend.Compute(r.Context(), datasetID)
	})
}
