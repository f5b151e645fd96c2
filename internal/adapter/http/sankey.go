package http

import (
	"net/http"

	"github.com/civicbudget/pbb-api/internal/service"
)

// SankeyFlow handles GET /api/sankey-flow. The search parameter takes
// "|||"-separated terms; departments, funds and cost_types take
// comma-separated multi-select values.
func (h *Handlers) SankeyFlow(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDQuery(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	params := service.FlowParams{
		LimitNodes:        queryInt(r, "limit_nodes", 10),
		MinFlowPct:        queryFloat(r, "min_flow_pct", 0),
		Direction:         q.Get("direction"),
		IncludePriorities: queryBool(r, "include_priorities"),
		Departments:       queryList(r, "departments"),
		Funds:             queryList(r, "funds"),
		CostTypes:         queryList(r, "cost_types"),
		Search:            q.Get("search"),
	}

	h.cached(w, r, datasetID, func() (any, error) {
		return h.sankey.Flow(r.Context(), datasetID, params)
	})
}

// SankeySearch handles GET /api/sankey-search.
func (h *Handlers) SankeySearch(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDQuery(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	h.cached(w, r, datasetID, func() (any, error) {
		return h.sankey.SearchFlows(r.Context(), datasetID, query)
	})
}

// ProgramSearch handles GET /api/program-search. Results are not
// cached: the semantic tier depends on an external embeddings call
// whose availability can change between requests.
func (h *Handlers) ProgramSearch(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDQuery(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := queryInt(r, "limit", 50)

	out, err := h.search.Search(r.Context(), datasetID, query, limit)
	if err != nil {
		writeDomainError(w, err, "Dataset not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}
