package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/civicbudget/pbb-api/internal/domain/program"
)

// ListPrograms handles GET /api/programs. With include_department=true
// it returns the flat unpaginated projection the treemap consumes,
// otherwise a paginated listing.
func (h *Handlers) ListPrograms(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDQuery(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := program.ListFilter{
		Query:    q.Get("q"),
		Dept:     q.Get("dept"),
		Division: q.Get("division"),
		Quartile: q.Get("quartile"),
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 50),
	}

	if queryBool(r, "include_department") {
		out, err := h.programs.ListFlat(r.Context(), datasetID, filter)
		if err != nil {
			writeDomainError(w, err, "Dataset not found")
			return
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	out, err := h.programs.List(r.Context(), datasetID, filter)
	if err != nil {
		writeDomainError(w, err, "Dataset not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProgram handles GET /api/programs/{programID}.
func (h *Handlers) GetProgram(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDQuery(w, r)
	if !ok {
		return
	}
	programID, ok := int64Param(w, r, "programID")
	if !ok {
		return
	}
	out, err := h.programs.Detail(r.Context(), datasetID, programID)
	if err != nil {
		writeDomainError(w, err, "Program not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ProgramLineItems handles GET /api/programs/{programID}/line-items.
func (h *Handlers) ProgramLineItems(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDQuery(w, r)
	if !ok {
		return
	}
	programID, ok := int64Param(w, r, "programID")
	if !ok {
		return
	}
	out, err := h.programs.LineItems(r.Context(), datasetID, programID)
	if err != nil {
		writeDomainError(w, err, "Program not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// LineItemTable handles GET /api/tables/line-items. program_id is an
// optional narrowing filter.
func (h *Handlers) LineItemTable(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDQuery(w, r)
	if !ok {
		return
	}

	var programID *int64
	if raw := r.URL.Query().Get("program_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid program_id format")
			return
		}
		programID = &id
	}

	out, err := h.programs.Table(r.Context(), datasetID, programID)
	if err != nil {
		writeDomainError(w, err, "Dataset not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// int64Param parses a numeric path parameter.
func int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+name+" format")
		return 0, false
	}
	return v, true
}
