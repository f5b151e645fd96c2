package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain/dataset"
)

const defaultPopulation = 75000

type uploadMultiResponse struct {
	Message        string               `json:"message"`
	DatasetName    string               `json:"dataset_name"`
	Population     int                  `json:"population"`
	CostsFilename  string               `json:"costs_filename"`
	ScoresFilename string               `json:"scores_filename"`
	DatasetID      uuid.UUID            `json:"dataset_id"`
	Counts         dataset.IngestCounts `json:"counts"`
	Success        bool                 `json:"success"`
}

// UploadMulti handles POST /api/admin/upload-multi: the two-file
// Costs+Scores ingestion path.
func (h *Handlers) UploadMulti(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.cfg.Upload.MaxMultiBytes
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxBytes+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	datasetName := r.FormValue("dataset_name")
	if datasetName == "" {
		writeError(w, http.StatusBadRequest, "dataset_name is required")
		return
	}

	population := defaultPopulation
	if raw := r.FormValue("population"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "population must be a positive integer")
			return
		}
		population = v
	}

	var orgID *uuid.UUID
	if raw := r.FormValue("organization_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid organization_id format")
			return
		}
		orgID = &id
	}

	costsData, costsName, ok := readWorkbook(w, r, "costs_file", "Costs file", maxBytes)
	if !ok {
		return
	}
	scoresData, scoresName, ok := readWorkbook(w, r, "scores_file", "Scores file", maxBytes)
	if !ok {
		return
	}

	result, err := h.ingest.IngestMulti(r.Context(), costsData, scoresData, datasetName, population, orgID)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	h.embedAfterIngest(r.Context(), result.DatasetID)

	writeJSON(w, http.StatusOK, uploadMultiResponse{
		Message:        "Files uploaded and processed successfully",
		DatasetName:    datasetName,
		Population:     population,
		CostsFilename:  costsName,
		ScoresFilename: scoresName,
		DatasetID:      result.DatasetID,
		Counts:         result.Counts,
		Success:        true,
	})
}

// UploadLegacy handles POST /api/admin/upload: the original single-file
// path. The dataset is named after the uploaded file.
func (h *Handlers) UploadLegacy(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.cfg.Upload.MaxLegacyBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	data, filename, ok := readWorkbook(w, r, "file", "File", maxBytes)
	if !ok {
		return
	}

	result, err := h.ingest.IngestLegacy(r.Context(), data, filename)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	h.embedAfterIngest(r.Context(), result.DatasetID)

	writeJSON(w, http.StatusOK, result)
}

// readWorkbook pulls one Excel upload out of the multipart form,
// enforcing the extension and size limits.
func readWorkbook(w http.ResponseWriter, r *http.Request, field, label string, maxBytes int64) ([]byte, string, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, label+" is required")
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	name := header.Filename
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".xls") {
		writeError(w, http.StatusBadRequest, label+" must be Excel format (.xlsx or .xls)")
		return nil, "", false
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read "+strings.ToLower(label))
		return nil, "", false
	}
	if int64(len(data)) > maxBytes {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("%s too large. Maximum size is %dMB", label, maxBytes>>20))
		return nil, "", false
	}

	return data, name, true
}

// embedAfterIngest generates semantic-search embeddings for the new
// dataset. Failures are logged but never fail the upload: search
// degrades to keyword matching without them.
func (h *Handlers) embedAfterIngest(ctx context.Context, datasetID uuid.UUID) {
	if _, err := h.embed.EmbedDataset(ctx, datasetID); err != nil {
		slog.Warn("embedding generation failed", "dataset_id", datasetID, "error", err)
	}
}
