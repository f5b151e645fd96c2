package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/adapter/otel"
	"github.com/civicbudget/pbb-api/internal/adapter/ristretto"
	"github.com/civicbudget/pbb-api/internal/config"
	"github.com/civicbudget/pbb-api/internal/port/database"
	"github.com/civicbudget/pbb-api/internal/service"
)

// Handlers bundle the services behind the REST routes.
type Handlers struct {
	cfg     *config.Config
	store   database.Store
	cache   *ristretto.Cache
	metrics *otel.Metrics

	datasets *service.DatasetService
	orgs     *service.OrganizationService
	programs *service.ProgramService
	charts   *service.ChartService
	dividend *service.DividendService
	sankey   *service.SankeyService
	search   *service.SearchService
	ingest   *service.IngestService
	embed    *service.EmbeddingService
}

// NewHandlers creates the handler set.
func NewHandlers(
	cfg *config.Config,
	store database.Store,
	cache *ristretto.Cache,
	metrics *otel.Metrics,
	datasets *service.DatasetService,
	orgs *service.OrganizationService,
	programs *service.ProgramService,
	charts *service.ChartService,
	dividend *service.DividendService,
	sankey *service.SankeyService,
	search *service.SearchService,
	ingest *service.IngestService,
	embed *service.EmbeddingService,
) *Handlers {
	return &Handlers{
		cfg:      cfg,
		store:    store,
		cache:    cache,
		metrics:  metrics,
		datasets: datasets,
		orgs:     orgs,
		programs: programs,
		charts:   charts,
		dividend: dividend,
		sankey:   sankey,
		search:   search,
		ingest:   ingest,
		embed:    embed,
	}
}

// Health handles GET /health. It pings the database so the check fails
// when the pool is exhausted or the server unreachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Health check failed: database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"database":   "connected",
		"query_test": 1,
	})
}

// cached serves an analytics response from the per-dataset cache,
// building and storing it on a miss. Datasets are immutable after
// ingestion, so entries stay valid until the dataset is deleted.
func (h *Handlers) cached(w http.ResponseWriter, r *http.Request, datasetID uuid.UUID, build func() (any, error)) {
	ctx := r.Context()
	key := r.URL.RequestURI()

	if body, ok := h.cache.Get(ctx, datasetID, key); ok {
		h.metrics.CacheHits.Add(ctx, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}
	h.metrics.CacheMisses.Add(ctx, 1)

	data, err := build()
	if err != nil {
		writeDomainError(w, err, "Dataset not found")
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	h.cache.Set(ctx, datasetID, key, body)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
