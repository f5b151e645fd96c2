package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain/program"
	"github.com/civicbudget/pbb-api/internal/port/database"
)

// embedBatchSize keeps embedding requests under the provider's input
// limit.
const embedBatchSize = 100

// embeddedTextLimit truncates stored program text.
const embeddedTextLimit = 1000

// EmbeddingService precomputes one embedding per program so semantic
// search has something to rank against. Optional: when the embedder is
// not configured every call reports success with zero work done.
type EmbeddingService struct {
	store    database.Store
	embedder Embedder
	log      *slog.Logger
}

func NewEmbeddingService(store database.Store, embedder Embedder, log *slog.Logger) *EmbeddingService {
	return &EmbeddingService{store: store, embedder: embedder, log: log}
}

// EmbedStats reports one EmbedDataset run.
type EmbedStats struct {
	Success       bool `json:"success"`
	EmbeddedCount int  `json:"embedded_count"`
	TotalPrograms int  `json:"total_programs"`
}

// EmbedDataset generates and stores embeddings for every program in
// the dataset, batched. Called after ingestion.
func (s *EmbeddingService) EmbedDataset(ctx context.Context, datasetID uuid.UUID) (*EmbedStats, error) {
	if s.embedder == nil || !s.embedder.Enabled() {
		return &EmbedStats{Success: true}, nil
	}

	rows, err := s.store.ListFactRows(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	var ids []int64
	var texts []string
	seen := map[int64]bool{}
	for _, row := range rows {
		if seen[row.ID] {
			continue
		}
		seen[row.ID] = true
		ids = append(ids, row.ID)
		texts = append(texts, programText(row))
	}

	stats := &EmbedStats{TotalPrograms: len(ids)}
	for start := 0; start < len(ids); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		vecs, err := s.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return stats, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		for i, vec := range vecs {
			text := texts[start+i]
			if len(text) > embeddedTextLimit {
				text = text[:embeddedTextLimit]
			}
			if err := s.store.UpsertProgramEmbedding(ctx, datasetID, ids[start+i], text, vec); err != nil {
				return stats, err
			}
			stats.EmbeddedCount++
		}
	}

	stats.Success = true
	s.log.Info("dataset embedded", "dataset_id", datasetID, "programs", stats.EmbeddedCount)
	return stats, nil
}

// programText builds the text embedded per program: name first,
// description, then the categorizing fields.
func programText(row program.FactRow) string {
	var parts []string
	if row.Name != "" {
		parts = append(parts, row.Name)
	}
	if row.Description != "" {
		parts = append(parts, row.Description)
	}
	if row.ServiceType != "" {
		parts = append(parts, "Service type: "+row.ServiceType)
	}
	if row.UserGroup != "" {
		parts = append(parts, "Serves: "+row.UserGroup)
	}
	return strings.Join(parts, ". ")
}
