package postgres

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/port/database"
)

// UpsertProgramEmbedding stores or replaces the embedding vector for a program.
func (s *Store) UpsertProgramEmbedding(ctx context.Context, datasetID uuid.UUID, programID int64, text string, vec []float32) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO program_embeddings (dataset_id, program_id, content, embedding)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (dataset_id, program_id) DO UPDATE SET
		   content = EXCLUDED.content,
		   embedding = EXCLUDED.embedding,
		   updated_at = now()`,
		datasetID, programID, text, vec)
	if err != nil {
		return fmt.Errorf("upsert embedding for program %d: %w", programID, err)
	}
	return nil
}

// SearchEmbeddings ranks stored program embeddings by cosine similarity
// against the query vector. Scoring is done in the application; a
// dataset holds at most a few hundred programs.
func (s *Store) SearchEmbeddings(ctx context.Context, datasetID uuid.UUID, vec []float32, limit int) ([]database.EmbeddingMatch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT program_id, embedding FROM program_embeddings WHERE dataset_id = $1`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("search embeddings: %w", err)
	}
	defer rows.Close()

	var matches []database.EmbeddingMatch
	for rows.Next() {
		var programID int64
		var stored []float32
		if err := rows.Scan(&programID, &stored); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		matches = append(matches, database.EmbeddingMatch{
			ProgramID:  programID,
			Similarity: cosineSimilarity(vec, stored),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
