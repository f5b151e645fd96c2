package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/dataset"
)

func (s *Store) ListDatasets(ctx context.Context) ([]dataset.Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT d.id, d.name, d.created_at, COUNT(p.id)
		 FROM datasets d
		 LEFT JOIN programs p ON p.dataset_id = d.id
		 GROUP BY d.id, d.name, d.created_at
		 ORDER BY d.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var summaries []dataset.Summary
	for rows.Next() {
		var d dataset.Summary
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.ProgramCount); err != nil {
			return nil, fmt.Errorf("scan dataset summary: %w", err)
		}
		summaries = append(summaries, d)
	}
	return summaries, rows.Err()
}

func (s *Store) GetDataset(ctx context.Context, id uuid.UUID) (*dataset.Dataset, error) {
	var d dataset.Dataset
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, population, organization_id, created_at
		 FROM datasets WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.Population, &d.OrganizationID, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get dataset %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get dataset %s: %w", id, err)
	}
	return &d, nil
}

// UpdateDataset applies the non-nil fields of req. Nil pointers leave
// the stored value untouched.
func (s *Store) UpdateDataset(ctx context.Context, id uuid.UUID, req dataset.UpdateRequest) (*dataset.Dataset, error) {
	var d dataset.Dataset
	err := s.pool.QueryRow(ctx,
		`UPDATE datasets SET
		   name = COALESCE($2, name),
		   population = COALESCE($3, population),
		   organization_id = COALESCE($4, organization_id)
		 WHERE id = $1
		 RETURNING id, name, population, organization_id, created_at`,
		id, req.Name, req.Population, req.OrganizationID,
	).Scan(&d.ID, &d.Name, &d.Population, &d.OrganizationID, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("update dataset %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update dataset %s: %w", id, err)
	}
	return &d, nil
}

// DeleteDataset removes a dataset; dependent rows go with it via
// cascading foreign keys. Returns the number of programs removed.
func (s *Store) DeleteDataset(ctx context.Context, id uuid.UUID) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var programCount int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM programs WHERE dataset_id = $1`, id,
	).Scan(&programCount); err != nil {
		return 0, fmt.Errorf("count programs for dataset %s: %w", id, err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete dataset %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("delete dataset %s: %w", id, domain.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit delete dataset: %w", err)
	}
	return programCount, nil
}
