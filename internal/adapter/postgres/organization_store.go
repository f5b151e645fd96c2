package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/organization"
)

func (s *Store) ListOrganizations(ctx context.Context) ([]organization.Organization, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, show_priorities, show_taxpayer_dividend, show_strategic_overview, created_at
		 FROM organizations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []organization.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Load datasets for each organization
	for i := range orgs {
		datasets, err := s.listOrgDatasets(ctx, orgs[i].ID)
		if err != nil {
			return nil, err
		}
		orgs[i].Datasets = datasets
	}
	return orgs, nil
}

func (s *Store) GetOrganization(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, show_priorities, show_taxpayer_dividend, show_strategic_overview, created_at
		 FROM organizations WHERE id = $1`, id)

	o, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get organization %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get organization %s: %w", id, err)
	}

	datasets, err := s.listOrgDatasets(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Datasets = datasets
	return &o, nil
}

func (s *Store) CreateOrganization(ctx context.Context, req organization.CreateRequest) (*organization.Organization, error) {
	flags := organization.DefaultFeatureFlags()
	if req.ShowPriorities != nil {
		flags.ShowPriorities = *req.ShowPriorities
	}
	if req.ShowTaxpayerDividend != nil {
		flags.ShowTaxpayerDividend = *req.ShowTaxpayerDividend
	}
	if req.ShowStrategicOverview != nil {
		flags.ShowStrategicOverview = *req.ShowStrategicOverview
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO organizations (name, show_priorities, show_taxpayer_dividend, show_strategic_overview)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, show_priorities, show_taxpayer_dividend, show_strategic_overview, created_at`,
		req.Name, flags.ShowPriorities, flags.ShowTaxpayerDividend, flags.ShowStrategicOverview)

	o, err := scanOrganization(row)
	if err != nil {
		if uniqueViolation(err) {
			return nil, fmt.Errorf("create organization: %w", domain.ErrConflict)
		}
		return nil, fmt.Errorf("create organization: %w", err)
	}
	return &o, nil
}

func (s *Store) UpdateOrganization(ctx context.Context, id uuid.UUID, req organization.UpdateRequest) (*organization.Organization, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE organizations SET
		   name = COALESCE($2, name),
		   show_priorities = COALESCE($3, show_priorities),
		   show_taxpayer_dividend = COALESCE($4, show_taxpayer_dividend),
		   show_strategic_overview = COALESCE($5, show_strategic_overview)
		 WHERE id = $1
		 RETURNING id, name, show_priorities, show_taxpayer_dividend, show_strategic_overview, created_at`,
		id, req.Name, req.ShowPriorities, req.ShowTaxpayerDividend, req.ShowStrategicOverview)

	o, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("update organization %s: %w", id, domain.ErrNotFound)
		}
		if uniqueViolation(err) {
			return nil, fmt.Errorf("update organization %s: %w", id, domain.ErrConflict)
		}
		return nil, fmt.Errorf("update organization %s: %w", id, err)
	}

	datasets, err := s.listOrgDatasets(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Datasets = datasets
	return &o, nil
}

// DeleteOrganization removes the organization; owned datasets survive
// with organization_id reset to NULL by the foreign key.
func (s *Store) DeleteOrganization(ctx context.Context, id uuid.UUID) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx,
		`DELETE FROM organizations WHERE id = $1 RETURNING name`, id,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("delete organization %s: %w", id, domain.ErrNotFound)
		}
		return "", fmt.Errorf("delete organization %s: %w", id, err)
	}
	return name, nil
}

func (s *Store) listOrgDatasets(ctx context.Context, orgID uuid.UUID) ([]organization.DatasetSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, population, created_at
		 FROM datasets WHERE organization_id = $1 ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list organization datasets: %w", err)
	}
	defer rows.Close()

	var datasets []organization.DatasetSummary
	for rows.Next() {
		var d organization.DatasetSummary
		if err := rows.Scan(&d.ID, &d.Name, &d.Population, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan organization dataset: %w", err)
		}
		datasets = append(datasets, d)
	}
	return datasets, rows.Err()
}

func scanOrganization(row scannable) (organization.Organization, error) {
	var o organization.Organization
	err := row.Scan(&o.ID, &o.Name, &o.ShowPriorities, &o.ShowTaxpayerDividend, &o.ShowStrategicOverview, &o.CreatedAt)
	return o, err
}
