package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/program"
)

// ListPrograms returns one page of programs matching the filter plus
// the unpaginated match count.
func (s *Store) ListPrograms(ctx context.Context, datasetID uuid.UUID, f program.ListFilter) ([]program.Row, int, error) {
	where, args := programFilterClauses(datasetID, f)

	var total int
	countQuery := `SELECT COUNT(*) FROM programs p ` + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count programs: %w", err)
	}

	query := `SELECT p.id, p.name, p.description, p.service_type, p.user_group, p.quartile, p.final_score,
	       COALESCE(pc.total_cost, 0), COALESCE(pc.personnel, 0), COALESCE(pc.nonpersonnel, 0), COALESCE(pc.revenue, 0), p.fte
	 FROM programs p
	 LEFT JOIN program_costs pc ON pc.dataset_id = p.dataset_id AND pc.program_id = p.id ` + where +
		fmt.Sprintf(` ORDER BY pc.total_cost DESC NULLS LAST LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	var programs []program.Row
	for rows.Next() {
		r, err := scanProgramRow(rows)
		if err != nil {
			return nil, 0, err
		}
		programs = append(programs, r)
	}
	return programs, total, rows.Err()
}

// programFilterClauses builds the WHERE clause shared by the listing
// and count queries.
func programFilterClauses(datasetID uuid.UUID, f program.ListFilter) (string, []any) {
	clauses := []string{"p.dataset_id = $1"}
	args := []any{datasetID}

	add := func(clause string, val any) {
		args = append(args, val)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.Query != "" {
		add("p.name ILIKE '%%' || $%d || '%%'", f.Query)
	}
	if f.Quartile != "" {
		add("p.quartile = $%d", f.Quartile)
	}
	if f.Dept != "" {
		add(`EXISTS (SELECT 1 FROM line_items li JOIN org_units ou ON ou.id = li.org_unit_id
		     WHERE li.dataset_id = p.dataset_id AND li.program_id = p.id AND ou.department ILIKE '%%' || $%d || '%%')`, f.Dept)
	}
	if f.Division != "" {
		add(`EXISTS (SELECT 1 FROM line_items li JOIN org_units ou ON ou.id = li.org_unit_id
		     WHERE li.dataset_id = p.dataset_id AND li.program_id = p.id AND ou.division ILIKE '%%' || $%d || '%%')`, f.Division)
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) GetProgramDetail(ctx context.Context, datasetID uuid.UUID, programID int64) (*program.Detail, error) {
	var d program.Detail
	err := s.pool.QueryRow(ctx,
		`SELECT p.id, p.name, p.description, p.service_type, p.user_group, p.quartile, p.final_score, p.fte,
		        COALESCE(pc.personnel, 0), COALESCE(pc.nonpersonnel, 0), COALESCE(pc.revenue, 0), COALESCE(pc.total_cost, 0)
		 FROM programs p
		 LEFT JOIN program_costs pc ON pc.dataset_id = p.dataset_id AND pc.program_id = p.id
		 WHERE p.dataset_id = $1 AND p.id = $2`, datasetID, programID,
	).Scan(&d.ID, &d.Name, &d.Description, &d.ServiceType, &d.UserGroup, &d.Quartile, &d.FinalScore, &d.FTE,
		&d.Costs.Personnel, &d.Costs.NonPersonnel, &d.Costs.Revenue, &d.Costs.TotalCost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get program %d: %w", programID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get program %d: %w", programID, err)
	}

	// Organizational placement from the first linked org unit.
	err = s.pool.QueryRow(ctx,
		`SELECT ou.department, ou.division, ou.activity
		 FROM line_items li JOIN org_units ou ON ou.id = li.org_unit_id
		 WHERE li.dataset_id = $1 AND li.program_id = $2
		 ORDER BY li.id ASC LIMIT 1`, datasetID, programID,
	).Scan(&d.Organization.Department, &d.Organization.Division, &d.Organization.Activity)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get program %d org unit: %w", programID, err)
	}

	var attrs program.Attributes
	err = s.pool.QueryRow(ctx,
		`SELECT reliance, population_served, demand, cost_recovery, mandate
		 FROM program_attributes WHERE dataset_id = $1 AND program_id = $2`, datasetID, programID,
	).Scan(&attrs.Reliance, &attrs.PopulationServed, &attrs.Demand, &attrs.CostRecovery, &attrs.Mandate)
	switch {
	case err == nil:
		d.Attributes = &attrs
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("get program %d attributes: %w", programID, err)
	}

	scores, err := s.listProgramPriorityRefs(ctx, datasetID, programID)
	if err != nil {
		return nil, err
	}
	d.PriorityScores = scores

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM line_items WHERE dataset_id = $1 AND program_id = $2`, datasetID, programID,
	).Scan(&d.LineItemsCount); err != nil {
		return nil, fmt.Errorf("count program %d line items: %w", programID, err)
	}

	return &d, nil
}

func (s *Store) listProgramPriorityRefs(ctx context.Context, datasetID uuid.UUID, programID int64) ([]program.PriorityScoreRef, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT pr.name, pr.priority_group, s.score_int, s.score_label
		 FROM program_priority_scores s
		 JOIN priorities pr ON pr.id = s.priority_id
		 WHERE s.dataset_id = $1 AND s.program_id = $2
		 ORDER BY pr.name ASC`, datasetID, programID)
	if err != nil {
		return nil, fmt.Errorf("list program priority scores: %w", err)
	}
	defer rows.Close()

	var refs []program.PriorityScoreRef
	for rows.Next() {
		var ref program.PriorityScoreRef
		if err := rows.Scan(&ref.Priority, &ref.Group, &ref.Score, &ref.Label); err != nil {
			return nil, fmt.Errorf("scan priority score: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// ListCostRows returns the flat program+cost projection for a dataset.
func (s *Store) ListCostRows(ctx context.Context, datasetID uuid.UUID) ([]program.Row, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.name, p.description, p.service_type, p.user_group, p.quartile, p.final_score,
		        COALESCE(pc.total_cost, 0), COALESCE(pc.personnel, 0), COALESCE(pc.nonpersonnel, 0), COALESCE(pc.revenue, 0), p.fte
		 FROM programs p
		 LEFT JOIN program_costs pc ON pc.dataset_id = p.dataset_id AND pc.program_id = p.id
		 WHERE p.dataset_id = $1 ORDER BY p.id ASC`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list cost rows: %w", err)
	}
	defer rows.Close()

	var out []program.Row
	for rows.Next() {
		r, err := scanProgramRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanProgramRow(row scannable) (program.Row, error) {
	var r program.Row
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.ServiceType, &r.UserGroup, &r.Quartile, &r.FinalScore,
		&r.TotalCost, &r.Personnel, &r.NonPersonnel, &r.Revenue, &r.FTE)
	if err != nil {
		return r, fmt.Errorf("scan program row: %w", err)
	}
	return r, nil
}
