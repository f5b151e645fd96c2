package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/priority"
	"github.com/civicbudget/pbb-api/internal/domain/program"
)

func (s *Store) ListPriorities(ctx context.Context, datasetID uuid.UUID, group string) ([]priority.Priority, error) {
	query := `SELECT id, dataset_id, name, priority_group FROM priorities WHERE dataset_id = $1`
	args := []any{datasetID}
	if group != "" {
		query += ` AND priority_group = $2`
		args = append(args, group)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list priorities: %w", err)
	}
	defer rows.Close()

	var priorities []priority.Priority
	for rows.Next() {
		var p priority.Priority
		if err := rows.Scan(&p.ID, &p.DatasetID, &p.Name, &p.Group); err != nil {
			return nil, fmt.Errorf("scan priority: %w", err)
		}
		priorities = append(priorities, p)
	}
	return priorities, rows.Err()
}

func (s *Store) FindPriority(ctx context.Context, datasetID uuid.UUID, name string) (*priority.Priority, error) {
	var p priority.Priority
	err := s.pool.QueryRow(ctx,
		`SELECT id, dataset_id, name, priority_group FROM priorities WHERE dataset_id = $1 AND name = $2`,
		datasetID, name,
	).Scan(&p.ID, &p.DatasetID, &p.Name, &p.Group)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("find priority %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find priority %q: %w", name, err)
	}
	return &p, nil
}

// PrioritySpending aggregates total cost and distinct program count over
// positively scored programs for one priority.
func (s *Store) PrioritySpending(ctx context.Context, datasetID uuid.UUID, priorityID int64) (float64, int, error) {
	var totalCost float64
	var programCount int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(pc.total_cost), 0), COUNT(DISTINCT ps.program_id)
		 FROM program_priority_scores ps
		 JOIN program_costs pc ON pc.dataset_id = ps.dataset_id AND pc.program_id = ps.program_id
		 WHERE ps.dataset_id = $1 AND ps.priority_id = $2 AND ps.score_int > 0`,
		datasetID, priorityID,
	).Scan(&totalCost, &programCount)
	if err != nil {
		return 0, 0, fmt.Errorf("priority spending %d: %w", priorityID, err)
	}
	return totalCost, programCount, nil
}

// ListPriorityBubbleRows returns every score row for one priority
// joined with program identity and cost.
func (s *Store) ListPriorityBubbleRows(ctx context.Context, datasetID uuid.UUID, priorityID int64) ([]priority.ScoredCost, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ps.priority_id, ps.program_id, p.name, p.description, p.service_type, COALESCE(pc.total_cost, 0), ps.score_int, ps.score_label
		 FROM program_priority_scores ps
		 JOIN programs p ON p.dataset_id = ps.dataset_id AND p.id = ps.program_id
		 LEFT JOIN program_costs pc ON pc.dataset_id = ps.dataset_id AND pc.program_id = ps.program_id
		 WHERE ps.dataset_id = $1 AND ps.priority_id = $2
		 ORDER BY ps.program_id ASC`, datasetID, priorityID)
	if err != nil {
		return nil, fmt.Errorf("list priority bubble rows: %w", err)
	}
	defer rows.Close()

	return collectScoredCosts(rows)
}

// ListScoredCosts returns every priority score in the dataset joined
// with program identity and cost. Feeds the taxpayer dividend.
func (s *Store) ListScoredCosts(ctx context.Context, datasetID uuid.UUID) ([]priority.ScoredCost, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ps.priority_id, ps.program_id, p.name, p.description, p.service_type, COALESCE(pc.total_cost, 0), ps.score_int, ps.score_label
		 FROM program_priority_scores ps
		 JOIN programs p ON p.dataset_id = ps.dataset_id AND p.id = ps.program_id
		 LEFT JOIN program_costs pc ON pc.dataset_id = ps.dataset_id AND pc.program_id = ps.program_id
		 WHERE ps.dataset_id = $1
		 ORDER BY ps.program_id ASC`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list scored costs: %w", err)
	}
	defer rows.Close()

	return collectScoredCosts(rows)
}

func collectScoredCosts(rows pgx.Rows) ([]priority.ScoredCost, error) {
	var out []priority.ScoredCost
	for rows.Next() {
		var sc priority.ScoredCost
		if err := rows.Scan(&sc.PriorityID, &sc.ProgramID, &sc.ProgramName, &sc.Description,
			&sc.ServiceType, &sc.TotalCost, &sc.ScoreInt, &sc.ScoreLabel); err != nil {
			return nil, fmt.Errorf("scan scored cost: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// ListProgramScores returns every (program, priority) score with the
// priority identity inlined.
func (s *Store) ListProgramScores(ctx context.Context, datasetID uuid.UUID) ([]priority.ProgramScore, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ps.program_id, pr.name, pr.priority_group, ps.score_int
		 FROM program_priority_scores ps
		 JOIN priorities pr ON pr.id = ps.priority_id
		 WHERE ps.dataset_id = $1
		 ORDER BY ps.program_id ASC, pr.name ASC`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list program scores: %w", err)
	}
	defer rows.Close()

	var out []priority.ProgramScore
	for rows.Next() {
		var s priority.ProgramScore
		if err := rows.Scan(&s.ProgramID, &s.PriorityName, &s.Group, &s.ScoreInt); err != nil {
			return nil, fmt.Errorf("scan program score: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListFactRows returns one row per (program, fund) pair; programs
// without line items appear once with an empty fund.
func (s *Store) ListFactRows(ctx context.Context, datasetID uuid.UUID) ([]program.FactRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.name, p.description, p.service_type, p.user_group, p.quartile, p.fte,
		        COALESCE(pc.total_cost, 0), COALESCE(pc.personnel, 0), COALESCE(pc.nonpersonnel, 0), COALESCE(pc.revenue, 0),
		        a.reliance, a.population_served, a.demand, a.cost_recovery, a.mandate,
		        a.program_id IS NOT NULL,
		        COALESCE(f.fund, '')
		 FROM programs p
		 LEFT JOIN program_costs pc ON pc.dataset_id = p.dataset_id AND pc.program_id = p.id
		 LEFT JOIN program_attributes a ON a.dataset_id = p.dataset_id AND a.program_id = p.id
		 LEFT JOIN (SELECT DISTINCT dataset_id, program_id, fund FROM line_items) f
		   ON f.dataset_id = p.dataset_id AND f.program_id = p.id
		 WHERE p.dataset_id = $1
		 ORDER BY p.id ASC, f.fund ASC`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list fact rows: %w", err)
	}
	defer rows.Close()

	var out []program.FactRow
	for rows.Next() {
		var r program.FactRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.ServiceType, &r.UserGroup, &r.Quartile, &r.FTE,
			&r.TotalCost, &r.Personnel, &r.NonPersonnel, &r.Revenue,
			&r.Attrs.Reliance, &r.Attrs.PopulationServed, &r.Attrs.Demand, &r.Attrs.CostRecovery, &r.Attrs.Mandate,
			&r.HasAttrs, &r.Fund); err != nil {
			return nil, fmt.Errorf("scan fact row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SumTotalCost returns the dataset-wide total program cost.
func (s *Store) SumTotalCost(ctx context.Context, datasetID uuid.UUID) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_cost), 0) FROM program_costs WHERE dataset_id = $1`, datasetID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum total cost: %w", err)
	}
	return total, nil
}
