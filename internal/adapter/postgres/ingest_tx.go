package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/lineitem"
	"github.com/civicbudget/pbb-api/internal/domain/priority"
	"github.com/civicbudget/pbb-api/internal/domain/program"
	"github.com/civicbudget/pbb-api/internal/port/database"
)

// BeginIngest opens the transaction that carries one whole upload. The
// caller must Commit or Rollback.
func (s *Store) BeginIngest(ctx context.Context) (database.IngestTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ingest tx: %w", err)
	}
	return &ingestTx{tx: tx}, nil
}

type ingestTx struct {
	tx pgx.Tx
}

func (t *ingestTx) CreateDataset(ctx context.Context, name string, population int, orgID *uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx,
		`INSERT INTO datasets (name, population, organization_id) VALUES ($1, $2, $3) RETURNING id`,
		name, population, orgID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create dataset: %w", err)
	}
	return id, nil
}

// InsertProgram lets the database generate the program ID.
func (t *ingestTx) InsertProgram(ctx context.Context, p *program.Program) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO programs (dataset_id, name, description, service_type, user_group, quartile, final_score, fte, year, budget_label)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		p.DatasetID, p.Name, p.Description, p.ServiceType, p.UserGroup, p.Quartile, p.FinalScore, p.FTE, p.Year, p.BudgetLabel,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert program %q: %w", p.Name, err)
	}
	return id, nil
}

// InsertProgramWithID inserts a program under the spreadsheet's own
// numeric ID (legacy single-file path).
func (t *ingestTx) InsertProgramWithID(ctx context.Context, p *program.Program) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO programs (id, dataset_id, name, description, service_type, user_group, quartile, final_score, fte, year, budget_label)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.DatasetID, p.Name, p.Description, p.ServiceType, p.UserGroup, p.Quartile, p.FinalScore, p.FTE, p.Year, p.BudgetLabel)
	if err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("insert program %d: %w", p.ID, domain.ErrConflict)
		}
		return fmt.Errorf("insert program %d: %w", p.ID, err)
	}
	return nil
}

func (t *ingestTx) InsertProgramCost(ctx context.Context, datasetID uuid.UUID, programID int64, c program.Cost) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO program_costs (dataset_id, program_id, personnel, nonpersonnel, revenue, total_cost)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		datasetID, programID, c.Personnel, c.NonPersonnel, c.Revenue, c.TotalCost)
	if err != nil {
		return fmt.Errorf("insert program cost %d: %w", programID, err)
	}
	return nil
}

func (t *ingestTx) InsertOrgUnit(ctx context.Context, u *lineitem.OrgUnit) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO org_units (dataset_id, department, division, activity) VALUES ($1, $2, $3, $4) RETURNING id`,
		u.DatasetID, u.Department, u.Division, u.Activity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert org unit %q/%q: %w", u.Department, u.Division, err)
	}
	return id, nil
}

func (t *ingestTx) InsertLineItem(ctx context.Context, li *lineitem.LineItem) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO line_items (dataset_id, program_id, org_unit_id, cost_type, acct_type, acct_number, fund,
		   item_cat1, item_cat2, num_items, total_item_cost, allocation_pct, year, budget_label)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		li.DatasetID, li.ProgramID, li.OrgUnitID, li.CostType, li.AcctType, li.AcctNumber, li.Fund,
		li.ItemCat1, li.ItemCat2, li.NumItems, li.TotalItemCost, li.AllocationPct, li.Year, li.BudgetLabel)
	if err != nil {
		return fmt.Errorf("insert line item for program %d: %w", li.ProgramID, err)
	}
	return nil
}

// UpdateProgramScores backfills score columns from the Summary sheet.
// Empty strings and nil scores leave the stored value untouched.
// Returns false when the program does not exist in the dataset.
func (t *ingestTx) UpdateProgramScores(ctx context.Context, datasetID uuid.UUID, programID int64, u program.ScoreUpdate) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE programs SET
		   service_type = COALESCE(NULLIF($3, ''), service_type),
		   user_group = COALESCE(NULLIF($4, ''), user_group),
		   final_score = COALESCE($5, final_score),
		   quartile = COALESCE(NULLIF($6, ''), quartile)
		 WHERE dataset_id = $1 AND id = $2`,
		datasetID, programID, u.ServiceType, u.UserGroup, u.FinalScore, u.Quartile)
	if err != nil {
		return false, fmt.Errorf("update program scores %d: %w", programID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *ingestTx) InsertPriority(ctx context.Context, p *priority.Priority) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO priorities (dataset_id, name, priority_group) VALUES ($1, $2, $3) RETURNING id`,
		p.DatasetID, p.Name, p.Group,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert priority %q: %w", p.Name, err)
	}
	return id, nil
}

func (t *ingestTx) InsertPriorityScore(ctx context.Context, sc *priority.Score) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO program_priority_scores (dataset_id, program_id, priority_id, score_int, score_label)
		 VALUES ($1, $2, $3, $4, $5)`,
		sc.DatasetID, sc.ProgramID, sc.PriorityID, sc.ScoreInt, sc.ScoreLabel)
	if err != nil {
		return fmt.Errorf("insert priority score for program %d: %w", sc.ProgramID, err)
	}
	return nil
}

func (t *ingestTx) InsertAttributes(ctx context.Context, datasetID uuid.UUID, programID int64, a program.Attributes) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO program_attributes (dataset_id, program_id, reliance, population_served, demand, cost_recovery, mandate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (dataset_id, program_id) DO UPDATE SET
		   reliance = EXCLUDED.reliance,
		   population_served = EXCLUDED.population_served,
		   demand = EXCLUDED.demand,
		   cost_recovery = EXCLUDED.cost_recovery,
		   mandate = EXCLUDED.mandate`,
		datasetID, programID, a.Reliance, a.PopulationServed, a.Demand, a.CostRecovery, a.Mandate)
	if err != nil {
		return fmt.Errorf("insert attributes for program %d: %w", programID, err)
	}
	return nil
}

func (t *ingestTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ingest tx: %w", err)
	}
	return nil
}

func (t *ingestTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
