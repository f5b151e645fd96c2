package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/lineitem"
)

// ListProgramLineItems returns the program name and its raw line items.
func (s *Store) ListProgramLineItems(ctx context.Context, datasetID uuid.UUID, programID int64) (string, []lineitem.LineItem, error) {
	var name string
	err := s.pool.QueryRow(ctx,
		`SELECT name FROM programs WHERE dataset_id = $1 AND id = $2`, datasetID, programID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, fmt.Errorf("get program %d: %w", programID, domain.ErrNotFound)
		}
		return "", nil, fmt.Errorf("get program %d: %w", programID, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, dataset_id, program_id, org_unit_id, cost_type, acct_type, acct_number, fund,
		        item_cat1, item_cat2, num_items, total_item_cost, allocation_pct, year, budget_label
		 FROM line_items WHERE dataset_id = $1 AND program_id = $2 ORDER BY id ASC`, datasetID, programID)
	if err != nil {
		return "", nil, fmt.Errorf("list program line items: %w", err)
	}
	defer rows.Close()

	var items []lineitem.LineItem
	for rows.Next() {
		var li lineitem.LineItem
		if err := rows.Scan(&li.ID, &li.DatasetID, &li.ProgramID, &li.OrgUnitID, &li.CostType, &li.AcctType,
			&li.AcctNumber, &li.Fund, &li.ItemCat1, &li.ItemCat2, &li.NumItems, &li.TotalItemCost,
			&li.AllocationPct, &li.Year, &li.BudgetLabel); err != nil {
			return "", nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, li)
	}
	return name, items, rows.Err()
}

// ListLineItemTable returns the joined line-item table projection,
// optionally filtered to a single program.
func (s *Store) ListLineItemTable(ctx context.Context, datasetID uuid.UUID, programID *int64) ([]lineitem.TableRow, error) {
	query := `SELECT li.id, li.program_id, ou.department, ou.division, ou.activity,
	       li.cost_type, li.acct_type, li.acct_number, li.fund, li.item_cat1, li.item_cat2,
	       li.num_items, li.total_item_cost, li.allocation_pct, li.year, li.budget_label
	 FROM line_items li
	 LEFT JOIN org_units ou ON ou.id = li.org_unit_id
	 WHERE li.dataset_id = $1`
	args := []any{datasetID}
	if programID != nil {
		query += ` AND li.program_id = $2`
		args = append(args, *programID)
	}
	query += ` ORDER BY li.id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list line item table: %w", err)
	}
	defer rows.Close()

	var out []lineitem.TableRow
	for rows.Next() {
		var r lineitem.TableRow
		if err := rows.Scan(&r.ID, &r.ProgramID, &r.Department, &r.Division, &r.Activity,
			&r.CostType, &r.AccountType, &r.AccountNumber, &r.Fund, &r.Category1, &r.Category2,
			&r.NumItems, &r.TotalCost, &r.AllocationPct, &r.Year, &r.BudgetLabel); err != nil {
			return nil, fmt.Errorf("scan line item row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListFlowRows returns the sankey projection. Department, fund and
// cost-type filters are applied here; search-term filtering happens in
// the service after keyword expansion.
func (s *Store) ListFlowRows(ctx context.Context, datasetID uuid.UUID, f lineitem.FlowFilter) ([]lineitem.FlowRow, error) {
	query := `SELECT li.program_id, p.name, COALESCE(ou.department, ''), li.fund, li.cost_type,
	       li.item_cat1, li.item_cat2, li.total_item_cost, li.allocation_pct
	 FROM line_items li
	 JOIN programs p ON p.dataset_id = li.dataset_id AND p.id = li.program_id
	 LEFT JOIN org_units ou ON ou.id = li.org_unit_id
	 WHERE li.dataset_id = $1`
	args := []any{datasetID}

	if len(f.Departments) > 0 {
		args = append(args, f.Departments)
		query += fmt.Sprintf(` AND ou.department = ANY($%d)`, len(args))
	}
	if len(f.Funds) > 0 {
		args = append(args, f.Funds)
		query += fmt.Sprintf(` AND li.fund = ANY($%d)`, len(args))
	}
	if len(f.CostTypes) > 0 {
		args = append(args, f.CostTypes)
		query += fmt.Sprintf(` AND li.cost_type = ANY($%d)`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list flow rows: %w", err)
	}
	defer rows.Close()

	var out []lineitem.FlowRow
	for rows.Next() {
		var r lineitem.FlowRow
		if err := rows.Scan(&r.ProgramID, &r.ProgramName, &r.Department, &r.Fund, &r.CostType,
			&r.ItemCat1, &r.ItemCat2, &r.TotalItemCost, &r.AllocationPct); err != nil {
			return nil, fmt.Errorf("scan flow row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
