// Package lineitem defines budget ledger entries and the org units they
// reference.
package lineitem

import "github.com/google/uuid"

// OrgUnit is a department/division/activity grouping referenced by line items.
type OrgUnit struct {
	ID         int64     `json:"id"`
	DatasetID  uuid.UUID `json:"dataset_id"`
	Department string    `json:"department"`
	Division   string    `json:"division"`
	Activity   string    `json:"activity"`
}

// LineItem is a single budget ledger entry belonging to a program.
type LineItem struct {
	ID            int64     `json:"id"`
	DatasetID     uuid.UUID `json:"dataset_id"`
	ProgramID     int64     `json:"program_id"`
	OrgUnitID     *int64    `json:"org_unit_id"`
	CostType      string    `json:"cost_type"`
	AcctType      string    `json:"acct_type"`
	AcctNumber    string    `json:"acct_number"`
	Fund          string    `json:"fund"`
	ItemCat1      string    `json:"item_cat1"`
	ItemCat2      string    `json:"item_cat2"`
	NumItems      int       `json:"num_items"`
	TotalItemCost float64   `json:"total_item_cost"`
	AllocationPct float64   `json:"allocation_pct"`
	Year          int       `json:"year"`
	BudgetLabel   string    `json:"budget_label"`
}

// TableRow is the line-items table projection with org unit columns joined in.
type TableRow struct {
	ID            int64   `json:"id"`
	ProgramID     int64   `json:"program_id"`
	Department    *string `json:"department"`
	Division      *string `json:"division"`
	Activity      *string `json:"activity"`
	CostType      string  `json:"cost_type"`
	AccountType   string  `json:"account_type"`
	AccountNumber string  `json:"account_number"`
	Fund          string  `json:"fund"`
	Category1     string  `json:"category1"`
	Category2     string  `json:"category2"`
	NumItems      int     `json:"num_items"`
	TotalCost     float64 `json:"total_cost"`
	AllocationPct float64 `json:"allocation_pct"`
	Year          int     `json:"year"`
	BudgetLabel   string  `json:"budget_label"`
}

// FlowFilter narrows the sankey aggregation before grouping. Values
// within each field are OR-ed. Free-text search happens after the
// query, against keyword-expanded terms.
type FlowFilter struct {
	Departments []string
	Funds       []string
	CostTypes   []string
}

// FlowRow is the sankey aggregation projection: one row per line item
// joined with its program and org unit.
type FlowRow struct {
	ProgramID     int64
	ProgramName   string
	Department    string
	Fund          string
	CostType      string
	ItemCat1      string
	ItemCat2      string
	TotalItemCost float64
	AllocationPct float64
}

// Category resolves the flow category: first non-empty of item_cat1,
// item_cat2, cost_type, else "Uncategorized".
func (r FlowRow) Category() string {
	switch {
	case r.ItemCat1 != "":
		return r.ItemCat1
	case r.ItemCat2 != "":
		return r.ItemCat2
	case r.CostType != "":
		return r.CostType
	default:
		return "Uncategorized"
	}
}

// Value returns the item cost scaled by allocation_pct/100 when present.
func (r FlowRow) Value() float64 {
	if r.AllocationPct > 0 {
		return r.TotalItemCost * r.AllocationPct / 100
	}
	return r.TotalItemCost
}
