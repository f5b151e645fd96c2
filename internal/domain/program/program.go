// Package program defines the Program domain entity and its cost and
// attribute satellites.
package program

import (
	"github.com/google/uuid"
)

// Program is an externally identified budget program. The multi-file
// ingestion path generates IDs in the database; the legacy single-file
// path inserts the spreadsheet's numeric ID verbatim.
type Program struct {
	ID          int64     `json:"id"`
	DatasetID   uuid.UUID `json:"dataset_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ServiceType string    `json:"service_type"`
	UserGroup   string    `json:"user_group"`
	Quartile    string    `json:"quartile"`
	FinalScore  *float64  `json:"final_score"`
	FTE         float64   `json:"fte"`
	Year        int       `json:"year"`
	BudgetLabel string    `json:"budget_label"`
}

// Cost is the cost record attached to a program. total_cost may come
// verbatim from the spreadsheet and need not equal personnel+nonpersonnel.
type Cost struct {
	Personnel    float64 `json:"personnel"`
	NonPersonnel float64 `json:"nonpersonnel"`
	Revenue      float64 `json:"revenue"`
	TotalCost    float64 `json:"total_cost"`
}

// Attributes are the five 0-4 PBB dimension scores per program.
type Attributes struct {
	Reliance         *int `json:"reliance"`
	PopulationServed *int `json:"population_served"`
	Demand           *int `json:"demand"`
	CostRecovery     *int `json:"cost_recovery"`
	Mandate          *int `json:"mandate"`
}

// ScoreUpdate carries the Summary-sheet backfill applied to an already
// created program during multi-file ingestion.
type ScoreUpdate struct {
	ServiceType string
	UserGroup   string
	FinalScore  *float64
	Quartile    string
}

// ListFilter narrows the program listing.
type ListFilter struct {
	Query    string
	Dept     string
	Division string
	Quartile string
	Page     int
	Limit    int
}

// Row is the flat listing projection joined with the cost record.
type Row struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	ServiceType  string   `json:"service_type"`
	UserGroup    string   `json:"user_group"`
	Quartile     string   `json:"quartile"`
	FinalScore   *float64 `json:"final_score"`
	TotalCost    float64  `json:"total_cost"`
	Personnel    float64  `json:"personnel"`
	NonPersonnel float64  `json:"nonpersonnel"`
	Revenue      float64  `json:"revenue"`
	FTE          float64  `json:"fte"`
}

// PriorityScoreRef is one priority score attached to a program detail.
type PriorityScoreRef struct {
	Priority string `json:"priority"`
	Group    string `json:"group"`
	Score    *int   `json:"score"`
	Label    string `json:"label"`
}

// OrgRef is the organizational placement aggregated from line items.
type OrgRef struct {
	Department *string `json:"department"`
	Division   *string `json:"division"`
	Activity   *string `json:"activity"`
}

// Detail is the full single-program projection.
type Detail struct {
	ID             int64              `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	ServiceType    string             `json:"service_type"`
	UserGroup      string             `json:"user_group"`
	Quartile       string             `json:"quartile"`
	FinalScore     *float64           `json:"final_score"`
	FTE            float64            `json:"fte"`
	Costs          Cost               `json:"costs"`
	Organization   OrgRef             `json:"organization"`
	Attributes     *Attributes        `json:"attributes"`
	PriorityScores []PriorityScoreRef `json:"priority_scores"`
	LineItemsCount int                `json:"line_items_count"`
}

// FactRow is the denormalized analytics projection: one row per
// (program, fund) pair, programs without line items appearing once with
// an empty fund. Feeds the classifier, bubble charts, and search.
type FactRow struct {
	ID           int64
	Name         string
	Description  string
	ServiceType  string
	UserGroup    string
	Quartile     string
	FTE          float64
	TotalCost    float64
	Personnel    float64
	NonPersonnel float64
	Revenue      float64
	Attrs        Attributes
	HasAttrs     bool
	Fund         string
}

// AttributeValue returns the named attribute score, 0 when absent.
func (r FactRow) AttributeValue(attr string) int {
	var p *int
	switch attr {
	case "reliance":
		p = r.Attrs.Reliance
	case "population_served":
		p = r.Attrs.PopulationServed
	case "demand":
		p = r.Attrs.Demand
	case "cost_recovery":
		p = r.Attrs.CostRecovery
	case "mandate":
		p = r.Attrs.Mandate
	}
	if p == nil {
		return 0
	}
	return *p
}
