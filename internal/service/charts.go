package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/priority"
	"github.com/civicbudget/pbb-api/internal/port/database"
)

// ChartService computes the analytics projections behind the chart
// endpoints. All methods are read only.
type ChartService struct {
	store database.Store
}

func NewChartService(store database.Store) *ChartService {
	return &ChartService{store: store}
}

// PrioritySpending is one row of the spending-by-priority chart.
type PrioritySpending struct {
	Priority     string  `json:"priority"`
	TotalCost    float64 `json:"total_cost"`
	ProgramCount int     `json:"program_count"`
}

// SpendingByPriority sums program costs per priority within one group.
// Only positively scored programs count, and priorities with no
// spending are dropped. group is "community" or anything else for
// governance.
func (s *ChartService) SpendingByPriority(ctx context.Context, datasetID uuid.UUID, group string) ([]PrioritySpending, error) {
	groupName := priority.GroupGovernance
	if group == "community" {
		groupName = priority.GroupCommunity
	}

	priorities, err := s.store.ListPriorities(ctx, datasetID, groupName)
	if err != nil {
		return nil, err
	}

	results := make([]PrioritySpending, 0, len(priorities))
	for _, p := range priorities {
		totalCost, programCount, err := s.store.PrioritySpending(ctx, datasetID, p.ID)
		if err != nil {
			return nil, err
		}
		if totalCost > 0 {
			results = append(results, PrioritySpending{
				Priority:     p.Name,
				TotalCost:    totalCost,
				ProgramCount: programCount,
			})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].TotalCost > results[j].TotalCost })
	return results, nil
}

// ResultBubble is one program bubble on the priority results chart.
type ResultBubble struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	ServiceType string  `json:"service_type"`
	Size        float64 `json:"size"`
	Radius      float64 `json:"radius"`
	Shade       float64 `json:"shade"`
}

// ResultBubbleChart is the bubbles/results response.
type ResultBubbleChart struct {
	Bubbles  []ResultBubble `json:"bubbles"`
	Priority string         `json:"priority"`
}

// ResultBubbles builds the bubble chart for one named priority. An
// unknown priority name yields an empty chart, not an error.
func (s *ChartService) ResultBubbles(ctx context.Context, datasetID uuid.UUID, priorityName string) (*ResultBubbleChart, error) {
	chart := &ResultBubbleChart{Bubbles: []ResultBubble{}, Priority: priorityName}

	p, err := s.store.FindPriority(ctx, datasetID, priorityName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return chart, nil
		}
		return nil, err
	}

	rows, err := s.store.ListPriorityBubbleRows(ctx, datasetID, p.ID)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		shade := 0.0
		if row.ScoreInt != nil && *row.ScoreInt != 0 {
			shade = clamp01(float64(*row.ScoreInt) / 4.0)
		}
		serviceType := row.ServiceType
		if serviceType == "" {
			serviceType = "Unknown"
		}
		chart.Bubbles = append(chart.Bubbles, ResultBubble{
			ID:          row.ProgramID,
			Name:        row.ProgramName,
			ServiceType: serviceType,
			Size:        row.TotalCost,
			Radius:      math.Sqrt(math.Abs(row.TotalCost)) / 1000,
			Shade:       shade,
		})
	}
	return chart, nil
}

// AttributeBubble is one program bubble shaded by a PBB attribute.
type AttributeBubble struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	ServiceType    string   `json:"service_type"`
	Department     string   `json:"department"`
	OrgUnit        string   `json:"org_unit"`
	Description    string   `json:"description"`
	Size           float64  `json:"size"`
	Radius         float64  `json:"radius"`
	Shade          float64  `json:"shade"`
	AttributeValue int      `json:"attribute_value"`
	Funds          []string `json:"funds"`
}

// AttributeBubbleChart is the bubbles/attributes response.
type AttributeBubbleChart struct {
	Bubbles  []AttributeBubble `json:"bubbles"`
	ShadedBy string            `json:"shaded_by"`
}

// validAttrs are the shadeable PBB attribute names.
var validAttrs = map[string]bool{
	"reliance":          true,
	"population_served": true,
	"demand":            true,
	"cost_recovery":     true,
	"mandate":           true,
}

// AttributeBubbles builds the bubble chart shaded by one of the five
// PBB attributes. Programs without an attribute record are skipped.
func (s *ChartService) AttributeBubbles(ctx context.Context, datasetID uuid.UUID, attr string) (*AttributeBubbleChart, error) {
	if !validAttrs[attr] {
		return nil, fmt.Errorf("invalid attribute %q: %w", attr, domain.ErrValidation)
	}

	rows, err := s.store.ListFactRows(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	byProgram := map[int64]*AttributeBubble{}
	var order []int64
	for _, row := range rows {
		if !row.HasAttrs {
			continue
		}
		b, ok := byProgram[row.ID]
		if !ok {
			attrValue := row.AttributeValue(attr)
			shade := 0.0
			if attrValue > 0 {
				shade = clamp01(float64(attrValue-1) / 4.0)
			}
			b = &AttributeBubble{
				ID:             row.ID,
				Name:           row.Name,
				ServiceType:    firstNonEmpty(row.ServiceType, "Unknown"),
				Department:     firstNonEmpty(row.UserGroup, row.ServiceType, "Unknown"),
				OrgUnit:        firstNonEmpty(row.UserGroup, "Unknown"),
				Description:    row.Description,
				Size:           row.TotalCost,
				Radius:         math.Sqrt(math.Abs(row.TotalCost)) / 1000,
				Shade:          shade,
				AttributeValue: attrValue,
				Funds:          []string{},
			}
			byProgram[row.ID] = b
			order = append(order, row.ID)
		}
		if row.Fund != "" {
			b.Funds = appendFund(b.Funds, row.Fund)
		}
	}

	chart := &AttributeBubbleChart{Bubbles: make([]AttributeBubble, 0, len(order)), ShadedBy: attr}
	for _, id := range order {
		b := byProgram[id]
		sort.Strings(b.Funds)
		chart.Bubbles = append(chart.Bubbles, *b)
	}
	return chart, nil
}

// CostingBubble is one program bubble on the costing chart.
type CostingBubble struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Size            float64 `json:"size"`
	Radius          float64 `json:"radius"`
	Shade           float64 `json:"shade"`
	FTE             float64 `json:"fte"`
	PersonnelPct    float64 `json:"personnel_pct"`
	NonPersonnelPct float64 `json:"nonpersonnel_pct"`
	RecoveryRate    float64 `json:"recovery_rate"`
}

// CostingBubbleChart is the bubbles/costing response.
type CostingBubbleChart struct {
	Bubbles []CostingBubble `json:"bubbles"`
	Mode    string          `json:"mode"`
}

// validCostingModes are the costing chart shading modes.
var validCostingModes = map[string]bool{
	"fte":          true,
	"personnel":    true,
	"nonpersonnel": true,
	"fee_recovery": true,
}

// CostingBubbles builds the costing bubble chart. mode selects the
// shading: FTE intensity, personnel or non-personnel share of total
// cost, or remaining fee recovery opportunity.
func (s *ChartService) CostingBubbles(ctx context.Context, datasetID uuid.UUID, mode string) (*CostingBubbleChart, error) {
	if !validCostingModes[mode] {
		return nil, fmt.Errorf("invalid costing mode %q: %w", mode, domain.ErrValidation)
	}

	rows, err := s.store.ListCostRows(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	chart := &CostingBubbleChart{Bubbles: make([]CostingBubble, 0, len(rows)), Mode: mode}
	for _, row := range rows {
		var personnelPct, nonPersonnelPct, recoveryRate float64
		if row.TotalCost > 0 {
			personnelPct = row.Personnel / row.TotalCost
			nonPersonnelPct = row.NonPersonnel / row.TotalCost
			recoveryRate = row.Revenue / row.TotalCost
		}

		var shade float64
		switch mode {
		case "fte":
			if row.FTE > 0 {
				shade = math.Min(1.0, row.FTE/20.0)
			}
		case "personnel":
			shade = personnelPct
		case "nonpersonnel":
			shade = nonPersonnelPct
		case "fee_recovery":
			shade = 1 - recoveryRate
		}

		chart.Bubbles = append(chart.Bubbles, CostingBubble{
			ID:              row.ID,
			Name:            row.Name,
			Size:            row.TotalCost,
			Radius:          math.Sqrt(row.TotalCost) / 1000,
			Shade:           clamp01(shade),
			FTE:             row.FTE,
			PersonnelPct:    personnelPct,
			NonPersonnelPct: nonPersonnelPct,
			RecoveryRate:    recoveryRate,
		})
	}
	return chart, nil
}

// CategorizedProgram is one program with its computed PBB category.
type CategorizedProgram struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Quartile         string   `json:"quartile"`
	ServiceType      string   `json:"service_type"`
	Department       string   `json:"department"`
	OrgUnit          string   `json:"org_unit"`
	Description      string   `json:"description"`
	TotalCost        float64  `json:"total_cost"`
	Revenue          float64  `json:"revenue"`
	Mandate          *int     `json:"mandate"`
	Reliance         *int     `json:"reliance"`
	Demand           *int     `json:"demand"`
	CostRecovery     *int     `json:"cost_recovery"`
	PopulationServed *int     `json:"population_served"`
	CategoryNum      int      `json:"category"`
	CategoryInfo     Category `json:"category_info"`
	Funds            []string `json:"funds"`
}

// CategoryReport is the program-categories response.
type CategoryReport struct {
	Programs       []CategorizedProgram `json:"programs"`
	MedianCost     float64              `json:"median_cost"`
	CategoryCounts map[int]int          `json:"category_counts"`
	Categories     map[int]Category     `json:"categories"`
}

// ProgramCategories classifies every program in the dataset into the
// sixteen PBB categories. The cost split uses the median of the
// non-zero program costs.
func (s *ChartService) ProgramCategories(ctx context.Context, datasetID uuid.UUID) (*CategoryReport, error) {
	rows, err := s.store.ListFactRows(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &CategoryReport{Programs: []CategorizedProgram{}, Categories: Categories}, nil
	}

	var costs []float64
	seen := map[int64]bool{}
	for _, row := range rows {
		if !seen[row.ID] {
			seen[row.ID] = true
			costs = append(costs, row.TotalCost)
		}
	}
	median := medianCost(costs)

	counts := make(map[int]int, 16)
	for i := 1; i <= 16; i++ {
		counts[i] = 0
	}

	byProgram := map[int64]*CategorizedProgram{}
	var order []int64
	for _, row := range rows {
		p, ok := byProgram[row.ID]
		if !ok {
			category := Classify(row.Quartile, row.TotalCost, median, row.Attrs.Mandate, row.Attrs.Reliance)
			counts[category]++

			p = &CategorizedProgram{
				ID:               row.ID,
				Name:             row.Name,
				Quartile:         row.Quartile,
				ServiceType:      firstNonEmpty(row.ServiceType, "Unknown"),
				Department:       firstNonEmpty(row.UserGroup, row.ServiceType, "Unknown"),
				OrgUnit:          firstNonEmpty(row.UserGroup, "Unknown"),
				Description:      row.Description,
				TotalCost:        row.TotalCost,
				Revenue:          row.Revenue,
				Mandate:          row.Attrs.Mandate,
				Reliance:         row.Attrs.Reliance,
				Demand:           row.Attrs.Demand,
				CostRecovery:     row.Attrs.CostRecovery,
				PopulationServed: row.Attrs.PopulationServed,
				CategoryNum:      category,
				CategoryInfo:     Categories[category],
				Funds:            []string{},
			}
			byProgram[row.ID] = p
			order = append(order, row.ID)
		}
		if row.Fund != "" {
			p.Funds = appendFund(p.Funds, row.Fund)
		}
	}

	report := &CategoryReport{
		Programs:       make([]CategorizedProgram, 0, len(order)),
		MedianCost:     median,
		CategoryCounts: counts,
		Categories:     Categories,
	}
	for _, id := range order {
		p := byProgram[id]
		sort.Strings(p.Funds)
		report.Programs = append(report.Programs, *p)
	}
	return report, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// appendFund adds fund to the list if not already present.
func appendFund(funds []string, fund string) []string {
	for _, f := range funds {
		if f == fund {
			return funds
		}
	}
	return append(funds, fund)
}
