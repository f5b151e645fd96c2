package service

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/priority"
	"github.com/civicbudget/pbb-api/internal/domain/program"
)

func TestSpendingByPriority(t *testing.T) {
	store := newMockStore()
	store.priorities = []priority.Priority{
		{ID: 1, Name: "Community Safety", Group: priority.GroupCommunity},
		{ID: 2, Name: "Quality of Place", Group: priority.GroupCommunity},
		{ID: 3, Name: "Unfunded", Group: priority.GroupCommunity},
		{ID: 4, Name: "Fiscal Stewardship", Group: priority.GroupGovernance},
	}
	store.spending[1] = prioritySpendingRow{TotalCost: 1000, ProgramCount: 3}
	store.spending[2] = prioritySpendingRow{TotalCost: 5000, ProgramCount: 2}
	store.spending[4] = prioritySpendingRow{TotalCost: 900, ProgramCount: 1}

	svc := NewChartService(store)
	got, err := svc.SpendingByPriority(context.Background(), uuid.New(), "community")
	if err != nil {
		t.Fatal(err)
	}

	// Unfunded drops out; the rest sort by cost descending.
	want := []PrioritySpending{
		{Priority: "Quality of Place", TotalCost: 5000, ProgramCount: 2},
		{Priority: "Community Safety", TotalCost: 1000, ProgramCount: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SpendingByPriority = %+v, want %+v", got, want)
	}

	gov, err := svc.SpendingByPriority(context.Background(), uuid.New(), "governance")
	if err != nil {
		t.Fatal(err)
	}
	if len(gov) != 1 || gov[0].Priority != "Fiscal Stewardship" {
		t.Errorf("governance = %+v", gov)
	}
}

func TestResultBubbles(t *testing.T) {
	store := newMockStore()
	store.priorities = []priority.Priority{{ID: 1, Name: "Community Safety", Group: priority.GroupCommunity}}
	store.bubbleRows[1] = []priority.ScoredCost{
		{ProgramID: 10, ProgramName: "Patrol", ServiceType: "Public Safety", TotalCost: 1000000, ScoreInt: intPtr(3)},
		{ProgramID: 11, ProgramName: "Misc", TotalCost: -2500, ScoreInt: nil},
	}

	svc := NewChartService(store)
	chart, err := svc.ResultBubbles(context.Background(), uuid.New(), "Community Safety")
	if err != nil {
		t.Fatal(err)
	}
	if len(chart.Bubbles) != 2 {
		t.Fatalf("bubbles = %d, want 2", len(chart.Bubbles))
	}

	b := chart.Bubbles[0]
	if b.Shade != 0.75 {
		t.Errorf("shade = %v, want 0.75", b.Shade)
	}
	if b.Radius != 1.0 {
		t.Errorf("radius = %v, want 1.0", b.Radius)
	}
	if b.ServiceType != "Public Safety" {
		t.Errorf("service_type = %q", b.ServiceType)
	}

	// Negative cost still renders; unscored rows shade to zero and an
	// empty service type reads Unknown.
	b = chart.Bubbles[1]
	if b.Shade != 0 {
		t.Errorf("nil score shade = %v, want 0", b.Shade)
	}
	if b.ServiceType != "Unknown" {
		t.Errorf("service_type = %q, want Unknown", b.ServiceType)
	}
	if b.Radius != math.Sqrt(2500)/1000 {
		t.Errorf("radius = %v", b.Radius)
	}
}

func TestResultBubblesUnknownPriority(t *testing.T) {
	svc := NewChartService(newMockStore())
	chart, err := svc.ResultBubbles(context.Background(), uuid.New(), "No Such Priority")
	if err != nil {
		t.Fatal(err)
	}
	if len(chart.Bubbles) != 0 {
		t.Errorf("expected empty chart, got %d bubbles", len(chart.Bubbles))
	}
	if chart.Priority != "No Such Priority" {
		t.Errorf("priority = %q", chart.Priority)
	}
}

func TestAttributeBubbles(t *testing.T) {
	store := newMockStore()
	store.factRows = []program.FactRow{
		{ID: 10, Name: "Patrol", UserGroup: "Police", TotalCost: 4000000, HasAttrs: true,
			Attrs: program.Attributes{Mandate: intPtr(3)}, Fund: "General"},
		{ID: 10, Name: "Patrol", UserGroup: "Police", TotalCost: 4000000, HasAttrs: true,
			Attrs: program.Attributes{Mandate: intPtr(3)}, Fund: "Grants"},
		{ID: 10, Name: "Patrol", UserGroup: "Police", TotalCost: 4000000, HasAttrs: true,
			Attrs: program.Attributes{Mandate: intPtr(3)}, Fund: "General"},
		{ID: 11, Name: "No Attributes", TotalCost: 100, HasAttrs: false},
	}

	svc := NewChartService(store)
	chart, err := svc.AttributeBubbles(context.Background(), uuid.New(), "mandate")
	if err != nil {
		t.Fatal(err)
	}
	if chart.ShadedBy != "mandate" {
		t.Errorf("shaded_by = %q", chart.ShadedBy)
	}
	if len(chart.Bubbles) != 1 {
		t.Fatalf("bubbles = %d, want 1 (rows without attributes skipped)", len(chart.Bubbles))
	}

	b := chart.Bubbles[0]
	if b.Shade != 0.5 {
		t.Errorf("shade = %v, want (3-1)/4", b.Shade)
	}
	if b.Department != "Police" || b.OrgUnit != "Police" {
		t.Errorf("department/org_unit = %q/%q", b.Department, b.OrgUnit)
	}
	if !reflect.DeepEqual(b.Funds, []string{"General", "Grants"}) {
		t.Errorf("funds = %v, want deduped sorted", b.Funds)
	}
}

func TestAttributeBubblesInvalidAttribute(t *testing.T) {
	svc := NewChartService(newMockStore())
	_, err := svc.AttributeBubbles(context.Background(), uuid.New(), "favorite_color")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCostingBubbles(t *testing.T) {
	store := newMockStore()
	store.costRows = []program.Row{
		{ID: 10, Name: "Patrol", TotalCost: 1000000, Personnel: 750000, NonPersonnel: 250000, Revenue: 100000, FTE: 40},
	}
	svc := NewChartService(store)

	tests := []struct {
		mode      string
		wantShade float64
	}{
		{"fte", 1.0}, // 40/20 capped
		{"personnel", 0.75},
		{"nonpersonnel", 0.25},
		{"fee_recovery", 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			chart, err := svc.CostingBubbles(context.Background(), uuid.New(), tt.mode)
			if err != nil {
				t.Fatal(err)
			}
			if len(chart.Bubbles) != 1 {
				t.Fatalf("bubbles = %d", len(chart.Bubbles))
			}
			b := chart.Bubbles[0]
			if b.Shade != tt.wantShade {
				t.Errorf("shade = %v, want %v", b.Shade, tt.wantShade)
			}
			if b.PersonnelPct != 0.75 || b.NonPersonnelPct != 0.25 || b.RecoveryRate != 0.1 {
				t.Errorf("pcts = %v/%v/%v", b.PersonnelPct, b.NonPersonnelPct, b.RecoveryRate)
			}
		})
	}

	if _, err := svc.CostingBubbles(context.Background(), uuid.New(), "bogus"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("invalid mode err = %v, want ErrValidation", err)
	}
}

func TestProgramCategories(t *testing.T) {
	store := newMockStore()
	store.factRows = []program.FactRow{
		{ID: 10, Name: "Patrol", Quartile: "Quartile 1", TotalCost: 900, HasAttrs: true,
			Attrs: program.Attributes{Mandate: intPtr(4), Reliance: intPtr(4)}, Fund: "General"},
		{ID: 11, Name: "Archives", Quartile: "Quartile 4", TotalCost: 100, HasAttrs: true,
			Attrs: program.Attributes{Mandate: intPtr(1), Reliance: intPtr(1)}},
		{ID: 12, Name: "Fleet", Quartile: "Quartile 3", TotalCost: 500},
	}

	svc := NewChartService(store)
	report, err := svc.ProgramCategories(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	// Median of 900, 100, 500 is 500.
	if report.MedianCost != 500 {
		t.Errorf("median_cost = %v, want 500", report.MedianCost)
	}
	if len(report.Programs) != 3 {
		t.Fatalf("programs = %d, want 3", len(report.Programs))
	}
	// Patrol: impact+cost+mandate+reliance high -> 16. Archives and
	// Fleet: everything low -> 1.
	if report.Programs[0].CategoryNum != 16 {
		t.Errorf("Patrol category = %d, want 16", report.Programs[0].CategoryNum)
	}
	if report.Programs[1].CategoryNum != 1 {
		t.Errorf("Archives category = %d, want 1", report.Programs[1].CategoryNum)
	}
	if report.CategoryCounts[16] != 1 || report.CategoryCounts[1] != 2 {
		t.Errorf("category_counts = %v", report.CategoryCounts)
	}
	// Every slot 1-16 is present even at zero.
	if len(report.CategoryCounts) != 16 {
		t.Errorf("category_counts has %d entries, want 16", len(report.CategoryCounts))
	}
	if report.Programs[0].CategoryInfo.Name == "" {
		t.Error("missing category_info")
	}
}

func TestProgramCategoriesEmptyDataset(t *testing.T) {
	svc := NewChartService(newMockStore())
	report, err := svc.ProgramCategories(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Programs) != 0 {
		t.Errorf("programs = %d, want 0", len(report.Programs))
	}
	if len(report.Categories) != 16 {
		t.Errorf("categories table missing from empty report")
	}
}
