package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/dataset"
	"github.com/civicbudget/pbb-api/internal/domain/priority"
)

func TestDividendCompute(t *testing.T) {
	datasetID := uuid.New()
	store := newMockStore()
	store.dataset = &dataset.Dataset{ID: datasetID, Name: "FY2025", Population: 2}
	store.totalCost = 200
	store.priorities = []priority.Priority{
		{ID: 1, Name: "Community Safety", Group: priority.GroupCommunity},
		{ID: 2, Name: "Fiscal Stewardship", Group: priority.GroupGovernance},
	}
	store.bubbleRows[1] = []priority.ScoredCost{
		{PriorityID: 1, ProgramID: 10, ProgramName: "Patrol", TotalCost: 200,
			ScoreInt: intPtr(4), ScoreLabel: "Very High Alignment (4)"},
		{PriorityID: 1, ProgramID: 11, ProgramName: "Records", TotalCost: 100,
			ScoreInt: intPtr(1), ScoreLabel: "Low Alignment (1)"},
	}
	store.bubbleRows[2] = []priority.ScoredCost{
		{PriorityID: 2, ProgramID: 10, ProgramName: "Patrol", TotalCost: 200,
			ScoreInt: intPtr(2), ScoreLabel: "Medium Alignment (2)"},
	}

	svc := NewDividendService(store)
	report, err := svc.Compute(context.Background(), datasetID)
	if err != nil {
		t.Fatal(err)
	}

	if report.PerCapitaTotal != 100 {
		t.Errorf("per_capita_total = %v, want 100", report.PerCapitaTotal)
	}

	if len(report.CommunityPriorities.Priorities) != 1 {
		t.Fatalf("community priorities = %d, want 1", len(report.CommunityPriorities.Priorities))
	}
	safety := report.CommunityPriorities.Priorities[0]
	// 200*1.0 for score 4 plus 100*0.25 for score 1.
	if safety.TotalCost != 225 {
		t.Errorf("safety total_cost = %v, want 225", safety.TotalCost)
	}
	if safety.PerCapitaCost != 112.5 {
		t.Errorf("safety per_capita_cost = %v, want 112.5", safety.PerCapitaCost)
	}
	// Only the score-4 program counts and lists; score 1 is below the bar.
	if safety.ProgramCount != 1 {
		t.Errorf("safety program_count = %d, want 1", safety.ProgramCount)
	}
	if len(safety.Programs) != 1 || safety.Programs[0].Name != "Patrol" {
		t.Fatalf("safety programs = %+v, want just Patrol", safety.Programs)
	}
	if safety.AvgAlignment != 4 {
		t.Errorf("safety avg_alignment = %v, want 4", safety.AvgAlignment)
	}
	if safety.WeightingNote == "" {
		t.Error("missing weighting note")
	}

	if len(report.GovernancePriorities.Priorities) != 1 {
		t.Fatalf("governance priorities = %d, want 1", len(report.GovernancePriorities.Priorities))
	}
	fiscal := report.GovernancePriorities.Priorities[0]
	if fiscal.TotalCost != 100 {
		t.Errorf("fiscal total_cost = %v, want 100", fiscal.TotalCost)
	}
	// Program count truncates the weight sum: one score-2 program is 0.5.
	if fiscal.ProgramCount != 0 {
		t.Errorf("fiscal program_count = %d, want 0", fiscal.ProgramCount)
	}

	// 112.5 + 50 per capita across priorities against 100 per capita spend.
	if report.TotalPriorityValue != 162.5 {
		t.Errorf("total_priority_value = %v, want 162.5", report.TotalPriorityValue)
	}
	if report.LeverageRatio != 1.63 {
		t.Errorf("leverage_ratio = %v, want 1.63", report.LeverageRatio)
	}
	if report.CommunityPriorities.TotalPerCapita != 112.5 {
		t.Errorf("community total_per_capita = %v, want 112.5", report.CommunityPriorities.TotalPerCapita)
	}
	// All priorities come out of a single scored-cost query.
	if store.scoredCostCalls != 1 {
		t.Errorf("scored cost queries = %d, want 1", store.scoredCostCalls)
	}
}

func TestDividendRejectsZeroPopulation(t *testing.T) {
	datasetID := uuid.New()
	store := newMockStore()
	store.dataset = &dataset.Dataset{ID: datasetID, Name: "Empty", Population: 0}

	svc := NewDividendService(store)
	_, err := svc.Compute(context.Background(), datasetID)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestDividendSkipsPrioritiesWithoutScores(t *testing.T) {
	datasetID := uuid.New()
	store := newMockStore()
	store.dataset = &dataset.Dataset{ID: datasetID, Name: "FY2025", Population: 1000}
	store.totalCost = 500
	store.priorities = []priority.Priority{
		{ID: 1, Name: "Unscored", Group: priority.GroupCommunity},
	}

	svc := NewDividendService(store)
	report, err := svc.Compute(context.Background(), datasetID)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.CommunityPriorities.Priorities) != 0 {
		t.Errorf("expected no priorities, got %d", len(report.CommunityPriorities.Priorities))
	}
	if report.LeverageRatio != 0 {
		t.Errorf("leverage_ratio = %v, want 0", report.LeverageRatio)
	}
}
