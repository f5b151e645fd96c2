package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain/priority"
	"github.com/civicbudget/pbb-api/internal/domain/program"
)

func TestProgramListPagination(t *testing.T) {
	store := newMockStore()
	store.programRows = []program.Row{{ID: 1, Name: "Patrol"}}
	store.programTotal = 101

	svc := NewProgramService(store)
	page, err := svc.List(context.Background(), uuid.New(), program.ListFilter{Page: 2, Limit: 50})
	if err != nil {
		t.Fatal(err)
	}
	if page.Page != 2 || page.Limit != 50 || page.Total != 101 {
		t.Errorf("page = %+v", page)
	}
	if page.Pages != 3 {
		t.Errorf("pages = %d, want ceil(101/50)", page.Pages)
	}
}

func TestProgramListDefaultsAndClamp(t *testing.T) {
	store := newMockStore()
	svc := NewProgramService(store)

	page, err := svc.List(context.Background(), uuid.New(), program.ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Page != 1 || page.Limit != 50 {
		t.Errorf("defaults = page %d limit %d", page.Page, page.Limit)
	}
	if page.Programs == nil {
		t.Error("programs should be an empty slice, not null")
	}

	page, err = svc.List(context.Background(), uuid.New(), program.ListFilter{Limit: 5000})
	if err != nil {
		t.Fatal(err)
	}
	if page.Limit != maxPageLimit {
		t.Errorf("limit = %d, want clamped to %d", page.Limit, maxPageLimit)
	}
}

func TestProgramListFlat(t *testing.T) {
	store := newMockStore()
	store.programRows = []program.Row{
		{ID: 1, Name: "Patrol", UserGroup: "Police", TotalCost: 1000},
		{ID: 2, Name: "Aquatics", TotalCost: 500},
	}
	store.programScores = []priority.ProgramScore{
		{ProgramID: 1, PriorityName: "Community Safety", ScoreInt: intPtr(4)},
		{ProgramID: 1, PriorityName: "Quality of Place", ScoreInt: nil},
	}

	svc := NewProgramService(store)
	flat, err := svc.ListFlat(context.Background(), uuid.New(), program.ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 2 {
		t.Fatalf("flat = %d, want 2", len(flat))
	}

	patrol := flat[0]
	if patrol.Department != "Police" || patrol.CofSection != "Police" {
		t.Errorf("department = %q/%q", patrol.Department, patrol.CofSection)
	}
	// Priority names key lowercased with underscores; nil scores drop.
	if got, ok := patrol.PriorityScores["community_safety"]; !ok || got != 4 {
		t.Errorf("priority_scores = %v", patrol.PriorityScores)
	}
	if _, ok := patrol.PriorityScores["quality_of_place"]; ok {
		t.Errorf("nil score leaked into %v", patrol.PriorityScores)
	}

	// Programs without a user group fall back to Other.
	if flat[1].Department != "Other" {
		t.Errorf("department = %q, want Other", flat[1].Department)
	}
	if flat[1].PriorityScores == nil {
		t.Error("priority_scores should be an empty map, not null")
	}
}
