package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain/lineitem"
	"github.com/civicbudget/pbb-api/internal/domain/priority"
)

func TestSankeyFlow(t *testing.T) {
	store := newMockStore()
	store.flowRows = []lineitem.FlowRow{
		{ProgramID: 10, ProgramName: "Patrol", ItemCat1: "Salaries", TotalItemCost: 50000},
		{ProgramID: 10, ProgramName: "Patrol", ItemCat1: "Equipment", TotalItemCost: 8000},
		{ProgramID: 11, ProgramName: "Parks", ItemCat1: "Salaries", TotalItemCost: 20000},
		// Below the floor: never shows up as a link, and the category
		// total stays under 1000 too.
		{ProgramID: 11, ProgramName: "Parks", ItemCat1: "Stamps", TotalItemCost: 400},
	}

	svc := NewSankeyService(store)
	graph, err := svc.Flow(context.Background(), uuid.New(), FlowParams{})
	if err != nil {
		t.Fatal(err)
	}

	if graph.TotalFlow != 78400 {
		t.Errorf("total_flow = %v, want 78400", graph.TotalFlow)
	}
	if graph.Direction != "outflow" {
		t.Errorf("direction = %q, want outflow", graph.Direction)
	}

	// Categories first (by total descending), then programs.
	wantNodes := []SankeyNode{
		{Name: "Salaries", Type: "category"},
		{Name: "Equipment", Type: "category"},
		{Name: "Patrol", Type: "program"},
		{Name: "Parks", Type: "program"},
	}
	if !reflect.DeepEqual(graph.Nodes, wantNodes) {
		t.Errorf("nodes = %+v, want %+v", graph.Nodes, wantNodes)
	}

	wantLinks := []SankeyLink{
		{Source: 1, Target: 2, Value: 8000},  // Equipment -> Patrol
		{Source: 0, Target: 2, Value: 50000}, // Salaries -> Patrol
		{Source: 0, Target: 3, Value: 20000}, // Salaries -> Parks
	}
	if !reflect.DeepEqual(graph.Links, wantLinks) {
		t.Errorf("links = %+v, want %+v", graph.Links, wantLinks)
	}
}

func TestSankeyFlowInflowSwapsEndpoints(t *testing.T) {
	store := newMockStore()
	store.flowRows = []lineitem.FlowRow{
		{ProgramID: 10, ProgramName: "Patrol", ItemCat1: "Salaries", TotalItemCost: 50000},
	}

	svc := NewSankeyService(store)
	graph, err := svc.Flow(context.Background(), uuid.New(), FlowParams{Direction: "inflow"})
	if err != nil {
		t.Fatal(err)
	}
	if len(graph.Links) != 1 {
		t.Fatalf("links = %d", len(graph.Links))
	}
	l := graph.Links[0]
	if graph.Nodes[l.Source].Type != "program" || graph.Nodes[l.Target].Type != "category" {
		t.Errorf("inflow link runs %s -> %s, want program -> category",
			graph.Nodes[l.Source].Type, graph.Nodes[l.Target].Type)
	}
}

func TestSankeyFlowAllocationScaling(t *testing.T) {
	store := newMockStore()
	store.flowRows = []lineitem.FlowRow{
		{ProgramID: 10, ProgramName: "Patrol", ItemCat1: "Salaries", TotalItemCost: 100000, AllocationPct: 25},
	}

	svc := NewSankeyService(store)
	graph, err := svc.Flow(context.Background(), uuid.New(), FlowParams{})
	if err != nil {
		t.Fatal(err)
	}
	if graph.TotalFlow != 25000 {
		t.Errorf("total_flow = %v, want 25000 after allocation", graph.TotalFlow)
	}
}

func TestSankeyFlowDropsSubFloorFlows(t *testing.T) {
	store := newMockStore()
	store.flowRows = []lineitem.FlowRow{
		{ProgramID: 10, ProgramName: "Patrol", ItemCat1: "Salaries", TotalItemCost: 50000},
		// Both endpoints survive the node floor (Salaries totals 50800,
		// Parks totals 5800) but this link is under 1000 on its own.
		{ProgramID: 11, ProgramName: "Parks", ItemCat1: "Salaries", TotalItemCost: 800},
		{ProgramID: 11, ProgramName: "Parks", ItemCat1: "Equipment", TotalItemCost: 5000},
	}

	svc := NewSankeyService(store)
	graph, err := svc.Flow(context.Background(), uuid.New(), FlowParams{})
	if err != nil {
		t.Fatal(err)
	}

	if len(graph.Nodes) != 4 {
		t.Fatalf("nodes = %+v, want all 4", graph.Nodes)
	}
	if len(graph.Links) != 2 {
		t.Fatalf("links = %+v, want 2", graph.Links)
	}
	for _, l := range graph.Links {
		if l.Value < 1000 {
			t.Errorf("link value %v is under the 1000 floor", l.Value)
		}
	}
}

func TestSankeyFlowMinFlowPct(t *testing.T) {
	store := newMockStore()
	store.flowRows = []lineitem.FlowRow{
		{ProgramID: 10, ProgramName: "Patrol", ItemCat1: "Salaries", TotalItemCost: 90000},
		{ProgramID: 11, ProgramName: "Parks", ItemCat1: "Salaries", TotalItemCost: 10000},
	}

	svc := NewSankeyService(store)
	graph, err := svc.Flow(context.Background(), uuid.New(), FlowParams{MinFlowPct: 15})
	if err != nil {
		t.Fatal(err)
	}
	// 15% of 100000 is 15000: only the Patrol link clears it.
	if len(graph.Links) != 1 || graph.Links[0].Value != 90000 {
		t.Errorf("links = %+v, want just the 90000 flow", graph.Links)
	}
}

func TestSankeyFlowPriorityLayer(t *testing.T) {
	store := newMockStore()
	store.flowRows = []lineitem.FlowRow{
		{ProgramID: 10, ProgramName: "Patrol", ItemCat1: "Salaries", TotalItemCost: 100000},
	}
	store.programScores = []priority.ProgramScore{
		{ProgramID: 10, PriorityName: "Community Safety", ScoreInt: intPtr(4)},
		{ProgramID: 10, PriorityName: "Quality of Place", ScoreInt: intPtr(0)},
		// Not in the graph: no link may appear for it.
		{ProgramID: 99, PriorityName: "Community Safety", ScoreInt: intPtr(4)},
	}

	svc := NewSankeyService(store)
	graph, err := svc.Flow(context.Background(), uuid.New(), FlowParams{IncludePriorities: true})
	if err != nil {
		t.Fatal(err)
	}

	var priorityLinks []SankeyLink
	for _, l := range graph.Links {
		if graph.Nodes[l.Target].Type == "priority" {
			priorityLinks = append(priorityLinks, l)
		}
	}
	if len(priorityLinks) != 2 {
		t.Fatalf("priority links = %+v, want 2", priorityLinks)
	}
	// Score 4 carries the full program total, unscored rows fall back
	// to a tenth.
	if priorityLinks[0].Value != 100000 {
		t.Errorf("scored link value = %v, want 100000", priorityLinks[0].Value)
	}
	if priorityLinks[1].Value != 10000 {
		t.Errorf("unscored link value = %v, want 10000", priorityLinks[1].Value)
	}
	for _, n := range graph.Nodes {
		if n.Type == "priority" && n.Name != "Community Safety" && n.Name != "Quality of Place" {
			t.Errorf("unexpected priority node %q", n.Name)
		}
	}
}

func TestSankeyFlowSearchFilter(t *testing.T) {
	store := newMockStore()
	store.flowRows = []lineitem.FlowRow{
		{ProgramID: 10, ProgramName: "Aquatics Center", ItemCat1: "Salaries", TotalItemCost: 50000},
		{ProgramID: 11, ProgramName: "Street Maintenance", ItemCat1: "Salaries", TotalItemCost: 50000},
	}

	svc := NewSankeyService(store)
	// "pool" expands to swimming/aquatics terms.
	graph, err := svc.Flow(context.Background(), uuid.New(), FlowParams{Search: "pool"})
	if err != nil {
		t.Fatal(err)
	}
	if graph.TotalFlow != 50000 {
		t.Errorf("total_flow = %v, want only the aquatics flow", graph.TotalFlow)
	}
}

func TestSearchFlows(t *testing.T) {
	store := newMockStore()
	store.flowRows = []lineitem.FlowRow{
		{ProgramID: 10, ProgramName: "Aquatics Center", ItemCat1: "Salaries", TotalItemCost: 1},
		{ProgramID: 11, ProgramName: "Parks", ItemCat1: "Pool Chemicals", TotalItemCost: 1},
		{ProgramID: 12, ProgramName: "Records", ItemCat1: "Paper", TotalItemCost: 1},
	}

	svc := NewSankeyService(store)
	got, err := svc.SearchFlows(context.Background(), uuid.New(), "pool")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Categories, []string{"Pool Chemicals"}) {
		t.Errorf("categories = %v", got.Categories)
	}
	if !reflect.DeepEqual(got.Programs, []string{"Aquatics Center"}) {
		t.Errorf("programs = %v", got.Programs)
	}
}
