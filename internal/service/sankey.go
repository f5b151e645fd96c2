package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain/lineitem"
	"github.com/civicbudget/pbb-api/internal/port/database"
)

// flowFloor is the absolute minimum value for a category, program, or
// flow to appear in the sankey graph.
const flowFloor = 1000.0

// SankeyService aggregates line items into the category-to-program
// flow graph.
type SankeyService struct {
	store database.Store
}

func NewSankeyService(store database.Store) *SankeyService {
	return &SankeyService{store: store}
}

// FlowParams tune the sankey aggregation. Zero values fall back to
// the defaults applied in Flow.
type FlowParams struct {
	LimitNodes        int
	MinFlowPct        float64
	Direction         string
	IncludePriorities bool
	Departments       []string
	Funds             []string
	CostTypes         []string
	Search            string
}

// SankeyNode is one node of the flow graph.
type SankeyNode struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SankeyLink connects two nodes by index.
type SankeyLink struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Value  float64 `json:"value"`
}

// SankeyGraph is the sankey-flow response.
type SankeyGraph struct {
	Nodes     []SankeyNode `json:"nodes"`
	Links     []SankeyLink `json:"links"`
	TotalFlow float64      `json:"total_flow"`
	Direction string       `json:"direction"`
}

// Flow builds the weighted flow graph between cost categories and
// programs, optionally extended with a priority layer. Department,
// fund and cost-type filters are OR-ed in the query; search terms are
// keyword-expanded and matched here against category and program name.
func (s *SankeyService) Flow(ctx context.Context, datasetID uuid.UUID, p FlowParams) (*SankeyGraph, error) {
	if p.LimitNodes <= 0 {
		p.LimitNodes = 10
	}
	if p.Direction != "inflow" {
		p.Direction = "outflow"
	}

	rows, err := s.store.ListFlowRows(ctx, datasetID, lineitem.FlowFilter{
		Departments: p.Departments,
		Funds:       p.Funds,
		CostTypes:   p.CostTypes,
	})
	if err != nil {
		return nil, err
	}
	rows = filterFlowRows(rows, p.Search)

	type flowKey struct {
		category  string
		programID int64
	}
	categoryTotals := map[string]float64{}
	programTotals := map[int64]float64{}
	programNames := map[int64]string{}
	flows := map[flowKey]float64{}
	var totalFlow float64

	for _, row := range rows {
		value := row.Value()
		category := row.Category()
		categoryTotals[category] += value
		programTotals[row.ProgramID] += value
		programNames[row.ProgramID] = row.ProgramName
		flows[flowKey{category, row.ProgramID}] += value
		totalFlow += value
	}

	categories := topNames(categoryTotals, p.LimitNodes)
	programs := topIDs(programTotals, p.LimitNodes)

	minFlow := math.Max(totalFlow*p.MinFlowPct/100, flowFloor)

	graph := &SankeyGraph{Nodes: []SankeyNode{}, Links: []SankeyLink{}, TotalFlow: totalFlow, Direction: p.Direction}

	categoryIdx := map[string]int{}
	for _, c := range categories {
		categoryIdx[c] = len(graph.Nodes)
		graph.Nodes = append(graph.Nodes, SankeyNode{Name: c, Type: "category"})
	}
	programIdx := map[int64]int{}
	for _, id := range programs {
		programIdx[id] = len(graph.Nodes)
		graph.Nodes = append(graph.Nodes, SankeyNode{Name: programNames[id], Type: "program"})
	}

	var flowKeys []flowKey
	for k := range flows {
		flowKeys = append(flowKeys, k)
	}
	sort.Slice(flowKeys, func(i, j int) bool {
		if flowKeys[i].category != flowKeys[j].category {
			return flowKeys[i].category < flowKeys[j].category
		}
		return flowKeys[i].programID < flowKeys[j].programID
	})

	kept := map[int64]bool{}
	for _, k := range flowKeys {
		value := flows[k]
		ci, cok := categoryIdx[k.category]
		pi, pok := programIdx[k.programID]
		if !cok || !pok || math.Abs(value) < minFlow {
			continue
		}
		kept[k.programID] = true
		src, dst := ci, pi
		if p.Direction == "inflow" {
			src, dst = pi, ci
		}
		graph.Links = append(graph.Links, SankeyLink{Source: src, Target: dst, Value: value})
	}

	if p.IncludePriorities {
		if err := s.addPriorityLayer(ctx, datasetID, graph, programIdx, programTotals, kept); err != nil {
			return nil, err
		}
	}
	return graph, nil
}

// addPriorityLayer distributes each surviving program's total across
// its priority scores, weighted score/4 with a 0.1 fallback for
// unscored rows, and appends the links that clear the floor.
func (s *SankeyService) addPriorityLayer(ctx context.Context, datasetID uuid.UUID, graph *SankeyGraph,
	programIdx map[int64]int, programTotals map[int64]float64, kept map[int64]bool) error {

	scores, err := s.store.ListProgramScores(ctx, datasetID)
	if err != nil {
		return err
	}

	priorityIdx := map[string]int{}
	for _, sc := range scores {
		if !kept[sc.ProgramID] {
			continue
		}
		weight := 0.1
		if sc.ScoreInt != nil && *sc.ScoreInt > 0 {
			weight = float64(*sc.ScoreInt) / 4.0
		}
		value := programTotals[sc.ProgramID] * weight
		if math.Abs(value) < flowFloor {
			continue
		}

		pi, ok := priorityIdx[sc.PriorityName]
		if !ok {
			pi = len(graph.Nodes)
			priorityIdx[sc.PriorityName] = pi
			graph.Nodes = append(graph.Nodes, SankeyNode{Name: sc.PriorityName, Type: "priority"})
		}
		graph.Links = append(graph.Links, SankeyLink{Source: programIdx[sc.ProgramID], Target: pi, Value: value})
	}
	return nil
}

// FlowCandidates is the sankey-search response: filter values whose
// flows match the query.
type FlowCandidates struct {
	Categories []string `json:"categories"`
	Programs   []string `json:"programs"`
}

// SearchFlows returns the category and program filter candidates
// matching a keyword-expanded query.
func (s *SankeyService) SearchFlows(ctx context.Context, datasetID uuid.UUID, query string) (*FlowCandidates, error) {
	rows, err := s.store.ListFlowRows(ctx, datasetID, lineitem.FlowFilter{})
	if err != nil {
		return nil, err
	}

	terms := ExpandQuery(query)
	categories := map[string]bool{}
	programs := map[string]bool{}
	for _, row := range rows {
		category := row.Category()
		if matchesAny(category, terms) {
			categories[category] = true
		}
		if matchesAny(row.ProgramName, terms) {
			programs[row.ProgramName] = true
		}
	}

	out := &FlowCandidates{Categories: sortedKeys(categories), Programs: sortedKeys(programs)}
	return out, nil
}

// splitSearchTerms splits a "|||"-delimited multi-term query.
func splitSearchTerms(search string) []string {
	var terms []string
	for _, t := range strings.Split(search, "|||") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// filterFlowRows keeps rows whose category or program name matches any
// expanded search term. An empty search keeps everything.
func filterFlowRows(rows []lineitem.FlowRow, search string) []lineitem.FlowRow {
	raw := splitSearchTerms(search)
	if len(raw) == 0 {
		return rows
	}

	var terms []string
	for _, t := range raw {
		terms = append(terms, ExpandQuery(t)...)
	}

	out := rows[:0]
	for _, row := range rows {
		if matchesAny(row.Category(), terms) || matchesAny(row.ProgramName, terms) {
			out = append(out, row)
		}
	}
	return out
}

func matchesAny(text string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// topNames keeps the n highest-magnitude entries clearing the floor,
// ties broken by name for stable output.
func topNames(totals map[string]float64, n int) []string {
	var names []string
	for name, total := range totals {
		if math.Abs(total) >= flowFloor {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if totals[names[i]] != totals[names[j]] {
			return totals[names[i]] > totals[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func topIDs(totals map[int64]float64, n int) []int64 {
	var ids []int64
	for id, total := range totals {
		if math.Abs(total) >= flowFloor {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if totals[ids[i]] != totals[ids[j]] {
			return totals[ids[i]] > totals[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
