package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain/program"
	"github.com/civicbudget/pbb-api/internal/port/database"
)

// Relevance tiers for keyword search.
const (
	relevanceExact     = 100
	relevanceWord      = 50
	relevanceExpansion = 25
)

// semanticFloor is the minimum cosine similarity for an embedding hit.
const semanticFloor = 0.3

// Embedder is the optional embedding capability behind semantic
// search. Enabled reports whether the backing service is configured;
// search degrades to keywords only when it is not.
type Embedder interface {
	Enabled() bool
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// SearchService resolves free-text queries against programs using the
// keyword expansion table, optionally merged with embedding hits.
type SearchService struct {
	store    database.Store
	embedder Embedder
}

func NewSearchService(store database.Store, embedder Embedder) *SearchService {
	return &SearchService{store: store, embedder: embedder}
}

// SearchHit is one matched program.
type SearchHit struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ServiceType string  `json:"service_type"`
	UserGroup   string  `json:"user_group"`
	TotalCost   float64 `json:"total_cost"`
	Relevance   int     `json:"relevance"`
	MatchType   string  `json:"match_type"`
}

// SearchResults is the program-search response.
type SearchResults struct {
	Query         string      `json:"query"`
	ExpandedTerms []string    `json:"expanded_terms"`
	Results       []SearchHit `json:"results"`
	Total         int         `json:"total"`
}

// Search matches the query against program name, description, service
// type and user group. The raw query scores 100, a query word of three
// or more characters 50, and a keyword-expansion term 25. Results sort
// by relevance then cost, both descending.
func (s *SearchService) Search(ctx context.Context, datasetID uuid.UUID, query string, limit int) (*SearchResults, error) {
	if limit <= 0 {
		limit = 50
	}

	q := strings.ToLower(strings.TrimSpace(query))
	terms := ExpandQuery(query)
	out := &SearchResults{Query: query, ExpandedTerms: terms, Results: []SearchHit{}}
	if q == "" {
		return out, nil
	}

	var words []string
	for _, w := range strings.Fields(q) {
		if len(w) >= 3 {
			words = append(words, w)
		}
	}

	rows, err := s.store.ListFactRows(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	seen := map[int64]bool{}
	for _, row := range rows {
		if seen[row.ID] {
			continue
		}
		seen[row.ID] = true

		text := strings.ToLower(row.Name + " " + row.Description + " " + row.ServiceType + " " + row.UserGroup)
		relevance, matchType := scoreMatch(text, q, words, terms)
		if relevance == 0 {
			continue
		}
		out.Results = append(out.Results, searchHit(row, relevance, matchType))
	}

	s.mergeSemanticHits(ctx, datasetID, q, rows, out)

	sort.Slice(out.Results, func(i, j int) bool {
		if out.Results[i].Relevance != out.Results[j].Relevance {
			return out.Results[i].Relevance > out.Results[j].Relevance
		}
		return out.Results[i].TotalCost > out.Results[j].TotalCost
	})
	if len(out.Results) > limit {
		out.Results = out.Results[:limit]
	}
	out.Total = len(out.Results)
	return out, nil
}

// scoreMatch grades one program text against the query tiers.
func scoreMatch(text, query string, words, terms []string) (int, string) {
	if strings.Contains(text, query) {
		return relevanceExact, "exact"
	}
	for _, w := range words {
		if strings.Contains(text, w) {
			return relevanceWord, "word"
		}
	}
	for _, t := range terms {
		if t != query && strings.Contains(text, t) {
			return relevanceExpansion, "expansion"
		}
	}
	return 0, ""
}

// mergeSemanticHits adds embedding matches the keyword pass missed.
// Any embedding failure leaves the keyword results untouched.
func (s *SearchService) mergeSemanticHits(ctx context.Context, datasetID uuid.UUID, query string,
	rows []program.FactRow, out *SearchResults) {

	if s.embedder == nil || !s.embedder.Enabled() {
		return
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		return
	}
	matches, err := s.store.SearchEmbeddings(ctx, datasetID, vecs[0], 10)
	if err != nil {
		return
	}

	matched := map[int64]bool{}
	for _, hit := range out.Results {
		matched[hit.ID] = true
	}

	byID := map[int64]program.FactRow{}
	for _, row := range rows {
		if _, ok := byID[row.ID]; !ok {
			byID[row.ID] = row
		}
	}

	for _, m := range matches {
		if m.Similarity < semanticFloor || matched[m.ProgramID] {
			continue
		}
		row, ok := byID[m.ProgramID]
		if !ok {
			continue
		}
		out.Results = append(out.Results, searchHit(row, int(m.Similarity*relevanceWord), "semantic"))
	}
}

func searchHit(row program.FactRow, relevance int, matchType string) SearchHit {
	return SearchHit{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		ServiceType: row.ServiceType,
		UserGroup:   row.UserGroup,
		TotalCost:   row.TotalCost,
		Relevance:   relevance,
		MatchType:   matchType,
	}
}
