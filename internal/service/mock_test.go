package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/adapter/otel"
	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/dataset"
	"github.com/civicbudget/pbb-api/internal/domain/lineitem"
	"github.com/civicbudget/pbb-api/internal/domain/organization"
	"github.com/civicbudget/pbb-api/internal/domain/priority"
	"github.com/civicbudget/pbb-api/internal/domain/program"
	"github.com/civicbudget/pbb-api/internal/port/database"
)

// mockStore is an in-memory Store backed by plain fields. Reads return
// whatever the test seeded; writes go through the embedded mockTx.
type mockStore struct {
	dataset       *dataset.Dataset
	datasets      []dataset.Summary
	orgs          map[uuid.UUID]*organization.Organization
	priorities    []priority.Priority
	spending      map[int64]prioritySpendingRow
	bubbleRows    map[int64][]priority.ScoredCost
	factRows      []program.FactRow
	costRows      []program.Row
	programRows   []program.Row
	programTotal  int
	programScores []priority.ProgramScore
	flowRows      []lineitem.FlowRow
	totalCost     float64
	embedMatches  []database.EmbeddingMatch
	embedErr      error
	tx            *mockTx

	programsDeleted int
	scoredCostCalls int
}

type prioritySpendingRow struct {
	TotalCost    float64
	ProgramCount int
}

func newMockStore() *mockStore {
	return &mockStore{
		orgs:       map[uuid.UUID]*organization.Organization{},
		spending:   map[int64]prioritySpendingRow{},
		bubbleRows: map[int64][]priority.ScoredCost{},
		tx:         &mockTx{},
	}
}

func (m *mockStore) ListDatasets(ctx context.Context) ([]dataset.Summary, error) {
	return m.datasets, nil
}

func (m *mockStore) GetDataset(ctx context.Context, id uuid.UUID) (*dataset.Dataset, error) {
	if m.dataset == nil || m.dataset.ID != id {
		return nil, domain.ErrNotFound
	}
	return m.dataset, nil
}

func (m *mockStore) UpdateDataset(ctx context.Context, id uuid.UUID, req dataset.UpdateRequest) (*dataset.Dataset, error) {
	if m.dataset == nil || m.dataset.ID != id {
		return nil, domain.ErrNotFound
	}
	if req.Name != nil {
		m.dataset.Name = *req.Name
	}
	if req.Population != nil {
		m.dataset.Population = *req.Population
	}
	return m.dataset, nil
}

func (m *mockStore) DeleteDataset(ctx context.Context, id uuid.UUID) (int, error) {
	if m.dataset == nil || m.dataset.ID != id {
		return 0, domain.ErrNotFound
	}
	m.dataset = nil
	return m.programsDeleted, nil
}

func (m *mockStore) ListOrganizations(ctx context.Context) ([]organization.Organization, error) {
	out := []organization.Organization{}
	for _, o := range m.orgs {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockStore) GetOrganization(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (m *mockStore) CreateOrganization(ctx context.Context, req organization.CreateRequest) (*organization.Organization, error) {
	for _, o := range m.orgs {
		if o.Name == req.Name {
			return nil, domain.ErrConflict
		}
	}
	o := &organization.Organization{ID: uuid.New(), Name: req.Name}
	m.orgs[o.ID] = o
	return o, nil
}

func (m *mockStore) UpdateOrganization(ctx context.Context, id uuid.UUID, req organization.UpdateRequest) (*organization.Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if req.Name != nil {
		o.Name = *req.Name
	}
	return o, nil
}

func (m *mockStore) DeleteOrganization(ctx context.Context, id uuid.UUID) (string, error) {
	o, ok := m.orgs[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	delete(m.orgs, id)
	return o.Name, nil
}

func (m *mockStore) ListPrograms(ctx context.Context, datasetID uuid.UUID, f program.ListFilter) ([]program.Row, int, error) {
	return m.programRows, m.programTotal, nil
}

func (m *mockStore) GetProgramDetail(ctx context.Context, datasetID uuid.UUID, programID int64) (*program.Detail, error) {
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListProgramLineItems(ctx context.Context, datasetID uuid.UUID, programID int64) (string, []lineitem.LineItem, error) {
	return "", nil, nil
}

func (m *mockStore) ListLineItemTable(ctx context.Context, datasetID uuid.UUID, programID *int64) ([]lineitem.TableRow, error) {
	return nil, nil
}

func (m *mockStore) ListPriorities(ctx context.Context, datasetID uuid.UUID, group string) ([]priority.Priority, error) {
	if group == "" {
		return m.priorities, nil
	}
	var out []priority.Priority
	for _, p := range m.priorities {
		if p.Group == group {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) FindPriority(ctx context.Context, datasetID uuid.UUID, name string) (*priority.Priority, error) {
	for _, p := range m.priorities {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) PrioritySpending(ctx context.Context, datasetID uuid.UUID, priorityID int64) (float64, int, error) {
	row := m.spending[priorityID]
	return row.TotalCost, row.ProgramCount, nil
}

func (m *mockStore) ListPriorityBubbleRows(ctx context.Context, datasetID uuid.UUID, priorityID int64) ([]priority.ScoredCost, error) {
	return m.bubbleRows[priorityID], nil
}

func (m *mockStore) ListFactRows(ctx context.Context, datasetID uuid.UUID) ([]program.FactRow, error) {
	return m.factRows, nil
}

func (m *mockStore) ListCostRows(ctx context.Context, datasetID uuid.UUID) ([]program.Row, error) {
	return m.costRows, nil
}

func (m *mockStore) SumTotalCost(ctx context.Context, datasetID uuid.UUID) (float64, error) {
	return m.totalCost, nil
}

func (m *mockStore) ListScoredCosts(ctx context.Context, datasetID uuid.UUID) ([]priority.ScoredCost, error) {
	m.scoredCostCalls++
	var out []priority.ScoredCost
	for _, rows := range m.bubbleRows {
		out = append(out, rows...)
	}
	return out, nil
}

func (m *mockStore) ListProgramScores(ctx context.Context, datasetID uuid.UUID) ([]priority.ProgramScore, error) {
	return m.programScores, nil
}

func (m *mockStore) ListFlowRows(ctx context.Context, datasetID uuid.UUID, f lineitem.FlowFilter) ([]lineitem.FlowRow, error) {
	return m.flowRows, nil
}

func (m *mockStore) UpsertProgramEmbedding(ctx context.Context, datasetID uuid.UUID, programID int64, text string, vec []float32) error {
	m.tx.embeddings = append(m.tx.embeddings, text)
	return nil
}

func (m *mockStore) SearchEmbeddings(ctx context.Context, datasetID uuid.UUID, vec []float32, limit int) ([]database.EmbeddingMatch, error) {
	return m.embedMatches, m.embedErr
}

func (m *mockStore) BeginIngest(ctx context.Context) (database.IngestTx, error) {
	return m.tx, nil
}

func (m *mockStore) Ping(ctx context.Context) error { return nil }

// mockTx records every write of one ingestion run.
type mockTx struct {
	datasetName    string
	population     int
	orgID          *uuid.UUID
	programs       []program.Program
	costs          map[int64]program.Cost
	orgUnits       []lineitem.OrgUnit
	lineItems      []lineitem.LineItem
	scoreUpdates   map[int64]program.ScoreUpdate
	priorities     []priority.Priority
	priorityScores []priority.Score
	attributes     map[int64]program.Attributes
	embeddings     []string
	committed      bool
	rolledBack     bool
}

const mockDatasetID = "6b9a2a6e-4f7d-4a6e-9a3f-1c2d3e4f5a6b"

func (t *mockTx) CreateDataset(ctx context.Context, name string, population int, orgID *uuid.UUID) (uuid.UUID, error) {
	t.datasetName = name
	t.population = population
	t.orgID = orgID
	return uuid.MustParse(mockDatasetID), nil
}

func (t *mockTx) InsertProgram(ctx context.Context, p *program.Program) (int64, error) {
	id := int64(100 + len(t.programs) + 1)
	p.ID = id
	t.programs = append(t.programs, *p)
	return id, nil
}

func (t *mockTx) InsertProgramWithID(ctx context.Context, p *program.Program) error {
	t.programs = append(t.programs, *p)
	return nil
}

func (t *mockTx) InsertProgramCost(ctx context.Context, datasetID uuid.UUID, programID int64, c program.Cost) error {
	if t.costs == nil {
		t.costs = map[int64]program.Cost{}
	}
	t.costs[programID] = c
	return nil
}

func (t *mockTx) InsertOrgUnit(ctx context.Context, u *lineitem.OrgUnit) (int64, error) {
	id := int64(len(t.orgUnits) + 1)
	u.ID = id
	t.orgUnits = append(t.orgUnits, *u)
	return id, nil
}

func (t *mockTx) InsertLineItem(ctx context.Context, li *lineitem.LineItem) error {
	t.lineItems = append(t.lineItems, *li)
	return nil
}

func (t *mockTx) UpdateProgramScores(ctx context.Context, datasetID uuid.UUID, programID int64, u program.ScoreUpdate) (bool, error) {
	if t.scoreUpdates == nil {
		t.scoreUpdates = map[int64]program.ScoreUpdate{}
	}
	t.scoreUpdates[programID] = u
	return true, nil
}

func (t *mockTx) InsertPriority(ctx context.Context, p *priority.Priority) (int64, error) {
	id := int64(len(t.priorities) + 1)
	p.ID = id
	t.priorities = append(t.priorities, *p)
	return id, nil
}

func (t *mockTx) InsertPriorityScore(ctx context.Context, s *priority.Score) error {
	t.priorityScores = append(t.priorityScores, *s)
	return nil
}

func (t *mockTx) InsertAttributes(ctx context.Context, datasetID uuid.UUID, programID int64, a program.Attributes) error {
	if t.attributes == nil {
		t.attributes = map[int64]program.Attributes{}
	}
	t.attributes[programID] = a
	return nil
}

func (t *mockTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *mockTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

// mockEmbedder returns canned vectors.
type mockEmbedder struct {
	enabled bool
	vecs    [][]float32
	err     error
	calls   int
}

func (e *mockEmbedder) Enabled() bool { return e.enabled }

func (e *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if e.vecs != nil {
		return e.vecs, nil
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func testIngestService(t *testing.T, store database.Store) *IngestService {
	t.Helper()
	metrics, err := otel.NewMetrics()
	if err != nil {
		t.Fatal(err)
	}
	return NewIngestService(store, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)
}

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }
