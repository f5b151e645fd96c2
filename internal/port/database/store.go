// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain/dataset"
	"github.com/civicbudget/pbb-api/internal/domain/lineitem"
	"github.com/civicbudget/pbb-api/internal/domain/organization"
	"github.com/civicbudget/pbb-api/internal/domain/priority"
	"github.com/civicbudget/pbb-api/internal/domain/program"
)

// Store is the port interface for database operations.
type Store interface {
	// Datasets
	ListDatasets(ctx context.Context) ([]dataset.Summary, error)
	GetDataset(ctx context.Context, id uuid.UUID) (*dataset.Dataset, error)
	UpdateDataset(ctx context.Context, id uuid.UUID, req dataset.UpdateRequest) (*dataset.Dataset, error)
	DeleteDataset(ctx context.Context, id uuid.UUID) (programsDeleted int, err error)

	// Organizations
	ListOrganizations(ctx context.Context) ([]organization.Organization, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*organization.Organization, error)
	CreateOrganization(ctx context.Context, req organization.CreateRequest) (*organization.Organization, error)
	UpdateOrganization(ctx context.Context, id uuid.UUID, req organization.UpdateRequest) (*organization.Organization, error)
	DeleteOrganization(ctx context.Context, id uuid.UUID) (name string, err error)

	// Programs and line items
	ListPrograms(ctx context.Context, datasetID uuid.UUID, f program.ListFilter) ([]program.Row, int, error)
	GetProgramDetail(ctx context.Context, datasetID uuid.UUID, programID int64) (*program.Detail, error)
	ListProgramLineItems(ctx context.Context, datasetID uuid.UUID, programID int64) (string, []lineitem.LineItem, error)
	ListLineItemTable(ctx context.Context, datasetID uuid.UUID, programID *int64) ([]lineitem.TableRow, error)

	// Analytics projections
	ListPriorities(ctx context.Context, datasetID uuid.UUID, group string) ([]priority.Priority, error)
	FindPriority(ctx context.Context, datasetID uuid.UUID, name string) (*priority.Priority, error)
	PrioritySpending(ctx context.Context, datasetID uuid.UUID, priorityID int64) (totalCost float64, programCount int, err error)
	ListPriorityBubbleRows(ctx context.Context, datasetID uuid.UUID, priorityID int64) ([]priority.ScoredCost, error)
	ListFactRows(ctx context.Context, datasetID uuid.UUID) ([]program.FactRow, error)
	ListCostRows(ctx context.Context, datasetID uuid.UUID) ([]program.Row, error)
	SumTotalCost(ctx context.Context, datasetID uuid.UUID) (float64, error)
	ListScoredCosts(ctx context.Context, datasetID uuid.UUID) ([]priority.ScoredCost, error)
	ListProgramScores(ctx context.Context, datasetID uuid.UUID) ([]priority.ProgramScore, error)
	ListFlowRows(ctx context.Context, datasetID uuid.UUID, f lineitem.FlowFilter) ([]lineitem.FlowRow, error)

	// Embeddings (optional semantic search)
	UpsertProgramEmbedding(ctx context.Context, datasetID uuid.UUID, programID int64, text string, vec []float32) error
	SearchEmbeddings(ctx context.Context, datasetID uuid.UUID, vec []float32, limit int) ([]EmbeddingMatch, error)

	// Ingestion
	BeginIngest(ctx context.Context) (IngestTx, error)

	// Health
	Ping(ctx context.Context) error
}

// EmbeddingMatch is one semantic-search hit.
type EmbeddingMatch struct {
	ProgramID  int64
	Similarity float64
}

// IngestTx is a single ingestion transaction. All writes of one upload
// go through one IngestTx; Rollback after Commit is a no-op.
type IngestTx interface {
	CreateDataset(ctx context.Context, name string, population int, orgID *uuid.UUID) (uuid.UUID, error)
	InsertProgram(ctx context.Context, p *program.Program) (int64, error)
	InsertProgramWithID(ctx context.Context, p *program.Program) error
	InsertProgramCost(ctx context.Context, datasetID uuid.UUID, programID int64, c program.Cost) error
	InsertOrgUnit(ctx context.Context, u *lineitem.OrgUnit) (int64, error)
	InsertLineItem(ctx context.Context, li *lineitem.LineItem) error
	UpdateProgramScores(ctx context.Context, datasetID uuid.UUID, programID int64, u program.ScoreUpdate) (bool, error)
	InsertPriority(ctx context.Context, p *priority.Priority) (int64, error)
	InsertPriorityScore(ctx context.Context, s *priority.Score) error
	InsertAttributes(ctx context.Context, datasetID uuid.UUID, programID int64, a program.Attributes) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
