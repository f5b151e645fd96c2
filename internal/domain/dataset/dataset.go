// Package dataset defines the Dataset domain entity, the ownership root
// for all ingested budget data.
package dataset

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain"
)

// DefaultPopulation is used when an upload does not supply a population.
const DefaultPopulation = 75000

// Dataset represents one uploaded budget snapshot. Deleting a dataset
// cascades to every dependent row.
type Dataset struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Population     int        `json:"population"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Summary is the listing projection with a derived program count.
type Summary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	ProgramCount int       `json:"program_count"`
}

// UpdateRequest holds a partial dataset update. Nil fields are left unchanged.
type UpdateRequest struct {
	Name           *string    `json:"name"`
	Population     *int       `json:"population"`
	OrganizationID *uuid.UUID `json:"organization_id"`
}

// Validate checks the update fields that carry constraints.
func (r UpdateRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return fmt.Errorf("%w: name must not be empty", domain.ErrValidation)
	}
	if r.Population != nil && *r.Population <= 0 {
		return fmt.Errorf("%w: population must be greater than 0", domain.ErrValidation)
	}
	return nil
}

// IngestCounts reports per-table row counts produced by one ingestion run.
type IngestCounts struct {
	Programs        int `json:"programs,omitempty"`
	ProgramCosts    int `json:"program_costs,omitempty"`
	OrgUnits        int `json:"org_units,omitempty"`
	LineItems       int `json:"line_items,omitempty"`
	ProgramsUpdated int `json:"programs_updated,omitempty"`
	Priorities      int `json:"priorities,omitempty"`
	PriorityScores  int `json:"priority_scores,omitempty"`
	Attributes      int `json:"attributes,omitempty"`
}

// IngestResult is the outcome of a successful ingestion.
type IngestResult struct {
	DatasetID  uuid.UUID    `json:"dataset_id"`
	Population int          `json:"population"`
	Counts     IngestCounts `json:"counts"`
	Success    bool         `json:"success"`
}
