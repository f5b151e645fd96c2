package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain/dataset"
	"github.com/civicbudget/pbb-api/internal/domain/organization"
	"github.com/civicbudget/pbb-api/internal/port/database"
)

// DatasetService covers the dataset read and admin operations.
type DatasetService struct {
	store database.Store
}

func NewDatasetService(store database.Store) *DatasetService {
	return &DatasetService{store: store}
}

func (s *DatasetService) List(ctx context.Context) ([]dataset.Summary, error) {
	out, err := s.store.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []dataset.Summary{}
	}
	return out, nil
}

func (s *DatasetService) Get(ctx context.Context, id uuid.UUID) (*dataset.Dataset, error) {
	return s.store.GetDataset(ctx, id)
}

func (s *DatasetService) Update(ctx context.Context, id uuid.UUID, req dataset.UpdateRequest) (*dataset.Dataset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpdateDataset(ctx, id, req)
}

// DeleteResult is the dataset deletion response.
type DeleteResult struct {
	Message         string    `json:"message"`
	DatasetID       uuid.UUID `json:"dataset_id"`
	DatasetName     string    `json:"dataset_name"`
	ProgramsDeleted int       `json:"programs_deleted"`
	Success         bool      `json:"success"`
}

// Delete removes a dataset; the schema cascades to every dependent row.
func (s *DatasetService) Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	ds, err := s.store.GetDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	programsDeleted, err := s.store.DeleteDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DeleteResult{
		Message:         fmt.Sprintf("Dataset '%s' deleted successfully", ds.Name),
		DatasetID:       id,
		DatasetName:     ds.Name,
		ProgramsDeleted: programsDeleted,
		Success:         true,
	}, nil
}

// Features returns the dataset's analytical feature flags: the owning
// organization's when there is one, all-enabled otherwise.
func (s *DatasetService) Features(ctx context.Context, id uuid.UUID) (organization.FeatureFlags, error) {
	ds, err := s.store.GetDataset(ctx, id)
	if err != nil {
		return organization.FeatureFlags{}, err
	}
	if ds.OrganizationID == nil {
		return organization.DefaultFeatureFlags(), nil
	}
	org, err := s.store.GetOrganization(ctx, *ds.OrganizationID)
	if err != nil {
		return organization.FeatureFlags{}, err
	}
	return organization.FeatureFlags{
		ShowPriorities:        org.ShowPriorities,
		ShowTaxpayerDividend:  org.ShowTaxpayerDividend,
		ShowStrategicOverview: org.ShowStrategicOverview,
	}, nil
}
