package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/organization"
	"github.com/civicbudget/pbb-api/internal/port/database"
)

// OrganizationService covers the admin-gated organization CRUD.
type OrganizationService struct {
	store database.Store
}

func NewOrganizationService(store database.Store) *OrganizationService {
	return &OrganizationService{store: store}
}

func (s *OrganizationService) List(ctx context.Context) ([]organization.Organization, error) {
	out, err := s.store.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []organization.Organization{}
	}
	return out, nil
}

func (s *OrganizationService) Get(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	return s.store.GetOrganization(ctx, id)
}

func (s *OrganizationService) Create(ctx context.Context, req organization.CreateRequest) (*organization.Organization, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateOrganization(ctx, req)
}

func (s *OrganizationService) Update(ctx context.Context, id uuid.UUID, req organization.UpdateRequest) (*organization.Organization, error) {
	if req.Name != nil && *req.Name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", domain.ErrValidation)
	}
	return s.store.UpdateOrganization(ctx, id, req)
}

// OrgDeleteResult is the organization deletion response. Owned
// datasets survive with their organization link cleared.
type OrgDeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *OrganizationService) Delete(ctx context.Context, id uuid.UUID) (*OrgDeleteResult, error) {
	name, err := s.store.DeleteOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OrgDeleteResult{
		Success: true,
		Message: fmt.Sprintf("Organization '%s' deleted successfully", name),
	}, nil
}
