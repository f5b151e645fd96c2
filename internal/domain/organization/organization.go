// Package organization defines the Organization domain entity and its
// feature flags.
package organization

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain"
)

// Organization owns zero or more datasets and gates which analytical
// views are exposed for them.
type Organization struct {
	ID                    uuid.UUID        `json:"id"`
	Name                  string           `json:"name"`
	ShowPriorities        bool             `json:"show_priorities"`
	ShowTaxpayerDividend  bool             `json:"show_taxpayer_dividend"`
	ShowStrategicOverview bool             `json:"show_strategic_overview"`
	CreatedAt             time.Time        `json:"created_at"`
	Datasets              []DatasetSummary `json:"datasets"`
}

// DatasetSummary is the dataset projection embedded in organization responses.
type DatasetSummary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Population int       `json:"population"`
	CreatedAt  time.Time `json:"created_at"`
}

// FeatureFlags are the three booleans that gate analytical views.
// Datasets without an owning organization get all flags enabled.
type FeatureFlags struct {
	ShowPriorities        bool `json:"show_priorities"`
	ShowTaxpayerDividend  bool `json:"show_taxpayer_dividend"`
	ShowStrategicOverview bool `json:"show_strategic_overview"`
}

// DefaultFeatureFlags returns the all-enabled flags for standalone datasets.
func DefaultFeatureFlags() FeatureFlags {
	return FeatureFlags{
		ShowPriorities:        true,
		ShowTaxpayerDividend:  true,
		ShowStrategicOverview: true,
	}
}

// CreateRequest holds the fields needed to create an organization.
// The flag pointers default to true when omitted.
type CreateRequest struct {
	Name                  string `json:"name"`
	ShowPriorities        *bool  `json:"show_priorities"`
	ShowTaxpayerDividend  *bool  `json:"show_taxpayer_dividend"`
	ShowStrategicOverview *bool  `json:"show_strategic_overview"`
}

// Validate checks required create fields.
func (r CreateRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	return nil
}

// UpdateRequest holds a partial organization update.
type UpdateRequest struct {
	Name                  *string `json:"name"`
	ShowPriorities        *bool   `json:"show_priorities"`
	ShowTaxpayerDividend  *bool   `json:"show_taxpayer_dividend"`
	ShowStrategicOverview *bool   `json:"show_strategic_overview"`
}
