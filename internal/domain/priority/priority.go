// Package priority defines policy priorities and program alignment scores.
package priority

import (
	"fmt"

	"github.com/google/uuid"
)

// Priority groups.
const (
	GroupCommunity  = "Community"
	GroupGovernance = "Governance"
)

// Priority is a named policy dimension derived per-dataset from the
// uploaded Scores file.
type Priority struct {
	ID        int64     `json:"id"`
	DatasetID uuid.UUID `json:"dataset_id"`
	Name      string    `json:"name"`
	Group     string    `json:"group"`
}

// Score is a Program x Priority alignment score, 0-4 plus a label.
type Score struct {
	ID         int64     `json:"id"`
	DatasetID  uuid.UUID `json:"dataset_id"`
	ProgramID  int64     `json:"program_id"`
	PriorityID int64     `json:"priority_id"`
	ScoreInt   *int      `json:"score_int"`
	ScoreLabel string    `json:"score_label"`
}

// ScoreLabel converts a 0-4 score to its fixed descriptive label.
func ScoreLabel(score int) string {
	switch score {
	case 0:
		return "No Alignment (0)"
	case 1:
		return "Low Alignment (1)"
	case 2:
		return "Medium Alignment (2)"
	case 3:
		return "High Alignment (3)"
	case 4:
		return "Very High Alignment (4)"
	default:
		return fmt.Sprintf("Score: %d", score)
	}
}

// Weight maps an alignment score to its cost-attribution multiplier.
func Weight(score int) float64 {
	switch score {
	case 1:
		return 0.25
	case 2:
		return 0.5
	case 3, 4:
		return 1.0
	default:
		return 0.0
	}
}

// ScoredCost is the dividend-calculation projection: one row per
// priority score joined with its program and cost record.
type ScoredCost struct {
	PriorityID  int64
	ProgramID   int64
	ProgramName string
	Description string
	ServiceType string
	TotalCost   float64
	ScoreInt    *int
	ScoreLabel  string
}

// ProgramScore is a per-program score with its priority identity, used
// by the treemap listing and the sankey priority layer.
type ProgramScore struct {
	ProgramID    int64
	PriorityName string
	Group        string
	ScoreInt     *int
}
