package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/priority"
	"github.com/civicbudget/pbb-api/internal/port/database"
)

// weightingNote documents the alignment weighting applied to every
// priority's cost attribution.
const weightingNote = "Costs weighted by alignment: 100% for scores 3-4, 50% for score 2, 25% for score 1, 0% for score 0"

// DividendService computes the taxpayer dividend report: per capita
// costs and priority value leverage for one dataset.
type DividendService struct {
	store database.Store
}

func NewDividendService(store database.Store) *DividendService {
	return &DividendService{store: store}
}

// DividendProgram is one aligned program within a priority breakdown.
type DividendProgram struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	TotalCost      float64 `json:"total_cost"`
	WeightedCost   float64 `json:"weighted_cost"`
	PerCapitaCost  float64 `json:"per_capita_cost"`
	AlignmentScore *int    `json:"alignment_score"`
	AlignmentLabel string  `json:"alignment_label"`
}

// DividendPriority is the per-priority breakdown.
type DividendPriority struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Group         string            `json:"group"`
	TotalCost     float64           `json:"total_cost"`
	PerCapitaCost float64           `json:"per_capita_cost"`
	ProgramCount  int               `json:"program_count"`
	AvgAlignment  float64           `json:"avg_alignment"`
	Programs      []DividendProgram `json:"programs"`
	WeightingNote string            `json:"weighting_note"`
}

// DividendGroup collects the priorities of one group with their
// combined per capita cost.
type DividendGroup struct {
	TotalPerCapita float64            `json:"total_per_capita"`
	Priorities     []DividendPriority `json:"priorities"`
}

// DividendReport is the taxpayer dividend response.
type DividendReport struct {
	DatasetID            uuid.UUID     `json:"dataset_id"`
	DatasetName          string        `json:"dataset_name"`
	Population           int           `json:"population"`
	TotalBudget          float64       `json:"total_budget"`
	PerCapitaTotal       float64       `json:"per_capita_total"`
	LeverageRatio        float64       `json:"leverage_ratio"`
	TotalPriorityValue   float64       `json:"total_priority_value"`
	CommunityPriorities  DividendGroup `json:"community_priorities"`
	GovernancePriorities DividendGroup `json:"governance_priorities"`
}

// Compute builds the taxpayer dividend report. Costs attribute to
// priorities weighted by alignment score, and program counts and
// listings only include programs scoring 2 or above. The total
// priority value can exceed the per capita total because one program
// contributes to several priorities; their ratio is the leverage.
func (s *DividendService) Compute(ctx context.Context, datasetID uuid.UUID) (*DividendReport, error) {
	ds, err := s.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if ds.Population <= 0 {
		return nil, fmt.Errorf("%w: population must be greater than 0", domain.ErrValidation)
	}
	population := float64(ds.Population)

	totalBudget, err := s.store.SumTotalCost(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	perCapitaTotal := totalBudget / population

	priorities, err := s.store.ListPriorities(ctx, datasetID, "")
	if err != nil {
		return nil, err
	}

	// One dataset-wide query; grouped here instead of one query per
	// priority.
	scored, err := s.store.ListScoredCosts(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	byPriority := map[int64][]priority.ScoredCost{}
	for _, sc := range scored {
		byPriority[sc.PriorityID] = append(byPriority[sc.PriorityID], sc)
	}

	var breakdown []DividendPriority
	for _, p := range priorities {
		rows := byPriority[p.ID]
		if len(rows) == 0 {
			continue
		}

		var priorityTotalCost, weightedProgramCount float64
		var relevantScoreSum, relevantScoreCount int
		programs := []DividendProgram{}

		for _, row := range rows {
			score := 0
			if row.ScoreInt != nil {
				score = *row.ScoreInt
			}
			weight := priority.Weight(score)
			priorityTotalCost += row.TotalCost * weight

			if score < 2 {
				continue
			}
			weightedProgramCount += weight
			relevantScoreSum += score
			relevantScoreCount++

			weightedCost := row.TotalCost * weight
			programs = append(programs, DividendProgram{
				ID:             row.ProgramID,
				Name:           row.ProgramName,
				Description:    row.Description,
				TotalCost:      row.TotalCost,
				WeightedCost:   weightedCost,
				PerCapitaCost:  weightedCost / population,
				AlignmentScore: row.ScoreInt,
				AlignmentLabel: row.ScoreLabel,
			})
		}

		var avgAlignment float64
		if relevantScoreCount > 0 {
			avgAlignment = float64(relevantScoreSum) / float64(relevantScoreCount)
		}

		sort.Slice(programs, func(i, j int) bool {
			return programs[i].PerCapitaCost > programs[j].PerCapitaCost
		})

		breakdown = append(breakdown, DividendPriority{
			ID:            p.ID,
			Name:          p.Name,
			Group:         p.Group,
			TotalCost:     priorityTotalCost,
			PerCapitaCost: priorityTotalCost / population,
			ProgramCount:  int(weightedProgramCount),
			AvgAlignment:  round2(avgAlignment),
			Programs:      programs,
			WeightingNote: weightingNote,
		})
	}

	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].PerCapitaCost > breakdown[j].PerCapitaCost
	})

	community := DividendGroup{Priorities: []DividendPriority{}}
	governance := DividendGroup{Priorities: []DividendPriority{}}
	var totalPriorityValue float64
	for _, p := range breakdown {
		totalPriorityValue += p.PerCapitaCost
		if p.Group == priority.GroupCommunity {
			community.TotalPerCapita += p.PerCapitaCost
			community.Priorities = append(community.Priorities, p)
		} else {
			governance.TotalPerCapita += p.PerCapitaCost
			governance.Priorities = append(governance.Priorities, p)
		}
	}
	community.TotalPerCapita = round2(community.TotalPerCapita)
	governance.TotalPerCapita = round2(governance.TotalPerCapita)

	leverageRatio := 1.0
	if perCapitaTotal > 0 {
		leverageRatio = totalPriorityValue / perCapitaTotal
	}

	return &DividendReport{
		DatasetID:            datasetID,
		DatasetName:          ds.Name,
		Population:           ds.Population,
		TotalBudget:          totalBudget,
		PerCapitaTotal:       round2(perCapitaTotal),
		LeverageRatio:        round2(leverageRatio),
		TotalPriorityValue:   round2(totalPriorityValue),
		CommunityPriorities:  community,
		GovernancePriorities: governance,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
