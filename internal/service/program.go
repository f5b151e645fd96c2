package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/domain/lineitem"
	"github.com/civicbudget/pbb-api/internal/domain/program"
	"github.com/civicbudget/pbb-api/internal/port/database"
)

// maxPageLimit caps the paginated program listing.
const maxPageLimit = 500

// flatListLimit bounds the unpaginated treemap listing. Real datasets
// hold a few hundred programs.
const flatListLimit = 10000

// ProgramService covers the public program and line-item reads.
type ProgramService struct {
	store database.Store
}

func NewProgramService(store database.Store) *ProgramService {
	return &ProgramService{store: store}
}

// ProgramPage is the paginated listing response.
type ProgramPage struct {
	Programs []program.Row `json:"programs"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	Limit    int           `json:"limit"`
	Pages    int           `json:"pages"`
}

// List returns one page of programs ordered by total cost.
func (s *ProgramService) List(ctx context.Context, datasetID uuid.UUID, f program.ListFilter) (*ProgramPage, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}

	rows, total, err := s.store.ListPrograms(ctx, datasetID, f)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []program.Row{}
	}
	return &ProgramPage{
		Programs: rows,
		Total:    total,
		Page:     f.Page,
		Limit:    f.Limit,
		Pages:    (total + f.Limit - 1) / f.Limit,
	}, nil
}

// FlatProgram is the treemap projection: every program with its
// department and priority scores inlined.
type FlatProgram struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	ServiceType    string         `json:"service_type"`
	UserGroup      string         `json:"user_group"`
	Quartile       string         `json:"quartile"`
	FinalScore     *float64       `json:"final_score"`
	TotalCost      float64        `json:"total_cost"`
	Personnel      float64        `json:"personnel"`
	NonPersonnel   float64        `json:"nonpersonnel"`
	Revenue        float64        `json:"revenue"`
	FTE            float64        `json:"fte"`
	Department     string         `json:"department"`
	CofSection     string         `json:"cof_section"`
	PriorityScores map[string]int `json:"priority_scores"`
}

// ListFlat returns every matching program without pagination, each
// carrying a priority-name-to-score map keyed like "community_safety".
func (s *ProgramService) ListFlat(ctx context.Context, datasetID uuid.UUID, f program.ListFilter) ([]FlatProgram, error) {
	f.Page = 1
	f.Limit = flatListLimit

	rows, _, err := s.store.ListPrograms(ctx, datasetID, f)
	if err != nil {
		return nil, err
	}
	scores, err := s.store.ListProgramScores(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	scoresByProgram := map[int64]map[string]int{}
	for _, sc := range scores {
		if sc.ScoreInt == nil {
			continue
		}
		m, ok := scoresByProgram[sc.ProgramID]
		if !ok {
			m = map[string]int{}
			scoresByProgram[sc.ProgramID] = m
		}
		m[priorityKey(sc.PriorityName)] = *sc.ScoreInt
	}

	out := make([]FlatProgram, 0, len(rows))
	for _, row := range rows {
		department := row.UserGroup
		if department == "" {
			department = "Other"
		}
		ps := scoresByProgram[row.ID]
		if ps == nil {
			ps = map[string]int{}
		}
		out = append(out, FlatProgram{
			ID:             row.ID,
			Name:           row.Name,
			Description:    row.Description,
			ServiceType:    row.ServiceType,
			UserGroup:      row.UserGroup,
			Quartile:       row.Quartile,
			FinalScore:     row.FinalScore,
			TotalCost:      row.TotalCost,
			Personnel:      row.Personnel,
			NonPersonnel:   row.NonPersonnel,
			Revenue:        row.Revenue,
			FTE:            row.FTE,
			Department:     department,
			CofSection:     department,
			PriorityScores: ps,
		})
	}
	return out, nil
}

// priorityKey turns "Community Safety" into "community_safety".
func priorityKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

func (s *ProgramService) Detail(ctx context.Context, datasetID uuid.UUID, programID int64) (*program.Detail, error) {
	return s.store.GetProgramDetail(ctx, datasetID, programID)
}

// ProgramLineItems is the per-program line item listing.
type ProgramLineItems struct {
	ProgramID   int64               `json:"program_id"`
	ProgramName string              `json:"program_name"`
	LineItems   []lineitem.LineItem `json:"line_items"`
	TotalItems  int                 `json:"total_items"`
}

func (s *ProgramService) LineItems(ctx context.Context, datasetID uuid.UUID, programID int64) (*ProgramLineItems, error) {
	name, items, err := s.store.ListProgramLineItems(ctx, datasetID, programID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []lineitem.LineItem{}
	}
	return &ProgramLineItems{
		ProgramID:   programID,
		ProgramName: name,
		LineItems:   items,
		TotalItems:  len(items),
	}, nil
}

// LineItemTable is the tables/line-items response.
type LineItemTable struct {
	LineItems []lineitem.TableRow `json:"line_items"`
}

func (s *ProgramService) Table(ctx context.Context, datasetID uuid.UUID, programID *int64) (*LineItemTable, error) {
	rows, err := s.store.ListLineItemTable(ctx, datasetID, programID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []lineitem.TableRow{}
	}
	return &LineItemTable{LineItems: rows}, nil
}
