package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/civicbudget/pbb-api/internal/adapter/excel"
	"github.com/civicbudget/pbb-api/internal/adapter/otel"
	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/dataset"
	"github.com/civicbudget/pbb-api/internal/domain/lineitem"
	"github.com/civicbudget/pbb-api/internal/domain/priority"
	"github.com/civicbudget/pbb-api/internal/domain/program"
	"github.com/civicbudget/pbb-api/internal/port/database"
)

// ingestYear is stamped on programs and line items until uploads carry
// their own budget year.
const ingestYear = 2025

// programsSheetNames are the accepted names for the costs file's
// program listing, tried in order.
var programsSheetNames = []string{"Programs", "Programs or Services"}

// IngestService turns uploaded workbook pairs into datasets. One
// upload runs in one transaction: structural problems abort the whole
// ingestion, row-level problems are logged and skipped.
type IngestService struct {
	store   database.Store
	log     *slog.Logger
	metrics *otel.Metrics
}

func NewIngestService(store database.Store, log *slog.Logger, metrics *otel.Metrics) *IngestService {
	return &IngestService{store: store, log: log, metrics: metrics}
}

// idMap is the external-to-internal program ID reconciliation built
// while reading the costs file and consulted for every scores-file
// row. It lives only for the duration of one ingestion.
type idMap map[int64]int64

// IngestMulti ingests a Program Costs workbook and a Program Scores
// workbook into a new dataset. Program rows get database-generated
// IDs; the spreadsheet's program_id column only links rows across the
// two files.
func (s *IngestService) IngestMulti(ctx context.Context, costsData, scoresData []byte, datasetName string, population int, orgID *uuid.UUID) (*dataset.IngestResult, error) {
	s.metrics.IngestsStarted.Add(ctx, 1)
	start := time.Now()

	result, err := s.ingestMulti(ctx, costsData, scoresData, datasetName, population, orgID)
	s.metrics.IngestDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.metrics.IngestsFailed.Add(ctx, 1)
		return nil, err
	}
	s.metrics.IngestsCompleted.Add(ctx, 1)
	s.metrics.RowsIngested.Add(ctx, int64(result.Counts.Programs+result.Counts.LineItems+result.Counts.PriorityScores))
	return result, nil
}

func (s *IngestService) ingestMulti(ctx context.Context, costsData, scoresData []byte, datasetName string, population int, orgID *uuid.UUID) (*dataset.IngestResult, error) {
	var costsWB, scoresWB *excel.Workbook
	var g errgroup.Group
	g.Go(func() error {
		var err error
		costsWB, err = excel.Open(costsData)
		if err != nil {
			return fmt.Errorf("costs file: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		scoresWB, err = excel.Open(scoresData)
		if err != nil {
			return fmt.Errorf("scores file: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	defer costsWB.Close()  //nolint:errcheck
	defer scoresWB.Close() //nolint:errcheck

	tx, err := s.store.BeginIngest(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	datasetID, err := tx.CreateDataset(ctx, datasetName, population, orgID)
	if err != nil {
		return nil, err
	}
	s.log.Info("dataset created", "dataset_id", datasetID, "name", datasetName, "population", population)

	counts := dataset.IngestCounts{}
	ids, err := s.processCostsFile(ctx, tx, datasetID, costsWB, &counts)
	if err != nil {
		return nil, err
	}
	if err := s.processScoresFile(ctx, tx, datasetID, scoresWB, ids, &counts); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	s.log.Info("multi-file ingestion complete", "dataset_id", datasetID,
		"programs", counts.Programs, "line_items", counts.LineItems, "priority_scores", counts.PriorityScores)

	return &dataset.IngestResult{
		DatasetID:  datasetID,
		Population: population,
		Counts:     counts,
		Success:    true,
	}, nil
}

// processCostsFile loads the Programs sheet and, when present, the
// Allocations_Cost sheet. It returns the external-to-internal ID map
// the scores pass depends on.
func (s *IngestService) processCostsFile(ctx context.Context, tx database.IngestTx, datasetID uuid.UUID, wb *excel.Workbook, counts *dataset.IngestCounts) (idMap, error) {
	sheet, ok := wb.Sheet(programsSheetNames...)
	if !ok {
		return nil, fmt.Errorf("%w: No Programs sheet found. Available sheets: %v. Expected one of: %v",
			domain.ErrValidation, wb.SheetNames(), programsSheetNames)
	}

	ids := idMap{}
	for i, row := range sheet.Rows() {
		externalID := row.IntPtr("program_id")
		if externalID == nil || *externalID == 0 {
			s.log.Warn("skipping program row without program_id", "row", i)
			continue
		}

		p := &program.Program{
			DatasetID:   datasetID,
			Name:        row.String("Program"),
			Description: row.String("Description"),
			FTE:         row.Float("FTE"),
			Year:        ingestYear,
		}
		id, err := tx.InsertProgram(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("program row %d: %w", i, err)
		}
		ids[int64(*externalID)] = id

		cost := program.Cost{
			Personnel:    row.Float("Personnel"),
			NonPersonnel: row.Float("NonPersonnel"),
			Revenue:      row.Float("Revenue"),
			TotalCost:    row.Float("Total Program Cost"),
		}
		if err := tx.InsertProgramCost(ctx, datasetID, id, cost); err != nil {
			return nil, fmt.Errorf("program cost row %d: %w", i, err)
		}
		counts.Programs++
		counts.ProgramCosts++
	}

	if alloc, ok := wb.Sheet("Allocations_Cost"); ok {
		if err := s.processAllocations(ctx, tx, datasetID, alloc, ids, counts); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// processAllocations creates org units from the distinct Division
// values and a line item per allocation row. Rows referencing an
// external program ID absent from the Programs sheet are dropped with
// a warning.
func (s *IngestService) processAllocations(ctx context.Context, tx database.IngestTx, datasetID uuid.UUID, sheet *excel.Sheet, ids idMap, counts *dataset.IngestCounts) error {
	orgUnits := map[string]int64{}
	if sheet.HasColumn("Division") {
		for _, row := range sheet.Rows() {
			division := row.String("Division")
			if division == "" {
				continue
			}
			if _, exists := orgUnits[division]; exists {
				continue
			}
			id, err := tx.InsertOrgUnit(ctx, &lineitem.OrgUnit{DatasetID: datasetID, Division: division})
			if err != nil {
				return fmt.Errorf("org unit %q: %w", division, err)
			}
			orgUnits[division] = id
		}
	} else {
		s.log.Info("no Division column in allocations, skipping org unit creation")
	}
	counts.OrgUnits = len(orgUnits)

	for i, row := range sheet.Rows() {
		externalID := row.IntPtr("program_id")
		if externalID == nil || *externalID == 0 {
			continue
		}
		programID, ok := ids[int64(*externalID)]
		if !ok {
			s.log.Warn("program not found in ID map, skipping line item", "external_program_id", *externalID, "row", i)
			continue
		}

		var orgUnitID *int64
		if id, ok := orgUnits[row.String("Division")]; ok {
			orgUnitID = &id
		}

		numItems := 1
		if n := row.IntPtr("NumberOfItems"); n != nil {
			numItems = *n
		}

		li := &lineitem.LineItem{
			DatasetID:     datasetID,
			ProgramID:     programID,
			OrgUnitID:     orgUnitID,
			CostType:      row.String("ObjectType"),
			AcctType:      row.String("Item Category 1"),
			AcctNumber:    row.String("Account Number"),
			Fund:          row.String("Fund"),
			ItemCat1:      row.String("Item Category 1"),
			ItemCat2:      row.String("Item Category 2"),
			NumItems:      numItems,
			TotalItemCost: row.Float("Total Item Cost"),
			AllocationPct: row.Float("Allocation"),
			Year:          ingestYear,
		}
		if err := tx.InsertLineItem(ctx, li); err != nil {
			return fmt.Errorf("line item row %d: %w", i, err)
		}
		counts.LineItems++
	}
	return nil
}

// processScoresFile backfills program fields from the Summary sheet
// and derives attributes, priorities and priority scores from the
// Score sheet. Both sheets are optional.
func (s *IngestService) processScoresFile(ctx context.Context, tx database.IngestTx, datasetID uuid.UUID, wb *excel.Workbook, ids idMap, counts *dataset.IngestCounts) error {
	if summary, ok := wb.Sheet("Summary"); ok {
		for i, row := range summary.Rows() {
			externalID := row.IntPtr("program_id")
			if externalID == nil || *externalID == 0 {
				continue
			}
			programID, ok := ids[int64(*externalID)]
			if !ok {
				s.log.Warn("program not found in ID map, skipping summary row", "external_program_id", *externalID, "row", i)
				continue
			}

			update := program.ScoreUpdate{
				ServiceType: row.String("ServiceType"),
				UserGroup:   row.First("Cost Center", "UserGroup", "User Group", "Department"),
				FinalScore:  row.FloatPtr("Final Score"),
				Quartile:    row.String("FinalQuartile"),
			}
			updated, err := tx.UpdateProgramScores(ctx, datasetID, programID, update)
			if err != nil {
				return fmt.Errorf("summary row %d: %w", i, err)
			}
			if updated {
				counts.ProgramsUpdated++
			}
		}
	}

	score, ok := wb.Sheet("Score")
	if !ok {
		return nil
	}
	if err := s.extractAttributes(ctx, tx, datasetID, score, ids, counts); err != nil {
		return err
	}
	return s.createPriorities(ctx, tx, datasetID, score, ids, counts)
}

// attributeFields maps the Score sheet's Result Abbr values to the
// five PBB attributes.
var attributeFields = map[string]func(*program.Attributes, *int){
	"Reliance":        func(a *program.Attributes, v *int) { a.Reliance = v },
	"Demand":          func(a *program.Attributes, v *int) { a.Demand = v },
	"Cost Recovery":   func(a *program.Attributes, v *int) { a.CostRecovery = v },
	"Mandate":         func(a *program.Attributes, v *int) { a.Mandate = v },
	"CapacitytoServe": func(a *program.Attributes, v *int) { a.PopulationServed = v },
}

func (s *IngestService) extractAttributes(ctx context.Context, tx database.IngestTx, datasetID uuid.UUID, sheet *excel.Sheet, ids idMap, counts *dataset.IngestCounts) error {
	attrs := map[int64]*program.Attributes{}
	var order []int64

	for _, row := range sheet.Rows() {
		externalID := row.IntPtr("program_id")
		resultAbbr := row.String("Result Abbr")
		if externalID == nil || *externalID == 0 || resultAbbr == "" {
			continue
		}
		set, ok := attributeFields[resultAbbr]
		if !ok {
			continue
		}

		ext := int64(*externalID)
		a, exists := attrs[ext]
		if !exists {
			a = &program.Attributes{}
			attrs[ext] = a
			order = append(order, ext)
		}
		set(a, row.IntPtr("Final Score"))
	}

	for _, ext := range order {
		programID, ok := ids[ext]
		if !ok {
			s.log.Warn("program not found in ID map, skipping attributes", "external_program_id", ext)
			continue
		}
		if err := tx.InsertAttributes(ctx, datasetID, programID, *attrs[ext]); err != nil {
			return fmt.Errorf("attributes for program %d: %w", programID, err)
		}
		counts.Attributes++
	}
	return nil
}

// createPriorities derives the priority dimensions from the distinct
// (Result Abbr, Result Type) pairs and records one score per
// qualifying row. Rows whose Result Type is neither Community nor
// Governance are board-approved metrics, not priorities, and are
// filtered out.
func (s *IngestService) createPriorities(ctx context.Context, tx database.IngestTx, datasetID uuid.UUID, sheet *excel.Sheet, ids idMap, counts *dataset.IngestCounts) error {
	priorityIDs := map[string]int64{}
	for _, row := range sheet.Rows() {
		name := row.String("Result Abbr")
		group := row.String("Result Type")
		if name == "" || (group != priority.GroupCommunity && group != priority.GroupGovernance) {
			continue
		}
		if _, exists := priorityIDs[name]; exists {
			continue
		}
		id, err := tx.InsertPriority(ctx, &priority.Priority{DatasetID: datasetID, Name: name, Group: group})
		if err != nil {
			return fmt.Errorf("priority %q: %w", name, err)
		}
		priorityIDs[name] = id
		counts.Priorities++
		s.log.Info("created priority", "name", name, "group", group)
	}

	for i, row := range sheet.Rows() {
		group := row.String("Result Type")
		if group != priority.GroupCommunity && group != priority.GroupGovernance {
			continue
		}
		externalID := row.IntPtr("program_id")
		name := row.String("Result Abbr")
		if externalID == nil || *externalID == 0 || name == "" {
			continue
		}
		programID, ok := ids[int64(*externalID)]
		if !ok {
			continue
		}
		priorityID, ok := priorityIDs[name]
		if !ok {
			continue
		}
		scoreInt := row.IntPtr("Final Score")
		if scoreInt == nil {
			continue
		}

		sc := &priority.Score{
			DatasetID:  datasetID,
			ProgramID:  programID,
			PriorityID: priorityID,
			ScoreInt:   scoreInt,
			ScoreLabel: priority.ScoreLabel(*scoreInt),
		}
		if err := tx.InsertPriorityScore(ctx, sc); err != nil {
			return fmt.Errorf("priority score row %d: %w", i, err)
		}
		counts.PriorityScores++
	}
	return nil
}
