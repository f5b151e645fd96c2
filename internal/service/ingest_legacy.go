package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/civicbudget/pbb-api/internal/adapter/excel"
	"github.com/civicbudget/pbb-api/internal/domain"
	"github.com/civicbudget/pbb-api/internal/domain/dataset"
	"github.com/civicbudget/pbb-api/internal/domain/lineitem"
	"github.com/civicbudget/pbb-api/internal/domain/priority"
	"github.com/civicbudget/pbb-api/internal/domain/program"
	"github.com/civicbudget/pbb-api/internal/port/database"
)

// legacyPriorityColumns are the fixed priority columns of the legacy
// single-file layout. Real exports write "Community Development " with
// a trailing space; header trimming in the excel adapter absorbs it.
var legacyPriorityColumns = []struct {
	Column string
	Group  string
}{
	{"Community Safety", priority.GroupCommunity},
	{"Community Development", priority.GroupCommunity},
	{"Infrastructure & Asset Management", priority.GroupCommunity},
	{"Sustainable Community", priority.GroupCommunity},
	{"Quality of Place", priority.GroupCommunity},
	{"Responsible Government", priority.GroupGovernance},
	{"Fiscal Stewardship", priority.GroupGovernance},
}

// legacyAttributeColumns are the attribute label columns of the
// Details sheet.
var legacyAttributeColumns = []string{"Reliance", "Population Served", "Demand", "Cost Recovery", "Mandate"}

// IngestLegacy ingests the original single-workbook layout: a
// "Programs Inventory" sheet carrying program identity, scores and
// costs, and a "Details" sheet carrying line items, org units, the
// seven fixed priority columns and attribute labels. Unlike the
// multi-file path, program IDs come verbatim from the spreadsheet.
func (s *IngestService) IngestLegacy(ctx context.Context, data []byte, datasetName string) (*dataset.IngestResult, error) {
	s.metrics.IngestsStarted.Add(ctx, 1)
	start := time.Now()

	result, err := s.ingestLegacy(ctx, data, datasetName)
	s.metrics.IngestDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.metrics.IngestsFailed.Add(ctx, 1)
		return nil, err
	}
	s.metrics.IngestsCompleted.Add(ctx, 1)
	s.metrics.RowsIngested.Add(ctx, int64(result.Counts.Programs+result.Counts.LineItems))
	return result, nil
}

func (s *IngestService) ingestLegacy(ctx context.Context, data []byte, datasetName string) (*dataset.IngestResult, error) {
	wb, err := excel.Open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	defer wb.Close() //nolint:errcheck

	tx, err := s.store.BeginIngest(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	datasetID, err := tx.CreateDataset(ctx, datasetName, dataset.DefaultPopulation, nil)
	if err != nil {
		return nil, err
	}
	s.log.Info("dataset created", "dataset_id", datasetID, "name", datasetName)

	counts := dataset.IngestCounts{}
	if inventory, ok := wb.Sheet("Programs Inventory"); ok {
		if err := s.ingestProgramsInventory(ctx, tx, datasetID, inventory, &counts); err != nil {
			return nil, err
		}
	}
	if details, ok := wb.Sheet("Details"); ok {
		if err := s.ingestDetails(ctx, tx, datasetID, details, &counts); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	s.log.Info("legacy ingestion complete", "dataset_id", datasetID,
		"programs", counts.Programs, "line_items", counts.LineItems)

	return &dataset.IngestResult{
		DatasetID:  datasetID,
		Population: dataset.DefaultPopulation,
		Counts:     counts,
		Success:    true,
	}, nil
}

// ingestProgramsInventory inserts one program and one cost record per
// inventory row. total_cost is computed as personnel + nonpersonnel
// here; the multi-file path takes it verbatim from the sheet instead.
func (s *IngestService) ingestProgramsInventory(ctx context.Context, tx database.IngestTx, datasetID uuid.UUID, sheet *excel.Sheet, counts *dataset.IngestCounts) error {
	for i, row := range sheet.Rows() {
		id := row.IntPtr("program_id")
		if id == nil || *id == 0 {
			s.log.Warn("skipping inventory row without program_id", "row", i)
			continue
		}

		p := &program.Program{
			ID:          int64(*id),
			DatasetID:   datasetID,
			Name:        row.String("Program"),
			Description: row.String("Program Description"),
			ServiceType: row.String("Service Type"),
			UserGroup:   row.String("User Group"),
			Quartile:    row.String("Quartile"),
			FinalScore:  row.FloatPtr("Final Score"),
			FTE:         row.Float("FTE"),
			BudgetLabel: row.String("Budget"),
			Year:        ingestYear,
		}
		if err := tx.InsertProgramWithID(ctx, p); err != nil {
			return fmt.Errorf("inventory row %d: %w", i, err)
		}

		personnel := row.Float("Personnel")
		nonPersonnel := row.Float("NonPersonnel")
		cost := program.Cost{
			Personnel:    personnel,
			NonPersonnel: nonPersonnel,
			Revenue:      row.Float("Revenue"),
			TotalCost:    personnel + nonPersonnel,
		}
		if err := tx.InsertProgramCost(ctx, datasetID, int64(*id), cost); err != nil {
			return fmt.Errorf("inventory cost row %d: %w", i, err)
		}
		counts.Programs++
		counts.ProgramCosts++
	}
	return nil
}

func (s *IngestService) ingestDetails(ctx context.Context, tx database.IngestTx, datasetID uuid.UUID, sheet *excel.Sheet, counts *dataset.IngestCounts) error {
	type orgKey struct{ department, division string }
	orgUnits := map[orgKey]int64{}

	for _, row := range sheet.Rows() {
		key := orgKey{row.String("Department"), row.String("Division")}
		if _, exists := orgUnits[key]; exists {
			continue
		}
		id, err := tx.InsertOrgUnit(ctx, &lineitem.OrgUnit{
			DatasetID:  datasetID,
			Department: key.department,
			Division:   key.division,
		})
		if err != nil {
			return fmt.Errorf("org unit %q/%q: %w", key.department, key.division, err)
		}
		orgUnits[key] = id
	}
	counts.OrgUnits = len(orgUnits)

	for i, row := range sheet.Rows() {
		programID := row.IntPtr("program_id")
		if programID == nil || *programID == 0 {
			continue
		}

		var orgUnitID *int64
		if id, ok := orgUnits[orgKey{row.String("Department"), row.String("Division")}]; ok {
			orgUnitID = &id
		}

		year := ingestYear
		if y := row.IntPtr("Year"); y != nil {
			year = *y
		}

		li := &lineitem.LineItem{
			DatasetID:     datasetID,
			ProgramID:     int64(*programID),
			OrgUnitID:     orgUnitID,
			CostType:      row.String("Cost Type"),
			AcctType:      row.String("AcctType"),
			AcctNumber:    row.String("AcctNumber"),
			Fund:          row.String("Fund"),
			ItemCat1:      row.String("P/NP category1"),
			ItemCat2:      row.String("P/NP category2"),
			NumItems:      row.Int("NumOfItems"),
			TotalItemCost: row.Float("Total Cost"),
			AllocationPct: row.Float("Allocation"),
			Year:          year,
			BudgetLabel:   row.String("Budget"),
		}
		if err := tx.InsertLineItem(ctx, li); err != nil {
			return fmt.Errorf("detail row %d: %w", i, err)
		}
		counts.LineItems++
	}

	if err := s.legacyPriorities(ctx, tx, datasetID, sheet, counts); err != nil {
		return err
	}
	return s.legacyAttributes(ctx, tx, datasetID, sheet, counts)
}

// legacyPriorities creates one priority per fixed column present in
// the sheet and a score per non-empty program cell, parsed from
// labels like "Some (2)".
func (s *IngestService) legacyPriorities(ctx context.Context, tx database.IngestTx, datasetID uuid.UUID, sheet *excel.Sheet, counts *dataset.IngestCounts) error {
	type columnPriority struct {
		column string
		id     int64
	}
	var priorities []columnPriority

	for _, pc := range legacyPriorityColumns {
		if !sheet.HasColumn(pc.Column) {
			continue
		}
		id, err := tx.InsertPriority(ctx, &priority.Priority{
			DatasetID: datasetID,
			Name:      pc.Column,
			Group:     pc.Group,
		})
		if err != nil {
			return fmt.Errorf("priority %q: %w", pc.Column, err)
		}
		priorities = append(priorities, columnPriority{pc.Column, id})
		counts.Priorities++
	}

	for i, row := range sheet.Rows() {
		programID := row.IntPtr("program_id")
		if programID == nil || *programID == 0 {
			continue
		}
		for _, p := range priorities {
			label := row.String(p.column)
			if label == "" {
				continue
			}
			scoreInt := ScoreFromLabel(label)
			sc := &priority.Score{
				DatasetID:  datasetID,
				ProgramID:  int64(*programID),
				PriorityID: p.id,
				ScoreInt:   &scoreInt,
				ScoreLabel: label,
			}
			if err := tx.InsertPriorityScore(ctx, sc); err != nil {
				return fmt.Errorf("priority score row %d: %w", i, err)
			}
			counts.PriorityScores++
		}
	}
	return nil
}

// legacyAttributes parses the five attribute label columns once per
// program. The upsert in the store keeps repeated detail rows for one
// program from creating duplicates.
func (s *IngestService) legacyAttributes(ctx context.Context, tx database.IngestTx, datasetID uuid.UUID, sheet *excel.Sheet, counts *dataset.IngestCounts) error {
	done := map[int64]bool{}
	for i, row := range sheet.Rows() {
		programID := row.IntPtr("program_id")
		if programID == nil || *programID == 0 || done[int64(*programID)] {
			continue
		}
		done[int64(*programID)] = true

		scores := make([]int, len(legacyAttributeColumns))
		for j, col := range legacyAttributeColumns {
			scores[j] = ScoreFromLabel(row.String(col))
		}
		attrs := program.Attributes{
			Reliance:         &scores[0],
			PopulationServed: &scores[1],
			Demand:           &scores[2],
			CostRecovery:     &scores[3],
			Mandate:          &scores[4],
		}
		if err := tx.InsertAttributes(ctx, datasetID, int64(*programID), attrs); err != nil {
			return fmt.Errorf("attributes row %d: %w", i, err)
		}
		counts.Attributes++
	}
	return nil
}
