package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"productspace/internal/complexity"
)

const (
	sheetOpportunities = "Top_Opportunities"
	sheetSummary       = "Country_Summary"
	sheetSweep         = "Threshold_Sweep"
	sheetAgreement     = "Density_Agreement"
)

// Workbook is everything the excel export shows.
type Workbook struct {
	Top       []complexity.Row
	Summaries []complexity.CountrySummary
	Clusters  []string
	Sweep     []complexity.SweepResult
	Agreement []complexity.CountryCorrelation
}

// cellFloat keeps missing values as blank cells instead of NaN text.
func cellFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}

func writeHeader(f *excelize.File, sheet string, headers []string, width float64) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		col, _, err := excelize.SplitCellName(cell)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func WriteWorkbook(path string, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetOpportunities); err != nil {
		return fmt.Errorf("report: workbook: %w", err)
	}
	steps := []struct {
		sheet string
		fill  func(*excelize.File, string, Workbook) error
	}{
		{sheetOpportunities, fillOpportunities},
		{sheetSummary, fillSummary},
		{sheetSweep, fillSweep},
		{sheetAgreement, fillAgreement},
	}
	for i, s := range steps {
		if i > 0 {
			if _, err := f.NewSheet(s.sheet); err != nil {
				return fmt.Errorf("report: workbook sheet %s: %w", s.sheet, err)
			}
		}
		if err := s.fill(f, s.sheet, wb); err != nil {
			return fmt.Errorf("report: workbook sheet %s: %w", s.sheet, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save workbook %s: %w", path, err)
	}
	return nil
}

func fillOpportunities(f *excelize.File, sheet string, wb Workbook) error {
	headers := []string{"Country", "Product", "Name", "Cluster", "Density", "Export RCA", "PCI", "COG", "Score"}
	if err := writeHeader(f, sheet, headers, 16); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", "C", 40); err != nil {
		return err
	}
	for i, r := range wb.Top {
		err := writeRow(f, sheet, i+2, []any{
			r.Country, r.Product, r.Label(), r.Cluster,
			cellFloat(r.Density), cellFloat(r.ExportRCA), cellFloat(r.PCI), cellFloat(r.COG), cellFloat(r.Score),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func fillSummary(f *excelize.File, sheet string, wb Workbook) error {
	headers := []string{"Country", "Export Value Total", "ECI", "Growth Projection", "Diversity", "COI",
		"Products", "Top Strengths", "Top Opportunities"}
	headers = append(headers, wb.Clusters...)
	if err := writeHeader(f, sheet, headers, 18); err != nil {
		return err
	}
	for i, s := range wb.Summaries {
		values := []any{
			s.Country, cellFloat(s.ExportValueTotal), cellFloat(s.ECI), cellFloat(s.GrowthProj),
			cellFloat(s.Diversity), cellFloat(s.COI), s.NumProducts,
			strings.Join(s.TopStrengths, listSep), strings.Join(s.TopOpportunities, listSep),
		}
		for _, c := range wb.Clusters {
			values = append(values, s.Clusters[c])
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

// fillSweep lays the sweep out wide: one row per country, one column per
// threshold.
func fillSweep(f *excelize.File, sheet string, wb Workbook) error {
	headers := []string{"Country"}
	for _, res := range wb.Sweep {
		headers = append(headers, fmt.Sprintf("RCA < %g", res.Threshold))
	}
	if err := writeHeader(f, sheet, headers, 14); err != nil {
		return err
	}
	for i, s := range wb.Summaries {
		values := []any{s.Country}
		for _, res := range wb.Sweep {
			values = append(values, res.Candidates[s.Country])
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func fillAgreement(f *excelize.File, sheet string, wb Workbook) error {
	if err := writeHeader(f, sheet, []string{"Country", "Correlation", "Pairs"}, 14); err != nil {
		return err
	}
	for i, c := range wb.Agreement {
		if err := writeRow(f, sheet, i+2, []any{c.Country, cellFloat(c.Correlation), c.Pairs}); err != nil {
			return err
		}
	}
	return nil
}
