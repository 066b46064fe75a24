package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	portfolioSheet = "Portfolio"
	dashboardSheet = "Dashboard"
)

// XLSXWriter implements SheetWriter by producing a local .xlsx file.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates a writer targeting the given file path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

func (w *XLSXWriter) Write(_ context.Context, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), portfolioSheet)
	if _, err := f.NewSheet(dashboardSheet); err != nil {
		return fmt.Errorf("creating dashboard sheet: %w", err)
	}

	if err := writeRows(f, portfolioSheet, buildPortfolioRows(report.Portfolio)); err != nil {
		return err
	}
	if err := writeRows(f, dashboardSheet, buildDashboardRows(report)); err != nil {
		return err
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("computing cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
