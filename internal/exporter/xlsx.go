package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"covidcli/internal/config"
	"covidcli/internal/dataset"
)

// WorkbookWriter exports the reconciled dataset as a single Excel workbook
// with one sheet per series.
type WorkbookWriter struct {
	paths  config.PathsConfig
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer for the configured paths
func NewWorkbookWriter(paths config.PathsConfig, logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{paths: paths, logger: logger}
}

// Write builds the workbook with a Weekly sheet and, when comparison series
// are present, a Comparison sheet. Unmatched comparison cells are left blank.
func (w *WorkbookWriter) Write(ctx context.Context, records []dataset.WeeklyRecord, series []dataset.ComparisonSeries) (string, error) {
	if err := os.MkdirAll(w.paths.ProcessedDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const weeklySheet = "Weekly"
	if err := f.SetSheetName("Sheet1", weeklySheet); err != nil {
		return "", fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := w.writeWeeklySheet(f, weeklySheet, records); err != nil {
		return "", err
	}

	if len(series) > 0 {
		const comparisonSheet = "Comparison"
		if _, err := f.NewSheet(comparisonSheet); err != nil {
			return "", fmt.Errorf("failed to add sheet: %w", err)
		}
		if err := w.writeComparisonSheet(f, comparisonSheet, series); err != nil {
			return "", err
		}
	}

	path := filepath.Join(w.paths.ProcessedDir, WorkbookFilename)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.InfoContext(ctx, "exported workbook",
		"path", path, "weeks", len(records), "comparison_sources", len(series))
	return path, nil
}

func (w *WorkbookWriter) writeWeeklySheet(f *excelize.File, sheet string, records []dataset.WeeklyRecord) error {
	for col, h := range weeklyHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for row, r := range records {
		values := []interface{}{
			r.WeekEnding.Format("2006-01-02"),
			r.NewCases,
			r.NewDeaths,
			r.Infection,
			r.VaccinationRate,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *WorkbookWriter) writeComparisonSheet(f *excelize.File, sheet string, series []dataset.ComparisonSeries) error {
	if err := f.SetCellValue(sheet, "A1", "date"); err != nil {
		return err
	}
	for i, s := range series {
		cell, err := excelize.CoordinatesToCellName(i+2, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, s.Source); err != nil {
			return err
		}
	}

	if len(series) == 0 {
		return nil
	}
	for row, p := range series[0].Points {
		cell, err := excelize.CoordinatesToCellName(1, row+2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, p.Date.Format("2006-01-02")); err != nil {
			return err
		}
		for i, s := range series {
			if row >= len(s.Points) || !s.Points[row].Matched {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+2, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, s.Points[row].Value); err != nil {
				return err
			}
		}
	}
	return nil
}
