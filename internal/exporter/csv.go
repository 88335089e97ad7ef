// Package exporter writes the reconciled dataset to the processed-data
// directory as CSV and as an Excel workbook.
package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"covidcli/internal/config"
	"covidcli/internal/dataset"
)

// Output filenames inside the processed-data directory
const (
	WeeklyCSVFilename     = "weekly_panel.csv"
	ComparisonCSVFilename = "source_comparison.csv"
	WorkbookFilename      = "weekly_panel.xlsx"
)

var weeklyHeader = []string{"date", "new_cases", "new_deaths", "I", "vaccination_rate"}

// CSVWriter exports reconciled series as CSV files
type CSVWriter struct {
	paths  config.PathsConfig
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer for the configured paths
func NewCSVWriter(paths config.PathsConfig, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // UTF-8 BOM for Excel compatibility
}

// WriteCSV writes rows to a CSV file, creating parent directories as needed
func (w *CSVWriter) WriteCSV(fullPath string, options WriteOptions) error {
	w.logger.Info("writing CSV file",
		"path", fullPath,
		"record_count", len(options.Records))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteWeeklyTable exports the canonical weekly panel
func (w *CSVWriter) WriteWeeklyTable(ctx context.Context, records []dataset.WeeklyRecord) (string, error) {
	path := filepath.Join(w.paths.ProcessedDir, WeeklyCSVFilename)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, weeklyRow(r))
	}
	if err := w.WriteCSV(path, WriteOptions{Headers: weeklyHeader, Records: rows}); err != nil {
		return "", err
	}

	w.logger.InfoContext(ctx, "exported weekly panel", "path", path, "weeks", len(records))
	return path, nil
}

// WriteComparison exports the aligned cross-source series, one column per
// source. A week a source could not be matched to stays an empty cell; it is
// never written as zero.
func (w *CSVWriter) WriteComparison(ctx context.Context, series []dataset.ComparisonSeries) (string, error) {
	path := filepath.Join(w.paths.ProcessedDir, ComparisonCSVFilename)

	headers := []string{"date"}
	for _, s := range series {
		headers = append(headers, s.Source)
	}

	var rows [][]string
	if len(series) > 0 {
		for i, p := range series[0].Points {
			row := []string{p.Date.Format("2006-01-02")}
			for _, s := range series {
				row = append(row, comparisonCell(s.Points, i))
			}
			rows = append(rows, row)
		}
	}

	if err := w.WriteCSV(path, WriteOptions{Headers: headers, Records: rows}); err != nil {
		return "", err
	}

	w.logger.InfoContext(ctx, "exported source comparison",
		"path", path, "sources", len(series), "rows", len(rows))
	return path, nil
}

func comparisonCell(points []dataset.ComparisonPoint, i int) string {
	if i >= len(points) || !points[i].Matched {
		return ""
	}
	return strconv.FormatFloat(points[i].Value, 'f', -1, 64)
}

func weeklyRow(r dataset.WeeklyRecord) []string {
	return []string{
		r.WeekEnding.Format("2006-01-02"),
		strconv.FormatInt(r.NewCases, 10),
		strconv.FormatInt(r.NewDeaths, 10),
		strconv.Itoa(r.Infection),
		strconv.FormatFloat(r.VaccinationRate, 'f', 6, 64),
	}
}
