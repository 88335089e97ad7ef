package exporter

import (
	"context"
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"covidcli/internal/config"
	"covidcli/internal/dataset"
)

func testPaths(t *testing.T) config.PathsConfig {
	t.Helper()
	dir := t.TempDir()
	return config.PathsConfig{
		DataDir:      dir,
		RawDir:       dir,
		ProcessedDir: dir,
		ReportsDir:   dir,
		WebDir:       dir,
	}
}

func sampleWeekly() []dataset.WeeklyRecord {
	return []dataset.WeeklyRecord{
		{WeekEnding: time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC), NewCases: 40, NewDeaths: 7, Infection: 1, VaccinationRate: 0.1},
		{WeekEnding: time.Date(2021, 1, 17, 0, 0, 0, 0, time.UTC), NewCases: 0, NewDeaths: 0, Infection: 0, VaccinationRate: 0.2},
	}
}

func sampleComparison() []dataset.ComparisonSeries {
	dates := []time.Time{
		time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 1, 17, 0, 0, 0, 0, time.UTC),
	}
	return []dataset.ComparisonSeries{
		{Source: "owid", Points: []dataset.ComparisonPoint{
			{Date: dates[0], Value: 40, Matched: true},
			{Date: dates[1], Value: 0, Matched: true},
		}},
		{Source: "who", Points: []dataset.ComparisonPoint{
			{Date: dates[0], Value: 41, Matched: true},
			{Date: dates[1], Matched: false},
		}},
	}
}

func TestCSVWriter_WriteWeeklyTable(t *testing.T) {
	w := NewCSVWriter(testPaths(t), nil)

	path, err := w.WriteWeeklyTable(context.Background(), sampleWeekly())
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "new_cases", "new_deaths", "I", "vaccination_rate"}, rows[0])
	assert.Equal(t, []string{"2021-01-10", "40", "7", "1", "0.100000"}, rows[1])
	assert.Equal(t, "0", rows[2][3])
}

func TestCSVWriter_WriteComparison_UnmatchedIsEmpty(t *testing.T) {
	w := NewCSVWriter(testPaths(t), nil)

	path, err := w.WriteComparison(context.Background(), sampleComparison())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,owid,who", lines[0])
	assert.Equal(t, "2021-01-10,40,41", lines[1])
	// the unmatched WHO week must be an empty cell, not a zero
	assert.Equal(t, "2021-01-17,0,", lines[2])
}

func TestCSVWriter_WriteComparison_Empty(t *testing.T) {
	w := NewCSVWriter(testPaths(t), nil)

	path, err := w.WriteComparison(context.Background(), nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date", strings.TrimSpace(string(data)))
}

func TestCSVWriter_WriteCSV_BOM(t *testing.T) {
	paths := testPaths(t)
	w := NewCSVWriter(paths, nil)

	path := paths.ProcessedDir + "/bom.csv"
	require.NoError(t, w.WriteCSV(path, WriteOptions{
		Headers:   []string{"a"},
		Records:   [][]string{{"1"}},
		BOMPrefix: true,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\xef\xbb\xbf"))
}

func TestWorkbookWriter_Write(t *testing.T) {
	w := NewWorkbookWriter(testPaths(t), nil)

	path, err := w.Write(context.Background(), sampleWeekly(), sampleComparison())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Weekly", "Comparison"}, f.GetSheetList())

	v, err := f.GetCellValue("Weekly", "B2")
	require.NoError(t, err)
	assert.Equal(t, "40", v)

	// unmatched comparison cell stays blank
	v, err = f.GetCellValue("Comparison", "C3")
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = f.GetCellValue("Comparison", "B3")
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}

func TestWorkbookWriter_NoComparison(t *testing.T) {
	w := NewWorkbookWriter(testPaths(t), nil)

	path, err := w.Write(context.Background(), sampleWeekly(), nil)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Weekly"}, f.GetSheetList())
}
