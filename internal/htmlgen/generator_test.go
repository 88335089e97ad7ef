package htmlgen

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covidcli/internal/dataset"
	"covidcli/internal/report"
	"covidcli/internal/stats"
)

func testResult() *report.AnalysisResult {
	return &report.AnalysisResult{
		Metadata: report.Metadata{
			RunID:       "run-1234",
			GeneratedAt: "2021-06-01T00:00:00Z",
			Country:     "United States",
			StartDate:   "2021-01-01",
			EndDate:     "2021-01-17",
			Weeks:       2,
		},
		Bernoulli:   stats.BernoulliParams{PInfection: 0.5},
		Conditional: stats.ConditionalProbabilities{PInfectionHigh: 0.25, PInfectionLow: 0.75, NHigh: 1, NLow: 1},
		Binomial:    stats.BinomialComparison{Period: "weekly", Trials: 7, ExpectedMean: 3.5},
		Tests:       stats.ZTestResult{ZStatistic: stats.DegenerateZ, PValue: stats.DegenerateP},
		Correlation: stats.CorrelationResult{Coefficient: -0.4, PValue: 0.2},
		WeeklyActual: report.SeriesActual{
			Dates:  []string{"2021-01-10", "2021-01-17"},
			Values: []float64{4, 3},
		},
		Weekly: []dataset.WeeklyRecord{
			{WeekEnding: time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC), NewCases: 40, VaccinationRate: 0.1},
			{WeekEnding: time.Date(2021, 1, 17, 0, 0, 0, 0, time.UTC), NewCases: 0, VaccinationRate: 0.2},
		},
		Comparison: []dataset.ComparisonSeries{
			{Source: "who", Points: []dataset.ComparisonPoint{
				{Date: time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC), Value: 41, Matched: true},
				{Date: time.Date(2021, 1, 17, 0, 0, 0, 0, time.UTC), Matched: false},
			}},
		},
	}
}

func TestGenerator_Generate(t *testing.T) {
	webDir := t.TempDir()
	g, err := NewGenerator(webDir, nil)
	require.NoError(t, err)

	path, err := g.Generate(context.Background(), testResult())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	page := string(data)

	assert.Contains(t, page, "United States")
	assert.Contains(t, page, "run-1234")
	assert.Contains(t, page, "weekly-chart")
	assert.Contains(t, page, "binomial-chart")
	assert.Contains(t, page, "comparison-chart")
	assert.Contains(t, page, "2021-01-10")
}

func TestGenerator_UnmatchedWeekIsNull(t *testing.T) {
	g, err := NewGenerator(t.TempDir(), nil)
	require.NoError(t, err)

	path, err := g.Generate(context.Background(), testResult())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// the unmatched WHO week renders as a JSON null so the chart shows a gap
	assert.Contains(t, string(data), `"values":[41,null]`)
}

func TestGenerator_Overwrites(t *testing.T) {
	webDir := t.TempDir()
	g, err := NewGenerator(webDir, nil)
	require.NoError(t, err)

	result := testResult()
	_, err = g.Generate(context.Background(), result)
	require.NoError(t, err)

	result.Metadata.RunID = "run-5678"
	path, err := g.Generate(context.Background(), result)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "run-5678"))
	assert.False(t, strings.Contains(string(data), "run-1234"))
}
