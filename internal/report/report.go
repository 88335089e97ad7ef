// Package report assembles the reconciled dataset and the fitted models into
// the analysis result document and renders it as JSON, plain text and a
// summary table.
package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"covidcli/internal/config"
	"covidcli/internal/dataset"
	"covidcli/internal/reconcile"
	"covidcli/internal/stats"
)

// Metadata identifies one analysis run
type Metadata struct {
	RunID                string  `json:"run_id"`
	GeneratedAt          string  `json:"generated_at"`
	Country              string  `json:"country"`
	VaccinationThreshold float64 `json:"vaccination_threshold"`
	Period               string  `json:"period"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	Weeks                int     `json:"weeks"`
	Days                 int     `json:"days"`
}

// SeriesActual holds a resampled series as parallel date and value arrays,
// the layout the dashboard charts consume directly.
type SeriesActual struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

// AnalysisResult is the complete output document of one run. It marshals to
// a stable JSON schema; every numeric field is finite so the round trip
// through encoding/json is lossless.
type AnalysisResult struct {
	Metadata     Metadata                       `json:"metadata"`
	Bernoulli    stats.BernoulliParams          `json:"bernoulli"`
	Conditional  stats.ConditionalProbabilities `json:"conditional"`
	Binomial     stats.BinomialComparison       `json:"binomial_weekly"`
	Tests        stats.ZTestResult              `json:"statistical_tests"`
	Correlation  stats.CorrelationResult        `json:"correlation_analysis"`
	WeeklyActual SeriesActual                   `json:"weekly_actual"`
	Weekly       []dataset.WeeklyRecord         `json:"weekly"`
	Comparison   []dataset.ComparisonSeries     `json:"comparison,omitempty"`
}

// Assembler builds AnalysisResult documents
type Assembler struct {
	analysis config.AnalysisConfig
	logger   *slog.Logger
}

// NewAssembler creates an assembler for the given analysis parameters
func NewAssembler(analysis config.AnalysisConfig, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{analysis: analysis, logger: logger}
}

// Assemble combines a reconciled dataset and its fitted models into the
// result document, stamping a fresh run ID.
func (a *Assembler) Assemble(ctx context.Context, rec *reconcile.Result, st stats.Results) *AnalysisResult {
	result := &AnalysisResult{
		Metadata: Metadata{
			RunID:                uuid.New().String(),
			GeneratedAt:          time.Now().UTC().Format(time.RFC3339),
			Country:              a.analysis.Country,
			VaccinationThreshold: a.analysis.VaccinationThreshold,
			Period:               a.analysis.Period,
			StartDate:            a.analysis.StartDate,
			EndDate:              a.analysis.EndDate,
			Weeks:                len(rec.Periods),
			Days:                 len(rec.Daily),
		},
		Bernoulli:    st.Bernoulli,
		Conditional:  st.Conditional,
		Binomial:     st.Binomial,
		Tests:        st.ZTest,
		Correlation:  st.Correlation,
		WeeklyActual: actualSeries(st.PeriodActual),
		Weekly:       rec.Periods,
		Comparison:   rec.Comparison,
	}

	a.logger.InfoContext(ctx, "assembled analysis result",
		"run_id", result.Metadata.RunID,
		"country", result.Metadata.Country,
		"weeks", result.Metadata.Weeks)
	return result
}

func actualSeries(sums []stats.PeriodSum) SeriesActual {
	actual := SeriesActual{
		Dates:  make([]string, 0, len(sums)),
		Values: make([]float64, 0, len(sums)),
	}
	for _, s := range sums {
		actual.Dates = append(actual.Dates, s.PeriodEnding.Format("2006-01-02"))
		actual.Values = append(actual.Values, s.Infected)
	}
	return actual
}
