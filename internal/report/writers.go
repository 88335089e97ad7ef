package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "covidcli/internal/errors"
)

// Report output filenames inside the reports directory
const (
	JSONFilename    = "analysis_results.json"
	TextFilename    = "analysis_report.txt"
	SummaryFilename = "summary_statistics.csv"
)

// Writer renders analysis results into the reports directory
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a report writer rooted at dir
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger}
}

// WriteAll renders the JSON document, the text report and the summary table
func (w *Writer) WriteAll(ctx context.Context, result *AnalysisResult) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return apperrors.NewStorageError("create reports directory", err)
	}

	for _, write := range []func(*AnalysisResult) (string, error){
		w.WriteJSON,
		w.WriteText,
		w.WriteSummary,
	} {
		path, err := write(result)
		if err != nil {
			return err
		}
		w.logger.InfoContext(ctx, "wrote report", "path", path)
	}
	return nil
}

// WriteJSON writes the full result document as indented JSON
func (w *Writer) WriteJSON(result *AnalysisResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", apperrors.NewStorageError("marshal analysis result", err)
	}
	path := filepath.Join(w.dir, JSONFilename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.NewStorageError("write analysis result", err)
	}
	return path, nil
}

// WriteText writes the human-readable analysis report
func (w *Writer) WriteText(result *AnalysisResult) (string, error) {
	path := filepath.Join(w.dir, TextFilename)
	if err := os.WriteFile(path, []byte(FormatText(result)), 0o644); err != nil {
		return "", apperrors.NewStorageError("write text report", err)
	}
	return path, nil
}

// FormatText renders the result document as the plain-text report
func FormatText(result *AnalysisResult) string {
	var b strings.Builder
	rule := strings.Repeat("=", 70)

	fmt.Fprintf(&b, "%s\nCOVID-19 VACCINATION AND INFECTION ANALYSIS\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "Run ID:       %s\n", result.Metadata.RunID)
	fmt.Fprintf(&b, "Generated at: %s\n", result.Metadata.GeneratedAt)
	fmt.Fprintf(&b, "Country:      %s\n", result.Metadata.Country)
	fmt.Fprintf(&b, "Date range:   %s to %s\n", result.Metadata.StartDate, result.Metadata.EndDate)
	fmt.Fprintf(&b, "Weeks:        %d\n\n", result.Metadata.Weeks)

	fmt.Fprintf(&b, "1. BERNOULLI PARAMETERS\n")
	fmt.Fprintf(&b, "   P(infection)            = %.4f (std %.4f)\n",
		result.Bernoulli.PInfection, result.Bernoulli.StdInfection)
	fmt.Fprintf(&b, "   P(vaccination)          = %.4f (std %.4f)\n\n",
		result.Bernoulli.PVaccination, result.Bernoulli.StdVaccination)

	fmt.Fprintf(&b, "2. CONDITIONAL PROBABILITIES (threshold %.0f%%)\n",
		result.Conditional.Threshold*100)
	fmt.Fprintf(&b, "   P(infection | high vaccination) = %.4f (n=%d, se %.4f)\n",
		result.Conditional.PInfectionHigh, result.Conditional.NHigh, result.Conditional.SEHigh)
	fmt.Fprintf(&b, "   P(infection | low vaccination)  = %.4f (n=%d, se %.4f)\n",
		result.Conditional.PInfectionLow, result.Conditional.NLow, result.Conditional.SELow)
	fmt.Fprintf(&b, "   Difference                      = %+.4f\n\n", result.Conditional.Difference)

	fmt.Fprintf(&b, "3. BINOMIAL MODEL (%s, %d trials)\n",
		result.Binomial.Period, result.Binomial.Trials)
	fmt.Fprintf(&b, "   Expected mean/variance = %.3f / %.3f\n",
		result.Binomial.ExpectedMean, result.Binomial.ExpectedVariance)
	fmt.Fprintf(&b, "   Actual mean/variance   = %.3f / %.3f\n\n",
		result.Binomial.ActualMean, result.Binomial.ActualVariance)

	fmt.Fprintf(&b, "4. HYPOTHESIS TEST (%s)\n", result.Tests.TestType)
	fmt.Fprintf(&b, "   z = %.4f, p = %.4f (alpha %.2f)\n", result.Tests.ZStatistic,
		result.Tests.PValue, result.Tests.Alpha)
	fmt.Fprintf(&b, "   Conclusion: %s\n\n", testConclusion(result))

	fmt.Fprintf(&b, "5. CORRELATION (vaccination rate vs weekly new cases)\n")
	fmt.Fprintf(&b, "   r = %.4f, t = %.4f, p = %.4f (n=%d)\n",
		result.Correlation.Coefficient, result.Correlation.TStatistic,
		result.Correlation.PValue, result.Correlation.SampleSize)
	if result.Correlation.Significant {
		fmt.Fprintf(&b, "   The correlation is statistically significant.\n")
	} else {
		fmt.Fprintf(&b, "   The correlation is not statistically significant.\n")
	}
	fmt.Fprintf(&b, "\n%s\n", rule)
	return b.String()
}

func testConclusion(result *AnalysisResult) string {
	if result.Tests.NHigh == 0 || result.Tests.NLow == 0 {
		return "undecidable, one vaccination group is empty"
	}
	if result.Tests.Significant {
		return "reject the null hypothesis of equal infection proportions"
	}
	return "fail to reject the null hypothesis of equal infection proportions"
}

// WriteSummary writes descriptive statistics of the weekly table as CSV
func (w *Writer) WriteSummary(result *AnalysisResult) (string, error) {
	path := filepath.Join(w.dir, SummaryFilename)
	f, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewStorageError("create summary file", err)
	}
	defer f.Close()

	cases := make([]float64, len(result.Weekly))
	deaths := make([]float64, len(result.Weekly))
	rates := make([]float64, len(result.Weekly))
	for i, rec := range result.Weekly {
		cases[i] = float64(rec.NewCases)
		deaths[i] = float64(rec.NewDeaths)
		rates[i] = rec.VaccinationRate
	}

	cw := csv.NewWriter(f)
	records := [][]string{
		{"statistic", "new_cases", "new_deaths", "vaccination_rate"},
		summaryRow("count", cases, deaths, rates, func(v []float64) float64 { return float64(len(v)) }),
		summaryRow("mean", cases, deaths, rates, summaryMean),
		summaryRow("std", cases, deaths, rates, summaryStd),
		summaryRow("min", cases, deaths, rates, summaryMin),
		summaryRow("max", cases, deaths, rates, summaryMax),
	}
	if err := cw.WriteAll(records); err != nil {
		return "", apperrors.NewStorageError("write summary file", err)
	}
	return path, nil
}

func summaryRow(name string, cases, deaths, rates []float64, fn func([]float64) float64) []string {
	return []string{
		name,
		strconv.FormatFloat(fn(cases), 'f', -1, 64),
		strconv.FormatFloat(fn(deaths), 'f', -1, 64),
		strconv.FormatFloat(fn(rates), 'f', -1, 64),
	}
}

func summaryMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func summaryStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := summaryMean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func summaryMin(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func summaryMax(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
