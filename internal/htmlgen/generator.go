// Package htmlgen renders the static dashboard page for one analysis run.
// The page is self-contained: chart data is embedded as JSON at generation
// time, so the file can be served from any static host.
package htmlgen

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"

	"covidcli/internal/report"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

// IndexFilename is the generated page name inside the web directory
const IndexFilename = "index.html"

// Generator renders the dashboard page into the web directory
type Generator struct {
	webDir string
	tmpl   *template.Template
	logger *slog.Logger
}

// NewGenerator parses the embedded template and returns a generator
func NewGenerator(webDir string, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.ParseFS(templateFS, "templates/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	return &Generator{webDir: webDir, tmpl: tmpl, logger: logger}, nil
}

type chartSeries struct {
	Source string     `json:"source"`
	Values []*float64 `json:"values"` // null marks an unmatched week
}

type chartData struct {
	Labels      []string      `json:"labels"`
	NewCases    []int64       `json:"new_cases"`
	Rates       []float64     `json:"vaccination_rates"`
	ActualDates []string      `json:"actual_dates"`
	ActualSums  []float64     `json:"actual_sums"`
	Comparison  []chartSeries `json:"comparison"`
}

type pageData struct {
	Result    *report.AnalysisResult
	ChartJSON template.JS
}

// Generate writes index.html for the given result and returns its path
func (g *Generator) Generate(ctx context.Context, result *report.AnalysisResult) (string, error) {
	if err := os.MkdirAll(g.webDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create web directory: %w", err)
	}

	charts := chartData{
		ActualDates: result.WeeklyActual.Dates,
		ActualSums:  result.WeeklyActual.Values,
	}
	for _, rec := range result.Weekly {
		charts.Labels = append(charts.Labels, rec.WeekEnding.Format("2006-01-02"))
		charts.NewCases = append(charts.NewCases, rec.NewCases)
		charts.Rates = append(charts.Rates, rec.VaccinationRate)
	}
	for _, s := range result.Comparison {
		series := chartSeries{Source: s.Source}
		for _, p := range s.Points {
			if p.Matched {
				v := p.Value
				series.Values = append(series.Values, &v)
			} else {
				series.Values = append(series.Values, nil)
			}
		}
		charts.Comparison = append(charts.Comparison, series)
	}

	encoded, err := json.Marshal(charts)
	if err != nil {
		return "", fmt.Errorf("failed to encode chart data: %w", err)
	}

	path := filepath.Join(g.webDir, IndexFilename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create dashboard page: %w", err)
	}
	defer f.Close()

	if err := g.tmpl.Execute(f, pageData{
		Result:    result,
		ChartJSON: template.JS(encoded),
	}); err != nil {
		return "", fmt.Errorf("failed to render dashboard page: %w", err)
	}

	g.logger.InfoContext(ctx, "generated dashboard page",
		"path", path,
		"run_id", result.Metadata.RunID)
	return path, nil
}
