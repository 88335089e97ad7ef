package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"covidcli/internal/dataset"
	"covidcli/internal/sources"
)

// Period selects the canonical aggregation granularity
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Trials returns the Binomial trial count the period approximates
func (p Period) Trials() int {
	if p == PeriodMonthly {
		return 30
	}
	return 7
}

// Options holds the explicit reconciliation parameters. Nothing here is
// process-global: two reconcilers with different countries or ranges can run
// side by side.
type Options struct {
	Start      time.Time
	End        time.Time
	WeekEnding time.Weekday
	Period     Period
}

// Inputs are the decoded observations from the three sources
type Inputs struct {
	OWID []dataset.Observation
	WHO  []dataset.Observation
	NYT  []dataset.Observation
}

// Result is the reconciled output: the canonical clean table at daily and
// period granularity, plus the aligned cross-source comparison series.
type Result struct {
	Daily      []dataset.DailyRecord
	Periods    []dataset.WeeklyRecord
	Comparison []dataset.ComparisonSeries
}

// Reconciler aligns the three heterogeneous source series onto one canonical
// calendar.
type Reconciler struct {
	opts   Options
	logger *slog.Logger
}

// NewReconciler creates a reconciler with the given options
func NewReconciler(opts Options, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Period == "" {
		opts.Period = PeriodWeekly
	}
	return &Reconciler{opts: opts, logger: logger}
}

// Reconcile produces the clean weekly table and the comparison series.
// The canonical table derives from the OWID daily snapshots; WHO and NYT
// contribute to the comparison output only. Empty inputs propagate as empty
// outputs rather than errors, so a missing country match degrades instead of
// aborting.
func (r *Reconciler) Reconcile(ctx context.Context, in Inputs) (*Result, error) {
	if r.opts.End.Before(r.opts.Start) {
		return nil, fmt.Errorf("invalid date range: end %s before start %s",
			r.opts.End.Format("2006-01-02"), r.opts.Start.Format("2006-01-02"))
	}

	r.logger.InfoContext(ctx, "reconciling source series",
		slog.Int("owid_observations", len(in.OWID)),
		slog.Int("who_observations", len(in.WHO)),
		slog.Int("nyt_observations", len(in.NYT)),
		slog.String("period", string(r.opts.Period)),
	)

	daily := ClampRange(CompleteCalendar(in.OWID), r.opts.Start, r.opts.End)
	periods := r.aggregate(daily)

	r.logger.InfoContext(ctx, "canonical calendar built",
		slog.Int("daily_records", len(daily)),
		slog.Int("period_records", len(periods)),
	)

	base := make([]time.Time, len(periods))
	for i, p := range periods {
		base[i] = p.WeekEnding
	}

	comparison := []dataset.ComparisonSeries{
		AlignForComparison(sources.SourceOWID, base, r.owidWeekly(daily)),
		AlignForComparison(sources.SourceWHO, base, r.whoWeekly(in.WHO)),
		AlignForComparison(sources.SourceNYT, base, r.nytWeekly(in.NYT)),
	}

	return &Result{Daily: daily, Periods: periods, Comparison: comparison}, nil
}

func (r *Reconciler) aggregate(daily []dataset.DailyRecord) []dataset.WeeklyRecord {
	if r.opts.Period == PeriodMonthly {
		return AggregateMonthly(daily)
	}
	return AggregateWeekly(daily, r.opts.WeekEnding)
}

// owidWeekly independently re-aggregates the canonical daily cases for the
// comparison chart.
func (r *Reconciler) owidWeekly(daily []dataset.DailyRecord) []SeriesPoint {
	weekly := AggregateWeekly(daily, r.opts.WeekEnding)
	points := make([]SeriesPoint, len(weekly))
	for i, w := range weekly {
		points[i] = SeriesPoint{Date: w.WeekEnding, Value: float64(w.NewCases)}
	}
	return points
}

// whoWeekly passes the WHO pre-aggregated weekly counts through at their
// reported dates, clamped to the analysis range.
func (r *Reconciler) whoWeekly(obs []dataset.Observation) []SeriesPoint {
	var points []SeriesPoint
	for _, o := range obs {
		if o.Date.Before(r.opts.Start) || o.Date.After(r.opts.End) {
			continue
		}
		var value float64
		if o.NewCases != nil {
			value = *o.NewCases
		}
		points = append(points, SeriesPoint{Date: o.Date, Value: value})
	}
	return points
}

// nytWeekly differences the NYT cumulative series and re-aggregates it onto
// weekly boundaries.
func (r *Reconciler) nytWeekly(obs []dataset.Observation) []SeriesPoint {
	ordered := make([]dataset.Observation, 0, len(obs))
	for _, o := range obs {
		if o.CumulativeCases != nil {
			ordered = append(ordered, o)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	dates := make([]time.Time, len(ordered))
	cumulative := make([]float64, len(ordered))
	for i, o := range ordered {
		dates[i] = o.Date
		cumulative[i] = *o.CumulativeCases
	}

	increments := CumulativeToIncremental(cumulative)

	sums := make(map[time.Time]float64)
	for i, d := range dates {
		if d.Before(r.opts.Start) || d.After(r.opts.End) {
			continue
		}
		sums[WeekEndingFor(d, r.opts.WeekEnding)] += increments[i]
	}

	points := make([]SeriesPoint, 0, len(sums))
	for ending, value := range sums {
		points = append(points, SeriesPoint{Date: ending, Value: value})
	}
	// map order is random; alignment tie-breaking needs ascending dates
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}
