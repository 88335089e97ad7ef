package reconcile

import (
	"math"
	"time"

	"covidcli/internal/dataset"
)

// AlignmentToleranceDays is the maximum distance, in days, between a base
// calendar date and a source date for the two to be considered the same week.
const AlignmentToleranceDays = 7

// SeriesPoint is one dated value of an independently aggregated source series
type SeriesPoint struct {
	Date  time.Time
	Value float64
}

// AlignForComparison matches a source's weekly series onto the base calendar
// using nearest-date matching within the tolerance. A base date with no
// source date inside the tolerance yields an unmatched point: absence is kept
// distinct from a genuine zero so comparison charts can render a gap instead
// of a misleading dip. The aligned output is for visualization only.
func AlignForComparison(source string, base []time.Time, points []SeriesPoint) dataset.ComparisonSeries {
	series := dataset.ComparisonSeries{
		Source: source,
		Points: make([]dataset.ComparisonPoint, 0, len(base)),
	}

	for _, target := range base {
		value, matched := nearestWithin(points, target, AlignmentToleranceDays)
		series.Points = append(series.Points, dataset.ComparisonPoint{
			Date:    target,
			Value:   value,
			Matched: matched,
		})
	}

	return series
}

// nearestWithin finds the value whose date is closest to target, if any lies
// within the tolerance in days. Ties go to the earlier date.
func nearestWithin(points []SeriesPoint, target time.Time, toleranceDays int) (float64, bool) {
	bestDiff := math.MaxInt64
	var bestValue float64
	found := false

	for _, p := range points {
		diff := int(math.Abs(p.Date.Sub(target).Hours() / 24))
		if diff <= toleranceDays && diff < bestDiff {
			bestDiff = diff
			bestValue = p.Value
			found = true
		}
	}

	return bestValue, found
}
