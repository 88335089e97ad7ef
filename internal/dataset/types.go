package dataset

import (
	"time"
)

// Observation is a single raw row from a source, normalized to canonical
// fields. Numeric fields are pointers: nil means the source did not report a
// value, which is distinct from a reported zero.
type Observation struct {
	Date             time.Time
	NewCases         *float64
	CumulativeCases  *float64
	NewDeaths        *float64
	CumulativeDeaths *float64
	PeopleVaccinated *float64
	Population       *float64
}

// DailyRecord is one day on the completed daily calendar. Missing case and
// death counts have been zero-filled and vaccination fields forward-filled,
// so all values here are concrete.
type DailyRecord struct {
	Date             time.Time
	NewCases         float64
	NewDeaths        float64
	VaccinationRate  float64
	PeopleVaccinated float64
}

// Infected reports whether any new cases were recorded on the day
func (d DailyRecord) Infected() bool {
	return d.NewCases > 0
}

// WeeklyRecord is the canonical unit after reconciliation: one row per
// calendar week, no gaps, ascending by WeekEnding.
type WeeklyRecord struct {
	WeekEnding       time.Time `json:"date"`
	NewCases         int64     `json:"new_cases"`
	NewDeaths        int64     `json:"new_deaths"`
	Infection        int       `json:"I"`
	VaccinationRate  float64   `json:"vaccination_rate"`
	PeopleVaccinated float64   `json:"people_vaccinated,omitempty"`
}

// ComparisonPoint is one aligned value in a cross-source comparison series.
// Matched distinguishes "no source date within tolerance" from a genuine
// zero count; renderers must not conflate the two.
type ComparisonPoint struct {
	Date    time.Time `json:"date"`
	Value   float64   `json:"value"`
	Matched bool      `json:"matched"`
}

// ComparisonSeries is an independently aggregated weekly series aligned onto
// a shared comparison calendar. It exists for visualization only and is never
// an input to statistical inference.
type ComparisonSeries struct {
	Source string            `json:"source"`
	Points []ComparisonPoint `json:"points"`
}
