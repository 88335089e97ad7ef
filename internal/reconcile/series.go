package reconcile

import (
	"sort"
	"time"

	"covidcli/internal/dataset"
)

// CumulativeToIncremental converts a running-total series to per-day
// increments. The first increment equals the first cumulative value, since
// there is no prior baseline. A negative increment means the upstream source
// revised its totals downward; those are clamped to zero. The clamp is a
// documented policy choice, not a derived fact: corrected history is treated
// as "no new cases", never as negative cases.
func CumulativeToIncremental(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	increments := make([]float64, len(values))
	increments[0] = values[0]
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta < 0 {
			delta = 0
		}
		increments[i] = delta
	}
	return increments
}

// CompleteCalendar reindexes observations onto a gapless daily calendar
// spanning the min and max observed dates. Case and death counts fill with
// zero on missing days; vaccination fields forward-fill from the last known
// value, with leading gaps as zero. The vaccination rate is the ratio of
// people vaccinated to population, clipped to [0,1].
func CompleteCalendar(observations []dataset.Observation) []dataset.DailyRecord {
	if len(observations) == 0 {
		return nil
	}

	byDate := make(map[time.Time]dataset.Observation, len(observations))
	var minDate, maxDate time.Time
	for _, obs := range observations {
		day := obs.Date.Truncate(24 * time.Hour)
		byDate[day] = obs
		if minDate.IsZero() || day.Before(minDate) {
			minDate = day
		}
		if maxDate.IsZero() || day.After(maxDate) {
			maxDate = day
		}
	}

	var records []dataset.DailyRecord
	var lastVaccinated, lastPopulation float64

	for day := minDate; !day.After(maxDate); day = day.AddDate(0, 0, 1) {
		record := dataset.DailyRecord{Date: day}

		if obs, ok := byDate[day]; ok {
			if obs.NewCases != nil {
				record.NewCases = *obs.NewCases
			}
			if obs.NewDeaths != nil {
				record.NewDeaths = *obs.NewDeaths
			}
			if obs.PeopleVaccinated != nil {
				lastVaccinated = *obs.PeopleVaccinated
			}
			if obs.Population != nil {
				lastPopulation = *obs.Population
			}
		}

		record.PeopleVaccinated = lastVaccinated
		if lastPopulation > 0 {
			record.VaccinationRate = clip01(lastVaccinated / lastPopulation)
		}

		records = append(records, record)
	}

	return records
}

// ClampRange keeps the daily records falling inside [start, end] inclusive
func ClampRange(records []dataset.DailyRecord, start, end time.Time) []dataset.DailyRecord {
	var clamped []dataset.DailyRecord
	for _, r := range records {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		clamped = append(clamped, r)
	}
	return clamped
}

// WeekEndingFor returns the date of the week boundary on or after the given
// day, for weeks ending on the given weekday.
func WeekEndingFor(day time.Time, weekEnds time.Weekday) time.Time {
	offset := (int(weekEnds) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, offset)
}

// MonthEndingFor returns the last day of the given day's month
func MonthEndingFor(day time.Time) time.Time {
	firstOfNext := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

// AggregateWeekly folds a daily calendar into weekly records with weeks
// ending on the given weekday. Case and death counts sum over the week; the
// infection indicator is 1 when any day in the week had new cases; the
// vaccination fields average across the week's days.
func AggregateWeekly(records []dataset.DailyRecord, weekEnds time.Weekday) []dataset.WeeklyRecord {
	return aggregateBy(records, func(day time.Time) time.Time {
		return WeekEndingFor(day, weekEnds)
	})
}

// AggregateMonthly folds a daily calendar into calendar-month records. The
// record date is the last day of the month.
func AggregateMonthly(records []dataset.DailyRecord) []dataset.WeeklyRecord {
	return aggregateBy(records, MonthEndingFor)
}

func aggregateBy(records []dataset.DailyRecord, periodEnd func(time.Time) time.Time) []dataset.WeeklyRecord {
	if len(records) == 0 {
		return nil
	}

	type bucket struct {
		cases      float64
		deaths     float64
		rateSum    float64
		vaccinated float64
		days       int
	}

	buckets := make(map[time.Time]*bucket)
	for _, r := range records {
		key := periodEnd(r.Date)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.cases += r.NewCases
		b.deaths += r.NewDeaths
		b.rateSum += r.VaccinationRate
		b.vaccinated += r.PeopleVaccinated
		b.days++
	}

	weekly := make([]dataset.WeeklyRecord, 0, len(buckets))
	for ending, b := range buckets {
		record := dataset.WeeklyRecord{
			WeekEnding:       ending,
			NewCases:         int64(b.cases),
			NewDeaths:        int64(b.deaths),
			VaccinationRate:  clip01(b.rateSum / float64(b.days)),
			PeopleVaccinated: b.vaccinated / float64(b.days),
		}
		if b.cases > 0 {
			record.Infection = 1
		}
		weekly = append(weekly, record)
	}

	sort.Slice(weekly, func(i, j int) bool {
		return weekly[i].WeekEnding.Before(weekly[j].WeekEnding)
	})

	return weekly
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
