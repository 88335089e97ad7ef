package stats

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covidcli/internal/dataset"
	"covidcli/internal/reconcile"
)

func week(ending time.Time, infected int, rate float64, cases int64) dataset.WeeklyRecord {
	return dataset.WeeklyRecord{
		WeekEnding:      ending,
		NewCases:        cases,
		Infection:       infected,
		VaccinationRate: rate,
	}
}

func weeks(infections []int, rates []float64) []dataset.WeeklyRecord {
	base := time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC)
	records := make([]dataset.WeeklyRecord, len(infections))
	for i := range infections {
		var cases int64
		if infections[i] > 0 {
			cases = 100
		}
		records[i] = week(base.AddDate(0, 0, 7*i), infections[i], rates[i], cases)
	}
	return records
}

func TestFitBernoulli(t *testing.T) {
	records := weeks([]int{1, 1, 0, 1}, []float64{0.3, 0.6, 0.6, 0.8})

	params := FitBernoulli(records)

	assert.InDelta(t, 0.75, params.PInfection, 1e-12)
	// p_V is the mean vaccination rate, not the share of weeks above any cutoff
	assert.InDelta(t, 0.575, params.PVaccination, 1e-12)
	assert.InDelta(t, 0.1875, params.VarInfection, 1e-12)
	assert.InDelta(t, 0.575*0.425, params.VarVaccination, 1e-12)
	assert.Equal(t, 4, params.SampleSize)

	assert.GreaterOrEqual(t, params.PInfection, 0.0)
	assert.LessOrEqual(t, params.PInfection, 1.0)
}

func TestFitBernoulli_Empty(t *testing.T) {
	params := FitBernoulli(nil)
	assert.Zero(t, params.PInfection)
	assert.Zero(t, params.SampleSize)
}

func TestConditionalByThreshold(t *testing.T) {
	records := weeks([]int{1, 1, 0, 1}, []float64{0.3, 0.6, 0.6, 0.8})

	cond := ConditionalByThreshold(records, 0.5)

	assert.InDelta(t, 2.0/3.0, cond.PInfectionHigh, 1e-12)
	assert.InDelta(t, 1.0, cond.PInfectionLow, 1e-12)
	assert.InDelta(t, -1.0/3.0, cond.Difference, 1e-12)
	assert.Equal(t, 3, cond.NHigh)
	assert.Equal(t, 1, cond.NLow)
	assert.Equal(t, len(records), cond.NHigh+cond.NLow)
	assert.Greater(t, cond.SEHigh, 0.0)
	assert.Zero(t, cond.SELow)
}

func TestConditionalByThreshold_BoundaryGoesHigh(t *testing.T) {
	records := weeks([]int{1, 0}, []float64{0.5, 0.4})

	cond := ConditionalByThreshold(records, 0.5)

	assert.Equal(t, 1, cond.NHigh)
	assert.Equal(t, 1, cond.NLow)
	assert.InDelta(t, 1.0, cond.PInfectionHigh, 1e-12)
	assert.InDelta(t, 0.0, cond.PInfectionLow, 1e-12)
}

func TestConditionalByThreshold_DegenerateThresholds(t *testing.T) {
	records := weeks([]int{1, 0, 1}, []float64{0.2, 0.5, 0.9})

	t.Run("zero threshold puts every week high", func(t *testing.T) {
		cond := ConditionalByThreshold(records, 0)
		assert.Equal(t, 3, cond.NHigh)
		assert.Zero(t, cond.NLow)
		assert.InDelta(t, 2.0/3.0, cond.PInfectionHigh, 1e-12)
		assert.Zero(t, cond.PInfectionLow)
		assert.Zero(t, cond.SELow)
	})

	t.Run("threshold one puts every week low", func(t *testing.T) {
		cond := ConditionalByThreshold(records, 1)
		assert.Zero(t, cond.NHigh)
		assert.Equal(t, 3, cond.NLow)
		assert.InDelta(t, 2.0/3.0, cond.PInfectionLow, 1e-12)
		assert.Zero(t, cond.SEHigh)
	})

	t.Run("rate exactly one goes high at threshold one", func(t *testing.T) {
		cond := ConditionalByThreshold(weeks([]int{1}, []float64{1.0}), 1)
		assert.Equal(t, 1, cond.NHigh)
		assert.Zero(t, cond.NLow)
	})
}

func TestCompareBinomial(t *testing.T) {
	base := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC) // Monday
	var daily []dataset.DailyRecord
	for i := 0; i < 14; i++ {
		var cases float64
		if i%2 == 0 {
			cases = 5
		}
		daily = append(daily, dataset.DailyRecord{Date: base.AddDate(0, 0, i), NewCases: cases})
	}

	cmp, sums := CompareBinomial(daily, reconcile.PeriodWeekly, time.Sunday)

	assert.Equal(t, 7, cmp.Trials)
	assert.InDelta(t, 0.5, cmp.PInfection, 1e-12)
	assert.InDelta(t, float64(cmp.Trials)*cmp.PInfection, cmp.ExpectedMean, 1e-12)
	assert.InDelta(t, 7*0.5*0.5, cmp.ExpectedVariance, 1e-12)

	require.Len(t, sums, 2)
	assert.Equal(t, time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC), sums[0].PeriodEnding)
	assert.InDelta(t, 4.0, sums[0].Infected, 1e-12)
	assert.InDelta(t, 3.0, sums[1].Infected, 1e-12)
	assert.InDelta(t, 3.5, cmp.ActualMean, 1e-12)
}

func TestCompareBinomial_Empty(t *testing.T) {
	cmp, sums := CompareBinomial(nil, reconcile.PeriodWeekly, time.Sunday)
	assert.Zero(t, cmp.ExpectedMean)
	assert.Empty(t, sums)
}

func TestCompareBinomial_Monthly(t *testing.T) {
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	var daily []dataset.DailyRecord
	for i := 0; i < 31; i++ {
		daily = append(daily, dataset.DailyRecord{Date: base.AddDate(0, 0, i), NewCases: 1})
	}

	cmp, sums := CompareBinomial(daily, reconcile.PeriodMonthly, time.Sunday)

	assert.Equal(t, 30, cmp.Trials)
	assert.InDelta(t, 30.0, cmp.ExpectedMean, 1e-12)
	require.Len(t, sums, 1)
	assert.InDelta(t, 31.0, sums[0].Infected, 1e-12)
}

func TestTwoProportionZTest(t *testing.T) {
	infections := make([]int, 20)
	rates := make([]float64, 20)
	for i := 0; i < 10; i++ {
		rates[i] = 0.9
		if i < 8 {
			infections[i] = 1
		}
	}
	for i := 10; i < 20; i++ {
		rates[i] = 0.1
		if i < 12 {
			infections[i] = 1
		}
	}

	result := TwoProportionZTest(weeks(infections, rates), 0.5)

	assert.InDelta(t, 0.8, result.PHigh, 1e-12)
	assert.InDelta(t, 0.2, result.PLow, 1e-12)
	assert.InDelta(t, 2.6833, result.ZStatistic, 1e-3)
	assert.InDelta(t, 0.0073, result.PValue, 1e-3)
	assert.True(t, result.Significant)
}

func TestTwoProportionZTest_EmptyGroupIsDegenerate(t *testing.T) {
	records := weeks([]int{1, 0, 1}, []float64{0.6, 0.7, 0.8})

	result := TwoProportionZTest(records, 0.5)

	assert.Equal(t, DegenerateZ, result.ZStatistic)
	assert.Equal(t, DegenerateP, result.PValue)
	assert.False(t, result.Significant)
}

func TestTwoProportionZTest_NoVarianceIsDegenerate(t *testing.T) {
	records := weeks([]int{1, 1, 1, 1}, []float64{0.3, 0.4, 0.6, 0.7})

	result := TwoProportionZTest(records, 0.5)

	assert.Equal(t, DegenerateZ, result.ZStatistic)
	assert.Equal(t, DegenerateP, result.PValue)
}

func TestCorrelateVaccinationCases_PerfectNegative(t *testing.T) {
	base := time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC)
	records := []dataset.WeeklyRecord{
		{WeekEnding: base, VaccinationRate: 0.1, NewCases: 400},
		{WeekEnding: base.AddDate(0, 0, 7), VaccinationRate: 0.2, NewCases: 300},
		{WeekEnding: base.AddDate(0, 0, 14), VaccinationRate: 0.3, NewCases: 200},
		{WeekEnding: base.AddDate(0, 0, 21), VaccinationRate: 0.4, NewCases: 100},
	}

	result := CorrelateVaccinationCases(records)

	assert.InDelta(t, -1.0, result.Coefficient, 1e-9)
	assert.Less(t, result.PValue, 1e-6)
	assert.True(t, result.Significant)
	assert.Equal(t, 4, result.SampleSize)
}

func TestCorrelateVaccinationCases_TooFewOrConstant(t *testing.T) {
	tests := []struct {
		name       string
		infections []int
		rates      []float64
	}{
		{"two weeks", []int{1, 0}, []float64{0.2, 0.8}},
		{"constant rate", []int{1, 0, 1, 0}, []float64{0.5, 0.5, 0.5, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CorrelateVaccinationCases(weeks(tt.infections, tt.rates))
			assert.Zero(t, result.Coefficient)
			assert.Zero(t, result.TStatistic)
			assert.InDelta(t, 1.0, result.PValue, 1e-12)
			assert.False(t, result.Significant)
		})
	}
}

func TestEstimator_Estimate(t *testing.T) {
	weekly := weeks([]int{1, 1, 0, 1}, []float64{0.3, 0.6, 0.6, 0.8})

	base := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
	var daily []dataset.DailyRecord
	for i := 0; i < 28; i++ {
		var cases float64
		if i%3 != 0 {
			cases = 2
		}
		daily = append(daily, dataset.DailyRecord{Date: base.AddDate(0, 0, i), NewCases: cases})
	}

	est := NewEstimator(0.5, slog.Default())
	results := est.Estimate(context.Background(), weekly, daily, reconcile.PeriodWeekly, time.Sunday)

	assert.InDelta(t, 0.75, results.Bernoulli.PInfection, 1e-12)
	assert.InDelta(t, -1.0/3.0, results.Conditional.Difference, 1e-12)
	assert.Equal(t, 7, results.Binomial.Trials)
	assert.NotEmpty(t, results.PeriodActual)
	assert.GreaterOrEqual(t, results.ZTest.PValue, 0.0)
	assert.LessOrEqual(t, results.ZTest.PValue, 1.0)
	assert.GreaterOrEqual(t, results.Correlation.PValue, 0.0)
	assert.LessOrEqual(t, results.Correlation.PValue, 1.0)
}
