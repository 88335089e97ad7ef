// Package stats fits the probabilistic models over a reconciled dataset:
// Bernoulli parameters for the infection and vaccination indicators,
// threshold-conditioned infection probabilities, a Binomial model of infected
// days per period, a two-sample proportion z-test, and a Pearson correlation.
// All estimators are closed-form; dist.go supplies the normal and Student-t
// CDFs the hypothesis tests need.
package stats

import (
	"context"
	"log/slog"
	"math"
	"time"

	"covidcli/internal/dataset"
	"covidcli/internal/reconcile"
)

// Estimator runs the full battery of estimates for one reconciled dataset.
type Estimator struct {
	threshold float64
	logger    *slog.Logger
}

// NewEstimator creates an estimator with the given vaccination-rate threshold
func NewEstimator(threshold float64, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{threshold: threshold, logger: logger}
}

// Estimate computes every model in Results. The weekly records drive the
// Bernoulli, conditional, z-test and correlation estimates; the daily records
// supply the per-period indicator sums the Binomial comparison is checked
// against.
func (e *Estimator) Estimate(ctx context.Context, weekly []dataset.WeeklyRecord, daily []dataset.DailyRecord, period reconcile.Period, weekEnds time.Weekday) Results {
	e.logger.InfoContext(ctx, "estimating statistical models",
		"weeks", len(weekly),
		"days", len(daily),
		"threshold", e.threshold,
		"period", string(period))

	conditional := ConditionalByThreshold(weekly, e.threshold)
	binomial, sums := CompareBinomial(daily, period, weekEnds)

	results := Results{
		Bernoulli:    FitBernoulli(weekly),
		Conditional:  conditional,
		Binomial:     binomial,
		ZTest:        TwoProportionZTest(weekly, e.threshold),
		Correlation:  CorrelateVaccinationCases(weekly),
		PeriodActual: sums,
	}

	if results.ZTest.PValue == DegenerateP && results.ZTest.ZStatistic == DegenerateZ {
		e.logger.WarnContext(ctx, "proportion test degenerate, reporting fail-to-reject",
			"n_high", results.ZTest.NHigh,
			"n_low", results.ZTest.NLow)
	}
	return results
}

// FitBernoulli estimates single-parameter Bernoulli models for the weekly
// infection indicator and the vaccination rate. The rate is already clipped
// to [0,1] and is treated as a proportion even though it is continuous.
func FitBernoulli(records []dataset.WeeklyRecord) BernoulliParams {
	n := len(records)
	if n == 0 {
		return BernoulliParams{}
	}

	infected := 0
	rateSum := 0.0
	for _, r := range records {
		if r.Infection > 0 {
			infected++
		}
		rateSum += r.VaccinationRate
	}

	pI := float64(infected) / float64(n)
	pV := rateSum / float64(n)
	return BernoulliParams{
		PInfection:     pI,
		PVaccination:   pV,
		VarInfection:   pI * (1 - pI),
		VarVaccination: pV * (1 - pV),
		StdInfection:   math.Sqrt(pI * (1 - pI)),
		StdVaccination: math.Sqrt(pV * (1 - pV)),
		SampleSize:     n,
	}
}

// ConditionalByThreshold partitions the weeks at the vaccination threshold
// and estimates the infection probability inside each group. A rate exactly
// equal to the threshold belongs to the high group.
func ConditionalByThreshold(records []dataset.WeeklyRecord, threshold float64) ConditionalProbabilities {
	highInfected, highTotal := 0, 0
	lowInfected, lowTotal := 0, 0
	for _, r := range records {
		if r.VaccinationRate >= threshold {
			highTotal++
			if r.Infection > 0 {
				highInfected++
			}
		} else {
			lowTotal++
			if r.Infection > 0 {
				lowInfected++
			}
		}
	}

	pHigh := proportion(highInfected, highTotal)
	pLow := proportion(lowInfected, lowTotal)
	return ConditionalProbabilities{
		Threshold:      threshold,
		PInfectionHigh: pHigh,
		PInfectionLow:  pLow,
		Difference:     pHigh - pLow,
		NHigh:          highTotal,
		NLow:           lowTotal,
		SEHigh:         standardError(pHigh, highTotal),
		SELow:          standardError(pLow, lowTotal),
	}
}

// CompareBinomial fits Binomial(n, p) to the count of infected days per
// aggregation period, with p the daily infection probability and n the number
// of days in a period, and compares the model moments to the resampled sums.
func CompareBinomial(daily []dataset.DailyRecord, period reconcile.Period, weekEnds time.Weekday) (BinomialComparison, []PeriodSum) {
	trials := period.Trials()
	cmp := BinomialComparison{Period: string(period), Trials: trials}
	if len(daily) == 0 {
		return cmp, nil
	}

	periodEnd := func(day time.Time) time.Time {
		return reconcile.WeekEndingFor(day, weekEnds)
	}
	if period == reconcile.PeriodMonthly {
		periodEnd = reconcile.MonthEndingFor
	}

	infected := 0
	var sums []PeriodSum
	for _, d := range daily {
		if d.Infected() {
			infected++
		}
		end := periodEnd(d.Date)
		if len(sums) == 0 || !sums[len(sums)-1].PeriodEnding.Equal(end) {
			sums = append(sums, PeriodSum{PeriodEnding: end})
		}
		if d.Infected() {
			sums[len(sums)-1].Infected++
		}
	}

	values := make([]float64, len(sums))
	for i, s := range sums {
		values[i] = s.Infected
	}

	p := float64(infected) / float64(len(daily))
	cmp.PInfection = p
	cmp.ExpectedMean = float64(trials) * p
	cmp.ExpectedVariance = float64(trials) * p * (1 - p)
	cmp.ActualMean = mean(values)
	cmp.ActualVariance = sampleVariance(values)
	cmp.MeanDifference = cmp.ActualMean - cmp.ExpectedMean
	cmp.VarianceDifference = cmp.ActualVariance - cmp.ExpectedVariance
	return cmp, sums
}

// TwoProportionZTest tests whether the infection proportion differs between
// the high and low vaccination groups using a pooled two-sample z statistic.
// When either group is empty or the pooled proportion has no variance the
// test is undecidable and reports DegenerateZ and DegenerateP.
func TwoProportionZTest(records []dataset.WeeklyRecord, threshold float64) ZTestResult {
	highInfected, highTotal := 0, 0
	lowInfected, lowTotal := 0, 0
	for _, r := range records {
		if r.VaccinationRate >= threshold {
			highTotal++
			if r.Infection > 0 {
				highInfected++
			}
		} else {
			lowTotal++
			if r.Infection > 0 {
				lowInfected++
			}
		}
	}

	result := ZTestResult{
		TestType: "two-sample proportion z-test",
		NHigh:    highTotal,
		NLow:     lowTotal,
		PHigh:    proportion(highInfected, highTotal),
		PLow:     proportion(lowInfected, lowTotal),
		Alpha:    SignificanceLevel,
	}
	result.Difference = result.PHigh - result.PLow

	if highTotal == 0 || lowTotal == 0 {
		result.ZStatistic = DegenerateZ
		result.PValue = DegenerateP
		return result
	}

	pooled := float64(highInfected+lowInfected) / float64(highTotal+lowTotal)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(highTotal) + 1/float64(lowTotal)))
	if se == 0 {
		result.ZStatistic = DegenerateZ
		result.PValue = DegenerateP
		return result
	}

	result.ZStatistic = result.Difference / se
	result.PValue = 2 * (1 - normalCDF(math.Abs(result.ZStatistic)))
	result.Significant = result.PValue < SignificanceLevel
	return result
}

// CorrelateVaccinationCases computes the Pearson correlation between the
// weekly vaccination rate and the weekly new case count, with a two-tailed
// t-test on n-2 degrees of freedom. Fewer than three weeks, or a constant
// series on either side, yields a zero correlation with p = 1.
func CorrelateVaccinationCases(records []dataset.WeeklyRecord) CorrelationResult {
	n := len(records)
	result := CorrelationResult{
		Alpha:      SignificanceLevel,
		PValue:     1,
		SampleSize: n,
	}
	if n < 3 {
		return result
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, r := range records {
		xs[i] = r.VaccinationRate
		ys[i] = float64(r.NewCases)
	}

	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return result
	}

	r := sxy / math.Sqrt(sxx*syy)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}

	denom := 1 - r*r
	if denom < 1e-12 {
		denom = 1e-12
	}
	t := r * math.Sqrt(float64(n-2)/denom)

	result.Coefficient = r
	result.TStatistic = t
	result.PValue = studentTTwoTailedP(t, float64(n-2))
	result.Significant = result.PValue < SignificanceLevel
	return result
}

func proportion(successes, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(successes) / float64(total)
}

func standardError(p float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Sqrt(p * (1 - p) / float64(n))
}
