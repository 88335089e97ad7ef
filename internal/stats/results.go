package stats

import "time"

// Degenerate test policy: when a hypothesis test cannot be decided because a
// group is empty or the pooled proportion has no variance, the estimator
// reports a fixed fail-to-reject outcome instead of NaN.
const (
	DegenerateZ = 0.0
	DegenerateP = 1.0
)

// SignificanceLevel is the two-tailed alpha used for every hypothesis test.
const SignificanceLevel = 0.05

// BernoulliParams holds the single-parameter Bernoulli fits for the infection
// indicator and the vaccination-threshold indicator.
type BernoulliParams struct {
	PInfection     float64 `json:"p_I"`
	PVaccination   float64 `json:"p_V"`
	VarInfection   float64 `json:"var_I"`
	VarVaccination float64 `json:"var_V"`
	StdInfection   float64 `json:"std_I"`
	StdVaccination float64 `json:"std_V"`
	SampleSize     int     `json:"sample_size"`
}

// ConditionalProbabilities holds the infection probability conditioned on the
// vaccination rate being above or below the configured threshold.
type ConditionalProbabilities struct {
	Threshold      float64 `json:"threshold"`
	PInfectionHigh float64 `json:"p_I_high"`
	PInfectionLow  float64 `json:"p_I_low"`
	Difference     float64 `json:"difference"`
	NHigh          int     `json:"n_high"`
	NLow           int     `json:"n_low"`
	SEHigh         float64 `json:"se_high"`
	SELow          float64 `json:"se_low"`
}

// PeriodSum is one resampled observation: the number of infected days inside
// a single aggregation period.
type PeriodSum struct {
	PeriodEnding time.Time `json:"period_ending"`
	Infected     float64   `json:"infected"`
}

// BinomialComparison compares a Binomial(n, p) model of infected days per
// period against the resampled daily indicator sums.
type BinomialComparison struct {
	Period             string  `json:"period"`
	Trials             int     `json:"n_trials"`
	PInfection         float64 `json:"p_I"`
	ExpectedMean       float64 `json:"expected_mean"`
	ExpectedVariance   float64 `json:"expected_variance"`
	ActualMean         float64 `json:"actual_mean"`
	ActualVariance     float64 `json:"actual_variance"`
	MeanDifference     float64 `json:"mean_difference"`
	VarianceDifference float64 `json:"variance_difference"`
}

// ZTestResult is a two-sample proportion z-test between the high and low
// vaccination groups.
type ZTestResult struct {
	TestType    string  `json:"test_type"`
	NHigh       int     `json:"n_high"`
	NLow        int     `json:"n_low"`
	PHigh       float64 `json:"p_high"`
	PLow        float64 `json:"p_low"`
	Difference  float64 `json:"difference"`
	ZStatistic  float64 `json:"z_statistic"`
	PValue      float64 `json:"p_value"`
	Alpha       float64 `json:"alpha"`
	Significant bool    `json:"significant"`
}

// CorrelationResult is a Pearson correlation with a two-tailed t-test on
// n-2 degrees of freedom.
type CorrelationResult struct {
	Coefficient float64 `json:"correlation_coefficient"`
	TStatistic  float64 `json:"t_statistic"`
	PValue      float64 `json:"p_value"`
	Alpha       float64 `json:"alpha"`
	Significant bool    `json:"significant"`
	SampleSize  int     `json:"sample_size"`
}

// Results bundles every estimate produced from one reconciled dataset.
type Results struct {
	Bernoulli    BernoulliParams          `json:"bernoulli"`
	Conditional  ConditionalProbabilities `json:"conditional"`
	Binomial     BinomialComparison       `json:"binomial"`
	ZTest        ZTestResult              `json:"z_test"`
	Correlation  CorrelationResult        `json:"correlation"`
	PeriodActual []PeriodSum              `json:"period_actual"`
}
