package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// normalityAlpha is the significance threshold for the normality verdict.
const normalityAlpha = 0.05

// ResidualSummary describes the shape of a residual distribution.
// Skewness and kurtosis are the population (biased) moments; Kurtosis is
// excess kurtosis, zero for a normal distribution.
type ResidualSummary struct {
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Q25      float64 `json:"q25"`
	Median   float64 `json:"median"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`

	NormalityPValue float64 `json:"normality_p_value"`
	IsNormal        bool    `json:"is_normal"`
}

// ResidualAnalysis summarizes residuals and runs the D'Agostino-Pearson
// omnibus normality test, which needs at least eight observations.
func ResidualAnalysis(residuals []float64) (ResidualSummary, error) {
	if len(residuals) < 8 {
		return ResidualSummary{}, ErrTooFewResiduals
	}

	sorted := append([]float64(nil), residuals...)
	sort.Float64s(sorted)

	skew, kurt := populationMoments(residuals)
	p := normaltest(residuals)

	return ResidualSummary{
		Mean:            stat.Mean(residuals, nil),
		Std:             stat.PopStdDev(residuals, nil),
		Min:             sorted[0],
		Max:             sorted[len(sorted)-1],
		Q25:             stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median:          stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q75:             stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Skewness:        skew,
		Kurtosis:        kurt,
		NormalityPValue: p,
		IsNormal:        p > normalityAlpha,
	}, nil
}

// populationMoments returns the population skewness and excess kurtosis.
func populationMoments(x []float64) (float64, float64) {
	mean := stat.Mean(x, nil)
	var m2, m3, m4 float64
	for _, v := range x {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
		m4 += d * d * d * d
	}
	n := float64(len(x))
	m2 /= n
	m3 /= n
	m4 /= n
	if m2 == 0 {
		return 0, 0
	}
	return m3 / math.Pow(m2, 1.5), m4/(m2*m2) - 3
}

// normaltest is the D'Agostino-Pearson K-squared omnibus test: the
// squared skewness and kurtosis z-scores sum to a chi-squared statistic
// with two degrees of freedom.
func normaltest(x []float64) float64 {
	z1 := skewnessZ(x)
	z2 := kurtosisZ(x)
	k2 := z1*z1 + z2*z2

	chi2 := distuv.ChiSquared{K: 2}
	return 1 - chi2.CDF(k2)
}

func skewnessZ(x []float64) float64 {
	n := float64(len(x))
	b1, _ := populationMoments(x)

	y := b1 * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) / ((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(0.5*math.Log(w2))
	alpha := math.Sqrt(2 / (w2 - 1))
	if y == 0 {
		return 0
	}
	return delta * math.Log(y/alpha+math.Sqrt(math.Pow(y/alpha, 2)+1))
}

func kurtosisZ(x []float64) float64 {
	n := float64(len(x))
	_, excess := populationMoments(x)
	b2 := excess + 3

	mean := 3 * (n - 1) / (n + 1)
	variance := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	z := (b2 - mean) / math.Sqrt(variance)

	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) * math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))

	term1 := 1 - 2/(9*a)
	denom := 1 + z*math.Sqrt(2/(a-4))
	term2 := math.Copysign(math.Cbrt((1-2/a)/math.Abs(denom)), denom)
	return (term1 - term2) / math.Sqrt(2/(9*a))
}
