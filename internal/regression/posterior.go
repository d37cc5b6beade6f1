package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Prior scales from the model definition: weakly-informative Normal(0, 10)
// on intercepts and slopes, HalfNormal(10) on the error scale, and
// HalfNormal(5) on the hierarchical hyper-standard-deviations.
const (
	coefPriorScale    = 10.0
	errorPriorScale   = 10.0
	hyperSDPriorScale = 5.0
)

// paramLayout maps the flat sampler vector onto model parameters.
//
// Flat topology:          [alpha, beta_0..beta_{p-1}, log sigma]
// Hierarchical topology:  [mu_alpha, log sigma_alpha,
//                          mu_beta_0..mu_beta_{p-1},
//                          log sigma_beta_0..log sigma_beta_{p-1},
//                          alpha_0..alpha_{g-1},
//                          beta_{0,0}..beta_{g-1,p-1} (group-major),
//                          log sigma]
//
// Positive scales are sampled in log space; the Jacobian of the transform
// is added to the target density.
type paramLayout struct {
	hierarchical bool
	p            int // features
	g            int // groups
}

func (l paramLayout) dim() int {
	if !l.hierarchical {
		return l.p + 2
	}
	return 2 + 2*l.p + l.g + l.g*l.p + 1
}

func (l paramLayout) sigma(theta []float64) float64 {
	return math.Exp(theta[len(theta)-1])
}

func (l paramLayout) alphaIdx(group int) int {
	return 2 + 2*l.p + group
}

func (l paramLayout) betaIdx(group, feature int) int {
	return 2 + 2*l.p + l.g + group*l.p + feature
}

// mean computes the expected margin for one row. For hierarchical layouts
// a negative group code selects the hyper-prior means, the documented
// fallback for groups unseen at fit time.
func (l paramLayout) mean(theta, row []float64, code int) float64 {
	if !l.hierarchical {
		mu := theta[0]
		for j, v := range row {
			mu += theta[1+j] * v
		}
		return mu
	}
	if code < 0 {
		mu := theta[0]
		for j, v := range row {
			mu += theta[2+j] * v
		}
		return mu
	}
	mu := theta[l.alphaIdx(code)]
	for j, v := range row {
		mu += theta[l.betaIdx(code, j)] * v
	}
	return mu
}

func (l paramLayout) isLogScale(j int) bool {
	if j == l.dim()-1 {
		return true
	}
	if !l.hierarchical {
		return false
	}
	return j == 1 || (j >= 2+l.p && j < 2+2*l.p)
}

func (l paramLayout) names(features, groups []string) []string {
	if !l.hierarchical {
		names := make([]string, 0, l.dim())
		names = append(names, "alpha")
		for _, f := range features {
			names = append(names, fmt.Sprintf("beta[%s]", f))
		}
		return append(names, "sigma")
	}

	names := make([]string, 0, l.dim())
	names = append(names, "mu_alpha", "sigma_alpha")
	for _, f := range features {
		names = append(names, fmt.Sprintf("mu_beta[%s]", f))
	}
	for _, f := range features {
		names = append(names, fmt.Sprintf("sigma_beta[%s]", f))
	}
	for _, g := range groups {
		names = append(names, fmt.Sprintf("alpha[%s]", g))
	}
	for _, g := range groups {
		for _, f := range features {
			names = append(names, fmt.Sprintf("beta[%s,%s]", g, f))
		}
	}
	return append(names, "sigma")
}

// initial seeds chains at the target mean with unit scales, which keeps
// early warmup steps inside the typical set.
func (l paramLayout) initial(y []float64) []float64 {
	yMean := stat.Mean(y, nil)
	yStd := stat.PopStdDev(y, nil)
	if yStd <= 0 {
		yStd = 1
	}
	logStd := math.Log(yStd)

	theta := make([]float64, l.dim())
	theta[len(theta)-1] = logStd
	if !l.hierarchical {
		theta[0] = yMean
		return theta
	}
	theta[0] = yMean
	for g := 0; g < l.g; g++ {
		theta[l.alphaIdx(g)] = yMean
	}
	return theta
}

type trace struct {
	layout paramLayout
	chains [][][]float64 // chain, draw, parameter
}

// flatPosterior is the unnormalized log joint for the flat topology.
type flatPosterior struct {
	layout paramLayout
	x      [][]float64
	y      []float64
}

func (p *flatPosterior) LogProb(theta []float64) float64 {
	coefPrior := distuv.Normal{Mu: 0, Sigma: coefPriorScale}

	ls := theta[len(theta)-1]
	sigma := math.Exp(ls)

	lp := coefPrior.LogProb(theta[0])
	for j := 0; j < p.layout.p; j++ {
		lp += coefPrior.LogProb(theta[1+j])
	}
	lp += halfNormalLogProb(sigma, errorPriorScale) + ls

	lp += logLikelihood(p.layout, theta, p.x, p.y, nil, sigma)
	if math.IsNaN(lp) {
		return math.Inf(-1)
	}
	return lp
}

// hierPosterior is the unnormalized log joint for the hierarchical
// topology with partial pooling of group intercepts and slopes.
type hierPosterior struct {
	layout   paramLayout
	x        [][]float64
	y        []float64
	groupIdx []int
}

func (p *hierPosterior) LogProb(theta []float64) float64 {
	hyperPrior := distuv.Normal{Mu: 0, Sigma: coefPriorScale}
	l := p.layout

	muAlpha := theta[0]
	lsAlpha := theta[1]
	sigmaAlpha := math.Exp(lsAlpha)

	lp := hyperPrior.LogProb(muAlpha)
	lp += halfNormalLogProb(sigmaAlpha, hyperSDPriorScale) + lsAlpha

	for j := 0; j < l.p; j++ {
		muBeta := theta[2+j]
		lsBeta := theta[2+l.p+j]
		sigmaBeta := math.Exp(lsBeta)
		lp += hyperPrior.LogProb(muBeta)
		lp += halfNormalLogProb(sigmaBeta, hyperSDPriorScale) + lsBeta
	}

	alphaPrior := distuv.Normal{Mu: muAlpha, Sigma: sigmaAlpha}
	for g := 0; g < l.g; g++ {
		lp += alphaPrior.LogProb(theta[l.alphaIdx(g)])
		for j := 0; j < l.p; j++ {
			betaPrior := distuv.Normal{Mu: theta[2+j], Sigma: math.Exp(theta[2+l.p+j])}
			lp += betaPrior.LogProb(theta[l.betaIdx(g, j)])
		}
	}

	ls := theta[len(theta)-1]
	sigma := math.Exp(ls)
	lp += halfNormalLogProb(sigma, errorPriorScale) + ls

	lp += logLikelihood(l, theta, p.x, p.y, p.groupIdx, sigma)
	if math.IsNaN(lp) {
		return math.Inf(-1)
	}
	return lp
}

func logLikelihood(l paramLayout, theta []float64, x [][]float64, y []float64, groupIdx []int, sigma float64) float64 {
	if sigma <= 0 || math.IsInf(sigma, 1) {
		return math.Inf(-1)
	}
	const log2Pi = 1.8378770664093453
	logSigma := math.Log(sigma)

	ll := 0.0
	for i, row := range x {
		code := 0
		if groupIdx != nil {
			code = groupIdx[i]
		}
		mu := l.mean(theta, row, code)
		z := (y[i] - mu) / sigma
		ll += -0.5*log2Pi - logSigma - 0.5*z*z
	}
	return ll
}

// halfNormalLogProb is the log density of a half-normal with the given
// scale, evaluated at x >= 0.
func halfNormalLogProb(x, scale float64) float64 {
	if x < 0 {
		return math.Inf(-1)
	}
	return math.Ln2 + distuv.Normal{Mu: 0, Sigma: scale}.LogProb(x)
}
