package regression

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"
	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/samplemv"

	"github.com/macks26/capital-one-bowl-mania/internal/dataset"
)

const (
	// DefaultDraws is the number of retained posterior samples per chain.
	DefaultDraws = 2000
	// DefaultTune is the number of warmup iterations discarded per chain.
	DefaultTune = 1000
	// DefaultChains is the number of independent Markov chains.
	DefaultChains = 4

	defaultProposalStd = 0.1
	defaultBayesSeed   = 7
)

// BayesianOptions configures the Bayesian model and its sampler.
type BayesianOptions struct {
	// Hierarchical selects group-indexed intercepts and slopes drawn from
	// shared hyper-priors instead of a single global pair.
	Hierarchical bool

	Draws  int
	Tune   int
	Chains int

	// ProposalStd is the random-walk step scale of the Metropolis proposal.
	ProposalStd float64

	// Seed drives chain initialization and posterior-predictive noise.
	Seed uint64
}

// NewDefaultBayesianOptions returns the standard sampler configuration.
func NewDefaultBayesianOptions() BayesianOptions {
	return BayesianOptions{
		Draws:       DefaultDraws,
		Tune:        DefaultTune,
		Chains:      DefaultChains,
		ProposalStd: defaultProposalStd,
		Seed:        defaultBayesSeed,
	}
}

func (o BayesianOptions) withDefaults() BayesianOptions {
	if o.Draws <= 0 {
		o.Draws = DefaultDraws
	}
	if o.Tune <= 0 {
		o.Tune = DefaultTune
	}
	if o.Chains <= 0 {
		o.Chains = DefaultChains
	}
	if o.ProposalStd <= 0 {
		o.ProposalStd = defaultProposalStd
	}
	if o.Seed == 0 {
		o.Seed = defaultBayesSeed
	}
	return o
}

// BayesianModel estimates margins with Markov-chain Monte Carlo over a
// Normal likelihood. Point predictions and cover probabilities are derived
// from posterior-predictive draws rather than a closed form.
//
// Rows whose group was not seen during fitting fall back to the
// hyper-prior draws (mu_alpha, mu_beta) of each posterior sample.
type BayesianModel struct {
	opt BayesianOptions
	id  uuid.UUID

	featureNames []string
	groupLevels  []string
	groupCodes   map[string]int
	layout       paramLayout
	trace        *trace
	fitted       bool
}

// NewBayesianModel builds an unfitted Bayesian model.
func NewBayesianModel(opt BayesianOptions) *BayesianModel {
	return &BayesianModel{opt: opt.withDefaults(), id: uuid.New()}
}

func init() {
	register(KindBayesian, func() SpreadModel { return NewBayesianModel(NewDefaultBayesianOptions()) })
}

// ID returns the identifier assigned at construction.
func (m *BayesianModel) ID() uuid.UUID {
	return m.id
}

// IsFitted reports whether Fit has completed.
func (m *BayesianModel) IsFitted() bool {
	return m.fitted
}

// FeatureNames returns the ordered columns captured at fit time.
func (m *BayesianModel) FeatureNames() []string {
	return append([]string(nil), m.featureNames...)
}

// GroupLevels returns the group levels captured at fit time, in
// first-seen order. Empty for the flat topology.
func (m *BayesianModel) GroupLevels() []string {
	return append([]string(nil), m.groupLevels...)
}

// Fit draws posterior samples for the selected topology. The hierarchical
// topology requires one group label per row.
func (m *BayesianModel) Fit(x *dataset.Table, y []float64, groups []string) error {
	if err := validateAligned(x, y, groups); err != nil {
		return err
	}
	if y == nil {
		return fmt.Errorf("got 0 targets for %d rows: %w", x.NumRows(), ErrTargetLenMismatch)
	}
	hierarchical := m.opt.Hierarchical && groups != nil
	if m.opt.Hierarchical && groups == nil {
		return ErrNoGroups
	}

	rows := make([][]float64, x.NumRows())
	for i := range rows {
		rows[i] = x.Row(i)
	}

	var (
		groupIdx []int
		levels   []string
	)
	if hierarchical {
		groupIdx, levels = dataset.Factorize(groups)
	}

	layout := paramLayout{
		hierarchical: hierarchical,
		p:            x.NumCols(),
		g:            len(levels),
	}

	var target logProber
	if hierarchical {
		target = &hierPosterior{layout: layout, x: rows, y: y, groupIdx: groupIdx}
	} else {
		target = &flatPosterior{layout: layout, x: rows, y: y}
	}

	tr, err := m.sample(target, layout, y)
	if err != nil {
		return err
	}

	m.featureNames = x.Columns()
	m.groupLevels = levels
	m.groupCodes = make(map[string]int, len(levels))
	for i, l := range levels {
		m.groupCodes[l] = i
	}
	m.layout = layout
	m.trace = tr
	m.fitted = true
	return nil
}

type logProber interface {
	LogProb(theta []float64) float64
}

func (m *BayesianModel) sample(target logProber, layout paramLayout, y []float64) (*trace, error) {
	dim := layout.dim()

	sigma := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		sigma.SetSym(i, i, m.opt.ProposalStd*m.opt.ProposalStd)
	}

	initial := layout.initial(y)
	chains := make([][][]float64, m.opt.Chains)
	for c := 0; c < m.opt.Chains; c++ {
		// samplemv sources predate math/rand/v2.
		src := exprand.NewSource(m.opt.Seed + uint64(c) + 1)
		proposal, ok := samplemv.NewProposalNormal(sigma, src)
		if !ok {
			return nil, fmt.Errorf("proposal covariance is not positive definite")
		}

		mh := samplemv.MetropolisHastingser{
			Initial:  initial,
			Target:   target,
			Proposal: proposal,
			Src:      src,
			BurnIn:   m.opt.Tune,
			Rate:     1,
		}
		batch := mat.NewDense(m.opt.Draws, dim, nil)
		mh.Sample(batch)

		draws := make([][]float64, m.opt.Draws)
		for d := 0; d < m.opt.Draws; d++ {
			draws[d] = append([]float64(nil), batch.RawRowView(d)...)
		}
		chains[c] = draws
	}

	return &trace{layout: layout, chains: chains}, nil
}

// Predict returns the elementwise posterior-predictive mean.
func (m *BayesianModel) Predict(x *dataset.Table, groups []string) ([]float64, error) {
	if err := m.validatePredict(x, groups); err != nil {
		return nil, err
	}

	n := x.NumRows()
	sums := make([]float64, n)
	count := 0
	m.eachPredictive(x, groups, func(_, _ int, yRep []float64) {
		for i, v := range yRep {
			sums[i] += v
		}
		count++
	})
	for i := range sums {
		sums[i] /= float64(count)
	}
	return sums, nil
}

// PredictSamples returns the full posterior-predictive sample collection,
// indexed chain, draw, row.
func (m *BayesianModel) PredictSamples(x *dataset.Table, groups []string) ([][][]float64, error) {
	if err := m.validatePredict(x, groups); err != nil {
		return nil, err
	}

	out := make([][][]float64, m.opt.Chains)
	for c := range out {
		out[c] = make([][]float64, m.opt.Draws)
	}
	m.eachPredictive(x, groups, func(chain, draw int, yRep []float64) {
		out[chain][draw] = append([]float64(nil), yRep...)
	})
	return out, nil
}

// PredictCoverProbability returns, per row, the fraction of
// posterior-predictive samples exceeding the margin threshold. This is a
// Monte-Carlo posterior probability, not a normal approximation.
func (m *BayesianModel) PredictCoverProbability(x *dataset.Table, spreads []float64, groups []string) ([]float64, error) {
	if err := m.validatePredict(x, groups); err != nil {
		return nil, err
	}
	if len(spreads) != x.NumRows() {
		return nil, fmt.Errorf("got %d spreads for %d rows: %w", len(spreads), x.NumRows(), ErrSpreadLenMismatch)
	}

	exceed := make([]float64, x.NumRows())
	total := 0
	m.eachPredictive(x, groups, func(_, _ int, yRep []float64) {
		for i, v := range yRep {
			if v > spreads[i] {
				exceed[i]++
			}
		}
		total++
	})
	for i := range exceed {
		exceed[i] /= float64(total)
	}
	return exceed, nil
}

// Evaluate scores posterior-mean predictions against known targets.
func (m *BayesianModel) Evaluate(x *dataset.Table, y []float64, groups []string) (Evaluation, error) {
	preds, err := m.Predict(x, groups)
	if err != nil {
		return Evaluation{}, err
	}
	if len(y) != len(preds) {
		return Evaluation{}, fmt.Errorf("got %d targets for %d rows: %w", len(y), len(preds), ErrTargetLenMismatch)
	}
	return evaluatePredictions(y, preds), nil
}

func (m *BayesianModel) validatePredict(x *dataset.Table, groups []string) error {
	if !m.fitted {
		return ErrNotFitted
	}
	if err := validateAligned(x, nil, groups); err != nil {
		return err
	}
	if m.layout.hierarchical && groups == nil {
		return ErrNoGroups
	}
	return validateColumns(x, m.featureNames)
}

// eachPredictive walks every retained posterior draw and hands the callback
// one simulated outcome per row, sampled from the Normal likelihood
// conditioned on that draw's parameters.
func (m *BayesianModel) eachPredictive(x *dataset.Table, groups []string, fn func(chain, draw int, yRep []float64)) {
	n := x.NumRows()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = x.Row(i)
	}

	codes := make([]int, n)
	for i := range codes {
		codes[i] = -1 // unseen group sentinel
	}
	if m.layout.hierarchical {
		for i, g := range groups {
			if code, ok := m.groupCodes[g]; ok {
				codes[i] = code
			}
		}
	}

	rng := rand.New(rand.NewPCG(m.opt.Seed^0x9e3779b97f4a7c15, uint64(n)))
	yRep := make([]float64, n)
	for c, draws := range m.trace.chains {
		for d, theta := range draws {
			sigma := m.layout.sigma(theta)
			for i, row := range rows {
				mu := m.layout.mean(theta, row, codes[i])
				yRep[i] = mu + sigma*rng.NormFloat64()
			}
			fn(c, d, yRep)
		}
	}
}

// ParameterSummary holds posterior statistics for one parameter.
type ParameterSummary struct {
	Name  string  `json:"name"`
	Mean  float64 `json:"mean"`
	SD    float64 `json:"sd"`
	Q2_5  float64 `json:"q2_5"`
	Q97_5 float64 `json:"q97_5"`
	RHat  float64 `json:"r_hat"`
}

// Summary returns posterior statistics and split-chain R-hat convergence
// diagnostics for every sampled parameter.
func (m *BayesianModel) Summary() ([]ParameterSummary, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}

	names := m.layout.names(m.featureNames, m.groupLevels)
	summaries := make([]ParameterSummary, len(names))
	pooled := make([]float64, 0, m.opt.Chains*m.opt.Draws)
	for j, name := range names {
		pooled = pooled[:0]
		perChain := make([][]float64, len(m.trace.chains))
		for c, draws := range m.trace.chains {
			vals := make([]float64, len(draws))
			for d, theta := range draws {
				v := theta[j]
				if m.layout.isLogScale(j) {
					v = math.Exp(v)
				}
				vals[d] = v
			}
			perChain[c] = vals
			pooled = append(pooled, vals...)
		}

		sorted := append([]float64(nil), pooled...)
		sort.Float64s(sorted)
		summaries[j] = ParameterSummary{
			Name:  name,
			Mean:  stat.Mean(pooled, nil),
			SD:    stat.StdDev(pooled, nil),
			Q2_5:  stat.Quantile(0.025, stat.Empirical, sorted, nil),
			Q97_5: stat.Quantile(0.975, stat.Empirical, sorted, nil),
			RHat:  splitRHat(perChain),
		}
	}
	return summaries, nil
}

// splitRHat computes the Gelman-Rubin statistic over half-split chains.
func splitRHat(chains [][]float64) float64 {
	split := make([][]float64, 0, 2*len(chains))
	for _, c := range chains {
		half := len(c) / 2
		if half < 2 {
			return math.NaN()
		}
		split = append(split, c[:half], c[half:2*half])
	}

	n := float64(len(split[0]))
	means := make([]float64, len(split))
	within := 0.0
	for i, c := range split {
		means[i] = stat.Mean(c, nil)
		within += stat.Variance(c, nil)
	}
	within /= float64(len(split))
	between := n * stat.Variance(means, nil)
	if within == 0 {
		return 1
	}
	varPlus := (n-1)/n*within + between/n
	return math.Sqrt(varPlus / within)
}

