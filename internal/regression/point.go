package regression

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/macks26/capital-one-bowl-mania/internal/dataset"
)

const (
	// DefaultSpreadStd is the residual standard deviation assumed when
	// converting a point prediction to a cover probability. Historical
	// spread errors cluster around ten points.
	DefaultSpreadStd = 10.0

	defaultCVSeed = 1
)

// PointOptions configures the point-estimate model.
type PointOptions struct {
	// Normalize standardizes features with fit-time mean and scale.
	Normalize bool

	// SpreadStd is the error scale of the normal approximation used by
	// PredictCoverProbability.
	SpreadStd float64

	// Seed drives the cross-validation shuffle.
	Seed uint64
}

// NewDefaultPointOptions returns the standard point model configuration.
func NewDefaultPointOptions() PointOptions {
	return PointOptions{
		Normalize: true,
		SpreadStd: DefaultSpreadStd,
		Seed:      defaultCVSeed,
	}
}

// PointModel predicts game margins with ordinary least squares over
// optionally standardized features, and derives cover probabilities from a
// normal approximation around the predicted margin.
type PointModel struct {
	opt PointOptions
	id  uuid.UUID

	featureNames []string
	means        []float64
	scales       []float64
	intercept    float64
	coef         []float64
	fitted       bool
}

// NewPointModel builds an unfitted point model.
func NewPointModel(opt PointOptions) *PointModel {
	if opt.SpreadStd <= 0 {
		opt.SpreadStd = DefaultSpreadStd
	}
	if opt.Seed == 0 {
		opt.Seed = defaultCVSeed
	}
	return &PointModel{opt: opt, id: uuid.New()}
}

func init() {
	register(KindPoint, func() SpreadModel { return NewPointModel(NewDefaultPointOptions()) })
}

// ID returns the identifier assigned at construction.
func (m *PointModel) ID() uuid.UUID {
	return m.id
}

// IsFitted reports whether Fit has completed.
func (m *PointModel) IsFitted() bool {
	return m.fitted
}

// FeatureNames returns the ordered columns captured at fit time.
func (m *PointModel) FeatureNames() []string {
	return append([]string(nil), m.featureNames...)
}

// Fit estimates intercept and coefficients by least squares. Group labels
// are accepted for contract compatibility and ignored.
func (m *PointModel) Fit(x *dataset.Table, y []float64, groups []string) error {
	if err := validateAligned(x, y, groups); err != nil {
		return err
	}
	if y == nil {
		return fmt.Errorf("got 0 targets for %d rows: %w", x.NumRows(), ErrTargetLenMismatch)
	}

	names := x.Columns()
	design := x.Matrix()
	rows, p := design.Dims()
	if rows < p+1 {
		return fmt.Errorf("%d rows cannot determine %d coefficients: %w", rows, p+1, ErrTooFewRows)
	}

	means := make([]float64, p)
	scales := make([]float64, p)
	if m.opt.Normalize {
		col := make([]float64, rows)
		for j := 0; j < p; j++ {
			mat.Col(col, j, design)
			means[j] = stat.Mean(col, nil)
			scales[j] = stat.PopStdDev(col, nil)
			if scales[j] == 0 {
				scales[j] = 1
			}
			for i := 0; i < rows; i++ {
				design.Set(i, j, (design.At(i, j)-means[j])/scales[j])
			}
		}
	}

	// design matrix with a leading intercept column
	full := mat.NewDense(rows, p+1, nil)
	for i := 0; i < rows; i++ {
		full.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			full.Set(i, j+1, design.At(i, j))
		}
	}

	var qr mat.QR
	qr.Factorize(full)

	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, mat.NewVecDense(rows, append([]float64(nil), y...))); err != nil {
		return fmt.Errorf("least squares solve failed: %w", err)
	}

	m.featureNames = names
	m.means = means
	m.scales = scales
	m.intercept = sol.At(0, 0)
	m.coef = make([]float64, p)
	for j := 0; j < p; j++ {
		m.coef[j] = sol.At(j+1, 0)
	}
	m.fitted = true
	return nil
}

// Predict applies the fitted linear model to new rows.
func (m *PointModel) Predict(x *dataset.Table, groups []string) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if err := validateAligned(x, nil, groups); err != nil {
		return nil, err
	}
	if err := validateColumns(x, m.featureNames); err != nil {
		return nil, err
	}

	rows := x.NumRows()
	preds := make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := x.Row(i)
		yhat := m.intercept
		for j, v := range row {
			if m.opt.Normalize {
				v = (v - m.means[j]) / m.scales[j]
			}
			yhat += m.coef[j] * v
		}
		preds[i] = yhat
	}
	return preds, nil
}

// PredictCoverProbability returns Phi((yhat - threshold) / spreadStd) per
// row, the probability that the modeled margin beats the threshold under
// normally distributed errors.
func (m *PointModel) PredictCoverProbability(x *dataset.Table, spreads []float64, groups []string) ([]float64, error) {
	preds, err := m.Predict(x, groups)
	if err != nil {
		return nil, err
	}
	if len(spreads) != len(preds) {
		return nil, fmt.Errorf("got %d spreads for %d rows: %w", len(spreads), len(preds), ErrSpreadLenMismatch)
	}

	probs := make([]float64, len(preds))
	for i, p := range preds {
		z := (p - spreads[i]) / m.opt.SpreadStd
		probs[i] = distuv.UnitNormal.CDF(z)
	}
	return probs, nil
}

// Evaluate scores the fitted model against known targets.
func (m *PointModel) Evaluate(x *dataset.Table, y []float64, groups []string) (Evaluation, error) {
	preds, err := m.Predict(x, groups)
	if err != nil {
		return Evaluation{}, err
	}
	if len(y) != len(preds) {
		return Evaluation{}, fmt.Errorf("got %d targets for %d rows: %w", len(y), len(preds), ErrTargetLenMismatch)
	}
	return evaluatePredictions(y, preds), nil
}

// CrossValidation holds k-fold scoring results.
type CrossValidation struct {
	MeanMSE float64 `json:"mean_mse"`
	StdMSE  float64 `json:"std_mse"`
	RMSE    float64 `json:"rmse"`
}

// CrossValidate shuffles rows, partitions them into folds, and scores
// mean squared error on each held-out fold with a model fitted on the
// remainder.
func (m *PointModel) CrossValidate(x *dataset.Table, y []float64, folds int) (CrossValidation, error) {
	if err := validateAligned(x, y, nil); err != nil {
		return CrossValidation{}, err
	}
	n := x.NumRows()
	if folds < 2 {
		return CrossValidation{}, fmt.Errorf("need at least 2 folds, got %d", folds)
	}
	if n < folds {
		return CrossValidation{}, fmt.Errorf("cannot split %d rows into %d folds", n, folds)
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewPCG(m.opt.Seed, uint64(folds)))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	mses := make([]float64, 0, folds)
	for f := 0; f < folds; f++ {
		lo := f * n / folds
		hi := (f + 1) * n / folds
		holdIdx := idx[lo:hi]
		trainIdx := make([]int, 0, n-len(holdIdx))
		trainIdx = append(trainIdx, idx[:lo]...)
		trainIdx = append(trainIdx, idx[hi:]...)

		takeY := func(ids []int) []float64 {
			out := make([]float64, len(ids))
			for i, id := range ids {
				out[i] = y[id]
			}
			return out
		}

		fold := NewPointModel(m.opt)
		if err := fold.Fit(x.Take(trainIdx), takeY(trainIdx), nil); err != nil {
			return CrossValidation{}, fmt.Errorf("fold %d fit failed: %w", f, err)
		}
		ev, err := fold.Evaluate(x.Take(holdIdx), takeY(holdIdx), nil)
		if err != nil {
			return CrossValidation{}, fmt.Errorf("fold %d evaluation failed: %w", f, err)
		}
		mses = append(mses, ev.MSE)
	}

	meanMSE := stat.Mean(mses, nil)
	return CrossValidation{
		MeanMSE: meanMSE,
		StdMSE:  stat.PopStdDev(mses, nil),
		RMSE:    math.Sqrt(meanMSE),
	}, nil
}

// FeatureWeight pairs a feature with its fitted coefficient.
type FeatureWeight struct {
	Feature        string  `json:"feature"`
	Coefficient    float64 `json:"coefficient"`
	AbsCoefficient float64 `json:"abs_coefficient"`
}

// FeatureImportance ranks features by absolute coefficient, a linear
// sensitivity ordering rather than a causal one.
func (m *PointModel) FeatureImportance() ([]FeatureWeight, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	weights := make([]FeatureWeight, len(m.coef))
	for i, c := range m.coef {
		weights[i] = FeatureWeight{
			Feature:        m.featureNames[i],
			Coefficient:    c,
			AbsCoefficient: math.Abs(c),
		}
	}
	sort.SliceStable(weights, func(i, j int) bool {
		return weights[i].AbsCoefficient > weights[j].AbsCoefficient
	})
	return weights, nil
}

// Intercept returns the fitted intercept.
func (m *PointModel) Intercept() float64 {
	return m.intercept
}

// Coef returns a copy of the fitted coefficients in feature order.
func (m *PointModel) Coef() []float64 {
	return append([]float64(nil), m.coef...)
}

func evaluatePredictions(y, preds []float64) Evaluation {
	residuals := make([]float64, len(y))
	sumSq := 0.0
	sumAbs := 0.0
	for i := range y {
		r := y[i] - preds[i]
		residuals[i] = r
		sumSq += r * r
		sumAbs += math.Abs(r)
	}
	mse := sumSq / float64(len(y))
	return Evaluation{
		MSE:         mse,
		RMSE:        math.Sqrt(mse),
		MAE:         sumAbs / float64(len(y)),
		R2:          stat.RSquaredFrom(preds, y, nil),
		ResidualStd: stat.PopStdDev(residuals, nil),
	}
}
