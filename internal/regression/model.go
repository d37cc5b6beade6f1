// Package regression implements the spread prediction models: a
// point-estimate linear model and a hierarchical Bayesian model sharing a
// common fit/predict/evaluate contract.
package regression

import (
	"errors"
	"fmt"
	"sort"

	"github.com/macks26/capital-one-bowl-mania/internal/dataset"
)

var (
	ErrNotFitted         = errors.New("model is not fitted")
	ErrFeatureMismatch   = errors.New("feature columns do not match fit-time columns")
	ErrTargetLenMismatch = errors.New("target length does not match feature rows")
	ErrSpreadLenMismatch = errors.New("spread length does not match feature rows")
	ErrGroupLenMismatch  = errors.New("group length does not match feature rows")
	ErrNoGroups          = errors.New("hierarchical model requires group labels")
	ErrNoObservations    = errors.New("no observations")
	ErrTooFewRows        = errors.New("not enough rows for the number of features")
	ErrUnknownKind       = errors.New("unknown model kind")
)

// Kind identifies a spread model implementation.
type Kind string

const (
	KindPoint    Kind = "point"
	KindBayesian Kind = "bayesian"
)

// SpreadModel is the contract shared by both model variants. Group labels
// are only meaningful to the hierarchical Bayesian model; the point model
// ignores them.
type SpreadModel interface {
	// Fit estimates model parameters from a feature table and an aligned
	// target vector, capturing the feature columns for later calls.
	Fit(x *dataset.Table, y []float64, groups []string) error

	// Predict returns one predicted margin per row.
	Predict(x *dataset.Table, groups []string) ([]float64, error)

	// PredictCoverProbability returns, per row, the probability that the
	// modeled margin exceeds the given threshold. Thresholds are in margin
	// space: the negation of a quoted home line.
	PredictCoverProbability(x *dataset.Table, spreads []float64, groups []string) ([]float64, error)

	// Evaluate scores predictions against known targets.
	Evaluate(x *dataset.Table, y []float64, groups []string) (Evaluation, error)
}

// Evaluation holds held-out scoring results.
type Evaluation struct {
	MSE         float64 `json:"mse"`
	RMSE        float64 `json:"rmse"`
	MAE         float64 `json:"mae"`
	R2          float64 `json:"r2"`
	ResidualStd float64 `json:"residual_std"`
}

var registry = map[Kind]func() SpreadModel{}

func register(kind Kind, build func() SpreadModel) {
	registry[kind] = build
}

// Available reports the model kinds supported at runtime. Callers should
// consult it before requesting a kind from New.
func Available() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// New constructs a model of the given kind with default options. Use the
// kind-specific constructors to customize options.
func New(kind Kind) (SpreadModel, error) {
	build, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
	return build(), nil
}

func validateAligned(x *dataset.Table, y []float64, groups []string) error {
	n := x.NumRows()
	if n == 0 {
		return ErrNoObservations
	}
	if y != nil && len(y) != n {
		return fmt.Errorf("got %d targets for %d rows: %w", len(y), n, ErrTargetLenMismatch)
	}
	if groups != nil && len(groups) != n {
		return fmt.Errorf("got %d group labels for %d rows: %w", len(groups), n, ErrGroupLenMismatch)
	}
	return nil
}

func validateColumns(x *dataset.Table, want []string) error {
	if !x.SameColumns(want) {
		return fmt.Errorf("got columns %v, want %v: %w", x.Columns(), want, ErrFeatureMismatch)
	}
	return nil
}
