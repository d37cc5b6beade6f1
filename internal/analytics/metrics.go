// Package analytics provides stateless scoring and profitability functions
// over prediction arrays. Nothing here holds model state; every input
// arrives fully materialized and aligned by row order.
package analytics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrLengthMismatch  = errors.New("input arrays have differing lengths")
	ErrNoObservations  = errors.New("no observations")
	ErrTooFewResiduals = errors.New("too few residuals for a normality test")
)

// Metrics holds regression scoring results.
type Metrics struct {
	MSE            float64 `json:"mse"`
	RMSE           float64 `json:"rmse"`
	MAE            float64 `json:"mae"`
	R2             float64 `json:"r2"`
	ResidualStd    float64 `json:"residual_std"`
	MeanResidual   float64 `json:"mean_residual"`
	MedianResidual float64 `json:"median_residual"`
}

// CalculateMetrics scores predictions against true values.
func CalculateMetrics(yTrue, yPred []float64) (Metrics, error) {
	if err := checkAligned(yTrue, yPred); err != nil {
		return Metrics{}, err
	}

	n := len(yTrue)
	residuals := make([]float64, n)
	sumSq := 0.0
	sumAbs := 0.0
	for i := range yTrue {
		r := yTrue[i] - yPred[i]
		residuals[i] = r
		sumSq += r * r
		sumAbs += math.Abs(r)
	}

	sorted := append([]float64(nil), residuals...)
	sort.Float64s(sorted)

	mse := sumSq / float64(n)
	return Metrics{
		MSE:            mse,
		RMSE:           math.Sqrt(mse),
		MAE:            sumAbs / float64(n),
		R2:             stat.RSquaredFrom(yPred, yTrue, nil),
		ResidualStd:    stat.PopStdDev(residuals, nil),
		MeanResidual:   stat.Mean(residuals, nil),
		MedianResidual: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}, nil
}

// CoverAccuracy returns the share of rows where predicted and actual cover
// outcomes agree.
func CoverAccuracy(predicted, actual []bool) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("got %d predicted for %d actual: %w", len(predicted), len(actual), ErrLengthMismatch)
	}
	if len(predicted) == 0 {
		return 0, ErrNoObservations
	}
	agree := 0
	for i := range predicted {
		if predicted[i] == actual[i] {
			agree++
		}
	}
	return float64(agree) / float64(len(predicted)), nil
}

// PredictionEval is one row of a detailed prediction evaluation. Spread
// fields are nil when no betting lines were supplied.
type PredictionEval struct {
	Actual      float64 `json:"actual"`
	Predicted   float64 `json:"predicted"`
	Residual    float64 `json:"residual"`
	AbsResidual float64 `json:"abs_residual"`

	Spread          *float64 `json:"spread,omitempty"`
	ActualCovers    *bool    `json:"actual_covers,omitempty"`
	PredictedCovers *bool    `json:"predicted_covers,omitempty"`
	CorrectCover    *bool    `json:"correct_cover,omitempty"`
}

// EvaluatePredictions builds a row-per-observation evaluation. When spreads
// are supplied it also marks whether the actual and predicted margins beat
// the line and whether the two verdicts agree. Spreads here are margin
// thresholds, the negation of a quoted home line.
func EvaluatePredictions(yTrue, yPred, spreads []float64) ([]PredictionEval, error) {
	if err := checkAligned(yTrue, yPred); err != nil {
		return nil, err
	}
	if spreads != nil && len(spreads) != len(yTrue) {
		return nil, fmt.Errorf("got %d spreads for %d rows: %w", len(spreads), len(yTrue), ErrLengthMismatch)
	}

	rows := make([]PredictionEval, len(yTrue))
	for i := range yTrue {
		r := yTrue[i] - yPred[i]
		rows[i] = PredictionEval{
			Actual:      yTrue[i],
			Predicted:   yPred[i],
			Residual:    r,
			AbsResidual: math.Abs(r),
		}
		if spreads != nil {
			spread := spreads[i]
			actualCovers := yTrue[i] > spread
			predictedCovers := yPred[i] > spread
			correct := actualCovers == predictedCovers
			rows[i].Spread = &spread
			rows[i].ActualCovers = &actualCovers
			rows[i].PredictedCovers = &predictedCovers
			rows[i].CorrectCover = &correct
		}
	}
	return rows, nil
}

func checkAligned(yTrue, yPred []float64) error {
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("got %d true values for %d predictions: %w", len(yTrue), len(yPred), ErrLengthMismatch)
	}
	if len(yTrue) == 0 {
		return ErrNoObservations
	}
	return nil
}
