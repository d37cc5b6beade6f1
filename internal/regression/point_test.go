package regression

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macks26/capital-one-bowl-mania/internal/dataset"
)

func singleColumnTable(t *testing.T, name string, vals ...float64) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New([]string{name}, [][]float64{vals})
	require.NoError(t, err)
	return tbl
}

func gaussianTable(t *testing.T, rng *rand.Rand, cols []string, rows int) *dataset.Table {
	t.Helper()
	data := make([][]float64, len(cols))
	for c := range data {
		data[c] = make([]float64, rows)
		for r := range data[c] {
			data[c][r] = rng.NormFloat64()
		}
	}
	tbl, err := dataset.New(cols, data)
	require.NoError(t, err)
	return tbl
}

func gaussianTarget(rng *rand.Rand, rows int) []float64 {
	y := make([]float64, rows)
	for i := range y {
		y[i] = rng.NormFloat64()
	}
	return y
}

func TestPointModelFitCapturesFeatures(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	x := gaussianTable(t, rng, []string{"feature1", "feature2"}, 100)
	y := gaussianTarget(rng, 100)

	model := NewPointModel(NewDefaultPointOptions())
	assert.False(t, model.IsFitted())

	require.NoError(t, model.Fit(x, y, nil))
	assert.True(t, model.IsFitted())
	assert.Equal(t, []string{"feature1", "feature2"}, model.FeatureNames())
}

func TestPointModelFitUnderdetermined(t *testing.T) {
	x, err := dataset.New([]string{"feature1", "feature2"}, [][]float64{{1}, {2}})
	require.NoError(t, err)

	model := NewPointModel(NewDefaultPointOptions())
	err = model.Fit(x, []float64{3}, nil)
	assert.ErrorIs(t, err, ErrTooFewRows)
	assert.False(t, model.IsFitted())
}

func TestPointModelPredictNewRows(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	x := gaussianTable(t, rng, []string{"feature1", "feature2"}, 100)
	y := gaussianTarget(rng, 100)

	model := NewPointModel(NewDefaultPointOptions())
	require.NoError(t, model.Fit(x, y, nil))

	preds, err := model.Predict(gaussianTable(t, rng, []string{"feature1", "feature2"}, 20), nil)
	require.NoError(t, err)
	assert.Len(t, preds, 20)
}

func TestPointModelRecoversLinearRelationship(t *testing.T) {
	tol := 1e-8
	rng := rand.New(rand.NewPCG(5, 6))
	x := gaussianTable(t, rng, []string{"rating_diff", "pace"}, 60)
	f1, err := x.Col("rating_diff")
	require.NoError(t, err)
	f2, err := x.Col("pace")
	require.NoError(t, err)

	y := make([]float64, 60)
	for i := range y {
		y[i] = 5 + 2*f1[i] - 3*f2[i]
	}

	for name, normalize := range map[string]bool{"raw": false, "standardized": true} {
		t.Run(name, func(t *testing.T) {
			opt := NewDefaultPointOptions()
			opt.Normalize = normalize
			model := NewPointModel(opt)
			require.NoError(t, model.Fit(x, y, nil))

			preds, err := model.Predict(x, nil)
			require.NoError(t, err)
			for i := range y {
				assert.InDelta(t, y[i], preds[i], tol)
			}

			if !normalize {
				assert.InDelta(t, 5.0, model.Intercept(), tol)
				coef := model.Coef()
				assert.InDelta(t, 2.0, coef[0], tol)
				assert.InDelta(t, -3.0, coef[1], tol)
			}
		})
	}
}

func TestPointModelColumnMismatch(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	x := gaussianTable(t, rng, []string{"a", "b"}, 30)
	model := NewPointModel(NewDefaultPointOptions())
	require.NoError(t, model.Fit(x, gaussianTarget(rng, 30), nil))

	reordered, err := x.Select("b", "a")
	require.NoError(t, err)
	_, err = model.Predict(reordered, nil)
	assert.ErrorIs(t, err, ErrFeatureMismatch)

	subset, err := x.Select("a")
	require.NoError(t, err)
	_, err = model.Predict(subset, nil)
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestPointModelUnfittedCalls(t *testing.T) {
	model := NewPointModel(NewDefaultPointOptions())
	x := singleColumnTable(t, "f", 1, 2, 3)

	_, err := model.Predict(x, nil)
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = model.PredictCoverProbability(x, []float64{0, 0, 0}, nil)
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = model.Evaluate(x, []float64{1, 2, 3}, nil)
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = model.FeatureImportance()
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestPointModelCoverProbability(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	x := gaussianTable(t, rng, []string{"f1", "f2"}, 100)
	y := gaussianTarget(rng, 100)

	model := NewPointModel(NewDefaultPointOptions())
	require.NoError(t, model.Fit(x, y, nil))

	test := gaussianTable(t, rng, []string{"f1", "f2"}, 20)
	spreads := make([]float64, 20)
	for i := range spreads {
		spreads[i] = -7
	}

	probs, err := model.PredictCoverProbability(test, spreads, nil)
	require.NoError(t, err)
	require.Len(t, probs, 20)
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}

	_, err = model.PredictCoverProbability(test, spreads[:5], nil)
	assert.ErrorIs(t, err, ErrSpreadLenMismatch)
}

func TestPointModelCoverProbabilityDirection(t *testing.T) {
	// a model predicting a large positive margin should strongly favor
	// covering a deep negative spread
	x := singleColumnTable(t, "f", 1, 2, 3, 4, 5)
	y := []float64{10, 20, 30, 40, 50}

	opt := NewDefaultPointOptions()
	opt.Normalize = false
	model := NewPointModel(opt)
	require.NoError(t, model.Fit(x, y, nil))

	probs, err := model.PredictCoverProbability(singleColumnTable(t, "f", 5), []float64{-20}, nil)
	require.NoError(t, err)
	assert.Greater(t, probs[0], 0.99)
}

func TestPointModelCrossValidate(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	x := gaussianTable(t, rng, []string{"f1", "f2"}, 80)
	y := gaussianTarget(rng, 80)

	model := NewPointModel(NewDefaultPointOptions())
	cv, err := model.CrossValidate(x, y, 5)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, cv.StdMSE, 0.0)
	assert.InDelta(t, math.Sqrt(cv.MeanMSE), cv.RMSE, 1e-12)

	_, err = model.CrossValidate(x, y, 1)
	assert.Error(t, err)
	_, err = model.CrossValidate(x, y[:10], 5)
	assert.ErrorIs(t, err, ErrTargetLenMismatch)
}

func TestPointModelFeatureImportanceSorted(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	x := gaussianTable(t, rng, []string{"weak", "strong", "medium"}, 200)
	weak, err := x.Col("weak")
	require.NoError(t, err)
	strong, err := x.Col("strong")
	require.NoError(t, err)
	medium, err := x.Col("medium")
	require.NoError(t, err)

	y := make([]float64, 200)
	for i := range y {
		y[i] = 0.1*weak[i] - 8*strong[i] + 2*medium[i]
	}

	opt := NewDefaultPointOptions()
	opt.Normalize = false
	model := NewPointModel(opt)
	require.NoError(t, model.Fit(x, y, nil))

	weights, err := model.FeatureImportance()
	require.NoError(t, err)
	require.Len(t, weights, 3)
	assert.Equal(t, "strong", weights[0].Feature)
	for i := 1; i < len(weights); i++ {
		assert.GreaterOrEqual(t, weights[i-1].AbsCoefficient, weights[i].AbsCoefficient)
	}
}

func TestPointModelEvaluate(t *testing.T) {
	x := singleColumnTable(t, "f", 1, 2, 3, 4)
	y := []float64{2, 4, 6, 8}

	opt := NewDefaultPointOptions()
	opt.Normalize = false
	model := NewPointModel(opt)
	require.NoError(t, model.Fit(x, y, nil))

	ev, err := model.Evaluate(x, y, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, ev.MSE, 1e-12)
	assert.InDelta(t, 0.0, ev.MAE, 1e-12)
	assert.InDelta(t, 1.0, ev.R2, 1e-12)
}

func TestPointModelExportJSON(t *testing.T) {
	x := singleColumnTable(t, "f", 1, 2, 3)
	model := NewPointModel(NewDefaultPointOptions())

	_, err := model.ExportJSON()
	assert.ErrorIs(t, err, ErrNotFitted)

	require.NoError(t, model.Fit(x, []float64{1, 2, 3}, nil))
	data, err := model.ExportJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"feature_names":["f"]`)
}
