package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macks26/capital-one-bowl-mania/internal/dataset"
	"github.com/macks26/capital-one-bowl-mania/internal/regression"
)

// A model that knows each margin exactly must agree with ActualCovers
// when fed CoverThresholds: high probability exactly where the home side
// covered the quoted line.
func TestCoverThresholdsAgreeWithActualCovers(t *testing.T) {
	margins := []float64{7, -3, 21, 10, -14, 3}
	x, err := dataset.New([]string{ColRatingDiff}, [][]float64{margins})
	require.NoError(t, err)

	set := &Set{
		X:       x,
		Y:       margins,
		Spreads: []float64{-13.5, 2.5, -13.5, -6.5, 10.5, -2.5},
	}

	model := regression.NewPointModel(regression.PointOptions{SpreadStd: 1})
	require.NoError(t, model.Fit(set.X, set.Y, nil))

	probs, err := model.PredictCoverProbability(set.X, set.CoverThresholds(), nil)
	require.NoError(t, err)

	covers := set.ActualCovers()
	assert.Equal(t, []bool{false, false, true, true, false, true}, covers)
	for i, covered := range covers {
		if covered {
			assert.Greater(t, probs[i], 0.5, "row %d", i)
		} else {
			assert.Less(t, probs[i], 0.5, "row %d", i)
		}
	}
}

func TestCoverThresholdsNegateLines(t *testing.T) {
	set := &Set{Spreads: []float64{-13.5, 3, 0}}
	assert.Equal(t, []float64{13.5, -3, 0}, set.CoverThresholds())
}
