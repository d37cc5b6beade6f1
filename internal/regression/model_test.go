package regression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableKinds(t *testing.T) {
	kinds := Available()
	assert.Equal(t, []Kind{KindBayesian, KindPoint}, kinds)
}

func TestNewByKind(t *testing.T) {
	testData := map[string]struct {
		kind Kind
		err  error
	}{
		"point":    {KindPoint, nil},
		"bayesian": {KindBayesian, nil},
		"unknown":  {Kind("gradient-boost"), ErrUnknownKind},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			model, err := New(td.kind)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, model)
		})
	}
}

func TestNewReturnsUnfittedModels(t *testing.T) {
	for _, kind := range Available() {
		model, err := New(kind)
		require.NoError(t, err)

		_, err = model.Predict(singleColumnTable(t, "f", 1, 2, 3), nil)
		assert.ErrorIs(t, err, ErrNotFitted)
	}
}
