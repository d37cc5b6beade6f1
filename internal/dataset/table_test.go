package dataset

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	testData := map[string]struct {
		cols []string
		data [][]float64
		err  error
	}{
		"no columns":  {nil, nil, ErrNoColumns},
		"name count":  {[]string{"a", "b"}, [][]float64{{1}}, ErrRaggedColumns},
		"ragged data": {[]string{"a", "b"}, [][]float64{{1, 2}, {3}}, ErrRaggedColumns},
		"valid":       {[]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}}, nil},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			tbl, err := New(td.cols, td.data)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.cols, tbl.Columns())
			assert.Equal(t, 2, tbl.NumRows())
		})
	}
}

func TestFromRows(t *testing.T) {
	tbl, err := FromRows([]string{"x", "y"}, [][]float64{{1, 10}, {2, 20}, {3, 30}})
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.NumRows())
	col, err := tbl.Col("y")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, col)
	assert.Equal(t, []float64{2, 20}, tbl.Row(1))
}

func TestColUnknown(t *testing.T) {
	tbl, err := New([]string{"a"}, [][]float64{{1}})
	require.NoError(t, err)

	_, err = tbl.Col("missing")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestSelectReorders(t *testing.T) {
	tbl, err := New([]string{"a", "b", "c"}, [][]float64{{1}, {2}, {3}})
	require.NoError(t, err)

	sub, err := tbl.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sub.Columns())
	assert.Equal(t, []float64{3, 1}, sub.Row(0))
}

func TestMatrixLayout(t *testing.T) {
	tbl, err := FromRows([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	m := tbl.Matrix()
	rows, cols := m.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 3.0, m.At(1, 0))
	assert.Equal(t, 4.0, m.At(1, 1))
}

func TestSameColumns(t *testing.T) {
	tbl, err := New([]string{"a", "b"}, [][]float64{{1}, {2}})
	require.NoError(t, err)

	assert.True(t, tbl.SameColumns([]string{"a", "b"}))
	assert.False(t, tbl.SameColumns([]string{"b", "a"}))
	assert.False(t, tbl.SameColumns([]string{"a"}))
}

func TestFactorizeFirstSeenOrder(t *testing.T) {
	idx, levels := Factorize([]string{"SEC", "B1G", "SEC", "ACC", "B1G"})
	assert.Equal(t, []int{0, 1, 0, 2, 1}, idx)
	assert.Equal(t, []string{"SEC", "B1G", "ACC"}, levels)
}

func TestCSVRoundTrip(t *testing.T) {
	tbl, err := FromRows([]string{"rating_diff", "spread"}, [][]float64{{1.5, -7}, {-2.25, 3.5}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, tbl.Columns(), got.Columns())
	assert.Equal(t, tbl.Row(0), got.Row(0))
	assert.Equal(t, tbl.Row(1), got.Row(1))
}

func TestTrainTestSplit(t *testing.T) {
	rows := make([][]float64, 10)
	y := make([]float64, 10)
	for i := range rows {
		rows[i] = []float64{float64(i)}
		y[i] = float64(i) * 2
	}
	tbl, err := FromRows([]string{"f"}, rows)
	require.NoError(t, err)

	split, err := TrainTestSplit(tbl, y, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, 8, split.TrainX.NumRows())
	assert.Equal(t, 2, split.TestX.NumRows())

	// targets stay aligned to their rows
	for i := 0; i < split.TestX.NumRows(); i++ {
		assert.Equal(t, split.TestX.Row(i)[0]*2, split.TestY[i])
	}

	// reported indices point back at the original rows
	for i, id := range split.TestIdx {
		assert.Equal(t, float64(id), split.TestX.Row(i)[0])
	}
	assert.Len(t, split.TrainIdx, 8)
}

func TestTrainTestSplitBadInputs(t *testing.T) {
	tbl, err := FromRows([]string{"f"}, [][]float64{{1}, {2}})
	require.NoError(t, err)

	_, err = TrainTestSplit(tbl, []float64{1}, 0.5, 1)
	assert.ErrorIs(t, err, ErrRowWidthMismatch)

	_, err = TrainTestSplit(tbl, []float64{1, 2}, 1.5, 1)
	assert.Error(t, err)
}
