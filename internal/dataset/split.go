package dataset

import (
	"fmt"
	"math/rand/v2"
)

// Split holds the outcome of a train/test partition with targets kept
// aligned to their tables by row order.
type Split struct {
	TrainX *Table
	TestX  *Table
	TrainY []float64
	TestY  []float64

	// Original row indices of each partition, for callers carrying
	// additional row-aligned slices.
	TrainIdx []int
	TestIdx  []int
}

// TrainTestSplit shuffles rows with a seeded generator and partitions them,
// reserving testFrac of rows (at least one when possible) for the test set.
func TrainTestSplit(x *Table, y []float64, testFrac float64, seed uint64) (*Split, error) {
	n := x.NumRows()
	if len(y) != n {
		return nil, fmt.Errorf("target has %d values for %d rows: %w", len(y), n, ErrRowWidthMismatch)
	}
	if testFrac <= 0 || testFrac >= 1 {
		return nil, fmt.Errorf("test fraction %v outside (0, 1)", testFrac)
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	nTest := int(float64(n) * testFrac)
	if nTest == 0 && n > 1 {
		nTest = 1
	}
	testIdx := idx[:nTest]
	trainIdx := idx[nTest:]

	takeY := func(ids []int) []float64 {
		out := make([]float64, len(ids))
		for i, id := range ids {
			out[i] = y[id]
		}
		return out
	}

	return &Split{
		TrainX:   x.Take(trainIdx),
		TestX:    x.Take(testIdx),
		TrainY:   takeY(trainIdx),
		TestY:    takeY(testIdx),
		TrainIdx: trainIdx,
		TestIdx:  testIdx,
	}, nil
}
