package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateProfit(t *testing.T) {
	probs := []float64{0.70, 0.60, 0.40, 0.56}
	covers := []bool{true, false, true, true}

	report, err := CalculateProfit(probs, covers, 0.55, 100)
	require.NoError(t, err)

	// three bets qualify, two win and one loses at -110
	assert.Equal(t, 3, report.Bets)
	assert.Equal(t, 2, report.Wins)
	assert.Equal(t, 1, report.Losses)
	assert.InDelta(t, 2*100-1*100*1.1, report.TotalProfit, 1e-9)
	assert.InDelta(t, 300.0, report.TotalWagered, 1e-9)
	assert.InDelta(t, report.TotalProfit/300*100, report.ROI, 1e-9)
	assert.InDelta(t, 2.0/3.0, report.WinRate, 1e-12)
}

func TestCalculateProfitNoQualifyingBets(t *testing.T) {
	report, err := CalculateProfit([]float64{0.1, 0.2}, []bool{true, false}, 0.55, 100)
	require.NoError(t, err)
	assert.Equal(t, ProfitReport{}, report)
}

func TestCalculateProfitDefaults(t *testing.T) {
	report, err := CalculateProfit([]float64{0.9}, []bool{true}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Bets)
	assert.InDelta(t, DefaultBetSize, report.TotalProfit, 1e-9)
}

func TestCalculateProfitLengthMismatch(t *testing.T) {
	_, err := CalculateProfit([]float64{0.9}, nil, 0.55, 100)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
