package analytics

import (
	"fmt"
)

const (
	// DefaultBetThreshold is the minimum cover probability that triggers
	// a simulated bet.
	DefaultBetThreshold = 0.55
	// DefaultBetSize is the stake per simulated bet.
	DefaultBetSize = 100.0

	// vigMultiplier reflects standard -110 pricing: a losing bet costs
	// 1.1x the stake that a winning bet returns.
	vigMultiplier = 1.1
)

// ProfitReport summarizes a simulated flat-stake betting strategy.
type ProfitReport struct {
	TotalProfit  float64 `json:"total_profit"`
	TotalWagered float64 `json:"total_wagered"`
	ROI          float64 `json:"roi"`
	WinRate      float64 `json:"win_rate"`
	Bets         int     `json:"n_bets"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
}

// CalculateProfit simulates betting every row whose cover probability meets
// the threshold, at -110 odds. With no qualifying bets it returns a zero
// report rather than dividing by zero.
func CalculateProfit(coverProbs []float64, actualCovers []bool, betThreshold, betSize float64) (ProfitReport, error) {
	if len(coverProbs) != len(actualCovers) {
		return ProfitReport{}, fmt.Errorf("got %d probabilities for %d outcomes: %w", len(coverProbs), len(actualCovers), ErrLengthMismatch)
	}
	if betThreshold <= 0 {
		betThreshold = DefaultBetThreshold
	}
	if betSize <= 0 {
		betSize = DefaultBetSize
	}

	bets := 0
	wins := 0
	for i, p := range coverProbs {
		if p < betThreshold {
			continue
		}
		bets++
		if actualCovers[i] {
			wins++
		}
	}
	if bets == 0 {
		return ProfitReport{}, nil
	}

	losses := bets - wins
	profit := float64(wins)*betSize - float64(losses)*betSize*vigMultiplier
	wagered := float64(bets) * betSize

	return ProfitReport{
		TotalProfit:  profit,
		TotalWagered: wagered,
		ROI:          profit / wagered * 100,
		WinRate:      float64(wins) / float64(bets),
		Bets:         bets,
		Wins:         wins,
		Losses:       losses,
	}, nil
}
