// Package regime classifies an asset's current market behavior mode from
// its snapshot. Classification is a pure function of the snapshot and the
// configured thresholds; identical input yields identical output.
package regime

import (
	"math"
	"time"

	"adaptive-trading-bot/internal/ta"
	"adaptive-trading-bot/internal/types"
)

type Thresholds struct {
	Lookback          int
	MinLookback       int
	TrendThreshold    float64
	HighVolatilityPct float64
}

// Classify computes trend-strength and volatility scores over the lookback
// window and maps them to one of TRENDING, RANGING, VOLATILE.
//
// Volatility wins over trend: a market can trend hard and still be too
// volatile to trust a directional strategy, so the volatility check runs
// first and ties at the threshold resolve to VOLATILE.
func Classify(snap types.MarketSnapshot, th Thresholds) types.RegimeState {
	state := types.RegimeState{
		Asset:      snap.Asset,
		ComputedAt: time.Now().Unix(),
	}

	closes := make([]float64, len(snap.Candles))
	for i, c := range snap.Candles {
		closes[i] = c.Close
	}

	if len(closes) < th.MinLookback {
		state.Regime = types.Ranging
		state.LowConfidence = true
		return state
	}

	n := th.Lookback
	if len(closes) < n+1 {
		n = len(closes) - 1
	}

	trend := ta.EfficiencyRatio(closes, n)
	vol := ta.ReturnsDispersionPct(closes, n)
	if math.IsNaN(trend) {
		trend = 0
	}
	if math.IsNaN(vol) {
		vol = 0
	}
	state.TrendStrength = trend
	state.Volatility = vol

	switch {
	case vol >= th.HighVolatilityPct:
		state.Regime = types.Volatile
	case trend > th.TrendThreshold:
		state.Regime = types.Trending
	default:
		state.Regime = types.Ranging
	}
	return state
}
