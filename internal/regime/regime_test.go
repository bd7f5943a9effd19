package regime

import (
	"testing"

	"adaptive-trading-bot/internal/types"
)

func defaultThresholds() Thresholds {
	return Thresholds{
		Lookback:          50,
		MinLookback:       20,
		TrendThreshold:    0.35,
		HighVolatilityPct: 2.5,
	}
}

func snapshot(closes []float64) types.MarketSnapshot {
	candles := make([]types.Candle, len(closes))
	for i, c := range closes {
		candles[i] = types.Candle{Open: c, High: c, Low: c, Close: c}
	}
	return types.MarketSnapshot{Asset: "RELIANCE", Candles: candles}
}

// Steady +1 increments: efficiency ratio near 1, tiny per-bar returns.
func trendingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 1000 + float64(i)
	}
	return closes
}

// Alternating +3%/-3% moves: near-zero net direction, large returns.
func volatileCloses(n int) []float64 {
	closes := make([]float64, n)
	price := 1000.0
	for i := range closes {
		closes[i] = price
		if i%2 == 0 {
			price *= 1.03
		} else {
			price *= 0.97
		}
	}
	return closes
}

// Small alternating moves: no direction, volatility below threshold.
func rangingCloses(n int) []float64 {
	closes := make([]float64, n)
	price := 1000.0
	for i := range closes {
		closes[i] = price
		if i%2 == 0 {
			price += 2
		} else {
			price -= 2
		}
	}
	return closes
}

func TestClassifyTrending(t *testing.T) {
	state := Classify(snapshot(trendingCloses(60)), defaultThresholds())
	if state.Regime != types.Trending {
		t.Errorf("expected TRENDING, got %s (trend=%f vol=%f)", state.Regime, state.TrendStrength, state.Volatility)
	}
	if state.LowConfidence {
		t.Error("full lookback should not be low confidence")
	}
	if state.TrendStrength < 0.9 {
		t.Errorf("monotone series should have trend strength near 1, got %f", state.TrendStrength)
	}
}

func TestClassifyRanging(t *testing.T) {
	state := Classify(snapshot(rangingCloses(60)), defaultThresholds())
	if state.Regime != types.Ranging {
		t.Errorf("expected RANGING, got %s (trend=%f vol=%f)", state.Regime, state.TrendStrength, state.Volatility)
	}
}

func TestClassifyVolatile(t *testing.T) {
	state := Classify(snapshot(volatileCloses(60)), defaultThresholds())
	if state.Regime != types.Volatile {
		t.Errorf("expected VOLATILE, got %s (trend=%f vol=%f)", state.Regime, state.TrendStrength, state.Volatility)
	}
}

// A hard trend with large swings is still VOLATILE; volatility wins.
func TestVolatilityOverridesTrend(t *testing.T) {
	closes := make([]float64, 60)
	price := 1000.0
	for i := range closes {
		closes[i] = price
		if i%2 == 0 {
			price *= 1.06
		} else {
			price *= 0.99
		}
	}
	state := Classify(snapshot(closes), defaultThresholds())
	if state.Regime != types.Volatile {
		t.Errorf("expected VOLATILE, got %s (trend=%f vol=%f)", state.Regime, state.TrendStrength, state.Volatility)
	}
}

func TestClassifyInsufficientData(t *testing.T) {
	state := Classify(snapshot(trendingCloses(10)), defaultThresholds())
	if state.Regime != types.Ranging {
		t.Errorf("expected RANGING default, got %s", state.Regime)
	}
	if !state.LowConfidence {
		t.Error("short history must be flagged low confidence")
	}
}

func TestClassifyEmptySnapshot(t *testing.T) {
	state := Classify(snapshot(nil), defaultThresholds())
	if state.Regime != types.Ranging || !state.LowConfidence {
		t.Errorf("expected low-confidence RANGING, got %s low_conf=%v", state.Regime, state.LowConfidence)
	}
}

// Shorter-than-lookback but above minimum history still classifies,
// using the bars available.
func TestClassifyShortenedWindow(t *testing.T) {
	state := Classify(snapshot(trendingCloses(30)), defaultThresholds())
	if state.Regime != types.Trending {
		t.Errorf("expected TRENDING on 30 bars, got %s", state.Regime)
	}
	if state.LowConfidence {
		t.Error("30 bars is above the minimum, should not be low confidence")
	}
}

func TestClassifyDeterministic(t *testing.T) {
	snap := snapshot(volatileCloses(60))
	th := defaultThresholds()
	a := Classify(snap, th)
	b := Classify(snap, th)
	if a.Regime != b.Regime || a.TrendStrength != b.TrendStrength || a.Volatility != b.Volatility {
		t.Errorf("classification not deterministic: %+v vs %+v", a, b)
	}
}
