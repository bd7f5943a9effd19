package strategy

import (
	"context"
	"fmt"
	"math"

	"adaptive-trading-bot/internal/store"
	"adaptive-trading-bot/internal/ta"
	"adaptive-trading-bot/internal/types"
)

// MeanReversion fades extremes: oversold RSI below the lower Bollinger
// band buys, overbought RSI above the upper band sells. Confidence scales
// with how far outside the band price has stretched.
type MeanReversion struct {
	cfg *store.Config
}

func NewMeanReversion(cfg *store.Config) *MeanReversion {
	return &MeanReversion{cfg: cfg}
}

func (s *MeanReversion) Name() string { return MeanReversionName }

const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0
)

func (s *MeanReversion) Evaluate(ctx context.Context, snap types.MarketSnapshot) (types.StrategySignal, error) {
	closes := closesOf(snap)

	rsi := ta.RSI(closes, s.cfg.Indicators.RSIPeriod)
	mid, upper, lower := ta.Bollinger(closes, s.cfg.Indicators.BBWindow, s.cfg.Indicators.BBStdDev)
	if math.IsNaN(rsi) || math.IsNaN(mid) {
		return holdSignal(s.Name(), "insufficient data for mean-reversion indicators"), nil
	}

	price := snap.Price()
	bandWidth := upper - lower

	sig := types.StrategySignal{Strategy: s.Name(), Risk: types.RiskMedium}
	switch {
	case price < lower && rsi < rsiOversold:
		sig.Decision = types.Buy
		sig.Confidence = reversionConfidence(lower-price, bandWidth, rsiOversold-rsi)
		sig.Rationale = []string{fmt.Sprintf("oversold: price %.2f under band %.2f, RSI %.1f", price, lower, rsi)}
	case price > upper && rsi > rsiOverbought:
		sig.Decision = types.Sell
		sig.Confidence = reversionConfidence(price-upper, bandWidth, rsi-rsiOverbought)
		sig.Rationale = []string{fmt.Sprintf("overbought: price %.2f over band %.2f, RSI %.1f", price, upper, rsi)}
	default:
		sig.Decision = types.Hold
		sig.Confidence = 25
		sig.Rationale = []string{fmt.Sprintf("price %.2f inside bands, RSI %.1f", price, rsi)}
	}
	return sig, nil
}

func reversionConfidence(overshoot, bandWidth, rsiExcess float64) float64 {
	conf := 55.0
	if bandWidth > 0 {
		conf += math.Min(25, overshoot/bandWidth*100)
	}
	conf += math.Min(15, rsiExcess)
	return clampConf(conf)
}
