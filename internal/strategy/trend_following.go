package strategy

import (
	"context"
	"fmt"
	"math"

	"adaptive-trading-bot/internal/store"
	"adaptive-trading-bot/internal/ta"
	"adaptive-trading-bot/internal/types"
)

// TrendFollowing signals in the direction of an established move: price
// above a rising SMA stack with positive rate of change buys, the mirror
// image sells.
type TrendFollowing struct {
	cfg *store.Config
}

func NewTrendFollowing(cfg *store.Config) *TrendFollowing {
	return &TrendFollowing{cfg: cfg}
}

func (s *TrendFollowing) Name() string { return TrendFollowingName }

func (s *TrendFollowing) Evaluate(ctx context.Context, snap types.MarketSnapshot) (types.StrategySignal, error) {
	closes := closesOf(snap)

	short, long := smaPair(s.cfg.Indicators.SMAWindows)
	smaShort := ta.SMA(closes, short)
	smaLong := ta.SMA(closes, long)
	roc := ta.ROC(closes, s.cfg.Indicators.ROCPeriod)
	if math.IsNaN(smaShort) || math.IsNaN(smaLong) || math.IsNaN(roc) {
		return holdSignal(s.Name(), "insufficient data for trend indicators"), nil
	}

	price := snap.Price()
	// confidence grows with how cleanly the window trends
	conf := clampConf(45 + snap.TrendStrength*55)
	risk := types.RiskMedium
	if snap.TrendStrength > 0.6 {
		risk = types.RiskLow
	}

	sig := types.StrategySignal{Strategy: s.Name(), Risk: risk}
	switch {
	case price > smaShort && smaShort > smaLong && roc > 0:
		sig.Decision = types.Buy
		sig.Confidence = conf
		sig.Rationale = []string{fmt.Sprintf("price %.2f above rising SMA%d/%d stack, ROC %.2f%%", price, short, long, roc)}
	case price < smaShort && smaShort < smaLong && roc < 0:
		sig.Decision = types.Sell
		sig.Confidence = conf
		sig.Rationale = []string{fmt.Sprintf("price %.2f below falling SMA%d/%d stack, ROC %.2f%%", price, short, long, roc)}
	default:
		sig.Decision = types.Hold
		sig.Confidence = 20
		sig.Risk = types.RiskMedium
		sig.Rationale = []string{"no aligned trend structure"}
	}
	return sig, nil
}

// smaPair returns the shortest and longest configured SMA windows.
func smaPair(windows []int) (short, long int) {
	short, long = 20, 50
	if len(windows) == 0 {
		return
	}
	short, long = windows[0], windows[0]
	for _, w := range windows[1:] {
		if w < short {
			short = w
		}
		if w > long {
			long = w
		}
	}
	if short == long {
		long = short * 2
	}
	return
}

func clampConf(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
