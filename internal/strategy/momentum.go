package strategy

import (
	"context"
	"fmt"
	"math"

	"adaptive-trading-bot/internal/store"
	"adaptive-trading-bot/internal/ta"
	"adaptive-trading-bot/internal/types"
)

// Momentum trades acceleration: a strong rate of change confirmed by RSI
// away from the neutral zone. Fires earlier than trend-following but with
// a higher self-assessed risk.
type Momentum struct {
	cfg *store.Config
}

func NewMomentum(cfg *store.Config) *Momentum {
	return &Momentum{cfg: cfg}
}

func (s *Momentum) Name() string { return MomentumName }

// rocTrigger is the minimum absolute rate of change, in percent, that
// counts as momentum worth acting on.
const rocTrigger = 1.5

func (s *Momentum) Evaluate(ctx context.Context, snap types.MarketSnapshot) (types.StrategySignal, error) {
	closes := closesOf(snap)

	roc := ta.ROC(closes, s.cfg.Indicators.ROCPeriod)
	rsi := ta.RSI(closes, s.cfg.Indicators.RSIPeriod)
	if math.IsNaN(roc) || math.IsNaN(rsi) {
		return holdSignal(s.Name(), "insufficient data for momentum indicators"), nil
	}

	conf := clampConf(50 + math.Min(40, math.Abs(roc)*10))

	sig := types.StrategySignal{Strategy: s.Name(), Risk: types.RiskHigh}
	switch {
	case roc > rocTrigger && rsi > 55:
		sig.Decision = types.Buy
		sig.Confidence = conf
		sig.Rationale = []string{fmt.Sprintf("upside momentum: ROC %.2f%%, RSI %.1f", roc, rsi)}
	case roc < -rocTrigger && rsi < 45:
		sig.Decision = types.Sell
		sig.Confidence = conf
		sig.Rationale = []string{fmt.Sprintf("downside momentum: ROC %.2f%%, RSI %.1f", roc, rsi)}
	default:
		sig.Decision = types.Hold
		sig.Confidence = 20
		sig.Risk = types.RiskMedium
		sig.Rationale = []string{fmt.Sprintf("no momentum burst: ROC %.2f%%, RSI %.1f", roc, rsi)}
	}
	return sig, nil
}
