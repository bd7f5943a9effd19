// Package strategy holds the four signal providers the pipeline fuses:
// trend-following, mean-reversion, momentum and LLM sentiment. Providers
// are independent and side-effect free; the engine may evaluate them in
// any order or concurrently.
package strategy

import (
	"context"
	"fmt"
	"time"

	"adaptive-trading-bot/internal/interfaces"
	"adaptive-trading-bot/internal/logger"
	"adaptive-trading-bot/internal/parse"
	"adaptive-trading-bot/internal/types"
)

// Canonical provider names. The regime -> primary mapping in config
// refers to these.
const (
	TrendFollowingName = "trend_following"
	MeanReversionName  = "mean_reversion"
	MomentumName       = "momentum"
	SentimentName      = "llm_sentiment"
)

// Evaluate runs one provider under a timeout with panic containment.
// Whatever goes wrong inside the provider, the caller gets a valid HOLD
// signal naming the failure; a broken provider never aborts the cycle.
func Evaluate(ctx context.Context, p interfaces.Provider, snap types.MarketSnapshot, timeout time.Duration) (sig types.StrategySignal) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Provider panicked", "strategy", p.Name(), "panic", fmt.Sprint(r))
			sig = parse.Fallback(p.Name(), fmt.Sprintf("provider panic: %v", r))
		}
	}()

	out, err := p.Evaluate(ctx, snap)
	if err != nil {
		logger.Warn(ctx, "Provider failed, degrading to HOLD", "strategy", p.Name(), "asset", snap.Asset, "error", err)
		return parse.Fallback(p.Name(), fmt.Sprintf("provider failure: %v", err))
	}
	return sanitize(p.Name(), out)
}

// sanitize enforces the signal invariants regardless of what the
// provider produced.
func sanitize(name string, sig types.StrategySignal) types.StrategySignal {
	if sig.Strategy == "" {
		sig.Strategy = name
	}
	if !sig.Decision.Valid() {
		sig.Decision = types.Hold
		sig.Confidence = 0
		sig.Rationale = append(sig.Rationale, "invalid decision from provider")
	}
	if sig.Confidence < 0 {
		sig.Confidence = 0
	}
	if sig.Confidence > 100 {
		sig.Confidence = 100
	}
	if !sig.Risk.Valid() {
		sig.Risk = types.RiskMedium
	}
	return sig
}

func closesOf(snap types.MarketSnapshot) []float64 {
	closes := make([]float64, len(snap.Candles))
	for i, c := range snap.Candles {
		closes[i] = c.Close
	}
	return closes
}

func holdSignal(name, reason string) types.StrategySignal {
	return types.StrategySignal{
		Strategy:   name,
		Decision:   types.Hold,
		Confidence: 0,
		Rationale:  []string{reason},
		Risk:       types.RiskMedium,
	}
}
