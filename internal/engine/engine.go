// Package engine orchestrates one decision cycle per asset: snapshot,
// regime classification, concurrent provider evaluation, fusion, risk
// guard, audit log and (optionally) order placement. Per-asset failures
// stay inside Step; one bad asset never aborts the others.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"adaptive-trading-bot/internal/decisionlog"
	"adaptive-trading-bot/internal/fusion"
	"adaptive-trading-bot/internal/interfaces"
	"adaptive-trading-bot/internal/logger"
	"adaptive-trading-bot/internal/regime"
	"adaptive-trading-bot/internal/riskguard"
	"adaptive-trading-bot/internal/store"
	"adaptive-trading-bot/internal/strategy"
	"adaptive-trading-bot/internal/trace"
	"adaptive-trading-bot/internal/types"
)

// ErrDataUnavailable means the data layer could not supply a usable
// snapshot; the caller skips the asset for this cycle.
var ErrDataUnavailable = errors.New("market data unavailable")

type Engine struct {
	cfg       *store.Config
	brk       interfaces.Broker
	providers []interfaces.Provider
	fuser     *fusion.Manager
	guard     *riskguard.Guard
	dlog      *decisionlog.Logger

	// last broker-reported account value, used when a funds query fails
	lastValue float64
}

func New(cfg *store.Config, brk interfaces.Broker, providers []interfaces.Provider, guard *riskguard.Guard, dlog *decisionlog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		brk:       brk,
		providers: providers,
		fuser:     fusion.NewManager(cfg),
		guard:     guard,
		dlog:      dlog,
		lastValue: 100000,
	}
}

// providerTimeout bounds a single provider evaluation. Only the LLM
// sentiment provider performs remote I/O; it carries its own tighter
// timeout from config.
const providerTimeout = 30 * time.Second

// Step runs the three-stage pipeline for one asset and returns the
// finalized result. A cancelled context aborts without emitting a
// partial decision.
func (e *Engine) Step(ctx context.Context, asset string) (*types.StepResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Step")
	defer span.End()

	snap, err := e.buildSnapshot(ctx, asset)
	if err != nil {
		return nil, err
	}

	state := regime.Classify(snap, regime.Thresholds{
		Lookback:          e.cfg.Regime.Lookback,
		MinLookback:       e.cfg.Regime.MinLookback,
		TrendThreshold:    e.cfg.Regime.TrendThreshold,
		HighVolatilityPct: e.cfg.Regime.HighVolatilityPct,
	})
	snap.TrendStrength = state.TrendStrength
	snap.Volatility = state.Volatility
	logger.Debug(ctx, "Regime classified",
		"asset", asset,
		"regime", state.Regime,
		"trend_strength", state.TrendStrength,
		"volatility_pct", state.Volatility,
		"low_confidence", state.LowConfidence,
	)

	signals := e.evaluateProviders(ctx, snap)
	if err := ctx.Err(); err != nil {
		// cycle cancelled mid-flight: no decision for this asset
		return nil, err
	}

	value := e.portfolioValue(ctx)
	candidate := e.fuser.Fuse(ctx, state, signals)
	final := e.guard.Apply(ctx, candidate, value)

	price := snap.Price()
	logger.Decision(ctx, asset, string(final.Decision), final.Confidence, final.SourceStrategy,
		"position_fraction", final.PositionFraction,
		"regime", state.Regime,
	)
	e.dlog.Append(final, state.Regime, price)

	orders := e.execute(ctx, final, price, value)

	return &types.StepResult{
		Asset:    asset,
		Regime:   state.Regime,
		Decision: final,
		Price:    price,
		Time:     time.Now().Unix(),
		Orders:   orders,
	}, nil
}

// buildSnapshot fetches the observation window and freezes it into the
// per-cycle snapshot. Metrics are filled in after classification.
func (e *Engine) buildSnapshot(ctx context.Context, asset string) (types.MarketSnapshot, error) {
	want := e.cfg.Regime.Lookback + 10
	candles, err := e.brk.RecentCandles(ctx, asset, want)
	if err != nil {
		return types.MarketSnapshot{}, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, asset, err)
	}
	if len(candles) == 0 {
		return types.MarketSnapshot{}, fmt.Errorf("%w: %s: empty window", ErrDataUnavailable, asset)
	}
	return types.MarketSnapshot{Asset: asset, Candles: candles}, nil
}

// evaluateProviders runs all providers concurrently. They share no
// mutable state, so ordering between them does not matter; each one is
// individually fenced by the safe evaluation wrapper.
func (e *Engine) evaluateProviders(ctx context.Context, snap types.MarketSnapshot) []types.StrategySignal {
	signals := make([]types.StrategySignal, len(e.providers))
	var wg sync.WaitGroup
	for i, p := range e.providers {
		wg.Add(1)
		go func(i int, p interfaces.Provider) {
			defer wg.Done()
			signals[i] = strategy.Evaluate(ctx, p, snap, providerTimeout)
		}(i, p)
	}
	wg.Wait()
	return signals
}

// portfolioValue queries the broker for the current account value. A
// failed query falls back to the last known value so one flaky funds
// call does not distort drawdown tracking.
func (e *Engine) portfolioValue(ctx context.Context) float64 {
	v, err := e.brk.AccountValue(ctx)
	if err != nil || v <= 0 {
		logger.Warn(ctx, "Funds query failed, using last known account value",
			"value", e.lastValue, "error", err)
		return e.lastValue
	}
	e.lastValue = v
	return v
}

// execute places the order implied by a directional decision. A BUY that
// never reaches the broker, whether the order failed or the quantity
// rounded to zero, releases the risk budget the guard committed for it;
// retrying is the execution layer's business, not ours.
func (e *Engine) execute(ctx context.Context, d types.TradeDecision, price, value float64) []types.OrderResp {
	if d.Decision == types.Hold || price <= 0 {
		return nil
	}

	qty := int(math.Floor(d.PositionFraction * value / price))
	if qty < 1 {
		logger.Debug(ctx, "Position rounds to zero quantity, skipping order",
			"asset", d.Asset, "fraction", d.PositionFraction, "price", price)
		if d.Decision == types.Buy {
			e.guard.ReleaseRisk(d.PositionFraction)
		}
		return nil
	}

	resp, err := e.brk.PlaceOrder(ctx, types.OrderReq{
		Symbol: d.Asset,
		Side:   string(d.Decision),
		Qty:    qty,
		Tag:    d.SourceStrategy,
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Order placement failed", err,
			"asset", d.Asset, "side", d.Decision, "qty", qty)
		if d.Decision == types.Buy {
			e.guard.ReleaseRisk(d.PositionFraction)
		}
		return nil
	}

	e.dlog.AppendOrder(d.Asset, resp, string(d.Decision), qty, price)
	return []types.OrderResp{resp}
}
