package engine

import (
	"context"
	"errors"
	"testing"

	"adaptive-trading-bot/internal/decisionlog"
	"adaptive-trading-bot/internal/interfaces"
	"adaptive-trading-bot/internal/riskguard"
	"adaptive-trading-bot/internal/store"
	"adaptive-trading-bot/internal/strategy"
	"adaptive-trading-bot/internal/types"
)

type fakeBroker struct {
	candles  []types.Candle
	value    float64
	valueErr error
	dataErr  error
	orderErr error
	orders   []types.OrderReq
}

func (b *fakeBroker) LTP(ctx context.Context, symbol string) (float64, error) {
	if len(b.candles) == 0 {
		return 0, errors.New("no data")
	}
	return b.candles[len(b.candles)-1].Close, nil
}

func (b *fakeBroker) AccountValue(ctx context.Context) (float64, error) {
	if b.valueErr != nil {
		return 0, b.valueErr
	}
	if b.value == 0 {
		return 100000, nil
	}
	return b.value, nil
}

func (b *fakeBroker) RecentCandles(ctx context.Context, symbol string, n int) ([]types.Candle, error) {
	if b.dataErr != nil {
		return nil, b.dataErr
	}
	return b.candles, nil
}

func (b *fakeBroker) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	b.orders = append(b.orders, req)
	if b.orderErr != nil {
		return types.OrderResp{}, b.orderErr
	}
	return types.OrderResp{OrderID: "SIM-1", Status: "COMPLETE"}, nil
}

type fixedProvider struct {
	name string
	sig  types.StrategySignal
}

func (p *fixedProvider) Name() string { return p.name }
func (p *fixedProvider) Evaluate(ctx context.Context, snap types.MarketSnapshot) (types.StrategySignal, error) {
	return p.sig, nil
}

func engineConfig() *store.Config {
	return &store.Config{
		Mode:       "DRY_RUN",
		DataSource: "STATIC",
		Universe:   []string{"RELIANCE"},
		Regime: store.Regime{
			Lookback:          50,
			MinLookback:       20,
			TrendThreshold:    0.35,
			HighVolatilityPct: 2.5,
		},
		Fusion: store.Fusion{
			ConfirmationBonus:   5,
			DisagreementPenalty: 3,
			Thresholds:          map[string]float64{"TRENDING": 50},
		},
		Risk: store.Risk{
			StopLossPct:        5,
			MaxDailyRiskPct:    5,
			MaxDrawdownPct:     10,
			DrawdownRecoverPct: 7,
			MinTradeAmount:     1000,
			MaxTradeFraction:   0.10,
		},
	}
}

func trendingCandles(n int) []types.Candle {
	return trendingCandlesFrom(n, 1000)
}

func trendingCandlesFrom(n int, base float64) []types.Candle {
	candles := make([]types.Candle, n)
	for i := range candles {
		c := base + float64(i)
		candles[i] = types.Candle{Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return candles
}

func fixed(name string, d types.Action, conf float64) interfaces.Provider {
	return &fixedProvider{name: name, sig: types.StrategySignal{
		Strategy: name, Decision: d, Confidence: conf, Risk: types.RiskMedium,
	}}
}

func newTestEngine(t *testing.T, cfg *store.Config, brk interfaces.Broker, providers []interfaces.Provider, guard *riskguard.Guard) *Engine {
	t.Helper()
	return New(cfg, brk, providers, guard, decisionlog.New(t.TempDir()))
}

func TestStepEmitsDirectionalDecision(t *testing.T) {
	cfg := engineConfig()
	brk := &fakeBroker{candles: trendingCandles(60)}
	providers := []interfaces.Provider{
		fixed(strategy.TrendFollowingName, types.Buy, 80),
		fixed(strategy.MeanReversionName, types.Hold, 20),
		fixed(strategy.MomentumName, types.Hold, 20),
		fixed(strategy.SentimentName, types.Hold, 20),
	}
	eng := newTestEngine(t, cfg, brk, providers, riskguard.NewGuard(cfg))

	res, err := eng.Step(context.Background(), "RELIANCE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Regime != types.Trending {
		t.Errorf("expected TRENDING on monotone series, got %s", res.Regime)
	}
	if res.Decision.Decision != types.Buy {
		t.Errorf("expected BUY from trend primary, got %s", res.Decision.Decision)
	}
	if res.Decision.SourceStrategy != strategy.TrendFollowingName {
		t.Errorf("expected trend primary attribution, got %s", res.Decision.SourceStrategy)
	}
	if len(res.Orders) != 1 {
		t.Fatalf("expected one order, got %d", len(res.Orders))
	}
	if len(brk.orders) != 1 || brk.orders[0].Side != "BUY" {
		t.Errorf("expected one BUY order at broker, got %+v", brk.orders)
	}
}

func TestStepSkipsOnDataUnavailable(t *testing.T) {
	cfg := engineConfig()
	brk := &fakeBroker{dataErr: errors.New("feed down")}
	eng := newTestEngine(t, cfg, brk, nil, riskguard.NewGuard(cfg))

	_, err := eng.Step(context.Background(), "RELIANCE")
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestStepEmptyWindowIsUnavailable(t *testing.T) {
	cfg := engineConfig()
	eng := newTestEngine(t, cfg, &fakeBroker{}, nil, riskguard.NewGuard(cfg))

	_, err := eng.Step(context.Background(), "RELIANCE")
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable on empty window, got %v", err)
	}
}

func TestStepCancelledContextEmitsNothing(t *testing.T) {
	cfg := engineConfig()
	brk := &fakeBroker{candles: trendingCandles(60)}
	providers := []interfaces.Provider{
		fixed(strategy.TrendFollowingName, types.Buy, 80),
	}
	eng := newTestEngine(t, cfg, brk, providers, riskguard.NewGuard(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := eng.Step(ctx, "RELIANCE")
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if res != nil {
		t.Errorf("cancelled step must not emit a partial result, got %+v", res)
	}
	if len(brk.orders) != 0 {
		t.Errorf("cancelled step must not place orders, got %+v", brk.orders)
	}
}

func TestStepHoldPlacesNoOrder(t *testing.T) {
	cfg := engineConfig()
	brk := &fakeBroker{candles: trendingCandles(60)}
	providers := []interfaces.Provider{
		fixed(strategy.TrendFollowingName, types.Hold, 20),
		fixed(strategy.MeanReversionName, types.Hold, 20),
	}
	eng := newTestEngine(t, cfg, brk, providers, riskguard.NewGuard(cfg))

	res, err := eng.Step(context.Background(), "RELIANCE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision.Decision != types.Hold {
		t.Errorf("expected HOLD, got %s", res.Decision.Decision)
	}
	if len(res.Orders) != 0 || len(brk.orders) != 0 {
		t.Errorf("HOLD must not reach the broker, got %+v", brk.orders)
	}
}

func TestStepFailedBuyOrderReleasesBudget(t *testing.T) {
	cfg := engineConfig()
	brk := &fakeBroker{candles: trendingCandles(60), orderErr: errors.New("exchange rejected")}
	providers := []interfaces.Provider{
		fixed(strategy.TrendFollowingName, types.Buy, 80),
	}
	guard := riskguard.NewGuard(cfg)
	eng := newTestEngine(t, cfg, brk, providers, guard)

	res, err := eng.Step(context.Background(), "RELIANCE")
	if err != nil {
		t.Fatalf("order failure must not fail the step: %v", err)
	}
	if len(res.Orders) != 0 {
		t.Errorf("failed order must not appear in the result, got %+v", res.Orders)
	}
	if got := guard.CommittedRiskPct(); got != 0 {
		t.Errorf("expected committed budget released after failed BUY, got %f", got)
	}
}

// A BUY whose notional is below one share of a high-priced asset places
// no order; the budget committed for it must come back, same as a failed
// order.
func TestStepZeroQuantityBuyReleasesBudget(t *testing.T) {
	cfg := engineConfig()
	// fraction 0.06 of 100000 is 6000, under one 50000-priced share
	brk := &fakeBroker{candles: trendingCandlesFrom(60, 50000)}
	providers := []interfaces.Provider{
		fixed(strategy.TrendFollowingName, types.Buy, 80),
	}
	guard := riskguard.NewGuard(cfg)
	eng := newTestEngine(t, cfg, brk, providers, guard)

	res, err := eng.Step(context.Background(), "MRF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision.Decision != types.Buy {
		t.Fatalf("expected BUY decision, got %s", res.Decision.Decision)
	}
	if len(res.Orders) != 0 || len(brk.orders) != 0 {
		t.Fatalf("zero-quantity position must not reach the broker, got %+v", brk.orders)
	}
	if got := guard.CommittedRiskPct(); got != 0 {
		t.Errorf("expected committed budget released after zero-quantity skip, got %f", got)
	}
}

// The drawdown halt runs on broker-reported equity: a drop past the
// limit between cycles vetoes the next directional decision.
func TestStepDrawdownHaltOnReportedEquity(t *testing.T) {
	cfg := engineConfig()
	brk := &fakeBroker{candles: trendingCandles(60), value: 100000}
	providers := []interfaces.Provider{
		fixed(strategy.TrendFollowingName, types.Buy, 80),
	}
	guard := riskguard.NewGuard(cfg)
	eng := newTestEngine(t, cfg, brk, providers, guard)

	res, err := eng.Step(context.Background(), "RELIANCE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision.Decision != types.Buy {
		t.Fatalf("expected BUY at peak equity, got %s", res.Decision.Decision)
	}

	brk.value = 85000
	res, err = eng.Step(context.Background(), "RELIANCE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision.Decision != types.Hold {
		t.Errorf("expected veto after 15%% equity drop, got %s", res.Decision.Decision)
	}
	if !guard.Halted() {
		t.Error("expected drawdown halt engaged")
	}
}

// A failed funds query falls back to the last known value instead of
// zeroing the sizing base.
func TestStepFundsQueryFailureUsesLastKnownValue(t *testing.T) {
	cfg := engineConfig()
	brk := &fakeBroker{candles: trendingCandles(60), valueErr: errors.New("margins unavailable")}
	providers := []interfaces.Provider{
		fixed(strategy.TrendFollowingName, types.Buy, 80),
	}
	eng := newTestEngine(t, cfg, brk, providers, riskguard.NewGuard(cfg))

	res, err := eng.Step(context.Background(), "RELIANCE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision.Decision != types.Buy {
		t.Errorf("expected BUY sized off the fallback value, got %s", res.Decision.Decision)
	}
	if len(res.Orders) != 1 {
		t.Errorf("expected one order, got %d", len(res.Orders))
	}
}
