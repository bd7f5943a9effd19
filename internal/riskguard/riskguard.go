// Package riskguard is the final veto/resize authority between the fused
// candidate and the execution layer. It owns the only state shared across
// assets and cycles: the daily risk budget and the drawdown tracker. All
// mutations are serialized behind one mutex so two concurrent asset
// evaluations cannot both pass a budget check that combined would
// overshoot the limit.
package riskguard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"adaptive-trading-bot/internal/logger"
	"adaptive-trading-bot/internal/store"
	"adaptive-trading-bot/internal/types"
)

type Guard struct {
	mu  sync.Mutex
	cfg *store.Config

	day          string  // calendar day the budget belongs to
	dailyRiskPct float64 // committed realized+open risk, % of portfolio

	peakValue float64
	halted    bool

	now func() time.Time
}

func NewGuard(cfg *store.Config) *Guard {
	return &Guard{cfg: cfg, now: time.Now}
}

// Apply validates and finalizes a candidate decision against the
// configured limits. It always returns a non-nil, fully-populated
// decision satisfying every limit; an already-compliant decision passes
// through unchanged.
func (g *Guard) Apply(ctx context.Context, d types.TradeDecision, portfolioValue float64) types.TradeDecision {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rollDay()
	g.updateDrawdown(ctx, portfolioValue)

	if d.Decision == types.Hold {
		d.PositionFraction = 0
		return d
	}

	// maximum trade fraction is a hard clamp, not a veto. The clamp runs
	// before the minimum-amount check so a clamped trade that falls under
	// the minimum is vetoed instead of emitted undersized.
	if d.PositionFraction > g.cfg.Risk.MaxTradeFraction {
		logger.Risk(ctx, d.Asset, "POSITION_CLAMPED",
			"requested_fraction", d.PositionFraction,
			"max_fraction", g.cfg.Risk.MaxTradeFraction,
		)
		d.PositionFraction = g.cfg.Risk.MaxTradeFraction
		d.Rationale = append(d.Rationale, fmt.Sprintf("position clamped to max fraction %.3f", g.cfg.Risk.MaxTradeFraction))
	}

	// too small to act meaningfully
	if notional := d.PositionFraction * portfolioValue; notional < g.cfg.Risk.MinTradeAmount {
		logger.Risk(ctx, d.Asset, "TRADE_BELOW_MINIMUM",
			"notional", notional,
			"min_trade_amount", g.cfg.Risk.MinTradeAmount,
		)
		return g.veto(d, fmt.Sprintf("notional %.2f below minimum trade amount %.2f", notional, g.cfg.Risk.MinTradeAmount))
	}

	// daily risk budget: BUY commits new risk, SELL only reduces exposure
	if d.Decision == types.Buy {
		riskPct := d.PositionFraction * g.cfg.Risk.StopLossPct
		remaining := g.cfg.Risk.MaxDailyRiskPct - g.dailyRiskPct

		if remaining <= 0 {
			logger.Risk(ctx, d.Asset, "DAILY_BUDGET_EXHAUSTED",
				"committed_pct", g.dailyRiskPct,
				"max_daily_risk_pct", g.cfg.Risk.MaxDailyRiskPct,
			)
			return g.veto(d, "daily risk budget exhausted")
		}
		if riskPct > remaining {
			resized := remaining / g.cfg.Risk.StopLossPct
			logger.Risk(ctx, d.Asset, "POSITION_DOWNSIZED",
				"requested_fraction", d.PositionFraction,
				"resized_fraction", resized,
				"remaining_budget_pct", remaining,
			)
			d.Rationale = append(d.Rationale, fmt.Sprintf("downsized from %.4f to %.4f to fit daily risk budget", d.PositionFraction, resized))
			d.PositionFraction = resized
			riskPct = remaining

			if notional := d.PositionFraction * portfolioValue; notional < g.cfg.Risk.MinTradeAmount {
				return g.veto(d, "downsized position below minimum trade amount")
			}
		}
		g.dailyRiskPct += riskPct
	}

	// drawdown halt suspends all new directional trades
	if g.halted {
		logger.Risk(ctx, d.Asset, "DRAWDOWN_HALT",
			"max_drawdown_pct", g.cfg.Risk.MaxDrawdownPct,
		)
		if d.Decision == types.Buy {
			// release what this decision just committed
			g.dailyRiskPct -= d.PositionFraction * g.cfg.Risk.StopLossPct
		}
		return g.veto(d, "trading halted: trailing drawdown limit exceeded")
	}

	return d
}

// ReleaseRisk returns budget committed for a BUY whose order the
// execution layer reported as failed.
func (g *Guard) ReleaseRisk(fraction float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dailyRiskPct -= fraction * g.cfg.Risk.StopLossPct
	if g.dailyRiskPct < 0 {
		g.dailyRiskPct = 0
	}
}

// RecordLoss adds realized loss to today's consumed budget.
func (g *Guard) RecordLoss(lossPct float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollDay()
	if lossPct > 0 {
		g.dailyRiskPct += lossPct
	}
}

// Halted reports whether the drawdown halt is active.
func (g *Guard) Halted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.halted
}

// CommittedRiskPct returns today's committed risk, for diagnostics.
func (g *Guard) CommittedRiskPct() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dailyRiskPct
}

func (g *Guard) veto(d types.TradeDecision, reason string) types.TradeDecision {
	d.Decision = types.Hold
	d.PositionFraction = 0
	d.Rationale = append(d.Rationale, reason)
	return d
}

// rollDay resets the budget at the calendar day boundary.
func (g *Guard) rollDay() {
	today := g.now().Format("2006-01-02")
	if g.day != today {
		g.day = today
		g.dailyRiskPct = 0
	}
}

// updateDrawdown tracks the trailing peak and flips the halt flag with
// hysteresis: the halt engages above max_drawdown_pct and only releases
// once drawdown recovers below drawdown_recover_pct, so the guard does
// not flap at the exact threshold.
func (g *Guard) updateDrawdown(ctx context.Context, portfolioValue float64) {
	if portfolioValue <= 0 {
		return
	}
	if portfolioValue > g.peakValue {
		g.peakValue = portfolioValue
	}
	if g.peakValue == 0 {
		return
	}
	ddPct := (g.peakValue - portfolioValue) / g.peakValue * 100.0

	switch {
	case !g.halted && ddPct > g.cfg.Risk.MaxDrawdownPct:
		g.halted = true
		logger.Risk(ctx, "", "DRAWDOWN_HALT_ENGAGED",
			"drawdown_pct", ddPct,
			"max_drawdown_pct", g.cfg.Risk.MaxDrawdownPct,
		)
	case g.halted && ddPct <= g.cfg.Risk.DrawdownRecoverPct:
		g.halted = false
		logger.Info(ctx, "Drawdown halt released",
			"drawdown_pct", ddPct,
			"recover_pct", g.cfg.Risk.DrawdownRecoverPct,
		)
	}
}
