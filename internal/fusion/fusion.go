// Package fusion combines the per-strategy signals and the regime state
// into one candidate decision. It deliberately replaces equal-weight
// averaging, which dilutes a single strong signal toward the neutral
// majority, with regime-conditioned primary selection plus secondary
// confirmation.
package fusion

import (
	"context"
	"fmt"

	"adaptive-trading-bot/internal/logger"
	"adaptive-trading-bot/internal/store"
	"adaptive-trading-bot/internal/strategy"
	"adaptive-trading-bot/internal/types"
)

// defaultPrimary is the built-in regime -> primary strategy mapping,
// overridable per regime via fusion.primary in the config.
var defaultPrimary = map[types.Regime]string{
	types.Trending: strategy.TrendFollowingName,
	types.Ranging:  strategy.MeanReversionName,
	types.Volatile: strategy.SentimentName,
}

// defaultThreshold applies when no per-regime confidence threshold is
// configured.
const defaultThreshold = 50.0

type Manager struct {
	cfg *store.Config
}

func NewManager(cfg *store.Config) *Manager {
	return &Manager{cfg: cfg}
}

// PrimaryFor resolves the primary strategy name for a regime.
func (m *Manager) PrimaryFor(regime types.Regime) string {
	if name, ok := m.cfg.Fusion.Primary[string(regime)]; ok && name != "" {
		return name
	}
	return defaultPrimary[regime]
}

// ThresholdFor resolves the minimum fused confidence for a regime.
func (m *Manager) ThresholdFor(regime types.Regime) float64 {
	if th, ok := m.cfg.Fusion.Thresholds[string(regime)]; ok {
		return th
	}
	return defaultThreshold
}

// Fuse produces the candidate TradeDecision for one asset. The primary
// strategy's signal sets the base direction and confidence; every other
// strategy that agrees adds the confirmation bonus, every directional
// dissent subtracts the (smaller) penalty. HOLD signals neither confirm
// nor dissent against a directional base. If the boosted confidence
// stays below the regime threshold the decision degrades to HOLD.
func (m *Manager) Fuse(ctx context.Context, state types.RegimeState, signals []types.StrategySignal) types.TradeDecision {
	primaryName := m.PrimaryFor(state.Regime)

	var primary *types.StrategySignal
	for i := range signals {
		if signals[i].Strategy == primaryName {
			primary = &signals[i]
			break
		}
	}
	if primary == nil {
		logger.Warn(ctx, "Primary strategy signal missing, holding",
			"asset", state.Asset, "regime", state.Regime, "primary", primaryName)
		return types.TradeDecision{
			Asset:          state.Asset,
			Decision:       types.Hold,
			SourceStrategy: primaryName,
			Rationale:      []string{"primary strategy produced no signal"},
		}
	}

	confidence := primary.Confidence
	rationale := append([]string{}, primary.Rationale...)
	rationale = append(rationale, fmt.Sprintf("regime=%s primary=%s base_confidence=%.0f", state.Regime, primaryName, primary.Confidence))

	for _, sig := range signals {
		if sig.Strategy == primaryName {
			continue
		}
		switch {
		case sig.Decision == primary.Decision:
			confidence += m.cfg.Fusion.ConfirmationBonus
			rationale = append(rationale, fmt.Sprintf("confirmed by %s (%.0f)", sig.Strategy, sig.Confidence))
		case sig.Decision != types.Hold && primary.Decision != types.Hold:
			confidence -= m.cfg.Fusion.DisagreementPenalty
			rationale = append(rationale, fmt.Sprintf("dissent from %s: %s (%.0f)", sig.Strategy, sig.Decision, sig.Confidence))
		}
	}
	if confidence > 100 {
		confidence = 100
	}
	if confidence < 0 {
		confidence = 0
	}

	decision := primary.Decision
	threshold := m.ThresholdFor(state.Regime)
	if decision != types.Hold && confidence < threshold {
		rationale = append(rationale, fmt.Sprintf("fused confidence %.0f below %s threshold %.0f, degrading to HOLD", confidence, state.Regime, threshold))
		logger.Debug(ctx, "Fused decision below regime threshold",
			"asset", state.Asset, "confidence", confidence, "threshold", threshold)
		decision = types.Hold
	}

	return types.TradeDecision{
		Asset:            state.Asset,
		Decision:         decision,
		Confidence:       confidence,
		PositionFraction: m.positionFraction(decision, confidence, primary.Risk),
		Rationale:        rationale,
		SourceStrategy:   primaryName,
	}
}

// positionFraction sizes the candidate: the configured ceiling scaled by
// fused confidence, haircut by the primary signal's own risk assessment.
// The risk guard applies the binding limits afterwards.
func (m *Manager) positionFraction(decision types.Action, confidence float64, risk types.RiskLevel) float64 {
	if decision == types.Hold {
		return 0
	}
	scale := 1.0
	switch risk {
	case types.RiskMedium:
		scale = 0.75
	case types.RiskHigh:
		scale = 0.5
	}
	return m.cfg.Risk.MaxTradeFraction * (confidence / 100.0) * scale
}
