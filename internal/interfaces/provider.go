package interfaces

import (
	"context"

	"adaptive-trading-bot/internal/types"
)

// Provider is one signal source. Evaluate must never panic for a
// well-formed snapshot and must respect ctx cancellation; failures map to
// a HOLD signal rather than aborting the cycle.
type Provider interface {
	Name() string
	Evaluate(ctx context.Context, snap types.MarketSnapshot) (types.StrategySignal, error)
}
