package engineobs

import (
	"context"
	"time"

	"adaptive-trading-bot/internal/interfaces"
	"adaptive-trading-bot/internal/logger"
	"adaptive-trading-bot/internal/trace"
	"adaptive-trading-bot/internal/types"
)

// observableEngine wraps an Engine with logging and tracing.
type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

// Wrap wraps an engine with observability middleware.
func Wrap(engine interfaces.Engine) interfaces.Engine {
	return &observableEngine{engine: engine}
}

func (oe *observableEngine) Step(ctx context.Context, asset string) (*types.StepResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Step.outer")
	defer span.End()

	start := time.Now()
	logger.Debug(ctx, "Pipeline step starting", "asset", asset)

	result, err := oe.engine.Step(ctx, asset)
	if err != nil {
		logger.Warn(ctx, "Pipeline step skipped", "asset", asset, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	logger.Info(ctx, "Pipeline step completed",
		"asset", asset,
		"regime", result.Regime,
		"decision", result.Decision.Decision,
		"confidence", result.Decision.Confidence,
		"orders", len(result.Orders),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
