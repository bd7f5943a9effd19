package interfaces

import (
	"context"

	"adaptive-trading-bot/internal/types"
)

type Engine interface {
	Step(ctx context.Context, asset string) (*types.StepResult, error)
}
