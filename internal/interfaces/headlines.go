package interfaces

import (
	"context"

	"adaptive-trading-bot/internal/types"
)

type HeadlineSource interface {
	RecentHeadlines(ctx context.Context, symbol string, max int) ([]types.NewsHeadline, error)
}
