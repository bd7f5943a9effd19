package interfaces

import (
	"context"

	"adaptive-trading-bot/internal/types"
)

type Broker interface {
	LTP(ctx context.Context, symbol string) (float64, error)
	RecentCandles(ctx context.Context, symbol string, n int) ([]types.Candle, error)
	// AccountValue reports the current account equity, the base for
	// position sizing and drawdown tracking.
	AccountValue(ctx context.Context) (float64, error)
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
}
