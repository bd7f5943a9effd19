package brokerobs

import (
	"context"

	"adaptive-trading-bot/internal/interfaces"
	"adaptive-trading-bot/internal/logger"
	"adaptive-trading-bot/internal/trace"
	"adaptive-trading-bot/internal/types"
)

// observableBroker wraps a Broker with logging and tracing.
type observableBroker struct {
	broker interfaces.Broker
}

var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware.
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{broker: broker}
}

func (ob *observableBroker) LTP(ctx context.Context, symbol string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.LTP")
	defer span.End()

	price, err := ob.broker.LTP(ctx, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch last traded price", err, "symbol", symbol)
		return 0, err
	}
	logger.Debug(ctx, "Last traded price fetched", "symbol", symbol, "price", price)
	return price, nil
}

func (ob *observableBroker) RecentCandles(ctx context.Context, symbol string, n int) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "broker.RecentCandles")
	defer span.End()

	candles, err := ob.broker.RecentCandles(ctx, symbol, n)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch candles", err, "symbol", symbol, "requested", n)
		return nil, err
	}
	logger.Debug(ctx, "Candles fetched", "symbol", symbol, "count", len(candles))
	return candles, nil
}

func (ob *observableBroker) AccountValue(ctx context.Context) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.AccountValue")
	defer span.End()

	value, err := ob.broker.AccountValue(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch account value", err)
		return 0, err
	}
	logger.Debug(ctx, "Account value fetched", "value", value)
	return value, nil
}

func (ob *observableBroker) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()

	resp, err := ob.broker.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Order placement failed", err,
			"symbol", req.Symbol, "side", req.Side, "qty", req.Qty)
		return types.OrderResp{}, err
	}
	logger.Info(ctx, "Order placed",
		"symbol", req.Symbol, "side", req.Side, "qty", req.Qty,
		"order_id", resp.OrderID, "status", resp.Status)
	return resp, nil
}
