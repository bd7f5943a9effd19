// Package zerodha is the execution-layer adapter. In DRY_RUN mode orders
// are simulated and candles are synthetic; in LIVE mode quotes and orders
// go through the Kite Connect API. The decision pipeline only sees the
// Broker interface.
package zerodha

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"adaptive-trading-bot/internal/interfaces"
	"adaptive-trading-bot/internal/types"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

type Params struct {
	Mode        string // DRY_RUN or LIVE
	APIKey      string
	AccessToken string
	Exchange    string
	DataSource  string // STATIC or LIVE
}

type Zerodha struct {
	p  Params
	kc *kiteconnect.Client
}

var _ interfaces.Broker = (*Zerodha)(nil)

func NewZerodha(p Params) *Zerodha {
	z := &Zerodha{p: p}
	if p.Mode == "LIVE" || p.DataSource == "LIVE" {
		z.kc = kiteconnect.New(p.APIKey)
		z.kc.SetAccessToken(p.AccessToken)
	}
	return z
}

func (z *Zerodha) LTP(ctx context.Context, symbol string) (float64, error) {
	if z.kc != nil && z.p.DataSource == "LIVE" {
		instrument := fmt.Sprintf("%s:%s", z.p.Exchange, symbol)
		quotes, err := z.kc.GetLTP(instrument)
		if err != nil {
			return 0, fmt.Errorf("ltp %s: %w", symbol, err)
		}
		q, ok := quotes[instrument]
		if !ok {
			return 0, fmt.Errorf("ltp %s: no quote returned", symbol)
		}
		return q.LastPrice, nil
	}
	return 1000 + rand.Float64()*100, nil
}

// dryRunAccountValue is the simulated equity for offline runs.
const dryRunAccountValue = 100000

func (z *Zerodha) AccountValue(ctx context.Context) (float64, error) {
	if z.kc != nil && z.p.Mode == "LIVE" {
		margins, err := z.kc.GetUserMargins()
		if err != nil {
			return 0, fmt.Errorf("user margins: %w", err)
		}
		return margins.Equity.Net, nil
	}
	return dryRunAccountValue, nil
}

func (z *Zerodha) RecentCandles(ctx context.Context, symbol string, n int) ([]types.Candle, error) {
	if n <= 0 {
		return nil, errors.New("candle count must be positive")
	}
	// LIVE historical data needs an instrument-token lookup; until wired,
	// both modes serve the synthetic random-walk window.
	return syntheticCandles(n), nil
}

// syntheticCandles produces a slowly drifting random walk so offline runs
// exercise every regime without live market data.
func syntheticCandles(n int) []types.Candle {
	cs := make([]types.Candle, 0, n)
	base := 1000.0
	now := time.Now().Unix()

	for i := n; i > 0; i-- {
		c := base + float64(i) + (rand.Float64()-0.5)*5
		h := c + rand.Float64()*3
		l := c - rand.Float64()*3
		cs = append(cs, types.Candle{
			Ts:    now - int64((n-i+1)*60),
			Open:  c - 0.5,
			High:  h,
			Low:   l,
			Close: c,
			Vol:   rand.Float64() * 1000,
		})
	}
	return cs
}

func (z *Zerodha) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if z.p.Mode == "DRY_RUN" {
		return types.OrderResp{
			OrderID: fmt.Sprintf("SIM-%d", time.Now().UnixNano()),
			Status:  "SIMULATED",
			Message: "dry-run",
		}, nil
	}

	if z.kc == nil || z.p.APIKey == "" || z.p.AccessToken == "" {
		return types.OrderResp{}, errors.New("missing API key/access token")
	}

	txnType := kiteconnect.TransactionTypeBuy
	if req.Side == "SELL" {
		txnType = kiteconnect.TransactionTypeSell
	}

	resp, err := z.kc.PlaceOrder(kiteconnect.VarietyRegular, kiteconnect.OrderParams{
		Exchange:        z.p.Exchange,
		Tradingsymbol:   req.Symbol,
		Product:         kiteconnect.ProductMIS,
		OrderType:       kiteconnect.OrderTypeMarket,
		TransactionType: txnType,
		Quantity:        req.Qty,
		Tag:             req.Tag,
	})
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("place order %s %s: %w", req.Side, req.Symbol, err)
	}
	return types.OrderResp{OrderID: resp.OrderID, Status: "PLACED", Message: "ok"}, nil
}
