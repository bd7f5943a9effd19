package strategy

import (
	"context"
	"testing"

	"adaptive-trading-bot/internal/types"
)

// flat base then a sharp move over the last ten bars, enough to punch
// through the Bollinger band and pin the RSI
func spikeCloses(base, step float64) []float64 {
	closes := make([]float64, 50)
	for i := range closes {
		if i < 40 {
			closes[i] = base
		} else {
			closes[i] = base + step*float64(i-39)
		}
	}
	return closes
}

func TestMeanReversionBuysOversold(t *testing.T) {
	s := NewMeanReversion(indicatorConfig())
	sig, err := s.Evaluate(context.Background(), snapFrom(spikeCloses(1000, -8)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Decision != types.Buy {
		t.Errorf("expected BUY on oversold plunge, got %s", sig.Decision)
	}
	if sig.Confidence < 55 {
		t.Errorf("directional reversion confidence starts at 55, got %f", sig.Confidence)
	}
}

func TestMeanReversionSellsOverbought(t *testing.T) {
	s := NewMeanReversion(indicatorConfig())
	sig, err := s.Evaluate(context.Background(), snapFrom(spikeCloses(1000, 8)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Decision != types.Sell {
		t.Errorf("expected SELL on overbought spike, got %s", sig.Decision)
	}
}

func TestMeanReversionHoldsInsideBands(t *testing.T) {
	s := NewMeanReversion(indicatorConfig())
	// gentle oscillation stays inside two standard deviations
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 1000
		if i%2 == 0 {
			closes[i] = 1002
		}
	}
	sig, err := s.Evaluate(context.Background(), snapFrom(closes))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Decision != types.Hold {
		t.Errorf("expected HOLD inside bands, got %s", sig.Decision)
	}
}

func TestMeanReversionHoldsOnShortHistory(t *testing.T) {
	s := NewMeanReversion(indicatorConfig())
	sig, err := s.Evaluate(context.Background(), snapFrom(flatCloses(5, 1000)))
	if err != nil {
		t.Fatalf("short history must not error: %v", err)
	}
	if sig.Decision != types.Hold {
		t.Errorf("expected HOLD on short history, got %s", sig.Decision)
	}
}
