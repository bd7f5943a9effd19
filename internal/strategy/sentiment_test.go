package strategy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"adaptive-trading-bot/internal/types"
)

type stubModel struct {
	text string
	err  error
}

func (m *stubModel) Generate(ctx context.Context, system, prompt string) (string, error) {
	return m.text, m.err
}

type stubHeadlines struct {
	items []types.NewsHeadline
}

func (h *stubHeadlines) RecentHeadlines(ctx context.Context, asset string, max int) ([]types.NewsHeadline, error) {
	return h.items, nil
}

func TestSentimentParsesModelOutput(t *testing.T) {
	model := &stubModel{text: `{"decision":"BUY","confidence":77,"reasoning":"positive coverage","risk_assessment":"medium"}`}
	s := NewSentiment(indicatorConfig(), model, nil)

	sig, err := s.Evaluate(context.Background(), snapFrom(rampCloses(60, 1000, 1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Decision != types.Buy || sig.Confidence != 77 {
		t.Errorf("expected BUY/77, got %s/%f", sig.Decision, sig.Confidence)
	}
	if sig.Strategy != SentimentName {
		t.Errorf("expected attribution %s, got %s", SentimentName, sig.Strategy)
	}
}

// Malformed output degrades through the parser chain; the provider never
// surfaces an error for it.
func TestSentimentDegradesGarbageOutput(t *testing.T) {
	model := &stubModel{text: "I am unable to assist with financial matters."}
	s := NewSentiment(indicatorConfig(), model, nil)

	sig, err := s.Evaluate(context.Background(), snapFrom(rampCloses(60, 1000, 1)))
	if err != nil {
		t.Fatalf("garbage output must not error: %v", err)
	}
	if sig.Decision != types.Hold || sig.Confidence != 0 {
		t.Errorf("expected HOLD/0, got %s/%f", sig.Decision, sig.Confidence)
	}
}

func TestSentimentDegradesModelFailure(t *testing.T) {
	model := &stubModel{err: errors.New("connection reset")}
	s := NewSentiment(indicatorConfig(), model, nil)

	sig, err := s.Evaluate(context.Background(), snapFrom(rampCloses(60, 1000, 1)))
	if err != nil {
		t.Fatalf("transport failure must degrade, not error: %v", err)
	}
	if sig.Decision != types.Hold || sig.Confidence != 0 {
		t.Errorf("expected HOLD/0 fallback, got %s/%f", sig.Decision, sig.Confidence)
	}
}

func TestSentimentRecoversTruncatedOutput(t *testing.T) {
	model := &stubModel{text: `{"decision": "SELL", "confidence": 81, "reasoning": "broad sector weakn`}
	s := NewSentiment(indicatorConfig(), model, nil)

	sig, err := s.Evaluate(context.Background(), snapFrom(rampCloses(60, 1000, 1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Decision != types.Sell || sig.Confidence != 81 {
		t.Errorf("expected SELL/81 from partial extraction, got %s/%f", sig.Decision, sig.Confidence)
	}
}

func TestSentimentPromptIncludesHeadlinesAndSchema(t *testing.T) {
	cfg := indicatorConfig()
	cfg.News.MaxHeadlines = 5
	headlines := &stubHeadlines{items: []types.NewsHeadline{
		{Source: "moneycontrol", Title: "Refinery margins surge on export demand"},
	}}
	s := NewSentiment(cfg, &stubModel{}, headlines)

	prompt := s.buildPrompt(context.Background(), snapFrom(rampCloses(60, 1000, 1)))
	if !strings.Contains(prompt, "Refinery margins surge on export demand") {
		t.Error("expected headline in prompt")
	}
	if !strings.Contains(prompt, signalSchema) {
		t.Error("expected response schema in prompt")
	}
	if !strings.Contains(prompt, "RELIANCE") {
		t.Error("expected asset name in prompt")
	}
}
