package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"adaptive-trading-bot/internal/interfaces"
	"adaptive-trading-bot/internal/logger"
	"adaptive-trading-bot/internal/parse"
	"adaptive-trading-bot/internal/store"
	"adaptive-trading-bot/internal/ta"
	"adaptive-trading-bot/internal/trace"
	"adaptive-trading-bot/internal/types"
)

// Sentiment wraps a remote text-generation model. It is the only provider
// with non-deterministic, potentially malformed output, so everything the
// model returns goes through the layered parser; transport failures and
// timeouts degrade to the parser's fallback signal instead of erroring.
type Sentiment struct {
	cfg       *store.Config
	model     interfaces.TextModel
	headlines interfaces.HeadlineSource // optional
}

func NewSentiment(cfg *store.Config, model interfaces.TextModel, headlines interfaces.HeadlineSource) *Sentiment {
	return &Sentiment{cfg: cfg, model: model, headlines: headlines}
}

func (s *Sentiment) Name() string { return SentimentName }

const signalSchema = `{"decision":"BUY|SELL|HOLD","confidence":0-100,"reasoning":"brief explanation","risk_assessment":"low|medium|high"}`

func (s *Sentiment) Evaluate(ctx context.Context, snap types.MarketSnapshot) (types.StrategySignal, error) {
	ctx, span := trace.StartSpan(ctx, "sentiment.Evaluate")
	defer span.End()

	if timeout := time.Duration(s.cfg.LLM.TimeoutSeconds) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	system := s.cfg.LLM.System
	if system == "" {
		system = "You are a disciplined market analyst. Output STRICT JSON with BUY/SELL/HOLD."
	}

	text, err := s.model.Generate(ctx, system, s.buildPrompt(ctx, snap))
	if err != nil {
		logger.Warn(ctx, "Text model call failed, degrading to HOLD",
			"asset", snap.Asset, "error", err)
		return parse.Fallback(s.Name(), fmt.Sprintf("model failure: %v", err)), nil
	}

	sig := parse.Parse(s.Name(), text)
	logger.Debug(ctx, "Sentiment signal parsed",
		"asset", snap.Asset,
		"decision", sig.Decision,
		"confidence", sig.Confidence,
	)
	return sig, nil
}

// buildPrompt assembles the fixed prompt template: asset context, recent
// headlines when available, and strict formatting instructions.
func (s *Sentiment) buildPrompt(ctx context.Context, snap types.MarketSnapshot) string {
	closes := closesOf(snap)
	state := map[string]any{
		"asset":          snap.Asset,
		"price":          snap.Price(),
		"rsi":            ta.RSI(closes, s.cfg.Indicators.RSIPeriod),
		"roc_pct":        ta.ROC(closes, s.cfg.Indicators.ROCPeriod),
		"trend_strength": snap.TrendStrength,
		"volatility_pct": snap.Volatility,
	}
	stateB, _ := json.Marshal(state)

	var b strings.Builder
	fmt.Fprintf(&b, "Assess market sentiment for %s and decide BUY, SELL or HOLD.\n\nState: %s\n", snap.Asset, stateB)

	if s.headlines != nil {
		if hs, err := s.headlines.RecentHeadlines(ctx, snap.Asset, s.cfg.News.MaxHeadlines); err == nil && len(hs) > 0 {
			b.WriteString("\nRecent headlines:\n")
			for _, h := range hs {
				fmt.Fprintf(&b, "- [%s] %s\n", h.Source, h.Title)
			}
		}
	}

	fmt.Fprintf(&b, "\nRespond ONLY with compact JSON matching this schema:\n%s\n", signalSchema)
	return b.String()
}
