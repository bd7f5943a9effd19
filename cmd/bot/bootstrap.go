package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"adaptive-trading-bot/internal/broker/brokerobs"
	"adaptive-trading-bot/internal/broker/zerodha"
	"adaptive-trading-bot/internal/decisionlog"
	"adaptive-trading-bot/internal/engine"
	"adaptive-trading-bot/internal/engine/engineobs"
	"adaptive-trading-bot/internal/fusion"
	"adaptive-trading-bot/internal/interfaces"
	"adaptive-trading-bot/internal/llm/claude"
	"adaptive-trading-bot/internal/llm/llmobs"
	"adaptive-trading-bot/internal/llm/noop"
	"adaptive-trading-bot/internal/llm/openai"
	"adaptive-trading-bot/internal/logger"
	"adaptive-trading-bot/internal/news"
	"adaptive-trading-bot/internal/riskguard"
	"adaptive-trading-bot/internal/store"
	"adaptive-trading-bot/internal/strategy"
	"adaptive-trading-bot/internal/trace"
	"adaptive-trading-bot/internal/types"

	"github.com/joho/godotenv"
)

type dependencies struct {
	engine interfaces.Engine
	dlog   *decisionlog.Logger
}

// initializeSystem initializes env, logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("TRADER_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// buildDependencies wires broker, text model, providers, fusion manager,
// risk guard, decision log and the engine, each behind its observability
// wrapper.
func buildDependencies(ctx context.Context, cfg *store.Config) (*dependencies, error) {
	brk := initializeBroker(ctx, cfg)
	model := initializeTextModel(ctx, cfg)

	var headlines interfaces.HeadlineSource
	if cfg.News.Enabled {
		headlines = news.NewScraper(15 * time.Second)
		logger.Info(ctx, "Headline scraping enabled", "max_headlines", cfg.News.MaxHeadlines)
	}

	providers := []interfaces.Provider{
		strategy.NewTrendFollowing(cfg),
		strategy.NewMeanReversion(cfg),
		strategy.NewMomentum(cfg),
		strategy.NewSentiment(cfg, model, headlines),
	}

	fuserCheck(ctx, cfg, providers)

	guard := riskguard.NewGuard(cfg)
	dlog := decisionlog.New("logs")

	eng := engine.New(cfg, brk, providers, guard, dlog)
	return &dependencies{
		engine: engineobs.Wrap(eng),
		dlog:   dlog,
	}, nil
}

func initializeBroker(ctx context.Context, cfg *store.Config) interfaces.Broker {
	brk := zerodha.NewZerodha(zerodha.Params{
		Mode:        cfg.Mode,
		APIKey:      os.Getenv("KITE_API_KEY"),
		AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
		Exchange:    cfg.Exchange,
		DataSource:  cfg.DataSource,
	})

	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}
	return brokerobs.Wrap(brk)
}

func initializeTextModel(ctx context.Context, cfg *store.Config) interfaces.TextModel {
	var model interfaces.TextModel
	switch cfg.LLM.Provider {
	case "OPENAI":
		model = openai.NewClient(cfg)
	case "CLAUDE":
		model = claude.NewClient(cfg)
	default:
		model = noop.NewClient()
		logger.Warn(ctx, "No LLM provider configured - sentiment provider will always HOLD")
	}
	return llmobs.Wrap(model)
}

// fuserCheck warns when the configured primary mapping points at a
// strategy no provider implements; the fusion manager would hold forever
// in that regime.
func fuserCheck(ctx context.Context, cfg *store.Config, providers []interfaces.Provider) {
	known := make(map[string]bool, len(providers))
	for _, p := range providers {
		known[p.Name()] = true
	}
	m := fusion.NewManager(cfg)
	for _, r := range []string{"TRENDING", "RANGING", "VOLATILE"} {
		name := m.PrimaryFor(types.Regime(r))
		if !known[name] {
			logger.Warn(ctx, "Primary strategy for regime has no provider", "regime", r, "strategy", name)
		}
	}
}
