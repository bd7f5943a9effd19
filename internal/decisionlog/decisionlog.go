// Package decisionlog keeps the append-only audit record of every
// finalized trade decision, one structured JSON line per asset per cycle.
// Files rotate daily-ish by size and old segments are compressed, which
// replaces hand-rolled gzip retention walks.
package decisionlog

import (
	"os"
	"path/filepath"
	"time"

	"adaptive-trading-bot/internal/types"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	z *zap.Logger
}

// New opens the decision log under dir (TRADER_LOG_DIR overrides, default
// "logs").
func New(dir string) *Logger {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		dir = v
	}
	if dir == "" {
		dir = "logs"
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "decisions.log"),
		MaxSize:    10, // MB
		MaxBackups: 60,
		MaxAge:     60, // days
		Compress:   true,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(w),
		zapcore.InfoLevel,
	)
	return &Logger{z: zap.New(core)}
}

// Append records one finalized decision.
func (l *Logger) Append(d types.TradeDecision, regime types.Regime, price float64) {
	l.z.Info("decision",
		zap.String("asset", d.Asset),
		zap.String("decision", string(d.Decision)),
		zap.Float64("confidence", d.Confidence),
		zap.Float64("position_fraction", d.PositionFraction),
		zap.String("source_strategy", d.SourceStrategy),
		zap.String("regime", string(regime)),
		zap.Float64("price", price),
		zap.Strings("rationale", d.Rationale),
		zap.Int64("unix", time.Now().Unix()),
	)
}

// AppendOrder records an execution attempt for a decision.
func (l *Logger) AppendOrder(asset string, resp types.OrderResp, side string, qty int, price float64) {
	l.z.Info("order",
		zap.String("asset", asset),
		zap.String("side", side),
		zap.Int("qty", qty),
		zap.Float64("price", price),
		zap.String("order_id", resp.OrderID),
		zap.String("status", resp.Status),
	)
}

func (l *Logger) Sync() {
	_ = l.z.Sync()
}
