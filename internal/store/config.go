package store

import (
	"errors"
	"fmt"
	"os"

	"adaptive-trading-bot/internal/types"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode        string   `yaml:"mode"`        // DRY_RUN or LIVE
	DataSource  string   `yaml:"data_source"` // STATIC or LIVE
	PollSeconds int      `yaml:"poll_seconds"`
	Exchange    string   `yaml:"exchange"`
	Universe    []string `yaml:"universe"`

	Regime     Regime     `yaml:"regime"`
	Fusion     Fusion     `yaml:"fusion"`
	Risk       Risk       `yaml:"risk"`
	Indicators Indicators `yaml:"indicators"`
	LLM        LLM        `yaml:"llm"`
	News       News       `yaml:"news"`
}

type Regime struct {
	Lookback          int     `yaml:"lookback"`
	MinLookback       int     `yaml:"min_lookback"`
	TrendThreshold    float64 `yaml:"trend_threshold"`     // efficiency ratio above which market is TRENDING
	HighVolatilityPct float64 `yaml:"high_volatility_pct"` // dispersion/price %, above which VOLATILE
}

type Fusion struct {
	// Primary maps a regime to the strategy whose signal is taken as
	// the base decision. Missing entries fall back to built-in defaults.
	Primary             map[string]string `yaml:"primary"`
	ConfirmationBonus   float64           `yaml:"confirmation_bonus"`
	DisagreementPenalty float64           `yaml:"disagreement_penalty"`
	// Thresholds is the minimum fused confidence per regime; below it
	// the decision degrades to HOLD.
	Thresholds map[string]float64 `yaml:"thresholds"`
}

type Risk struct {
	StopLossPct        float64 `yaml:"stop_loss_pct"`
	MaxDailyRiskPct    float64 `yaml:"max_daily_risk_pct"`
	MaxDrawdownPct     float64 `yaml:"max_drawdown_pct"`
	DrawdownRecoverPct float64 `yaml:"drawdown_recover_pct"` // hysteresis band, must be < MaxDrawdownPct
	MinTradeAmount     float64 `yaml:"min_trade_amount"`
	MaxTradeFraction   float64 `yaml:"max_trade_fraction"`
}

type Indicators struct {
	SMAWindows []int   `yaml:"sma_windows"`
	RSIPeriod  int     `yaml:"rsi_period"`
	BBWindow   int     `yaml:"bb_window"`
	BBStdDev   float64 `yaml:"bb_stddev"`
	ATRPeriod  int     `yaml:"atr_period"`
	ROCPeriod  int     `yaml:"roc_period"`
}

type LLM struct {
	Provider       string  `yaml:"provider"` // OPENAI, CLAUDE or empty for noop
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float32 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	System         string  `yaml:"system"`
}

type News struct {
	Enabled      bool `yaml:"enabled"`
	MaxHeadlines int  `yaml:"max_headlines"`
}

// Validate rejects configurations the engine must not run with. Risk
// limits in particular fail closed: a malformed limit prevents startup.
func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.DataSource != "STATIC" && c.DataSource != "LIVE" {
		return fmt.Errorf("invalid data_source '%s': must be 'STATIC' or 'LIVE'", c.DataSource)
	}
	if len(c.Universe) == 0 {
		return errors.New("universe cannot be empty")
	}
	if c.Regime.MinLookback <= 1 || c.Regime.Lookback < c.Regime.MinLookback {
		return fmt.Errorf("regime lookback %d / min_lookback %d invalid", c.Regime.Lookback, c.Regime.MinLookback)
	}
	if c.Regime.TrendThreshold <= 0 || c.Regime.TrendThreshold >= 1 {
		return fmt.Errorf("regime.trend_threshold must be in (0,1), got %.3f", c.Regime.TrendThreshold)
	}
	if c.Regime.HighVolatilityPct <= 0 {
		return fmt.Errorf("regime.high_volatility_pct must be positive, got %.3f", c.Regime.HighVolatilityPct)
	}
	if c.Fusion.ConfirmationBonus < 0 || c.Fusion.DisagreementPenalty < 0 {
		return errors.New("fusion bonus/penalty must be non-negative")
	}
	for regime, name := range c.Fusion.Primary {
		if !validRegimeKey(regime) {
			return fmt.Errorf("fusion.primary: unknown regime '%s'", regime)
		}
		if name == "" {
			return fmt.Errorf("fusion.primary[%s] cannot be empty", regime)
		}
	}
	for regime, th := range c.Fusion.Thresholds {
		if !validRegimeKey(regime) {
			return fmt.Errorf("fusion.thresholds: unknown regime '%s'", regime)
		}
		if th < 0 || th > 100 {
			return fmt.Errorf("fusion.thresholds[%s] must be in [0,100], got %.1f", regime, th)
		}
	}
	if c.Risk.StopLossPct <= 0 || c.Risk.StopLossPct > 100 {
		return fmt.Errorf("risk.stop_loss_pct must be in (0,100], got %.2f", c.Risk.StopLossPct)
	}
	if c.Risk.MaxDailyRiskPct <= 0 || c.Risk.MaxDailyRiskPct > 100 {
		return fmt.Errorf("risk.max_daily_risk_pct must be in (0,100], got %.2f", c.Risk.MaxDailyRiskPct)
	}
	if c.Risk.MaxDrawdownPct <= 0 || c.Risk.MaxDrawdownPct > 100 {
		return fmt.Errorf("risk.max_drawdown_pct must be in (0,100], got %.2f", c.Risk.MaxDrawdownPct)
	}
	if c.Risk.DrawdownRecoverPct < 0 || c.Risk.DrawdownRecoverPct >= c.Risk.MaxDrawdownPct {
		return fmt.Errorf("risk.drawdown_recover_pct must be in [0, max_drawdown_pct), got %.2f", c.Risk.DrawdownRecoverPct)
	}
	if c.Risk.MinTradeAmount < 0 {
		return fmt.Errorf("risk.min_trade_amount cannot be negative, got %.2f", c.Risk.MinTradeAmount)
	}
	if c.Risk.MaxTradeFraction <= 0 || c.Risk.MaxTradeFraction > 1 {
		return fmt.Errorf("risk.max_trade_fraction must be in (0,1], got %.3f", c.Risk.MaxTradeFraction)
	}
	return nil
}

func validRegimeKey(s string) bool {
	switch types.Regime(s) {
	case types.Trending, types.Ranging, types.Volatile:
		return true
	}
	return false
}

// LoadConfig reads, defaults and validates the process configuration.
// The returned Config is loaded once and treated as immutable; changing
// limits requires a restart.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.PollSeconds == 0 {
		c.PollSeconds = 60
	}
	if c.DataSource == "" {
		c.DataSource = "STATIC"
	}
	if c.Regime.Lookback == 0 {
		c.Regime.Lookback = 50
	}
	if c.Regime.MinLookback == 0 {
		c.Regime.MinLookback = 20
	}
	if c.Regime.TrendThreshold == 0 {
		c.Regime.TrendThreshold = 0.35
	}
	if c.Regime.HighVolatilityPct == 0 {
		c.Regime.HighVolatilityPct = 2.5
	}
	if c.Fusion.ConfirmationBonus == 0 {
		c.Fusion.ConfirmationBonus = 5
	}
	if c.Fusion.DisagreementPenalty == 0 {
		c.Fusion.DisagreementPenalty = 3
	}
	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = 14
	}
	if c.Indicators.BBWindow == 0 {
		c.Indicators.BBWindow = 20
	}
	if c.Indicators.BBStdDev == 0 {
		c.Indicators.BBStdDev = 2.0
	}
	if c.Indicators.ATRPeriod == 0 {
		c.Indicators.ATRPeriod = 14
	}
	if c.Indicators.ROCPeriod == 0 {
		c.Indicators.ROCPeriod = 10
	}
	if len(c.Indicators.SMAWindows) == 0 {
		c.Indicators.SMAWindows = []int{20, 50}
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 400
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 20
	}
	if c.News.MaxHeadlines == 0 {
		c.News.MaxHeadlines = 5
	}
	if c.Risk.MaxTradeFraction == 0 {
		c.Risk.MaxTradeFraction = 0.10
	}
}
