package types

// Action is the directional outcome of a strategy or the whole pipeline.
type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
	Hold Action = "HOLD"
)

// Valid reports whether a is one of the three enumerated actions.
func (a Action) Valid() bool {
	return a == Buy || a == Sell || a == Hold
}

// RiskLevel is a provider's own assessment of how risky acting on its
// signal would be.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Regime is the classified market behavior mode for one asset.
type Regime string

const (
	Trending Regime = "TRENDING"
	Ranging  Regime = "RANGING"
	Volatile Regime = "VOLATILE"
)

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// MarketSnapshot is the immutable per-cycle view of one asset: the recent
// observation window plus metrics derived from it. Built once by the data
// layer, read by everything downstream.
type MarketSnapshot struct {
	Asset         string
	Candles       []Candle
	Volatility    float64 // normalized recent price dispersion
	TrendStrength float64 // normalized directional movement, 0..1
}

// Price returns the latest close, or 0 for an empty window.
func (s MarketSnapshot) Price() float64 {
	if len(s.Candles) == 0 {
		return 0
	}
	return s.Candles[len(s.Candles)-1].Close
}

// StrategySignal is one strategy's directional opinion for the cycle.
type StrategySignal struct {
	Strategy   string    `json:"strategy"`
	Decision   Action    `json:"decision"`
	Confidence float64   `json:"confidence"` // 0..100
	Rationale  []string  `json:"rationale,omitempty"`
	Risk       RiskLevel `json:"risk_assessment,omitempty"`
}

// RegimeState is the classifier output. Recomputed every cycle; kept only
// for the current cycle and for diagnostics.
type RegimeState struct {
	Asset         string
	Regime        Regime
	TrendStrength float64
	Volatility    float64
	// LowConfidence is set when the observation window was shorter than
	// the configured minimum and the classifier defaulted to Ranging.
	LowConfidence bool
	ComputedAt    int64
}

// TradeDecision is the pipeline's final (or candidate) output for one
// asset in one cycle.
type TradeDecision struct {
	Asset            string   `json:"asset"`
	Decision         Action   `json:"decision"`
	Confidence       float64  `json:"confidence"`        // 0..100
	PositionFraction float64  `json:"position_fraction"` // 0..max_trade_fraction
	Rationale        []string `json:"rationale,omitempty"`
	SourceStrategy   string   `json:"source_strategy"`
}

type OrderReq struct {
	Symbol, Side string
	Qty          int
	Tag          string
}

type OrderResp struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// StepResult is what one pipeline step for one asset produced, serialized
// to stdout by cmd/bot for operators tailing the process.
type StepResult struct {
	Asset    string        `json:"asset"`
	Regime   Regime        `json:"regime"`
	Decision TradeDecision `json:"decision"`
	Price    float64       `json:"price"`
	Time     int64         `json:"time"`
	Orders   []OrderResp   `json:"orders,omitempty"`
}

// NewsHeadline is one scraped headline used to enrich the sentiment prompt.
type NewsHeadline struct {
	Symbol string
	Title  string
	Source string
	URL    string
}
