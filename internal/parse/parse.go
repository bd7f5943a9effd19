// Package parse turns untrusted model output into a valid StrategySignal.
//
// The upstream text generator is not contractually guaranteed to emit
// well-formed JSON and historically truncates under token limits, so the
// parser is a total function: any input, including the empty string,
// produces a fully-populated signal. Parsing is an ordered chain of
// stages; the first stage that succeeds wins and the stage name is
// recorded in the signal rationale for auditing.
package parse

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"adaptive-trading-bot/internal/types"
)

// raw is the loosely-typed shape a stage extracts before normalization.
type raw struct {
	decision   string
	confidence *float64
	reasoning  []string
	risk       string
}

type stage struct {
	name string
	fn   func(string) (raw, bool)
}

// stages is the fallback chain, attempted in order. Keeping it as a
// declared list makes the order auditable and testable.
var stages = []stage{
	{"strict", parseStrict},
	{"extract", parseExtracted},
	{"partial", parsePartial},
}

// Parse converts text into a signal attributed to strategy. It never
// panics and never returns a partially-typed value.
func Parse(strategy, text string) types.StrategySignal {
	for _, st := range stages {
		if r, ok := st.fn(text); ok {
			return normalize(strategy, r, st.name)
		}
	}
	return Fallback(strategy, "unparseable response")
}

// Fallback is the terminal signal used when nothing can be extracted or
// when the provider itself failed (timeout, transport error).
func Fallback(strategy, reason string) types.StrategySignal {
	return types.StrategySignal{
		Strategy:   strategy,
		Decision:   types.Hold,
		Confidence: 0,
		Rationale:  []string{reason},
		Risk:       types.RiskMedium,
	}
}

// parseStrict parses the whole text as one JSON object. On a syntax
// error it repairs near-miss mistakes (markdown fences, trailing commas)
// and retries once.
func parseStrict(text string) (raw, bool) {
	t := strings.TrimSpace(text)
	if r, ok := unmarshalObject(t); ok {
		return r, true
	}
	if r, ok := unmarshalObject(repair(t)); ok {
		return r, true
	}
	return raw{}, false
}

// parseExtracted finds the first balanced {...} span and strict-parses
// that substring. Handles commentary surrounding the payload and ignores
// any objects after the first.
func parseExtracted(text string) (raw, bool) {
	span, ok := firstBalancedObject(text)
	if !ok {
		return raw{}, false
	}
	return parseStrict(span)
}

var (
	decisionRe   = regexp.MustCompile(`(?i)\b(BUY|SELL|HOLD)\b`)
	confidenceRe = regexp.MustCompile(`(?i)confidence["']?\s*[:=]?\s*["']?(-?\d+(?:\.\d+)?)`)
	riskRe       = regexp.MustCompile(`(?i)risk[_ ]?assessment["']?\s*[:=]?\s*["']?(low|medium|high)`)
)

// parsePartial pattern-matches decision and confidence tokens anywhere in
// the text, independently. This is the truncation path: a decision token
// alone is enough to succeed, missing fields take defaults.
//
// When a decision token is found but no confidence number, confidence
// defaults to 0 so a partially-extracted signal can never clear a
// positive confidence threshold on its own.
func parsePartial(text string) (raw, bool) {
	m := decisionRe.FindStringSubmatch(text)
	if m == nil {
		return raw{}, false
	}
	r := raw{
		decision:  m[1],
		reasoning: []string{"partial extraction"},
	}
	if cm := confidenceRe.FindStringSubmatch(text); cm != nil {
		if v, err := strconv.ParseFloat(cm[1], 64); err == nil {
			r.confidence = &v
		}
	}
	if rm := riskRe.FindStringSubmatch(text); rm != nil {
		r.risk = rm[1]
	}
	return r, true
}

// unmarshalObject decodes t as a JSON object and pulls the signal fields
// out of it. Both decision and confidence must be present for a strict
// success; anything less falls through to the next stage.
func unmarshalObject(t string) (raw, bool) {
	if !strings.HasPrefix(t, "{") {
		return raw{}, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(t), &m); err != nil {
		return raw{}, false
	}

	var r raw
	dec, okDec := m["decision"]
	if !okDec {
		// some models answer with "action" despite the schema
		dec, okDec = m["action"]
	}
	if s, ok := dec.(string); okDec && ok {
		r.decision = s
	} else {
		return raw{}, false
	}

	conf, okConf := toNumber(m["confidence"])
	if !okConf {
		return raw{}, false
	}
	r.confidence = &conf

	switch v := m["reasoning"].(type) {
	case string:
		if v != "" {
			r.reasoning = []string{v}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				r.reasoning = append(r.reasoning, s)
			}
		}
	}
	if s, ok := m["risk_assessment"].(string); ok {
		r.risk = s
	}
	return r, true
}

// toNumber coerces a JSON value to float64; models sometimes quote the
// confidence number.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// repair fixes the near-miss syntax errors models emit most often:
// markdown code fences around the payload and trailing commas.
func repair(t string) string {
	t = strings.TrimSpace(t)
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```json")
		t = strings.TrimPrefix(t, "```")
		if i := strings.LastIndex(t, "```"); i >= 0 {
			t = t[:i]
		}
		t = strings.TrimSpace(t)
	}
	return trailingCommaRe.ReplaceAllString(t, "$1")
}

// firstBalancedObject scans for the first '{' and tracks nested brace
// depth until it closes, skipping braces inside JSON strings. Returns
// false when the object never closes (truncated output).
func firstBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// normalize applies the post-processing rules shared by every stage:
// decision must be a known enum member (case-insensitive) else HOLD,
// confidence clamps to [0,100], risk defaults to medium.
func normalize(strategy string, r raw, stageName string) types.StrategySignal {
	sig := types.StrategySignal{
		Strategy:  strategy,
		Rationale: r.reasoning,
	}

	action := types.Action(strings.ToUpper(strings.TrimSpace(r.decision)))
	if !action.Valid() {
		action = types.Hold
		sig.Rationale = append(sig.Rationale, "unknown decision token")
	}
	sig.Decision = action

	if r.confidence != nil {
		sig.Confidence = clamp(*r.confidence, 0, 100)
	}

	risk := types.RiskLevel(strings.ToLower(strings.TrimSpace(r.risk)))
	if !risk.Valid() {
		risk = types.RiskMedium
	}
	sig.Risk = risk

	sig.Rationale = append(sig.Rationale, "parse_stage:"+stageName)
	return sig
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
