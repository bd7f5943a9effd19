package noop

import (
	"context"

	"adaptive-trading-bot/internal/logger"
)

// Client is the fallback text model used when no LLM provider is
// configured. It emits a well-formed HOLD payload so the sentiment
// provider stays neutral.
type Client struct{}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	logger.Debug(ctx, "Noop text model called - returning neutral HOLD")
	return `{"decision":"HOLD","confidence":0,"reasoning":"no text model configured","risk_assessment":"medium"}`, nil
}
