package llmobs

import (
	"context"

	"adaptive-trading-bot/internal/interfaces"
	"adaptive-trading-bot/internal/logger"
	"adaptive-trading-bot/internal/trace"
)

// observableModel wraps a TextModel with logging and tracing.
type observableModel struct {
	model interfaces.TextModel
}

var _ interfaces.TextModel = (*observableModel)(nil)

// Wrap wraps a text model with observability middleware.
func Wrap(model interfaces.TextModel) interfaces.TextModel {
	return &observableModel{model: model}
}

func (om *observableModel) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Generate")
	defer span.End()

	logger.Debug(ctx, "Requesting text generation", "prompt_len", len(prompt))

	text, err := om.model.Generate(ctx, system, prompt)
	if err != nil {
		logger.ErrorWithErr(ctx, "Text generation failed", err)
		return "", err
	}

	logger.Debug(ctx, "Text generation completed", "response_len", len(text))
	return text, nil
}
