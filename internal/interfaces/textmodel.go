package interfaces

import "context"

// TextModel is a remote text-generation backend. The returned text is
// untrusted free text; callers run it through the response parser.
type TextModel interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}
