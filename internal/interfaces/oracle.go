package interfaces

import (
	"context"

	"llm-daily-trader/internal/types"
)

// Backend sends one conversation to a model provider.
type Backend interface {
	Complete(ctx context.Context, turns []types.Turn, temperature float32) (string, error)
}

// Oracle converses with a model and always returns text. Failures come back
// as sentinel strings, never as errors.
type Oracle interface {
	Converse(ctx context.Context, turns []types.Turn) string
}
