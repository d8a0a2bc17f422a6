package llmobs

import (
	"context"
	"time"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/logger"
	"llm-daily-trader/internal/trace"
	"llm-daily-trader/internal/types"
)

type observableBackend struct {
	backend interfaces.Backend
	name    string
}

var _ interfaces.Backend = (*observableBackend)(nil)

// Wrap adds a span and latency logging around a backend.
func Wrap(name string, backend interfaces.Backend) interfaces.Backend {
	return &observableBackend{backend: backend, name: name}
}

func (ob *observableBackend) Complete(ctx context.Context, turns []types.Turn, temperature float32) (string, error) {
	ctx, span := trace.StartOracleSpan(ctx, ob.name, len(turns))
	defer span.End()

	logger.DebugSkip(ctx, 1, "Requesting completion",
		"backend", ob.name,
		"turns", len(turns),
	)

	start := time.Now()
	text, err := ob.backend.Complete(ctx, turns, temperature)
	latency := time.Since(start)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Completion failed", err,
			"backend", ob.name,
			"latency_ms", latency.Milliseconds(),
		)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Completion received",
		"backend", ob.name,
		"response_length", len(text),
		"latency_ms", latency.Milliseconds(),
	)
	return text, nil
}
