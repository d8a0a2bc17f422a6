package noop

import (
	"context"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/logger"
	"llm-daily-trader/internal/types"
)

// Reply is what the noop backend answers to every prompt.
const Reply = `{"decision": "HOLD", "reason": "noop_backend_fallback", "names": []}`

// Backend is used when no model is configured; every position is held and
// every candidate gets the neutral score.
type Backend struct{}

var _ interfaces.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Complete(ctx context.Context, turns []types.Turn, temperature float32) (string, error) {
	logger.Debug(ctx, "Noop backend called", "turns", len(turns))
	return Reply, nil
}
