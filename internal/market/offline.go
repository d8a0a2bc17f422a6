package market

import (
	"context"
	"time"

	"llm-daily-trader/internal/interfaces"
)

// Offline resolves nothing, so every lookup takes the synthetic fallback.
type Offline struct{}

var _ interfaces.Resolver = Offline{}

func (Offline) ResolveIDs(context.Context, string) ([]int, error) {
	return nil, ErrNotFound
}

func (Offline) HistoricalPrice(context.Context, int, time.Time) (float64, error) {
	return 0, ErrNotFound
}
