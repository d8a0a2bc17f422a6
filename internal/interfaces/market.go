package interfaces

import (
	"context"
	"time"
)

// NewsProvider yields the day's context text.
type NewsProvider interface {
	Fetch(ctx context.Context, date time.Time) (string, error)
}

// Resolver maps names to listing ids and ids to historical prices.
type Resolver interface {
	ResolveIDs(ctx context.Context, name string) ([]int, error)
	HistoricalPrice(ctx context.Context, id int, date time.Time) (float64, error)
}
