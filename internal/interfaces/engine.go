package interfaces

import (
	"context"
	"time"

	"llm-daily-trader/internal/types"
)

type CycleRunner interface {
	Run(ctx context.Context, date time.Time) (*types.CycleReport, error)
}

// AuditSink records oracle responses that could not be parsed.
type AuditSink interface {
	Record(ctx context.Context, kind, raw string)
}

type EodSummarizer interface {
	SummarizeDay(t time.Time) (csvPath string, err error)
}
