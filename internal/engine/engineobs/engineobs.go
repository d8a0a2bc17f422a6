package engineobs

import (
	"context"
	"time"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/logger"
	"llm-daily-trader/internal/trace"
	"llm-daily-trader/internal/types"
)

type observableCycle struct {
	cycle interfaces.CycleRunner
}

var _ interfaces.CycleRunner = (*observableCycle)(nil)

func Wrap(cycle interfaces.CycleRunner) interfaces.CycleRunner {
	return &observableCycle{
		cycle: cycle,
	}
}

func (oc *observableCycle) Run(ctx context.Context, date time.Time) (*types.CycleReport, error) {
	ctx, span := trace.StartCycleSpan(ctx, date)
	defer span.End()

	start := time.Now()
	day := date.Format("2006-01-02")

	logger.InfoSkip(ctx, 1, "Starting daily cycle", "date", day)

	report, err := oc.cycle.Run(ctx, date)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Daily cycle failed", err,
			"date", day,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return report, err
	}

	logger.InfoSkip(ctx, 1, "Daily cycle completed",
		"date", day,
		"run_id", report.RunID,
		"sold", len(report.Sold),
		"bought", len(report.Bought),
		"holdings", report.Holdings,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return report, nil
}
