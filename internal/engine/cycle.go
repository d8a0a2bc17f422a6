// Package engine runs the daily cycle: score holdings, decide sells, buy
// toward the target size and persist the ledger.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"llm-daily-trader/internal/agents"
	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/ledger"
	"llm-daily-trader/internal/logger"
	"llm-daily-trader/internal/market"
	"llm-daily-trader/internal/metrics"
	"llm-daily-trader/internal/tradelog"
	"llm-daily-trader/internal/types"
)

// State is a step of the daily cycle.
type State int

const (
	FetchContext State = iota
	ScoreHoldings
	EvaluateSells
	EvaluateBuys
	Persist
	Done
)

var stateNames = map[State]string{
	FetchContext:  "FETCH_CONTEXT",
	ScoreHoldings: "SCORE_HOLDINGS",
	EvaluateSells: "EVALUATE_SELLS",
	EvaluateBuys:  "EVALUATE_BUYS",
	Persist:       "PERSIST",
	Done:          "DONE",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Next is the fixed successor of s.
func (s State) Next() State {
	if s >= Done {
		return Done
	}
	return s + 1
}

// Params are the cycle's constructor-time settings.
type Params struct {
	TargetQuantity int
	MaxBuyPerDay   int
	SavePath       string
	MinContextLen  int
	ScoreDelay     time.Duration
	DecisionDelay  time.Duration
	MemoryTurns    int
}

// Deps are the collaborators a cycle drives.
type Deps struct {
	Ledger   *ledger.Ledger
	News     interfaces.NewsProvider
	Resolver interfaces.Resolver
	Scorer   *agents.Scorer
	Trader   *agents.Trader
	Finder   *agents.Finder
	Analyst  *agents.Analyst
	Journal  *tradelog.Journal
}

// Cycle is the daily cycle controller. One Run at a time.
type Cycle struct {
	p    Params
	d    Deps
	exec *executor

	scorePacer    *rate.Limiter
	decisionPacer *rate.Limiter
}

var _ interfaces.CycleRunner = (*Cycle)(nil)

func New(p Params, d Deps) *Cycle {
	if d.Resolver == nil {
		d.Resolver = market.Offline{}
	}
	if d.Scorer == nil || d.Trader == nil || d.Finder == nil || d.Analyst == nil {
		panic("engine: all agents are required")
	}
	return &Cycle{
		p:             p,
		d:             d,
		exec:          newExecutor(d.Ledger, d.Journal),
		scorePacer:    pacer(p.ScoreDelay),
		decisionPacer: pacer(p.DecisionDelay),
	}
}

func pacer(every time.Duration) *rate.Limiter {
	if every <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(every), 1)
}

// run carries state between the steps of one cycle.
type run struct {
	date     time.Time
	day      string
	news     string
	report   string
	scoreFor map[string]types.ScoreResult
	result   *types.CycleReport
}

// Run executes one full cycle for date. Only a failed persist is an error;
// every other failure degrades to a default and the cycle continues.
func (c *Cycle) Run(ctx context.Context, date time.Time) (*types.CycleReport, error) {
	r := &run{
		date: date,
		day:  date.Format("2006-01-02"),
		result: &types.CycleReport{
			RunID:     uuid.NewString(),
			Date:      date.Format("2006-01-02"),
			StartedAt: time.Now(),
			Scores:    map[string]int{},
			Sold:      []string{},
			Bought:    []string{},
		},
	}

	for st := FetchContext; st != Done; st = st.Next() {
		op := logger.StartOperation(ctx, "cycle."+st.String(), "run_id", r.result.RunID, "date", r.day)
		err := c.step(op.GetContext(), st, r)
		if err != nil {
			op.EndWithError(err)
			metrics.Cycles.WithLabelValues("failed").Inc()
			r.result.Duration = time.Since(r.result.StartedAt)
			return r.result, fmt.Errorf("%s: %w", st, err)
		}
		op.End()
	}

	c.compactMemory(ctx)
	metrics.Cycles.WithLabelValues("ok").Inc()
	r.result.Holdings = c.d.Ledger.Len()
	r.result.Duration = time.Since(r.result.StartedAt)
	return r.result, nil
}

func (c *Cycle) step(ctx context.Context, st State, r *run) error {
	switch st {
	case FetchContext:
		c.fetchContext(ctx, r)
	case ScoreHoldings:
		c.scoreHoldings(ctx, r)
	case EvaluateSells:
		c.evaluateSells(ctx, r)
	case EvaluateBuys:
		c.evaluateBuys(ctx, r)
	case Persist:
		return c.persist(ctx)
	}
	return nil
}

func (c *Cycle) persist(ctx context.Context) error {
	if err := c.d.Ledger.Persist(c.p.SavePath); err != nil {
		logger.ErrorWithErr(ctx, "Failed to persist ledger", err, "path", c.p.SavePath)
		return err
	}
	logger.Info(ctx, "Ledger persisted", "path", c.p.SavePath, "positions", c.d.Ledger.Len())
	return nil
}

// compactMemory resets agents whose conversations grew past the limit.
func (c *Cycle) compactMemory(ctx context.Context) {
	c.d.Scorer.Compact(ctx, c.p.MemoryTurns)
	c.d.Trader.Compact(ctx, c.p.MemoryTurns)
	c.d.Finder.Compact(ctx, c.p.MemoryTurns)
}

func wait(ctx context.Context, l *rate.Limiter) {
	if err := l.Wait(ctx); err != nil {
		logger.Debug(ctx, "Pacer wait aborted", "error", err)
	}
}
