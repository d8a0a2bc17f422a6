package engine

import (
	"context"
	"hash/fnv"
	"time"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/ledger"
	"llm-daily-trader/internal/logger"
	"llm-daily-trader/internal/metrics"
	"llm-daily-trader/internal/tradelog"
	"llm-daily-trader/internal/types"
)

// syntheticIDSpace bounds ids derived from names when no listing is found.
const syntheticIDSpace = 100000

// executor applies ledger changes and records them.
type executor struct {
	ledger  *ledger.Ledger
	journal *tradelog.Journal
}

func newExecutor(l *ledger.Ledger, j *tradelog.Journal) *executor {
	return &executor{ledger: l, journal: j}
}

// syntheticID derives a stable id from a name.
func syntheticID(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32() % syntheticIDSpace)
}

// syntheticPrice maps score 50 to 100 and moves one unit per score point.
func syntheticPrice(score int) float64 {
	return 100 * (1 + float64(score-50)/100)
}

// currentPrice looks up today's price, falling back to the last known one.
func (e *executor) currentPrice(ctx context.Context, res interfaces.Resolver, p *ledger.Position, date time.Time) float64 {
	price, err := res.HistoricalPrice(ctx, p.ID, date)
	if err == nil && price > 0 {
		return price
	}
	fallback := p.LastPrice()
	metrics.LookupFallbacks.WithLabelValues("price").Inc()
	logger.Warn(ctx, "Price lookup failed, using last known price",
		"name", p.Name,
		"id", p.ID,
		"fallback", fallback,
		"error", err,
	)
	return fallback
}

// resolveListing finds an id and price for a new name. A failed lookup
// never blocks the acquisition; synthetic values are used instead.
func (e *executor) resolveListing(ctx context.Context, res interfaces.Resolver, name string, score int, date time.Time) (int, float64) {
	ids, err := res.ResolveIDs(ctx, name)
	if err != nil || len(ids) == 0 {
		metrics.LookupFallbacks.WithLabelValues("id").Inc()
		logger.Warn(ctx, "Listing lookup failed, using synthetic id and price", "name", name, "error", err)
		return syntheticID(name), syntheticPrice(score)
	}

	id := ids[0]
	price, err := res.HistoricalPrice(ctx, id, date)
	if err != nil || price <= 0 {
		metrics.LookupFallbacks.WithLabelValues("price").Inc()
		logger.Warn(ctx, "Listing price unavailable, using synthetic price", "name", name, "id", id, "error", err)
		return id, syntheticPrice(score)
	}
	return id, price
}

func (e *executor) acquire(ctx context.Context, r *run, id int, name string, price float64, score types.ScoreResult) {
	e.ledger.Acquire(id, name, price, r.date, map[string]any{
		"initial_score": score.Score,
		"rarity":        "Unknown",
	})
	metrics.Acquisitions.Inc()
	r.result.Bought = append(r.result.Bought, name)

	logger.Trade(ctx, name, "BUY", id, price, "score", score.Score, "run_id", r.result.RunID)
	if err := e.journal.Append(r.date, tradelog.Entry{
		RunID:  r.result.RunID,
		Name:   name,
		Side:   "BUY",
		ID:     id,
		Price:  price,
		Score:  score.Score,
		Reason: score.Reason,
	}); err != nil {
		logger.ErrorWithErr(ctx, "Failed to journal acquisition", err, "name", name)
	}
}

func (e *executor) dispose(ctx context.Context, r *run, p *ledger.Position, price float64, reason string) {
	if !e.ledger.Dispose(p) {
		return
	}
	metrics.Disposals.Inc()
	r.result.Sold = append(r.result.Sold, p.Name)

	logger.Trade(ctx, p.Name, "SELL", p.ID, price, "profit_pct", p.ProfitPct(price).String(), "run_id", r.result.RunID)
	if err := e.journal.Append(r.date, tradelog.Entry{
		RunID:       r.result.RunID,
		Name:        p.Name,
		Side:        "SELL",
		ID:          p.ID,
		Price:       price,
		BoughtPrice: p.BoughtPrice,
		Score:       p.LastScore(),
		Reason:      reason,
	}); err != nil {
		logger.ErrorWithErr(ctx, "Failed to journal disposal", err, "name", p.Name)
	}
}

func (e *executor) logDecision(ctx context.Context, r *run, p *ledger.Position, d types.Decision, price float64, score int) {
	logger.Decision(ctx, p.Name, string(d.Action), d.Reason, "id", p.ID, "price", price, "score", score)
	if err := e.journal.AppendDecision(r.date, tradelog.DecisionEntry{
		RunID:    r.result.RunID,
		Name:     p.Name,
		Action:   string(d.Action),
		Reason:   d.Reason,
		ID:       p.ID,
		Price:    price,
		Score:    score,
		DaysHeld: p.DaysHeld(r.date),
	}); err != nil {
		logger.ErrorWithErr(ctx, "Failed to journal decision", err, "name", p.Name)
	}
}
