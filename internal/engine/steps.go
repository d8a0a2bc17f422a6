package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"llm-daily-trader/internal/agents"
	"llm-daily-trader/internal/logger"
	"llm-daily-trader/internal/types"
)

const genericContext = "Market update (%s): Market sentiment is mixed. Some older tournament items are seeing " +
	"increased volume. Rumors of a new case release are circulating."

func (c *Cycle) fetchContext(ctx context.Context, r *run) {
	text, err := c.d.News.Fetch(ctx, r.date)
	if err != nil {
		logger.ErrorWithErr(ctx, "News fetch failed, using generic context", err, "date", r.day)
		text = ""
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < c.p.MinContextLen {
		logger.Warn(ctx, "News context too short, using generic context", "date", r.day, "length", len(text))
		text = fmt.Sprintf(genericContext, r.day)
	}
	r.news = text
	r.report = c.d.Analyst.MarketReport(ctx, text, r.day)
	logger.Info(ctx, "Cycle context ready", "date", r.day, "news_chars", utf8.RuneCountInString(text))
}

// scoreHoldings appends one score and one price to every position. Names the
// batch missed are scored individually once; if that fails too the neutral
// score is used.
func (c *Cycle) scoreHoldings(ctx context.Context, r *run) {
	names := c.d.Ledger.Names()
	batch := c.d.Scorer.ScoreBatch(ctx, names, r.news)
	individual := map[string]types.ScoreResult{}

	for _, p := range c.d.Ledger.Positions() {
		res, fromBatch := batch[p.Name]
		if !fromBatch {
			var cached bool
			if res, cached = individual[p.Name]; !cached {
				wait(ctx, c.scorePacer)
				var scored bool
				res, scored = c.d.Scorer.ScoreOne(ctx, p.Name, r.news)
				if !scored {
					res = types.ScoreResult{Score: agents.NeutralScore, Reason: agents.ReasonScoringFailed}
				}
				individual[p.Name] = res
			}
		}

		price := c.exec.currentPrice(ctx, c.d.Resolver, p, r.date)
		p.RecordDay(res.Score, price)
		r.result.Scores[p.Name] = res.Score
		logger.Info(ctx, "Position scored",
			"name", p.Name,
			"id", p.ID,
			"score", res.Score,
			"price", price,
			"reason", res.Reason,
			"batch", fromBatch,
		)
	}
}

// evaluateSells asks for a verdict on each position past its hold period.
// The tradable set is snapshotted before any disposal.
func (c *Cycle) evaluateSells(ctx context.Context, r *run) {
	tradable := c.d.Ledger.Tradable(r.date)
	logger.Info(ctx, "Evaluating sells", "tradable", len(tradable), "held", c.d.Ledger.Len())

	for _, p := range tradable {
		if len(p.DailyPrice) == 0 {
			logger.Warn(ctx, "Skipping position without price history", "name", p.Name, "id", p.ID)
			continue
		}
		current := p.LastPrice()
		score := p.LastScore()

		analysis := c.d.Analyst.PriceAnalysis(ctx, p.Name, p.BoughtPrice, p.DailyPrice)
		decisionCtx := fmt.Sprintf("%s\n\n--- Financial Analyst Report ---\n%s\n--- Item Price Analysis ---\n%s",
			r.news, r.report, analysis)

		wait(ctx, c.decisionPacer)
		d := c.d.Trader.Decide(ctx, p, current, decisionCtx, score, r.date)
		c.exec.logDecision(ctx, r, p, d, current, score)

		if d.Action == types.ActionSell {
			c.exec.dispose(ctx, r, p, current, d.Reason)
		}
	}
}

type candidate struct {
	name  string
	score types.ScoreResult
}

// evaluateBuys fills toward the target size, at most MaxBuyPerDay per cycle.
func (c *Cycle) evaluateBuys(ctx context.Context, r *run) {
	needed := c.p.TargetQuantity - c.d.Ledger.Len()
	toAcquire := min(needed, c.p.MaxBuyPerDay)
	if toAcquire <= 0 {
		logger.Info(ctx, "No acquisitions needed", "held", c.d.Ledger.Len(), "target", c.p.TargetQuantity)
		return
	}

	held := map[string]struct{}{}
	for _, n := range c.d.Ledger.Names() {
		held[n] = struct{}{}
	}

	var candidates []candidate
	for _, name := range c.d.Finder.Find(ctx, r.news) {
		if _, owned := held[name]; owned {
			continue
		}
		wait(ctx, c.scorePacer)
		res, _ := c.d.Scorer.ScoreOne(ctx, name, r.news)
		candidates = append(candidates, candidate{name: name, score: res})
	}
	logger.Info(ctx, "Candidates scored", "count", len(candidates), "to_acquire", toAcquire)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score.Score > candidates[j].score.Score
	})
	if len(candidates) > toAcquire {
		candidates = candidates[:toAcquire]
	}

	for _, cand := range candidates {
		id, price := c.exec.resolveListing(ctx, c.d.Resolver, cand.name, cand.score.Score, r.date)
		c.exec.acquire(ctx, r, id, cand.name, price, cand.score)
	}
}
