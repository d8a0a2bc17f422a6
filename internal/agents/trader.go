package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/ledger"
	"llm-daily-trader/internal/metrics"
	"llm-daily-trader/internal/parse"
	"llm-daily-trader/internal/types"
)

const ReasonUndecided = "could not parse decision"

// Trader decides whether a tradable position is held or sold.
type Trader struct {
	*Agent
	audit interfaces.AuditSink
}

var _ Conversant = (*Trader)(nil)

func NewTrader(oracle interfaces.Oracle, audit interfaces.AuditSink, assetKind string) *Trader {
	system := fmt.Sprintf("You are a disciplined trader of %s items. For each position you are shown, decide whether to "+
		"HOLD or SELL it today. Answer with JSON only.", assetKind)
	return &Trader{Agent: newAgent("trader", system, oracle), audit: audit}
}

// Decide returns SELL only when the reply explicitly says so; anything else,
// including an unparseable reply, is HOLD.
func (t *Trader) Decide(ctx context.Context, p *ledger.Position, current float64, news string, score int, asOf time.Time) types.Decision {
	prompt := fmt.Sprintf("%s\n\n--- Position ---\nName: %s\nBought at: %.2f\nCurrent price: %.2f\nProfit: %s%%\n"+
		"Days held: %d\nToday's score: %d/100\n\n"+
		"Reply with JSON only: {\"decision\": \"HOLD\" or \"SELL\", \"reason\": \"<short reason>\"}.",
		news, p.Name, p.BoughtPrice, current, p.ProfitPct(current).String(), p.DaysHeld(asOf), score)

	reply := t.Respond(ctx, prompt)
	obj, ok := parse.Object(reply)
	if !ok {
		metrics.ParseFallbacks.WithLabelValues("decision").Inc()
		t.audit.Record(ctx, "decision", reply)
		return types.Decision{Action: types.ActionHold, Reason: ReasonUndecided, Raw: reply}
	}

	d := types.Decision{Action: types.ActionHold, Reason: parse.String(obj, "reason")}
	if strings.EqualFold(strings.TrimSpace(parse.String(obj, "decision")), string(types.ActionSell)) {
		d.Action = types.ActionSell
	}
	return d
}
