package agents

import (
	"context"
	"fmt"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/logger"
	"llm-daily-trader/internal/metrics"
	"llm-daily-trader/internal/parse"
)

// Finder proposes new names worth acquiring.
type Finder struct {
	*Agent
	limit int
}

var _ Conversant = (*Finder)(nil)

func NewFinder(oracle interfaces.Oracle, assetKind string, limit int) *Finder {
	if limit <= 0 {
		limit = 5
	}
	system := fmt.Sprintf("You scout the %s market for items likely to rise in value over the next weeks.", assetKind)
	return &Finder{Agent: newAgent("finder", system, oracle), limit: limit}
}

// Find asks for candidates, retrying once with a stricter format request
// when nothing could be extracted.
func (f *Finder) Find(ctx context.Context, news string) []string {
	prompt := fmt.Sprintf("Market context:\n%s\n\nList up to %d item names worth buying now. "+
		"Reply with a JSON object {\"names\": [\"...\"]}. Reply EMPTY if nothing is worth buying.", news, f.limit)

	names := parse.Names(f.Respond(ctx, prompt), f.limit)
	if len(names) > 0 {
		return names
	}

	metrics.ParseFallbacks.WithLabelValues("candidates").Inc()
	strict := fmt.Sprintf("Your last reply could not be read. Reply with ONLY a JSON array of at most %d exact item names, "+
		"for example [\"Name One\", \"Name Two\"], or [] if there are none.", f.limit)
	names = parse.Names(f.Respond(ctx, strict), f.limit)
	logger.Info(ctx, "Candidate search retried", "found", len(names))
	return names
}
