package agents

import (
	"context"
	"fmt"
	"strings"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/logger"
	"llm-daily-trader/internal/metrics"
	"llm-daily-trader/internal/parse"
	"llm-daily-trader/internal/types"
)

const (
	NeutralScore        = 50
	ReasonScoringFailed = "Scoring failed (batch & individual)"
)

// Scorer rates names 0..100 against the day's market context.
type Scorer struct {
	*Agent
	audit interfaces.AuditSink
}

var _ Conversant = (*Scorer)(nil)

func NewScorer(oracle interfaces.Oracle, audit interfaces.AuditSink, assetKind string) *Scorer {
	system := fmt.Sprintf("You are a market analyst for %s items. Given market news, rate how attractive each item is to hold, "+
		"from 0 (certain to fall) to 100 (certain to rise). Answer with JSON only.", assetKind)
	return &Scorer{Agent: newAgent("scorer", system, oracle), audit: audit}
}

// ScoreBatch scores several names in one request. Unparseable replies are
// sent to the audit sink and yield an empty map.
func (s *Scorer) ScoreBatch(ctx context.Context, names []string, news string) map[string]types.ScoreResult {
	if len(names) == 0 {
		return map[string]types.ScoreResult{}
	}
	prompt := fmt.Sprintf("Market context:\n%s\n\nScore each of these items:\n%s\n\n"+
		"Reply with a JSON object mapping every item name exactly as written to {\"score\": <0-100>, \"reason\": \"<short reason>\"}.",
		news, strings.Join(names, "\n"))

	reply := s.Respond(ctx, prompt)
	scores, ok := parse.ScoreMap(reply)
	if !ok {
		metrics.ParseFallbacks.WithLabelValues("batch_score").Inc()
		logger.Warn(ctx, "Batch score reply unparseable", "names", len(names))
		s.audit.Record(ctx, "batch_score", reply)
		return map[string]types.ScoreResult{}
	}
	return scores
}

// ScoreOne scores a single name. ok is false when the reply had no usable
// score; the result then carries the neutral default.
func (s *Scorer) ScoreOne(ctx context.Context, name, news string) (types.ScoreResult, bool) {
	prompt := fmt.Sprintf("Market context:\n%s\n\nScore this item: %s\n\n"+
		"Reply with JSON only: {\"score\": <0-100>, \"reason\": \"<short reason>\"}.", news, name)

	reply := s.Respond(ctx, prompt)
	obj, ok := parse.Object(reply)
	if ok {
		if score, found := parse.Score(obj["score"]); found {
			return types.ScoreResult{Score: score, Reason: parse.String(obj, "reason")}, true
		}
	}
	metrics.ParseFallbacks.WithLabelValues("score").Inc()
	logger.Warn(ctx, "Score reply unparseable", "name", name)
	s.audit.Record(ctx, "score", reply)
	return types.ScoreResult{Score: NeutralScore, Reason: parse.ReasonUnparsed}, false
}
