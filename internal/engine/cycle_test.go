package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-daily-trader/internal/agents"
	"llm-daily-trader/internal/audit"
	"llm-daily-trader/internal/ledger"
	"llm-daily-trader/internal/logger"
	"llm-daily-trader/internal/tradelog"
	"llm-daily-trader/internal/types"
)

const longNews = "Major tournament capsules rallied this week while older holo stickers drifted lower on thin volume."

var today = time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

// scriptOracle answers each agent role from canned replies.
type scriptOracle struct {
	batch     string
	single    map[string]string
	decisions map[string]string
	finder    string

	batchPrompts []string
	scoredOne    []string
	decided      []string
	finderCalls  int
}

func between(p, marker string) string {
	i := strings.Index(p, marker)
	if i < 0 {
		return ""
	}
	rest := p[i+len(marker):]
	if j := strings.Index(rest, "\n"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func (o *scriptOracle) Converse(ctx context.Context, turns []types.Turn) string {
	p := turns[len(turns)-1].Content
	switch {
	case strings.Contains(p, "Score each of these items:"):
		o.batchPrompts = append(o.batchPrompts, p)
		return o.batch
	case strings.Contains(p, "Score this item: "):
		name := between(p, "Score this item: ")
		o.scoredOne = append(o.scoredOne, name)
		if r, ok := o.single[name]; ok {
			return r
		}
		return `{"score": 50, "reason": "no view"}`
	case strings.Contains(p, "--- Position ---"):
		name := between(p, "Name: ")
		o.decided = append(o.decided, name)
		if r, ok := o.decisions[name]; ok {
			return r
		}
		return `{"decision": "HOLD", "reason": "steady"}`
	case strings.Contains(p, "item names"):
		o.finderCalls++
		return o.finder
	default:
		return "analyst notes"
	}
}

type staticNews struct {
	text string
	err  error
}

func (n staticNews) Fetch(context.Context, time.Time) (string, error) { return n.text, n.err }

type fakeResolver struct {
	ids    map[string][]int
	prices map[int]float64
}

func (f fakeResolver) ResolveIDs(_ context.Context, name string) ([]int, error) {
	if ids, ok := f.ids[name]; ok {
		return ids, nil
	}
	return nil, errors.New("lookup service down")
}

func (f fakeResolver) HistoricalPrice(_ context.Context, id int, _ time.Time) (float64, error) {
	if p, ok := f.prices[id]; ok {
		return p, nil
	}
	return 0, errors.New("no price")
}

type harness struct {
	oracle   *scriptOracle
	ledger   *ledger.Ledger
	cycle    *Cycle
	savePath string
	journal  *tradelog.Journal
}

func newHarness(t *testing.T, o *scriptOracle, l *ledger.Ledger, news string, res fakeResolver, tweak func(*Params)) *harness {
	t.Helper()
	dir := t.TempDir()
	p := Params{
		TargetQuantity: 5,
		MaxBuyPerDay:   2,
		SavePath:       filepath.Join(dir, "inventory.json"),
		MinContextLen:  50,
	}
	if tweak != nil {
		tweak(&p)
	}
	j := tradelog.New(filepath.Join(dir, "logs"))
	c := New(p, Deps{
		Ledger:   l,
		News:     staticNews{text: news},
		Resolver: res,
		Scorer:   agents.NewScorer(o, audit.Discard, "CS2 sticker"),
		Trader:   agents.NewTrader(o, audit.Discard, "CS2 sticker"),
		Finder:   agents.NewFinder(o, "CS2 sticker", 5),
		Analyst:  agents.NewAnalyst(o, "CS2 sticker"),
		Journal:  j,
	})
	return &harness{oracle: o, ledger: l, cycle: c, savePath: p.SavePath, journal: j}
}

func persistedIDs(t *testing.T, path string) []int {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var recs []struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(b, &recs))
	ids := make([]int, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	return ids
}

func fullLedger(n int) *ledger.Ledger {
	l := ledger.New(ledger.DefaultHoldPeriod)
	for i := 1; i <= n; i++ {
		l.Acquire(i, "Item"+string(rune('A'+i-1)), 100, today.AddDate(0, 0, -10), nil)
	}
	return l
}

func TestHoldKeepsPosition(t *testing.T) {
	l := ledger.New(ledger.DefaultHoldPeriod)
	p := l.Acquire(1, "Alpha", 100, today.AddDate(0, 0, -8), nil)
	o := &scriptOracle{batch: `{"Alpha": {"score": 70, "reason": "ok"}}`, finder: "EMPTY"}
	h := newHarness(t, o, l, longNews, fakeResolver{prices: map[int]float64{1: 104}}, nil)

	report, err := h.cycle.Run(context.Background(), today)
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha"}, o.decided)
	assert.Empty(t, report.Sold)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, []int{70}, p.DailyScore)
	assert.Equal(t, []float64{104}, p.DailyPrice)
	assert.Equal(t, []int{1}, persistedIDs(t, h.savePath))
}

func TestSellRemovesPositionFromSnapshot(t *testing.T) {
	l := ledger.New(ledger.DefaultHoldPeriod)
	l.Acquire(1, "Alpha", 100, today.AddDate(0, 0, -8), nil)
	l.Acquire(2, "Beta", 100, today.AddDate(0, 0, -8), nil)
	o := &scriptOracle{
		batch:     `{"Alpha": {"score": 20, "reason": "fading"}, "Beta": {"score": 60, "reason": "ok"}}`,
		decisions: map[string]string{"Alpha": `{"decision": "SELL", "reason": "fading"}`},
		finder:    "EMPTY",
	}
	h := newHarness(t, o, l, longNews, fakeResolver{prices: map[int]float64{1: 90, 2: 110}}, func(p *Params) { p.TargetQuantity = 2 })

	report, err := h.cycle.Run(context.Background(), today)
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha", "Beta"}, o.decided)
	assert.Equal(t, []string{"Alpha"}, report.Sold)
	assert.Equal(t, []int{2}, persistedIDs(t, h.savePath))
	assert.Equal(t, 1, report.Holdings)
}

func TestHoldPeriodBlocksEarlySale(t *testing.T) {
	l := ledger.New(ledger.DefaultHoldPeriod)
	l.Acquire(1, "Alpha", 100, today.AddDate(0, 0, -6), nil)
	l.Acquire(2, "Beta", 100, today.AddDate(0, 0, -7), nil)
	o := &scriptOracle{
		batch:     `{"Alpha": {"score": 10}, "Beta": {"score": 10}}`,
		decisions: map[string]string{"Alpha": `{"decision": "SELL"}`, "Beta": `{"decision": "SELL"}`},
		finder:    "EMPTY",
	}
	h := newHarness(t, o, l, longNews, fakeResolver{}, func(p *Params) { p.TargetQuantity = 2 })

	_, err := h.cycle.Run(context.Background(), today)
	require.NoError(t, err)

	assert.Equal(t, []string{"Beta"}, o.decided)
	assert.Equal(t, []int{1}, persistedIDs(t, h.savePath))
}

func TestFullLedgerBuysNothing(t *testing.T) {
	o := &scriptOracle{batch: `{}`, finder: `["Fresh"]`}
	l := fullLedger(5)
	h := newHarness(t, o, l, longNews, fakeResolver{}, nil)

	report, err := h.cycle.Run(context.Background(), today)
	require.NoError(t, err)

	assert.Empty(t, report.Bought)
	assert.Zero(t, o.finderCalls)
	assert.Equal(t, 5, l.Len())
}

func TestAcquisitionCapAndRanking(t *testing.T) {
	o := &scriptOracle{
		batch:  `{}`,
		finder: `{"names": ["Low", "HighA", "HighB", "Mid"]}`,
		single: map[string]string{
			"Low":   `{"score": 40}`,
			"HighA": `{"score": 90}`,
			"HighB": `{"score": 90}`,
			"Mid":   `{"score": 60}`,
		},
	}
	l := ledger.New(ledger.DefaultHoldPeriod)
	res := fakeResolver{ids: map[string][]int{"HighA": {501, 502}}, prices: map[int]float64{501: 33.5}}
	h := newHarness(t, o, l, longNews, res, nil)

	report, err := h.cycle.Run(context.Background(), today)
	require.NoError(t, err)

	assert.Equal(t, []string{"HighA", "HighB"}, report.Bought)
	require.Equal(t, 2, l.Len())

	a := l.Positions()[0]
	assert.Equal(t, 501, a.ID)
	assert.Equal(t, 33.5, a.BoughtPrice)
	assert.True(t, a.PurchaseDate.Equal(today))
	assert.Equal(t, 90, a.ExtraInfo["initial_score"])
	assert.Equal(t, "Unknown", a.ExtraInfo["rarity"])

	b := l.Positions()[1]
	assert.Equal(t, syntheticID("HighB"), b.ID)
	assert.Equal(t, syntheticPrice(90), b.BoughtPrice)
	assert.Equal(t, 140.0, b.BoughtPrice)
}

func TestBuysNeverExceedTarget(t *testing.T) {
	o := &scriptOracle{batch: `{}`, finder: `["N1", "N2", "N3"]`}
	h := newHarness(t, o, fullLedger(4), longNews, fakeResolver{}, func(p *Params) { p.MaxBuyPerDay = 3 })

	report, err := h.cycle.Run(context.Background(), today)
	require.NoError(t, err)
	assert.Len(t, report.Bought, 1)
	assert.Equal(t, 5, h.ledger.Len())
}

func TestOwnedCandidatesExcluded(t *testing.T) {
	l := ledger.New(ledger.DefaultHoldPeriod)
	l.Acquire(1, "Alpha", 100, today, nil)
	o := &scriptOracle{batch: `{"Alpha": {"score": 50}}`, finder: `["Alpha", "Beta"]`}
	h := newHarness(t, o, l, longNews, fakeResolver{}, nil)

	report, err := h.cycle.Run(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta"}, report.Bought)
	assert.Equal(t, []string{"Beta"}, o.scoredOne)
}

func TestIndividualScoringOnlyForBatchMisses(t *testing.T) {
	l := ledger.New(ledger.DefaultHoldPeriod)
	alpha := l.Acquire(1, "Alpha", 100, today, nil)
	beta1 := l.Acquire(2, "Beta", 100, today, nil)
	beta2 := l.Acquire(3, "Beta", 100, today, nil)
	o := &scriptOracle{
		batch:  `{"Alpha": {"score": 80, "reason": "hot"}}`,
		single: map[string]string{"Beta": "no idea, sorry"},
		finder: "EMPTY",
	}
	h := newHarness(t, o, l, longNews, fakeResolver{}, func(p *Params) { p.TargetQuantity = 3 })

	_, err := h.cycle.Run(context.Background(), today)
	require.NoError(t, err)

	assert.Equal(t, []string{"Beta"}, o.scoredOne)
	assert.Equal(t, []int{80}, alpha.DailyScore)
	assert.Equal(t, []int{agents.NeutralScore}, beta1.DailyScore)
	assert.Equal(t, []int{agents.NeutralScore}, beta2.DailyScore)
	for _, p := range l.Positions() {
		assert.Equal(t, len(p.DailyScore), len(p.DailyPrice))
	}
}

func TestScoreLogMarksBatchSource(t *testing.T) {
	var buf bytes.Buffer
	logger.SetHandler(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { logger.SetHandler(slog.NewTextHandler(os.Stdout, nil)) })

	l := ledger.New(ledger.DefaultHoldPeriod)
	l.Acquire(1, "Alpha", 100, today, nil)
	l.Acquire(2, "Beta", 100, today, nil)
	l.Acquire(3, "Beta", 100, today, nil)
	o := &scriptOracle{
		batch:  `{"Alpha": {"score": 80, "reason": "hot"}}`,
		single: map[string]string{"Beta": `{"score": 40, "reason": "cooling"}`},
		finder: "EMPTY",
	}
	h := newHarness(t, o, l, longNews, fakeResolver{}, func(p *Params) { p.TargetQuantity = 3 })

	_, err := h.cycle.Run(context.Background(), today)
	require.NoError(t, err)

	var fromBatch []bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec struct {
			Msg   string `json:"msg"`
			Batch bool   `json:"batch"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec.Msg == "Position scored" {
			fromBatch = append(fromBatch, rec.Batch)
		}
	}
	assert.Equal(t, []bool{true, false, false}, fromBatch)
	assert.Equal(t, []string{"Beta"}, o.scoredOne)
}

func TestPriceFallbackUsesLastKnown(t *testing.T) {
	l := ledger.New(ledger.DefaultHoldPeriod)
	fresh := l.Acquire(1, "Alpha", 80, today, nil)
	seasoned := l.Acquire(2, "Beta", 80, today, nil)
	seasoned.RecordDay(55, 91)
	o := &scriptOracle{batch: `{"Alpha": {"score": 50}, "Beta": {"score": 50}}`, finder: "EMPTY"}
	h := newHarness(t, o, l, longNews, fakeResolver{}, func(p *Params) { p.TargetQuantity = 2 })

	_, err := h.cycle.Run(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, []float64{80}, fresh.DailyPrice)
	assert.Equal(t, []float64{91, 91}, seasoned.DailyPrice)
}

func TestShortNewsReplacedByGenericContext(t *testing.T) {
	l := ledger.New(ledger.DefaultHoldPeriod)
	l.Acquire(1, "Alpha", 100, today, nil)
	o := &scriptOracle{batch: `{"Alpha": {"score": 50}}`, finder: "EMPTY"}
	h := newHarness(t, o, l, "quiet day", fakeResolver{}, nil)

	_, err := h.cycle.Run(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, o.batchPrompts, 1)
	assert.Contains(t, o.batchPrompts[0], "Market sentiment is mixed")
	assert.NotContains(t, o.batchPrompts[0], "quiet day")
}

func TestEmptyLedgerSkipsBatch(t *testing.T) {
	o := &scriptOracle{finder: "EMPTY"}
	h := newHarness(t, o, ledger.New(ledger.DefaultHoldPeriod), longNews, fakeResolver{}, nil)

	report, err := h.cycle.Run(context.Background(), today)
	require.NoError(t, err)
	assert.Empty(t, o.batchPrompts)
	assert.Equal(t, 2, o.finderCalls)
	assert.Empty(t, report.Bought)
	assert.Empty(t, persistedIDs(t, h.savePath))
}

func TestPersistFailureIsReported(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	o := &scriptOracle{finder: "EMPTY"}
	h := newHarness(t, o, ledger.New(ledger.DefaultHoldPeriod), longNews, fakeResolver{}, func(p *Params) {
		p.SavePath = filepath.Join(blocker, "inventory.json")
	})

	_, err := h.cycle.Run(context.Background(), today)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PERSIST")
}

func TestTradesAreJournaled(t *testing.T) {
	o := &scriptOracle{batch: `{}`, finder: `["Alpha"]`, single: map[string]string{"Alpha": `{"score": 70}`}}
	h := newHarness(t, o, ledger.New(ledger.DefaultHoldPeriod), longNews, fakeResolver{}, nil)

	report, err := h.cycle.Run(context.Background(), today)
	require.NoError(t, err)

	b, err := os.ReadFile(h.journal.TradesPath(today))
	require.NoError(t, err)
	var e tradelog.Entry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(b))), &e))
	assert.Equal(t, "Alpha", e.Name)
	assert.Equal(t, "BUY", e.Side)
	assert.Equal(t, 120.0, e.Price)
	assert.Equal(t, report.RunID, e.RunID)
}

func TestStateSequence(t *testing.T) {
	var seen []string
	for st := FetchContext; st != Done; st = st.Next() {
		seen = append(seen, st.String())
	}
	assert.Equal(t, []string{"FETCH_CONTEXT", "SCORE_HOLDINGS", "EVALUATE_SELLS", "EVALUATE_BUYS", "PERSIST"}, seen)
	assert.Equal(t, Done, Done.Next())
}

func TestSyntheticID(t *testing.T) {
	assert.Equal(t, syntheticID("Alpha"), syntheticID("Alpha"))
	assert.Less(t, syntheticID("Alpha"), syntheticIDSpace)
	assert.Equal(t, 100.0, syntheticPrice(50))
	assert.Equal(t, 80.0, syntheticPrice(30))
}
