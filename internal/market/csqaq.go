package market

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/logger"
)

const maxSuggestions = 3

// CSQAQ talks to the csqaq.com item database.
type CSQAQ struct {
	client  *resty.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker

	mu      sync.Mutex
	history map[int]*priceHistory
}

var _ interfaces.Resolver = (*CSQAQ)(nil)

type CSQAQParams struct {
	BaseURL         string
	Token           string
	RatePerSecond   float64
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	Timeout         time.Duration
}

func NewCSQAQ(p CSQAQParams) *CSQAQ {
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if p.RatePerSecond > 0 {
		limit = rate.Limit(p.RatePerSecond)
	}
	failures := p.BreakerFailures
	return &CSQAQ{
		client: resty.New().
			SetBaseURL(p.BaseURL).
			SetTimeout(p.Timeout).
			SetHeader("ApiToken", p.Token).
			SetHeader("Accept", "application/json"),
		limiter: rate.NewLimiter(limit, 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "csqaq",
			Timeout: p.BreakerTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return failures > 0 && c.ConsecutiveFailures >= failures
			},
		}),
		history: make(map[int]*priceHistory),
	}
}

type apiEnvelope[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

func (e *apiEnvelope[T]) status() (int, string) { return e.Code, e.Msg }

// envelope is any decoded reply carrying the API's own status code.
type envelope interface {
	status() (int, string)
}

type suggestion struct {
	ID    flexInt `json:"id"`
	Value string  `json:"value"`
}

type chartData struct {
	Timestamp []int64   `json:"timestamp"`
	MainData  []float64 `json:"main_data"`
}

// flexInt accepts ids sent as numbers or numeric strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// ResolveIDs returns up to three listing ids suggested for name.
func (c *CSQAQ) ResolveIDs(ctx context.Context, name string) ([]int, error) {
	var out apiEnvelope[[]suggestion]
	if err := c.call(ctx, &out, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetQueryParam("text", name).
			SetResult(&out).
			Get("/search/suggest")
	}); err != nil {
		return nil, err
	}

	ids := make([]int, 0, maxSuggestions)
	for _, s := range out.Data {
		if len(ids) == maxSuggestions {
			break
		}
		ids = append(ids, int(s.ID))
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return ids, nil
}

// HistoricalPrice returns the price for id on date, using the nearest
// earlier (then later) day when the exact day is missing. Each id's chart is
// cached after the first non-empty fetch.
func (c *CSQAQ) HistoricalPrice(ctx context.Context, id int, date time.Time) (float64, error) {
	c.mu.Lock()
	h, ok := c.history[id]
	c.mu.Unlock()

	if !ok {
		var err error
		if h, err = c.fetchChart(ctx, id); err != nil {
			return 0, err
		}
		c.mu.Lock()
		c.history[id] = h
		c.mu.Unlock()
	}

	price, found := h.at(date)
	if !found {
		return 0, fmt.Errorf("%w: price history for %d", ErrNotFound, id)
	}
	return price, nil
}

func (c *CSQAQ) fetchChart(ctx context.Context, id int) (*priceHistory, error) {
	var out apiEnvelope[chartData]
	body := map[string]any{
		"good_id":  strconv.Itoa(id),
		"key":      "sell_price",
		"platform": 1,
		"period":   "1095",
		"style":    "all_style",
	}
	if err := c.call(ctx, &out, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&out).
			Post("/info/chart")
	}); err != nil {
		return nil, err
	}

	points := make(map[time.Time]float64, len(out.Data.Timestamp))
	for i, ts := range out.Data.Timestamp {
		if i >= len(out.Data.MainData) {
			break
		}
		points[time.UnixMilli(ts).UTC()] = out.Data.MainData[i]
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: empty price chart for %d", ErrNotFound, id)
	}
	logger.Debug(ctx, "Price chart loaded", "id", id, "points", len(points))
	return newPriceHistory(points), nil
}

// call paces the request and runs it through the circuit breaker. A reply
// whose envelope code is not 200 counts as a failure even over HTTP 200.
func (c *CSQAQ) call(ctx context.Context, out envelope, do func() (*resty.Response, error)) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := do()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("csqaq http %d: %s", resp.StatusCode(), resp.String())
		}
		if code, msg := out.status(); code != http.StatusOK {
			return nil, fmt.Errorf("csqaq api code %d: %s", code, msg)
		}
		return resp, nil
	})
	return err
}
