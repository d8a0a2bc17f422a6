package market

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/logger"
)

// Kite resolves exchange instruments through the Zerodha Kite Connect API.
type Kite struct {
	kc       *kiteconnect.Client
	exchange string

	mu          sync.Mutex
	instruments kiteconnect.Instruments
	history     map[int]*priceHistory
}

var _ interfaces.Resolver = (*Kite)(nil)

func NewKite(apiKey, accessToken, exchange string) *Kite {
	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	return &Kite{kc: kc, exchange: exchange, history: make(map[int]*priceHistory)}
}

// ResolveIDs matches the trading symbol first, then the instrument name.
func (k *Kite) ResolveIDs(ctx context.Context, name string) ([]int, error) {
	instruments, err := k.loadInstruments(ctx)
	if err != nil {
		return nil, err
	}
	ids := matchInstruments(instruments, name)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return ids, nil
}

func matchInstruments(instruments kiteconnect.Instruments, name string) []int {
	query := strings.ToUpper(strings.TrimSpace(name))
	var ids []int
	for _, in := range instruments {
		if strings.ToUpper(in.Tradingsymbol) == query {
			ids = append(ids, in.InstrumentToken)
		}
	}
	for _, in := range instruments {
		if len(ids) >= maxSuggestions {
			break
		}
		if strings.ToUpper(in.Tradingsymbol) != query && strings.Contains(strings.ToUpper(in.Name), query) {
			ids = append(ids, in.InstrumentToken)
		}
	}
	if len(ids) > maxSuggestions {
		ids = ids[:maxSuggestions]
	}
	return ids
}

func (k *Kite) loadInstruments(ctx context.Context) (kiteconnect.Instruments, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.instruments != nil {
		return k.instruments, nil
	}
	instruments, err := k.kc.GetInstrumentsByExchange(k.exchange)
	if err != nil {
		return nil, fmt.Errorf("load %s instruments: %w", k.exchange, err)
	}
	k.instruments = instruments
	logger.Info(ctx, "Kite instruments loaded", "exchange", k.exchange, "count", len(instruments))
	return instruments, nil
}

// HistoricalPrice returns the daily close for token around date.
func (k *Kite) HistoricalPrice(ctx context.Context, token int, date time.Time) (float64, error) {
	k.mu.Lock()
	h, ok := k.history[token]
	k.mu.Unlock()
	if ok && h.covers(date) {
		if p, found := h.at(date); found {
			return p, nil
		}
	}

	candles, err := k.kc.GetHistoricalData(token, "day", date.AddDate(0, 0, -30), date.AddDate(0, 0, 1), false, false)
	if err != nil {
		return 0, fmt.Errorf("historical data for %d: %w", token, err)
	}
	points := make(map[time.Time]float64, len(candles))
	for _, c := range candles {
		points[c.Date.Time] = c.Close
	}
	h = newPriceHistory(points)

	k.mu.Lock()
	k.history[token] = h
	k.mu.Unlock()

	p, found := h.at(date)
	if !found {
		return 0, fmt.Errorf("%w: candles for %d", ErrNotFound, token)
	}
	return p, nil
}
