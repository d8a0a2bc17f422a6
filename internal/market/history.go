// Package market resolves names to listing ids and ids to daily prices.
package market

import (
	"errors"
	"sort"
	"time"
)

// ErrNotFound is returned when a name or id has no market data.
var ErrNotFound = errors.New("not found")

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// priceHistory is a day-indexed price series.
type priceHistory struct {
	days   []time.Time
	prices []float64
}

func newPriceHistory(points map[time.Time]float64) *priceHistory {
	byDay := make(map[time.Time]float64, len(points))
	for t, p := range points {
		byDay[dayOf(t)] = p
	}
	h := &priceHistory{}
	for d := range byDay {
		h.days = append(h.days, d)
	}
	sort.Slice(h.days, func(i, j int) bool { return h.days[i].Before(h.days[j]) })
	for _, d := range h.days {
		h.prices = append(h.prices, byDay[d])
	}
	return h
}

// at returns the price on date, else the nearest earlier day, else the
// nearest later day.
func (h *priceHistory) at(date time.Time) (float64, bool) {
	if len(h.days) == 0 {
		return 0, false
	}
	d := dayOf(date)
	i := sort.Search(len(h.days), func(i int) bool { return !h.days[i].Before(d) })
	switch {
	case i < len(h.days) && h.days[i].Equal(d):
		return h.prices[i], true
	case i > 0:
		return h.prices[i-1], true
	default:
		return h.prices[0], true
	}
}

// covers reports whether date falls within the loaded range.
func (h *priceHistory) covers(date time.Time) bool {
	if len(h.days) == 0 {
		return false
	}
	d := dayOf(date)
	return !d.Before(h.days[0]) && !d.After(h.days[len(h.days)-1])
}
