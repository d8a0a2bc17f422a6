package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Position is one held unit with its daily score and price history.
type Position struct {
	ID           int
	Name         string
	BoughtPrice  float64
	PurchaseDate time.Time
	ExtraInfo    map[string]any
	DailyScore   []int
	DailyPrice   []float64
}

type positionRecord struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	BoughtPrice  float64        `json:"bought_price"`
	PurchaseDate string         `json:"purchase_date"`
	ExtraInfo    map[string]any `json:"extra_info"`
	DailyScore   []int          `json:"daily_score"`
	DailyPrice   []float64      `json:"daily_price"`
}

func (p *Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(positionRecord{
		ID:           p.ID,
		Name:         p.Name,
		BoughtPrice:  p.BoughtPrice,
		PurchaseDate: p.PurchaseDate.Format(time.RFC3339),
		ExtraInfo:    p.ExtraInfo,
		DailyScore:   nonNil(p.DailyScore),
		DailyPrice:   nonNil(p.DailyPrice),
	})
}

func (p *Position) UnmarshalJSON(b []byte) error {
	var rec positionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	when, err := parseDate(rec.PurchaseDate)
	if err != nil {
		return fmt.Errorf("position %d: %w", rec.ID, err)
	}
	*p = Position{
		ID:           rec.ID,
		Name:         rec.Name,
		BoughtPrice:  rec.BoughtPrice,
		PurchaseDate: when,
		ExtraInfo:    rec.ExtraInfo,
		DailyScore:   rec.DailyScore,
		DailyPrice:   rec.DailyPrice,
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, s)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Tradable reports whether hold has elapsed since acquisition as of asOf.
func (p *Position) Tradable(asOf time.Time, hold time.Duration) bool {
	return !asOf.Before(p.PurchaseDate.Add(hold))
}

// DaysHeld counts whole calendar days since acquisition.
func (p *Position) DaysHeld(asOf time.Time) int {
	d := int(asOf.Sub(p.PurchaseDate).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// RecordDay appends one score and one price, keeping both histories aligned.
func (p *Position) RecordDay(score int, price float64) {
	p.DailyScore = append(p.DailyScore, score)
	p.DailyPrice = append(p.DailyPrice, price)
}

// LastPrice is the latest recorded price, or the acquisition price when
// nothing was recorded yet.
func (p *Position) LastPrice() float64 {
	if n := len(p.DailyPrice); n > 0 {
		return p.DailyPrice[n-1]
	}
	return p.BoughtPrice
}

// LastScore is the latest recorded score, or the initial score.
func (p *Position) LastScore() int {
	if n := len(p.DailyScore); n > 0 {
		return p.DailyScore[n-1]
	}
	switch v := p.ExtraInfo["initial_score"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 50
}

// ProfitPct is the percentage change from the acquisition price.
func (p *Position) ProfitPct(current float64) decimal.Decimal {
	bought := decimal.NewFromFloat(p.BoughtPrice)
	if bought.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(current).Sub(bought).Div(bought).Mul(decimal.NewFromInt(100)).Round(2)
}
