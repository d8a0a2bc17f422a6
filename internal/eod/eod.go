// Package eod writes the per-day CSV summary of ledger trades.
package eod

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/tradelog"
)

type aggRow struct {
	Name        string
	Bought      int
	BuyValue    decimal.Decimal
	Sold        int
	SellValue   decimal.Decimal
	RealizedPnL decimal.Decimal
}

// Summarizer aggregates one journal day into <dir>/eod/<date>.csv.
type Summarizer struct {
	journal *tradelog.Journal
}

var _ interfaces.EodSummarizer = (*Summarizer)(nil)

func NewSummarizer(journal *tradelog.Journal) *Summarizer {
	return &Summarizer{journal: journal}
}

func (s *Summarizer) csvPath(t time.Time) string {
	return filepath.Join(s.journal.Dir(), "eod", t.Format("2006-01-02")+".csv")
}

// SummarizeDay returns "" without error when the day has no trades.
func (s *Summarizer) SummarizeDay(t time.Time) (string, error) {
	f, err := os.Open(s.journal.TradesPath(t))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e tradelog.Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		row := aggs[e.Name]
		if row == nil {
			row = &aggRow{Name: e.Name}
			aggs[e.Name] = row
		}
		price := decimal.NewFromFloat(e.Price)
		switch e.Side {
		case "BUY":
			row.Bought++
			row.BuyValue = row.BuyValue.Add(price)
		case "SELL":
			row.Sold++
			row.SellValue = row.SellValue.Add(price)
			row.RealizedPnL = row.RealizedPnL.Add(price.Sub(decimal.NewFromFloat(e.BoughtPrice)))
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := s.csvPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write([]string{"name", "bought", "buy_value", "sold", "sell_value", "realized_pnl"}); err != nil {
		return "", err
	}
	var totalBuy, totalSell, totalPnL decimal.Decimal
	for _, k := range keys {
		r := aggs[k]
		rec := []string{r.Name, strconv.Itoa(r.Bought), r.BuyValue.StringFixed(2), strconv.Itoa(r.Sold), r.SellValue.StringFixed(2), r.RealizedPnL.StringFixed(2)}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalBuy = totalBuy.Add(r.BuyValue)
		totalSell = totalSell.Add(r.SellValue)
		totalPnL = totalPnL.Add(r.RealizedPnL)
	}
	_ = w.Write([]string{"TOTAL", "", totalBuy.StringFixed(2), "", totalSell.StringFixed(2), totalPnL.StringFixed(2)})
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, nil
}
