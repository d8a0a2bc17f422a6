package agents

import (
	"context"
	"fmt"
	"math"
	"strings"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/ta"
)

// Analyst writes the market report and per-position price notes. Its calls
// are one-off and do not accumulate memory.
type Analyst struct {
	*Agent
}

var _ Conversant = (*Analyst)(nil)

func NewAnalyst(oracle interfaces.Oracle, assetKind string) *Analyst {
	system := fmt.Sprintf("You are a financial analyst covering the %s market. Be concise and concrete.", assetKind)
	return &Analyst{Agent: newAgent("analyst", system, oracle)}
}

// MarketReport summarises the day's sentiment from the news text.
func (a *Analyst) MarketReport(ctx context.Context, news, date string) string {
	return a.Ask(ctx, fmt.Sprintf("Date: %s\n\nNews:\n%s\n\nIn three sentences, assess the market: the risk level "+
		"(low, medium or high), the main drivers, and an overall Buy, Sell or Hold stance.", date, news))
}

// PriceAnalysis comments on one position's price history.
func (a *Analyst) PriceAnalysis(ctx context.Context, name string, bought float64, prices []float64) string {
	var pnl string
	if n := len(prices); n > 0 && bought > 0 {
		pnl = fmt.Sprintf("\nCurrent: %.2f\nP&L: %.2f%%", prices[n-1], (prices[n-1]-bought)/bought*100)
	}
	return a.Ask(ctx, fmt.Sprintf("Item: %s\nBought at: %.2f%s\n%s\n\nIn one sentence, describe the trend against the purchase price.",
		name, bought, pnl, describePrices(prices)))
}

func describePrices(prices []float64) string {
	var sb strings.Builder
	parts := make([]string, len(prices))
	for i, p := range prices {
		parts[i] = fmt.Sprintf("%.2f", p)
	}
	fmt.Fprintf(&sb, "Daily prices (oldest first): %s", strings.Join(parts, ", "))
	if sma := ta.SMA(prices, 3); !math.IsNaN(sma) {
		fmt.Fprintf(&sb, "\nSMA(3): %.2f", sma)
	}
	if rsi := ta.RSI(prices, 5); !math.IsNaN(rsi) {
		fmt.Fprintf(&sb, "\nRSI(5): %.1f", rsi)
	}
	if mid, up, low := ta.Bollinger(prices, 5, 2); !math.IsNaN(mid) {
		fmt.Fprintf(&sb, "\nBollinger(5,2): %.2f / %.2f / %.2f", low, mid, up)
	}
	return sb.String()
}
