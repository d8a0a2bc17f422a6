// Package backtest is a toy vectorised backtester used by the demo command.
// Signals are weights: signal[t] is the position held over period t.
package backtest

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"llm-daily-trader/internal/ta"
)

// TradingDays annualises daily Sharpe ratios.
const TradingDays = 252

var ErrNoPrices = errors.New("backtest: no price series")

type Backtester struct {
	InitialCapital float64
	RiskFreeRate   float64
}

func New() *Backtester {
	return &Backtester{InitialCapital: 10000}
}

type Result struct {
	TotalReturn      float64   `json:"total_return"`
	Sharpe           float64   `json:"sharpe"`
	MeanReturn       float64   `json:"mean_return"`
	StdReturn        float64   `json:"std_return"`
	FinalEquity      float64   `json:"final_equity"`
	PortfolioReturns []float64 `json:"portfolio_returns"`
}

// Run sums signal-weighted returns across assets per period. All price
// series must share one length; missing or short signal series count as 0.
func (b *Backtester) Run(prices map[string][]float64, signals map[string][]int) (Result, error) {
	if len(prices) == 0 {
		return Result{}, ErrNoPrices
	}
	names := make([]string, 0, len(prices))
	for name := range prices {
		names = append(names, name)
	}
	sort.Strings(names)

	periods := len(prices[names[0]])
	for _, name := range names[1:] {
		if len(prices[name]) != periods {
			return Result{}, fmt.Errorf("backtest: series %q has %d prices, want %d", name, len(prices[name]), periods)
		}
	}

	portfolio := make([]float64, periods)
	for _, name := range names {
		sig := signals[name]
		for t, r := range ta.Returns(prices[name]) {
			if t < len(sig) {
				portfolio[t] += float64(sig[t]) * r
			}
		}
	}

	growth := 1.0
	for _, r := range portfolio {
		growth *= 1 + r
	}

	res := Result{
		TotalReturn:      growth - 1,
		MeanReturn:       ta.Mean(portfolio),
		StdReturn:        ta.SampleStdDev(portfolio),
		FinalEquity:      b.InitialCapital * growth,
		PortfolioReturns: portfolio,
	}
	if math.IsNaN(res.StdReturn) {
		res.StdReturn = 0
	}
	if res.StdReturn != 0 {
		res.Sharpe = (res.MeanReturn - b.RiskFreeRate) / res.StdReturn * math.Sqrt(TradingDays)
	}
	return res, nil
}

// DemoPrices is the two-item series the demo command runs on.
func DemoPrices() map[string][]float64 {
	return map[string][]float64{
		"item_a": {100, 101, 102, 103, 104},
		"item_b": {200, 198, 199, 201, 205},
	}
}
