// Package ta holds the small set of price statistics the agents and the
// backtester share. Functions return NaN when the window does not fit.
package ta

import "math"

// SMA is the mean of the last n values.
func SMA(vals []float64, n int) float64 {
	if n <= 0 || len(vals) < n {
		return math.NaN()
	}
	return Mean(vals[len(vals)-n:])
}

// Mean of all values.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// RSI over the last period changes. No losses reads as 100.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return math.NaN()
	}
	var gain, loss float64
	for i := len(prices) - period; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}

// StdDev is the population deviation of the last n values.
func StdDev(vals []float64, n int) float64 {
	if n <= 0 || len(vals) < n {
		return math.NaN()
	}
	return deviation(vals[len(vals)-n:], 0)
}

// SampleStdDev uses n-1 in the denominator.
func SampleStdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	return deviation(vals, 1)
}

func deviation(vals []float64, ddof int) float64 {
	m := Mean(vals)
	s := 0.0
	for _, v := range vals {
		d := v - m
		s += d * d
	}
	return math.Sqrt(s / float64(len(vals)-ddof))
}

// Bollinger returns the n-period mean and the bands k deviations around it.
func Bollinger(prices []float64, n int, k float64) (mid, up, low float64) {
	mid = SMA(prices, n)
	sd := StdDev(prices, n)
	return mid, mid + k*sd, mid - k*sd
}

// Returns is the period-over-period fractional change. The first element
// is 0 so the result lines up with prices; a zero base yields 0.
func Returns(prices []float64) []float64 {
	out := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			out[i] = prices[i]/prices[i-1] - 1
		}
	}
	return out
}
