// Package stats provides the statistical primitives the metrics calculator
// needs: mean/stdev of a return series, annualization, and log-return series
// conversion.
package stats

import "math"

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

// Stdev returns the sample standard deviation of xs (Bessel-corrected).
// Returns 0 when fewer than two samples are available.
func Stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := Mean(xs)
	var sq float64
	for _, v := range xs {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}

// Annualize scales a per-period standard deviation to an annual figure by
// sqrt(periodsPerYear), assuming periodsPerYear observations per year (252
// for daily trading-day series).
func Annualize(perPeriod float64, periodsPerYear float64) float64 {
	return perPeriod * math.Sqrt(periodsPerYear)
}

// LogReturns converts a price series into log returns r_t = ln(p_t/p_{t-1}).
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(prices[i]/prices[i-1]))
	}
	return out
}
