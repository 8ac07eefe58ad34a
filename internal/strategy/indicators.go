package strategy

import (
	"math"

	"github.com/Yukun-Git/stock-pal-sub000/internal/data"
)

// closes extracts the closing price series from bars.
func closes(bars []data.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// SMA returns the simple moving average of closes over period, aligned to
// bars — index i is NaN until i >= period-1, matching the no-look-ahead
// requirement that index i never consults closes[i+1:].
func SMA(bars []data.Bar, period int) []float64 {
	cs := closes(bars)
	out := make([]float64, len(cs))
	if period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var sum float64
	for i, c := range cs {
		sum += c
		if i >= period {
			sum -= cs[i-period]
		}
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}

// EMA returns the exponential moving average of closes over period, seeded
// by the first period-bar SMA (the conventional warm-up), NaN before that.
func EMA(bars []data.Bar, period int) []float64 {
	cs := closes(bars)
	out := make([]float64, len(cs))
	if period <= 0 || len(cs) < period {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	k := 2.0 / float64(period+1)
	var seed float64
	for i := 0; i < period; i++ {
		seed += cs[i]
		out[i] = math.NaN()
	}
	seed /= float64(period)
	out[period-1] = seed
	prev := seed
	for i := period; i < len(cs); i++ {
		prev = cs[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

// MACDResult holds the three aligned series MACD produces.
type MACDResult struct {
	MACD   []float64
	Signal []float64
	Hist   []float64
}

// MACD computes the MACD line (fastEMA-slowEMA), its signal EMA, and the
// histogram (MACD-signal), all aligned to bars.
func MACD(bars []data.Bar, fast, slow, signalPeriod int) MACDResult {
	fastEMA := EMA(bars, fast)
	slowEMA := EMA(bars, slow)
	n := len(bars)
	macd := make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			macd[i] = math.NaN()
			continue
		}
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	signal := emaOfSeries(macd, signalPeriod)
	hist := make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(macd[i]) || math.IsNaN(signal[i]) {
			hist[i] = math.NaN()
			continue
		}
		hist[i] = macd[i] - signal[i]
	}
	return MACDResult{MACD: macd, Signal: signal, Hist: hist}
}

// emaOfSeries applies the EMA recurrence to an arbitrary (possibly
// NaN-prefixed) series, used internally for the MACD signal line.
func emaOfSeries(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 {
		return out
	}
	start := -1
	for i, v := range xs {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start < 0 || start+period > len(xs) {
		return out
	}
	k := 2.0 / float64(period+1)
	var seed float64
	for i := start; i < start+period; i++ {
		seed += xs[i]
	}
	seed /= float64(period)
	out[start+period-1] = seed
	prev := seed
	for i := start + period; i < len(xs); i++ {
		prev = xs[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

// RSI computes the Relative Strength Index via Wilder smoothing, aligned to
// bars. Returns 50 (neutral) for indices with insufficient history, matching
// NitinKhare's indicator library convention.
func RSI(bars []data.Bar, period int) []float64 {
	cs := closes(bars)
	out := make([]float64, len(cs))
	for i := range out {
		out[i] = 50
	}
	if period <= 0 || len(cs) < period+1 {
		return out
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		change := cs[i] - cs[i-1]
		if change > 0 {
			gainSum += change
		} else {
			lossSum += math.Abs(change)
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < len(cs); i++ {
		change := cs[i] - cs[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = math.Abs(change)
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// KDJResult holds the three aligned %K/%D/%J series.
type KDJResult struct {
	K []float64
	D []float64
	J []float64
}

// KDJ computes the stochastic KDJ oscillator over period, with the
// conventional 1/3 smoothing for %D.
func KDJ(bars []data.Bar, period int) KDJResult {
	n := len(bars)
	k := make([]float64, n)
	d := make([]float64, n)
	j := make([]float64, n)
	prevK, prevD := 50.0, 50.0
	for i := 0; i < n; i++ {
		if i < period-1 {
			k[i], d[i], j[i] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		lo, hi := bars[i].Low, bars[i].High
		for x := i - period + 1; x <= i; x++ {
			if bars[x].Low < lo {
				lo = bars[x].Low
			}
			if bars[x].High > hi {
				hi = bars[x].High
			}
		}
		var rsv float64
		if hi > lo {
			rsv = (bars[i].Close - lo) / (hi - lo) * 100
		} else {
			rsv = 50
		}
		curK := (2.0/3.0)*prevK + (1.0/3.0)*rsv
		curD := (2.0/3.0)*prevD + (1.0/3.0)*curK
		k[i], d[i] = curK, curD
		j[i] = 3*curK - 2*curD
		prevK, prevD = curK, curD
	}
	return KDJResult{K: k, D: d, J: j}
}

// BollingerResult holds the three aligned bands.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerBands computes a period-bar SMA middle band with upper/lower
// bands numStdDev population standard deviations (over the same period-bar
// window, current bar included) away.
func BollingerBands(bars []data.Bar, period int, numStdDev float64) BollingerResult {
	cs := closes(bars)
	mid := SMA(bars, period)
	n := len(cs)
	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(mid[i]) {
			upper[i], lower[i] = math.NaN(), math.NaN()
			continue
		}
		var sq float64
		for x := i - period + 1; x <= i; x++ {
			diff := cs[x] - mid[i]
			sq += diff * diff
		}
		sd := math.Sqrt(sq / float64(period))
		upper[i] = mid[i] + numStdDev*sd
		lower[i] = mid[i] - numStdDev*sd
	}
	return BollingerResult{Upper: upper, Middle: mid, Lower: lower}
}
