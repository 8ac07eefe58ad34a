package backtest

import (
	"math"
	"time"

	"github.com/Yukun-Git/stock-pal-sub000/internal/stats"
)

const tradingDaysPerYear = 252.0

// computeMetrics implements spec.md §4.8's once-per-run metrics suite over
// the final equity series and fills. Divide-by-zero cases report nil
// (JSON null) rather than NaN or ±Inf, per the spec's explicit policy.
func computeMetrics(curve []EquitySample, fills []Fill) Metrics {
	var m Metrics
	if len(curve) == 0 {
		return m
	}

	equities := make([]float64, len(curve))
	for i, s := range curve {
		equities[i] = s.Equity
	}

	n := len(curve)
	if equities[0] != 0 {
		m.TotalReturn = equities[n-1]/equities[0] - 1
	}

	if equities[0] > 0 {
		cagr := math.Pow(equities[n-1]/equities[0], tradingDaysPerYear/float64(n)) - 1
		m.CAGR = &cagr
	}

	// Log returns, not simple returns: they compound additively across bars,
	// which is what the annualize-by-sqrt(252) scaling below assumes.
	returns := stats.LogReturns(equities)
	if len(returns) >= 2 {
		sd := stats.Stdev(returns)
		if sd > 0 {
			vol := stats.Annualize(sd, tradingDaysPerYear)
			m.Volatility = &vol

			mean := stats.Mean(returns)
			sharpe := (mean / sd) * math.Sqrt(tradingDaysPerYear)
			m.Sharpe = &sharpe
		}

		var negatives []float64
		for _, r := range returns {
			if r < 0 {
				negatives = append(negatives, r)
			}
		}
		if len(negatives) >= 2 {
			downside := stats.Stdev(negatives)
			if downside > 0 {
				mean := stats.Mean(returns)
				sortino := (mean / downside) * math.Sqrt(tradingDaysPerYear)
				m.Sortino = &sortino
			}
		}
	}

	maxDD, maxDDDuration := maxDrawdown(equities)
	m.MaxDrawdown = maxDD
	m.MaxDrawdownDuration = maxDDDuration
	if m.CAGR != nil && maxDD < 0 {
		calmar := *m.CAGR / math.Abs(maxDD)
		m.Calmar = &calmar
	}

	computeTradeStats(&m, fills, curve, equities, n)

	return m
}

// maxDrawdown returns the deepest peak-to-trough decline (a non-positive
// fraction) and the longest run of bars spent below a prior peak.
func maxDrawdown(equities []float64) (float64, int) {
	if len(equities) == 0 {
		return 0, 0
	}
	runningMax := equities[0]
	maxDD := 0.0
	curRun, longestRun := 0, 0
	for _, e := range equities {
		if e >= runningMax {
			runningMax = e
			curRun = 0
		} else {
			curRun++
			if curRun > longestRun {
				longestRun = curRun
			}
		}
		if runningMax > 0 {
			dd := (e - runningMax) / runningMax
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD, longestRun
}

type roundTripOpen struct {
	netCashDelta float64
	date         time.Time
}

type roundTrip struct {
	pnl         float64
	holdingBars int
}

// computeTradeStats pairs buy fills with their FIFO-matching sell fill per
// symbol (a run ever holds at most one open leg per symbol, so "FIFO" is
// just "the most recent open") and derives win rate, profit factor, average
// holding period, and turnover. Round-trip P&L is the sum of the paired
// fills' net_cash_delta, which already nets out both legs' commission and
// taxes (each fill's Commission is the broker fee and Taxes the remaining
// fees, so the two add up to the leg's total cost) — this avoids
// double-counting the sell's taxes and omitting the buy leg's fees entirely.
func computeTradeStats(m *Metrics, fills []Fill, curve []EquitySample, equities []float64, n int) {
	barIndex := make(map[time.Time]int, len(curve))
	for i, s := range curve {
		barIndex[s.Date] = i
	}

	var roundTrips []roundTrip
	open := make(map[string]*roundTripOpen)

	var grossTurnover float64
	for _, f := range fills {
		grossTurnover += math.Abs(f.GrossAmount)
		switch f.Side {
		case "BUY":
			open[f.Symbol] = &roundTripOpen{netCashDelta: f.NetCashDelta, date: f.Date}
		case "SELL":
			o, ok := open[f.Symbol]
			if !ok {
				continue
			}
			holdingBars := barIndex[f.Date] - barIndex[o.date]
			if holdingBars < 0 {
				holdingBars = 0
			}
			pnl := f.NetCashDelta + o.netCashDelta
			roundTrips = append(roundTrips, roundTrip{pnl: pnl, holdingBars: holdingBars})
			delete(open, f.Symbol)
		}
	}

	if len(roundTrips) > 0 {
		var wins int
		var gains, losses float64
		var holdingSum int
		for _, rt := range roundTrips {
			if rt.pnl > 0 {
				wins++
				gains += rt.pnl
			} else if rt.pnl < 0 {
				losses += -rt.pnl
			}
			holdingSum += rt.holdingBars
		}
		winRate := float64(wins) / float64(len(roundTrips))
		m.WinRate = &winRate

		if losses > 0 {
			pf := gains / losses
			m.ProfitFactor = &pf
		}

		avgHold := float64(holdingSum) / float64(len(roundTrips))
		m.AvgHoldingPeriod = &avgHold
	}

	if n > 1 {
		avgEquity := stats.Mean(equities)
		years := float64(n) / tradingDaysPerYear
		if avgEquity > 0 && years > 0 {
			turnover := grossTurnover / (2 * avgEquity) / years
			m.Turnover = &turnover
		}
	}
}
