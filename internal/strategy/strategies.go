package strategy

import (
	"math"

	"github.com/Yukun-Git/stock-pal-sub000/internal/data"
)

// MACrossoverStrategy buys on a fast-over-slow moving-average cross and
// sells on the reverse cross. Moving-average kind ("sma" or "ema") and both
// periods are configurable.
type MACrossoverStrategy struct{}

func (s *MACrossoverStrategy) ID() string { return "ma_crossover" }

func (s *MACrossoverStrategy) Parameters() []Param {
	return []Param{
		{Name: "fast_period", Kind: ParamInteger, Default: 5, Min: 1, Description: "fast moving-average lookback"},
		{Name: "slow_period", Kind: ParamInteger, Default: 20, Min: 2, Description: "slow moving-average lookback"},
		{Name: "ma_kind", Kind: ParamEnum, Default: "sma", Enum: []string{"sma", "ema"}, Description: "moving average kind"},
	}
}

func (s *MACrossoverStrategy) GenerateSignals(bars []data.Bar, params Params) ([]Signal, error) {
	fast := params.Int("fast_period", 5)
	slow := params.Int("slow_period", 20)
	kind, _ := params["ma_kind"].(string)

	var fastSeries, slowSeries []float64
	if kind == "ema" {
		fastSeries, slowSeries = EMA(bars, fast), EMA(bars, slow)
	} else {
		fastSeries, slowSeries = SMA(bars, fast), SMA(bars, slow)
	}

	out := make([]Signal, len(bars))
	for i := 1; i < len(bars); i++ {
		if math.IsNaN(fastSeries[i]) || math.IsNaN(slowSeries[i]) ||
			math.IsNaN(fastSeries[i-1]) || math.IsNaN(slowSeries[i-1]) {
			continue
		}
		crossedUp := fastSeries[i-1] <= slowSeries[i-1] && fastSeries[i] > slowSeries[i]
		crossedDown := fastSeries[i-1] >= slowSeries[i-1] && fastSeries[i] < slowSeries[i]
		out[i] = Signal{Buy: crossedUp, Sell: crossedDown}
	}
	return out, nil
}

// RSIStrategy buys when RSI crosses up out of an oversold threshold and
// sells when it crosses down out of an overbought threshold.
type RSIStrategy struct{}

func (s *RSIStrategy) ID() string { return "rsi_threshold" }

func (s *RSIStrategy) Parameters() []Param {
	return []Param{
		{Name: "period", Kind: ParamInteger, Default: 14, Min: 2, Description: "RSI lookback"},
		{Name: "oversold", Kind: ParamFloat, Default: 30.0, Min: 0, Max: 100, Description: "oversold threshold"},
		{Name: "overbought", Kind: ParamFloat, Default: 70.0, Min: 0, Max: 100, Description: "overbought threshold"},
	}
}

func (s *RSIStrategy) GenerateSignals(bars []data.Bar, params Params) ([]Signal, error) {
	period := params.Int("period", 14)
	oversold := params.Float("oversold", 30.0)
	overbought := params.Float("overbought", 70.0)

	rsi := RSI(bars, period)
	out := make([]Signal, len(bars))
	for i := 1; i < len(bars); i++ {
		crossedUpFromOversold := rsi[i-1] <= oversold && rsi[i] > oversold
		crossedDownFromOverbought := rsi[i-1] >= overbought && rsi[i] < overbought
		out[i] = Signal{Buy: crossedUpFromOversold, Sell: crossedDownFromOverbought}
	}
	return out, nil
}

// BollingerBreakoutStrategy buys when close breaks above the upper band and
// sells when close breaks below the lower band.
type BollingerBreakoutStrategy struct{}

func (s *BollingerBreakoutStrategy) ID() string { return "bollinger_breakout" }

func (s *BollingerBreakoutStrategy) Parameters() []Param {
	return []Param{
		{Name: "period", Kind: ParamInteger, Default: 20, Min: 2, Description: "band lookback"},
		{Name: "num_std_dev", Kind: ParamFloat, Default: 2.0, Min: 0.1, Description: "band width in standard deviations"},
	}
}

func (s *BollingerBreakoutStrategy) GenerateSignals(bars []data.Bar, params Params) ([]Signal, error) {
	period := params.Int("period", 20)
	numStdDev := params.Float("num_std_dev", 2.0)

	bands := BollingerBands(bars, period, numStdDev)
	out := make([]Signal, len(bars))
	for i := 0; i < len(bars); i++ {
		if math.IsNaN(bands.Upper[i]) {
			continue
		}
		out[i] = Signal{
			Buy:  bars[i].Close > bands.Upper[i],
			Sell: bars[i].Close < bands.Lower[i],
		}
	}
	return out, nil
}
