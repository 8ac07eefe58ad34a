package data

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

// SyntheticAdapter generates deterministic weekday-only random-walk OHLCV
// bars, seeded per symbol so the same (symbol, range) always reproduces the
// same bars — required for the engine's determinism guarantee (spec.md
// §4.8), unlike the teacher's synthDataProvider which reseeds from the
// global rand source on every call.
type SyntheticAdapter struct {
	seedPrices map[string]float64
}

// NewSyntheticAdapter builds a synthetic adapter. seedPrices gives the
// starting close for each symbol; symbols absent from the map start at 100.
func NewSyntheticAdapter(seedPrices map[string]float64) *SyntheticAdapter {
	return &SyntheticAdapter{seedPrices: seedPrices}
}

func (s *SyntheticAdapter) Name() string { return "synthetic" }

func symbolSeed(symbol string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return int64(h.Sum64())
}

// GetOHLCV produces one bar per weekday in [start, end], walking from the
// symbol's seed price with a per-symbol deterministic RNG.
func (s *SyntheticAdapter) GetOHLCV(ctx context.Context, symbol string, start, end time.Time, adjust Adjust) ([]Bar, error) {
	price, ok := s.seedPrices[symbol]
	if !ok {
		price = 100.0
	}
	rng := rand.New(rand.NewSource(symbolSeed(symbol)))

	var bars []Bar
	prevClose := price
	cur := start
	first := true
	for !cur.After(end) {
		if cur.Weekday() == time.Saturday || cur.Weekday() == time.Sunday {
			cur = cur.AddDate(0, 0, 1)
			continue
		}
		delta := rng.NormFloat64() * 0.01 * price
		open := price
		close := price + delta
		high := math.Max(open, close) + math.Abs(rng.NormFloat64()*0.3)
		low := math.Min(open, close) - math.Abs(rng.NormFloat64()*0.3)
		if first {
			prevClose = open
			first = false
		}
		bars = append(bars, Bar{
			Date:      cur,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    int64(1000 + rng.Intn(5000)),
			PrevClose: prevClose,
		})
		prevClose = close
		price = close
		cur = cur.AddDate(0, 0, 1)
	}
	return bars, nil
}

func (s *SyntheticAdapter) GetStockInfo(ctx context.Context, symbol string) (StockInfo, error) {
	return StockInfo{Name: symbol, Exchange: "SYNTH"}, nil
}
