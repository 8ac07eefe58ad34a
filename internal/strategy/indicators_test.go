package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/Yukun-Git/stock-pal-sub000/internal/data"
)

func barsFromCloses(cs []float64) []data.Bar {
	out := make([]data.Bar, len(cs))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range cs {
		out[i] = data.Bar{
			Date: base.AddDate(0, 0, i), Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1000,
		}
	}
	return out
}

func TestSMAWarmup(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2, 3, 4, 5})
	out := SMA(bars, 3)
	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Fatalf("expected NaN before warm-up, got %v", out[:2])
	}
	if out[2] != 2 {
		t.Fatalf("SMA(3) at i=2 = %v, want 2", out[2])
	}
	if out[4] != 4 {
		t.Fatalf("SMA(3) at i=4 = %v, want 4", out[4])
	}
}

func TestSMANoLookahead(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2, 3, 4, 5})
	full := SMA(bars, 3)
	partial := SMA(bars[:3], 3)
	if full[2] != partial[2] {
		t.Fatalf("SMA at i=2 depends on future bars: full=%v partial=%v", full[2], partial[2])
	}
}

func TestRSINeutralOnInsufficientData(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2})
	out := RSI(bars, 14)
	for i, v := range out {
		if v != 50 {
			t.Fatalf("RSI[%d] = %v, want 50 (neutral, insufficient data)", i, v)
		}
	}
}

func TestRSIAllGainsIsMaxed(t *testing.T) {
	cs := make([]float64, 20)
	for i := range cs {
		cs[i] = float64(i + 1)
	}
	bars := barsFromCloses(cs)
	out := RSI(bars, 14)
	if out[19] != 100 {
		t.Fatalf("RSI with all gains = %v, want 100", out[19])
	}
}

func TestBollingerBandsStraddleMiddle(t *testing.T) {
	bars := barsFromCloses([]float64{10, 10, 10, 10, 10})
	b := BollingerBands(bars, 3, 2.0)
	if b.Upper[4] != b.Middle[4] || b.Lower[4] != b.Middle[4] {
		t.Fatalf("constant series should have zero band width: upper=%v mid=%v lower=%v", b.Upper[4], b.Middle[4], b.Lower[4])
	}
}

func TestMACDHistogramSign(t *testing.T) {
	cs := make([]float64, 40)
	for i := range cs {
		cs[i] = 100 + float64(i)
	}
	bars := barsFromCloses(cs)
	m := MACD(bars, 12, 26, 9)
	last := len(bars) - 1
	if math.IsNaN(m.Hist[last]) {
		t.Fatal("expected a non-NaN histogram value by the end of a steady uptrend")
	}
	if m.MACD[last] <= 0 {
		t.Fatalf("expected positive MACD in a steady uptrend, got %v", m.MACD[last])
	}
}
