package strategy

import "testing"

func TestMACrossoverDetectsCross(t *testing.T) {
	// Construct a series where a short SMA crosses above a long SMA partway
	// through: flat then rising.
	cs := []float64{10, 10, 10, 10, 10, 11, 12, 13, 14, 15}
	bars := barsFromCloses(cs)

	s := &MACrossoverStrategy{}
	signals, err := s.GenerateSignals(bars, Params{"fast_period": 2, "slow_period": 5, "ma_kind": "sma"})
	if err != nil {
		t.Fatalf("GenerateSignals: %v", err)
	}
	var sawBuy bool
	for _, sig := range signals {
		if sig.Buy {
			sawBuy = true
		}
	}
	if !sawBuy {
		t.Fatal("expected at least one buy crossover on a rising series")
	}
}

func TestRSIStrategyThresholdCross(t *testing.T) {
	// A sharp decline followed by recovery should trip the oversold
	// threshold cross at some point.
	cs := []float64{50, 48, 45, 40, 35, 30, 28, 27, 30, 35, 40, 45, 50, 55, 60}
	bars := barsFromCloses(cs)

	s := &RSIStrategy{}
	signals, err := s.GenerateSignals(bars, Params{"period": 5, "oversold": 30.0, "overbought": 70.0})
	if err != nil {
		t.Fatalf("GenerateSignals: %v", err)
	}
	if len(signals) != len(bars) {
		t.Fatalf("expected %d signals, got %d", len(bars), len(signals))
	}
}

func TestBollingerBreakoutSignalsAtBreak(t *testing.T) {
	cs := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 20}
	bars := barsFromCloses(cs)

	s := &BollingerBreakoutStrategy{}
	// The band window includes the spike bar itself: with period 10 the
	// upper band is 11+2*3=17, so the close of 20 breaks above it.
	signals, err := s.GenerateSignals(bars, Params{"period": 10, "num_std_dev": 2.0})
	if err != nil {
		t.Fatalf("GenerateSignals: %v", err)
	}
	last := signals[len(signals)-1]
	if !last.Buy {
		t.Fatal("expected a buy breakout signal on the spike bar")
	}
}

func TestRegistryListsReferenceStrategies(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Get("ma_crossover"); !ok {
		t.Fatal("expected ma_crossover to be registered")
	}
	if _, ok := reg.Get("rsi_threshold"); !ok {
		t.Fatal("expected rsi_threshold to be registered")
	}
	if _, ok := reg.Get("bollinger_breakout"); !ok {
		t.Fatal("expected bollinger_breakout to be registered")
	}
	if len(reg.List()) != 3 {
		t.Fatalf("expected 3 registered strategies, got %d", len(reg.List()))
	}
}
