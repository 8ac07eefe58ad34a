package risk

import "testing"

func TestCheckOrderRiskSingleNameCapRejectsFirst(t *testing.T) {
	m := NewManager(Config{MaxPositionPct: 0.10, MaxTotalExposure: 0.50}, 100_000)
	positions := []Position{{Symbol: "600000", Shares: 0}}
	order := OrderIntent{Symbol: "600000", Shares: 2000, ReferencePrice: 10} // 20_000 / 100_000 = 20% > 10%

	if got := m.CheckOrderRisk(order, positions, 100_000); got != RejectSingleNameCap {
		t.Fatalf("reject = %v, want RejectSingleNameCap", got)
	}
}

func TestCheckOrderRiskGrossExposureCap(t *testing.T) {
	m := NewManager(Config{MaxTotalExposure: 0.50}, 100_000)
	positions := []Position{
		{Symbol: "600000", Shares: 3000, CurrentPrice: 10}, // 30_000 already deployed
	}
	order := OrderIntent{Symbol: "600001", Shares: 3000, ReferencePrice: 10} // +30_000 -> 60% > 50%

	if got := m.CheckOrderRisk(order, positions, 100_000); got != RejectGrossExposureCap {
		t.Fatalf("reject = %v, want RejectGrossExposureCap", got)
	}
}

func TestCheckOrderRiskPassesWithinLimits(t *testing.T) {
	m := NewManager(Config{MaxPositionPct: 0.10, MaxTotalExposure: 0.50}, 100_000)
	order := OrderIntent{Symbol: "600000", Shares: 500, ReferencePrice: 10}

	if got := m.CheckOrderRisk(order, nil, 100_000); got != NoReject {
		t.Fatalf("reject = %v, want NoReject", got)
	}
}

func TestCheckOrderRiskZeroEquitySkipsChecks(t *testing.T) {
	m := NewManager(Config{MaxPositionPct: 0.01}, 100_000)
	order := OrderIntent{Symbol: "600000", Shares: 100_000, ReferencePrice: 10}

	if got := m.CheckOrderRisk(order, nil, 0); got != NoReject {
		t.Fatalf("reject = %v, want NoReject (equity<=0 skips)", got)
	}
}

// S4: stop-loss. Position bought at 10, stop_loss_pct=0.10; current price
// 8.5 is below the 9.0 stop -> forced SELL with reason STOP_LOSS.
func TestCheckExitSignalsStopLoss(t *testing.T) {
	m := NewManager(Config{StopLossPct: 0.10}, 100_000)
	positions := []Position{{Symbol: "600000", Shares: 10000, AvgCost: 10, CurrentPrice: 8.5}}

	exits := m.CheckExitSignals(positions, 85_000)
	if len(exits) != 1 {
		t.Fatalf("len(exits) = %d, want 1", len(exits))
	}
	if exits[0].Reason != ExitStopLoss || exits[0].Shares != 10000 {
		t.Fatalf("exit = %+v, want full-size STOP_LOSS", exits[0])
	}
}

func TestCheckExitSignalsStopProfit(t *testing.T) {
	m := NewManager(Config{StopProfitPct: 0.20}, 100_000)
	positions := []Position{{Symbol: "600000", Shares: 100, AvgCost: 10, CurrentPrice: 12.5}}

	exits := m.CheckExitSignals(positions, 101_250)
	if len(exits) != 1 || exits[0].Reason != ExitStopProfit {
		t.Fatalf("exits = %+v, want single STOP_PROFIT exit", exits)
	}
}

// S5: drawdown protection preempts stop-profit. Equity peaks at 130_000 then
// falls to 100_000 (23% drawdown, over the 20% threshold). Even though the
// held position individually qualifies for a stop-profit exit, the forced
// sell must carry DRAWDOWN_PROTECTION, not STOP_PROFIT.
func TestCheckExitSignalsDrawdownPreemptsStopProfit(t *testing.T) {
	m := NewManager(Config{MaxDrawdownPct: 0.20, StopProfitPct: 0.50}, 100_000)

	m.CheckExitSignals(nil, 130_000) // establish the peak with no open positions yet

	positions := []Position{{Symbol: "600000", Shares: 100, AvgCost: 10, CurrentPrice: 15}}
	exits := m.CheckExitSignals(positions, 100_000)

	if len(exits) != 1 {
		t.Fatalf("len(exits) = %d, want 1", len(exits))
	}
	if exits[0].Reason != ExitDrawdownProtection {
		t.Fatalf("reason = %v, want DRAWDOWN_PROTECTION even though the position is profitable", exits[0].Reason)
	}
}

func TestCheckExitSignalsDrawdownLiquidatesAllHeldPositions(t *testing.T) {
	m := NewManager(Config{MaxDrawdownPct: 0.10, StopLossPct: 0.50, StopProfitPct: 0.50}, 100_000)
	m.CheckExitSignals(nil, 100_000)

	positions := []Position{
		{Symbol: "b_sym", Shares: 50, AvgCost: 10, CurrentPrice: 10},
		{Symbol: "a_sym", Shares: 100, AvgCost: 10, CurrentPrice: 10},
	}
	exits := m.CheckExitSignals(positions, 89_000) // 11% drawdown

	if len(exits) != 2 {
		t.Fatalf("len(exits) = %d, want 2 (liquidate every held symbol)", len(exits))
	}
	if exits[0].Symbol != "a_sym" || exits[1].Symbol != "b_sym" {
		t.Fatalf("exits not in stable symbol order: %+v", exits)
	}
	for _, e := range exits {
		if e.Reason != ExitDrawdownProtection {
			t.Fatalf("exit %+v, want DRAWDOWN_PROTECTION", e)
		}
	}
}

func TestCheckExitSignalsStopLossBeforeStopProfitOnTie(t *testing.T) {
	// Pathological config where a position is simultaneously at-or-below the
	// stop-loss band and at-or-above the stop-profit band; loss must win.
	m := NewManager(Config{StopLossPct: 0.01, StopProfitPct: 0.01}, 100_000)
	positions := []Position{{Symbol: "600000", Shares: 100, AvgCost: 10, CurrentPrice: 9.9}}

	exits := m.CheckExitSignals(positions, 99_000)
	if len(exits) != 1 || exits[0].Reason != ExitStopLoss {
		t.Fatalf("exits = %+v, want single STOP_LOSS", exits)
	}
}

func TestCheckExitSignalsNoTriggersWhenWithinBands(t *testing.T) {
	m := NewManager(Config{StopLossPct: 0.10, StopProfitPct: 0.20, MaxDrawdownPct: 0.20}, 100_000)
	positions := []Position{{Symbol: "600000", Shares: 100, AvgCost: 10, CurrentPrice: 10.5}}

	exits := m.CheckExitSignals(positions, 101_050)
	if len(exits) != 0 {
		t.Fatalf("exits = %+v, want none", exits)
	}
}

func TestCheckExitSignalsPeakEquityNeverResetsAfterLiquidation(t *testing.T) {
	m := NewManager(Config{MaxDrawdownPct: 0.20}, 100_000)
	m.CheckExitSignals(nil, 150_000)
	m.CheckExitSignals([]Position{{Symbol: "600000", Shares: 100, AvgCost: 10, CurrentPrice: 10}}, 115_000) // 23.3% drawdown triggers and clears the book

	if m.PeakEquity() != 150_000 {
		t.Fatalf("PeakEquity() = %v, want 150000 unchanged after liquidation", m.PeakEquity())
	}

	// A later recovery to 140_000 must not re-trigger since drawdown from the
	// still-standing peak of 150_000 is now only ~6.7%.
	exits := m.CheckExitSignals(nil, 140_000)
	if len(exits) != 0 {
		t.Fatalf("exits = %+v, want none once drawdown recovers below threshold", exits)
	}
}
