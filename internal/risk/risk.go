// Package risk implements the two pre-trade order checks and the per-bar
// forced-exit decisions (stop-loss, stop-profit, drawdown protection) that
// sit between a strategy's signal and the matching engine. Grounded on
// NitinKhare's internal/risk/risk.go: the ordered checkX(&result, ...) chain
// appending rejection reasons is the direct model for CheckOrderRisk, and
// the exit-priority branching (mandatory checks before optional ones) is the
// model for CheckExitSignals' drawdown-preempts-all early return.
package risk

import (
	"sort"
)

// RejectReason explains why a pre-trade order check failed.
type RejectReason string

const (
	NoReject               RejectReason = ""
	RejectSingleNameCap    RejectReason = "SINGLE_NAME_CAP"
	RejectGrossExposureCap RejectReason = "GROSS_EXPOSURE_CAP"
)

// ExitReason tags why a forced-exit order was generated.
type ExitReason string

const (
	ExitDrawdownProtection ExitReason = "DRAWDOWN_PROTECTION"
	ExitStopLoss           ExitReason = "STOP_LOSS"
	ExitStopProfit         ExitReason = "STOP_PROFIT"
)

// Config holds the optional risk limits for a run. A zero value for any
// field means "do not enforce" per spec.md §4.7.
type Config struct {
	MaxPositionPct   float64 `json:"max_position_pct,omitempty" validate:"omitempty,gt=0,lte=1"`
	MaxTotalExposure float64 `json:"max_total_exposure,omitempty" validate:"omitempty,gt=0,lte=1"`
	StopLossPct      float64 `json:"stop_loss_pct,omitempty" validate:"omitempty,gt=0,lt=1"`
	StopProfitPct    float64 `json:"stop_profit_pct,omitempty" validate:"omitempty,gt=0"`
	MaxDrawdownPct   float64 `json:"max_drawdown_pct,omitempty" validate:"omitempty,gt=0,lt=1"`
}

// Position is the minimal position shape the risk manager needs: current
// share count, average acquisition cost, and the latest mark price.
type Position struct {
	Symbol       string
	Shares       int
	AvgCost      float64
	CurrentPrice float64
}

func (p Position) value() float64 { return float64(p.Shares) * p.CurrentPrice }

// OrderIntent is the proposed order the pre-trade checks evaluate.
type OrderIntent struct {
	Symbol         string
	Shares         int
	ReferencePrice float64
}

// ForcedOrder is an exit the risk manager generates unilaterally; the
// orchestrator routes it to the matching engine as a sell with
// Origin=OriginForcedExit.
type ForcedOrder struct {
	Symbol string
	Shares int
	Reason ExitReason
}

// Manager enforces R1/R2 pre-trade caps and E0-E2 forced-exit rules. It is
// the final gatekeeper before any order reaches the matching engine. The one
// piece of mutable state it owns, peakEquity, is a running maximum that is
// never reset for the life of a run (spec.md §9 decision (c)).
type Manager struct {
	config     Config
	peakEquity float64
}

// NewManager creates a risk manager seeded with the run's initial capital as
// the starting peak equity.
func NewManager(cfg Config, initialCapital float64) *Manager {
	return &Manager{config: cfg, peakEquity: initialCapital}
}

// PeakEquity returns the running peak equity observed so far.
func (m *Manager) PeakEquity() float64 { return m.peakEquity }

// CheckOrderRisk validates a proposed buy against R1 (single-name cap) then
// R2 (gross-exposure cap), in that order; the first violated check rejects
// and later checks are not evaluated. positions is the book BEFORE this
// order is applied. equity must be > 0; a non-positive equity skips both
// checks since percentages are undefined.
func (m *Manager) CheckOrderRisk(order OrderIntent, positions []Position, equity float64) RejectReason {
	if equity <= 0 {
		return NoReject
	}
	orderValue := float64(order.Shares) * order.ReferencePrice

	if m.config.MaxPositionPct > 0 {
		var current float64
		for _, p := range positions {
			if p.Symbol == order.Symbol {
				current = p.value()
				break
			}
		}
		if (current+orderValue)/equity > m.config.MaxPositionPct {
			return RejectSingleNameCap
		}
	}

	if m.config.MaxTotalExposure > 0 {
		var total float64
		for _, p := range positions {
			total += p.value()
		}
		if (total+orderValue)/equity > m.config.MaxTotalExposure {
			return RejectGrossExposureCap
		}
	}

	return NoReject
}

// CheckExitSignals runs the per-bar forced-exit sequence: E0 updates the
// running peak equity, E1 checks drawdown protection and, if triggered,
// returns a forced sell for every held position and nothing else — drawdown
// protection preempts the per-symbol stop-loss/stop-profit checks entirely.
// Otherwise E2 walks positions in stable symbol order and emits at most one
// forced exit per position, checking stop-loss before stop-profit so a
// position that is simultaneously below its stop-loss and above its
// stop-profit band (only possible with a pathological config) exits as a
// loss.
func (m *Manager) CheckExitSignals(positions []Position, currentEquity float64) []ForcedOrder {
	if currentEquity > m.peakEquity {
		m.peakEquity = currentEquity
	}

	if m.config.MaxDrawdownPct > 0 && m.peakEquity > 0 {
		drawdown := (m.peakEquity - currentEquity) / m.peakEquity
		if drawdown >= m.config.MaxDrawdownPct {
			ordered := sortedBySymbol(positions)
			exits := make([]ForcedOrder, 0, len(ordered))
			for _, p := range ordered {
				if p.Shares <= 0 {
					continue
				}
				exits = append(exits, ForcedOrder{Symbol: p.Symbol, Shares: p.Shares, Reason: ExitDrawdownProtection})
			}
			return exits
		}
	}

	var exits []ForcedOrder
	for _, p := range sortedBySymbol(positions) {
		if p.Shares <= 0 {
			continue
		}
		if m.config.StopLossPct > 0 && p.CurrentPrice <= p.AvgCost*(1-m.config.StopLossPct) {
			exits = append(exits, ForcedOrder{Symbol: p.Symbol, Shares: p.Shares, Reason: ExitStopLoss})
			continue
		}
		if m.config.StopProfitPct > 0 && p.CurrentPrice >= p.AvgCost*(1+m.config.StopProfitPct) {
			exits = append(exits, ForcedOrder{Symbol: p.Symbol, Shares: p.Shares, Reason: ExitStopProfit})
		}
	}
	return exits
}

func sortedBySymbol(positions []Position) []Position {
	out := make([]Position, len(positions))
	copy(out, positions)
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

