package backtest

import (
	"time"

	"github.com/Yukun-Git/stock-pal-sub000/internal/matching"
	"github.com/Yukun-Git/stock-pal-sub000/internal/risk"
	"github.com/Yukun-Git/stock-pal-sub000/internal/rules"
)

// position is one held symbol's ledger entry: share count, cost basis, and
// the latest mark used for equity computation.
type position struct {
	Symbol       string
	Shares       int
	AvgCost      float64
	AcquiredOn   time.Time
	CurrentPrice float64
}

// portfolio is the run's ledger: cash plus open positions. It is the only
// mutable state a single run owns (spec.md §5); a run never shares it with
// another.
type portfolio struct {
	cash      float64
	positions map[string]*position
}

func newPortfolio(initialCapital float64) *portfolio {
	return &portfolio{cash: initialCapital, positions: make(map[string]*position)}
}

func (p *portfolio) equity() float64 {
	e := p.cash
	for _, pos := range p.positions {
		e += float64(pos.Shares) * pos.CurrentPrice
	}
	return e
}

func (p *portfolio) positionValue() float64 {
	var v float64
	for _, pos := range p.positions {
		v += float64(pos.Shares) * pos.CurrentPrice
	}
	return v
}

// markToMarket updates symbol's held position to today's close. A
// suspended bar carries the prior mark forward rather than overwriting it
// (spec.md §4.8 step 1).
func (p *portfolio) markToMarket(symbol string, bar matching.Bar) {
	pos, ok := p.positions[symbol]
	if !ok {
		return
	}
	if bar.Suspended {
		return
	}
	pos.CurrentPrice = bar.Close
}

// riskPositions snapshots the portfolio's held positions into the shape
// internal/risk needs, reusing the same current-price marks the ledger
// already carries.
func (p *portfolio) riskPositions() []risk.Position {
	out := make([]risk.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, risk.Position{
			Symbol:       pos.Symbol,
			Shares:       pos.Shares,
			AvgCost:      pos.AvgCost,
			CurrentPrice: pos.CurrentPrice,
		})
	}
	return out
}

// applyFill commits a matching.Fill to the ledger: cash moves by
// NetCashDelta, and a buy opens (or a sell fully closes) the symbol's
// position. Strategy buys only ever execute while no position is held
// (spec.md §9 decision (a), no pyramiding), and every sell this engine
// issues is full-size, so partial-position bookkeeping is never needed.
func (p *portfolio) applyFill(f *matching.Fill) {
	p.cash += f.NetCashDelta
	switch f.Side {
	case rules.Buy:
		p.positions[f.Symbol] = &position{
			Symbol:       f.Symbol,
			Shares:       f.Shares,
			AvgCost:      f.Price,
			AcquiredOn:   f.Date,
			CurrentPrice: f.Price,
		}
	case rules.Sell:
		delete(p.positions, f.Symbol)
	}
}
