// Package rules composes the three declarative config layers — market,
// board, channel — into an immutable Ruleset, cached by TradingEnvironment.
// The registry is the only place that knows how layers compose; downstream
// components see only the opaque Ruleset.
package rules

import (
	"math"
	"time"

	"github.com/Yukun-Git/stock-pal-sub000/internal/classifier"
)

// Channel is the access path an investor uses to reach a market.
type Channel string

const (
	ChannelDirect  Channel = "DIRECT"
	ChannelConnect Channel = "CONNECT"
)

// TradingEnvironment is the stable identifier for a composed Ruleset.
type TradingEnvironment struct {
	Market  classifier.Market
	Board   classifier.Board
	Channel Channel
}

// Side distinguishes a buy order from a sell order for rule checks.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// RejectReason tags why validate_order rejected an order. Empty means
// accepted.
type RejectReason string

const (
	Accepted                RejectReason = ""
	RejectAuthorization     RejectReason = "AUTHORIZATION_REQUIRED"
	RejectLotSize           RejectReason = "LOT_SIZE_VIOLATION"
	RejectSuspended         RejectReason = "SUSPENDED"
	RejectSettlementBlocked RejectReason = "SETTLEMENT_BLOCKED"
)

// OrderInput is the minimal shape validate_order needs from a pending order.
// Kept local to this package (rather than importing the orchestrator's
// domain types) so internal/backtest can depend on internal/rules without a
// cycle.
type OrderInput struct {
	Side   Side
	Shares int
}

// BarInput is the minimal per-bar shape validate_order needs.
type BarInput struct {
	Suspended bool
	Volume    int64
}

// PositionInput is the minimal position shape validate_order needs to
// evaluate T+N eligibility for a sell.
type PositionInput struct {
	Exists     bool
	AcquiredOn time.Time
}

// Limits is the resolved (upper, lower) price-limit pair for one bar. A nil
// field means "no bound in that direction".
type Limits struct {
	Upper *float64
	Lower *float64
}

// Commission is the resolved fee breakdown for one fill.
type Commission struct {
	Broker      float64
	StampTax    float64
	TransferFee float64
	ChannelFee  float64
	Total       float64
}

// Ruleset is the composed, immutable view of one TradingEnvironment. It
// never mutates after Registry.Resolve constructs it.
type Ruleset struct {
	env     TradingEnvironment
	market  MarketConfig
	board   BoardConfig
	channel ChannelConfig
	// currencyDecimals is the rounding precision for commission/prices:
	// 2 for CN, 4 for HK/US.
	currencyDecimals int
}

// Environment reports the ruleset's trading environment.
func (r *Ruleset) Environment() TradingEnvironment { return r.env }

// WithCommission returns a copy of the Ruleset with its market-level
// commission schedule replaced by base. Used by the orchestrator to apply a
// run's commission_schedule_overrides without mutating the registry's
// cached, shared Ruleset.
func (r *Ruleset) WithCommission(base CommissionBase) *Ruleset {
	cp := *r
	cp.market.Commission = base
	return &cp
}

// LotSize returns the board's minimum tradable share multiple.
func (r *Ruleset) LotSize() int { return r.board.LotSize }

// CurrencyDecimals returns the rounding precision for money values in this
// ruleset's currency: 2 for CN, 4 for HK/US. Exposed so internal/matching can
// round execution prices and gross amounts the same way Commission and
// PriceLimits already round internally.
func (r *Ruleset) CurrencyDecimals() int { return r.currencyDecimals }

// SettlementHorizon returns the *trading* settlement horizon in days — the
// number of trading days after a buy before the resulting position is
// eligible for sale. A channel override (e.g. Stock Connect's T+0 trading)
// takes precedence over the market default.
func (r *Ruleset) SettlementHorizon() int {
	if o := r.channel.TradingRules.SettlementPeriodOverride; o != nil {
		return *o
	}
	return r.market.SettlementPeriod
}

// CashSettlementHorizon returns the cash-settlement horizon in days. This is
// informational only — it is echoed into run metadata but is never enforced
// against sell eligibility, which uses SettlementHorizon exclusively.
func (r *Ruleset) CashSettlementHorizon() int {
	if o := r.channel.TradingRules.CashSettlementPeriodOverride; o != nil {
		return *o
	}
	return r.market.SettlementPeriod
}

// PriceLimits resolves the (upper, lower) bound pair given prevClose and the
// stock's age in trading days since IPO. The very first bar has no
// prevClose and price-limit checks are disabled entirely by the caller
// (internal/matching), not here.
func (r *Ruleset) PriceLimits(prevClose float64, ipoAgeDays int) Limits {
	band := r.board.PriceLimits.Default
	if exc := r.board.PriceLimits.IPOException; exc != nil && ipoAgeDays < exc.FirstNDays {
		band = PriceLimitBand{UpLimitPct: exc.UpLimitPct, DownLimitPct: exc.DownLimitPct}
	}
	var lim Limits
	if band.UpLimitPct != nil {
		u := round(prevClose*(1+*band.UpLimitPct), r.currencyDecimals)
		lim.Upper = &u
	}
	if band.DownLimitPct != nil {
		d := round(prevClose*(1-*band.DownLimitPct), r.currencyDecimals)
		lim.Lower = &d
	}
	return lim
}

// Commission computes the fee breakdown for one fill. Stamp tax applies to
// sells only (CN convention); transfer fee and channel fees are additive
// on top of the market's broker commission, each floored by its own minimum
// where applicable.
func (r *Ruleset) Commission(side Side, grossAmount float64) Commission {
	c := Commission{}
	c.Broker = math.Max(grossAmount*r.market.Commission.BrokerRate, r.market.Commission.MinBrokerFee)
	if side == Sell {
		c.StampTax = grossAmount * r.market.Commission.StampTaxRate
	}
	c.TransferFee = grossAmount * r.market.Commission.TransferFeeRate
	for _, v := range r.channel.Commission.Additional {
		c.ChannelFee += grossAmount * v
	}
	c.Broker = round(c.Broker, r.currencyDecimals)
	c.StampTax = round(c.StampTax, r.currencyDecimals)
	c.TransferFee = round(c.TransferFee, r.currencyDecimals)
	c.ChannelFee = round(c.ChannelFee, r.currencyDecimals)
	c.Total = round(c.Broker+c.StampTax+c.TransferFee+c.ChannelFee, r.currencyDecimals)
	return c
}

// ValidateOrder runs every layer's order-side check: board authorization,
// suspension, lot-size multiples, and — for sells — T+N settlement
// eligibility. Checks run in that order; the first failure rejects.
// tradingDaysHeld is the number of trading days elapsed since the owning
// position's acquired_on (computed by the caller via internal/calendar,
// since this package has no calendar dependency); it is ignored for buys.
func (r *Ruleset) ValidateOrder(order OrderInput, position PositionInput, bar BarInput, investorAuthorized bool, tradingDaysHeld int) RejectReason {
	if r.board.AuthorizationRequired && !investorAuthorized {
		return RejectAuthorization
	}
	if bar.Suspended || bar.Volume == 0 {
		return RejectSuspended
	}
	if order.Shares <= 0 || order.Shares%r.board.LotSize != 0 {
		return RejectLotSize
	}
	if order.Side == Sell && position.Exists {
		horizon := r.SettlementHorizon()
		if horizon > 0 && tradingDaysHeld < horizon {
			return RejectSettlementBlocked
		}
	}
	return Accepted
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	if v >= 0 {
		return math.Floor(v*scale+0.5) / scale
	}
	return math.Ceil(v*scale-0.5) / scale
}
