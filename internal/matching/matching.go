// Package matching turns an accepted order into at most one fill, under
// price-limit, suspension, slippage, lot, commission, and cash-feasibility
// constraints. Grounded on the teacher's simCloseTrade/checkExits ordered-
// guard sequencing (internal/backtest/engine/executor.go), adapted from
// options-premium intrinsic-value math to equity price-limit/lot/commission
// math.
package matching

import (
	"time"

	"github.com/Yukun-Git/stock-pal-sub000/internal/rules"
)

// RejectReason tags why the matching engine produced no fill.
type RejectReason string

const (
	NoReject               RejectReason = ""
	RejectSuspended        RejectReason = "SUSPENDED"
	RejectLimitUp          RejectReason = "LIMIT_UP"
	RejectLimitDown        RejectReason = "LIMIT_DOWN"
	RejectLotTooSmall      RejectReason = "LOT_TOO_SMALL"
	RejectInsufficientCash RejectReason = "INSUFFICIENT_CASH"
)

// Origin distinguishes an order placed by a strategy from one placed by the
// risk manager's forced-exit logic.
type Origin string

const (
	OriginStrategy   Origin = "STRATEGY"
	OriginForcedExit Origin = "FORCED_EXIT"
)

// Order is a pending trade intention. Orders are ephemeral: the matching
// engine never stores one after producing a Fill or a rejection.
type Order struct {
	Symbol         string
	Side           rules.Side
	Shares         int
	ReferencePrice float64
	Origin         Origin
	Reason         string // forced-exit reason (DRAWDOWN_PROTECTION, STOP_LOSS, STOP_PROFIT); empty for strategy orders
}

// Bar is the minimal per-bar shape the matching engine needs to resolve a
// fill: the reference prices, the previous close for price-limit
// computation, and the suspension/volume guard.
type Bar struct {
	Open      float64
	Close     float64
	PrevClose float64
	Volume    int64
	Suspended bool
}

// Fill is the durable trade record the matching engine produces.
type Fill struct {
	Date         time.Time
	Symbol       string
	Side         rules.Side
	Shares       int
	Price        float64
	GrossAmount  float64
	Commission   float64
	Taxes        float64
	NetCashDelta float64
	Reason       string
	Origin       Origin
}

const limitLockEpsilon = 1e-6

// Match implements spec.md §4.6 steps 1-8. availableCash is only consulted
// for BUY orders (step 7's cash-feasibility clip); ipoAgeDays is passed to
// Ruleset.PriceLimits for the IPO-exception window. A zero/negative
// bar.PrevClose marks a symbol's very first bar and disables price-limit
// checks for it, per the edge policy in §4.6.
func Match(order Order, bar Bar, rs *rules.Ruleset, slippageBps float64, ipoAgeDays int, availableCash float64, asOf time.Time) (*Fill, RejectReason) {
	// 1. suspension / zero-volume guard
	if bar.Suspended || bar.Volume == 0 {
		return nil, RejectSuspended
	}

	firstBar := bar.PrevClose <= 0
	var limits rules.Limits
	if !firstBar {
		limits = rs.PriceLimits(bar.PrevClose, ipoAgeDays)
	}

	// 2-3. reference price + slippage. slippageBps is the caller's already-
	// resolved value: whether an unconfigured run defaults to a reference
	// slippage is decided by internal/backtest before calling Match, so an
	// explicit 0 here means zero slippage, not "unset".
	ref := bar.Close
	if order.Origin == OriginForcedExit {
		ref = bar.Open
	}
	var execPrice float64
	if order.Side == rules.Buy {
		execPrice = ref * (1 + slippageBps/10000)
	} else {
		execPrice = ref * (1 - slippageBps/10000)
	}
	execPrice = RoundHalfAwayFromZero(execPrice, rs.CurrencyDecimals())

	// 4. price-limit lock detection
	if !firstBar {
		if order.Side == rules.Buy && limits.Upper != nil {
			locked := execPrice >= *limits.Upper && bar.Close >= *limits.Upper*(1-limitLockEpsilon)
			if locked {
				return nil, RejectLimitUp
			}
		}
		if order.Side == rules.Sell && limits.Lower != nil {
			locked := execPrice <= *limits.Lower && bar.Close <= *limits.Lower*(1+limitLockEpsilon)
			if locked {
				return nil, RejectLimitDown
			}
		}
	}

	// 5. lot rounding
	lot := rs.LotSize()
	sharesFilled := (order.Shares / lot) * lot
	if sharesFilled <= 0 {
		return nil, RejectLotTooSmall
	}

	// 6. commission
	commission := rs.Commission(order.Side, float64(sharesFilled)*execPrice)

	// 7. cash feasibility (buys only)
	if order.Side == rules.Buy {
		cost := float64(sharesFilled)*execPrice + commission.Total
		for cost > availableCash && sharesFilled > 0 {
			sharesFilled -= lot
			if sharesFilled <= 0 {
				return nil, RejectInsufficientCash
			}
			commission = rs.Commission(order.Side, float64(sharesFilled)*execPrice)
			cost = float64(sharesFilled)*execPrice + commission.Total
		}
	}

	gross := RoundHalfAwayFromZero(float64(sharesFilled)*execPrice, rs.CurrencyDecimals())
	taxes := commission.StampTax + commission.TransferFee + commission.ChannelFee
	var netCashDelta float64
	if order.Side == rules.Buy {
		netCashDelta = -(gross + commission.Total)
	} else {
		netCashDelta = gross - commission.Total
	}

	return &Fill{
		Date:         asOf,
		Symbol:       order.Symbol,
		Side:         order.Side,
		Shares:       sharesFilled,
		Price:        execPrice,
		GrossAmount:  gross,
		Commission:   commission.Broker,
		Taxes:        taxes,
		NetCashDelta: netCashDelta,
		Reason:       order.Reason,
		Origin:       order.Origin,
	}, NoReject
}
