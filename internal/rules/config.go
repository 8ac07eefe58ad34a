package rules

// BoardConfig is the declarative per-board layer: which symbols belong to
// it, its price-limit policy, lot size, and whether an authorization flag is
// required to trade it (e.g. star/GEM investor-qualification boards).
type BoardConfig struct {
	Board                 string         `json:"board" validate:"required"`
	StockCodePattern      string         `json:"stock_code_pattern,omitempty"`
	PriceLimits           PriceLimitRule `json:"price_limits" validate:"required"`
	AuthorizationRequired bool           `json:"authorization_required,omitempty"`
	LotSize               int            `json:"lot_size" validate:"required,gt=0"`
}

// PriceLimitRule carries the default percent band plus an optional IPO
// exception window during which the band differs (or is absent entirely).
type PriceLimitRule struct {
	Default      PriceLimitBand `json:"default" validate:"required"`
	IPOException *IPOException  `json:"ipo_exception,omitempty"`
}

// PriceLimitBand is a symmetric-or-asymmetric percent band around prev_close.
// Nil fields mean "no bound in that direction".
type PriceLimitBand struct {
	UpLimitPct   *float64 `json:"up_limit_pct,omitempty"`
	DownLimitPct *float64 `json:"down_limit_pct,omitempty"`
}

// IPOException overrides PriceLimitBand for a stock's first N trading days.
// A nil UpLimitPct/DownLimitPct within the override means "no bound" for
// that first-N window, distinct from "use the default band".
type IPOException struct {
	FirstNDays   int      `json:"first_n_days" validate:"required,gt=0"`
	UpLimitPct   *float64 `json:"up_limit_pct,omitempty"`
	DownLimitPct *float64 `json:"down_limit_pct,omitempty"`
}

// MarketConfig is the declarative per-market layer: settlement horizon,
// currency, and the base commission schedule.
type MarketConfig struct {
	Market           string         `json:"market" validate:"required"`
	SettlementPeriod int            `json:"settlement_period" validate:"gte=0"`
	Currency         string         `json:"currency" validate:"required"`
	TradingHours     string         `json:"trading_hours,omitempty"`
	Commission       CommissionBase `json:"commission" validate:"required"`
}

// CommissionBase is the market-level commission schedule; board and channel
// layers may add to it but never replace it.
type CommissionBase struct {
	BrokerRate      float64 `json:"broker_rate" validate:"gte=0"`
	MinBrokerFee    float64 `json:"min_broker_fee" validate:"gte=0"`
	StampTaxRate    float64 `json:"stamp_tax_rate" validate:"gte=0"`
	TransferFeeRate float64 `json:"transfer_fee_rate" validate:"gte=0"`
}

// ChannelConfig is the declarative per-channel layer: which markets it
// applies to, additional commission components, and trading-rule overrides
// (e.g. CONNECT's T+0 trading / T+2 cash-settlement split).
type ChannelConfig struct {
	Channel           string               `json:"channel" validate:"required"`
	ApplicableMarkets []string             `json:"applicable_markets" validate:"required,min=1"`
	Commission        ChannelCommission    `json:"commission,omitempty"`
	TradingRules      TradingRuleOverrides `json:"trading_rules,omitempty"`
}

// ChannelCommission adds channel-specific fees (e.g. currency conversion).
type ChannelCommission struct {
	Additional map[string]float64 `json:"additional,omitempty"`
}

// TradingRuleOverrides lets a channel override the market's base trading
// settlement horizon, e.g. HK Stock Connect trades T+0 but cash-settles T+2.
type TradingRuleOverrides struct {
	SettlementPeriodOverride     *int `json:"settlement_period_override,omitempty"`
	CashSettlementPeriodOverride *int `json:"cash_settlement_period_override,omitempty"`
}
