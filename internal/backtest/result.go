package backtest

import "time"

// Fill is one executed trade, durable on the RunResult. Mirrors
// matching.Fill's fields with JSON tags for the stable envelope of
// spec.md §6.
type Fill struct {
	Date         time.Time `json:"date"`
	Symbol       string    `json:"symbol"`
	Side         string    `json:"side"`
	Shares       int       `json:"shares"`
	Price        float64   `json:"price"`
	GrossAmount  float64   `json:"gross_amount"`
	Commission   float64   `json:"commission"`
	Taxes        float64   `json:"taxes"`
	NetCashDelta float64   `json:"net_cash_delta"`
	Reason       string    `json:"reason,omitempty"`
	Origin       string    `json:"origin"`
}

// EquitySample is one bar's end-of-bar mark, per spec.md §4.8 step 5.
type EquitySample struct {
	Date          time.Time `json:"date"`
	Equity        float64   `json:"equity"`
	Cash          float64   `json:"cash"`
	PositionValue float64   `json:"position_value"`
}

// RiskEvent records a per-order outcome that never aborts a run: a
// rejection from rules.ValidateOrder or matching.Match, surfaced for the
// caller rather than thrown.
type RiskEvent struct {
	Date    time.Time `json:"date"`
	Kind    string    `json:"kind"` // ORDER_REJECTED
	Subkind string    `json:"subkind"`
	Symbol  string    `json:"symbol"`
	Detail  string    `json:"detail,omitempty"`
}

// Metrics is the once-per-run computation over the final equity series and
// fills (spec.md §4.8). Ratios with an undefined denominator are nil, never
// NaN or ±Inf.
type Metrics struct {
	TotalReturn float64  `json:"total_return"`
	CAGR        *float64 `json:"cagr"`
	Volatility  *float64 `json:"volatility"`

	MaxDrawdown         float64 `json:"max_drawdown"`
	MaxDrawdownDuration int     `json:"max_drawdown_duration"`

	Sharpe  *float64 `json:"sharpe"`
	Sortino *float64 `json:"sortino"`
	Calmar  *float64 `json:"calmar"`

	WinRate          *float64 `json:"win_rate"`
	ProfitFactor     *float64 `json:"profit_factor"`
	AvgHoldingPeriod *float64 `json:"avg_holding_period"`
	Turnover         *float64 `json:"turnover"`
}

// Metadata carries run bookkeeping that isn't itself a trading metric.
type Metadata struct {
	ExecutionTimeMs          int64  `json:"execution_time_ms"`
	AdapterUsed              string `json:"adapter_used"`
	AdapterSwitchedDuringRun bool   `json:"adapter_switched_during_run"`
	Cancelled                bool   `json:"cancelled"`

	// SettlementHorizonDays/CashSettlementHorizonDays are informational
	// echoes of the resolved ruleset's two settlement horizons. Only
	// SettlementHorizonDays (trading) is enforced against sell eligibility;
	// CashSettlementHorizonDays is never checked by this engine.
	SettlementHorizonDays     int `json:"settlement_horizon_days"`
	CashSettlementHorizonDays int `json:"cash_settlement_horizon_days"`
}

// RunResult is the stable JSON envelope of spec.md §6, returned by every
// successful call to Engine.Run.
type RunResult struct {
	RunID         string    `json:"run_id"`
	EngineVersion string    `json:"engine_version"`
	ConfigEcho    RunConfig `json:"config_echo"`

	Metrics     Metrics        `json:"metrics"`
	Fills       []Fill         `json:"fills"`
	EquityCurve []EquitySample `json:"equity_curve"`
	RiskEvents  []RiskEvent    `json:"risk_events"`
	Metadata    Metadata       `json:"metadata"`
}

// EngineVersion is echoed into every RunResult and bumped on any change to
// the per-bar state machine or metrics formulas that could alter output for
// identical inputs.
const EngineVersion = "0.1.0"
