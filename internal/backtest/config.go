package backtest

import (
	"fmt"

	"github.com/Yukun-Git/stock-pal-sub000/internal/data"
	"github.com/Yukun-Git/stock-pal-sub000/internal/risk"
	"github.com/Yukun-Git/stock-pal-sub000/internal/rules"
	"github.com/Yukun-Git/stock-pal-sub000/internal/strategy"
)

// RunConfig is the invocation contract's config shape (spec.md §6):
// everything run_backtest needs to evaluate one symbol over one date range.
type RunConfig struct {
	Symbol         string      `json:"symbol" validate:"required"`
	StartDate      string      `json:"start_date" validate:"required,len=8,numeric"` // YYYYMMDD
	EndDate        string      `json:"end_date" validate:"required,len=8,numeric"`
	InitialCapital float64     `json:"initial_capital" validate:"required,gt=0"`
	Adjust         data.Adjust `json:"adjust,omitempty" validate:"omitempty,oneof=raw qfq hfq"`

	CommissionOverrides *rules.CommissionBase `json:"commission_schedule_overrides,omitempty"`
	// SlippageBps is nil when unconfigured, in which case slippageBps()
	// applies defaultSlippageBps. An explicit 0 is honored as zero slippage
	// rather than coerced to the default.
	SlippageBps *float64 `json:"slippage_bps,omitempty" validate:"omitempty,gte=0"`

	StrategyIDs    []string                   `json:"strategy_ids" validate:"required,min=1"`
	StrategyParams map[string]strategy.Params `json:"strategy_params,omitempty"`
	Combiner       *strategy.CombinerConfig   `json:"combiner,omitempty"`

	RiskConfig risk.Config `json:"risk_config,omitempty"`

	ChannelHint        string `json:"channel_hint,omitempty"`
	InvestorAuthorized *bool  `json:"investor_authorized,omitempty"`

	Seed  int64 `json:"seed,omitempty"` // reserved, unused today
	Debug bool  `json:"debug,omitempty"`
}

func (c *RunConfig) investorAuthorized() bool {
	if c.InvestorAuthorized == nil {
		return true
	}
	return *c.InvestorAuthorized
}

func (c *RunConfig) adjust() data.Adjust {
	if c.Adjust == "" {
		return data.AdjustRaw
	}
	return c.Adjust
}

func (c *RunConfig) channel() string {
	if c.ChannelHint == "" {
		return "DIRECT"
	}
	return c.ChannelHint
}

// defaultSlippageBps applies only when a run leaves slippage_bps unset.
// internal/matching applies no default of its own; it uses whatever value
// slippageBps() resolves.
const defaultSlippageBps = 5

func (c *RunConfig) slippageBps() float64 {
	if c.SlippageBps == nil {
		return defaultSlippageBps
	}
	return *c.SlippageBps
}

// ErrorKind tags the four-kind error taxonomy of spec.md §6/§7.
type ErrorKind string

const (
	ErrInvalidConfig      ErrorKind = "INVALID_CONFIG"
	ErrUnknownSymbol      ErrorKind = "UNKNOWN_SYMBOL"
	ErrNoData             ErrorKind = "NO_DATA"
	ErrAdapterUnavailable ErrorKind = "ADAPTER_UNAVAILABLE"
	ErrCancelled          ErrorKind = "CANCELLED"
	ErrInternal           ErrorKind = "INTERNAL"
)

// RunError is the tagged failure every run_backtest error wraps, letting
// callers distinguish kinds with errors.As rather than string matching.
type RunError struct {
	Kind ErrorKind
	Err  error
}

func (e *RunError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("backtest: %s", e.Kind)
	}
	return fmt.Sprintf("backtest: %s: %v", e.Kind, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

func runErr(kind ErrorKind, err error) *RunError { return &RunError{Kind: kind, Err: err} }
