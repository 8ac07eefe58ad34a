// Package strategy defines the Strategy contract, a library of pure
// per-series indicators, a handful of reference strategies built on them,
// and the signal combiners that let an operator run several strategies at
// once.
package strategy

import (
	"fmt"

	"github.com/Yukun-Git/stock-pal-sub000/internal/data"
)

// ParamKind tags the declared type of one strategy parameter.
type ParamKind string

const (
	ParamInteger ParamKind = "integer"
	ParamFloat   ParamKind = "float"
	ParamBoolean ParamKind = "boolean"
	ParamEnum    ParamKind = "enum"
)

// Param describes one typed, ranged strategy parameter for discovery by
// operators. The orchestrator does not check run parameters against it;
// strategies fall back to their defaults for absent or wrong-typed values.
type Param struct {
	Name        string
	Kind        ParamKind
	Default     interface{}
	Min         interface{}
	Max         interface{}
	Enum        []string
	Description string
}

// Params is the resolved parameter bag a strategy evaluates with.
type Params map[string]interface{}

// Float returns params[key] as a float64, or def if absent/wrong-typed.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// Int returns params[key] as an int, or def if absent/wrong-typed.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return def
}

// Signal is the (buy, sell) decision pair for one bar.
type Signal struct {
	Buy  bool
	Sell bool
}

// AnalysisStatus is the coarse status returned by AnalyzeCurrentSignal.
type AnalysisStatus string

const (
	StatusNearBuy  AnalysisStatus = "NEAR_BUY"
	StatusNearSell AnalysisStatus = "NEAR_SELL"
	StatusNeutral  AnalysisStatus = "NEUTRAL"
)

// CurrentSignalAnalysis is the optional richer view a strategy may expose
// for surrounding (out-of-core) UI; the core itself never depends on it.
type CurrentSignalAnalysis struct {
	Status     AnalysisStatus
	Proximity  float64
	Indicators map[string]float64
	Suggestion string
}

// Strategy is a pure decision engine: same bars + params always produce the
// same signal sequence, with no look-ahead — GenerateSignals[i] may consult
// bars[0..i] but never bars[i+1..].
type Strategy interface {
	ID() string
	Parameters() []Param
	GenerateSignals(bars []data.Bar, params Params) ([]Signal, error)
}

// CurrentSignalAnalyzer is implemented by strategies that can additionally
// summarize where the latest bar sits relative to a pending signal. Optional
// — the core's backtest loop never calls it.
type CurrentSignalAnalyzer interface {
	AnalyzeCurrentSignal(barsUpToNow []data.Bar, params Params) (CurrentSignalAnalysis, error)
}

// ErrInsufficientHistory reports a bar history shorter than the lookback a
// strategy's parameters require. The built-in strategies do not return it:
// on a short history they emit no signals for bars inside the warm-up
// window.
var ErrInsufficientHistory = fmt.Errorf("strategy: insufficient bar history for requested parameters")

// Registry is a simple name-keyed lookup of built-in strategies, exercised
// by cmd/backtest's "strategies" subcommand.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds a Registry pre-populated with the reference strategies.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	for _, s := range []Strategy{
		&MACrossoverStrategy{},
		&RSIStrategy{},
		&BollingerBreakoutStrategy{},
	} {
		r.strategies[s.ID()] = s
	}
	return r
}

// Get returns the strategy registered under id, or false if unregistered.
func (r *Registry) Get(id string) (Strategy, bool) {
	s, ok := r.strategies[id]
	return s, ok
}

// List returns every registered strategy, for discovery.
func (r *Registry) List() []Strategy {
	out := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		out = append(out, s)
	}
	return out
}
