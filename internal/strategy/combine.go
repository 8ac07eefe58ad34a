package strategy

import (
	"fmt"

	"github.com/Knetic/govaluate"
)

// CombinerKind names the declared way multiple strategies' signals merge.
type CombinerKind string

const (
	CombineAND      CombinerKind = "AND"
	CombineOR       CombinerKind = "OR"
	CombineVOTE     CombinerKind = "VOTE"
	CombineWEIGHTED CombinerKind = "WEIGHTED"
)

// CombinerConfig declares how to merge several strategies' per-bar signals
// into one. VoteThreshold applies to VOTE; Weights and ThresholdExpr apply
// to WEIGHTED.
type CombinerConfig struct {
	Kind          CombinerKind
	VoteThreshold int
	Weights       []float64
	ThresholdExpr string
}

// Combine merges len(signalSets) aligned signal sequences into one sequence
// of the same length, per cfg.Kind. Ties resolve sell-wins (spec.md §4.5):
// if a bar's combined result asserts both buy and sell, sell alone survives.
func Combine(cfg CombinerConfig, signalSets [][]Signal) ([]Signal, error) {
	if len(signalSets) == 0 {
		return nil, fmt.Errorf("strategy: combine requires at least one signal set")
	}
	n := len(signalSets[0])
	for _, s := range signalSets {
		if len(s) != n {
			return nil, fmt.Errorf("strategy: combine requires aligned signal sets")
		}
	}

	out := make([]Signal, n)
	for i := 0; i < n; i++ {
		var buy, sell bool
		var err error
		switch cfg.Kind {
		case CombineAND:
			buy, sell = combineAND(signalSets, i)
		case CombineOR:
			buy, sell = combineOR(signalSets, i)
		case CombineVOTE:
			buy, sell = combineVote(signalSets, i, cfg.VoteThreshold)
		case CombineWEIGHTED:
			buy, sell, err = combineWeighted(signalSets, i, cfg.Weights, cfg.ThresholdExpr)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("strategy: unknown combiner kind %q", cfg.Kind)
		}
		if buy && sell {
			buy = false // sell wins (risk-first policy)
		}
		out[i] = Signal{Buy: buy, Sell: sell}
	}
	return out, nil
}

func combineAND(sets [][]Signal, i int) (buy, sell bool) {
	buy = true
	for _, s := range sets {
		if !s[i].Buy {
			buy = false
		}
		if s[i].Sell {
			sell = true
		}
	}
	return buy, sell
}

func combineOR(sets [][]Signal, i int) (buy, sell bool) {
	sell = true
	for _, s := range sets {
		if s[i].Buy {
			buy = true
		}
		if !s[i].Sell {
			sell = false
		}
	}
	return buy, sell
}

func combineVote(sets [][]Signal, i int, k int) (buy, sell bool) {
	var buys, sells int
	for _, s := range sets {
		if s[i].Buy {
			buys++
		}
		if s[i].Sell {
			sells++
		}
	}
	return buys >= k, sells >= k
}

// combineWeighted evaluates a weighted sum of boolean buy/sell signals
// against thresholdExpr via github.com/Knetic/govaluate, the same library
// the teacher used for strike expressions — letting an operator declare
// "weighted_sum >= 0.6"-shaped thresholds in RunConfig without a code
// change.
func combineWeighted(sets [][]Signal, i int, weights []float64, thresholdExpr string) (buy, sell bool, err error) {
	if len(weights) != len(sets) {
		return false, false, fmt.Errorf("strategy: weighted combiner needs one weight per strategy, got %d weights for %d strategies", len(weights), len(sets))
	}
	var buySum, sellSum float64
	for idx, s := range sets {
		if s[i].Buy {
			buySum += weights[idx]
		}
		if s[i].Sell {
			sellSum += weights[idx]
		}
	}

	expr, err := govaluate.NewEvaluableExpression(thresholdExpr)
	if err != nil {
		return false, false, fmt.Errorf("strategy: invalid weighted threshold expression %q: %w", thresholdExpr, err)
	}

	evalBuy, err := evalThreshold(expr, buySum)
	if err != nil {
		return false, false, err
	}
	evalSell, err := evalThreshold(expr, sellSum)
	if err != nil {
		return false, false, err
	}
	return evalBuy, evalSell, nil
}

func evalThreshold(expr *govaluate.EvaluableExpression, weightedSum float64) (bool, error) {
	result, err := expr.Evaluate(map[string]interface{}{"weighted_sum": weightedSum})
	if err != nil {
		return false, fmt.Errorf("strategy: evaluating weighted threshold: %w", err)
	}
	passed, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("strategy: weighted threshold expression must evaluate to a boolean, got %T", result)
	}
	return passed, nil
}
