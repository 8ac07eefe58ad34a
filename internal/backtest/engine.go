// Package backtest is the trading engine and orchestrator: it wires the
// calendar, classifier, rules registry, data selector, strategy registry,
// and risk manager together and iterates one symbol's bar sequence,
// producing a RunResult. Grounded on the teacher's Engine.Run structure
// (internal/backtest/engine.go / engine/executor.go): fetch bars once,
// compute derived series, resolve a schedule, iterate, assemble a result —
// kept verbatim as the run's shape, with the options-premium simulation
// replaced by the equity ledger/matching/risk pipeline this spec calls for.
package backtest

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Yukun-Git/stock-pal-sub000/internal/calendar"
	"github.com/Yukun-Git/stock-pal-sub000/internal/classifier"
	"github.com/Yukun-Git/stock-pal-sub000/internal/data"
	"github.com/Yukun-Git/stock-pal-sub000/internal/matching"
	"github.com/Yukun-Git/stock-pal-sub000/internal/risk"
	"github.com/Yukun-Git/stock-pal-sub000/internal/rules"
	"github.com/Yukun-Git/stock-pal-sub000/internal/strategy"
)

const dateLayout = "20060102"

var validate = validator.New()

// Engine holds the process-wide, read-mostly collaborators a run needs:
// the trading calendar, the composed rules registry, the data-adapter
// selector, and the strategy library. None of them is mutated by a run
// (spec.md §9); a run owns only its own portfolio and risk manager.
type Engine struct {
	Calendar   *calendar.Calendar
	Rules      *rules.Registry
	Data       *data.Selector
	Strategies *strategy.Registry
}

// NewEngine constructs an Engine from its collaborators.
func NewEngine(cal *calendar.Calendar, reg *rules.Registry, sel *data.Selector, strategies *strategy.Registry) *Engine {
	return &Engine{Calendar: cal, Rules: reg, Data: sel, Strategies: strategies}
}

// nameLookup adapts the data selector's stock-info contract to
// classifier.NameLookup for the ST-override check.
type nameLookup struct {
	sel *data.Selector
	ctx context.Context
}

func (n nameLookup) Name(symbol string) (string, error) {
	info, err := n.sel.GetStockInfo(n.ctx, symbol)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

// Run executes one backtest per spec.md §4.8's five-step per-bar loop and
// returns its RunResult. A cancelled ctx stops bar iteration at the next
// boundary and returns a partial result with metadata.cancelled=true rather
// than an error.
func (e *Engine) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	start := time.Now()

	if err := validate.Struct(cfg); err != nil {
		return nil, runErr(ErrInvalidConfig, err)
	}
	startDate, err := time.Parse(dateLayout, cfg.StartDate)
	if err != nil {
		return nil, runErr(ErrInvalidConfig, fmt.Errorf("start_date: %w", err))
	}
	endDate, err := time.Parse(dateLayout, cfg.EndDate)
	if err != nil {
		return nil, runErr(ErrInvalidConfig, fmt.Errorf("end_date: %w", err))
	}
	if endDate.Before(startDate) {
		return nil, runErr(ErrInvalidConfig, fmt.Errorf("end_date %s precedes start_date %s", cfg.EndDate, cfg.StartDate))
	}
	if len(cfg.StrategyIDs) > 1 && cfg.Combiner == nil {
		return nil, runErr(ErrInvalidConfig, fmt.Errorf("combiner is required when more than one strategy_id is configured"))
	}

	market, board, err := classifier.Classify(cfg.Symbol, nameLookup{sel: e.Data, ctx: ctx})
	if err != nil {
		return nil, runErr(ErrUnknownSymbol, err)
	}

	env := rules.TradingEnvironment{Market: market, Board: board, Channel: rules.Channel(cfg.channel())}
	rs, err := e.Rules.Resolve(env)
	if err != nil {
		return nil, runErr(ErrInvalidConfig, err)
	}
	if cfg.CommissionOverrides != nil {
		rs = rs.WithCommission(*cfg.CommissionOverrides)
	}

	bars, err := e.Data.GetOHLCV(ctx, cfg.Symbol, startDate, endDate, cfg.adjust())
	if err != nil {
		if fe, ok := err.(*data.FetchError); ok {
			switch fe.Kind {
			case data.FailEmpty:
				return nil, runErr(ErrNoData, err)
			default:
				return nil, runErr(ErrAdapterUnavailable, err)
			}
		}
		return nil, runErr(ErrAdapterUnavailable, err)
	}
	if len(bars) == 0 {
		return nil, runErr(ErrNoData, fmt.Errorf("no bars for %s in [%s,%s]", cfg.Symbol, cfg.StartDate, cfg.EndDate))
	}

	signals, err := e.resolveSignals(cfg, bars)
	if err != nil {
		return nil, runErr(ErrInvalidConfig, err)
	}

	stockInfo, err := e.Data.GetStockInfo(ctx, cfg.Symbol)
	ipoDate := stockInfo.IPODate
	if err != nil {
		ipoDate = time.Time{}
	}

	result := e.simulate(ctx, cfg, rs, market, bars, signals, ipoDate)

	result.Metrics = computeMetrics(result.EquityCurve, result.Fills)
	adapterUsed, switched := e.Data.AdapterUsed()
	result.Metadata.AdapterUsed = adapterUsed
	result.Metadata.AdapterSwitchedDuringRun = switched
	result.Metadata.ExecutionTimeMs = time.Since(start).Milliseconds()
	result.Metadata.SettlementHorizonDays = rs.SettlementHorizon()
	result.Metadata.CashSettlementHorizonDays = rs.CashSettlementHorizon()
	result.RunID = runID(cfg, start)
	result.EngineVersion = EngineVersion
	result.ConfigEcho = cfg

	return result, nil
}

// resolveSignals looks up every configured strategy, generates its signal
// sequence over the whole bar series (strategies are pure and
// look-ahead-free, so this is safe to do once up front), and combines them
// when more than one is configured.
func (e *Engine) resolveSignals(cfg RunConfig, bars []data.Bar) ([]strategy.Signal, error) {
	sets := make([][]strategy.Signal, 0, len(cfg.StrategyIDs))
	for _, id := range cfg.StrategyIDs {
		s, ok := e.Strategies.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown strategy_id %q", id)
		}
		params := cfg.StrategyParams[id]
		sig, err := s.GenerateSignals(bars, params)
		if err != nil {
			return nil, fmt.Errorf("strategy %q: %w", id, err)
		}
		sets = append(sets, sig)
	}
	if len(sets) == 1 {
		return sets[0], nil
	}
	return strategy.Combine(*cfg.Combiner, sets)
}

// simulate runs the five-step per-bar state machine of spec.md §4.8 over
// an already-classified, already-signalled bar sequence.
func (e *Engine) simulate(ctx context.Context, cfg RunConfig, rs *rules.Ruleset, market classifier.Market, bars []data.Bar, signals []strategy.Signal, ipoDate time.Time) *RunResult {
	port := newPortfolio(cfg.InitialCapital)
	riskMgr := risk.NewManager(cfg.RiskConfig, cfg.InitialCapital)

	result := &RunResult{}
	symbol := cfg.Symbol
	investorAuthorized := cfg.investorAuthorized()

	for i, b := range bars {
		if ctx.Err() != nil {
			result.Metadata.Cancelled = true
			break
		}

		mb := matching.Bar{Open: b.Open, Close: b.Close, PrevClose: b.PrevClose, Volume: b.Volume, Suspended: b.Suspended}
		ipoAgeDays := 0
		if !ipoDate.IsZero() {
			ipoAgeDays = e.Calendar.TradingDaysBetween(string(market), ipoDate, b.Date)
		} else {
			ipoAgeDays = 1 << 30 // no IPO info: never treat as a fresh listing
		}

		// step 1: mark-to-market
		port.markToMarket(symbol, mb)

		// step 2: forced exits
		forcedExitExecuted := false
		exits := riskMgr.CheckExitSignals(port.riskPositions(), port.equity())
		for _, ex := range exits {
			order := matching.Order{Symbol: ex.Symbol, Side: rules.Sell, Shares: ex.Shares, Origin: matching.OriginForcedExit, Reason: string(ex.Reason)}
			fill, reject := matching.Match(order, mb, rs, cfg.slippageBps(), ipoAgeDays, 0, b.Date)
			if reject != matching.NoReject {
				result.RiskEvents = append(result.RiskEvents, riskEvent(b.Date, ex.Symbol, string(reject), ""))
				continue
			}
			port.applyFill(fill)
			if ex.Symbol == symbol {
				forcedExitExecuted = true
			}
			result.Fills = append(result.Fills, toFill(fill))
		}

		sig := signals[i]

		// step 3: strategy sell
		if sig.Sell {
			if pos, ok := port.positions[symbol]; ok {
				tradingDaysHeld := e.Calendar.TradingDaysBetween(string(market), pos.AcquiredOn, b.Date) - 1
				reject := rs.ValidateOrder(
					rules.OrderInput{Side: rules.Sell, Shares: pos.Shares},
					rules.PositionInput{Exists: true, AcquiredOn: pos.AcquiredOn},
					rules.BarInput{Suspended: b.Suspended, Volume: b.Volume},
					investorAuthorized, tradingDaysHeld,
				)
				if reject != rules.Accepted {
					result.RiskEvents = append(result.RiskEvents, riskEvent(b.Date, symbol, string(reject), ""))
				} else {
					order := matching.Order{Symbol: symbol, Side: rules.Sell, Shares: pos.Shares, Origin: matching.OriginStrategy}
					fill, mreject := matching.Match(order, mb, rs, cfg.slippageBps(), ipoAgeDays, 0, b.Date)
					if mreject != matching.NoReject {
						result.RiskEvents = append(result.RiskEvents, riskEvent(b.Date, symbol, string(mreject), ""))
					} else {
						port.applyFill(fill)
						result.Fills = append(result.Fills, toFill(fill))
					}
				}
			}
		}

		// step 4: strategy buy (ignored while a position exists or a forced
		// exit just fired for this symbol — spec.md §9 decisions (a)/I7)
		if sig.Buy && !forcedExitExecuted {
			if _, holding := port.positions[symbol]; !holding {
				e.tryBuy(cfg, rs, riskMgr, port, symbol, mb, b.Date, ipoAgeDays, result)
			}
		}

		// step 5: equity sample
		equity := port.equity()
		result.EquityCurve = append(result.EquityCurve, EquitySample{
			Date: b.Date, Equity: equity, Cash: port.cash, PositionValue: port.positionValue(),
		})
	}

	return result
}

// tryBuy sizes a strategy buy to the largest lot-multiple affordable under
// available cash, the single-name cap, and the gross-exposure cap, then
// submits it. Sizing honors the caps proactively (spec.md §4.8 step 4) so
// risk.CheckOrderRisk should never reject what sizing already produced;
// it is still consulted as a defensive second gate.
func (e *Engine) tryBuy(cfg RunConfig, rs *rules.Ruleset, riskMgr *risk.Manager, port *portfolio, symbol string, bar matching.Bar, asOf time.Time, ipoAgeDays int, result *RunResult) {
	lot := rs.LotSize()
	refPrice := bar.Close
	if refPrice <= 0 || lot <= 0 {
		return
	}

	maxByCash := int(port.cash/refPrice/float64(lot)) * lot

	equity := port.equity()
	maxByPosition := maxByCash
	if cfg.RiskConfig.MaxPositionPct > 0 && equity > 0 {
		capDollars := equity * cfg.RiskConfig.MaxPositionPct
		capShares := int(capDollars/refPrice/float64(lot)) * lot
		if capShares < maxByPosition {
			maxByPosition = capShares
		}
	}

	maxByExposure := maxByPosition
	if cfg.RiskConfig.MaxTotalExposure > 0 && equity > 0 {
		capDollars := equity*cfg.RiskConfig.MaxTotalExposure - port.positionValue()
		capShares := int(capDollars/refPrice/float64(lot)) * lot
		if capShares < 0 {
			capShares = 0
		}
		if capShares < maxByExposure {
			maxByExposure = capShares
		}
	}

	shares := maxByExposure
	if shares <= 0 {
		return
	}

	reject := riskMgr.CheckOrderRisk(risk.OrderIntent{Symbol: symbol, Shares: shares, ReferencePrice: refPrice}, port.riskPositions(), equity)
	if reject != risk.NoReject {
		result.RiskEvents = append(result.RiskEvents, riskEvent(asOf, symbol, string(reject), ""))
		return
	}

	order := matching.Order{Symbol: symbol, Side: rules.Buy, Shares: shares, Origin: matching.OriginStrategy}
	fill, mreject := matching.Match(order, bar, rs, cfg.slippageBps(), ipoAgeDays, port.cash, asOf)
	if mreject != matching.NoReject {
		result.RiskEvents = append(result.RiskEvents, riskEvent(asOf, symbol, string(mreject), ""))
		return
	}
	port.applyFill(fill)
	result.Fills = append(result.Fills, toFill(fill))
}

func toFill(f *matching.Fill) Fill {
	return Fill{
		Date: f.Date, Symbol: f.Symbol, Side: string(f.Side), Shares: f.Shares,
		Price: f.Price, GrossAmount: f.GrossAmount, Commission: f.Commission,
		Taxes: f.Taxes, NetCashDelta: f.NetCashDelta, Reason: f.Reason, Origin: string(f.Origin),
	}
}

func riskEvent(date time.Time, symbol string, subkind string, detail string) RiskEvent {
	return RiskEvent{Date: date, Kind: "ORDER_REJECTED", Symbol: symbol, Subkind: subkind, Detail: detail}
}

func runID(cfg RunConfig, at time.Time) string {
	b, _ := json.Marshal(cfg)
	h := sha256.Sum256(append(b, []byte(at.Format(time.RFC3339Nano))...))
	return fmt.Sprintf("%x", h)[:16]
}
