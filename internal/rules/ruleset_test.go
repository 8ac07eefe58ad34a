package rules

import (
	"testing"

	"github.com/Yukun-Git/stock-pal-sub000/internal/classifier"
)

func cnMainDirectRegistry(t *testing.T) *Registry {
	t.Helper()
	up, down := 0.10, 0.10
	stampTax := 0.001

	markets := []MarketConfig{{
		Market:           "CN",
		SettlementPeriod: 1,
		Currency:         "CNY",
		Commission: CommissionBase{
			BrokerRate:      0.0003,
			MinBrokerFee:    5,
			StampTaxRate:    stampTax,
			TransferFeeRate: 0,
		},
	}}
	boards := []BoardConfig{{
		Board: "MAIN",
		PriceLimits: PriceLimitRule{
			Default: PriceLimitBand{UpLimitPct: &up, DownLimitPct: &down},
		},
		LotSize: 100,
	}}
	channels := []ChannelConfig{{
		Channel:           "DIRECT",
		ApplicableMarkets: []string{"CN"},
	}}

	reg, err := NewRegistry(markets, boards, channels)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestResolveComposesAndCaches(t *testing.T) {
	reg := cnMainDirectRegistry(t)
	env := TradingEnvironment{Market: classifier.MarketCN, Board: classifier.BoardMain, Channel: ChannelDirect}

	rs1, err := reg.Resolve(env)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	rs2, err := reg.Resolve(env)
	if err != nil {
		t.Fatalf("Resolve (cached): %v", err)
	}
	if rs1 != rs2 {
		t.Fatal("expected cached Ruleset to be the same pointer on second Resolve")
	}
	if rs1.LotSize() != 100 {
		t.Fatalf("LotSize = %d, want 100", rs1.LotSize())
	}
}

func TestResolveUnknownChannelMarketCombination(t *testing.T) {
	reg := cnMainDirectRegistry(t)
	env := TradingEnvironment{Market: classifier.MarketHK, Board: classifier.BoardMain, Channel: ChannelDirect}
	if _, err := reg.Resolve(env); err == nil {
		t.Fatal("expected error for market with no config")
	}
}

func TestPriceLimits(t *testing.T) {
	reg := cnMainDirectRegistry(t)
	rs, _ := reg.Resolve(TradingEnvironment{Market: classifier.MarketCN, Board: classifier.BoardMain, Channel: ChannelDirect})

	lim := rs.PriceLimits(10.0, 999)
	if lim.Upper == nil || *lim.Upper != 11.0 {
		t.Fatalf("upper limit = %v, want 11.0", lim.Upper)
	}
	if lim.Lower == nil || *lim.Lower != 9.0 {
		t.Fatalf("lower limit = %v, want 9.0", lim.Lower)
	}
}

func TestCommissionStampTaxSellOnly(t *testing.T) {
	reg := cnMainDirectRegistry(t)
	rs, _ := reg.Resolve(TradingEnvironment{Market: classifier.MarketCN, Board: classifier.BoardMain, Channel: ChannelDirect})

	buy := rs.Commission(Buy, 100000)
	if buy.StampTax != 0 {
		t.Fatalf("expected no stamp tax on buy, got %v", buy.StampTax)
	}
	sell := rs.Commission(Sell, 100000)
	if sell.StampTax != 100 {
		t.Fatalf("stamp tax on sell = %v, want 100", sell.StampTax)
	}
}

func TestValidateOrderLotSizeAndSettlement(t *testing.T) {
	reg := cnMainDirectRegistry(t)
	rs, _ := reg.Resolve(TradingEnvironment{Market: classifier.MarketCN, Board: classifier.BoardMain, Channel: ChannelDirect})

	bar := BarInput{Suspended: false, Volume: 1_000_000}

	// not a lot multiple
	got := rs.ValidateOrder(OrderInput{Side: Buy, Shares: 150}, PositionInput{}, bar, true, 0)
	if got != RejectLotSize {
		t.Fatalf("expected RejectLotSize, got %v", got)
	}

	// sell same day as acquisition, T+1 required -> blocked
	got = rs.ValidateOrder(OrderInput{Side: Sell, Shares: 100}, PositionInput{Exists: true}, bar, true, 0)
	if got != RejectSettlementBlocked {
		t.Fatalf("expected RejectSettlementBlocked, got %v", got)
	}

	// sell after one trading day held -> accepted
	got = rs.ValidateOrder(OrderInput{Side: Sell, Shares: 100}, PositionInput{Exists: true}, bar, true, 1)
	if got != Accepted {
		t.Fatalf("expected Accepted, got %v", got)
	}

	// suspended bar rejects regardless of side
	got = rs.ValidateOrder(OrderInput{Side: Buy, Shares: 100}, PositionInput{}, BarInput{Suspended: true}, true, 0)
	if got != RejectSuspended {
		t.Fatalf("expected RejectSuspended, got %v", got)
	}
}

func TestSettlementHorizonChannelOverride(t *testing.T) {
	up, down := 0.10, 0.10
	markets := []MarketConfig{{
		Market: "HK", SettlementPeriod: 2, Currency: "HKD",
		Commission: CommissionBase{BrokerRate: 0.001, MinBrokerFee: 0},
	}}
	boards := []BoardConfig{{
		Board:       "MAIN",
		PriceLimits: PriceLimitRule{Default: PriceLimitBand{UpLimitPct: &up, DownLimitPct: &down}},
		LotSize:     1,
	}}
	zero := 0
	twoD := 2
	channels := []ChannelConfig{{
		Channel:           "CONNECT",
		ApplicableMarkets: []string{"HK"},
		TradingRules: TradingRuleOverrides{
			SettlementPeriodOverride:     &zero,
			CashSettlementPeriodOverride: &twoD,
		},
	}}
	reg, err := NewRegistry(markets, boards, channels)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	rs, err := reg.Resolve(TradingEnvironment{Market: classifier.MarketHK, Board: classifier.BoardMain, Channel: "CONNECT"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rs.SettlementHorizon() != 0 {
		t.Fatalf("SettlementHorizon = %d, want 0 (T+0 trading via CONNECT)", rs.SettlementHorizon())
	}
	if rs.CashSettlementHorizon() != 2 {
		t.Fatalf("CashSettlementHorizon = %d, want 2", rs.CashSettlementHorizon())
	}
}
