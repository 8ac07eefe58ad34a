// Package data defines the uniform OHLCV/stock-info contract the core
// consumes, and the health-tracked failover selector that sits in front of
// whatever concrete adapters are configured.
package data

import (
	"context"
	"time"
)

// Adjust is the price-adjustment convention for a bar fetch.
type Adjust string

const (
	AdjustRaw Adjust = "raw"
	AdjustQFQ Adjust = "qfq" // forward-adjusted
	AdjustHFQ Adjust = "hfq" // backward-adjusted
)

// Bar is one day's OHLCV record for a symbol. PrevClose is filled for every
// bar after the first in a fetched sequence.
type Bar struct {
	Date      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	PrevClose float64
	Suspended bool
}

// StockInfo is the stock-info contract's result shape, used for ST
// detection and IPO-exception windows.
type StockInfo struct {
	Name     string
	IPODate  time.Time
	Exchange string
}

// FailKind tags why a fetch failed, distinguishing transient/partial
// failures the selector can fail over on from a clean "no data in range".
type FailKind string

const (
	FailNetwork FailKind = "network"
	FailParse   FailKind = "parse"
	FailEmpty   FailKind = "empty" // healthy adapter, empty range: NO_DATA, not a selector failover trigger
)

// FetchError wraps a failed fetch with its FailKind.
type FetchError struct {
	Kind FailKind
	Err  error
}

func (e *FetchError) Error() string { return string(e.Kind) + ": " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// Provider is the contract every data-adapter implementation must satisfy.
// Implementations must be pure with respect to their arguments — idempotent
// for a given historical range.
type Provider interface {
	GetOHLCV(ctx context.Context, symbol string, start, end time.Time, adjust Adjust) ([]Bar, error)
	GetStockInfo(ctx context.Context, symbol string) (StockInfo, error)
	// Name identifies the adapter for selector bookkeeping and for
	// RunResult.metadata.adapter_used.
	Name() string
}
