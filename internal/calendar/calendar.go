// Package calendar answers "is d a trading day" and "what is the next/
// previous trading day" for a market, backed by a pre-fetched, per-market
// sorted date list loaded once at process startup.
package calendar

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Entry is one row of a market's trading-date file.
type Entry struct {
	Date string `json:"date"` // YYYY-MM-DD
}

// Calendar holds a sorted trading-date slice per market. Missing dates —
// including any date beyond the loaded range — are not trading days; the
// calendar never infers forward from weekday arithmetic alone.
type Calendar struct {
	dates map[string][]time.Time // market -> ascending trading dates
}

// New loads one JSON trading-date file per market. Each file is a JSON
// array of Entry objects; files need not be pre-sorted.
func New(marketFiles map[string]string) (*Calendar, error) {
	dates := make(map[string][]time.Time, len(marketFiles))
	for market, path := range marketFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("calendar: read %s trading dates: %w", market, err)
		}
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("calendar: parse %s trading dates: %w", market, err)
		}
		ds := make([]time.Time, 0, len(entries))
		for _, e := range entries {
			d, err := time.Parse(dateLayout, e.Date)
			if err != nil {
				return nil, fmt.Errorf("calendar: %s: bad date %q: %w", market, e.Date, err)
			}
			ds = append(ds, d)
		}
		sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
		dates[market] = ds
	}
	return &Calendar{dates: dates}, nil
}

// NewFromDates builds a Calendar directly from a market->dates map, skipping
// the file read and parse; each market's dates are copied and sorted.
// Intended for tests and for callers that already hold the trading-date set
// in memory.
func NewFromDates(marketDates map[string][]time.Time) *Calendar {
	dates := make(map[string][]time.Time, len(marketDates))
	for market, ds := range marketDates {
		cp := make([]time.Time, len(ds))
		copy(cp, ds)
		sort.Slice(cp, func(i, j int) bool { return cp[i].Before(cp[j]) })
		dates[market] = cp
	}
	return &Calendar{dates: dates}
}

func normalize(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// indexOf returns the position of d in the market's sorted slice, or the
// insertion point and false if d is absent.
func (c *Calendar) indexOf(market string, d time.Time) (int, bool) {
	ds, ok := c.dates[market]
	if !ok {
		return 0, false
	}
	d = normalize(d)
	idx := sort.Search(len(ds), func(i int) bool { return !ds[i].Before(d) })
	if idx < len(ds) && ds[idx].Equal(d) {
		return idx, true
	}
	return idx, false
}

// IsTradingDay reports whether d is a known trading day for market. A market
// with no loaded dates, or a date outside the loaded range, is not a trading
// day — unknown fails closed.
func (c *Calendar) IsTradingDay(market string, d time.Time) bool {
	_, ok := c.indexOf(market, d)
	return ok
}

// NextTradingDay returns the first known trading day strictly after d. It
// returns the zero time if none is loaded.
func (c *Calendar) NextTradingDay(market string, d time.Time) time.Time {
	ds, ok := c.dates[market]
	if !ok {
		return time.Time{}
	}
	idx, exact := c.indexOf(market, d)
	if exact {
		idx++
	}
	if idx >= len(ds) {
		return time.Time{}
	}
	return ds[idx]
}

// PrevTradingDay returns the last known trading day strictly before d. It
// returns the zero time if none is loaded.
func (c *Calendar) PrevTradingDay(market string, d time.Time) time.Time {
	ds, ok := c.dates[market]
	if !ok {
		return time.Time{}
	}
	idx, _ := c.indexOf(market, d)
	idx--
	if idx < 0 {
		return time.Time{}
	}
	return ds[idx]
}

// TradingDaysBetween counts known trading days in [start, end], inclusive.
func (c *Calendar) TradingDaysBetween(market string, start, end time.Time) int {
	ds, ok := c.dates[market]
	if !ok {
		return 0
	}
	start, end = normalize(start), normalize(end)
	lo := sort.Search(len(ds), func(i int) bool { return !ds[i].Before(start) })
	hi := sort.Search(len(ds), func(i int) bool { return ds[i].After(end) })
	if hi < lo {
		return 0
	}
	return hi - lo
}
