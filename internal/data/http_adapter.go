package data

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Yukun-Git/stock-pal-sub000/internal/logger"
)

// HTTPAdapter is a thin JSON-over-HTTP reference adapter, grounded on the
// teacher's massiveDataProvider HTTP-client construction
// (TLSHandshakeTimeout/ResponseHeaderTimeout/retry-on-429), rebuilt on
// go-resty/resty/v2 instead of a raw http.Client — resty's built-in
// retry/timeout configuration covers the same ground the teacher hand-rolled
// in processGetRequest's rate-limit sleep loop.
type HTTPAdapter struct {
	client  *resty.Client
	baseURL string
	name    string
}

type ohlcvResponse struct {
	Bars []struct {
		Date      string  `json:"date"`
		Open      float64 `json:"open"`
		High      float64 `json:"high"`
		Low       float64 `json:"low"`
		Close     float64 `json:"close"`
		Volume    int64   `json:"volume"`
		Suspended bool    `json:"suspended"`
	} `json:"bars"`
}

type stockInfoResponse struct {
	Name     string `json:"name"`
	IPODate  string `json:"ipo_date"`
	Exchange string `json:"exchange"`
}

// NewHTTPAdapter builds a resty-backed adapter against baseURL. name
// identifies this adapter instance for selector bookkeeping (an operator may
// configure several HTTPAdapters against different upstreams).
func NewHTTPAdapter(name, baseURL string) *HTTPAdapter {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second)

	return &HTTPAdapter{client: client, baseURL: baseURL, name: name}
}

func (a *HTTPAdapter) Name() string { return a.name }

func (a *HTTPAdapter) GetOHLCV(ctx context.Context, symbol string, start, end time.Time, adjust Adjust) ([]Bar, error) {
	var out ohlcvResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"start":  start.Format("20060102"),
			"end":    end.Format("20060102"),
			"adjust": string(adjust),
		}).
		SetResult(&out).
		Get(a.baseURL + "/ohlcv")
	if err != nil {
		return nil, &FetchError{Kind: FailNetwork, Err: err}
	}
	if resp.IsError() {
		logger.Errorf("data: %s GetOHLCV %s returned status %d", a.name, symbol, resp.StatusCode())
		return nil, &FetchError{Kind: FailNetwork, Err: fmt.Errorf("status %d", resp.StatusCode())}
	}

	bars := make([]Bar, 0, len(out.Bars))
	var prevClose float64
	for i, b := range out.Bars {
		d, err := time.Parse("2006-01-02", b.Date)
		if err != nil {
			return nil, &FetchError{Kind: FailParse, Err: err}
		}
		pc := prevClose
		if i == 0 {
			pc = b.Open
		}
		bars = append(bars, Bar{
			Date: d, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close,
			Volume: b.Volume, PrevClose: pc, Suspended: b.Suspended,
		})
		prevClose = b.Close
	}
	if len(bars) == 0 {
		return nil, &FetchError{Kind: FailEmpty, Err: fmt.Errorf("no bars for %s in range", symbol)}
	}
	return bars, nil
}

func (a *HTTPAdapter) GetStockInfo(ctx context.Context, symbol string) (StockInfo, error) {
	var out stockInfoResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&out).
		Get(a.baseURL + "/stock_info")
	if err != nil {
		return StockInfo{}, &FetchError{Kind: FailNetwork, Err: err}
	}
	if resp.IsError() {
		return StockInfo{}, &FetchError{Kind: FailNetwork, Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	info := StockInfo{Name: out.Name, Exchange: out.Exchange}
	if out.IPODate != "" {
		if d, err := time.Parse("2006-01-02", out.IPODate); err == nil {
			info.IPODate = d
		}
	}
	return info, nil
}
