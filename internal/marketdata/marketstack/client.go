// Package marketstack implements the external-API ingestion source against
// a Marketstack-style intraday endpoint.
package marketstack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"marketpulse/internal/model"
)

const defaultTimeout = 12 * time.Second

// Config configures the intraday API client.
type Config struct {
	BaseURL string // e.g. "https://api.marketstack.com/v1"
	APIKey  string
}

// Client fetches intraday OHLCV rows over HTTP. It implements
// marketdata.Source. One request per (symbol, interval, limit); retries are
// the fetcher's concern, not the client's.
type Client struct {
	cfg    Config
	client *http.Client
}

// New creates a Client with the fixed per-attempt timeout.
func New(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// intradayRow mirrors one upstream payload row. Pointer fields distinguish
// missing keys from zero values so malformed rows can be dropped instead of
// defaulted.
type intradayRow struct {
	Date   string   `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

type intradayResponse struct {
	Data []intradayRow `json:"data"`
}

// Bars requests up to limit bars for the symbol at the given interval,
// ascending by time. An empty slice is a normal outcome (market closed,
// unsupported granularity at the account tier, unknown symbol).
func (c *Client) Bars(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("access_key", c.cfg.APIKey)
	q.Set("symbols", symbol)
	q.Set("interval", string(tf))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", "ASC")

	u := fmt.Sprintf("%s/intraday?%s", c.cfg.BaseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("marketstack http %d", res.StatusCode)
	}

	var body intradayResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("marketstack decode: %w", err)
	}

	bars := make([]model.Bar, 0, len(body.Data))
	for _, row := range body.Data {
		// Rows lacking required OHLC fields are dropped, not zero-filled.
		if row.Open == nil || row.High == nil || row.Low == nil || row.Close == nil {
			continue
		}
		ts, err := parseTS(row.Date)
		if err != nil {
			continue
		}
		b := model.Bar{
			TS:    ts.UTC(),
			Open:  *row.Open,
			High:  *row.High,
			Low:   *row.Low,
			Close: *row.Close,
		}
		if row.Volume != nil {
			b.Volume = *row.Volume
		}
		if !b.Valid() {
			continue
		}
		b.Normalize()
		bars = append(bars, b)
	}

	// Upstream is asked for ascending order but sorted defensively anyway.
	sort.Slice(bars, func(i, j int) bool { return bars[i].TS.Before(bars[j].TS) })
	return bars, nil
}

// parseTS handles the upstream timestamp variants.
func parseTS(s string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02T15:04:05-0700",
		time.RFC3339,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
