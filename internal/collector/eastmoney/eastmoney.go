// Package eastmoney fetches daily kline bars from the Eastmoney push
// API. Instrument codes are passed through as the API's secid, e.g.
// "113.sapv" for a futures contract.
package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/futusense/futusense/internal/core"
)

const defaultEndpoint = "https://push2his.eastmoney.com/api/qt/stock/kline/get"

// Collector implements collector.PriceProvider against Eastmoney.
type Collector struct {
	client   *http.Client
	endpoint string
}

// New creates an Eastmoney collector. An empty endpoint uses the
// public API.
func New(endpoint string) *Collector {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Collector{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
	}
}

func (c *Collector) Name() string {
	return "eastmoney"
}

// FetchBars fetches up to lookbackDays of daily bars ending today.
func (c *Collector) FetchBars(ctx context.Context, code string, lookbackDays int) ([]core.Bar, error) {
	if lookbackDays <= 0 {
		lookbackDays = 180
	}
	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)

	url := fmt.Sprintf("%s?secid=%s&klt=101&fqt=1&beg=%s&end=%s&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56,f57,f58",
		c.endpoint, code,
		start.Format("20060102"),
		end.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building kline request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrCollectorFailed,
			fmt.Errorf("kline status %d for %s", resp.StatusCode, code))
	}

	var result klineResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding kline response: %w", err)
	}
	if result.Data == nil || len(result.Data.Klines) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no kline data for %s", code))
	}

	bars := make([]core.Bar, 0, len(result.Data.Klines))
	for _, line := range result.Data.Klines {
		if b, ok := parseKline(line); ok {
			bars = append(bars, b)
		}
	}
	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no parseable kline rows for %s", code))
	}
	return bars, nil
}

// parseKline parses one "date,open,close,high,low,volume[,amount[,oi]]"
// row. Rows with a malformed date or close are skipped.
func parseKline(line string) (core.Bar, bool) {
	fields := strings.Split(line, ",")
	if len(fields) < 6 || len(fields[0]) != 10 {
		return core.Bar{}, false
	}
	open, _ := strconv.ParseFloat(fields[1], 64)
	closePrice, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || closePrice <= 0 {
		return core.Bar{}, false
	}
	high, _ := strconv.ParseFloat(fields[3], 64)
	low, _ := strconv.ParseFloat(fields[4], 64)
	volume, _ := strconv.ParseInt(fields[5], 10, 64)

	bar := core.Bar{
		Date:   fields[0],
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}
	if len(fields) >= 8 {
		bar.OpenInterest, _ = strconv.ParseInt(fields[7], 10, 64)
	}
	return bar, true
}

type klineResponse struct {
	Data *klineData `json:"data"`
}

type klineData struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Klines []string `json:"klines"`
}
