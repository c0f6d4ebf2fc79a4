// Package fundamentals fetches raw per-symbol fundamentals modules
// from a JSON endpoint and compacts them to the status-plus-hint shape
// the market agent prompt consumes.
package fundamentals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/futusense/futusense/internal/core"
)

const maxSeriesPoints = 30

// Collector implements collector.FundamentalsProvider over a JSON
// endpoint. The endpoint URL may carry a {code} slot substituted with
// the symbol's feed code.
type Collector struct {
	client   *http.Client
	endpoint string
}

// New creates a fundamentals collector for the given endpoint.
func New(endpoint string) *Collector {
	return &Collector{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
	}
}

func (c *Collector) Name() string {
	return "fundamentals"
}

// RawModule is one module's upstream payload before compaction.
type RawModule struct {
	Summary string             `json:"summary"`
	Series  []core.SeriesPoint `json:"series"`
}

type rawSnapshot struct {
	AsOf    string               `json:"asof"`
	Modules map[string]RawModule `json:"modules"`
}

// FetchFundamentals fetches and compacts the modules for one symbol.
func (c *Collector) FetchFundamentals(ctx context.Context, symbol core.Symbol) (core.FundamentalsSnapshot, error) {
	url := strings.ReplaceAll(c.endpoint, "{code}", symbol.FeedCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.FundamentalsSnapshot{Status: core.StatusUnavailable}, fmt.Errorf("building fundamentals request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return core.FundamentalsSnapshot{Status: core.StatusUnavailable},
			core.WrapError(core.ErrCollectorFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.FundamentalsSnapshot{Status: core.StatusUnavailable},
			core.WrapError(core.ErrCollectorFailed,
				fmt.Errorf("fundamentals status %d for %s", resp.StatusCode, symbol.ID))
	}

	var raw rawSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return core.FundamentalsSnapshot{Status: core.StatusUnavailable},
			fmt.Errorf("decoding fundamentals response: %w", err)
	}

	return Compact(raw.AsOf, raw.Modules), nil
}

// Compact reduces raw module payloads to per-module status plus a
// latest-value hint. Modules with no series are kept as unavailable so
// their absence is visible downstream.
func Compact(asof string, modules map[string]RawModule) core.FundamentalsSnapshot {
	snap := core.FundamentalsSnapshot{
		Status:  core.StatusOK,
		AsOf:    asof,
		Modules: make(map[string]core.FundamentalsModule, len(modules)),
	}

	for name, raw := range modules {
		if len(raw.Series) == 0 {
			snap.Modules[name] = core.FundamentalsModule{Status: core.StatusUnavailable}
			continue
		}

		series := raw.Series
		if len(series) > maxSeriesPoints {
			series = series[len(series)-maxSeriesPoints:]
		}
		latest := series[len(series)-1]

		hint := fmt.Sprintf("latest %.4g (%s)", latest.Value, latest.Date)
		if len(series) >= 2 {
			prev := series[len(series)-2]
			switch {
			case latest.Value > prev.Value:
				hint += ", rising"
			case latest.Value < prev.Value:
				hint += ", falling"
			default:
				hint += ", flat"
			}
		}

		snap.Modules[name] = core.FundamentalsModule{
			Status:  core.StatusOK,
			Hint:    hint,
			Summary: raw.Summary,
			Series:  series,
		}
	}

	if len(snap.Modules) == 0 {
		snap.Status = core.StatusUnavailable
	}
	return snap
}
