package collector

import (
	"sort"

	"github.com/futusense/futusense/internal/core"
	"github.com/futusense/futusense/internal/indicator"
)

// BuildSnapshot reduces a daily bar series to the scalar view handed
// to the market agent. Bars are sorted by date; the snapshot is taken
// at the last bar on or before the given date. When that bar's date is
// not the requested date the snapshot is marked stale, so a closed
// market still produces a record.
func BuildSnapshot(bars []core.Bar, date string) core.PriceSnapshot {
	if len(bars) == 0 {
		return core.PriceSnapshot{Status: core.StatusUnavailable, Reason: "no price data"}
	}

	sorted := make([]core.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	// Last bar on or before the requested date.
	idx := -1
	for i, b := range sorted {
		if b.Date <= date {
			idx = i
		}
	}
	if idx < 0 {
		return core.PriceSnapshot{Status: core.StatusUnavailable, Reason: "no price data on or before date"}
	}

	window := sorted[:idx+1]
	last := window[idx]
	if last.Close <= 0 {
		return core.PriceSnapshot{Status: core.StatusUnavailable, Reason: "invalid close"}
	}

	closes := make([]float64, len(window))
	volumes := make([]float64, len(window))
	for i, b := range window {
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
	}

	snap := core.PriceSnapshot{
		Status:       core.StatusOK,
		Close:        last.Close,
		MA20:         indicator.TailMean(closes, 20),
		MA60:         indicator.TailMean(closes, 60),
		ATR14:        indicator.ATR(window, 14),
		VolRatio20:   indicator.VolumeRatio(volumes, 20),
		Volume:       last.Volume,
		OpenInterest: last.OpenInterest,
		Date:         last.Date,
		IsStale:      last.Date != date,
	}
	if snap.IsStale {
		snap.Reason = "market closed on requested date"
	}
	if idx > 0 && window[idx-1].Close > 0 {
		pct := (last.Close - window[idx-1].Close) / window[idx-1].Close * 100
		snap.PctChange = &pct
	}
	return snap
}

// TradingDates returns the sorted trading dates present in the series.
func TradingDates(bars []core.Bar) []string {
	dates := make([]string, 0, len(bars))
	for _, b := range bars {
		if b.Date != "" {
			dates = append(dates, b.Date)
		}
	}
	sort.Strings(dates)
	return dates
}
