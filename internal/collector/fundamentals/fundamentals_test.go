package fundamentals

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/futusense/futusense/internal/collector"
	"github.com/futusense/futusense/internal/core"
)

func TestFundamentals_ImplementsProvider(t *testing.T) {
	var _ collector.FundamentalsProvider = (*Collector)(nil)
}

func TestCompact(t *testing.T) {
	modules := map[string]RawModule{
		core.ModuleInventory: {
			Summary: "social inventory",
			Series: []core.SeriesPoint{
				{Date: "2026-08-25", Value: 120000},
				{Date: "2026-08-26", Value: 118000},
			},
		},
		core.ModuleSpotBasis: {
			Series: []core.SeriesPoint{
				{Date: "2026-08-26", Value: 35.5},
			},
		},
		core.ModuleRollYield: {},
	}

	snap := Compact("2026-08-27", modules)

	if snap.Status != core.StatusOK || snap.AsOf != "2026-08-27" {
		t.Fatalf("snapshot = %+v", snap)
	}

	inv := snap.Modules[core.ModuleInventory]
	if inv.Status != core.StatusOK {
		t.Errorf("inventory status = %v", inv.Status)
	}
	if inv.Hint != "latest 1.18e+05 (2026-08-26), falling" {
		t.Errorf("inventory hint = %q", inv.Hint)
	}
	if inv.Summary != "social inventory" {
		t.Errorf("inventory summary = %q", inv.Summary)
	}

	basis := snap.Modules[core.ModuleSpotBasis]
	if basis.Hint != "latest 35.5 (2026-08-26)" {
		t.Errorf("basis hint = %q, single point has no direction", basis.Hint)
	}

	if snap.Modules[core.ModuleRollYield].Status != core.StatusUnavailable {
		t.Errorf("empty module should stay visible as unavailable")
	}
}

func TestCompactCapsSeries(t *testing.T) {
	series := make([]core.SeriesPoint, 50)
	for i := range series {
		series[i] = core.SeriesPoint{Date: "2026-08-27", Value: float64(i)}
	}

	snap := Compact("2026-08-27", map[string]RawModule{"inventory": {Series: series}})
	got := snap.Modules["inventory"].Series
	if len(got) != maxSeriesPoints {
		t.Fatalf("len(series) = %d, want %d", len(got), maxSeriesPoints)
	}
	if got[len(got)-1].Value != 49 {
		t.Errorf("cap must keep the newest points, last = %v", got[len(got)-1].Value)
	}
}

func TestCompactEmpty(t *testing.T) {
	snap := Compact("2026-08-27", nil)
	if snap.Status != core.StatusUnavailable {
		t.Errorf("status = %v, want unavailable with no modules", snap.Status)
	}
}

func TestFetchFundamentals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/cum") {
			t.Errorf("path = %q, want {code} substituted", r.URL.Path)
		}
		w.Write([]byte(`{
			"asof": "2026-08-27",
			"modules": {
				"inventory": {
					"series": [
						{"date": "2026-08-25", "value": 100},
						{"date": "2026-08-26", "value": 110}
					]
				}
			}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/fundamentals/{code}")
	snap, err := c.FetchFundamentals(context.Background(), core.Symbol{ID: "cu", FeedCode: "cum"})
	if err != nil {
		t.Fatalf("FetchFundamentals: %v", err)
	}
	if !snap.Available() {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Modules["inventory"].Hint != "latest 110 (2026-08-26), rising" {
		t.Errorf("hint = %q", snap.Modules["inventory"].Hint)
	}
}

func TestFetchFundamentalsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL + "/{code}")
	snap, err := c.FetchFundamentals(context.Background(), core.Symbol{ID: "cu", FeedCode: "cum"})
	if !errors.Is(err, core.ErrCollectorFailed) {
		t.Errorf("err = %v, want ErrCollectorFailed", err)
	}
	if snap.Status != core.StatusUnavailable {
		t.Errorf("status = %v", snap.Status)
	}
}
