package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/futusense/futusense/internal/agent"
	"github.com/futusense/futusense/internal/core"
)

type stubPrice struct {
	bars map[string][]core.Bar
	err  error
}

func (s *stubPrice) Name() string { return "stub" }

func (s *stubPrice) FetchBars(ctx context.Context, code string, lookbackDays int) ([]core.Bar, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.bars[code], nil
}

type stubNews struct {
	items []core.NewsItem
}

func (s *stubNews) Name() string { return "stub" }

func (s *stubNews) FetchNews(ctx context.Context, sym core.Symbol) ([]core.NewsItem, error) {
	// Fresh slice per call, as a real collector would return.
	out := make([]core.NewsItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

func uptrendBars(n int, date time.Time) []core.Bar {
	bars := make([]core.Bar, n)
	price := 100.0
	for i := range bars {
		d := date.AddDate(0, 0, i-n+1)
		bars[i] = core.Bar{
			Date:   d.Format("2006-01-02"),
			Open:   price - 1,
			High:   price + 2,
			Low:    price - 2,
			Close:  price,
			Volume: 1000,
		}
		price += 0.5
	}
	return bars
}

func newsItem(title string, scope core.Scope, age int, asof time.Time) core.NewsItem {
	return core.NewsItem{
		Title:       title,
		Source:      "test",
		Scope:       scope,
		PublishedAt: asof.AddDate(0, 0, -age),
	}
}

func TestRunProducesRecords(t *testing.T) {
	asof := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	engine := New(Config{
		Price: &stubPrice{bars: map[string][]core.Bar{
			"cu-code": uptrendBars(80, asof),
			"al-code": uptrendBars(80, asof),
		}},
		News: &stubNews{items: []core.NewsItem{
			newsItem("铜价走强 库存下降", core.ScopeSymbol, 1, asof),
			newsItem("美联储降息预期升温", core.ScopeMacro, 2, asof),
		}},
		Agents: agent.New(agent.Config{}),
	})

	symbols := []core.Symbol{
		{ID: "cu", Name: "沪铜", FeedCode: "cu-code", Keywords: []string{"铜"}},
		{ID: "al", Name: "沪铝", FeedCode: "al-code", Keywords: []string{"铝"}},
	}

	runID, results := engine.Run(context.Background(), symbols, "2026-08-27")
	if runID == "" {
		t.Fatal("empty run id")
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d", len(results))
	}

	for i, res := range results {
		if res.Err != nil {
			t.Fatalf("result %d: %v", i, res.Err)
		}
		rec := res.Record
		if rec == nil {
			t.Fatalf("result %d: nil record", i)
		}
		if rec.Symbol.ID != symbols[i].ID {
			t.Errorf("result %d: symbol %q, input order lost", i, rec.Symbol.ID)
		}
		if rec.RunID != runID {
			t.Errorf("result %d: run id %q != %q", i, rec.RunID, runID)
		}
		if rec.Price.Status != core.StatusOK {
			t.Errorf("result %d: price status %v (%s)", i, rec.Price.Status, rec.Price.Reason)
		}
		if rec.Agents.Market.Status != core.StatusOK {
			t.Errorf("result %d: market agent %+v", i, rec.Agents.Market)
		}
		if rec.Agents.Market.Index <= 0 {
			t.Errorf("result %d: uptrend market index = %v", i, rec.Agents.Market.Index)
		}
		if rec.Plan.Status == core.StatusUnavailable {
			t.Errorf("result %d: plan unavailable (%s)", i, rec.Plan.Reason)
		}
		if len(res.TradingDates) != 80 {
			t.Errorf("result %d: %d trading dates", i, len(res.TradingDates))
		}
	}
}

func TestRunSymbolFailureIsolated(t *testing.T) {
	asof := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	engine := New(Config{
		Price: &stubPrice{bars: map[string][]core.Bar{
			"cu-code": uptrendBars(80, asof),
			// al-code missing: provider returns no bars
		}},
		Agents: agent.New(agent.Config{}),
	})

	symbols := []core.Symbol{
		{ID: "cu", FeedCode: "cu-code"},
		{ID: "al", FeedCode: "al-code"},
	}
	_, results := engine.Run(context.Background(), symbols, "2026-08-27")

	if results[0].Record.Price.Status != core.StatusOK {
		t.Errorf("cu price = %+v", results[0].Record.Price)
	}

	al := results[1].Record
	if al == nil {
		t.Fatal("al record missing; a data gap degrades, never drops")
	}
	if al.Price.Status != core.StatusUnavailable {
		t.Errorf("al price status = %v", al.Price.Status)
	}
	if al.Plan.Status != core.StatusUnavailable {
		t.Errorf("al plan status = %v", al.Plan.Status)
	}
}

func TestRunPriceProviderError(t *testing.T) {
	engine := New(Config{
		Price:  &stubPrice{err: errors.New("upstream down")},
		Agents: agent.New(agent.Config{}),
	})

	_, results := engine.Run(context.Background(), []core.Symbol{{ID: "cu", FeedCode: "x"}}, "2026-08-27")
	rec := results[0].Record
	if rec == nil {
		t.Fatal("nil record")
	}
	if rec.Price.Reason != "price collector failed" {
		t.Errorf("Reason = %q", rec.Price.Reason)
	}
}

func TestRunBadDate(t *testing.T) {
	engine := New(Config{Agents: agent.New(agent.Config{})})
	_, results := engine.Run(context.Background(), []core.Symbol{{ID: "cu"}}, "not-a-date")
	if results[0].Err == nil {
		t.Fatal("expected parse error")
	}
	if !errors.Is(results[0].Err, core.ErrConfigInvalid) {
		t.Errorf("err = %v", results[0].Err)
	}
}

func TestCollectNewsFiltersAndCaps(t *testing.T) {
	asof := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

	items := []core.NewsItem{
		newsItem("fresh", core.ScopeMacro, 0, asof),
		newsItem("older", core.ScopeMacro, 5, asof),
		newsItem("too old", core.ScopeMacro, 45, asof),
		{Title: "undated", Scope: core.ScopeMacro},
	}
	engine := New(Config{
		Price: &stubPrice{bars: map[string][]core.Bar{
			"cu-code": uptrendBars(80, asof),
		}},
		News:         &stubNews{items: items},
		Agents:       agent.New(agent.Config{}),
		MaxNewsItems: 1,
	})

	_, results := engine.Run(context.Background(), []core.Symbol{{ID: "cu", FeedCode: "cu-code"}}, "2026-08-27")
	rec := results[0].Record
	if len(rec.News) != 1 {
		t.Fatalf("len(News) = %d, want cap of 1", len(rec.News))
	}
	if rec.News[0].Title != "fresh" {
		t.Errorf("kept %q, want newest", rec.News[0].Title)
	}
}

func TestPerSymbolWeightsOverride(t *testing.T) {
	asof := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	override := core.Weights{Macro: 0.1, Symbol: 0.1, Market: 0.8}
	engine := New(Config{
		Price: &stubPrice{bars: map[string][]core.Bar{
			"cu-code": uptrendBars(80, asof),
		}},
		Agents: agent.New(agent.Config{}),
	})

	_, results := engine.Run(context.Background(), []core.Symbol{
		{ID: "cu", FeedCode: "cu-code", Weights: &override},
	}, "2026-08-27")

	if got := results[0].Record.Agents.Weights; got != override {
		t.Errorf("weights = %+v, want override %+v", got, override)
	}
}
