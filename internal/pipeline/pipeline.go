// Package pipeline runs the per-symbol scoring flow: collect price,
// news and fundamentals, run the three agents concurrently, fuse, plan
// and assemble the record. Symbols run in parallel and never share
// mutable state; one symbol failing leaves the others' records intact.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/futusense/futusense/internal/agent"
	"github.com/futusense/futusense/internal/collector"
	"github.com/futusense/futusense/internal/core"
	"github.com/futusense/futusense/internal/fusion"
	"github.com/futusense/futusense/internal/metrics"
)

// Config wires the engine's dependencies and knobs.
type Config struct {
	Price        collector.PriceProvider
	News         collector.NewsProvider
	Fundamentals collector.FundamentalsProvider
	Agents       *agent.Agents
	Fusion       fusion.Config
	Plan         fusion.PlanConfig
	LookbackDays int
	MaxNewsItems int
	MaxNewsAge   int
	Location     *time.Location
	Logger       *zap.Logger
	Metrics      *metrics.Registry
}

// Engine produces fusion records.
type Engine struct {
	cfg Config
}

// New creates an engine. Price and Agents are required; the other
// providers degrade to unavailable data when absent.
func New(cfg Config) *Engine {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 180
	}
	if cfg.MaxNewsItems <= 0 {
		cfg.MaxNewsItems = 30
	}
	if cfg.MaxNewsAge <= 0 {
		cfg.MaxNewsAge = 30
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Engine{cfg: cfg}
}

// Result is one symbol's outcome within a run.
type Result struct {
	Symbol       core.Symbol
	Record       *core.FusionRecord
	TradingDates []string
	Err          error
}

// Run scores every symbol for the given date and returns the run ID
// with one result per symbol, in input order.
func (e *Engine) Run(ctx context.Context, symbols []core.Symbol, date string) (string, []Result) {
	runID := uuid.NewString()
	results := make([]Result, len(symbols))

	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym core.Symbol) {
			defer wg.Done()
			results[i] = e.runSymbol(ctx, runID, sym, date)
		}(i, sym)
	}
	wg.Wait()

	return runID, results
}

func (e *Engine) runSymbol(ctx context.Context, runID string, sym core.Symbol, date string) Result {
	log := e.cfg.Logger.With(zap.String("symbol", sym.ID), zap.String("date", date))

	asof, err := time.ParseInLocation("2006-01-02", date, e.cfg.Location)
	if err != nil {
		return Result{Symbol: sym, Err: core.WrapError(core.ErrConfigInvalid, err)}
	}

	price, tradingDates := e.collectPrice(ctx, sym, date, log)
	items := e.collectNews(ctx, sym, asof, log)
	extras := e.collectFundamentals(ctx, sym, log)

	macroItems, symbolItems := splitScope(items)

	// The three agents are independent; fusion is the barrier.
	var (
		macro, symbolRes, market core.AgentResult
		wg                       sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		macro = e.cfg.Agents.Macro(ctx, asof, macroItems)
	}()
	go func() {
		defer wg.Done()
		symbolRes = e.cfg.Agents.SymbolNews(ctx, sym, asof, symbolItems)
	}()
	go func() {
		defer wg.Done()
		market = e.cfg.Agents.Market(ctx, sym, asof, price, extras)
	}()
	wg.Wait()

	fusionCfg := e.cfg.Fusion
	if sym.Weights != nil {
		fusionCfg.Weights = *sym.Weights
	}
	final := fusion.Combine(macro, symbolRes, market, fusionCfg)
	plan := fusion.BuildPlan(price, final, e.cfg.Plan)

	rec := &core.FusionRecord{
		RunID:     runID,
		Symbol:    sym.Ref(),
		Date:      date,
		UpdatedAt: time.Now().UTC(),
		Sentiment: core.Sentiment{
			Index: final.Index,
			Band:  fusion.Band(final.Index, fusionCfg),
		},
		Agents: core.AgentSet{
			Macro:   macro,
			Symbol:  symbolRes,
			Market:  market,
			Final:   final,
			Weights: fusionCfg.Weights,
		},
		Price:  price,
		News:   items,
		Extras: extras,
		Plan:   plan,
	}

	if m := e.cfg.Metrics; m != nil {
		m.RecordProduced(sym.ID, string(plan.Status))
		m.RecordAgentResult("macro", string(macro.Mode), string(macro.Status))
		m.RecordAgentResult("symbol", string(symbolRes.Mode), string(symbolRes.Status))
		m.RecordAgentResult("market", string(market.Mode), string(market.Status))
		m.RecordNewsCount(len(items))
	}

	log.Info("record produced",
		zap.Float64("index", final.Index),
		zap.String("band", string(rec.Sentiment.Band)),
		zap.String("final_status", string(final.Status)),
		zap.String("plan_status", string(plan.Status)))

	return Result{Symbol: sym, Record: rec, TradingDates: tradingDates}
}

func (e *Engine) collectPrice(ctx context.Context, sym core.Symbol, date string, log *zap.Logger) (core.PriceSnapshot, []string) {
	if e.cfg.Price == nil {
		return core.PriceSnapshot{Status: core.StatusUnavailable, Reason: "no price provider"}, nil
	}
	bars, err := e.cfg.Price.FetchBars(ctx, sym.FeedCode, e.cfg.LookbackDays)
	if err != nil {
		log.Warn("price fetch failed", zap.Error(err))
		return core.PriceSnapshot{Status: core.StatusUnavailable, Reason: "price collector failed"}, nil
	}
	return collector.BuildSnapshot(bars, date), collector.TradingDates(bars)
}

func (e *Engine) collectNews(ctx context.Context, sym core.Symbol, asof time.Time, log *zap.Logger) []core.NewsItem {
	if e.cfg.News == nil {
		return nil
	}
	items, err := e.cfg.News.FetchNews(ctx, sym)
	if err != nil {
		log.Warn("news fetch failed", zap.Error(err))
		return nil
	}

	cutoff := asof.AddDate(0, 0, -e.cfg.MaxNewsAge)
	kept := items[:0]
	for _, it := range items {
		if it.IsValid() && !it.PublishedAt.Before(cutoff) {
			kept = append(kept, it)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].PublishedAt.After(kept[j].PublishedAt)
	})
	if len(kept) > e.cfg.MaxNewsItems {
		kept = kept[:e.cfg.MaxNewsItems]
	}
	return kept
}

func (e *Engine) collectFundamentals(ctx context.Context, sym core.Symbol, log *zap.Logger) core.FundamentalsSnapshot {
	if e.cfg.Fundamentals == nil {
		return core.FundamentalsSnapshot{Status: core.StatusUnavailable}
	}
	snap, err := e.cfg.Fundamentals.FetchFundamentals(ctx, sym)
	if err != nil {
		log.Warn("fundamentals fetch failed", zap.Error(err))
		return core.FundamentalsSnapshot{Status: core.StatusUnavailable}
	}
	return snap
}

func splitScope(items []core.NewsItem) (macro, symbol []core.NewsItem) {
	for _, it := range items {
		if it.Scope == core.ScopeSymbol {
			symbol = append(symbol, it)
		} else {
			macro = append(macro, it)
		}
	}
	return macro, symbol
}
