// Package app assembles the engine from configuration and owns the
// update loop: collectors, LLM provider, agents, pipeline, record
// store and publisher.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/futusense/futusense/internal/agent"
	"github.com/futusense/futusense/internal/alert"
	"github.com/futusense/futusense/internal/collector"
	"github.com/futusense/futusense/internal/collector/eastmoney"
	"github.com/futusense/futusense/internal/collector/fundamentals"
	"github.com/futusense/futusense/internal/collector/rss"
	"github.com/futusense/futusense/internal/config"
	"github.com/futusense/futusense/internal/core"
	"github.com/futusense/futusense/internal/fusion"
	"github.com/futusense/futusense/internal/llm/factory"
	"github.com/futusense/futusense/internal/metrics"
	"github.com/futusense/futusense/internal/news"
	"github.com/futusense/futusense/internal/pipeline"
	"github.com/futusense/futusense/internal/publish"
	"github.com/futusense/futusense/internal/storage/archive"
	"github.com/futusense/futusense/internal/storage/record"
)

const storeCapacity = 2000

// App is the main application orchestrator.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	engine    *pipeline.Engine
	store     record.Store
	publisher *publish.Publisher
	alerts    *alert.Evaluator
	metrics   *metrics.Registry
	symbols   []core.Symbol
	location  *time.Location

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New builds the app from validated configuration.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Data.Timezone)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}

	store, err := archive.New(archive.Config{
		Type: cfg.Storage.Type,
		Path: cfg.Storage.Path,
		S3: archive.S3Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Endpoint:  cfg.Storage.S3.Endpoint,
			Region:    cfg.Storage.S3.Region,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			Prefix:    cfg.Storage.S3.Prefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("building archive storage: %w", err)
	}

	provider, err := factory.New(cfg.LLM)
	if err != nil {
		return nil, err
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	agentCfg := agent.Config{
		Provider: provider,
		Timeout:  cfg.LLM.Timeout,
		Lexicon:  lexiconFrom(cfg.News),
		News:     newsParams(cfg.News),
		Logger:   logger,
	}
	if reg != nil {
		agentCfg.OnFallback = reg.RecordLLMFallback
	}
	agents := agent.New(agentCfg)

	symbols := cfg.EnabledSymbols()
	engine := pipeline.New(pipeline.Config{
		Price:        priceProvider(cfg.Collectors.Price),
		News:         newsProvider(cfg.Collectors.News, logger),
		Fundamentals: fundamentalsProvider(cfg.Collectors.Fundamentals),
		Agents:       agents,
		Fusion: fusion.Config{
			Weights:     cfg.Fusion.Weights.CoreWeights(),
			NeutralBand: cfg.Fusion.Bands.Neutral,
			StrongBand:  cfg.Fusion.Bands.Strong,
		},
		Plan:         planConfig(cfg.Plan),
		LookbackDays: cfg.Data.LookbackDays,
		MaxNewsItems: cfg.News.MaxItems,
		MaxNewsAge:   cfg.News.MaxAgeDays,
		Location:     location,
		Logger:       logger,
		Metrics:      reg,
	})

	if reg != nil {
		reg.SetWatchSize(len(symbols))
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		engine:    engine,
		store:     record.NewMemoryStore(storeCapacity),
		publisher: publish.New(store, logger),
		alerts:    alertEvaluator(cfg.Alerts, logger),
		metrics:   reg,
		symbols:   symbols,
		location:  location,
	}, nil
}

func alertEvaluator(cfg config.AlertsConfig, logger *zap.Logger) *alert.Evaluator {
	if !cfg.Enabled {
		return nil
	}
	var notifiers []alert.Notifier
	if cfg.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Headers))
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notifiers = append(notifiers, alert.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID))
	}
	if len(notifiers) == 0 {
		return nil
	}
	return alert.NewEvaluator(notifiers, cfg.Cooldown, logger)
}

// Store exposes the record store for the API server.
func (a *App) Store() record.Store { return a.store }

// Metrics exposes the metrics registry; nil when disabled.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// SymbolRefs returns the watched symbols' published identifiers.
func (a *App) SymbolRefs() []core.SymbolRef {
	refs := make([]core.SymbolRef, len(a.symbols))
	for i, s := range a.symbols {
		refs[i] = s.Ref()
	}
	return refs
}

// Today returns the current date in the configured market timezone.
func (a *App) Today() string {
	return time.Now().In(a.location).Format("2006-01-02")
}

// RunOnce scores every symbol for the date and publishes the results.
// Per-symbol failures are logged and skipped; the error reports only a
// run that produced nothing at all.
func (a *App) RunOnce(ctx context.Context, date string) error {
	start := time.Now()
	a.logger.Info("update run starting",
		zap.String("date", date),
		zap.Int("symbols", len(a.symbols)))

	runID, results := a.engine.Run(ctx, a.symbols, date)

	produced := 0
	for _, res := range results {
		if res.Err != nil || res.Record == nil {
			a.logger.Error("symbol run failed",
				zap.String("symbol", res.Symbol.ID),
				zap.Error(res.Err))
			continue
		}
		produced++

		if a.alerts != nil {
			prev, err := a.store.Latest(ctx, res.Symbol.ID)
			if err == nil {
				a.alerts.Observe(prev, res.Record)
			}
		}
		if err := a.store.Save(ctx, *res.Record); err != nil {
			a.logger.Error("saving record",
				zap.String("symbol", res.Symbol.ID),
				zap.Error(err))
		}
		a.publishSymbol(ctx, res)
	}

	if err := a.publisher.PublishLatest(ctx, a.SymbolRefs()); err != nil {
		a.logger.Error("publishing latest", zap.Error(err))
	}

	status := "ok"
	if produced == 0 {
		status = "failed"
	} else if produced < len(a.symbols) {
		status = "partial"
	}
	if a.metrics != nil {
		a.metrics.RecordRun(status, time.Since(start).Seconds())
	}

	a.logger.Info("update run finished",
		zap.String("run_id", runID),
		zap.String("status", status),
		zap.Int("produced", produced),
		zap.Duration("elapsed", time.Since(start)))

	if produced == 0 && len(a.symbols) > 0 {
		return core.WrapError(core.ErrUpstreamUnavailable,
			fmt.Errorf("run %s produced no records", runID))
	}
	return nil
}

func (a *App) publishSymbol(ctx context.Context, res pipeline.Result) {
	rec := *res.Record
	if err := a.publisher.PublishDay(ctx, rec); err != nil {
		a.logger.Error("publishing day",
			zap.String("symbol", rec.Symbol.ID),
			zap.Error(err))
		return
	}
	hist, err := a.publisher.UpdateHistory(ctx, rec, res.TradingDates)
	if err != nil {
		a.logger.Error("updating history",
			zap.String("symbol", rec.Symbol.ID),
			zap.Error(err))
		return
	}
	if err := a.publisher.ExportCSV(ctx, rec.Symbol.ID, hist); err != nil {
		a.logger.Error("exporting csv",
			zap.String("symbol", rec.Symbol.ID),
			zap.Error(err))
	}
}

// Start runs immediately, then on the configured interval until the
// context is cancelled.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	interval := a.cfg.Data.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	a.logger.Info("futusense starting",
		zap.Int("symbols", len(a.symbols)),
		zap.Duration("interval", interval))

	if err := a.RunOnce(ctx, a.Today()); err != nil {
		a.logger.Error("initial run failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("futusense shutting down")
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			if err := a.RunOnce(ctx, a.Today()); err != nil {
				a.logger.Error("scheduled run failed", zap.Error(err))
			}
		}
	}
}

// Stop cancels the update loop.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// priceProvider selects the kline source. Eastmoney is the only
// implementation today; the Provider field keeps the config shape
// stable for when another source lands.
func priceProvider(cfg config.PriceCollectorConfig) collector.PriceProvider {
	return eastmoney.New(cfg.Endpoint)
}

func newsProvider(cfg config.NewsCollectorConfig, logger *zap.Logger) collector.NewsProvider {
	if len(cfg.Feeds) == 0 {
		return nil
	}
	feeds := make([]rss.Feed, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		scope := core.ScopeMacro
		if f.Scope == string(core.ScopeSymbol) {
			scope = core.ScopeSymbol
		}
		feeds = append(feeds, rss.Feed{Name: f.Name, URL: f.URL, Scope: scope})
	}
	return rss.New(feeds, logger)
}

func fundamentalsProvider(cfg config.FundamentalsCollectorConfig) collector.FundamentalsProvider {
	if cfg.Endpoint == "" {
		return nil
	}
	return fundamentals.New(cfg.Endpoint)
}

func newsParams(cfg config.NewsConfig) news.Params {
	p := news.DefaultParams()
	if cfg.HalfLifeDays > 0 {
		p.HalfLifeDays = cfg.HalfLifeDays
	}
	if cfg.MinWeight > 0 {
		p.MinWeight = cfg.MinWeight
	}
	if cfg.FreshBoostDays > 0 {
		p.FreshBoostDays = cfg.FreshBoostDays
	}
	if cfg.FreshBoost >= 1 {
		p.FreshBoost = cfg.FreshBoost
	}
	p.Supersede = cfg.Supersede.Enabled
	if topics := topicsFrom(cfg.Supersede.Topics); len(topics) > 0 {
		p.Topics = topics
	}
	return p
}

func topicsFrom(cfgs []config.TopicConfig) []news.Topic {
	topics := make([]news.Topic, 0, len(cfgs))
	for _, t := range cfgs {
		topic := news.Topic{
			Key:       t.Key,
			Markers:   t.Markers,
			UpWords:   t.UpWords,
			DownWords: t.DownWords,
		}
		for _, e := range t.Entities {
			topic.Entities = append(topic.Entities, news.Entity{
				Name:    e.Name,
				Markers: e.Markers,
			})
		}
		topics = append(topics, topic)
	}
	return topics
}

func lexiconFrom(cfg config.NewsConfig) agent.Lexicon {
	lex := agent.DefaultLexicon()
	if len(cfg.BullWords) > 0 {
		lex.Bull = cfg.BullWords
	}
	if len(cfg.BearWords) > 0 {
		lex.Bear = cfg.BearWords
	}
	return lex
}

func planConfig(cfg config.PlanConfig) fusion.PlanConfig {
	p := fusion.DefaultPlanConfig()
	p.ShortTerm = multipliers(cfg.ShortTerm, p.ShortTerm)
	p.Swing = multipliers(cfg.Swing, p.Swing)
	p.MidTerm = multipliers(cfg.MidTerm, p.MidTerm)
	return p
}

func multipliers(cfg config.HorizonConfig, def fusion.Multipliers) fusion.Multipliers {
	if cfg.Entry <= 0 || cfg.Stop <= 0 || cfg.Target1 <= 0 || cfg.Target2 <= 0 {
		return def
	}
	return fusion.Multipliers{
		Entry:   cfg.Entry,
		Stop:    cfg.Stop,
		Target1: cfg.Target1,
		Target2: cfg.Target2,
	}
}
