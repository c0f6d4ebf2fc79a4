// Package publish renders fusion records into the published data tree:
// per-day JSON documents, a rolling per-symbol history, a top-level
// latest view, and a per-symbol CSV export. Everything is written
// through the archive storage so localfs and S3 targets behave the
// same.
package publish

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/futusense/futusense/internal/core"
	"github.com/futusense/futusense/internal/indicator"
	"github.com/futusense/futusense/internal/storage/archive"
)

const corrWindow = 20

// Publisher writes the published data tree.
type Publisher struct {
	store  archive.Storage
	logger *zap.Logger
}

// New creates a publisher over the given storage.
func New(store archive.Storage, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{store: store, logger: logger}
}

func dayPath(symbolID, date string) string {
	return path.Join("symbols", symbolID, "days", date+".json")
}

func historyPath(symbolID string) string {
	return path.Join("symbols", symbolID, "history.json")
}

func csvPath(symbolID string) string {
	return path.Join("exports", symbolID+".csv")
}

// PublishDay writes the full record as the day document.
func (p *Publisher) PublishDay(ctx context.Context, rec core.FusionRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling day record: %w", err)
	}
	return p.store.Write(ctx, dayPath(rec.Symbol.ID, rec.Date), data)
}

// HistoryEntry is one trading day in the rolling history.
type HistoryEntry struct {
	Date         string         `json:"date"`
	Sentiment    core.Sentiment `json:"sentiment"`
	Close        float64        `json:"close"`
	Volume       int64          `json:"volume,omitempty"`
	OpenInterest int64          `json:"open_interest,omitempty"`
	PctChange    *float64       `json:"pct_change,omitempty"`
}

// History is the per-symbol rolling history document.
type History struct {
	Symbol    core.SymbolRef `json:"symbol"`
	UpdatedAt time.Time      `json:"updated_at"`
	Corr20    *float64       `json:"corr20,omitempty"`
	Days      []HistoryEntry `json:"days"`
}

// UpdateHistory folds the record into the symbol's history. The
// history holds trading days only: dates inside the kline window that
// are not trading dates get pruned, which heals entries written while
// the calendar was not yet known. A stale record (market closed on the
// record date) leaves the history untouched.
func (p *Publisher) UpdateHistory(ctx context.Context, rec core.FusionRecord, tradingDates []string) (*History, error) {
	hist, err := p.readHistory(ctx, rec.Symbol)
	if err != nil {
		return nil, err
	}

	if rec.Price.Status == core.StatusOK && !rec.Price.IsStale {
		entry := HistoryEntry{
			Date:         rec.Date,
			Sentiment:    rec.Sentiment,
			Close:        rec.Price.Close,
			Volume:       rec.Price.Volume,
			OpenInterest: rec.Price.OpenInterest,
			PctChange:    rec.Price.PctChange,
		}
		replaced := false
		for i := range hist.Days {
			if hist.Days[i].Date == rec.Date {
				hist.Days[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			hist.Days = append(hist.Days, entry)
		}
	}

	hist.Days = pruneNonTrading(hist.Days, tradingDates)
	sort.Slice(hist.Days, func(i, j int) bool { return hist.Days[i].Date < hist.Days[j].Date })

	hist.Corr20 = sentimentCorrelation(hist.Days)
	hist.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(hist, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling history: %w", err)
	}
	if err := p.store.Write(ctx, historyPath(rec.Symbol.ID), data); err != nil {
		return nil, err
	}
	return hist, nil
}

func (p *Publisher) readHistory(ctx context.Context, symbol core.SymbolRef) (*History, error) {
	hist := &History{Symbol: symbol}

	ok, err := p.store.Exists(ctx, historyPath(symbol.ID))
	if err != nil || !ok {
		return hist, nil
	}
	data, err := p.store.Read(ctx, historyPath(symbol.ID))
	if err != nil {
		return hist, nil
	}
	if err := json.Unmarshal(data, hist); err != nil {
		// A corrupt history is rebuilt from scratch rather than
		// blocking the run.
		p.logger.Warn("history unreadable, rebuilding",
			zap.String("symbol", symbol.ID),
			zap.Error(err))
		return &History{Symbol: symbol}, nil
	}
	hist.Symbol = symbol
	return hist, nil
}

// pruneNonTrading removes entries dated inside the trading calendar's
// window but absent from it. Dates outside the window are kept, since
// the calendar says nothing about them.
func pruneNonTrading(days []HistoryEntry, tradingDates []string) []HistoryEntry {
	if len(tradingDates) == 0 {
		return days
	}
	set := make(map[string]bool, len(tradingDates))
	for _, d := range tradingDates {
		set[d] = true
	}
	lo, hi := tradingDates[0], tradingDates[len(tradingDates)-1]

	out := days[:0]
	for _, e := range days {
		if e.Date >= lo && e.Date <= hi && !set[e.Date] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// sentimentCorrelation is the Pearson correlation between the last 20
// sentiment values and the next day's return. Nil when fewer than two
// pairs exist.
func sentimentCorrelation(days []HistoryEntry) *float64 {
	var xs, ys []float64
	for i := 0; i+1 < len(days); i++ {
		if days[i].Close <= 0 || days[i+1].Close <= 0 {
			continue
		}
		xs = append(xs, days[i].Sentiment.Index)
		ys = append(ys, (days[i+1].Close-days[i].Close)/days[i].Close)
	}
	if len(xs) > corrWindow {
		xs = xs[len(xs)-corrWindow:]
		ys = ys[len(ys)-corrWindow:]
	}
	if len(xs) < 2 {
		return nil
	}
	corr := indicator.Correlation(xs, ys)
	return &corr
}

// Latest is the top-level cross-symbol view.
type Latest struct {
	UpdatedAt time.Time                    `json:"updated_at"`
	Symbols   map[string]core.FusionRecord `json:"symbols"`
}

// PublishLatest assembles latest.json from the newest day document of
// each symbol. A symbol whose current run failed still appears with
// its last available day; a symbol with no days at all is skipped.
func (p *Publisher) PublishLatest(ctx context.Context, symbols []core.SymbolRef) error {
	latest := Latest{
		UpdatedAt: time.Now().UTC(),
		Symbols:   make(map[string]core.FusionRecord, len(symbols)),
	}

	for _, sym := range symbols {
		rec, err := p.latestDay(ctx, sym.ID)
		if err != nil {
			p.logger.Warn("no published day for symbol",
				zap.String("symbol", sym.ID),
				zap.Error(err))
			continue
		}
		latest.Symbols[sym.ID] = *rec
	}

	data, err := json.MarshalIndent(latest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling latest: %w", err)
	}
	return p.store.Write(ctx, "latest.json", data)
}

func (p *Publisher) latestDay(ctx context.Context, symbolID string) (*core.FusionRecord, error) {
	prefix := path.Join("symbols", symbolID, "days")
	paths, err := p.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	best := ""
	for _, pth := range paths {
		if strings.HasSuffix(pth, ".json") && pth > best {
			best = pth
		}
	}
	if best == "" {
		return nil, core.ErrRecordNotFound
	}

	data, err := p.store.Read(ctx, best)
	if err != nil {
		return nil, err
	}
	var rec core.FusionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding day record %s: %w", best, err)
	}
	return &rec, nil
}

// ExportCSV writes the symbol's history as a flat CSV for spreadsheet
// use.
func (p *Publisher) ExportCSV(ctx context.Context, symbolID string, hist *History) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"date", "sentiment", "close", "volume", "open_interest", "pct_change"}); err != nil {
		return err
	}
	for _, e := range hist.Days {
		pct := ""
		if e.PctChange != nil {
			pct = fmt.Sprintf("%.2f", *e.PctChange)
		}
		row := []string{
			e.Date,
			fmt.Sprintf("%.4f", e.Sentiment.Index),
			fmt.Sprintf("%.2f", e.Close),
			fmt.Sprintf("%d", e.Volume),
			fmt.Sprintf("%d", e.OpenInterest),
			pct,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return p.store.Write(ctx, csvPath(symbolID), buf.Bytes())
}
