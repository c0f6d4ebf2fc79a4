package core

import "time"

// Status describes how usable a piece of derived data is.
type Status string

const (
	StatusOK          Status = "ok"
	StatusDegraded    Status = "degraded"
	StatusUnavailable Status = "unavailable"
)

// Mode identifies which scoring path produced an agent result.
type Mode string

const (
	ModeLLM       Mode = "llm"
	ModeHeuristic Mode = "heuristic"
)

// Band is the discrete sentiment category derived from the fused index.
type Band string

const (
	BandStrongBull Band = "strong_bull"
	BandBull       Band = "bull"
	BandNeutral    Band = "neutral"
	BandBear       Band = "bear"
	BandStrongBear Band = "strong_bear"
)

// Scope tags a news item as market-wide or symbol-specific.
type Scope string

const (
	ScopeMacro  Scope = "macro"
	ScopeSymbol Scope = "symbol"
)

// Polarity is the directional sentiment of a single news item.
type Polarity string

const (
	PolarityBull    Polarity = "bull"
	PolarityBear    Polarity = "bear"
	PolarityNeutral Polarity = "neutral"
)

// Value maps a polarity to its numeric contribution.
func (p Polarity) Value() float64 {
	switch p {
	case PolarityBull:
		return 1
	case PolarityBear:
		return -1
	default:
		return 0
	}
}

// Direction is the trade direction derived from the fused index.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
	DirectionFlat  Direction = "flat"
)

// AgentResult is the validated output of one scoring agent.
// Immutable once built; a failed construction is replaced wholesale by
// the heuristic fallback, never patched in place.
type AgentResult struct {
	Status     Status   `json:"status"`
	Index      float64  `json:"index"`
	Confidence float64  `json:"confidence"`
	Rationale  []string `json:"rationale,omitempty"`
	Mode       Mode     `json:"mode"`
	Reason     string   `json:"reason,omitempty"`
}

// Contributes reports whether the result takes part in fusion.
func (r AgentResult) Contributes() bool {
	return r.Status == StatusOK || r.Status == StatusDegraded
}

// Unavailable builds the canonical empty result for an agent that found
// no usable signal.
func Unavailable(reason string) AgentResult {
	return AgentResult{
		Status:     StatusUnavailable,
		Index:      0,
		Confidence: 0.5,
		Mode:       ModeHeuristic,
		Reason:     reason,
	}
}

// NewsItem is one scope-tagged, deduplicated news record. Items are
// never mutated after ingestion; decay weights are computed at fusion
// time, not stored.
type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	Scope       Scope     `json:"scope"`
	Sentiment   Polarity  `json:"sentiment,omitempty"`
	Confidence  float64   `json:"confidence,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// IsValid checks the fields every downstream consumer relies on.
func (n NewsItem) IsValid() bool {
	return n.Title != "" && !n.PublishedAt.IsZero()
}

// Bar is one daily OHLCV candle. Dates are trading dates in
// YYYY-MM-DD form, matching the published data tree.
type Bar struct {
	Date         string  `json:"date"`
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Close        float64 `json:"close"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"open_interest,omitempty"`
}

// PriceSnapshot is the precomputed scalar view of a symbol's price
// series handed to the market agent. Raw bars never cross this
// boundary, which bounds what the scoring path can fabricate.
type PriceSnapshot struct {
	Status       Status   `json:"status"`
	Close        float64  `json:"close,omitempty"`
	MA20         float64  `json:"ma20,omitempty"`
	MA60         float64  `json:"ma60,omitempty"`
	ATR14        float64  `json:"atr14,omitempty"`
	VolRatio20   float64  `json:"vol_ratio20,omitempty"`
	Volume       int64    `json:"volume,omitempty"`
	OpenInterest int64    `json:"open_interest,omitempty"`
	PctChange    *float64 `json:"pct_change,omitempty"`
	Date         string   `json:"date,omitempty"`
	IsStale      bool     `json:"is_stale"`
	Reason       string   `json:"reason,omitempty"`
}

// FundamentalsModule is one named fundamentals feed (inventory,
// spot_basis, roll_yield, positions_rank). The core only looks at
// Status; Hint and Series pass through for display.
type FundamentalsModule struct {
	Status  Status        `json:"status"`
	Hint    string        `json:"hint,omitempty"`
	Summary string        `json:"summary,omitempty"`
	Series  []SeriesPoint `json:"series,omitempty"`
}

// SeriesPoint is one dated observation inside a fundamentals module.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Canonical fundamentals module names.
const (
	ModuleInventory     = "inventory"
	ModuleSpotBasis     = "spot_basis"
	ModuleRollYield     = "roll_yield"
	ModulePositionsRank = "positions_rank"
)

// FundamentalsSnapshot groups the fundamentals modules for one symbol.
type FundamentalsSnapshot struct {
	Status  Status                        `json:"status"`
	AsOf    string                        `json:"asof,omitempty"`
	Modules map[string]FundamentalsModule `json:"modules,omitempty"`
}

// Available reports whether at least one module delivered data.
func (f FundamentalsSnapshot) Available() bool {
	if f.Status != StatusOK {
		return false
	}
	for _, m := range f.Modules {
		if m.Status == StatusOK {
			return true
		}
	}
	return false
}

// Weights are the fusion weights for the three agents. They are not
// required to sum to 1; the combiner normalizes by the weights of the
// agents actually used.
type Weights struct {
	Macro  float64 `json:"macro"`
	Symbol float64 `json:"symbol"`
	Market float64 `json:"market"`
}

// DefaultWeights returns the stock macro/symbol/market split.
func DefaultWeights() Weights {
	return Weights{Macro: 0.30, Symbol: 0.30, Market: 0.40}
}

// Sentiment is the fused index with its discrete band.
type Sentiment struct {
	Index float64 `json:"index"`
	Band  Band    `json:"band"`
}

// AgentSet carries the three raw agent results, the fused result, and
// the weights that produced it.
type AgentSet struct {
	Macro   AgentResult `json:"macro"`
	Symbol  AgentResult `json:"symbol"`
	Market  AgentResult `json:"market"`
	Final   AgentResult `json:"final"`
	Weights Weights     `json:"weights"`
}

// HorizonPlan is one horizon block of a trade plan.
type HorizonPlan struct {
	Direction Direction  `json:"direction"`
	Position  string     `json:"position"`
	EntryZone [2]float64 `json:"entry_zone"`
	Stop      float64    `json:"stop"`
	Target1   float64    `json:"target1"`
	Target2   float64    `json:"target2"`
}

// TradePlan is the ATR-derived plan for one record. When price data is
// unavailable the horizon blocks are absent.
type TradePlan struct {
	Status    Status       `json:"status"`
	AsOf      string       `json:"asof,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	ShortTerm *HorizonPlan `json:"short_term,omitempty"`
	Swing     *HorizonPlan `json:"swing,omitempty"`
	MidTerm   *HorizonPlan `json:"mid_term,omitempty"`
}

// SymbolRef identifies a symbol in published records.
type SymbolRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Symbol is one watched instrument.
type Symbol struct {
	ID       string
	Name     string
	Keywords []string
	FeedCode string   // collector-specific instrument code
	Weights  *Weights // per-symbol fusion override, nil = defaults
}

// Ref returns the published identifier pair.
func (s Symbol) Ref() SymbolRef { return SymbolRef{ID: s.ID, Name: s.Name} }

// FusionRecord is the final per-symbol per-day record. Produced once
// per run and immutable thereafter; persistence and rendering are
// read-only consumers.
type FusionRecord struct {
	RunID     string               `json:"run_id,omitempty"`
	Symbol    SymbolRef            `json:"symbol"`
	Date      string               `json:"date"`
	UpdatedAt time.Time            `json:"updated_at"`
	Sentiment Sentiment            `json:"sentiment"`
	Agents    AgentSet             `json:"agents"`
	Price     PriceSnapshot        `json:"price"`
	News      []NewsItem           `json:"news,omitempty"`
	Extras    FundamentalsSnapshot `json:"extras"`
	Plan      TradePlan            `json:"plans"`
}
