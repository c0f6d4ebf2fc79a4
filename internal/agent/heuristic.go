package agent

import (
	"time"

	"github.com/futusense/futusense/internal/core"
	"github.com/futusense/futusense/internal/indicator"
	"github.com/futusense/futusense/internal/news"
)

// Heuristic scores without any network or LLM dependency, from the same
// inputs the corresponding agent receives. It never fails: when no
// signal exists at all it reports an explicit unavailable result.
type Heuristic struct {
	lexicon  Lexicon
	weighter *news.Weighter
}

// NewHeuristic creates the fallback scorer.
func NewHeuristic(lexicon Lexicon, weighter *news.Weighter) *Heuristic {
	return &Heuristic{lexicon: lexicon, weighter: weighter}
}

// ScoreNews derives a bounded index from news titles: lexicon polarity
// per item (when the cleaning stage left none), folded through the
// time-decay weighter.
func (h *Heuristic) ScoreNews(items []core.NewsItem, asof time.Time) core.AgentResult {
	if len(items) == 0 {
		return core.Unavailable("no news")
	}

	labeled := h.lexicon.LabelItems(items)
	agg := h.weighter.Compute(labeled, asof)
	if agg.Counted == 0 {
		return core.Unavailable("no datable news")
	}

	matched := 0
	rationale := make([]string, 0, 3)
	for _, it := range labeled {
		if it.Sentiment != core.PolarityNeutral {
			matched++
		}
		if len(rationale) < 3 && it.Title != "" {
			rationale = append(rationale, it.Title)
		}
	}

	confidence := indicator.Clamp(0.5+0.1*float64(min(matched, 4)), minConfidence, 0.9)

	return finalize(core.AgentResult{
		Status:     core.StatusOK,
		Index:      agg.Value,
		Confidence: confidence,
		Rationale:  rationale,
		Mode:       core.ModeHeuristic,
	})
}

// ScoreMarket derives a technical index from the precomputed price
// scalars: trend of close against MA20/MA60, nudged by the volume
// ratio, with confidence trimmed when volatility runs hot.
func (h *Heuristic) ScoreMarket(price core.PriceSnapshot, fundamentals core.FundamentalsSnapshot) core.AgentResult {
	if price.Status != core.StatusOK || price.Close <= 0 {
		return core.Unavailable("price unavailable")
	}

	var trend float64
	rationale := make([]string, 0, 3)
	if price.MA20 > 0 && price.MA60 > 0 {
		if price.MA20 > price.MA60 {
			trend += 0.5
			rationale = append(rationale, "MA20 above MA60")
		} else {
			trend -= 0.5
			rationale = append(rationale, "MA20 below MA60")
		}
	}
	if price.MA20 > 0 {
		if price.Close > price.MA20 {
			trend += 0.5
			rationale = append(rationale, "close above MA20")
		} else {
			trend -= 0.5
			rationale = append(rationale, "close below MA20")
		}
	}

	var volBoost float64
	if price.VolRatio20 > 0 {
		volBoost = indicator.Clamp(price.VolRatio20-1, -0.5, 0.5)
		if volBoost > 0 {
			rationale = append(rationale, "volume running above its twenty day mean")
		}
	}

	index := indicator.Clamp(trend+0.5*volBoost, -1, 1)

	confidence := 0.6
	if price.ATR14 > 0 {
		// Trim confidence when volatility is extreme relative to price.
		confidence -= indicator.Clamp(price.ATR14/price.Close*10, 0, 0.2)
	}
	confidence = indicator.Clamp(confidence, minConfidence, 0.9)

	result := core.AgentResult{
		Status:     core.StatusOK,
		Index:      index,
		Confidence: confidence,
		Rationale:  rationale,
		Mode:       core.ModeHeuristic,
	}
	if !fundamentals.Available() {
		result.Confidence = indicator.Clamp(result.Confidence, minConfidence, degradedFundamentalsCeiling)
		result.Reason = "fundamentals missing"
	}
	return finalize(result)
}
