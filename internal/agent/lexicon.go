package agent

import (
	"strings"

	"github.com/futusense/futusense/internal/core"
	"github.com/futusense/futusense/internal/indicator"
)

// Lexicon is the keyword polarity table for the heuristic news path.
type Lexicon struct {
	Bull []string
	Bear []string
}

// DefaultLexicon covers the commodity-news phrasing the pipeline sees
// most, Chinese wire headlines first with a few English equivalents.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Bull: []string{
			"利好", "回暖", "支持", "加码", "走强", "上行", "突破", "改善",
			"增产不及预期", "降息",
			"rally", "rebound", "breakout", "strengthen", "rate cut",
		},
		Bear: []string{
			"承压", "回落", "走弱", "下行", "下跌", "收紧", "风险", "不确定",
			"库存上升", "加息",
			"slump", "decline", "weaken", "risk-off", "rate hike",
		},
	}
}

func countMatches(text string, words []string) int {
	n := 0
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			n++
		}
	}
	return n
}

// Label scores one title: bull matches minus bear matches decides the
// polarity, match depth scales the confidence.
func (l Lexicon) Label(title string) (core.Polarity, float64) {
	t := strings.ToLower(title)
	score := countMatches(t, lowered(l.Bull)) - countMatches(t, lowered(l.Bear))

	polarity := core.PolarityNeutral
	if score > 0 {
		polarity = core.PolarityBull
	} else if score < 0 {
		polarity = core.PolarityBear
	}

	abs := score
	if abs < 0 {
		abs = -abs
	}
	if abs > 3 {
		abs = 3
	}
	confidence := indicator.Clamp(0.55+0.1*float64(abs), 0.5, 0.95)
	return polarity, confidence
}

// LabelItems fills in sentiment for items the cleaning stage left
// unlabeled. Returns a new slice; inputs are never mutated.
func (l Lexicon) LabelItems(items []core.NewsItem) []core.NewsItem {
	out := make([]core.NewsItem, len(items))
	for i, it := range items {
		out[i] = it
		if it.Sentiment == "" {
			polarity, confidence := l.Label(it.Title)
			out[i].Sentiment = polarity
			out[i].Confidence = confidence
		}
	}
	return out
}

func lowered(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}
