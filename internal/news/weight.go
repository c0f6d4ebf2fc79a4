// Package news turns a raw news list into a single bounded sentiment
// contribution: exponential half-life decay, a freshness bonus, and a
// newest-wins override for opposing-direction topics.
package news

import (
	"math"
	"time"

	"github.com/futusense/futusense/internal/core"
	"github.com/futusense/futusense/internal/indicator"
)

// Params controls decay weighting. Zero values are replaced by the
// documented defaults.
type Params struct {
	HalfLifeDays   float64
	MinWeight      float64
	FreshBoostDays int
	FreshBoost     float64
	Supersede      bool
	Topics         []Topic
}

// DefaultParams mirrors the documented configuration defaults.
func DefaultParams() Params {
	return Params{
		HalfLifeDays:   10,
		MinWeight:      0.0005,
		FreshBoostDays: 1,
		FreshBoost:     1.25,
		Supersede:      true,
	}
}

func (p Params) normalized() Params {
	if p.HalfLifeDays <= 0 {
		p.HalfLifeDays = 10
	}
	if p.MinWeight <= 0 {
		p.MinWeight = 0.0005
	}
	if p.FreshBoost < 1 {
		p.FreshBoost = 1.25
	}
	if len(p.Topics) == 0 {
		p.Topics = DefaultTopics()
	}
	return p
}

// Weighted is one news item annotated with its computed decay weight.
// The underlying item is never mutated.
type Weighted struct {
	Item       core.NewsItem
	Weight     float64
	AgeDays    int
	Superseded bool
}

// Aggregate is the result of weighting a news list.
type Aggregate struct {
	Value       float64 // weighted mean polarity, clamped to [-1, 1]
	TotalWeight float64
	Counted     int // items with non-zero weight
	Rejected    int // items published after as-of
	Superseded  int
}

// Weighter computes decay-weighted sentiment contributions. It is pure:
// the same items and as-of date always produce the same output.
type Weighter struct {
	params Params
}

// NewWeighter creates a weighter with the given parameters.
func NewWeighter(p Params) *Weighter {
	return &Weighter{params: p.normalized()}
}

// ageDays is the calendar-day distance from published to as-of.
func ageDays(published, asof time.Time) int {
	py, pm, pd := published.Date()
	ay, am, ad := asof.Date()
	p := time.Date(py, pm, pd, 0, 0, 0, 0, time.UTC)
	a := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(p).Hours() / 24)
}

// decayWeight is the pure half-life weight before the freshness bonus.
func (w *Weighter) decayWeight(age int) float64 {
	return math.Pow(0.5, float64(age)/w.params.HalfLifeDays)
}

// Weigh annotates each item with its decay weight and applies the topic
// supersede pass. Items published after as-of are invalid input and are
// dropped; the count of dropped items is reported through Aggregate.
func (w *Weighter) Weigh(items []core.NewsItem, asof time.Time) ([]Weighted, int) {
	out := make([]Weighted, 0, len(items))
	rejected := 0
	for _, it := range items {
		if !it.IsValid() {
			rejected++
			continue
		}
		age := ageDays(it.PublishedAt, asof)
		if age < 0 {
			rejected++
			continue
		}
		weight := w.decayWeight(age)
		if w.params.FreshBoostDays > 0 && age <= w.params.FreshBoostDays {
			weight *= w.params.FreshBoost
		}
		if weight < w.params.MinWeight {
			weight = w.params.MinWeight
		}
		out = append(out, Weighted{Item: it, Weight: weight, AgeDays: age})
	}

	if w.params.Supersede {
		out = supersede(out, w.params.Topics)
	}
	return out, rejected
}

// Compute folds a news list into one bounded sentiment contribution.
func (w *Weighter) Compute(items []core.NewsItem, asof time.Time) Aggregate {
	weighted, rejected := w.Weigh(items, asof)

	agg := Aggregate{Rejected: rejected}
	var sum float64
	for _, wi := range weighted {
		if wi.Superseded {
			agg.Superseded++
			continue
		}
		agg.TotalWeight += wi.Weight
		agg.Counted++
		sum += wi.Weight * wi.Item.Sentiment.Value()
	}

	if agg.TotalWeight < 1e-6 {
		agg.Value = 0
		return agg
	}
	agg.Value = indicator.Clamp(sum/agg.TotalWeight, -1, 1)
	return agg
}
