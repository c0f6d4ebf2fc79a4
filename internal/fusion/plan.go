package fusion

import (
	"math"

	"github.com/futusense/futusense/internal/core"
)

// Multipliers are ATR multiples for one horizon's price levels.
type Multipliers struct {
	Entry   float64
	Stop    float64
	Target1 float64
	Target2 float64
}

// PlanConfig controls plan generation across the three horizons.
type PlanConfig struct {
	ShortTerm          Multipliers
	Swing              Multipliers
	MidTerm            Multipliers
	DirectionThreshold float64
	LightBelow         float64 // confidence below this sizes light
	MediumBelow        float64 // confidence below this sizes medium
}

// DefaultPlanConfig returns the standard multiplier table.
func DefaultPlanConfig() PlanConfig {
	return PlanConfig{
		ShortTerm:          Multipliers{Entry: 0.5, Stop: 1.5, Target1: 1.0, Target2: 2.0},
		Swing:              Multipliers{Entry: 1.0, Stop: 2.5, Target1: 2.0, Target2: 4.0},
		MidTerm:            Multipliers{Entry: 1.5, Stop: 3.5, Target1: 3.0, Target2: 6.0},
		DirectionThreshold: 0.1,
		LightBelow:         0.65,
		MediumBelow:        0.8,
	}
}

func (c PlanConfig) normalized() PlanConfig {
	if c.DirectionThreshold <= 0 {
		c.DirectionThreshold = 0.1
	}
	if c.LightBelow <= 0 {
		c.LightBelow = 0.65
	}
	if c.MediumBelow <= c.LightBelow {
		c.MediumBelow = 0.8
	}
	zero := Multipliers{}
	def := DefaultPlanConfig()
	if c.ShortTerm == zero {
		c.ShortTerm = def.ShortTerm
	}
	if c.Swing == zero {
		c.Swing = def.Swing
	}
	if c.MidTerm == zero {
		c.MidTerm = def.MidTerm
	}
	return c
}

// BuildPlan derives the three-horizon trade plan from the latest price
// snapshot and the fused result. A plan is only produced when the
// price snapshot is usable and ATR is positive; otherwise the plan is
// unavailable with a machine-readable reason and no horizon blocks.
func BuildPlan(price core.PriceSnapshot, final core.AgentResult, cfg PlanConfig) core.TradePlan {
	cfg = cfg.normalized()

	if price.Status != core.StatusOK || price.Close <= 0 {
		reason := price.Reason
		if reason == "" {
			reason = "price unavailable"
		}
		return core.TradePlan{Status: core.StatusUnavailable, Reason: reason, AsOf: price.Date}
	}
	if price.ATR14 <= 0 {
		return core.TradePlan{Status: core.StatusUnavailable, Reason: "insufficient price history", AsOf: price.Date}
	}

	dir := core.DirectionFlat
	switch {
	case final.Status != core.StatusUnavailable && final.Index > cfg.DirectionThreshold:
		dir = core.DirectionLong
	case final.Status != core.StatusUnavailable && final.Index < -cfg.DirectionThreshold:
		dir = core.DirectionShort
	}

	position := positionHint(dir, final.Confidence, cfg)
	short := horizon(price.Close, price.ATR14, dir, position, cfg.ShortTerm)
	swing := horizon(price.Close, price.ATR14, dir, position, cfg.Swing)
	mid := horizon(price.Close, price.ATR14, dir, position, cfg.MidTerm)

	status := core.StatusOK
	if price.IsStale || final.Status == core.StatusDegraded {
		status = core.StatusDegraded
	}
	plan := core.TradePlan{
		Status:    status,
		AsOf:      price.Date,
		ShortTerm: short,
		Swing:     swing,
		MidTerm:   mid,
	}
	if price.IsStale {
		plan.Reason = "stale price"
	} else if final.Status == core.StatusDegraded {
		plan.Reason = final.Reason
	}
	return plan
}

func positionHint(dir core.Direction, confidence float64, cfg PlanConfig) string {
	if dir == core.DirectionFlat {
		return "observe only"
	}
	switch {
	case confidence < cfg.LightBelow:
		return "light"
	case confidence < cfg.MediumBelow:
		return "medium"
	default:
		return "heavy"
	}
}

// horizon computes one horizon's levels. A flat direction keeps the
// long-side layout so the numbers stay comparable day to day, with the
// position hint marking it as observe only.
func horizon(close, atr float64, dir core.Direction, position string, m Multipliers) *core.HorizonPlan {
	sign := 1.0
	if dir == core.DirectionShort {
		sign = -1.0
	}
	return &core.HorizonPlan{
		Direction: dir,
		Position:  position,
		EntryZone: [2]float64{
			round2(close - m.Entry*atr),
			round2(close + m.Entry*atr),
		},
		Stop:    round2(close - sign*m.Stop*atr),
		Target1: round2(close + sign*m.Target1*atr),
		Target2: round2(close + sign*m.Target2*atr),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
