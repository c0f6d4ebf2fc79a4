// Package fusion deterministically merges the three agent results into
// one bounded final index with a discrete band, and derives the
// ATR-based trade plan from it. Configuration is threaded in
// explicitly; nothing here reads ambient state.
package fusion

import (
	"github.com/futusense/futusense/internal/core"
	"github.com/futusense/futusense/internal/indicator"
)

// Config holds fusion weights and band thresholds.
type Config struct {
	Weights     core.Weights
	NeutralBand float64 // |index| at or below this is neutral
	StrongBand  float64 // |index| above this is strong
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Weights:     core.DefaultWeights(),
		NeutralBand: 0.1,
		StrongBand:  0.4,
	}
}

func (c Config) normalized() Config {
	if c.NeutralBand <= 0 {
		c.NeutralBand = 0.1
	}
	if c.StrongBand <= c.NeutralBand {
		c.StrongBand = 0.4
	}
	zero := core.Weights{}
	if c.Weights == zero {
		c.Weights = core.DefaultWeights()
	}
	return c
}

// Band maps an index to its discrete category. Boundary values belong
// to the weaker band: exactly +threshold is still the band below it.
func Band(index float64, cfg Config) core.Band {
	cfg = cfg.normalized()
	switch {
	case index > cfg.StrongBand:
		return core.BandStrongBull
	case index > cfg.NeutralBand:
		return core.BandBull
	case index >= -cfg.NeutralBand:
		return core.BandNeutral
	case index >= -cfg.StrongBand:
		return core.BandBear
	default:
		return core.BandStrongBear
	}
}

// Combine fuses the three agent results. Unavailable agents are
// excluded and their weight redistributed proportionally over the
// rest; the fused confidence is the minimum across contributors, so
// the result is never more trusted than its weakest input.
func Combine(macro, symbol, market core.AgentResult, cfg Config) core.AgentResult {
	cfg = cfg.normalized()

	type contributor struct {
		weight float64
		result core.AgentResult
		name   string
	}
	all := []contributor{
		{cfg.Weights.Macro, macro, "macro"},
		{cfg.Weights.Symbol, symbol, "symbol"},
		{cfg.Weights.Market, market, "market"},
	}

	var (
		totalWeight float64
		weightedSum float64
		minConf     float64
		excluded    []string
		degraded    []string
		allOK       = true
		allLLM      = true
	)
	contributed := 0
	for _, c := range all {
		if !c.result.Contributes() || c.weight <= 0 {
			excluded = append(excluded, c.name)
			allOK = false
			continue
		}
		totalWeight += c.weight
		weightedSum += c.weight * c.result.Index
		if contributed == 0 || c.result.Confidence < minConf {
			minConf = c.result.Confidence
		}
		contributed++
		if c.result.Status != core.StatusOK {
			degraded = append(degraded, c.name)
			allOK = false
		}
		if c.result.Mode != core.ModeLLM {
			allLLM = false
		}
	}

	if contributed == 0 || totalWeight <= 0 {
		return core.Unavailable("no agents available")
	}

	final := core.AgentResult{
		Index:      indicator.Clamp(weightedSum/totalWeight, -1, 1),
		Confidence: minConf,
		Status:     core.StatusOK,
		Mode:       core.ModeHeuristic,
		Rationale:  []string{"weighted blend of macro, symbol and market agents"},
	}
	if allLLM {
		final.Mode = core.ModeLLM
	}
	if !allOK {
		final.Status = core.StatusDegraded
		switch {
		case len(excluded) > 0:
			final.Reason = excluded[0] + " agent excluded, weight redistributed"
		case len(degraded) > 0:
			final.Reason = degraded[0] + " agent degraded"
		}
	}
	return final
}
