package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futusense/futusense/internal/core"
)

func okResult(index, confidence float64, mode core.Mode) core.AgentResult {
	return core.AgentResult{
		Status:     core.StatusOK,
		Index:      index,
		Confidence: confidence,
		Mode:       mode,
	}
}

func TestCombineWeightedMean(t *testing.T) {
	macro := okResult(0.2, 0.8, core.ModeLLM)
	symbol := okResult(-0.1, 0.7, core.ModeLLM)
	market := okResult(0.5, 0.9, core.ModeLLM)

	got := Combine(macro, symbol, market, DefaultConfig())

	require.Equal(t, core.StatusOK, got.Status)
	// 0.3*0.2 + 0.3*(-0.1) + 0.4*0.5 = 0.23
	assert.InDelta(t, 0.23, got.Index, 1e-9)
	assert.Equal(t, 0.7, got.Confidence, "fused confidence is the weakest input")
	assert.Equal(t, core.ModeLLM, got.Mode)
	assert.Empty(t, got.Reason)
}

func TestCombineRedistributesExcludedWeight(t *testing.T) {
	macro := okResult(0.6, 0.8, core.ModeLLM)
	symbol := okResult(0.2, 0.75, core.ModeLLM)
	market := core.Unavailable("price collector failed")

	got := Combine(macro, symbol, market, DefaultConfig())

	require.Equal(t, core.StatusDegraded, got.Status)
	// Macro and symbol renormalize to 0.5 each.
	assert.InDelta(t, 0.4, got.Index, 1e-9)
	assert.Equal(t, 0.75, got.Confidence)
	assert.Equal(t, "market agent excluded, weight redistributed", got.Reason)
}

func TestCombineAllUnavailable(t *testing.T) {
	u := core.Unavailable("no data")
	got := Combine(u, u, u, DefaultConfig())

	assert.Equal(t, core.StatusUnavailable, got.Status)
	assert.Zero(t, got.Index)
	assert.Equal(t, 0.5, got.Confidence)
	assert.Equal(t, "no agents available", got.Reason)
}

func TestCombineZeroWeightExcludes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = core.Weights{Macro: 0, Symbol: 0.5, Market: 0.5}

	macro := okResult(1.0, 0.95, core.ModeLLM)
	symbol := okResult(0.1, 0.7, core.ModeLLM)
	market := okResult(0.3, 0.8, core.ModeLLM)

	got := Combine(macro, symbol, market, cfg)

	require.Equal(t, core.StatusDegraded, got.Status)
	assert.InDelta(t, 0.2, got.Index, 1e-9)
	assert.Equal(t, "macro agent excluded, weight redistributed", got.Reason)
}

func TestCombineDegradedContributorStillCounts(t *testing.T) {
	macro := okResult(0.4, 0.8, core.ModeLLM)
	symbol := core.AgentResult{
		Status:     core.StatusDegraded,
		Index:      0.4,
		Confidence: 0.55,
		Mode:       core.ModeHeuristic,
		Reason:     "llm_timeout",
	}
	market := okResult(0.4, 0.9, core.ModeLLM)

	got := Combine(macro, symbol, market, DefaultConfig())

	assert.Equal(t, core.StatusDegraded, got.Status)
	assert.InDelta(t, 0.4, got.Index, 1e-9)
	assert.Equal(t, 0.55, got.Confidence)
	assert.Equal(t, core.ModeHeuristic, got.Mode, "one heuristic input keeps the blend heuristic")
	assert.Equal(t, "symbol agent degraded", got.Reason)
}

func TestCombineDegradedReasonNamesFirstContributor(t *testing.T) {
	deg := func(index, conf float64) core.AgentResult {
		return core.AgentResult{
			Status:     core.StatusDegraded,
			Index:      index,
			Confidence: conf,
			Mode:       core.ModeHeuristic,
			Reason:     "llm_error",
		}
	}

	got := Combine(deg(0.2, 0.6), deg(0.1, 0.6), okResult(0.3, 0.8, core.ModeHeuristic), DefaultConfig())

	require.Equal(t, core.StatusDegraded, got.Status)
	assert.Equal(t, "macro agent degraded", got.Reason, "a non-ok status always carries a reason")
}

func TestCombineClampsIndex(t *testing.T) {
	macro := okResult(1, 0.9, core.ModeLLM)
	symbol := okResult(1, 0.9, core.ModeLLM)
	market := okResult(1, 0.9, core.ModeLLM)

	got := Combine(macro, symbol, market, DefaultConfig())
	assert.LessOrEqual(t, got.Index, 1.0)
	assert.Equal(t, 1.0, got.Index)
}

func TestBandBoundaries(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		index float64
		want  core.Band
	}{
		{0, core.BandNeutral},
		{0.1, core.BandNeutral},
		{-0.1, core.BandNeutral},
		{0.11, core.BandBull},
		{0.4, core.BandBull},
		{0.41, core.BandStrongBull},
		{1, core.BandStrongBull},
		{-0.11, core.BandBear},
		{-0.4, core.BandBear},
		{-0.41, core.BandStrongBear},
		{-1, core.BandStrongBear},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Band(tt.index, cfg), "index %v", tt.index)
	}
}

func TestConfigNormalized(t *testing.T) {
	cfg := Config{}.normalized()
	assert.Equal(t, DefaultConfig(), cfg)

	cfg = Config{NeutralBand: 0.3, StrongBand: 0.2}.normalized()
	assert.Equal(t, 0.4, cfg.StrongBand, "inverted bands fall back to default strong")
}
