package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futusense/futusense/internal/core"
)

func snapshot() core.PriceSnapshot {
	return core.PriceSnapshot{
		Status: core.StatusOK,
		Close:  685.50,
		ATR14:  10,
		Date:   "2026-08-28",
	}
}

func TestBuildPlanLong(t *testing.T) {
	final := okResult(0.35, 0.7, core.ModeLLM)
	plan := BuildPlan(snapshot(), final, DefaultPlanConfig())

	require.Equal(t, core.StatusOK, plan.Status)
	require.NotNil(t, plan.ShortTerm)
	require.NotNil(t, plan.Swing)
	require.NotNil(t, plan.MidTerm)
	assert.Equal(t, "2026-08-28", plan.AsOf)

	st := plan.ShortTerm
	assert.Equal(t, core.DirectionLong, st.Direction)
	assert.Equal(t, "medium", st.Position)
	assert.Equal(t, [2]float64{680.50, 690.50}, st.EntryZone)
	assert.Equal(t, 670.50, st.Stop)
	assert.Equal(t, 695.50, st.Target1)
	assert.Equal(t, 705.50, st.Target2)

	sw := plan.Swing
	assert.Equal(t, [2]float64{675.50, 695.50}, sw.EntryZone)
	assert.Equal(t, 660.50, sw.Stop)
	assert.Equal(t, 705.50, sw.Target1)
	assert.Equal(t, 725.50, sw.Target2)

	mt := plan.MidTerm
	assert.Equal(t, [2]float64{670.50, 700.50}, mt.EntryZone)
	assert.Equal(t, 650.50, mt.Stop)
	assert.Equal(t, 715.50, mt.Target1)
	assert.Equal(t, 745.50, mt.Target2)
}

func TestBuildPlanShortMirrors(t *testing.T) {
	final := okResult(-0.5, 0.85, core.ModeLLM)
	plan := BuildPlan(snapshot(), final, DefaultPlanConfig())

	require.Equal(t, core.StatusOK, plan.Status)
	st := plan.ShortTerm
	assert.Equal(t, core.DirectionShort, st.Direction)
	assert.Equal(t, "heavy", st.Position)
	// Entry zone stays centered on close; stop and targets flip side.
	assert.Equal(t, [2]float64{680.50, 690.50}, st.EntryZone)
	assert.Equal(t, 700.50, st.Stop)
	assert.Equal(t, 675.50, st.Target1)
	assert.Equal(t, 665.50, st.Target2)
}

func TestBuildPlanFlat(t *testing.T) {
	tests := []float64{0, 0.1, -0.1, 0.05}
	for _, index := range tests {
		final := okResult(index, 0.9, core.ModeLLM)
		plan := BuildPlan(snapshot(), final, DefaultPlanConfig())

		require.Equal(t, core.StatusOK, plan.Status, "index %v", index)
		st := plan.ShortTerm
		assert.Equal(t, core.DirectionFlat, st.Direction, "index %v", index)
		assert.Equal(t, "observe only", st.Position, "index %v", index)
		// Flat keeps the long-side layout.
		assert.Equal(t, 670.50, st.Stop, "index %v", index)
		assert.Equal(t, 695.50, st.Target1, "index %v", index)
	}
}

func TestBuildPlanUnavailableFusion(t *testing.T) {
	plan := BuildPlan(snapshot(), core.Unavailable("no agents available"), DefaultPlanConfig())

	// Levels are still published, but never with a direction.
	require.Equal(t, core.StatusOK, plan.Status)
	assert.Equal(t, core.DirectionFlat, plan.ShortTerm.Direction)
	assert.Equal(t, "observe only", plan.ShortTerm.Position)
}

func TestBuildPlanPriceGates(t *testing.T) {
	final := okResult(0.5, 0.9, core.ModeLLM)

	bad := snapshot()
	bad.Status = core.StatusUnavailable
	bad.Reason = "no price data"
	plan := BuildPlan(bad, final, DefaultPlanConfig())
	assert.Equal(t, core.StatusUnavailable, plan.Status)
	assert.Equal(t, "no price data", plan.Reason)
	assert.Nil(t, plan.ShortTerm)
	assert.Nil(t, plan.Swing)
	assert.Nil(t, plan.MidTerm)

	zeroClose := snapshot()
	zeroClose.Close = 0
	plan = BuildPlan(zeroClose, final, DefaultPlanConfig())
	assert.Equal(t, core.StatusUnavailable, plan.Status)
	assert.Equal(t, "price unavailable", plan.Reason)

	noATR := snapshot()
	noATR.ATR14 = 0
	plan = BuildPlan(noATR, final, DefaultPlanConfig())
	assert.Equal(t, core.StatusUnavailable, plan.Status)
	assert.Equal(t, "insufficient price history", plan.Reason)
	assert.Nil(t, plan.ShortTerm)
}

func TestBuildPlanPositionSizing(t *testing.T) {
	tests := []struct {
		confidence float64
		want       string
	}{
		{0.5, "light"},
		{0.64, "light"},
		{0.65, "medium"},
		{0.79, "medium"},
		{0.8, "heavy"},
		{0.95, "heavy"},
	}
	for _, tt := range tests {
		final := okResult(0.3, tt.confidence, core.ModeLLM)
		plan := BuildPlan(snapshot(), final, DefaultPlanConfig())
		require.NotNil(t, plan.Swing)
		assert.Equal(t, tt.want, plan.Swing.Position, "confidence %v", tt.confidence)
	}
}

func TestBuildPlanDegraded(t *testing.T) {
	stale := snapshot()
	stale.IsStale = true
	plan := BuildPlan(stale, okResult(0.3, 0.7, core.ModeLLM), DefaultPlanConfig())
	assert.Equal(t, core.StatusDegraded, plan.Status)
	assert.Equal(t, "stale price", plan.Reason)
	assert.NotNil(t, plan.ShortTerm, "a stale plan still carries levels")

	degraded := core.AgentResult{Status: core.StatusDegraded, Index: 0.3, Confidence: 0.6, Mode: core.ModeHeuristic, Reason: "market agent degraded"}
	plan = BuildPlan(snapshot(), degraded, DefaultPlanConfig())
	assert.Equal(t, core.StatusDegraded, plan.Status)
	assert.Equal(t, "market agent degraded", plan.Reason, "the fusion reason travels with a degraded plan")
}
