package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemporalNewObjectAlwaysQueries(t *testing.T) {
	tc := NewTemporalCoherence()
	tc.BeginFrame()

	d := tc.GetQueryDecision("tree_1")
	assert.True(t, d.ShouldQuery)
	assert.True(t, d.PredictedVisible)
	assert.Equal(t, QueryReasonNew, d.Reason)
}

func TestTemporalConstantHistoryReachesFullConfidence(t *testing.T) {
	tc := NewTemporalCoherence()

	for i := 0; i < DefaultHistoryFrames; i++ {
		tc.BeginFrame()
		tc.RecordResult("rock_1", true)
	}

	assert.Equal(t, float32(1.0), tc.Confidence("rock_1"))
	assert.Equal(t, DefaultHistoryFrames, tc.StableFrames("rock_1"))

	tc.BeginFrame()
	d := tc.GetQueryDecision("rock_1")
	assert.False(t, d.ShouldQuery)
	assert.True(t, d.PredictedVisible)
	assert.Equal(t, QueryReasonStable, d.Reason)
}

func TestTemporalFlipResetsStability(t *testing.T) {
	tc := NewTemporalCoherence()

	for i := 0; i < DefaultHistoryFrames; i++ {
		tc.BeginFrame()
		tc.RecordResult("bush_1", true)
	}
	require.Equal(t, DefaultHistoryFrames, tc.StableFrames("bush_1"))

	tc.BeginFrame()
	tc.RecordResult("bush_1", false)

	assert.Equal(t, 1, tc.StableFrames("bush_1"))

	tc.BeginFrame()
	d := tc.GetQueryDecision("bush_1")
	assert.True(t, d.ShouldQuery)
	assert.Equal(t, QueryReasonUnstable, d.Reason)
}

func TestTemporalFlickeringObjectHasLowConfidence(t *testing.T) {
	tc := NewTemporalCoherence()

	for i := 0; i < DefaultHistoryFrames; i++ {
		tc.BeginFrame()
		tc.RecordResult("flicker", i%2 == 0)
	}

	assert.Equal(t, float32(0), tc.Confidence("flicker"))
}

func TestTemporalInvisibleStreakUsesReducedCadence(t *testing.T) {
	tc := NewTemporalCoherence()

	for i := 0; i < 5; i++ {
		tc.BeginFrame()
		tc.RecordResult("hidden_1", false)
	}

	// The frame right after the last result is within the interval.
	tc.BeginFrame()
	d := tc.GetQueryDecision("hidden_1")
	assert.Equal(t, QueryReasonInterval, d.Reason)
	assert.False(t, d.PredictedVisible)
	assert.False(t, d.ShouldQuery)

	// After the cadence elapses the object is re-tested.
	for i := 0; i < DefaultReducedQueryInterval; i++ {
		tc.BeginFrame()
	}
	d = tc.GetQueryDecision("hidden_1")
	assert.Equal(t, QueryReasonInterval, d.Reason)
	assert.True(t, d.ShouldQuery)
}

func TestTemporalForceQueryAll(t *testing.T) {
	tc := NewTemporalCoherence()

	for i := 0; i < DefaultHistoryFrames; i++ {
		tc.BeginFrame()
		tc.RecordResult("wall_1", true)
	}

	tc.ForceQueryAll()
	tc.BeginFrame()

	d := tc.GetQueryDecision("wall_1")
	assert.True(t, d.ShouldQuery)
	assert.Equal(t, QueryReasonForce, d.Reason)

	// The frame after, elision resumes.
	tc.BeginFrame()
	d = tc.GetQueryDecision("wall_1")
	assert.False(t, d.ShouldQuery)
	assert.Equal(t, QueryReasonStable, d.Reason)
}

func TestTemporalResetDiscardsHistory(t *testing.T) {
	tc := NewTemporalCoherence()

	tc.BeginFrame()
	tc.RecordResult("prop_1", true)
	tc.Reset()

	tc.BeginFrame()
	d := tc.GetQueryDecision("prop_1")
	assert.Equal(t, QueryReasonNew, d.Reason)
}

func TestTemporalRemove(t *testing.T) {
	tc := NewTemporalCoherence()

	tc.BeginFrame()
	tc.RecordResult("prop_2", true)
	tc.Remove("prop_2")

	assert.Equal(t, float32(0), tc.Confidence("prop_2"))
	assert.Equal(t, 0, tc.StableFrames("prop_2"))
}

func TestTemporalSetHistoryFramesDiscardsHistory(t *testing.T) {
	tc := NewTemporalCoherence()

	tc.BeginFrame()
	tc.RecordResult("prop_3", true)
	assert.Equal(t, float32(1), tc.Confidence("prop_3"))

	// Statistics over a different window are not comparable, so a resize
	// starts over.
	tc.SetHistoryFrames(16)
	assert.Equal(t, float32(0), tc.Confidence("prop_3"))

	// Setting the same window again keeps the recorded history.
	tc.RecordResult("prop_3", true)
	tc.SetHistoryFrames(16)
	assert.Equal(t, float32(1), tc.Confidence("prop_3"))
}

func TestTemporalSetConfidenceThresholdChangesStability(t *testing.T) {
	tc := NewTemporalCoherence()

	// 6 of 8 visible with a trailing run of 4: confidence 0.5, long streak.
	tc.BeginFrame()
	for _, v := range []bool{true, false, true, false, true, true, true, true} {
		tc.RecordResult("bush_1", v)
	}
	require.Equal(t, float32(0.5), tc.Confidence("bush_1"))

	tc.BeginFrame()
	d := tc.GetQueryDecision("bush_1")
	assert.True(t, d.ShouldQuery)
	assert.Equal(t, QueryReasonUnstable, d.Reason)

	tc.SetConfidenceThreshold(0.5)
	tc.BeginFrame()
	d = tc.GetQueryDecision("bush_1")
	assert.False(t, d.ShouldQuery)
	assert.Equal(t, QueryReasonStable, d.Reason)
}

func TestTemporalSetReducedQueryIntervalChangesCadence(t *testing.T) {
	tc := NewTemporalCoherence()

	tc.BeginFrame()
	for i := 0; i < 4; i++ {
		tc.RecordResult("rock_1", false)
	}
	tc.SetReducedQueryInterval(5)

	// Four frames later the streak is still inside the widened interval.
	for i := 0; i < 4; i++ {
		tc.BeginFrame()
	}
	d := tc.GetQueryDecision("rock_1")
	assert.False(t, d.ShouldQuery)
	assert.Equal(t, QueryReasonInterval, d.Reason)

	tc.BeginFrame()
	d = tc.GetQueryDecision("rock_1")
	assert.True(t, d.ShouldQuery)
	assert.Equal(t, QueryReasonInterval, d.Reason)
}
