package vegetation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateLODBands(t *testing.T) {
	s := NewBillboardLODSystem()

	cases := []struct {
		distance float32
		level    LODLevel
		alpha    float32
	}{
		{0, LODFull3D, 0},
		{29, LODFull3D, 0},
		{30, LODMesh1, 0},
		{59, LODMesh1, 0},
		{60, LODMesh2, 0},
		{99, LODMesh2, 0},
		{100, LODCrossfade, 0},
		{120, LODCrossfade, 0.4},
		{125, LODCrossfade, 0.5},
		{150, LODBillboard, 1},
		{299, LODBillboard, 1},
		{300, LODCulled, 0},
		{10000, LODCulled, 0},
	}
	for _, tc := range cases {
		level, alpha := s.CalculateLOD(tc.distance)
		assert.Equal(t, tc.level, level, "distance %.0f", tc.distance)
		assert.InDelta(t, tc.alpha, alpha, 1e-5, "distance %.0f", tc.distance)
	}
}

func TestLODLevelMonotonicWithDistance(t *testing.T) {
	s := NewBillboardLODSystem()

	prev := LODFull3D
	for d := float32(0); d < 400; d += 0.5 {
		level, _ := s.CalculateLOD(d)
		assert.GreaterOrEqual(t, int(level), int(prev), "distance %.1f", d)
		prev = level
	}
}

func TestCrossfadeAlphaContinuous(t *testing.T) {
	s := NewBillboardLODSystem()

	// The alpha at the band edges matches the neighboring states, so the
	// billboard weight never jumps.
	_, start := s.CalculateLOD(100.001)
	assert.InDelta(t, 0, start, 1e-3)

	_, end := s.CalculateLOD(149.999)
	assert.InDelta(t, 1, end, 1e-3)
}

func TestUpdateAssignsStates(t *testing.T) {
	s := NewBillboardLODSystem()
	s.AddInstances([][3]float32{
		{0, 0, -10},  // full 3d
		{0, 0, -120}, // crossfade
		{0, 0, -500}, // culled
	})

	s.Update(0, 0, 0)

	st, ok := s.State(0)
	require.True(t, ok)
	assert.Equal(t, LODFull3D, st.Level)

	st, _ = s.State(1)
	assert.Equal(t, LODCrossfade, st.Level)
	assert.InDelta(t, 0.4, st.CrossfadeAlpha, 1e-5)

	st, _ = s.State(2)
	assert.Equal(t, LODCulled, st.Level)
}

func TestUpdateIsIdempotent(t *testing.T) {
	s := NewBillboardLODSystem()
	s.AddInstance([3]float32{0, 0, -120})

	s.Update(0, 0, 0)
	first, _ := s.State(0)
	s.Update(0, 0, 0)
	second, _ := s.State(0)

	assert.Equal(t, first, second)
}

func TestVisibilityOverride(t *testing.T) {
	s := NewBillboardLODSystem()
	s.AddInstance([3]float32{0, 0, -10})
	s.AddInstance([3]float32{0, 0, -20})
	s.Update(0, 0, 0)

	s.SetInstanceVisibility(0, false)

	st, _ := s.State(0)
	assert.Equal(t, LODCulled, st.Level)
	assert.Equal(t, []int{1}, s.VisibleInstanceIndices())

	// The override holds across updates until cleared.
	s.Update(0, 0, 0)
	st, _ = s.State(0)
	assert.Equal(t, LODCulled, st.Level)

	s.SetInstanceVisibility(0, true)
	s.Update(0, 0, 0)
	st, _ = s.State(0)
	assert.Equal(t, LODFull3D, st.Level)
}

func TestInstanceBufferPacksVisible(t *testing.T) {
	s := NewBillboardLODSystem()
	s.AddInstance([3]float32{1, 2, -120})
	s.AddInstance([3]float32{0, 0, -500}) // culled
	s.Update(0, 0, 0)

	buf := s.InstanceBuffer()
	require.Len(t, buf, 4)
	assert.Equal(t, float32(1), buf[0])
	assert.Equal(t, float32(2), buf[1])
	assert.Equal(t, float32(-120), buf[2])
	assert.Greater(t, buf[3], float32(0))
}

func TestStateOutOfRange(t *testing.T) {
	s := NewBillboardLODSystem()
	_, ok := s.State(0)
	assert.False(t, ok)
	_, ok = s.State(-1)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Count())
}

func TestCustomBands(t *testing.T) {
	s := NewBillboardLODSystem(
		WithMeshDistances(10, 20),
		WithCrossfadeBand(40, 60),
		WithCullDistance(80),
	)

	level, _ := s.CalculateLOD(15)
	assert.Equal(t, LODMesh1, level)
	level, alpha := s.CalculateLOD(50)
	assert.Equal(t, LODCrossfade, level)
	assert.InDelta(t, 0.5, alpha, 1e-5)
	level, _ = s.CalculateLOD(90)
	assert.Equal(t, LODCulled, level)
}
