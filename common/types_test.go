package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAABBCenterAndHalfExtents(t *testing.T) {
	box := AABB{Min: [3]float32{-2, 0, 4}, Max: [3]float32{2, 6, 8}}

	cx, cy, cz := box.Center()
	assert.Equal(t, float32(0), cx)
	assert.Equal(t, float32(3), cy)
	assert.Equal(t, float32(6), cz)

	hx, hy, hz := box.HalfExtents()
	assert.Equal(t, float32(2), hx)
	assert.Equal(t, float32(3), hy)
	assert.Equal(t, float32(2), hz)
}

func TestAABBInflated(t *testing.T) {
	box := AABB{Min: [3]float32{-1, -1, -1}, Max: [3]float32{1, 1, 1}}
	inflated := box.Inflated(2.0)

	// Inflation scales around the center, so the center is unchanged.
	cx, cy, cz := inflated.Center()
	assert.Equal(t, float32(0), cx)
	assert.Equal(t, float32(0), cy)
	assert.Equal(t, float32(0), cz)

	hx, _, _ := inflated.HalfExtents()
	assert.Equal(t, float32(2), hx)
}

func TestAABBCorners(t *testing.T) {
	box := AABB{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 2, 3}}

	var corners [24]float32
	box.Corners(corners[:])

	// Every corner coordinate is either the min or max on its axis.
	for i := 0; i < 8; i++ {
		x, y, z := corners[i*3], corners[i*3+1], corners[i*3+2]
		assert.Contains(t, []float32{0, 1}, x)
		assert.Contains(t, []float32{0, 2}, y)
		assert.Contains(t, []float32{0, 3}, z)
	}
}

func TestAABBSphere(t *testing.T) {
	box := AABB{Min: [3]float32{-1, -1, -1}, Max: [3]float32{1, 1, 1}}
	s := box.Sphere()

	assert.Equal(t, [3]float32{0, 0, 0}, s.Center)
	// Radius reaches the corner.
	assert.InDelta(t, 1.7320508, s.Radius, 1e-4)
}

func TestBoundingSphereScaled(t *testing.T) {
	s := BoundingSphere{Center: [3]float32{1, 2, 3}, Radius: 2}
	scaled := s.Scaled(1.5)

	assert.Equal(t, s.Center, scaled.Center)
	assert.Equal(t, float32(3), scaled.Radius)
}

func TestDistance(t *testing.T) {
	assert.Equal(t, float32(5), Distance(0, 0, 0, 3, 4, 0))
	assert.Equal(t, float32(5), DistanceXZ(0, 0, 3, 4))
}
