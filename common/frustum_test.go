package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFrustum builds a frustum for a camera at the origin looking down -Z
// with a 90 degree vertical FOV.
func testFrustum(t *testing.T) Frustum {
	t.Helper()

	var proj, view, vp [16]float32
	Perspective(proj[:], 1.5708, 1.0, 0.1, 1000.0)
	LookAt(view[:], 0, 0, 0, 0, 0, -1, 0, 1, 0)
	Mul4(vp[:], proj[:], view[:])
	return ExtractFrustumFromMatrix(vp[:])
}

func TestFrustumContainsSphere(t *testing.T) {
	f := testFrustum(t)

	assert.True(t, f.ContainsSphere(BoundingSphere{Center: [3]float32{0, 0, -10}, Radius: 1}))
	assert.True(t, f.ContainsSphere(BoundingSphere{Center: [3]float32{0, 0, -500}, Radius: 1}))

	// Behind the camera.
	assert.False(t, f.ContainsSphere(BoundingSphere{Center: [3]float32{0, 0, 10}, Radius: 1}))
	// Far outside the side planes.
	assert.False(t, f.ContainsSphere(BoundingSphere{Center: [3]float32{1000, 0, -10}, Radius: 1}))
	// Past the far plane.
	assert.False(t, f.ContainsSphere(BoundingSphere{Center: [3]float32{0, 0, -2000}, Radius: 1}))
}

func TestFrustumSphereStraddlingPlane(t *testing.T) {
	f := testFrustum(t)

	// Center behind the camera but radius reaching past the near plane.
	assert.True(t, f.ContainsSphere(BoundingSphere{Center: [3]float32{0, 0, 1}, Radius: 5}))
}

func TestFrustumContainsBox(t *testing.T) {
	f := testFrustum(t)

	inside := AABB{Min: [3]float32{-1, -1, -11}, Max: [3]float32{1, 1, -9}}
	assert.True(t, f.ContainsBox(inside))

	behind := AABB{Min: [3]float32{-1, -1, 9}, Max: [3]float32{1, 1, 11}}
	assert.False(t, f.ContainsBox(behind))

	// Huge box surrounding the whole frustum still intersects it.
	surrounding := AABB{Min: [3]float32{-5000, -5000, -5000}, Max: [3]float32{5000, 5000, 5000}}
	assert.True(t, f.ContainsBox(surrounding))
}

func TestFrustumSphereMargin(t *testing.T) {
	f := testFrustum(t)

	inside, clearance := f.SphereMargin(BoundingSphere{Center: [3]float32{0, 0, -10}, Radius: 1})
	require.True(t, inside)
	assert.Greater(t, clearance, float32(0))

	outside, clearance := f.SphereMargin(BoundingSphere{Center: [3]float32{0, 0, 500}, Radius: 1})
	require.False(t, outside)
	assert.Less(t, clearance, float32(0))

	// A deeper sphere has more clearance than one hugging the near plane.
	_, nearClearance := f.SphereMargin(BoundingSphere{Center: [3]float32{0, 0, -0.2}, Radius: 0.05})
	_, deepClearance := f.SphereMargin(BoundingSphere{Center: [3]float32{0, 0, -100}, Radius: 0.05})
	assert.Greater(t, deepClearance, nearClearance)
}

func TestProjectPoint(t *testing.T) {
	var proj, view, vp [16]float32
	Perspective(proj[:], 1.5708, 1.0, 0.1, 1000.0)
	LookAt(view[:], 0, 0, 0, 0, 0, -1, 0, 1, 0)
	Mul4(vp[:], proj[:], view[:])

	// A point straight ahead projects to the NDC center.
	nx, ny, _, w := ProjectPoint(vp[:], 0, 0, -10)
	require.Greater(t, w, float32(0))
	assert.InDelta(t, 0, nx, 1e-5)
	assert.InDelta(t, 0, ny, 1e-5)

	// A point behind the camera reports non-positive w.
	_, _, _, w = ProjectPoint(vp[:], 0, 0, 10)
	assert.LessOrEqual(t, w, float32(0))
}
