package visibility

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMatrices(t *testing.T) (proj, view [16]float32) {
	t.Helper()
	common.Perspective(proj[:], 1.5708, 1.0, 0.1, 1000.0)
	common.LookAt(view[:], 0, 0, 0, 0, 0, -1, 0, 1, 0)
	return proj, view
}

func TestCullerBeforeUpdateNothingVisible(t *testing.T) {
	c := NewCuller()

	assert.False(t, c.TestSphere(common.BoundingSphere{Center: [3]float32{0, 0, -10}, Radius: 1}, false))
}

func TestCullerTestSphere(t *testing.T) {
	c := NewCuller()
	c.UpdateFromCamera(testMatrices(t))

	assert.True(t, c.TestSphere(common.BoundingSphere{Center: [3]float32{0, 0, -10}, Radius: 1}, false))
	assert.False(t, c.TestSphere(common.BoundingSphere{Center: [3]float32{0, 0, 10}, Radius: 1}, false))
}

func TestCullerMarginIsConservative(t *testing.T) {
	c := NewCuller(WithConservativeMargin(1.1))
	c.UpdateFromCamera(testMatrices(t))

	// Anything visible without the margin must stay visible with it.
	spheres := []common.BoundingSphere{
		{Center: [3]float32{0, 0, -10}, Radius: 1},
		{Center: [3]float32{5, 5, -20}, Radius: 2},
		{Center: [3]float32{-30, 0, -50}, Radius: 10},
		{Center: [3]float32{0, 0, -999}, Radius: 1},
	}
	for _, s := range spheres {
		if c.TestSphere(s, false) {
			assert.True(t, c.TestSphere(s, true), "margin dropped sphere at %v", s.Center)
		}
	}
}

func TestCullerSetConservativeMarginClamps(t *testing.T) {
	c := NewCuller()

	c.SetConservativeMargin(0.5)
	assert.Equal(t, float32(1.0), c.ConservativeMargin())

	c.SetConservativeMargin(1.25)
	assert.Equal(t, float32(1.25), c.ConservativeMargin())
}

func TestCullerTestSphereWithMargin(t *testing.T) {
	c := NewCuller()
	c.UpdateFromCamera(testMatrices(t))

	inside, clearance := c.TestSphereWithMargin(common.BoundingSphere{Center: [3]float32{0, 0, -100}, Radius: 1})
	require.True(t, inside)
	assert.Greater(t, clearance, float32(0))
}

func TestCullerTestBoxes(t *testing.T) {
	c := NewCuller()
	c.UpdateFromCamera(testMatrices(t))

	boxes := []common.AABB{
		{Min: [3]float32{-1, -1, -11}, Max: [3]float32{1, 1, -9}},
		{Min: [3]float32{-1, -1, 9}, Max: [3]float32{1, 1, 11}},
		{Min: [3]float32{400, 400, -500}, Max: [3]float32{401, 401, -499}},
	}
	results := make([]bool, len(boxes))
	c.TestBoxes(boxes, results)

	// Batch results match the scalar path with the margin applied.
	for i, box := range boxes {
		assert.Equal(t, c.TestBox(box, true), results[i], "box %d", i)
	}
	assert.True(t, results[0])
	assert.False(t, results[1])
}

func TestCullerTestBoxesLengthMismatchPanics(t *testing.T) {
	c := NewCuller()

	assert.Panics(t, func() {
		c.TestBoxes(make([]common.AABB, 3), make([]bool, 2))
	})
}
