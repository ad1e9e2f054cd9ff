package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()

	assert.InDelta(t, 0.7854, c.Fov(), 1e-3)
	assert.Equal(t, float32(1.0), c.Aspect())
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(1000.0), c.Far())

	// Without a controller the camera sits at the origin.
	x, y, z := c.Position()
	assert.Zero(t, x)
	assert.Zero(t, y)
	assert.Zero(t, z)
}

func TestCameraMatricesUpdateWithController(t *testing.T) {
	ctrl := NewCameraController(
		WithTarget(0, 0, 0),
		WithRadius(10),
	)
	c := NewCamera(WithController(ctrl))
	c.Update()

	identity := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	assert.NotEqual(t, identity, c.ViewMatrix())
	assert.NotEqual(t, identity, c.ProjectionMatrix())
	assert.NotEqual(t, identity, c.ViewProjectionMatrix())
}

func TestControllerZoomClampsToBounds(t *testing.T) {
	ctrl := NewCameraController(
		WithRadius(10),
		WithRadiusBounds(5, 20),
		WithZoomSpeed(1),
	)

	ctrl.Zoom(-100)
	assert.Equal(t, float32(5), ctrl.Radius())

	ctrl.Zoom(100)
	assert.Equal(t, float32(20), ctrl.Radius())
}

func TestControllerTeleportMovesTargetAndPosition(t *testing.T) {
	ctrl := NewCameraController(WithTarget(0, 0, 0), WithRadius(10))

	px, py, pz := ctrl.Position()
	ctrl.Teleport(100, 0, -50)

	tx, ty, tz := ctrl.Target()
	assert.Equal(t, float32(100), tx)
	assert.Equal(t, float32(0), ty)
	assert.Equal(t, float32(-50), tz)

	// The offset carries to the position so the orbit radius is unchanged.
	nx, ny, nz := ctrl.Position()
	assert.InDelta(t, px+100, nx, 1e-4)
	assert.InDelta(t, py, ny, 1e-4)
	assert.InDelta(t, pz-50, nz, 1e-4)
	assert.InDelta(t, 10, ctrl.Radius(), 1e-4)
}

func TestControllerOrbitKeepsRadius(t *testing.T) {
	ctrl := NewCameraController(WithTarget(0, 0, 0), WithRadius(10))

	ctrl.Orbit(0.5, 0.25)

	assert.InDelta(t, 10, ctrl.Radius(), 1e-4)
	x, y, z := ctrl.Position()
	d := x*x + y*y + z*z
	require.InDelta(t, 100, d, 1e-2)
}

func TestCameraUpdateTracksController(t *testing.T) {
	ctrl := NewCameraController(WithTarget(0, 0, 0), WithRadius(10))
	c := NewCamera(WithController(ctrl))
	c.Update()
	before := c.ViewMatrix()

	ctrl.Teleport(50, 0, 0)
	c.Update()

	assert.NotEqual(t, before, c.ViewMatrix())
}
