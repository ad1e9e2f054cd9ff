package visibility

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
)

// Culler performs frustum tests against the most recently supplied camera
// matrices. All tests are conservative when the margin is applied: a bounding
// volume is inflated by the configured margin before testing, so borderline
// objects are kept visible rather than popped.
type Culler interface {
	// UpdateFromCamera rebuilds the cached frustum planes from the given
	// projection and view matrices. Must be called once per frame before any
	// tests.
	//
	// Parameters:
	//   - projection: column-major projection matrix
	//   - view: column-major view matrix
	UpdateFromCamera(projection, view [16]float32)

	// TestBox reports whether the box intersects the frustum.
	//
	// Parameters:
	//   - box: axis-aligned bounding box in world space
	//   - applyMargin: when true the box is inflated by the conservative margin
	//
	// Returns:
	//   - bool: true if any part of the (possibly inflated) box is inside
	TestBox(box common.AABB, applyMargin bool) bool

	// TestSphere reports whether the sphere intersects the frustum.
	//
	// Parameters:
	//   - sphere: bounding sphere in world space
	//   - applyMargin: when true the radius is scaled by the conservative margin
	//
	// Returns:
	//   - bool: true if any part of the (possibly scaled) sphere is inside
	TestSphere(sphere common.BoundingSphere, applyMargin bool) bool

	// TestSphereWithMargin tests the sphere without inflation and additionally
	// returns the smallest radius-adjusted clearance against any frustum plane.
	// A small positive clearance means the sphere is barely inside, which the
	// temporal layer uses as a stability signal.
	//
	// Parameters:
	//   - sphere: bounding sphere in world space
	//
	// Returns:
	//   - bool: true if the sphere is inside the frustum
	//   - float32: minimum clearance across the six planes
	TestSphereWithMargin(sphere common.BoundingSphere) (bool, float32)

	// TestBoxes tests a batch of boxes with the conservative margin applied,
	// writing one result per box into results. Panics if the slices differ in
	// length.
	//
	// Parameters:
	//   - boxes: axis-aligned bounding boxes in world space
	//   - results: destination slice, len(results) must equal len(boxes)
	TestBoxes(boxes []common.AABB, results []bool)

	// ConservativeMargin returns the inflation factor applied by margin-aware
	// tests.
	//
	// Returns:
	//   - float32: the current margin, 1.0 means no inflation
	ConservativeMargin() float32

	// SetConservativeMargin replaces the inflation factor. Values below 1.0 are
	// clamped to 1.0.
	//
	// Parameters:
	//   - margin: the new inflation factor
	SetConservativeMargin(margin float32)

	// Frustum returns a copy of the current frustum planes.
	//
	// Returns:
	//   - common.Frustum: the planes extracted by the last UpdateFromCamera
	Frustum() common.Frustum
}

var _ Culler = &cullerImpl{}

type cullerImpl struct {
	mu *sync.RWMutex

	frustum  common.Frustum
	viewProj [16]float32
	margin   float32
	updated  bool
}

// NewCuller creates a new Culler with the default conservative margin. Until
// UpdateFromCamera is called every test reports not-visible.
//
// Parameters:
//   - options: optional configuration functions
//
// Returns:
//   - Culler: the new culler
func NewCuller(options ...CullerOption) Culler {
	c := &cullerImpl{
		mu:     &sync.RWMutex{},
		margin: DefaultConservativeMargin,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *cullerImpl) UpdateFromCamera(projection, view [16]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	common.Mul4(c.viewProj[:], projection[:], view[:])
	c.frustum = common.ExtractFrustumFromMatrix(c.viewProj[:])
	c.updated = true
}

func (c *cullerImpl) TestBox(box common.AABB, applyMargin bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.updated {
		return false
	}
	if applyMargin {
		box = box.Inflated(c.margin)
	}
	return c.frustum.ContainsBox(box)
}

func (c *cullerImpl) TestSphere(sphere common.BoundingSphere, applyMargin bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.updated {
		return false
	}
	if applyMargin {
		sphere = sphere.Scaled(c.margin)
	}
	return c.frustum.ContainsSphere(sphere)
}

func (c *cullerImpl) TestSphereWithMargin(sphere common.BoundingSphere) (bool, float32) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.updated {
		return false, 0
	}
	return c.frustum.SphereMargin(sphere)
}

func (c *cullerImpl) TestBoxes(boxes []common.AABB, results []bool) {
	if len(boxes) != len(results) {
		panic("visibility: TestBoxes slice length mismatch")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range boxes {
		results[i] = c.updated && c.frustum.ContainsBox(boxes[i].Inflated(c.margin))
	}
}

func (c *cullerImpl) ConservativeMargin() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.margin
}

func (c *cullerImpl) SetConservativeMargin(margin float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if margin < 1.0 {
		margin = 1.0
	}
	c.margin = margin
}

func (c *cullerImpl) Frustum() common.Frustum {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frustum
}
