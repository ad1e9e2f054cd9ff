package common

import (
	"math"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// SignedDistance returns the signed distance from the plane to a point.
// Positive values are on the normal side of the plane (inside the frustum for
// frustum planes), negative values are behind it.
//
// Parameters:
//   - x, y, z: the point in world space
//
// Returns:
//   - float32: the signed distance
func (p Plane) SignedDistance(x, y, z float32) float32 {
	return p.Normal[0]*x + p.Normal[1]*y + p.Normal[2]*z + p.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix.
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: 16 float32 values representing the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj []float32) Frustum {
	var f Frustum

	// For column-major matrix M, element M[row][col] is at index col*4 + row
	// So M[i][j] = viewProj[j*4 + i]

	// Left plane: row3 + row0
	f.Planes[FrustumLeft].Normal[0] = viewProj[3] + viewProj[0]
	f.Planes[FrustumLeft].Normal[1] = viewProj[7] + viewProj[4]
	f.Planes[FrustumLeft].Normal[2] = viewProj[11] + viewProj[8]
	f.Planes[FrustumLeft].Distance = viewProj[15] + viewProj[12]

	// Right plane: row3 - row0
	f.Planes[FrustumRight].Normal[0] = viewProj[3] - viewProj[0]
	f.Planes[FrustumRight].Normal[1] = viewProj[7] - viewProj[4]
	f.Planes[FrustumRight].Normal[2] = viewProj[11] - viewProj[8]
	f.Planes[FrustumRight].Distance = viewProj[15] - viewProj[12]

	// Bottom plane: row3 + row1
	f.Planes[FrustumBottom].Normal[0] = viewProj[3] + viewProj[1]
	f.Planes[FrustumBottom].Normal[1] = viewProj[7] + viewProj[5]
	f.Planes[FrustumBottom].Normal[2] = viewProj[11] + viewProj[9]
	f.Planes[FrustumBottom].Distance = viewProj[15] + viewProj[13]

	// Top plane: row3 - row1
	f.Planes[FrustumTop].Normal[0] = viewProj[3] - viewProj[1]
	f.Planes[FrustumTop].Normal[1] = viewProj[7] - viewProj[5]
	f.Planes[FrustumTop].Normal[2] = viewProj[11] - viewProj[9]
	f.Planes[FrustumTop].Distance = viewProj[15] - viewProj[13]

	// Near plane: row3 + row2
	f.Planes[FrustumNear].Normal[0] = viewProj[3] + viewProj[2]
	f.Planes[FrustumNear].Normal[1] = viewProj[7] + viewProj[6]
	f.Planes[FrustumNear].Normal[2] = viewProj[11] + viewProj[10]
	f.Planes[FrustumNear].Distance = viewProj[15] + viewProj[14]

	// Far plane: row3 - row2
	f.Planes[FrustumFar].Normal[0] = viewProj[3] - viewProj[2]
	f.Planes[FrustumFar].Normal[1] = viewProj[7] - viewProj[6]
	f.Planes[FrustumFar].Normal[2] = viewProj[11] - viewProj[10]
	f.Planes[FrustumFar].Distance = viewProj[15] - viewProj[14]

	// Normalize all planes
	for i := range f.Planes {
		f.normalizePlane(i)
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := float32(math.Sqrt(float64(
		p.Normal[0]*p.Normal[0] +
			p.Normal[1]*p.Normal[1] +
			p.Normal[2]*p.Normal[2],
	)))

	if length > 0 {
		invLen := 1.0 / length
		p.Normal[0] *= invLen
		p.Normal[1] *= invLen
		p.Normal[2] *= invLen
		p.Distance *= invLen
	}
}

// ContainsSphere tests whether a sphere intersects or is inside the frustum.
// A sphere is outside only when it is fully behind at least one plane.
//
// Parameters:
//   - s: the sphere to test
//
// Returns:
//   - bool: true if the sphere is potentially visible
func (f *Frustum) ContainsSphere(s BoundingSphere) bool {
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(s.Center[0], s.Center[1], s.Center[2]) < -s.Radius {
			return false
		}
	}
	return true
}

// SphereMargin tests a sphere against the frustum and also reports the signed
// margin: the smallest per-plane clearance, in world units, adjusted for the
// sphere radius. A large positive margin means the sphere is comfortably
// inside every plane; a margin near zero means the sphere grazes a plane edge;
// a very negative margin means it is confidently outside.
//
// Parameters:
//   - s: the sphere to test
//
// Returns:
//   - bool: true if the sphere is potentially visible
//   - float32: the signed distance to the nearest plane (radius-adjusted)
func (f *Frustum) SphereMargin(s BoundingSphere) (bool, float32) {
	margin := float32(math.MaxFloat32)
	visible := true
	for i := range f.Planes {
		d := f.Planes[i].SignedDistance(s.Center[0], s.Center[1], s.Center[2]) + s.Radius
		if d < margin {
			margin = d
		}
		if d < 0 {
			visible = false
		}
	}
	return visible, margin
}

// ContainsBox tests whether an axis-aligned box intersects or is inside the
// frustum. Uses the positive-vertex test: for each plane, only the corner
// farthest along the plane normal is checked. The box is outside only when
// that corner is behind some plane.
//
// Parameters:
//   - box: the box to test
//
// Returns:
//   - bool: true if the box is potentially visible
func (f *Frustum) ContainsBox(box AABB) bool {
	for i := range f.Planes {
		p := &f.Planes[i]

		// Positive vertex: the box corner farthest in the normal's direction.
		px, py, pz := box.Min[0], box.Min[1], box.Min[2]
		if p.Normal[0] >= 0 {
			px = box.Max[0]
		}
		if p.Normal[1] >= 0 {
			py = box.Max[1]
		}
		if p.Normal[2] >= 0 {
			pz = box.Max[2]
		}

		if p.SignedDistance(px, py, pz) < 0 {
			return false
		}
	}
	return true
}
