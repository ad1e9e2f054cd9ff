// package common contains common types that are used throughout this module. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types for visibility and level-of-detail work.
package common

import (
	"math"
)

// AABB is an axis-aligned bounding box in world space, expressed as the
// component-wise minimum and maximum corners.
type AABB struct {
	// Min is the minimum corner (smallest x, y, z).
	Min [3]float32
	// Max is the maximum corner (largest x, y, z).
	Max [3]float32
}

// Center returns the world-space center point of the box.
//
// Returns:
//   - x, y, z: the center coordinates
func (b AABB) Center() (x, y, z float32) {
	return (b.Min[0] + b.Max[0]) * 0.5,
		(b.Min[1] + b.Max[1]) * 0.5,
		(b.Min[2] + b.Max[2]) * 0.5
}

// HalfExtents returns the half-size of the box along each axis.
//
// Returns:
//   - hx, hy, hz: half-extents along x, y, z
func (b AABB) HalfExtents() (hx, hy, hz float32) {
	return (b.Max[0] - b.Min[0]) * 0.5,
		(b.Max[1] - b.Min[1]) * 0.5,
		(b.Max[2] - b.Min[2]) * 0.5
}

// Inflated returns a copy of the box scaled about its center by the given
// factor. A factor of 1.1 grows the box by 10% in every direction; a factor
// of 1.0 returns the box unchanged.
//
// Parameters:
//   - factor: the scale factor applied to the half-extents
//
// Returns:
//   - AABB: the inflated box
func (b AABB) Inflated(factor float32) AABB {
	cx, cy, cz := b.Center()
	hx, hy, hz := b.HalfExtents()
	hx *= factor
	hy *= factor
	hz *= factor
	return AABB{
		Min: [3]float32{cx - hx, cy - hy, cz - hz},
		Max: [3]float32{cx + hx, cy + hy, cz + hz},
	}
}

// Corners writes the 8 corner points of the box into out in xyz triplets.
// The slice must have room for 24 floats. Corner order is all combinations of
// min/max per axis, x varying fastest.
//
// Parameters:
//   - out: destination slice (must be at least 24 elements)
func (b AABB) Corners(out []float32) {
	xs := [2]float32{b.Min[0], b.Max[0]}
	ys := [2]float32{b.Min[1], b.Max[1]}
	zs := [2]float32{b.Min[2], b.Max[2]}
	i := 0
	for zi := 0; zi < 2; zi++ {
		for yi := 0; yi < 2; yi++ {
			for xi := 0; xi < 2; xi++ {
				out[i] = xs[xi]
				out[i+1] = ys[yi]
				out[i+2] = zs[zi]
				i += 3
			}
		}
	}
}

// Sphere returns the tightest bounding sphere that encloses the box.
//
// Returns:
//   - BoundingSphere: a sphere centered on the box center with radius equal to
//     half the box diagonal
func (b AABB) Sphere() BoundingSphere {
	cx, cy, cz := b.Center()
	hx, hy, hz := b.HalfExtents()
	r := float32(math.Sqrt(float64(hx*hx + hy*hy + hz*hz)))
	return BoundingSphere{Center: [3]float32{cx, cy, cz}, Radius: r}
}

// BoundingSphere is a world-space sphere used for cheap visibility tests.
type BoundingSphere struct {
	// Center is the world-space center of the sphere.
	Center [3]float32
	// Radius is the sphere radius. Must be >= 0.
	Radius float32
}

// Scaled returns a copy of the sphere with its radius multiplied by factor.
// The center is unchanged.
//
// Parameters:
//   - factor: multiplier applied to the radius
//
// Returns:
//   - BoundingSphere: the scaled sphere
func (s BoundingSphere) Scaled(factor float32) BoundingSphere {
	return BoundingSphere{Center: s.Center, Radius: s.Radius * factor}
}

// GridCoord identifies a terrain chunk by its integer grid cell on the
// horizontal plane. World x/z divided by the chunk size, floored.
type GridCoord struct {
	X int32
	Z int32
}

// Distance returns the Euclidean distance between two world-space points.
//
// Parameters:
//   - ax, ay, az: first point
//   - bx, by, bz: second point
//
// Returns:
//   - float32: the distance between the points
func Distance(ax, ay, az, bx, by, bz float32) float32 {
	dx := ax - bx
	dy := ay - by
	dz := az - bz
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}

// DistanceXZ returns the distance between two points projected onto the
// horizontal (XZ) plane. Used for terrain streaming, where chunk distance is
// measured flat regardless of camera height.
//
// Parameters:
//   - ax, az: first point (x, z)
//   - bx, bz: second point (x, z)
//
// Returns:
//   - float32: the horizontal distance
func DistanceXZ(ax, az, bx, bz float32) float32 {
	dx := ax - bx
	dz := az - bz
	return float32(math.Sqrt(float64(dx*dx + dz*dz)))
}
