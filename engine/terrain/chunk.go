package terrain

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vis/common"
)

// ChunkState tracks a chunk through its streaming lifecycle. Chunks move
// Loading to Active exactly once; unloading removes the record entirely.
type ChunkState int

const (
	ChunkStateLoading ChunkState = iota
	ChunkStateActive
)

// String returns the lowercase name of the chunk state.
//
// Returns:
//   - string: the state name
func (s ChunkState) String() string {
	switch s {
	case ChunkStateLoading:
		return "loading"
	case ChunkStateActive:
		return "active"
	default:
		return "unknown"
	}
}

// ChunkData holds one streamed terrain chunk: its grid identity, lifecycle
// state, current LOD tier and the generated geometry buffers. Geometry slices
// are replaced wholesale on retessellation, never mutated in place, so
// renderers holding the previous slice stay valid for the rest of their frame.
type ChunkData struct {
	Coord    common.GridCoord
	State    ChunkState
	LOD      int
	Distance float32

	// LastAccess is the manager frame the chunk was last inside the unload
	// radius. Priority is the distance key the chunk queued at, lower loads
	// sooner.
	LastAccess uint64
	Priority   float32

	Heightmap []float32
	Vertices  []float32
	Normals   []float32
	UVs       []float32
	Indices   []uint32
}

// Key returns a stable string identity for the chunk, usable as a visibility
// object ID.
//
// Returns:
//   - string: the chunk key
func (c *ChunkData) Key() string {
	return ChunkKey(c.Coord)
}

// ChunkKey formats a grid coordinate as a stable string identity.
//
// Parameters:
//   - coord: the chunk grid coordinate
//
// Returns:
//   - string: the chunk key
func ChunkKey(coord common.GridCoord) string {
	return fmt.Sprintf("chunk_%d_%d", coord.X, coord.Z)
}

// Bounds returns the world-space box the chunk occupies given the manager's
// chunk size and height range.
//
// Parameters:
//   - chunkSize: the chunk edge length in world units
//   - minHeight: the lowest terrain height
//   - maxHeight: the highest terrain height
//
// Returns:
//   - common.AABB: the chunk's world-space bounds
func (c *ChunkData) Bounds(chunkSize, minHeight, maxHeight float32) common.AABB {
	minX := float32(c.Coord.X) * chunkSize
	minZ := float32(c.Coord.Z) * chunkSize
	return common.AABB{
		Min: [3]float32{minX, minHeight, minZ},
		Max: [3]float32{minX + chunkSize, maxHeight, minZ + chunkSize},
	}
}
