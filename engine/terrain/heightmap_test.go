package terrain

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerticesPerSide(t *testing.T) {
	g := NewFractalGenerator(100, WithBaseResolution(64))

	assert.Equal(t, 65, g.VerticesPerSide(0))
	assert.Equal(t, 33, g.VerticesPerSide(1))
	assert.Equal(t, 17, g.VerticesPerSide(2))
	// The resolution floor keeps coarse tiers renderable.
	assert.Equal(t, 5, g.VerticesPerSide(10))
}

func TestHeightmapDeterministic(t *testing.T) {
	g := NewFractalGenerator(100)

	a := g.GenerateChunkHeightmap(3, -2, 0)
	b := g.GenerateChunkHeightmap(3, -2, 0)
	assert.Equal(t, a, b)

	other := g.GenerateChunkHeightmap(4, -2, 0)
	assert.NotEqual(t, a, other)
}

func TestHeightmapSeedChangesTerrain(t *testing.T) {
	a := NewFractalGenerator(100, WithSeed(1)).GenerateChunkHeightmap(0, 0, 0)
	b := NewFractalGenerator(100, WithSeed(2)).GenerateChunkHeightmap(0, 0, 0)
	assert.NotEqual(t, a, b)
}

func TestHeightmapEdgesMatchNeighbors(t *testing.T) {
	g := NewFractalGenerator(100, WithBaseResolution(16))
	side := g.VerticesPerSide(0)

	left := g.GenerateChunkHeightmap(0, 0, 0)
	right := g.GenerateChunkHeightmap(1, 0, 0)

	// The right edge of chunk (0,0) samples the same world positions as the
	// left edge of chunk (1,0), so the seam is watertight.
	for z := 0; z < side; z++ {
		assert.InDelta(t, left[z*side+(side-1)], right[z*side], 1e-3, "row %d", z)
	}
}

func TestGeometryBufferSizes(t *testing.T) {
	g := NewFractalGenerator(100, WithBaseResolution(16))
	side := g.VerticesPerSide(0)

	heightmap := g.GenerateChunkHeightmap(0, 0, 0)
	require.Len(t, heightmap, side*side)

	assert.Len(t, g.GenerateChunkVertices(0, 0, 0, heightmap), side*side*3)
	assert.Len(t, g.GenerateChunkNormals(0, heightmap), side*side*3)
	assert.Len(t, g.GenerateChunkUVs(0), side*side*2)
	assert.Len(t, g.GenerateChunkIndices(0), (side-1)*(side-1)*6)
}

func TestNormalsAreUnitLength(t *testing.T) {
	g := NewFractalGenerator(100, WithBaseResolution(8))
	heightmap := g.GenerateChunkHeightmap(2, 2, 0)
	normals := g.GenerateChunkNormals(0, heightmap)

	for i := 0; i < len(normals); i += 3 {
		length := math32.Sqrt(normals[i]*normals[i] + normals[i+1]*normals[i+1] + normals[i+2]*normals[i+2])
		assert.InDelta(t, 1.0, length, 1e-4)
		// Terrain normals always point upward.
		assert.Greater(t, normals[i+1], float32(0))
	}
}

func TestVerticesCoverChunkExtent(t *testing.T) {
	g := NewFractalGenerator(100, WithBaseResolution(8))
	heightmap := g.GenerateChunkHeightmap(1, 0, 0)
	verts := g.GenerateChunkVertices(1, 0, 0, heightmap)

	assert.Equal(t, float32(100), verts[0])
	assert.Equal(t, float32(0), verts[2])

	last := len(verts) - 3
	assert.InDelta(t, 200, verts[last], 1e-3)
	assert.InDelta(t, 100, verts[last+2], 1e-3)
}
