package terrain

import (
	"github.com/chewxy/math32"
)

// HeightmapGenerator produces chunk geometry at a given LOD. Generation must
// be deterministic per coordinate so a chunk regenerated at a different LOD
// keeps the same silhouette, and must be safe to call from multiple
// goroutines because chunk loads fan out across a worker pool.
type HeightmapGenerator interface {
	// VerticesPerSide returns the grid dimension for a LOD tier, including
	// both edges.
	//
	// Parameters:
	//   - lod: the LOD tier, 0 is finest
	//
	// Returns:
	//   - int: samples along one chunk edge
	VerticesPerSide(lod int) int

	// GenerateChunkHeightmap samples terrain height across the chunk.
	//
	// Parameters:
	//   - chunkX: the chunk grid X
	//   - chunkZ: the chunk grid Z
	//   - lod: the LOD tier
	//
	// Returns:
	//   - []float32: VerticesPerSide(lod)^2 height samples, row-major by Z
	GenerateChunkHeightmap(chunkX, chunkZ int32, lod int) []float32

	// GenerateChunkVertices builds the interleaved position buffer.
	//
	// Parameters:
	//   - chunkX: the chunk grid X
	//   - chunkZ: the chunk grid Z
	//   - lod: the LOD tier
	//   - heightmap: the samples from GenerateChunkHeightmap
	//
	// Returns:
	//   - []float32: xyz per vertex in world space
	GenerateChunkVertices(chunkX, chunkZ int32, lod int, heightmap []float32) []float32

	// GenerateChunkNormals derives per-vertex normals from the heightmap.
	//
	// Parameters:
	//   - lod: the LOD tier
	//   - heightmap: the samples from GenerateChunkHeightmap
	//
	// Returns:
	//   - []float32: xyz per vertex, normalized
	GenerateChunkNormals(lod int, heightmap []float32) []float32

	// GenerateChunkUVs builds texture coordinates spanning the chunk.
	//
	// Parameters:
	//   - lod: the LOD tier
	//
	// Returns:
	//   - []float32: uv per vertex in [0, 1]
	GenerateChunkUVs(lod int) []float32

	// GenerateChunkIndices builds the triangle index buffer for the grid.
	//
	// Parameters:
	//   - lod: the LOD tier
	//
	// Returns:
	//   - []uint32: triangle list indices
	GenerateChunkIndices(lod int) []uint32
}

var _ HeightmapGenerator = &fractalGenerator{}

// fractalGenerator layers value noise octaves into rolling terrain. Hash
// lattice noise keeps it deterministic and allocation-free per sample.
type fractalGenerator struct {
	chunkSize      float32
	baseResolution int
	octaves        int
	baseFrequency  float32
	amplitude      float32
	seed           uint32
}

// NewFractalGenerator creates the default heightmap generator.
//
// Parameters:
//   - chunkSize: the chunk edge length in world units
//   - options: optional configuration functions
//
// Returns:
//   - HeightmapGenerator: the new generator
func NewFractalGenerator(chunkSize float32, options ...FractalOption) HeightmapGenerator {
	if chunkSize <= 0 {
		panic("terrain: NewFractalGenerator requires a positive chunk size")
	}

	g := &fractalGenerator{
		chunkSize:      chunkSize,
		baseResolution: 64,
		octaves:        4,
		baseFrequency:  0.008,
		amplitude:      40.0,
		seed:           1337,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *fractalGenerator) VerticesPerSide(lod int) int {
	res := g.baseResolution >> lod
	if res < 4 {
		res = 4
	}
	return res + 1
}

func (g *fractalGenerator) GenerateChunkHeightmap(chunkX, chunkZ int32, lod int) []float32 {
	side := g.VerticesPerSide(lod)
	step := g.chunkSize / float32(side-1)
	originX := float32(chunkX) * g.chunkSize
	originZ := float32(chunkZ) * g.chunkSize

	heights := make([]float32, side*side)
	for z := 0; z < side; z++ {
		worldZ := originZ + float32(z)*step
		for x := 0; x < side; x++ {
			worldX := originX + float32(x)*step
			heights[z*side+x] = g.sample(worldX, worldZ)
		}
	}
	return heights
}

func (g *fractalGenerator) GenerateChunkVertices(chunkX, chunkZ int32, lod int, heightmap []float32) []float32 {
	side := g.VerticesPerSide(lod)
	step := g.chunkSize / float32(side-1)
	originX := float32(chunkX) * g.chunkSize
	originZ := float32(chunkZ) * g.chunkSize

	verts := make([]float32, 0, side*side*3)
	for z := 0; z < side; z++ {
		for x := 0; x < side; x++ {
			verts = append(verts,
				originX+float32(x)*step,
				heightmap[z*side+x],
				originZ+float32(z)*step,
			)
		}
	}
	return verts
}

func (g *fractalGenerator) GenerateChunkNormals(lod int, heightmap []float32) []float32 {
	side := g.VerticesPerSide(lod)
	step := g.chunkSize / float32(side-1)

	at := func(x, z int) float32 {
		if x < 0 {
			x = 0
		}
		if z < 0 {
			z = 0
		}
		if x >= side {
			x = side - 1
		}
		if z >= side {
			z = side - 1
		}
		return heightmap[z*side+x]
	}

	normals := make([]float32, 0, side*side*3)
	for z := 0; z < side; z++ {
		for x := 0; x < side; x++ {
			// Central differences; edges clamp to the border sample.
			dx := (at(x+1, z) - at(x-1, z)) / (2 * step)
			dz := (at(x, z+1) - at(x, z-1)) / (2 * step)

			nx, ny, nz := -dx, float32(1), -dz
			inv := 1.0 / math32.Sqrt(nx*nx+ny*ny+nz*nz)
			normals = append(normals, nx*inv, ny*inv, nz*inv)
		}
	}
	return normals
}

func (g *fractalGenerator) GenerateChunkUVs(lod int) []float32 {
	side := g.VerticesPerSide(lod)
	uvs := make([]float32, 0, side*side*2)
	for z := 0; z < side; z++ {
		for x := 0; x < side; x++ {
			uvs = append(uvs, float32(x)/float32(side-1), float32(z)/float32(side-1))
		}
	}
	return uvs
}

func (g *fractalGenerator) GenerateChunkIndices(lod int) []uint32 {
	side := g.VerticesPerSide(lod)
	quads := side - 1

	indices := make([]uint32, 0, quads*quads*6)
	for z := 0; z < quads; z++ {
		for x := 0; x < quads; x++ {
			topLeft := uint32(z*side + x)
			topRight := topLeft + 1
			bottomLeft := uint32((z+1)*side + x)
			bottomRight := bottomLeft + 1

			indices = append(indices,
				topLeft, bottomLeft, topRight,
				topRight, bottomLeft, bottomRight,
			)
		}
	}
	return indices
}

func (g *fractalGenerator) sample(x, z float32) float32 {
	total := float32(0)
	frequency := g.baseFrequency
	amplitude := g.amplitude

	for octave := 0; octave < g.octaves; octave++ {
		total += g.valueNoise(x*frequency, z*frequency, uint32(octave)) * amplitude
		frequency *= 2
		amplitude *= 0.5
	}
	return total
}

// valueNoise interpolates hashed lattice values with a smoothstep fade,
// returning a value in [-1, 1].
func (g *fractalGenerator) valueNoise(x, z float32, octave uint32) float32 {
	x0 := math32.Floor(x)
	z0 := math32.Floor(z)
	fx := x - x0
	fz := z - z0

	ix := int32(x0)
	iz := int32(z0)

	v00 := g.lattice(ix, iz, octave)
	v10 := g.lattice(ix+1, iz, octave)
	v01 := g.lattice(ix, iz+1, octave)
	v11 := g.lattice(ix+1, iz+1, octave)

	sx := fx * fx * (3 - 2*fx)
	sz := fz * fz * (3 - 2*fz)

	top := v00 + (v10-v00)*sx
	bottom := v01 + (v11-v01)*sx
	return top + (bottom-top)*sz
}

func (g *fractalGenerator) lattice(x, z int32, octave uint32) float32 {
	h := uint32(x)*374761393 + uint32(z)*668265263 + (g.seed+octave)*2654435761
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float32(h&0xffff)/32767.5 - 1
}
