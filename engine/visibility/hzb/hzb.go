// Package hzb builds a hierarchical Z pyramid from occluder depth and answers
// coarse screen-space queries against it. The pyramid ranks objects by screen
// coverage so the exact occlusion query budget is spent where it matters; it
// never culls on its own.
package hzb

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
)

// OcclusionResult is the outcome of a pyramid test for one bounding box.
// Occluded is always false; the pyramid only suggests which mip a precise
// query should sample and how much screen the object covers.
type OcclusionResult struct {
	Occluded       bool
	MipLevel       int
	ScreenCoverage float32
	MinDepth       float32
	BehindCamera   bool
}

// DepthPassExecutor renders occluder depth and runs the reduction passes. The
// generator owns the textures, the executor owns pipelines and encoders.
type DepthPassExecutor interface {
	// RenderOccluderDepth renders the occluder boxes depth-only into target.
	//
	// Parameters:
	//   - target: the base depth attachment view
	//   - viewProjection: column-major combined camera matrix
	//   - occluders: world-space occluder boxes
	//
	// Returns:
	//   - error: nil on success
	RenderOccluderDepth(target *wgpu.TextureView, viewProjection [16]float32, occluders []common.AABB) error

	// ReduceDepth runs one max-reduction pass from source into destination.
	//
	// Parameters:
	//   - source: the finer mip view
	//   - destination: the coarser mip view
	//   - params: marshaled GPUReduceParams for the pass
	//
	// Returns:
	//   - error: nil on success
	ReduceDepth(source, destination *wgpu.TextureView, params []byte) error
}

// Generator owns the depth pyramid textures and produces per-frame occlusion
// hints. Initialize must succeed before Generate is usable; TestBoundingBox
// works without a GPU because mip selection is pure projection math.
type Generator interface {
	// Initialize allocates the base depth target and the pyramid mip chain on
	// device.
	//
	// Parameters:
	//   - device: the WebGPU device
	//
	// Returns:
	//   - error: nil on success, texture creation failure otherwise
	Initialize(device *wgpu.Device) error

	// Initialized reports whether GPU resources exist.
	//
	// Returns:
	//   - bool: true after a successful Initialize
	Initialized() bool

	// Resolution returns the base pyramid resolution in texels.
	//
	// Returns:
	//   - int: the mip 0 width and height
	Resolution() int

	// MipLevels returns the pyramid depth down to 1x1.
	//
	// Returns:
	//   - int: the mip count
	MipLevels() int

	// SetViewProjection caches the camera matrix used by TestBoundingBox.
	//
	// Parameters:
	//   - viewProjection: column-major combined camera matrix
	SetViewProjection(viewProjection [16]float32)

	// Generate renders occluder depth and rebuilds the mip chain. Requires a
	// successful Initialize and a configured executor.
	//
	// Parameters:
	//   - occluders: world-space occluder boxes
	//
	// Returns:
	//   - error: nil on success
	Generate(occluders []common.AABB) error

	// TestBoundingBox projects box with the cached matrix and returns the
	// screen coverage and the mip a precise query should sample.
	//
	// Parameters:
	//   - box: world-space bounding box
	//
	// Returns:
	//   - OcclusionResult: coverage, mip selection and depth bounds
	TestBoundingBox(box common.AABB) OcclusionResult

	// Dispose releases all textures and views. Safe to call more than once.
	Dispose()
}

var _ Generator = &generatorImpl{}

type generatorImpl struct {
	mu *sync.Mutex

	resolution int
	mipLevels  int
	executor   DepthPassExecutor

	viewProj    [16]float32
	initialized bool

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	pyramidTexture *wgpu.Texture
	pyramidViews   []*wgpu.TextureView
}

// NewGenerator creates a pyramid generator for the given resolution. The
// resolution must be a power of two; callers normalize it beforehand.
//
// Parameters:
//   - resolution: mip 0 width and height in texels
//   - options: optional configuration functions
//
// Returns:
//   - Generator: the new generator
func NewGenerator(resolution int, options ...GeneratorOption) Generator {
	if resolution < 1 {
		panic("hzb: NewGenerator requires a positive resolution")
	}

	g := &generatorImpl{
		mu:         &sync.Mutex{},
		resolution: resolution,
		mipLevels:  mipCount(resolution),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func mipCount(resolution int) int {
	count := 1
	for resolution > 1 {
		resolution /= 2
		count++
	}
	return count
}

func (g *generatorImpl) Initialize(device *wgpu.Device) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initialized {
		return nil
	}
	if device == nil {
		return fmt.Errorf("hzb: Initialize requires a device")
	}

	depthTexture, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "HZB Occluder Depth",
		Size: wgpu.Extent3D{
			Width:              uint32(g.resolution),
			Height:             uint32(g.resolution),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("failed to create occluder depth texture: %w", err)
	}
	depthView, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		return fmt.Errorf("failed to create occluder depth view: %w", err)
	}

	// The pyramid is stored as a renderable color format; depth formats
	// cannot be written per-mip by the reduction passes.
	pyramidTexture, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "HZB Pyramid",
		Size: wgpu.Extent3D{
			Width:              uint32(g.resolution),
			Height:             uint32(g.resolution),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: uint32(g.mipLevels),
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatR32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		depthView.Release()
		depthTexture.Release()
		return fmt.Errorf("failed to create pyramid texture: %w", err)
	}

	views := make([]*wgpu.TextureView, 0, g.mipLevels)
	for mip := 0; mip < g.mipLevels; mip++ {
		view, err := pyramidTexture.CreateView(&wgpu.TextureViewDescriptor{
			Label:           fmt.Sprintf("HZB Pyramid Mip %d", mip),
			Format:          wgpu.TextureFormatR32Float,
			Dimension:       wgpu.TextureViewDimension2D,
			BaseMipLevel:    uint32(mip),
			MipLevelCount:   1,
			BaseArrayLayer:  0,
			ArrayLayerCount: 1,
			Aspect:          wgpu.TextureAspectAll,
		})
		if err != nil {
			for _, v := range views {
				v.Release()
			}
			pyramidTexture.Release()
			depthView.Release()
			depthTexture.Release()
			return fmt.Errorf("failed to create pyramid mip %d view: %w", mip, err)
		}
		views = append(views, view)
	}

	g.depthTexture = depthTexture
	g.depthView = depthView
	g.pyramidTexture = pyramidTexture
	g.pyramidViews = views
	g.initialized = true
	return nil
}

func (g *generatorImpl) Initialized() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initialized
}

func (g *generatorImpl) Resolution() int {
	return g.resolution
}

func (g *generatorImpl) MipLevels() int {
	return g.mipLevels
}

func (g *generatorImpl) SetViewProjection(viewProjection [16]float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.viewProj = viewProjection
}

func (g *generatorImpl) Generate(occluders []common.AABB) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return fmt.Errorf("hzb: Generate called before Initialize")
	}
	if g.executor == nil {
		return fmt.Errorf("hzb: Generate requires a depth pass executor")
	}

	if err := g.executor.RenderOccluderDepth(g.depthView, g.viewProj, occluders); err != nil {
		return fmt.Errorf("occluder depth pass failed: %w", err)
	}

	// Mip 0 copies the depth target, each further pass max-reduces 2x2 texels
	// so a coarse texel holds the farthest depth underneath it. The params
	// always carry the source mip's dimensions: the depth target and pyramid
	// mip 0 are both full resolution, so the size first halves after mip 1
	// has consumed mip 0.
	srcSize := g.resolution
	source := g.depthView
	for mip := 0; mip < g.mipLevels; mip++ {
		params := GPUReduceParams{
			SrcWidth:  uint32(srcSize),
			SrcHeight: uint32(srcSize),
			MipLevel:  uint32(mip),
		}
		if err := g.executor.ReduceDepth(source, g.pyramidViews[mip], params.Marshal()); err != nil {
			return fmt.Errorf("pyramid reduction at mip %d failed: %w", mip, err)
		}
		source = g.pyramidViews[mip]
		if mip > 0 && srcSize > 1 {
			srcSize /= 2
		}
	}
	return nil
}

func (g *generatorImpl) TestBoundingBox(box common.AABB) OcclusionResult {
	g.mu.Lock()
	vp := g.viewProj
	g.mu.Unlock()

	var corners [24]float32
	box.Corners(corners[:])

	minX, minY := float32(1), float32(1)
	maxX, maxY := float32(-1), float32(-1)
	minDepth := float32(1)
	anyInFront := false

	for i := 0; i < 8; i++ {
		nx, ny, nz, w := common.ProjectPoint(vp[:], corners[i*3], corners[i*3+1], corners[i*3+2])
		if w <= 0 {
			continue
		}
		anyInFront = true

		nx = common.Clamp(nx, -1, 1)
		ny = common.Clamp(ny, -1, 1)
		if nx < minX {
			minX = nx
		}
		if ny < minY {
			minY = ny
		}
		if nx > maxX {
			maxX = nx
		}
		if ny > maxY {
			maxY = ny
		}
		if nz < minDepth {
			minDepth = nz
		}
	}

	if !anyInFront {
		return OcclusionResult{
			MipLevel:     g.mipLevels - 1,
			BehindCamera: true,
		}
	}

	width := (maxX - minX) * 0.5
	height := (maxY - minY) * 0.5
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	coverage := width * height

	return OcclusionResult{
		MipLevel:       g.mipForCoverage(coverage),
		ScreenCoverage: coverage,
		MinDepth:       common.Clamp(minDepth, 0, 1),
	}
}

// mipForCoverage maps screen coverage to the pyramid level whose texels span
// roughly the projected rectangle. Each mip quarters the covered area, so the
// level grows with half the negative log2 of coverage.
func (g *generatorImpl) mipForCoverage(coverage float32) int {
	const minCoverage = 1.0 / (1 << 20)
	if coverage < minCoverage {
		coverage = minCoverage
	}

	mip := int(math32.Round(-0.5 * math32.Log2(coverage)))
	if mip < 0 {
		mip = 0
	}
	if mip > g.mipLevels-1 {
		mip = g.mipLevels - 1
	}
	return mip
}

func (g *generatorImpl) Dispose() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, view := range g.pyramidViews {
		view.Release()
	}
	g.pyramidViews = nil
	if g.pyramidTexture != nil {
		g.pyramidTexture.Release()
		g.pyramidTexture = nil
	}
	if g.depthView != nil {
		g.depthView.Release()
		g.depthView = nil
	}
	if g.depthTexture != nil {
		g.depthTexture.Release()
		g.depthTexture = nil
	}
	g.initialized = false
}
