// Package visibility implements the frame visibility pipeline: frustum
// culling with a conservative margin, temporal result caching, a budgeted
// occlusion query pool and the hierarchical Z pyramid that prioritizes it.
// The Manager runs the stages in a fixed order each frame and owns every
// object and chunk record.
package visibility

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/visibility/hzb"
	"github.com/cogentcore/webgpu/wgpu"
)

// CameraSource supplies the camera state the pipeline needs each frame.
// engine/camera.Camera satisfies it.
type CameraSource interface {
	Position() (float32, float32, float32)
	ProjectionMatrix() [16]float32
	ViewMatrix() [16]float32
}

// VisibilityChange describes one object whose visibility flipped this frame.
type VisibilityChange struct {
	ID      string
	Type    ObjectType
	Visible bool
}

// Manager orchestrates the visibility pipeline. Update runs the stages in a
// fixed order: frame rollover, frustum extraction, chunk tests, object tests
// gated by temporal coherence, pyramid generation, query issue, query
// collection, then change notification. Registration may happen at any time
// between updates.
type Manager interface {
	// Update runs one frame of the pipeline against the camera.
	//
	// Parameters:
	//   - cam: the camera state source
	Update(cam CameraSource)

	// RegisterObject adds or replaces a tracked object. New objects start
	// visible until their first test; replacing an existing ID discards its
	// temporal history along with its buffer state.
	//
	// Parameters:
	//   - obj: the object description, must have a non-empty ID
	RegisterObject(obj VisibilityObject)

	// UnregisterObject removes a tracked object and all of its history.
	//
	// Parameters:
	//   - id: the object ID
	UnregisterObject(id string)

	// UpdateObjectBounds replaces the test volumes for a moving object without
	// resetting its visibility state or history. Unknown IDs are ignored.
	//
	// Parameters:
	//   - id: the object ID
	//   - bounds: the new world-space box
	//   - sphere: the new bounding sphere
	UpdateObjectBounds(id string, bounds common.AABB, sphere common.BoundingSphere)

	// RegisterChunk starts tracking a terrain chunk.
	//
	// Parameters:
	//   - coord: the chunk grid coordinate
	RegisterChunk(coord common.GridCoord)

	// UnregisterChunk stops tracking a terrain chunk.
	//
	// Parameters:
	//   - coord: the chunk grid coordinate
	UnregisterChunk(coord common.GridCoord)

	// RegisterOccluder adds a box to the occluder set rendered into the depth
	// pyramid.
	//
	// Parameters:
	//   - id: a stable occluder key
	//   - box: the world-space occluder volume
	RegisterOccluder(id string, box common.AABB)

	// UnregisterOccluder removes an occluder. Unknown keys are ignored.
	//
	// Parameters:
	//   - id: the occluder key
	UnregisterOccluder(id string)

	// IsVisible reports the latest result for id. Unknown objects report
	// visible so nothing ever disappears for lack of registration.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - bool: the current visibility
	IsVisible(id string) bool

	// IsChunkVisible reports the latest result for a tracked chunk. Untracked
	// chunks report visible.
	//
	// Parameters:
	//   - coord: the chunk grid coordinate
	//
	// Returns:
	//   - bool: the current visibility
	IsChunkVisible(coord common.GridCoord) bool

	// VisibleChunks returns the coordinates of every chunk visible this frame.
	//
	// Returns:
	//   - []common.GridCoord: visible chunk coordinates, order unspecified
	VisibleChunks() []common.GridCoord

	// CulledChunks returns the coordinates of every chunk culled this frame.
	//
	// Returns:
	//   - []common.GridCoord: culled chunk coordinates, order unspecified
	CulledChunks() []common.GridCoord

	// OnVisibilityChange subscribes to per-object visibility flips. Callbacks
	// fire at the end of Update, after all stages have settled.
	//
	// Parameters:
	//   - cb: the callback, invoked once per flipped object
	OnVisibilityChange(cb func(VisibilityChange))

	// OnQualityChange subscribes to quality level transitions.
	//
	// Parameters:
	//   - cb: the callback, invoked with the new level
	OnQualityChange(cb func(QualityLevel))

	// SetQualityLevel applies a cost preset. Presets reduce work, never
	// correctness: the conservative margin and near-chunk rule are unaffected.
	//
	// Parameters:
	//   - level: the preset to apply
	SetQualityLevel(level QualityLevel)

	// Quality returns the active preset.
	//
	// Returns:
	//   - QualityLevel: the current level
	Quality() QualityLevel

	// ResetToVisible marks everything visible and discards all temporal
	// history and pending queries. Call after teleports, history recorded at
	// the old position predicts nothing at the new one.
	ResetToVisible()

	// ForceQueryAll disables temporal elision for the next frame.
	ForceQueryAll()

	// SetConfig replaces the base configuration. The active quality preset is
	// reapplied on top of the new values, and the temporal tunables reach the
	// tracker immediately. A changed HZBResolution only sizes pyramids
	// allocated afterwards, an initialized pyramid keeps its textures.
	//
	// Parameters:
	//   - cfg: the new base configuration, normalized before use
	SetConfig(cfg Config)

	// Config returns a copy of the active configuration.
	//
	// Returns:
	//   - Config: the current configuration
	Config() Config

	// Stats returns the snapshot of the most recent Update.
	//
	// Returns:
	//   - Stats: the last frame's snapshot
	Stats() Stats

	// CPUFrustumOnly reports whether the pipeline is running without GPU
	// pyramid support.
	//
	// Returns:
	//   - bool: true when the pyramid is unavailable
	CPUFrustumOnly() bool

	// Culler returns the frustum culler for direct tests.
	//
	// Returns:
	//   - Culler: the pipeline's culler
	Culler() Culler

	// Buffer returns the underlying visibility store.
	//
	// Returns:
	//   - *Buffer: the pipeline's buffer
	Buffer() *Buffer

	// Dispose releases the query pool and pyramid resources.
	Dispose()
}

var _ Manager = &managerImpl{}

type queryCandidate struct {
	id       string
	box      common.AABB
	coverage float32
	priority float32
}

type managerImpl struct {
	mu *sync.Mutex

	baseCfg Config
	cfg     Config
	quality QualityLevel

	culler    Culler
	buffer    *Buffer
	temporal  TemporalCoherence
	queryPool OcclusionQueryPool
	hzbGen    hzb.Generator

	occluders map[string]common.AABB

	device         *wgpu.Device
	cpuFrustumOnly bool

	frame uint64
	stats Stats

	visibilityCbs []func(VisibilityChange)
	qualityCbs    []func(QualityLevel)

	statsLogger *StatsLogger
	logger      *slog.Logger
}

// NewManager assembles the pipeline from the configuration and whatever GPU
// resources are available. Without a device, or when pyramid allocation
// fails, the manager degrades to CPU frustum culling plus software queries
// and keeps running.
//
// Parameters:
//   - options: optional configuration functions
//
// Returns:
//   - Manager: the new manager
func NewManager(options ...ManagerOption) Manager {
	m := &managerImpl{
		mu:        &sync.Mutex{},
		baseCfg:   DefaultConfig(),
		quality:   QualityHigh,
		buffer:    NewBuffer(),
		occluders: make(map[string]common.AABB),
		logger:    slog.Default(),
	}
	for _, opt := range options {
		opt(m)
	}

	m.baseCfg = m.baseCfg.Normalized()
	m.cfg = m.baseCfg.ApplyQuality(m.quality).Normalized()

	if m.culler == nil {
		m.culler = NewCuller(WithConservativeMargin(m.cfg.ConservativeMargin))
	}
	if m.temporal == nil {
		m.temporal = NewTemporalCoherence(
			WithHistoryFrames(m.cfg.HistoryFrames),
			WithConfidenceThreshold(m.cfg.ConfidenceThreshold),
			WithReducedQueryInterval(m.cfg.ReducedQueryInterval),
		)
	}
	if m.queryPool == nil {
		m.queryPool = NewSoftwareQueryPool(WithMaxQueriesPerFrame(m.baseCfg.MaxQueriesPerFrame))
	}
	if m.hzbGen == nil && m.baseCfg.HZBEnabled {
		m.hzbGen = hzb.NewGenerator(m.cfg.HZBResolution)
	}

	if m.hzbGen != nil && m.device != nil {
		if err := m.hzbGen.Initialize(m.device); err != nil {
			m.logger.Warn("depth pyramid unavailable, falling back to CPU frustum culling",
				slog.String("error", err.Error()))
			m.cpuFrustumOnly = true
		}
	} else if m.baseCfg.HZBEnabled {
		m.cpuFrustumOnly = true
	}

	return m
}

func (m *managerImpl) Update(cam CameraSource) {
	if cam == nil {
		panic("visibility: Update requires a camera source")
	}

	changes, cbs := m.runFrame(cam)

	// Callbacks run outside the manager lock so subscribers can call back in.
	for _, change := range changes {
		for _, cb := range cbs {
			cb(change)
		}
	}
}

func (m *managerImpl) runFrame(cam CameraSource) ([]VisibilityChange, []func(VisibilityChange)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	updateStart := time.Now()
	m.frame++
	cfg := m.cfg

	m.buffer.BeginFrame()
	if cfg.TemporalCoherenceEnabled {
		m.temporal.BeginFrame()
	}
	if cfg.OcclusionQueriesEnabled {
		m.queryPool.BeginFrame()
	}

	camX, _, camZ := cam.Position()
	proj := cam.ProjectionMatrix()
	view := cam.ViewMatrix()
	m.culler.UpdateFromCamera(proj, view)

	if m.hzbGen != nil {
		var vp [16]float32
		common.Mul4(vp[:], proj[:], view[:])
		m.hzbGen.SetViewProjection(vp)
	}

	stats := Stats{
		Frame:          m.frame,
		Quality:        m.quality,
		CPUFrustumOnly: m.cpuFrustumOnly,
	}

	cullStart := time.Now()
	m.cullChunks(cfg, camX, camZ, &stats)
	candidates := m.cullObjects(cfg, &stats)
	stats.CullTime = time.Since(cullStart)

	hzbStart := time.Now()
	m.generatePyramid()
	m.rankCandidates(candidates)
	stats.HZBTime = time.Since(hzbStart)

	queryStart := time.Now()
	if cfg.OcclusionQueriesEnabled {
		m.issueQueries(cfg, candidates, &stats)
		m.collectQueries(cfg, &stats)
	}
	stats.QueryTime = time.Since(queryStart)

	changes := m.gatherChanges(&stats)

	stats.UpdateTime = time.Since(updateStart)
	m.stats = stats
	if m.statsLogger != nil {
		m.statsLogger.Tick(stats)
	}

	return changes, m.visibilityCbs
}

// cullChunks distance-tests and frustum-tests every tracked chunk. Chunks
// inside the near distance are always visible, the camera can sit directly
// above them with the whole chunk outside the frustum cone.
func (m *managerImpl) cullChunks(cfg Config, camX, camZ float32, stats *Stats) {
	m.buffer.ForEachChunk(func(rec *ChunkRecord) {
		centerX := (float32(rec.Coord.X) + 0.5) * cfg.ChunkSize
		centerZ := (float32(rec.Coord.Z) + 0.5) * cfg.ChunkSize
		rec.Distance = common.DistanceXZ(camX, camZ, centerX, centerZ)

		if rec.Distance < cfg.NearChunkDistance {
			rec.Visible = true
		} else {
			rec.Visible = m.culler.TestBox(chunkBounds(rec.Coord, cfg), true)
		}

		stats.TotalChunks++
		if rec.Visible {
			stats.VisibleChunks++
		}
	})
}

func chunkBounds(coord common.GridCoord, cfg Config) common.AABB {
	minX := float32(coord.X) * cfg.ChunkSize
	minZ := float32(coord.Z) * cfg.ChunkSize
	return common.AABB{
		Min: [3]float32{minX, cfg.MinHeight, minZ},
		Max: [3]float32{minX + cfg.ChunkSize, cfg.MaxHeight, minZ + cfg.ChunkSize},
	}
}

func (m *managerImpl) cullObjects(cfg Config, stats *Stats) []queryCandidate {
	var candidates []queryCandidate

	m.buffer.ForEach(func(obj VisibilityObject, st *VisibilityState) {
		stats.TotalObjects++

		if obj.AlwaysVisible {
			st.VisibleThisFrame = true
			st.LastTestedFrame = m.frame
			return
		}

		// Below per-instance quality, vegetation rides on the chunk-level
		// results and every instance inside a loaded chunk is kept.
		if obj.Type == ObjectTypeVegetation && !cfg.PerInstanceCulling {
			st.VisibleThisFrame = true
			st.LastTestedFrame = m.frame
			return
		}

		if cfg.TemporalCoherenceEnabled {
			decision := m.temporal.GetQueryDecision(obj.ID)
			if !decision.ShouldQuery {
				st.VisibleThisFrame = decision.PredictedVisible
				stats.TestsSkipped++
				return
			}
		}

		visible := m.culler.TestSphere(obj.Sphere, true)
		_, clearance := m.culler.TestSphereWithMargin(obj.Sphere)

		st.VisibleThisFrame = visible
		st.FrustumMargin = clearance
		st.LastTestedFrame = m.frame

		if cfg.TemporalCoherenceEnabled {
			m.temporal.RecordResult(obj.ID, visible)
		}

		if visible && cfg.OcclusionQueriesEnabled && !st.QueryPending {
			candidates = append(candidates, queryCandidate{
				id:       obj.ID,
				box:      obj.Bounds,
				priority: obj.Priority,
			})
		}
	})

	return candidates
}

func (m *managerImpl) generatePyramid() {
	if m.hzbGen == nil || m.cpuFrustumOnly || !m.cfg.HZBEnabled {
		return
	}
	if !m.hzbGen.Initialized() || len(m.occluders) == 0 {
		return
	}

	occs := make([]common.AABB, 0, len(m.occluders))
	for _, box := range m.occluders {
		occs = append(occs, box)
	}
	if err := m.hzbGen.Generate(occs); err != nil {
		m.logger.Warn("depth pyramid generation failed",
			slog.Uint64("frame", m.frame),
			slog.String("error", err.Error()))
	}
}

// rankCandidates orders query candidates so the biggest on-screen objects,
// where a wrong guess costs the most fill rate, consume the budget first.
func (m *managerImpl) rankCandidates(candidates []queryCandidate) {
	if len(candidates) == 0 {
		return
	}

	if m.hzbGen != nil {
		for i := range candidates {
			result := m.hzbGen.TestBoundingBox(candidates[i].box)
			candidates[i].coverage = result.ScreenCoverage
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].coverage != candidates[j].coverage {
			return candidates[i].coverage > candidates[j].coverage
		}
		return candidates[i].priority > candidates[j].priority
	})
}

func (m *managerImpl) issueQueries(cfg Config, candidates []queryCandidate, stats *Stats) {
	for _, c := range candidates {
		if stats.QueriesIssued >= cfg.MaxQueriesPerFrame {
			stats.QueriesDropped = len(candidates) - stats.QueriesIssued
			return
		}
		if !m.queryPool.Issue(c.id, c.box) {
			stats.QueriesDropped = len(candidates) - stats.QueriesIssued
			return
		}
		m.buffer.SetQueryPending(c.id, true)
		stats.QueriesIssued++
	}
}

func (m *managerImpl) collectQueries(cfg Config, stats *Stats) {
	for _, result := range m.queryPool.CollectResults() {
		m.buffer.ApplyQueryResult(result.ObjectID, result.Visible, m.frame)
		if cfg.TemporalCoherenceEnabled {
			m.temporal.RecordResult(result.ObjectID, result.Visible)
		}
		stats.QueriesCollected++
	}
}

func (m *managerImpl) gatherChanges(stats *Stats) []VisibilityChange {
	var changes []VisibilityChange
	m.buffer.ForEach(func(obj VisibilityObject, st *VisibilityState) {
		if st.VisibleThisFrame {
			stats.VisibleObjects++
		} else {
			stats.CulledObjects++
		}
		if st.VisibleThisFrame != st.VisibleLastFrame {
			changes = append(changes, VisibilityChange{
				ID:      obj.ID,
				Type:    obj.Type,
				Visible: st.VisibleThisFrame,
			})
		}
	})
	return changes
}

func (m *managerImpl) RegisterObject(obj VisibilityObject) {
	// Re-registering an ID resets the buffer state, so the temporal history
	// from the previous occupant must not carry over.
	m.temporal.Remove(obj.ID)
	m.buffer.Register(obj)
}

func (m *managerImpl) UnregisterObject(id string) {
	m.buffer.Unregister(id)
	m.temporal.Remove(id)
}

func (m *managerImpl) UpdateObjectBounds(id string, bounds common.AABB, sphere common.BoundingSphere) {
	m.buffer.UpdateBounds(id, bounds, sphere)
}

func (m *managerImpl) RegisterChunk(coord common.GridCoord) {
	m.buffer.RegisterChunk(coord)
}

func (m *managerImpl) UnregisterChunk(coord common.GridCoord) {
	m.buffer.UnregisterChunk(coord)
}

func (m *managerImpl) RegisterOccluder(id string, box common.AABB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.occluders[id] = box
}

func (m *managerImpl) UnregisterOccluder(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.occluders, id)
}

func (m *managerImpl) IsVisible(id string) bool {
	st, ok := m.buffer.State(id)
	if !ok {
		return true
	}
	return st.VisibleThisFrame
}

func (m *managerImpl) IsChunkVisible(coord common.GridCoord) bool {
	rec, ok := m.buffer.Chunk(coord)
	if !ok {
		return true
	}
	return rec.Visible
}

func (m *managerImpl) VisibleChunks() []common.GridCoord {
	return m.buffer.VisibleChunks()
}

func (m *managerImpl) CulledChunks() []common.GridCoord {
	return m.buffer.CulledChunks()
}

func (m *managerImpl) OnVisibilityChange(cb func(VisibilityChange)) {
	if cb == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visibilityCbs = append(m.visibilityCbs, cb)
}

func (m *managerImpl) OnQualityChange(cb func(QualityLevel)) {
	if cb == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.qualityCbs = append(m.qualityCbs, cb)
}

func (m *managerImpl) SetQualityLevel(level QualityLevel) {
	m.mu.Lock()
	if level == m.quality {
		m.mu.Unlock()
		return
	}

	m.quality = level
	m.cfg = m.baseCfg.ApplyQuality(level).Normalized()
	m.culler.SetConservativeMargin(m.cfg.ConservativeMargin)
	m.logger.Info("visibility quality changed", slog.String("level", string(level)))

	cbs := m.qualityCbs
	m.mu.Unlock()
	for _, cb := range cbs {
		cb(level)
	}
}

func (m *managerImpl) Quality() QualityLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quality
}

func (m *managerImpl) ResetToVisible() {
	m.buffer.SetAllVisible()
	m.temporal.Reset()
	m.queryPool.Reset()
}

func (m *managerImpl) ForceQueryAll() {
	m.temporal.ForceQueryAll()
}

func (m *managerImpl) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.baseCfg = cfg.Normalized()
	m.cfg = m.baseCfg.ApplyQuality(m.quality).Normalized()
	m.culler.SetConservativeMargin(m.cfg.ConservativeMargin)
	m.temporal.SetHistoryFrames(m.cfg.HistoryFrames)
	m.temporal.SetConfidenceThreshold(m.cfg.ConfidenceThreshold)
	m.temporal.SetReducedQueryInterval(m.cfg.ReducedQueryInterval)

	if m.hzbGen != nil && m.hzbGen.Initialized() && m.hzbGen.Resolution() != m.cfg.HZBResolution {
		m.logger.Warn("pyramid keeps its allocated resolution until reinitialized",
			slog.Int("allocated", m.hzbGen.Resolution()),
			slog.Int("configured", m.cfg.HZBResolution))
	}
}

func (m *managerImpl) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

func (m *managerImpl) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *managerImpl) CPUFrustumOnly() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpuFrustumOnly
}

func (m *managerImpl) Culler() Culler {
	return m.culler
}

func (m *managerImpl) Buffer() *Buffer {
	return m.buffer
}

func (m *managerImpl) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queryPool.Dispose()
	if m.hzbGen != nil {
		m.hzbGen.Dispose()
	}
}
