// Package terrain streams heightmap chunks around a moving player position.
// Chunks load nearest-first under a per-frame budget, unload past a larger
// radius so the boundary never thrashes, and retessellate in place when their
// distance crosses a LOD threshold.
package terrain

import (
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/chewxy/math32"
)

// ChunkManager owns the streamed chunk set. Update is the only mutating
// entry point and is driven once per frame; accessors are safe from any
// goroutine between updates.
type ChunkManager interface {
	// Update advances streaming one frame for the given player position:
	// discovery, unloading, LOD retessellation, then budgeted loading.
	//
	// Parameters:
	//   - playerX: player world X
	//   - playerZ: player world Z
	Update(playerX, playerZ float32)

	// Chunk returns a copy of the chunk at coord.
	//
	// Parameters:
	//   - coord: the chunk grid coordinate
	//
	// Returns:
	//   - ChunkData: the chunk, zero value if untracked
	//   - bool: true if the chunk is tracked
	Chunk(coord common.GridCoord) (ChunkData, bool)

	// ChunkCount returns the number of tracked chunks in any state.
	//
	// Returns:
	//   - int: the tracked count
	ChunkCount() int

	// ActiveChunks returns the coordinates of every fully loaded chunk.
	//
	// Returns:
	//   - []common.GridCoord: active coordinates, order unspecified
	ActiveChunks() []common.GridCoord

	// QueueLength returns the number of chunks waiting to load.
	//
	// Returns:
	//   - int: the queue length
	QueueLength() int

	// IsTracked reports whether coord is loaded or loading.
	//
	// Parameters:
	//   - coord: the chunk grid coordinate
	//
	// Returns:
	//   - bool: true if tracked
	IsTracked(coord common.GridCoord) bool

	// LODForDistance maps a camera distance to a LOD tier.
	//
	// Parameters:
	//   - distance: horizontal distance in world units
	//
	// Returns:
	//   - int: the tier, 0 is finest
	LODForDistance(distance float32) int

	// ChunkSize returns the chunk edge length in world units.
	//
	// Returns:
	//   - float32: the chunk size
	ChunkSize() float32

	// OnChunkLoaded subscribes to chunk activation. The callback fires after
	// geometry exists, outside the manager lock.
	//
	// Parameters:
	//   - cb: callback receiving the activated coordinate
	OnChunkLoaded(cb func(coord common.GridCoord))

	// OnChunkUnloaded subscribes to chunk removal.
	//
	// Parameters:
	//   - cb: callback receiving the removed coordinate
	OnChunkUnloaded(cb func(coord common.GridCoord))
}

var _ ChunkManager = &chunkManagerImpl{}

type queuedChunk struct {
	coord    common.GridCoord
	distance float32
}

type chunkManagerImpl struct {
	mu *sync.Mutex

	chunkSize            float32
	loadRadius           float32
	unloadRadius         float32
	maxChunkLoadsPerFrame int
	lodThresholds        []float32

	gen    HeightmapGenerator
	chunks map[common.GridCoord]*ChunkData
	frame  uint64

	queue  []queuedChunk
	queued map[common.GridCoord]bool

	// Shared pool for the geometry fan-out during budgeted loads. Workers
	// persist across frames and idle-exit when streaming goes quiet.
	loadPool    worker.DynamicWorkerPool
	loadWorkers int

	loadedCbs   []func(common.GridCoord)
	unloadedCbs []func(common.GridCoord)
}

// NewChunkManager creates a chunk streaming manager. The unload radius must
// exceed the load radius so boundary chunks do not load and unload on
// alternating frames; the constructor enforces a minimum gap of one chunk.
//
// Parameters:
//   - options: optional configuration functions
//
// Returns:
//   - ChunkManager: the new manager
func NewChunkManager(options ...ChunkManagerOption) ChunkManager {
	cm := &chunkManagerImpl{
		mu:                    &sync.Mutex{},
		chunkSize:             100.0,
		loadRadius:            300.0,
		unloadRadius:          450.0,
		maxChunkLoadsPerFrame: 2,
		lodThresholds:         []float32{150, 300, 500},
		chunks:                make(map[common.GridCoord]*ChunkData),
		queued:                make(map[common.GridCoord]bool),
		loadWorkers:           4,
	}
	for _, opt := range options {
		opt(cm)
	}

	if cm.unloadRadius < cm.loadRadius+cm.chunkSize {
		cm.unloadRadius = cm.loadRadius + cm.chunkSize
	}
	if cm.gen == nil {
		cm.gen = NewFractalGenerator(cm.chunkSize)
	}
	cm.loadPool = worker.NewDynamicWorkerPool(cm.loadWorkers, 256, 1*time.Second)

	return cm
}

func (cm *chunkManagerImpl) Update(playerX, playerZ float32) {
	loaded, unloaded, loadedCbs, unloadedCbs := cm.step(playerX, playerZ)

	// Callbacks run outside the lock so subscribers can query the manager.
	for _, coord := range unloaded {
		for _, cb := range unloadedCbs {
			cb(coord)
		}
	}
	for _, coord := range loaded {
		for _, cb := range loadedCbs {
			cb(coord)
		}
	}
}

// step holds the lock for the whole frame and snapshots the callback slices
// under it, so subscribers registering mid-frame are picked up next frame.
func (cm *chunkManagerImpl) step(playerX, playerZ float32) (loaded, unloaded []common.GridCoord, loadedCbs, unloadedCbs []func(common.GridCoord)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.frame++
	cm.discover(playerX, playerZ)
	unloaded = cm.unloadDistant(playerX, playerZ)
	cm.refreshQueue(playerX, playerZ)
	cm.retessellate()
	loaded = cm.loadBudgeted()
	return loaded, unloaded, cm.loadedCbs, cm.unloadedCbs
}

// discover walks the grid square covering the load radius and queues every
// untracked chunk inside it, nearest first.
func (cm *chunkManagerImpl) discover(playerX, playerZ float32) {
	radiusChunks := int32(math32.Ceil(cm.loadRadius / cm.chunkSize))
	centerX := int32(math32.Floor(playerX / cm.chunkSize))
	centerZ := int32(math32.Floor(playerZ / cm.chunkSize))

	for z := centerZ - radiusChunks; z <= centerZ+radiusChunks; z++ {
		for x := centerX - radiusChunks; x <= centerX+radiusChunks; x++ {
			coord := common.GridCoord{X: x, Z: z}
			if _, tracked := cm.chunks[coord]; tracked {
				continue
			}
			if cm.queued[coord] {
				continue
			}

			d := cm.chunkDistance(coord, playerX, playerZ)
			if d > cm.loadRadius {
				continue
			}
			cm.enqueue(queuedChunk{coord: coord, distance: d})
		}
	}
}

// enqueue inserts in ascending distance order so the nearest chunk is always
// dequeued first.
func (cm *chunkManagerImpl) enqueue(entry queuedChunk) {
	idx := sort.Search(len(cm.queue), func(i int) bool {
		return cm.queue[i].distance >= entry.distance
	})
	cm.queue = append(cm.queue, queuedChunk{})
	copy(cm.queue[idx+1:], cm.queue[idx:])
	cm.queue[idx] = entry
	cm.queued[entry.coord] = true
}

func (cm *chunkManagerImpl) unloadDistant(playerX, playerZ float32) []common.GridCoord {
	var unloaded []common.GridCoord
	for coord, chunk := range cm.chunks {
		chunk.Distance = cm.chunkDistance(coord, playerX, playerZ)
		if chunk.Distance > cm.unloadRadius {
			delete(cm.chunks, coord)
			unloaded = append(unloaded, coord)
			continue
		}
		chunk.LastAccess = cm.frame
	}
	return unloaded
}

// refreshQueue recomputes queued distances against the new player position,
// drops entries that drifted out of the load radius and restores the sort.
func (cm *chunkManagerImpl) refreshQueue(playerX, playerZ float32) {
	kept := cm.queue[:0]
	for _, entry := range cm.queue {
		entry.distance = cm.chunkDistance(entry.coord, playerX, playerZ)
		if entry.distance > cm.loadRadius {
			delete(cm.queued, entry.coord)
			continue
		}
		kept = append(kept, entry)
	}
	cm.queue = kept

	sort.Slice(cm.queue, func(i, j int) bool {
		return cm.queue[i].distance < cm.queue[j].distance
	})
}

// retessellate rebuilds geometry for active chunks whose distance crossed a
// LOD threshold. The rebuild happens this frame, a chunk never renders at a
// stale tier.
func (cm *chunkManagerImpl) retessellate() {
	for _, chunk := range cm.chunks {
		if chunk.State != ChunkStateActive {
			continue
		}
		lod := cm.lodForDistance(chunk.Distance)
		if lod != chunk.LOD {
			chunk.LOD = lod
			cm.buildGeometry(chunk)
		}
	}
}

func (cm *chunkManagerImpl) loadBudgeted() []common.GridCoord {
	count := cm.maxChunkLoadsPerFrame
	if count > len(cm.queue) {
		count = len(cm.queue)
	}
	if count == 0 {
		return nil
	}

	batch := make([]*ChunkData, 0, count)
	for i := 0; i < count; i++ {
		entry := cm.queue[i]
		delete(cm.queued, entry.coord)

		chunk := &ChunkData{
			Coord:      entry.coord,
			State:      ChunkStateLoading,
			LOD:        cm.lodForDistance(entry.distance),
			Distance:   entry.distance,
			LastAccess: cm.frame,
			Priority:   entry.distance,
		}
		cm.chunks[entry.coord] = chunk
		batch = append(batch, chunk)
	}
	cm.queue = cm.queue[count:]

	// Fan the geometry work across the pool and barrier on a WaitGroup; the
	// pool's own Wait blocks until workers idle-exit, unusable mid-frame.
	var wg sync.WaitGroup
	taskID := 0
	for _, chunk := range batch {
		wg.Add(1)
		c := chunk
		id := taskID
		taskID++
		cm.loadPool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				cm.buildGeometry(c)
				return nil, nil
			},
		})
	}
	wg.Wait()

	loaded := make([]common.GridCoord, 0, len(batch))
	for _, chunk := range batch {
		chunk.State = ChunkStateActive
		loaded = append(loaded, chunk.Coord)
	}
	return loaded
}

func (cm *chunkManagerImpl) buildGeometry(chunk *ChunkData) {
	heightmap := cm.gen.GenerateChunkHeightmap(chunk.Coord.X, chunk.Coord.Z, chunk.LOD)
	chunk.Heightmap = heightmap
	chunk.Vertices = cm.gen.GenerateChunkVertices(chunk.Coord.X, chunk.Coord.Z, chunk.LOD, heightmap)
	chunk.Normals = cm.gen.GenerateChunkNormals(chunk.LOD, heightmap)
	chunk.UVs = cm.gen.GenerateChunkUVs(chunk.LOD)
	chunk.Indices = cm.gen.GenerateChunkIndices(chunk.LOD)
}

func (cm *chunkManagerImpl) chunkDistance(coord common.GridCoord, playerX, playerZ float32) float32 {
	centerX := (float32(coord.X) + 0.5) * cm.chunkSize
	centerZ := (float32(coord.Z) + 0.5) * cm.chunkSize
	return common.DistanceXZ(playerX, playerZ, centerX, centerZ)
}

func (cm *chunkManagerImpl) lodForDistance(distance float32) int {
	for tier, threshold := range cm.lodThresholds {
		if distance < threshold {
			return tier
		}
	}
	return len(cm.lodThresholds)
}

func (cm *chunkManagerImpl) Chunk(coord common.GridCoord) (ChunkData, bool) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	chunk, ok := cm.chunks[coord]
	if !ok {
		return ChunkData{}, false
	}
	return *chunk, true
}

func (cm *chunkManagerImpl) ChunkCount() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.chunks)
}

func (cm *chunkManagerImpl) ActiveChunks() []common.GridCoord {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	out := make([]common.GridCoord, 0, len(cm.chunks))
	for coord, chunk := range cm.chunks {
		if chunk.State == ChunkStateActive {
			out = append(out, coord)
		}
	}
	return out
}

func (cm *chunkManagerImpl) QueueLength() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.queue)
}

func (cm *chunkManagerImpl) IsTracked(coord common.GridCoord) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	_, ok := cm.chunks[coord]
	return ok
}

func (cm *chunkManagerImpl) LODForDistance(distance float32) int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.lodForDistance(distance)
}

func (cm *chunkManagerImpl) ChunkSize() float32 {
	return cm.chunkSize
}

func (cm *chunkManagerImpl) OnChunkLoaded(cb func(coord common.GridCoord)) {
	if cb == nil {
		return
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.loadedCbs = append(cm.loadedCbs, cb)
}

func (cm *chunkManagerImpl) OnChunkUnloaded(cb func(coord common.GridCoord)) {
	if cb == nil {
		return
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.unloadedCbs = append(cm.unloadedCbs, cb)
}
