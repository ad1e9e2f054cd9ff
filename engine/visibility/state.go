package visibility

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
)

// ObjectType categorizes a tracked object for per-type statistics and culling
// policy.
type ObjectType int

const (
	ObjectTypeChunk ObjectType = iota
	ObjectTypeVegetation
	ObjectTypeProp
	ObjectTypeBuilding
)

// String returns the lowercase name of the object type.
//
// Returns:
//   - string: the type name
func (t ObjectType) String() string {
	switch t {
	case ObjectTypeChunk:
		return "chunk"
	case ObjectTypeVegetation:
		return "vegetation"
	case ObjectTypeProp:
		return "prop"
	case ObjectTypeBuilding:
		return "building"
	default:
		return "unknown"
	}
}

// VisibilityObject describes a tracked object. Bounds and Sphere are both kept
// so the culler can use whichever volume suits the test.
type VisibilityObject struct {
	ID            string
	Type          ObjectType
	Bounds        common.AABB
	Sphere        common.BoundingSphere
	Priority      float32
	AlwaysVisible bool
}

// VisibilityState is the per-object mutable record the pipeline updates each
// frame.
type VisibilityState struct {
	VisibleLastFrame bool
	VisibleThisFrame bool
	QueryPending     bool
	LastTestedFrame  uint64
	// FrustumMargin is the radius-adjusted clearance from the last sphere
	// test. Small positive values mean the object sits near a frustum edge.
	FrustumMargin float32
}

// ChunkRecord is the per-chunk visibility record, keyed by grid coordinate
// rather than object ID.
type ChunkRecord struct {
	Coord      common.GridCoord
	Visible    bool
	WasVisible bool
	Distance   float32
}

// Buffer is the central store of visibility state for objects and terrain
// chunks. All access is synchronized; the manager is the only writer during a
// frame but readers may inspect state from other goroutines.
type Buffer struct {
	mu *sync.RWMutex

	objects map[string]*VisibilityObject
	states  map[string]*VisibilityState
	chunks  map[common.GridCoord]*ChunkRecord
}

// NewBuffer creates an empty visibility buffer.
//
// Returns:
//   - *Buffer: the new buffer
func NewBuffer() *Buffer {
	return &Buffer{
		mu:      &sync.RWMutex{},
		objects: make(map[string]*VisibilityObject),
		states:  make(map[string]*VisibilityState),
		chunks:  make(map[common.GridCoord]*ChunkRecord),
	}
}

// Register adds an object to the buffer. New objects start visible so they are
// tested and drawn on their first frame. Re-registering an existing ID
// replaces the object description and resets its state.
//
// Parameters:
//   - obj: the object description, must have a non-empty ID
func (b *Buffer) Register(obj VisibilityObject) {
	if obj.ID == "" {
		panic("visibility: Register requires a non-empty object ID")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[obj.ID] = &obj
	b.states[obj.ID] = &VisibilityState{
		VisibleLastFrame: true,
		VisibleThisFrame: true,
	}
}

// UpdateBounds replaces the test volumes for an existing object, keeping its
// state and history intact. Unknown IDs are ignored.
//
// Parameters:
//   - id: the object ID
//   - bounds: the new world-space box
//   - sphere: the new bounding sphere
func (b *Buffer) UpdateBounds(id string, bounds common.AABB, sphere common.BoundingSphere) {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, ok := b.objects[id]
	if !ok {
		return
	}
	obj.Bounds = bounds
	obj.Sphere = sphere
}

// Unregister removes an object and its state. Unknown IDs are ignored.
//
// Parameters:
//   - id: the object ID
func (b *Buffer) Unregister(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, id)
	delete(b.states, id)
}

// Object returns the registered description for id.
//
// Parameters:
//   - id: the object ID
//
// Returns:
//   - VisibilityObject: the description, zero value if unknown
//   - bool: true if the object is registered
func (b *Buffer) Object(id string) (VisibilityObject, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[id]
	if !ok {
		return VisibilityObject{}, false
	}
	return *obj, true
}

// State returns a copy of the current state for id.
//
// Parameters:
//   - id: the object ID
//
// Returns:
//   - VisibilityState: the state, zero value if unknown
//   - bool: true if the object is registered
func (b *Buffer) State(id string) (VisibilityState, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st, ok := b.states[id]
	if !ok {
		return VisibilityState{}, false
	}
	return *st, true
}

// ForEach invokes fn for every registered object with its current state. The
// lock is held for the duration, fn must not call back into the buffer.
//
// Parameters:
//   - fn: callback receiving each object and a mutable state pointer
func (b *Buffer) ForEach(fn func(obj VisibilityObject, state *VisibilityState)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, obj := range b.objects {
		fn(*obj, b.states[id])
	}
}

// SetVisible records the frame result for id. Unknown IDs are ignored.
//
// Parameters:
//   - id: the object ID
//   - visible: the frustum or query outcome
//   - frame: the frame counter at test time
func (b *Buffer) SetVisible(id string, visible bool, frame uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.states[id]
	if !ok {
		return
	}
	st.VisibleThisFrame = visible
	st.LastTestedFrame = frame
}

// SetQueryPending flags id as having an in-flight occlusion query. Unknown
// IDs are ignored.
//
// Parameters:
//   - id: the object ID
//   - pending: the new flag value
func (b *Buffer) SetQueryPending(id string, pending bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if st, ok := b.states[id]; ok {
		st.QueryPending = pending
	}
}

// ApplyQueryResult records a resolved occlusion query: the visibility result
// lands and the pending flag clears. Unknown IDs are ignored.
//
// Parameters:
//   - id: the object ID
//   - visible: the query outcome
//   - frame: the frame counter at collection time
func (b *Buffer) ApplyQueryResult(id string, visible bool, frame uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.states[id]
	if !ok {
		return
	}
	st.VisibleThisFrame = visible
	st.QueryPending = false
	st.LastTestedFrame = frame
}

// RegisterChunk adds a tracked chunk record. New chunks start visible.
// Re-registering an existing coordinate is a no-op.
//
// Parameters:
//   - coord: the chunk grid coordinate
func (b *Buffer) RegisterChunk(coord common.GridCoord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.chunks[coord]; ok {
		return
	}
	b.chunks[coord] = &ChunkRecord{
		Coord:      coord,
		Visible:    true,
		WasVisible: true,
	}
}

// UnregisterChunk removes a chunk record. Unknown coordinates are ignored.
//
// Parameters:
//   - coord: the chunk grid coordinate
func (b *Buffer) UnregisterChunk(coord common.GridCoord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.chunks, coord)
}

// Chunk returns a copy of the record for coord.
//
// Parameters:
//   - coord: the chunk grid coordinate
//
// Returns:
//   - ChunkRecord: the record, zero value if untracked
//   - bool: true if the chunk is tracked
func (b *Buffer) Chunk(coord common.GridCoord) (ChunkRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.chunks[coord]
	if !ok {
		return ChunkRecord{}, false
	}
	return *rec, true
}

// ForEachChunk invokes fn for every tracked chunk with a mutable record
// pointer. The lock is held for the duration, fn must not call back into the
// buffer.
//
// Parameters:
//   - fn: callback receiving each chunk record
func (b *Buffer) ForEachChunk(fn func(rec *ChunkRecord)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, rec := range b.chunks {
		fn(rec)
	}
}

// VisibleChunks returns the coordinates of all chunks visible this frame.
//
// Returns:
//   - []common.GridCoord: visible chunk coordinates, order unspecified
func (b *Buffer) VisibleChunks() []common.GridCoord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]common.GridCoord, 0, len(b.chunks))
	for coord, rec := range b.chunks {
		if rec.Visible {
			out = append(out, coord)
		}
	}
	return out
}

// CulledChunks returns the coordinates of all chunks culled this frame.
//
// Returns:
//   - []common.GridCoord: culled chunk coordinates, order unspecified
func (b *Buffer) CulledChunks() []common.GridCoord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []common.GridCoord
	for coord, rec := range b.chunks {
		if !rec.Visible {
			out = append(out, coord)
		}
	}
	return out
}

// BeginFrame rolls this-frame results into last-frame slots for every object
// and chunk. Called once at the top of each update.
func (b *Buffer) BeginFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, st := range b.states {
		st.VisibleLastFrame = st.VisibleThisFrame
	}
	for _, rec := range b.chunks {
		rec.WasVisible = rec.Visible
	}
}

// SetAllVisible marks every object and chunk visible and clears pending query
// flags. Used after teleports when history no longer predicts anything.
func (b *Buffer) SetAllVisible() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, st := range b.states {
		st.VisibleLastFrame = true
		st.VisibleThisFrame = true
		st.QueryPending = false
	}
	for _, rec := range b.chunks {
		rec.Visible = true
		rec.WasVisible = true
	}
}

// Len returns the number of registered objects.
//
// Returns:
//   - int: the object count
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

// ChunkCount returns the number of tracked chunks.
//
// Returns:
//   - int: the chunk count
func (b *Buffer) ChunkCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.chunks)
}
