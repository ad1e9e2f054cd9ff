// Package vegetation drives distance-based LOD for instanced plants and
// trees. Each instance walks six states from full geometry down to culled,
// with a crossfade band where the mesh and billboard render together to hide
// the swap.
package vegetation

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
)

// LODLevel is one of the six vegetation detail states, ordered by distance.
type LODLevel int

const (
	LODFull3D LODLevel = iota
	LODMesh1
	LODMesh2
	LODCrossfade
	LODBillboard
	LODCulled
)

// String returns the lowercase name of the LOD level.
//
// Returns:
//   - string: the level name
func (l LODLevel) String() string {
	switch l {
	case LODFull3D:
		return "full3d"
	case LODMesh1:
		return "mesh_lod1"
	case LODMesh2:
		return "mesh_lod2"
	case LODCrossfade:
		return "crossfade"
	case LODBillboard:
		return "billboard"
	case LODCulled:
		return "culled"
	default:
		return "unknown"
	}
}

// InstanceState is the per-instance LOD result for one frame. CrossfadeAlpha
// is the billboard weight: 0 at the crossfade start, 1 at its end, and held
// at 1 through the billboard range.
type InstanceState struct {
	Index          int
	Position       [3]float32
	Distance       float32
	Level          LODLevel
	CrossfadeAlpha float32
}

// BillboardLODSystem assigns LOD states to vegetation instances by camera
// distance and packs them for instanced rendering. An external visibility
// override lets per-instance frustum culling force instances to culled
// without disturbing their distance state.
type BillboardLODSystem interface {
	// AddInstance registers a vegetation instance and returns its index.
	//
	// Parameters:
	//   - position: world-space instance position
	//
	// Returns:
	//   - int: the instance index
	AddInstance(position [3]float32) int

	// AddInstances registers a batch of instances.
	//
	// Parameters:
	//   - positions: world-space instance positions
	AddInstances(positions [][3]float32)

	// Update recomputes every instance's LOD state for the camera position.
	//
	// Parameters:
	//   - camX: camera world X
	//   - camY: camera world Y
	//   - camZ: camera world Z
	Update(camX, camY, camZ float32)

	// CalculateLOD maps a distance to a level and crossfade alpha. Pure; the
	// same thresholds Update applies.
	//
	// Parameters:
	//   - distance: camera distance in world units
	//
	// Returns:
	//   - LODLevel: the level for that distance
	//   - float32: the crossfade alpha in [0, 1]
	CalculateLOD(distance float32) (LODLevel, float32)

	// State returns the current state of one instance.
	//
	// Parameters:
	//   - index: the instance index
	//
	// Returns:
	//   - InstanceState: the state, zero value if out of range
	//   - bool: true if the index exists
	State(index int) (InstanceState, bool)

	// States returns a copy of every instance state.
	//
	// Returns:
	//   - []InstanceState: all states, indexed by instance
	States() []InstanceState

	// SetInstanceVisibility applies an external visibility override. Hidden
	// instances report LODCulled until shown again. Out-of-range indices are
	// ignored.
	//
	// Parameters:
	//   - index: the instance index
	//   - visible: false forces the instance to culled
	SetInstanceVisibility(index int, visible bool)

	// VisibleInstanceIndices returns the indices of every instance that
	// renders this frame in any form.
	//
	// Returns:
	//   - []int: visible indices in ascending order
	VisibleInstanceIndices() []int

	// InstanceBuffer packs visible instances as four floats each, position
	// xyz plus crossfade alpha, ready for GPU upload alongside
	// VisibleInstanceIndices.
	//
	// Returns:
	//   - []float32: the packed buffer
	InstanceBuffer() []float32

	// Count returns the registered instance count.
	//
	// Returns:
	//   - int: the instance count
	Count() int
}

var _ BillboardLODSystem = &billboardLODImpl{}

type billboardLODImpl struct {
	mu *sync.RWMutex

	meshLOD1Distance float32
	meshLOD2Distance float32
	crossfadeStart   float32
	crossfadeEnd     float32
	cullDistance     float32

	positions [][3]float32
	states    []InstanceState
	hidden    []bool
}

// NewBillboardLODSystem creates a vegetation LOD system with the default
// distance bands.
//
// Parameters:
//   - options: optional configuration functions
//
// Returns:
//   - BillboardLODSystem: the new system
func NewBillboardLODSystem(options ...BillboardLODOption) BillboardLODSystem {
	s := &billboardLODImpl{
		mu:               &sync.RWMutex{},
		meshLOD1Distance: 30.0,
		meshLOD2Distance: 60.0,
		crossfadeStart:   100.0,
		crossfadeEnd:     150.0,
		cullDistance:     300.0,
	}
	for _, opt := range options {
		opt(s)
	}

	if s.meshLOD2Distance < s.meshLOD1Distance {
		s.meshLOD2Distance = s.meshLOD1Distance
	}
	if s.crossfadeStart < s.meshLOD2Distance {
		s.crossfadeStart = s.meshLOD2Distance
	}
	if s.crossfadeEnd <= s.crossfadeStart {
		s.crossfadeEnd = s.crossfadeStart + 1
	}
	if s.cullDistance < s.crossfadeEnd {
		s.cullDistance = s.crossfadeEnd
	}
	return s
}

func (s *billboardLODImpl) AddInstance(position [3]float32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(position)
}

func (s *billboardLODImpl) AddInstances(positions [][3]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range positions {
		s.addLocked(p)
	}
}

func (s *billboardLODImpl) addLocked(position [3]float32) int {
	index := len(s.positions)
	s.positions = append(s.positions, position)
	s.states = append(s.states, InstanceState{
		Index:    index,
		Position: position,
		Level:    LODFull3D,
	})
	s.hidden = append(s.hidden, false)
	return index
}

func (s *billboardLODImpl) Update(camX, camY, camZ float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, pos := range s.positions {
		d := common.Distance(camX, camY, camZ, pos[0], pos[1], pos[2])
		level, alpha := s.calculateLOD(d)
		if s.hidden[i] {
			level = LODCulled
			alpha = 0
		}

		s.states[i].Distance = d
		s.states[i].Level = level
		s.states[i].CrossfadeAlpha = alpha
	}
}

func (s *billboardLODImpl) CalculateLOD(distance float32) (LODLevel, float32) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calculateLOD(distance)
}

// calculateLOD maps distance to a state. The alpha ramps linearly across the
// crossfade band and stays 1 for the pure billboard range, so the billboard
// weight is continuous at both band edges.
func (s *billboardLODImpl) calculateLOD(distance float32) (LODLevel, float32) {
	switch {
	case distance >= s.cullDistance:
		return LODCulled, 0
	case distance >= s.crossfadeEnd:
		return LODBillboard, 1
	case distance >= s.crossfadeStart:
		alpha := (distance - s.crossfadeStart) / (s.crossfadeEnd - s.crossfadeStart)
		return LODCrossfade, alpha
	case distance >= s.meshLOD2Distance:
		return LODMesh2, 0
	case distance >= s.meshLOD1Distance:
		return LODMesh1, 0
	default:
		return LODFull3D, 0
	}
}

func (s *billboardLODImpl) State(index int) (InstanceState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.states) {
		return InstanceState{}, false
	}
	return s.states[index], true
}

func (s *billboardLODImpl) States() []InstanceState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]InstanceState, len(s.states))
	copy(out, s.states)
	return out
}

func (s *billboardLODImpl) SetInstanceVisibility(index int, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.hidden) {
		return
	}
	s.hidden[index] = !visible
	if !visible {
		s.states[index].Level = LODCulled
		s.states[index].CrossfadeAlpha = 0
	}
}

func (s *billboardLODImpl) VisibleInstanceIndices() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]int, 0, len(s.states))
	for i := range s.states {
		if s.states[i].Level != LODCulled {
			out = append(out, i)
		}
	}
	return out
}

func (s *billboardLODImpl) InstanceBuffer() []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]float32, 0, len(s.states)*4)
	for i := range s.states {
		if s.states[i].Level == LODCulled {
			continue
		}
		out = append(out,
			s.states[i].Position[0],
			s.states[i].Position[1],
			s.states[i].Position[2],
			s.states[i].CrossfadeAlpha,
		)
	}
	return out
}

func (s *billboardLODImpl) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positions)
}
