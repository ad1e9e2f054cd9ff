package vegetation

// BillboardLODOption is a function that modifies the LOD system
// configuration.
type BillboardLODOption func(*billboardLODImpl)

// WithMeshDistances sets the cutoffs between the three mesh tiers. The
// constructor reorders degenerate values so the bands stay ascending.
//
// Parameters:
//   - lod1: distance where the first reduced mesh starts
//   - lod2: distance where the second reduced mesh starts
//
// Returns:
//   - BillboardLODOption: the option function
func WithMeshDistances(lod1, lod2 float32) BillboardLODOption {
	return func(s *billboardLODImpl) {
		if lod1 > 0 {
			s.meshLOD1Distance = lod1
		}
		if lod2 > 0 {
			s.meshLOD2Distance = lod2
		}
	}
}

// WithCrossfadeBand sets the distance range over which the mesh fades into
// the billboard.
//
// Parameters:
//   - start: distance where the fade begins
//   - end: distance where only the billboard remains
//
// Returns:
//   - BillboardLODOption: the option function
func WithCrossfadeBand(start, end float32) BillboardLODOption {
	return func(s *billboardLODImpl) {
		if start > 0 {
			s.crossfadeStart = start
		}
		if end > 0 {
			s.crossfadeEnd = end
		}
	}
}

// WithCullDistance sets the distance past which instances stop rendering
// entirely.
//
// Parameters:
//   - distance: the cull distance in world units
//
// Returns:
//   - BillboardLODOption: the option function
func WithCullDistance(distance float32) BillboardLODOption {
	return func(s *billboardLODImpl) {
		if distance > 0 {
			s.cullDistance = distance
		}
	}
}
