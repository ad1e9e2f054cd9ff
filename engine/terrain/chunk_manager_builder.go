package terrain

// ChunkManagerOption is a function that modifies the chunk manager
// configuration.
type ChunkManagerOption func(*chunkManagerImpl)

// WithChunkSize sets the chunk edge length in world units. Non-positive
// values are ignored.
//
// Parameters:
//   - size: the chunk size
//
// Returns:
//   - ChunkManagerOption: the option function
func WithChunkSize(size float32) ChunkManagerOption {
	return func(cm *chunkManagerImpl) {
		if size > 0 {
			cm.chunkSize = size
		}
	}
}

// WithLoadRadius sets the distance inside which chunks are queued for
// loading.
//
// Parameters:
//   - radius: the load radius in world units
//
// Returns:
//   - ChunkManagerOption: the option function
func WithLoadRadius(radius float32) ChunkManagerOption {
	return func(cm *chunkManagerImpl) {
		if radius > 0 {
			cm.loadRadius = radius
		}
	}
}

// WithUnloadRadius sets the distance beyond which chunks are removed. The
// constructor raises it to at least one chunk past the load radius.
//
// Parameters:
//   - radius: the unload radius in world units
//
// Returns:
//   - ChunkManagerOption: the option function
func WithUnloadRadius(radius float32) ChunkManagerOption {
	return func(cm *chunkManagerImpl) {
		if radius > 0 {
			cm.unloadRadius = radius
		}
	}
}

// WithMaxChunkLoadsPerFrame sets the per-frame load budget. Values below 1
// are clamped to 1.
//
// Parameters:
//   - max: chunks loaded per Update
//
// Returns:
//   - ChunkManagerOption: the option function
func WithMaxChunkLoadsPerFrame(max int) ChunkManagerOption {
	return func(cm *chunkManagerImpl) {
		if max < 1 {
			max = 1
		}
		cm.maxChunkLoadsPerFrame = max
	}
}

// WithLODThresholds sets the distance cutoffs between LOD tiers. Thresholds
// must be ascending; tier N covers distances below thresholds[N] and the
// coarsest tier covers everything past the last cutoff.
//
// Parameters:
//   - thresholds: ascending distance cutoffs in world units
//
// Returns:
//   - ChunkManagerOption: the option function
func WithLODThresholds(thresholds []float32) ChunkManagerOption {
	return func(cm *chunkManagerImpl) {
		if len(thresholds) > 0 {
			cm.lodThresholds = thresholds
		}
	}
}

// WithHeightmapGenerator replaces the default fractal generator.
//
// Parameters:
//   - gen: the generator, ignored when nil
//
// Returns:
//   - ChunkManagerOption: the option function
func WithHeightmapGenerator(gen HeightmapGenerator) ChunkManagerOption {
	return func(cm *chunkManagerImpl) {
		if gen != nil {
			cm.gen = gen
		}
	}
}

// WithLoadWorkers sets the worker count for the geometry fan-out. Values
// below 1 are clamped to 1.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - ChunkManagerOption: the option function
func WithLoadWorkers(workers int) ChunkManagerOption {
	return func(cm *chunkManagerImpl) {
		if workers < 1 {
			workers = 1
		}
		cm.loadWorkers = workers
	}
}
