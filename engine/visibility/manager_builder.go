package visibility

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-vis/engine/visibility/hzb"
	"github.com/cogentcore/webgpu/wgpu"
)

// ManagerOption is a function that modifies the manager configuration.
type ManagerOption func(*managerImpl)

// WithConfig replaces the baseline configuration. Quality presets are applied
// on top of it.
//
// Parameters:
//   - cfg: the baseline configuration
//
// Returns:
//   - ManagerOption: the option function
func WithConfig(cfg Config) ManagerOption {
	return func(m *managerImpl) {
		m.baseCfg = cfg
	}
}

// WithQuality sets the initial quality preset.
//
// Parameters:
//   - level: the preset
//
// Returns:
//   - ManagerOption: the option function
func WithQuality(level QualityLevel) ManagerOption {
	return func(m *managerImpl) {
		m.quality = level
	}
}

// WithDevice supplies the WebGPU device for pyramid allocation. Without one
// the manager runs CPU frustum culling only.
//
// Parameters:
//   - device: the WebGPU device
//
// Returns:
//   - ManagerOption: the option function
func WithDevice(device *wgpu.Device) ManagerOption {
	return func(m *managerImpl) {
		m.device = device
	}
}

// WithCuller replaces the default frustum culler.
//
// Parameters:
//   - culler: the culler, ignored when nil
//
// Returns:
//   - ManagerOption: the option function
func WithCuller(culler Culler) ManagerOption {
	return func(m *managerImpl) {
		if culler != nil {
			m.culler = culler
		}
	}
}

// WithTemporalCoherence replaces the default temporal tracker.
//
// Parameters:
//   - temporal: the tracker, ignored when nil
//
// Returns:
//   - ManagerOption: the option function
func WithTemporalCoherence(temporal TemporalCoherence) ManagerOption {
	return func(m *managerImpl) {
		if temporal != nil {
			m.temporal = temporal
		}
	}
}

// WithQueryPool replaces the default software occlusion query pool.
//
// Parameters:
//   - pool: the pool, ignored when nil
//
// Returns:
//   - ManagerOption: the option function
func WithQueryPool(pool OcclusionQueryPool) ManagerOption {
	return func(m *managerImpl) {
		if pool != nil {
			m.queryPool = pool
		}
	}
}

// WithHZBGenerator replaces the default pyramid generator.
//
// Parameters:
//   - gen: the generator, ignored when nil
//
// Returns:
//   - ManagerOption: the option function
func WithHZBGenerator(gen hzb.Generator) ManagerOption {
	return func(m *managerImpl) {
		if gen != nil {
			m.hzbGen = gen
		}
	}
}

// WithStatsLogger attaches a periodic frame stats logger.
//
// Parameters:
//   - logger: the stats logger
//
// Returns:
//   - ManagerOption: the option function
func WithStatsLogger(logger *StatsLogger) ManagerOption {
	return func(m *managerImpl) {
		m.statsLogger = logger
	}
}

// WithLogger replaces the diagnostic logger.
//
// Parameters:
//   - logger: the logger, ignored when nil
//
// Returns:
//   - ManagerOption: the option function
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *managerImpl) {
		if logger != nil {
			m.logger = logger
		}
	}
}
