package visibility

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults for the visibility pipeline. Values below are the high-quality
// baseline; presets scale them down.
const (
	DefaultConservativeMargin   float32 = 1.1
	DefaultHistoryFrames                = 8
	DefaultConfidenceThreshold  float32 = 0.75
	DefaultReducedQueryInterval         = 3
	DefaultMaxQueriesPerFrame           = 64
	DefaultHZBResolution                = 512
	DefaultNearChunkDistance    float32 = 100.0
	DefaultChunkSize            float32 = 100.0
	DefaultMinHeight            float32 = -50.0
	DefaultMaxHeight            float32 = 150.0
)

// QualityLevel selects a cost preset for the pipeline. Lower levels disable
// expensive stages but never change which objects are correctly visible, only
// how much work is spent proving it.
type QualityLevel string

const (
	QualityHigh   QualityLevel = "high"
	QualityMedium QualityLevel = "medium"
	QualityLow    QualityLevel = "low"
)

// Config holds every tunable of the visibility pipeline. The zero value is
// not usable, start from DefaultConfig and override.
type Config struct {
	HZBEnabled    bool `yaml:"hzb_enabled"`
	HZBResolution int  `yaml:"hzb_resolution"`

	OcclusionQueriesEnabled bool `yaml:"occlusion_queries_enabled"`
	MaxQueriesPerFrame      int  `yaml:"max_queries_per_frame"`

	TemporalCoherenceEnabled bool    `yaml:"temporal_coherence_enabled"`
	HistoryFrames            int     `yaml:"history_frames"`
	ConfidenceThreshold      float32 `yaml:"confidence_threshold"`
	ReducedQueryInterval     int     `yaml:"reduced_query_interval"`

	PerInstanceCulling bool    `yaml:"per_instance_culling"`
	ConservativeMargin float32 `yaml:"conservative_margin"`

	NearChunkDistance float32 `yaml:"near_chunk_distance"`
	ChunkSize         float32 `yaml:"chunk_size"`
	MinHeight         float32 `yaml:"min_height"`
	MaxHeight         float32 `yaml:"max_height"`
}

// ConfigOverrides is a partial Config. Nil fields keep the value they are
// merged over.
type ConfigOverrides struct {
	HZBEnabled    *bool `yaml:"hzb_enabled"`
	HZBResolution *int  `yaml:"hzb_resolution"`

	OcclusionQueriesEnabled *bool `yaml:"occlusion_queries_enabled"`
	MaxQueriesPerFrame      *int  `yaml:"max_queries_per_frame"`

	TemporalCoherenceEnabled *bool    `yaml:"temporal_coherence_enabled"`
	HistoryFrames            *int     `yaml:"history_frames"`
	ConfidenceThreshold      *float32 `yaml:"confidence_threshold"`
	ReducedQueryInterval     *int     `yaml:"reduced_query_interval"`

	PerInstanceCulling *bool    `yaml:"per_instance_culling"`
	ConservativeMargin *float32 `yaml:"conservative_margin"`

	NearChunkDistance *float32 `yaml:"near_chunk_distance"`
	ChunkSize         *float32 `yaml:"chunk_size"`
	MinHeight         *float32 `yaml:"min_height"`
	MaxHeight         *float32 `yaml:"max_height"`
}

// DefaultConfig returns the high-quality baseline configuration.
//
// Returns:
//   - Config: the defaults
func DefaultConfig() Config {
	return Config{
		HZBEnabled:               true,
		HZBResolution:            DefaultHZBResolution,
		OcclusionQueriesEnabled:  true,
		MaxQueriesPerFrame:       DefaultMaxQueriesPerFrame,
		TemporalCoherenceEnabled: true,
		HistoryFrames:            DefaultHistoryFrames,
		ConfidenceThreshold:      DefaultConfidenceThreshold,
		ReducedQueryInterval:     DefaultReducedQueryInterval,
		PerInstanceCulling:       true,
		ConservativeMargin:       DefaultConservativeMargin,
		NearChunkDistance:        DefaultNearChunkDistance,
		ChunkSize:                DefaultChunkSize,
		MinHeight:                DefaultMinHeight,
		MaxHeight:                DefaultMaxHeight,
	}
}

// WithOverrides returns a copy of c with every non-nil override applied.
//
// Parameters:
//   - o: the partial overrides
//
// Returns:
//   - Config: the merged configuration
func (c Config) WithOverrides(o ConfigOverrides) Config {
	if o.HZBEnabled != nil {
		c.HZBEnabled = *o.HZBEnabled
	}
	if o.HZBResolution != nil {
		c.HZBResolution = *o.HZBResolution
	}
	if o.OcclusionQueriesEnabled != nil {
		c.OcclusionQueriesEnabled = *o.OcclusionQueriesEnabled
	}
	if o.MaxQueriesPerFrame != nil {
		c.MaxQueriesPerFrame = *o.MaxQueriesPerFrame
	}
	if o.TemporalCoherenceEnabled != nil {
		c.TemporalCoherenceEnabled = *o.TemporalCoherenceEnabled
	}
	if o.HistoryFrames != nil {
		c.HistoryFrames = *o.HistoryFrames
	}
	if o.ConfidenceThreshold != nil {
		c.ConfidenceThreshold = *o.ConfidenceThreshold
	}
	if o.ReducedQueryInterval != nil {
		c.ReducedQueryInterval = *o.ReducedQueryInterval
	}
	if o.PerInstanceCulling != nil {
		c.PerInstanceCulling = *o.PerInstanceCulling
	}
	if o.ConservativeMargin != nil {
		c.ConservativeMargin = *o.ConservativeMargin
	}
	if o.NearChunkDistance != nil {
		c.NearChunkDistance = *o.NearChunkDistance
	}
	if o.ChunkSize != nil {
		c.ChunkSize = *o.ChunkSize
	}
	if o.MinHeight != nil {
		c.MinHeight = *o.MinHeight
	}
	if o.MaxHeight != nil {
		c.MaxHeight = *o.MaxHeight
	}
	return c
}

// Normalized returns a copy of c with every field clamped to a usable range.
// HZB resolution snaps to the nearest power of two in [64, 2048].
//
// Returns:
//   - Config: the normalized configuration
func (c Config) Normalized() Config {
	c.HZBResolution = nearestPowerOfTwo(c.HZBResolution, 64, 2048)
	if c.MaxQueriesPerFrame < 1 {
		c.MaxQueriesPerFrame = 1
	}
	if c.HistoryFrames < 2 {
		c.HistoryFrames = 2
	}
	if c.ConfidenceThreshold < 0 {
		c.ConfidenceThreshold = 0
	}
	if c.ConfidenceThreshold > 1 {
		c.ConfidenceThreshold = 1
	}
	if c.ReducedQueryInterval < 1 {
		c.ReducedQueryInterval = 1
	}
	if c.ConservativeMargin < 1 {
		c.ConservativeMargin = 1
	}
	if c.NearChunkDistance < 0 {
		c.NearChunkDistance = 0
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MaxHeight < c.MinHeight {
		c.MinHeight, c.MaxHeight = c.MaxHeight, c.MinHeight
	}
	return c
}

// ApplyQuality returns a copy of c with the preset for level applied. The
// presets trade precision for cost: lower levels drop the pyramid resolution
// and widen the conservative margin and near-chunk distance, which only ever
// admits more geometry, never less.
//
// Parameters:
//   - level: the quality preset
//
// Returns:
//   - Config: the adjusted configuration
func (c Config) ApplyQuality(level QualityLevel) Config {
	switch level {
	case QualityHigh:
		c.HZBEnabled = true
		c.OcclusionQueriesEnabled = true
		c.TemporalCoherenceEnabled = true
		c.PerInstanceCulling = true
	case QualityMedium:
		c.HZBEnabled = true
		c.OcclusionQueriesEnabled = true
		c.TemporalCoherenceEnabled = true
		c.PerInstanceCulling = false
		c.HZBResolution = c.HZBResolution / 2
		c.MaxQueriesPerFrame = c.MaxQueriesPerFrame / 2
		if c.MaxQueriesPerFrame < 1 {
			c.MaxQueriesPerFrame = 1
		}
	case QualityLow:
		c.HZBEnabled = false
		c.OcclusionQueriesEnabled = false
		c.TemporalCoherenceEnabled = true
		c.PerInstanceCulling = false
		c.HZBResolution = c.HZBResolution / 4
		c.ConservativeMargin = c.ConservativeMargin * 1.25
		c.NearChunkDistance = c.NearChunkDistance * 1.5
	}
	return c
}

// LoadConfig reads a YAML overrides file and merges it over the defaults.
//
// Parameters:
//   - path: the YAML file path
//
// Returns:
//   - Config: the merged and normalized configuration
//   - error: nil on success
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read visibility config: %w", err)
	}

	var overrides ConfigOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return Config{}, fmt.Errorf("failed to parse visibility config: %w", err)
	}

	return DefaultConfig().WithOverrides(overrides).Normalized(), nil
}

func nearestPowerOfTwo(v, min, max int) int {
	if v <= min {
		return min
	}
	if v >= max {
		return max
	}
	lower := min
	for lower*2 <= v {
		lower *= 2
	}
	upper := lower * 2
	if v-lower <= upper-v {
		return lower
	}
	return upper
}
