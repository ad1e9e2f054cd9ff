package visibility

// TemporalOption is a function that modifies the temporal coherence
// configuration.
type TemporalOption func(*temporalCoherenceImpl)

// WithHistoryFrames sets the ring buffer length used for confidence
// estimation. Values below 2 are clamped to 2.
//
// Parameters:
//   - frames: the history window in frames
//
// Returns:
//   - TemporalOption: the option function
func WithHistoryFrames(frames int) TemporalOption {
	return func(t *temporalCoherenceImpl) {
		if frames < 2 {
			frames = 2
		}
		t.historyFrames = frames
	}
}

// WithConfidenceThreshold sets the confidence required before an object's
// tests can be elided. Clamped to [0, 1].
//
// Parameters:
//   - threshold: the required confidence
//
// Returns:
//   - TemporalOption: the option function
func WithConfidenceThreshold(threshold float32) TemporalOption {
	return func(t *temporalCoherenceImpl) {
		if threshold < 0 {
			threshold = 0
		}
		if threshold > 1 {
			threshold = 1
		}
		t.confidenceThreshold = threshold
	}
}

// WithReducedQueryInterval sets the cadence, in frames, at which
// long-invisible objects are re-tested. Values below 1 are clamped to 1.
//
// Parameters:
//   - interval: the re-test interval in frames
//
// Returns:
//   - TemporalOption: the option function
func WithReducedQueryInterval(interval int) TemporalOption {
	return func(t *temporalCoherenceImpl) {
		if interval < 1 {
			interval = 1
		}
		t.reducedQueryInterval = uint64(interval)
	}
}
