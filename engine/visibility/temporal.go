package visibility

import "sync"

// QueryReason explains why a query decision came out the way it did.
type QueryReason string

const (
	// QueryReasonNew means the object has no recorded history yet.
	QueryReasonNew QueryReason = "new"
	// QueryReasonForce means ForceQueryAll is in effect this frame.
	QueryReasonForce QueryReason = "force"
	// QueryReasonStable means the history is confident enough to skip testing.
	QueryReasonStable QueryReason = "stable"
	// QueryReasonInterval means the object is on the reduced cadence for
	// long-invisible objects.
	QueryReasonInterval QueryReason = "interval"
	// QueryReasonUnstable means the history is too noisy to predict from.
	QueryReasonUnstable QueryReason = "unstable"
)

// QueryDecision is the per-object verdict on whether a fresh visibility test
// is needed this frame.
type QueryDecision struct {
	ShouldQuery      bool
	PredictedVisible bool
	Confidence       float32
	Reason           QueryReason
}

// TemporalCoherence tracks recent visibility results per object and elides
// tests for objects whose outcome is predictable. Confidence is derived from
// how one-sided the recent history is: an object visible (or invisible) every
// frame reaches confidence 1.0, a flickering one stays near 0.
type TemporalCoherence interface {
	// BeginFrame advances the internal frame counter. Must be called once per
	// frame before any decisions.
	BeginFrame()

	// GetQueryDecision returns whether id needs a fresh test this frame. When
	// the decision is to query, the object's last-query frame is stamped so
	// cadence tracking stays accurate even if the caller drops the query.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - QueryDecision: the verdict with prediction and confidence
	GetQueryDecision(id string) QueryDecision

	// RecordResult feeds an authoritative visibility result into the history
	// ring for id. Creates the history if the object is new.
	//
	// Parameters:
	//   - id: the object ID
	//   - visible: the test or query outcome
	RecordResult(id string, visible bool)

	// ForceQueryAll disables elision for the next frame. Histories are kept
	// but every decision comes back ShouldQuery until the following
	// BeginFrame.
	ForceQueryAll()

	// Reset discards all histories. Every object is treated as new afterwards.
	Reset()

	// Remove discards the history for a single object.
	//
	// Parameters:
	//   - id: the object ID
	Remove(id string)

	// Confidence returns the current confidence for id.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - float32: confidence in [0, 1], 0 for unknown objects
	Confidence(id string) float32

	// StableFrames returns how many consecutive frames id has held the same
	// result.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - int: the streak length, 0 for unknown objects
	StableFrames(id string) int

	// SetHistoryFrames resizes the ring buffer window. Changing the window
	// discards all recorded histories, statistics over rings of a different
	// length are not comparable. Values below 2 are clamped to 2.
	//
	// Parameters:
	//   - frames: the new history window in frames
	SetHistoryFrames(frames int)

	// SetConfidenceThreshold replaces the elision threshold. Clamped to [0, 1].
	//
	// Parameters:
	//   - threshold: the required confidence
	SetConfidenceThreshold(threshold float32)

	// SetReducedQueryInterval replaces the re-test cadence for long-invisible
	// objects. Values below 1 are clamped to 1.
	//
	// Parameters:
	//   - interval: the re-test interval in frames
	SetReducedQueryInterval(interval int)
}

var _ TemporalCoherence = &temporalCoherenceImpl{}

type visibilityHistory struct {
	ring   []bool
	cursor int
	filled int

	lastValue            bool
	stableFrames         int
	consecutiveInvisible int
	lastQueryFrame       uint64

	predictedVisible bool
	confidence       float32
}

type temporalCoherenceImpl struct {
	mu *sync.Mutex

	historyFrames        int
	confidenceThreshold  float32
	reducedQueryInterval uint64
	invisibleStreak      int

	frame      uint64
	forceFrame uint64
	histories  map[string]*visibilityHistory
}

// NewTemporalCoherence creates a temporal coherence tracker with the default
// history window, confidence threshold and reduced query cadence.
//
// Parameters:
//   - options: optional configuration functions
//
// Returns:
//   - TemporalCoherence: the new tracker
func NewTemporalCoherence(options ...TemporalOption) TemporalCoherence {
	t := &temporalCoherenceImpl{
		mu:                   &sync.Mutex{},
		historyFrames:        DefaultHistoryFrames,
		confidenceThreshold:  DefaultConfidenceThreshold,
		reducedQueryInterval: DefaultReducedQueryInterval,
		invisibleStreak:      3,
		histories:            make(map[string]*visibilityHistory),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *temporalCoherenceImpl) BeginFrame() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frame++
}

func (t *temporalCoherenceImpl) GetQueryDecision(id string) QueryDecision {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.histories[id]
	if !ok {
		return QueryDecision{
			ShouldQuery:      true,
			PredictedVisible: true,
			Reason:           QueryReasonNew,
		}
	}

	if t.forceFrame >= t.frame {
		h.lastQueryFrame = t.frame
		return QueryDecision{
			ShouldQuery:      true,
			PredictedVisible: h.predictedVisible,
			Confidence:       h.confidence,
			Reason:           QueryReasonForce,
		}
	}

	// Long-invisible objects stay on the reduced cadence even when their
	// history is one-sided. A stale invisible result pops an object into
	// view a frame late; a stale visible one only costs overdraw.
	if h.consecutiveInvisible >= t.invisibleStreak {
		due := t.frame-h.lastQueryFrame >= t.reducedQueryInterval
		if due {
			h.lastQueryFrame = t.frame
		}
		return QueryDecision{
			ShouldQuery:      due,
			PredictedVisible: false,
			Confidence:       h.confidence,
			Reason:           QueryReasonInterval,
		}
	}

	stable := h.confidence >= t.confidenceThreshold && h.stableFrames >= t.historyFrames/2
	if stable {
		return QueryDecision{
			ShouldQuery:      false,
			PredictedVisible: h.predictedVisible,
			Confidence:       h.confidence,
			Reason:           QueryReasonStable,
		}
	}

	h.lastQueryFrame = t.frame
	return QueryDecision{
		ShouldQuery:      true,
		PredictedVisible: h.predictedVisible,
		Confidence:       h.confidence,
		Reason:           QueryReasonUnstable,
	}
}

func (t *temporalCoherenceImpl) RecordResult(id string, visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.histories[id]
	if !ok {
		h = &visibilityHistory{ring: make([]bool, t.historyFrames)}
		t.histories[id] = h
	}

	h.ring[h.cursor] = visible
	h.cursor = (h.cursor + 1) % len(h.ring)
	if h.filled < len(h.ring) {
		h.filled++
	}

	if h.filled > 1 && visible == h.lastValue {
		h.stableFrames++
	} else {
		h.stableFrames = 1
	}
	h.lastValue = visible

	if visible {
		h.consecutiveInvisible = 0
	} else {
		h.consecutiveInvisible++
	}
	// A recorded result implies a test ran this frame.
	h.lastQueryFrame = t.frame

	visibleCount := 0
	for i := 0; i < h.filled; i++ {
		if h.ring[i] {
			visibleCount++
		}
	}
	ratio := float32(visibleCount) / float32(h.filled)
	h.predictedVisible = ratio >= 0.5
	// One-sided histories score high, a 50/50 split scores zero.
	if ratio >= 0.5 {
		h.confidence = (ratio - 0.5) * 2
	} else {
		h.confidence = (0.5 - ratio) * 2
	}
}

func (t *temporalCoherenceImpl) ForceQueryAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forceFrame = t.frame + 1
}

func (t *temporalCoherenceImpl) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.histories = make(map[string]*visibilityHistory)
}

func (t *temporalCoherenceImpl) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.histories, id)
}

func (t *temporalCoherenceImpl) SetHistoryFrames(frames int) {
	if frames < 2 {
		frames = 2
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if frames == t.historyFrames {
		return
	}
	t.historyFrames = frames
	t.histories = make(map[string]*visibilityHistory)
}

func (t *temporalCoherenceImpl) SetConfidenceThreshold(threshold float32) {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.confidenceThreshold = threshold
}

func (t *temporalCoherenceImpl) SetReducedQueryInterval(interval int) {
	if interval < 1 {
		interval = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.reducedQueryInterval = uint64(interval)
}

func (t *temporalCoherenceImpl) Confidence(id string) float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h, ok := t.histories[id]; ok {
		return h.confidence
	}
	return 0
}

func (t *temporalCoherenceImpl) StableFrames(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h, ok := t.histories[id]; ok {
		return h.stableFrames
	}
	return 0
}
