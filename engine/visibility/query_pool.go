package visibility

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/gammazero/deque"
)

// QueryResult is a resolved occlusion query.
type QueryResult struct {
	ObjectID string
	Visible  bool
}

// OcclusionQueryPool issues per-object occlusion queries and hands results
// back with at least one frame of latency. Implementations enforce a per-frame
// issue budget and silently drop queries over it; dropped objects keep their
// previous visibility until re-queried.
type OcclusionQueryPool interface {
	// BeginFrame resets the per-frame issue budget and advances the frame
	// counter. Must be called once per frame before issuing.
	BeginFrame()

	// Issue submits a query for the object's proxy volume. Returns false when
	// the frame budget is exhausted and the query was dropped.
	//
	// Parameters:
	//   - objectID: the object the query belongs to
	//   - proxy: the bounding volume rendered for the query
	//
	// Returns:
	//   - bool: true if the query was accepted
	Issue(objectID string, proxy common.AABB) bool

	// CollectResults drains every query issued at least one frame ago.
	//
	// Returns:
	//   - []QueryResult: resolved queries, oldest first, nil when none are ready
	CollectResults() []QueryResult

	// PendingCount returns the number of issued but uncollected queries.
	//
	// Returns:
	//   - int: the pending count
	PendingCount() int

	// Reset discards every pending query without resolving it. The pool stays
	// usable afterwards.
	Reset()

	// Dispose discards pending queries and releases any backing resources.
	Dispose()
}

var _ OcclusionQueryPool = &softwareQueryPool{}

type pendingQuery struct {
	objectID string
	proxy    common.AABB
	frame    uint64
}

// QueryResolver decides the outcome of a software query. The default resolver
// reports every proxy visible, which keeps the pool conservative when no depth
// information is available.
type QueryResolver func(objectID string, proxy common.AABB) bool

type softwareQueryPool struct {
	mu *sync.Mutex

	maxQueriesPerFrame int
	issuedThisFrame    int
	frame              uint64
	pending            deque.Deque[pendingQuery]
	resolver           QueryResolver
}

// NewSoftwareQueryPool creates an occlusion query pool that resolves queries
// on the CPU. It mirrors the latency and budget behavior of a GPU pool so the
// rest of the pipeline is unchanged when hardware queries are unavailable.
//
// Parameters:
//   - options: optional configuration functions
//
// Returns:
//   - OcclusionQueryPool: the new pool
func NewSoftwareQueryPool(options ...QueryPoolOption) OcclusionQueryPool {
	p := &softwareQueryPool{
		mu:                 &sync.Mutex{},
		maxQueriesPerFrame: DefaultMaxQueriesPerFrame,
		resolver: func(string, common.AABB) bool {
			return true
		},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *softwareQueryPool) BeginFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame++
	p.issuedThisFrame = 0
}

func (p *softwareQueryPool) Issue(objectID string, proxy common.AABB) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.issuedThisFrame >= p.maxQueriesPerFrame {
		return false
	}
	p.issuedThisFrame++
	p.pending.PushBack(pendingQuery{
		objectID: objectID,
		proxy:    proxy,
		frame:    p.frame,
	})
	return true
}

func (p *softwareQueryPool) CollectResults() []QueryResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	var results []QueryResult
	for p.pending.Len() > 0 && p.pending.Front().frame < p.frame {
		q := p.pending.PopFront()
		results = append(results, QueryResult{
			ObjectID: q.objectID,
			Visible:  p.resolver(q.objectID, q.proxy),
		})
	}
	return results
}

func (p *softwareQueryPool) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending.Len()
}

func (p *softwareQueryPool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending.Clear()
}

func (p *softwareQueryPool) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending.Clear()
}
