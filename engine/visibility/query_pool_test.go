package visibility

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryPoolOneFrameLatency(t *testing.T) {
	pool := NewSoftwareQueryPool()

	pool.BeginFrame()
	require.True(t, pool.Issue("tree_1", common.AABB{}))

	// Same frame: nothing is ready yet.
	assert.Empty(t, pool.CollectResults())
	assert.Equal(t, 1, pool.PendingCount())

	pool.BeginFrame()
	results := pool.CollectResults()
	require.Len(t, results, 1)
	assert.Equal(t, "tree_1", results[0].ObjectID)
	assert.True(t, results[0].Visible)
	assert.Equal(t, 0, pool.PendingCount())
}

func TestQueryPoolBudget(t *testing.T) {
	pool := NewSoftwareQueryPool(WithMaxQueriesPerFrame(2))

	pool.BeginFrame()
	assert.True(t, pool.Issue("a", common.AABB{}))
	assert.True(t, pool.Issue("b", common.AABB{}))
	assert.False(t, pool.Issue("c", common.AABB{}))
	assert.Equal(t, 2, pool.PendingCount())

	// The budget resets each frame.
	pool.BeginFrame()
	assert.True(t, pool.Issue("c", common.AABB{}))
}

func TestQueryPoolResolver(t *testing.T) {
	pool := NewSoftwareQueryPool(WithQueryResolver(func(id string, proxy common.AABB) bool {
		return id != "occluded_one"
	}))

	pool.BeginFrame()
	require.True(t, pool.Issue("occluded_one", common.AABB{}))
	require.True(t, pool.Issue("visible_one", common.AABB{}))

	pool.BeginFrame()
	results := pool.CollectResults()
	require.Len(t, results, 2)
	assert.False(t, results[0].Visible)
	assert.True(t, results[1].Visible)
}

func TestQueryPoolResultsAreFIFO(t *testing.T) {
	pool := NewSoftwareQueryPool()

	pool.BeginFrame()
	pool.Issue("first", common.AABB{})
	pool.Issue("second", common.AABB{})

	pool.BeginFrame()
	results := pool.CollectResults()
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].ObjectID)
	assert.Equal(t, "second", results[1].ObjectID)
}

func TestQueryPoolReset(t *testing.T) {
	pool := NewSoftwareQueryPool()

	pool.BeginFrame()
	pool.Issue("stale", common.AABB{})
	pool.Reset()

	pool.BeginFrame()
	assert.Empty(t, pool.CollectResults())
	assert.Equal(t, 0, pool.PendingCount())
}
