package terrain

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(opts ...ChunkManagerOption) ChunkManager {
	base := []ChunkManagerOption{
		WithChunkSize(100),
		WithLoadRadius(300),
		WithUnloadRadius(450),
		WithMaxChunkLoadsPerFrame(4),
		WithHeightmapGenerator(NewFractalGenerator(100, WithBaseResolution(8))),
	}
	return NewChunkManager(append(base, opts...)...)
}

// drain runs updates until the load queue empties.
func drain(t *testing.T, cm ChunkManager, playerX, playerZ float32) {
	t.Helper()
	for i := 0; i < 200; i++ {
		cm.Update(playerX, playerZ)
		if cm.QueueLength() == 0 {
			return
		}
	}
	t.Fatalf("load queue never drained, %d remaining", cm.QueueLength())
}

func TestChunksLoadWithinRadius(t *testing.T) {
	cm := newTestManager()
	drain(t, cm, 0, 0)

	// The chunk under the player is active with full geometry.
	chunk, ok := cm.Chunk(common.GridCoord{X: 0, Z: 0})
	require.True(t, ok)
	assert.Equal(t, ChunkStateActive, chunk.State)
	assert.NotEmpty(t, chunk.Vertices)
	assert.NotEmpty(t, chunk.Indices)

	// Chunks well past the load radius were never queued.
	assert.False(t, cm.IsTracked(common.GridCoord{X: 10, Z: 10}))
}

func TestLoadBudgetPerFrame(t *testing.T) {
	cm := newTestManager(WithMaxChunkLoadsPerFrame(2))

	cm.Update(0, 0)
	assert.Equal(t, 2, cm.ChunkCount())

	cm.Update(0, 0)
	assert.Equal(t, 4, cm.ChunkCount())
}

func TestNearestChunkLoadsFirst(t *testing.T) {
	cm := newTestManager(WithMaxChunkLoadsPerFrame(1))

	// Player offset into chunk (0,0) makes it uniquely nearest.
	cm.Update(60, 60)

	require.Equal(t, 1, cm.ChunkCount())
	assert.True(t, cm.IsTracked(common.GridCoord{X: 0, Z: 0}))
}

func TestUnloadHysteresis(t *testing.T) {
	cm := newTestManager(WithMaxChunkLoadsPerFrame(64))
	drain(t, cm, 0, 0)

	origin := common.GridCoord{X: 0, Z: 0}
	require.True(t, cm.IsTracked(origin))

	// Between the load and unload radii the chunk must survive.
	cm.Update(400, 0)
	assert.True(t, cm.IsTracked(origin), "chunk unloaded inside the hysteresis band")

	// Past the unload radius it goes away immediately.
	var unloaded []common.GridCoord
	cm.OnChunkUnloaded(func(coord common.GridCoord) {
		unloaded = append(unloaded, coord)
	})
	cm.Update(2000, 0)
	assert.False(t, cm.IsTracked(origin))
	assert.Contains(t, unloaded, origin)
}

func TestLoadedCallback(t *testing.T) {
	cm := newTestManager(WithMaxChunkLoadsPerFrame(1))

	var loaded []common.GridCoord
	cm.OnChunkLoaded(func(coord common.GridCoord) {
		loaded = append(loaded, coord)
	})

	cm.Update(60, 60)
	require.Len(t, loaded, 1)

	// The callback fires only after geometry exists.
	chunk, ok := cm.Chunk(loaded[0])
	require.True(t, ok)
	assert.Equal(t, ChunkStateActive, chunk.State)
	assert.NotEmpty(t, chunk.Heightmap)
}

func TestLODForDistance(t *testing.T) {
	cm := newTestManager(WithLODThresholds([]float32{150, 300, 500}))

	assert.Equal(t, 0, cm.LODForDistance(50))
	assert.Equal(t, 0, cm.LODForDistance(149))
	assert.Equal(t, 1, cm.LODForDistance(150))
	assert.Equal(t, 2, cm.LODForDistance(450))
	assert.Equal(t, 3, cm.LODForDistance(5000))
}

func TestRetessellationOnThresholdCross(t *testing.T) {
	cm := newTestManager(WithMaxChunkLoadsPerFrame(64))
	drain(t, cm, 0, 0)

	origin := common.GridCoord{X: 0, Z: 0}
	chunk, _ := cm.Chunk(origin)
	require.Equal(t, 0, chunk.LOD)
	fineVerts := len(chunk.Vertices)

	// Move so the origin chunk crosses into a coarser tier but stays loaded.
	cm.Update(380, 50)

	chunk, ok := cm.Chunk(origin)
	require.True(t, ok)
	assert.Greater(t, chunk.LOD, 0)
	// The rebuild happened in the same frame, the buffers shrank with it.
	assert.Less(t, len(chunk.Vertices), fineVerts)
}

func TestUpdateIsIdempotentWhenSettled(t *testing.T) {
	cm := newTestManager(WithMaxChunkLoadsPerFrame(64))
	drain(t, cm, 0, 0)

	count := cm.ChunkCount()
	for i := 0; i < 5; i++ {
		cm.Update(0, 0)
	}
	assert.Equal(t, count, cm.ChunkCount())
	assert.Equal(t, 0, cm.QueueLength())
}

func TestChunkRecordsAccessAndPriority(t *testing.T) {
	cm := newTestManager(WithMaxChunkLoadsPerFrame(1))

	// Player offset into chunk (0,0) makes it uniquely nearest.
	cm.Update(60, 60)

	origin := common.GridCoord{X: 0, Z: 0}
	chunk, ok := cm.Chunk(origin)
	require.True(t, ok)

	// The priority is the distance key the chunk queued at.
	assert.Greater(t, chunk.Priority, float32(0))
	assert.InDelta(t, chunk.Distance, chunk.Priority, 1e-4)
	assert.Equal(t, uint64(1), chunk.LastAccess)

	// Every frame the chunk stays in radius refreshes its access stamp.
	cm.Update(60, 60)
	chunk, _ = cm.Chunk(origin)
	assert.Equal(t, uint64(2), chunk.LastAccess)
	assert.InDelta(t, chunk.Distance, chunk.Priority, 1e-4)
}

func TestSubscribeDuringUpdates(t *testing.T) {
	cm := newTestManager(WithMaxChunkLoadsPerFrame(1))

	// Subscribing from another goroutine must be safe while updates run and
	// fire both load and unload callbacks.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			cm.OnChunkLoaded(func(common.GridCoord) {})
			cm.OnChunkUnloaded(func(common.GridCoord) {})
		}
	}()
	for i := 0; i < 50; i++ {
		cm.Update(float32(i)*60, 0)
	}
	<-done
}

func TestActiveChunksNeverQueued(t *testing.T) {
	cm := newTestManager(WithMaxChunkLoadsPerFrame(1))

	// Partially load, then keep updating; tracked chunks must not re-queue.
	cm.Update(0, 0)
	cm.Update(0, 0)

	tracked := cm.ChunkCount()
	queueBefore := cm.QueueLength()
	cm.Update(0, 0)

	assert.Equal(t, tracked+1, cm.ChunkCount())
	assert.Equal(t, queueBefore-1, cm.QueueLength())
}
