package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/service"
)

// ─────────────────────────────────────────────────────────────
// Flush guard
// ─────────────────────────────────────────────────────────────

func TestFlushGuard_OneFlushPerPage(t *testing.T) {
	var g service.ExportedFlushGuard

	require.True(t, g.Begin("home"))
	assert.True(t, g.Flushing("home"))
	assert.False(t, g.Begin("home"), "a second flush of the same page must back off")
	assert.True(t, g.Begin("about"), "other pages flush independently")

	g.End("home")
	g.End("about")
	assert.False(t, g.Flushing("home"))
	assert.True(t, g.Begin("home"))
	g.End("home")
}

func TestFlushGuard_ConcurrentFlushesOfOnePage(t *testing.T) {
	var (
		g       service.ExportedFlushGuard
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.Begin("home") {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, winners)
	g.End("home")
}

func TestFlushGuard_ShutdownWaitsForRunningFlush(t *testing.T) {
	var g service.ExportedFlushGuard
	require.True(t, g.Begin("home"))

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.End("home")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	g.Wait(ctx)

	assert.False(t, g.Flushing("home"), "Wait returned before the flush finished")
	assert.NoError(t, ctx.Err())
}

func TestFlushGuard_EndWithoutBeginIsHarmless(t *testing.T) {
	var g service.ExportedFlushGuard
	g.End("never-started")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	g.Wait(ctx)
	assert.NoError(t, ctx.Err())
}

func TestFlushGuard_WaitHonoursContext(t *testing.T) {
	var g service.ExportedFlushGuard
	require.True(t, g.Begin("stuck"))
	defer g.End("stuck")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	g.Wait(ctx)
	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
}

// ─────────────────────────────────────────────────────────────
// Emitters
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_CountsPerEvent(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()
	m.Emit(ctx, service.EventBlocksChanged, "home")
	m.Emit(ctx, service.EventBlocksChanged, "home")
	m.Emit(ctx, service.EventPageSaved, "home")

	require.Len(t, m.Events, 3)
	assert.Equal(t, 2, m.Count(service.EventBlocksChanged))
	assert.Equal(t, 1, m.Count(service.EventPageSaved))
	assert.Zero(t, m.Count(service.EventPublished))
	assert.Equal(t, "home", m.Events[2].Data)
}

func TestNopEmitter_Discards(t *testing.T) {
	var e service.EventEmitter = service.NopEmitter{}
	assert.NotPanics(t, func() { e.Emit(context.Background(), service.EventPagesChanged, nil) })
}
