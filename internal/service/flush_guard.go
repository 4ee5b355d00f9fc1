package service

import (
	"context"
	"sync"
)

// ExportedFlushGuard lets service_test drive the guard directly.
type ExportedFlushGuard = flushGuard

// ─────────────────────────────────────────────────────────────
// flushGuard: at most one flush per page
// ─────────────────────────────────────────────────────────────

// flushGuard tracks which pages are being written to storage. The autosave
// tick, an explicit save and shutdown may all call Flush for the same page;
// only the first gets through. The others return at once because the running
// flush takes the session lock and writes everything pending, including edits
// made while it waited.
type flushGuard struct {
	mu       sync.Mutex
	flushing map[string]struct{}
	inflight sync.WaitGroup
}

// Begin claims pageID for one flush. It returns false when a flush of the
// page is already running; the caller must then skip its write.
func (g *flushGuard) Begin(pageID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.flushing == nil {
		g.flushing = make(map[string]struct{})
	}
	if _, busy := g.flushing[pageID]; busy {
		return false
	}
	g.flushing[pageID] = struct{}{}
	g.inflight.Add(1)
	return true
}

// End releases pageID after its flush committed or failed. Call it exactly
// once for every Begin that returned true.
func (g *flushGuard) End(pageID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.flushing[pageID]; !busy {
		return
	}
	delete(g.flushing, pageID)
	g.inflight.Done()
}

// Flushing reports whether a flush of pageID is in progress.
func (g *flushGuard) Flushing(pageID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.flushing[pageID]
	return busy
}

// Wait blocks until no page is being flushed, or ctx ends. Shutdown uses it
// so the database is not closed under a running transaction.
func (g *flushGuard) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
