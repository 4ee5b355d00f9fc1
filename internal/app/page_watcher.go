package app

import (
	"context"
	"log"
	"sync"
	"time"

	"pagebuilder/internal/service"
)

// pageWatcher polls the database for changes to the open pages, detecting
// external modifications (e.g. from the standalone MCP process). Clean
// sessions are reloaded by the editor, which emits page:reloaded so the
// frontend re-renders.
type pageWatcher struct {
	ctx      context.Context
	editor   *service.EditorService
	interval time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

func newPageWatcher(ctx context.Context, editor *service.EditorService, interval time.Duration) *pageWatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &pageWatcher{ctx: ctx, editor: editor, interval: interval}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *pageWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopCh != nil {
		return
	}
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.pollLoop(w.stopCh, w.doneCh)
}

// Stop terminates the polling loop and waits for an in-flight check.
func (w *pageWatcher) Stop() {
	w.mu.Lock()
	stop, done := w.stopCh, w.doneCh
	w.stopCh, w.doneCh = nil, nil
	w.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (w *pageWatcher) pollLoop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-stop:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

// check compares the stored fingerprint of every open page with the one the
// session last saw.
func (w *pageWatcher) check() int {
	reloaded := 0
	for _, pageID := range w.editor.OpenPageIDs() {
		changed, err := w.editor.CheckExternal(w.ctx, pageID)
		if err != nil {
			log.Printf("[WATCH] check page %s: %v", pageID, err)
			continue
		}
		if changed {
			reloaded++
		}
	}
	return reloaded
}
