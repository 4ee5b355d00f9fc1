package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// DefaultAutosaveSpec flushes dirty sessions every ten seconds.
const DefaultAutosaveSpec = "@every 10s"

// Autosaver flushes dirty editing sessions on a cron schedule.
type Autosaver struct {
	editor *EditorService
	spec   string

	mu    sync.Mutex
	sched *cron.Cron
}

// NewAutosaver creates an Autosaver. An empty spec uses DefaultAutosaveSpec.
func NewAutosaver(editor *EditorService, spec string) *Autosaver {
	if spec == "" {
		spec = DefaultAutosaveSpec
	}
	return &Autosaver{editor: editor, spec: spec}
}

// Spec returns the schedule expression.
func (a *Autosaver) Spec() string { return a.spec }

// Start begins the schedule. Calling Start twice restarts it.
func (a *Autosaver) Start(ctx context.Context) error {
	a.Stop()

	c := cron.New()
	if _, err := c.AddFunc(a.spec, func() {
		if err := a.editor.FlushAll(ctx); err != nil {
			log.Printf("[AUTOSAVE] scheduled flush failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("autosave schedule %q: %w", a.spec, err)
	}
	c.Start()

	a.mu.Lock()
	a.sched = c
	a.mu.Unlock()
	log.Printf("[AUTOSAVE] scheduled %s", a.spec)
	return nil
}

// Stop halts the schedule and waits for a running flush to finish.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	c := a.sched
	a.sched = nil
	a.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
