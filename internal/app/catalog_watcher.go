package app

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventCatalogReloaded is emitted after the component catalog was re-read.
const EventCatalogReloaded = "catalog:reloaded"

// catalogWatcher reloads the component catalog when its file is saved.
// Editors write through a temp file + rename, so the parent directory is
// watched and events are matched by path.
type catalogWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	reload  func() error
	done    chan struct{}
	once    sync.Once
}

func newCatalogWatcher(path string, reload func() error) (*catalogWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}

	w := &catalogWatcher{
		watcher: watcher,
		path:    absPath,
		reload:  reload,
		done:    make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Close stops the watcher and waits for the loop to exit.
func (w *catalogWatcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *catalogWatcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			absPath, _ := filepath.Abs(event.Name)
			if absPath != w.path {
				continue
			}
			if err := w.reload(); err != nil {
				log.Printf("[CATALOG] reload %s: %v", w.path, err)
				continue
			}
			log.Printf("[CATALOG] reloaded %s", w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[CATALOG] watcher error: %v", err)
		}
	}
}
