package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"

	"pagebuilder/internal/canvas"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
	"pagebuilder/internal/storage"
	"pagebuilder/internal/tree"
)

// ─────────────────────────────────────────────────────────────
// Editor Service: editing sessions over the block tree
// ─────────────────────────────────────────────────────────────
//
// One Session per open page. Mutations run against the in-memory tree store
// and accumulate in a pending change; Flush writes the pending change in one
// transaction. Every applied mutation also records an undo snapshot.

// ErrNothingToUndo is returned by Undo/Redo at either end of the history.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrNothingToRedo is returned by Redo when the current node has no child.
var ErrNothingToRedo = errors.New("nothing to redo")

// Session is the editing state of one page.
type Session struct {
	mu          sync.Mutex
	page        domain.Page
	store       *tree.Store
	pending     tree.Change
	selectedID  string
	undoID      string
	fingerprint string
}

func (s *Session) dirty() bool { return !s.pending.Empty() }

// EditorService owns the open sessions. It is safe for concurrent use by the
// Wails bindings, the MCP handlers and the autosave scheduler.
type EditorService struct {
	pages    *storage.PageStore
	blocks   *storage.BlockStore
	undos    *storage.UndoStore
	registry *registry.Holder
	renderer *canvas.Renderer
	emitter  EventEmitter
	treeOpts []tree.Option

	guard flushGuard

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewEditorService creates an EditorService. treeOpts are passed to every
// tree store it loads.
func NewEditorService(
	pages *storage.PageStore,
	blocks *storage.BlockStore,
	undos *storage.UndoStore,
	reg *registry.Holder,
	emitter EventEmitter,
	treeOpts ...tree.Option,
) *EditorService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &EditorService{
		pages:    pages,
		blocks:   blocks,
		undos:    undos,
		registry: reg,
		renderer: canvas.New(reg),
		emitter:  emitter,
		treeOpts: treeOpts,
		sessions: make(map[string]*Session),
	}
}

// Registry returns the component registry the editor renders with.
func (s *EditorService) Registry() *registry.Holder { return s.registry }

// ── Sessions ───────────────────────────────────────────────

// Open returns the session of pageID, loading it from storage on first use.
func (s *EditorService) Open(pageID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[pageID]; ok {
		return sess, nil
	}
	sess := &Session{}
	if err := s.load(sess, pageID); err != nil {
		return nil, err
	}
	if err := s.initUndo(sess); err != nil {
		return nil, err
	}
	s.sessions[pageID] = sess
	log.Printf("[BUILDER] opened page %s (%d blocks)", pageID, sess.store.Len())
	return sess, nil
}

// load (re)reads page and blocks into sess. Caller holds sess.mu or owns sess.
func (s *EditorService) load(sess *Session, pageID string) error {
	page, err := s.pages.GetPage(pageID)
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	blocks, err := s.blocks.ListBlocks(pageID)
	if err != nil {
		return fmt.Errorf("load blocks: %w", err)
	}
	store, err := tree.Load(pageID, blocks, s.registry, s.treeOpts...)
	if err != nil {
		return fmt.Errorf("load page %s: %w", pageID, err)
	}
	fp, err := s.blocks.Fingerprint(pageID)
	if err != nil {
		return err
	}
	sess.page = *page
	sess.store = store
	sess.pending = tree.Change{}
	sess.fingerprint = fp
	if sess.selectedID != "" && !store.Has(sess.selectedID) {
		sess.selectedID = ""
	}
	return nil
}

// initUndo resumes the persisted history or starts one at the loaded state.
func (s *EditorService) initUndo(sess *Session) error {
	t, err := s.undos.LoadTree(sess.page.ID)
	if err != nil {
		return err
	}
	if t != nil && t.CurrentID != "" {
		sess.undoID = t.CurrentID
		return nil
	}
	return s.pushUndo(sess, "open")
}

// Close flushes and forgets the session of pageID.
func (s *EditorService) Close(ctx context.Context, pageID string) error {
	if err := s.Flush(ctx, pageID); err != nil {
		return err
	}
	s.Discard(pageID)
	return nil
}

// Discard forgets the session of pageID without flushing.
func (s *EditorService) Discard(pageID string) {
	s.mu.Lock()
	delete(s.sessions, pageID)
	s.mu.Unlock()
}

func (s *EditorService) openSessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// OpenPageIDs lists pages with a live session, sorted.
func (s *EditorService) OpenPageIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ── Reads ──────────────────────────────────────────────────

// State returns the page, its flat block list and the canvas HTML in mode.
func (s *EditorService) State(pageID string, mode canvas.Mode) (*domain.PageState, error) {
	sess, err := s.Open(pageID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	frame := s.renderer.Render(sess.store, canvas.Options{Mode: mode, SelectedID: sess.selectedID})
	return &domain.PageState{
		Page:       sess.page,
		Blocks:     sess.store.Blocks(),
		SelectedID: sess.selectedID,
		Dirty:      sess.dirty(),
		HTML:       string(frame.HTML()),
	}, nil
}

// Render renders the page's canvas frame.
func (s *EditorService) Render(pageID string, mode canvas.Mode) (*canvas.Frame, error) {
	sess, err := s.Open(pageID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.renderer.Render(sess.store, canvas.Options{Mode: mode, SelectedID: sess.selectedID}), nil
}

// RenderHTML renders the page in mode and serializes it.
func (s *EditorService) RenderHTML(pageID string, mode canvas.Mode) (string, error) {
	frame, err := s.Render(pageID, mode)
	if err != nil {
		return "", err
	}
	return string(frame.HTML()), nil
}

// Blocks returns a copy of the page's blocks, parent then sort order.
func (s *EditorService) Blocks(pageID string) ([]domain.Block, error) {
	sess, err := s.Open(pageID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.store.Blocks(), nil
}

// Page returns the session's page metadata.
func (s *EditorService) Page(pageID string) (*domain.Page, error) {
	sess, err := s.Open(pageID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	p := sess.page
	return &p, nil
}

// Dirty reports whether pageID has unflushed edits.
func (s *EditorService) Dirty(pageID string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[pageID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.dirty()
}

// ── Mutations ──────────────────────────────────────────────

// apply runs fn against the page's store under the session lock. A Changed
// outcome is merged into the pending change, recorded in the undo history and
// announced to the frontend.
func (s *EditorService) apply(ctx context.Context, pageID, label string, fn func(sess *Session) (tree.Change, error)) (tree.Change, error) {
	sess, err := s.Open(pageID)
	if err != nil {
		return tree.Change{}, err
	}
	sess.mu.Lock()
	change, err := fn(sess)
	if err != nil || change.Outcome == tree.NoOp {
		sess.mu.Unlock()
		return change, err
	}
	sess.pending = sess.pending.Merge(change)
	if err := s.pushUndo(sess, label); err != nil {
		log.Printf("[BUILDER] undo snapshot for %s failed: %v", pageID, err)
	}
	sess.mu.Unlock()

	s.emitter.Emit(ctx, EventBlocksChanged, pageID)
	return change, nil
}

func (s *EditorService) AddBlock(ctx context.Context, pageID, componentName string, parentID *string, props domain.Props) (tree.Change, error) {
	return s.apply(ctx, pageID, "add "+componentName, func(sess *Session) (tree.Change, error) {
		if props == nil {
			props = s.registry.DefaultProps(componentName)
		}
		return sess.store.AddBlock(componentName, parentID, props)
	})
}

func (s *EditorService) AddBlockToContainer(ctx context.Context, pageID, componentName, containerID string, props domain.Props) (tree.Change, error) {
	return s.AddBlock(ctx, pageID, componentName, &containerID, props)
}

func (s *EditorService) DeleteBlock(ctx context.Context, pageID, blockID string) (tree.Change, error) {
	return s.apply(ctx, pageID, "delete", func(sess *Session) (tree.Change, error) {
		change, err := sess.store.DeleteBlock(blockID)
		if err == nil && sess.selectedID != "" && !sess.store.Has(sess.selectedID) {
			sess.selectedID = ""
		}
		return change, err
	})
}

func (s *EditorService) DuplicateBlock(ctx context.Context, pageID, blockID string) (tree.Change, error) {
	return s.apply(ctx, pageID, "duplicate", func(sess *Session) (tree.Change, error) {
		return sess.store.DuplicateBlock(blockID)
	})
}

func (s *EditorService) MoveBlock(ctx context.Context, pageID, blockID string, dir tree.Direction) (tree.Change, error) {
	return s.apply(ctx, pageID, "move "+dir.String(), func(sess *Session) (tree.Change, error) {
		return sess.store.MoveBlock(blockID, dir)
	})
}

func (s *EditorService) ReparentBlock(ctx context.Context, pageID, blockID string, newParentID *string, newIndex int) (tree.Change, error) {
	return s.apply(ctx, pageID, "reparent", func(sess *Session) (tree.Change, error) {
		return sess.store.ReparentBlock(blockID, newParentID, newIndex)
	})
}

func (s *EditorService) SetVisibility(ctx context.Context, pageID, blockID string, visible bool) (tree.Change, error) {
	label := "hide"
	if visible {
		label = "show"
	}
	return s.apply(ctx, pageID, label, func(sess *Session) (tree.Change, error) {
		return sess.store.UpdateBlockVisibility(blockID, visible)
	})
}

// UpdateProps replaces a block's props after the registry validated them.
func (s *EditorService) UpdateProps(ctx context.Context, pageID, blockID string, props domain.Props) (tree.Change, error) {
	return s.apply(ctx, pageID, "edit props", func(sess *Session) (tree.Change, error) {
		b, ok := sess.store.Block(blockID)
		if _, known := s.registry.Entry(b.ComponentName); ok && known {
			if err := s.registry.ValidateProps(b.ComponentName, props); err != nil {
				return tree.Change{}, err
			}
		}
		return sess.store.UpdateBlockProps(blockID, props)
	})
}

func (s *EditorService) UpdatePresentation(ctx context.Context, pageID, blockID, customCSS, customClasses string) (tree.Change, error) {
	return s.apply(ctx, pageID, "edit style", func(sess *Session) (tree.Change, error) {
		return sess.store.UpdateBlockPresentation(blockID, customCSS, customClasses)
	})
}

// Drop applies a completed drag from the canvas.
func (s *EditorService) Drop(ctx context.Context, pageID string, ev canvas.DropEvent) (tree.Change, error) {
	return s.apply(ctx, pageID, "drag", func(sess *Session) (tree.Change, error) {
		return canvas.Drop(sess.store, ev)
	})
}

// Step applies an up/down quick action from the canvas.
func (s *EditorService) Step(ctx context.Context, pageID string, ev canvas.StepEvent) (tree.Change, error) {
	return s.apply(ctx, pageID, "move "+ev.Direction, func(sess *Session) (tree.Change, error) {
		return canvas.Step(sess.store, ev)
	})
}

// QuickStart adds the first block from the empty-canvas suggestions.
func (s *EditorService) QuickStart(ctx context.Context, pageID, componentName string) (tree.Change, error) {
	return s.apply(ctx, pageID, "add "+componentName, func(sess *Session) (tree.Change, error) {
		return canvas.QuickStart(sess.store, s.registry, componentName)
	})
}

// DropZoneAdd adds a block through an empty container's drop zone.
func (s *EditorService) DropZoneAdd(ctx context.Context, pageID, componentName, containerID string) (tree.Change, error) {
	return s.apply(ctx, pageID, "add "+componentName, func(sess *Session) (tree.Change, error) {
		return canvas.DropZoneAdd(sess.store, s.registry, componentName, containerID)
	})
}

// Select marks blockID as selected ("" clears). Selection is session state
// only; it never dirties the page.
func (s *EditorService) Select(ctx context.Context, pageID, blockID string) error {
	sess, err := s.Open(pageID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	if blockID != "" && !sess.store.Has(blockID) {
		sess.mu.Unlock()
		return fmt.Errorf("select block %s: %w", blockID, tree.ErrBlockNotFound)
	}
	sess.selectedID = blockID
	sess.mu.Unlock()
	s.emitter.Emit(ctx, EventBlocksChanged, pageID)
	return nil
}

// ── Persistence ────────────────────────────────────────────

// Flush writes the pending change of pageID in one transaction. A flush that
// finds another flush of the same page running returns nil at once.
func (s *EditorService) Flush(ctx context.Context, pageID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[pageID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if !s.guard.Begin(pageID) {
		log.Printf("[AUTOSAVE] flush of %s already running", pageID)
		return nil
	}
	defer s.guard.End(pageID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.dirty() {
		return nil
	}
	pending := sess.pending
	if err := s.blocks.ApplyChanges(pageID, pending.Upserted, pending.Deleted); err != nil {
		return fmt.Errorf("flush page %s: %w", pageID, err)
	}
	sess.pending = tree.Change{}
	if fp, err := s.blocks.Fingerprint(pageID); err == nil {
		sess.fingerprint = fp
	}
	log.Printf("[AUTOSAVE] flushed %s: %d upserted, %d deleted", pageID, len(pending.Upserted), len(pending.Deleted))
	s.emitter.Emit(ctx, EventPageSaved, pageID)
	return nil
}

// FlushAll flushes every dirty session.
func (s *EditorService) FlushAll(ctx context.Context) error {
	var errs []error
	for _, id := range s.OpenPageIDs() {
		if err := s.Flush(ctx, id); err != nil {
			log.Printf("[AUTOSAVE] %v", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Shutdown flushes everything and waits for in-flight flushes.
func (s *EditorService) Shutdown(ctx context.Context) error {
	err := s.FlushAll(ctx)
	s.guard.Wait(ctx)
	return err
}

// CheckExternal reloads pageID when another process changed it in storage.
// Sessions with unflushed edits keep their state; the next flush wins.
func (s *EditorService) CheckExternal(ctx context.Context, pageID string) (bool, error) {
	s.mu.Lock()
	sess, ok := s.sessions[pageID]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	sess.mu.Lock()
	if sess.dirty() {
		sess.mu.Unlock()
		return false, nil
	}
	fp, err := s.blocks.Fingerprint(pageID)
	if err != nil {
		sess.mu.Unlock()
		return false, err
	}
	if fp == sess.fingerprint {
		sess.mu.Unlock()
		return false, nil
	}
	err = s.load(sess, pageID)
	sess.mu.Unlock()
	if err != nil {
		return false, err
	}
	log.Printf("[BUILDER] page %s changed externally, reloaded", pageID)
	s.emitter.Emit(ctx, EventPageReloaded, pageID)
	return true, nil
}

// Reload discards unflushed edits and re-reads pageID from storage.
func (s *EditorService) Reload(ctx context.Context, pageID string) error {
	sess, err := s.Open(pageID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	err = s.load(sess, pageID)
	sess.mu.Unlock()
	if err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventPageReloaded, pageID)
	return nil
}

// ── Undo / Redo ────────────────────────────────────────────

func (s *EditorService) pushUndo(sess *Session, label string) error {
	snap, err := json.Marshal(sess.store.Blocks())
	if err != nil {
		return fmt.Errorf("marshal undo snapshot: %w", err)
	}
	node, err := s.undos.PushNode(sess.page.ID, uuid.New().String(), sess.undoID, label, string(snap))
	if err != nil {
		return err
	}
	sess.undoID = node.ID
	return nil
}

// Undo restores the snapshot before the current history node.
func (s *EditorService) Undo(ctx context.Context, pageID string) error {
	return s.travel(ctx, pageID, func(t *storage.UndoTree, current string) (*storage.UndoNode, error) {
		node, ok := t.Node(current)
		if !ok || node.ParentID == nil {
			return nil, ErrNothingToUndo
		}
		parent, ok := t.Node(*node.ParentID)
		if !ok {
			return nil, ErrNothingToUndo
		}
		return parent, nil
	})
}

// Redo moves to the newest child of the current history node.
func (s *EditorService) Redo(ctx context.Context, pageID string) error {
	return s.travel(ctx, pageID, func(t *storage.UndoTree, current string) (*storage.UndoNode, error) {
		child, ok := t.LatestChild(current)
		if !ok {
			return nil, ErrNothingToRedo
		}
		return child, nil
	})
}

// History returns the page's undo tree.
func (s *EditorService) History(pageID string) (*storage.UndoTree, error) {
	return s.undos.LoadTree(pageID)
}

func (s *EditorService) travel(ctx context.Context, pageID string, pick func(*storage.UndoTree, string) (*storage.UndoNode, error)) error {
	sess, err := s.Open(pageID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	t, err := s.undos.LoadTree(pageID)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrNothingToUndo
	}
	target, err := pick(t, sess.undoID)
	if err != nil {
		return err
	}

	var blocks []domain.Block
	if err := json.Unmarshal([]byte(target.SnapshotJSON), &blocks); err != nil {
		return fmt.Errorf("decode undo snapshot: %w", err)
	}
	store, err := tree.Load(pageID, blocks, s.registry, s.treeOpts...)
	if err != nil {
		return fmt.Errorf("restore undo snapshot: %w", err)
	}
	if err := s.blocks.ReplacePageBlocks(pageID, store.Blocks()); err != nil {
		return fmt.Errorf("restore page blocks: %w", err)
	}
	if err := s.undos.GoTo(pageID, target.ID); err != nil {
		return fmt.Errorf("move undo pointer: %w", err)
	}

	sess.store = store
	sess.pending = tree.Change{}
	sess.undoID = target.ID
	if sess.selectedID != "" && !store.Has(sess.selectedID) {
		sess.selectedID = ""
	}
	if fp, err := s.blocks.Fingerprint(pageID); err == nil {
		sess.fingerprint = fp
	}
	log.Printf("[BUILDER] page %s restored to %q", pageID, target.Label)
	s.emitter.Emit(ctx, EventBlocksChanged, pageID)
	return nil
}
