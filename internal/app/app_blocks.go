package app

// ─────────────────────────────────────────────────────────────
// Block Handlers: canvas interactions routed to the EditorService
// ─────────────────────────────────────────────────────────────

import (
	"pagebuilder/internal/canvas"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/storage"
	"pagebuilder/internal/tree"
)

// changed wraps a mutation result with the refreshed edit-mode state.
func (a *App) changed(pageID string, c tree.Change, err error) (*ChangeView, error) {
	if err != nil {
		return nil, err
	}
	state, err := a.stack.Editor.State(pageID, canvas.ModeEdit)
	if err != nil {
		return nil, err
	}
	return &ChangeView{Outcome: c.Outcome.String(), BlockID: c.Affected, State: state}, nil
}

// ListComponents returns the palette, sorted by category then name.
func (a *App) ListComponents() []ComponentView {
	entries := a.stack.Registry.List()
	out := make([]ComponentView, 0, len(entries))
	for _, e := range entries {
		out = append(out, ComponentView{
			Name:         e.Name,
			DisplayName:  e.Label(),
			Category:     e.Category,
			Icon:         e.Icon,
			Container:    e.Container,
			DefaultProps: e.DefaultProps,
			Props:        e.Props,
		})
	}
	return out
}

// AddBlock appends component under parentID ("" for the page root).
func (a *App) AddBlock(pageID, component, parentID string) (*ChangeView, error) {
	c, err := a.stack.Editor.AddBlock(a.ctx, pageID, component, domain.StringPtr(parentID), nil)
	return a.changed(pageID, c, err)
}

func (a *App) DeleteBlock(pageID, blockID string) (*ChangeView, error) {
	c, err := a.stack.Editor.DeleteBlock(a.ctx, pageID, blockID)
	return a.changed(pageID, c, err)
}

func (a *App) DuplicateBlock(pageID, blockID string) (*ChangeView, error) {
	c, err := a.stack.Editor.DuplicateBlock(a.ctx, pageID, blockID)
	return a.changed(pageID, c, err)
}

func (a *App) ReparentBlock(pageID, blockID, parentID string, index int) (*ChangeView, error) {
	c, err := a.stack.Editor.ReparentBlock(a.ctx, pageID, blockID, domain.StringPtr(parentID), index)
	return a.changed(pageID, c, err)
}

func (a *App) SetBlockVisibility(pageID, blockID string, visible bool) (*ChangeView, error) {
	c, err := a.stack.Editor.SetVisibility(a.ctx, pageID, blockID, visible)
	return a.changed(pageID, c, err)
}

func (a *App) UpdateBlockProps(pageID, blockID string, props domain.Props) (*ChangeView, error) {
	c, err := a.stack.Editor.UpdateProps(a.ctx, pageID, blockID, props)
	return a.changed(pageID, c, err)
}

func (a *App) UpdateBlockStyle(pageID, blockID, customCSS, customClasses string) (*ChangeView, error) {
	c, err := a.stack.Editor.UpdatePresentation(a.ctx, pageID, blockID, customCSS, customClasses)
	return a.changed(pageID, c, err)
}

// ── Canvas events ──────────────────────────────────────────

// DropBlock applies a finished drag.
func (a *App) DropBlock(pageID string, ev canvas.DropEvent) (*ChangeView, error) {
	c, err := a.stack.Editor.Drop(a.ctx, pageID, ev)
	return a.changed(pageID, c, err)
}

// StepBlock applies an up/down quick action.
func (a *App) StepBlock(pageID string, ev canvas.StepEvent) (*ChangeView, error) {
	c, err := a.stack.Editor.Step(a.ctx, pageID, ev)
	return a.changed(pageID, c, err)
}

// QuickStart adds the first block from the empty-canvas suggestions.
func (a *App) QuickStart(pageID, component string) (*ChangeView, error) {
	c, err := a.stack.Editor.QuickStart(a.ctx, pageID, component)
	return a.changed(pageID, c, err)
}

// DropZoneAdd fills an empty container through its drop zone.
func (a *App) DropZoneAdd(pageID, component, containerID string) (*ChangeView, error) {
	c, err := a.stack.Editor.DropZoneAdd(a.ctx, pageID, component, containerID)
	return a.changed(pageID, c, err)
}

func (a *App) SelectBlock(pageID, blockID string) error {
	return a.stack.Editor.Select(a.ctx, pageID, blockID)
}

// ── Save / Undo ────────────────────────────────────────────

func (a *App) SavePage(pageID string) error {
	return a.stack.Editor.Flush(a.ctx, pageID)
}

func (a *App) Undo(pageID string) (*domain.PageState, error) {
	if err := a.stack.Editor.Undo(a.ctx, pageID); err != nil {
		return nil, err
	}
	return a.stack.Editor.State(pageID, canvas.ModeEdit)
}

func (a *App) Redo(pageID string) (*domain.PageState, error) {
	if err := a.stack.Editor.Redo(a.ctx, pageID); err != nil {
		return nil, err
	}
	return a.stack.Editor.State(pageID, canvas.ModeEdit)
}

func (a *App) LoadUndoTree(pageID string) (*storage.UndoTree, error) {
	return a.stack.Editor.History(pageID)
}
