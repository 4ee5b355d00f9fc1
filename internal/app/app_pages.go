package app

// ─────────────────────────────────────────────────────────────
// Page Handlers: thin delegates to PageService / EditorService
// ─────────────────────────────────────────────────────────────

import (
	"log"

	"pagebuilder/internal/canvas"
	"pagebuilder/internal/domain"
)

func (a *App) ListPages() ([]domain.Page, error) {
	return a.stack.Pages.ListPages()
}

func (a *App) CreatePage(title string) (*domain.Page, error) {
	return a.stack.Pages.CreatePage(a.ctx, title, "")
}

func (a *App) RenamePage(id, title string) error {
	return a.stack.Pages.RenamePage(a.ctx, id, title)
}

// SetPageSlug returns the slug actually stored (de-duplicated).
func (a *App) SetPageSlug(id, slug string) (string, error) {
	return a.stack.Pages.SetSlug(a.ctx, id, slug)
}

func (a *App) SetPageStatus(id, status string) error {
	return a.stack.Pages.SetStatus(a.ctx, id, domain.PageStatus(status))
}

func (a *App) DeletePage(id string) error {
	return a.stack.Pages.DeletePage(a.ctx, id)
}

// OpenPage starts (or resumes) an editing session and remembers the page
// for the next launch.
func (a *App) OpenPage(pageID string) (*domain.PageState, error) {
	state, err := a.stack.Editor.State(pageID, canvas.ModeEdit)
	if err != nil {
		return nil, err
	}
	if err := a.stack.Settings.SetLastPage(pageID); err != nil {
		log.Printf("[BUILDER] remember last page: %v", err)
	}
	return state, nil
}

// ClosePage flushes and ends the page's session.
func (a *App) ClosePage(pageID string) error {
	return a.stack.Editor.Close(a.ctx, pageID)
}

// GetPageState renders the page in "edit" or "preview" mode.
func (a *App) GetPageState(pageID, mode string) (*domain.PageState, error) {
	m, err := canvas.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	return a.stack.Editor.State(pageID, m)
}

// ReloadPage discards unsaved edits and re-reads the page.
func (a *App) ReloadPage(pageID string) (*domain.PageState, error) {
	if err := a.stack.Editor.Reload(a.ctx, pageID); err != nil {
		return nil, err
	}
	return a.stack.Editor.State(pageID, canvas.ModeEdit)
}
