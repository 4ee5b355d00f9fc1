package app

// ─────────────────────────────────────────────────────────────
// Publish Handlers: targets, pushes and static export
// ─────────────────────────────────────────────────────────────

import (
	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
)

func (a *App) ListPublishTargets() ([]TargetView, error) {
	targets, err := a.stack.Publish.ListTargets()
	if err != nil {
		return nil, err
	}
	views := make([]TargetView, len(targets))
	for i, t := range targets {
		views[i] = NewTargetView(t)
	}
	return views, nil
}

func (a *App) CreatePublishTarget(input service.TargetInput) (*TargetView, error) {
	t, err := a.stack.Publish.CreateTarget(input)
	if err != nil {
		return nil, err
	}
	v := NewTargetView(*t)
	return &v, nil
}

// UpdatePublishTarget keeps the stored password when input.Password is empty.
func (a *App) UpdatePublishTarget(id string, input service.TargetInput) error {
	return a.stack.Publish.UpdateTarget(id, input)
}

func (a *App) DeletePublishTarget(id string) error {
	return a.stack.Publish.DeleteTarget(id)
}

func (a *App) TestPublishTarget(id string) error {
	return a.stack.Publish.TestTarget(a.ctx, id)
}

// PublishPage saves pageID and pushes it to target. A failed push still
// returns the logged record next to the error.
func (a *App) PublishPage(pageID, target string) (*domain.PublishRecord, error) {
	return a.stack.Publish.Publish(a.ctx, pageID, target)
}

// ExportPageHTML writes the standalone HTML file and returns its path.
func (a *App) ExportPageHTML(pageID string) (string, error) {
	return a.stack.Publish.ExportHTML(a.ctx, pageID)
}

func (a *App) PublishHistory(pageID string) ([]domain.PublishRecord, error) {
	return a.stack.Publish.History(pageID, 50)
}
