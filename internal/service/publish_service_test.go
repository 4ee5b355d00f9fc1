package service_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/publish"
	"pagebuilder/internal/secret"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

func newPublishService(f *fixture, secrets secret.SecretStore) *service.PublishService {
	return service.NewPublishService(
		f.editor, f.pages,
		storage.NewPublishTargetStore(f.db), storage.NewPublishLogStore(f.db),
		secrets, f.dataDir, f.emitter,
	)
}

type failingSink struct{ closed bool }

func (s *failingSink) Test(context.Context) error { return errors.New("unreachable") }
func (s *failingSink) Publish(context.Context, *publish.Document) (*publish.Result, error) {
	return nil, errors.New("connection reset")
}
func (s *failingSink) Close() error { s.closed = true; return nil }

func TestPublishService_TargetValidation(t *testing.T) {
	f := newFixture(t)
	secrets := secret.NewMemoryStore()
	svc := newPublishService(f, secrets)

	_, err := svc.CreateTarget(service.TargetInput{Name: "x", Driver: "oracle"})
	require.Error(t, err)
	_, err = svc.CreateTarget(service.TargetInput{Name: "x", Driver: "postgres", Table: "bad name"})
	require.Error(t, err)
	_, err = svc.CreateTarget(service.TargetInput{Driver: "postgres"})
	require.Error(t, err)

	tgt, err := svc.CreateTarget(service.TargetInput{Name: "prod", Driver: "postgres", Host: "db", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, publish.DefaultTablePrefix, tgt.Table)
	pw, err := secrets.Get(secret.TargetKey(tgt.ID))
	require.NoError(t, err)
	assert.Equal(t, "pw", string(pw))

	byName, err := svc.ResolveTarget("prod")
	require.NoError(t, err)
	assert.Equal(t, tgt.ID, byName.ID)

	require.NoError(t, svc.DeleteTarget(tgt.ID))
	pw, _ = secrets.Get(secret.TargetKey(tgt.ID))
	assert.Empty(t, pw)
	_, err = svc.ResolveTarget("prod")
	require.Error(t, err)
}

func TestPublishService_PublishToSQLite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newPublishService(f, secret.NewMemoryStore())
	p := f.page(t, "Landing Page")

	_, err := f.editor.AddBlock(ctx, p.ID, "Section", nil, nil)
	require.NoError(t, err)
	_, err = f.editor.AddBlockToContainer(ctx, p.ID, "Heading", "b1", nil)
	require.NoError(t, err)
	_, err = f.editor.AddBlockToContainer(ctx, p.ID, "Text", "b1", nil)
	require.NoError(t, err)
	_, err = f.editor.SetVisibility(ctx, p.ID, "b3", false)
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "site.db")
	_, err = svc.CreateTarget(service.TargetInput{Name: "local", Driver: "sqlite", Host: outPath, Table: "site"})
	require.NoError(t, err)
	require.NoError(t, svc.TestTarget(ctx, "local"))

	rec, err := svc.Publish(ctx, p.ID, "local")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Upserted)
	assert.Empty(t, rec.Error)
	assert.False(t, f.editor.Dirty(p.ID), "publish flushes first")

	out, err := sql.Open("sqlite", outPath)
	require.NoError(t, err)
	defer out.Close()
	var html string
	require.NoError(t, out.QueryRow(`SELECT html FROM site_pages WHERE id = ?`, p.ID).Scan(&html))
	assert.Contains(t, html, "pb-heading")
	assert.NotContains(t, html, "Write something...", "hidden blocks stay out of the HTML")
	assert.NotContains(t, html, "data-block-id", "no editor chrome")

	exported, err := os.ReadFile(filepath.Join(f.dataDir, "published", "landing-page.html"))
	require.NoError(t, err)
	assert.Contains(t, string(exported), "<title>Landing Page</title>")
	assert.Contains(t, string(exported), html)

	page, err := f.pages.GetPage(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PageStatusPublished, page.Status)

	hist, err := svc.History(p.ID, 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, 1, f.emitter.Count(service.EventPublished))
}

func TestPublishService_FailureIsLogged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newPublishService(f, secret.NewMemoryStore())
	p := f.page(t, "Broken")

	sink := &failingSink{}
	svc.SetSinkFactory(func(*domain.PublishTarget, string) (publish.Sink, error) { return sink, nil })
	_, err := svc.CreateTarget(service.TargetInput{Name: "remote", Driver: "mysql", Host: "db"})
	require.NoError(t, err)

	rec, err := svc.Publish(ctx, p.ID, "remote")
	require.Error(t, err)
	require.NotNil(t, rec)
	assert.Contains(t, rec.Error, "connection reset")
	assert.True(t, sink.closed)

	hist, err := svc.History(p.ID, 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "connection reset", hist[0].Error)

	page, err := f.pages.GetPage(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PageStatusDraft, page.Status)

	require.Error(t, svc.TestTarget(ctx, "remote"))
}

func TestPublishService_ExportHTML(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newPublishService(f, nil)
	p := f.page(t, "About <us>")

	_, err := f.editor.AddBlock(ctx, p.ID, "Markdown", nil, nil)
	require.NoError(t, err)

	path, err := svc.ExportHTML(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dataDir, "published", "about-us.html"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<title>About &lt;us&gt;</title>")
	assert.Contains(t, string(data), "<h2>New section</h2>")
}
