package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":        "hello-world",
		"  About   us!  ":    "about-us",
		"Café & Bar":         "café-bar",
		"2024 Launch -- v2":  "2024-launch-v2",
		"!!!":                "page",
		"already-slugged-up": "already-slugged-up",
	}
	for in, want := range cases {
		assert.Equal(t, want, service.Slugify(in), in)
	}
}

func TestPageService_CreateListRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.pages.CreatePage(ctx, "Hello World", "")
	require.NoError(t, err)
	b, err := f.pages.CreatePage(ctx, "Hello, world", "")
	require.NoError(t, err)
	assert.Equal(t, "hello-world", a.Slug)
	assert.Equal(t, "hello-world-2", b.Slug)
	assert.Equal(t, domain.PageStatusDraft, a.Status)
	assert.Less(t, a.Order, b.Order)

	_, err = f.pages.CreatePage(ctx, "   ", "")
	require.Error(t, err)

	require.NoError(t, f.pages.RenamePage(ctx, a.ID, "Welcome"))
	got, err := f.pages.GetPage(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", got.Title)
	assert.Equal(t, "hello-world", got.Slug, "rename keeps the slug")

	slug, err := f.pages.SetSlug(ctx, b.ID, "Hello World")
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", slug)
	slug, err = f.pages.SetSlug(ctx, a.ID, "Hello World")
	require.NoError(t, err)
	assert.Equal(t, "hello-world", slug, "a page keeps its own slug")

	pages, err := f.pages.ListPages()
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, a.ID, pages[0].ID)

	assert.Equal(t, 5, f.emitter.Count(service.EventPagesChanged))
}

func TestPageService_SetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.page(t, "Launch")

	require.Error(t, f.pages.SetStatus(ctx, p.ID, "archived"))

	require.NoError(t, f.pages.SetStatus(ctx, p.ID, domain.PageStatusPublished))
	got, err := f.pages.GetPage(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PageStatusPublished, got.Status)
	require.NotNil(t, got.PublishedAt)
}

func TestPageService_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.page(t, "Doomed")
	keep := f.page(t, "Keeper")

	_, err := f.editor.AddBlock(ctx, p.ID, "Section", nil, nil)
	require.NoError(t, err)
	_, err = f.editor.AddBlockToContainer(ctx, p.ID, "Text", "b1", nil)
	require.NoError(t, err)
	_, err = f.editor.AddBlock(ctx, keep.ID, "Hero", nil, nil)
	require.NoError(t, err)
	require.NoError(t, f.editor.FlushAll(ctx))

	require.NoError(t, f.pages.DeletePage(ctx, p.ID))

	_, err = f.pages.GetPage(p.ID)
	require.Error(t, err)
	blocks, err := f.blocks.ListBlocks(p.ID)
	require.NoError(t, err)
	assert.Empty(t, blocks)
	hist, err := f.undos.LoadTree(p.ID)
	require.NoError(t, err)
	assert.Nil(t, hist)
	assert.NotContains(t, f.editor.OpenPageIDs(), p.ID)

	blocks, err = f.blocks.ListBlocks(keep.ID)
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestSettingsService(t *testing.T) {
	f := newFixture(t)
	s := service.NewSettingsService(storage.NewSettingsStore(f.db))

	assert.Equal(t, service.WindowSize{Width: 1280, Height: 800}, s.LoadWindowSize())

	require.NoError(t, s.SaveWindowSize(1440, 900))
	assert.Equal(t, service.WindowSize{Width: 1440, Height: 900}, s.LoadWindowSize())

	require.NoError(t, s.SaveWindowSize(300, 200))
	assert.Equal(t, service.WindowSize{Width: 1280, Height: 800}, s.LoadWindowSize())

	assert.Empty(t, s.LastPage())
	require.NoError(t, s.SetLastPage("p1"))
	assert.Equal(t, "p1", s.LastPage())

	var nilSvc *service.SettingsService
	assert.Equal(t, 1280, nilSvc.LoadWindowSize().Width)
}

func TestPageService_ResolvePage(t *testing.T) {
	f := newFixture(t)
	p := f.page(t, "Pricing Plans")

	byID, err := f.pages.ResolvePage(p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byID.ID)

	bySlug, err := f.pages.ResolvePage("pricing-plans")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySlug.ID)

	_, err = f.pages.ResolvePage("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
