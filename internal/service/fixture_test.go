package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
	"pagebuilder/internal/tree"
)

type fixture struct {
	db      *storage.DB
	dataDir string
	blocks  *storage.BlockStore
	undos   *storage.UndoStore
	pages   *service.PageService
	editor  *service.EditorService
	emitter *service.MockEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "pagebuilder.db"), dir)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:      db,
		dataDir: dir,
		blocks:  storage.NewBlockStore(db),
		undos:   storage.NewUndoStore(db, storage.DefaultUndoLimit),
		emitter: &service.MockEmitter{},
	}
	f.editor = newEditor(f, "b")
	f.pages = service.NewPageService(storage.NewPageStore(db), f.blocks, f.undos, f.editor, f.emitter)
	return f
}

// newEditor builds an editor over the fixture's database whose block ids are
// prefix1, prefix2, ...
func newEditor(f *fixture, prefix string) *service.EditorService {
	n := 0
	ids := tree.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	})
	return service.NewEditorService(
		storage.NewPageStore(f.db), f.blocks, f.undos,
		registry.NewHolder(registry.Builtin()), f.emitter, ids,
	)
}

func (f *fixture) page(t *testing.T, title string) *domain.Page {
	t.Helper()
	p, err := f.pages.CreatePage(context.Background(), title, "")
	require.NoError(t, err)
	return p
}

func ptr(s string) *string { return &s }

func rootNames(blocks []domain.Block) []string {
	var out []string
	for _, b := range blocks {
		if b.ParentBlockID == nil {
			out = append(out, b.ID)
		}
	}
	return out
}
