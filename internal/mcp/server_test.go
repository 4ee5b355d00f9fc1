package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/registry"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
	"pagebuilder/internal/tree"
)

type testEnv struct {
	srv    *Server
	editor *service.EditorService
	blocks *storage.BlockStore
}

func newTestEnv(t *testing.T, approval *ApprovalQueue) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "pagebuilder.db"), dir)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	n := 0
	ids := tree.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("b%d", n)
	})
	emitter := service.NopEmitter{}
	blocks := storage.NewBlockStore(db)
	undos := storage.NewUndoStore(db, storage.DefaultUndoLimit)
	editor := service.NewEditorService(storage.NewPageStore(db), blocks, undos,
		registry.NewHolder(registry.Builtin()), emitter, ids)
	pages := service.NewPageService(storage.NewPageStore(db), blocks, undos, editor, emitter)

	srv := New(Deps{Emitter: emitter, Editor: editor, Pages: pages, Approval: approval})
	return &testEnv{srv: srv, editor: editor, blocks: blocks}
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) string {
	t.Helper()
	res, err := callErr(handler, args)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func callErr(handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return handler(context.Background(), req)
}

func TestTools_BuildPage(t *testing.T) {
	env := newTestEnv(t, nil)
	s := env.srv

	var page pageSummary
	require.NoError(t, json.Unmarshal([]byte(call(t, s.handleCreatePage, map[string]any{"title": "Launch"})), &page))
	assert.Equal(t, "launch", page.Slug)
	assert.Equal(t, page.ID, s.ActivePage())

	var ch changeSummary
	require.NoError(t, json.Unmarshal([]byte(call(t, s.handleAddBlock, map[string]any{"component": "Section"})), &ch))
	assert.Equal(t, "changed", ch.Outcome)
	assert.Equal(t, "b1", ch.BlockID)

	call(t, s.handleAddBlock, map[string]any{
		"component": "Heading",
		"parentId":  "b1",
		"props":     map[string]any{"text": "Hello", "level": float64(1)},
	})
	call(t, s.handleAddBlock, map[string]any{"component": "Text", "parentId": "b1", "props": `{"text":"Body"}`})

	var roots []*treeNode
	require.NoError(t, json.Unmarshal([]byte(call(t, s.handleGetBlockTree, nil)), &roots))
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "Heading", roots[0].Children[0].Component)

	call(t, s.handleMoveBlock, map[string]any{"blockId": "b3", "direction": "up"})
	require.NoError(t, json.Unmarshal([]byte(call(t, s.handleGetBlockTree, nil)), &roots))
	assert.Equal(t, "b3", roots[0].Children[0].ID)

	html := call(t, s.handleRenderPage, map[string]any{"mode": "preview"})
	assert.Contains(t, html, "Hello")
	assert.NotContains(t, html, "data-block-id")

	call(t, s.handleSavePage, nil)
	stored, err := env.blocks.ListBlocks(page.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestTools_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)
	s := env.srv

	_, err := callErr(s.handleAddBlock, map[string]any{"component": "Text"})
	require.Error(t, err, "no active page")

	call(t, s.handleCreatePage, map[string]any{"title": "Page"})
	call(t, s.handleAddBlock, map[string]any{"component": "Text"})

	_, err = callErr(s.handleAddBlock, map[string]any{"component": "Text", "parentId": "b1"})
	require.Error(t, err, "Text is not a container")

	_, err = callErr(s.handleMoveBlock, map[string]any{"blockId": "b1", "direction": "left"})
	require.Error(t, err)

	_, err = callErr(s.handleUpdateProps, map[string]any{"blockId": "b1", "props": map[string]any{"text": 42.0}})
	require.Error(t, err)

	var ch changeSummary
	require.NoError(t, json.Unmarshal([]byte(call(t, s.handleMoveBlock, map[string]any{"blockId": "b1", "direction": "up"})), &ch))
	assert.Equal(t, "noop", ch.Outcome)
}

func TestTools_PropsStyleAndVisibility(t *testing.T) {
	env := newTestEnv(t, nil)
	s := env.srv
	page := call(t, s.handleCreatePage, map[string]any{"title": "Styled"})
	require.NotEmpty(t, page)
	call(t, s.handleAddBlock, map[string]any{"component": "Text"})

	call(t, s.handleUpdateProps, map[string]any{
		"blockId":   "b1",
		"props":     map[string]any{"text": "Styled text"},
		"customCss": "color:red",
	})
	blocks, err := env.editor.Blocks(s.ActivePage())
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Styled text", blocks[0].Props["text"])
	assert.Equal(t, "color:red", blocks[0].CustomCSS)

	call(t, s.handleSetVisibility, map[string]any{"blockId": "b1", "visible": false})
	html := call(t, s.handleRenderPage, map[string]any{"mode": "preview"})
	assert.NotContains(t, html, "Styled text")

	call(t, s.handleUndo, nil)
	html = call(t, s.handleRenderPage, nil)
	assert.Contains(t, html, "Styled text")
	call(t, s.handleRedo, nil)
	html = call(t, s.handleRenderPage, nil)
	assert.NotContains(t, html, "Styled text")
}

func TestTools_DuplicateAndReparent(t *testing.T) {
	env := newTestEnv(t, nil)
	s := env.srv
	call(t, s.handleCreatePage, map[string]any{"title": "Tree"})
	call(t, s.handleAddBlock, map[string]any{"component": "Section"})
	call(t, s.handleAddBlock, map[string]any{"component": "Text", "parentId": "b1"})
	call(t, s.handleDuplicateBlock, map[string]any{"blockId": "b1"})

	var roots []*treeNode
	require.NoError(t, json.Unmarshal([]byte(call(t, s.handleGetBlockTree, nil)), &roots))
	require.Len(t, roots, 2)
	require.Len(t, roots[1].Children, 1)
	assert.NotEqual(t, "b2", roots[1].Children[0].ID)

	call(t, s.handleReparentBlock, map[string]any{"blockId": "b2", "index": float64(0)})
	require.NoError(t, json.Unmarshal([]byte(call(t, s.handleGetBlockTree, nil)), &roots))
	require.Len(t, roots, 3)
	assert.Equal(t, "b2", roots[0].ID)

	_, err := callErr(s.handleReparentBlock, map[string]any{"blockId": "b1", "parentId": roots[2].ID + "-missing"})
	require.Error(t, err)
}

type approvalEmitter struct {
	actions chan PendingAction
}

func (e *approvalEmitter) Emit(_ context.Context, event string, data any) {
	if a, ok := data.(PendingAction); ok && event == EventApprovalRequired {
		e.actions <- a
	}
}

func TestTools_DeleteNeedsApproval(t *testing.T) {
	em := &approvalEmitter{actions: make(chan PendingAction, 2)}
	queue := NewApprovalQueue(em, time.Second)
	env := newTestEnv(t, queue)
	s := env.srv
	call(t, s.handleCreatePage, map[string]any{"title": "Approve"})
	call(t, s.handleAddBlock, map[string]any{"component": "Text"})

	go func() {
		a := <-em.actions
		queue.Reject(a.ID)
	}()
	_, err := callErr(s.handleDeleteBlock, map[string]any{"blockId": "b1"})
	require.Error(t, err)
	blocks, _ := env.editor.Blocks(s.ActivePage())
	assert.Len(t, blocks, 1)

	go func() {
		a := <-em.actions
		assert.Equal(t, "b1", a.BlockID)
		queue.Approve(a.ID)
	}()
	call(t, s.handleDeleteBlock, map[string]any{"blockId": "b1"})
	blocks, _ = env.editor.Blocks(s.ActivePage())
	assert.Empty(t, blocks)
	assert.Zero(t, queue.Pending())
}

func TestApprovalQueue_Timeout(t *testing.T) {
	q := NewApprovalQueue(service.NopEmitter{}, 20*time.Millisecond)
	err := q.Request(context.Background(), PendingAction{Tool: "delete_block"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Zero(t, q.Pending())
}

func TestListComponents(t *testing.T) {
	env := newTestEnv(t, nil)
	var comps []componentSummary
	require.NoError(t, json.Unmarshal([]byte(call(t, env.srv.handleListComponents, nil)), &comps))
	byName := map[string]componentSummary{}
	for _, c := range comps {
		byName[c.Name] = c
	}
	assert.True(t, byName["Section"].Container)
	assert.False(t, byName["Heading"].Container)
}

func TestPageBlocksResource(t *testing.T) {
	env := newTestEnv(t, nil)
	s := env.srv
	call(t, s.handleCreatePage, map[string]any{"title": "Res"})
	call(t, s.handleAddBlock, map[string]any{"component": "Hero"})

	uri := "builder://page/" + s.ActivePage() + "/blocks"
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	contents, err := s.handlePageBlocksResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, uri, text.URI)
	assert.Contains(t, text.Text, `"component": "Hero"`)

	req.Params.URI = "builder://page//blocks"
	_, err = s.handlePageBlocksResource(context.Background(), req)
	require.Error(t, err)
}

func TestPageIDFromURI(t *testing.T) {
	assert.Equal(t, "abc-123", pageIDFromURI("builder://page/abc-123/blocks"))
	assert.Empty(t, pageIDFromURI("docs://page/abc/blocks"))
	assert.Empty(t, pageIDFromURI("builder://page/a/b/blocks"))
	assert.Empty(t, pageIDFromURI("builder://page/abc"))
}
