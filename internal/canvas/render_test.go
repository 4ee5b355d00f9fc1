package canvas_test

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/canvas"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
	"pagebuilder/internal/tree"
)

func newStore(t *testing.T) *tree.Store {
	t.Helper()
	n := 0
	return tree.New("page-1", registry.Builtin(), tree.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("b%d", n)
	}))
}

func add(t *testing.T, s *tree.Store, name, parent string, props domain.Props) string {
	t.Helper()
	ch, err := s.AddBlock(name, domain.StringPtr(parent), props)
	require.NoError(t, err)
	return ch.Affected
}

func render(s canvas.View, mode canvas.Mode) *canvas.Frame {
	return canvas.New(registry.Builtin()).Render(s, canvas.Options{Mode: mode})
}

func findNode(f *canvas.Frame, id string) *canvas.Node {
	var found *canvas.Node
	f.Walk(func(n *canvas.Node, _ int) bool {
		if n.BlockID == id && n.Kind != canvas.KindDropZone {
			found = n
		}
		return found == nil
	})
	return found
}

func leafContent(f *canvas.Frame) []string {
	var out []string
	f.Walk(func(n *canvas.Node, _ int) bool {
		if n.Kind == canvas.KindBlock && !n.Container {
			out = append(out, string(n.Content))
		}
		return true
	})
	sort.Strings(out)
	return out
}

// samplePage builds Hero, Section(Heading, Columns(Column(Text), Column(Button))), Divider.
func samplePage(t *testing.T) *tree.Store {
	s := newStore(t)
	add(t, s, "Hero", "", domain.Props{"title": "Welcome"})
	sec := add(t, s, "Section", "", nil)
	add(t, s, "Heading", sec, domain.Props{"text": "Features", "level": float64(2)})
	cols := add(t, s, "Columns", sec, nil)
	c1 := add(t, s, "Column", cols, nil)
	add(t, s, "Text", c1, domain.Props{"text": "Fast"})
	c2 := add(t, s, "Column", cols, nil)
	add(t, s, "Button", c2, domain.Props{"label": "Go", "href": "/start"})
	add(t, s, "Divider", "", nil)
	return s
}

func TestRender_FollowsSortOrder(t *testing.T) {
	s := samplePage(t)
	f := render(s, canvas.ModeEdit)
	require.Len(t, f.Nodes, 3)
	assert.Equal(t, "Hero", f.Nodes[0].Component)
	assert.Equal(t, "Section", f.Nodes[1].Component)
	assert.Equal(t, "Divider", f.Nodes[2].Component)

	assert.False(t, f.Nodes[0].CanMoveUp)
	assert.True(t, f.Nodes[0].CanMoveDown)
	assert.True(t, f.Nodes[2].CanMoveUp)
	assert.False(t, f.Nodes[2].CanMoveDown)

	sec := f.Nodes[1]
	require.Len(t, sec.Children, 2)
	assert.Equal(t, "Heading", sec.Children[0].Component)
	assert.Equal(t, "Columns", sec.Children[1].Component)
}

func TestRender_PreviewLeafContentMatchesEdit(t *testing.T) {
	s := samplePage(t)
	edit := leafContent(render(s, canvas.ModeEdit))
	preview := leafContent(render(s, canvas.ModePreview))
	assert.NotEmpty(t, edit)
	assert.Equal(t, edit, preview)
}

func TestRender_PreviewHasNoChrome(t *testing.T) {
	s := samplePage(t)
	_, err := s.AddBlock("Section", nil, nil) // empty container
	require.NoError(t, err)

	html := string(render(s, canvas.ModePreview).HTML())
	for _, marker := range []string{"pb-chrome", "data-block-id", "pb-drop-zone", "pb-drop-region", "draggable", "pb-editable"} {
		assert.NotContains(t, html, marker)
	}
	assert.Contains(t, html, `<h1>Welcome</h1>`)
	assert.Contains(t, html, `<p class="pb-text">Fast</p>`)
}

func TestRender_EditChrome(t *testing.T) {
	s := samplePage(t)
	f := canvas.New(registry.Builtin()).Render(s, canvas.Options{Mode: canvas.ModeEdit, SelectedID: "b1"})
	html := string(f.HTML())

	assert.True(t, f.Nodes[0].Selected)
	assert.Contains(t, html, `class="pb-block pb-editable pb-selected"`)
	assert.Contains(t, html, `data-block-id="b1"`)
	assert.Contains(t, html, `<span class="pb-label">Hero</span>`)
	assert.Contains(t, html, `data-action="move-up" title="Move up" disabled`)
	assert.Contains(t, html, `<div class="pb-drop-region" data-container-id="b2">`)
}

func TestRender_HiddenBlocks(t *testing.T) {
	s := samplePage(t)
	// Hide a root, a mid-level container and a deep leaf.
	for _, id := range []string{"b1", "b5", "b8"} {
		_, err := s.UpdateBlockVisibility(id, false)
		require.NoError(t, err)
	}

	preview := render(s, canvas.ModePreview)
	for _, id := range []string{"b1", "b5", "b6", "b8"} {
		assert.Nil(t, findNode(preview, id), "hidden block %s (or its subtree) rendered in preview", id)
	}
	html := string(preview.HTML())
	assert.NotContains(t, html, "Welcome")
	assert.NotContains(t, html, "Fast")
	assert.NotContains(t, html, ">Go<")
	assert.Contains(t, html, "Features")

	edit := render(s, canvas.ModeEdit)
	hero := findNode(edit, "b1")
	require.NotNil(t, hero)
	assert.True(t, hero.Hidden)
	editHTML := string(edit.HTML())
	assert.Contains(t, editHTML, "Hero (Hidden)")
	assert.Contains(t, editHTML, "opacity:0.4")
	assert.Contains(t, editHTML, "Fast")
}

func TestRender_UnknownComponentIsIsolated(t *testing.T) {
	blocks := []domain.Block{
		{ID: "a", ComponentName: "Heading", SortOrder: 1, IsVisible: true, Props: domain.Props{"text": "Before"}},
		{ID: "b", ComponentName: "Carousel", SortOrder: 2, IsVisible: true},
		{ID: "c", ComponentName: "Text", SortOrder: 3, IsVisible: true, Props: domain.Props{"text": "After"}},
	}
	s, err := tree.Load("p", blocks, registry.Builtin())
	require.NoError(t, err)

	for _, mode := range []canvas.Mode{canvas.ModeEdit, canvas.ModePreview} {
		f := render(s, mode)
		require.Len(t, f.Nodes, 3)
		assert.Equal(t, canvas.KindBlock, f.Nodes[0].Kind)
		assert.Equal(t, canvas.KindPlaceholder, f.Nodes[1].Kind)
		assert.Contains(t, f.Nodes[1].Error, "Carousel")
		assert.Equal(t, canvas.KindBlock, f.Nodes[2].Kind)
		html := string(f.HTML())
		assert.Contains(t, html, "Before")
		assert.Contains(t, html, "After")
		assert.Contains(t, html, "pb-placeholder")
	}
}

func TestRender_PanickingComponentIsIsolated(t *testing.T) {
	entries := append(registry.BuiltinEntries(), registry.Entry{
		Name: "Boom",
		Render: func(registry.RenderContext, domain.Props, template.HTML) (template.HTML, error) {
			panic("kaboom")
		},
	})
	reg := registry.New(entries...)
	s := tree.New("p", reg)
	_, err := s.AddBlock("Boom", nil, nil)
	require.NoError(t, err)
	_, err = s.AddBlock("Text", nil, domain.Props{"text": "still here"})
	require.NoError(t, err)

	f := canvas.New(reg).Render(s, canvas.Options{Mode: canvas.ModeEdit})
	require.Len(t, f.Nodes, 2)
	assert.Equal(t, canvas.KindPlaceholder, f.Nodes[0].Kind)
	assert.Contains(t, f.Nodes[0].Error, "kaboom")
	assert.Contains(t, string(f.HTML()), "still here")
}

func TestRender_RendererErrorBecomesPlaceholder(t *testing.T) {
	s := newStore(t)
	add(t, s, "Image", "", nil)
	f := render(s, canvas.ModeEdit)
	require.Len(t, f.Nodes, 1)
	assert.Equal(t, canvas.KindPlaceholder, f.Nodes[0].Kind)
	assert.Contains(t, f.Nodes[0].Error, "src is required")
	// Placeholders keep their chrome so the block can still be deleted.
	assert.Contains(t, string(f.HTML()), `data-action="delete"`)
}

func TestRender_EmptyContainerGetsDropZone(t *testing.T) {
	s := newStore(t)
	x := add(t, s, "Section", "", nil)

	edit := render(s, canvas.ModeEdit)
	require.Len(t, edit.Nodes, 1)
	require.Len(t, edit.Nodes[0].Children, 1)
	zone := edit.Nodes[0].Children[0]
	assert.Equal(t, canvas.KindDropZone, zone.Kind)
	assert.Equal(t, x, zone.BlockID)
	assert.Contains(t, string(edit.HTML()), `<div class="pb-drop-zone" data-action="drop-zone-add" data-container-id="`+x+`">Add block here</div>`)

	preview := render(s, canvas.ModePreview)
	require.Len(t, preview.Nodes, 1)
	assert.Empty(t, preview.Nodes[0].Children)
}

func TestRender_EmptyCanvas(t *testing.T) {
	s := newStore(t)

	edit := render(s, canvas.ModeEdit)
	require.Len(t, edit.Nodes, 1)
	empty := edit.Nodes[0]
	assert.Equal(t, canvas.KindEmptyCanvas, empty.Kind)
	var names []string
	for _, sg := range empty.Suggestions {
		names = append(names, sg.Name)
	}
	assert.Equal(t, canvas.DefaultSuggestions, names)
	assert.Contains(t, string(edit.HTML()), `data-action="quick-start" data-component="Hero"`)

	preview := render(s, canvas.ModePreview)
	assert.Empty(t, preview.Nodes)
	assert.Equal(t, "", string(preview.HTML()))
}

func TestRender_EmptyCanvasSkipsUnknownSuggestions(t *testing.T) {
	f := canvas.New(registry.Builtin()).Render(newStore(t), canvas.Options{
		Mode:        canvas.ModeEdit,
		Suggestions: []string{"Text", "Nope"},
	})
	require.Len(t, f.Nodes[0].Suggestions, 1)
	assert.Equal(t, "Text", f.Nodes[0].Suggestions[0].Name)
}

func TestRender_StylesStayPerBlock(t *testing.T) {
	s := newStore(t)
	sec := add(t, s, "Section", "", domain.Props{
		domain.PropStyles: map[string]any{"glass": map[string]any{"blur": float64(8)}},
	})
	child := add(t, s, "Text", sec, domain.Props{"text": "plain"})
	_, err := s.UpdateBlockPresentation(child, "color: red", "")
	require.NoError(t, err)

	f := render(s, canvas.ModePreview)
	parent := findNode(f, sec)
	leaf := findNode(f, child)
	require.NotNil(t, parent)
	require.NotNil(t, leaf)

	blur, ok := parent.Style.Base.Get("backdrop-filter")
	assert.True(t, ok)
	assert.Equal(t, "blur(8px)", blur)
	_, ok = parent.Style.Base.Get("color")
	assert.False(t, ok)

	_, ok = leaf.Style.Base.Get("backdrop-filter")
	assert.False(t, ok)
	color, _ := leaf.Style.Base.Get("color")
	assert.Equal(t, "red", color)
}

func TestWriteHTML_HoverRules(t *testing.T) {
	s := newStore(t)
	id := add(t, s, "Text", "", domain.Props{
		"text":           "lift me",
		domain.PropMotion: map[string]any{"hoverLift": float64(4)},
	})

	html := string(render(s, canvas.ModePreview).HTML())
	require.True(t, strings.HasPrefix(html, `<style data-pb-hover>`))
	assert.Contains(t, html, `#pb-`+id+`:hover{transform:translateY(-4px)}`)
	assert.Contains(t, html, `transition:transform 300ms ease-out, opacity 300ms ease-out`)
}

func TestWriteHTML_CustomClassesAndEscaping(t *testing.T) {
	s := newStore(t)
	id := add(t, s, "Text", "", domain.Props{"text": "<b>x</b>"})
	_, err := s.UpdateBlockPresentation(id, "", "hero  wide")
	require.NoError(t, err)

	html := string(render(s, canvas.ModePreview).HTML())
	assert.Contains(t, html, `class="pb-block hero wide"`)
	assert.Contains(t, html, `&lt;b&gt;x&lt;/b&gt;`)
}

func TestListView_MatchesStore(t *testing.T) {
	s := samplePage(t)
	blocks := s.Blocks()
	// Reverse so ListView has to do the ordering itself.
	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
	lv := canvas.ListView(blocks)

	for _, mode := range []canvas.Mode{canvas.ModeEdit, canvas.ModePreview} {
		assert.Equal(t, string(render(s, mode).HTML()), string(render(lv, mode).HTML()))
	}
	assert.True(t, lv.CanMoveUp("b9"))
	assert.False(t, lv.CanMoveDown("b9"))
	assert.False(t, lv.CanMoveUp("missing"))
}

func TestParseMode(t *testing.T) {
	m, err := canvas.ParseMode("Preview")
	require.NoError(t, err)
	assert.Equal(t, canvas.ModePreview, m)
	m, err = canvas.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, canvas.ModeEdit, m)
	_, err = canvas.ParseMode("print")
	assert.Error(t, err)
}

func TestRender_UnknownContainerKeepsChildrenInEditMode(t *testing.T) {
	blocks := []domain.Block{
		{ID: "c1", ComponentName: "PromoBanner", SortOrder: 1, IsVisible: true},
		{ID: "l1", ComponentName: "Heading", ParentBlockID: domain.StringPtr("c1"), SortOrder: 1, IsVisible: true,
			Props: domain.Props{"text": "Inside"}},
		{ID: "h2", ComponentName: "Heading", SortOrder: 2, IsVisible: true, Props: domain.Props{"text": "Outside"}},
	}
	s, err := tree.Load("p", blocks, registry.Builtin())
	require.NoError(t, err)

	edit := render(s, canvas.ModeEdit)
	require.Len(t, edit.Nodes, 2)
	banner := edit.Nodes[0]
	assert.Equal(t, canvas.KindPlaceholder, banner.Kind)
	require.Len(t, banner.Children, 1)
	assert.Equal(t, "l1", banner.Children[0].BlockID)
	html := string(edit.HTML())
	assert.Contains(t, html, `data-block-id="l1"`)
	assert.Contains(t, html, "Inside")

	preview := string(render(s, canvas.ModePreview).HTML())
	assert.NotContains(t, preview, "Inside")
	assert.Contains(t, preview, "Outside")
}

func TestRender_DeepNesting(t *testing.T) {
	s := newStore(t)
	parent := ""
	for i := 0; i < 70; i++ {
		parent = add(t, s, "Container", parent, nil)
	}
	add(t, s, "Text", parent, domain.Props{"text": "bottom"})

	f := render(s, canvas.ModePreview)
	blocks, deepest := 0, 0
	f.Walk(func(n *canvas.Node, depth int) bool {
		assert.Equal(t, canvas.KindBlock, n.Kind, "block %s: %s", n.BlockID, n.Error)
		blocks++
		if depth > deepest {
			deepest = depth
		}
		return true
	})
	assert.Equal(t, 71, blocks)
	assert.Equal(t, 70, deepest)
	assert.Contains(t, string(f.HTML()), "bottom")
}

func TestRender_RepeatedIDInListViewTerminates(t *testing.T) {
	lv := canvas.ListView{
		{ID: "a", ComponentName: "Section", SortOrder: 1, IsVisible: true},
		{ID: "a", ComponentName: "Section", ParentBlockID: domain.StringPtr("a"), SortOrder: 1, IsVisible: true},
	}
	f := render(lv, canvas.ModeEdit)
	placeholders := 0
	f.Walk(func(n *canvas.Node, _ int) bool {
		if n.Kind == canvas.KindPlaceholder {
			placeholders++
		}
		return true
	})
	assert.Equal(t, 1, placeholders)
}

func TestWriteHTML_ElementIDsStayDistinct(t *testing.T) {
	lift := domain.Props{"text": "x", domain.PropMotion: map[string]any{"hoverLift": float64(2)}}
	lv := canvas.ListView{
		{ID: "a.b", ComponentName: "Text", SortOrder: 1, IsVisible: true, Props: lift},
		{ID: "ab", ComponentName: "Text", SortOrder: 2, IsVisible: true, Props: lift},
		{ID: "a_2e_b", ComponentName: "Text", SortOrder: 3, IsVisible: true, Props: lift},
	}
	html := string(render(lv, canvas.ModePreview).HTML())
	assert.Contains(t, html, `id="pb-a_2e_b"`)
	assert.Contains(t, html, `id="pb-ab"`)
	assert.Contains(t, html, `id="pb-a_5f_2e_5f_b"`)
	assert.Contains(t, html, `#pb-a_2e_b:hover{`)
	assert.Contains(t, html, `#pb-ab:hover{`)
}
