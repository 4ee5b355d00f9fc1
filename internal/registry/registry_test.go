package registry_test

import (
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
)

func TestBuiltin_ContainerCapability(t *testing.T) {
	r := registry.Builtin()

	for _, name := range []string{"Section", "Container", "Columns", "Column", "Grid", "Card"} {
		assert.True(t, r.SupportsChildren(name), "%s should accept children", name)
	}
	for _, name := range []string{"Heading", "Text", "Markdown", "Image", "Button", "Spacer", "Divider", "Embed", "Hero"} {
		assert.False(t, r.SupportsChildren(name), "%s should not accept children", name)
	}
	assert.False(t, r.SupportsChildren("NoSuchThing"))
	assert.False(t, r.Registered("NoSuchThing"))
	assert.True(t, r.Registered("Heading"))
	assert.True(t, registry.NewHolder(r).Registered("Section"))
}

func TestComponent_UnknownIsRecoverable(t *testing.T) {
	r := registry.Builtin()

	render, ok := r.Component("NoSuchThing")
	assert.False(t, ok)
	assert.Nil(t, render)

	_, ok = r.Entry("NoSuchThing")
	assert.False(t, ok)
	assert.Equal(t, "NoSuchThing", r.DisplayName("NoSuchThing"))
}

func TestRegister_DuplicatePanics(t *testing.T) {
	r := registry.Builtin()
	assert.Panics(t, func() {
		r.Register(registry.BuiltinEntries()[0])
	})
}

func TestList_SortedByCategoryThenLabel(t *testing.T) {
	entries := registry.Builtin().List()
	require.NotEmpty(t, entries)
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if prev.Category == cur.Category {
			assert.LessOrEqual(t, prev.Label(), cur.Label())
		} else {
			assert.Less(t, prev.Category, cur.Category)
		}
	}
}

func TestDefaultProps_ReturnsCopy(t *testing.T) {
	r := registry.Builtin()
	p := r.DefaultProps("Heading")
	p["text"] = "changed"
	assert.Equal(t, "Heading", r.DefaultProps("Heading")["text"])
}

func TestValidateProps(t *testing.T) {
	r := registry.Builtin()

	require.NoError(t, r.ValidateProps("Heading", domain.Props{"text": "Hi", "level": float64(1)}))

	err := r.ValidateProps("Heading", domain.Props{"level": "one"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrInvalidProps))
	assert.Contains(t, err.Error(), `missing required prop "text"`)
	assert.Contains(t, err.Error(), `prop "level" must be number`)

	assert.Error(t, r.ValidateProps("Nope", domain.Props{}))
}

func TestRender_EscapesText(t *testing.T) {
	render, ok := registry.Builtin().Component("Text")
	require.True(t, ok)
	out, err := render(registry.RenderContext{}, domain.Props{"text": "<script>x</script>"}, "")
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>")
	assert.Contains(t, string(out), "&lt;script&gt;")
}

func TestRender_HeadingLevelClamped(t *testing.T) {
	render, _ := registry.Builtin().Component("Heading")
	out, err := render(registry.RenderContext{}, domain.Props{"text": "T", "level": float64(9)}, "")
	require.NoError(t, err)
	assert.Equal(t, template.HTML(`<h2 class="pb-heading">T</h2>`), out)
}

func TestRender_ButtonRejectsJavascriptURL(t *testing.T) {
	render, _ := registry.Builtin().Component("Button")
	out, err := render(registry.RenderContext{}, domain.Props{"label": "Go", "href": "javascript:alert(1)"}, "")
	require.NoError(t, err)
	assert.Contains(t, string(out), `href="#"`)
}

func TestRender_Markdown(t *testing.T) {
	render, _ := registry.Builtin().Component("Markdown")
	out, err := render(registry.RenderContext{}, domain.Props{"source": "# Title\n\nsome *text*"}, "")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1>Title</h1>")
	assert.Contains(t, string(out), "<em>text</em>")
}

func TestRender_ImageWithoutSrcFails(t *testing.T) {
	render, _ := registry.Builtin().Component("Image")
	_, err := render(registry.RenderContext{}, domain.Props{}, "")
	assert.Error(t, err)
}

func TestRender_ContainerWrapsChildren(t *testing.T) {
	render, _ := registry.Builtin().Component("Card")
	out, err := render(registry.RenderContext{}, domain.Props{"title": "Plans"}, template.HTML("<p>child</p>"))
	require.NoError(t, err)
	assert.Equal(t, `<div class="pb-card"><h3 class="pb-card-title">Plans</h3><p>child</p></div>`, string(out))
}

// ─────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────

const testCatalog = `
components:
  - name: Testimonial
    display_name: Customer Quote
    icon: quote
    template: '<blockquote class="quote">{{.Props.quote}}</blockquote>'
    defaults:
      quote: Great product
    props:
      - name: quote
        kind: string
        required: true
  - name: Stack
    container: true
    category: Layout
    template: '<div class="stack">{{.Children}}</div>'
`

func TestCatalog_Build(t *testing.T) {
	c, err := registry.ParseCatalog([]byte(testCatalog))
	require.NoError(t, err)
	r, err := c.Build()
	require.NoError(t, err)

	e, ok := r.Entry("Testimonial")
	require.True(t, ok)
	assert.Equal(t, "Customer Quote", e.Label())
	assert.Equal(t, "Library", e.Category)
	assert.False(t, e.Container)
	assert.Equal(t, "Great product", r.DefaultProps("Testimonial")["quote"])

	assert.True(t, r.SupportsChildren("Stack"))
	assert.True(t, r.SupportsChildren("Section"), "built-ins stay registered")

	out, err := e.Render(registry.RenderContext{}, domain.Props{"quote": "<b>wow</b>"}, "")
	require.NoError(t, err)
	assert.Equal(t, `<blockquote class="quote">&lt;b&gt;wow&lt;/b&gt;</blockquote>`, string(out))

	stack, _ := r.Component("Stack")
	out, err = stack(registry.RenderContext{}, nil, template.HTML("<p>a</p>"))
	require.NoError(t, err)
	assert.Equal(t, `<div class="stack"><p>a</p></div>`, string(out))
}

func TestCatalog_DuplicateOfBuiltin(t *testing.T) {
	c, err := registry.ParseCatalog([]byte("components:\n  - name: Heading\n    template: x\n"))
	require.NoError(t, err)
	_, err = c.Build()
	assert.ErrorContains(t, err, "duplicate component")
}

func TestCatalog_BadTemplate(t *testing.T) {
	c, err := registry.ParseCatalog([]byte("components:\n  - name: Broken\n    template: '{{.Props'\n"))
	require.NoError(t, err)
	_, err = c.Build()
	assert.Error(t, err)
}

func TestLoadCatalog_MissingFileFallsBackToBuiltins(t *testing.T) {
	r, err := registry.LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.True(t, r.SupportsChildren("Section"))
}

func TestLoadCatalog_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "components.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0644))
	r, err := registry.LoadCatalog(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(strings.Join(r.Names(), ","), "Testimonial"))
}

func TestHolder_Swap(t *testing.T) {
	h := registry.NewHolder(registry.Builtin())
	assert.False(t, h.SupportsChildren("Stack"))

	c, _ := registry.ParseCatalog([]byte(testCatalog))
	next, err := c.Build()
	require.NoError(t, err)
	prev := h.Swap(next)

	assert.True(t, h.SupportsChildren("Stack"))
	assert.False(t, prev.SupportsChildren("Stack"))
}
