package registry

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"pagebuilder/internal/domain"
)

const (
	CategoryLayout  = "Layout"
	CategoryContent = "Content"
	CategoryMedia   = "Media"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Builtin returns a registry with the stock component set.
func Builtin() *Registry {
	return New(BuiltinEntries()...)
}

// BuiltinEntries lists the stock components. Catalog loading starts from this list.
func BuiltinEntries() []Entry {
	return []Entry{
		// ── containers ──
		{
			Name: "Section", DisplayName: "Section", Category: CategoryLayout, Icon: "layout", Container: true,
			DefaultProps: domain.Props{"padding": "4rem 1.5rem"},
			Props:        []PropSpec{{Name: "padding", Kind: KindString}, {Name: "anchor", Kind: KindString}},
			Render:       renderSection,
		},
		{
			Name: "Container", DisplayName: "Container", Category: CategoryLayout, Icon: "square", Container: true,
			DefaultProps: domain.Props{"maxWidth": "1200px"},
			Props:        []PropSpec{{Name: "maxWidth", Kind: KindString}},
			Render:       renderContainer,
		},
		{
			Name: "Columns", DisplayName: "Columns", Category: CategoryLayout, Icon: "columns", Container: true,
			DefaultProps: domain.Props{"gap": "1.5rem"},
			Props:        []PropSpec{{Name: "gap", Kind: KindString}},
			Render:       renderColumns,
		},
		{
			Name: "Column", DisplayName: "Column", Category: CategoryLayout, Icon: "column", Container: true,
			Props:  []PropSpec{{Name: "span", Kind: KindNumber}},
			Render: renderColumn,
		},
		{
			Name: "Grid", DisplayName: "Grid", Category: CategoryLayout, Icon: "grid", Container: true,
			DefaultProps: domain.Props{"columns": float64(3), "gap": "1rem"},
			Props:        []PropSpec{{Name: "columns", Kind: KindNumber}, {Name: "gap", Kind: KindString}},
			Render:       renderGrid,
		},
		{
			Name: "Card", DisplayName: "Card", Category: CategoryLayout, Icon: "card", Container: true,
			Props:  []PropSpec{{Name: "title", Kind: KindString}},
			Render: renderCard,
		},
		// ── content ──
		{
			Name: "Heading", DisplayName: "Heading", Category: CategoryContent, Icon: "heading",
			DefaultProps: domain.Props{"text": "Heading", "level": float64(2)},
			Props:        []PropSpec{{Name: "text", Kind: KindString, Required: true}, {Name: "level", Kind: KindNumber}},
			Render:       renderHeading,
		},
		{
			Name: "Text", DisplayName: "Text", Category: CategoryContent, Icon: "type",
			DefaultProps: domain.Props{"text": "Write something..."},
			Props:        []PropSpec{{Name: "text", Kind: KindString, Required: true}},
			Render:       renderText,
		},
		{
			Name: "Markdown", DisplayName: "Markdown", Category: CategoryContent, Icon: "file-text",
			DefaultProps: domain.Props{"source": "## New section\n"},
			Props:        []PropSpec{{Name: "source", Kind: KindString, Required: true}},
			Render:       renderMarkdown,
		},
		{
			Name: "Button", DisplayName: "Button", Category: CategoryContent, Icon: "mouse-pointer",
			DefaultProps: domain.Props{"label": "Learn more", "href": "#"},
			Props:        []PropSpec{{Name: "label", Kind: KindString, Required: true}, {Name: "href", Kind: KindString}, {Name: "variant", Kind: KindString}},
			Render:       renderButton,
		},
		{
			Name: "Hero", DisplayName: "Hero", Category: CategoryContent, Icon: "star",
			DefaultProps: domain.Props{"title": "Build something great", "subtitle": ""},
			Props:        []PropSpec{{Name: "title", Kind: KindString, Required: true}, {Name: "subtitle", Kind: KindString}},
			Render:       renderHero,
		},
		{
			Name: "Spacer", DisplayName: "Spacer", Category: CategoryContent, Icon: "move-vertical",
			DefaultProps: domain.Props{"height": "2rem"},
			Props:        []PropSpec{{Name: "height", Kind: KindString}},
			Render:       renderSpacer,
		},
		{
			Name: "Divider", DisplayName: "Divider", Category: CategoryContent, Icon: "minus",
			Render: renderDivider,
		},
		// ── media ──
		{
			Name: "Image", DisplayName: "Image", Category: CategoryMedia, Icon: "image",
			Props:  []PropSpec{{Name: "src", Kind: KindString, Required: true}, {Name: "alt", Kind: KindString}},
			Render: renderImage,
		},
		{
			Name: "Embed", DisplayName: "Embed", Category: CategoryMedia, Icon: "video",
			Props:  []PropSpec{{Name: "url", Kind: KindString, Required: true}, {Name: "title", Kind: KindString}},
			Render: renderEmbed,
		},
	}
}

// ── renderers ──────────────────────────────────────────────

func esc(s string) string { return template.HTMLEscapeString(s) }

// safeURL drops anything that is not http(s), mailto, a relative path or a fragment.
func safeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return u.String()
	}
	return "#"
}

func renderSection(_ RenderContext, p domain.Props, children template.HTML) (template.HTML, error) {
	id := ""
	if anchor := propString(p, "anchor", ""); anchor != "" {
		id = fmt.Sprintf(` id="%s"`, esc(anchor))
	}
	return template.HTML(fmt.Sprintf(`<section class="pb-section"%s style="padding:%s">%s</section>`,
		id, esc(propString(p, "padding", "4rem 1.5rem")), children)), nil
}

func renderContainer(_ RenderContext, p domain.Props, children template.HTML) (template.HTML, error) {
	return template.HTML(fmt.Sprintf(`<div class="pb-container" style="max-width:%s;margin:0 auto">%s</div>`,
		esc(propString(p, "maxWidth", "1200px")), children)), nil
}

func renderColumns(_ RenderContext, p domain.Props, children template.HTML) (template.HTML, error) {
	return template.HTML(fmt.Sprintf(`<div class="pb-columns" style="display:flex;gap:%s">%s</div>`,
		esc(propString(p, "gap", "1.5rem")), children)), nil
}

func renderColumn(_ RenderContext, p domain.Props, children template.HTML) (template.HTML, error) {
	return template.HTML(fmt.Sprintf(`<div class="pb-column" style="flex:%d">%s</div>`,
		max(propInt(p, "span", 1), 1), children)), nil
}

func renderGrid(_ RenderContext, p domain.Props, children template.HTML) (template.HTML, error) {
	cols := propInt(p, "columns", 3)
	if cols < 1 {
		cols = 1
	}
	return template.HTML(fmt.Sprintf(`<div class="pb-grid" style="display:grid;grid-template-columns:repeat(%d,minmax(0,1fr));gap:%s">%s</div>`,
		cols, esc(propString(p, "gap", "1rem")), children)), nil
}

func renderCard(_ RenderContext, p domain.Props, children template.HTML) (template.HTML, error) {
	title := ""
	if t := propString(p, "title", ""); t != "" {
		title = fmt.Sprintf(`<h3 class="pb-card-title">%s</h3>`, esc(t))
	}
	return template.HTML(fmt.Sprintf(`<div class="pb-card">%s%s</div>`, title, children)), nil
}

func renderHeading(_ RenderContext, p domain.Props, _ template.HTML) (template.HTML, error) {
	level := propInt(p, "level", 2)
	if level < 1 || level > 6 {
		level = 2
	}
	return template.HTML(fmt.Sprintf(`<h%d class="pb-heading">%s</h%d>`, level, esc(propString(p, "text", "")), level)), nil
}

func renderText(_ RenderContext, p domain.Props, _ template.HTML) (template.HTML, error) {
	return template.HTML(fmt.Sprintf(`<p class="pb-text">%s</p>`, esc(propString(p, "text", "")))), nil
}

func renderMarkdown(_ RenderContext, p domain.Props, _ template.HTML) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(propString(p, "source", "")), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(`<div class="pb-markdown">` + buf.String() + `</div>`), nil
}

func renderButton(_ RenderContext, p domain.Props, _ template.HTML) (template.HTML, error) {
	variant := propString(p, "variant", "primary")
	return template.HTML(fmt.Sprintf(`<a class="pb-button pb-button-%s" href="%s">%s</a>`,
		esc(variant), esc(safeURL(propString(p, "href", "#"))), esc(propString(p, "label", "")))), nil
}

func renderHero(_ RenderContext, p domain.Props, _ template.HTML) (template.HTML, error) {
	sub := ""
	if s := propString(p, "subtitle", ""); s != "" {
		sub = fmt.Sprintf(`<p class="pb-hero-subtitle">%s</p>`, esc(s))
	}
	return template.HTML(fmt.Sprintf(`<header class="pb-hero"><h1>%s</h1>%s</header>`, esc(propString(p, "title", "")), sub)), nil
}

func renderSpacer(_ RenderContext, p domain.Props, _ template.HTML) (template.HTML, error) {
	return template.HTML(fmt.Sprintf(`<div class="pb-spacer" style="height:%s"></div>`, esc(propString(p, "height", "2rem")))), nil
}

func renderDivider(_ RenderContext, _ domain.Props, _ template.HTML) (template.HTML, error) {
	return `<hr class="pb-divider">`, nil
}

func renderImage(_ RenderContext, p domain.Props, _ template.HTML) (template.HTML, error) {
	src := propString(p, "src", "")
	if src == "" {
		return "", fmt.Errorf("image: src is required")
	}
	return template.HTML(fmt.Sprintf(`<img class="pb-image" src="%s" alt="%s" loading="lazy">`,
		esc(safeURL(src)), esc(propString(p, "alt", "")))), nil
}

func renderEmbed(_ RenderContext, p domain.Props, _ template.HTML) (template.HTML, error) {
	u := safeURL(propString(p, "url", ""))
	if u == "#" || u == "" {
		return "", fmt.Errorf("embed: url is required")
	}
	allowFull := ""
	if propBool(p, "allowFullscreen", true) {
		allowFull = " allowfullscreen"
	}
	return template.HTML(fmt.Sprintf(`<iframe class="pb-embed" src="%s" title="%s"%s></iframe>`,
		esc(u), esc(propString(p, "title", "")), allowFull)), nil
}
