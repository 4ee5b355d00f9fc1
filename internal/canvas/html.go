package canvas

import (
	"html/template"
	"io"
	"strconv"
	"strings"
)

// hiddenOpacity dims hidden blocks in edit mode.
const hiddenOpacity = "0.4"

// WriteHTML serializes f. Hover rules go first as one scoped <style> element;
// preview output carries no editor chrome and is what gets published.
func WriteHTML(w io.Writer, f *Frame) error {
	var sb strings.Builder
	writeHoverRules(&sb, f)
	for _, n := range f.Nodes {
		writeNode(&sb, n, f.Mode)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// HTML returns the serialized frame.
func (f *Frame) HTML() template.HTML {
	var sb strings.Builder
	_ = WriteHTML(&sb, f)
	return template.HTML(sb.String())
}

func writeHoverRules(sb *strings.Builder, f *Frame) {
	var rules []string
	f.Walk(func(n *Node, _ int) bool {
		if n.Kind == KindBlock && len(n.Style.Hover) > 0 {
			rules = append(rules, "#"+domID(n.BlockID)+":hover{"+n.Style.Hover.String()+"}")
		}
		return true
	})
	if len(rules) == 0 {
		return
	}
	sb.WriteString(`<style data-pb-hover>`)
	sb.WriteString(strings.Join(rules, "\n"))
	sb.WriteString(`</style>`)
}

func writeNode(sb *strings.Builder, n *Node, mode Mode) {
	switch n.Kind {
	case KindDropZone:
		if mode == ModeEdit {
			sb.WriteString(`<div class="pb-drop-zone" data-action="drop-zone-add" data-container-id="`)
			sb.WriteString(esc(n.BlockID))
			sb.WriteString(`">`)
			sb.WriteString(esc(n.Label))
			sb.WriteString(`</div>`)
		}
	case KindEmptyCanvas:
		if mode == ModeEdit {
			writeEmptyCanvas(sb, n)
		}
	case KindPlaceholder:
		if mode == ModePreview {
			sb.WriteString(string(n.Content))
			return
		}
		openWrapper(sb, n, mode)
		sb.WriteString(string(n.Content))
		sb.WriteString(`</div>`)
	default:
		openWrapper(sb, n, mode)
		sb.WriteString(string(n.Content))
		sb.WriteString(`</div>`)
	}
}

// openWrapper writes the block's outer element. In edit mode it also writes
// the chrome: drag handle, label and quick actions.
func openWrapper(sb *strings.Builder, n *Node, mode Mode) {
	classes := []string{"pb-block"}
	styleAttr := n.Style.Base.String()
	if mode == ModeEdit {
		classes = append(classes, "pb-editable")
		if n.Selected {
			classes = append(classes, "pb-selected")
		}
		if n.Hidden {
			classes = append(classes, "pb-hidden")
			if styleAttr != "" {
				styleAttr += ";"
			}
			styleAttr += "opacity:" + hiddenOpacity
		}
		if n.Container {
			classes = append(classes, "pb-container")
		}
	}
	if c := strings.TrimSpace(n.Classes); c != "" {
		classes = append(classes, strings.Fields(c)...)
	}

	sb.WriteString(`<div id="`)
	sb.WriteString(domID(n.BlockID))
	sb.WriteString(`" class="`)
	sb.WriteString(esc(strings.Join(classes, " ")))
	sb.WriteString(`"`)
	if mode == ModeEdit {
		sb.WriteString(` data-block-id="`)
		sb.WriteString(esc(n.BlockID))
		sb.WriteString(`" data-component="`)
		sb.WriteString(esc(n.Component))
		sb.WriteString(`" draggable="true"`)
	}
	if styleAttr != "" {
		sb.WriteString(` style="`)
		sb.WriteString(esc(styleAttr))
		sb.WriteString(`"`)
	}
	sb.WriteString(`>`)
	if mode == ModeEdit {
		writeChrome(sb, n)
	}
}

func writeChrome(sb *strings.Builder, n *Node) {
	label := n.Label
	if n.Hidden {
		label += " (Hidden)"
	}
	sb.WriteString(`<div class="pb-chrome" contenteditable="false">`)
	sb.WriteString(`<span class="pb-drag-handle" data-action="drag" title="Drag to move">⠿</span>`)
	sb.WriteString(`<span class="pb-label">`)
	sb.WriteString(esc(label))
	sb.WriteString(`</span><span class="pb-actions">`)
	writeAction(sb, "move-up", "Move up", "↑", !n.CanMoveUp)
	writeAction(sb, "move-down", "Move down", "↓", !n.CanMoveDown)
	writeAction(sb, "duplicate", "Duplicate", "⧉", n.Kind == KindPlaceholder)
	if n.Hidden {
		writeAction(sb, "show", "Show", "◉", false)
	} else {
		writeAction(sb, "hide", "Hide", "◌", false)
	}
	writeAction(sb, "delete", "Delete", "✕", false)
	sb.WriteString(`</span></div>`)
}

func writeAction(sb *strings.Builder, action, title, glyph string, disabled bool) {
	sb.WriteString(`<button type="button" class="pb-action" data-action="`)
	sb.WriteString(action)
	sb.WriteString(`" title="`)
	sb.WriteString(title)
	sb.WriteString(`"`)
	if disabled {
		sb.WriteString(` disabled`)
	}
	sb.WriteString(`>`)
	sb.WriteString(glyph)
	sb.WriteString(`</button>`)
}

func writeEmptyCanvas(sb *strings.Builder, n *Node) {
	sb.WriteString(`<div class="pb-empty-canvas"><p class="pb-empty-title">`)
	sb.WriteString(esc(n.Label))
	sb.WriteString(`</p><div class="pb-quick-start">`)
	for _, s := range n.Suggestions {
		sb.WriteString(`<button type="button" class="pb-quick-start-item" data-action="quick-start" data-component="`)
		sb.WriteString(esc(s.Name))
		sb.WriteString(`">`)
		sb.WriteString(esc(s.Label))
		sb.WriteString(`</button>`)
	}
	sb.WriteString(`</div></div>`)
}

// regionHTML serializes a container's children. Edit mode wraps them in a
// drop region addressed by the container id.
func regionHTML(containerID string, children []*Node, mode Mode) template.HTML {
	var sb strings.Builder
	if mode == ModeEdit {
		sb.WriteString(`<div class="pb-drop-region" data-container-id="`)
		sb.WriteString(esc(containerID))
		sb.WriteString(`">`)
	}
	for _, c := range children {
		writeNode(&sb, c, mode)
	}
	if mode == ModeEdit {
		sb.WriteString(`</div>`)
	}
	return template.HTML(sb.String())
}

// placeholderHTML marks a block that could not be rendered. Visitors of the
// published page get an empty hidden element; the editor shows the reason.
func placeholderHTML(n *Node, mode Mode) template.HTML {
	if mode == ModePreview {
		return template.HTML(`<div class="pb-placeholder" data-component="` + esc(n.Component) + `" hidden></div>`)
	}
	return template.HTML(`<div class="pb-placeholder" role="alert"><strong>` + esc(n.Component) +
		`</strong> could not be rendered: ` + esc(n.Error) + `</div>`)
}

func esc(s string) string { return template.HTMLEscapeString(s) }

// domID derives the element id of a block. Letters, digits and '-' pass
// through; any other rune becomes _<hex>_, so distinct block ids never share
// an element id and the result is usable unescaped in CSS selectors.
func domID(blockID string) string {
	var sb strings.Builder
	sb.WriteString("pb-")
	for _, r := range blockID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
			sb.WriteString(strconv.FormatInt(int64(r), 16))
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
