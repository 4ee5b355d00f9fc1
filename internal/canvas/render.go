// Package canvas renders a page's block tree in edit or preview mode and turns
// canvas interaction (drops, single steps, empty-state buttons) into tree
// mutations.
package canvas

import (
	"fmt"
	"html/template"
	"log"
	"strings"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
	"pagebuilder/internal/style"
)

// Mode selects between the interactive editor and the published look.
type Mode int

const (
	ModeEdit Mode = iota
	ModePreview
)

func (m Mode) String() string {
	if m == ModePreview {
		return "preview"
	}
	return "edit"
}

// ParseMode accepts "edit" and "preview".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "edit":
		return ModeEdit, nil
	case "preview":
		return ModePreview, nil
	}
	return ModeEdit, fmt.Errorf("invalid render mode %q (want edit or preview)", s)
}

// Kind classifies a rendered node.
type Kind int

const (
	KindBlock Kind = iota
	KindPlaceholder
	KindDropZone
	KindEmptyCanvas
)

func (k Kind) String() string {
	switch k {
	case KindPlaceholder:
		return "placeholder"
	case KindDropZone:
		return "drop-zone"
	case KindEmptyCanvas:
		return "empty-canvas"
	default:
		return "block"
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Suggestion is one quick-start button on the empty canvas.
type Suggestion struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// Node is one rendered element of the canvas. Content of a container already
// embeds the serialized children; Children is kept for inspection.
type Node struct {
	Kind        Kind          `json:"kind"`
	BlockID     string        `json:"blockId,omitempty"`
	Component   string        `json:"component,omitempty"`
	Label       string        `json:"label,omitempty"`
	Container   bool          `json:"container,omitempty"`
	Hidden      bool          `json:"hidden,omitempty"`
	Selected    bool          `json:"selected,omitempty"`
	CanMoveUp   bool          `json:"canMoveUp,omitempty"`
	CanMoveDown bool          `json:"canMoveDown,omitempty"`
	Classes     string        `json:"classes,omitempty"`
	Error       string        `json:"error,omitempty"`
	Suggestions []Suggestion  `json:"suggestions,omitempty"`
	Children    []*Node       `json:"children,omitempty"`
	Style       style.Result  `json:"-"`
	Content     template.HTML `json:"-"`
}

// Frame is the result of one render pass.
type Frame struct {
	Mode  Mode    `json:"mode"`
	Nodes []*Node `json:"nodes"`
}

// Walk visits every node depth-first. Returning false skips the node's children.
func (f *Frame) Walk(fn func(n *Node, depth int) bool) {
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(f.Nodes, 0)
}

// Components resolves component names; *registry.Registry and
// *registry.Holder both satisfy it.
type Components interface {
	Entry(name string) (registry.Entry, bool)
}

// View is the read side of a page's block tree.
type View interface {
	Children(parentID *string) []domain.Block
	CanMoveUp(id string) bool
	CanMoveDown(id string) bool
}

// Options controls a render pass.
type Options struct {
	Mode       Mode
	SelectedID string
	// Suggestions overrides the empty-canvas quick-start components.
	Suggestions []string
}

// DefaultSuggestions are offered on an empty canvas when Options names none.
var DefaultSuggestions = []string{"Hero", "Section", "Heading", "Text", "Image"}

// Renderer walks a View and produces Frames. It holds no per-render state and
// may be shared between goroutines.
type Renderer struct {
	components Components
}

func New(components Components) *Renderer {
	return &Renderer{components: components}
}

// Render renders the whole tree of view from the page root.
func (r *Renderer) Render(view View, opts Options) *Frame {
	f := &Frame{Mode: opts.Mode}
	f.Nodes = r.renderGroup(view, nil, opts, make(map[string]bool))
	if len(f.Nodes) == 0 && opts.Mode == ModeEdit {
		f.Nodes = []*Node{r.emptyCanvas(opts)}
	}
	return f
}

// renderGroup renders the children of parentID. seen holds every block id
// rendered so far, so a view that repeats an id (never the case for a
// validated store) cannot recurse forever.
func (r *Renderer) renderGroup(view View, parentID *string, opts Options, seen map[string]bool) []*Node {
	var nodes []*Node
	for _, b := range view.Children(parentID) {
		if !b.IsVisible && opts.Mode == ModePreview {
			continue
		}
		nodes = append(nodes, r.renderBlock(view, b, opts, seen))
	}
	return nodes
}

func (r *Renderer) renderBlock(view View, b domain.Block, opts Options, seen map[string]bool) *Node {
	editing := opts.Mode == ModeEdit
	n := &Node{
		Kind:      KindBlock,
		BlockID:   b.ID,
		Component: b.ComponentName,
		Label:     b.ComponentName,
		Hidden:    !b.IsVisible,
		Selected:  editing && opts.SelectedID != "" && opts.SelectedID == b.ID,
		Classes:   b.CustomClasses,
	}
	if editing {
		n.CanMoveUp = view.CanMoveUp(b.ID)
		n.CanMoveDown = view.CanMoveDown(b.ID)
	}
	if seen[b.ID] {
		return placeholder(n, "block rendered twice", opts.Mode)
	}
	seen[b.ID] = true

	entry, ok := r.components.Entry(b.ComponentName)
	if !ok {
		n = placeholder(n, fmt.Sprintf("unknown component %q", b.ComponentName), opts.Mode)
		// Children of an unknown container stay reachable in the editor so
		// they can be selected and dragged out.
		if editing {
			id := b.ID
			if kids := r.renderGroup(view, &id, opts, seen); len(kids) > 0 {
				n.Children = kids
				n.Content += regionHTML(b.ID, kids, opts.Mode)
			}
		}
		return n
	}
	n.Label = entry.Label()
	n.Container = entry.Container
	n.Style = style.Compute(b.Props, b.CustomCSS)

	var children template.HTML
	if entry.Container {
		id := b.ID
		n.Children = r.renderGroup(view, &id, opts, seen)
		if len(n.Children) == 0 && editing {
			n.Children = []*Node{{Kind: KindDropZone, BlockID: b.ID, Label: "Add block here"}}
		}
		children = regionHTML(b.ID, n.Children, opts.Mode)
	}

	content, err := safeRender(entry.Render, registry.RenderContext{BlockID: b.ID, Editing: editing}, b.Props, children)
	if err != nil {
		log.Printf("[BUILDER] render block %s (%s): %v", b.ID, b.ComponentName, err)
		n.Children = nil
		return placeholder(n, err.Error(), opts.Mode)
	}
	n.Content = content
	return n
}

// safeRender isolates one component: an error or a panic becomes an error
// for this block only.
func safeRender(fn registry.RenderFunc, ctx registry.RenderContext, props domain.Props, children template.HTML) (out template.HTML, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("component panicked: %v", p)
		}
	}()
	if fn == nil {
		return "", fmt.Errorf("component has no renderer")
	}
	return fn(ctx, props, children)
}

func placeholder(n *Node, reason string, mode Mode) *Node {
	n.Kind = KindPlaceholder
	n.Container = false
	n.Children = nil
	n.Style = style.Result{}
	n.Error = reason
	n.Content = placeholderHTML(n, mode)
	return n
}

func (r *Renderer) emptyCanvas(opts Options) *Node {
	names := opts.Suggestions
	if len(names) == 0 {
		names = DefaultSuggestions
	}
	n := &Node{Kind: KindEmptyCanvas, Label: "Start building your page"}
	for _, name := range names {
		e, ok := r.components.Entry(name)
		if !ok {
			continue
		}
		n.Suggestions = append(n.Suggestions, Suggestion{Name: e.Name, Label: e.Label(), Category: e.Category})
	}
	return n
}
