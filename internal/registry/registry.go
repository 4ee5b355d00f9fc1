package registry

import (
	"fmt"
	"html/template"
	"sort"
	"sync"

	"pagebuilder/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Component Registry: block type name → renderer + metadata
// ─────────────────────────────────────────────────────────────

// RenderContext carries per-block information a renderer may need.
type RenderContext struct {
	BlockID string
	Editing bool
}

// RenderFunc renders a component. For containers, children holds the already
// rendered markup of the block's children.
type RenderFunc func(ctx RenderContext, props domain.Props, children template.HTML) (template.HTML, error)

// Entry describes one registered component.
type Entry struct {
	Name         string
	DisplayName  string
	Category     string
	Icon         string
	Container    bool
	DefaultProps domain.Props
	Props        []PropSpec
	Render       RenderFunc
}

// Label returns the display name, falling back to the component name.
func (e Entry) Label() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.Name
}

// Registry maps component names to entries. It is filled once at startup and
// only read afterwards; a reload builds a fresh Registry (see Holder).
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates a registry holding the given entries.
func New(entries ...Entry) *Registry {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		r.Register(e)
	}
	return r
}

// Register adds a component. Panics on duplicate registration or a missing renderer.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.Name == "" {
		panic("component registry: empty component name")
	}
	if e.Render == nil {
		panic(fmt.Sprintf("component registry: %q has no renderer", e.Name))
	}
	if _, exists := r.entries[e.Name]; exists {
		panic(fmt.Sprintf("component registry: duplicate registration for %q", e.Name))
	}
	r.entries[e.Name] = e
}

// Component returns the renderer for name. ok is false for unregistered names.
func (r *Registry) Component(name string) (RenderFunc, bool) {
	e, ok := r.Entry(name)
	if !ok {
		return nil, false
	}
	return e.Render, true
}

// Entry returns the full metadata for name.
func (r *Registry) Entry(name string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Registered reports whether name resolves to a component.
func (r *Registry) Registered(name string) bool {
	_, ok := r.Entry(name)
	return ok
}

// SupportsChildren reports whether blocks of this component may own children.
// Unknown components never do.
func (r *Registry) SupportsChildren(name string) bool {
	e, ok := r.Entry(name)
	return ok && e.Container
}

// DisplayName returns the chrome label for name, or name itself when unknown.
func (r *Registry) DisplayName(name string) string {
	if e, ok := r.Entry(name); ok {
		return e.Label()
	}
	return name
}

// DefaultProps returns a copy of the component's default props.
func (r *Registry) DefaultProps(name string) domain.Props {
	e, ok := r.Entry(name)
	if !ok || e.DefaultProps == nil {
		return domain.Props{}
	}
	return e.DefaultProps.Clone()
}

// List returns all entries ordered by category, then label.
func (r *Registry) List() []Entry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Label() < out[j].Label()
	})
	return out
}

// Names returns the registered component names, sorted.
func (r *Registry) Names() []string {
	entries := r.List()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// ValidateProps checks props against the component's declared prop specs.
func (r *Registry) ValidateProps(name string, props domain.Props) error {
	e, ok := r.Entry(name)
	if !ok {
		return fmt.Errorf("validate props: unknown component %q", name)
	}
	return validateProps(e, props)
}
