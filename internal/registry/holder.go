package registry

import (
	"sync/atomic"

	"pagebuilder/internal/domain"
)

// Holder publishes the current registry snapshot. Readers always see one
// complete snapshot; a catalog reload swaps the pointer.
type Holder struct {
	current atomic.Pointer[Registry]
}

// NewHolder creates a Holder serving r.
func NewHolder(r *Registry) *Holder {
	h := &Holder{}
	h.current.Store(r)
	return h
}

// Current returns the active snapshot.
func (h *Holder) Current() *Registry {
	return h.current.Load()
}

// Swap replaces the active snapshot and returns the previous one.
func (h *Holder) Swap(r *Registry) *Registry {
	return h.current.Swap(r)
}

func (h *Holder) Entry(name string) (Entry, bool) { return h.Current().Entry(name) }

func (h *Holder) Registered(name string) bool { return h.Current().Registered(name) }

func (h *Holder) SupportsChildren(name string) bool { return h.Current().SupportsChildren(name) }

func (h *Holder) DisplayName(name string) string { return h.Current().DisplayName(name) }

func (h *Holder) DefaultProps(name string) domain.Props { return h.Current().DefaultProps(name) }

func (h *Holder) ValidateProps(name string, props domain.Props) error {
	return h.Current().ValidateProps(name, props)
}

func (h *Holder) List() []Entry { return h.Current().List() }
