// Package tree owns the block tree of one page: a flat arena of blocks linked
// by parent pointers, with sibling order given by sort_order. All mutators are
// synchronous and all-or-nothing.
package tree

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"pagebuilder/internal/domain"
)

// Capabilities answers whether a component is registered and whether it may
// own child blocks.
type Capabilities interface {
	Registered(componentName string) bool
	SupportsChildren(componentName string) bool
}

// Store is the mutation authority for one page's blocks. It is not safe for
// concurrent use; callers serialize access per editing session.
type Store struct {
	pageID string
	caps   Capabilities
	blocks map[string]*domain.Block
	newID  func() string
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides block id generation (uuid v4 by default).
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock overrides the timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// New creates an empty store for pageID.
func New(pageID string, caps Capabilities, opts ...Option) *Store {
	s := &Store{
		pageID: pageID,
		caps:   caps,
		blocks: make(map[string]*domain.Block),
		newID:  func() string { return uuid.New().String() },
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load materializes a page's persisted blocks and checks every tree invariant.
// Blocks without a page id are adopted by pageID.
func Load(pageID string, blocks []domain.Block, caps Capabilities, opts ...Option) (*Store, error) {
	s := New(pageID, caps, opts...)
	var problems []error
	for i := range blocks {
		b := blocks[i].Clone()
		if b.PageID == "" {
			b.PageID = pageID
		}
		if b.ID == "" {
			problems = append(problems, fmt.Errorf("block at index %d has no id", i))
			continue
		}
		if _, dup := s.blocks[b.ID]; dup {
			problems = append(problems, fmt.Errorf("duplicate block id %s", b.ID))
			continue
		}
		s.blocks[b.ID] = &b
	}
	if len(problems) == 0 {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrCorruptTree, errors.Join(problems...))
}

// PageID returns the page this store belongs to.
func (s *Store) PageID() string { return s.pageID }

// Len returns the number of blocks on the page.
func (s *Store) Len() int { return len(s.blocks) }

// Has reports whether id is a block of this page.
func (s *Store) Has(id string) bool {
	_, ok := s.blocks[id]
	return ok
}

// Validate checks all tree invariants against the current state. Children of
// an unregistered component are accepted: the component may come back with
// the next catalog, and the canvas renders it as a placeholder meanwhile.
func (s *Store) Validate() error {
	var problems []error
	groups := make(map[string]map[int]string)
	for id, b := range s.blocks {
		if b.PageID != s.pageID {
			problems = append(problems, fmt.Errorf("block %s belongs to page %s, not %s", id, b.PageID, s.pageID))
		}
		if b.ParentBlockID != nil {
			parent, ok := s.blocks[*b.ParentBlockID]
			switch {
			case *b.ParentBlockID == id:
				problems = append(problems, fmt.Errorf("block %s: %w", id, ErrSelfParent))
			case !ok:
				problems = append(problems, fmt.Errorf("block %s: %w: %s", id, ErrParentNotFound, *b.ParentBlockID))
			case s.caps.Registered(parent.ComponentName) && !s.caps.SupportsChildren(parent.ComponentName):
				problems = append(problems, fmt.Errorf("block %s: %w: %s is a %s", id, ErrInvalidContainer, parent.ID, parent.ComponentName))
			}
		}
		key := b.ParentID()
		if groups[key] == nil {
			groups[key] = make(map[int]string)
		}
		if other, dup := groups[key][b.SortOrder]; dup {
			problems = append(problems, fmt.Errorf("blocks %s and %s share sort_order %d", other, id, b.SortOrder))
		} else {
			groups[key][b.SortOrder] = id
		}
	}
	for id := range s.blocks {
		if s.hasCycle(id) {
			problems = append(problems, fmt.Errorf("block %s: %w", id, ErrCycle))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Slice(problems, func(i, j int) bool { return problems[i].Error() < problems[j].Error() })
	return fmt.Errorf("%w: %w", ErrCorruptTree, errors.Join(problems...))
}

// hasCycle walks parent pointers from id; more steps than blocks means a loop.
func (s *Store) hasCycle(id string) bool {
	cur := s.blocks[id]
	for steps := 0; cur != nil && cur.ParentBlockID != nil; steps++ {
		if steps > len(s.blocks) {
			return true
		}
		cur = s.blocks[*cur.ParentBlockID]
	}
	return false
}
