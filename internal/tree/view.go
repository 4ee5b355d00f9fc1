package tree

import (
	"sort"

	"pagebuilder/internal/domain"
)

// Derived views are recomputed on every call; the store keeps no cached
// indices that a mutation could leave stale.

// siblings returns the blocks under parentID ("" for roots) in render order.
func (s *Store) siblings(parentID string) []*domain.Block {
	var out []*domain.Block
	for _, b := range s.blocks {
		if b.ParentID() == parentID {
			out = append(out, b)
		}
	}
	sortSiblings(out)
	return out
}

func sortSiblings(bs []*domain.Block) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].SortOrder != bs[j].SortOrder {
			return bs[i].SortOrder < bs[j].SortOrder
		}
		return bs[i].ID < bs[j].ID
	})
}

func indexOf(bs []*domain.Block, id string) int {
	for i, b := range bs {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func copies(bs []*domain.Block) []domain.Block {
	out := make([]domain.Block, len(bs))
	for i, b := range bs {
		out[i] = b.Clone()
	}
	return out
}

// Block returns a copy of the block with id.
func (s *Store) Block(id string) (domain.Block, bool) {
	b, ok := s.blocks[id]
	if !ok {
		return domain.Block{}, false
	}
	return b.Clone(), true
}

// RootBlocks returns top-level blocks ordered by sort_order.
func (s *Store) RootBlocks() []domain.Block {
	return copies(s.siblings(""))
}

// Children returns the children of parentID ordered by sort_order. A nil
// parentID returns the roots.
func (s *Store) Children(parentID *string) []domain.Block {
	if parentID == nil {
		return s.RootBlocks()
	}
	return copies(s.siblings(*parentID))
}

// Blocks returns every block in depth-first render order.
func (s *Store) Blocks() []domain.Block {
	out := make([]domain.Block, 0, len(s.blocks))
	var walk func(parentID string)
	walk = func(parentID string) {
		for _, b := range s.siblings(parentID) {
			out = append(out, b.Clone())
			walk(b.ID)
		}
	}
	walk("")
	return out
}

// Snapshot is Blocks under the name used by persistence and undo.
func (s *Store) Snapshot() []domain.Block {
	return s.Blocks()
}

// Subtree returns id followed by all of its descendants, depth-first.
func (s *Store) Subtree(id string) []string {
	if _, ok := s.blocks[id]; !ok {
		return nil
	}
	out := []string{id}
	var walk func(parentID string)
	walk = func(parentID string) {
		for _, b := range s.siblings(parentID) {
			out = append(out, b.ID)
			walk(b.ID)
		}
	}
	walk(id)
	return out
}

// Ancestors returns the parent chain of id, nearest first.
func (s *Store) Ancestors(id string) []string {
	var out []string
	cur, ok := s.blocks[id]
	for ok && cur.ParentBlockID != nil && len(out) <= len(s.blocks) {
		out = append(out, *cur.ParentBlockID)
		cur, ok = s.blocks[*cur.ParentBlockID]
	}
	return out
}

// IsAncestor reports whether ancestor appears on the parent chain of id.
func (s *Store) IsAncestor(ancestor, id string) bool {
	for _, a := range s.Ancestors(id) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// CanMoveUp reports whether id has a previous sibling.
func (s *Store) CanMoveUp(id string) bool {
	b, ok := s.blocks[id]
	if !ok {
		return false
	}
	return indexOf(s.siblings(b.ParentID()), id) > 0
}

// CanMoveDown reports whether id has a next sibling.
func (s *Store) CanMoveDown(id string) bool {
	b, ok := s.blocks[id]
	if !ok {
		return false
	}
	sibs := s.siblings(b.ParentID())
	i := indexOf(sibs, id)
	return i >= 0 && i < len(sibs)-1
}

// Position returns the index of id within its sibling group.
func (s *Store) Position(id string) (parentID *string, index int, ok bool) {
	b, found := s.blocks[id]
	if !found {
		return nil, -1, false
	}
	return b.Clone().ParentBlockID, indexOf(s.siblings(b.ParentID()), id), true
}
