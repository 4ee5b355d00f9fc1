package canvas

import (
	"sort"

	"pagebuilder/internal/domain"
)

// ListView renders a flat persisted block list directly, without loading it
// into a tree store. Blocks are grouped by parent and ordered by sort_order,
// ties broken by id.
type ListView []domain.Block

func (l ListView) Children(parentID *string) []domain.Block {
	want := ""
	if parentID != nil {
		want = *parentID
	}
	var out []domain.Block
	for _, b := range l {
		if b.ParentID() == want {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (l ListView) position(id string) (int, int) {
	for _, b := range l {
		if b.ID != id {
			continue
		}
		parent := b.ParentBlockID
		sibs := l.Children(parent)
		for i, s := range sibs {
			if s.ID == id {
				return i, len(sibs)
			}
		}
	}
	return -1, 0
}

func (l ListView) CanMoveUp(id string) bool {
	i, _ := l.position(id)
	return i > 0
}

func (l ListView) CanMoveDown(id string) bool {
	i, n := l.position(id)
	return i >= 0 && i < n-1
}
