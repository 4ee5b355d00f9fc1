package tree

import "pagebuilder/internal/domain"

// Sort keys are integers. Inserting at index i among sorted siblings takes the
// midpoint of the neighbouring keys when they leave a gap; otherwise the whole
// sibling group is renumbered 1..n in its final order. Appends use last+1 and a
// first position uses the gap between 0 and the first key.

type reorder struct {
	block *domain.Block
	order int
}

// placeAt computes the sort key for a block inserted at index among sibs
// (which must not contain the inserted block) and any renumbering needed.
// Nothing is modified.
func placeAt(sibs []*domain.Block, index int) (int, []reorder) {
	if index < 0 {
		index = 0
	}
	if index > len(sibs) {
		index = len(sibs)
	}
	if len(sibs) == 0 {
		return 1, nil
	}
	if index == len(sibs) {
		return sibs[len(sibs)-1].SortOrder + 1, nil
	}

	lo := 0
	if index > 0 {
		lo = sibs[index-1].SortOrder
	}
	hi := sibs[index].SortOrder
	if hi-lo > 1 {
		return lo + (hi-lo)/2, nil
	}

	var changes []reorder
	for i, b := range sibs {
		want := i + 1
		if i >= index {
			want = i + 2
		}
		if b.SortOrder != want {
			changes = append(changes, reorder{block: b, order: want})
		}
	}
	return index + 1, changes
}

func nextSortOrder(sibs []*domain.Block) int {
	if len(sibs) == 0 {
		return 1
	}
	return sibs[len(sibs)-1].SortOrder + 1
}
