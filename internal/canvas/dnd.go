package canvas

import (
	"fmt"

	"pagebuilder/internal/tree"
)

// DropEvent is a completed drag: the block lands in TargetContainerID (nil for
// the page root) at TargetIndex among the siblings it will have there.
type DropEvent struct {
	MovedBlockID      string  `json:"movedBlockId"`
	TargetContainerID *string `json:"targetContainerId"`
	TargetIndex       int     `json:"targetIndex"`
}

// StepEvent is a single up/down reorder from the block's quick actions.
type StepEvent struct {
	MovedBlockID string `json:"movedBlockId"`
	Direction    string `json:"direction"`
}

// Mutator is the slice of the tree store that drag and drop needs.
type Mutator interface {
	Position(id string) (parentID *string, index int, ok bool)
	MoveBlock(id string, dir tree.Direction) (tree.Change, error)
	ReparentBlock(id string, newParentID *string, newIndex int) (tree.Change, error)
}

// Drop applies ev with exactly one store mutation. A drop one slot away inside
// the same sibling group is a MoveBlock; everything else is a ReparentBlock,
// which also owns the index math and the no-op for an unchanged position.
func Drop(m Mutator, ev DropEvent) (tree.Change, error) {
	parent, index, ok := m.Position(ev.MovedBlockID)
	if ok && sameParent(parent, ev.TargetContainerID) {
		switch ev.TargetIndex {
		case index - 1:
			return m.MoveBlock(ev.MovedBlockID, tree.Up)
		case index + 1:
			return m.MoveBlock(ev.MovedBlockID, tree.Down)
		}
	}
	return m.ReparentBlock(ev.MovedBlockID, ev.TargetContainerID, ev.TargetIndex)
}

// Step applies a single-step reorder.
func Step(m Mutator, ev StepEvent) (tree.Change, error) {
	dir, err := tree.ParseDirection(ev.Direction)
	if err != nil {
		return tree.Change{}, fmt.Errorf("step block %s: %w", ev.MovedBlockID, err)
	}
	return m.MoveBlock(ev.MovedBlockID, dir)
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
