package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/canvas"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
	"pagebuilder/internal/tree"
)

// spy counts the store mutations a drop turns into.
type spy struct {
	*tree.Store
	moves     int
	reparents int
	adds      int
}

func (s *spy) MoveBlock(id string, dir tree.Direction) (tree.Change, error) {
	s.moves++
	return s.Store.MoveBlock(id, dir)
}

func (s *spy) ReparentBlock(id string, parentID *string, index int) (tree.Change, error) {
	s.reparents++
	return s.Store.ReparentBlock(id, parentID, index)
}

func (s *spy) AddBlock(name string, parentID *string, props domain.Props) (tree.Change, error) {
	s.adds++
	return s.Store.AddBlock(name, parentID, props)
}

func (s *spy) AddBlockToContainer(name, containerID string, props domain.Props) (tree.Change, error) {
	s.adds++
	return s.Store.AddBlock(name, &containerID, props)
}

func rootIDs(s *tree.Store) []string {
	var out []string
	for _, b := range s.RootBlocks() {
		out = append(out, b.ID)
	}
	return out
}

func threeRoots(t *testing.T) *spy {
	s := newStore(t)
	add(t, s, "Heading", "", nil)
	add(t, s, "Text", "", nil)
	add(t, s, "Button", "", nil)
	return &spy{Store: s}
}

func TestDrop_AdjacentSlotIsMove(t *testing.T) {
	sp := threeRoots(t)
	ch, err := canvas.Drop(sp, canvas.DropEvent{MovedBlockID: "b2", TargetIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, tree.Changed, ch.Outcome)
	assert.Equal(t, 1, sp.moves)
	assert.Equal(t, 0, sp.reparents)
	assert.Equal(t, []string{"b2", "b1", "b3"}, rootIDs(sp.Store))

	_, err = canvas.Drop(sp, canvas.DropEvent{MovedBlockID: "b2", TargetIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, sp.moves)
	assert.Equal(t, []string{"b1", "b2", "b3"}, rootIDs(sp.Store))
}

func TestDrop_FarSlotIsReparent(t *testing.T) {
	sp := threeRoots(t)
	_, err := canvas.Drop(sp, canvas.DropEvent{MovedBlockID: "b1", TargetIndex: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, sp.moves)
	assert.Equal(t, 1, sp.reparents)
	assert.Equal(t, []string{"b2", "b3", "b1"}, rootIDs(sp.Store))
}

func TestDrop_SamePositionIsNoOp(t *testing.T) {
	sp := threeRoots(t)
	ch, err := canvas.Drop(sp, canvas.DropEvent{MovedBlockID: "b2", TargetIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, tree.NoOp, ch.Outcome)
	assert.Equal(t, 1, sp.moves+sp.reparents)
}

func TestDrop_IntoContainer(t *testing.T) {
	sp := threeRoots(t)
	sec := add(t, sp.Store, "Section", "", nil)

	_, err := canvas.Drop(sp, canvas.DropEvent{MovedBlockID: "b1", TargetContainerID: &sec, TargetIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, sp.reparents)
	kids := sp.Children(&sec)
	require.Len(t, kids, 1)
	assert.Equal(t, "b1", kids[0].ID)
}

func TestDrop_RejectedLeavesTreeUnchanged(t *testing.T) {
	sp := &spy{Store: newStore(t)}
	outer := add(t, sp.Store, "Section", "", nil)
	inner := add(t, sp.Store, "Container", outer, nil)
	before := sp.Blocks()

	_, err := canvas.Drop(sp, canvas.DropEvent{MovedBlockID: outer, TargetContainerID: &inner})
	require.Error(t, err)
	assert.ErrorIs(t, err, tree.ErrCycle)
	assert.Equal(t, before, sp.Blocks())
	assert.Equal(t, 1, sp.reparents)
}

func TestStep(t *testing.T) {
	sp := threeRoots(t)
	_, err := canvas.Step(sp, canvas.StepEvent{MovedBlockID: "b3", Direction: "up"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b3", "b2"}, rootIDs(sp.Store))

	ch, err := canvas.Step(sp, canvas.StepEvent{MovedBlockID: "b1", Direction: "up"})
	require.NoError(t, err)
	assert.Equal(t, tree.NoOp, ch.Outcome)

	_, err = canvas.Step(sp, canvas.StepEvent{MovedBlockID: "b1", Direction: "sideways"})
	assert.Error(t, err)
	assert.Equal(t, 2, sp.moves)
}

func TestQuickStart_SeedsDefaults(t *testing.T) {
	sp := &spy{Store: newStore(t)}
	ch, err := canvas.QuickStart(sp, registry.Builtin(), "Heading")
	require.NoError(t, err)
	assert.Equal(t, 1, sp.adds)
	b, ok := sp.Block(ch.Affected)
	require.True(t, ok)
	assert.Nil(t, b.ParentBlockID)
	assert.Equal(t, "Heading", b.Props["text"])
}

func TestDropZoneAdd(t *testing.T) {
	sp := &spy{Store: newStore(t)}
	x := add(t, sp.Store, "Card", "", nil)

	ch, err := canvas.DropZoneAdd(sp, registry.Builtin(), "Text", x)
	require.NoError(t, err)
	kids := sp.Children(&x)
	require.Len(t, kids, 1)
	assert.Equal(t, ch.Affected, kids[0].ID)
	assert.Equal(t, "Write something...", kids[0].Props["text"])

	leaf := ch.Affected
	_, err = canvas.DropZoneAdd(sp, registry.Builtin(), "Text", leaf)
	assert.ErrorIs(t, err, tree.ErrInvalidContainer)
}
