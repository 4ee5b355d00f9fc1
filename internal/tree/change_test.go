package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/tree"
)

func TestChange_Merge(t *testing.T) {
	first := tree.Change{Outcome: tree.Changed, Upserted: []domain.Block{{ID: "a", SortOrder: 1}, {ID: "b"}}}
	second := tree.Change{Outcome: tree.Changed, Upserted: []domain.Block{{ID: "a", SortOrder: 2}}}
	third := tree.Change{Outcome: tree.Changed, Deleted: []string{"b", "c"}}

	merged := first.Merge(second).Merge(third)
	assert.Equal(t, tree.Changed, merged.Outcome)
	assert.Equal(t, []domain.Block{{ID: "a", SortOrder: 2}}, merged.Upserted)
	assert.Equal(t, []string{"b", "c"}, merged.Deleted)
}

func TestChange_MergeNoOpKeepsPending(t *testing.T) {
	pending := tree.Change{Outcome: tree.Changed, Upserted: []domain.Block{{ID: "a"}}}
	assert.Equal(t, pending, pending.Merge(tree.Change{Outcome: tree.NoOp}))
}

func TestChange_MergeRecreatedBlockIsNotDeleted(t *testing.T) {
	deleted := tree.Change{Outcome: tree.Changed, Deleted: []string{"a"}}
	restored := tree.Change{Outcome: tree.Changed, Upserted: []domain.Block{{ID: "a"}}}
	merged := deleted.Merge(restored)
	assert.Empty(t, merged.Deleted)
	assert.Len(t, merged.Upserted, 1)
	assert.False(t, merged.Empty())
}

func TestParseDirection(t *testing.T) {
	d, err := tree.ParseDirection("UP")
	assert.NoError(t, err)
	assert.Equal(t, tree.Up, d)
	d, err = tree.ParseDirection("down")
	assert.NoError(t, err)
	assert.Equal(t, tree.Down, d)
	_, err = tree.ParseDirection("left")
	assert.Error(t, err)
}
