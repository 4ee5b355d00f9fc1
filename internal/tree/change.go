package tree

import (
	"fmt"
	"strings"

	"pagebuilder/internal/domain"
)

// Outcome tells the caller whether a mutation did anything.
type Outcome int

const (
	NoOp Outcome = iota
	Changed
)

func (o Outcome) String() string {
	if o == Changed {
		return "changed"
	}
	return "noop"
}

// Direction is a single-step reorder direction.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// ParseDirection accepts "up" and "down" (any case).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return Up, fmt.Errorf("invalid direction %q (want up or down)", s)
}

// Change is the result of one mutation: what must be upserted and which ids
// were removed, cascaded descendants included.
type Change struct {
	Outcome  Outcome
	Affected string
	Upserted []domain.Block
	Deleted  []string
}

// Merge folds next into c: the latest copy of every upserted block wins and
// blocks deleted by next are dropped from the upserts.
func (c Change) Merge(next Change) Change {
	if next.Outcome == NoOp {
		return c
	}
	out := Change{Outcome: Changed, Affected: next.Affected}

	removed := make(map[string]bool, len(next.Deleted))
	for _, id := range next.Deleted {
		removed[id] = true
	}
	index := make(map[string]int)
	for _, b := range append(append([]domain.Block{}, c.Upserted...), next.Upserted...) {
		if removed[b.ID] {
			continue
		}
		if i, ok := index[b.ID]; ok {
			out.Upserted[i] = b
			continue
		}
		index[b.ID] = len(out.Upserted)
		out.Upserted = append(out.Upserted, b)
	}

	seen := make(map[string]bool)
	for _, id := range append(append([]string{}, c.Deleted...), next.Deleted...) {
		if _, live := index[id]; live || seen[id] {
			continue
		}
		seen[id] = true
		out.Deleted = append(out.Deleted, id)
	}
	return out
}

// Empty reports whether the change carries nothing to persist.
func (c Change) Empty() bool {
	return len(c.Upserted) == 0 && len(c.Deleted) == 0
}
