package tree

import (
	"pagebuilder/internal/domain"
)

// AddBlock appends a new block of componentName under parentID (nil for the
// page root), after all of its future siblings.
func (s *Store) AddBlock(componentName string, parentID *string, props domain.Props) (Change, error) {
	const op = "add"
	if componentName == "" {
		return Change{}, reject(op, "", "", ErrEmptyComponent)
	}
	parentKey := ""
	if parentID != nil {
		parentKey = *parentID
		parent, ok := s.blocks[parentKey]
		if !ok {
			return Change{}, reject(op, componentName, parentKey, ErrParentNotFound)
		}
		if !s.caps.SupportsChildren(parent.ComponentName) {
			return Change{}, reject(op, componentName, parentKey, ErrInvalidContainer)
		}
	}

	now := s.now()
	b := &domain.Block{
		ID:            s.newID(),
		PageID:        s.pageID,
		ComponentName: componentName,
		ParentBlockID: domain.StringPtr(parentKey),
		SortOrder:     nextSortOrder(s.siblings(parentKey)),
		IsVisible:     true,
		Props:         props.Clone(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if b.Props == nil {
		b.Props = domain.Props{}
	}
	s.blocks[b.ID] = b
	return Change{Outcome: Changed, Affected: b.ID, Upserted: []domain.Block{b.Clone()}}, nil
}

// AddBlockToContainer appends a new block as the last child of containerID.
func (s *Store) AddBlockToContainer(componentName, containerID string, props domain.Props) (Change, error) {
	return s.AddBlock(componentName, &containerID, props)
}

// DeleteBlock removes id and its whole subtree. Deleting an unknown id is a no-op.
func (s *Store) DeleteBlock(id string) (Change, error) {
	ids := s.Subtree(id)
	if len(ids) == 0 {
		return Change{Outcome: NoOp, Affected: id}, nil
	}
	for _, d := range ids {
		delete(s.blocks, d)
	}
	return Change{Outcome: Changed, Affected: id, Deleted: ids}, nil
}

// DuplicateBlock deep-clones id and its subtree with fresh ids and inserts the
// clone directly after the source. Duplicating an unknown id is a no-op.
func (s *Store) DuplicateBlock(id string) (Change, error) {
	src, ok := s.blocks[id]
	if !ok {
		return Change{Outcome: NoOp, Affected: id}, nil
	}
	sibs := s.siblings(src.ParentID())
	key, renumber := placeAt(sibs, indexOf(sibs, id)+1)

	now := s.now()
	subtree := s.Subtree(id)
	idMap := make(map[string]string, len(subtree))
	for _, old := range subtree {
		idMap[old] = s.newID()
	}
	clones := make([]*domain.Block, 0, len(subtree))
	for _, old := range subtree {
		c := s.blocks[old].Clone()
		c.ID = idMap[old]
		c.CreatedAt = now
		c.UpdatedAt = now
		if old == id {
			c.SortOrder = key
		} else {
			np := idMap[*c.ParentBlockID]
			c.ParentBlockID = &np
		}
		clones = append(clones, &c)
	}

	change := Change{Outcome: Changed, Affected: idMap[id]}
	for _, r := range renumber {
		r.block.SortOrder = r.order
		r.block.UpdatedAt = now
		change.Upserted = append(change.Upserted, r.block.Clone())
	}
	for _, c := range clones {
		s.blocks[c.ID] = c
		change.Upserted = append(change.Upserted, c.Clone())
	}
	return change, nil
}

// MoveBlock swaps id with its neighbour in dir. At either end of the sibling
// list, or for an unknown id, nothing changes.
func (s *Store) MoveBlock(id string, dir Direction) (Change, error) {
	b, ok := s.blocks[id]
	if !ok {
		return Change{Outcome: NoOp, Affected: id}, nil
	}
	sibs := s.siblings(b.ParentID())
	i := indexOf(sibs, id)
	j := i - 1
	if dir == Down {
		j = i + 1
	}
	if j < 0 || j >= len(sibs) {
		return Change{Outcome: NoOp, Affected: id}, nil
	}
	other := sibs[j]
	now := s.now()
	b.SortOrder, other.SortOrder = other.SortOrder, b.SortOrder
	b.UpdatedAt, other.UpdatedAt = now, now
	return Change{Outcome: Changed, Affected: id, Upserted: []domain.Block{b.Clone(), other.Clone()}}, nil
}

// ReparentBlock moves id (with its subtree) under newParentID at newIndex among
// the new siblings. newIndex is clamped to the valid range.
func (s *Store) ReparentBlock(id string, newParentID *string, newIndex int) (Change, error) {
	const op = "reparent"
	b, ok := s.blocks[id]
	if !ok {
		return Change{}, reject(op, id, "", ErrBlockNotFound)
	}
	parentKey := ""
	if newParentID != nil {
		parentKey = *newParentID
		if parentKey == id {
			return Change{}, reject(op, id, parentKey, ErrSelfParent)
		}
		parent, ok := s.blocks[parentKey]
		if !ok {
			return Change{}, reject(op, id, parentKey, ErrParentNotFound)
		}
		if !s.caps.SupportsChildren(parent.ComponentName) {
			return Change{}, reject(op, id, parentKey, ErrInvalidContainer)
		}
		if s.IsAncestor(id, parentKey) {
			return Change{}, reject(op, id, parentKey, ErrCycle)
		}
	}

	var sibs []*domain.Block
	for _, sb := range s.siblings(parentKey) {
		if sb.ID != id {
			sibs = append(sibs, sb)
		}
	}
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(sibs) {
		newIndex = len(sibs)
	}
	if b.ParentID() == parentKey && indexOf(s.siblings(parentKey), id) == newIndex {
		return Change{Outcome: NoOp, Affected: id}, nil
	}

	key, renumber := placeAt(sibs, newIndex)
	now := s.now()
	change := Change{Outcome: Changed, Affected: id}
	for _, r := range renumber {
		r.block.SortOrder = r.order
		r.block.UpdatedAt = now
		change.Upserted = append(change.Upserted, r.block.Clone())
	}
	b.ParentBlockID = domain.StringPtr(parentKey)
	b.SortOrder = key
	b.UpdatedAt = now
	change.Upserted = append([]domain.Block{b.Clone()}, change.Upserted...)
	return change, nil
}

// UpdateBlockVisibility sets the visibility flag of id.
func (s *Store) UpdateBlockVisibility(id string, visible bool) (Change, error) {
	b, ok := s.blocks[id]
	if !ok || b.IsVisible == visible {
		return Change{Outcome: NoOp, Affected: id}, nil
	}
	b.IsVisible = visible
	b.UpdatedAt = s.now()
	return Change{Outcome: Changed, Affected: id, Upserted: []domain.Block{b.Clone()}}, nil
}

// UpdateBlockProps replaces the props of id. Validation against the component
// schema belongs to the caller.
func (s *Store) UpdateBlockProps(id string, props domain.Props) (Change, error) {
	b, ok := s.blocks[id]
	if !ok {
		return Change{}, reject("update-props", id, "", ErrBlockNotFound)
	}
	b.Props = props.Clone()
	if b.Props == nil {
		b.Props = domain.Props{}
	}
	b.UpdatedAt = s.now()
	return Change{Outcome: Changed, Affected: id, Upserted: []domain.Block{b.Clone()}}, nil
}

// UpdateBlockPresentation sets custom CSS and classes of id.
func (s *Store) UpdateBlockPresentation(id, customCSS, customClasses string) (Change, error) {
	b, ok := s.blocks[id]
	if !ok {
		return Change{}, reject("update-presentation", id, "", ErrBlockNotFound)
	}
	if b.CustomCSS == customCSS && b.CustomClasses == customClasses {
		return Change{Outcome: NoOp, Affected: id}, nil
	}
	b.CustomCSS = customCSS
	b.CustomClasses = customClasses
	b.UpdatedAt = s.now()
	return Change{Outcome: Changed, Affected: id, Upserted: []domain.Block{b.Clone()}}, nil
}
