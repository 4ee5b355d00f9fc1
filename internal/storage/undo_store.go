package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// DefaultUndoLimit caps the undo history of one page.
const DefaultUndoLimit = 40

// UndoNode is one undo history entry: a labelled snapshot of a page's blocks.
type UndoNode struct {
	ID           string    `json:"id"`
	PageID       string    `json:"pageId"`
	ParentID     *string   `json:"parentId"`
	Label        string    `json:"label"`
	SnapshotJSON string    `json:"snapshotJson"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UndoTree is the full history of a page plus the current position.
type UndoTree struct {
	Nodes     []UndoNode `json:"nodes"`
	CurrentID string     `json:"currentId"`
	RootID    string     `json:"rootId"`
}

// Node returns the node with id.
func (t *UndoTree) Node(id string) (*UndoNode, bool) {
	for i := range t.Nodes {
		if t.Nodes[i].ID == id {
			return &t.Nodes[i], true
		}
	}
	return nil, false
}

// LatestChild returns the newest child of id, the node redo moves to.
func (t *UndoTree) LatestChild(id string) (*UndoNode, bool) {
	var out *UndoNode
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.ParentID != nil && *n.ParentID == id {
			if out == nil || !n.CreatedAt.Before(out.CreatedAt) {
				out = n
			}
		}
	}
	return out, out != nil
}

// UndoStore manages undo history in SQLite.
type UndoStore struct {
	db    *DB
	limit int
}

// NewUndoStore keeps at most limit nodes per page (DefaultUndoLimit if <= 0).
func NewUndoStore(db *DB, limit int) *UndoStore {
	if limit <= 0 {
		limit = DefaultUndoLimit
	}
	return &UndoStore{db: db, limit: limit}
}

// LoadTree returns the full undo tree for a page, or nil when there is none.
func (s *UndoStore) LoadTree(pageID string) (*UndoTree, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, page_id, parent_id, label, snapshot_json, created_at
		 FROM undo_nodes WHERE page_id = ? ORDER BY created_at ASC`, pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("load undo nodes: %w", err)
	}
	defer rows.Close()

	var nodes []UndoNode
	var rootID string
	for rows.Next() {
		var n UndoNode
		var parent sql.NullString
		if err := rows.Scan(&n.ID, &n.PageID, &parent, &n.Label, &n.SnapshotJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan undo node: %w", err)
		}
		if parent.Valid {
			p := parent.String
			n.ParentID = &p
		} else {
			rootID = n.ID
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return nil, nil
	}

	var currentID string
	err = s.db.Conn().QueryRow(
		`SELECT current_node_id FROM undo_state WHERE page_id = ?`, pageID,
	).Scan(&currentID)
	if err != nil {
		currentID = rootID
	}

	return &UndoTree{
		Nodes:     nodes,
		CurrentID: currentID,
		RootID:    rootID,
	}, nil
}

// PushNode records a new undo node under parentID ("" for a root) and makes
// it current.
func (s *UndoStore) PushNode(pageID, nodeID, parentID, label, snapshotJSON string) (*UndoNode, error) {
	now := time.Now()

	var pID *string
	if parentID != "" {
		pID = &parentID
	}

	_, err := s.db.Conn().Exec(
		`INSERT INTO undo_nodes (id, page_id, parent_id, label, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nodeID, pageID, pID, label, snapshotJSON, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert undo node: %w", err)
	}

	if err := s.GoTo(pageID, nodeID); err != nil {
		return nil, fmt.Errorf("update undo state: %w", err)
	}

	if err := s.prune(pageID); err != nil {
		return nil, fmt.Errorf("prune undo history: %w", err)
	}

	return &UndoNode{
		ID:           nodeID,
		PageID:       pageID,
		ParentID:     pID,
		Label:        label,
		SnapshotJSON: snapshotJSON,
		CreatedAt:    now,
	}, nil
}

// GoTo updates the current position pointer.
func (s *UndoStore) GoTo(pageID, nodeID string) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO undo_state (page_id, current_node_id) VALUES (?, ?)
		 ON CONFLICT(page_id) DO UPDATE SET current_node_id = excluded.current_node_id`,
		pageID, nodeID,
	)
	return err
}

// ClearPage removes all undo data for a page.
func (s *UndoStore) ClearPage(pageID string) error {
	if _, err := s.db.Conn().Exec(`DELETE FROM undo_state WHERE page_id = ?`, pageID); err != nil {
		return fmt.Errorf("clear undo state: %w", err)
	}
	if _, err := s.db.Conn().Exec(`DELETE FROM undo_nodes WHERE page_id = ?`, pageID); err != nil {
		return fmt.Errorf("clear undo nodes: %w", err)
	}
	return nil
}

// prune removes the oldest nodes beyond the limit, never the current one.
// Children of a removed node are re-attached to its parent.
func (s *UndoStore) prune(pageID string) error {
	var count int
	if err := s.db.Conn().QueryRow(`SELECT COUNT(*) FROM undo_nodes WHERE page_id = ?`, pageID).Scan(&count); err != nil {
		return err
	}
	if count <= s.limit {
		return nil
	}

	var currentID string
	_ = s.db.Conn().QueryRow(`SELECT current_node_id FROM undo_state WHERE page_id = ?`, pageID).Scan(&currentID)

	// Collect ids first; the single connection cannot write with a cursor open.
	rows, err := s.db.Conn().Query(
		`SELECT id FROM undo_nodes WHERE page_id = ?
		 ORDER BY created_at ASC LIMIT ?`, pageID, count-s.limit,
	)
	if err != nil {
		return err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		if id != currentID {
			ids = append(ids, id)
		}
	}
	rows.Close()

	tx, err := s.db.Conn().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, id := range ids {
		var parent sql.NullString
		if err := tx.QueryRow(`SELECT parent_id FROM undo_nodes WHERE id = ?`, id).Scan(&parent); err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE undo_nodes SET parent_id = ? WHERE parent_id = ?`, parent, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM undo_nodes WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
