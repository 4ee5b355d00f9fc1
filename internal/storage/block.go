package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"pagebuilder/internal/domain"
)

// BlockStore implements domain.BlockStore using SQLite.
type BlockStore struct {
	db *DB
}

func NewBlockStore(db *DB) *BlockStore {
	return &BlockStore{db: db}
}

const blockColumns = `id, page_id, component_name, parent_block_id, sort_order, is_visible, props_json, custom_css, custom_classes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlock(row rowScanner) (domain.Block, error) {
	var b domain.Block
	var parent sql.NullString
	var propsJSON string
	if err := row.Scan(&b.ID, &b.PageID, &b.ComponentName, &parent, &b.SortOrder, &b.IsVisible,
		&propsJSON, &b.CustomCSS, &b.CustomClasses, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return b, err
	}
	if parent.Valid && parent.String != "" {
		p := parent.String
		b.ParentBlockID = &p
	}
	b.Props = domain.Props{}
	if propsJSON != "" {
		if err := json.Unmarshal([]byte(propsJSON), &b.Props); err != nil {
			return b, fmt.Errorf("decode props of block %s: %w", b.ID, err)
		}
	}
	return b, nil
}

func encodeProps(p domain.Props) (string, error) {
	if p == nil {
		return "{}", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *BlockStore) GetBlock(id string) (*domain.Block, error) {
	b, err := scanBlock(s.db.Conn().QueryRow(`SELECT `+blockColumns+` FROM blocks WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get block: %w", err)
	}
	return &b, nil
}

// ListBlocks returns the flat block list of a page grouped by parent and
// ordered by sort_order within each group.
func (s *BlockStore) ListBlocks(pageID string) ([]domain.Block, error) {
	rows, err := s.db.Conn().Query(
		`SELECT `+blockColumns+` FROM blocks WHERE page_id = ?
		 ORDER BY COALESCE(parent_block_id, ''), sort_order ASC, id ASC`,
		pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []domain.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// ApplyChanges writes one mutation batch in a single transaction: explicit
// deletions first, then upserts. Either everything lands or nothing does.
func (s *BlockStore) ApplyChanges(pageID string, upserts []domain.Block, deletedIDs []string) error {
	if len(upserts) == 0 && len(deletedIDs) == 0 {
		return nil
	}
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, id := range deletedIDs {
		if _, err := tx.Exec(`DELETE FROM blocks WHERE id = ? AND page_id = ?`, id, pageID); err != nil {
			return fmt.Errorf("delete block %s: %w", id, err)
		}
	}
	for _, b := range upserts {
		if err := upsertBlock(tx, pageID, b); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`UPDATE pages SET updated_at = ? WHERE id = ?`, time.Now(), pageID); err != nil {
		return fmt.Errorf("touch page: %w", err)
	}
	return tx.Commit()
}

func upsertBlock(tx *sql.Tx, pageID string, b domain.Block) error {
	props, err := encodeProps(b.Props)
	if err != nil {
		return fmt.Errorf("encode props of block %s: %w", b.ID, err)
	}
	now := time.Now()
	created := b.CreatedAt
	if created.IsZero() {
		created = now
	}
	updated := b.UpdatedAt
	if updated.IsZero() {
		updated = now
	}
	_, err = tx.Exec(
		`INSERT INTO blocks (`+blockColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			component_name = excluded.component_name,
			parent_block_id = excluded.parent_block_id,
			sort_order = excluded.sort_order,
			is_visible = excluded.is_visible,
			props_json = excluded.props_json,
			custom_css = excluded.custom_css,
			custom_classes = excluded.custom_classes,
			updated_at = excluded.updated_at
		 WHERE blocks.page_id = excluded.page_id`,
		b.ID, pageID, b.ComponentName, b.ParentBlockID, b.SortOrder, b.IsVisible,
		props, b.CustomCSS, b.CustomClasses, created, updated,
	)
	if err != nil {
		return fmt.Errorf("upsert block %s: %w", b.ID, err)
	}
	return nil
}

func (s *BlockStore) DeleteBlocksByPage(pageID string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM blocks WHERE page_id = ?`, pageID)
	return err
}

// ReplacePageBlocks atomically replaces all blocks for a page.
// Used by undo/redo to fully sync DB with a snapshot.
func (s *BlockStore) ReplacePageBlocks(pageID string, blocks []domain.Block) error {
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM blocks WHERE page_id = ?`, pageID); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}
	for _, b := range blocks {
		if err := upsertBlock(tx, pageID, b); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`UPDATE pages SET updated_at = ? WHERE id = ?`, time.Now(), pageID); err != nil {
		return fmt.Errorf("touch page: %w", err)
	}
	return tx.Commit()
}

// Fingerprint summarizes a page's blocks (count and latest update) so a
// watcher can notice writes made by another process.
func (s *BlockStore) Fingerprint(pageID string) (string, error) {
	var count int
	var latest string
	err := s.db.Conn().QueryRow(
		`SELECT COUNT(*), COALESCE(CAST(MAX(updated_at) AS TEXT), '') FROM blocks WHERE page_id = ?`, pageID,
	).Scan(&count, &latest)
	if err != nil {
		return "", fmt.Errorf("block fingerprint: %w", err)
	}
	var pageUpdated string
	err = s.db.Conn().QueryRow(
		`SELECT COALESCE(CAST(updated_at AS TEXT), '') FROM pages WHERE id = ?`, pageID,
	).Scan(&pageUpdated)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("page fingerprint: %w", err)
	}
	return fmt.Sprintf("%d:%s:%s", count, latest, pageUpdated), nil
}
