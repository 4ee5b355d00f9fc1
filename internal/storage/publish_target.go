package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pagebuilder/internal/domain"
)

// PublishTargetStore manages publish target records in SQLite.
type PublishTargetStore struct {
	db *DB
}

// NewPublishTargetStore creates a new PublishTargetStore.
func NewPublishTargetStore(db *DB) *PublishTargetStore {
	return &PublishTargetStore{db: db}
}

const targetColumns = `id, name, driver, host, port, database_name, username, ssl_mode, table_name, created_at, updated_at`

func scanTarget(row rowScanner) (*domain.PublishTarget, error) {
	t := &domain.PublishTarget{}
	err := row.Scan(&t.ID, &t.Name, &t.Driver, &t.Host, &t.Port, &t.Database, &t.Username, &t.SSLMode, &t.Table, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *PublishTargetStore) CreateTarget(t *domain.PublishTarget) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.Conn().Exec(
		`INSERT INTO publish_targets (`+targetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Driver, t.Host, t.Port, t.Database, t.Username, t.SSLMode, t.Table, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create publish target: %w", err)
	}
	return nil
}

func (s *PublishTargetStore) GetTarget(id string) (*domain.PublishTarget, error) {
	t, err := scanTarget(s.db.Conn().QueryRow(`SELECT `+targetColumns+` FROM publish_targets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("publish target not found: %s", id)
	}
	return t, err
}

func (s *PublishTargetStore) GetTargetByName(name string) (*domain.PublishTarget, error) {
	t, err := scanTarget(s.db.Conn().QueryRow(`SELECT `+targetColumns+` FROM publish_targets WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("publish target not found: %s", name)
	}
	return t, err
}

func (s *PublishTargetStore) ListTargets() ([]domain.PublishTarget, error) {
	rows, err := s.db.Conn().Query(`SELECT ` + targetColumns + ` FROM publish_targets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []domain.PublishTarget
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, *t)
	}
	return targets, rows.Err()
}

func (s *PublishTargetStore) UpdateTarget(t *domain.PublishTarget) error {
	t.UpdatedAt = time.Now()
	_, err := s.db.Conn().Exec(
		`UPDATE publish_targets SET name=?, driver=?, host=?, port=?, database_name=?, username=?, ssl_mode=?, table_name=?, updated_at=?
		 WHERE id=?`,
		t.Name, t.Driver, t.Host, t.Port, t.Database, t.Username, t.SSLMode, t.Table, t.UpdatedAt, t.ID,
	)
	return err
}

func (s *PublishTargetStore) DeleteTarget(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM publish_targets WHERE id = ?`, id)
	return err
}
