package storage

import (
	"fmt"
	"time"

	"pagebuilder/internal/domain"
)

// PublishLogStore records publish attempts in SQLite.
type PublishLogStore struct {
	db *DB
}

func NewPublishLogStore(db *DB) *PublishLogStore {
	return &PublishLogStore{db: db}
}

func (s *PublishLogStore) AddRecord(r *domain.PublishRecord) error {
	if r.PublishedAt.IsZero() {
		r.PublishedAt = time.Now()
	}
	_, err := s.db.Conn().Exec(
		`INSERT INTO publish_log (id, page_id, target_id, upserted, deleted, duration_ms, error, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.PageID, r.TargetID, r.Upserted, r.Deleted, r.DurationMs, r.Error, r.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("add publish record: %w", err)
	}
	return nil
}

// ListRecords returns the newest records of a page first.
func (s *PublishLogStore) ListRecords(pageID string, limit int) ([]domain.PublishRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Conn().Query(
		`SELECT id, page_id, target_id, upserted, deleted, duration_ms, error, published_at
		 FROM publish_log WHERE page_id = ? ORDER BY published_at DESC LIMIT ?`, pageID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list publish records: %w", err)
	}
	defer rows.Close()

	var out []domain.PublishRecord
	for rows.Next() {
		var r domain.PublishRecord
		if err := rows.Scan(&r.ID, &r.PageID, &r.TargetID, &r.Upserted, &r.Deleted, &r.DurationMs, &r.Error, &r.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
