package storage

import (
	"database/sql"
	"fmt"
	"time"

	"pagebuilder/internal/domain"
)

// PageStore implements domain.PageStore using SQLite.
type PageStore struct {
	db *DB
}

func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

const pageColumns = `id, title, slug, status, sort_order, published_at, created_at, updated_at`

func scanPage(row rowScanner) (domain.Page, error) {
	var p domain.Page
	var published sql.NullTime
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Status, &p.Order, &published, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return p, err
	}
	if published.Valid {
		t := published.Time
		p.PublishedAt = &t
	}
	return p, nil
}

func (s *PageStore) CreatePage(p *domain.Page) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = domain.PageStatusDraft
	}
	_, err := s.db.conn.Exec(
		`INSERT INTO pages (`+pageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Slug, p.Status, p.Order, p.PublishedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	return nil
}

func (s *PageStore) GetPage(id string) (*domain.Page, error) {
	p, err := scanPage(s.db.conn.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return &p, nil
}

func (s *PageStore) GetPageBySlug(slug string) (*domain.Page, error) {
	p, err := scanPage(s.db.conn.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE slug = ?`, slug))
	if err != nil {
		return nil, fmt.Errorf("get page by slug: %w", err)
	}
	return &p, nil
}

func (s *PageStore) ListPages() ([]domain.Page, error) {
	rows, err := s.db.conn.Query(`SELECT ` + pageColumns + ` FROM pages ORDER BY sort_order ASC, created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *PageStore) UpdatePage(p *domain.Page) error {
	p.UpdatedAt = time.Now()
	_, err := s.db.conn.Exec(
		`UPDATE pages SET title = ?, slug = ?, status = ?, sort_order = ?, published_at = ?, updated_at = ? WHERE id = ?`,
		p.Title, p.Slug, p.Status, p.Order, p.PublishedAt, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return nil
}

func (s *PageStore) DeletePage(id string) error {
	_, err := s.db.conn.Exec(`DELETE FROM pages WHERE id = ?`, id)
	return err
}

// NextOrder returns the sort_order for a page appended to the list.
func (s *PageStore) NextOrder() (int, error) {
	var max sql.NullInt64
	if err := s.db.conn.QueryRow(`SELECT MAX(sort_order) FROM pages`).Scan(&max); err != nil {
		return 0, fmt.Errorf("next page order: %w", err)
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}
