package publish

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"pagebuilder/internal/domain"
)

// sqlSink is the shared implementation for MySQL, Postgres, and SQLite.
// Pages land in {prefix}_pages and blocks in {prefix}_blocks.
type sqlSink struct {
	driverName string
	db         *sql.DB
	prefix     string
}

func newSQLSink(driverName, dsn, prefix string) (*sqlSink, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)
	return &sqlSink{driverName: driverName, db: db, prefix: prefix}, nil
}

func newSQLiteSink(t *domain.PublishTarget, prefix string) (*sqlSink, error) {
	if t.Host == "" {
		return nil, fmt.Errorf("sqlite target %q: file path is required", t.Name)
	}
	s, err := newSQLSink("sqlite", buildSQLiteDSN(t), prefix)
	if err != nil {
		return nil, err
	}
	s.db.SetMaxOpenConns(1)
	return s, nil
}

func (s *sqlSink) pagesTable() string  { return s.prefix + "_pages" }
func (s *sqlSink) blocksTable() string { return s.prefix + "_blocks" }

func (s *sqlSink) Test(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

// placeholders returns n bind markers in the driver's dialect.
func placeholders(driverName string, n int) string {
	marks := make([]string, n)
	for i := range marks {
		if driverName == "postgres" {
			marks[i] = fmt.Sprintf("$%d", i+1)
		} else {
			marks[i] = "?"
		}
	}
	return strings.Join(marks, ", ")
}

// schema returns the CREATE TABLE statements for the sink's dialect.
func (s *sqlSink) schema() []string {
	text := "TEXT"
	if s.driverName == "mysql" {
		text = "LONGTEXT"
	}
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			slug VARCHAR(255) NOT NULL,
			status VARCHAR(32) NOT NULL,
			html %s NOT NULL,
			published_at VARCHAR(40) NOT NULL
		)`, s.pagesTable(), text),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			page_id VARCHAR(64) NOT NULL,
			component_name VARCHAR(255) NOT NULL,
			parent_block_id VARCHAR(64),
			sort_order INTEGER NOT NULL,
			is_visible INTEGER NOT NULL,
			props_json %s NOT NULL,
			custom_css %s NOT NULL,
			custom_classes %s NOT NULL
		)`, s.blocksTable(), text, text, text),
	}
}

func (s *sqlSink) Publish(ctx context.Context, doc *Document) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result := &Result{}
	pageID := doc.Page.ID

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE page_id = %s", s.blocksTable(), placeholders(s.driverName, 1)),
		pageID)
	if err != nil {
		return nil, fmt.Errorf("delete blocks: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		result.Deleted = int(n)
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = %s", s.pagesTable(), placeholders(s.driverName, 1)),
		pageID); err != nil {
		return nil, fmt.Errorf("delete page: %w", err)
	}

	publishedAt := time.Now().UTC()
	if doc.Page.PublishedAt != nil {
		publishedAt = doc.Page.PublishedAt.UTC()
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, title, slug, status, html, published_at) VALUES (%s)",
			s.pagesTable(), placeholders(s.driverName, 6)),
		pageID, doc.Page.Title, doc.Page.Slug, string(domain.PageStatusPublished), doc.HTML,
		publishedAt.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("insert page: %w", err)
	}

	insertBlock := fmt.Sprintf(`INSERT INTO %s (id, page_id, component_name, parent_block_id,
		sort_order, is_visible, props_json, custom_css, custom_classes) VALUES (%s)`,
		s.blocksTable(), placeholders(s.driverName, 9))
	for _, b := range doc.Blocks {
		propsJSON, err := json.Marshal(b.Props)
		if err != nil {
			return nil, fmt.Errorf("marshal props %s: %w", b.ID, err)
		}
		var parent any
		if b.ParentBlockID != nil {
			parent = *b.ParentBlockID
		}
		visible := 0
		if b.IsVisible {
			visible = 1
		}
		if _, err := tx.ExecContext(ctx, insertBlock,
			b.ID, pageID, b.ComponentName, parent, b.SortOrder, visible,
			string(propsJSON), b.CustomCSS, b.CustomClasses); err != nil {
			return nil, fmt.Errorf("insert block %s: %w", b.ID, err)
		}
		result.Upserted++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	log.Printf("[PUBLISH] %s: page %s -> %s (%d blocks, %d replaced)",
		s.driverName, pageID, s.prefix, result.Upserted, result.Deleted)
	return result, nil
}

func (s *sqlSink) Close() error {
	return s.db.Close()
}
