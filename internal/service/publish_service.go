package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pagebuilder/internal/canvas"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/publish"
	"pagebuilder/internal/secret"
	"pagebuilder/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Publish Service: targets, pushes and static export
// ─────────────────────────────────────────────────────────────

// TargetInput is the service-layer DTO for creating/updating publish targets.
type TargetInput struct {
	Name     string `json:"name"`
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
	Table    string `json:"table"`
}

// SinkFactory opens a sink for a target; publish.NewSink in production.
type SinkFactory func(t *domain.PublishTarget, password string) (publish.Sink, error)

// PublishService renders pages in preview mode and pushes them to targets.
type PublishService struct {
	editor  *EditorService
	pages   *PageService
	targets *storage.PublishTargetStore
	logs    *storage.PublishLogStore
	secrets secret.SecretStore
	dataDir string
	emitter EventEmitter
	newSink SinkFactory
}

// NewPublishService creates a PublishService.
func NewPublishService(
	editor *EditorService,
	pages *PageService,
	targets *storage.PublishTargetStore,
	logs *storage.PublishLogStore,
	secrets secret.SecretStore,
	dataDir string,
	emitter EventEmitter,
) *PublishService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &PublishService{
		editor:  editor,
		pages:   pages,
		targets: targets,
		logs:    logs,
		secrets: secrets,
		dataDir: dataDir,
		emitter: emitter,
		newSink: publish.NewSink,
	}
}

// SetSinkFactory replaces how sinks are opened.
func (s *PublishService) SetSinkFactory(f SinkFactory) { s.newSink = f }

// ── Targets ────────────────────────────────────────────────

func validDriver(d domain.PublishDriver) bool {
	switch d {
	case domain.PublishDriverMySQL, domain.PublishDriverPostgres,
		domain.PublishDriverMongoDB, domain.PublishDriverSQLite:
		return true
	}
	return false
}

func (s *PublishService) applyInput(t *domain.PublishTarget, in TargetInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("publish target: name is required")
	}
	driver := domain.PublishDriver(in.Driver)
	if !validDriver(driver) {
		return fmt.Errorf("publish target: unsupported driver %q", in.Driver)
	}
	table := in.Table
	if table == "" {
		table = publish.DefaultTablePrefix
	}
	if err := publish.ValidateTablePrefix(table); err != nil {
		return fmt.Errorf("publish target: %w", err)
	}
	t.Name = in.Name
	t.Driver = driver
	t.Host = in.Host
	t.Port = in.Port
	t.Database = in.Database
	t.Username = in.Username
	t.SSLMode = in.SSLMode
	t.Table = table
	return nil
}

func (s *PublishService) ListTargets() ([]domain.PublishTarget, error) {
	return s.targets.ListTargets()
}

func (s *PublishService) CreateTarget(in TargetInput) (*domain.PublishTarget, error) {
	t := &domain.PublishTarget{ID: uuid.New().String()}
	if err := s.applyInput(t, in); err != nil {
		return nil, err
	}
	if err := s.targets.CreateTarget(t); err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	if in.Password != "" && s.secrets != nil {
		if err := s.secrets.Set(secret.TargetKey(t.ID), []byte(in.Password)); err != nil {
			return nil, fmt.Errorf("store target password: %w", err)
		}
	}
	return t, nil
}

func (s *PublishService) UpdateTarget(id string, in TargetInput) error {
	t, err := s.targets.GetTarget(id)
	if err != nil {
		return err
	}
	if err := s.applyInput(t, in); err != nil {
		return err
	}
	if err := s.targets.UpdateTarget(t); err != nil {
		return err
	}
	if in.Password != "" && s.secrets != nil {
		return s.secrets.Set(secret.TargetKey(id), []byte(in.Password))
	}
	return nil
}

func (s *PublishService) DeleteTarget(id string) error {
	if s.secrets != nil {
		_ = s.secrets.Delete(secret.TargetKey(id))
	}
	return s.targets.DeleteTarget(id)
}

// ResolveTarget accepts a target id or name.
func (s *PublishService) ResolveTarget(ref string) (*domain.PublishTarget, error) {
	if t, err := s.targets.GetTarget(ref); err == nil {
		return t, nil
	}
	t, err := s.targets.GetTargetByName(ref)
	if err != nil {
		return nil, fmt.Errorf("publish target %q not found", ref)
	}
	return t, nil
}

func (s *PublishService) openSink(t *domain.PublishTarget) (publish.Sink, error) {
	var password string
	if s.secrets != nil {
		pw, err := s.secrets.Get(secret.TargetKey(t.ID))
		if err != nil {
			return nil, err
		}
		password = string(pw)
	}
	return s.newSink(t, password)
}

// TestTarget opens the target and pings it.
func (s *PublishService) TestTarget(ctx context.Context, ref string) error {
	t, err := s.ResolveTarget(ref)
	if err != nil {
		return err
	}
	sink, err := s.openSink(t)
	if err != nil {
		return err
	}
	defer sink.Close()
	return sink.Test(ctx)
}

// ── Publishing ─────────────────────────────────────────────

// Document flushes pageID and returns it as it would be published: only
// visible blocks reach the HTML, all blocks reach the block rows.
func (s *PublishService) Document(ctx context.Context, pageID string) (*publish.Document, error) {
	if err := s.editor.Flush(ctx, pageID); err != nil {
		return nil, err
	}
	page, err := s.editor.Page(pageID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.editor.Blocks(pageID)
	if err != nil {
		return nil, err
	}
	html, err := s.editor.RenderHTML(pageID, canvas.ModePreview)
	if err != nil {
		return nil, err
	}
	return &publish.Document{Page: *page, Blocks: blocks, HTML: html}, nil
}

// Publish pushes pageID to the target named by ref, logs the attempt,
// exports the static HTML and marks the page published.
func (s *PublishService) Publish(ctx context.Context, pageID, ref string) (*domain.PublishRecord, error) {
	t, err := s.ResolveTarget(ref)
	if err != nil {
		return nil, err
	}
	doc, err := s.Document(ctx, pageID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rec := &domain.PublishRecord{ID: uuid.New().String(), PageID: pageID, TargetID: t.ID}
	res, pubErr := s.push(ctx, t, doc)
	rec.DurationMs = int(time.Since(start).Milliseconds())
	if pubErr != nil {
		rec.Error = pubErr.Error()
	} else {
		rec.Upserted = res.Upserted
		rec.Deleted = res.Deleted
	}
	if err := s.logs.AddRecord(rec); err != nil {
		log.Printf("[PUBLISH] record log for %s failed: %v", pageID, err)
	}
	if pubErr != nil {
		log.Printf("[PUBLISH] page %s to %s failed: %v", pageID, t.Name, pubErr)
		return rec, fmt.Errorf("publish page %s: %w", pageID, pubErr)
	}

	if _, err := s.writeHTML(doc); err != nil {
		return rec, err
	}
	if err := s.pages.SetStatus(ctx, pageID, domain.PageStatusPublished); err != nil {
		return rec, err
	}
	s.emitter.Emit(ctx, EventPublished, rec)
	return rec, nil
}

func (s *PublishService) push(ctx context.Context, t *domain.PublishTarget, doc *publish.Document) (*publish.Result, error) {
	sink, err := s.openSink(t)
	if err != nil {
		return nil, err
	}
	defer sink.Close()
	return sink.Publish(ctx, doc)
}

// ExportHTML writes the page's preview HTML under dataDir/published and
// returns the file path.
func (s *PublishService) ExportHTML(ctx context.Context, pageID string) (string, error) {
	doc, err := s.Document(ctx, pageID)
	if err != nil {
		return "", err
	}
	return s.writeHTML(doc)
}

func (s *PublishService) writeHTML(doc *publish.Document) (string, error) {
	dir := filepath.Join(s.dataDir, "published")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create publish dir: %w", err)
	}
	path := filepath.Join(dir, doc.Page.Slug+".html")
	if err := os.WriteFile(path, []byte(StandaloneHTML(doc.Page.Title, doc.HTML)), 0644); err != nil {
		return "", fmt.Errorf("write published html: %w", err)
	}
	log.Printf("[PUBLISH] exported %s", path)
	return path, nil
}

// History lists the latest publish attempts of pageID.
func (s *PublishService) History(pageID string, limit int) ([]domain.PublishRecord, error) {
	return s.logs.ListRecords(pageID, limit)
}

// StandaloneHTML wraps a rendered body in a minimal document.
func StandaloneHTML(title, body string) string {
	return "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n" +
		"<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n" +
		"<title>" + html.EscapeString(title) + "</title>\n</head>\n<body>\n" +
		body + "\n</body>\n</html>\n"
}
