package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Page Service: page list, metadata and deletion
// ─────────────────────────────────────────────────────────────

// PageService manages pages. Block editing lives in EditorService.
type PageService struct {
	store   *storage.PageStore
	blocks  *storage.BlockStore
	undos   *storage.UndoStore
	editor  *EditorService
	emitter EventEmitter
}

// NewPageService creates a PageService.
func NewPageService(
	store *storage.PageStore,
	blocks *storage.BlockStore,
	undos *storage.UndoStore,
	editor *EditorService,
	emitter EventEmitter,
) *PageService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &PageService{
		store:   store,
		blocks:  blocks,
		undos:   undos,
		editor:  editor,
		emitter: emitter,
	}
}

func (s *PageService) ListPages() ([]domain.Page, error) {
	return s.store.ListPages()
}

func (s *PageService) GetPage(id string) (*domain.Page, error) {
	return s.store.GetPage(id)
}

// ResolvePage accepts a page id or slug.
func (s *PageService) ResolvePage(ref string) (*domain.Page, error) {
	if p, err := s.store.GetPage(ref); err == nil {
		return p, nil
	}
	p, err := s.store.GetPageBySlug(ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page %q not found", ref)
	}
	return p, err
}

// CreatePage appends a draft page. An empty slug is derived from the title
// and made unique with a numeric suffix.
func (s *PageService) CreatePage(ctx context.Context, title, slug string) (*domain.Page, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("create page: title is required")
	}
	if slug == "" {
		slug = Slugify(title)
	} else {
		slug = Slugify(slug)
	}
	unique, err := s.uniqueSlug(slug, "")
	if err != nil {
		return nil, err
	}
	order, err := s.store.NextOrder()
	if err != nil {
		return nil, err
	}
	p := &domain.Page{
		ID:     uuid.New().String(),
		Title:  title,
		Slug:   unique,
		Status: domain.PageStatusDraft,
		Order:  order,
	}
	if err := s.store.CreatePage(p); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventPagesChanged, nil)
	return p, nil
}

func (s *PageService) RenamePage(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("rename page: title is required")
	}
	p, err := s.store.GetPage(id)
	if err != nil {
		return err
	}
	p.Title = title
	if err := s.store.UpdatePage(p); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventPagesChanged, nil)
	return nil
}

// SetStatus moves a page between draft and published. Publishing stamps
// PublishedAt; the publish pipeline calls this after a successful push.
func (s *PageService) SetStatus(ctx context.Context, id string, status domain.PageStatus) error {
	if !status.Valid() {
		return fmt.Errorf("set page status: invalid status %q", status)
	}
	p, err := s.store.GetPage(id)
	if err != nil {
		return err
	}
	p.Status = status
	if status == domain.PageStatusPublished {
		now := time.Now()
		p.PublishedAt = &now
	}
	if err := s.store.UpdatePage(p); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventPagesChanged, nil)
	return nil
}

// DeletePage removes the page, its blocks and its undo history.
func (s *PageService) DeletePage(ctx context.Context, id string) error {
	if s.editor != nil {
		s.editor.Discard(id)
	}
	if err := s.blocks.DeleteBlocksByPage(id); err != nil {
		return fmt.Errorf("delete page blocks: %w", err)
	}
	if err := s.undos.ClearPage(id); err != nil {
		return err
	}
	if err := s.store.DeletePage(id); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	s.emitter.Emit(ctx, EventPagesChanged, nil)
	return nil
}

func (s *PageService) uniqueSlug(base, exceptID string) (string, error) {
	candidate := base
	for i := 2; ; i++ {
		p, err := s.store.GetPageBySlug(candidate)
		if errors.Is(err, sql.ErrNoRows) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if p.ID == exceptID {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// Slugify lowercases s and collapses every run of non-alphanumerics to "-".
func Slugify(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(sb.String(), "-")
	if out == "" {
		return "page"
	}
	return out
}

// SetSlug changes the page's URL slug, keeping it unique.
func (s *PageService) SetSlug(ctx context.Context, id, slug string) (string, error) {
	p, err := s.store.GetPage(id)
	if err != nil {
		return "", err
	}
	unique, err := s.uniqueSlug(Slugify(slug), id)
	if err != nil {
		return "", err
	}
	p.Slug = unique
	if err := s.store.UpdatePage(p); err != nil {
		return "", err
	}
	s.emitter.Emit(ctx, EventPagesChanged, nil)
	return unique, nil
}
