package app

import (
	"context"
	"fmt"
	"log"

	"pagebuilder/internal/config"
	"pagebuilder/internal/registry"
	"pagebuilder/internal/secret"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Stack: storage, registry and services shared by every entry point
// ─────────────────────────────────────────────────────────────

// Stack is the wired builder backend. The desktop app, the standalone MCP
// server and the CLI all open one.
type Stack struct {
	Config   *config.Config
	DB       *storage.DB
	Registry *registry.Holder
	Secrets  secret.SecretStore

	Editor    *service.EditorService
	Pages     *service.PageService
	Publish   *service.PublishService
	Settings  *service.SettingsService
	Autosaver *service.Autosaver
}

// OpenStack opens the database under cfg.DataDir and wires the services.
func OpenStack(cfg *config.Config, emitter service.EventEmitter) (*Stack, error) {
	if emitter == nil {
		emitter = service.NopEmitter{}
	}
	db, err := storage.New(cfg.DBPath(), cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	reg, err := registry.LoadCatalog(cfg.CatalogPath())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	holder := registry.NewHolder(reg)

	pageStore := storage.NewPageStore(db)
	blocks := storage.NewBlockStore(db)
	undos := storage.NewUndoStore(db, cfg.GetUndoLimit())
	secrets := secret.Default()

	editor := service.NewEditorService(pageStore, blocks, undos, holder, emitter)
	pages := service.NewPageService(pageStore, blocks, undos, editor, emitter)
	publishSvc := service.NewPublishService(editor, pages,
		storage.NewPublishTargetStore(db), storage.NewPublishLogStore(db),
		secrets, cfg.DataDir, emitter)

	s := &Stack{
		Config:    cfg,
		DB:        db,
		Registry:  holder,
		Secrets:   secrets,
		Editor:    editor,
		Pages:     pages,
		Publish:   publishSvc,
		Settings:  service.NewSettingsService(storage.NewSettingsStore(db)),
		Autosaver: service.NewAutosaver(editor, cfg.GetAutosave()),
	}
	if err := s.seedPublishTarget(); err != nil {
		log.Printf("[PUBLISH] seed target from config: %v", err)
	}
	return s, nil
}

// seedPublishTarget creates or refreshes the target named in the config.
func (s *Stack) seedPublishTarget() error {
	pc := s.Config.Publish
	if !pc.Enabled() {
		return nil
	}
	in := service.TargetInput{
		Name:     pc.GetName(),
		Driver:   pc.Driver,
		Host:     pc.Host,
		Port:     pc.Port,
		Database: pc.Database,
		Username: pc.Username,
		Password: pc.Password(),
		SSLMode:  pc.SSLMode,
		Table:    pc.Table,
	}
	if existing, err := s.Publish.ResolveTarget(in.Name); err == nil {
		return s.Publish.UpdateTarget(existing.ID, in)
	}
	_, err := s.Publish.CreateTarget(in)
	return err
}

// ReloadCatalog rebuilds the component registry from the configured catalog.
// Open sessions pick the new registry up on their next render.
func (s *Stack) ReloadCatalog() error {
	reg, err := registry.LoadCatalog(s.Config.CatalogPath())
	if err != nil {
		return err
	}
	s.Registry.Swap(reg)
	return nil
}

// Close stops autosave, flushes every open page and closes the database.
func (s *Stack) Close(ctx context.Context) error {
	s.Autosaver.Stop()
	flushErr := s.Editor.Shutdown(ctx)
	if err := s.DB.Close(); err != nil {
		return err
	}
	return flushErr
}

// InitialWindowSize reads the saved window size before the window exists.
func InitialWindowSize(cfg *config.Config) service.WindowSize {
	db, err := storage.New(cfg.DBPath(), cfg.DataDir)
	if err != nil {
		log.Printf("[APP] window size: %v", err)
		return service.NewSettingsService(nil).LoadWindowSize()
	}
	defer db.Close()
	return service.NewSettingsService(storage.NewSettingsStore(db)).LoadWindowSize()
}
