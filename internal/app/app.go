package app

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"pagebuilder/internal/config"
	mcpserver "pagebuilder/internal/mcp"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context
	cfg *config.Config

	stack    *Stack
	watcher  *pageWatcher
	catalog  *catalogWatcher
	approval *mcpserver.ApprovalQueue
	mcpHTTP  *server.StreamableHTTPServer
}

// New creates a new App over cfg.
func New(cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &App{cfg: cfg}
}

// Emit forwards service events to the frontend.
func (a *App) Emit(_ context.Context, event string, data any) {
	if a.ctx == nil {
		return
	}
	wailsRuntime.EventsEmit(a.ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	stack, err := OpenStack(a.cfg, a)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open builder: %v", err)
		return
	}
	a.stack = stack
	a.approval = mcpserver.NewApprovalQueue(a, 0)

	if err := stack.Autosaver.Start(ctx); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start autosave: %v", err)
	}

	a.watcher = newPageWatcher(ctx, stack.Editor, a.cfg.GetPollInterval())
	a.watcher.Start()

	if path := a.cfg.CatalogPath(); path != "" {
		cw, err := newCatalogWatcher(path, func() error {
			if err := stack.ReloadCatalog(); err != nil {
				return err
			}
			a.Emit(ctx, EventCatalogReloaded, nil)
			return nil
		})
		if err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to watch catalog: %v", err)
		}
		a.catalog = cw
	}

	if addr := a.cfg.MCPAddr; addr != "" {
		a.startMCP(addr)
	}

	if last := stack.Settings.LastPage(); last != "" {
		if _, err := stack.Editor.Open(last); err != nil {
			log.Printf("[BUILDER] reopen last page %s: %v", last, err)
		}
	}
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.mcpHTTP != nil {
		if err := a.mcpHTTP.Shutdown(ctx); err != nil {
			log.Printf("[MCP] http shutdown: %v", err)
		}
	}
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.catalog != nil {
		a.catalog.Close()
	}
	if a.stack == nil {
		return
	}
	if w, h := wailsRuntime.WindowGetSize(ctx); w > 0 && h > 0 {
		if err := a.stack.Settings.SaveWindowSize(w, h); err != nil {
			log.Printf("[BUILDER] save window size: %v", err)
		}
	}
	if err := a.stack.Close(ctx); err != nil {
		log.Printf("[BUILDER] shutdown: %v", err)
	}
}

// ── MCP ────────────────────────────────────────────────────

// startMCP serves the MCP tools over HTTP from inside the app. Destructive
// calls wait for ApproveAction/RejectAction from the frontend.
func (a *App) startMCP(addr string) {
	srv := mcpserver.New(mcpserver.Deps{
		Emitter:  a,
		Editor:   a.stack.Editor,
		Pages:    a.stack.Pages,
		Publish:  a.stack.Publish,
		Approval: a.approval,
	})
	a.mcpHTTP = srv.HTTPServer()
	go func() {
		log.Printf("[MCP] Starting http server on %s", addr)
		if err := a.mcpHTTP.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[MCP] http server: %v", err)
		}
	}()
}

// ApproveAction answers a pending destructive MCP tool call.
func (a *App) ApproveAction(actionID string) {
	a.approval.Approve(actionID)
}

// RejectAction refuses a pending destructive MCP tool call.
func (a *App) RejectAction(actionID string) {
	a.approval.Reject(actionID)
}
