package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"pagebuilder/internal/service"
)

// EventActivePage is emitted when an agent switches the page it works on.
const EventActivePage = "mcp:active-page"

// Server is the MCP server for the page builder.
// It exposes tools, resources, and prompts so AI agents can edit pages.
type Server struct {
	mcp      *server.MCPServer
	emitter  service.EventEmitter
	approval *ApprovalQueue

	editor  *service.EditorService
	pages   *service.PageService
	publish *service.PublishService

	// Active page context (set by set_active_page / create_page)
	mu           sync.Mutex
	activePageID string
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter service.EventEmitter
	Editor  *service.EditorService
	Pages   *service.PageService
	Publish *service.PublishService // optional; publish_page is skipped without it
	// Approval gates destructive tools. Nil (standalone mode) approves everything.
	Approval *ApprovalQueue
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	emitter := deps.Emitter
	if emitter == nil {
		emitter = service.NopEmitter{}
	}
	s := &Server{
		emitter:  emitter,
		approval: deps.Approval,
		editor:   deps.Editor,
		pages:    deps.Pages,
		publish:  deps.Publish,
	}

	s.mcp = server.NewMCPServer(
		"pagebuilder-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerPageTools()
	s.registerBlockTools()
	s.registerEditTools()
	if s.publish != nil {
		s.registerPublishTools()
	}
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// HTTPServer returns a streamable HTTP transport over the same tools, used
// when the desktop app hosts MCP itself.
func (s *Server) HTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s.mcp)
}

// ActivePage returns the page tools default to.
func (s *Server) ActivePage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePageID
}

func (s *Server) setActivePage(ctx context.Context, pageID string) {
	s.mu.Lock()
	s.activePageID = pageID
	s.mu.Unlock()
	s.emitter.Emit(ctx, EventActivePage, pageID)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolvePageID returns the pageId from tool args or falls back to the active page.
func (s *Server) resolvePageID(args map[string]any) (string, error) {
	if pid, ok := args["pageId"].(string); ok && pid != "" {
		return pid, nil
	}
	if pid := s.ActivePage(); pid != "" {
		return pid, nil
	}
	return "", fmt.Errorf("no pageId provided and no active page set (use set_active_page first)")
}

// requireString returns a non-empty string argument.
func requireString(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// optionalParent reads a parent id argument; "" means the page root.
func optionalParent(args map[string]any, key string) *string {
	v, _ := args[key].(string)
	if v == "" {
		return nil
	}
	return &v
}

func boolPtr(v bool) *bool { return &v }
