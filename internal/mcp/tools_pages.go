package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPageTools() {
	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List all pages with their id, title, slug and status"),
	), s.handleListPages)

	// ── create_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create a new draft page and make it the active page"),
		mcp.WithString("title", mcp.Description("Page title"), mcp.Required()),
		mcp.WithString("slug", mcp.Description("URL slug (optional, derived from the title)")),
	), s.handleCreatePage)

	// ── set_active_page ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_page",
		mcp.WithDescription("Set the page that subsequent tools operate on when pageId is omitted"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
	), s.handleSetActivePage)
}

// ── Handlers ───────────────────────────────────────────────

type pageSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
	Active bool   `json:"active,omitempty"`
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.pages.ListPages()
	if err != nil {
		return nil, err
	}
	active := s.ActivePage()
	out := make([]pageSummary, 0, len(pages))
	for _, p := range pages {
		out = append(out, pageSummary{
			ID:     p.ID,
			Title:  p.Title,
			Slug:   p.Slug,
			Status: string(p.Status),
			Active: p.ID == active,
		})
	}
	return jsonResult(out)
}

func (s *Server) handleCreatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	title, err := requireString(args, "title")
	if err != nil {
		return nil, err
	}
	slug, _ := args["slug"].(string)

	page, err := s.pages.CreatePage(ctx, title, slug)
	if err != nil {
		return nil, err
	}
	s.setActivePage(ctx, page.ID)
	return jsonResult(pageSummary{ID: page.ID, Title: page.Title, Slug: page.Slug, Status: string(page.Status), Active: true})
}

func (s *Server) handleSetActivePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireString(req.GetArguments(), "pageId")
	if err != nil {
		return nil, err
	}
	if _, err := s.editor.Open(pageID); err != nil {
		return nil, err
	}
	s.setActivePage(ctx, pageID)
	page, err := s.editor.Page(pageID)
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Active page set to %q (%s)", page.Title, pageID)), nil
}
