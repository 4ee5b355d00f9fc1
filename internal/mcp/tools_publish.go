package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPublishTools() {
	// ── list_publish_targets ───────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_publish_targets",
		mcp.WithDescription("List configured publish targets (passwords are never returned)"),
	), s.handleListTargets)

	// ── publish_page ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("publish_page",
		mcp.WithDescription("Save the page and push its blocks and rendered HTML to a publish target"),
		mcp.WithString("target", mcp.Description("Target ID or name"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handlePublishPage)
}

type targetSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Driver string `json:"driver"`
	Table  string `json:"table"`
}

func (s *Server) handleListTargets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	targets, err := s.publish.ListTargets()
	if err != nil {
		return nil, err
	}
	out := make([]targetSummary, 0, len(targets))
	for _, t := range targets {
		out = append(out, targetSummary{ID: t.ID, Name: t.Name, Driver: string(t.Driver), Table: t.Table})
	}
	return jsonResult(out)
}

func (s *Server) handlePublishPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	ref, err := requireString(args, "target")
	if err != nil {
		return nil, err
	}
	rec, err := s.publish.Publish(ctx, pageID, ref)
	if err != nil {
		return nil, fmt.Errorf("publish page %s: %w", pageID, err)
	}
	return jsonResult(rec)
}
