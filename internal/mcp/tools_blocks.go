package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/canvas"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/tree"
)

func (s *Server) registerBlockTools() {
	// ── list_components ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_components",
		mcp.WithDescription("List the registered components that blocks can be built from"),
	), s.handleListComponents)

	// ── get_block_tree ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_block_tree",
		mcp.WithDescription("Return the page's blocks as a nested tree in display order"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleGetBlockTree)

	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Append a new block at the end of the page root or of a container block"),
		mcp.WithString("component", mcp.Description("Component name, see list_components"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("parentId", mcp.Description("Container block ID (optional, root when omitted)")),
		mcp.WithObject("props", mcp.Description("Initial props (optional, component defaults when omitted)")),
	), s.handleAddBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a block and all of its descendants. May require user approval."),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)

	// ── duplicate_block ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("duplicate_block",
		mcp.WithDescription("Deep-copy a block and its subtree right after the original"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleDuplicateBlock)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Swap a block with its previous or next sibling"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("direction", mcp.Description("up or down"), mcp.Required(), mcp.Enum("up", "down")),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleMoveBlock)

	// ── reparent_block ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reparent_block",
		mcp.WithDescription("Move a block under a new parent at a position (0-based, clamped)"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("parentId", mcp.Description("New container block ID (empty for the page root)")),
		mcp.WithNumber("index", mcp.Description("Position among the new siblings (default: end)")),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleReparentBlock)

	// ── set_block_visibility ───────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_block_visibility",
		mcp.WithDescription("Show or hide a block in preview and published output"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithBoolean("visible", mcp.Description("Visibility"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleSetVisibility)

	// ── update_block_props ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block_props",
		mcp.WithDescription("Replace a block's props; customCss and customClasses are optional presentation overrides"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithObject("props", mcp.Description("Full props object"), mcp.Required()),
		mcp.WithString("customCss", mcp.Description("Inline declarations, e.g. color:red;padding:8px (optional)")),
		mcp.WithString("customClasses", mcp.Description("Space separated class names (optional)")),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleUpdateProps)

	// ── render_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_page",
		mcp.WithDescription("Render the page to HTML in edit or preview mode"),
		mcp.WithString("mode", mcp.Description("edit or preview (default preview)"), mcp.Enum("edit", "preview")),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleRenderPage)
}

// ── Result shapes ──────────────────────────────────────────

type componentSummary struct {
	Name         string       `json:"name"`
	DisplayName  string       `json:"displayName"`
	Category     string       `json:"category,omitempty"`
	Container    bool         `json:"container"`
	DefaultProps domain.Props `json:"defaultProps,omitempty"`
}

type treeNode struct {
	ID        string       `json:"id"`
	Component string       `json:"component"`
	Visible   bool         `json:"visible"`
	Props     domain.Props `json:"props,omitempty"`
	Children  []*treeNode  `json:"children,omitempty"`
}

type changeSummary struct {
	Outcome  string   `json:"outcome"`
	BlockID  string   `json:"blockId,omitempty"`
	Upserted []string `json:"upserted,omitempty"`
	Deleted  []string `json:"deleted,omitempty"`
}

func summarizeChange(c tree.Change) changeSummary {
	out := changeSummary{Outcome: c.Outcome.String(), BlockID: c.Affected, Deleted: c.Deleted}
	for _, b := range c.Upserted {
		out.Upserted = append(out.Upserted, b.ID)
	}
	return out
}

// buildTree nests a flat block list; blocks arrive parent-first in sort order.
func buildTree(blocks []domain.Block) []*treeNode {
	nodes := make(map[string]*treeNode, len(blocks))
	var roots []*treeNode
	for _, b := range blocks {
		n := &treeNode{ID: b.ID, Component: b.ComponentName, Visible: b.IsVisible, Props: b.Props}
		nodes[b.ID] = n
	}
	for _, b := range blocks {
		n := nodes[b.ID]
		if parent, ok := nodes[b.ParentID()]; ok {
			parent.Children = append(parent.Children, n)
			continue
		}
		roots = append(roots, n)
	}
	return roots
}

// propsArg accepts either a JSON object or a JSON-encoded string.
func propsArg(args map[string]any, key string) (domain.Props, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return domain.Props(v), nil
	case string:
		if v == "" {
			return nil, nil
		}
		var p domain.Props
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", key, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%s must be an object", key)
	}
}

func (s *Server) pageAndBlock(args map[string]any) (string, string, error) {
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return "", "", err
	}
	blockID, err := requireString(args, "blockId")
	if err != nil {
		return "", "", err
	}
	return pageID, blockID, nil
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListComponents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries := s.editor.Registry().List()
	out := make([]componentSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, componentSummary{
			Name:         e.Name,
			DisplayName:  e.Label(),
			Category:     e.Category,
			Container:    e.Container,
			DefaultProps: e.DefaultProps,
		})
	}
	return jsonResult(out)
}

func (s *Server) handleGetBlockTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	blocks, err := s.editor.Blocks(pageID)
	if err != nil {
		return nil, err
	}
	roots := buildTree(blocks)
	if roots == nil {
		roots = []*treeNode{}
	}
	return jsonResult(roots)
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	component, err := requireString(args, "component")
	if err != nil {
		return nil, err
	}
	props, err := propsArg(args, "props")
	if err != nil {
		return nil, err
	}
	change, err := s.editor.AddBlock(ctx, pageID, component, optionalParent(args, "parentId"), props)
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeChange(change))
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, blockID, err := s.pageAndBlock(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if s.approval != nil {
		err := s.approval.Request(ctx, PendingAction{
			Tool:        "delete_block",
			Description: fmt.Sprintf("Delete block %s and its children", blockID),
			PageID:      pageID,
			BlockID:     blockID,
		})
		if err != nil {
			return nil, err
		}
	}
	change, err := s.editor.DeleteBlock(ctx, pageID, blockID)
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeChange(change))
}

func (s *Server) handleDuplicateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, blockID, err := s.pageAndBlock(req.GetArguments())
	if err != nil {
		return nil, err
	}
	change, err := s.editor.DuplicateBlock(ctx, pageID, blockID)
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeChange(change))
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, blockID, err := s.pageAndBlock(args)
	if err != nil {
		return nil, err
	}
	raw, _ := args["direction"].(string)
	dir, err := tree.ParseDirection(raw)
	if err != nil {
		return nil, err
	}
	change, err := s.editor.MoveBlock(ctx, pageID, blockID, dir)
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeChange(change))
}

func (s *Server) handleReparentBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, blockID, err := s.pageAndBlock(args)
	if err != nil {
		return nil, err
	}
	index := math.MaxInt32
	if v, ok := args["index"].(float64); ok {
		index = int(v)
	}
	change, err := s.editor.ReparentBlock(ctx, pageID, blockID, optionalParent(args, "parentId"), index)
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeChange(change))
}

func (s *Server) handleSetVisibility(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, blockID, err := s.pageAndBlock(args)
	if err != nil {
		return nil, err
	}
	visible, ok := args["visible"].(bool)
	if !ok {
		return nil, fmt.Errorf("visible is required")
	}
	change, err := s.editor.SetVisibility(ctx, pageID, blockID, visible)
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeChange(change))
}

func (s *Server) handleUpdateProps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, blockID, err := s.pageAndBlock(args)
	if err != nil {
		return nil, err
	}
	props, err := propsArg(args, "props")
	if err != nil {
		return nil, err
	}
	if props == nil {
		return nil, fmt.Errorf("props is required")
	}
	change, err := s.editor.UpdateProps(ctx, pageID, blockID, props)
	if err != nil {
		return nil, err
	}

	css, hasCSS := args["customCss"].(string)
	classes, hasClasses := args["customClasses"].(string)
	if hasCSS || hasClasses {
		blocks, err := s.editor.Blocks(pageID)
		if err != nil {
			return nil, err
		}
		for _, b := range blocks {
			if b.ID != blockID {
				continue
			}
			if !hasCSS {
				css = b.CustomCSS
			}
			if !hasClasses {
				classes = b.CustomClasses
			}
		}
		styled, err := s.editor.UpdatePresentation(ctx, pageID, blockID, css, classes)
		if err != nil {
			return nil, err
		}
		change = change.Merge(styled)
	}
	return jsonResult(summarizeChange(change))
}

func (s *Server) handleRenderPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	raw, _ := args["mode"].(string)
	if raw == "" {
		raw = "preview"
	}
	mode, err := canvas.ParseMode(raw)
	if err != nil {
		return nil, err
	}
	html, err := s.editor.RenderHTML(pageID, mode)
	if err != nil {
		return nil, err
	}
	return textResult(html), nil
}
