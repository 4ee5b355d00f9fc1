package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("landing_page",
		mcp.WithPromptDescription("Guide through building a landing page from sections, a hero and a call to action"),
		mcp.WithArgument("product",
			mcp.ArgumentDescription("Product or topic the page is about"),
			mcp.RequiredArgument(),
		),
	), s.handleLandingPagePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("restructure_page",
		mcp.WithPromptDescription("Review the active page's block tree and tidy its structure"),
	), s.handleRestructurePrompt)
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.TextContent{Type: "text", Text: text},
			},
		},
	}
}

func (s *Server) handleLandingPagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	product := req.Params.Arguments["product"]
	return userPrompt(
		fmt.Sprintf("Build a landing page for: %s", product),
		fmt.Sprintf(`Build a landing page about "%s". Follow these steps:

1. Use create_page with the title "%s" (or set_active_page if it exists already, see list_pages)
2. Call list_components to see what can be placed and which components are containers
3. add_block a Hero with a title and subtitle
4. add_block a Section, then add a Columns block inside it with three Column children;
   put a Heading and a Text in every Column describing one feature
5. add_block a final Section holding a Heading and a Button linking to the signup page
6. Check the result with get_block_tree and render_page (mode preview), then save_page

Only container components can hold children. Use move_block or reparent_block to fix ordering.`, product, product),
	), nil
}

func (s *Server) handleRestructurePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return userPrompt(
		"Tidy the active page's structure",
		`Review the active page and tidy it up:

1. Read the tree with get_block_tree
2. Group loose root-level content blocks into Sections with reparent_block
3. Hide (set_block_visibility) rather than delete blocks that look like drafts
4. Make sure every Heading has a non-empty text prop (update_block_props)
5. Compare render_page in preview mode before and after, then save_page

Use undo if a step made things worse.`,
	), nil
}
