package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pagebuilder/internal/app"
	"pagebuilder/internal/canvas"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
	"pagebuilder/internal/tree"
)

// changeResult is the JSON shape of a mutation.
type changeResult struct {
	Outcome string `json:"outcome"`
	BlockID string `json:"blockId"`
}

func emitChange(rootOpts *RootOptions, cmd *cobra.Command, verb string, c tree.Change) error {
	res := changeResult{Outcome: c.Outcome.String(), BlockID: c.Affected}
	return rootOpts.formatter(cmd).Emit(res, func(w io.Writer) error {
		if c.Outcome == tree.NoOp {
			_, err := fmt.Fprintln(w, "no change")
			return err
		}
		_, err := fmt.Fprintf(w, "%s %s\n", verb, c.Affected)
		return err
	})
}

// NewTreeCommand prints a page's block tree.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <page>",
		Short: "Print a page's block tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				p, err := s.Pages.ResolvePage(args[0])
				if err != nil {
					return err
				}
				blocks, err := s.Editor.Blocks(p.ID)
				if err != nil {
					return err
				}
				if blocks == nil {
					blocks = []domain.Block{}
				}
				return rootOpts.formatter(cmd).Emit(blocks, func(w io.Writer) error {
					return writeTree(w, blocks)
				})
			})
		},
	}
}

// NewRenderCommand renders a page to HTML.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		mode       string
		output     string
		standalone bool
	)
	cmd := &cobra.Command{
		Use:   "render <page>",
		Short: "Render a page to HTML",
		Long: `Render a page to HTML.

--mode preview (default) produces the published markup; --mode edit includes
the builder chrome. --standalone wraps the markup in a full HTML document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := canvas.ParseMode(mode)
			if err != nil {
				return err
			}
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				p, err := s.Pages.ResolvePage(args[0])
				if err != nil {
					return err
				}
				html, err := s.Editor.RenderHTML(p.ID, m)
				if err != nil {
					return err
				}
				if standalone {
					html = service.StandaloneHTML(p.Title, html)
				}
				if output != "" {
					return os.WriteFile(output, []byte(html), 0o644)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), html)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "preview", "render mode (edit|preview)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&standalone, "standalone", false, "wrap in a complete HTML document")
	return cmd
}

// NewAddCommand appends a block.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		parent string
		props  string
	)
	cmd := &cobra.Command{
		Use:   "add <page> <component>",
		Short: "Append a block to the page root or a container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p domain.Props
			if props != "" {
				if err := json.Unmarshal([]byte(props), &p); err != nil {
					return fmt.Errorf("parse --props: %w", err)
				}
			}
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				page, err := s.Pages.ResolvePage(args[0])
				if err != nil {
					return err
				}
				c, err := s.Editor.AddBlock(ctx, page.ID, args[1], domain.StringPtr(parent), p)
				if err != nil {
					return err
				}
				return emitChange(rootOpts, cmd, "added", c)
			})
		},
	}
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "container block id (default: page root)")
	cmd.Flags().StringVar(&props, "props", "", "initial props as a JSON object")
	return cmd
}

// NewMoveCommand reorders a block among its siblings or reparents it.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		into  string
		root  bool
		index int
	)
	cmd := &cobra.Command{
		Use:   "move <page> <block> [up|down]",
		Short: "Move a block one step, or under another parent with --into/--root",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				page, err := s.Pages.ResolvePage(args[0])
				if err != nil {
					return err
				}
				var c tree.Change
				switch {
				case into != "" || root:
					c, err = s.Editor.ReparentBlock(ctx, page.ID, args[1], domain.StringPtr(into), index)
				case len(args) == 3:
					dir, derr := tree.ParseDirection(args[2])
					if derr != nil {
						return derr
					}
					c, err = s.Editor.MoveBlock(ctx, page.ID, args[1], dir)
				default:
					return fmt.Errorf("give a direction (up|down) or --into/--root")
				}
				if err != nil {
					return err
				}
				return emitChange(rootOpts, cmd, "moved", c)
			})
		},
	}
	cmd.Flags().StringVar(&into, "into", "", "new container block id")
	cmd.Flags().BoolVar(&root, "root", false, "move to the page root")
	cmd.Flags().IntVar(&index, "index", 1<<30, "position among the new siblings (default: last)")
	return cmd
}

// NewRemoveCommand deletes a block and its subtree.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <page> <block>",
		Short: "Delete a block and everything inside it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				page, err := s.Pages.ResolvePage(args[0])
				if err != nil {
					return err
				}
				c, err := s.Editor.DeleteBlock(ctx, page.ID, args[1])
				if err != nil {
					return err
				}
				return emitChange(rootOpts, cmd, "deleted", c)
			})
		},
	}
}

// NewComponentsCommand lists the component palette.
func NewComponentsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List registered components",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				entries := s.Registry.List()
				type row struct {
					Name      string `json:"name"`
					Label     string `json:"displayName"`
					Category  string `json:"category"`
					Container bool   `json:"container"`
				}
				rows := make([]row, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, row{e.Name, e.Label(), e.Category, e.Container})
				}
				return rootOpts.formatter(cmd).Emit(rows, func(w io.Writer) error {
					for _, r := range rows {
						kind := ""
						if r.Container {
							kind = " [container]"
						}
						if _, err := fmt.Fprintf(w, "%-12s %-10s %s%s\n", r.Name, r.Category, r.Label, kind); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
}
