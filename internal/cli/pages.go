package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pagebuilder/internal/app"
	"pagebuilder/internal/domain"
)

// NewPagesCommand creates the pages command group.
func NewPagesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List and manage pages",
	}
	cmd.AddCommand(newPagesListCommand(rootOpts))
	cmd.AddCommand(newPagesCreateCommand(rootOpts))
	cmd.AddCommand(newPagesRenameCommand(rootOpts))
	cmd.AddCommand(newPagesStatusCommand(rootOpts))
	cmd.AddCommand(newPagesDeleteCommand(rootOpts))
	return cmd
}

func newPagesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				pages, err := s.Pages.ListPages()
				if err != nil {
					return err
				}
				if pages == nil {
					pages = []domain.Page{}
				}
				return rootOpts.formatter(cmd).Emit(pages, func(w io.Writer) error {
					return writePages(w, pages)
				})
			})
		},
	}
}

func newPagesCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var slug string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a draft page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				p, err := s.Pages.CreatePage(ctx, args[0], slug)
				if err != nil {
					return err
				}
				return rootOpts.formatter(cmd).Emit(p, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "created %s (%s)\n", p.ID, p.Slug)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "URL slug (default: derived from the title)")
	return cmd
}

func newPagesRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <page> <title>",
		Short: "Change a page's title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				p, err := s.Pages.ResolvePage(args[0])
				if err != nil {
					return err
				}
				return s.Pages.RenamePage(ctx, p.ID, args[1])
			})
		},
	}
}

func newPagesStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <page> <draft|published>",
		Short: "Set a page's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				p, err := s.Pages.ResolvePage(args[0])
				if err != nil {
					return err
				}
				return s.Pages.SetStatus(ctx, p.ID, domain.PageStatus(args[1]))
			})
		},
	}
}

func newPagesDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <page>",
		Short: "Delete a page with all of its blocks and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				p, err := s.Pages.ResolvePage(args[0])
				if err != nil {
					return err
				}
				return s.Pages.DeletePage(ctx, p.ID)
			})
		},
	}
}
