package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pagebuilder/internal/app"
	"pagebuilder/internal/service"
)

// NewPublishCommand pushes a page to a publish target.
func NewPublishCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <page> <target>",
		Short: "Push a page's blocks and rendered HTML to a publish target",
		Long: `Push a page's blocks and rendered HTML to a publish target.

The target is an id or name from "publish targets". Every attempt is logged
and listed by "publish history".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				page, err := s.Pages.ResolvePage(args[0])
				if err != nil {
					return err
				}
				rec, err := s.Publish.Publish(ctx, page.ID, args[1])
				if err != nil {
					return err
				}
				return rootOpts.formatter(cmd).Emit(rec, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "published %s: %d block(s) written, %d replaced in %dms\n",
						page.Slug, rec.Upserted, rec.Deleted, rec.DurationMs)
					return err
				})
			})
		},
	}
	cmd.AddCommand(newPublishTargetsCommand(rootOpts))
	cmd.AddCommand(newPublishAddTargetCommand(rootOpts))
	cmd.AddCommand(newPublishHistoryCommand(rootOpts))
	cmd.AddCommand(newExportCommand(rootOpts))
	return cmd
}

func newPublishTargetsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List publish targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				targets, err := s.Publish.ListTargets()
				if err != nil {
					return err
				}
				views := make([]app.TargetView, 0, len(targets))
				for _, t := range targets {
					views = append(views, app.NewTargetView(t))
				}
				return rootOpts.formatter(cmd).Emit(views, func(w io.Writer) error {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "NAME\tDRIVER\tHOST\tTABLE")
					for _, v := range views {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Name, v.Driver, v.Host, v.Table)
					}
					return tw.Flush()
				})
			})
		},
	}
}

func newPublishAddTargetCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		in          service.TargetInput
		passwordEnv string
	)
	cmd := &cobra.Command{
		Use:   "add-target <name>",
		Short: "Register a publish target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			if passwordEnv != "" {
				in.Password = os.Getenv(passwordEnv)
			}
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				t, err := s.Publish.CreateTarget(in)
				if err != nil {
					return err
				}
				if err := s.Publish.TestTarget(ctx, t.ID); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: target saved but unreachable: %v\n", err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "added target %s (%s)\n", t.Name, t.ID)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&in.Driver, "driver", "", "mysql, postgres, mongodb or sqlite")
	cmd.Flags().StringVar(&in.Host, "host", "", "host, connection URI, or file path for sqlite")
	cmd.Flags().IntVar(&in.Port, "port", 0, "port (default per driver)")
	cmd.Flags().StringVar(&in.Database, "database", "", "database name")
	cmd.Flags().StringVar(&in.Username, "user", "", "user name")
	cmd.Flags().StringVar(&in.SSLMode, "ssl-mode", "", "ssl mode (postgres) or \"require\" (mysql)")
	cmd.Flags().StringVar(&in.Table, "table", "", "table/collection prefix (default pagebuilder)")
	cmd.Flags().StringVar(&passwordEnv, "password-env", "", "environment variable holding the password")
	_ = cmd.MarkFlagRequired("driver")
	return cmd
}

func newPublishHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <page>",
		Short: "Show recent publish attempts of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				page, err := s.Pages.ResolvePage(args[0])
				if err != nil {
					return err
				}
				recs, err := s.Publish.History(page.ID, limit)
				if err != nil {
					return err
				}
				return rootOpts.formatter(cmd).Emit(recs, func(w io.Writer) error {
					for _, r := range recs {
						status := "ok"
						if r.Error != "" {
							status = "failed: " + r.Error
						}
						fmt.Fprintf(w, "%s  %s  %s\n", r.PublishedAt.Format("2006-01-02 15:04:05"), r.TargetID, status)
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of records")
	return cmd
}

func newExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <page>",
		Short: "Write the page as a standalone HTML file under the data directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStack(cmd, func(ctx context.Context, s *app.Stack) error {
				page, err := s.Pages.ResolvePage(args[0])
				if err != nil {
					return err
				}
				path, err := s.Publish.ExportHTML(ctx, page.ID)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
				return err
			})
		},
	}
}
