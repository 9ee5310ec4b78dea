package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fastcontrol/internal/domain"
)

func newGraphsCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "graphs",
		Aliases: []string{"graph"},
		Short:   "Manage stored schema graphs",
	}

	cmd.AddCommand(newGraphsListCmd(s))
	cmd.AddCommand(newGraphsGetCmd(s))
	cmd.AddCommand(newGraphsCreateCmd(s))
	cmd.AddCommand(newGraphsDeleteCmd(s))
	cmd.AddCommand(newGraphsDeleteAllCmd(s))
	cmd.AddCommand(newGraphsSeedCmd(s))

	return cmd
}

func newGraphsListCmd(s *settings) *cobra.Command {
	var (
		maxResults int
		pageToken  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List graphs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.withSession(cmd, func(ctx context.Context, sess *session) error {
				page := domain.PageRequest{MaxResults: maxResults, PageToken: pageToken}
				graphs, total, err := sess.graphs.ListGraphs(ctx, page)
				if err != nil {
					return err
				}
				if err := printGraphs(cmd, graphs); err != nil {
					return err
				}
				if next := page.NextPageToken(total); next != "" && getOutputFormat(cmd) != "json" && !isQuiet(cmd) {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "More graphs available: --page-token %s\n", next)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Maximum number of graphs to return")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Token of the page to return")

	return cmd
}

func newGraphsGetCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "get <graph-id>",
		Short: "Show one graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withSession(cmd, func(ctx context.Context, sess *session) error {
				g, err := sess.graphs.GetGraph(ctx, args[0])
				if err != nil {
					return err
				}
				return printGraph(cmd, g)
			})
		},
	}
}

func newGraphsCreateCmd(s *settings) *cobra.Command {
	var (
		name string
		id   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.withSession(cmd, func(ctx context.Context, sess *session) error {
				var idPtr *string
				if cmd.Flags().Changed("id") {
					idPtr = &id
				}
				g, err := sess.graphs.CreateGraph(ctx, domain.GraphInit{Name: name}, idPtr)
				if err != nil {
					return err
				}
				return printGraph(cmd, g)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Graph name (default \"Untitled graph N\")")
	cmd.Flags().StringVar(&id, "id", "", "Graph identifier (default: generated)")

	return cmd
}

func newGraphsDeleteCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <graph-id>...",
		Short: "Delete graphs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withSession(cmd, func(ctx context.Context, sess *session) error {
				for _, id := range args {
					if err := sess.graphs.DeleteGraph(ctx, id); err != nil {
						return err
					}
					if !isQuiet(cmd) && getOutputFormat(cmd) != "json" {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted graph %s\n", id)
					}
				}
				if getOutputFormat(cmd) == "json" {
					return printJSON(cmd.OutOrStdout(), map[string]interface{}{"deleted": args})
				}
				return nil
			})
		},
	}
}

func newGraphsDeleteAllCmd(s *settings) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every graph in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete all graphs without --yes")
			}
			return s.withSession(cmd, func(ctx context.Context, sess *session) error {
				if err := sess.graphs.DeleteAllGraphs(ctx); err != nil {
					return err
				}
				if getOutputFormat(cmd) == "json" {
					return printJSON(cmd.OutOrStdout(), map[string]string{"status": "ok"})
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Deleted all graphs")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")

	return cmd
}

func newGraphsSeedCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the bundled example graphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.withSession(cmd, func(ctx context.Context, sess *session) error {
				created, err := sess.graphs.SeedExamples(ctx)
				if err != nil {
					return err
				}
				return printGraphs(cmd, created)
			})
		},
	}
}
