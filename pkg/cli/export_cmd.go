package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a graph",
	}
	cmd.AddCommand(newExportDBMLCmd(s))
	return cmd
}

func newExportDBMLCmd(s *settings) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "dbml <graph-id>",
		Short: "Write a graph as DBML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withSession(cmd, func(ctx context.Context, sess *session) error {
				text, err := sess.graphs.ExportDBML(ctx, args[0])
				if err != nil {
					return err
				}
				if file == "" || file == "-" {
					_, err := fmt.Fprint(cmd.OutOrStdout(), text)
					return err
				}
				if err := os.WriteFile(file, []byte(text), 0o644); err != nil { //nolint:gosec // exported schema is not secret
					return fmt.Errorf("write %s: %w", file, err)
				}
				if !isQuiet(cmd) {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", file)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Output file (default: stdout)")

	return cmd
}
