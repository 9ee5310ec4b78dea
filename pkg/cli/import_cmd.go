package cli

import (
	"context"

	"github.com/spf13/cobra"

	"fastcontrol/internal/domain"
	graphsvc "fastcontrol/internal/service/graph"
)

// importTarget selects where an import lands: an existing graph (--graph)
// or a new one (--name).
type importTarget struct {
	graphID string
	name    string
}

func (t *importTarget) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.graphID, "graph", "", "Merge into this graph (default: create a new graph)")
	cmd.Flags().StringVar(&t.name, "name", "", "Name of the new graph")
	cmd.MarkFlagsMutuallyExclusive("graph", "name")
}

func (t *importTarget) run(ctx context.Context, sess *session, raw domain.RawSchema) (*graphsvc.ImportResult, error) {
	if t.graphID != "" {
		return sess.graphs.ImportText(ctx, t.graphID, raw)
	}
	return sess.graphs.ImportAsNewGraph(ctx, raw, t.name)
}

func newImportCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a schema into a graph",
	}

	cmd.AddCommand(newImportDBMLCmd(s))
	cmd.AddCommand(newImportSQLCmd(s))
	cmd.AddCommand(newImportDumpCmd(s))

	return cmd
}

func newImportDBMLCmd(s *settings) *cobra.Command {
	var target importTarget

	cmd := &cobra.Command{
		Use:   "dbml <file|->",
		Short: "Import a DBML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return s.withSession(cmd, func(ctx context.Context, sess *session) error {
				res, err := target.run(ctx, sess, domain.RawSchema{Text: text, Dialect: domain.DialectDBML})
				if err != nil {
					return err
				}
				return printImport(cmd, res)
			})
		},
	}
	target.bind(cmd)

	return cmd
}

func newImportSQLCmd(s *settings) *cobra.Command {
	var target importTarget
	dialect := newDialectValue(domain.DialectMySQL)

	cmd := &cobra.Command{
		Use:   "sql <file|->",
		Short: "Import a SQL dump (CREATE TABLE / ALTER TABLE statements)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return s.withSession(cmd, func(ctx context.Context, sess *session) error {
				res, err := target.run(ctx, sess, domain.RawSchema{Text: text, Dialect: dialect.Dialect()})
				if err != nil {
					return err
				}
				return printImport(cmd, res)
			})
		},
	}
	target.bind(cmd)
	cmd.Flags().Var(dialect, "dialect", "SQL dialect (mysql, postgres)")

	return cmd
}

func newImportDumpCmd(s *settings) *cobra.Command {
	var graphID string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Fetch a schema dump from --dump-url and merge it into a graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.withSession(cmd, func(ctx context.Context, sess *session) error {
				res, err := sess.graphs.ImportDump(ctx, graphID)
				if err != nil {
					return err
				}
				return printImport(cmd, res)
			})
		},
	}
	cmd.Flags().StringVar(&graphID, "graph", "", "Graph to merge into (required)")
	_ = cmd.MarkFlagRequired("graph")

	return cmd
}
