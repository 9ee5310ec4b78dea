// Package cli implements the fastcontrol command-line interface. Commands run
// the import pipeline in-process against a local SQLite graph store.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"fastcontrol/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

const defaultDBPath = "fastcontrol.sqlite"

// settings are the resolved global options shared by every command.
type settings struct {
	db          string
	dumpURL     string
	dumpDialect string
	output      string
	profile     string
	quiet       bool
	verbose     bool
}

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, errorObject(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// errorObject describes err for JSON output, including the domain error kind.
func errorObject(err error) map[string]interface{} {
	obj := map[string]interface{}{"error": err.Error()}
	var (
		notFound    *domain.NotFoundError
		validation  *domain.ValidationError
		conflict    *domain.ConflictError
		parse       *domain.ParseError
		unavailable *domain.SourceUnavailableError
	)
	switch {
	case errors.As(err, &notFound):
		obj["kind"] = "not_found"
	case errors.As(err, &validation):
		obj["kind"] = "validation"
	case errors.As(err, &conflict):
		obj["kind"] = "conflict"
	case errors.As(err, &parse):
		obj["kind"] = "parse"
		obj["dialect"] = parse.Dialect
		if parse.Line > 0 {
			obj["line"] = parse.Line
		}
	case errors.As(err, &unavailable):
		obj["kind"] = "source_unavailable"
	}
	return obj
}

func newRootCmd() *cobra.Command {
	s := &settings{}

	rootCmd := &cobra.Command{
		Use:           "fastcontrol",
		Short:         "Schema graph CLI",
		Long:          "Import SQL dumps and DBML documents into schema graphs and manage the local graph store.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Config file is optional
			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = emptyUserConfig()
			}
			p := cfg.ActiveProfile(s.profile)

			// Apply precedence: flag > env > profile > default
			resolve(cmd, "db", &s.db, "FASTCONTROL_DB", p.DB)
			resolve(cmd, "dump-url", &s.dumpURL, "FASTCONTROL_DUMP_URL", p.DumpURL)
			resolve(cmd, "dump-dialect", &s.dumpDialect, "FASTCONTROL_DUMP_DIALECT", p.DumpDialect)
			resolve(cmd, "output", &s.output, "FASTCONTROL_OUTPUT", p.Output)

			return validateOutputFormat(s.output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&s.db, "db", defaultDBPath, "Path to the SQLite graph store")
	rootCmd.PersistentFlags().StringVar(&s.dumpURL, "dump-url", "", "Endpoint returning a JSON schema dump")
	rootCmd.PersistentFlags().StringVar(&s.dumpDialect, "dump-dialect", string(domain.DialectMySQL), "Dialect of the dump (mysql, postgres)")
	rootCmd.PersistentFlags().StringVarP(&s.output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&s.profile, "profile", "p", "", "Config profile to use")
	rootCmd.PersistentFlags().BoolVarP(&s.quiet, "quiet", "q", false, "Only output resource identifiers")
	rootCmd.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "Log pipeline activity to stderr")

	rootCmd.AddCommand(newGraphsCmd(s))
	rootCmd.AddCommand(newImportCmd(s))
	rootCmd.AddCommand(newExportCmd(s))
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// resolve fills *dst from env or the profile unless the flag was set
// explicitly.
func resolve(cmd *cobra.Command, flag string, dst *string, env, profile string) {
	if cmd.Flags().Changed(flag) {
		return
	}
	if v := os.Getenv(env); v != "" {
		*dst = v
	} else if profile != "" {
		*dst = profile
	}
}

// logger returns a text logger on stderr when --verbose is set and a
// discarding logger otherwise.
func (s *settings) logger(cmd *cobra.Command) *slog.Logger {
	if !s.verbose {
		return slog.New(slog.DiscardHandler)
	}
	var w io.Writer = cmd.ErrOrStderr()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "fastcontrol version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
