package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fastcontrol/internal/domain"
	graphsvc "fastcontrol/internal/service/graph"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func isQuiet(cmd *cobra.Command) bool {
	v, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes rows under an upper-cased header, columns separated by
// at least two spaces.
func printTable(w io.Writer, columns []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// graphSummary is the JSON shape of a graph in list output.
type graphSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Tables    int    `json:"tables"`
	Fields    int    `json:"fields"`
	Links     int    `json:"links"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func summarize(g *domain.Graph) graphSummary {
	return graphSummary{
		ID:        g.ID,
		Name:      g.Name,
		Tables:    len(g.Tables),
		Fields:    g.FieldCount(),
		Links:     len(g.Links),
		CreatedAt: g.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: g.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func printGraphs(cmd *cobra.Command, graphs []domain.Graph) error {
	w := cmd.OutOrStdout()
	summaries := make([]graphSummary, len(graphs))
	for i := range graphs {
		summaries[i] = summarize(&graphs[i])
	}
	if isQuiet(cmd) {
		for _, s := range summaries {
			_, _ = fmt.Fprintln(w, s.ID)
		}
		return nil
	}
	if getOutputFormat(cmd) == "json" {
		return printJSON(w, summaries)
	}
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{s.ID, s.Name, fmt.Sprint(s.Tables), fmt.Sprint(s.Links), s.UpdatedAt}
	}
	return printTable(w, []string{"id", "name", "tables", "links", "updated"}, rows)
}

// graphDetail is the JSON shape of a single graph.
type graphDetail struct {
	graphSummary
	TableList []tableDetail `json:"table_list"`
}

type tableDetail struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Fields []string `json:"fields"`
}

func printGraph(cmd *cobra.Command, g *domain.Graph) error {
	w := cmd.OutOrStdout()
	if isQuiet(cmd) {
		_, _ = fmt.Fprintln(w, g.ID)
		return nil
	}
	detail := graphDetail{graphSummary: summarize(g)}
	for _, t := range g.TableList() {
		td := tableDetail{ID: t.ID, Name: t.Name, X: t.X, Y: t.Y}
		for _, f := range t.Fields {
			td.Fields = append(td.Fields, f.Name+" "+f.Type)
		}
		detail.TableList = append(detail.TableList, td)
	}
	if getOutputFormat(cmd) == "json" {
		return printJSON(w, detail)
	}
	_, _ = fmt.Fprintf(w, "Graph %s (%s): %d tables, %d fields, %d links\n",
		g.Name, g.ID, len(g.Tables), g.FieldCount(), len(g.Links))
	rows := make([][]string, len(detail.TableList))
	for i, t := range detail.TableList {
		rows[i] = []string{t.Name, fmt.Sprint(len(t.Fields)), fmt.Sprintf("%g,%g", t.X, t.Y), t.ID}
	}
	return printTable(w, []string{"table", "fields", "position", "id"}, rows)
}

// importSummary is the JSON shape of an import result.
type importSummary struct {
	GraphID     string              `json:"graph_id"`
	GraphName   string              `json:"graph_name"`
	Tables      []string            `json:"tables"`
	Links       int                 `json:"links"`
	Diagnostics []diagnosticSummary `json:"diagnostics"`
}

type diagnosticSummary struct {
	Kind    domain.DiagnosticKind `json:"kind"`
	Message string                `json:"message"`
}

func printImport(cmd *cobra.Command, res *graphsvc.ImportResult) error {
	w := cmd.OutOrStdout()
	if isQuiet(cmd) {
		_, _ = fmt.Fprintln(w, res.Graph.ID)
		return nil
	}
	sum := importSummary{
		GraphID:     res.Graph.ID,
		GraphName:   res.Graph.Name,
		Tables:      []string{},
		Links:       len(res.Links),
		Diagnostics: []diagnosticSummary{},
	}
	for _, t := range res.Tables {
		sum.Tables = append(sum.Tables, t.Name)
	}
	for _, d := range res.Diagnostics {
		sum.Diagnostics = append(sum.Diagnostics, diagnosticSummary{Kind: d.Kind, Message: d.Message})
	}
	if getOutputFormat(cmd) == "json" {
		return printJSON(w, sum)
	}
	_, _ = fmt.Fprintf(w, "Imported %d tables and %d links into %s (%s)\n",
		len(sum.Tables), sum.Links, sum.GraphName, sum.GraphID)
	if len(sum.Diagnostics) > 0 {
		_, _ = fmt.Fprintf(w, "%d relationships skipped:\n", len(sum.Diagnostics))
		for _, d := range sum.Diagnostics {
			_, _ = fmt.Fprintf(w, "  - %s: %s\n", d.Kind, d.Message)
		}
	}
	return nil
}

// readInput reads schema text from a file, or from stdin when path is "-".
// Reading from an interactive terminal is refused so the command does not
// appear to hang.
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path != "-" {
		data, err := os.ReadFile(path) //nolint:gosec // user-supplied path
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", fmt.Errorf("no schema on stdin: pipe a file or pass a path")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
