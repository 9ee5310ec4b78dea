package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastcontrol/internal/domain"
	graphsvc "fastcontrol/internal/service/graph"
)

const shopDBML = `
Table users {
  id int [pk, increment]
  name varchar(64)
}

Table orders {
  id int [pk]
  user_id int [not null]
}

Ref: orders.user_id > users.id
Ref: orders.shop_id > shops.id
`

// cliEnv isolates HOME and the graph store of one test.
type cliEnv struct {
	t   *testing.T
	db  string
	dir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, k := range []string{"FASTCONTROL_DB", "FASTCONTROL_DUMP_URL", "FASTCONTROL_DUMP_DIALECT", "FASTCONTROL_OUTPUT"} {
		t.Setenv(k, "")
	}
	return &cliEnv{t: t, db: filepath.Join(dir, "graphs.sqlite"), dir: dir}
}

// run executes the CLI with --db pointing at the test store.
func (e *cliEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--db", e.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run("", args...)
	require.NoError(e.t, err, out)
	return out
}

func (e *cliEnv) writeFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func decodeJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func TestImportDBML_NewGraph(t *testing.T) {
	e := newCLIEnv(t)
	path := e.writeFile("shop.dbml", shopDBML)

	out := e.mustRun("-o", "json", "import", "dbml", path, "--name", "shop")
	res := decodeJSON[importSummary](t, out)
	assert.Equal(t, "shop", res.GraphName)
	assert.Equal(t, []string{"users", "orders"}, res.Tables)
	assert.Equal(t, 1, res.Links)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.DiagnosticDanglingRelationship, res.Diagnostics[0].Kind)

	out = e.mustRun("-o", "json", "graphs", "get", res.GraphID)
	detail := decodeJSON[graphDetail](t, out)
	assert.Equal(t, 2, detail.Tables)
	assert.Equal(t, 4, detail.Fields)
	require.Len(t, detail.TableList, 2)
	assert.NotEqual(t,
		[2]float64{detail.TableList[0].X, detail.TableList[0].Y},
		[2]float64{detail.TableList[1].X, detail.TableList[1].Y})
}

func TestImportDBML_Stdin(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(shopDBML, "import", "dbml", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 tables and 1 links")
	assert.Contains(t, out, "1 relationships skipped")
	assert.Contains(t, out, "dangling_relationship")
}

func TestImportSQL_IntoExistingGraph(t *testing.T) {
	e := newCLIEnv(t)
	id := strings.TrimSpace(e.mustRun("-q", "graphs", "create", "--name", "inventory"))
	require.NotEmpty(t, id)

	e.mustRun("import", "dbml", e.writeFile("shop.dbml", shopDBML), "--graph", id)

	sql := `
CREATE TABLE public.items (
    id bigserial PRIMARY KEY,
    order_id integer NOT NULL REFERENCES orders (id),
    label character varying(40)
);`
	out := e.mustRun("-o", "json", "import", "sql", e.writeFile("items.sql", sql), "--dialect", "postgres", "--graph", id)
	res := decodeJSON[importSummary](t, out)
	assert.Equal(t, id, res.GraphID)
	assert.Equal(t, []string{"items"}, res.Tables)
	assert.Equal(t, 1, res.Links, "items.order_id resolves to the existing orders table")
	assert.Empty(t, res.Diagnostics)

	detail := decodeJSON[graphDetail](t, e.mustRun("-o", "json", "graphs", "get", id))
	assert.Equal(t, 3, detail.Tables)
	assert.Equal(t, 2, detail.Links)
}

func TestImportSQL_RejectsDBMLDialect(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run("", "import", "sql", e.writeFile("x.sql", "CREATE TABLE t (id int);"), "--dialect", "dbml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dialect")
}

func TestImport_ParseErrorLeavesGraphUnchanged(t *testing.T) {
	e := newCLIEnv(t)
	id := strings.TrimSpace(e.mustRun("-q", "graphs", "create"))

	_, err := e.run("Table broken {\n  id int [pk\n", "import", "dbml", "-", "--graph", id)
	require.Error(t, err)
	var pe *domain.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "parse", errorObject(err)["kind"])

	detail := decodeJSON[graphDetail](t, e.mustRun("-o", "json", "graphs", "get", id))
	assert.Zero(t, detail.Tables)
}

func TestImportDump(t *testing.T) {
	e := newCLIEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"dumpSQL":"CREATE TABLE ` + "`a`" + ` (` + "`id`" + ` int NOT NULL, PRIMARY KEY (` + "`id`" + `)) ENGINE=InnoDB;"}`))
	}))
	defer srv.Close()

	id := strings.TrimSpace(e.mustRun("-q", "graphs", "create"))
	out := e.mustRun("-o", "json", "--dump-url", srv.URL, "import", "dump", "--graph", id)
	res := decodeJSON[importSummary](t, out)
	assert.Equal(t, []string{"a"}, res.Tables)
}

func TestImportDump_SourceUnavailable(t *testing.T) {
	e := newCLIEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	id := strings.TrimSpace(e.mustRun("-q", "graphs", "create"))

	_, err := e.run("", "import", "dump", "--graph", id)
	require.Error(t, err, "no dump url configured")
	assert.Equal(t, "source_unavailable", errorObject(err)["kind"])

	_, err = e.run("", "--dump-url", srv.URL, "import", "dump", "--graph", id)
	require.Error(t, err)
	var su *domain.SourceUnavailableError
	assert.ErrorAs(t, err, &su)
}

func TestGraphsLifecycle(t *testing.T) {
	e := newCLIEnv(t)

	out := e.mustRun("-o", "json", "graphs", "seed")
	seeded := decodeJSON[[]graphSummary](t, out)
	assert.Len(t, seeded, len(graphsvc.Examples))

	out = e.mustRun("-o", "json", "graphs", "seed")
	assert.Empty(t, decodeJSON[[]graphSummary](t, out))

	out = e.mustRun("graphs", "list")
	assert.Contains(t, out, "ID")
	for _, ex := range graphsvc.Examples {
		assert.Contains(t, out, ex.ID)
	}

	e.mustRun("graphs", "delete", graphsvc.Examples[0].ID)
	_, err := e.run("", "graphs", "get", graphsvc.Examples[0].ID)
	require.Error(t, err)
	assert.Equal(t, "not_found", errorObject(err)["kind"])

	_, err = e.run("", "graphs", "delete-all")
	require.Error(t, err)

	e.mustRun("graphs", "delete-all", "--yes")
	out = e.mustRun("-q", "graphs", "list")
	assert.Empty(t, strings.TrimSpace(out))
}

func TestGraphsList_Pagination(t *testing.T) {
	e := newCLIEnv(t)
	for i := 0; i < 3; i++ {
		e.mustRun("graphs", "create")
	}
	out := e.mustRun("-o", "json", "graphs", "list", "--max-results", "2")
	assert.Len(t, decodeJSON[[]graphSummary](t, out), 2)
}

func TestExportDBML(t *testing.T) {
	e := newCLIEnv(t)
	id := strings.TrimSpace(e.mustRun("-q", "import", "dbml", e.writeFile("shop.dbml", shopDBML)))

	out := e.mustRun("export", "dbml", id)
	assert.Contains(t, out, "Table users {")
	assert.Contains(t, out, "Ref: orders.user_id > users.id")

	file := filepath.Join(e.dir, "out.dbml")
	e.mustRun("export", "dbml", id, "-f", file)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestRootCmd_InvalidOutput(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run("", "-o", "xml", "graphs", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestVersionCmd(t *testing.T) {
	e := newCLIEnv(t)
	out := e.mustRun("-o", "json", "version")
	v := decodeJSON[map[string]string](t, out)
	assert.Equal(t, "dev", v["version"])
}
