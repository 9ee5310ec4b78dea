package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastcontrol/internal/domain"
	graphops "fastcontrol/internal/graph"
	"fastcontrol/internal/schemaparse"
	"fastcontrol/internal/testutil"
)

const shopDBML = `
Table customers {
  id int [pk, increment]
  email varchar(255) [not null, unique]
}

Table orders {
  id int [pk, increment]
  customer_id int [not null]
  total decimal(10,2)
}

Ref: orders.customer_id > customers.id
Ref: orders.coupon_id > coupons.id
`

const mysqlDump = "CREATE TABLE `accounts` (\n" +
	"  `id` int NOT NULL AUTO_INCREMENT,\n" +
	"  `owner` varchar(64) NOT NULL,\n" +
	"  PRIMARY KEY (`id`)\n" +
	") ENGINE=InnoDB;\n" +
	"CREATE TABLE `ledger` (\n" +
	"  `id` bigint NOT NULL,\n" +
	"  `account_id` int NOT NULL,\n" +
	"  PRIMARY KEY (`id`),\n" +
	"  CONSTRAINT `fk_account` FOREIGN KEY (`account_id`) REFERENCES `accounts` (`id`)\n" +
	");\n"

func TestService_ImportText(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	g, err := svc.CreateGraph(ctx, domain.GraphInit{
		Name: "shop",
		Tables: map[string]domain.TableNode{
			"keep": {ID: "keep", Name: "legacy", X: 0, Y: 0, Fields: []domain.FieldEntry{{ID: "keep-id", Name: "id", Type: "INT"}}},
		},
	}, nil)
	require.NoError(t, err)

	res, err := svc.ImportText(ctx, g.ID, domain.RawSchema{Text: shopDBML, Dialect: domain.DialectDBML})
	require.NoError(t, err)

	require.Len(t, res.Tables, 2)
	assert.Equal(t, "customers", res.Tables[0].Name)
	assert.Equal(t, "orders", res.Tables[1].Name)
	assert.Len(t, res.Links, 1)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.DiagnosticDanglingRelationship, res.Diagnostics[0].Kind)

	// New tables avoid the existing one at the origin.
	for _, tbl := range res.Tables {
		assert.False(t, graphops.DefaultLayout().Overlaps(0, 0, tbl.X, tbl.Y), tbl.Name)
	}

	stored, err := svc.GetGraph(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Tables, 3)
	assert.Equal(t, g.Tables["keep"], stored.Tables["keep"], "existing table untouched")
	assert.Len(t, stored.Links, 1)
	require.NoError(t, stored.Validate())
	assert.Equal(t, res.Graph, stored)
}

func TestService_ImportText_ParseErrorLeavesGraphUnchanged(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	g, err := svc.CreateGraph(ctx, domain.GraphInit{Name: "g"}, nil)
	require.NoError(t, err)
	before, err := svc.GetGraph(ctx, g.ID)
	require.NoError(t, err)

	_, err = svc.ImportText(ctx, g.ID, domain.RawSchema{Text: "Table broken {\n  id int\n", Dialect: domain.DialectDBML})
	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)

	after, err := svc.GetGraph(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestService_ImportText_UnknownGraph(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.ImportText(context.Background(), "missing", domain.RawSchema{Text: shopDBML, Dialect: domain.DialectDBML})
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestService_ImportDump(t *testing.T) {
	src := testutil.StaticSource(domain.RawSchema{Text: mysqlDump, Dialect: domain.DialectMySQL})
	svc := newTestService(t, nil, src)
	ctx := context.Background()

	g, err := svc.CreateGraph(ctx, domain.GraphInit{Name: "bank"}, nil)
	require.NoError(t, err)

	res, err := svc.ImportDump(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, src.Calls)
	require.Len(t, res.Tables, 2)
	require.Len(t, res.Links, 1)
	assert.Empty(t, res.Diagnostics)

	ledger := res.Tables[1]
	assert.Equal(t, "ledger", ledger.Name)
	assert.Equal(t, "BIGINT", ledger.Fields[0].Type)

	link := res.Links[0]
	assert.Equal(t, ledger.ID, link.Endpoints[0].TableID)
	assert.Equal(t, domain.RelationMany, link.Endpoints[0].Relation)
	assert.Equal(t, domain.RelationOne, link.Endpoints[1].Relation)
}

func TestService_ImportDump_SourceErrors(t *testing.T) {
	t.Run("no source configured", func(t *testing.T) {
		svc := newTestService(t, nil, nil)
		_, err := svc.ImportDump(context.Background(), "any")
		var unavailable *domain.SourceUnavailableError
		require.ErrorAs(t, err, &unavailable)
	})

	t.Run("source failure leaves graph unchanged", func(t *testing.T) {
		src := &testutil.MockSchemaSource{FetchDumpFn: func(context.Context) (domain.RawSchema, error) {
			return domain.RawSchema{}, domain.ErrSourceUnavailable(errors.New("connection refused"), "dump request failed")
		}}
		svc := newTestService(t, nil, src)
		ctx := context.Background()

		g, err := svc.CreateGraph(ctx, domain.GraphInit{Name: "g"}, nil)
		require.NoError(t, err)

		_, err = svc.ImportDump(ctx, g.ID)
		var unavailable *domain.SourceUnavailableError
		require.ErrorAs(t, err, &unavailable)

		after, err := svc.GetGraph(ctx, g.ID)
		require.NoError(t, err)
		assert.Empty(t, after.Tables)
		assert.True(t, g.UpdatedAt.Equal(after.UpdatedAt))
	})
}

func TestService_Import_OneInFlightPerGraph(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	src := &testutil.MockSchemaSource{FetchDumpFn: func(ctx context.Context) (domain.RawSchema, error) {
		close(started)
		<-unblock
		return domain.RawSchema{Text: "Table a {\n id int\n}", Dialect: domain.DialectDBML}, nil
	}}
	repo := &testutil.MockGraphRepo{
		GetFn: func(_ context.Context, id string) (*domain.Graph, error) {
			return &domain.Graph{ID: id, Name: "g", Tables: map[string]domain.TableNode{}, Links: map[string]domain.LinkEdge{}}, nil
		},
		UpdateFn: func(_ context.Context, g *domain.Graph) (*domain.Graph, error) { return g, nil },
	}
	svc := newTestService(t, repo, src)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.ImportDump(ctx, "g1")
		done <- err
	}()
	<-started

	_, err := svc.ImportText(ctx, "g1", domain.RawSchema{Text: "Table b {\n id int\n}", Dialect: domain.DialectDBML})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	// Other graphs are not blocked.
	_, err = svc.ImportText(ctx, "g2", domain.RawSchema{Text: "Table b {\n id int\n}", Dialect: domain.DialectDBML})
	require.NoError(t, err)

	close(unblock)
	require.NoError(t, <-done)

	// The guard is released afterwards.
	_, err = svc.ImportText(ctx, "g1", domain.RawSchema{Text: "Table c {\n id int\n}", Dialect: domain.DialectDBML})
	require.NoError(t, err)
}

func TestService_Import_SaveFailure(t *testing.T) {
	repo := &testutil.MockGraphRepo{
		GetFn: func(_ context.Context, id string) (*domain.Graph, error) {
			return &domain.Graph{ID: id, Name: "g", Tables: map[string]domain.TableNode{}, Links: map[string]domain.LinkEdge{}}, nil
		},
		UpdateFn: func(context.Context, *domain.Graph) (*domain.Graph, error) {
			return nil, errors.New("database is locked")
		},
	}
	svc := newTestService(t, repo, nil)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = fixedClock(now)

	_, err := svc.ImportText(context.Background(), "g", domain.RawSchema{Text: shopDBML, Dialect: domain.DialectDBML})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save graph")
	require.Equal(t, 1, repo.UpdateCount())
	assert.Equal(t, now, repo.Updates[0].UpdatedAt)
}

func TestService_Import_IdentifierCollision(t *testing.T) {
	repo := &testutil.MockGraphRepo{
		GetFn: func(_ context.Context, id string) (*domain.Graph, error) {
			return &domain.Graph{ID: id, Name: "g", Tables: map[string]domain.TableNode{
				"id-1": {ID: "id-1", Name: "taken"},
			}, Links: map[string]domain.LinkEdge{}}, nil
		},
	}
	svc := newTestService(t, repo, nil)

	_, err := svc.ImportText(context.Background(), "g", domain.RawSchema{Text: shopDBML, Dialect: domain.DialectDBML})
	var collision *domain.IdentifierCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Zero(t, repo.UpdateCount(), "nothing saved")
}

func TestService_ImportAsNewGraph(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	res, err := svc.ImportAsNewGraph(ctx, domain.RawSchema{Text: shopDBML, Dialect: domain.DialectDBML}, "")
	require.NoError(t, err)
	assert.Equal(t, "Untitled graph 0", res.Graph.Name)
	assert.Len(t, res.Graph.Tables, 2)
	assert.Len(t, res.Diagnostics, 1)

	_, err = svc.ImportAsNewGraph(ctx, domain.RawSchema{Text: "CREATE TABLE (", Dialect: domain.DialectPostgres}, "broken")
	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)

	_, total, err := svc.ListGraphs(ctx, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "failed import stores nothing")
}

func TestService_ExportDBML(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	res, err := svc.ImportAsNewGraph(ctx, domain.RawSchema{Text: shopDBML, Dialect: domain.DialectDBML}, "shop")
	require.NoError(t, err)

	text, err := svc.ExportDBML(ctx, res.Graph.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "Table customers {")
	assert.Contains(t, text, "Ref: orders.customer_id > customers.id")

	schema, err := schemaparse.Parse(text, domain.DialectDBML)
	require.NoError(t, err)
	assert.Len(t, schema.Tables, 2)
	assert.Len(t, schema.Relationships, 1)

	_, err = svc.ExportDBML(ctx, "missing")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
