package schemaparse

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastcontrol/internal/domain"
)

func exportGraph() *domain.Graph {
	return &domain.Graph{
		ID:   "g1",
		Name: "shop",
		Tables: map[string]domain.TableNode{
			"t1": {ID: "t1", Name: "users", Note: "it's a\nnote", X: 0, Y: 0, Fields: []domain.FieldEntry{
				{ID: "f1", Name: "id", Type: "INT", PrimaryKey: true, AutoIncrement: true, NotNull: true},
				{ID: "f2", Name: "email", Type: "VARCHAR(255)", Unique: true, Note: `back\slash`},
				{ID: "f3", Name: "created at", Type: "TIMESTAMP WITH TIME ZONE"},
			}},
			"t2": {ID: "t2", Name: "orders", X: 320, Y: 0, Fields: []domain.FieldEntry{
				{ID: "f4", Name: "id", Type: "BIGINT", PrimaryKey: true},
				{ID: "f5", Name: "user_id", Type: "INT"},
				{ID: "f6", Name: "status", Type: "ENUM('NEW','PAID')"},
				{ID: "f7", Name: "amount", Type: "DECIMAL(10,2)"},
				{ID: "f8", Name: "tags", Type: "TEXT[]"},
			}},
			"t3": {ID: "t3", Name: "order items", X: 0, Y: 420, Fields: []domain.FieldEntry{
				{ID: "f9", Name: "order_id", Type: "BIGINT"},
			}},
		},
		Links: map[string]domain.LinkEdge{
			"l1": {ID: "l1", Endpoints: [2]domain.LinkEndpoint{
				{TableID: "t2", FieldID: "f5", Relation: domain.RelationMany},
				{TableID: "t1", FieldID: "f1", Relation: domain.RelationOne},
			}},
			"l2": {ID: "l2", Endpoints: [2]domain.LinkEndpoint{
				{TableID: "t3", FieldID: "f9", Relation: domain.RelationMany},
				{TableID: "t2", FieldID: "f4", Relation: domain.RelationOne},
			}},
		},
	}
}

func TestFormatDBML_Deterministic(t *testing.T) {
	g := exportGraph()
	first := FormatDBML(g)
	for range 5 {
		assert.Equal(t, first, FormatDBML(g))
	}
	assert.Contains(t, first, "Table users {\n  id INT [pk, increment, not null]\n")
	assert.Contains(t, first, `"created at" "TIMESTAMP WITH TIME ZONE"`)
	assert.Contains(t, first, `Table "order items" {`)
	assert.Contains(t, first, `Ref: "order items".order_id > orders.id`)
}

type endpointPair struct {
	from, to string
}

func TestFormatDBML_RoundTrip(t *testing.T) {
	g := exportGraph()

	schema, err := Parse(FormatDBML(g), domain.DialectDBML)
	require.NoError(t, err)

	// Table and field names survive in canvas order.
	require.Len(t, schema.Tables, 3)
	assert.Equal(t, "users", schema.Tables[0].Name)
	assert.Equal(t, "orders", schema.Tables[1].Name)
	assert.Equal(t, "order items", schema.Tables[2].Name)
	for _, st := range schema.Tables {
		var want []string
		for _, tn := range g.Tables {
			if tn.Name == st.Name {
				for _, f := range tn.Fields {
					want = append(want, f.Name)
				}
			}
		}
		assert.Equal(t, want, fieldNames(st), st.Name)
	}

	users := schema.Tables[0]
	assert.Equal(t, "it's a\nnote", users.Note)
	assert.Equal(t, `back\slash`, users.Fields[1].Note)
	assert.True(t, users.Fields[0].PrimaryKey)
	assert.True(t, users.Fields[0].AutoIncrement)
	assert.True(t, users.Fields[0].NotNull)
	assert.True(t, users.Fields[1].Unique)
	assert.Equal(t, "TIMESTAMP WITH TIME ZONE", users.Fields[2].TypeName)

	orders := schema.Tables[1]
	assert.Equal(t, "ENUM('NEW','PAID')", orders.Fields[2].TypeName)
	assert.Equal(t, "DECIMAL(10,2)", orders.Fields[3].TypeName)
	assert.Equal(t, "TEXT[]", orders.Fields[4].TypeName)

	// Relationship endpoint pairs survive.
	var got []endpointPair
	for _, rel := range schema.Relationships {
		got = append(got, endpointPair{
			from: rel.Endpoints[0].TableName + "." + rel.Endpoints[0].FieldName(),
			to:   rel.Endpoints[1].TableName + "." + rel.Endpoints[1].FieldName(),
		})
		assert.Equal(t, domain.RelationMany, rel.Endpoints[0].Relation)
		assert.Equal(t, domain.RelationOne, rel.Endpoints[1].Relation)
	}
	sort.Slice(got, func(i, j int) bool { return got[i].from < got[j].from })
	assert.Equal(t, []endpointPair{
		{from: "order items.order_id", to: "orders.id"},
		{from: "orders.user_id", to: "users.id"},
	}, got)
}

func TestFormatDBML_RelationOperators(t *testing.T) {
	tests := []struct {
		left, right string
		want        string
	}{
		{domain.RelationMany, domain.RelationOne, ">"},
		{domain.RelationOne, domain.RelationMany, "<"},
		{domain.RelationOne, domain.RelationOne, "-"},
		{domain.RelationMany, domain.RelationMany, "<>"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, relationOperator(tc.left, tc.right))
			left, right, ok := relationMarkers(Token{Type: map[string]TokenType{
				">": TOKEN_GT, "<": TOKEN_LT, "-": TOKEN_MINUS, "<>": TOKEN_NE,
			}[tc.want]})
			require.True(t, ok)
			assert.Equal(t, tc.left, left)
			assert.Equal(t, tc.right, right)
		})
	}
}

func TestFormatDBML_SkipsDanglingLinks(t *testing.T) {
	g := exportGraph()
	g.Links["l3"] = domain.LinkEdge{ID: "l3", Endpoints: [2]domain.LinkEndpoint{
		{TableID: "t1", FieldID: "f1"}, {TableID: "gone", FieldID: "x"},
	}}
	out := FormatDBML(g)
	schema, err := Parse(out, domain.DialectDBML)
	require.NoError(t, err)
	assert.Len(t, schema.Relationships, 2)
}

func TestFormatDBML_Empty(t *testing.T) {
	assert.Equal(t, "", FormatDBML(&domain.Graph{}))
}
