package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastcontrol/internal/domain"
)

func baseGraph() *domain.Graph {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.Graph{
		ID:   "g",
		Name: "base",
		Tables: map[string]domain.TableNode{
			"t-users": {ID: "t-users", Name: "users", Fields: []domain.FieldEntry{{ID: "f-users-id", Name: "id", Type: "INT"}}},
		},
		Links:     map[string]domain.LinkEdge{},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestMerge_AddsWithoutTouchingExisting(t *testing.T) {
	current := baseGraph()
	res, err := newTestNormalizer().Normalize(usersOrdersSchema(), current.TableList())
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	merged, err := Merge(current, res.Tables, res.Links, now)
	require.NoError(t, err)

	assert.Len(t, merged.Tables, 3)
	assert.Len(t, merged.Links, 1)
	assert.Equal(t, baseGraph().Tables["t-users"], merged.Tables["t-users"], "existing entry unchanged")
	assert.Equal(t, now, merged.UpdatedAt)
	assert.Equal(t, current.CreatedAt, merged.CreatedAt)
	require.NoError(t, merged.Validate())

	// The input graph is not modified.
	assert.Len(t, current.Tables, 1)
	assert.Empty(t, current.Links)
	assert.Equal(t, current.CreatedAt, current.UpdatedAt)
}

func TestMerge_EmptyInputs(t *testing.T) {
	current := baseGraph()
	now := current.UpdatedAt.Add(time.Minute)
	merged, err := Merge(current, nil, nil, now)
	require.NoError(t, err)
	assert.Equal(t, current.Tables, merged.Tables)
	assert.Empty(t, merged.Links)
	assert.Equal(t, now, merged.UpdatedAt)
}

func TestMerge_LinkToExistingTable(t *testing.T) {
	current := baseGraph()
	tables := map[string]domain.TableNode{
		"t-orders": {ID: "t-orders", Name: "orders", Fields: []domain.FieldEntry{{ID: "f-user", Name: "user_id"}}},
	}
	links := map[string]domain.LinkEdge{
		"l1": {ID: "l1", Endpoints: [2]domain.LinkEndpoint{
			{TableID: "t-orders", FieldID: "f-user", Relation: domain.RelationMany},
			{TableID: "t-users", FieldID: "f-users-id", Relation: domain.RelationOne},
		}},
	}
	merged, err := Merge(current, tables, links, time.Now())
	require.NoError(t, err)
	assert.Contains(t, merged.Links, "l1")
}

func TestMerge_Errors(t *testing.T) {
	tests := []struct {
		name   string
		tables map[string]domain.TableNode
		links  map[string]domain.LinkEdge
		check  func(t *testing.T, err error)
	}{
		{
			name:   "table key collision",
			tables: map[string]domain.TableNode{"t-users": {ID: "t-users", Name: "again"}},
			check: func(t *testing.T, err error) {
				var collision *domain.IdentifierCollisionError
				require.ErrorAs(t, err, &collision)
				assert.Equal(t, "table", collision.Kind)
			},
		},
		{
			name: "dangling new link",
			links: map[string]domain.LinkEdge{"l1": {ID: "l1", Endpoints: [2]domain.LinkEndpoint{
				{TableID: "t-users", FieldID: "f-users-id"},
				{TableID: "t-missing", FieldID: "f"},
			}}},
			check: func(t *testing.T, err error) {
				var dangling *domain.DanglingReferenceError
				require.ErrorAs(t, err, &dangling)
				assert.Equal(t, "l1", dangling.LinkID)
			},
		},
		{
			name:   "key does not match id",
			tables: map[string]domain.TableNode{"k": {ID: "other"}},
			check: func(t *testing.T, err error) {
				var validation *domain.ValidationError
				require.ErrorAs(t, err, &validation)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			current := baseGraph()
			merged, err := Merge(current, tc.tables, tc.links, time.Now())
			assert.Nil(t, merged)
			tc.check(t, err)
			assert.Equal(t, baseGraph(), current, "current is untouched on error")
		})
	}

	t.Run("link key collision", func(t *testing.T) {
		current := baseGraph()
		current.Links["l1"] = domain.LinkEdge{ID: "l1", Endpoints: [2]domain.LinkEndpoint{
			{TableID: "t-users", FieldID: "f-users-id"}, {TableID: "t-users", FieldID: "f-users-id"},
		}}
		_, err := Merge(current, nil, map[string]domain.LinkEdge{"l1": current.Links["l1"]}, time.Now())
		var collision *domain.IdentifierCollisionError
		require.ErrorAs(t, err, &collision)
		assert.Equal(t, "link", collision.Kind)
	})

	t.Run("nil graph", func(t *testing.T) {
		_, err := Merge(nil, nil, nil, time.Now())
		assert.Error(t, err)
	})
}
