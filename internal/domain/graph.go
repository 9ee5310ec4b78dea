package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Graph is a persisted diagram: tables as nodes, relationships as edges.
type Graph struct {
	ID        string
	Name      string
	Tables    map[string]TableNode
	Links     map[string]LinkEdge
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableNode is a table placed on the canvas.
type TableNode struct {
	ID     string
	Name   string
	Note   string
	X      float64
	Y      float64
	Fields []FieldEntry
}

// FieldEntry is a column of a TableNode. Type is stored in uppercase form.
type FieldEntry struct {
	ID            string
	Name          string
	Type          string
	PrimaryKey    bool
	Unique        bool
	NotNull       bool
	AutoIncrement bool
	Note          string
}

// LinkEdge connects two fields. It always has exactly two endpoints.
type LinkEdge struct {
	ID        string
	Endpoints [2]LinkEndpoint
}

// LinkEndpoint references a field of a table by identifier.
type LinkEndpoint struct {
	TableID  string
	FieldID  string
	Relation string
}

// Field returns the field with the given identifier.
func (t TableNode) Field(id string) (FieldEntry, bool) {
	for _, f := range t.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldEntry{}, false
}

// GraphInit holds the parameters for creating a graph.
type GraphInit struct {
	Name   string
	Tables map[string]TableNode
	Links  map[string]LinkEdge
}

// Validate validates the create graph request.
func (g *GraphInit) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrValidation("graph name is required")
	}
	probe := Graph{Tables: g.Tables, Links: g.Links}
	return probe.Validate()
}

// Validate checks the referential invariant: every link has two endpoints that
// resolve to existing tables and fields, and map keys match entity ids.
func (g *Graph) Validate() error {
	for key, t := range g.Tables {
		if t.ID != key {
			return ErrValidation("table key %q does not match table id %q", key, t.ID)
		}
	}
	for key, l := range g.Links {
		if l.ID != key {
			return ErrValidation("link key %q does not match link id %q", key, l.ID)
		}
		if err := g.CheckLink(l); err != nil {
			return err
		}
	}
	return nil
}

// CheckLink reports a *DanglingReferenceError if either endpoint of l does not
// resolve to a table and field of g.
func (g *Graph) CheckLink(l LinkEdge) error {
	for i, ep := range l.Endpoints {
		t, ok := g.Tables[ep.TableID]
		if !ok {
			return &DanglingReferenceError{LinkID: l.ID, Message: fmt.Sprintf("endpoint %d: table %q not found", i, ep.TableID)}
		}
		if _, ok := t.Field(ep.FieldID); !ok {
			return &DanglingReferenceError{LinkID: l.ID, Message: fmt.Sprintf("endpoint %d: field %q not found in table %q", i, ep.FieldID, t.Name)}
		}
	}
	return nil
}

// Clone returns a copy of the graph whose maps can be modified independently.
// Field slices are copied as well.
func (g *Graph) Clone() *Graph {
	out := *g
	out.Tables = make(map[string]TableNode, len(g.Tables))
	for k, t := range g.Tables {
		t.Fields = append([]FieldEntry(nil), t.Fields...)
		out.Tables[k] = t
	}
	out.Links = make(map[string]LinkEdge, len(g.Links))
	for k, l := range g.Links {
		out.Links[k] = l
	}
	return &out
}

// TableList returns the graph's tables in canvas order: by Y, then X, then ID.
// The order is deterministic for a given graph.
func (g *Graph) TableList() []TableNode {
	out := make([]TableNode, 0, len(g.Tables))
	for _, t := range g.Tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FieldCount returns the total number of fields across all tables.
func (g *Graph) FieldCount() int {
	n := 0
	for _, t := range g.Tables {
		n += len(t.Fields)
	}
	return n
}
