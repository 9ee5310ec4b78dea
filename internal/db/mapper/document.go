// Package mapper converts graphs between their domain form and the JSON
// document form shared by the store and the HTTP API.
package mapper

import (
	"encoding/json"
	"fmt"
	"time"

	"fastcontrol/internal/domain"
)

// GraphDocument is the persisted and transferred form of a graph.
// Timestamps are Unix milliseconds.
type GraphDocument struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	TableDict map[string]TableDocument `json:"tableDict"`
	LinkDict  map[string]LinkDocument  `json:"linkDict"`
	CreatedAt int64                    `json:"createdAt"`
	UpdatedAt int64                    `json:"updatedAt"`
}

// TableDocument is one entry of GraphDocument.TableDict.
type TableDocument struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Note   string          `json:"note,omitempty"`
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
	Fields []FieldDocument `json:"fields"`
}

// FieldDocument is a column of a TableDocument.
type FieldDocument struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	PK        bool   `json:"pk"`
	Unique    bool   `json:"unique"`
	NotNull   bool   `json:"not_null"`
	Increment bool   `json:"increment"`
	Note      string `json:"note,omitempty"`
}

// LinkDocument is one entry of GraphDocument.LinkDict.
type LinkDocument struct {
	ID        string             `json:"id"`
	Endpoints []EndpointDocument `json:"endpoints"`
}

// EndpointDocument references a field; ID is the table identifier.
type EndpointDocument struct {
	ID       string `json:"id"`
	FieldID  string `json:"fieldId"`
	Relation string `json:"relation"`
}

// UnixMilli converts a timestamp to Unix milliseconds.
func UnixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMilli converts Unix milliseconds to a UTC timestamp.
func FromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// GraphToDocument converts a domain graph to its document form.
func GraphToDocument(g *domain.Graph) GraphDocument {
	return GraphDocument{
		ID:        g.ID,
		Name:      g.Name,
		TableDict: TablesToDocument(g.Tables),
		LinkDict:  LinksToDocument(g.Links),
		CreatedAt: UnixMilli(g.CreatedAt),
		UpdatedAt: UnixMilli(g.UpdatedAt),
	}
}

// GraphFromDocument converts a document to a domain graph. It fails when a
// link does not have exactly two endpoints.
func GraphFromDocument(d GraphDocument) (*domain.Graph, error) {
	links, err := LinksFromDocument(d.LinkDict)
	if err != nil {
		return nil, err
	}
	return &domain.Graph{
		ID:        d.ID,
		Name:      d.Name,
		Tables:    TablesFromDocument(d.TableDict),
		Links:     links,
		CreatedAt: FromUnixMilli(d.CreatedAt),
		UpdatedAt: FromUnixMilli(d.UpdatedAt),
	}, nil
}

// TableToDocument converts one table node.
func TableToDocument(t domain.TableNode) TableDocument {
	fields := make([]FieldDocument, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = FieldDocument{
			ID:        f.ID,
			Name:      f.Name,
			Type:      f.Type,
			PK:        f.PrimaryKey,
			Unique:    f.Unique,
			NotNull:   f.NotNull,
			Increment: f.AutoIncrement,
			Note:      f.Note,
		}
	}
	return TableDocument{ID: t.ID, Name: t.Name, Note: t.Note, X: t.X, Y: t.Y, Fields: fields}
}

// TablesToDocument converts table nodes to documents.
func TablesToDocument(tables map[string]domain.TableNode) map[string]TableDocument {
	out := make(map[string]TableDocument, len(tables))
	for k, t := range tables {
		out[k] = TableToDocument(t)
	}
	return out
}

// TablesFromDocument converts table documents to table nodes.
func TablesFromDocument(docs map[string]TableDocument) map[string]domain.TableNode {
	out := make(map[string]domain.TableNode, len(docs))
	for k, d := range docs {
		fields := make([]domain.FieldEntry, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = domain.FieldEntry{
				ID:            f.ID,
				Name:          f.Name,
				Type:          f.Type,
				PrimaryKey:    f.PK,
				Unique:        f.Unique,
				NotNull:       f.NotNull,
				AutoIncrement: f.Increment,
				Note:          f.Note,
			}
		}
		out[k] = domain.TableNode{ID: d.ID, Name: d.Name, Note: d.Note, X: d.X, Y: d.Y, Fields: fields}
	}
	return out
}

// LinkToDocument converts one link edge.
func LinkToDocument(l domain.LinkEdge) LinkDocument {
	eps := make([]EndpointDocument, len(l.Endpoints))
	for i, ep := range l.Endpoints {
		eps[i] = EndpointDocument{ID: ep.TableID, FieldID: ep.FieldID, Relation: ep.Relation}
	}
	return LinkDocument{ID: l.ID, Endpoints: eps}
}

// LinksToDocument converts link edges to documents.
func LinksToDocument(links map[string]domain.LinkEdge) map[string]LinkDocument {
	out := make(map[string]LinkDocument, len(links))
	for k, l := range links {
		out[k] = LinkToDocument(l)
	}
	return out
}

// LinksFromDocument converts link documents to link edges.
func LinksFromDocument(docs map[string]LinkDocument) (map[string]domain.LinkEdge, error) {
	out := make(map[string]domain.LinkEdge, len(docs))
	for k, d := range docs {
		if len(d.Endpoints) != 2 {
			return nil, domain.ErrValidation("link %q has %d endpoints, want 2", k, len(d.Endpoints))
		}
		var l domain.LinkEdge
		l.ID = d.ID
		for i, ep := range d.Endpoints {
			l.Endpoints[i] = domain.LinkEndpoint{TableID: ep.ID, FieldID: ep.FieldID, Relation: ep.Relation}
		}
		out[k] = l
	}
	return out, nil
}

// MarshalTables encodes table nodes as the JSON stored in graphs.tables_json.
func MarshalTables(tables map[string]domain.TableNode) (string, error) {
	b, err := json.Marshal(TablesToDocument(tables))
	if err != nil {
		return "", fmt.Errorf("encode tables: %w", err)
	}
	return string(b), nil
}

// UnmarshalTables decodes graphs.tables_json.
func UnmarshalTables(s string) (map[string]domain.TableNode, error) {
	var docs map[string]TableDocument
	if err := json.Unmarshal([]byte(s), &docs); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	return TablesFromDocument(docs), nil
}

// MarshalLinks encodes link edges as the JSON stored in graphs.links_json.
func MarshalLinks(links map[string]domain.LinkEdge) (string, error) {
	b, err := json.Marshal(LinksToDocument(links))
	if err != nil {
		return "", fmt.Errorf("encode links: %w", err)
	}
	return string(b), nil
}

// UnmarshalLinks decodes graphs.links_json.
func UnmarshalLinks(s string) (map[string]domain.LinkEdge, error) {
	var docs map[string]LinkDocument
	if err := json.Unmarshal([]byte(s), &docs); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}
	return LinksFromDocument(docs)
}
