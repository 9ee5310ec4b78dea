package graph

import (
	"fmt"
	"strings"

	"fastcontrol/internal/domain"
)

// Normalizer converts an AbstractSchema into graph tables and links. It owns
// no state besides its identifier generator, which it advances.
type Normalizer struct {
	ids    domain.IDGenerator
	layout Layout
}

// NewNormalizer creates a Normalizer. The generator must not repeat values
// across the lifetime of the process.
func NewNormalizer(ids domain.IDGenerator, layout Layout) *Normalizer {
	return &Normalizer{ids: ids, layout: layout}
}

// NormalizeResult is the graph fragment produced from one schema.
type NormalizeResult struct {
	Tables map[string]domain.TableNode
	Links  map[string]domain.LinkEdge
	// TableOrder lists the new table ids in schema order.
	TableOrder  []string
	Diagnostics []domain.Diagnostic
}

// NormalizeType returns the canonical form of a column type.
func NormalizeType(typeName string) string {
	return strings.ToUpper(strings.TrimSpace(typeName))
}

// Normalize builds one TableNode per schema table and one LinkEdge per
// resolvable relationship. existing holds the tables already in the target
// graph: new tables are placed around them and relationships may reference
// them. Unresolvable relationships are dropped and reported as diagnostics.
// The only error is *domain.IdentifierCollisionError.
func (n *Normalizer) Normalize(schema *domain.AbstractSchema, existing []domain.TableNode) (*NormalizeResult, error) {
	res := &NormalizeResult{
		Tables: make(map[string]domain.TableNode),
		Links:  make(map[string]domain.LinkEdge),
	}
	if schema == nil {
		return res, nil
	}

	used := make(map[string]struct{})
	for _, t := range existing {
		used[t.ID] = struct{}{}
		for _, f := range t.Fields {
			used[f.ID] = struct{}{}
		}
	}

	placer := n.layout.NewPlacer(existing)
	batch := make(map[string]domain.TableNode, len(schema.Tables))
	for _, st := range schema.Tables {
		tableID, err := n.fresh(used, "table")
		if err != nil {
			return nil, err
		}
		node := domain.TableNode{
			ID:     tableID,
			Name:   st.Name,
			Note:   st.Note,
			Fields: make([]domain.FieldEntry, 0, len(st.Fields)),
		}
		for _, sf := range st.Fields {
			fieldID, err := n.fresh(used, "field")
			if err != nil {
				return nil, err
			}
			node.Fields = append(node.Fields, domain.FieldEntry{
				ID:            fieldID,
				Name:          sf.Name,
				Type:          NormalizeType(sf.TypeName),
				PrimaryKey:    sf.PrimaryKey,
				Unique:        sf.Unique,
				NotNull:       sf.NotNull,
				AutoIncrement: sf.AutoIncrement,
				Note:          sf.Note,
			})
		}
		node.X, node.Y = placer.Place()

		res.Tables[tableID] = node
		res.TableOrder = append(res.TableOrder, tableID)
		batch[st.Name] = node // last occurrence wins
	}

	lookup := newNameLookup(batch, existing)
	for i, rel := range schema.Relationships {
		var link domain.LinkEdge
		resolved := true
		for j, sep := range rel.Endpoints {
			if len(sep.FieldNames) > 1 {
				res.Diagnostics = append(res.Diagnostics, domain.Diagnostic{
					Kind:         domain.DiagnosticCompositeReference,
					Relationship: i,
					TableName:    sep.TableName,
					FieldName:    sep.FieldName(),
					Message: fmt.Sprintf("composite reference %s.(%s) resolved to its first column",
						sep.TableName, strings.Join(sep.FieldNames, ", ")),
				})
			}
			ep, msg := lookup.resolve(sep)
			if msg != "" {
				res.Diagnostics = append(res.Diagnostics, domain.Diagnostic{
					Kind:         domain.DiagnosticDanglingRelationship,
					Relationship: i,
					TableName:    sep.TableName,
					FieldName:    sep.FieldName(),
					Message:      fmt.Sprintf("endpoint %d: %s; relationship dropped", j, msg),
				})
				resolved = false
				break
			}
			link.Endpoints[j] = ep
		}
		if !resolved {
			continue
		}
		linkID, err := n.fresh(used, "link")
		if err != nil {
			return nil, err
		}
		link.ID = linkID
		res.Links[linkID] = link
	}
	return res, nil
}

// fresh draws an identifier and fails if it was seen before in this call or
// belongs to an existing table or field.
func (n *Normalizer) fresh(used map[string]struct{}, kind string) (string, error) {
	id := n.ids.NewID()
	if _, dup := used[id]; dup || id == "" {
		return "", &domain.IdentifierCollisionError{Kind: kind, ID: id}
	}
	used[id] = struct{}{}
	return id, nil
}

// nameLookup resolves table and field names to identifiers. Tables of the
// import batch shadow existing tables of the same name.
type nameLookup struct {
	tables map[string]domain.TableNode
	fields map[string]map[string]string // table id -> field name -> field id
}

func newNameLookup(batch map[string]domain.TableNode, existing []domain.TableNode) *nameLookup {
	l := &nameLookup{
		tables: make(map[string]domain.TableNode, len(batch)+len(existing)),
		fields: make(map[string]map[string]string),
	}
	for _, t := range existing {
		l.tables[t.Name] = t // last occurrence wins
	}
	for name, t := range batch {
		l.tables[name] = t
	}
	return l
}

func (l *nameLookup) resolve(sep domain.SchemaEndpoint) (domain.LinkEndpoint, string) {
	t, ok := l.tables[sep.TableName]
	if !ok {
		return domain.LinkEndpoint{}, fmt.Sprintf("table %q not found", sep.TableName)
	}
	name := sep.FieldName()
	if name == "" {
		return domain.LinkEndpoint{}, fmt.Sprintf("no column given for table %q", sep.TableName)
	}
	fieldID, ok := l.fieldsOf(t)[name]
	if !ok {
		return domain.LinkEndpoint{}, fmt.Sprintf("field %q not found in table %q", name, sep.TableName)
	}
	return domain.LinkEndpoint{TableID: t.ID, FieldID: fieldID, Relation: sep.Relation}, ""
}

func (l *nameLookup) fieldsOf(t domain.TableNode) map[string]string {
	if m, ok := l.fields[t.ID]; ok {
		return m
	}
	m := make(map[string]string, len(t.Fields))
	for _, f := range t.Fields {
		m[f.Name] = f.ID // last occurrence wins
	}
	l.fields[t.ID] = m
	return m
}
