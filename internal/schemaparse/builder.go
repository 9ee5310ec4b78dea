package schemaparse

import (
	"fastcontrol/internal/domain"
)

// schemaBuilder accumulates tables and relationships while a document is
// parsed. Tables are looked up by name with the last declaration winning.
type schemaBuilder struct {
	tables  []*tableBuilder
	byName  map[string]*tableBuilder
	aliases map[string]string
	rels    []pendingRelationship
}

type tableBuilder struct {
	table  domain.SchemaTable
	fields map[string]int
}

// pendingRelationship is a relationship whose endpoint markers may depend on
// constraints declared later in the document. An empty Relation on the from
// side is inferred at build time from the referencing columns.
type pendingRelationship struct {
	name     string
	from, to domain.SchemaEndpoint
}

func newSchemaBuilder() *schemaBuilder {
	return &schemaBuilder{
		byName:  make(map[string]*tableBuilder),
		aliases: make(map[string]string),
	}
}

func (b *schemaBuilder) addTable(name string) *tableBuilder {
	tb := &tableBuilder{
		table:  domain.SchemaTable{Name: name},
		fields: make(map[string]int),
	}
	b.tables = append(b.tables, tb)
	b.byName[name] = tb
	return tb
}

func (b *schemaBuilder) lookup(name string) *tableBuilder {
	if tb, ok := b.byName[name]; ok {
		return tb
	}
	if real, ok := b.aliases[name]; ok {
		return b.byName[real]
	}
	return nil
}

func (b *schemaBuilder) addRelationship(name string, from, to domain.SchemaEndpoint) {
	b.rels = append(b.rels, pendingRelationship{name: name, from: from, to: to})
}

// addField appends a field and reports false if the name is already taken.
func (tb *tableBuilder) addField(f domain.SchemaField) bool {
	if _, dup := tb.fields[f.Name]; dup {
		return false
	}
	tb.fields[f.Name] = len(tb.table.Fields)
	tb.table.Fields = append(tb.table.Fields, f)
	return true
}

// field returns the named field, or nil. It is safe to call on a nil
// tableBuilder.
func (tb *tableBuilder) field(name string) *domain.SchemaField {
	if tb == nil {
		return nil
	}
	if i, ok := tb.fields[name]; ok {
		return &tb.table.Fields[i]
	}
	return nil
}

// replaceField replaces the definition of column old with f, keeping the
// note and the key flags of the previous definition.
func (tb *tableBuilder) replaceField(old string, f domain.SchemaField) {
	i, ok := tb.fields[old]
	if !ok {
		return
	}
	prev := tb.table.Fields[i]
	if f.Note == "" {
		f.Note = prev.Note
	}
	f.PrimaryKey = f.PrimaryKey || prev.PrimaryKey
	f.Unique = f.Unique || prev.Unique
	delete(tb.fields, old)
	tb.fields[f.Name] = i
	tb.table.Fields[i] = f
}

// markPrimaryKey flags every named column as part of the primary key.
func (tb *tableBuilder) markPrimaryKey(cols []string) {
	for _, c := range cols {
		if f := tb.field(c); f != nil {
			f.PrimaryKey = true
		}
	}
}

// markUnique flags a single-column unique constraint. Composite unique
// constraints do not make any one column unique.
func (tb *tableBuilder) markUnique(cols []string) {
	if len(cols) != 1 {
		return
	}
	if f := tb.field(cols[0]); f != nil {
		f.Unique = true
	}
}

// isOneSide reports whether cols identify at most one row: a single column
// that is unique or the table's only primary key column.
func (tb *tableBuilder) isOneSide(cols []string) bool {
	if len(cols) != 1 {
		return false
	}
	f := tb.field(cols[0])
	if f == nil {
		return false
	}
	if f.Unique {
		return true
	}
	if !f.PrimaryKey {
		return false
	}
	pks := 0
	for _, other := range tb.table.Fields {
		if other.PrimaryKey {
			pks++
		}
	}
	return pks == 1
}

func (b *schemaBuilder) build() *domain.AbstractSchema {
	schema := &domain.AbstractSchema{
		Tables:        make([]domain.SchemaTable, 0, len(b.tables)),
		Relationships: make([]domain.SchemaRelationship, 0, len(b.rels)),
	}
	for _, tb := range b.tables {
		schema.Tables = append(schema.Tables, tb.table)
	}
	for _, rel := range b.rels {
		from, to := b.resolveAlias(rel.from), b.resolveAlias(rel.to)
		if len(to.FieldNames) == 0 {
			// REFERENCES without a column list targets the primary key.
			to.FieldNames = b.primaryKey(to.TableName)
		}
		if from.Relation == "" {
			from.Relation = domain.RelationMany
			if tb := b.lookup(from.TableName); tb != nil && tb.isOneSide(from.FieldNames) {
				from.Relation = domain.RelationOne
			}
		}
		schema.Relationships = append(schema.Relationships, domain.SchemaRelationship{
			Name:      rel.name,
			Endpoints: [2]domain.SchemaEndpoint{from, to},
		})
	}
	return schema
}

func (b *schemaBuilder) primaryKey(table string) []string {
	tb := b.lookup(table)
	if tb == nil {
		return nil
	}
	var cols []string
	for _, f := range tb.table.Fields {
		if f.PrimaryKey {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

func (b *schemaBuilder) resolveAlias(ep domain.SchemaEndpoint) domain.SchemaEndpoint {
	if _, ok := b.byName[ep.TableName]; ok {
		return ep
	}
	if real, ok := b.aliases[ep.TableName]; ok {
		ep.TableName = real
	}
	return ep
}
