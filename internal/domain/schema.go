package domain

import "strings"

// Dialect is the source format of schema text.
type Dialect string

// Supported dialects. MySQL and PostgreSQL are SQL dumps; DBML is the
// dbdiagram.io markup language.
const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectDBML     Dialect = "dbml"
)

// ParseDialect maps a user-supplied dialect name to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	case "dbml":
		return DialectDBML, nil
	default:
		return "", ErrValidation("unsupported dialect %q: use mysql, postgres or dbml", s)
	}
}

// IsSQL reports whether the dialect is a SQL dump dialect.
func (d Dialect) IsSQL() bool {
	return d == DialectMySQL || d == DialectPostgres
}

// RawSchema is schema text tagged with its dialect.
type RawSchema struct {
	Text    string
	Dialect Dialect
}

// Relation markers for relationship endpoints.
const (
	RelationOne  = "1"
	RelationMany = "*"
)

// AbstractSchema is the dialect-neutral parser output. It lives only for the
// duration of one import call.
type AbstractSchema struct {
	Tables        []SchemaTable
	Relationships []SchemaRelationship
}

// SchemaTable is a parsed table.
type SchemaTable struct {
	Name   string
	Note   string
	Fields []SchemaField
}

// Field returns the field with the given name.
func (t *SchemaTable) Field(name string) (*SchemaField, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// SchemaField is a parsed column.
type SchemaField struct {
	Name          string
	TypeName      string
	PrimaryKey    bool
	Unique        bool
	NotNull       bool
	AutoIncrement bool
	Note          string
}

// SchemaRelationship is a parsed reference between two table columns.
type SchemaRelationship struct {
	Name      string
	Endpoints [2]SchemaEndpoint
}

// SchemaEndpoint names one side of a relationship. Composite references carry
// more than one field name.
type SchemaEndpoint struct {
	TableName  string
	FieldNames []string
	Relation   string
}

// FieldName returns the first referenced field name, or "" if none.
func (e SchemaEndpoint) FieldName() string {
	if len(e.FieldNames) == 0 {
		return ""
	}
	return e.FieldNames[0]
}
