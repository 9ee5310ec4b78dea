package domain

import "context"

// SchemaSource obtains raw schema text from an external origin.
// Implemented by source.HTTPDumpProvider and source.TextSource.
type SchemaSource interface {
	FetchDump(ctx context.Context) (RawSchema, error)
}

// SchemaParser converts raw schema text into an AbstractSchema.
// Implemented by schemaparse.Parser.
type SchemaParser interface {
	Parse(text string, dialect Dialect) (*AbstractSchema, error)
}
