package source

import (
	"context"

	"fastcontrol/internal/domain"
)

// TextSource serves schema text supplied directly by the user, typically
// pasted or uploaded DBML.
type TextSource struct {
	Text    string
	Dialect domain.Dialect // defaults to domain.DialectDBML
}

var _ domain.SchemaSource = TextSource{}

// FetchDump implements domain.SchemaSource. The text is returned unchanged.
func (s TextSource) FetchDump(ctx context.Context) (domain.RawSchema, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawSchema{}, err
	}
	d := s.Dialect
	if d == "" {
		d = domain.DialectDBML
	}
	return domain.RawSchema{Text: s.Text, Dialect: d}, nil
}
