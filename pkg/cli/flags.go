package cli

import (
	"github.com/spf13/pflag"

	"fastcontrol/internal/domain"
)

// dialectValue is a flag holding a SQL dump dialect. Set rejects DBML and
// unknown names at parse time.
type dialectValue struct {
	d domain.Dialect
}

var _ pflag.Value = (*dialectValue)(nil)

func newDialectValue(d domain.Dialect) *dialectValue { return &dialectValue{d: d} }

func (v *dialectValue) String() string { return string(v.d) }

func (v *dialectValue) Type() string { return "dialect" }

func (v *dialectValue) Set(s string) error {
	d, err := domain.ParseDialect(s)
	if err != nil {
		return err
	}
	if !d.IsSQL() {
		return domain.ErrValidation("dialect must be mysql or postgres, got %q", s)
	}
	v.d = d
	return nil
}

func (v *dialectValue) Dialect() domain.Dialect { return v.d }
