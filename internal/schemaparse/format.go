package schemaparse

import (
	"regexp"
	"sort"
	"strings"

	"fastcontrol/internal/domain"
)

var (
	plainName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	plainType = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*(\([A-Za-z0-9_,.']*\))?(\[\])*$`)
)

// FormatDBML renders g as a DBML document. Tables are written in canvas
// order (y, then x, then name) and refs are sorted, so the output is
// deterministic. Links whose endpoints do not resolve are omitted.
func FormatDBML(g *domain.Graph) string {
	tables := g.TableList()
	sort.SliceStable(tables, func(i, j int) bool {
		a, b := tables[i], tables[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Name < b.Name
	})

	var b strings.Builder
	for i, t := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		writeTable(&b, t)
	}

	refs := formatRefs(g)
	if len(refs) > 0 {
		if len(tables) > 0 {
			b.WriteString("\n")
		}
		for _, r := range refs {
			b.WriteString(r)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeTable(b *strings.Builder, t domain.TableNode) {
	b.WriteString("Table ")
	b.WriteString(quoteName(t.Name))
	b.WriteString(" {\n")
	for _, f := range t.Fields {
		b.WriteString("  ")
		b.WriteString(quoteName(f.Name))
		b.WriteString(" ")
		b.WriteString(quoteType(f.Type))
		if settings := fieldSettings(f); len(settings) > 0 {
			b.WriteString(" [")
			b.WriteString(strings.Join(settings, ", "))
			b.WriteString("]")
		}
		b.WriteString("\n")
	}
	if t.Note != "" {
		b.WriteString("\n  Note: ")
		b.WriteString(quoteString(t.Note))
		b.WriteString("\n")
	}
	b.WriteString("}\n")
}

func fieldSettings(f domain.FieldEntry) []string {
	var s []string
	if f.PrimaryKey {
		s = append(s, "pk")
	}
	if f.AutoIncrement {
		s = append(s, "increment")
	}
	if f.NotNull {
		s = append(s, "not null")
	}
	if f.Unique {
		s = append(s, "unique")
	}
	if f.Note != "" {
		s = append(s, "note: "+quoteString(f.Note))
	}
	return s
}

func formatRefs(g *domain.Graph) []string {
	var refs []string
	for _, l := range g.Links {
		var ends [2]string
		ok := true
		for i, ep := range l.Endpoints {
			t, found := g.Tables[ep.TableID]
			if !found {
				ok = false
				break
			}
			f, found := t.Field(ep.FieldID)
			if !found {
				ok = false
				break
			}
			ends[i] = quoteName(t.Name) + "." + quoteName(f.Name)
		}
		if !ok {
			continue
		}
		op := relationOperator(l.Endpoints[0].Relation, l.Endpoints[1].Relation)
		refs = append(refs, "Ref: "+ends[0]+" "+op+" "+ends[1])
	}
	sort.Strings(refs)
	return refs
}

// relationOperator is the inverse of relationMarkers.
func relationOperator(left, right string) string {
	switch {
	case left == domain.RelationOne && right == domain.RelationMany:
		return "<"
	case left == domain.RelationOne && right == domain.RelationOne:
		return "-"
	case left == domain.RelationMany && right == domain.RelationMany:
		return "<>"
	default:
		return ">"
	}
}

func quoteName(s string) string {
	if plainName.MatchString(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteType(s string) string {
	if plainType.MatchString(s) && !strings.Contains(s, "''") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

var stringEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func quoteString(s string) string {
	return "'" + stringEscaper.Replace(s) + "'"
}
