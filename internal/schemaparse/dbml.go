package schemaparse

import (
	"strings"

	"fastcontrol/internal/domain"
)

// parseDBML parses a DBML document. Enum, Project, TableGroup, TablePartial,
// Records and sticky Note blocks are accepted and skipped.
func parseDBML(text string) (*domain.AbstractSchema, error) {
	p := newParser(text, domain.DialectDBML)
	for !p.failed() && p.token.Type != TOKEN_EOF {
		switch {
		case p.isKeyword("table"):
			p.parseDBMLTable()
		case p.isKeyword("ref"):
			p.parseDBMLRef()
		case p.isKeyword("enum"), p.isKeyword("project"), p.isKeyword("tablegroup"),
			p.isKeyword("tablepartial"), p.isKeyword("records"), p.isKeyword("note"):
			p.skipDBMLBlock()
		default:
			p.unexpected("at top level")
		}
	}
	return p.finish()
}

func (p *parser) skipDBMLBlock() {
	kw := p.token
	p.nextToken()
	for !p.failed() && p.token.Type != TOKEN_LBRACE {
		if p.token.Type == TOKEN_EOF || p.token.Type == TOKEN_RBRACE {
			p.errorf(kw.Line, "expected '{' after %s", kw.Literal)
			return
		}
		p.skipGroup()
	}
	p.skipGroup()
}

func (p *parser) parseDBMLTable() {
	line := p.token.Line
	p.nextToken() // Table
	parts, ok := p.parseQualifiedName("after Table")
	if !ok {
		return
	}
	name := parts[len(parts)-1]
	tb := p.builder.addTable(name)

	if p.acceptKeyword("as") {
		alias, ok := p.parseName("after as")
		if !ok {
			return
		}
		p.builder.aliases[alias] = name
	}
	if p.token.Type == TOKEN_LBRACKET {
		p.parseDBMLTableSettings(tb)
	}
	if !p.expect(TOKEN_LBRACE, "to open table body") {
		return
	}

	for !p.failed() && p.token.Type != TOKEN_RBRACE {
		switch {
		case p.token.Type == TOKEN_EOF:
			p.errorf(line, "unterminated table %q", name)
			return
		case p.isKeyword("note") && (p.peek.Type == TOKEN_COLON || p.peek.Type == TOKEN_LBRACE):
			tb.table.Note = p.parseDBMLNote()
		case p.isKeyword("indexes") && p.peek.Type == TOKEN_LBRACE:
			p.parseDBMLIndexes(tb)
		case p.token.Type == TOKEN_OTHER && p.token.Literal == "~":
			// Partial injection. Partials are not expanded.
			p.nextToken()
			p.parseName("after '~'")
		case p.token.isName():
			p.parseDBMLColumn(tb)
		default:
			p.unexpected("in table body")
		}
	}
	p.nextToken() // }
}

func (p *parser) parseDBMLTableSettings(tb *tableBuilder) {
	p.nextToken() // [
	for !p.failed() {
		switch {
		case p.isKeyword("note") && p.peek.Type == TOKEN_COLON:
			p.nextToken()
			p.nextToken()
			tb.table.Note = p.parseStringValue("for table note")
		case p.token.isName() && p.peek.Type == TOKEN_COLON:
			p.nextToken()
			p.nextToken()
			p.skipSettingValue()
		default:
			p.unexpected("in table settings")
			return
		}
		if p.accept(TOKEN_COMMA) {
			continue
		}
		p.expect(TOKEN_RBRACKET, "to close table settings")
		return
	}
}

// parseDBMLNote parses "Note: 'text'" or "Note { 'text' }".
func (p *parser) parseDBMLNote() string {
	p.nextToken() // Note
	if p.accept(TOKEN_COLON) {
		return p.parseStringValue("for note")
	}
	p.nextToken() // {
	note := p.parseStringValue("for note")
	p.expect(TOKEN_RBRACE, "to close note")
	return note
}

func (p *parser) parseStringValue(context string) string {
	if p.token.Type != TOKEN_STRING && p.token.Type != TOKEN_QUOTED {
		p.errorf(p.token.Line, "expected string %s, got %s", context, p.token.describe())
		return ""
	}
	s := p.token.Literal
	p.nextToken()
	return s
}

// skipSettingValue consumes a setting value up to the next ',' or ']'.
func (p *parser) skipSettingValue() {
	line := p.token.Line
	for !p.failed() && p.token.Type != TOKEN_COMMA && p.token.Type != TOKEN_RBRACKET {
		if p.token.Type == TOKEN_EOF {
			p.errorf(line, "unterminated settings")
			return
		}
		p.skipGroup()
	}
}

func (p *parser) parseDBMLColumn(tb *tableBuilder) {
	line := p.token.Line
	name, _ := p.parseName("for column")
	f := domain.SchemaField{Name: name, TypeName: p.parseDBMLType()}
	if p.failed() {
		return
	}
	if p.token.Type == TOKEN_LBRACKET && p.peek.Type != TOKEN_RBRACKET {
		p.parseDBMLColumnSettings(tb.table.Name, &f)
	}
	if !tb.addField(f) {
		p.errorf(line, "duplicate column %q in table %q", name, tb.table.Name)
	}
}

// parseDBMLType parses a column type such as varchar(255), decimal(10,2),
// int[] or a quoted "timestamp with time zone".
func (p *parser) parseDBMLType() string {
	parts, ok := p.parseQualifiedName("for column type")
	if !ok {
		return ""
	}
	typ := strings.Join(parts, ".")
	if p.token.Type == TOKEN_LPAREN {
		typ += p.rawGroup()
	}
	for p.token.Type == TOKEN_LBRACKET && p.peek.Type == TOKEN_RBRACKET {
		p.nextToken()
		p.nextToken()
		typ += "[]"
	}
	return typ
}

func (p *parser) parseDBMLColumnSettings(table string, f *domain.SchemaField) {
	p.nextToken() // [
	for !p.failed() {
		switch {
		case p.isKeyword("pk"):
			p.nextToken()
			f.PrimaryKey = true
		case p.isKeyword("primary"):
			p.nextToken()
			if p.expectKeyword("key", "after primary") {
				f.PrimaryKey = true
			}
		case p.isKeyword("increment"):
			p.nextToken()
			f.AutoIncrement = true
		case p.isKeyword("not"):
			p.nextToken()
			if p.expectKeyword("null", "after not") {
				f.NotNull = true
			}
		case p.isKeyword("null"):
			p.nextToken()
			f.NotNull = false
		case p.isKeyword("unique"):
			p.nextToken()
			f.Unique = true
		case p.isKeyword("note") && p.peek.Type == TOKEN_COLON:
			p.nextToken()
			p.nextToken()
			f.Note = p.parseStringValue("for column note")
		case p.isKeyword("ref") && p.peek.Type == TOKEN_COLON:
			p.nextToken()
			p.nextToken()
			p.parseDBMLInlineRef(table, f.Name)
		case p.token.isName() && p.peek.Type == TOKEN_COLON:
			p.nextToken()
			p.nextToken()
			p.skipSettingValue()
		default:
			p.unexpected("in column settings")
			return
		}
		if p.accept(TOKEN_COMMA) {
			continue
		}
		p.expect(TOKEN_RBRACKET, "to close column settings")
		return
	}
}

func (p *parser) parseDBMLInlineRef(table, field string) {
	left, right, ok := relationMarkers(p.token)
	if !ok {
		p.errorf(p.token.Line, "expected relationship operator, got %s", p.token.describe())
		return
	}
	p.nextToken()
	to := p.parseDBMLEndpoint()
	if p.failed() {
		return
	}
	to.Relation = right
	from := domain.SchemaEndpoint{TableName: table, FieldNames: []string{field}, Relation: left}
	p.builder.addRelationship("", from, to)
}

// parseDBMLIndexes parses an indexes block. Single-column pk and unique
// indexes are folded into the column flags, composite pk marks every column.
func (p *parser) parseDBMLIndexes(tb *tableBuilder) {
	line := p.token.Line
	p.nextToken() // indexes
	p.nextToken() // {
	for !p.failed() && p.token.Type != TOKEN_RBRACE {
		var cols []string
		switch {
		case p.token.Type == TOKEN_EOF:
			p.errorf(line, "unterminated indexes block")
			return
		case p.token.Type == TOKEN_LPAREN:
			cols = p.parseColumnList("in index")
		case p.token.Type == TOKEN_BACKTICK:
			p.nextToken() // expression index
		case p.token.isName():
			cols = []string{p.token.Literal}
			p.nextToken()
		default:
			p.unexpected("in indexes block")
			return
		}
		if p.token.Type == TOKEN_LBRACKET {
			pk, unique := p.parseDBMLIndexSettings()
			if pk {
				tb.markPrimaryKey(cols)
			}
			if unique {
				tb.markUnique(cols)
			}
		}
	}
	p.nextToken() // }
}

func (p *parser) parseDBMLIndexSettings() (pk, unique bool) {
	p.nextToken() // [
	for !p.failed() {
		switch {
		case p.isKeyword("pk"):
			p.nextToken()
			pk = true
		case p.isKeyword("unique"):
			p.nextToken()
			unique = true
		case p.token.isName() && p.peek.Type == TOKEN_COLON:
			p.nextToken()
			p.nextToken()
			p.skipSettingValue()
		default:
			p.unexpected("in index settings")
			return pk, unique
		}
		if p.accept(TOKEN_COMMA) {
			continue
		}
		p.expect(TOKEN_RBRACKET, "to close index settings")
		return pk, unique
	}
	return pk, unique
}

// parseDBMLRef parses "Ref [name]: a.b > c.d" or a "Ref [name] { ... }" block.
func (p *parser) parseDBMLRef() {
	line := p.token.Line
	p.nextToken() // Ref
	name := ""
	if p.token.isName() && (p.peek.Type == TOKEN_COLON || p.peek.Type == TOKEN_LBRACE) {
		name = p.token.Literal
		p.nextToken()
	}
	switch {
	case p.accept(TOKEN_COLON):
		p.parseDBMLRefLine(name)
	case p.accept(TOKEN_LBRACE):
		for !p.failed() && p.token.Type != TOKEN_RBRACE {
			if p.token.Type == TOKEN_EOF {
				p.errorf(line, "unterminated Ref block")
				return
			}
			p.parseDBMLRefLine(name)
		}
		p.nextToken() // }
	default:
		p.unexpected("after Ref")
	}
}

func (p *parser) parseDBMLRefLine(name string) {
	from := p.parseDBMLEndpoint()
	if p.failed() {
		return
	}
	left, right, ok := relationMarkers(p.token)
	if !ok {
		p.errorf(p.token.Line, "expected relationship operator, got %s", p.token.describe())
		return
	}
	p.nextToken()
	to := p.parseDBMLEndpoint()
	if p.token.Type == TOKEN_LBRACKET {
		p.skipGroup() // delete/update actions, color
	}
	if p.failed() {
		return
	}
	from.Relation, to.Relation = left, right
	p.builder.addRelationship(name, from, to)
}

// parseDBMLEndpoint parses table.column, schema.table.column or a composite
// table.(a, b).
func (p *parser) parseDBMLEndpoint() domain.SchemaEndpoint {
	line := p.token.Line
	first, ok := p.parseName("in reference")
	if !ok {
		return domain.SchemaEndpoint{}
	}
	parts := []string{first}
	for p.accept(TOKEN_DOT) {
		if p.token.Type == TOKEN_LPAREN {
			cols := p.parseColumnList("in composite reference")
			return domain.SchemaEndpoint{TableName: parts[len(parts)-1], FieldNames: cols}
		}
		name, ok := p.parseName("in reference")
		if !ok {
			return domain.SchemaEndpoint{}
		}
		parts = append(parts, name)
	}
	if len(parts) < 2 {
		p.errorf(line, "reference %q must name a table and a column", first)
		return domain.SchemaEndpoint{}
	}
	return domain.SchemaEndpoint{
		TableName:  parts[len(parts)-2],
		FieldNames: []string{parts[len(parts)-1]},
	}
}

// relationMarkers maps a DBML relationship operator to the markers of its
// left and right endpoints.
func relationMarkers(tok Token) (left, right string, ok bool) {
	switch tok.Type {
	case TOKEN_GT:
		return domain.RelationMany, domain.RelationOne, true
	case TOKEN_LT:
		return domain.RelationOne, domain.RelationMany, true
	case TOKEN_MINUS:
		return domain.RelationOne, domain.RelationOne, true
	case TOKEN_NE:
		return domain.RelationMany, domain.RelationMany, true
	default:
		return "", "", false
	}
}
