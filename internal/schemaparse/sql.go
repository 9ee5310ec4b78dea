package schemaparse

import (
	"strings"

	"fastcontrol/internal/domain"
)

// typeContinuation lists the words that extend a column type, as in
// "double precision", "character varying" or "int unsigned".
var typeContinuation = map[string]bool{
	"precision": true,
	"varying":   true,
	"unsigned":  true,
	"signed":    true,
	"zerofill":  true,
	"with":      true,
	"without":   true,
	"time":      true,
	"zone":      true,
}

var serialTypes = map[string]bool{
	"serial":      true,
	"bigserial":   true,
	"smallserial": true,
	"serial2":     true,
	"serial4":     true,
	"serial8":     true,
}

// parseSQL parses a mysql or postgres dump. Only CREATE TABLE, ALTER TABLE
// and COMMENT ON statements contribute to the schema; every other statement
// is skipped to its terminating semicolon.
func parseSQL(text string, dialect domain.Dialect) (*domain.AbstractSchema, error) {
	p := newParser(text, dialect)
	for !p.failed() && p.token.Type != TOKEN_EOF {
		switch {
		case p.accept(TOKEN_SEMICOLON):
		case p.isKeyword("create"):
			p.parseCreate()
		case p.isKeyword("alter"):
			p.parseAlter()
		case p.isKeyword("comment") && p.peekIsKeyword("on"):
			p.parseCommentOn()
		default:
			p.skipStatement()
		}
	}
	return p.finish()
}

// skipStatement consumes tokens through the next semicolon.
func (p *parser) skipStatement() {
	for !p.failed() && p.token.Type != TOKEN_EOF {
		if p.accept(TOKEN_SEMICOLON) {
			return
		}
		p.nextToken()
	}
}

func (p *parser) parseCreate() {
	p.nextToken() // CREATE
	if p.acceptKeyword("or") {
		p.acceptKeyword("replace")
	}
	for p.isKeyword("temporary") || p.isKeyword("temp") || p.isKeyword("unlogged") ||
		p.isKeyword("global") || p.isKeyword("local") {
		p.nextToken()
	}
	if !p.acceptKeyword("table") {
		p.skipStatement()
		return
	}
	if p.acceptKeyword("if") {
		p.expectKeyword("not", "in IF NOT EXISTS")
		p.expectKeyword("exists", "in IF NOT EXISTS")
	}
	parts, ok := p.parseQualifiedName("after CREATE TABLE")
	if !ok {
		return
	}
	if p.token.Type != TOKEN_LPAREN {
		// CREATE TABLE ... AS SELECT, LIKE, PARTITION OF
		p.skipStatement()
		return
	}
	tb := p.builder.addTable(parts[len(parts)-1])
	p.parseTableBody(tb)
	p.parseTableOptions(tb)
}

func (p *parser) parseTableBody(tb *tableBuilder) {
	p.nextToken() // (
	if p.accept(TOKEN_RPAREN) {
		return
	}
	for !p.failed() {
		p.parseTableElement(tb)
		if p.accept(TOKEN_COMMA) {
			continue
		}
		p.expect(TOKEN_RPAREN, "to close table definition")
		return
	}
}

func (p *parser) parseTableElement(tb *tableBuilder) {
	constraint := p.parseConstraintName()
	switch {
	case p.isKeyword("primary") && p.peekIsKeyword("key"):
		p.nextToken()
		p.nextToken()
		p.skipIndexType()
		tb.markPrimaryKey(p.parseColumnList("for PRIMARY KEY"))
		p.skipElementRest()
	case p.isKeyword("unique"):
		p.nextToken()
		if !p.acceptKeyword("key") {
			p.acceptKeyword("index")
		}
		if p.token.isName() && !p.isKeyword("using") {
			p.nextToken() // index name
		}
		p.skipIndexType()
		tb.markUnique(p.parseColumnList("for UNIQUE"))
		p.skipElementRest()
	case p.isKeyword("foreign") && p.peekIsKeyword("key"):
		p.nextToken()
		p.nextToken()
		if p.token.isName() {
			p.nextToken() // index name
		}
		cols := p.parseColumnList("for FOREIGN KEY")
		if !p.failed() {
			p.parseReferences(tb.table.Name, cols, constraint)
		}
		p.skipElementRest()
	case p.isKeyword("check"), p.isKeyword("exclude"), p.isKeyword("like"):
		p.skipElementRest()
	case p.dialect == domain.DialectMySQL && (p.isKeyword("key") || p.isKeyword("index") ||
		p.isKeyword("fulltext") || p.isKeyword("spatial")):
		p.skipElementRest()
	default:
		line := p.token.Line
		f, ok := p.parseColumnSpec(tb.table.Name)
		if ok && !tb.addField(f) {
			p.errorf(line, "duplicate column %q in table %q", f.Name, tb.table.Name)
		}
	}
}

// parseConstraintName consumes an optional "CONSTRAINT name" prefix.
func (p *parser) parseConstraintName() string {
	if !p.isKeyword("constraint") {
		return ""
	}
	p.nextToken()
	if p.token.isName() && !p.isKeyword("primary") && !p.isKeyword("unique") &&
		!p.isKeyword("foreign") && !p.isKeyword("check") {
		name := p.token.Literal
		p.nextToken()
		return name
	}
	return ""
}

// skipIndexType consumes a mysql "USING BTREE|HASH" clause.
func (p *parser) skipIndexType() {
	if p.acceptKeyword("using") {
		p.nextToken()
	}
}

// skipElementRest consumes the remainder of a table element up to the next
// top-level ',' or ')'.
func (p *parser) skipElementRest() {
	for !p.failed() && p.token.Type != TOKEN_COMMA && p.token.Type != TOKEN_RPAREN {
		if p.token.Type == TOKEN_EOF {
			p.errorf(p.token.Line, "unexpected end of input in table definition")
			return
		}
		p.skipGroup()
	}
}

// parseColumnSpec parses "name type constraints..." up to the next ',', ')'
// or ';'.
func (p *parser) parseColumnSpec(table string) (domain.SchemaField, bool) {
	name, ok := p.parseName("for column")
	if !ok {
		return domain.SchemaField{}, false
	}
	f := domain.SchemaField{Name: name}
	f.TypeName = p.parseSQLType()
	if serialTypes[strings.ToLower(f.TypeName)] {
		f.AutoIncrement = true
		f.NotNull = true
	}
	p.parseColumnConstraints(table, &f)
	return f, !p.failed()
}

func (p *parser) parseSQLType() string {
	parts, ok := p.parseQualifiedName("for column type")
	if !ok {
		return ""
	}
	typ := strings.Join(parts, ".")
	for !p.failed() {
		switch {
		case p.token.Type == TOKEN_LPAREN:
			typ += p.rawGroup()
		case p.token.Type == TOKEN_LBRACKET && p.peek.Type == TOKEN_RBRACKET:
			p.nextToken()
			p.nextToken()
			typ += "[]"
		case p.token.Type == TOKEN_IDENT && typeContinuation[strings.ToLower(p.token.Literal)]:
			typ += " " + p.token.Literal
			p.nextToken()
		default:
			return typ
		}
	}
	return typ
}

func (p *parser) parseColumnConstraints(table string, f *domain.SchemaField) {
	constraint := ""
	for !p.failed() {
		switch p.token.Type {
		case TOKEN_COMMA, TOKEN_RPAREN, TOKEN_SEMICOLON, TOKEN_EOF:
			return
		}
		switch {
		case p.isKeyword("not") && p.peekIsKeyword("null"):
			p.nextToken()
			p.nextToken()
			f.NotNull = true
		case p.isKeyword("null"):
			p.nextToken()
			f.NotNull = false
		case p.isKeyword("primary") && p.peekIsKeyword("key"):
			p.nextToken()
			p.nextToken()
			f.PrimaryKey = true
		case p.isKeyword("unique"):
			p.nextToken()
			p.acceptKeyword("key")
			f.Unique = true
		case p.isKeyword("auto_increment"), p.isKeyword("autoincrement"), p.isKeyword("identity"):
			p.nextToken()
			f.AutoIncrement = true
		case p.isKeyword("by") && p.peekIsKeyword("default"):
			// GENERATED BY DEFAULT AS IDENTITY
			p.nextToken()
			p.nextToken()
		case p.isKeyword("default"):
			p.nextToken()
			if p.skipDefaultValue() {
				f.AutoIncrement = true
			}
		case p.isKeyword("comment") && p.peek.Type == TOKEN_STRING:
			p.nextToken()
			f.Note = p.token.Literal
			p.nextToken()
		case p.isKeyword("constraint"):
			p.nextToken()
			if p.token.isName() {
				constraint = p.token.Literal
				p.nextToken()
			}
		case p.isKeyword("references"):
			p.nextToken()
			p.parseReferenceTarget(table, []string{f.Name}, constraint)
		default:
			// CHARACTER SET, COLLATE, CHECK (...), GENERATED ALWAYS, ON UPDATE ...
			p.skipGroup()
		}
	}
}

// skipDefaultValue consumes a DEFAULT operand and reports whether it draws
// from a sequence.
func (p *parser) skipDefaultValue() (sequence bool) {
	if p.token.Type == TOKEN_MINUS || p.token.Type == TOKEN_OTHER {
		p.nextToken()
	}
	sequence = p.isKeyword("nextval")
	if p.token.Type == TOKEN_LPAREN {
		p.skipGroup()
	} else if p.token.Type != TOKEN_EOF {
		p.nextToken()
		if p.token.Type == TOKEN_LPAREN {
			p.skipGroup()
		}
	}
	for p.token.Type == TOKEN_COLON && p.peek.Type == TOKEN_COLON {
		p.nextToken()
		p.nextToken()
		p.parseSQLType()
	}
	return sequence
}

// parseReferences parses "REFERENCES table [(cols)] [actions]" after a
// FOREIGN KEY column list.
func (p *parser) parseReferences(table string, cols []string, constraint string) {
	if !p.expectKeyword("references", "after FOREIGN KEY columns") {
		return
	}
	p.parseReferenceTarget(table, cols, constraint)
}

func (p *parser) parseReferenceTarget(table string, cols []string, constraint string) {
	parts, ok := p.parseQualifiedName("after REFERENCES")
	if !ok {
		return
	}
	var refCols []string
	if p.token.Type == TOKEN_LPAREN {
		refCols = p.parseColumnList("after REFERENCES")
	}
	p.skipReferentialActions()
	if p.failed() {
		return
	}
	p.builder.addRelationship(constraint,
		domain.SchemaEndpoint{TableName: table, FieldNames: cols},
		domain.SchemaEndpoint{TableName: parts[len(parts)-1], FieldNames: refCols, Relation: domain.RelationOne},
	)
}

func (p *parser) skipReferentialActions() {
	for !p.failed() {
		switch {
		case p.isKeyword("on") && (p.peekIsKeyword("delete") || p.peekIsKeyword("update")):
			p.nextToken()
			p.nextToken()
			if p.isKeyword("set") || p.isKeyword("no") {
				p.nextToken()
			}
			p.nextToken()
		case p.isKeyword("match"), p.isKeyword("initially"):
			p.nextToken()
			p.nextToken()
		case p.isKeyword("deferrable"):
			p.nextToken()
		case p.isKeyword("not") && p.peekIsKeyword("deferrable"):
			p.nextToken()
			p.nextToken()
		default:
			return
		}
	}
}

// parseTableOptions consumes the options after a table definition, taking
// COMMENT='...' as the table note.
func (p *parser) parseTableOptions(tb *tableBuilder) {
	for !p.failed() && p.token.Type != TOKEN_EOF {
		switch {
		case p.accept(TOKEN_SEMICOLON):
			return
		case p.isKeyword("comment"):
			p.nextToken()
			p.accept(TOKEN_EQ)
			if p.token.Type == TOKEN_STRING {
				tb.table.Note = p.token.Literal
				p.nextToken()
			}
		default:
			p.nextToken()
		}
	}
}

func (p *parser) parseAlter() {
	p.nextToken() // ALTER
	if !p.acceptKeyword("table") {
		p.skipStatement()
		return
	}
	p.acceptKeyword("only")
	if p.acceptKeyword("if") {
		p.expectKeyword("exists", "in IF EXISTS")
	}
	p.acceptKeyword("only")
	parts, ok := p.parseQualifiedName("after ALTER TABLE")
	if !ok {
		return
	}
	table := parts[len(parts)-1]
	tb := p.builder.lookup(table)
	for !p.failed() {
		p.parseAlterAction(table, tb)
		if p.accept(TOKEN_COMMA) {
			continue
		}
		break
	}
	p.skipStatement()
}

// parseAlterAction handles one action of an ALTER TABLE statement. tb is nil
// when the table was not created earlier in the dump; foreign keys are still
// recorded so they surface as unresolved references.
func (p *parser) parseAlterAction(table string, tb *tableBuilder) {
	switch {
	case p.acceptKeyword("add"):
		constraint := p.parseConstraintName()
		switch {
		case p.isKeyword("primary") && p.peekIsKeyword("key"):
			p.nextToken()
			p.nextToken()
			p.skipIndexType()
			cols := p.parseColumnList("for PRIMARY KEY")
			if tb != nil {
				tb.markPrimaryKey(cols)
			}
		case p.isKeyword("unique"):
			p.nextToken()
			if !p.acceptKeyword("key") {
				p.acceptKeyword("index")
			}
			if p.token.isName() && !p.isKeyword("using") {
				p.nextToken()
			}
			p.skipIndexType()
			cols := p.parseColumnList("for UNIQUE")
			if tb != nil {
				tb.markUnique(cols)
			}
		case p.isKeyword("foreign") && p.peekIsKeyword("key"):
			p.nextToken()
			p.nextToken()
			if p.token.isName() {
				p.nextToken()
			}
			cols := p.parseColumnList("for FOREIGN KEY")
			if !p.failed() {
				p.parseReferences(table, cols, constraint)
			}
		case p.isKeyword("key"), p.isKeyword("index"), p.isKeyword("fulltext"),
			p.isKeyword("spatial"), p.isKeyword("check"), p.isKeyword("exclude"), p.isKeyword("constraint"):
		default:
			p.acceptKeyword("column")
			if p.isKeyword("if") && p.peekIsKeyword("not") {
				p.nextToken()
				p.nextToken()
				p.expectKeyword("exists", "in IF NOT EXISTS")
			}
			line := p.token.Line
			f, ok := p.parseColumnSpec(table)
			if ok && tb != nil && !tb.addField(f) {
				p.errorf(line, "duplicate column %q in table %q", f.Name, table)
			}
		}
	case p.isKeyword("modify") || p.isKeyword("change"):
		rename := p.isKeyword("change")
		p.nextToken()
		p.acceptKeyword("column")
		old := p.token.Literal
		if rename {
			p.nextToken()
		}
		f, ok := p.parseColumnSpec(table)
		if ok && tb != nil {
			tb.replaceField(old, f)
		}
	case p.acceptKeyword("alter"):
		p.acceptKeyword("column")
		col := p.token.Literal
		p.nextToken()
		if p.isKeyword("set") && p.peekIsKeyword("default") {
			p.nextToken()
			p.nextToken()
			if f := tb.field(col); p.skipDefaultValue() && f != nil {
				f.AutoIncrement = true
			}
		}
		if p.isKeyword("set") && p.peekIsKeyword("not") {
			if f := tb.field(col); f != nil {
				f.NotNull = true
			}
		}
	}
	p.skipAlterRest()
}

// skipAlterRest consumes the remainder of an ALTER TABLE action up to the
// next top-level ',' or ';'.
func (p *parser) skipAlterRest() {
	for !p.failed() && p.token.Type != TOKEN_COMMA && p.token.Type != TOKEN_SEMICOLON && p.token.Type != TOKEN_EOF {
		p.skipGroup()
	}
}

// parseCommentOn handles postgres COMMENT ON TABLE and COMMENT ON COLUMN.
func (p *parser) parseCommentOn() {
	p.nextToken() // COMMENT
	p.nextToken() // ON
	switch {
	case p.acceptKeyword("table"):
		parts, ok := p.parseQualifiedName("after COMMENT ON TABLE")
		if !ok {
			return
		}
		note, ok := p.parseCommentText()
		if tb := p.builder.lookup(parts[len(parts)-1]); ok && tb != nil {
			tb.table.Note = note
		}
	case p.acceptKeyword("column"):
		parts, ok := p.parseQualifiedName("after COMMENT ON COLUMN")
		if !ok {
			return
		}
		note, ok := p.parseCommentText()
		if ok && len(parts) >= 2 {
			if tb := p.builder.lookup(parts[len(parts)-2]); tb != nil {
				if f := tb.field(parts[len(parts)-1]); f != nil {
					f.Note = note
				}
			}
		}
	}
	p.skipStatement()
}

func (p *parser) parseCommentText() (string, bool) {
	if !p.expectKeyword("is", "in COMMENT ON") {
		return "", false
	}
	if p.acceptKeyword("null") {
		return "", true
	}
	if p.isKeyword("e") && p.peek.Type == TOKEN_STRING {
		p.nextToken()
	}
	if p.token.Type != TOKEN_STRING {
		p.errorf(p.token.Line, "expected string in COMMENT ON, got %s", p.token.describe())
		return "", false
	}
	note := p.token.Literal
	p.nextToken()
	return note, true
}
