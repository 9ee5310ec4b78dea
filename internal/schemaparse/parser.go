package schemaparse

import (
	"fmt"
	"strings"

	"fastcontrol/internal/domain"
)

// Parser implements domain.SchemaParser for the mysql, postgres and dbml
// dialects.
type Parser struct{}

var _ domain.SchemaParser = (*Parser)(nil)

// NewParser returns a Parser.
func NewParser() *Parser { return &Parser{} }

// Parse implements domain.SchemaParser.
func (*Parser) Parse(text string, dialect domain.Dialect) (*domain.AbstractSchema, error) {
	return Parse(text, dialect)
}

// Parse parses text of the given dialect into an AbstractSchema. Parsing is
// all-or-nothing: on error the returned schema is nil and the error is a
// *domain.ParseError.
func Parse(text string, dialect domain.Dialect) (*domain.AbstractSchema, error) {
	switch dialect {
	case domain.DialectDBML:
		return parseDBML(text)
	case domain.DialectMySQL, domain.DialectPostgres:
		return parseSQL(text, dialect)
	default:
		return nil, &domain.ParseError{Dialect: dialect, Message: fmt.Sprintf("unsupported dialect %q", dialect)}
	}
}

// parser holds the token stream shared by the DBML and SQL parsers.
type parser struct {
	lexer   *Lexer
	dialect domain.Dialect
	token   Token // current token
	peek    Token // lookahead token
	err     *domain.ParseError
	builder *schemaBuilder
}

func newParser(text string, dialect domain.Dialect) *parser {
	p := &parser{
		lexer:   NewLexer(text, dialect),
		dialect: dialect,
		builder: newSchemaBuilder(),
	}
	// Initialize two-token lookahead
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances the token stream. An illegal token fails the parse.
func (p *parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
	if p.token.Type == TOKEN_ILLEGAL {
		p.errorf(p.token.Line, "%s", p.token.Literal)
	}
}

// failed reports whether an error has been recorded. Parse loops check it to
// stop at the first error.
func (p *parser) failed() bool { return p.err != nil }

func (p *parser) errorf(line int, format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	p.err = &domain.ParseError{Dialect: p.dialect, Line: line, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) unexpected(context string) {
	p.errorf(p.token.Line, "unexpected %s %s", p.token.describe(), context)
}

// isKeyword reports whether the current token is the unquoted keyword kw.
func (p *parser) isKeyword(kw string) bool {
	return p.token.Type == TOKEN_IDENT && strings.EqualFold(p.token.Literal, kw)
}

func (p *parser) peekIsKeyword(kw string) bool {
	return p.peek.Type == TOKEN_IDENT && strings.EqualFold(p.peek.Literal, kw)
}

// acceptKeyword consumes the current token if it is the keyword kw.
func (p *parser) acceptKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.nextToken()
		return true
	}
	return false
}

func (p *parser) accept(t TokenType) bool {
	if p.token.Type == t {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes a token of type t or records an error.
func (p *parser) expect(t TokenType, context string) bool {
	if p.token.Type == t {
		p.nextToken()
		return true
	}
	p.errorf(p.token.Line, "expected %s %s, got %s", t, context, p.token.describe())
	return false
}

func (p *parser) expectKeyword(kw, context string) bool {
	if p.acceptKeyword(kw) {
		return true
	}
	p.errorf(p.token.Line, "expected %s %s, got %s", strings.ToUpper(kw), context, p.token.describe())
	return false
}

// parseName consumes an identifier of any quoting style.
func (p *parser) parseName(context string) (string, bool) {
	if !p.token.isName() {
		p.errorf(p.token.Line, "expected name %s, got %s", context, p.token.describe())
		return "", false
	}
	name := p.token.Literal
	p.nextToken()
	return name, true
}

// parseQualifiedName consumes a dotted name and returns its parts.
func (p *parser) parseQualifiedName(context string) ([]string, bool) {
	first, ok := p.parseName(context)
	if !ok {
		return nil, false
	}
	parts := []string{first}
	for p.token.Type == TOKEN_DOT && p.peek.isName() {
		p.nextToken()
		parts = append(parts, p.token.Literal)
		p.nextToken()
	}
	return parts, true
}

// skipGroup consumes a balanced group starting at the current opening token.
func (p *parser) skipGroup() {
	open := p.token.Type
	var close TokenType
	switch open {
	case TOKEN_LPAREN:
		close = TOKEN_RPAREN
	case TOKEN_LBRACKET:
		close = TOKEN_RBRACKET
	case TOKEN_LBRACE:
		close = TOKEN_RBRACE
	default:
		p.nextToken()
		return
	}
	line := p.token.Line
	depth := 0
	for !p.failed() {
		switch p.token.Type {
		case TOKEN_EOF:
			p.errorf(line, "unterminated %s", open)
			return
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				p.nextToken()
				return
			}
		}
		p.nextToken()
	}
}

// rawGroup consumes a parenthesized group and renders it compactly, for
// example "(10,2)" or "('a','b')".
func (p *parser) rawGroup() string {
	var b strings.Builder
	line := p.token.Line
	depth := 0
	for !p.failed() {
		tok := p.token
		switch tok.Type {
		case TOKEN_EOF:
			p.errorf(line, "unterminated %s", TOKEN_LPAREN)
			return b.String()
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			depth--
		}
		switch tok.Type {
		case TOKEN_STRING:
			b.WriteString("'" + strings.ReplaceAll(tok.Literal, "'", "''") + "'")
		case TOKEN_QUOTED:
			b.WriteString(`"` + tok.Literal + `"`)
		case TOKEN_BACKTICK:
			b.WriteString("`" + tok.Literal + "`")
		default:
			if b.Len() > 0 && tok.Type == TOKEN_IDENT && lastIsWord(b.String()) {
				b.WriteByte(' ')
			}
			b.WriteString(tok.Literal)
		}
		p.nextToken()
		if depth == 0 {
			return b.String()
		}
	}
	return b.String()
}

func lastIsWord(s string) bool {
	c := s[len(s)-1]
	return isLetter(c) || isDigit(c) || c == '_'
}

// parseColumnList consumes "(a, b, ...)" and returns the column names. Only
// the leading name of each element is kept, so "(name(10) DESC)" yields name.
func (p *parser) parseColumnList(context string) []string {
	line := p.token.Line
	if !p.expect(TOKEN_LPAREN, context) {
		return nil
	}
	var cols []string
	for !p.failed() {
		if p.token.isName() {
			cols = append(cols, p.token.Literal)
			p.nextToken()
		}
		// Skip prefix lengths, sort order and expressions.
		for !p.failed() && p.token.Type != TOKEN_COMMA && p.token.Type != TOKEN_RPAREN {
			if p.token.Type == TOKEN_EOF {
				p.errorf(line, "unterminated column list %s", context)
				return nil
			}
			p.skipGroup()
		}
		if p.accept(TOKEN_COMMA) {
			continue
		}
		p.expect(TOKEN_RPAREN, context)
		break
	}
	if len(cols) == 0 && !p.failed() {
		p.errorf(line, "empty column list %s", context)
	}
	return cols
}

func (p *parser) finish() (*domain.AbstractSchema, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.builder.build(), nil
}
