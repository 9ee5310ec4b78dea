package schemaparse

import (
	"strings"
	"unicode"

	"fastcontrol/internal/domain"
)

// Lexer tokenizes DBML and SQL dump input. Comment and string syntax
// depends on the dialect.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // line of ch
	dialect domain.Dialect
}

// NewLexer creates a new Lexer for the given input and dialect.
func NewLexer(input string, dialect domain.Dialect) *Lexer {
	l := &Lexer{input: input, line: 1, dialect: dialect}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(n int) byte {
	if l.readPos+n >= len(l.input) {
		return 0
	}
	return l.input[l.readPos+n]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	tok := Token{Line: l.line}
	if l.atEOF() {
		tok.Type = TOKEN_EOF
		return tok
	}

	switch l.ch {
	case '.':
		tok.Type, tok.Literal = TOKEN_DOT, "."
	case ',':
		tok.Type, tok.Literal = TOKEN_COMMA, ","
	case ';':
		tok.Type, tok.Literal = TOKEN_SEMICOLON, ";"
	case ':':
		tok.Type, tok.Literal = TOKEN_COLON, ":"
	case '=':
		tok.Type, tok.Literal = TOKEN_EQ, "="
	case '(':
		tok.Type, tok.Literal = TOKEN_LPAREN, "("
	case ')':
		tok.Type, tok.Literal = TOKEN_RPAREN, ")"
	case '[':
		tok.Type, tok.Literal = TOKEN_LBRACKET, "["
	case ']':
		tok.Type, tok.Literal = TOKEN_RBRACKET, "]"
	case '{':
		tok.Type, tok.Literal = TOKEN_LBRACE, "{"
	case '}':
		tok.Type, tok.Literal = TOKEN_RBRACE, "}"
	case '>':
		tok.Type, tok.Literal = TOKEN_GT, ">"
	case '<':
		if l.peekChar() == '>' {
			l.readChar()
			tok.Type, tok.Literal = TOKEN_NE, "<>"
		} else {
			tok.Type, tok.Literal = TOKEN_LT, "<"
		}
	case '-':
		tok.Type, tok.Literal = TOKEN_MINUS, "-"
	case '\'':
		return l.readString(tok)
	case '"':
		return l.readQuoted(tok, '"', TOKEN_QUOTED)
	case '`':
		return l.readQuoted(tok, '`', TOKEN_BACKTICK)
	case '$':
		if l.dialect == domain.DialectPostgres {
			if lit, ok := l.readDollarString(); ok {
				tok.Type, tok.Literal = TOKEN_STRING, lit
				return tok
			}
		}
		tok.Type, tok.Literal = TOKEN_OTHER, "$"
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_':
			tok.Type = TOKEN_IDENT
			tok.Literal = l.readIdentifier()
			return tok
		case isDigit(l.ch):
			tok.Type = TOKEN_NUMBER
			tok.Literal = l.readNumber()
			return tok
		default:
			tok.Type, tok.Literal = TOKEN_OTHER, string(l.ch)
		}
	}

	l.readChar()
	return tok
}

// skipWhitespaceAndComments skips whitespace and dialect comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' {
			l.readChar()
		}
		switch {
		case l.dialect.IsSQL() && l.ch == '-' && l.peekChar() == '-':
			l.skipLine()
			continue
		case l.dialect == domain.DialectMySQL && l.ch == '#':
			l.skipLine()
			continue
		case l.dialect == domain.DialectDBML && l.ch == '/' && l.peekChar() == '/':
			l.skipLine()
			continue
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar() // skip /
			l.readChar() // skip *
			for !l.atEOF() {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar() // skip *
					l.readChar() // skip /
					break
				}
				l.readChar()
			}
			continue
		}
		return
	}
}

func (l *Lexer) skipLine() {
	for l.ch != '\n' && !l.atEOF() {
		l.readChar()
	}
}

// readString reads a single-quoted string literal. SQL dialects handle the
// '' escape, DBML handles '''triple quoted''' strings; all dialects except
// postgres accept backslash escapes.
func (l *Lexer) readString(tok Token) Token {
	if l.dialect == domain.DialectDBML && l.peekChar() == '\'' && l.peekAt(1) == '\'' {
		return l.readTripleString(tok)
	}
	l.readChar() // skip opening quote
	var result strings.Builder
	for !l.atEOF() {
		switch {
		case l.ch == '\\' && l.dialect != domain.DialectPostgres && l.readPos < len(l.input):
			l.readChar()
			result.WriteByte(unescape(l.ch))
			l.readChar()
		case l.ch == '\'' && l.dialect.IsSQL() && l.peekChar() == '\'':
			result.WriteByte('\'')
			l.readChar()
			l.readChar()
		case l.ch == '\'':
			l.readChar() // skip closing quote
			tok.Type, tok.Literal = TOKEN_STRING, result.String()
			return tok
		default:
			result.WriteByte(l.ch)
			l.readChar()
		}
	}
	tok.Type, tok.Literal = TOKEN_ILLEGAL, "unterminated string"
	return tok
}

func (l *Lexer) readTripleString(tok Token) Token {
	l.readChar()
	l.readChar()
	l.readChar() // skip '''
	var result strings.Builder
	for !l.atEOF() {
		if l.ch == '\'' && l.peekChar() == '\'' && l.peekAt(1) == '\'' {
			l.readChar()
			l.readChar()
			l.readChar()
			tok.Type, tok.Literal = TOKEN_STRING, dedent(result.String())
			return tok
		}
		if l.ch == '\\' && l.peekChar() == '\'' {
			l.readChar()
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	tok.Type, tok.Literal = TOKEN_ILLEGAL, "unterminated string"
	return tok
}

// readQuoted reads an identifier enclosed in quote. A doubled quote is an
// embedded quote.
func (l *Lexer) readQuoted(tok Token, quote byte, typ TokenType) Token {
	l.readChar() // skip opening quote
	var result strings.Builder
	for !l.atEOF() {
		if l.ch == quote {
			if l.peekChar() == quote {
				result.WriteByte(quote)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			tok.Type, tok.Literal = typ, result.String()
			return tok
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	tok.Type, tok.Literal = TOKEN_ILLEGAL, "unterminated quoted identifier"
	return tok
}

// readDollarString reads a postgres $tag$...$tag$ string. It returns false
// without consuming anything when the input is not a dollar quote.
func (l *Lexer) readDollarString() (string, bool) {
	end := l.pos + 1
	for end < len(l.input) && (isLetter(l.input[end]) || isDigit(l.input[end]) || l.input[end] == '_') {
		end++
	}
	if end >= len(l.input) || l.input[end] != '$' || (end > l.pos+1 && isDigit(l.input[l.pos+1])) {
		return "", false
	}
	tag := l.input[l.pos : end+1]
	bodyStart := end + 1
	closing := strings.Index(l.input[bodyStart:], tag)
	if closing < 0 {
		return "", false
	}
	stop := bodyStart + closing + len(tag)
	for l.pos < stop {
		l.readChar()
	}
	return l.input[bodyStart : bodyStart+closing], true
}

// readIdentifier reads an unquoted identifier.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '$' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads an integer or decimal literal.
func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // skip .
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return ch
	}
}

// dedent trims the surrounding blank lines of a triple-quoted string and
// removes the indentation common to its remaining lines.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, line := range lines {
		if len(line) >= indent && indent > 0 {
			lines[i] = line[indent:]
		}
	}
	return strings.Join(lines, "\n")
}

func isLetter(ch byte) bool {
	return ch >= 0x80 || unicode.IsLetter(rune(ch))
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
