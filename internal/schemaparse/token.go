// Package schemaparse parses DBML documents and SQL dumps into a
// dialect-neutral domain.AbstractSchema, and formats graphs back to DBML.
//
// Both dialects share one lexer. Keywords are not tokenized separately:
// the parsers compare unquoted identifiers case-insensitively, so a quoted
// identifier is never mistaken for a keyword.
package schemaparse

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

// TOKEN_EOF and friends enumerate the token types produced by the lexer.
const (
	TOKEN_EOF     TokenType = iota // end of input
	TOKEN_ILLEGAL                  // unterminated string or quoted identifier

	TOKEN_IDENT    // users, varchar
	TOKEN_QUOTED   // "users" (double-quoted identifier)
	TOKEN_BACKTICK // `users` (mysql identifier, dbml expression)
	TOKEN_STRING   // 'hello', '''multi line''', $$body$$
	TOKEN_NUMBER   // 123, 45.67

	TOKEN_DOT       // .
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
	TOKEN_COLON     // :
	TOKEN_EQ        // =
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
	TOKEN_LBRACKET  // [
	TOKEN_RBRACKET  // ]
	TOKEN_LBRACE    // {
	TOKEN_RBRACE    // }
	TOKEN_GT        // >
	TOKEN_LT        // <
	TOKEN_NE        // <>
	TOKEN_MINUS     // -
	TOKEN_OTHER     // any other single character
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:       "end of input",
	TOKEN_ILLEGAL:   "ILLEGAL",
	TOKEN_IDENT:     "identifier",
	TOKEN_QUOTED:    "quoted identifier",
	TOKEN_BACKTICK:  "backtick identifier",
	TOKEN_STRING:    "string",
	TOKEN_NUMBER:    "number",
	TOKEN_DOT:       "'.'",
	TOKEN_COMMA:     "','",
	TOKEN_SEMICOLON: "';'",
	TOKEN_COLON:     "':'",
	TOKEN_EQ:        "'='",
	TOKEN_LPAREN:    "'('",
	TOKEN_RPAREN:    "')'",
	TOKEN_LBRACKET:  "'['",
	TOKEN_RBRACKET:  "']'",
	TOKEN_LBRACE:    "'{'",
	TOKEN_RBRACE:    "'}'",
	TOKEN_GT:        "'>'",
	TOKEN_LT:        "'<'",
	TOKEN_NE:        "'<>'",
	TOKEN_MINUS:     "'-'",
	TOKEN_OTHER:     "character",
}

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a lexical token with the 1-based line it starts on.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
}

// isName reports whether the token can name a table, column or type.
func (t Token) isName() bool {
	return t.Type == TOKEN_IDENT || t.Type == TOKEN_QUOTED || t.Type == TOKEN_BACKTICK
}

func (t Token) describe() string {
	switch t.Type {
	case TOKEN_EOF:
		return "end of input"
	case TOKEN_STRING:
		return "string"
	default:
		return fmt.Sprintf("%q", t.Literal)
	}
}
