package schemaparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastcontrol/internal/domain"
)

func collect(input string, dialect domain.Dialect) []Token {
	l := NewLexer(input, dialect)
	var toks []Token
	for {
		tok := l.NextToken()
		if tok.Type == TOKEN_EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexer_Punctuation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType TokenType
		wantLit  string
	}{
		{"dot", ".", TOKEN_DOT, "."},
		{"comma", ",", TOKEN_COMMA, ","},
		{"semicolon", ";", TOKEN_SEMICOLON, ";"},
		{"colon", ":", TOKEN_COLON, ":"},
		{"eq", "=", TOKEN_EQ, "="},
		{"lparen", "(", TOKEN_LPAREN, "("},
		{"rparen", ")", TOKEN_RPAREN, ")"},
		{"lbracket", "[", TOKEN_LBRACKET, "["},
		{"rbracket", "]", TOKEN_RBRACKET, "]"},
		{"lbrace", "{", TOKEN_LBRACE, "{"},
		{"rbrace", "}", TOKEN_RBRACE, "}"},
		{"gt", ">", TOKEN_GT, ">"},
		{"lt", "<", TOKEN_LT, "<"},
		{"ne", "<>", TOKEN_NE, "<>"},
		{"minus", "-", TOKEN_MINUS, "-"},
		{"other", "~", TOKEN_OTHER, "~"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok := NewLexer(tc.input, domain.DialectDBML).NextToken()
			assert.Equal(t, tc.wantType, tok.Type, "token type")
			assert.Equal(t, tc.wantLit, tok.Literal, "token literal")
		})
	}
}

func TestLexer_Strings(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		dialect domain.Dialect
		wantLit string
	}{
		{"dbml simple", `'hello'`, domain.DialectDBML, "hello"},
		{"dbml backslash escape", `'it\'s'`, domain.DialectDBML, "it's"},
		{"dbml newline escape", `'a\nb'`, domain.DialectDBML, "a\nb"},
		{"dbml triple quoted", "'''\n  line one\n  line two\n'''", domain.DialectDBML, "line one\nline two"},
		{"mysql doubled quote", `'it''s'`, domain.DialectMySQL, "it's"},
		{"mysql backslash", `'it\'s'`, domain.DialectMySQL, "it's"},
		{"postgres backslash is literal", `'a\b'`, domain.DialectPostgres, `a\b`},
		{"postgres dollar quote", "$$ body; with semicolon $$", domain.DialectPostgres, " body; with semicolon "},
		{"postgres tagged dollar quote", "$fn$ x $$ y $fn$", domain.DialectPostgres, " x $$ y "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			toks := collect(tc.input, tc.dialect)
			require.Len(t, toks, 1)
			assert.Equal(t, TOKEN_STRING, toks[0].Type)
			assert.Equal(t, tc.wantLit, toks[0].Literal)
		})
	}
}

func TestLexer_QuotedIdentifiers(t *testing.T) {
	toks := collect("\"order items\" `user``s`", domain.DialectMySQL)
	require.Len(t, toks, 2)
	assert.Equal(t, Token{Type: TOKEN_QUOTED, Literal: "order items", Line: 1}, toks[0])
	assert.Equal(t, Token{Type: TOKEN_BACKTICK, Literal: "user`s", Line: 1}, toks[1])
}

func TestLexer_Comments(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		dialect domain.Dialect
		want    []string
	}{
		{"sql line comment", "a -- comment\nb", domain.DialectPostgres, []string{"a", "b"}},
		{"mysql hash comment", "a # comment\nb", domain.DialectMySQL, []string{"a", "b"}},
		{"block comment", "a /* x\ny */ b", domain.DialectMySQL, []string{"a", "b"}},
		{"dbml line comment", "a // comment\nb", domain.DialectDBML, []string{"a", "b"}},
		{"dbml double minus is not a comment", "a -- b", domain.DialectDBML, []string{"a", "-", "-", "b"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var lits []string
			for _, tok := range collect(tc.input, tc.dialect) {
				lits = append(lits, tok.Literal)
			}
			assert.Equal(t, tc.want, lits)
		})
	}
}

func TestLexer_LineTracking(t *testing.T) {
	toks := collect("Table a {\n  id int\n\n}\n", domain.DialectDBML)
	require.Len(t, toks, 6)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[3].Line) // id
	assert.Equal(t, 4, toks[5].Line) // }
}

func TestLexer_Unterminated(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"string", "'abc"},
		{"triple string", "'''abc"},
		{"quoted identifier", `"abc`},
		{"backtick", "`abc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok := NewLexer(tc.input, domain.DialectDBML).NextToken()
			assert.Equal(t, TOKEN_ILLEGAL, tok.Type)
		})
	}
}

func TestLexer_Numbers(t *testing.T) {
	toks := collect("255 10.5", domain.DialectMySQL)
	require.Len(t, toks, 2)
	assert.Equal(t, "255", toks[0].Literal)
	assert.Equal(t, "10.5", toks[1].Literal)
	assert.Equal(t, TOKEN_NUMBER, toks[1].Type)
}
