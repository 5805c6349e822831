package dsl

import (
	"testing"

	"github.com/aretw0/storytree/pkg/dsl/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLex_Basics(t *testing.T) {
	toks, err := Lex(`story "a" { x = 1.5 // comment
	/* block */ option "go" -> "b" if x >= 2 && !y }`)
	require.NoError(t, err)

	assert.Equal(t, []TokenKind{
		Keyword, String, Punct, Ident, Punct, Number,
		Keyword, String, Punct, String, Keyword, Ident, Punct, Number, Punct, Punct, Ident, Punct, EOF,
	}, kinds(toks))
	assert.Equal(t, "1.5", toks[5].Text)
	assert.Equal(t, ast.Pos{Line: 2, Col: 14}, toks[6].Pos)
	assert.Equal(t, "->", toks[8].Text)
}

func TestLex_Escapes(t *testing.T) {
	toks, err := Lex(`"line\n\"quoted\"\t\\"`)
	require.NoError(t, err)
	assert.Equal(t, "line\n\"quoted\"\t\\", toks[0].Text)
}

func TestLex_RawStringTrimsIndent(t *testing.T) {
	toks, err := Lex("\"\"\"\n    Hello\n      world\n    \"\"\"")
	require.NoError(t, err)
	assert.True(t, toks[0].Raw)
	assert.Equal(t, "Hello\n  world", toks[0].Text)
}

func TestLex_NormalizesToNFC(t *testing.T) {
	decomposed := "cafe\u0301"
	toks, err := Lex(decomposed)
	require.NoError(t, err)
	assert.Equal(t, Ident, toks[0].Kind)
	assert.Equal(t, "caf\u00e9", toks[0].Text)
}

func TestLex_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"unterminated string", `"abc`, "unterminated string"},
		{"newline in string", "\"abc\ndef\"", "unterminated string"},
		{"unterminated comment", "/* abc", "unterminated block comment"},
		{"bad escape", `"\q"`, "unknown escape"},
		{"bad char", "x = @", "unexpected character"},
		{"invalid utf-8", "node \"1\" \"\xff\xfe\"", "invalid UTF-8 encoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lex(tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLex_InvalidUTF8Position(t *testing.T) {
	_, err := Lex("story \"s\" {\n  node \"1\" \"ok \xff\"\n}")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Pos.Line)
	assert.Equal(t, 16, se.Pos.Col)
}

func TestTrimIndent(t *testing.T) {
	assert.Equal(t, "a\n\nb", TrimIndent("\n\t\ta\n\n\t\tb\n\t"))
	assert.Equal(t, "single", TrimIndent("single"))
}
