package parser

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func lexAll(src string) []Token {
	lex := NewLexer([]byte(src))
	var out []Token
	for {
		tok := lex.Next()
		if tok.Type == EOF {
			return out
		}
		out = append(out, tok)
	}
}

func kinds(toks []Token) []int {
	out := make([]int, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func TestLexDefLine(t *testing.T) {
	toks := lexAll("def greet [name: string] { }")
	assert.DeepEqual(t, kinds(toks), []int{WORD, WORD, LBRACKET, WORD, COLON, WORD, RBRACKET, LBRACE, RBRACE})
	assert.Equal(t, toks[0].Text, "def")
	assert.Equal(t, toks[1].Text, "greet")
	assert.Equal(t, toks[3].Text, "name")
	assert.Equal(t, toks[5].Text, "string")
}

func TestLexEnvAssignment(t *testing.T) {
	toks := lexAll(`$env.PROMPT = "hi"`)
	assert.DeepEqual(t, kinds(toks), []int{ENVVAR, EQUALS, STRING})
	assert.Equal(t, toks[0].Text, "PROMPT")
	assert.Equal(t, toks[2].Text, "hi")
}

func TestLexStringEscapes(t *testing.T) {
	toks := lexAll(`"a\nb" 'c\nd'`)
	assert.DeepEqual(t, kinds(toks), []int{STRING, STRING})
	assert.Equal(t, toks[0].Text, "a\nb")
	// single quotes keep backslashes as written
	assert.Equal(t, toks[1].Text, `c\nd`)
}

func TestLexUnterminatedString(t *testing.T) {
	toks := lexAll("\"oops\n")
	assert.Equal(t, toks[0].Type, ILLEGAL)
}

func TestLexIntegers(t *testing.T) {
	toks := lexAll("42 -7 4x ...rest")
	assert.DeepEqual(t, kinds(toks), []int{INT, INT, WORD, WORD})
	assert.Equal(t, toks[1].Text, "-7")
	assert.Equal(t, toks[3].Text, "...rest")
}

func TestLexNewlinesAreSignificant(t *testing.T) {
	toks := lexAll("use std\nuse other")
	assert.DeepEqual(t, kinds(toks), []int{WORD, WORD, NEWLINE, WORD, WORD})
}

func TestDocCommentsAccumulate(t *testing.T) {
	lex := NewLexer([]byte("# first line\n# second line\ndef x [] {}\n"))
	tok := lex.Next()
	for tok.Type == NEWLINE {
		tok = lex.Next()
	}
	assert.Equal(t, tok.Text, "def")
	assert.Equal(t, lex.TakeDoc(), "first line\nsecond line")
	assert.Equal(t, lex.TakeDoc(), "")
}

func TestBlankLineDetachesDocComment(t *testing.T) {
	lex := NewLexer([]byte("# stale\n\ndef x [] {}\n"))
	tok := lex.Next()
	for tok.Type == NEWLINE {
		tok = lex.Next()
	}
	assert.Equal(t, tok.Text, "def")
	assert.Equal(t, lex.TakeDoc(), "")
}

func TestCaptureBraceBlock(t *testing.T) {
	src := `{ outer { inner } "}" }tail`
	lex := NewLexer([]byte(src))
	text, end, ok := lex.CaptureBraceBlockAt(0)
	assert.Assert(t, ok)
	assert.Equal(t, text, `outer { inner } "}"`)
	assert.Equal(t, src[end:], "tail")
}

func TestCaptureBraceBlockUnclosed(t *testing.T) {
	lex := NewLexer([]byte("{ never ends"))
	_, _, ok := lex.CaptureBraceBlockAt(0)
	assert.Assert(t, !ok)
}

func TestRestOfLineFrom(t *testing.T) {
	src := "alias ll = ls -la  \nnext"
	lex := NewLexer([]byte(src))
	from := strings.IndexByte(src, '=') + 1
	text, end := lex.RestOfLineFrom(from)
	assert.Equal(t, text, "ls -la")
	assert.Equal(t, src[end], byte('\n'))
}

func TestTokenString(t *testing.T) {
	assert.Equal(t, TokenString(LBRACKET), "'['")
	assert.Equal(t, TokenString(ENVVAR), "ENVVAR")
	assert.Equal(t, TokenString(-1), "UNKNOWN")
}
