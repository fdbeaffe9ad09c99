package parser

import (
	"bytes"
	"strings"
)

// Token types produced by the lexer.
const (
	EOF = iota
	NEWLINE
	WORD
	STRING
	INT
	LBRACKET
	RBRACKET
	LBRACE
	RBRACE
	LPAREN
	RPAREN
	EQUALS
	COLON
	COMMA
	STAR
	ENVVAR
	ILLEGAL
)

var tokenNames = [...]string{
	EOF:      "EOF",
	NEWLINE:  "NEWLINE",
	WORD:     "WORD",
	STRING:   "STRING",
	INT:      "INT",
	LBRACKET: "'['",
	RBRACKET: "']'",
	LBRACE:   "'{'",
	RBRACE:   "'}'",
	LPAREN:   "'('",
	RPAREN:   "')'",
	EQUALS:   "'='",
	COLON:    "':'",
	COMMA:    "','",
	STAR:     "'*'",
	ENVVAR:   "ENVVAR",
	ILLEGAL:  "ILLEGAL",
}

// TokenString returns a printable name for a token type.
func TokenString(t int) string {
	if t < 0 || t >= len(tokenNames) {
		return "UNKNOWN"
	}
	return tokenNames[t]
}

// Token is one lexeme with its byte extent in the source. For ENVVAR tokens
// Text is the variable name without the $env. prefix; for STRING tokens it is
// the unquoted value.
type Token struct {
	Type  int
	Text  string
	Start int
	End   int
}

// Lexer scans declaration sources. Newlines are significant, comment lines
// accumulate as doc text for the declaration that follows, and everything
// else is words, literals and a handful of structural runes.
type Lexer struct {
	input []byte
	pos   int

	doc        []string
	prevType   int
	sawComment bool
}

func NewLexer(input []byte) *Lexer {
	return &Lexer{input: input, prevType: NEWLINE}
}

// TakeDoc returns the comment lines scanned since the last blank line and
// clears them. Callers grab it when a declaration keyword shows up.
func (l *Lexer) TakeDoc() string {
	out := strings.Join(l.doc, "\n")
	l.doc = nil
	return out
}

// Next scans and returns the next token.
func (l *Lexer) Next() Token {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '#':
			start := l.pos
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
			text := strings.TrimPrefix(string(l.input[start:l.pos]), "#")
			l.doc = append(l.doc, strings.TrimSpace(text))
			l.sawComment = true
		case c == '\n':
			tok := Token{Type: NEWLINE, Start: l.pos, End: l.pos + 1}
			l.pos++
			if l.prevType == NEWLINE && !l.sawComment {
				// a blank line detaches any pending doc comment
				l.doc = nil
			}
			l.sawComment = false
			l.prevType = NEWLINE
			return tok
		default:
			return l.scanToken()
		}
	}
	return Token{Type: EOF, Start: len(l.input), End: len(l.input)}
}

func (l *Lexer) scanToken() Token {
	start := l.pos
	emit := func(t int, text string) Token {
		l.prevType = t
		l.sawComment = false
		return Token{Type: t, Text: text, Start: start, End: l.pos}
	}

	switch c := l.input[l.pos]; c {
	case '[':
		l.pos++
		return emit(LBRACKET, "[")
	case ']':
		l.pos++
		return emit(RBRACKET, "]")
	case '{':
		l.pos++
		return emit(LBRACE, "{")
	case '}':
		l.pos++
		return emit(RBRACE, "}")
	case '(':
		l.pos++
		return emit(LPAREN, "(")
	case ')':
		l.pos++
		return emit(RPAREN, ")")
	case '=':
		l.pos++
		return emit(EQUALS, "=")
	case ':':
		l.pos++
		return emit(COLON, ":")
	case ',':
		l.pos++
		return emit(COMMA, ",")
	case '*':
		l.pos++
		return emit(STAR, "*")
	case '"', '\'':
		return l.scanString(c)
	}

	if bytes.HasPrefix(l.input[l.pos:], []byte("$env.")) {
		l.pos += len("$env.")
		nameStart := l.pos
		for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
			l.pos++
		}
		return emit(ENVVAR, string(l.input[nameStart:l.pos]))
	}

	if isWordChar(l.input[l.pos]) {
		for l.pos < len(l.input) && isWordChar(l.input[l.pos]) {
			l.pos++
		}
		text := string(l.input[start:l.pos])
		if isInteger(text) {
			return emit(INT, text)
		}
		return emit(WORD, text)
	}

	l.pos++
	return emit(ILLEGAL, string(l.input[start:l.pos]))
}

func (l *Lexer) scanString(quote byte) Token {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == quote {
			l.pos++
			l.prevType = STRING
			l.sawComment = false
			return Token{Type: STRING, Text: sb.String(), Start: start, End: l.pos}
		}
		if c == '\n' {
			break
		}
		if c == '\\' && quote == '"' && l.pos+1 < len(l.input) {
			l.pos++
			switch l.input[l.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(l.input[l.pos])
			}
			l.pos++
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	l.prevType = ILLEGAL
	l.sawComment = false
	return Token{Type: ILLEGAL, Text: "unterminated string", Start: start, End: l.pos}
}

// CaptureBraceBlockAt rescans from an opening brace and returns the raw text
// between it and its matching close, with quotes respected. Command bodies
// are stored this way, uninterpreted.
func (l *Lexer) CaptureBraceBlockAt(start int) (text string, end int, ok bool) {
	l.pos = start
	if l.pos >= len(l.input) || l.input[l.pos] != '{' {
		return "", start, false
	}
	depth := 0
	bodyStart := start + 1
	for l.pos < len(l.input) {
		switch c := l.input[l.pos]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				text = strings.TrimSpace(string(l.input[bodyStart:l.pos]))
				l.pos++
				l.prevType = RBRACE
				l.sawComment = false
				return text, l.pos, true
			}
		case '"', '\'':
			quote := c
			l.pos++
			for l.pos < len(l.input) && l.input[l.pos] != quote {
				if quote == '"' && l.input[l.pos] == '\\' {
					l.pos++
				}
				l.pos++
			}
		}
		l.pos++
	}
	return "", l.pos, false
}

// RestOfLineFrom rescans from a byte offset to the end of the line and
// returns the trimmed text. Alias expansions keep their raw form this way.
func (l *Lexer) RestOfLineFrom(from int) (text string, end int) {
	l.pos = from
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.pos++
	}
	return strings.TrimSpace(string(l.input[from:l.pos])), l.pos
}

func isWordChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '/', '?', '!', '+', '$':
		return true
	}
	return false
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	digits := s
	if s[0] == '-' || s[0] == '+' {
		digits = s[1:]
	}
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}
