package dsl

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/storytree/pkg/dsl/ast"
	"golang.org/x/text/unicode/norm"
)

// SyntaxError is a lexical or grammatical error at a position.
type SyntaxError struct {
	Pos ast.Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

type lexer struct {
	src  string
	off  int
	line int
	col  int
}

// Lex splits src into tokens. The source is normalized to NFC first so that
// identifiers and node IDs typed on different systems compare equal.
func Lex(src string) ([]Token, error) {
	if pos, ok := validUTF8(src); !ok {
		return nil, &SyntaxError{Pos: pos, Msg: "invalid UTF-8 encoding"}
	}
	l := &lexer{src: norm.NFC.String(src), line: 1, col: 1}
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}

// validUTF8 reports whether src is valid UTF-8, and if not, the position of
// the first invalid byte.
func validUTF8(src string) (ast.Pos, bool) {
	if utf8.ValidString(src) {
		return ast.Pos{}, true
	}
	pos := ast.Pos{Line: 1, Col: 1}
	for off := 0; off < len(src); {
		r, size := utf8.DecodeRuneInString(src[off:])
		if r == utf8.RuneError && size == 1 {
			return pos, false
		}
		off += size
		if r == '\n' {
			pos.Line++
			pos.Col = 1
		} else {
			pos.Col++
		}
	}
	return pos, false
}

func (l *lexer) pos() ast.Pos {
	return ast.Pos{Line: l.line, Col: l.col}
}

func (l *lexer) peek() rune {
	if l.off >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpaceAndComments() error {
	for l.off < len(l.src) {
		switch {
		case unicode.IsSpace(l.peek()):
			l.advance()
		case strings.HasPrefix(l.src[l.off:], "//"):
			for l.off < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		case strings.HasPrefix(l.src[l.off:], "/*"):
			start := l.pos()
			l.advance()
			l.advance()
			for {
				if l.off >= len(l.src) {
					return &SyntaxError{Pos: start, Msg: "unterminated block comment"}
				}
				if strings.HasPrefix(l.src[l.off:], "*/") {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

var twoCharPuncts = []string{"==", "!=", "<=", ">=", "&&", "||", "->"}

func (l *lexer) next() (Token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return Token{}, err
	}
	start := l.pos()
	if l.off >= len(l.src) {
		return Token{Kind: EOF, Pos: start}, nil
	}

	r := l.peek()
	switch {
	case r == '_' || unicode.IsLetter(r):
		begin := l.off
		for l.off < len(l.src) {
			c := l.peek()
			if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
				break
			}
			l.advance()
		}
		word := l.src[begin:l.off]
		if IsKeyword(word) {
			return Token{Kind: Keyword, Text: word, Pos: start}, nil
		}
		return Token{Kind: Ident, Text: word, Pos: start}, nil

	case unicode.IsDigit(r):
		begin := l.off
		seenDot := false
		for l.off < len(l.src) {
			c := l.peek()
			if c == '.' && !seenDot {
				rest := l.src[l.off+1:]
				if rest == "" || rest[0] < '0' || rest[0] > '9' {
					break
				}
				seenDot = true
				l.advance()
				continue
			}
			if !unicode.IsDigit(c) {
				break
			}
			l.advance()
		}
		return Token{Kind: Number, Text: l.src[begin:l.off], Pos: start}, nil

	case r == '"':
		if strings.HasPrefix(l.src[l.off:], `"""`) {
			return l.rawString(start)
		}
		return l.quotedString(start)
	}

	for _, p := range twoCharPuncts {
		if strings.HasPrefix(l.src[l.off:], p) {
			l.advance()
			l.advance()
			return Token{Kind: Punct, Text: p, Pos: start}, nil
		}
	}
	if strings.ContainsRune("{}(),=<>+-*/%!", r) {
		l.advance()
		return Token{Kind: Punct, Text: string(r), Pos: start}, nil
	}
	return Token{}, &SyntaxError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", r)}
}

func (l *lexer) quotedString(start ast.Pos) (Token, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		if l.off >= len(l.src) || l.peek() == '\n' {
			return Token{}, &SyntaxError{Pos: start, Msg: "unterminated string"}
		}
		c := l.advance()
		switch c {
		case '"':
			return Token{Kind: String, Text: b.String(), Pos: start}, nil
		case '\\':
			if l.off >= len(l.src) {
				return Token{}, &SyntaxError{Pos: start, Msg: "unterminated string"}
			}
			esc := l.advance()
			switch esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case '"', '\\':
				b.WriteRune(esc)
			default:
				return Token{}, &SyntaxError{Pos: l.pos(), Msg: fmt.Sprintf("unknown escape sequence \\%c", esc)}
			}
		default:
			b.WriteRune(c)
		}
	}
}

func (l *lexer) rawString(start ast.Pos) (Token, error) {
	l.advance()
	l.advance()
	l.advance()
	begin := l.off
	for {
		if l.off >= len(l.src) {
			return Token{}, &SyntaxError{Pos: start, Msg: "unterminated raw string"}
		}
		if strings.HasPrefix(l.src[l.off:], `"""`) {
			text := l.src[begin:l.off]
			l.advance()
			l.advance()
			l.advance()
			return Token{Kind: String, Text: TrimIndent(text), Pos: start, Raw: true}, nil
		}
		l.advance()
	}
}

// TrimIndent drops the first and last lines when they are blank and removes
// the indentation shared by every non-blank line.
func TrimIndent(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return strings.Join(lines, "\n")
	}
	for i, line := range lines {
		if len(line) >= minIndent {
			lines[i] = line[minIndent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
