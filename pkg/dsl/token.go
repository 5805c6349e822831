package dsl

import (
	"fmt"

	"github.com/aretw0/storytree/pkg/dsl/ast"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	EOF TokenKind = iota
	Ident
	Keyword
	Number
	String
	Punct
)

func (k TokenKind) String() string {
	switch k {
	case EOF:
		return "end of file"
	case Ident:
		return "identifier"
	case Keyword:
		return "keyword"
	case Number:
		return "number"
	case String:
		return "string"
	case Punct:
		return "punctuation"
	}
	return "unknown"
}

// Token is a lexical token. For strings, Text holds the decoded value.
type Token struct {
	Kind TokenKind
	Text string
	Pos  ast.Pos
	// Raw is true for """-delimited strings.
	Raw bool
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of file"
	case String:
		return fmt.Sprintf("string %q", t.Text)
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}

var keywords = map[string]bool{
	"story": true, "import": true, "as": true, "title": true, "author": true, "start": true,
	"var": true, "shared": true, "node": true, "body": true, "bind": true,
	"on": true, "reach": true, "option": true, "if": true, "else": true,
	"visible": true, "goto": true, "warn": true, "error": true, "fail": true,
	"require": true, "ask": true, "choose": true, "choice": true, "cancel": true,
	"cancellable": true, "color": true, "white": true, "yields": true,
	"icon": true, "background": true, "font": true, "load": true,
	"resources": true, "close": true, "nsfw": true, "print": true,
	"true": true, "false": true, "nil": true,
}

// IsKeyword reports whether s is reserved by the DSL.
func IsKeyword(s string) bool {
	return keywords[s]
}
