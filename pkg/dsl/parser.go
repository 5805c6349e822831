package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/storytree/pkg/dsl/ast"
)

// maxErrors bounds how many syntax errors a single Parse collects.
const maxErrors = 20

// ErrorList is every syntax error found in a source, in order.
type ErrorList []*SyntaxError

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0], len(l)-1)
}

type parser struct {
	toks []Token
	pos  int
	errs ErrorList
}

// Parse turns src into a syntax tree. On failure the returned error is an
// ErrorList; the parser recovers at the next story or import declaration so
// that several problems are reported at once.
func Parse(name, src string) (*ast.Script, error) {
	toks, err := Lex(src)
	if err != nil {
		if se, ok := err.(*SyntaxError); ok {
			return nil, ErrorList{se}
		}
		return nil, err
	}
	p := &parser{toks: toks}
	script := &ast.Script{Name: name}
	for !p.at(EOF) && len(p.errs) < maxErrors {
		if item := p.topItem(); item != nil {
			script.Items = append(script.Items, item)
		}
	}
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return script, nil
}

// ParseExpr parses a single expression.
func ParseExpr(src string) (ast.Expr, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.guard(func() ast.Expr {
		e := p.expr()
		if !p.at(EOF) {
			p.failf(p.peek().Pos, "unexpected %s after expression", p.peek())
		}
		return e
	})
}

// ParseBlock parses a statement list without surrounding braces.
func ParseBlock(src string) (*ast.Block, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	b := &ast.Block{Pos: ast.Pos{Line: 1, Col: 1}}
	_, err = p.guard(func() ast.Expr {
		for !p.at(EOF) {
			b.Stmts = append(b.Stmts, p.stmt())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ParseTemplate compiles text holding {{ expr }} holes. Text without holes
// yields a plain string literal.
func ParseTemplate(text string, pos ast.Pos) (ast.Expr, error) {
	p := &parser{}
	return p.guard(func() ast.Expr { return p.template(text, pos) })
}

func (p *parser) guard(fn func() ast.Expr) (e ast.Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			e, err = nil, se
		}
	}()
	return fn(), nil
}

func (p *parser) topItem() (item ast.Item) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			p.errs = append(p.errs, se)
			p.sync()
			item = nil
		}
	}()
	switch {
	case p.atKeyword("story"):
		return p.story()
	case p.atKeyword("import"):
		return p.importDecl()
	}
	return &ast.StmtItem{Stmt: p.stmt()}
}

// sync skips to the next top-level declaration.
func (p *parser) sync() {
	if !p.at(EOF) {
		p.pos++
	}
	for !p.at(EOF) && !p.atKeyword("story") && !p.atKeyword("import") {
		p.pos++
	}
}

// ---------------------------------------------------------------------------
// Token helpers

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

func (p *parser) at(kind TokenKind) bool { return p.peek().Kind == kind }

func (p *parser) atKeyword(kw string) bool {
	t := p.peek()
	return t.Kind == Keyword && t.Text == kw
}

func (p *parser) atPunct(s string) bool {
	t := p.peek()
	return t.Kind == Punct && t.Text == s
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.atKeyword(kw) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptPunct(s string) bool {
	if p.atPunct(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) Token {
	if !p.atKeyword(kw) {
		p.failf(p.peek().Pos, "expected %q, found %s", kw, p.peek())
	}
	return p.next()
}

func (p *parser) expectPunct(s string) Token {
	if !p.atPunct(s) {
		p.failf(p.peek().Pos, "expected %q, found %s", s, p.peek())
	}
	return p.next()
}

func (p *parser) expectIdent() Token {
	if !p.at(Ident) {
		p.failf(p.peek().Pos, "expected identifier, found %s", p.peek())
	}
	return p.next()
}

func (p *parser) failf(pos ast.Pos, format string, args ...any) {
	panic(&SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// ---------------------------------------------------------------------------
// Declarations

func (p *parser) story() *ast.StoryDecl {
	tok := p.expectKeyword("story")
	decl := &ast.StoryDecl{Pos: tok.Pos}
	if !p.atPunct("{") {
		decl.ID = p.expr()
	}
	p.expectPunct("{")
	for !p.acceptPunct("}") {
		if p.at(EOF) {
			p.failf(tok.Pos, "story is missing its closing brace")
		}
		decl.Items = append(decl.Items, p.storyItem())
	}
	return decl
}

func (p *parser) importDecl() *ast.ImportDecl {
	tok := p.expectKeyword("import")
	decl := &ast.ImportDecl{Pos: tok.Pos, Path: p.expr()}
	if p.acceptKeyword("as") {
		decl.ID = p.expr()
	}
	if p.acceptPunct("{") {
		for !p.acceptPunct("}") {
			if p.at(EOF) {
				p.failf(tok.Pos, "import is missing its closing brace")
			}
			decl.Items = append(decl.Items, p.storyItem())
		}
	}
	return decl
}

func (p *parser) storyItem() ast.Item {
	t := p.peek()
	if t.Kind == Keyword {
		switch t.Text {
		case "title", "author", "start":
			p.next()
			p.expectPunct("=")
			return &ast.Property{Pos: t.Pos, Name: t.Text, Value: p.expr()}
		case "var", "shared":
			p.next()
			name := p.expectIdent()
			p.expectPunct("=")
			return &ast.VarDecl{Pos: t.Pos, Name: name.Text, Value: p.expr(), Shared: t.Text == "shared"}
		case "node":
			return p.node()
		}
	}
	return &ast.StmtItem{Stmt: p.stmt()}
}

func (p *parser) node() *ast.NodeDecl {
	tok := p.expectKeyword("node")
	decl := &ast.NodeDecl{Pos: tok.Pos, ID: p.expr()}
	if p.at(String) {
		decl.Body = p.expr()
	}
	if !p.acceptPunct("{") {
		return decl
	}
	for !p.acceptPunct("}") {
		t := p.peek()
		switch {
		case t.Kind == EOF:
			p.failf(tok.Pos, "node is missing its closing brace")
		case p.acceptKeyword("body"):
			decl.Items = append(decl.Items, &ast.BodyDecl{Pos: t.Pos, Body: p.expr()})
		case p.acceptKeyword("bind"):
			key := p.expr()
			p.expectPunct("=")
			decl.Items = append(decl.Items, &ast.BindDecl{Pos: t.Pos, Key: key, Value: p.expr()})
		case p.acceptKeyword("on"):
			p.expectKeyword("reach")
			decl.Items = append(decl.Items, &ast.OnReach{Pos: t.Pos, Block: p.block()})
		case p.atKeyword("option"):
			decl.Items = append(decl.Items, p.option())
		default:
			p.failf(t.Pos, "unexpected %s in node, expected body, bind, on reach or option", t)
		}
	}
	return decl
}

func (p *parser) option() *ast.OptionDecl {
	tok := p.expectKeyword("option")
	decl := &ast.OptionDecl{Pos: tok.Pos, Text: p.expr()}
	for {
		switch {
		case p.acceptPunct("->"):
			if decl.Target != nil {
				p.failf(tok.Pos, "option declares two targets")
			}
			decl.Target = p.expr()
		case p.acceptKeyword("if"):
			decl.Available = p.expr()
		case p.acceptKeyword("visible"):
			decl.Visible = p.expr()
		default:
			if p.atPunct("{") {
				decl.Action = p.block()
			}
			return decl
		}
	}
}

// ---------------------------------------------------------------------------
// Statements

func (p *parser) block() *ast.Block {
	tok := p.expectPunct("{")
	b := &ast.Block{Pos: tok.Pos}
	for !p.acceptPunct("}") {
		if p.at(EOF) {
			p.failf(tok.Pos, "block is missing its closing brace")
		}
		b.Stmts = append(b.Stmts, p.stmt())
	}
	return b
}

func (p *parser) stmt() ast.Stmt {
	t := p.peek()
	switch t.Kind {
	case Ident:
		if next := p.peekAt(1); next.Kind == Punct && next.Text == "=" {
			p.next()
			p.next()
			return &ast.Assign{Pos: t.Pos, Name: t.Text, Value: p.expr()}
		}
		p.failf(t.Pos, "unexpected identifier %q, expected a statement", t.Text)
	case Punct:
		if t.Text == "{" {
			return p.block()
		}
	case Keyword:
		return p.keywordStmt(t)
	}
	p.failf(t.Pos, "unexpected %s, expected a statement", t)
	return nil
}

func (p *parser) keywordStmt(t Token) ast.Stmt {
	switch t.Text {
	case "if":
		return p.ifStmt()
	case "goto":
		p.next()
		return &ast.Goto{Pos: t.Pos, Target: p.expr()}
	case "warn", "error":
		p.next()
		return &ast.Message{Pos: t.Pos, Kind: t.Text, Text: p.expr()}
	case "print":
		p.next()
		return &ast.Print{Pos: t.Pos, Text: p.expr()}
	case "fail":
		p.next()
		s := &ast.Fail{Pos: t.Pos}
		if p.at(String) {
			s.Reason = p.expr()
		}
		return s
	case "require":
		p.next()
		c := p.next()
		if c.Kind != Ident && c.Kind != String {
			p.failf(c.Pos, "expected a capability name, found %s", c)
		}
		return &ast.Require{Pos: t.Pos, Capability: c.Text}
	case "ask":
		p.next()
		q := p.expr()
		p.expectPunct("->")
		return &ast.Ask{Pos: t.Pos, Question: q, Var: p.expectIdent().Text}
	case "choose":
		return p.choose()
	case "background":
		p.next()
		return &ast.Background{Pos: t.Pos, Resource: p.expr()}
	case "font":
		p.next()
		return &ast.Font{Pos: t.Pos, Name: p.expr()}
	case "load":
		p.next()
		p.expectKeyword("resources")
		return &ast.LoadResources{Pos: t.Pos}
	case "close":
		p.next()
		return &ast.Close{Pos: t.Pos}
	case "nsfw":
		p.next()
		s := &ast.Nsfw{Pos: t.Pos}
		if p.at(String) {
			s.Content = append(s.Content, p.expr())
			for p.acceptPunct(",") {
				s.Content = append(s.Content, p.expr())
			}
		}
		return s
	}
	p.failf(t.Pos, "unexpected keyword %q, expected a statement", t.Text)
	return nil
}

func (p *parser) ifStmt() *ast.If {
	tok := p.expectKeyword("if")
	s := &ast.If{Pos: tok.Pos, Cond: p.expr(), Then: p.block()}
	if p.acceptKeyword("else") {
		if p.atKeyword("if") {
			s.Else = p.ifStmt()
		} else {
			s.Else = p.block()
		}
	}
	return s
}

func (p *parser) choose() *ast.Choose {
	tok := p.expectKeyword("choose")
	s := &ast.Choose{Pos: tok.Pos}
	if p.at(Ident) {
		if next := p.peekAt(1); next.Kind == Punct && next.Text == "=" {
			s.Var = p.next().Text
			p.next()
		}
	}
	s.Text = p.expr()
	p.expectPunct("{")
	for !p.acceptPunct("}") {
		t := p.peek()
		switch {
		case t.Kind == EOF:
			p.failf(tok.Pos, "choose is missing its closing brace")
		case p.acceptKeyword("title"):
			s.Title = p.expr()
		case p.acceptKeyword("icon"):
			s.Icon = p.expr()
		case p.acceptKeyword("cancellable"):
			s.Cancellable = true
		case p.acceptKeyword("choice"):
			c := &ast.Choice{Pos: t.Pos, Text: p.expr()}
			for {
				if p.acceptKeyword("color") {
					c.Color = p.expr()
				} else if p.acceptKeyword("white") {
					c.WhiteText = true
				} else {
					break
				}
			}
			p.choiceTail(c)
			s.Choices = append(s.Choices, c)
		case p.acceptKeyword("cancel"):
			if s.Cancel != nil {
				p.failf(t.Pos, "choose declares two cancel branches")
			}
			c := &ast.Choice{Pos: t.Pos}
			p.choiceTail(c)
			s.Cancel = c
			s.Cancellable = true
		default:
			p.failf(t.Pos, "unexpected %s in choose", t)
		}
	}
	if len(s.Choices) == 0 {
		p.failf(tok.Pos, "choose needs at least one choice")
	}
	return s
}

func (p *parser) choiceTail(c *ast.Choice) {
	if p.acceptKeyword("yields") {
		c.Yields = p.expr()
	}
	if p.atPunct("{") {
		c.Action = p.block()
	}
}

// ---------------------------------------------------------------------------
// Expressions

var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) expr() ast.Expr {
	return p.binary(0)
}

func (p *parser) binary(level int) ast.Expr {
	if level == len(binaryLevels) {
		return p.unary()
	}
	left := p.binary(level + 1)
	for {
		t := p.peek()
		if t.Kind != Punct || !contains(binaryLevels[level], t.Text) {
			return left
		}
		p.next()
		right := p.binary(level + 1)
		left = &ast.Binary{Pos: t.Pos, Op: t.Text, Left: left, Right: right}
	}
}

func contains(ops []string, op string) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func (p *parser) unary() ast.Expr {
	t := p.peek()
	if t.Kind == Punct && (t.Text == "!" || t.Text == "-") {
		p.next()
		return &ast.Unary{Pos: t.Pos, Op: t.Text, X: p.unary()}
	}
	return p.primary()
}

func (p *parser) primary() ast.Expr {
	t := p.next()
	switch t.Kind {
	case Number:
		v, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			p.failf(t.Pos, "invalid number %q", t.Text)
		}
		return &ast.NumberLit{Pos: t.Pos, Value: v}
	case String:
		return p.template(t.Text, t.Pos)
	case Keyword:
		switch t.Text {
		case "true", "false":
			return &ast.BoolLit{Pos: t.Pos, Value: t.Text == "true"}
		case "nil":
			return &ast.NilLit{Pos: t.Pos}
		}
	case Ident:
		if !p.acceptPunct("(") {
			return &ast.Ident{Pos: t.Pos, Name: t.Text}
		}
		call := &ast.Call{Pos: t.Pos, Name: t.Text}
		if !p.acceptPunct(")") {
			call.Args = append(call.Args, p.expr())
			for p.acceptPunct(",") {
				call.Args = append(call.Args, p.expr())
			}
			p.expectPunct(")")
		}
		return call
	case Punct:
		if t.Text == "(" {
			e := p.expr()
			p.expectPunct(")")
			return e
		}
	}
	p.failf(t.Pos, "unexpected %s, expected an expression", t)
	return nil
}

// template splits a string literal on {{ }} holes.
func (p *parser) template(text string, pos ast.Pos) ast.Expr {
	if !strings.Contains(text, "{{") {
		return &ast.StringLit{Pos: pos, Value: text}
	}
	tmpl := &ast.Template{Pos: pos}
	rest := text
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			break
		}
		if open > 0 {
			tmpl.Parts = append(tmpl.Parts, &ast.StringLit{Pos: pos, Value: rest[:open]})
		}
		end := strings.Index(rest[open+2:], "}}")
		if end < 0 {
			p.failf(pos, "unterminated {{ in string")
		}
		inner := strings.TrimSpace(rest[open+2 : open+2+end])
		if inner == "" {
			p.failf(pos, "empty {{ }} in string")
		}
		e, err := ParseExpr(inner)
		if err != nil {
			p.failf(pos, "in {{ %s }}: %v", inner, err)
		}
		tmpl.Parts = append(tmpl.Parts, e)
		rest = rest[open+2+end+2:]
	}
	if rest != "" {
		tmpl.Parts = append(tmpl.Parts, &ast.StringLit{Pos: pos, Value: rest})
	}
	return tmpl
}
