package interp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aretw0/storytree/pkg/dsl"
	"github.com/aretw0/storytree/pkg/dsl/ast"
	"github.com/aretw0/storytree/pkg/story"
	"github.com/aretw0/storytree/pkg/txtstory"
)

var errGotoOutsideAction = errors.New("goto is only allowed inside option actions")

// builder accumulates the result of one Build call.
type builder struct {
	in      *Interpreter
	ctx     context.Context
	name    string
	locals  map[string]any
	shared  map[string]any
	stories []*story.Story
	ids     map[string]bool
	diags   []story.Diagnostic
	cause   error
	stopped bool
}

// Build executes a parsed script and returns every story it declares, in
// declaration order. Any problem yields a *story.EvaluationError and no stories.
func (in *Interpreter) Build(ctx context.Context, script *ast.Script) ([]*story.Story, error) {
	b := &builder{
		in:     in,
		ctx:    ctx,
		name:   script.Name,
		locals: make(map[string]any),
		shared: make(map[string]any),
		ids:    make(map[string]bool),
	}

	for _, item := range script.Items {
		if err := ctx.Err(); err != nil {
			b.fail(item.Position(), err)
			b.stopped = true
		}
		if b.stopped {
			break
		}
		switch it := item.(type) {
		case *ast.StoryDecl:
			b.story(it)
		case *ast.ImportDecl:
			b.importDecl(it)
		case *ast.StmtItem:
			b.run(nil, it.Stmt)
		default:
			b.fail(item.Position(), fmt.Errorf("unexpected %T at top level", item))
		}
	}

	if len(b.diags) > 0 {
		return nil, &story.EvaluationError{
			Phase:       story.PhaseBuild,
			Source:      script.Name,
			Diagnostics: b.diags,
			Err:         b.cause,
		}
	}
	for k, v := range b.shared {
		b.in.env.Set(k, v)
	}
	return b.stories, nil
}

func (b *builder) fail(pos ast.Pos, err error) {
	b.diags = append(b.diags, story.Diagnostic{
		Severity: story.SeverityError,
		Message:  err.Error(),
		Pos:      pos,
	})
	if b.cause == nil {
		b.cause = err
	}
}

func (b *builder) frame(st *story.Story) *frame {
	return &frame{
		ctx:   b.ctx,
		in:    b.in,
		scope: &buildScope{story: st, env: b.in.env, staged: b.shared, locals: b.locals},
		story: st,
		out:   &Outcome{},
	}
}

// eval evaluates a build-time expression. Failures stop the build.
func (b *builder) eval(st *story.Story, e ast.Expr) (any, bool) {
	v, err := b.frame(st).eval(e)
	if err != nil {
		b.fail(posOf(err, e.Position()), err)
		b.stopped = true
		return nil, false
	}
	return v, true
}

func (b *builder) evalString(st *story.Story, e ast.Expr) (string, bool) {
	v, ok := b.eval(st, e)
	return ToString(v), ok
}

// run executes a build-time statement.
func (b *builder) run(st *story.Story, s ast.Stmt) {
	if !b.checkNoGoto(s) {
		return
	}
	f := b.frame(st)
	if _, err := f.exec(s); err != nil {
		b.fail(posOf(err, s.Position()), err)
		b.stopped = true
		return
	}
	if f.out.Closed {
		b.fail(s.Position(), story.ErrAborted)
		b.stopped = true
	}
}

// checkNoGoto reports goto statements outside option actions.
func (b *builder) checkNoGoto(n ast.Node) bool {
	ok := true
	ast.Inspect(n, func(n ast.Node) bool {
		if g, isGoto := n.(*ast.Goto); isGoto {
			b.fail(g.Pos, errGotoOutsideAction)
			ok = false
		}
		return true
	})
	return ok
}

func posOf(err error, fallback ast.Pos) ast.Pos {
	if p := Position(err); p.Line > 0 {
		return p
	}
	return fallback
}

func (b *builder) story(decl *ast.StoryDecl) {
	id := DefaultStoryID(b.name)
	if decl.ID != nil {
		var ok bool
		if id, ok = b.evalString(nil, decl.ID); !ok {
			return
		}
	}
	s := story.New(id)
	b.populate(s, decl.Items)
	b.finish(s, decl.Pos)
}

func (b *builder) importDecl(decl *ast.ImportDecl) {
	text, ok := b.evalString(nil, decl.Path)
	if !ok {
		return
	}

	var (
		s   *story.Story
		err error
	)
	if strings.Contains(text, "\n") {
		s, err = txtstory.Parse(b.name, strings.NewReader(dsl.TrimIndent(text)))
	} else if b.in.resolver == nil {
		err = fmt.Errorf("cannot import %q: no source resolver configured", text)
	} else {
		src, rerr := b.in.resolver.Resolve(b.ctx, b.name, text)
		if rerr != nil {
			err = fmt.Errorf("import %q: %w", text, rerr)
		} else {
			s, err = txtstory.Parse(src.Name, bytes.NewReader(src.Content))
		}
	}
	if err != nil {
		b.fail(decl.Pos, err)
		return
	}

	if decl.ID != nil {
		if s.ID, ok = b.evalString(nil, decl.ID); !ok {
			return
		}
	}
	b.populate(s, decl.Items)
	b.finish(s, decl.Pos)
}

func (b *builder) populate(s *story.Story, items []ast.Item) {
	for _, item := range items {
		if b.stopped {
			return
		}
		switch it := item.(type) {
		case *ast.Property:
			v, ok := b.evalString(s, it.Value)
			if !ok {
				return
			}
			switch it.Name {
			case "title":
				s.Title = v
			case "author":
				s.Author = v
			case "start":
				s.Start = v
			}
		case *ast.VarDecl:
			v, ok := b.eval(s, it.Value)
			if !ok {
				return
			}
			if it.Shared {
				b.declareShared(it.Name, v)
			} else {
				s.Vars[it.Name] = v
			}
		case *ast.NodeDecl:
			b.node(s, it)
		case *ast.StmtItem:
			b.run(s, it.Stmt)
		default:
			b.fail(item.Position(), fmt.Errorf("unexpected %T in story", item))
		}
	}
}

// declareShared stages a shared property unless the host already has it.
func (b *builder) declareShared(name string, v any) {
	if _, ok := b.shared[name]; ok {
		return
	}
	if _, ok := b.in.env.Get(name); ok {
		return
	}
	b.shared[name] = v
}

func (b *builder) node(s *story.Story, decl *ast.NodeDecl) {
	id, ok := b.evalString(s, decl.ID)
	if !ok {
		return
	}
	n := &story.Node{ID: id, Body: decl.Body, Pos: decl.Pos}
	for _, item := range decl.Items {
		switch it := item.(type) {
		case *ast.BodyDecl:
			n.Body = it.Body
		case *ast.BindDecl:
			key, ok := b.evalString(s, it.Key)
			if !ok {
				return
			}
			n.Bindings = append(n.Bindings, story.Binding{Key: key, Value: it.Value})
		case *ast.OnReach:
			if b.checkNoGoto(it.Block) {
				n.OnReach = it.Block
			}
		case *ast.OptionDecl:
			opt := &story.Option{
				Text:      it.Text,
				Available: it.Available,
				Visible:   it.Visible,
				Action:    it.Action,
				Gotos:     ast.Gotos(it.Action),
				Pos:       it.Pos,
			}
			if it.Target != nil {
				if opt.Target, ok = b.evalString(s, it.Target); !ok {
					return
				}
			}
			n.Options = append(n.Options, opt)
		default:
			b.fail(item.Position(), fmt.Errorf("unexpected %T in node", item))
		}
	}
	if err := s.AddNode(n); err != nil {
		b.fail(decl.Pos, err)
	}
}

// finish checks the references of a story and registers it.
func (b *builder) finish(s *story.Story, pos ast.Pos) {
	if b.stopped {
		return
	}
	for _, n := range s.Nodes {
		for i, o := range n.Options {
			if o.Target != "" {
				if _, ok := s.Node(o.Target); !ok {
					b.fail(o.Pos, fmt.Errorf("%w: option %d of node %q leads to %q", story.ErrUnknownNode, i+1, n.ID, o.Target))
				}
			}
			for _, g := range o.Gotos {
				if _, ok := s.Node(g); !ok {
					b.fail(o.Pos, fmt.Errorf("%w: option %d of node %q jumps to %q", story.ErrUnknownNode, i+1, n.ID, g))
				}
			}
		}
	}
	if s.Start != "" {
		if _, ok := s.Node(s.Start); !ok {
			b.fail(pos, fmt.Errorf("%w: story %q starts at %q", story.ErrUnknownNode, s.ID, s.Start))
		}
	}
	if b.ids[s.ID] {
		b.fail(pos, fmt.Errorf("%w: %q", story.ErrDuplicateStory, s.ID))
		return
	}
	b.ids[s.ID] = true
	b.stories = append(b.stories, s)
}

// DefaultStoryID derives the ID of a story declared without one from the
// script name: "tales/cave.story" gives "cave".
func DefaultStoryID(name string) string {
	base := path.Base(filepath.ToSlash(name))
	if base == "." || base == "/" || base == "" {
		return "story"
	}
	for _, ext := range []string{txtstory.Extension, ".story", ".txt"} {
		if strings.HasSuffix(strings.ToLower(base), ext) && len(base) > len(ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
