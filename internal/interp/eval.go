package interp

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/storytree/pkg/dsl/ast"
	"github.com/aretw0/storytree/pkg/story"
)

// frame carries everything a statement or expression needs while it runs.
type frame struct {
	ctx       context.Context
	in        *Interpreter
	scope     Scope
	story     *story.Story
	history   []string
	allowGoto bool
	out       *Outcome
}

func (in *Interpreter) sessionFrame(ctx context.Context, s *Session, allowGoto bool) *frame {
	return &frame{
		ctx:       ctx,
		in:        in,
		scope:     s,
		story:     s.Story,
		history:   s.History,
		allowGoto: allowGoto,
		out:       &Outcome{},
	}
}

// Eval evaluates an expression against a session.
func (in *Interpreter) Eval(ctx context.Context, e ast.Expr, s *Session) (any, error) {
	return in.sessionFrame(ctx, s, false).eval(e)
}

// EvalString evaluates e and renders it as text. A nil expression is "".
func (in *Interpreter) EvalString(ctx context.Context, e ast.Expr, s *Session) (string, error) {
	if e == nil {
		return "", nil
	}
	v, err := in.Eval(ctx, e, s)
	if err != nil {
		return "", err
	}
	return ToString(v), nil
}

// EvalBool evaluates a condition. A nil expression is def.
func (in *Interpreter) EvalBool(ctx context.Context, e ast.Expr, s *Session, def bool) (bool, error) {
	if e == nil {
		return def, nil
	}
	v, err := in.Eval(ctx, e, s)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

func (f *frame) eval(e ast.Expr) (any, error) {
	switch e := e.(type) {
	case nil:
		return nil, nil
	case *ast.NumberLit:
		return e.Value, nil
	case *ast.StringLit:
		return e.Value, nil
	case *ast.BoolLit:
		return e.Value, nil
	case *ast.NilLit:
		return nil, nil
	case *ast.Ident:
		v, ok := f.scope.Lookup(e.Name)
		if !ok {
			return nil, errorf(e.Pos, "undefined variable %q", e.Name)
		}
		return v, nil
	case *ast.Template:
		var b strings.Builder
		for _, p := range e.Parts {
			v, err := f.eval(p)
			if err != nil {
				return nil, at(e.Pos, err)
			}
			b.WriteString(ToString(v))
		}
		return b.String(), nil
	case *ast.Unary:
		x, err := f.eval(e.X)
		if err != nil {
			return nil, err
		}
		if e.Op == "!" {
			return !Truthy(x), nil
		}
		n, ok := x.(float64)
		if !ok {
			return nil, errorf(e.Pos, "cannot negate %s", typeName(x))
		}
		return -n, nil
	case *ast.Binary:
		return f.binary(e)
	case *ast.Call:
		return f.call(e)
	}
	return nil, errorf(e.Position(), "cannot evaluate %T", e)
}

func (f *frame) binary(e *ast.Binary) (any, error) {
	l, err := f.eval(e.Left)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "&&":
		if !Truthy(l) {
			return false, nil
		}
		r, err := f.eval(e.Right)
		return Truthy(r), err
	case "||":
		if Truthy(l) {
			return true, nil
		}
		r, err := f.eval(e.Right)
		return Truthy(r), err
	}
	r, err := f.eval(e.Right)
	if err != nil {
		return nil, err
	}
	v, err := binary(e.Op, l, r)
	return v, at(e.Pos, err)
}

func (f *frame) evalString(e ast.Expr) (string, error) {
	v, err := f.eval(e)
	if err != nil {
		return "", err
	}
	return ToString(v), nil
}

func (f *frame) call(e *ast.Call) (any, error) {
	args := make([]any, len(e.Args))
	for i, a := range e.Args {
		v, err := f.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if fn, ok := builtins[e.Name]; ok {
		if fn.arity >= 0 && len(args) != fn.arity {
			return nil, errorf(e.Pos, "%s expects %d argument(s), got %d", e.Name, fn.arity, len(args))
		}
		v, err := fn.call(f, args)
		return v, at(e.Pos, err)
	}
	if f.in.registry.Has(e.Name) {
		v, err := f.in.registry.Call(f.ctx, e.Name, args)
		if err != nil {
			return nil, at(e.Pos, fmt.Errorf("%s: %w", e.Name, err))
		}
		return Normalize(v), nil
	}
	return nil, errorf(e.Pos, "unknown function %q", e.Name)
}

type builtin struct {
	arity int
	call  func(f *frame, args []any) (any, error)
}

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"visited": {1, func(f *frame, args []any) (any, error) {
			return slices.Contains(f.history, ToString(args[0])), nil
		}},
		"has": {1, func(f *frame, args []any) (any, error) {
			_, ok := f.scope.Lookup(ToString(args[0]))
			return ok, nil
		}},
		"len": {1, func(_ *frame, args []any) (any, error) {
			return float64(utf8.RuneCountInString(ToString(args[0]))), nil
		}},
		"upper": {1, func(_ *frame, args []any) (any, error) {
			return strings.ToUpper(ToString(args[0])), nil
		}},
		"lower": {1, func(_ *frame, args []any) (any, error) {
			return strings.ToLower(ToString(args[0])), nil
		}},
		"str": {1, func(_ *frame, args []any) (any, error) {
			return ToString(args[0]), nil
		}},
		"num": {1, func(_ *frame, args []any) (any, error) {
			return toNumber(args[0])
		}},
		"contains": {2, func(_ *frame, args []any) (any, error) {
			return strings.Contains(ToString(args[0]), ToString(args[1])), nil
		}},
	}
}

// IsBuiltin reports whether name is a function every script can call.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}
