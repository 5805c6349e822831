package ast

// Inspect traverses the statements and expressions below n in depth-first
// order. If fn returns false the children of the current node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Template:
		for _, p := range n.Parts {
			Inspect(p, fn)
		}
	case *Unary:
		Inspect(n.X, fn)
	case *Binary:
		Inspect(n.Left, fn)
		Inspect(n.Right, fn)
	case *Call:
		for _, a := range n.Args {
			Inspect(a, fn)
		}
	case *Block:
		for _, s := range n.Stmts {
			Inspect(s, fn)
		}
	case *Assign:
		Inspect(n.Value, fn)
	case *If:
		Inspect(n.Cond, fn)
		if n.Then != nil {
			Inspect(n.Then, fn)
		}
		if n.Else != nil {
			Inspect(n.Else, fn)
		}
	case *Goto:
		Inspect(n.Target, fn)
	case *Choose:
		for _, c := range n.Choices {
			Inspect(c, fn)
		}
		if n.Cancel != nil {
			Inspect(n.Cancel, fn)
		}
	case *Choice:
		if n.Action != nil {
			Inspect(n.Action, fn)
		}
	}
}

// Literal returns a string literal expression.
func Literal(s string) Expr {
	return &StringLit{Value: s}
}

// StaticString reports the value of e when it is a plain string or number
// literal, so it can be resolved without evaluation.
func StaticString(e Expr) (string, bool) {
	switch e := e.(type) {
	case *StringLit:
		return e.Value, true
	case *NumberLit:
		return FormatNumber(e.Value), true
	}
	return "", false
}

// Gotos lists the distinct literal goto targets found in b, in source order.
func Gotos(b *Block) []string {
	if b == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	Inspect(b, func(n Node) bool {
		g, ok := n.(*Goto)
		if !ok {
			return true
		}
		if target, ok := StaticString(g.Target); ok && !seen[target] {
			seen[target] = true
			out = append(out, target)
		}
		return false
	})
	return out
}
