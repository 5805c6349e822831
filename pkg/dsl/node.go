package dsl

import (
	"fmt"

	"github.com/aretw0/storytree/pkg/dsl/ast"
	"github.com/aretw0/storytree/pkg/story"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    *story.Node
	options []*OptionBuilder
	story   *StoryBuilder
}

// Text sets the Markdown body of the node. {{ expr }} holes are evaluated on render.
func (n *NodeBuilder) Text(body string) *NodeBuilder {
	e, err := ParseTemplate(body, ast.Pos{})
	if err != nil {
		n.fail("body", err)
		return n
	}
	n.node.Body = e
	return n
}

// Bind replaces key with value in the rendered body.
func (n *NodeBuilder) Bind(key, value string) *NodeBuilder {
	v, err := ParseTemplate(value, ast.Pos{})
	if err != nil {
		n.fail("bind", err)
		return n
	}
	n.node.Bindings = append(n.node.Bindings, story.Binding{Key: key, Value: v})
	return n
}

// OnReach sets the statements run each time the node is entered.
func (n *NodeBuilder) OnReach(stmts string) *NodeBuilder {
	b, err := ParseBlock(stmts)
	if err != nil {
		n.fail("on reach", err)
		return n
	}
	n.node.OnReach = b
	return n
}

// Option adds an option to the node.
func (n *NodeBuilder) Option(text string) *OptionBuilder {
	e, err := ParseTemplate(text, ast.Pos{})
	if err != nil {
		n.fail("option text", err)
		e = ast.Literal(text)
	}
	ob := &OptionBuilder{option: &story.Option{Text: e}, node: n}
	n.options = append(n.options, ob)
	return ob
}

// Node switches to another node of the same story.
func (n *NodeBuilder) Node(id string) *NodeBuilder {
	return n.story.Node(id)
}

func (n *NodeBuilder) fail(what string, err error) {
	n.story.builder.fail(fmt.Errorf("node %q %s: %w", n.node.ID, what, err))
}

// OptionBuilder configures one option.
type OptionBuilder struct {
	option *story.Option
	node   *NodeBuilder
}

// To sets the static target node.
func (o *OptionBuilder) To(target string) *OptionBuilder {
	o.option.Target = target
	return o
}

// If makes the option available only when cond holds.
func (o *OptionBuilder) If(cond string) *OptionBuilder {
	e, err := ParseExpr(cond)
	if err != nil {
		o.node.fail("option condition", err)
		return o
	}
	o.option.Available = e
	return o
}

// Visible shows the option only when cond holds.
func (o *OptionBuilder) Visible(cond string) *OptionBuilder {
	e, err := ParseExpr(cond)
	if err != nil {
		o.node.fail("option visibility", err)
		return o
	}
	o.option.Visible = e
	return o
}

// Do sets the statements run when the option is selected. They may use goto.
func (o *OptionBuilder) Do(stmts string) *OptionBuilder {
	b, err := ParseBlock(stmts)
	if err != nil {
		o.node.fail("option action", err)
		return o
	}
	o.option.Action = b
	o.option.Gotos = ast.Gotos(b)
	return o
}

// Option adds a sibling option to the same node.
func (o *OptionBuilder) Option(text string) *OptionBuilder {
	return o.node.Option(text)
}

// Node switches to another node of the same story.
func (o *OptionBuilder) Node(id string) *NodeBuilder {
	return o.node.story.Node(id)
}
