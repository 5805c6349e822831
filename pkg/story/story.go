package story

import (
	"fmt"

	"github.com/aretw0/storytree/pkg/dsl/ast"
)

// Story is a branching narrative: a set of nodes connected by options.
//
// A Story returned by an evaluation is fully materialized: every node is
// declared, every static option target and literal goto target names an
// existing node, and Start (when set) resolves. Runtime behaviour such as
// bodies, conditions and actions is kept as compiled syntax trees and
// evaluated by the player against a session.
type Story struct {
	ID     string
	Title  string
	Author string

	// Start is the explicit initial node ID. Empty means "use the default".
	Start string

	// Nodes keeps declaration order.
	Nodes []*Node

	// Vars holds the initial value of every story variable.
	Vars map[string]any

	index map[string]*Node
}

// Node is a narrative beat.
type Node struct {
	ID string

	// Body is the Markdown text shown when the node is reached.
	// It is re-evaluated on every render.
	Body ast.Expr

	// Bindings are applied to the rendered body in declaration order.
	Bindings []Binding

	// OnReach runs every time the node is entered. May be nil.
	OnReach *ast.Block

	Options []*Option

	Pos ast.Pos
}

// Binding replaces every occurrence of Key by the value of Value.
type Binding struct {
	Key   string
	Value ast.Expr
}

// Option is a choice offered to the reader.
type Option struct {
	Text ast.Expr

	// Available greys the option out when false. Nil means always available.
	Available ast.Expr

	// Visible hides the option when false. Nil means "same as Available".
	Visible ast.Expr

	// Target is the static destination. Empty means stay on the node unless
	// the action jumps elsewhere.
	Target string

	// Action runs when the option is selected. May be nil.
	Action *ast.Block

	// Gotos lists the literal goto targets found in Action.
	Gotos []string

	Pos ast.Pos
}

// Edge is a directed link between two nodes created by an option.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Option int    `json:"option"`
	Label  string `json:"label,omitempty"`
}

// New creates an empty story.
func New(id string) *Story {
	return &Story{
		ID:    id,
		Vars:  make(map[string]any),
		index: make(map[string]*Node),
	}
}

// AddNode appends a node. It fails when the ID is already taken.
func (s *Story) AddNode(n *Node) error {
	if n.ID == "" {
		return ErrEmptyNodeID
	}
	if s.index == nil {
		s.reindex()
	}
	if _, exists := s.index[n.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
	}
	s.Nodes = append(s.Nodes, n)
	s.index[n.ID] = n
	return nil
}

// Node looks a node up by ID.
func (s *Story) Node(id string) (*Node, bool) {
	if s.index == nil {
		s.reindex()
	}
	n, ok := s.index[id]
	return n, ok
}

// InitialNodeID resolves the node a new reading starts from: Start when set,
// otherwise node "1" when it exists, otherwise the first declared node.
func (s *Story) InitialNodeID() (string, error) {
	if s.Start != "" {
		if _, ok := s.Node(s.Start); !ok {
			return "", fmt.Errorf("%w: initial node %q", ErrUnknownNode, s.Start)
		}
		return s.Start, nil
	}
	if _, ok := s.Node("1"); ok {
		return "1", nil
	}
	if len(s.Nodes) == 0 {
		return "", ErrNoInitialNode
	}
	return s.Nodes[0].ID, nil
}

// InitialNode returns the node resolved by InitialNodeID.
func (s *Story) InitialNode() (*Node, error) {
	id, err := s.InitialNodeID()
	if err != nil {
		return nil, err
	}
	n, _ := s.Node(id)
	return n, nil
}

// Edges lists every static edge of the story in declaration order.
func (s *Story) Edges() []Edge {
	var edges []Edge
	for _, n := range s.Nodes {
		for i, o := range n.Options {
			label, _ := ast.StaticString(o.Text)
			if o.Target != "" {
				edges = append(edges, Edge{From: n.ID, To: o.Target, Option: i, Label: label})
			}
			for _, g := range o.Gotos {
				if g == o.Target {
					continue
				}
				edges = append(edges, Edge{From: n.ID, To: g, Option: i, Label: label})
			}
		}
	}
	return edges
}

// Validate checks the structural invariants of a materialized story.
func (s *Story) Validate() error {
	s.reindex()
	seen := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node at line %d", ErrEmptyNodeID, n.Pos.Line)
		}
		if seen[n.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
		}
		seen[n.ID] = true
	}
	for _, e := range s.Edges() {
		if !seen[e.To] {
			return fmt.Errorf("%w: node %q option %d points to %q", ErrUnknownNode, e.From, e.Option+1, e.To)
		}
	}
	if s.Start != "" && !seen[s.Start] {
		return fmt.Errorf("%w: initial node %q", ErrUnknownNode, s.Start)
	}
	return nil
}

func (s *Story) reindex() {
	s.index = make(map[string]*Node, len(s.Nodes))
	for _, n := range s.Nodes {
		if _, exists := s.index[n.ID]; !exists {
			s.index[n.ID] = n
		}
	}
}
