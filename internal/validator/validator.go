// Package validator analyses the shape of a materialized story: broken
// links, nodes the reader can never reach and nodes the reader can never
// leave.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/storytree/pkg/dsl/ast"
	"github.com/aretw0/storytree/pkg/story"
)

// Issue is a single finding.
type Issue struct {
	Severity story.Severity `json:"severity"`
	NodeID   string         `json:"node_id,omitempty"`
	Message  string         `json:"message"`
	Pos      ast.Pos        `json:"-"`
}

func (i Issue) String() string {
	if i.Pos.Line > 0 {
		return fmt.Sprintf("%s %d:%d: %s", i.Severity, i.Pos.Line, i.Pos.Col, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

// Report collects the issues found in one story.
type Report struct {
	StoryID string  `json:"story_id"`
	Initial string  `json:"initial,omitempty"`
	Issues  []Issue `json:"issues"`
}

func (r *Report) add(sev story.Severity, node string, pos ast.Pos, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity: sev,
		NodeID:   node,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

func (r *Report) count(sev story.Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == sev {
			n++
		}
	}
	return n
}

// Errors counts the error issues.
func (r *Report) Errors() int { return r.count(story.SeverityError) }

// Warnings counts the warning issues.
func (r *Report) Warnings() int { return r.count(story.SeverityWarning) }

// Err summarizes the report as an error. Warnings only count when strict is set.
func (r *Report) Err(strict bool) error {
	var lines []string
	for _, i := range r.Issues {
		if i.Severity == story.SeverityError || strict {
			lines = append(lines, i.String())
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return fmt.Errorf("story %q: found %d errors:\n- %s", r.StoryID, len(lines), strings.Join(lines, "\n- "))
}

// Validate crawls the story from its initial node.
func Validate(st *story.Story) *Report {
	r := &Report{StoryID: st.ID}

	start, err := st.InitialNodeID()
	if err != nil {
		r.add(story.SeverityError, "", ast.Pos{}, "%v", err)
		return r
	}
	r.Initial = start

	out := make(map[string][]story.Edge)
	for _, e := range st.Edges() {
		if _, ok := st.Node(e.To); !ok {
			n, _ := st.Node(e.From)
			r.add(story.SeverityError, e.From, n.Options[e.Option].Pos,
				"option %d of node %q leads to unknown node %q", e.Option+1, e.From, e.To)
			continue
		}
		out[e.From] = append(out[e.From], e)
	}

	visited := map[string]bool{}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, e := range out[current] {
			if !visited[e.To] {
				queue = append(queue, e.To)
			}
		}
	}

	for _, n := range st.Nodes {
		if !visited[n.ID] {
			r.add(story.SeverityWarning, n.ID, n.Pos, "node %q is unreachable from %q", n.ID, start)
			continue
		}
		if stuck(n, len(out[n.ID])) {
			r.add(story.SeverityWarning, n.ID, n.Pos, "node %q is a dead end: no option leaves it", n.ID)
		}
	}
	return r
}

// stuck reports a node that offers options but none of them can move the
// reader elsewhere or close the story. Nodes without options are endings.
func stuck(n *story.Node, edges int) bool {
	if len(n.Options) == 0 || edges > 0 {
		return false
	}
	for _, o := range n.Options {
		if o.Action == nil {
			continue
		}
		escapes := false
		ast.Inspect(o.Action, func(node ast.Node) bool {
			switch node.(type) {
			case *ast.Goto, *ast.Close:
				escapes = true
			}
			return !escapes
		})
		if escapes {
			return false
		}
	}
	return true
}
