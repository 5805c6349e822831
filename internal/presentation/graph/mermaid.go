package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/storytree/pkg/story"
)

// Overlay contains the state of a reading to visualize on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// Mermaid produces a Mermaid flowchart of a story.
// Node shapes:
// - Initial node: ((Circle))
// - Ending (no option): ([Stadium])
// - Default: [Rectangle]
// Mermaid IDs are positional (n0, n1, ...); the story's node ID is only
// shown in the quoted label, so any text is safe as a node ID.
// Option labels annotate the edges; edges taken through goto are dotted.
func Mermaid(st *story.Story, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	initial, _ := st.InitialNodeID()
	ids := make(map[string]string, len(st.Nodes))
	for i, node := range st.Nodes {
		ids[node.ID] = fmt.Sprintf("n%d", i)
	}
	edges := make(map[string][]story.Edge)
	for _, e := range st.Edges() {
		edges[e.From] = append(edges[e.From], e)
	}

	for _, node := range st.Nodes {
		id := ids[node.ID]

		opener, closer := "[", "]"
		switch {
		case node.ID == initial:
			opener, closer = "((", "))"
		case len(node.Options) == 0:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escape(node.ID), closer)

		for _, e := range edges[node.ID] {
			to, ok := ids[e.To]
			if !ok {
				continue
			}
			jump := node.Options[e.Option].Target != e.To
			arrow := "-->"
			if jump {
				arrow = "-.->"
			}
			if e.Label != "" {
				arrow = fmt.Sprintf("-- \"%s\" -->", escape(e.Label))
				if jump {
					arrow = fmt.Sprintf("-. \"%s\" .->", escape(e.Label))
				}
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", id, arrow, to)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text stays readable on light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, nodeID := range overlay.VisitedNodes {
			id, ok := ids[nodeID]
			if ok && !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", id)
			}
		}
		if id, ok := ids[overlay.CurrentNode]; ok {
			fmt.Fprintf(&sb, "    class %s current;\n", id)
		}
	}

	return sb.String()
}

// escape keeps a label inside its quotes.
func escape(s string) string {
	return strings.NewReplacer("\"", "#quot;", "\n", " ", "\r", "").Replace(s)
}
