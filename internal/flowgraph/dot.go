package flowgraph

import (
	"fmt"
	"strings"
)

// DOT serializes the graph as Graphviz DOT with left-to-right rank
// direction and record-shaped nodes, the form the rendering collaborator
// consumes. Labels are cleaned of characters that Graphviz record syntax
// treats specially.
func (g *Graph) DOT() string {
	var sb strings.Builder
	sb.WriteString("digraph flows {\n")
	sb.WriteString("\trankdir=LR;\n")
	sb.WriteString("\tfontname=\"Helvetica,Arial,sans-serif\";\n")
	sb.WriteString("\tnode [fontname=\"Helvetica,Arial,sans-serif\", fontsize=11, shape=record];\n")
	sb.WriteString("\tedge [fontname=\"Helvetica,Arial,sans-serif\"];\n")
	fmt.Fprintf(&sb, "\tlabel=\"GATEWAY : %s\";\n\tlabelloc=t;\n\tfontsize=14;\n", cleanLabel(g.Section()))

	for _, n := range g.Nodes {
		attrs := []string{fmt.Sprintf("label=\"%s\"", cleanLabel(n.Label))}
		if n.Fill != "" {
			attrs = append(attrs, "style=filled", fmt.Sprintf("fillcolor=\"%s\"", n.Fill))
		}
		if n.Marker {
			attrs = append(attrs, "peripheries=2")
		}
		fmt.Fprintf(&sb, "\t%s [%s];\n", n.ID, strings.Join(attrs, ", "))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "\t%s -> %s;\n", e.From, e.To)
	}
	sb.WriteString("}\n")
	return sb.String()
}

// cleanLabel strips characters with special meaning in record labels and
// quoted DOT strings.
func cleanLabel(label string) string {
	replacer := strings.NewReplacer(
		"<", "", ">", "", "{", "", "}", "", "\"", "'", "\\", "/", "\n", " ",
	)
	return replacer.Replace(label)
}
