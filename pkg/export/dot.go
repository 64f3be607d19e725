package export

import (
	"fmt"
	"os"
	"strings"

	"polygraph/pkg/graph"
)

func dotEscape(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}

func writeDOT(path string, g *graph.Graph) error {
	var b strings.Builder
	b.WriteString("digraph polygraph {\n")
	for _, node := range g.Nodes() {
		fmt.Fprintf(&b, "  %q [label=\"%s\"];\n", node.ID, dotEscape(node.Label))
	}
	for _, edge := range g.Edges() {
		relation := edge.Relation
		if relation == "" {
			relation = "related_to"
		}
		fmt.Fprintf(&b, "  %q -> %q [label=\"%s\"];\n", edge.Source, edge.Target, dotEscape(relation))
	}
	b.WriteString("}\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write dot: %w", err)
	}
	return nil
}
