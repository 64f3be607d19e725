package enrich

import (
	"strings"

	"polygraph/pkg/graph"
)

// occupationAttrKeys are the node attributes whose values feed role
// inference alongside the label and description.
var occupationAttrKeys = []string{
	"government_roles", "occupation", "positions", "categories",
}

func roleText(node *graph.Node) string {
	parts := []string{node.Label, node.Description}
	parts = append(parts, node.Layers...)
	for _, key := range occupationAttrKeys {
		switch value := node.Attrs[key].(type) {
		case string:
			parts = append(parts, value)
		case []string:
			parts = append(parts, value...)
		case []any:
			for _, entry := range value {
				if s, ok := entry.(string); ok {
					parts = append(parts, s)
				}
			}
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// inferRoles matches a node's concatenated text against the taxonomy. The
// first matching role in taxonomy order is primary, further matches are
// secondary, and "other" is the default.
func inferRoles(node *graph.Node, taxonomy *Taxonomy) (string, []string) {
	text := roleText(node)

	var matches []string
	for _, role := range taxonomy.RoleOrder {
		for _, keyword := range taxonomy.Roles[role] {
			if strings.Contains(text, strings.ToLower(keyword)) {
				matches = append(matches, role)
				break
			}
		}
	}

	if len(matches) == 0 {
		return "other", nil
	}
	return matches[0], graph.UnionSet(nil, matches[1:]...)
}
