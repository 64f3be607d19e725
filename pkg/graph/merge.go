package graph

import "fmt"

type edgeKey struct {
	source      string
	target      string
	relation    string
	predicateID string
}

// Merge folds other into g. Node attributes merge with the upsert rule of
// SetNode plus grow-only set union for layers, clusters and aliases; edges
// deduplicate on (source, target, relation, predicate). Used when resuming a
// crawl from a stored snapshot.
func (g *Graph) Merge(other *Graph) error {
	if other == nil {
		return nil
	}

	for _, node := range other.Nodes() {
		merged := g.SetNode(node.ID, node.Label, node.Description)
		merged.Layers = UnionSet(merged.Layers, node.Layers...)
		merged.Clusters = UnionSet(merged.Clusters, node.Clusters...)
		merged.Aliases = UnionSet(merged.Aliases, node.Aliases...)
		if merged.PrimaryRole == "" {
			merged.PrimaryRole = node.PrimaryRole
		}
		merged.SecondaryRoles = UnionSet(merged.SecondaryRoles, node.SecondaryRoles...)
		if merged.Level == nil && node.Level != nil {
			level := *node.Level
			merged.Level = &level
		}
		for key, value := range node.Attrs {
			if _, ok := merged.Attrs[key]; !ok {
				merged.Attrs[key] = value
			}
		}
	}

	seen := make(map[edgeKey]bool, g.EdgeCount())
	for _, edge := range g.Edges() {
		seen[keyOf(edge)] = true
	}

	for _, edge := range other.Edges() {
		key := keyOf(edge)
		if seen[key] {
			continue
		}
		if err := g.AddEdge(edge); err != nil {
			return fmt.Errorf("failed to merge edge %s -> %s: %w", edge.Source, edge.Target, err)
		}
		seen[key] = true
	}
	return nil
}

func keyOf(e *Edge) edgeKey {
	return edgeKey{
		source:      e.Source,
		target:      e.Target,
		relation:    e.Relation,
		predicateID: e.PredicateID,
	}
}
