package enrich

import (
	"strings"

	"polygraph/pkg/graph"
)

// classifyEdge fills in the edge's semantic type, layer, and weight, each
// only when not already explicitly set. Type resolves by predicate id first,
// then by relation-name substring, else "unknown"; layer by type, else
// "other"; weight from the type table scaled by an attached confidence
// clamped into [1, 5].
func classifyEdge(edge *graph.Edge, taxonomy *Taxonomy) {
	if edge.Type == "" {
		edge.Type = edgeType(edge, taxonomy)
	}
	if edge.Layer == "" {
		layer, ok := taxonomy.TypeLayers[edge.Type]
		if !ok {
			layer = "other"
		}
		edge.Layer = layer
	}
	if edge.Weight == 0 {
		edge.Weight = edgeWeight(edge, taxonomy)
	}
}

func edgeType(edge *graph.Edge, taxonomy *Taxonomy) string {
	if t, ok := taxonomy.EdgeTypes[edge.PredicateID]; ok {
		return t
	}
	relation := strings.ToLower(edge.Relation)
	for _, hint := range taxonomy.RelationHints {
		if strings.Contains(relation, hint.Substring) {
			return hint.Type
		}
	}
	return "unknown"
}

func edgeWeight(edge *graph.Edge, taxonomy *Taxonomy) float64 {
	base, ok := taxonomy.TypeWeights[edge.Type]
	if !ok {
		base = 1
	}

	confidence := 5.0
	switch value := edge.Attrs["confidence"].(type) {
	case float64:
		confidence = value
	case int:
		confidence = float64(value)
	}
	if confidence < 1 {
		confidence = 1
	}
	if confidence > 5 {
		confidence = 5
	}
	return base * confidence / 5
}
