package enrich

import (
	"polygraph/pkg/graph"
	"polygraph/pkg/logger"
)

// Importance score weights. These are fixed constants; changing them breaks
// reproducibility of scores across runs.
const (
	weightDegree      = 0.45
	weightBetweenness = 0.35
	weightRole        = 0.10
	weightAnchor      = 0.10
)

// Engine runs the enrichment passes over a graph snapshot. Every run
// recomputes all signals; there is no incremental path.
//
// An Engine should be created using NewEngine.
type Engine struct {
	taxonomy *Taxonomy
}

// NewEngineParams defines the configuration for creating an Engine. A nil
// Taxonomy selects the defaults.
type NewEngineParams struct {
	Taxonomy *Taxonomy
}

// NewEngine creates an Engine with the provided parameters.
func NewEngine(params NewEngineParams) (*Engine, error) {
	taxonomy := params.Taxonomy
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	if err := taxonomy.validate(); err != nil {
		return nil, err
	}
	return &Engine{taxonomy: taxonomy}, nil
}

// Enrich computes metrics, roles, importance scores, and edge classification
// for every node and edge of the graph, mutating the snapshot in place. It
// is idempotent for a given snapshot.
func (e *Engine) Enrich(g *graph.Graph) error {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return &ConfigurationError{Reason: "cannot enrich an empty graph"}
	}

	// Roles first: the anchor set for distance computation derives from
	// primary roles.
	anchorRoles := make(map[string]bool, len(e.taxonomy.AnchorRoles))
	for _, role := range e.taxonomy.AnchorRoles {
		anchorRoles[role] = true
	}
	var anchors []int
	for i, node := range nodes {
		primary, secondary := inferRoles(node, e.taxonomy)
		node.PrimaryRole = primary
		node.SecondaryRoles = secondary
		if anchorRoles[primary] {
			anchors = append(anchors, i)
		}
	}

	adj := buildAdjacency(g)
	betweennessScores := betweenness(adj)
	cores := coreNumbers(adj)
	communityIDs := communities(adj)
	distances := anchorDistances(adj, anchors)

	n := len(nodes)
	maxDegree, maxBetweenness, maxDistance := 0.0, 0.0, 0.0
	for i := range nodes {
		if d := float64(adj.degree[i]); d > maxDegree {
			maxDegree = d
		}
		if betweennessScores[i] > maxBetweenness {
			maxBetweenness = betweennessScores[i]
		}
		if distances[i] > maxDistance {
			maxDistance = distances[i]
		}
	}

	for i, node := range nodes {
		degree := adj.degree[i]
		degreeNorm := 0.0
		if n > 1 {
			degreeNorm = float64(degree) / float64(n-1)
		}

		scaledDegree := maxScale(float64(degree), maxDegree)
		scaledBetweenness := maxScale(betweennessScores[i], maxBetweenness)
		scaledDistance := maxScale(distances[i], maxDistance)
		roleIndicator := 0.0
		if node.PrimaryRole != "other" {
			roleIndicator = 1.0
		}

		node.Metrics = &graph.Metrics{
			Degree:         degree,
			DegreeNorm:     degreeNorm,
			Betweenness:    betweennessScores[i],
			CoreNumber:     cores[i],
			Community:      communityIDs[i],
			AnchorDistance: distances[i],
			Importance: weightDegree*scaledDegree +
				weightBetweenness*scaledBetweenness +
				weightRole*roleIndicator +
				weightAnchor*(1-scaledDistance),
		}
	}

	for _, edge := range g.Edges() {
		classifyEdge(edge, e.taxonomy)
	}

	logger.Info("[Enrich] Snapshot enriched",
		"nodes", n, "edges", g.EdgeCount(), "anchors", len(anchors))
	return nil
}

func maxScale(value float64, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return value / max
}
