package graph

import (
	"context"
	"fmt"

	"polygraph/pkg/logger"
)

// Label is the display data a relation source returns for an entity id.
type Label struct {
	Label       string
	Description string
}

// IncludeFlags selects which relation categories a crawl fetches.
type IncludeFlags struct {
	Family    bool
	Political bool
	Security  bool
	Corporate bool
}

// Any reports whether at least one category is enabled.
func (f IncludeFlags) Any() bool {
	return f.Family || f.Political || f.Security || f.Corporate
}

// RelationSource supplies relation edges and display labels for entity ids.
// Implementations live in pkg/source.
type RelationSource interface {
	FetchRelations(ctx context.Context, ids []string, include IncludeFlags) ([]*Edge, error)
	FetchLabels(ctx context.Context, ids []string) (map[string]Label, error)
}

// FallbackEdge is a single low-confidence relation extracted by the
// secondary relation source, keyed by display value rather than entity id.
type FallbackEdge struct {
	Value        string
	SourceSystem string
	EvidenceURL  string
	RetrievedAt  string
}

// FallbackSource is the secondary, lower-confidence relation source consulted
// when the primary source has no edges for an id and family relations are
// enabled.
type FallbackSource interface {
	ExtractEdges(ctx context.Context, displayName string) (map[string]FallbackEdge, error)
}

// Tagger annotates graph nodes with reconciled official-record data.
// The officials.Index implements it.
type Tagger interface {
	AssociateID(id string, label string)
	Annotate(node *Node, label string)
}

// Crawler grows a graph outward from seed ids via bounded breadth-first
// expansion. It is strictly sequential: one relation fetch per dequeued id,
// cooperating with the shared client-side rate limit.
//
// A Crawler should be created using NewCrawler.
type Crawler struct {
	relations RelationSource
	fallback  FallbackSource
	tagger    Tagger
	include   IncludeFlags
	maxDepth  int
	maxNodes  int
	maxEdges  int
}

// NewCrawlerParams defines the configuration for creating a Crawler.
//
// Fallback and Tagger are optional. MaxNodes and MaxEdges of zero mean
// unbounded growth; MaxEdges is checked while inserting edges one at a time,
// so the final count may exceed it by at most one id's fetched batch.
type NewCrawlerParams struct {
	Relations RelationSource
	Fallback  FallbackSource
	Tagger    Tagger
	Include   IncludeFlags
	MaxDepth  int
	MaxNodes  int
	MaxEdges  int
}

// NewCrawler creates a Crawler configured with the provided parameters.
func NewCrawler(params NewCrawlerParams) (*Crawler, error) {
	if params.Relations == nil {
		return nil, &ConfigurationError{Reason: "a relation source is required"}
	}
	if !params.Include.Any() {
		return nil, &ConfigurationError{Reason: "at least one relation category must be enabled"}
	}
	if params.MaxDepth < 0 {
		return nil, &ConfigurationError{Reason: "max depth must not be negative"}
	}

	return &Crawler{
		relations: params.Relations,
		fallback:  params.Fallback,
		tagger:    params.Tagger,
		include:   params.Include,
		maxDepth:  params.MaxDepth,
		maxNodes:  params.MaxNodes,
		maxEdges:  params.MaxEdges,
	}, nil
}

// Result is the return value of Crawl: the grown graph plus run diagnostics.
type Result struct {
	Graph *Graph
	Stats *Stats
}

type queueEntry struct {
	id    string
	depth int
}

func (c *Crawler) withinCaps(g *Graph) bool {
	if c.maxNodes > 0 && g.NodeCount() >= c.maxNodes {
		return false
	}
	if c.maxEdges > 0 && g.EdgeCount() >= c.maxEdges {
		return false
	}
	return true
}

// Crawl expands the seed ids breadth-first up to the configured depth and
// growth caps. Seeds must already be canonical ids. Failures from the primary
// relation source abort the crawl; failures from the fallback source are
// downgraded to warnings in the stats. When family relations are enabled the
// family hierarchy annotation runs as the final step.
func (c *Crawler) Crawl(ctx context.Context, seeds []string) (*Result, error) {
	if len(seeds) == 0 {
		return nil, &ConfigurationError{Reason: "at least one seed id is required"}
	}

	g := New()
	stats := newStats(seeds)
	visited := make(map[string]bool)

	queue := make([]queueEntry, 0, len(seeds))
	for _, id := range seeds {
		queue = append(queue, queueEntry{id: id, depth: 0})
	}

	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		if visited[entry.id] {
			continue
		}
		visited[entry.id] = true

		// Nodes enqueued one level past the limit are consumed without
		// contributing edges or labels.
		if entry.depth > c.maxDepth {
			continue
		}
		if !c.withinCaps(g) {
			break
		}

		logger.Debug("[Crawl] Expanding", "id", entry.id, "depth", entry.depth)
		stats.ExpandedNodes++
		stats.DepthHistogram[entry.depth]++

		edges, err := c.relations.FetchRelations(ctx, []string{entry.id}, c.include)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch relations for %s: %w", entry.id, err)
		}

		involved := map[string]bool{entry.id: true}
		for _, edge := range edges {
			involved[edge.Source] = true
			involved[edge.Target] = true
		}
		involvedIDs := make([]string, 0, len(involved))
		for id := range involved {
			involvedIDs = append(involvedIDs, id)
		}

		labels, err := c.relations.FetchLabels(ctx, involvedIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch labels for %s: %w", entry.id, err)
		}

		for _, id := range involvedIDs {
			data := labels[id]
			node := g.SetNode(id, data.Label, data.Description)
			if c.tagger != nil {
				c.tagger.AssociateID(id, node.Label)
				c.tagger.Annotate(node, node.Label)
			}
		}

		for _, edge := range edges {
			stats.RelationCounts[edge.Relation]++
			if err := g.AddEdge(edge); err != nil {
				return nil, err
			}
			if c.maxEdges > 0 && g.EdgeCount() >= c.maxEdges {
				break
			}
		}

		if c.include.Family && len(edges) == 0 && c.fallback != nil {
			c.crawlFallback(ctx, g, stats, entry.id)
		}

		if entry.depth < c.maxDepth {
			for _, edge := range edges {
				if !visited[edge.Target] && c.withinCaps(g) {
					queue = append(queue, queueEntry{id: edge.Target, depth: entry.depth + 1})
				}
			}
		}
	}

	if c.include.Family {
		AnnotateFamilyHierarchy(g)
	}

	stats.TotalNodes = g.NodeCount()
	stats.TotalEdges = g.EdgeCount()
	return &Result{Graph: g, Stats: stats}, nil
}

// crawlFallback consults the secondary relation source for an id that had no
// primary edges. Results become synthetic placeholder nodes and edges with
// fallback provenance; failures are recorded as warnings, never propagated.
func (c *Crawler) crawlFallback(ctx context.Context, g *Graph, stats *Stats, id string) {
	node, ok := g.Node(id)
	if !ok {
		return
	}

	extracted, err := c.fallback.ExtractEdges(ctx, node.Label)
	if err != nil {
		warning := fmt.Sprintf("fallback extraction failed for %s: %v", id, err)
		logger.Debug("[Crawl] " + warning)
		stats.Warnings = append(stats.Warnings, warning)
		return
	}

	for relation, payload := range extracted {
		placeholderID := truncateID(fmt.Sprintf("%s:%s:%s", id, relation, payload.Value))
		g.SetNode(placeholderID, payload.Value, "fallback placeholder")

		err := g.AddEdge(&Edge{
			Source:       id,
			Target:       placeholderID,
			Relation:     relation,
			PredicateID:  relation,
			SourceSystem: payload.SourceSystem,
			EvidenceURL:  payload.EvidenceURL,
			RetrievedAt:  payload.RetrievedAt,
			Attrs:        map[string]any{"note": "fallback"},
		})
		if err != nil {
			warning := fmt.Sprintf("fallback edge rejected for %s: %v", id, err)
			stats.Warnings = append(stats.Warnings, warning)
			continue
		}
		stats.RelationCounts[relation]++
		stats.FallbackEdges++
	}
}

const maxPlaceholderIDLen = 64

func truncateID(id string) string {
	if len(id) <= maxPlaceholderIDLen {
		return id
	}
	return id[:maxPlaceholderIDLen]
}
