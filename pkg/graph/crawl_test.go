package graph

import (
	"context"
	"errors"
	"testing"
)

// stubSource serves canned relations keyed by subject id and records which
// ids were expanded.
type stubSource struct {
	relations map[string][]*Edge
	labels    map[string]Label
	expanded  []string
}

func (s *stubSource) FetchRelations(_ context.Context, ids []string, _ IncludeFlags) ([]*Edge, error) {
	var edges []*Edge
	for _, id := range ids {
		s.expanded = append(s.expanded, id)
		for _, e := range s.relations[id] {
			copied := *e
			edges = append(edges, &copied)
		}
	}
	return edges, nil
}

func (s *stubSource) FetchLabels(_ context.Context, ids []string) (map[string]Label, error) {
	labels := make(map[string]Label, len(ids))
	for _, id := range ids {
		labels[id] = s.labels[id]
	}
	return labels, nil
}

type stubFallback struct {
	edges map[string]FallbackEdge
	err   error
	calls int
}

func (s *stubFallback) ExtractEdges(_ context.Context, _ string) (map[string]FallbackEdge, error) {
	s.calls++
	return s.edges, s.err
}

func familySource() *stubSource {
	return &stubSource{
		relations: map[string][]*Edge{
			"Q1": {
				{Source: "Q1", Target: "Q2", Relation: "father", PredicateID: "P22"},
			},
			"Q2": {
				{Source: "Q2", Target: "Q3", Relation: "spouse", PredicateID: "P26"},
			},
			"Q3": {
				{Source: "Q3", Target: "Q2", Relation: "spouse", PredicateID: "P26"},
			},
		},
		labels: map[string]Label{
			"Q1": {Label: "Alice"},
			"Q2": {Label: "Bob"},
			"Q3": {Label: "Carol"},
		},
	}
}

func TestCrawlRequiresSeeds(t *testing.T) {
	crawler, err := NewCrawler(NewCrawlerParams{
		Relations: familySource(),
		Include:   IncludeFlags{Family: true},
		MaxDepth:  1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = crawler.Crawl(context.Background(), nil)
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected a ConfigurationError, got %v", err)
	}
}

func TestNewCrawlerValidation(t *testing.T) {
	tests := []struct {
		name   string
		params NewCrawlerParams
	}{
		{"no source", NewCrawlerParams{Include: IncludeFlags{Family: true}}},
		{"no categories", NewCrawlerParams{Relations: familySource()}},
		{"negative depth", NewCrawlerParams{Relations: familySource(), Include: IncludeFlags{Family: true}, MaxDepth: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCrawler(tt.params)
			var confErr *ConfigurationError
			if !errors.As(err, &confErr) {
				t.Fatalf("expected a ConfigurationError, got %v", err)
			}
		})
	}
}

func TestCrawlDepthZeroExpandsOnlySeeds(t *testing.T) {
	source := familySource()
	crawler, err := NewCrawler(NewCrawlerParams{
		Relations: source,
		Include:   IncludeFlags{Family: true},
		MaxDepth:  0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := crawler.Crawl(context.Background(), []string{"Q1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(source.expanded) != 1 || source.expanded[0] != "Q1" {
		t.Fatalf("expected only the seed to be expanded, got %v", source.expanded)
	}
	// The frontier node is kept as a labeled leaf, but its own relations
	// are never fetched.
	if !result.Graph.HasNode("Q2") {
		t.Fatalf("expected the edge target to exist as a leaf node")
	}
	if result.Graph.HasNode("Q3") {
		t.Fatalf("expected no second hop at depth zero")
	}
	if result.Stats.ExpandedNodes != 1 {
		t.Fatalf("expected 1 expanded node, got %d", result.Stats.ExpandedNodes)
	}
}

func TestCrawlFullDepth(t *testing.T) {
	source := familySource()
	crawler, err := NewCrawler(NewCrawlerParams{
		Relations: source,
		Include:   IncludeFlags{Family: true},
		MaxDepth:  2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := crawler.Crawl(context.Background(), []string{"Q1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Graph.NodeCount() != 3 {
		t.Fatalf("expected 3 nodes, got %d", result.Graph.NodeCount())
	}
	if result.Stats.RelationCounts["father"] != 1 {
		t.Fatalf("expected one father relation, got %d", result.Stats.RelationCounts["father"])
	}
	// Q2 was visited at depth 1, so the reverse spouse edge from Q3 does
	// not re-expand it.
	if result.Stats.ExpandedNodes != 3 {
		t.Fatalf("expected 3 expanded nodes, got %d", result.Stats.ExpandedNodes)
	}

	node, _ := result.Graph.Node("Q2")
	if node.Label != "Bob" {
		t.Fatalf("expected label from the source, got %q", node.Label)
	}
}

func TestCrawlMaxNodesHaltsConsistently(t *testing.T) {
	crawler, err := NewCrawler(NewCrawlerParams{
		Relations: familySource(),
		Include:   IncludeFlags{Family: true},
		MaxDepth:  5,
		MaxNodes:  1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := crawler.Crawl(context.Background(), []string{"Q1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One expansion may finish after the cap is reached, so the count can
	// overshoot by that expansion's batch, never by more.
	if result.Graph.NodeCount() > 2 {
		t.Fatalf("expected at most 2 nodes, got %d", result.Graph.NodeCount())
	}
	for _, edge := range result.Graph.Edges() {
		if !result.Graph.HasNode(edge.Source) || !result.Graph.HasNode(edge.Target) {
			t.Fatalf("edge %s -> %s references a missing node", edge.Source, edge.Target)
		}
	}
}

func TestCrawlFallbackOnEmptyRelations(t *testing.T) {
	source := &stubSource{
		relations: map[string][]*Edge{},
		labels:    map[string]Label{"Q9": {Label: "Dana"}},
	}
	fallback := &stubFallback{
		edges: map[string]FallbackEdge{
			"father": {Value: "Edward Sr.", SourceSystem: "wikipedia_infobox", EvidenceURL: "https://en.wikipedia.org/wiki/Dana"},
		},
	}

	crawler, err := NewCrawler(NewCrawlerParams{
		Relations: source,
		Fallback:  fallback,
		Include:   IncludeFlags{Family: true},
		MaxDepth:  1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := crawler.Crawl(context.Background(), []string{"Q9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fallback.calls != 1 {
		t.Fatalf("expected one fallback call, got %d", fallback.calls)
	}
	if result.Stats.FallbackEdges != 1 {
		t.Fatalf("expected one fallback edge, got %d", result.Stats.FallbackEdges)
	}
	if result.Graph.EdgeCount() != 1 {
		t.Fatalf("expected one edge, got %d", result.Graph.EdgeCount())
	}

	edge := result.Graph.Edges()[0]
	if edge.SourceSystem != "wikipedia_infobox" {
		t.Fatalf("expected fallback provenance, got %q", edge.SourceSystem)
	}
	placeholder, ok := result.Graph.Node(edge.Target)
	if !ok {
		t.Fatalf("expected a placeholder node for the fallback target")
	}
	if placeholder.Label != "Edward Sr." {
		t.Fatalf("expected placeholder label from the extracted value, got %q", placeholder.Label)
	}
}

func TestCrawlFallbackFailureIsWarning(t *testing.T) {
	source := &stubSource{
		relations: map[string][]*Edge{},
		labels:    map[string]Label{"Q9": {Label: "Dana"}},
	}
	fallback := &stubFallback{err: errors.New("page not found")}

	crawler, err := NewCrawler(NewCrawlerParams{
		Relations: source,
		Fallback:  fallback,
		Include:   IncludeFlags{Family: true},
		MaxDepth:  1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := crawler.Crawl(context.Background(), []string{"Q9"})
	if err != nil {
		t.Fatalf("expected the fallback failure to be swallowed, got %v", err)
	}
	if len(result.Stats.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", result.Stats.Warnings)
	}
}
