package graph

import (
	"reflect"
	"testing"
)

func buildFamilyGraph(t *testing.T, edges []*Edge) *Graph {
	t.Helper()
	g := New()
	for _, e := range edges {
		g.SetNode(e.Source, "", "")
		g.SetNode(e.Target, "", "")
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	return g
}

func levelOf(t *testing.T, g *Graph, id string) int {
	t.Helper()
	node, ok := g.Node(id)
	if !ok {
		t.Fatalf("node %s not found", id)
	}
	if node.Level == nil {
		t.Fatalf("node %s has no level", id)
	}
	return *node.Level
}

func TestAnnotateFamilyHierarchyParentAndSpouse(t *testing.T) {
	// A's father is B, and B and C are married. A is the only member with
	// a parent, so B and C form generation zero and A sits one below.
	g := buildFamilyGraph(t, []*Edge{
		{Source: "A", Target: "B", Relation: "father", PredicateID: "P22"},
		{Source: "B", Target: "C", Relation: "spouse", PredicateID: "P26"},
	})

	AnnotateFamilyHierarchy(g)

	if got := levelOf(t, g, "B"); got != 0 {
		t.Fatalf("expected B at level 0, got %d", got)
	}
	if got := levelOf(t, g, "C"); got != 0 {
		t.Fatalf("expected C at level 0, got %d", got)
	}
	if got := levelOf(t, g, "A"); got != 1 {
		t.Fatalf("expected A at level 1, got %d", got)
	}

	for _, id := range []string{"A", "B", "C"} {
		node, _ := g.Node(id)
		if !reflect.DeepEqual(node.Clusters, []string{"family_1"}) {
			t.Fatalf("expected %s in cluster family_1, got %v", id, node.Clusters)
		}
	}
}

func TestAnnotateFamilyHierarchySeparateComponents(t *testing.T) {
	g := buildFamilyGraph(t, []*Edge{
		{Source: "A", Target: "B", Relation: "spouse", PredicateID: "P26"},
		{Source: "C", Target: "D", Relation: "sibling", PredicateID: "P3373"},
	})

	AnnotateFamilyHierarchy(g)

	a, _ := g.Node("A")
	c, _ := g.Node("C")
	if reflect.DeepEqual(a.Clusters, c.Clusters) {
		t.Fatalf("expected distinct clusters, got %v and %v", a.Clusters, c.Clusters)
	}
}

func TestAnnotateFamilyHierarchyIgnoresNonFamilyEdges(t *testing.T) {
	g := buildFamilyGraph(t, []*Edge{
		{Source: "A", Target: "Org", Relation: "member_of_party", PredicateID: "P102"},
	})

	AnnotateFamilyHierarchy(g)

	node, _ := g.Node("A")
	if node.Level != nil || len(node.Clusters) != 0 {
		t.Fatalf("expected no annotation for non-family edges, got level=%v clusters=%v",
			node.Level, node.Clusters)
	}
}

func TestAnnotateFamilyHierarchyThreeGenerations(t *testing.T) {
	// Grandparent G has child P, P has child K.
	g := buildFamilyGraph(t, []*Edge{
		{Source: "G", Target: "P", Relation: "child", PredicateID: "P40"},
		{Source: "P", Target: "K", Relation: "child", PredicateID: "P40"},
	})

	AnnotateFamilyHierarchy(g)

	if got := levelOf(t, g, "G"); got != 0 {
		t.Fatalf("expected G at level 0, got %d", got)
	}
	if got := levelOf(t, g, "P"); got != 1 {
		t.Fatalf("expected P at level 1, got %d", got)
	}
	if got := levelOf(t, g, "K"); got != 2 {
		t.Fatalf("expected K at level 2, got %d", got)
	}
}

func TestAnnotateFamilyHierarchyAllHaveParents(t *testing.T) {
	// A cycle of child edges leaves no root; the whole component seeds at
	// level zero.
	g := buildFamilyGraph(t, []*Edge{
		{Source: "A", Target: "B", Relation: "child", PredicateID: "P40"},
		{Source: "B", Target: "A", Relation: "child", PredicateID: "P40"},
	})

	AnnotateFamilyHierarchy(g)

	minLevel := levelOf(t, g, "A")
	if l := levelOf(t, g, "B"); l < minLevel {
		minLevel = l
	}
	if minLevel != 0 {
		t.Fatalf("expected minimum level 0, got %d", minLevel)
	}
}
