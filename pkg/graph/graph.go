package graph

import (
	"fmt"
	"sort"
)

// Metrics holds the structural signals computed by the enrichment engine.
// All values are derived from a graph snapshot and can be recomputed at any
// time; they carry no provenance of their own.
type Metrics struct {
	Degree         int     `json:"degree"`
	DegreeNorm     float64 `json:"degree_norm"`
	Betweenness    float64 `json:"betweenness"`
	CoreNumber     int     `json:"core_number"`
	Community      int     `json:"community"`
	AnchorDistance float64 `json:"anchor_distance"`
	Importance     float64 `json:"importance"`
}

// Node represents an entity in the graph: a person, organization, office, or
// placeholder produced by the fallback relation source.
//
// Attrs carries pass-through attributes from heterogeneous sources; values
// are restricted to JSON-marshalable scalars, lists, and maps. The annotated
// fields (Layers, Clusters, Level, roles, Metrics) are filled in by later
// pipeline passes and start empty.
type Node struct {
	ID          string
	Label       string
	Description string
	Attrs       map[string]any

	Layers   []string
	Clusters []string
	Aliases  []string
	Level    *int

	PrimaryRole    string
	SecondaryRoles []string

	Metrics *Metrics
}

// Edge represents a directed relation between two entities. Multiple edges
// between the same ordered pair are permitted when relations differ.
//
// SourceSystem, EvidenceURL, and RetrievedAt form the provenance record.
// Type, Layer, and Weight are derived by edge classification and left zero
// until then.
type Edge struct {
	Source      string
	Target      string
	Relation    string
	PredicateID string

	SourceSystem string
	EvidenceURL  string
	RetrievedAt  string

	Attrs map[string]any

	Type   string
	Layer  string
	Weight float64
}

// Graph is a directed multigraph over entities. It is append-only during a
// crawl: nodes and edges are only ever added, while node annotations are
// mutated in place by later passes. A Graph has a single writer at any time.
type Graph struct {
	nodes map[string]*Node
	order []string
	edges []*Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
	}
}

// SetNode upserts a node. A new node is created on first sight; on repeat
// calls the label and description are only overwritten by non-empty values,
// so richer data never gets clobbered by a placeholder.
func (g *Graph) SetNode(id string, label string, description string) *Node {
	if node, ok := g.nodes[id]; ok {
		if label != "" {
			node.Label = label
		}
		if description != "" {
			node.Description = description
		}
		return node
	}

	if label == "" {
		label = id
	}
	node := &Node{
		ID:          id,
		Label:       label,
		Description: description,
		Attrs:       make(map[string]any),
	}
	g.nodes[id] = node
	g.order = append(g.order, id)
	return node
}

// Node returns the node with the given id, if present.
func (g *Graph) Node(id string) (*Node, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NodeIDs returns all node ids in insertion order.
func (g *Graph) NodeIDs() []string {
	return append([]string(nil), g.order...)
}

// AddEdge appends an edge. Both endpoints must already exist as nodes; the
// crawl engine and the loader always add endpoints first.
func (g *Graph) AddEdge(e *Edge) error {
	if !g.HasNode(e.Source) {
		return fmt.Errorf("edge source %q is not a node in the graph", e.Source)
	}
	if !g.HasNode(e.Target) {
		return fmt.Errorf("edge target %q is not a node in the graph", e.Target)
	}
	if e.Attrs == nil {
		e.Attrs = make(map[string]any)
	}
	g.edges = append(g.edges, e)
	return nil
}

// Edges returns all edges in insertion order. The slice is shared with the
// graph; callers must not append to it.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// UnionSet returns the sorted union of an existing string set and additional
// values. Annotation passes use it so repeated calls only ever grow a set.
func UnionSet(existing []string, values ...string) []string {
	seen := make(map[string]bool, len(existing)+len(values))
	for _, v := range existing {
		seen[v] = true
	}
	for _, v := range values {
		if v != "" {
			seen[v] = true
		}
	}
	result := make([]string, 0, len(seen))
	for v := range seen {
		result = append(result, v)
	}
	sort.Strings(result)
	return result
}

// UnionAttrSet unions values into the string-set attribute stored under key
// in attrs. Non-set values previously stored under key are replaced.
func UnionAttrSet(attrs map[string]any, key string, values ...string) {
	var existing []string
	switch current := attrs[key].(type) {
	case []string:
		existing = current
	case []any:
		for _, v := range current {
			if s, ok := v.(string); ok {
				existing = append(existing, s)
			}
		}
	}
	attrs[key] = UnionSet(existing, values...)
}
