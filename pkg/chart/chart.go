// Package chart projects a relation graph into a kinship-chart document:
// people, explicit unions with attached children, parent and sibling
// relationship edges, and deterministic layout hints.
package chart

import (
	"fmt"
	"sort"

	"polygraph/pkg/graph"
)

// Person is one chart entry, a trimmed view of a graph node.
type Person struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Clusters    []string `json:"clusters"`
	Level       *int     `json:"family_hierarchy_level"`
}

// Union is a partnership between two people. Children lists the ids whose
// recorded parents are exactly the union's partners.
type Union struct {
	ID        string   `json:"id"`
	Partners  []string `json:"partners"`
	Relations []string `json:"relations"`
	Children  []string `json:"children"`
}

// Relationship is a rendering edge: parent→child, union→child, or sibling.
type Relationship struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Type     string `json:"type"`
	Relation string `json:"relation,omitempty"`
}

// Position is a layout hint; y is the hierarchy level, x the alphabetical
// rank within the level.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Summary carries the document's headline counts.
type Summary struct {
	People       int `json:"people"`
	Families     int `json:"families"`
	ParentEdges  int `json:"parent_edges"`
	SiblingEdges int `json:"sibling_edges"`
	FamilyEdges  int `json:"family_edges"`
}

// Document is the complete kinship-chart projection.
type Document struct {
	People        []*Person           `json:"people"`
	Unions        []*Union            `json:"unions"`
	Relationships []*Relationship     `json:"relationships"`
	Layout        map[string]Position `json:"layout"`
	Summary       Summary             `json:"summary"`
}

type pair struct {
	a string
	b string
}

func orderedPair(u string, v string) pair {
	if u > v {
		u, v = v, u
	}
	return pair{a: u, b: v}
}

// Build projects the graph into a chart document. The projection is pure and
// read-only: the graph is never mutated, and the same graph always yields
// the same document.
func Build(g *graph.Graph) *Document {
	doc := &Document{
		People: make([]*Person, 0, g.NodeCount()),
		Layout: map[string]Position{},
	}

	for _, node := range g.Nodes() {
		clusters := node.Clusters
		if clusters == nil {
			clusters = []string{}
		}
		doc.People = append(doc.People, &Person{
			ID:          node.ID,
			Label:       node.Label,
			Description: node.Description,
			Clusters:    clusters,
			Level:       node.Level,
		})
	}

	type parentEdge struct {
		parent   string
		child    string
		relation string
	}
	var parentEdges []parentEdge
	partnerships := make(map[pair][]string)
	var partnershipOrder []pair
	siblingSeen := make(map[pair]bool)
	var siblings []*Relationship
	familyEdges := 0

	for _, edge := range g.Edges() {
		if graph.FamilyRelations[edge.Relation] {
			familyEdges++
		}

		if parent, child, ok := graph.ParentChild(edge); ok {
			parentEdges = append(parentEdges, parentEdge{parent: parent, child: child, relation: edge.Relation})
			continue
		}

		if graph.PartnerRelations[edge.Relation] {
			key := orderedPair(edge.Source, edge.Target)
			if _, ok := partnerships[key]; !ok {
				partnershipOrder = append(partnershipOrder, key)
			}
			partnerships[key] = append(partnerships[key], edge.Relation)
			continue
		}

		if graph.SiblingRelations[edge.Relation] {
			key := orderedPair(edge.Source, edge.Target)
			if siblingSeen[key] {
				continue
			}
			siblingSeen[key] = true
			siblings = append(siblings, &Relationship{
				From: key.a,
				To:   key.b,
				Type: edge.Relation,
			})
		}
	}

	// Union ids follow the sorted pair order so documents are stable
	// across runs.
	sort.Slice(partnershipOrder, func(i, j int) bool {
		if partnershipOrder[i].a != partnershipOrder[j].a {
			return partnershipOrder[i].a < partnershipOrder[j].a
		}
		return partnershipOrder[i].b < partnershipOrder[j].b
	})

	unionByPair := make(map[pair]*Union, len(partnershipOrder))
	for i, key := range partnershipOrder {
		union := &Union{
			ID:        fmt.Sprintf("union_%d", i+1),
			Partners:  []string{key.a, key.b},
			Relations: graph.UnionSet(nil, partnerships[key]...),
			Children:  []string{},
		}
		unionByPair[key] = union
		doc.Unions = append(doc.Unions, union)
	}

	// A child attaches to a union only when its recorded parents are
	// exactly the union's two partners; a single known parent is not
	// enough.
	parentsOf := make(map[string][]string)
	for _, pe := range parentEdges {
		parentsOf[pe.child] = graph.UnionSet(parentsOf[pe.child], pe.parent)
	}
	children := make([]string, 0, len(parentsOf))
	for child := range parentsOf {
		children = append(children, child)
	}
	sort.Strings(children)
	for _, child := range children {
		parents := parentsOf[child]
		if len(parents) != 2 {
			continue
		}
		if union, ok := unionByPair[orderedPair(parents[0], parents[1])]; ok {
			union.Children = append(union.Children, child)
		}
	}

	for _, pe := range parentEdges {
		doc.Relationships = append(doc.Relationships, &Relationship{
			From:     pe.parent,
			To:       pe.child,
			Type:     "parent",
			Relation: pe.relation,
		})
	}
	for _, union := range doc.Unions {
		for _, child := range union.Children {
			doc.Relationships = append(doc.Relationships, &Relationship{
				From: union.ID,
				To:   child,
				Type: "union_child",
			})
		}
	}
	doc.Relationships = append(doc.Relationships, siblings...)

	doc.Layout = layout(g)
	doc.Summary = Summary{
		People:       len(doc.People),
		Families:     len(doc.Unions),
		ParentEdges:  len(parentEdges),
		SiblingEdges: len(siblings),
		FamilyEdges:  familyEdges,
	}
	return doc
}

// layout assigns y from the hierarchy level (0 if absent) and x from the
// alphabetical rank among same-level people.
func layout(g *graph.Graph) map[string]Position {
	byLevel := make(map[int][]string)
	for _, node := range g.Nodes() {
		level := 0
		if node.Level != nil {
			level = *node.Level
		}
		byLevel[level] = append(byLevel[level], node.ID)
	}

	positions := make(map[string]Position, g.NodeCount())
	for level, members := range byLevel {
		sort.Strings(members)
		for x, id := range members {
			positions[id] = Position{X: x, Y: level}
		}
	}
	return positions
}
