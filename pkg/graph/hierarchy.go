package graph

import (
	"fmt"
	"sort"
)

type familyArc struct {
	parent string
	child  string
}

// AnnotateFamilyHierarchy groups the family-connected components of the graph
// into clusters and assigns each member a generation level. Parent-child arcs
// place the child one level below the parent; spouse, sibling and partner arcs
// keep both endpoints on the same level. Roots with no in-cluster parent
// start at level zero.
//
// Only edges whose relation names a family predicate participate. Nodes with
// no family edges are left untouched.
func AnnotateFamilyHierarchy(g *Graph) {
	adjacency := make(map[string][]string)
	arcs := make([]familyArc, 0)
	peers := make([][2]string, 0)

	for _, edge := range g.Edges() {
		if !FamilyRelations[edge.Relation] {
			continue
		}
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
		adjacency[edge.Target] = append(adjacency[edge.Target], edge.Source)

		if ParentalRelations[edge.Relation] {
			if parent, child, ok := ParentChild(edge); ok {
				arcs = append(arcs, familyArc{parent: parent, child: child})
			}
		} else if PeerRelations[edge.Relation] {
			peers = append(peers, [2]string{edge.Source, edge.Target})
		}
	}

	assigned := make(map[string]bool)
	clusterIndex := 0

	// Component discovery follows node insertion order so cluster ids are
	// stable across runs over the same graph.
	for _, node := range g.Nodes() {
		if assigned[node.ID] {
			continue
		}
		if _, ok := adjacency[node.ID]; !ok {
			continue
		}

		clusterIndex++
		component := collectComponent(node.ID, adjacency)
		clusterID := fmt.Sprintf("family_%d", clusterIndex)

		levels := levelComponent(component, arcs, peers)

		for _, id := range component {
			assigned[id] = true
			member, ok := g.Node(id)
			if !ok {
				continue
			}
			member.Clusters = UnionSet(member.Clusters, clusterID)
			level := levels[id]
			member.Level = &level
		}
	}
}

func collectComponent(start string, adjacency map[string][]string) []string {
	seen := map[string]bool{start: true}
	component := []string{start}
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[id] {
			if !seen[next] {
				seen[next] = true
				component = append(component, next)
				queue = append(queue, next)
			}
		}
	}
	sort.Strings(component[1:])
	return component
}

// levelComponent assigns generation levels within one family component by
// breadth-first propagation from root candidates. Roots are members with no
// incoming parent arc; if every member has a parent the whole component
// seeds at level zero. First visit wins; members the traversal never reaches
// default to zero.
func levelComponent(component []string, arcs []familyArc, peers [][2]string) map[string]int {
	members := make(map[string]bool, len(component))
	for _, id := range component {
		members[id] = true
	}

	hasParent := make(map[string]bool)
	children := make(map[string][]string)
	for _, arc := range arcs {
		if !members[arc.parent] || !members[arc.child] {
			continue
		}
		hasParent[arc.child] = true
		children[arc.parent] = append(children[arc.parent], arc.child)
	}

	peerOf := make(map[string][]string)
	for _, pair := range peers {
		if !members[pair[0]] || !members[pair[1]] {
			continue
		}
		peerOf[pair[0]] = append(peerOf[pair[0]], pair[1])
		peerOf[pair[1]] = append(peerOf[pair[1]], pair[0])
	}

	levels := make(map[string]int, len(component))
	queue := make([]string, 0, len(component))
	for _, id := range component {
		if !hasParent[id] {
			levels[id] = 0
			queue = append(queue, id)
		}
	}
	if len(queue) == 0 {
		for _, id := range component {
			levels[id] = 0
			queue = append(queue, id)
		}
	}

	visit := func(id string, level int) bool {
		if _, ok := levels[id]; ok {
			return false
		}
		levels[id] = level
		return true
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		level := levels[id]

		for _, peer := range peerOf[id] {
			if visit(peer, level) {
				queue = append(queue, peer)
			}
		}
		for _, child := range children[id] {
			if visit(child, level+1) {
				queue = append(queue, child)
			}
		}
	}

	for _, id := range component {
		if _, ok := levels[id]; !ok {
			levels[id] = 0
		}
	}
	return levels
}
