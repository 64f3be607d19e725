package enrich

import (
	"math/rand"
	"sort"

	"polygraph/pkg/graph"
)

const (
	// exactBetweennessThreshold is the node count above which betweenness
	// switches from exact to pivot-sampled computation.
	exactBetweennessThreshold = 1000

	// betweennessPivots is the sample size for the approximate pass.
	betweennessPivots = 500

	// metricsSeed fixes the random source for sampling and community
	// detection so enrichment is reproducible per snapshot.
	metricsSeed = 42
)

// adjacency is the undirected simple-graph view the metric passes operate
// on: node ids in insertion order plus deduplicated neighbor index lists.
type adjacency struct {
	ids       []string
	index     map[string]int
	neighbors [][]int
	degree    []int
}

func buildAdjacency(g *graph.Graph) *adjacency {
	ids := g.NodeIDs()
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	adj := &adjacency{
		ids:       ids,
		index:     index,
		neighbors: make([][]int, len(ids)),
		degree:    make([]int, len(ids)),
	}

	seen := make(map[[2]int]bool)
	for _, edge := range g.Edges() {
		u, okU := index[edge.Source]
		v, okV := index[edge.Target]
		if !okU || !okV {
			continue
		}
		// Raw degree counts every parallel edge at both endpoints.
		adj.degree[u]++
		adj.degree[v]++
		if u == v {
			continue
		}
		key := [2]int{u, v}
		if u > v {
			key = [2]int{v, u}
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		adj.neighbors[u] = append(adj.neighbors[u], v)
		adj.neighbors[v] = append(adj.neighbors[v], u)
	}
	return adj
}

// betweenness runs Brandes' algorithm over the undirected view. Exact when
// the graph is small; above the threshold it accumulates from a fixed-seed
// pivot sample and scales the result.
func betweenness(adj *adjacency) []float64 {
	n := len(adj.ids)
	scores := make([]float64, n)
	if n < 3 {
		return scores
	}

	sources := make([]int, n)
	for i := range sources {
		sources[i] = i
	}
	sampleScale := 1.0
	if n > exactBetweennessThreshold {
		rng := rand.New(rand.NewSource(metricsSeed))
		rng.Shuffle(n, func(i, j int) {
			sources[i], sources[j] = sources[j], sources[i]
		})
		sources = sources[:betweennessPivots]
		sampleScale = float64(n) / float64(betweennessPivots)
	}

	sigma := make([]float64, n)
	dist := make([]int, n)
	delta := make([]float64, n)
	preds := make([][]int, n)

	for _, s := range sources {
		for i := 0; i < n; i++ {
			sigma[i] = 0
			dist[i] = -1
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		sigma[s] = 1
		dist[s] = 0

		var stack []int
		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range adj.neighbors[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
			if w != s {
				scores[w] += delta[w]
			}
		}
	}

	// Each unordered pair is accumulated from both endpoints, so halve,
	// then normalize to [0, 1].
	norm := sampleScale / float64((n-1)*(n-2))
	for i := range scores {
		scores[i] *= norm
	}
	return scores
}

// coreNumbers peels the undirected view layer by layer; a node's core
// number is the largest k for which it survives the k-core peel.
func coreNumbers(adj *adjacency) []int {
	n := len(adj.ids)
	degrees := make([]int, n)
	for i := range degrees {
		degrees[i] = len(adj.neighbors[i])
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return degrees[order[a]] < degrees[order[b]] })

	cores := make([]int, n)
	removed := make([]bool, n)
	current := 0
	for len(order) > 0 {
		sort.Slice(order, func(a, b int) bool { return degrees[order[a]] < degrees[order[b]] })
		v := order[0]
		order = order[1:]
		if degrees[v] > current {
			current = degrees[v]
		}
		cores[v] = current
		removed[v] = true
		for _, w := range adj.neighbors[v] {
			if !removed[w] && degrees[w] > degrees[v] {
				degrees[w]--
			}
		}
	}
	return cores
}

// communities partitions the undirected view with seeded label propagation,
// falling back to greedy modularity merging when propagation degenerates
// into singletons despite existing edges. Returned ids are dense and
// renumbered in node insertion order.
func communities(adj *adjacency) []int {
	n := len(adj.ids)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}

	edgeCount := 0
	for i := range adj.neighbors {
		edgeCount += len(adj.neighbors[i])
	}
	edgeCount /= 2
	if edgeCount == 0 {
		return renumber(labels)
	}

	rng := rand.New(rand.NewSource(metricsSeed))
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	for iteration := 0; iteration < 20; iteration++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		changed := false
		for _, v := range order {
			if len(adj.neighbors[v]) == 0 {
				continue
			}
			counts := make(map[int]int)
			for _, w := range adj.neighbors[v] {
				counts[labels[w]]++
			}
			best := labels[v]
			bestCount := 0
			for label, count := range counts {
				if count > bestCount || (count == bestCount && label < best) {
					best = label
					bestCount = count
				}
			}
			if best != labels[v] {
				labels[v] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	if isDegenerate(labels, adj) {
		labels = greedyModularity(adj)
	}
	return renumber(labels)
}

// isDegenerate reports whether label propagation left every connected node
// in its own singleton community.
func isDegenerate(labels []int, adj *adjacency) bool {
	sizes := make(map[int]int)
	connected := 0
	for i, label := range labels {
		if len(adj.neighbors[i]) > 0 {
			sizes[label]++
			connected++
		}
	}
	return connected > 1 && len(sizes) == connected
}

// greedyModularity agglomerates communities while a merge of two connected
// communities improves modularity.
func greedyModularity(adj *adjacency) []int {
	n := len(adj.ids)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}

	totalEdges := 0
	for i := range adj.neighbors {
		totalEdges += len(adj.neighbors[i])
	}
	totalEdges /= 2
	if totalEdges == 0 {
		return labels
	}
	m2 := float64(2 * totalEdges)

	for {
		// Community degree sums and inter-community edge counts.
		degreeSum := make(map[int]float64)
		between := make(map[[2]int]float64)
		for v := range adj.neighbors {
			degreeSum[labels[v]] += float64(len(adj.neighbors[v]))
			for _, w := range adj.neighbors[v] {
				if v < w {
					a, b := labels[v], labels[w]
					if a == b {
						continue
					}
					if a > b {
						a, b = b, a
					}
					between[[2]int{a, b}]++
				}
			}
		}

		bestGain := 0.0
		var bestPair [2]int
		for pair, edges := range between {
			gain := edges/float64(totalEdges) - 2*degreeSum[pair[0]]*degreeSum[pair[1]]/(m2*m2)
			if gain > bestGain {
				bestGain = gain
				bestPair = pair
			}
		}
		if bestGain <= 0 {
			break
		}
		for i := range labels {
			if labels[i] == bestPair[1] {
				labels[i] = bestPair[0]
			}
		}
	}
	return labels
}

func renumber(labels []int) []int {
	next := 0
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, label := range labels {
		id, ok := mapping[label]
		if !ok {
			id = next
			mapping[label] = id
			next++
		}
		out[i] = id
	}
	return out
}

// anchorDistances runs one multi-source BFS from the anchor set. Nodes no
// anchor can reach get the maximum observed finite distance instead of
// infinity; with no anchors every distance is zero.
func anchorDistances(adj *adjacency, anchors []int) []float64 {
	n := len(adj.ids)
	distances := make([]float64, n)
	if len(anchors) == 0 {
		return distances
	}

	dist := make([]int, n)
	for i := range dist {
		dist[i] = -1
	}
	queue := make([]int, 0, len(anchors))
	for _, a := range anchors {
		if dist[a] < 0 {
			dist[a] = 0
			queue = append(queue, a)
		}
	}

	maxFinite := 0
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if dist[v] > maxFinite {
			maxFinite = dist[v]
		}
		for _, w := range adj.neighbors[v] {
			if dist[w] < 0 {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
		}
	}

	for i := range distances {
		if dist[i] < 0 {
			distances[i] = float64(maxFinite)
		} else {
			distances[i] = float64(dist[i])
		}
	}
	return distances
}
