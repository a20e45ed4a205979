package topology

import (
	"sort"
)

// Graph is the undirected node adjacency of a topology.
type Graph struct {
	adj map[string]map[string]struct{}
}

// Graph returns the adjacency of every node, ignoring interfaces.
func (m *Topology) Graph() *Graph {
	g := &Graph{adj: map[string]map[string]struct{}{}}
	for _, node := range m.nodes {
		g.adj[node.Name] = map[string]struct{}{}
	}
	for _, link := range m.links {
		g.adj[link.A.Node][link.B.Node] = struct{}{}
		g.adj[link.B.Node][link.A.Node] = struct{}{}
	}
	return g
}

// Induced returns the subgraph induced by the named vertices. Unknown names
// are ignored.
func (m *Graph) Induced(names ...string) *Graph {
	keep := map[string]struct{}{}
	for _, name := range names {
		if _, ok := m.adj[name]; ok {
			keep[name] = struct{}{}
		}
	}

	g := &Graph{adj: map[string]map[string]struct{}{}}
	for name := range keep {
		g.adj[name] = map[string]struct{}{}
		for peer := range m.adj[name] {
			if _, ok := keep[peer]; ok {
				g.adj[name][peer] = struct{}{}
			}
		}
	}
	return g
}

// Vertices returns the sorted vertex names.
func (m *Graph) Vertices() []string {
	out := make([]string, 0, len(m.adj))
	for name := range m.adj {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Neighbors returns the sorted neighbors of a vertex.
func (m *Graph) Neighbors(name string) []string {
	out := make([]string, 0, len(m.adj[name]))
	for peer := range m.adj[name] {
		out = append(out, peer)
	}
	sort.Strings(out)
	return out
}

// EdgeCount returns the number of distinct undirected edges.
func (m *Graph) EdgeCount() int {
	count := 0
	for _, peers := range m.adj {
		count += len(peers)
	}
	return count / 2
}

// Connected reports whether every vertex is reachable from every other.
// An empty graph is connected.
func (m *Graph) Connected() bool {
	vertices := m.Vertices()
	if len(vertices) == 0 {
		return true
	}

	seen := map[string]struct{}{vertices[0]: {}}
	queue := []string{vertices[0]}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for peer := range m.adj[cur] {
			if _, ok := seen[peer]; !ok {
				seen[peer] = struct{}{}
				queue = append(queue, peer)
			}
		}
	}
	return len(seen) == len(vertices)
}

// DisjointPaths returns the maximum number of internally vertex-disjoint
// paths between two distinct vertices, or 0 if either is unknown.
//
// Every vertex except the endpoints is split into an in/out pair joined by a
// unit capacity arc, then a unit capacity max-flow is computed.
func (m *Graph) DisjointPaths(from string, to string) int {
	if from == to {
		return 0
	}
	if _, ok := m.adj[from]; !ok {
		return 0
	}
	if _, ok := m.adj[to]; !ok {
		return 0
	}

	vertices := m.Vertices()
	idx := make(map[string]int, len(vertices))
	for i, name := range vertices {
		idx[name] = i
	}

	in := func(i int) int { return 2 * i }
	out := func(i int) int { return 2*i + 1 }

	size := 2 * len(vertices)
	capacity := make([][]int, size)
	for i := range capacity {
		capacity[i] = make([]int, size)
	}

	unbounded := len(vertices)
	for i, name := range vertices {
		if name == from || name == to {
			capacity[in(i)][out(i)] = unbounded
		} else {
			capacity[in(i)][out(i)] = 1
		}
		for peer := range m.adj[name] {
			capacity[out(i)][in(idx[peer])] = 1
		}
	}

	source, sink := out(idx[from]), in(idx[to])
	flow := 0
	for {
		parent := make([]int, size)
		for i := range parent {
			parent[i] = -1
		}
		parent[source] = source

		queue := []int{source}
		for len(queue) > 0 && parent[sink] == -1 {
			cur := queue[0]
			queue = queue[1:]
			for next := 0; next < size; next++ {
				if parent[next] == -1 && capacity[cur][next] > 0 {
					parent[next] = cur
					queue = append(queue, next)
				}
			}
		}
		if parent[sink] == -1 {
			return flow
		}

		for v := sink; v != source; v = parent[v] {
			u := parent[v]
			capacity[u][v]--
			capacity[v][u]++
		}
		flow++
	}
}
