package graph

import (
	"maps"
	"slices"
)

// Edge is a directed "From depends on To" reference between display URLs.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph accumulates dependency edges keyed by source repository.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// use without external synchronization.
type Graph struct {
	edges map[string][]string
	count int
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{edges: make(map[string][]string)}
}

// AddEdge appends to to the targets of from, creating the source entry on
// first use. Repeated edges are kept.
func (g *Graph) AddEdge(from, to string) {
	g.edges[from] = append(g.edges[from], to)
	g.count++
}

// Sources returns every repository with at least one outgoing edge, sorted.
func (g *Graph) Sources() []string {
	return slices.Sorted(maps.Keys(g.edges))
}

// Targets returns the targets of from in insertion order.
// The returned slice is a copy and may be modified.
func (g *Graph) Targets(from string) []string {
	return slices.Clone(g.edges[from])
}

// Edges returns all edges: sources sorted, targets in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.count)
	for _, from := range g.Sources() {
		for _, to := range g.edges[from] {
			out = append(out, Edge{From: from, To: to})
		}
	}
	return out
}

// Nodes returns every repository appearing as a source or target, sorted and
// without duplicates.
func (g *Graph) Nodes() []string {
	seen := make(map[string]struct{}, len(g.edges))
	for from, tos := range g.edges {
		seen[from] = struct{}{}
		for _, to := range tos {
			seen[to] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// NodeCount returns the number of distinct repositories in the graph.
func (g *Graph) NodeCount() int { return len(g.Nodes()) }

// EdgeCount returns the number of edges, duplicates included.
func (g *Graph) EdgeCount() int { return g.count }
