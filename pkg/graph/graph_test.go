package graph

import (
	"bytes"
	"slices"
	"strings"
	"testing"
)

func TestAddEdgeCreatesSource(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")

	if got := g.Targets("a"); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Targets(a) = %v, want [b]", got)
	}
	if got := g.EdgeCount(); got != 1 {
		t.Errorf("EdgeCount() = %d, want 1", got)
	}
}

func TestAddEdgeKeepsInsertionOrder(t *testing.T) {
	g := New()
	g.AddEdge("a", "z")
	g.AddEdge("a", "c")
	g.AddEdge("a", "m")

	want := []string{"z", "c", "m"}
	if got := g.Targets("a"); !slices.Equal(got, want) {
		t.Errorf("Targets(a) = %v, want %v", got, want)
	}
}

func TestAddEdgeKeepsDuplicates(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("a", "b")

	if got := g.EdgeCount(); got != 2 {
		t.Errorf("EdgeCount() = %d, want 2", got)
	}
	if got := g.NodeCount(); got != 2 {
		t.Errorf("NodeCount() = %d, want 2", got)
	}
}

func TestSourcesSorted(t *testing.T) {
	g := New()
	g.AddEdge("https://github.com/org/zeta", "x")
	g.AddEdge("https://github.com/org/alpha", "x")
	g.AddEdge("https://github.com/Org/mid", "x")

	want := []string{
		"https://github.com/Org/mid",
		"https://github.com/org/alpha",
		"https://github.com/org/zeta",
	}
	if got := g.Sources(); !slices.Equal(got, want) {
		t.Errorf("Sources() = %v, want %v", got, want)
	}
}

func TestEdgesOrder(t *testing.T) {
	g := New()
	g.AddEdge("b", "2")
	g.AddEdge("a", "9")
	g.AddEdge("b", "1")
	g.AddEdge("a", "3")

	want := []Edge{{"a", "9"}, {"a", "3"}, {"b", "2"}, {"b", "1"}}
	if got := g.Edges(); !slices.Equal(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
}

func TestNodes(t *testing.T) {
	g := New()
	g.AddEdge("app", "lib")
	g.AddEdge("lib", "base")
	g.AddEdge("app", "base")

	want := []string{"app", "base", "lib"}
	if got := g.Nodes(); !slices.Equal(got, want) {
		t.Errorf("Nodes() = %v, want %v", got, want)
	}
}

func TestTargetsReturnsCopy(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")

	targets := g.Targets("a")
	targets[0] = "mutated"

	if got := g.Targets("a")[0]; got != "b" {
		t.Errorf("Targets(a)[0] = %q after caller mutation, want %q", got, "b")
	}
}

func TestEmptyGraph(t *testing.T) {
	g := New()
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("empty graph has %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
	if got := g.Targets("missing"); len(got) != 0 {
		t.Errorf("Targets(missing) = %v, want empty", got)
	}
}

func TestGraphRoundTrip(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")

	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		t.Fatalf("WriteGraph() error: %v", err)
	}
	got, err := ReadGraph(&buf)
	if err != nil {
		t.Fatalf("ReadGraph() error: %v", err)
	}
	if !slices.Equal(got.Edges(), g.Edges()) {
		t.Errorf("round trip edges = %v, want %v", got.Edges(), g.Edges())
	}
}

func TestReadGraphRejectsEmptyEndpoint(t *testing.T) {
	_, err := ReadGraph(strings.NewReader(`{"nodes": [], "edges": [{"from": "a", "to": ""}]}`))
	if err == nil {
		t.Error("ReadGraph() should reject edges with empty endpoints")
	}
}

func TestReadGraphInvalidJSON(t *testing.T) {
	if _, err := ReadGraph(strings.NewReader("{")); err == nil {
		t.Error("ReadGraph() should fail on truncated JSON")
	}
}
