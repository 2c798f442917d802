package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type node struct {
	ID string `json:"id"`
}

type document struct {
	Nodes []node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// MarshalGraph converts a Graph to indented JSON bytes.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes g as node-link JSON to w.
// Nodes are sorted, edges follow the package ordering rules.
func WriteGraph(g *Graph, w io.Writer) error {
	ids := g.Nodes()
	out := document{
		Nodes: make([]node, len(ids)),
		Edges: g.Edges(),
	}
	for i, id := range ids {
		out.Nodes[i] = node{ID: id}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadGraph decodes node-link JSON into a Graph.
// Edges are replayed in document order; the node list is informational.
func ReadGraph(r io.Reader) (*Graph, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	g := New()
	for i, e := range doc.Edges {
		if e.From == "" || e.To == "" {
			return nil, fmt.Errorf("edge %d: empty endpoint", i)
		}
		g.AddEdge(e.From, e.To)
	}
	return g, nil
}
