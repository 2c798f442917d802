// Package graph holds the repository dependency graph discovered by a crawl.
//
// A [Graph] maps a source repository (its display URL) to the ordered list of
// repositories its manifest references. It only grows: [Graph.AddEdge]
// appends, nothing removes.
//
// # Ordering
//
// Two rules make every read deterministic:
//
//   - Sources are visited in ascending byte order of their URL.
//   - The targets of one source keep their insertion order.
//
// Duplicate edges are kept. Two manifest entries that name the same target
// are two dependency references and appear twice.
//
// # Serialization
//
// Graphs use a simple node-link JSON format:
//
//	{
//	  "nodes": [{"id": "https://github.com/org/app"}, {"id": "https://github.com/org/lib"}],
//	  "edges": [{"from": "https://github.com/org/app", "to": "https://github.com/org/lib"}]
//	}
//
// Use [WriteGraph] and [ReadGraph] to convert between the two.
package graph
