package render

import (
	"strings"

	"github.com/matzehuels/reposgraph/pkg/graph"
)

// MermaidHeader opens every Mermaid diagram.
const MermaidHeader = "graph LR;"

// Mermaid renders g as a left-to-right Mermaid flowchart:
//
//	graph LR;
//	    org/repo-->org/dep1;
//
// Duplicate edges produce duplicate lines. An empty graph renders the header
// alone.
func Mermaid(g *graph.Graph, opts Options) string {
	var b strings.Builder
	b.WriteString(MermaidHeader)
	b.WriteByte('\n')
	for _, from := range g.Sources() {
		src := opts.Label(from)
		for _, to := range g.Targets(from) {
			b.WriteString("    ")
			b.WriteString(src)
			b.WriteString("-->")
			b.WriteString(opts.Label(to))
			b.WriteString(";\n")
		}
	}
	return b.String()
}
