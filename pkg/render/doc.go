// Package render turns a dependency graph into text or image output.
//
// # Formats
//
//   - [FormatMermaid]: a Mermaid flowchart, one "from-->to" line per edge
//   - [FormatDOT]: Graphviz DOT source
//   - [FormatSVG]: the DOT source laid out by Graphviz
//   - [FormatJSON]: node-link JSON, see graph.WriteGraph
//
// Mermaid and DOT labels are shortened with [Options]: the default strips the
// "https://github.com/" prefix and a trailing ".git", so
// "https://github.com/org/dep1.git" is drawn as "org/dep1". JSON output keeps
// full URLs.
//
// Every renderer walks the graph in its fixed order (sorted sources,
// insertion order per source), so equal graphs render byte-identical output.
//
//	out, err := render.Render(ctx, g, render.FormatMermaid, render.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	os.Stdout.Write(out)
package render
