package render

import (
	"context"
	"slices"
	"strings"

	apperr "github.com/matzehuels/reposgraph/pkg/errors"
	"github.com/matzehuels/reposgraph/pkg/graph"
)

// Format names an output format.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatDOT     Format = "dot"
	FormatSVG     Format = "svg"
	FormatJSON    Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatMermaid, FormatDOT, FormatSVG, FormatJSON}

const (
	DefaultTrimPrefix = "https://github.com/"
	DefaultTrimSuffix = ".git"
)

// Options controls how node labels are shortened. The zero value keeps
// labels unchanged.
type Options struct {
	TrimPrefix string // Removed from the start of each endpoint
	TrimSuffix string // Removed from the end of each endpoint
}

// DefaultOptions strips the GitHub host prefix and the ".git" suffix.
func DefaultOptions() Options {
	return Options{TrimPrefix: DefaultTrimPrefix, TrimSuffix: DefaultTrimSuffix}
}

// Label returns url with the configured prefix and suffix removed.
func (o Options) Label(url string) string {
	if o.TrimPrefix != "" {
		url = strings.TrimPrefix(url, o.TrimPrefix)
	}
	if o.TrimSuffix != "" {
		url = strings.TrimSuffix(url, o.TrimSuffix)
	}
	return url
}

// ValidateFormat checks that s names a supported format.
func ValidateFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatMermaid, nil
	}
	if !slices.Contains(Formats, f) {
		return "", apperr.New(apperr.ErrCodeInvalidFormat, "unknown format %q (want one of %s)", s, formatList())
	}
	return f, nil
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// ContentType returns the MIME type of rendered output.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render produces the complete output for g in format before returning, so
// callers never write a partial diagram.
func Render(ctx context.Context, g *graph.Graph, format Format, opts Options) ([]byte, error) {
	switch format {
	case FormatMermaid, "":
		return []byte(Mermaid(g, opts)), nil
	case FormatDOT:
		return []byte(ToDOT(g, opts)), nil
	case FormatSVG:
		return RenderSVG(ctx, ToDOT(g, opts))
	case FormatJSON:
		return graph.MarshalGraph(g)
	default:
		return nil, apperr.New(apperr.ErrCodeInvalidFormat, "unknown format %q", format)
	}
}
