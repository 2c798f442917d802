package crawl

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	apperr "github.com/matzehuels/reposgraph/pkg/errors"
	"github.com/matzehuels/reposgraph/pkg/fetch"
	"github.com/matzehuels/reposgraph/pkg/graph"
	"github.com/matzehuels/reposgraph/pkg/observability"
	"github.com/matzehuels/reposgraph/pkg/repos"
)

// Root identifies where a crawl starts.
type Root struct {
	DisplayURL string // Graph identity of the root repository
	RawURL     string // Manifest location; may name a different file than child manifests
}

// Options configures a [Crawler]. Zero values select defaults.
type Options struct {
	Deriver repos.Deriver // Child manifest URLs; default repos.DefaultDeriver()
	Logger  *log.Logger   // Progress output; default discards
}

// Stats summarizes a finished crawl.
type Stats struct {
	Fetched  int           // Manifests found and parsed
	Absent   int           // Raw URLs with no manifest
	Skipped  int           // Raw URLs reached again after their first visit
	Edges    int           // Edges recorded, duplicates included
	Nodes    int           // Distinct repositories in the graph
	Duration time.Duration // Wall time of the run
}

// Result is the outcome of a successful crawl.
type Result struct {
	ID    string // Unique run identifier, also attached to log lines
	Graph *graph.Graph
	Stats Stats
}

// Crawler traverses manifests with a [fetch.Fetcher]. A Crawler holds no
// per-run state and may be reused; each call to [Crawler.Crawl] starts with
// an empty visited set and an empty graph.
type Crawler struct {
	fetcher fetch.Fetcher
	deriver repos.Deriver
	logger  *log.Logger
}

// New creates a Crawler that fetches manifests with f.
func New(f fetch.Fetcher, opts Options) *Crawler {
	d := opts.Deriver
	if d == (repos.Deriver{}) {
		d = repos.DefaultDeriver()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Crawler{fetcher: f, deriver: d, logger: logger}
}

// Crawl traverses every manifest reachable from root and returns the
// dependency graph. On error the partial graph is discarded.
func (c *Crawler) Crawl(ctx context.Context, root Root) (*Result, error) {
	if root.RawURL == "" {
		return nil, apperr.New(apperr.ErrCodeInvalidInput, "root manifest url is required")
	}
	if root.DisplayURL == "" {
		return nil, apperr.New(apperr.ErrCodeInvalidInput, "root repository url is required")
	}

	r := &run{
		Crawler: c,
		id:      uuid.NewString(),
		graph:   graph.New(),
		visited: make(map[string]bool),
	}
	r.logger = c.logger.With("run", r.id[:8])

	start := time.Now()
	hooks := observability.Crawl()
	hooks.OnCrawlStart(ctx, root.DisplayURL)

	err := r.walk(ctx, root)
	r.stats.Duration = time.Since(start)
	r.stats.Edges = r.graph.EdgeCount()
	r.stats.Nodes = r.graph.NodeCount()
	hooks.OnCrawlComplete(ctx, root.DisplayURL, r.stats.Nodes, r.stats.Edges, r.stats.Duration, err)

	if err != nil {
		return nil, err
	}
	return &Result{ID: r.id, Graph: r.graph, Stats: r.stats}, nil
}

// run is the state of a single crawl.
type run struct {
	*Crawler
	id      string
	logger  *log.Logger
	graph   *graph.Graph
	visited map[string]bool // raw URLs whose manifest was found
	frames  []frame
	stats   Stats
}

// frame is an expanded manifest whose entries are being walked.
type frame struct {
	display string
	entries []repos.Entry
	next    int
}

// walk emulates the recursion visit(root) with an explicit stack of frames:
// the top frame's next entry gets its edge, then its manifest is visited,
// which may push a new frame before the following entry is considered.
func (r *run) walk(ctx context.Context, root Root) error {
	if err := r.visit(ctx, root.DisplayURL, root.RawURL); err != nil {
		return err
	}
	for len(r.frames) > 0 {
		top := &r.frames[len(r.frames)-1]
		if top.next == len(top.entries) {
			r.frames = r.frames[:len(r.frames)-1]
			continue
		}
		e := top.entries[top.next]
		top.next++
		display := top.display

		r.graph.AddEdge(display, e.URL)
		if err := r.visit(ctx, e.URL, r.deriver.RawURL(e.URL, e.Version)); err != nil {
			return err
		}
	}
	return nil
}

// visit fetches and parses one manifest and pushes its entries.
func (r *run) visit(ctx context.Context, display, rawURL string) error {
	hooks := observability.Crawl()
	if r.visited[rawURL] {
		r.stats.Skipped++
		hooks.OnFetch(ctx, rawURL, observability.FetchSkipped, 0)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.logger.Info("opening", "url", rawURL)
	start := time.Now()
	res, err := r.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		hooks.OnFetch(ctx, rawURL, observability.FetchFailed, time.Since(start))
		return transportError(ctx, rawURL, err)
	}
	if res.Status == fetch.StatusNotFound {
		r.stats.Absent++
		r.logger.Debug("no manifest", "url", rawURL)
		hooks.OnFetch(ctx, rawURL, observability.FetchAbsent, time.Since(start))
		return nil
	}
	hooks.OnFetch(ctx, rawURL, observability.FetchFound, time.Since(start))

	r.visited[rawURL] = true
	r.stats.Fetched++

	entries, err := repos.Parse(res.Text)
	if err != nil {
		var pe *repos.ParseError
		if errors.As(err, &pe) && pe.Fragment != "" {
			r.logger.Error("invalid manifest entry", "url", rawURL, "entry", pe.Fragment)
		}
		return apperr.Wrap(apperr.ErrCodeInvalidManifest, err, "manifest %s", rawURL)
	}
	r.logger.Debug("parsed manifest", "url", rawURL, "repositories", len(entries))

	if len(entries) > 0 {
		r.frames = append(r.frames, frame{display: display, entries: entries})
	}
	return nil
}

// transportError leaves cancellation and coded errors alone and marks
// anything else as a network failure.
func transportError(ctx context.Context, rawURL string, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Wrap(apperr.ErrCodeNetwork, err, "fetch %s", rawURL)
}
