// Package crawl walks a tree of repository manifests and records which
// repository depends on which.
//
// A crawl starts from a [Root]: the display URL that names the root
// repository in the graph, and the raw URL of its manifest. For every entry
// of a fetched manifest the crawler adds an edge from the manifest's
// repository to the entry's URL, derives the entry's own manifest URL with a
// repos.Deriver, and descends into it before moving to the next entry. The
// walk is depth-first, pre-order, in manifest order, driven by an explicit
// stack so deep chains cannot exhaust the goroutine stack.
//
// Each raw URL is fetched and expanded at most once per run; this bounds the
// work on shared dependencies and breaks cycles. A manifest that does not
// exist ends its branch silently. A transport failure or a malformed
// manifest aborts the run and no graph is returned.
//
// # Usage
//
//	c := crawl.New(fetch.NewHTTPFetcher(fetch.HTTPOptions{}), crawl.Options{Logger: logger})
//	res, err := c.Crawl(ctx, crawl.Root{
//	    DisplayURL: "https://github.com/autowarefoundation/autoware",
//	    RawURL:     "https://raw.githubusercontent.com/autowarefoundation/autoware/main/autoware.repos",
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Print(render.Mermaid(res.Graph, render.DefaultOptions()))
package crawl
