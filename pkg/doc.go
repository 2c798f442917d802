// Package pkg provides the core libraries of reposgraph.
//
// # Overview
//
// reposgraph maps the dependencies between repositories of a multi-repository
// project. Starting from a root .repos manifest it follows every listed
// repository's build_depends.repos file, depth first, and records which
// repository depends on which. The pkg directory is organized into:
//
//  1. Domain - [repos], [graph], [crawl]
//  2. Transport - [fetch], [httputil], [cache]
//  3. Output - [render]
//  4. Support - [errors], [observability], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	root manifest URL
//	         ↓
//	    [fetch] package (http, command or static transport, optionally cached)
//	         ↓
//	    [repos] package (parse manifest, derive child manifest URLs)
//	         ↓
//	    [crawl] package (depth-first traversal, each manifest at most once)
//	         ↓
//	    [graph] package (ordered edge list)
//	         ↓
//	    [render] package (Mermaid, DOT, SVG, JSON)
//
// # Quick Start
//
//	f := fetch.NewHTTPFetcher(fetch.HTTPOptions{})
//	res, err := crawl.New(f, crawl.Options{}).Crawl(ctx, crawl.Root{
//	    DisplayURL: "https://github.com/autowarefoundation/autoware",
//	    RawURL:     "https://raw.githubusercontent.com/autowarefoundation/autoware/main/autoware.repos",
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Print(render.Mermaid(res.Graph, render.DefaultOptions()))
//
// # Main Packages
//
// [repos] - Manifest parsing with strict entry validation, and raw-content URL
// derivation from repository URLs and versions.
//
// [crawl] - The traversal. Absent manifests end a branch silently; transport
// failures and malformed manifests abort the whole run.
//
// [fetch] - Fetcher implementations. Absence is decided by a pluggable
// [fetch.Detector]; the default matches GitHub's "404: Not Found" body.
//
// [cache] - File, in-memory LRU and Redis caches behind one interface, used by
// [fetch.CachedFetcher].
//
// [render] - Diagram output. Labels are shortened for text formats; JSON keeps
// full URLs.
//
// # Testing
//
//	go test ./...                          # All tests
//	REDIS_ADDR=localhost:6379 go test ./pkg/cache/...  # Include Redis
//
// [repos]: https://pkg.go.dev/github.com/matzehuels/reposgraph/pkg/repos
// [graph]: https://pkg.go.dev/github.com/matzehuels/reposgraph/pkg/graph
// [crawl]: https://pkg.go.dev/github.com/matzehuels/reposgraph/pkg/crawl
// [fetch]: https://pkg.go.dev/github.com/matzehuels/reposgraph/pkg/fetch
// [fetch.Detector]: https://pkg.go.dev/github.com/matzehuels/reposgraph/pkg/fetch#Detector
// [fetch.CachedFetcher]: https://pkg.go.dev/github.com/matzehuels/reposgraph/pkg/fetch#CachedFetcher
// [httputil]: https://pkg.go.dev/github.com/matzehuels/reposgraph/pkg/httputil
// [cache]: https://pkg.go.dev/github.com/matzehuels/reposgraph/pkg/cache
// [render]: https://pkg.go.dev/github.com/matzehuels/reposgraph/pkg/render
// [errors]: https://pkg.go.dev/github.com/matzehuels/reposgraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/reposgraph/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/reposgraph/pkg/buildinfo
package pkg
