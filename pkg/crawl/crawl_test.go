package crawl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/matzehuels/reposgraph/pkg/errors"
	"github.com/matzehuels/reposgraph/pkg/fetch"
	"github.com/matzehuels/reposgraph/pkg/graph"
	"github.com/matzehuels/reposgraph/pkg/repos"
)

const (
	rootDisplay = "https://github.com/org/repo"
	rootRaw     = "https://raw.githubusercontent.com/org/repo/main/root.repos"
)

var root = Root{DisplayURL: rootDisplay, RawURL: rootRaw}

// raw returns the derived manifest URL of github.com/org/<name> at version.
func raw(name, version string) string {
	return repos.RawURL("https://github.com/org/"+name+".git", version)
}

// manifest builds manifest text from name, url, version triples.
func manifest(entries ...string) string {
	var b strings.Builder
	b.WriteString("repositories:\n")
	for i := 0; i+2 < len(entries); i += 3 {
		b.WriteString("  " + entries[i] + ":\n")
		b.WriteString("    type: git\n")
		b.WriteString("    url: " + entries[i+1] + "\n")
		b.WriteString("    version: " + entries[i+2] + "\n")
	}
	return b.String()
}

func gh(name string) string { return "https://github.com/org/" + name + ".git" }

func edges(g *graph.Graph) [][2]string {
	var out [][2]string
	for _, e := range g.Edges() {
		out = append(out, [2]string{e.From, e.To})
	}
	return out
}

func TestCrawlSingleDependency(t *testing.T) {
	f := fetch.NewStatic(map[string]string{
		rootRaw: manifest("dep1", gh("dep1"), "v1.0"),
	})

	res, err := New(f, Options{}).Crawl(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, [][2]string{{rootDisplay, gh("dep1")}}, edges(res.Graph))
	assert.Equal(t, []string{rootRaw, raw("dep1", "v1.0")}, f.Requests())
	assert.Equal(t, 1, res.Stats.Fetched)
	assert.Equal(t, 1, res.Stats.Absent)
	assert.Equal(t, 1, res.Stats.Edges)
	assert.Equal(t, 2, res.Stats.Nodes)
	assert.NotEmpty(t, res.ID)
}

func TestCrawlDepthFirstPreOrder(t *testing.T) {
	f := fetch.NewStatic(map[string]string{
		rootRaw:        manifest("a", gh("a"), "v1", "b", gh("b"), "v1"),
		raw("a", "v1"): manifest("c", gh("c"), "v1"),
		raw("c", "v1"): manifest("d", gh("d"), "v1"),
		raw("b", "v1"): manifest("e", gh("e"), "v1"),
	})

	_, err := New(f, Options{}).Crawl(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		rootRaw,
		raw("a", "v1"),
		raw("c", "v1"),
		raw("d", "v1"),
		raw("b", "v1"),
		raw("e", "v1"),
	}, f.Requests())
}

func TestCrawlAtMostOnceFetch(t *testing.T) {
	f := fetch.NewStatic(map[string]string{
		rootRaw:             manifest("a", gh("a"), "v1", "b", gh("b"), "v1"),
		raw("a", "v1"):      manifest("shared", gh("shared"), "v2"),
		raw("b", "v1"):      manifest("shared", gh("shared"), "v2"),
		raw("shared", "v2"): manifest("leaf", gh("leaf"), "v1"),
	})

	res, err := New(f, Options{}).Crawl(context.Background(), root)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, u := range f.Requests() {
		seen[u]++
	}
	for u, n := range seen {
		assert.Equal(t, 1, n, "fetched %s %d times", u, n)
	}
	assert.Equal(t, 1, res.Stats.Skipped)
	assert.Equal(t, []string{gh("shared")}, res.Graph.Targets(gh("b")))
	assert.Equal(t, []string{gh("leaf")}, res.Graph.Targets(gh("shared")))
}

func TestCrawlCycleTerminates(t *testing.T) {
	rootA := Root{DisplayURL: gh("a"), RawURL: raw("a", "v1")}
	f := fetch.NewStatic(map[string]string{
		raw("a", "v1"): manifest("b", gh("b"), "v2"),
		raw("b", "v2"): manifest("a", gh("a"), "v1"),
	})

	res, err := New(f, Options{}).Crawl(context.Background(), rootA)
	require.NoError(t, err)

	assert.Equal(t, [][2]string{
		{gh("a"), gh("b")},
		{gh("b"), gh("a")},
	}, edges(res.Graph))
	assert.Len(t, f.Requests(), 2)
}

func TestCrawlSelfDependencyOtherVersion(t *testing.T) {
	// a@v1 lists a@v2 then b; a@v2's edges are recorded before a@v1's second.
	rootA := Root{DisplayURL: gh("a"), RawURL: raw("a", "v1")}
	f := fetch.NewStatic(map[string]string{
		raw("a", "v1"): manifest("self", gh("a"), "v2", "b", gh("b"), "v1"),
		raw("a", "v2"): manifest("c", gh("c"), "v1"),
	})

	res, err := New(f, Options{}).Crawl(context.Background(), rootA)
	require.NoError(t, err)
	assert.Equal(t, []string{gh("a"), gh("c"), gh("b")}, res.Graph.Targets(gh("a")))
}

func TestCrawlAbsenceIsSilent(t *testing.T) {
	f := fetch.NewStatic(map[string]string{
		rootRaw:        manifest("a", gh("a"), "v1", "b", gh("b"), "v1"),
		raw("b", "v1"): manifest("c", gh("c"), "v1"),
	})

	res, err := New(f, Options{}).Crawl(context.Background(), root)
	require.NoError(t, err)
	assert.Nil(t, res.Graph.Targets(gh("a")))
	assert.Equal(t, []string{gh("c")}, res.Graph.Targets(gh("b")))
	assert.Equal(t, 2, res.Stats.Absent)
}

func TestCrawlAbsentRootYieldsEmptyGraph(t *testing.T) {
	res, err := New(fetch.NewStatic(nil), Options{}).Crawl(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Graph.EdgeCount())
}

func TestCrawlAbsentURLIsRetried(t *testing.T) {
	// Only found manifests enter the visited set.
	f := fetch.NewStatic(map[string]string{
		rootRaw: manifest("a", gh("missing"), "v1", "b", gh("missing"), "v1"),
	})

	_, err := New(f, Options{}).Crawl(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{rootRaw, raw("missing", "v1"), raw("missing", "v1")}, f.Requests())
}

func TestCrawlEdgeMultiplicity(t *testing.T) {
	f := fetch.NewStatic(map[string]string{
		rootRaw: manifest("x", gh("dup"), "v1", "y", gh("dup"), "v2"),
	})

	res, err := New(f, Options{}).Crawl(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{gh("dup"), gh("dup")}, res.Graph.Targets(rootDisplay))
	assert.Equal(t, 2, res.Stats.Edges)
}

func TestCrawlSchemaStrictness(t *testing.T) {
	for _, missing := range []string{"type", "url", "version"} {
		t.Run(missing, func(t *testing.T) {
			child := manifest("ok", gh("ok"), "v1")
			child = strings.Replace(child, "    "+missing+":", "    other:", 1)
			f := fetch.NewStatic(map[string]string{
				rootRaw:        manifest("a", gh("a"), "v1", "b", gh("b"), "v1"),
				raw("a", "v1"): manifest("leaf", gh("leaf"), "v1"),
				raw("b", "v1"): child,
			})

			res, err := New(f, Options{}).Crawl(context.Background(), root)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, apperr.Is(err, apperr.ErrCodeInvalidManifest))
			assert.True(t, errors.Is(err, repos.ErrMissingKey))
			assert.Contains(t, err.Error(), missing+" was not found")
		})
	}
}

func TestCrawlInvalidEntryEchoesFragment(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	f := fetch.NewStatic(map[string]string{
		rootRaw: "repositories:\n  bad: just-a-string\n",
	})

	_, err := New(f, Options{Logger: logger}).Crawl(context.Background(), root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repos.ErrInvalidEntry))
	assert.Contains(t, buf.String(), "just-a-string")
}

func TestCrawlTransportFailureIsFatal(t *testing.T) {
	boom := apperr.New(apperr.ErrCodeNetwork, "connection reset")
	f := fetch.NewStatic(map[string]string{
		rootRaw: manifest("a", gh("a"), "v1", "b", gh("b"), "v1"),
	}).Fail(raw("a", "v1"), boom)

	res, err := New(f, Options{}).Crawl(context.Background(), root)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
	assert.NotContains(t, f.Requests(), raw("b", "v1"), "crawl should stop at the first error")
}

func TestCrawlWrapsUncodedFetchErrors(t *testing.T) {
	f := fetch.Func(func(context.Context, string) (fetch.Result, error) {
		return fetch.Result{}, errors.New("exec: curl: not found")
	})

	_, err := New(f, Options{}).Crawl(context.Background(), root)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrCodeNetwork))
}

func TestCrawlContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	f := fetch.Func(func(context.Context, string) (fetch.Result, error) {
		calls++
		cancel()
		return fetch.Found(manifest("a", gh("a"), "v1")), nil
	})

	_, err := New(f, Options{}).Crawl(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestCrawlDeterministic(t *testing.T) {
	manifests := map[string]string{
		rootRaw:        manifest("z", gh("z"), "v1", "a", gh("a"), "v1"),
		raw("z", "v1"): manifest("m", gh("m"), "v1", "a", gh("a"), "v1"),
		raw("a", "v1"): manifest("z", gh("z"), "v1"),
	}

	first, err := New(fetch.NewStatic(manifests), Options{}).Crawl(context.Background(), root)
	require.NoError(t, err)
	for range 5 {
		again, err := New(fetch.NewStatic(manifests), Options{}).Crawl(context.Background(), root)
		require.NoError(t, err)
		assert.Equal(t, edges(first.Graph), edges(again.Graph))
	}
}

func TestCrawlerReuseStartsFresh(t *testing.T) {
	f := fetch.NewStatic(map[string]string{rootRaw: manifest("a", gh("a"), "v1")})
	c := New(f, Options{})

	r1, err := c.Crawl(context.Background(), root)
	require.NoError(t, err)
	r2, err := c.Crawl(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, r2.Graph.EdgeCount())
	assert.NotEqual(t, r1.ID, r2.ID)
	assert.Len(t, f.Requests(), 4)
}

func TestCrawlCustomDeriver(t *testing.T) {
	d := repos.DefaultDeriver().WithManifest("deps.repos")
	f := fetch.NewStatic(map[string]string{
		rootRaw: manifest("a", gh("a"), "v1"),
	})

	_, err := New(f, Options{Deriver: d}).Crawl(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, "https://raw.githubusercontent.com/org/a/v1/deps.repos", f.Requests()[1])
}

func TestCrawlLogsOpening(t *testing.T) {
	var buf bytes.Buffer
	f := fetch.NewStatic(map[string]string{rootRaw: manifest("a", gh("a"), "v1")})

	_, err := New(f, Options{Logger: log.New(&buf)}).Crawl(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(buf.String(), "opening"))
	assert.Contains(t, buf.String(), rootRaw)
}

func TestCrawlRequiresRoot(t *testing.T) {
	c := New(fetch.NewStatic(nil), Options{})
	_, err := c.Crawl(context.Background(), Root{DisplayURL: rootDisplay})
	assert.True(t, apperr.Is(err, apperr.ErrCodeInvalidInput))
	_, err = c.Crawl(context.Background(), Root{RawURL: rootRaw})
	assert.True(t, apperr.Is(err, apperr.ErrCodeInvalidInput))
}
