// Package cli implements the reposgraph command-line interface.
//
// reposgraph walks the build_depends.repos manifests of a repository tree
// and prints the dependency graph between repositories. The CLI is built
// with cobra; logs go to stderr through charmbracelet/log so stdout carries
// only the rendered graph.
//
// # Commands
//
//   - crawl: traverse manifests from a root repository and render the graph
//   - serve: expose crawls over HTTP
//   - cache: inspect or clear the on-disk fetch cache
//   - completion: generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so helpers can log without a CLI handle.
//
// # Configuration
//
// Settings resolve in order flags, environment, config file, defaults. See
// [Config].
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reposgraph/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Crawled 42 repositories (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// logHooks reports fetch and cache events at debug level.
type logHooks struct {
	observability.NoopCrawlHooks
	logger *log.Logger
}

func (h logHooks) OnFetch(_ context.Context, rawURL string, outcome observability.FetchOutcome, d time.Duration) {
	h.logger.Debug("fetch", "url", rawURL, "outcome", outcome, "took", d.Round(time.Millisecond))
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

// registerHooks routes observability events to logger.
func registerHooks(logger *log.Logger) {
	h := logHooks{logger: logger}
	observability.SetCrawlHooks(h)
	observability.SetCacheHooks(h)
}
