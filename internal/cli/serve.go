package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reposgraph/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr         string
		cacheBackend string
		crawlTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dependency graphs over HTTP",
		Long: `Serve starts an HTTP API:

  GET /healthz
  GET /graph?url=<repo>[&raw_url=<manifest>|&ref=<ref>][&manifest=<file>][&format=mermaid|dot|svg|json]

Every request runs a fresh crawl. Use --cache memory or redis to share fetched
manifests between requests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("cache") {
				cfg.Cache.Backend = cacheBackend
			}
			if cmd.Flags().Changed("crawl-timeout") {
				cfg.Server.CrawlTimeout = duration{crawlTimeout}
			}
			if err := cfg.validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			f, closeFetcher, err := c.newFetcher(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer closeFetcher()

			srv := server.New(server.Options{
				Fetcher:      f,
				Deriver:      cfg.deriver(),
				Render:       cfg.renderOptions(),
				Logger:       loggerFromContext(ctx),
				CrawlTimeout: cfg.Server.CrawlTimeout.Duration,
				DefaultRef:   cfg.Root.Ref,
			})
			printInfo("Serving on %s", StyleHighlight.Render(cfg.Server.Addr))
			printDetail("Cache: %s", cfg.Cache.Backend)
			err = srv.ListenAndServe(ctx, cfg.Server.Addr)
			if errors.Is(err, context.Canceled) {
				printInfo("Server stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&cacheBackend, "cache", "", "cache backend: none, file, memory, redis")
	cmd.Flags().DurationVar(&crawlTimeout, "crawl-timeout", server.DefaultCrawlTimeout, "maximum duration of one crawl")

	return cmd
}
