package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reposgraph/pkg/crawl"
	apperr "github.com/matzehuels/reposgraph/pkg/errors"
	"github.com/matzehuels/reposgraph/pkg/render"
)

// defaultRef is the branch used when the root raw URL is derived.
const defaultRef = "main"

// crawlFlags holds flag values for the crawl command. Only flags the user
// set override the loaded config.
type crawlFlags struct {
	url          string
	rawURL       string
	ref          string
	manifest     string
	rootManifest string
	format       string
	output       string
	transport    string
	sentinel     string
	absentStatus bool
	timeout      time.Duration
	cache        string
	refresh      bool
	explore      bool
}

func (c *CLI) crawlCommand() *cobra.Command {
	var flags crawlFlags

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl manifests from a root repository and print the dependency graph",
		Long: `Crawl fetches the root manifest, then for every listed repository fetches
<url>/<version>/build_depends.repos from the raw-content host, depth first.
Each manifest is fetched at most once; missing manifests end their branch.

Without flags the Autoware repository tree is crawled.`,
		Example: `  # Autoware, as Mermaid on stdout
  reposgraph crawl

  # Another root, deriving its manifest URL from a branch
  reposgraph crawl --url https://github.com/org/repo --ref humble --root-manifest org.repos

  # SVG through the curl transport, cached on disk
  reposgraph crawl --transport command --cache file -f svg -o deps.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg)
			if err := cfg.validate(); err != nil {
				return err
			}
			return c.runCrawl(cmd.Context(), cfg, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.url, "url", "", "root repository URL (default Autoware)")
	f.StringVar(&flags.rawURL, "raw-url", "", "root manifest URL (overrides --ref)")
	f.StringVar(&flags.ref, "ref", "", "derive the root manifest URL from --url at this ref (default main)")
	f.StringVar(&flags.manifest, "manifest", "", "manifest file looked up in each dependency (default build_depends.repos)")
	f.StringVar(&flags.rootManifest, "root-manifest", "", "manifest file of the root repository when deriving (default --manifest)")
	f.StringVarP(&flags.format, "format", "f", "", "output format: mermaid, dot, svg, json (default mermaid)")
	f.StringVarP(&flags.output, "output", "o", "", "output file (default stdout)")
	f.StringVar(&flags.transport, "transport", "", "fetch transport: http or command (default http)")
	f.StringVar(&flags.sentinel, "sentinel", "", "response body that means a manifest is absent")
	f.BoolVar(&flags.absentStatus, "absent-status", false, "also treat HTTP 404/410 as an absent manifest")
	f.DurationVar(&flags.timeout, "timeout", 0, "per-request timeout for the http transport")
	f.StringVar(&flags.cache, "cache", "", "cache backend: none, file, memory, redis (default none)")
	f.BoolVar(&flags.refresh, "refresh", false, "ignore cached manifests and fetch again")
	f.BoolVar(&flags.explore, "explore", false, "browse the graph interactively instead of printing it")

	return cmd
}

// apply overlays the flags the user set on cfg.
func (f crawlFlags) apply(cmd *cobra.Command, cfg *Config) {
	changed := cmd.Flags().Changed

	if changed("url") {
		cfg.Root.URL = f.url
	}
	if changed("ref") {
		cfg.Root.Ref = f.ref
	}
	if changed("raw-url") {
		cfg.Root.RawURL = f.rawURL
	} else if changed("url") || changed("ref") || changed("root-manifest") {
		cfg.Root.RawURL = ""
	}
	if changed("manifest") {
		cfg.Hosts.Manifest = f.manifest
	}
	if changed("root-manifest") {
		cfg.Root.Manifest = f.rootManifest
	}
	if changed("format") {
		cfg.Render.Format = f.format
	}
	if changed("transport") {
		cfg.Fetch.Transport = f.transport
	}
	if changed("sentinel") {
		cfg.Fetch.Sentinel = f.sentinel
	}
	if changed("absent-status") {
		cfg.Fetch.AbsentStatus = f.absentStatus
	}
	if changed("timeout") {
		cfg.Fetch.Timeout = duration{f.timeout}
	}
	if changed("cache") {
		cfg.Cache.Backend = f.cache
	}
}

// resolveRoot turns the root settings into a crawl root. An explicit raw URL
// wins; otherwise the manifest URL is derived from the root URL and ref.
func resolveRoot(cfg Config) (crawl.Root, error) {
	if err := apperr.ValidateURL(cfg.Root.URL); err != nil {
		return crawl.Root{}, err
	}
	if cfg.Root.RawURL != "" {
		if err := apperr.ValidateURL(cfg.Root.RawURL); err != nil {
			return crawl.Root{}, err
		}
		return crawl.Root{DisplayURL: cfg.Root.URL, RawURL: cfg.Root.RawURL}, nil
	}

	ref := cfg.Root.Ref
	if ref == "" {
		ref = defaultRef
	}
	if err := apperr.ValidateRef(ref); err != nil {
		return crawl.Root{}, err
	}
	d := cfg.deriver()
	if cfg.Root.Manifest != "" {
		d = d.WithManifest(cfg.Root.Manifest)
	}
	return crawl.Root{DisplayURL: cfg.Root.URL, RawURL: d.RawURL(cfg.Root.URL, ref)}, nil
}

func (c *CLI) runCrawl(ctx context.Context, cfg Config, flags crawlFlags) error {
	logger := loggerFromContext(ctx)

	root, err := resolveRoot(cfg)
	if err != nil {
		return err
	}
	format, err := render.ValidateFormat(cfg.Render.Format)
	if err != nil {
		return err
	}

	f, closeFetcher, err := c.newFetcher(ctx, cfg, flags.refresh)
	if err != nil {
		return err
	}
	defer closeFetcher()

	prog := newProgress(logger)
	res, err := crawl.New(f, crawl.Options{Deriver: cfg.deriver(), Logger: logger}).Crawl(ctx, root)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Crawled %d repositories", res.Stats.Nodes))
	printStats(res.Stats)

	if flags.explore {
		if err := runExplorer(res.Graph, cfg.renderOptions()); err != nil {
			return err
		}
		if flags.output == "" {
			return nil
		}
	}

	// Render fully before touching the output so a failure never leaves a
	// truncated diagram behind.
	out, err := render.Render(ctx, res.Graph, format, cfg.renderOptions())
	if err != nil {
		return err
	}
	return c.writeOutput(flags.output, out)
}

func (c *CLI) writeOutput(path string, data []byte) error {
	w, err := c.openOutput(path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if path != "" {
		printFile(path)
	}
	return nil
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns c.Out for an empty path, otherwise creates the file.
func (c *CLI) openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		out := c.Out
		if out == nil {
			out = os.Stdout
		}
		return nopCloser{out}, nil
	}
	return os.Create(path)
}
