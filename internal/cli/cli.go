package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/reposgraph/pkg/buildinfo"
	"github.com/matzehuels/reposgraph/pkg/cache"
	"github.com/matzehuels/reposgraph/pkg/fetch"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "reposgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives rendered graphs. Defaults to os.Stdout.
	Out io.Writer

	configPath string
	transport  fetch.Fetcher // replaces the configured transport when set
}

// New creates a new CLI instance with a default logger writing to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "reposgraph maps dependencies between repositories",
		Long: `reposgraph follows the .repos manifests of a repository tree, starting at a root
repository, and prints the graph of which repository depends on which as a Mermaid
flowchart (or DOT, SVG, JSON).`,
		Version:      buildinfo.Resolved(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			registerHooks(c.Logger)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./reposgraph.toml or $XDG_CONFIG_HOME/reposgraph/config.toml)")

	root.AddCommand(c.crawlCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the layered configuration for a command.
func (c *CLI) config() (Config, error) {
	cfg, file, err := loadConfig(c.configPath)
	if err != nil {
		return cfg, err
	}
	if file != "" {
		c.Logger.Debug("loaded config", "file", file)
	}
	return cfg, nil
}

// =============================================================================
// Fetcher Factory
// =============================================================================

// newFetcher builds the transport described by cfg, wrapped in a cache when
// one is configured. The returned close function releases the cache.
func (c *CLI) newFetcher(ctx context.Context, cfg Config, refresh bool) (fetch.Fetcher, func() error, error) {
	detector := fetch.Detector(fetch.Sentinel{Body: cfg.Fetch.Sentinel})
	if cfg.Fetch.AbsentStatus {
		detector = fetch.AnyOf(detector, fetch.StatusDetector{})
	}

	f := c.transport
	switch {
	case f != nil:
	case cfg.Fetch.Transport == "command":
		f = fetch.NewCommandFetcher(cfg.Fetch.Command, detector)
	default:
		f = fetch.NewHTTPFetcher(fetch.HTTPOptions{
			Timeout:   cfg.Fetch.Timeout.Duration,
			Detector:  detector,
			Token:     cfg.Token,
			UserAgent: buildinfo.UserAgent(),
		})
	}

	if cfg.Cache.Backend == "none" {
		return f, func() error { return nil }, nil
	}
	store, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("cache enabled", "backend", cfg.Cache.Backend, "refresh", refresh)
	cf := fetch.NewCachedFetcher(f, store, fetch.CacheOptions{TTL: cfg.Cache.TTL.Duration, Refresh: refresh})
	return cf, cf.Close, nil
}

func newCache(ctx context.Context, cfg CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "file":
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	case "memory":
		return cache.NewMemoryCache(cfg.Size)
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	default:
		return cache.NewNullCache(), nil
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/reposgraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
