package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	apperr "github.com/matzehuels/reposgraph/pkg/errors"
	"github.com/matzehuels/reposgraph/pkg/fetch"
	"github.com/matzehuels/reposgraph/pkg/render"
	"github.com/matzehuels/reposgraph/pkg/repos"
)

const (
	defaultRootURL    = "https://github.com/autowarefoundation/autoware"
	defaultRootRawURL = "https://raw.githubusercontent.com/autowarefoundation/autoware/main/autoware.repos"
	defaultAddr       = ":8080"

	configFileName = appName + ".toml"
)

// Environment variables read by [loadConfig].
const (
	envRootURL    = "REPOSGRAPH_ROOT_URL"
	envRootRawURL = "REPOSGRAPH_ROOT_RAW_URL"
	envManifest   = "REPOSGRAPH_MANIFEST"
	envCache      = "REPOSGRAPH_CACHE"
	envRedisAddr  = "REPOSGRAPH_REDIS_ADDR"
	envAddr       = "REPOSGRAPH_ADDR"
	envToken      = "GITHUB_TOKEN"
)

// Config holds every setting a command may read. Field tags name the keys of
// the TOML config file.
type Config struct {
	Root   RootConfig   `toml:"root"`
	Hosts  HostsConfig  `toml:"hosts"`
	Fetch  FetchConfig  `toml:"fetch"`
	Cache  CacheConfig  `toml:"cache"`
	Render RenderConfig `toml:"render"`
	Server ServerConfig `toml:"server"`

	// Token authenticates raw-content requests. Only read from GITHUB_TOKEN.
	Token string `toml:"-"`
}

// RootConfig names where a crawl starts.
type RootConfig struct {
	URL      string `toml:"url"`
	RawURL   string `toml:"raw_url"`  // Wins over Ref when set
	Ref      string `toml:"ref"`      // Derives RawURL from URL
	Manifest string `toml:"manifest"` // Root manifest file when deriving; default hosts.manifest
}

// HostsConfig drives raw URL derivation.
type HostsConfig struct {
	Web      string `toml:"web"`
	Raw      string `toml:"raw"`
	Suffix   string `toml:"suffix"`
	Manifest string `toml:"manifest"`
}

// FetchConfig selects the transport.
type FetchConfig struct {
	Transport    string   `toml:"transport"`     // "http" or "command"
	Command      []string `toml:"command"`       // Argv for the command transport
	Sentinel     string   `toml:"sentinel"`      // Body that means "absent"
	AbsentStatus bool     `toml:"absent_status"` // Also treat 404/410 as absent
	Timeout      duration `toml:"timeout"`
}

// CacheConfig selects a cache backend.
type CacheConfig struct {
	Backend       string   `toml:"backend"` // none, file, memory, redis
	TTL           duration `toml:"ttl"`
	Dir           string   `toml:"dir"`
	Size          int      `toml:"size"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
}

// RenderConfig controls output.
type RenderConfig struct {
	Format     string `toml:"format"`
	TrimPrefix string `toml:"trim_prefix"`
	TrimSuffix string `toml:"trim_suffix"`
}

// ServerConfig configures "reposgraph serve".
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	CrawlTimeout duration `toml:"crawl_timeout"`
}

// duration decodes TOML strings such as "30s" with time.ParseDuration.
type duration struct{ time.Duration }

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// defaultConfig reproduces the behaviour of a bare "reposgraph crawl".
func defaultConfig() Config {
	return Config{
		Root: RootConfig{URL: defaultRootURL, RawURL: defaultRootRawURL},
		Hosts: HostsConfig{
			Web:      repos.DefaultWebHost,
			Raw:      repos.DefaultRawHost,
			Suffix:   repos.DefaultRepoSuffix,
			Manifest: repos.DefaultManifestFile,
		},
		Fetch: FetchConfig{
			Transport: "http",
			Sentinel:  fetch.DefaultSentinelBody,
			Timeout:   duration{fetch.DefaultTimeout},
		},
		Cache: CacheConfig{
			Backend: "none",
			TTL:     duration{fetch.DefaultCacheTTL},
		},
		Render: RenderConfig{
			Format:     string(render.FormatMermaid),
			TrimPrefix: render.DefaultTrimPrefix,
			TrimSuffix: render.DefaultTrimSuffix,
		},
		Server: ServerConfig{Addr: defaultAddr},
	}
}

// loadConfig layers the config file and the environment over the defaults.
// An explicit path must exist; otherwise reposgraph.toml in the working
// directory and then the user config file are tried. A .env file in the
// working directory is loaded into the environment first.
func loadConfig(path string) (Config, string, error) {
	cfg := defaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, "", apperr.Wrap(apperr.ErrCodeInvalidInput, err, ".env")
	}

	file, err := findConfigFile(path)
	if err != nil {
		return cfg, "", err
	}
	if file != "" {
		md, err := toml.DecodeFile(file, &cfg)
		if err != nil {
			return cfg, file, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "config %s", file)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, file, apperr.New(apperr.ErrCodeInvalidInput, "config %s: unknown key %q", file, undecoded[0].String())
		}
		moved := md.IsDefined("root", "url") || md.IsDefined("root", "ref") || md.IsDefined("root", "manifest")
		if rootMoved(moved, md.IsDefined("root", "raw_url")) {
			cfg.Root.RawURL = ""
		}
	}

	applyEnv(&cfg)
	return cfg, file, nil
}

func findConfigFile(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", apperr.Wrap(apperr.ErrCodeInvalidInput, err, "config file")
		}
		return path, nil
	}

	candidates := []string{configFileName}
	if dir, err := configDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "config.toml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", nil
}

// rootMoved reports whether the root repository was overridden without a
// matching raw URL, in which case the default raw URL no longer applies.
func rootMoved(urlSet, rawSet bool) bool {
	return urlSet && !rawSet
}

func applyEnv(cfg *Config) {
	url, urlSet := lookupEnv(envRootURL)
	raw, rawSet := lookupEnv(envRootRawURL)
	if urlSet {
		cfg.Root.URL = url
	}
	if rawSet {
		cfg.Root.RawURL = raw
	} else if rootMoved(urlSet, rawSet) {
		cfg.Root.RawURL = ""
	}

	if v, ok := lookupEnv(envManifest); ok {
		cfg.Hosts.Manifest = v
	}
	if v, ok := lookupEnv(envCache); ok {
		cfg.Cache.Backend = v
	}
	if v, ok := lookupEnv(envRedisAddr); ok {
		cfg.Cache.RedisAddr = v
		if cfg.Cache.Backend == "none" {
			cfg.Cache.Backend = "redis"
		}
	}
	if v, ok := lookupEnv(envAddr); ok {
		if _, err := strconv.Atoi(v); err == nil {
			v = ":" + v
		}
		cfg.Server.Addr = v
	}
	if v, ok := lookupEnv(envToken); ok {
		cfg.Token = v
	}
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// deriver builds the child manifest deriver from the hosts section.
func (c Config) deriver() repos.Deriver {
	return repos.Deriver{
		WebHost:      c.Hosts.Web,
		RawHost:      c.Hosts.Raw,
		RepoSuffix:   c.Hosts.Suffix,
		ManifestFile: c.Hosts.Manifest,
	}
}

func (c Config) renderOptions() render.Options {
	return render.Options{TrimPrefix: c.Render.TrimPrefix, TrimSuffix: c.Render.TrimSuffix}
}

// validate checks the settings every command depends on.
func (c Config) validate() error {
	if err := apperr.ValidateManifestFilename(c.Hosts.Manifest); err != nil {
		return err
	}
	if c.Root.Manifest != "" {
		if err := apperr.ValidateManifestFilename(c.Root.Manifest); err != nil {
			return err
		}
	}
	if c.Fetch.Sentinel == "" {
		return apperr.New(apperr.ErrCodeInvalidInput, "absence sentinel cannot be empty")
	}
	switch c.Fetch.Transport {
	case "http", "command":
	default:
		return apperr.New(apperr.ErrCodeInvalidInput, "unknown transport %q (want http or command)", c.Fetch.Transport)
	}
	switch c.Cache.Backend {
	case "none", "file", "memory", "redis":
	default:
		return apperr.New(apperr.ErrCodeInvalidInput, "unknown cache backend %q (want none, file, memory or redis)", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return apperr.New(apperr.ErrCodeInvalidInput, "redis cache needs an address (%s or cache.redis_addr)", envRedisAddr)
	}
	if _, err := render.ValidateFormat(c.Render.Format); err != nil {
		return err
	}
	return nil
}

// configDir returns the config directory using XDG standard (~/.config/reposgraph/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}
