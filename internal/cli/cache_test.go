package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reposgraph/pkg/cache"
)

func TestCountEntries(t *testing.T) {
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := fc.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatalf("Set(%q) error: %v", k, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("not an entry"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := countEntries(dir)
	if err != nil {
		t.Fatalf("countEntries() error: %v", err)
	}
	if n != 3 {
		t.Errorf("countEntries() = %d, want 3", n)
	}
}

func TestCountEntriesMissingDir(t *testing.T) {
	n, err := countEntries(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("countEntries() error: %v", err)
	}
	if n != 0 {
		t.Errorf("countEntries() = %d, want 0", n)
	}
}

func TestCachePathCommand(t *testing.T) {
	isolateConfig(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	var out bytes.Buffer
	c := New(&bytes.Buffer{}, log.InfoLevel)
	cmd := c.RootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"cache", "path"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("cache path error: %v", err)
	}

	if got := strings.TrimSpace(out.String()); got != filepath.Join(xdg, appName) {
		t.Errorf("cache path = %q, want %q", got, filepath.Join(xdg, appName))
	}
}

func TestCacheClearCommand(t *testing.T) {
	isolateConfig(t)
	dir := filepath.Join(t.TempDir(), "cache")
	writeConfig(t, "[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	if err := fc.Set(context.Background(), "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}

	c := New(&bytes.Buffer{}, log.InfoLevel)
	cmd := c.RootCommand()
	cmd.SetArgs([]string{"cache", "clear"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}

	n, err := countEntries(dir)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("entries after clear = %d, want 0", n)
	}
}
