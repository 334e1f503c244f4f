package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/aizine/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", home)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(home, "aizine"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}

	c := New(&bytes.Buffer{}, log.InfoLevel)
	c.Config.Cache.Dir = "/srv/aizine-cache"
	if dir, _ := c.cacheDir(); dir != "/srv/aizine-cache" {
		t.Errorf("configured cacheDir() = %q", dir)
	}
}

func TestNewCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	ctx := context.Background()

	tests := []struct {
		name     string
		noCache  bool
		disabled bool
		wantFile bool
	}{
		{"default is file cache", false, false, true},
		{"flag disables", true, false, false},
		{"config disables", false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&bytes.Buffer{}, log.InfoLevel)
			c.Config.Cache.Disabled = tt.disabled

			got := c.newCache(ctx, tt.noCache)
			defer got.Close()
			if _, isFile := got.(*cache.FileCache); isFile != tt.wantFile {
				t.Errorf("newCache() = %T, want file cache %v", got, tt.wantFile)
			}
		})
	}
}

func TestClearCache(t *testing.T) {
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := fc.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	if err := fc.Set(ctx, "stale", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)

	n, err := clearCache(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("clearCache(expired) = %d, want 1", n)
	}
	if _, ok, _ := fc.Get(ctx, "a"); !ok {
		t.Error("live entry removed by expired-only clear")
	}

	n, err = clearCache(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("clearCache() = %d, want 3", n)
	}
	if _, ok, _ := fc.Get(ctx, "a"); ok {
		t.Error("entry survived clear")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache dir removed: %v", err)
	}
}
