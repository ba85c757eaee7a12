package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/choirstage/pkg/buildinfo"
	"github.com/matzehuels/choirstage/pkg/cache"
	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/layout"
	"github.com/matzehuels/choirstage/pkg/session"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
log_level = "debug"

[server]
addr = ":9090"
shutdown_timeout = "3s"

[store]
backend = "memory"

[cache]
backend = "redis"
ttl = "1h"

[cache.redis]
addr = "cache:6379"
db = 2

[editor]
snap_threshold = 20.0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.Server.Addr != ":9090" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 3s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Cache.Redis.Addr != "cache:6379" || cfg.Cache.Redis.DB != 2 || cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Editor.SnapThreshold != 20 {
		t.Errorf("SnapThreshold = %v, want 20", cfg.Editor.SnapThreshold)
	}
	// Unset keys keep their defaults.
	if cfg.Editor.StageWidth != 1000 || cfg.Server.MaxBodyBytes != 4<<20 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.toml", "[server]\naddr = \":9090\"\n")
	t.Setenv("CHOIRSTAGE_SERVER_ADDR", ":7070")
	t.Setenv("CHOIRSTAGE_STORE_MONGO_DATABASE", "choir_test")
	t.Setenv("CHOIRSTAGE_CACHE_REDIS_PASSWORD", "secret")
	t.Setenv("CHOIRSTAGE_EDITOR_AUTOSAVE_DELAY", "500ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("Addr = %q, want :7070", cfg.Server.Addr)
	}
	if cfg.Store.Mongo.Database != "choir_test" {
		t.Errorf("Mongo.Database = %q", cfg.Store.Mongo.Database)
	}
	if cfg.Cache.Redis.Password != "secret" {
		t.Errorf("Redis.Password = %q", cfg.Cache.Redis.Password)
	}
	if cfg.Editor.AutosaveDelay != 500*time.Millisecond {
		t.Errorf("AutosaveDelay = %v", cfg.Editor.AutosaveDelay)
	}
}

func TestLoadEnvFile(t *testing.T) {
	const key = "CHOIRSTAGE_STORE_DIR"
	t.Cleanup(func() { os.Unsetenv(key) })
	dotenv := writeFile(t, ".env", key+"=/srv/choir\n")
	cfgPath := writeFile(t, "config.toml", "")

	cfg, err := Load(cfgPath, dotenv, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Store.Dir != "/srv/choir" {
		t.Errorf("Store.Dir = %q, want /srv/choir", cfg.Store.Dir)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		want    string
	}{
		{"bad toml", "log_level = ", nil, "read config"},
		{"bad level", `log_level = "loud"`, nil, "invalid config"},
		{"bad backend", "[store]\nbackend = \"sqlite\"", nil, "invalid config"},
		{"negative stage", "[editor]\nstage_width = -1.0", nil, "invalid config"},
		{"bad duration env", "", map[string]string{"CHOIRSTAGE_SERVER_READ_TIMEOUT": "soon"}, "parse environment"},
		{"mongo without uri", "[store]\nbackend = \"mongo\"\n[store.mongo]\nuri = \"\"", nil, "mongo.uri"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, "config.toml", tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load(missing) error = nil")
	}
}

func TestOpenStoreAndCache(t *testing.T) {
	ctx := context.Background()

	mem, err := StoreConfig{Backend: StoreMemory}.OpenStore(ctx)
	if _, ok := mem.(*session.MemoryStore); !ok || err != nil {
		t.Errorf("OpenStore(memory) = %T, %v", mem, err)
	}
	dir := t.TempDir()
	fs, err := StoreConfig{Backend: StoreFile, Dir: dir}.OpenStore(ctx)
	if f, ok := fs.(*session.FileStore); !ok || err != nil || f.Path() != dir {
		t.Errorf("OpenStore(file) = %T, %v", fs, err)
	}
	if _, err := (StoreConfig{Backend: "tape"}).OpenStore(ctx); err == nil {
		t.Error("OpenStore(unknown) error = nil")
	}

	c, err := CacheConfig{Backend: CacheNone}.OpenCache(ctx)
	if _, ok := c.(*cache.NullCache); !ok || err != nil {
		t.Errorf("OpenCache(none) = %T, %v", c, err)
	}
	cdir := t.TempDir()
	fc, err := CacheConfig{Backend: CacheFile, Dir: cdir}.OpenCache(ctx)
	if f, ok := fc.(*cache.FileCache); !ok || err != nil || f.Dir() != cdir {
		t.Errorf("OpenCache(file) = %T, %v", fc, err)
	}
}

func TestOpenLayoutsScopedByVersion(t *testing.T) {
	defer func(v string) { buildinfo.Version = v }(buildinfo.Version)
	ctx := context.Background()
	cfg := CacheConfig{Backend: CacheFile, Dir: t.TempDir()}
	m := chart.New("Concert")

	buildinfo.Version = "v1.0.0"
	key := cfg.Keyer().LayoutKey("abc", cache.LayoutKeyOpts{StageWidth: 1000, StageHeight: 600})
	if !strings.HasPrefix(key, "v1.0.0:layout:") {
		t.Errorf("LayoutKey() = %s, want v1.0.0:layout: prefix", key)
	}

	open := func() *cache.Layouts {
		l, err := cfg.OpenLayouts(ctx)
		if err != nil {
			t.Fatalf("OpenLayouts() error: %v", err)
		}
		return l
	}
	v1 := open()
	v1.Compute(ctx, m, layout.DefaultStage)
	if _, hit := v1.Compute(ctx, m, layout.DefaultStage); !hit {
		t.Error("same build should hit")
	}

	buildinfo.Version = "v1.1.0"
	if _, hit := open().Compute(ctx, m, layout.DefaultStage); hit {
		t.Error("new build should not read entries of the old one")
	}
}

func TestNewEditor(t *testing.T) {
	e := Default().Editor
	e.SnapThreshold = -1
	e.StageWidth = 1200
	ed := e.NewEditor()
	if ed.Snap.Threshold != -1 || ed.Stage.Width != 1200 || ed.Stage.Height != 600 {
		t.Errorf("NewEditor() = %+v", ed)
	}
}
