package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/matzehuels/choirstage/pkg/buildinfo"
	"github.com/matzehuels/choirstage/pkg/cache"
	"github.com/matzehuels/choirstage/pkg/core/layout"
	"github.com/matzehuels/choirstage/pkg/core/snap"
	"github.com/matzehuels/choirstage/pkg/editor"
	"github.com/matzehuels/choirstage/pkg/session"
)

// OpenStore constructs the configured session store. The caller closes it.
func (c StoreConfig) OpenStore(ctx context.Context) (session.Store, error) {
	switch c.Backend {
	case StoreMemory:
		return session.NewMemoryStore(), nil
	case StoreFile:
		return session.NewFileStore(c.Dir)
	case StoreMongo:
		return session.NewMongoStore(ctx, c.Mongo)
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}
}

// OpenCache constructs the configured layout cache. The caller closes it.
func (c CacheConfig) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheFile:
		return cache.NewFileCache(c.CacheDir())
	case CacheRedis:
		return cache.NewRedisCache(ctx, c.Redis)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}

// CacheDir returns the file cache directory, defaulting to the user cache
// directory.
func (c CacheConfig) CacheDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	if dir, err := cache.DefaultDir(); err == nil {
		return dir
	}
	return filepath.Join(".", ".choirstage-cache")
}

// OpenLayouts wraps the configured cache in a layout cache.
func (c CacheConfig) OpenLayouts(ctx context.Context) (*cache.Layouts, error) {
	backend, err := c.OpenCache(ctx)
	if err != nil {
		return nil, err
	}
	return cache.NewLayouts(backend, c.Keyer(), c.TTL), nil
}

// Keyer scopes layout keys to the running build, so placements cached by a
// release with different block geometry are never served.
func (c CacheConfig) Keyer() cache.Keyer {
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
}

// Stage returns the configured stage size.
func (c EditorConfig) Stage() layout.Stage {
	return layout.Stage{Width: c.StageWidth, Height: c.StageHeight}
}

// NewEditor returns an editor configured with the snap threshold and stage.
func (c EditorConfig) NewEditor() *editor.Editor {
	e := editor.New()
	e.Snap = snap.Options{Threshold: c.SnapThreshold}
	e.Stage = c.Stage()
	return e
}
