package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/layout"
	"github.com/matzehuels/choirstage/pkg/observability"
)

const keyTypeLayout = "layout"

// Layouts memoizes layout.Compute over a Cache.
//
// Cache failures never fail a layout query: a backend error is treated as a
// miss on read and skipped on write, and both are reported to the cache
// hooks. An undecodable entry is reported as ErrCorrupt and deleted.
type Layouts struct {
	cache Cache
	keyer Keyer
	ttl   time.Duration
}

// NewLayouts creates a layout cache. A nil cache disables caching, a nil
// keyer selects the default keyer and a TTL of zero selects TTLLayout.
func NewLayouts(c Cache, keyer Keyer, ttl time.Duration) *Layouts {
	if c == nil {
		c = NewNullCache()
	}
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	if ttl == 0 {
		ttl = TTLLayout
	}
	return &Layouts{cache: c, keyer: keyer, ttl: ttl}
}

// Key returns the cache key of a chart laid out on stage.
func (l *Layouts) Key(m chart.Model, stage layout.Stage) (string, error) {
	if stage.Width <= 0 || stage.Height <= 0 {
		stage = layout.DefaultStage
	}
	h, err := HashJSON(m)
	if err != nil {
		return "", err
	}
	return l.keyer.LayoutKey(h, LayoutKeyOpts{StageWidth: stage.Width, StageHeight: stage.Height}), nil
}

// Compute returns the placements of m, from cache when possible. The
// boolean reports a cache hit.
func (l *Layouts) Compute(ctx context.Context, m chart.Model, stage layout.Stage) ([]layout.Placement, bool) {
	hooks := observability.Cache()
	key, err := l.Key(m, stage)
	if err != nil {
		return layout.Compute(m, stage), false
	}

	data, ok, err := l.cache.Get(ctx, key)
	switch {
	case err != nil:
		hooks.OnCacheError(ctx, keyTypeLayout, err)
	case ok:
		var placements []layout.Placement
		err := json.Unmarshal(data, &placements)
		if err == nil {
			hooks.OnCacheHit(ctx, keyTypeLayout)
			return placements, true
		}
		hooks.OnCacheError(ctx, keyTypeLayout, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err))
		_ = l.cache.Delete(ctx, key)
	}
	hooks.OnCacheMiss(ctx, keyTypeLayout)

	start := time.Now()
	placements := layout.Compute(m, stage)
	observability.Layout().OnLayout(ctx, m.Generation(), len(placements), time.Since(start))
	if data, err := json.Marshal(placements); err == nil {
		if err := l.cache.Set(ctx, key, data, l.ttl); err != nil {
			hooks.OnCacheError(ctx, keyTypeLayout, err)
		} else {
			hooks.OnCacheSet(ctx, keyTypeLayout, len(data))
		}
	}
	return placements, false
}

// Close closes the underlying cache.
func (l *Layouts) Close() error { return l.cache.Close() }

// Clear drops all cached layouts if the backend supports it.
func (l *Layouts) Clear(ctx context.Context) (int, error) {
	if c, ok := l.cache.(Clearer); ok {
		return c.Clear(ctx)
	}
	return 0, nil
}
