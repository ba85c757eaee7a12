package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/layout"
	"github.com/matzehuels/choirstage/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return a nil miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// cacheContract exercises behavior every storing backend shares.
func cacheContract(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "a", []byte("alpha"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "a")
	if err != nil || !hit || string(data) != "alpha" {
		t.Errorf("Get(a) = %q, %v, %v", data, hit, err)
	}

	c.Set(ctx, "a", []byte("beta"), 0)
	if data, _, _ := c.Get(ctx, "a"); string(data) != "beta" {
		t.Errorf("Get(a) after overwrite = %q, want beta", data)
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "a"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}

	c.Set(ctx, "x", []byte("1"), time.Hour)
	c.Set(ctx, "y", []byte("2"), time.Hour)
	n, err := c.(Clearer).Clear(ctx)
	if err != nil || n != 2 {
		t.Errorf("Clear() = %d, %v; want 2", n, err)
	}
	if _, hit, _ := c.Get(ctx, "x"); hit {
		t.Error("Get after Clear should miss")
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	cacheContract(t, c)
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", []byte("v"), time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry should hit")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("k")
	os.MkdirAll(filepath.Dir(path), 0755)
	os.WriteFile(path, []byte("{not json"), 0644)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) = hit %v, err %v; want silent miss", hit, err)
	}
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedisCacheFromClient(client, "test:")
	cacheContract(t, c)

	// Keys outside the prefix survive Clear.
	mr.Set("other", "keep")
	c.Set(context.Background(), "mine", []byte("x"), time.Hour)
	c.Clear(context.Background())
	if !mr.Exists("other") {
		t.Error("Clear removed a key outside its prefix")
	}
}

func TestRedisCacheTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	c := NewRedisCacheFromClient(client, "")
	c.Set(ctx, "k", []byte("v"), time.Minute)
	if ttl := mr.TTL(DefaultRedisPrefix + "k"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired key should miss")
	}
}

func TestNewRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
}

func TestNewRedisCacheUnavailable(t *testing.T) {
	saved := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = saved }()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), RedisConfig{Addr: addr})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("NewRedisCache error = %v, want ErrUnavailable", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}

	a, _ := HashJSON(chart.New("a"))
	b, _ := HashJSON(chart.New("b"))
	if a == b {
		t.Error("HashJSON should differ for different charts")
	}
}

func TestKeyers(t *testing.T) {
	k := NewDefaultKeyer()
	k1 := k.LayoutKey("hash123", LayoutKeyOpts{StageWidth: 1000, StageHeight: 600})
	k2 := k.LayoutKey("hash123", LayoutKeyOpts{StageWidth: 800, StageHeight: 600})
	if k1 == k2 {
		t.Error("Different stage sizes should produce different keys")
	}
	if k1[:7] != "layout:" {
		t.Errorf("LayoutKey = %s, want layout: prefix", k1)
	}

	scoped := NewScopedKeyer(nil, "tenant:")
	if got := scoped.LayoutKey("hash123", LayoutKeyOpts{StageWidth: 1000, StageHeight: 600}); got != "tenant:"+k1 {
		t.Errorf("ScopedKeyer.LayoutKey = %s, want tenant:%s", got, k1)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrCorrupt) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	saved := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = saved }()
	ctx := context.Background()

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, true, 1, false},
		{"non-retryable stops", 5, false, 1, true},
		{"recovers", 1, true, 2, false},
		{"gives up", 5, true, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls > tt.failures {
					return nil
				}
				if tt.retryable {
					return Retryable(ErrUnavailable)
				}
				return ErrCorrupt
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

type countingHooks struct {
	mu                sync.Mutex
	hits, misses, set int
	errs              []error
}

func (h *countingHooks) OnCacheError(_ context.Context, _ string, err error) {
	h.mu.Lock()
	h.errs = append(h.errs, err)
	h.mu.Unlock()
}

func (h *countingHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	h.hits++
	h.mu.Unlock()
}

func (h *countingHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	h.misses++
	h.mu.Unlock()
}

func (h *countingHooks) OnCacheSet(context.Context, string, int) {
	h.mu.Lock()
	h.set++
	h.mu.Unlock()
}

func TestLayoutsCompute(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	fc, _ := NewFileCache(t.TempDir())
	l := NewLayouts(fc, nil, 0)
	ctx := context.Background()

	m := chart.New("Concert")
	m.Roster = []chart.RosterMember{{ID: "a", Name: "Ann", SectionID: "alto"}}
	m.Seating = []chart.SeatedMember{{RosterID: "a"}}

	first, hit := l.Compute(ctx, m, layout.DefaultStage)
	if hit {
		t.Error("first Compute should miss")
	}
	second, hit := l.Compute(ctx, m, layout.Stage{})
	if !hit {
		t.Error("second Compute should hit (zero stage means default)")
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Errorf("cached placements differ: %+v vs %+v", first, second)
	}

	m.Settings.PianoPosition = chart.PianoRight
	if _, hit := l.Compute(ctx, m, layout.DefaultStage); hit {
		t.Error("edited chart should miss")
	}

	if hooks.hits != 1 || hooks.misses != 2 || hooks.set != 2 {
		t.Errorf("hooks = %d hits, %d misses, %d sets; want 1, 2, 2", hooks.hits, hooks.misses, hooks.set)
	}

	if n, err := l.Clear(ctx); err != nil || n != 2 {
		t.Errorf("Clear() = %d, %v; want 2", n, err)
	}
}

func TestLayoutsCorruptEntry(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	fc, _ := NewFileCache(t.TempDir())
	l := NewLayouts(fc, nil, 0)
	ctx := context.Background()
	m := chart.New("Concert")

	key, err := l.Key(m, layout.DefaultStage)
	if err != nil {
		t.Fatalf("Key() error: %v", err)
	}
	if err := fc.Set(ctx, key, []byte("{not json"), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	if _, hit := l.Compute(ctx, m, layout.DefaultStage); hit {
		t.Error("Compute over a corrupt entry should miss")
	}
	if len(hooks.errs) != 1 || !errors.Is(hooks.errs[0], ErrCorrupt) {
		t.Errorf("cache errors = %v, want one ErrCorrupt", hooks.errs)
	}
	if _, hit := l.Compute(ctx, m, layout.DefaultStage); !hit {
		t.Error("Compute after recompute should hit")
	}
}

type failingCache struct{ NullCache }

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, ErrUnavailable
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return ErrUnavailable
}

func TestLayoutsBackendErrors(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	l := NewLayouts(&failingCache{}, nil, 0)
	if _, hit := l.Compute(context.Background(), chart.New("x"), layout.DefaultStage); hit {
		t.Error("Compute() over a failing cache should miss")
	}
	if len(hooks.errs) != 2 || !errors.Is(hooks.errs[0], ErrUnavailable) {
		t.Errorf("cache errors = %v, want two ErrUnavailable", hooks.errs)
	}
}

func TestLayoutsNilCache(t *testing.T) {
	l := NewLayouts(nil, nil, 0)
	m := chart.New("x")
	for range 2 {
		if _, hit := l.Compute(context.Background(), m, layout.DefaultStage); hit {
			t.Error("disabled cache should never hit")
		}
	}
}
