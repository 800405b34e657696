package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	_ "github.com/covenant-hq/covenant/testing"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheFetchJSONPopulatesAndHits(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, 1, "bs")
	if err != nil {
		t.Fatalf("build key: %v", err)
	}

	loads := 0
	loader := func(ctx context.Context) (any, error) {
		loads++
		return map[string]float64{"total": 42}, nil
	}

	var first map[string]float64
	if err := cache.FetchJSON(ctx, key, &first, loader); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	var second map[string]float64
	if err := cache.FetchJSON(ctx, key, &second, loader); err != nil {
		t.Fatalf("fetch again: %v", err)
	}
	if loads != 1 {
		t.Fatalf("expected one loader call, got %d", loads)
	}
	if second["total"] != 42 {
		t.Fatalf("unexpected cached value: %v", second)
	}
}

func TestCacheBumpChangesKey(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, 1, "bs")
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	if err := cache.Bump(ctx, 1); err != nil {
		t.Fatalf("bump: %v", err)
	}
	after, err := cache.BuildKey(ctx, 1, "bs")
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	if before == after {
		t.Fatalf("bump must rotate the key, got %s twice", before)
	}
}

func TestCacheVersionIsPerTenant(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Bump(ctx, 1); err != nil {
		t.Fatalf("bump: %v", err)
	}
	otherKey, err := cache.BuildKey(ctx, 2, "bs")
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	if otherKey != "reports:2:bs:1" {
		t.Fatalf("tenant 2 version affected by tenant 1 bump: %s", otherKey)
	}
}

func TestCacheNilClientFallsThrough(t *testing.T) {
	var cache *Cache
	loads := 0
	var out map[string]int
	err := cache.FetchJSON(context.Background(), "", &out, func(ctx context.Context) (any, error) {
		loads++
		return map[string]int{"n": 7}, nil
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if loads != 1 || out["n"] != 7 {
		t.Fatalf("nil cache must call loader directly, loads=%d out=%v", loads, out)
	}
}
