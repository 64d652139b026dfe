package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryStore_IncrBelow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		val, ok, err := store.IncrBelow(ctx, "k", 3, time.Minute)
		if err != nil {
			t.Fatalf("IncrBelow failed: %v", err)
		}
		if !ok || val != i {
			t.Fatalf("Call %d: expected (%d, true), got (%d, %v)", i, i, val, ok)
		}
	}

	val, ok, err := store.IncrBelow(ctx, "k", 3, time.Minute)
	if err != nil {
		t.Fatalf("IncrBelow failed: %v", err)
	}
	if ok || val != 3 {
		t.Errorf("Expected (3, false) at the limit, got (%d, %v)", val, ok)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := store.Incr(ctx, "k", time.Minute); err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if val, err := store.Get(ctx, "k"); err != nil || val != 1 {
		t.Fatalf("Expected 1, got %d (%v)", val, err)
	}

	now = now.Add(time.Minute)

	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after expiry, got %v", err)
	}

	val, ok, _ := store.IncrBelow(ctx, "k", 1, time.Minute)
	if !ok || val != 1 {
		t.Errorf("Expected a fresh window, got (%d, %v)", val, ok)
	}
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.IncrBelow(ctx, Key("ratelimit", "submit", "1.1.1.1"), 1, time.Minute)

	_, ok, _ := store.IncrBelow(ctx, Key("ratelimit", "login", "1.1.1.1"), 1, time.Minute)
	if !ok {
		t.Error("Expected a different endpoint to have its own counter")
	}
	_, ok, _ = store.IncrBelow(ctx, Key("ratelimit", "submit", "2.2.2.2"), 1, time.Minute)
	if !ok {
		t.Error("Expected a different client to have its own counter")
	}
}

func TestMemoryStore_ConcurrentIncrBelow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const limit = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := store.IncrBelow(ctx, "k", limit, time.Minute)
			if err != nil {
				t.Errorf("IncrBelow failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Errorf("Expected exactly %d increments, got %d", limit, allowed)
	}
}

func TestMemoryStore_SweepDropsExpiredCounters(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		store.IncrBelow(ctx, Key("ratelimit", "submit", fmt.Sprintf("10.0.%d.%d", i/256, i%256)), 10, time.Second)
	}
	store.IncrBelow(ctx, "long-lived", 10, 2*time.Hour)

	now = now.Add(time.Hour)

	if remaining := store.sweep(); remaining != 1 {
		t.Errorf("Expected only the unexpired counter to remain, got %d", remaining)
	}
	if val, err := store.Get(ctx, "long-lived"); err != nil || val != 1 {
		t.Errorf("Expected long-lived counter to survive the sweep, got %d (%v)", val, err)
	}
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStore_IncrBelowRejectsAtLimit(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		val, ok, err := store.IncrBelow(ctx, "k", 3, time.Minute)
		if err != nil {
			t.Fatalf("IncrBelow failed: %v", err)
		}
		if !ok || val != i {
			t.Fatalf("Call %d: expected (%d, true), got (%d, %v)", i, i, val, ok)
		}
	}

	val, ok, err := store.IncrBelow(ctx, "k", 3, time.Minute)
	if err != nil {
		t.Fatalf("IncrBelow failed: %v", err)
	}
	if ok || val != 3 {
		t.Errorf("Expected (3, false) at the limit, got (%d, %v)", val, ok)
	}

	raw, err := mr.Get("k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if raw != "3" {
		t.Errorf("Expected a rejected call not to increment, stored %q", raw)
	}
}

func TestRedisStore_IncrBelowRearmsTTL(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	if _, _, err := store.IncrBelow(ctx, "k", 5, time.Minute); err != nil {
		t.Fatalf("IncrBelow failed: %v", err)
	}
	mr.FastForward(40 * time.Second)
	if ttl := mr.TTL("k"); ttl != 20*time.Second {
		t.Fatalf("Expected 20s left, got %v", ttl)
	}

	if _, _, err := store.IncrBelow(ctx, "k", 5, time.Minute); err != nil {
		t.Fatalf("IncrBelow failed: %v", err)
	}
	if ttl := mr.TTL("k"); ttl != time.Minute {
		t.Errorf("Expected an admitted call to re-arm the window, got %v", ttl)
	}
}

func TestRedisStore_ExpiresAfterWindow(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	store.IncrBelow(ctx, "k", 1, time.Minute)
	if _, ok, _ := store.IncrBelow(ctx, "k", 1, time.Minute); ok {
		t.Fatal("Expected the second call to be rejected")
	}

	mr.FastForward(time.Minute)

	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after expiry, got %v", err)
	}
	val, ok, err := store.IncrBelow(ctx, "k", 1, time.Minute)
	if err != nil || !ok || val != 1 {
		t.Errorf("Expected a fresh window, got (%d, %v, %v)", val, ok, err)
	}
}

func TestRedisStore_ConcurrentIncrBelow(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	const limit = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := store.IncrBelow(ctx, "k", limit, time.Minute)
			if err != nil {
				t.Errorf("IncrBelow failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Errorf("Expected exactly %d increments, got %d", limit, allowed)
	}
	if val, err := store.Get(ctx, "k"); err != nil || val != limit {
		t.Errorf("Expected stored value %d, got %d (%v)", limit, val, err)
	}
}

func TestRedisStore_Incr(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 2; i++ {
		val, err := store.Incr(ctx, "failures", 15*time.Minute)
		if err != nil {
			t.Fatalf("Incr failed: %v", err)
		}
		if val != i {
			t.Errorf("Expected %d, got %d", i, val)
		}
	}
	if ttl := mr.TTL("failures"); ttl != 15*time.Minute {
		t.Errorf("Expected 15m TTL, got %v", ttl)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestKey(t *testing.T) {
	if got := Key("ratelimit", "submit", "10.0.0.1"); got != "ratelimit:submit:10.0.0.1" {
		t.Errorf("Unexpected key %q", got)
	}
}
