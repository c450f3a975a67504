package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	type sample struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	if err := mc.Set(ctx, "k", sample{Name: "BTCUSDT", Price: 100.5}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got sample
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "BTCUSDT" || got.Price != 100.5 {
		t.Fatalf("got %+v", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var got string
	if err := mc.Get(context.Background(), "missing", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "v", time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var got string
	if err := mc.Get(ctx, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss after expiry", err)
	}
}

func TestMemoryCacheEvictsLRU(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	mc.Set(ctx, "a", 1, time.Minute)
	time.Sleep(time.Millisecond)
	mc.Set(ctx, "b", 2, time.Minute)
	time.Sleep(time.Millisecond)

	// Touch "a" so "b" becomes the least recently used entry.
	var v int
	if err := mc.Get(ctx, "a", &v); err != nil {
		t.Fatalf("Get a: %v", err)
	}
	time.Sleep(time.Millisecond)
	mc.Set(ctx, "c", 3, time.Minute)

	if err := mc.Get(ctx, "b", &v); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("b should have been evicted, got %v", err)
	}
	if err := mc.Get(ctx, "a", &v); err != nil {
		t.Fatalf("a should survive: %v", err)
	}
}

func TestMemoryCacheDeleteAndExists(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	mc.Set(ctx, "k", "v", time.Minute)
	if ok, _ := mc.Exists(ctx, "k"); !ok {
		t.Fatal("k should exist")
	}
	mc.Delete(ctx, "k")
	if ok, _ := mc.Exists(ctx, "k"); ok {
		t.Fatal("k should be deleted")
	}
}
