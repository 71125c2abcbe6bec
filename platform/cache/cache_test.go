package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type cachedView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := New("redis://"+mr.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	want := cachedView{ID: "req-1", Status: "quoted"}
	if err := c.Set(ctx, "requests:req-1", want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got cachedView
	if err := c.Get(ctx, "requests:req-1", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != want {
		t.Fatalf("Get = %+v, want %+v", got, want)
	}
}

func TestGetMissingKeyReturnsErrMiss(t *testing.T) {
	c, _ := newTestCache(t)

	var got cachedView
	err := c.Get(context.Background(), "requests:absent", &got)
	if !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestDeleteInvalidates(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "requests:req-2", cachedView{ID: "req-2", Status: "pending"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Delete(ctx, "requests:req-2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var got cachedView
	if err := c.Get(ctx, "requests:req-2", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after delete, got %v", err)
	}
}

func TestEntriesExpireWithTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "requests:req-3", cachedView{ID: "req-3", Status: "confirmed"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	var got cachedView
	if err := c.Get(ctx, "requests:req-3", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after TTL, got %v", err)
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if err := c.Set(ctx, "k", cachedView{}); err != nil {
		t.Fatalf("nil cache Set should be a no-op, got %v", err)
	}
	var got cachedView
	if err := c.Get(ctx, "k", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("nil cache Get should be ErrMiss, got %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("nil cache Delete should be a no-op, got %v", err)
	}

	c2, err := New("", time.Minute)
	if err != nil {
		t.Fatalf("New with empty URL should not fail: %v", err)
	}
	if c2 != nil {
		t.Fatal("New with empty URL should return a nil cache")
	}
}
