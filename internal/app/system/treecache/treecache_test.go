package treecache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func mustSet(t *testing.T, c Cache, key string, val string, tags ...string) {
	t.Helper()
	ctx := context.Background()
	v, err := c.Version(ctx)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	stored, err := c.Set(ctx, key, v, []byte(val), tags...)
	if err != nil || !stored {
		t.Fatalf("Set(%s) = %v, %v", key, stored, err)
	}
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)

	if _, ok, _ := c.Get(ctx, ListKey); ok {
		t.Fatal("expected miss on empty cache")
	}
	mustSet(t, c, ListKey, "[]", Tag)
	val, ok, err := c.Get(ctx, ListKey)
	if err != nil || !ok || string(val) != "[]" {
		t.Fatalf("Get = %q, %v, %v", val, ok, err)
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	mustSet(t, c, "k", "v")
	now = now.Add(2 * time.Minute)

	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestMemory_InvalidateTagRotatesVersion(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)

	mustSet(t, c, ListKey, "list", Tag)
	mustSet(t, c, "/en/organigram", "en", Tag)
	before, _ := c.Version(ctx)

	if err := c.InvalidateTag(ctx, Tag); err != nil {
		t.Fatalf("InvalidateTag: %v", err)
	}

	for _, k := range []string{ListKey, "/en/organigram"} {
		if _, ok, _ := c.Get(ctx, k); ok {
			t.Errorf("%s should be gone", k)
		}
	}
	after, _ := c.Version(ctx)
	if before == after {
		t.Error("version should change on invalidation")
	}
}

func TestMemory_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	mustSet(t, c, "/de/organigram", "de", Tag)
	_ = c.Invalidate(ctx, "/de/organigram")
	if _, ok, _ := c.Get(ctx, "/de/organigram"); ok {
		t.Error("expected key to be invalidated")
	}
}

func TestMemory_SetRejectsOldVersion(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)

	// A reader takes the version, a write invalidates, then the reader
	// tries to store what it read before the write.
	readAt, _ := c.Version(ctx)
	if err := c.InvalidateTag(ctx, Tag); err != nil {
		t.Fatalf("InvalidateTag: %v", err)
	}
	stored, err := c.Set(ctx, ListKey, readAt, []byte("before delete"), Tag)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if stored {
		t.Error("Set stored a payload read at an old version")
	}
	if _, ok, _ := c.Get(ctx, ListKey); ok {
		t.Error("Get served a payload read at an old version")
	}
}

func TestMemory_UntaggedEntryDiesWithVersion(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)

	mustSet(t, c, "unrelated", "x")
	if err := c.InvalidateTag(ctx, Tag); err != nil {
		t.Fatalf("InvalidateTag: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "unrelated"); ok {
		t.Error("entry pinned to the previous version must not be served")
	}
}

// TestRedis runs against ORGANIGRAM_TEST_REDIS_ADDR when set.
func TestRedis(t *testing.T) {
	addr := os.Getenv("ORGANIGRAM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ORGANIGRAM_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}

	c := NewRedis(rdb, "organigram-test-"+time.Now().Format("150405.000000"), time.Minute)

	v1, err := c.Version(ctx)
	if err != nil || v1 == "" {
		t.Fatalf("Version: %q, %v", v1, err)
	}
	mustSet(t, c, ListKey, "list", Tag)
	if val, ok, err := c.Get(ctx, ListKey); err != nil || !ok || string(val) != "list" {
		t.Fatalf("Get = %q, %v, %v", val, ok, err)
	}
	if err := c.InvalidateTag(ctx, Tag); err != nil {
		t.Fatalf("InvalidateTag: %v", err)
	}
	if _, ok, _ := c.Get(ctx, ListKey); ok {
		t.Error("expected miss after InvalidateTag")
	}
	if v2, _ := c.Version(ctx); v2 == v1 {
		t.Error("version should change on invalidation")
	}

	// A payload read at v1 cannot be stored after the rotation.
	if stored, err := c.Set(ctx, ListKey, v1, []byte("stale"), Tag); err != nil || stored {
		t.Errorf("Set at old version = %v, %v", stored, err)
	}
	// Nor served if it was already written under v1.
	if err := rdb.Set(ctx, c.key(ListKey), pin(v1, []byte("stale")), time.Minute).Err(); err != nil {
		t.Fatalf("raw set: %v", err)
	}
	if _, ok, _ := c.Get(ctx, ListKey); ok {
		t.Error("entry pinned to v1 served after rotation")
	}
}
