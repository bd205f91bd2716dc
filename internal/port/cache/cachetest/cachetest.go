// Package cachetest provides a behavioral suite every cache.Cache adapter must pass.
package cachetest

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/athena/internal/port/cache"
)

// Run exercises c against the cache.Cache contract.
func Run(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "dashboard:v1", []byte(`{"version":1}`), time.Minute); err != nil {
			t.Fatal(err)
		}
		val, found, err := c.Get(ctx, "dashboard:v1")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected hit after Set")
		}
		if string(val) != `{"version":1}` {
			t.Fatalf("unexpected value %s", val)
		}
	})

	t.Run("Miss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "dashboard:v999")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for unknown key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "dashboard:v2", []byte("x"), time.Minute)
		if err := c.Delete(ctx, "dashboard:v2"); err != nil {
			t.Fatal(err)
		}
		if _, found, _ := c.Get(ctx, "dashboard:v2"); found {
			t.Fatal("expected miss after Delete")
		}
		if err := c.Delete(ctx, "never-set"); err != nil {
			t.Fatalf("Delete of unknown key: %v", err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "handover", []byte("v1"), time.Minute)
		_ = c.Set(ctx, "handover", []byte("v2"), time.Minute)
		val, found, err := c.Get(ctx, "handover")
		if err != nil || !found {
			t.Fatalf("expected hit, found=%v err=%v", found, err)
		}
		if string(val) != "v2" {
			t.Fatalf("expected v2, got %s", val)
		}
	})

	t.Run("Expiry", func(t *testing.T) {
		_ = c.Set(ctx, "short", []byte("x"), 50*time.Millisecond)
		deadline := time.Now().Add(3 * time.Second)
		for time.Now().Before(deadline) {
			if _, found, _ := c.Get(ctx, "short"); !found {
				return
			}
			time.Sleep(25 * time.Millisecond)
		}
		t.Fatal("entry did not expire")
	})
}
