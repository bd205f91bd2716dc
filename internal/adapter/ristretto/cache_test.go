package ristretto

import (
	"testing"

	"github.com/Strob0t/athena/internal/port/cache"
	"github.com/Strob0t/athena/internal/port/cache/cachetest"
)

var _ cache.Cache = (*Cache)(nil)

func TestCache_Compliance(t *testing.T) {
	c, err := New(1)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)

	cachetest.Run(t, c)
}

func TestNew_ClampsTinySize(t *testing.T) {
	c, err := New(0)
	if err != nil {
		t.Fatalf("expected tiny size to be clamped, got %v", err)
	}
	c.Close()
}

func TestCache_HitRatioWithoutMetrics(t *testing.T) {
	c, err := New(1)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if r := c.HitRatio(); r != 0 {
		t.Fatalf("expected 0 without metrics, got %f", r)
	}
}
