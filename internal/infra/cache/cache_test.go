package cache_test

import (
	"image"
	"testing"
	"time"

	"github.com/boddenberg/timesheet-charts-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	c := cache.New[int](5 * time.Minute)
	defer c.Close()

	c.Set("ws1:income", 1)
	c.Set("ws1:ratio", 2)
	c.Set("ws2:income", 3)

	if n := c.DeletePrefix("ws1:"); n != 2 {
		t.Errorf("expected 2 deletions, got %d", n)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry left, got %d", c.Len())
	}
	if _, ok := c.Get("ws2:income"); !ok {
		t.Error("expected other workspace to survive")
	}
}

func TestCache_NoTTL(t *testing.T) {
	c := cache.New[string](0)

	c.Set("key1", "value1")
	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Get("key1"); !ok {
		t.Fatal("expected entry without TTL to persist")
	}
}

func TestCache_HoldsSurfaces(t *testing.T) {
	c := cache.New[*image.RGBA](time.Minute)
	defer c.Close()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	c.Set("surface", img)

	got, ok := c.Get("surface")
	if !ok || got != img {
		t.Fatal("expected the same surface back")
	}
}

func TestCache_CloseIsIdempotent(t *testing.T) {
	c := cache.New[string](time.Minute)
	c.Close()
	c.Close()
}
