package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v.(int) != 1 {
		t.Fatalf("Get(a) = %v, %v; want 1, true", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should report absent")
	}
}

func TestExpiry(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()

	c.SetWithTTL("a", 1, -time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should not be returned")
	}
}

func TestMaxItemsEviction(t *testing.T) {
	evicted := 0
	c := New(Config{
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Minute,
		MaxItems:        2,
		OnEviction:      func(string, any) { evicted++ },
	})
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if evicted != 1 {
		t.Errorf("evicted = %d, want 1", evicted)
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry should survive eviction")
	}
}
