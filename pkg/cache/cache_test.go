package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 100*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	c.Delete("key1")
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestInvalidate(t *testing.T) {
	c := New()
	c.Set("rates:r1:2026-06-11", "a", 1*time.Second)
	c.Set("rates:r1:2026-06-12", "b", 1*time.Second)
	c.Set("rates:r2:2026-06-11", "c", 1*time.Second)
	c.Invalidate("rates:r1:")
	_, ok1 := c.Get("rates:r1:2026-06-11")
	_, ok2 := c.Get("rates:r1:2026-06-12")
	_, ok3 := c.Get("rates:r2:2026-06-11")
	if ok1 || ok2 {
		t.Fatalf("expected r1 rate keys to be invalidated")
	}
	if !ok3 {
		t.Fatalf("expected other restaurant's key to still exist")
	}
}
