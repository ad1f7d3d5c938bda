package cache

import (
	"strings"
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[string](4, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}

	c.Set("a", "1")
	got, ok := c.Get("a")
	if !ok || got != "1" {
		t.Errorf("Get(a) = %q, %v", got, ok)
	}

	c.Set("a", "2")
	if got, _ := c.Get("a"); got != "2" {
		t.Errorf("overwrite: got %q, want 2", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch a so b becomes the eviction candidate.
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should be present")
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[int](4, 10*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should miss")
	}
	if n := c.cleanExpired(); n != 1 {
		t.Errorf("cleanExpired removed %d, want 1 (b)", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestLRUDelete(t *testing.T) {
	c := NewLRU[int](4, time.Minute)
	c.Set("a", 1)
	c.Delete("a")
	c.Delete("never-there")

	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry should miss")
	}
}

func TestLRUDeleteFunc(t *testing.T) {
	c := NewLRU[int](8, time.Minute)
	c.Set("user-1|march", 1)
	c.Set("user-1|april", 2)
	c.Set("user-2|march", 3)

	n := c.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, "user-1|")
	})
	if n != 2 {
		t.Errorf("DeleteFunc removed %d, want 2", n)
	}
	if _, ok := c.Get("user-1|march"); ok {
		t.Error("user-1 entry should be gone")
	}
	if v, ok := c.Get("user-2|march"); !ok || v != 3 {
		t.Error("user-2 entry should survive")
	}
}
