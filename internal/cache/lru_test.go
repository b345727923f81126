package cache

import (
	"testing"
	"time"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should be cached")
	}
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("a = %q, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestLRUWeightBudget(t *testing.T) {
	size := func(b []byte) int64 { return int64(len(b)) }
	c := NewLRU[[]byte](10, time.Minute, WithMaxWeight(10, size))

	c.Set("a", make([]byte, 4))
	c.Set("b", make([]byte, 4))
	c.Set("c", make([]byte, 4))
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should be evicted once weight exceeds budget")
	}
	if c.Weight() != 8 {
		t.Fatalf("weight = %d, want 8", c.Weight())
	}

	c.Set("huge", make([]byte, 11))
	if _, ok := c.Get("huge"); ok {
		t.Fatalf("values above the budget must not be cached")
	}

	c.Set("b", make([]byte, 1))
	if c.Weight() != 5 {
		t.Fatalf("weight after replace = %d, want 5", c.Weight())
	}
	c.Delete("b")
	if c.Weight() != 4 {
		t.Fatalf("weight after delete = %d, want 4", c.Weight())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[int](5, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)
	now = now.Add(2 * time.Minute)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should have expired")
	}

	j := NewJanitor()
	j.Register(c)
	if n := j.Sweep(); n != 1 {
		t.Fatalf("sweep removed %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
}

func TestZeroCapacityDisablesCaching(t *testing.T) {
	c := NewLRU[int](0, time.Minute)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("zero-capacity cache must not store")
	}
}
