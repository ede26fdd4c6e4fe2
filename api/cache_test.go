package api

import (
	"testing"
	"time"
)

func TestCacheHitAndExpiry(t *testing.T) {
	c := NewCache(10 * time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put("trending", "p1", []int{1, 2, 3})

	if got, ok := c.Get("trending", "p1"); !ok {
		t.Fatal("expected fresh entry to hit")
	} else if len(got.([]int)) != 3 {
		t.Fatalf("got %v", got)
	}

	// different namespace, same key: miss
	if _, ok := c.Get("library", "p1"); ok {
		t.Error("namespaces must be isolated")
	}

	now = now.Add(10 * time.Minute)
	if _, ok := c.Get("trending", "p1"); ok {
		t.Error("expected expiry at TTL")
	}
}

func TestCachePerCallTTL(t *testing.T) {
	c := NewCache(30 * time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put("stats", "u1", "v")
	now = now.Add(2 * time.Minute)

	if _, ok := c.GetTTL("stats", "u1", time.Minute); ok {
		t.Error("stricter per-call TTL should expire the entry")
	}
	if _, ok := c.GetTTL("stats", "u1", 5*time.Minute); !ok {
		t.Error("looser per-call TTL should still hit")
	}
}

func TestCacheSignatureMismatchIsMiss(t *testing.T) {
	c := NewCache(30 * time.Minute)
	c.Put("media", "42", "payload")

	// corrupt the stored timestamp so the signature no longer matches
	c.mu.Lock()
	entry := c.entries["media:42"]
	entry.storedAt = entry.storedAt.Add(time.Nanosecond)
	c.entries["media:42"] = entry
	c.mu.Unlock()

	if _, ok := c.Get("media", "42"); ok {
		t.Error("entry with a broken integrity signature must be treated as a miss")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(0)
	c.Put("library", "u1", "v")
	c.Invalidate("library", "u1")
	if _, ok := c.Get("library", "u1"); ok {
		t.Error("invalidated entry should miss")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}
