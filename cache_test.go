package docstore

import (
	"errors"
	"testing"
	"time"
)

func TestCache(t *testing.T) {
	c := NewCache()
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get() on empty cache found an entry")
	}
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get() = %v, %v, want 1, true", v, ok)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() after Clear() = %d, want 0", c.Size())
	}
}

func TestCache_TTL(t *testing.T) {
	c := NewCache(WithTTL(time.Nanosecond))
	c.Set("a", 1)
	time.Sleep(time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("Get() returned an expired entry")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want expired entry removed", c.Size())
	}
}

func TestCached(t *testing.T) {
	c := NewCache()
	calls := 0
	build := func() (string, error) {
		calls++
		return "sql", nil
	}
	for range 3 {
		v, err := cached(c, "k", build)
		if err != nil || v != "sql" {
			t.Fatalf("cached() = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("build called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	if _, err := cached(c, "bad", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Errorf("cached() error = %v, want boom", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("failed build was cached")
	}

	calls = 0
	for range 2 {
		if _, err := cached(nil, "k", build); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 2 {
		t.Errorf("nil cache: build called %d times, want 2", calls)
	}
}
