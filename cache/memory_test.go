package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(ttl time.Duration) (*MemoryCache[string], *fakeClock) {
	clk := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache[string](Policy{TTL: ttl})
	c.now = clk.Now
	return c, clk
}

func TestMemoryCache_GetSet(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) reported a hit")
	}

	c.Set("a", "one")
	got, ok := c.Get("a")
	if !ok || got != "one" {
		t.Fatalf("Get(a) = %q, %v; want one, true", got, ok)
	}

	c.Set("a", "two")
	got, _ = c.Get("a")
	if got != "two" {
		t.Errorf("Get(a) after overwrite = %q, want two", got)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, clk := newTestCache(100 * time.Millisecond)
	c.Set("k", "v")

	clk.Advance(100 * time.Millisecond)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry at exactly TTL age should still be valid")
	}

	clk.Advance(time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry older than TTL should be expired")
	}
	if size := c.Stats().Size; size != 0 {
		t.Errorf("expired entry not evicted on read, size = %d", size)
	}
}

func TestMemoryCache_ExpiredEntryCountsUntilRead(t *testing.T) {
	c, clk := newTestCache(time.Second)
	c.Set("k", "v")
	clk.Advance(2 * time.Second)

	if size := c.Stats().Size; size != 1 {
		t.Errorf("Size = %d, want 1 before lazy eviction", size)
	}
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Delete("a")
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted key still present")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("Delete removed an unrelated key")
	}

	c.Clear()
	if size := c.Stats().Size; size != 0 {
		t.Errorf("Size after Clear = %d, want 0", size)
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c, _ := newTestCache(30 * time.Second)
	c.Set("a", "1")
	c.Set("b", "2")

	st := c.Stats()
	if st.Size != 2 {
		t.Errorf("Size = %d, want 2", st.Size)
	}
	if st.TTL != 30*time.Second {
		t.Errorf("TTL = %v, want 30s", st.TTL)
	}
}

func TestMemoryCache_ZeroTTLDisablesStorage(t *testing.T) {
	c := NewMemoryCache[int](NoCachePolicy())
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Error("zero TTL cache stored a value")
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache[int](DefaultPolicy())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%10))
			c.Set(key, i)
			c.Get(key)
			if i%7 == 0 {
				c.Delete(key)
			}
		}(i)
	}
	wg.Wait()

	if size := c.Stats().Size; size > 10 {
		t.Errorf("Size = %d, want at most 10", size)
	}
}
