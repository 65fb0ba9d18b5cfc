package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(t *testing.T, cfg Config) (*Cache, *fakeClock) {
	t.Helper()
	cfg.CleanupInterval = 0
	c := New(cfg)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clock.now
	t.Cleanup(func() { _ = c.Close() })
	return c, clock
}

func TestCache_GetPut(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	_, ok := c.Get("frame")
	assert.False(t, ok)

	require.NoError(t, c.Put("frame", "image/png", []byte("png bytes")))
	entry, ok := c.Get("frame")
	require.True(t, ok)
	assert.Equal(t, []byte("png bytes"), entry.Data)
	assert.Equal(t, "image/png", entry.ContentType)
	assert.Equal(t, 1, entry.AccessCount)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.EntryCount)
	assert.Equal(t, int64(9), stats.TotalSize)
}

func TestCache_PutReplaces(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	require.NoError(t, c.Put("k", "image/svg+xml", []byte("one")))
	require.NoError(t, c.Put("k", "image/svg+xml", []byte("three")))

	entry, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "three", string(entry.Data))
	assert.Equal(t, int64(5), c.GetStats().TotalSize)
}

func TestCache_TooLarge(t *testing.T) {
	c, _ := newTestCache(t, Config{MaxSize: 4})
	assert.Error(t, c.Put("k", "", []byte("too large")))
	assert.Equal(t, 0, c.GetStats().EntryCount)
}

func TestCache_Expiry(t *testing.T) {
	c, clock := newTestCache(t, Config{MaxAge: time.Minute})

	require.NoError(t, c.Put("a", "", []byte("a")))
	clock.advance(30 * time.Second)
	require.NoError(t, c.Put("b", "", []byte("b")))
	clock.advance(45 * time.Second)

	_, ok := c.Get("a")
	assert.False(t, ok, "a is older than MaxAge")
	_, ok = c.Get("b")
	assert.True(t, ok)

	clock.advance(time.Minute)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 0, c.GetStats().EntryCount)
}

func TestCache_NoExpiryWhenMaxAgeZero(t *testing.T) {
	c, clock := newTestCache(t, Config{})
	require.NoError(t, c.Put("a", "", []byte("a")))
	clock.advance(24 * time.Hour)
	_, ok := c.Get("a")
	assert.True(t, ok)
}

func TestCache_Eviction(t *testing.T) {
	tests := []struct {
		name     string
		strategy EvictionStrategy
		evicted  string
	}{
		// a was stored first, b was read least recently, c was read least often.
		{"lru", LRU, "b"},
		{"lfu", LFU, "c"},
		{"fifo", FIFO, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, clock := newTestCache(t, Config{MaxSize: 30, Strategy: tt.strategy})
			for _, k := range []string{"a", "b", "c"} {
				require.NoError(t, c.Put(k, "", make([]byte, 10)))
				clock.advance(time.Second)
			}
			// b: 3 reads, oldest access. a: 2 reads. c: 1 read, newest access.
			c.Get("b")
			c.Get("b")
			c.Get("b")
			clock.advance(time.Second)
			c.Get("a")
			c.Get("a")
			clock.advance(time.Second)
			c.Get("c")
			clock.advance(time.Second)

			require.NoError(t, c.Put("d", "", make([]byte, 10)))

			_, ok := c.entries[tt.evicted]
			assert.False(t, ok, "%s should have been evicted", tt.evicted)
			assert.Equal(t, int64(1), c.GetStats().Evictions)
			assert.Equal(t, 3, c.GetStats().EntryCount)
		})
	}
}

func TestCache_InvalidatePrefixAndClear(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())
	require.NoError(t, c.Put("png/1", "", []byte("x")))
	require.NoError(t, c.Put("png/2", "", []byte("y")))
	require.NoError(t, c.Put("svg/1", "", []byte("z")))

	assert.Equal(t, 2, c.InvalidatePrefix("png/"))
	assert.Equal(t, 1, c.GetStats().EntryCount)

	c.Get("svg/1")
	c.Clear()
	stats := c.GetStats()
	assert.Zero(t, stats.EntryCount)
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.TotalSize)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("a", "b"), Key("a", "b"))
	assert.NotEqual(t, Key("ab", ""), Key("a", "b"))
	assert.Len(t, Key("x"), 64)
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []EvictionStrategy{LRU, LFU, FIFO} {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, LRU, got)
	_, err = ParseStrategy("random")
	assert.Error(t, err)
}

func TestCache_Concurrent(t *testing.T) {
	c := New(Config{MaxSize: 1 << 10, Strategy: LRU, CleanupInterval: time.Millisecond, MaxAge: time.Second})
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (i+j)%16)
				_ = c.Put(key, "", make([]byte, 64))
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.GetStats().TotalSize, int64(1<<10))
}
