package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func results(names ...string) []domain.ScoredDocument {
	out := make([]domain.ScoredDocument, len(names))
	for i, n := range names {
		out[i] = domain.ScoredDocument{Document: domain.Document{ID: i, Name: n}, Distance: float64(i)}
	}
	return out
}

func TestQueryCache_GetPut(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	_, ok := c.Get("sky", 2)
	assert.False(t, ok)

	c.Put("sky", 2, results("a", "b"))
	got, ok := c.Get("sky", 2)
	require.True(t, ok)
	assert.Equal(t, results("a", "b"), got)

	_, ok = c.Get("sky", 3)
	assert.False(t, ok, "top k is part of the key")
}

func TestQueryCache_ReturnsCopies(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	in := results("a")
	c.Put("q", 1, in)
	in[0].Distance = 99

	got, ok := c.Get("q", 1)
	require.True(t, ok)
	assert.Equal(t, 0.0, got[0].Distance)

	got[0].Document.Name = "changed"
	again, _ := c.Get("q", 1)
	assert.Equal(t, "a", again[0].Document.Name)
}

func TestQueryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("a", 1, results("a"))
	c.Put("b", 1, results("b"))
	_, _ = c.Get("a", 1) // a is now most recent
	c.Put("c", 1, results("c"))

	assert.Equal(t, 2, c.Size())
	_, ok := c.Get("b", 1)
	assert.False(t, ok)
	_, ok = c.Get("a", 1)
	assert.True(t, ok)
	_, ok = c.Get("c", 1)
	assert.True(t, ok)
}

func TestQueryCache_TTL(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Put("q", 1, results("a"))

	now = now.Add(2 * time.Minute)
	_, ok := c.Get("q", 1)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestQueryCache_Invalidate(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("q", 1, results("a"))
	c.Invalidate()
	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("q", 1)
	assert.False(t, ok)
}

func TestQueryCache_Concurrent(t *testing.T) {
	c := NewQueryCache(16, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q := fmt.Sprintf("q%d", (i+j)%32)
				c.Put(q, 2, results(q))
				if got, ok := c.Get(q, 2); ok {
					assert.Len(t, got, 1)
				}
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Size(), 16)
}
