package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLStoreExpiry(t *testing.T) {
	now := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	s := NewTTLStore[int](time.Minute, 0).WithClock(func() time.Time { return now })

	s.Set("a", 1)
	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(59 * time.Second)
	_, ok = s.Get("a")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = s.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestTTLStoreClearDropsStaleWrites(t *testing.T) {
	s := NewTTLStore[string](time.Minute, 0)
	gen := s.Generation()
	s.Set("a", "x")

	s.Clear()
	_, ok := s.Get("a")
	assert.False(t, ok)
	assert.Equal(t, gen+1, s.Generation())

	assert.False(t, s.SetAt(gen, "a", "stale"))
	_, ok = s.Get("a")
	assert.False(t, ok)

	assert.True(t, s.SetAt(s.Generation(), "a", "fresh"))
	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "fresh", v)
}

func TestTTLStoreCapacity(t *testing.T) {
	now := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	s := NewTTLStore[int](time.Hour, 4).WithClock(func() time.Time { return now })
	for i := 0; i < 10; i++ {
		now = now.Add(time.Second)
		s.Set(fmt.Sprintf("k%d", i), i)
	}
	assert.Equal(t, 4, s.Len())
	_, ok := s.Get("k0")
	assert.False(t, ok)
	v, ok := s.Get("k9")
	require.True(t, ok)
	assert.Equal(t, 9, v)
}

func TestTTLStoreDelete(t *testing.T) {
	s := NewTTLStore[int](0, 0)
	s.Set("a", 1)
	s.Delete("a")
	_, ok := s.Get("a")
	assert.False(t, ok)
}
