package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("search", "dragon quest", "All", "relevance", "1", "60")
	b := Key("search", "dragon quest", "All", "relevance", "1", "60")
	assert.Equal(t, a, b)
	assert.Contains(t, a, "search_")
}

func TestKeyDistinguishesParts(t *testing.T) {
	a := Key("search", "dragon", "All", "relevance", "1", "60")
	b := Key("search", "dragon", "All", "relevance", "2", "60")
	assert.NotEqual(t, a, b)

	// A different prefix never collides with the same parts.
	c := Key("count", "dragon", "All", "relevance", "1", "60")
	assert.NotEqual(t, a, c)
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Hour))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	now := time.Now()
	s.SetClock(func() time.Time { return now })
	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

	now = now.Add(30 * time.Second)
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(31 * time.Second)
	_, err = s.Get(ctx, "k")
	require.ErrorIs(t, err, ErrMiss)
}

func TestMemoryZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	now := time.Now()
	s.SetClock(func() time.Time { return now })
	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))

	now = now.Add(24 * time.Hour)
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)
}
