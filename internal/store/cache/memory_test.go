package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "usage:7", []int{1, 2, 3}, time.Minute))

	var got []int
	require.NoError(t, c.Get(ctx, "usage:7", &got))
	assert.Equal(t, []int{1, 2, 3}, got)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "usage:7", &got), ErrMiss)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	var s string
	assert.ErrorIs(t, c.Get(ctx, "k", &s), ErrMiss)
}

var _ CacheService = (*MemoryCache)(nil)
var _ CacheService = (*RedisCache)(nil)
