package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbeddings struct {
	calls int
	vec   []float32
	err   error
}

func (c *countingEmbeddings) Embed(ctx context.Context, query string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.vec, nil
}

func newTestCache(t *testing.T, inner Embeddings) (*CachedEmbeddings, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCachedEmbeddings(inner, rdb), mr
}

func TestCacheMissComputesAndStores(t *testing.T) {
	inner := &countingEmbeddings{vec: []float32{0.1, 0.2, 0.3}}
	cache, _ := newTestCache(t, inner)

	vec, err := cache.Embed(context.Background(), "الماء في القرآن")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 1, inner.calls)

	// Second lookup is served from Redis.
	vec, err = cache.Embed(context.Background(), "الماء في القرآن")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 1, inner.calls)
}

func TestCacheKeyNormalizesWhitespace(t *testing.T) {
	inner := &countingEmbeddings{vec: []float32{1}}
	cache, _ := newTestCache(t, inner)

	_, err := cache.Embed(context.Background(), "query")
	require.NoError(t, err)
	_, err = cache.Embed(context.Background(), "  query  ")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestCacheEntriesExpire(t *testing.T) {
	inner := &countingEmbeddings{vec: []float32{1}}
	cache, mr := newTestCache(t, inner)

	_, err := cache.Embed(context.Background(), "query")
	require.NoError(t, err)

	mr.FastForward(embeddingTTL + 1)

	_, err = cache.Embed(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCacheDegradesWhenRedisDown(t *testing.T) {
	inner := &countingEmbeddings{vec: []float32{1}}
	cache, mr := newTestCache(t, inner)
	mr.Close()

	vec, err := cache.Embed(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vec)
}

func TestCachePropagatesInnerError(t *testing.T) {
	inner := &countingEmbeddings{err: ErrUnavailable}
	cache, _ := newTestCache(t, inner)

	_, err := cache.Embed(context.Background(), "query")
	assert.ErrorIs(t, err, ErrUnavailable)
}
