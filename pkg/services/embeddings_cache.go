package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// embeddingTTL keeps cached vectors long enough to absorb the scheduler's
// repeated seed queries without serving stale model output forever.
const embeddingTTL = 24 * time.Hour

// CachedEmbeddings wraps an Embeddings adapter with a Redis cache-aside
// layer. Cache failures degrade silently to the inner adapter.
type CachedEmbeddings struct {
	inner Embeddings
	rdb   *redis.Client
}

// NewCachedEmbeddings wraps inner with the given Redis client.
func NewCachedEmbeddings(inner Embeddings, rdb *redis.Client) *CachedEmbeddings {
	return &CachedEmbeddings{inner: inner, rdb: rdb}
}

// Embed returns the cached vector when present, otherwise computes and
// stores it.
func (c *CachedEmbeddings) Embed(ctx context.Context, query string) ([]float32, error) {
	key := embeddingKey(query)

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var vec []float32
		if err := json.Unmarshal(raw, &vec); err == nil && len(vec) > 0 {
			return vec, nil
		}
	} else if err != redis.Nil && ctx.Err() == nil {
		slog.Warn("Embedding cache read failed", "error", err)
	}

	vec, err := c.inner.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(vec); err == nil {
		if err := c.rdb.Set(ctx, key, raw, embeddingTTL).Err(); err != nil && ctx.Err() == nil {
			slog.Warn("Embedding cache write failed", "error", err)
		}
	}
	return vec, nil
}

func embeddingKey(query string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(query)))
	return "embedding:" + hex.EncodeToString(sum[:])
}
