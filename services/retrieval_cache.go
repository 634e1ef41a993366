package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ehisj/CustomerAIAgent/internal/logger"
	"github.com/ehisj/CustomerAIAgent/internal/vectorstore"
	"github.com/ehisj/CustomerAIAgent/utils"

	"github.com/redis/go-redis/v9"
)

const retrievalGenKey = "ragcache:gen"

// RetrievalCache caches query results in Redis as gzipped JSON. Keys
// embed a generation counter; any ingest, delete or clear bumps the
// generation, so stale neighbors are never served after the corpus
// changes. Old generations simply expire with their TTL.
type RetrievalCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRetrievalCache(redisClient *redis.Client, ttl time.Duration) *RetrievalCache {
	return &RetrievalCache{redis: redisClient, ttl: ttl}
}

// Get returns cached neighbors for the query, or ok=false on miss or any
// cache error (the caller falls through to the real retrieval).
func (c *RetrievalCache) Get(ctx context.Context, query string, k int) ([]vectorstore.Neighbor, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	key, err := c.key(ctx, query, k)
	if err != nil {
		return nil, false
	}

	compressed, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	data, err := utils.DecompressData(compressed, utils.CompressionGzip)
	if err != nil {
		logger.Warn("Failed to decompress cached retrieval", "error", err)
		return nil, false
	}

	var neighbors []vectorstore.Neighbor
	if err := json.Unmarshal(data, &neighbors); err != nil {
		logger.Warn("Failed to decode cached retrieval", "error", err)
		return nil, false
	}
	return neighbors, true
}

// Put stores the neighbors for the query. Failures are logged and
// swallowed; caching is never load-bearing.
func (c *RetrievalCache) Put(ctx context.Context, query string, k int, neighbors []vectorstore.Neighbor) {
	if c == nil || c.redis == nil {
		return
	}

	key, err := c.key(ctx, query, k)
	if err != nil {
		return
	}

	data, err := json.Marshal(neighbors)
	if err != nil {
		logger.Warn("Failed to encode retrieval for cache", "error", err)
		return
	}
	compressed, err := utils.CompressData(data, utils.CompressionGzip)
	if err != nil {
		logger.Warn("Failed to compress retrieval for cache", "error", err)
		return
	}

	if err := c.redis.Set(ctx, key, compressed, c.ttl).Err(); err != nil {
		logger.Warn("Failed to cache retrieval", "error", err)
	}
}

// Invalidate bumps the generation counter, orphaning every cached entry.
func (c *RetrievalCache) Invalidate(ctx context.Context) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Incr(ctx, retrievalGenKey).Err(); err != nil {
		logger.Warn("Failed to invalidate retrieval cache", "error", err)
	}
}

func (c *RetrievalCache) key(ctx context.Context, query string, k int) (string, error) {
	gen, err := c.redis.Get(ctx, retrievalGenKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}

	return fmt.Sprintf("ragcache:%d:%s", gen, utils.HashKey(query, strconv.Itoa(k))), nil
}
