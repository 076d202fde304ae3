// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// response.go provides a Valkey-backed cache of encoded API responses.
// Concurrent misses on the same key are collapsed into one load. Every
// invalidation bumps a generation counter; a load only writes back if the
// generation it started under is still current.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	// keyPrefix is the Valkey key prefix for cached responses.
	keyPrefix = "resp:"

	// DefaultTTL is how long a cached response stays valid.
	DefaultTTL = 5 * time.Minute

	// FeaturedKey caches the featured article list.
	FeaturedKey = "articles:featured"

	// genKey counts invalidations. It sits outside keyPrefix so
	// InvalidateAll never deletes it.
	genKey = "resp-gen"
)

// errStale aborts a write-back whose generation was superseded.
var errStale = errors.New("stale generation")

// Loader produces the value to cache on a miss.
type Loader func(ctx context.Context) ([]byte, error)

// ResponseCache manages cached responses in Valkey.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewResponseCache creates a response cache backed by the given Valkey client.
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{client: client, ttl: ttl}
}

// Get retrieves a cached value. Returns false on miss.
func (rc *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := rc.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("response cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("response cache hit", "key", key)
	return val, true
}

// Set stores a value with the configured TTL.
func (rc *ResponseCache) Set(ctx context.Context, key string, val []byte) {
	if err := rc.client.Set(ctx, keyPrefix+key, val, rc.ttl).Err(); err != nil {
		slog.Warn("response cache set error", "key", key, "error", err)
	}
}

// GetOrLoad returns the cached value for key, calling load on a miss and
// caching its result. Concurrent misses share a single load, which runs
// detached from any one caller's cancellation. Cache errors degrade to
// calling load directly.
func (rc *ResponseCache) GetOrLoad(ctx context.Context, key string, load Loader) ([]byte, error) {
	if val, ok := rc.Get(ctx, key); ok {
		return val, nil
	}

	ch := rc.group.DoChan(key, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		if val, ok := rc.Get(loadCtx, key); ok {
			return val, nil
		}
		gen, genErr := rc.generation(loadCtx)
		val, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if genErr != nil {
			slog.Warn("response cache generation error", "key", key, "error", genErr)
			return val, nil
		}
		rc.setIfCurrent(loadCtx, key, val, gen)
		return val, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("response cache load %s: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("response cache load %s: %w", key, res.Err)
		}
		return res.Val.([]byte), nil
	}
}

func (rc *ResponseCache) generation(ctx context.Context) (int64, error) {
	n, err := rc.client.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// setIfCurrent stores val only while the generation still equals gen. The
// WATCH fails the write if an invalidation lands between check and SET.
func (rc *ResponseCache) setIfCurrent(ctx context.Context, key string, val []byte, gen int64) {
	err := rc.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, keyPrefix+key, val, rc.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		slog.Debug("response cache dropped stale load", "key", key)
	default:
		slog.Warn("response cache set error", "key", key, "error", err)
	}
}

// bump starts a new generation so in-flight loads do not write back.
func (rc *ResponseCache) bump(ctx context.Context) {
	if err := rc.client.Incr(ctx, genKey).Err(); err != nil {
		slog.Warn("response cache generation bump error", "error", err)
	}
}

// Invalidate removes a single cached value.
func (rc *ResponseCache) Invalidate(ctx context.Context, key string) {
	rc.bump(ctx)
	if err := rc.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		slog.Warn("response cache invalidate error", "key", key, "error", err)
	}
	rc.group.Forget(key)
	slog.Debug("response cache invalidated", "key", key)
}

// InvalidateAll removes all cached responses by scanning for the prefix.
// Used after any article mutation, since any listing could be affected.
func (rc *ResponseCache) InvalidateAll(ctx context.Context) {
	rc.bump(ctx)
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := rc.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("response cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("response cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	rc.group.Forget(FeaturedKey)
	if deleted > 0 {
		slog.Info("response cache cleared", "deleted", deleted)
	}
}
