package images

import (
	"context"
	"errors"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache stores query → image URL entries.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// LocalCache is an in-process expiring cache.
type LocalCache struct {
	c *gocache.Cache
}

// NewLocalCache creates an in-process cache with the given TTL.
func NewLocalCache(ttl time.Duration) *LocalCache {
	return &LocalCache{c: gocache.New(ttl, 2*ttl)}
}

func (l *LocalCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := l.c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (l *LocalCache) Set(_ context.Context, key, value string) {
	l.c.Set(key, value, gocache.DefaultExpiration)
}

// RedisCache shares entries across instances. Redis failures count as misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: "images:"}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (r *RedisCache) Set(ctx context.Context, key, value string) {
	_ = r.client.Set(ctx, r.prefix+key, value, r.ttl).Err()
}

// CachedSearcher fronts a Searcher with a cache and collapses concurrent
// lookups of the same query into one upstream call.
type CachedSearcher struct {
	next  Searcher
	cache Cache
	group singleflight.Group
}

// NewCachedSearcher wraps next with cache.
func NewCachedSearcher(next Searcher, cache Cache) *CachedSearcher {
	return &CachedSearcher{next: next, cache: cache}
}

// Search returns a cached URL or asks the wrapped searcher. Only hits are cached.
func (s *CachedSearcher) Search(ctx context.Context, query string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if v, ok := s.cache.Get(ctx, key); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		url, err := s.next.Search(ctx, query)
		if err != nil {
			return "", err
		}
		s.cache.Set(ctx, key, url)
		return url, nil
	})
	if err != nil {
		return "", err
	}
	url, ok := v.(string)
	if !ok {
		return "", errors.New("unexpected cached value")
	}
	return url, nil
}
