package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/logger"
	"github.com/mrlokans/mylibrary/internal/metrics"
)

const (
	DefaultCacheTTL        = 10 * time.Minute
	defaultMemoryEntries   = 512
	redisSearchCachePrefix = "mylibrary:catalog:"
)

// SearchCache stores search results by key. Implementations never fail the
// caller: a broken cache behaves like a miss.
type SearchCache interface {
	Get(ctx context.Context, key string) ([]entities.SearchResult, bool)
	Set(ctx context.Context, key string, results []entities.SearchResult)
}

type memoryEntry struct {
	results   []entities.SearchResult
	expiresAt time.Time
}

// MemoryCache is a bounded TTL map used when Redis is not configured.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMemoryEntries
	}
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]entities.SearchResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return entry.results, true
}

func (m *MemoryCache) Set(_ context.Context, key string, results []entities.SearchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if len(m.entries) >= m.maxEntries {
		for k, e := range m.entries {
			if !now.Before(e.expiresAt) {
				delete(m.entries, k)
			}
		}
		// Still full: drop an arbitrary entry.
		for k := range m.entries {
			if len(m.entries) < m.maxEntries {
				break
			}
			delete(m.entries, k)
		}
	}
	m.entries[key] = memoryEntry{results: results, expiresAt: now.Add(m.ttl)}
}

// RedisCache shares search results between server instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]entities.SearchResult, bool) {
	raw, err := r.client.Get(ctx, redisSearchCachePrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.For(ctx).WithError(err).Warn("catalog cache read failed")
		}
		return nil, false
	}
	var results []entities.SearchResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (r *RedisCache) Set(ctx context.Context, key string, results []entities.SearchResult) {
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, redisSearchCachePrefix+key, raw, r.ttl).Err(); err != nil {
		logger.For(ctx).WithError(err).Warn("catalog cache write failed")
	}
}

// CachedProvider memoizes the lookups of another provider.
type CachedProvider struct {
	inner Provider
	cache SearchCache
}

func NewCachedProvider(inner Provider, cache SearchCache) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache}
}

func (p *CachedProvider) Name() string { return p.inner.Name() }

func (p *CachedProvider) Search(ctx context.Context, query string, maxResults int) ([]entities.SearchResult, error) {
	key := fmt.Sprintf("%s:search:%d:%s", p.inner.Name(), maxResults, normalizeKey(query))
	if results, ok := p.cache.Get(ctx, key); ok {
		metrics.CatalogCacheTotal.WithLabelValues("hit").Inc()
		return results, nil
	}
	metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()

	results, err := p.inner.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	p.cache.Set(ctx, key, results)
	return results, nil
}

func (p *CachedProvider) SearchByISBN(ctx context.Context, isbn string) (*entities.SearchResult, error) {
	return p.single(ctx, "isbn:"+NormalizeISBN(isbn), func() (*entities.SearchResult, error) {
		return p.inner.SearchByISBN(ctx, isbn)
	})
}

func (p *CachedProvider) SearchByTitle(ctx context.Context, title, author string) (*entities.SearchResult, error) {
	return p.single(ctx, "title:"+normalizeKey(TitleQuery(title, author)), func() (*entities.SearchResult, error) {
		return p.inner.SearchByTitle(ctx, title, author)
	})
}

func (p *CachedProvider) single(ctx context.Context, suffix string, fetch func() (*entities.SearchResult, error)) (*entities.SearchResult, error) {
	key := p.inner.Name() + ":" + suffix
	if results, ok := p.cache.Get(ctx, key); ok && len(results) == 1 {
		metrics.CatalogCacheTotal.WithLabelValues("hit").Inc()
		return &results[0], nil
	}
	metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()

	result, err := fetch()
	if err != nil {
		return nil, err
	}
	p.cache.Set(ctx, key, []entities.SearchResult{*result})
	return result, nil
}

func normalizeKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
