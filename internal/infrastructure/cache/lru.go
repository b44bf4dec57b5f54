package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"langpredict/internal/domain/models"
)

// DefaultLRUSize is used when no size is configured
const DefaultLRUSize = 10000

type lruEntry struct {
	result  models.DetectionResult
	expires time.Time
}

// LRUResultCache keeps detection results in process memory
type LRUResultCache struct {
	cache *lru.Cache[string, lruEntry]
	ttl   time.Duration
	now   func() time.Time
}

// NewLRUResultCache creates an in-process result cache holding up to size
// entries. A zero ttl keeps entries until they are evicted.
func NewLRUResultCache(size int, ttl time.Duration) (*LRUResultCache, error) {
	if size <= 0 {
		size = DefaultLRUSize
	}
	c, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRUResultCache{cache: c, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached result for key
func (l *LRUResultCache) Get(_ context.Context, key string) (*models.DetectionResult, bool) {
	e, ok := l.cache.Get(key)
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && l.now().After(e.expires) {
		l.cache.Remove(key)
		return nil, false
	}
	result := e.result
	return &result, true
}

// Set caches result under key
func (l *LRUResultCache) Set(_ context.Context, key string, result *models.DetectionResult) {
	e := lruEntry{result: *result}
	if l.ttl > 0 {
		e.expires = l.now().Add(l.ttl)
	}
	l.cache.Add(key, e)
}

// Len returns the number of cached results
func (l *LRUResultCache) Len() int {
	return l.cache.Len()
}
