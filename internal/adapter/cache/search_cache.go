package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// SearchCache is a small LRU of search results keyed by collection, query
// and k. Entries expire after ttl. A cache lives for one query session,
// during which the collection is read-only.
type SearchCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
}

type cacheEntry struct {
	results   []domain.ScoredChunk
	timestamp time.Time
}

func NewSearchCache(maxSize int, ttl time.Duration) *SearchCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SearchCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func cacheKey(collection, query string, k int) string {
	h := sha256.New()
	h.Write([]byte(collection))
	h.Write([]byte{0})
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(k)))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func (c *SearchCache) Get(collection, query string, k int) ([]domain.ScoredChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(collection, query, k)
	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return entry.results, true
}

func (c *SearchCache) Put(collection, query string, k int, results []domain.ScoredChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(collection, query, k)
	if _, exists := c.entries[key]; exists {
		c.removeFromOrder(key)
	} else if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry{
		results:   results,
		timestamp: time.Now(),
	}
	c.order = append(c.order, key)
}

func (c *SearchCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *SearchCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *SearchCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *SearchCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// CachedSearcher serves repeated searches from a SearchCache.
type CachedSearcher struct {
	searcher   port.Searcher
	collection string
	cache      *SearchCache
}

func NewCachedSearcher(searcher port.Searcher, collection string, cache *SearchCache) *CachedSearcher {
	return &CachedSearcher{
		searcher:   searcher,
		collection: collection,
		cache:      cache,
	}
}

func (s *CachedSearcher) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if results, hit := s.cache.Get(s.collection, query, k); hit {
		return results, nil
	}

	results, err := s.searcher.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	s.cache.Put(s.collection, query, k, results)
	return results, nil
}
