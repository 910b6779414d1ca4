package layout

import (
	"container/list"
	"sync"
)

// baseCache is an LRU of base layouts keyed by structural signature
type baseCache struct {
	mu       sync.Mutex
	capacity int
	cache    map[string]*list.Element
	lru      *list.List

	hits   int64
	misses int64
}

type cacheEntry struct {
	key   string
	value *base
}

func newBaseCache(capacity int) *baseCache {
	return &baseCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

func (c *baseCache) get(key string) (*base, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		c.hits++
		return elem.Value.(*cacheEntry).value, true
	}

	c.misses++
	return nil, false
}

func (c *baseCache) put(key string, value *base) {
	if c.capacity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	c.cache[key] = c.lru.PushFront(&cacheEntry{key: key, value: value})

	if c.lru.Len() > c.capacity {
		elem := c.lru.Back()
		c.lru.Remove(elem)
		delete(c.cache, elem.Value.(*cacheEntry).key)
	}
}

func (c *baseCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*list.Element)
	c.lru = list.New()
	c.hits = 0
	c.misses = 0
}

// CacheStats reports base layout cache effectiveness
type CacheStats struct {
	Hits    int64
	Misses  int64
	Size    int
	HitRate float64
}

func (c *baseCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := CacheStats{Hits: c.hits, Misses: c.misses, Size: c.lru.Len()}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}
