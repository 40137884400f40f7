package rpc

import "container/list"

// responseCache is an LRU of already-answered requests keyed op:request_id,
// caching the exact response bytes so a retried request gets the original
// outcome instead of a duplicate execution.
// Not thread-safe — only accessed from the single-threaded dispatch loop.
type responseCache struct {
	capacity int
	cache    map[string]*list.Element
	lruList  *list.List

	evictions int64
}

type cacheEntry struct {
	key      string
	response []byte
}

func newResponseCache(capacity int) *responseCache {
	return &responseCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element, capacity),
		lruList:  list.New(),
	}
}

// Get returns the cached response for key, promoting it to most recently used.
func (c *responseCache) Get(key string) ([]byte, bool) {
	elem, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	c.lruList.MoveToFront(elem)
	return elem.Value.(*cacheEntry).response, true
}

// Put stores a response (or refreshes if the key exists).
func (c *responseCache) Put(key string, response []byte) {
	if elem, ok := c.cache[key]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value.(*cacheEntry).response = response
		return
	}

	elem := c.lruList.PushFront(&cacheEntry{key: key, response: response})
	c.cache[key] = elem

	if c.lruList.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *responseCache) evictOldest() {
	elem := c.lruList.Back()
	if elem == nil {
		return
	}
	c.lruList.Remove(elem)
	delete(c.cache, elem.Value.(*cacheEntry).key)
	c.evictions++
}

// Size returns the current number of entries.
func (c *responseCache) Size() int {
	return c.lruList.Len()
}

// Evictions returns total evictions, for monitoring.
func (c *responseCache) Evictions() int64 {
	return c.evictions
}
