package api

import (
	"sync"

	"github.com/loadscope/loadscope/pkg/advisor"
)

// AnswerCache is a thread-safe LRU cache for generated answers, keyed by
// canonical loadout, score and normalized query.
type AnswerCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]advisor.Answer
	order   []string // oldest first
}

// NewAnswerCache creates a cache with the given maximum number of entries.
// If maxSize <= 0, it defaults to 256.
func NewAnswerCache(maxSize int) *AnswerCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &AnswerCache{
		maxSize: maxSize,
		entries: make(map[string]advisor.Answer),
	}
}

// Get retrieves an answer from the cache.
func (c *AnswerCache) Get(key string) (advisor.Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ans, ok := c.entries[key]
	if !ok {
		return advisor.Answer{}, false
	}

	// Move to end (most recently used)
	c.moveToEnd(key)
	return ans, true
}

// Put adds an answer to the cache, evicting the oldest if full.
func (c *AnswerCache) Put(key string, ans advisor.Answer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = ans
		c.moveToEnd(key)
		return
	}

	// Evict oldest if at capacity
	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = ans
	c.order = append(c.order, key)
}

// Len returns the number of cached answers.
func (c *AnswerCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *AnswerCache) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, key)
			return
		}
	}
}
