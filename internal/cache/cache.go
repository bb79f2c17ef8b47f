// Package cache implements the bounded exact-match answer cache.
//
// The cache maps normalized question text to answer entries and preserves
// access order: a hit moves the entry to the most-recently-used end, and
// inserts evict from the least-recently-used end once the limit is exceeded.
// All operations are safe for concurrent use; lookup+touch and insert+evict
// each run as one atomic unit under a single mutex.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// Entry is one resolved question/answer pair held for reuse.
type Entry struct {
	// Question is the normalized question text; unique within the cache.
	Question string

	// Answer is the final answer text.
	Answer string

	// Timestamp records when the entry was written. Observability only;
	// eviction order is tracked separately and a hit does not rewrite it.
	Timestamp time.Time
}

// Cache is a bounded, order-tracked mapping from normalized question to
// answer entry with least-recently-used eviction.
type Cache struct {
	mu    sync.Mutex
	limit int
	order *list.List // front = least recently used, back = most recently used
	items map[string]*list.Element
}

// New creates a Cache bounded to limit entries. Limits below 1 are clamped
// to 1 so an insert can always succeed.
func New(limit int) *Cache {
	if limit < 1 {
		limit = 1
	}
	return &Cache{
		limit: limit,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

// Normalize produces the cache key for a raw question: surrounding
// whitespace trimmed, lowercased. Idempotent.
func Normalize(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// Lookup returns the entry for key and marks it most recently used.
// The key must already be normalized. The returned entry is a copy.
func (c *Cache) Lookup(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return Entry{}, false
	}
	c.order.MoveToBack(el)
	return *el.Value.(*Entry), true
}

// Insert creates or overwrites the entry for key, places it at the most
// recently used end, then evicts least-recently-used entries while the size
// exceeds the limit. The just-inserted entry is never evicted.
func (c *Cache) Insert(key, answer string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insert(key, answer, now)
}

func (c *Cache) insert(key, answer string, now time.Time) {
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*Entry)
		entry.Answer = answer
		entry.Timestamp = now
		c.order.MoveToBack(el)
		return
	}

	el := c.order.PushBack(&Entry{Question: key, Answer: answer, Timestamp: now})
	c.items[key] = el

	for len(c.items) > c.limit {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*Entry).Question)
	}
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns the cached questions in access order, least recently used
// first. The slice is a copy and safe to use without the lock.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*Entry).Question)
	}
	return keys
}

// Snapshot returns copies of all entries in access order, least recently
// used first. Used by the semantic matcher and by persistence.
func (c *Cache) Snapshot() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry, 0, len(c.items))
	for el := c.order.Front(); el != nil; el = el.Next() {
		entries = append(entries, *el.Value.(*Entry))
	}
	return entries
}

// Restore replaces the cache content with the given entries, preserving
// their order (first entry becomes least recently used). Entries beyond the
// limit evict in arrival order, exactly as live inserts would.
func (c *Cache) Restore(entries []Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	clear(c.items)
	for _, e := range entries {
		c.insert(Normalize(e.Question), e.Answer, e.Timestamp)
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.items)
}
