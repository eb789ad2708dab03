// Package cache provides a thread-safe generic map and the rendered markdown cache.
package cache

import "sync"

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

// Update replaces the value under key with fn's result while holding the
// write lock. It reports whether key was present; fn is not called otherwise.
func (c *Cache[K, V]) Update(key K, fn func(V) V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.items[key]
	if !ok {
		return false
	}
	c.items[key] = fn(val)
	return true
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Pop removes and returns the value under key.
func (c *Cache[K, V]) Pop(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.items[key]
	if ok {
		delete(c.items, key)
	}
	return val, ok
}

// Values returns a snapshot of all values in no particular order.
func (c *Cache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]V, 0, len(c.items))
	for _, v := range c.items {
		out = append(out, v)
	}
	return out
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V)
}

// RenderedContent is cached markdown HTML for one content hash and style.
type RenderedContent struct {
	HTML []byte
}

var renderedMarkdownCache = NewCache[string, *RenderedContent]()

func GetRenderedMarkdown(contentHash, syntaxTheme string) (*RenderedContent, bool) {
	key := contentHash + ":" + syntaxTheme
	return renderedMarkdownCache.Get(key)
}

func SetRenderedMarkdown(contentHash, syntaxTheme string, html []byte) {
	key := contentHash + ":" + syntaxTheme
	renderedMarkdownCache.Set(key, &RenderedContent{HTML: html})
}

func ClearRenderedMarkdownCache() {
	renderedMarkdownCache.Clear()
}
