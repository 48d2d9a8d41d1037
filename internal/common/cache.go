package common

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Cache wraps go-cache with a generation counter. Every Delete or Flush starts a
// new generation, so a value read from the store before an invalidation can be
// dropped instead of cached with SetIfGeneration.
type Cache struct {
	*cache.Cache

	mu  sync.Mutex
	gen uint64
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{Cache: cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

// Generation must be taken before reading the value that will be cached.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetIfGeneration stores value only if nothing was invalidated since gen was taken.
// It reports whether the value was stored.
func (c *Cache) SetIfGeneration(gen uint64, key string, value interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}

	c.Cache.Set(key, value, cache.DefaultExpiration)
	return true
}

func (c *Cache) Delete(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	for _, key := range keys {
		c.Cache.Delete(key)
	}
}

func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.Cache.Flush()
}

const CacheKeyBlogStats = "blog_stats"

func CacheKeyBlog(id uuid.UUID) string {
	return "blog:" + id.String()
}
