package loader

import (
	"context"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/vango-dev/lazydefine/pkg/customelements"
)

const (
	DefaultCacheTTL             = 10 * time.Minute
	DefaultCacheCleanupInterval = 30 * time.Minute
)

// skipped marks a cached nil implementation.
type skipped struct{}

// Cache memoizes successful loads by URL. Failures are not cached, so a
// later attempt retries the source.
type Cache struct {
	next  Loader
	cache *gocache.Cache
}

// Cached wraps next with a cache whose entries expire after ttl. A ttl of
// zero uses DefaultCacheTTL.
func Cached(next Loader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		next:  next,
		cache: gocache.New(ttl, DefaultCacheCleanupInterval),
	}
}

// Load returns the cached implementation for u, loading it on a miss.
func (c *Cache) Load(ctx context.Context, u *url.URL) (customelements.Implementation, error) {
	key := u.String()
	if v, found := c.cache.Get(key); found {
		if impl, ok := v.(customelements.Implementation); ok {
			return impl, nil
		}
		return nil, nil
	}

	impl, err := c.next.Load(ctx, u)
	if err != nil {
		return nil, err
	}
	if impl == nil {
		c.cache.SetDefault(key, skipped{})
	} else {
		c.cache.SetDefault(key, impl)
	}
	return impl, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return c.cache.ItemCount() }

// Flush empties the cache.
func (c *Cache) Flush() { c.cache.Flush() }
