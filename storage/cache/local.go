package cache

import (
	"context"
	"sync"

	"github.com/kifolio/backend/core/portfolio"
)

type localCache struct {
	mutex sync.RWMutex
	pages map[string][]byte
}

var _ portfolio.Cache = (*localCache)(nil) // interface compliance check

// NewLocalCache returns a process-local cache. TTLs are not honored; entries
// live until invalidated or the process exits.
func NewLocalCache() *localCache {
	return &localCache{pages: make(map[string][]byte)}
}

func (c *localCache) GetPublicPage(ctx context.Context, slug string) ([]byte, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	page, ok := c.pages[slug]
	if !ok {
		return nil, portfolio.ErrCacheMiss
	}
	return page, nil
}

func (c *localCache) SetPublicPage(ctx context.Context, slug string, payload []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.pages[slug] = payload
	return nil
}

func (c *localCache) DeletePublicPage(ctx context.Context, slug string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.pages, slug)
	return nil
}
