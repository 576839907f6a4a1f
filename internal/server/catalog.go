package server

import (
	"context"
	"sync"
)

type modelLister interface {
	ListModels(ctx context.Context) []string
}

// Catalog caches the backend's advertised models. An empty catalog is the
// signal that summarization must not proceed.
type Catalog struct {
	mu     sync.RWMutex
	lister modelLister
	models []string
}

func NewCatalog(lister modelLister) *Catalog {
	return &Catalog{lister: lister}
}

// Refresh replaces the cached list with whatever the backend currently
// advertises and returns it. A failed listing yields an empty catalog.
func (c *Catalog) Refresh(ctx context.Context) []string {
	models := c.lister.ListModels(ctx)

	c.mu.Lock()
	c.models = models
	c.mu.Unlock()

	return models
}

// Models returns the cached list, refreshing first when nothing is cached.
func (c *Catalog) Models(ctx context.Context) []string {
	c.mu.RLock()
	cached := c.models
	c.mu.RUnlock()

	if len(cached) > 0 {
		return cached
	}

	return c.Refresh(ctx)
}

// Contains reports whether the cached list advertises the given model.
func (c *Catalog) Contains(model string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, m := range c.models {
		if m == model {
			return true
		}
	}

	return false
}
