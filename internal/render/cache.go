package render

import (
	"sync"

	"github.com/samcharles93/artorize/internal/mask"
)

// RenderCache memoises the most recent overlay. It holds one entry keyed by
// the container generation and the effective render resolution.
type RenderCache struct {
	mu    sync.Mutex
	gen   uint64
	w, h  int
	img   *mask.Image
	valid bool
}

// Get returns the cached image if it was computed for gen at w x h.
func (c *RenderCache) Get(gen uint64, w, h int) (*mask.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || c.gen != gen || c.w != w || c.h != h {
		return nil, false
	}
	return c.img, true
}

// Put replaces the cached entry.
func (c *RenderCache) Put(gen uint64, w, h int, img *mask.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen, c.w, c.h, c.img, c.valid = gen, w, h, img, img != nil
}

// Invalidate drops the cached entry.
func (c *RenderCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.img = nil
	c.valid = false
}
