package lumen

import "fmt"

// cache maps keys to handles. It never owns the resources it points to:
// removing a mapping leaves the resource alive in the Renderer.
// Not safe for concurrent use.
type cache[K comparable] struct {
	entries map[K]Handle
}

func (c *cache[K]) init() {
	if c.entries == nil {
		c.entries = make(map[K]Handle)
	}
}

// Get returns the handle cached under key.
func (c *cache[K]) Get(key K) (Handle, bool) {
	h, ok := c.entries[key]
	return h, ok
}

// Has reports whether key has a cached handle.
func (c *cache[K]) Has(key K) bool {
	_, ok := c.entries[key]
	return ok
}

// Unload removes the mapping for key. The resource itself stays alive in
// the Renderer until released.
func (c *cache[K]) Unload(key K) {
	delete(c.entries, key)
}

// Clear removes every mapping. Resources stay alive in the Renderer.
func (c *cache[K]) Clear() {
	clear(c.entries)
}

// Len returns the number of cached mappings.
func (c *cache[K]) Len() int {
	return len(c.entries)
}

func (c *cache[K]) store(key K, h Handle) {
	c.init()
	c.entries[key] = h
}

// TextureUploader is the Renderer's texture upload surface, as used by
// TextureCache.
type TextureUploader interface {
	LoadTextureFromFile(path string) (Handle, error)
	LoadTextureFromBytes(data []byte) (Handle, error)
	LoadTextureFromRGBA(pix []byte, width, height int) (Handle, error)
	ReplaceTextureFromFile(h Handle, path string) error
	Release(h Handle) error
}

// TextureCache maps string keys to texture handles, uploading on a miss.
//
// Files are cached under their path. Byte and pixel loads are cached under a
// caller-chosen key; reusing a key for different data returns the first
// upload until Evict drops it. Keys are never checked
// against content.
type TextureCache struct {
	cache[string]
	up TextureUploader
}

// NewTextureCache creates an empty cache uploading through up
// (typically a *Renderer).
func NewTextureCache(up TextureUploader) *TextureCache {
	c := &TextureCache{up: up}
	c.init()
	return c
}

// LoadFile returns the texture cached under path, decoding and uploading
// the file on a miss.
func (c *TextureCache) LoadFile(path string) (Handle, error) {
	if h, ok := c.entries[path]; ok {
		return h, nil
	}
	h, err := c.up.LoadTextureFromFile(path)
	if err != nil {
		return Handle{}, err
	}
	c.store(path, h)
	logger.Debug("texture cache miss", "key", path, "handle", h)
	return h, nil
}

// LoadBytes returns the texture cached under key, decoding data on a miss.
func (c *TextureCache) LoadBytes(key string, data []byte) (Handle, error) {
	if h, ok := c.entries[key]; ok {
		return h, nil
	}
	h, err := c.up.LoadTextureFromBytes(data)
	if err != nil {
		return Handle{}, err
	}
	c.store(key, h)
	logger.Debug("texture cache miss", "key", key, "handle", h)
	return h, nil
}

// LoadRGBA returns the texture cached under key, uploading raw
// non-premultiplied pixels on a miss.
func (c *TextureCache) LoadRGBA(key string, pix []byte, width, height int) (Handle, error) {
	if h, ok := c.entries[key]; ok {
		return h, nil
	}
	h, err := c.up.LoadTextureFromRGBA(pix, width, height)
	if err != nil {
		return Handle{}, err
	}
	c.store(key, h)
	logger.Debug("texture cache miss", "key", key, "handle", h)
	return h, nil
}

// Reload decodes path again. A cached texture is updated in place, so the
// handle returned by LoadFile, and every copy of it, keeps working and draws
// the new pixels. An uncached path is loaded and cached. If decoding fails
// the cache and the old texture are left unchanged.
func (c *TextureCache) Reload(path string) (Handle, error) {
	if h, ok := c.entries[path]; ok {
		if err := c.up.ReplaceTextureFromFile(h, path); err != nil {
			return Handle{}, err
		}
		logger.Debug("texture reloaded", "key", path, "handle", h)
		return h, nil
	}
	h, err := c.up.LoadTextureFromFile(path)
	if err != nil {
		return Handle{}, err
	}
	c.store(path, h)
	logger.Debug("texture reloaded", "key", path, "handle", h)
	return h, nil
}

// Evict removes the mapping for key and releases its resource.
func (c *TextureCache) Evict(key string) error {
	h, ok := c.entries[key]
	if !ok {
		return nil
	}
	delete(c.entries, key)
	if err := c.up.Release(h); err != nil {
		return fmt.Errorf("lumen: evict texture %q: %w", key, err)
	}
	return nil
}
