package lumen

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// TextureWatcher reloads file-backed textures when they change on disk.
//
// File events arrive on a background goroutine and are only queued; the
// reloads happen in Poll, which must be called from the thread that owns the
// Renderer and the TextureCache (typically once per update tick).
type TextureWatcher struct {
	cache   *TextureCache
	watcher *fsnotify.Watcher
	done    chan struct{}

	mu      sync.Mutex
	keys    map[string]string // cleaned path -> cache key
	dirs    map[string]int    // watched directory -> file count
	dirty   map[string]struct{}
	lastErr error
}

// NewTextureWatcher starts watching for changes. Close it when done.
func NewTextureWatcher(c *TextureCache) (*TextureWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("lumen: texture watcher: %w", err)
	}
	tw := &TextureWatcher{
		cache:   c,
		watcher: w,
		done:    make(chan struct{}),
		keys:    make(map[string]string),
		dirs:    make(map[string]int),
		dirty:   make(map[string]struct{}),
	}
	go tw.run()
	return tw, nil
}

// Watch registers a texture path (as passed to TextureCache.LoadFile). The
// containing directory is watched so editors that replace files on save are
// still noticed.
func (tw *TextureWatcher) Watch(path string) error {
	clean := filepath.Clean(path)
	dir := filepath.Dir(clean)

	tw.mu.Lock()
	defer tw.mu.Unlock()
	if _, ok := tw.keys[clean]; ok {
		return nil
	}
	if tw.dirs[dir] == 0 {
		if err := tw.watcher.Add(dir); err != nil {
			return fmt.Errorf("lumen: watch %s: %w", dir, err)
		}
	}
	tw.dirs[dir]++
	tw.keys[clean] = path
	return nil
}

// Unwatch stops reloading path.
func (tw *TextureWatcher) Unwatch(path string) error {
	clean := filepath.Clean(path)
	dir := filepath.Dir(clean)

	tw.mu.Lock()
	defer tw.mu.Unlock()
	if _, ok := tw.keys[clean]; !ok {
		return nil
	}
	delete(tw.keys, clean)
	delete(tw.dirty, clean)
	tw.dirs[dir]--
	if tw.dirs[dir] == 0 {
		delete(tw.dirs, dir)
		return tw.watcher.Remove(dir)
	}
	return nil
}

func (tw *TextureWatcher) run() {
	for {
		select {
		case e, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if e.Has(fsnotify.Write) || e.Has(fsnotify.Create) {
				tw.markDirty(e.Name)
			}
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			tw.mu.Lock()
			tw.lastErr = err
			tw.mu.Unlock()
		case <-tw.done:
			return
		}
	}
}

// markDirty queues a reload if name is a watched texture.
func (tw *TextureWatcher) markDirty(name string) {
	clean := filepath.Clean(name)
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if _, ok := tw.keys[clean]; ok {
		tw.dirty[clean] = struct{}{}
	}
}

// Poll reloads every texture changed since the last call and returns the
// number reloaded. Textures no longer in the cache are skipped. Reload
// failures leave the previous texture in place and are joined into the
// returned error.
func (tw *TextureWatcher) Poll() (int, error) {
	tw.mu.Lock()
	var paths []string
	for clean := range tw.dirty {
		paths = append(paths, tw.keys[clean])
	}
	clear(tw.dirty)
	watchErr := tw.lastErr
	tw.lastErr = nil
	tw.mu.Unlock()

	var errs []error
	if watchErr != nil {
		errs = append(errs, fmt.Errorf("lumen: texture watcher: %w", watchErr))
	}
	n := 0
	for _, p := range paths {
		if !tw.cache.Has(p) {
			continue
		}
		if _, err := tw.cache.Reload(p); err != nil {
			logger.Warn("texture reload failed", "path", p, "err", err)
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

// Close stops the watcher.
func (tw *TextureWatcher) Close() error {
	close(tw.done)
	return tw.watcher.Close()
}
