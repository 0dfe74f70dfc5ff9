package lumen

import (
	"fmt"
	"image"
)

// ResourceKind distinguishes the resources held in a Renderer's table.
type ResourceKind uint8

const (
	KindTexture ResourceKind = iota + 1 // decoded image
	KindGlyph                           // rasterized glyph mask
)

func (k ResourceKind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindGlyph:
		return "glyph"
	default:
		return "invalid"
	}
}

// Handle identifies a resource owned by a Renderer. Handles are comparable
// and cheap to copy. A handle pairs a table slot with the slot's generation,
// so a handle kept after Renderer.Release is detected as stale instead of
// silently aliasing whatever reuses the slot. The zero Handle is never valid.
type Handle struct {
	index      uint32
	generation uint32
	kind       ResourceKind
}

// Kind returns the kind of resource the handle refers to.
func (h Handle) Kind() ResourceKind { return h.kind }

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.generation == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("%s#%d.%d", h.kind, h.index, h.generation)
}

// GlyphMetrics positions a glyph relative to the pen (dot) position.
type GlyphMetrics struct {
	// Offset is the top-left corner of the glyph mask relative to the dot.
	Offset Vec2
	// Advance is the horizontal pen advance in pixels.
	Advance float64
}

// resourceSlot is one entry in the resource table.
type resourceSlot struct {
	img        *image.RGBA // premultiplied; nil for empty glyphs
	metrics    GlyphMetrics
	generation uint32
	kind       ResourceKind
	live       bool
}

// resourceTable is an arena of resources with generation-checked handles.
// Released slots go on a free list and are reused with a bumped generation.
type resourceTable struct {
	slots []resourceSlot
	free  []uint32
	live  int
}

func (t *resourceTable) insert(img *image.RGBA, kind ResourceKind, m GlyphMetrics) Handle {
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, resourceSlot{})
	}
	s := &t.slots[idx]
	s.generation++
	s.img = img
	s.metrics = m
	s.kind = kind
	s.live = true
	t.live++
	return Handle{index: idx, generation: s.generation, kind: kind}
}

func (t *resourceTable) slot(h Handle) (*resourceSlot, error) {
	if h.IsZero() || int(h.index) >= len(t.slots) {
		return nil, fmt.Errorf("lumen: %v: %w", h, ErrStaleHandle)
	}
	s := &t.slots[h.index]
	if !s.live || s.generation != h.generation || s.kind != h.kind {
		return nil, fmt.Errorf("lumen: %v: %w", h, ErrStaleHandle)
	}
	return s, nil
}

// replace swaps the pixels of a live texture. The generation is kept, so
// existing handles stay valid.
func (t *resourceTable) replace(h Handle, img *image.RGBA) error {
	s, err := t.slot(h)
	if err != nil {
		return err
	}
	if s.kind != KindTexture {
		return fmt.Errorf("lumen: replace %v: not a texture: %w", h, ErrStaleHandle)
	}
	s.img = img
	return nil
}

func (t *resourceTable) release(h Handle) error {
	s, err := t.slot(h)
	if err != nil {
		return err
	}
	s.img = nil
	s.metrics = GlyphMetrics{}
	s.live = false
	t.free = append(t.free, h.index)
	t.live--
	return nil
}
