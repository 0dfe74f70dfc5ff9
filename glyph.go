package lumen

import (
	"fmt"
	"image"

	"github.com/fzipp/bmfont"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// GlyphKey identifies a rasterized glyph: a codepoint at a pixel size.
type GlyphKey struct {
	Rune rune
	Size float64
}

// Glyph is a rasterized glyph ready for upload.
type Glyph struct {
	// Mask holds the glyph coverage. Nil or empty for blank glyphs.
	Mask    *image.Alpha
	Metrics GlyphMetrics
}

// GlyphSource rasterizes glyphs on demand.
type GlyphSource interface {
	RasterizeGlyph(r rune, size float64) (Glyph, error)
}

// GlyphUploader is the Renderer's glyph upload surface, as used by GlyphCache.
type GlyphUploader interface {
	UploadGlyph(g Glyph) (Handle, error)
	Release(h Handle) error
}

// GlyphCache maps (rune, size) keys to glyph handles, rasterizing and
// uploading on a miss. Like TextureCache it never releases on Unload/Clear.
type GlyphCache struct {
	cache[GlyphKey]
	up GlyphUploader
}

// NewGlyphCache creates an empty cache uploading through up
// (typically a *Renderer).
func NewGlyphCache(up GlyphUploader) *GlyphCache {
	c := &GlyphCache{up: up}
	c.init()
	return c
}

// Load returns the glyph cached under key, rasterizing it with src on a miss.
func (c *GlyphCache) Load(key GlyphKey, src GlyphSource) (Handle, error) {
	if h, ok := c.entries[key]; ok {
		return h, nil
	}
	g, err := src.RasterizeGlyph(key.Rune, key.Size)
	if err != nil {
		return Handle{}, fmt.Errorf("lumen: rasterize glyph %q@%v: %w", key.Rune, key.Size, err)
	}
	h, err := c.up.UploadGlyph(g)
	if err != nil {
		return Handle{}, err
	}
	c.store(key, h)
	return h, nil
}

// Evict removes the mapping for key and releases its resource.
func (c *GlyphCache) Evict(key GlyphKey) error {
	h, ok := c.entries[key]
	if !ok {
		return nil
	}
	delete(c.entries, key)
	if err := c.up.Release(h); err != nil {
		return fmt.Errorf("lumen: evict glyph %q@%v: %w", key.Rune, key.Size, err)
	}
	return nil
}

// --- OpenType ---

// FaceSource rasterizes glyphs from a TrueType/OpenType font. One face is
// kept per requested size.
type FaceSource struct {
	font  *opentype.Font
	faces map[float64]font.Face
}

// NewFaceSource parses TTF/OTF data.
func NewFaceSource(ttfData []byte) (*FaceSource, error) {
	f, err := opentype.Parse(ttfData)
	if err != nil {
		return nil, fmt.Errorf("lumen: failed to parse font data: %w: %w", ErrDecode, err)
	}
	return &FaceSource{font: f, faces: make(map[float64]font.Face)}, nil
}

// DefaultFaceSource returns a FaceSource for the Go Regular font.
func DefaultFaceSource() *FaceSource {
	s, err := NewFaceSource(goregular.TTF)
	if err != nil {
		panic(err) // embedded font always parses
	}
	return s
}

func (s *FaceSource) face(size float64) (font.Face, error) {
	if f, ok := s.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(s.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	s.faces[size] = f
	return f, nil
}

// RasterizeGlyph renders r at size pixels. Offsets are relative to a dot on
// the baseline.
func (s *FaceSource) RasterizeGlyph(r rune, size float64) (Glyph, error) {
	if size <= 0 {
		return Glyph{}, fmt.Errorf("glyph size %v: %w", size, ErrInvalidSize)
	}
	face, err := s.face(size)
	if err != nil {
		return Glyph{}, err
	}
	dr, mask, maskp, advance, ok := face.Glyph(fixed.Point26_6{}, r)
	if !ok {
		return Glyph{}, fmt.Errorf("rune %q not in font", r)
	}
	g := Glyph{Metrics: GlyphMetrics{
		Offset:  Vec2{float64(dr.Min.X), float64(dr.Min.Y)},
		Advance: float64(advance) / 64,
	}}
	if dr.Empty() {
		return g, nil
	}
	// The face reuses its mask buffer between calls; copy it out.
	out := image.NewAlpha(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	draw.Draw(out, out.Bounds(), mask, maskp, draw.Src)
	g.Mask = out
	return g, nil
}

// --- BMFont ---

// bitmapChar is one glyph of a bitmap font page.
type bitmapChar struct {
	rect    image.Rectangle
	offset  image.Point
	advance int
	page    int
}

// BitmapFontSource serves glyphs from an AngelCode BMFont. Bitmap fonts have
// a single native size; the requested size is ignored.
type BitmapFontSource struct {
	chars map[rune]bitmapChar
	pages map[int]image.Image
	base  int
	size  int
}

// LoadBitmapFont loads a BMFont descriptor and its page images. Page files
// are resolved relative to the descriptor.
func LoadBitmapFont(path string) (*BitmapFontSource, error) {
	f, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("lumen: load bitmap font %s: %w", path, err)
	}
	d := f.Descriptor

	pages := make(map[int]image.Image, len(f.PageSheets))
	for id, img := range f.PageSheets {
		pages[int(id)] = img
	}

	chars := make(map[rune]bitmapChar, len(d.Chars))
	for _, c := range d.Chars {
		chars[rune(c.ID)] = bitmapChar{
			rect:    image.Rect(int(c.X), int(c.Y), int(c.X)+int(c.Width), int(c.Y)+int(c.Height)),
			offset:  image.Pt(int(c.XOffset), int(c.YOffset)),
			advance: int(c.XAdvance),
			page:    int(c.Page),
		}
	}
	return newBitmapFontSource(chars, pages, int(d.Common.Base), int(d.Info.Size)), nil
}

func newBitmapFontSource(chars map[rune]bitmapChar, pages map[int]image.Image, base, size int) *BitmapFontSource {
	return &BitmapFontSource{chars: chars, pages: pages, base: base, size: size}
}

// Size returns the font's native size.
func (s *BitmapFontSource) Size() int { return s.size }

// RasterizeGlyph crops r from its page. Offsets are relative to a dot on
// the baseline.
func (s *BitmapFontSource) RasterizeGlyph(r rune, _ float64) (Glyph, error) {
	c, ok := s.chars[r]
	if !ok {
		return Glyph{}, fmt.Errorf("rune %q not in bitmap font", r)
	}
	g := Glyph{Metrics: GlyphMetrics{
		Offset:  Vec2{float64(c.offset.X), float64(c.offset.Y - s.base)},
		Advance: float64(c.advance),
	}}
	if c.rect.Empty() {
		return g, nil
	}
	page, ok := s.pages[c.page]
	if !ok {
		return Glyph{}, fmt.Errorf("bitmap font page %d missing", c.page)
	}
	out := image.NewAlpha(image.Rect(0, 0, c.rect.Dx(), c.rect.Dy()))
	draw.Draw(out, out.Bounds(), page, c.rect.Min, draw.Src)
	g.Mask = out
	return g, nil
}
