package lumen

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource counts rasterizations and returns a fixed glyph.
type countingSource struct {
	calls int
	fail  bool
}

func (s *countingSource) RasterizeGlyph(r rune, size float64) (Glyph, error) {
	s.calls++
	if s.fail {
		return Glyph{}, errors.New("no glyph")
	}
	return Glyph{
		Mask:    image.NewAlpha(image.Rect(0, 0, 2, 2)),
		Metrics: GlyphMetrics{Advance: size / 2},
	}, nil
}

func TestGlyphCacheRasterizesOnce(t *testing.T) {
	r, _ := newTestRenderer(t, 4, 4)
	c := NewGlyphCache(r)
	src := &countingSource{}

	h1, err := c.Load(GlyphKey{'a', 12}, src)
	require.NoError(t, err)
	h2, err := c.Load(GlyphKey{'a', 12}, src)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, src.calls)

	// A different size is a different glyph.
	h3, err := c.Load(GlyphKey{'a', 24}, src)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 2, c.Len())
}

func TestGlyphCacheFailureLeavesCacheUnchanged(t *testing.T) {
	r, _ := newTestRenderer(t, 4, 4)
	c := NewGlyphCache(r)
	_, err := c.Load(GlyphKey{'x', 10}, &countingSource{fail: true})
	require.Error(t, err)
	assert.False(t, c.Has(GlyphKey{'x', 10}))
	assert.Zero(t, r.ResourceCount())
}

func TestGlyphCacheUnloadAndEvict(t *testing.T) {
	r, _ := newTestRenderer(t, 4, 4)
	c := NewGlyphCache(r)
	src := &countingSource{}
	a, err := c.Load(GlyphKey{'a', 12}, src)
	require.NoError(t, err)
	b, err := c.Load(GlyphKey{'b', 12}, src)
	require.NoError(t, err)

	c.Unload(GlyphKey{'a', 12})
	assert.True(t, r.Valid(a))

	require.NoError(t, c.Evict(GlyphKey{'b', 12}))
	assert.False(t, r.Valid(b))
	assert.Zero(t, c.Len())
}

func TestFaceSourceRasterize(t *testing.T) {
	src := DefaultFaceSource()
	g, err := src.RasterizeGlyph('A', 32)
	require.NoError(t, err)
	require.NotNil(t, g.Mask)
	assert.Positive(t, g.Metrics.Advance)
	assert.Negative(t, g.Metrics.Offset.Y, "glyph rises above the baseline")

	var maxA uint8
	for _, a := range g.Mask.Pix {
		maxA = max(maxA, a)
	}
	assert.Equal(t, uint8(255), maxA)

	space, err := src.RasterizeGlyph(' ', 32)
	require.NoError(t, err)
	assert.Nil(t, space.Mask)
	assert.Positive(t, space.Metrics.Advance)

	_, err = src.RasterizeGlyph('A', 0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestNewFaceSourceRejectsGarbage(t *testing.T) {
	_, err := NewFaceSource([]byte("not a font"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestBitmapFontSource(t *testing.T) {
	page := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 6; y++ {
		for x := 0; x < 4; x++ {
			page.Set(x, y, color.White)
		}
	}
	src := newBitmapFontSource(map[rune]bitmapChar{
		'A': {rect: image.Rect(0, 0, 4, 6), offset: image.Pt(1, 2), advance: 5, page: 0},
		' ': {advance: 3},
		'B': {rect: image.Rect(0, 0, 1, 1), page: 7},
	}, map[int]image.Image{0: page}, 10, 12)

	assert.Equal(t, 12, src.Size())

	g, err := src.RasterizeGlyph('A', 99)
	require.NoError(t, err)
	assert.Equal(t, Vec2{1, -8}, g.Metrics.Offset)
	assert.Equal(t, 5.0, g.Metrics.Advance)
	require.NotNil(t, g.Mask)
	assert.Equal(t, image.Rect(0, 0, 4, 6), g.Mask.Bounds())
	assert.Equal(t, uint8(255), g.Mask.AlphaAt(3, 5).A)

	sp, err := src.RasterizeGlyph(' ', 12)
	require.NoError(t, err)
	assert.Nil(t, sp.Mask)
	assert.Equal(t, 3.0, sp.Metrics.Advance)

	_, err = src.RasterizeGlyph('B', 12)
	assert.Error(t, err, "missing page")
	_, err = src.RasterizeGlyph('Z', 12)
	assert.Error(t, err)
}

const testFontDescriptor = `info face="Test" size=12 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=0 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=12 base=10 scaleW=8 scaleH=8 pages=1 packed=0 alphaChnl=1 redChnl=0 greenChnl=0 blueChnl=0
page id=0 file="test_0.png"
chars count=2
char id=65   x=0     y=0     width=4     height=6     xoffset=1     yoffset=2     xadvance=5     page=0  chnl=15
char id=32   x=0     y=0     width=0     height=0     xoffset=0     yoffset=0     xadvance=3     page=0  chnl=15
`

func TestLoadBitmapFont(t *testing.T) {
	dir := t.TempDir()
	page := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 6; y++ {
		for x := 0; x < 4; x++ {
			page.Set(x, y, color.White)
		}
	}
	fh, err := os.Create(filepath.Join(dir, "test_0.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(fh, page))
	require.NoError(t, fh.Close())
	path := filepath.Join(dir, "test.fnt")
	require.NoError(t, os.WriteFile(path, []byte(testFontDescriptor), 0o644))

	src, err := LoadBitmapFont(path)
	require.NoError(t, err)
	assert.Equal(t, 12, src.Size())

	g, err := src.RasterizeGlyph('A', 12)
	require.NoError(t, err)
	assert.Equal(t, Vec2{1, -8}, g.Metrics.Offset)
	assert.Equal(t, 5.0, g.Metrics.Advance)
	require.NotNil(t, g.Mask)
	assert.Equal(t, image.Rect(0, 0, 4, 6), g.Mask.Bounds())
	assert.Equal(t, uint8(255), g.Mask.AlphaAt(0, 0).A)

	sp, err := src.RasterizeGlyph(' ', 12)
	require.NoError(t, err)
	assert.Nil(t, sp.Mask)
	assert.Equal(t, 3.0, sp.Metrics.Advance)
}

func TestLoadBitmapFontMissingFile(t *testing.T) {
	_, err := LoadBitmapFont(filepath.Join(t.TempDir(), "missing.fnt"))
	assert.Error(t, err)
}
