package lumen

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceTableInsertRelease(t *testing.T) {
	var tbl resourceTable
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	h := tbl.insert(img, KindTexture, GlyphMetrics{})
	assert.False(t, h.IsZero())
	assert.Equal(t, 1, tbl.live)

	s, err := tbl.slot(h)
	require.NoError(t, err)
	assert.Same(t, img, s.img)

	require.NoError(t, tbl.release(h))
	assert.Zero(t, tbl.live)
	_, err = tbl.slot(h)
	assert.ErrorIs(t, err, ErrStaleHandle)
	assert.ErrorIs(t, tbl.release(h), ErrStaleHandle, "double release")
}

func TestResourceTableSlotReuseBumpsGeneration(t *testing.T) {
	var tbl resourceTable
	old := tbl.insert(nil, KindTexture, GlyphMetrics{})
	require.NoError(t, tbl.release(old))

	h := tbl.insert(nil, KindTexture, GlyphMetrics{})
	assert.Equal(t, old.index, h.index, "slot reused")
	assert.NotEqual(t, old, h)

	_, err := tbl.slot(old)
	assert.ErrorIs(t, err, ErrStaleHandle)
	_, err = tbl.slot(h)
	assert.NoError(t, err)
}

func TestResourceTableRejectsForeignHandles(t *testing.T) {
	var tbl resourceTable
	h := tbl.insert(nil, KindGlyph, GlyphMetrics{Advance: 3})

	_, err := tbl.slot(Handle{})
	assert.ErrorIs(t, err, ErrStaleHandle)

	wrongKind := h
	wrongKind.kind = KindTexture
	_, err = tbl.slot(wrongKind)
	assert.ErrorIs(t, err, ErrStaleHandle)

	outOfRange := h
	outOfRange.index = 99
	_, err = tbl.slot(outOfRange)
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestHandleString(t *testing.T) {
	var tbl resourceTable
	h := tbl.insert(nil, KindGlyph, GlyphMetrics{})
	assert.Equal(t, "glyph#0.1", h.String())
	assert.Equal(t, "invalid", ResourceKind(0).String())
}

func TestRendererReleaseAndMetrics(t *testing.T) {
	r, _ := newTestRenderer(t, 4, 4)
	g, err := r.UploadGlyph(Glyph{
		Mask:    image.NewAlpha(image.Rect(0, 0, 3, 5)),
		Metrics: GlyphMetrics{Offset: Vec2{1, -5}, Advance: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, KindGlyph, g.Kind())

	m, err := r.GlyphMetrics(g)
	require.NoError(t, err)
	assert.Equal(t, 4.0, m.Advance)
	w, h, err := r.TextureSize(g)
	require.NoError(t, err)
	assert.Equal(t, [2]int{3, 5}, [2]int{w, h})

	blank, err := r.UploadGlyph(Glyph{Metrics: GlyphMetrics{Advance: 4}})
	require.NoError(t, err)
	w, h, err = r.TextureSize(blank)
	require.NoError(t, err)
	assert.Zero(t, w+h)

	require.NoError(t, r.Release(g))
	assert.ErrorIs(t, r.Release(g), ErrStaleHandle)
	_, err = r.GlyphMetrics(g)
	assert.ErrorIs(t, err, ErrStaleHandle)
	assert.Equal(t, 1, r.ResourceCount())
}
