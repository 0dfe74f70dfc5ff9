package lumen

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadTextureFromFile decodes the image at path and uploads it.
// PNG, JPEG, GIF, BMP, TIFF and WebP are supported.
func (r *Renderer) LoadTextureFromFile(path string) (Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Handle{}, fmt.Errorf("lumen: read texture %s: %w", path, err)
	}
	h, err := r.LoadTextureFromBytes(data)
	if err != nil {
		return Handle{}, fmt.Errorf("lumen: texture %s: %w", path, err)
	}
	return h, nil
}

// LoadTextureFromBytes decodes an encoded image and uploads it.
func (r *Renderer) LoadTextureFromBytes(data []byte) (Handle, error) {
	rgba, format, err := decodeTexture(data)
	if err != nil {
		return Handle{}, err
	}
	h := r.resources.insert(rgba, KindTexture, GlyphMetrics{})
	logger.Debug("texture uploaded", "handle", h, "format", format, "w", rgba.Rect.Dx(), "h", rgba.Rect.Dy())
	return h, nil
}

// ReplaceTextureFromFile decodes the image at path into the existing texture
// h. The handle, and every copy of it, stays valid and draws the new pixels.
// On failure the old texture is kept.
func (r *Renderer) ReplaceTextureFromFile(h Handle, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("lumen: read texture %s: %w", path, err)
	}
	rgba, format, err := decodeTexture(data)
	if err != nil {
		return fmt.Errorf("lumen: texture %s: %w", path, err)
	}
	if err := r.resources.replace(h, rgba); err != nil {
		return err
	}
	logger.Debug("texture replaced", "handle", h, "format", format, "w", rgba.Rect.Dx(), "h", rgba.Rect.Dy())
	return nil
}

func decodeTexture(data []byte) (*image.RGBA, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Warn("texture decode failed", "bytes", len(data), "err", err)
		return nil, "", fmt.Errorf("lumen: decode texture: %w: %w", ErrDecode, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, "", fmt.Errorf("lumen: decode %s texture: %w: %w", format, ErrDecode, ErrInvalidSize)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, format, nil
}

// LoadTextureFromRGBA uploads raw, non-premultiplied 8-bit RGBA pixels laid
// out row by row with no padding.
func (r *Renderer) LoadTextureFromRGBA(pix []byte, width, height int) (Handle, error) {
	if width <= 0 || height <= 0 {
		return Handle{}, fmt.Errorf("lumen: rgba texture %dx%d: %w: %w", width, height, ErrDecode, ErrInvalidSize)
	}
	if len(pix) != width*height*4 {
		return Handle{}, fmt.Errorf("lumen: rgba texture %dx%d has %d bytes, want %d: %w",
			width, height, len(pix), width*height*4, ErrDecode)
	}
	src := &image.NRGBA{Pix: pix, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	rgba := image.NewRGBA(src.Rect)
	draw.Draw(rgba, rgba.Bounds(), src, image.Point{}, draw.Src)
	h := r.resources.insert(rgba, KindTexture, GlyphMetrics{})
	logger.Debug("texture uploaded", "handle", h, "format", "rgba", "w", width, "h", height)
	return h, nil
}

// UploadGlyph stores a rasterized glyph as a white texture whose alpha is the
// glyph coverage. An empty mask (e.g. a space) is valid; it has metrics but
// draws nothing.
func (r *Renderer) UploadGlyph(g Glyph) (Handle, error) {
	var rgba *image.RGBA
	if g.Mask != nil && !g.Mask.Bounds().Empty() {
		b := g.Mask.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				a := g.Mask.AlphaAt(b.Min.X+x, b.Min.Y+y).A
				i := rgba.PixOffset(x, y)
				rgba.Pix[i+0] = a
				rgba.Pix[i+1] = a
				rgba.Pix[i+2] = a
				rgba.Pix[i+3] = a
			}
		}
	}
	h := r.resources.insert(rgba, KindGlyph, g.Metrics)
	logger.Debug("glyph uploaded", "handle", h)
	return h, nil
}

// Release frees a resource. The handle, and every copy of it, becomes stale.
// Caches are not notified; use TextureCache.Evict to drop a mapping and its
// resource together.
func (r *Renderer) Release(h Handle) error {
	if err := r.resources.release(h); err != nil {
		return err
	}
	logger.Debug("resource released", "handle", h)
	return nil
}

// TextureSize returns the pixel size of a texture or glyph.
func (r *Renderer) TextureSize(h Handle) (w, hgt int, err error) {
	s, err := r.resources.slot(h)
	if err != nil {
		return 0, 0, err
	}
	if s.img == nil {
		return 0, 0, nil
	}
	b := s.img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// GlyphMetrics returns the placement metrics stored with a glyph.
func (r *Renderer) GlyphMetrics(h Handle) (GlyphMetrics, error) {
	s, err := r.resources.slot(h)
	if err != nil {
		return GlyphMetrics{}, err
	}
	return s.metrics, nil
}

// Valid reports whether h refers to a live resource.
func (r *Renderer) Valid(h Handle) bool {
	_, err := r.resources.slot(h)
	return err == nil
}

// ResourceCount returns the number of live resources.
func (r *Renderer) ResourceCount() int {
	return r.resources.live
}
