package lumen

import "image"

// Surface is the presentation target a Renderer writes composed frames to.
// Pixels are premultiplied 8-bit RGBA, row by row. *ebiten.Image satisfies
// Surface.
type Surface interface {
	Bounds() image.Rectangle
	WritePixels(pix []byte)
}

// LossReporter is implemented by surfaces whose device context can be lost.
// A lost surface never recovers; the Renderer must be recreated.
type LossReporter interface {
	Lost() bool
}

// ImageSurface is a headless Surface backed by an *image.RGBA. It is used
// for offline rendering and tests.
type ImageSurface struct {
	img  *image.RGBA
	lost bool
}

// NewImageSurface creates a w x h surface.
func NewImageSurface(w, h int) *ImageSurface {
	return &ImageSurface{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Bounds returns the surface rectangle.
func (s *ImageSurface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

// WritePixels replaces the surface contents.
func (s *ImageSurface) WritePixels(pix []byte) {
	copy(s.img.Pix, pix)
}

// Image returns the presented pixels.
func (s *ImageSurface) Image() *image.RGBA {
	return s.img
}

// Resize reallocates the surface. A Renderer configured with the old size
// reports ErrDeviceUnavailable until reconfigured.
func (s *ImageSurface) Resize(w, h int) {
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
}

// Lose marks the surface's device as lost.
func (s *ImageSurface) Lose() {
	s.lost = true
}

// Lost reports whether Lose was called.
func (s *ImageSurface) Lost() bool {
	return s.lost
}

func surfaceLost(s Surface) bool {
	lr, ok := s.(LossReporter)
	return ok && lr.Lost()
}
