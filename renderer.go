package lumen

import (
	"fmt"
	"image"
	"time"

	"golang.org/x/image/vector"
)

// Renderer owns the resource table and composes frames on the CPU into a
// linear HDR color target, then presents them to a Surface.
//
// A frame is composed in a fixed pass order, independent of the order in
// which draw and light calls were recorded:
//
//  1. opaque pass: clear, then polygons, circles and sprites in submission order
//  2. occlusion capture: pixels covered by occluding geometry
//  3. lighting: each point light adds color * attenuation * cone * visibility,
//     then directional lights add a uniform term
//  4. present: tone map, convert to 8-bit and write to the surface
//
// Renderer is single-threaded. At most one Frame is open at a time.
type Renderer struct {
	cfg     RendererConfig
	surface Surface
	w, h    int
	lost    bool

	resources resourceTable

	open     *Frame
	frameSeq uint64

	// Reused per-frame buffers.
	commands    []drawCommand
	points      []Vec2
	lights      []PointLight
	directional []DirectionalLight

	// Compositor state.
	target        []float32 // premultiplied linear RGBA, 4 floats per pixel
	occluders     []bool
	occluderCount int
	raster        vector.Rasterizer
	mask          *image.Alpha
	layer         *image.RGBA
	clip          [2][]Vec2
	shadow        shadowMap
	out           []byte

	screenshotQueue []string
}

// NewRenderer creates a renderer presenting to surface. Zero-valued settings
// in cfg take their defaults; an invalid cfg is rejected.
func NewRenderer(surface Surface, cfg RendererConfig) (*Renderer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Renderer{cfg: cfg}
	if err := r.Configure(surface); err != nil {
		return nil, err
	}
	return r, nil
}

// withDefaults fills unset enum and limit fields from DefaultConfig.
func (c RendererConfig) withDefaults() RendererConfig {
	def := DefaultConfig().Renderer
	if c.Filter == "" {
		c.Filter = def.Filter
	}
	if c.ToneMap == "" {
		c.ToneMap = def.ToneMap
	}
	if c.MaxShadowBins == 0 {
		c.MaxShadowBins = def.MaxShadowBins
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = def.ScreenshotDir
	}
	return c
}

// Configure (re)binds the renderer to a surface and sizes the frame target
// to match it. Call it after BeginFrame reports ErrDeviceUnavailable.
// Resources survive reconfiguration.
func (r *Renderer) Configure(surface Surface) error {
	if r.open != nil {
		return protocolViolation("Configure", "a frame is open")
	}
	if r.lost {
		return ErrDeviceLost
	}
	b := surface.Bounds()
	if b.Empty() {
		return fmt.Errorf("lumen: configure surface %dx%d: %w", b.Dx(), b.Dy(), ErrInvalidSize)
	}
	r.surface = surface
	if b.Dx() != r.w || b.Dy() != r.h {
		r.w, r.h = b.Dx(), b.Dy()
		n := r.w * r.h
		r.target = make([]float32, n*4)
		r.occluders = make([]bool, n)
		r.out = make([]byte, n*4)
	}
	logger.Info("renderer configured", "w", r.w, "h", r.h)
	return nil
}

// Size returns the frame target size in pixels.
func (r *Renderer) Size() (w, h int) {
	return r.w, r.h
}

// Config returns the renderer settings.
func (r *Renderer) Config() RendererConfig {
	return r.cfg
}

// BeginFrame opens a frame for recording.
//
// It returns ErrDeviceUnavailable when the surface size no longer matches the
// configured size, and ErrDeviceLost when the surface's device is gone. Opening
// a second frame before ending the first returns a *ProtocolError.
func (r *Renderer) BeginFrame() (*Frame, error) {
	if r.open != nil {
		return nil, protocolViolation("BeginFrame", "a frame is already open")
	}
	if err := r.checkSurface(); err != nil {
		return nil, err
	}
	r.frameSeq++
	f := &Frame{
		r:          r,
		seq:        r.frameSeq,
		state:      frameRecording,
		clearColor: Color{0, 0, 0, 1},
	}
	r.commands = r.commands[:0]
	r.points = r.points[:0]
	r.lights = r.lights[:0]
	r.directional = r.directional[:0]
	r.open = f
	return f, nil
}

func (r *Renderer) checkSurface() error {
	if r.lost || surfaceLost(r.surface) {
		r.lost = true
		return ErrDeviceLost
	}
	b := r.surface.Bounds()
	if b.Dx() != r.w || b.Dy() != r.h {
		return fmt.Errorf("lumen: surface is %dx%d, configured %dx%d: %w",
			b.Dx(), b.Dy(), r.w, r.h, ErrDeviceUnavailable)
	}
	return nil
}

// EndFrame composes and presents the frame's recorded passes and ends it.
// The frame is ended even when an error is returned; on ErrDeviceLost or
// ErrDeviceUnavailable nothing is presented. Ending a frame twice, or ending
// a frame of another renderer, panics with a *ProtocolError.
func (r *Renderer) EndFrame(f *Frame) error {
	if f == nil || f.r != r {
		panic(protocolViolation("EndFrame", "frame does not belong to this renderer"))
	}
	f.check("EndFrame")
	f.state = frameSubmitted
	r.open = nil

	if err := r.checkSurface(); err != nil {
		logger.Warn("frame dropped", "frame", f.seq, "err", err)
		return err
	}

	stats := frameStats{
		frame:       f.seq,
		commands:    len(r.commands),
		lights:      len(r.lights),
		directional: len(r.directional),
	}

	t0 := time.Now()
	r.opaquePass(f.clearColor)
	stats.occluderPixels = r.occluderCount
	stats.opaqueTime = time.Since(t0)

	t0 = time.Now()
	r.lightPass()
	stats.lightTime = time.Since(t0)

	t0 = time.Now()
	r.present()
	stats.presentTime = time.Since(t0)

	r.flushScreenshots()

	if r.cfg.Debug {
		stats.log()
	}
	return nil
}

// FrameCount returns the number of frames begun so far.
func (r *Renderer) FrameCount() uint64 {
	return r.frameSeq
}
