package lumen

import (
	"image"
	"math"
)

// frameState is the lifecycle of a Frame: Recording until EndFrame, then
// Submitted for good.
type frameState uint8

const (
	frameRecording frameState = iota + 1
	frameSubmitted
)

// commandKind identifies an opaque-pass draw command.
type commandKind uint8

const (
	commandPolygon commandKind = iota // filled polygon (also circles)
	commandSprite                     // transformed texture
)

// drawCommand is one recorded opaque-pass draw, already in screen space.
type drawCommand struct {
	kind     commandKind
	points   []Vec2      // commandPolygon
	color    Color       // fill color, or sprite tint
	occluder bool        // registers in the occlusion capture
	img      *image.RGBA // commandSprite
	matrix   [6]float64  // commandSprite: texture pixels -> screen
}

// Frame records one frame's draw and light calls. Obtain one from
// Renderer.BeginFrame; it is consumed by Renderer.EndFrame (or End).
// Any call on an ended frame panics with a *ProtocolError.
type Frame struct {
	r          *Renderer
	seq        uint64
	state      frameState
	clearColor Color
}

// Seq returns the frame's sequence number, starting at 1.
func (f *Frame) Seq() uint64 {
	return f.seq
}

// Open reports whether the frame still accepts draw calls.
func (f *Frame) Open() bool {
	return f != nil && f.r != nil && f.state == frameRecording && f.r.open == f
}

// check panics unless the frame is recording.
func (f *Frame) check(op string) {
	if f == nil || f.r == nil {
		panic(protocolViolation(op, "frame was not obtained from BeginFrame"))
	}
	if f.state != frameRecording {
		panic(protocolViolation(op, "frame already ended"))
	}
	if f.r.open != f {
		panic(protocolViolation(op, "frame is not the renderer's open frame"))
	}
}

// Size returns the frame target size in pixels.
func (f *Frame) Size() (w, h int) {
	return f.r.w, f.r.h
}

// End is shorthand for Renderer.EndFrame(f).
func (f *Frame) End() error {
	return f.r.EndFrame(f)
}

// Clear sets the background the opaque pass starts from. Color is linear
// RGBA. Frames that never call Clear start from opaque black.
func (f *Frame) Clear(c Color) {
	f.check("Clear")
	f.clearColor = c
}

// DrawPolygon fills a simple polygon given in world space. The polygon casts
// shadows. Fewer than three points draw nothing.
func (f *Frame) DrawPolygon(points []Vec2, c Color, cam *Camera2D) {
	f.check("DrawPolygon")
	f.addPolygon(points, c, cam, true)
}

// DrawPolygonNoOcclusion fills a polygon that does not cast shadows.
func (f *Frame) DrawPolygonNoOcclusion(points []Vec2, c Color, cam *Camera2D) {
	f.check("DrawPolygonNoOcclusion")
	f.addPolygon(points, c, cam, false)
}

// DrawCircle fills a circle given in world space. The circle casts shadows.
func (f *Frame) DrawCircle(center Vec2, radius float64, c Color, cam *Camera2D) {
	f.check("DrawCircle")
	f.addCircle(center, radius, c, cam, true)
}

// DrawCircleNoOcclusion fills a circle that does not cast shadows.
func (f *Frame) DrawCircleNoOcclusion(center Vec2, radius float64, c Color, cam *Camera2D) {
	f.check("DrawCircleNoOcclusion")
	f.addCircle(center, radius, c, cam, false)
}

// DrawSprite draws a texture (or glyph) placed by the sprite's transform.
// The sprite casts shadows when its Occluder flag is set; its opaque texels
// (texel alpha times tint alpha >= 0.5) are the occluding shape. A sprite
// whose transform collapses to zero area draws nothing. Drawing with a
// released handle panics with a *ProtocolError.
func (f *Frame) DrawSprite(s Sprite, cam *Camera2D) {
	f.check("DrawSprite")
	r := f.r
	slot, err := r.resources.slot(s.Texture)
	if err != nil {
		panic(protocolViolation("DrawSprite", err.Error()))
	}
	if slot.img == nil {
		return
	}
	b := slot.img.Bounds()
	center := [6]float64{1, 0, 0, 1, -float64(b.Dx()) / 2, -float64(b.Dy()) / 2}
	view := resolveCamera(cam).viewMatrix(r.w, r.h)
	m := multiplyAffine(view, multiplyAffine(s.Transform.Matrix(), center))
	if m[0]*m[3]-m[1]*m[2] == 0 {
		return
	}

	r.commands = append(r.commands, drawCommand{
		kind:     commandSprite,
		color:    s.Tint,
		occluder: s.Occluder,
		img:      slot.img,
		matrix:   m,
	})
}

// DrawPointLight adds a point or spot light to the lighting pass. Lights
// that violate their invariants (see PointLight.Validate) are skipped.
func (f *Frame) DrawPointLight(l PointLight, cam *Camera2D) {
	f.check("DrawPointLight")
	if err := l.Validate(); err != nil {
		logger.Warn("light skipped", "err", err)
		return
	}
	r := f.r
	view := resolveCamera(cam).viewMatrix(r.w, r.h)

	sl := l
	sx, sy := transformPoint(view, l.Position.X, l.Position.Y)
	sl.Position = Vec2{sx, sy}
	sl.Radius = l.Radius * affineScale(view)
	if spot, ok := l.Emission.(Spot); ok {
		d := spot.direction
		dir := Vec2{view[0]*d.X + view[2]*d.Y, view[1]*d.X + view[3]*d.Y}
		sl.Emission = NewSpot(dir, spot.halfAngle)
	} else {
		sl.Emission = Omni{}
	}
	r.lights = append(r.lights, sl)
}

// DrawDirectionalLight adds a uniform light term to every pixel.
func (f *Frame) DrawDirectionalLight(l DirectionalLight) {
	f.check("DrawDirectionalLight")
	f.r.directional = append(f.r.directional, l)
}

// DrawText lays out s starting at origin (a world-space point on the first
// baseline) and draws each glyph as a non-occluding sprite tinted with c.
// Glyphs missing from glyphs are rasterized with src. Newlines advance by
// 1.2 * size.
func (f *Frame) DrawText(s string, origin Vec2, size float64, c Color, glyphs *GlyphCache, src GlyphSource, cam *Camera2D) error {
	f.check("DrawText")
	r := f.r
	pen := origin
	for _, ch := range s {
		if ch == '\n' {
			pen.X = origin.X
			pen.Y += size * 1.2
			continue
		}
		h, err := glyphs.Load(GlyphKey{Rune: ch, Size: size}, src)
		if err != nil {
			return err
		}
		slot, err := r.resources.slot(h)
		if err != nil {
			return err
		}
		if slot.img != nil {
			b := slot.img.Bounds()
			m := slot.metrics
			sp := Sprite{
				Texture: h,
				Transform: NewTransform2D(Vec2{
					X: pen.X + m.Offset.X + float64(b.Dx())/2,
					Y: pen.Y + m.Offset.Y + float64(b.Dy())/2,
				}),
				Tint: c,
			}
			f.DrawSprite(sp, cam)
		}
		pen.X += slot.metrics.Advance
	}
	return nil
}

func (f *Frame) addPolygon(points []Vec2, c Color, cam *Camera2D, occluder bool) {
	if len(points) < 3 {
		return
	}
	r := f.r
	view := resolveCamera(cam).viewMatrix(r.w, r.h)
	start := len(r.points)
	for _, p := range points {
		x, y := transformPoint(view, p.X, p.Y)
		r.points = append(r.points, Vec2{x, y})
	}
	r.commands = append(r.commands, drawCommand{
		kind:     commandPolygon,
		points:   r.points[start:len(r.points):len(r.points)],
		color:    c,
		occluder: occluder,
	})
}

func (f *Frame) addCircle(center Vec2, radius float64, c Color, cam *Camera2D, occluder bool) {
	if radius <= 0 {
		return
	}
	r := f.r
	view := resolveCamera(cam).viewMatrix(r.w, r.h)
	n := circleSegments(radius * affineScale(view))
	pts := make([]Vec2, n)
	for i := range pts {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(n))
		pts[i] = Vec2{center.X + radius*cos, center.Y + radius*sin}
	}
	f.addPolygon(pts, c, cam, occluder)
}

// circleSegments picks a polygon resolution for a circle of the given
// screen radius: roughly one segment per two pixels of circumference.
func circleSegments(screenRadius float64) int {
	n := int(math.Ceil(math.Pi * screenRadius))
	return max(16, min(n, 512))
}
