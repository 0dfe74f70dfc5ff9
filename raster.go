package lumen

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// occluderThreshold is the coverage (or tinted texel alpha) at which a pixel joins
// the occlusion capture.
const occluderThreshold = 0.5

// opaquePass clears the target and rasterizes every recorded draw command in
// submission order, capturing occluder coverage as it goes.
func (r *Renderer) opaquePass(clearColor Color) {
	cr, cg, cb, ca := premultiply(clearColor, 1)
	t := r.target
	for i := 0; i < len(t); i += 4 {
		t[i+0] = cr
		t[i+1] = cg
		t[i+2] = cb
		t[i+3] = ca
	}
	clear(r.occluders)
	r.occluderCount = 0

	for i := range r.commands {
		cmd := &r.commands[i]
		switch cmd.kind {
		case commandPolygon:
			r.fillPolygon(cmd)
		case commandSprite:
			r.drawSprite(cmd)
		}
	}
}

// premultiply converts a straight color scaled by coverage into
// premultiplied components.
func premultiply(c Color, coverage float64) (r, g, b, a float32) {
	k := c.A * coverage
	return float32(c.R * k), float32(c.G * k), float32(c.B * k), float32(k)
}

// blend composites a premultiplied source over target pixel i (source-over).
func (r *Renderer) blend(i int, sr, sg, sb, sa float32) {
	inv := 1 - min(max(sa, 0), 1)
	t := r.target[i*4 : i*4+4 : i*4+4]
	t[0] = sr + t[0]*inv
	t[1] = sg + t[1]*inv
	t[2] = sb + t[2]*inv
	t[3] = sa + t[3]*inv
}

func (r *Renderer) markOccluder(i int) {
	if !r.occluders[i] {
		r.occluders[i] = true
		r.occluderCount++
	}
}

// pixelBounds returns the integer pixel rectangle covering rc, clipped to
// the target.
func (r *Renderer) pixelBounds(rc Rect) image.Rectangle {
	b := image.Rect(
		int(math.Floor(rc.X)), int(math.Floor(rc.Y)),
		int(math.Ceil(rc.X+rc.Width)), int(math.Ceil(rc.Y+rc.Height)),
	)
	return b.Intersect(image.Rect(0, 0, r.w, r.h))
}

// fillPolygon rasterizes a screen-space polygon with antialiased coverage.
func (r *Renderer) fillPolygon(cmd *drawCommand) {
	pts := cmd.points
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	bounds := r.pixelBounds(Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY})
	if bounds.Empty() {
		return
	}
	pts = r.clipPolygon(pts, bounds)
	if len(pts) < 3 {
		return
	}

	bw, bh := bounds.Dx(), bounds.Dy()
	ox, oy := float64(bounds.Min.X), float64(bounds.Min.Y)
	z := &r.raster
	z.Reset(bw, bh)
	z.DrawOp = draw.Src
	z.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	z.ClosePath()

	mask := r.maskScratch(bw, bh)
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	for y := 0; y < bh; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+bw]
		base := (bounds.Min.Y+y)*r.w + bounds.Min.X
		for x, a := range row {
			if a == 0 {
				continue
			}
			cov := float64(a) / 255
			sr, sg, sb, sa := premultiply(cmd.color, cov)
			r.blend(base+x, sr, sg, sb, sa)
			if cmd.occluder && cov >= occluderThreshold {
				r.markOccluder(base + x)
			}
		}
	}
}

// clipPolygon clips pts against b (Sutherland-Hodgman) so the rasterizer
// never sees coordinates outside its buffer.
func (r *Renderer) clipPolygon(pts []Vec2, b image.Rectangle) []Vec2 {
	x0, y0 := float64(b.Min.X), float64(b.Min.Y)
	x1, y1 := float64(b.Max.X), float64(b.Max.Y)
	edges := [4]struct {
		inside func(Vec2) bool
		cross  func(a, b Vec2) Vec2
	}{
		{func(p Vec2) bool { return p.X >= x0 }, func(a, b Vec2) Vec2 { return lerpAtX(a, b, x0) }},
		{func(p Vec2) bool { return p.X <= x1 }, func(a, b Vec2) Vec2 { return lerpAtX(a, b, x1) }},
		{func(p Vec2) bool { return p.Y >= y0 }, func(a, b Vec2) Vec2 { return lerpAtY(a, b, y0) }},
		{func(p Vec2) bool { return p.Y <= y1 }, func(a, b Vec2) Vec2 { return lerpAtY(a, b, y1) }},
	}

	in := append(r.clip[0][:0], pts...)
	out := r.clip[1][:0]
	for _, e := range edges {
		out = out[:0]
		for i, cur := range in {
			prev := in[(i+len(in)-1)%len(in)]
			curIn, prevIn := e.inside(cur), e.inside(prev)
			switch {
			case curIn && prevIn:
				out = append(out, cur)
			case curIn && !prevIn:
				out = append(out, e.cross(prev, cur), cur)
			case !curIn && prevIn:
				out = append(out, e.cross(prev, cur))
			}
		}
		in, out = out, in
		if len(in) < 3 {
			break
		}
	}
	r.clip[0], r.clip[1] = in, out
	return in
}

func lerpAtX(a, b Vec2, x float64) Vec2 {
	t := (x - a.X) / (b.X - a.X)
	return Vec2{x, a.Y + t*(b.Y-a.Y)}
}

func lerpAtY(a, b Vec2, y float64) Vec2 {
	t := (y - a.Y) / (b.Y - a.Y)
	return Vec2{a.X + t*(b.X-a.X), y}
}

// drawSprite resamples the sprite's texture into a scratch layer and
// composites it with the tint.
func (r *Renderer) drawSprite(cmd *drawCommand) {
	src := cmd.img
	sb := src.Bounds()
	bounds := r.pixelBounds(boundsAABB(cmd.matrix, 0, 0, float64(sb.Dx()), float64(sb.Dy())))
	if bounds.Empty() {
		return
	}
	bw, bh := bounds.Dx(), bounds.Dy()
	layer := r.layerScratch(bw, bh)

	m := cmd.matrix
	aff := f64.Aff3{
		m[0], m[2], m[4] - float64(bounds.Min.X),
		m[1], m[3], m[5] - float64(bounds.Min.Y),
	}
	r.interpolator().Transform(layer, aff, src, sb, draw.Over, nil)

	tint := cmd.color
	tr, tg, tb, ta := float32(tint.R*tint.A), float32(tint.G*tint.A), float32(tint.B*tint.A), float32(tint.A)
	for y := 0; y < bh; y++ {
		row := layer.Pix[y*layer.Stride : y*layer.Stride+bw*4]
		base := (bounds.Min.Y+y)*r.w + bounds.Min.X
		for x := 0; x < bw; x++ {
			p := row[x*4 : x*4+4 : x*4+4]
			if p[3] == 0 {
				continue
			}
			a := float32(p[3]) / 255
			r.blend(base+x,
				float32(p[0])/255*tr,
				float32(p[1])/255*tg,
				float32(p[2])/255*tb,
				a*ta,
			)
			if cmd.occluder && a*ta >= occluderThreshold {
				r.markOccluder(base + x)
			}
		}
	}
}

func (r *Renderer) interpolator() draw.Interpolator {
	if r.cfg.Filter == FilterNearest {
		return draw.NearestNeighbor
	}
	return draw.ApproxBiLinear
}

// maskScratch returns a zeroed w x h alpha mask, reusing its buffer.
func (r *Renderer) maskScratch(w, h int) *image.Alpha {
	n := w * h
	if r.mask == nil || cap(r.mask.Pix) < n {
		r.mask = &image.Alpha{Pix: make([]byte, n)}
	}
	r.mask.Pix = r.mask.Pix[:n]
	clear(r.mask.Pix)
	r.mask.Stride = w
	r.mask.Rect = image.Rect(0, 0, w, h)
	return r.mask
}

// layerScratch returns a transparent w x h RGBA layer, reusing its buffer.
func (r *Renderer) layerScratch(w, h int) *image.RGBA {
	n := w * h * 4
	if r.layer == nil || cap(r.layer.Pix) < n {
		r.layer = &image.RGBA{Pix: make([]byte, n)}
	}
	r.layer.Pix = r.layer.Pix[:n]
	clear(r.layer.Pix)
	r.layer.Stride = w * 4
	r.layer.Rect = image.Rect(0, 0, w, h)
	return r.layer
}
