package lumen

import "math"

// lightPass adds every recorded light to the color target. Blending is
// additive and unclamped, so light order does not affect the result.
func (r *Renderer) lightPass() {
	for i := range r.lights {
		r.applyPointLight(&r.lights[i])
	}

	var amb RGB
	for _, d := range r.directional {
		c := d.Contribution()
		amb.R += c.R
		amb.G += c.G
		amb.B += c.B
	}
	if amb == (RGB{}) {
		return
	}
	ar, ag, ab := float32(amb.R), float32(amb.G), float32(amb.B)
	t := r.target
	for i := 0; i < len(t); i += 4 {
		t[i+0] += ar
		t[i+1] += ag
		t[i+2] += ab
	}
}

// applyPointLight adds one screen-space light. Pixels are sampled at their
// centers.
func (r *Renderer) applyPointLight(l *PointLight) {
	px, py, radius := l.Position.X, l.Position.Y, l.Radius
	bounds := r.pixelBounds(Rect{X: px - radius, Y: py - radius, Width: 2 * radius, Height: 2 * radius})
	if bounds.Empty() {
		return
	}

	shadowed := false
	if r.occluderCount > 0 {
		shadowed = r.shadow.build(r.occluders, r.w, bounds, px, py, radius, r.cfg.MaxShadowBins, r.cfg.ShadowBias) > 0
	}

	emission := l.Emission
	if emission == nil {
		emission = Omni{}
	}
	t := r.target
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		dy := float64(y) + 0.5 - py
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dx := float64(x) + 0.5 - px
			dist := math.Hypot(dx, dy)
			a := attenuate(dist/radius, l.Intensity, l.Falloff)
			if a == 0 {
				continue
			}
			a *= emission.AngularTerm(Vec2{dx, dy})
			if a == 0 {
				continue
			}
			if shadowed && !r.shadow.visible(dx, dy, dist) {
				continue
			}
			i := (y*r.w + x) * 4
			t[i+0] += float32(l.Color.R * a)
			t[i+1] += float32(l.Color.G * a)
			t[i+2] += float32(l.Color.B * a)
		}
	}
}

// present tone maps the target into 8-bit premultiplied RGBA and writes it
// to the surface.
func (r *Renderer) present() {
	tone := clamp01
	if r.cfg.ToneMap == ToneMapReinhard {
		tone = reinhard
	}
	t := r.target
	out := r.out
	for i := 0; i < len(t); i += 4 {
		cr := tone(float64(t[i+0]))
		cg := tone(float64(t[i+1]))
		cb := tone(float64(t[i+2]))
		// Light added over translucent pixels raises coverage so the
		// result stays a valid premultiplied color.
		ca := math.Max(clamp01(float64(t[i+3])), math.Max(cr, math.Max(cg, cb)))
		out[i+0] = to8(cr)
		out[i+1] = to8(cg)
		out[i+2] = to8(cb)
		out[i+3] = to8(ca)
	}
	r.surface.WritePixels(out)
}

func reinhard(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return v / (1 + v)
}

func to8(v float64) byte {
	return byte(v*255 + 0.5)
}
