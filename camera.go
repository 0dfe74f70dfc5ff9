package lumen

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera2D maps world space to screen space. The camera's Position is
// displayed at the center of its Viewport. A nil *Camera2D passed to a draw
// call behaves like NewCamera2D(): position at the origin, zoom 1.
type Camera2D struct {
	// Position is the world-space point the camera centers on.
	Position Vec2
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the camera rotation in radians (clockwise).
	Rotation float64
	// Viewport is the screen-space rectangle the camera maps into. A zero
	// viewport covers the whole frame target.
	Viewport Rect

	// BoundsEnabled clamps the camera position so the visible area stays
	// within Bounds.
	BoundsEnabled bool
	// Bounds is the world-space rectangle the camera is clamped to when
	// BoundsEnabled is true.
	Bounds Rect

	// targetW, targetH size a zero Viewport for bounds clamping in Update.
	targetW, targetH int

	followTarget *Vec2
	followOffset Vec2
	followLerp   float64

	scrollTween *scrollAnim
}

// NewCamera2D creates a camera at the origin with zoom 1 and a viewport
// covering the whole frame target.
func NewCamera2D() *Camera2D {
	return &Camera2D{Zoom: 1.0}
}

// defaultCamera is used when a draw call receives a nil camera.
var defaultCamera = Camera2D{Zoom: 1.0}

// Follow makes the camera track a target position with the given offset and
// lerp factor. A lerp of 1.0 snaps immediately; lower values give smoother
// following. The target is read on every Update.
func (c *Camera2D) Follow(target *Vec2, offset Vec2, lerp float64) {
	c.followTarget = target
	c.followOffset = offset
	c.followLerp = lerp
}

// Unfollow stops tracking the current target.
func (c *Camera2D) Unfollow() {
	c.followTarget = nil
}

// ScrollTo animates the camera to the given world position over duration seconds.
func (c *Camera2D) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.Position.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.Position.Y), float32(y), duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo animation is in progress.
func (c *Camera2D) Scrolling() bool {
	return c.scrollTween != nil
}

// SetBounds enables camera bounds clamping.
func (c *Camera2D) SetBounds(bounds Rect) {
	c.BoundsEnabled = true
	c.Bounds = bounds
}

// ClearBounds disables camera bounds clamping.
func (c *Camera2D) ClearBounds() {
	c.BoundsEnabled = false
}

// SetTargetSize records the frame target size a zero Viewport resolves to
// during Update. Run calls it every tick; callers driving a Renderer
// themselves pass Renderer.Size.
func (c *Camera2D) SetTargetSize(w, h int) {
	c.targetW, c.targetH = w, h
}

// Update advances follow, scroll, and bounds clamping by dt seconds.
// Call it once per tick from the application's update hook. Bounds need a
// non-zero Viewport or a size from SetTargetSize; without either there is
// no visible area to clamp and bounds are skipped.
func (c *Camera2D) Update(dt float32) {
	if c.followTarget != nil {
		targetX := c.followTarget.X + c.followOffset.X
		targetY := c.followTarget.Y + c.followOffset.Y
		c.Position.X += (targetX - c.Position.X) * c.followLerp
		c.Position.Y += (targetY - c.Position.Y) * c.followLerp
	}

	if c.scrollTween != nil {
		if !c.scrollTween.doneX {
			val, done := c.scrollTween.tweenX.Update(dt)
			c.Position.X = float64(val)
			c.scrollTween.doneX = done
		}
		if !c.scrollTween.doneY {
			val, done := c.scrollTween.tweenY.Update(dt)
			c.Position.Y = float64(val)
			c.scrollTween.doneY = done
		}
		if c.scrollTween.doneX && c.scrollTween.doneY {
			c.scrollTween = nil
		}
	}

	if c.BoundsEnabled {
		if vp := c.viewport(c.targetW, c.targetH); vp.Width > 0 && vp.Height > 0 {
			c.clampToBounds(vp)
		}
	}
}

// clampToBounds restricts camera position so the visible area stays within Bounds.
func (c *Camera2D) clampToBounds(vp Rect) {
	z := c.Zoom
	if z == 0 {
		z = 1
	}
	halfW := vp.Width / (2 * z)
	halfH := vp.Height / (2 * z)

	minX := c.Bounds.X + halfW
	maxX := c.Bounds.X + c.Bounds.Width - halfW
	minY := c.Bounds.Y + halfH
	maxY := c.Bounds.Y + c.Bounds.Height - halfH

	// If bounds are smaller than visible area, center the camera.
	if minX > maxX {
		c.Position.X = c.Bounds.X + c.Bounds.Width/2
	} else {
		c.Position.X = math.Max(minX, math.Min(c.Position.X, maxX))
	}
	if minY > maxY {
		c.Position.Y = c.Bounds.Y + c.Bounds.Height/2
	} else {
		c.Position.Y = math.Max(minY, math.Min(c.Position.Y, maxY))
	}
}

// viewport resolves the camera viewport against a target of w x h pixels.
func (c *Camera2D) viewport(w, h int) Rect {
	if c.Viewport.IsZero() {
		return Rect{Width: float64(w), Height: float64(h)}
	}
	return c.Viewport
}

// viewMatrix computes the world-to-screen matrix for a target of w x h pixels.
//
// viewMatrix = Translate(cx, cy) * Scale(zoom) * Rotate(-rotation) * Translate(-X, -Y)
// where cx, cy = viewport center.
func (c *Camera2D) viewMatrix(w, h int) [6]float64 {
	vp := c.viewport(w, h)
	cx := vp.X + vp.Width/2
	cy := vp.Y + vp.Height/2

	z := c.Zoom
	if z == 0 {
		z = 1
	}
	sin, cos := math.Sincos(-c.Rotation)
	x, y := c.Position.X, c.Position.Y

	// [a b tx]   [z*cos  -z*sin  cx + z*(- cos*X + sin*Y)]
	// [c d ty] = [z*sin   z*cos  cy + z*(-sin*X - cos*Y)]
	a := z * cos
	b := -z * sin
	cc := z * sin
	d := z * cos
	tx := cx + z*(-cos*x+sin*y)
	ty := cy + z*(-sin*x-cos*y)

	return [6]float64{a, cc, b, d, tx, ty}
}

// WorldToScreen converts a world point to screen coordinates on a target of
// w x h pixels.
func (c *Camera2D) WorldToScreen(p Vec2, w, h int) Vec2 {
	sx, sy := transformPoint(c.viewMatrix(w, h), p.X, p.Y)
	return Vec2{sx, sy}
}

// ScreenToWorld converts screen coordinates on a target of w x h pixels to
// world space.
func (c *Camera2D) ScreenToWorld(p Vec2, w, h int) Vec2 {
	wx, wy := transformPoint(invertAffine(c.viewMatrix(w, h)), p.X, p.Y)
	return Vec2{wx, wy}
}

// VisibleBounds returns the axis-aligned bounding rect of the camera's visible
// area in world space for a target of w x h pixels.
func (c *Camera2D) VisibleBounds(w, h int) Rect {
	vp := c.viewport(w, h)
	return boundsAABB(invertAffine(c.viewMatrix(w, h)), vp.X, vp.Y, vp.Width, vp.Height)
}

// resolveCamera substitutes the default camera for nil.
func resolveCamera(c *Camera2D) *Camera2D {
	if c == nil {
		return &defaultCamera
	}
	return c
}
