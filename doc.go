// Package lumen is a 2D rendering core with dynamic lighting and shadows.
//
// Lumen composes each frame on the CPU into a linear HDR target: filled
// polygons, circles and textured sprites are drawn first, the geometry
// flagged as occluding is captured into an occlusion mask, and then point,
// spot and directional lights are added on top. Point and spot lights are
// shadowed by the occluders within their radius. The result is tone mapped
// and written to a [Surface], which can be an [ImageSurface] for headless
// use or an Ebitengine image.
//
// # Quick start
//
// The simplest way to get started is [Run], which opens a window and drives
// an [App]:
//
//	type game struct{ hero lumen.Handle }
//
//	func (g *game) Setup(ctx *lumen.Context) (err error) {
//		g.hero, err = ctx.LoadTexture("assets/hero.png")
//		return err
//	}
//
//	func (g *game) Update(ctx *lumen.Context) error { return nil }
//
//	func (g *game) Draw(ctx *lumen.Context) error {
//		f := ctx.Frame
//		f.Clear(lumen.Color{R: 0.1, G: 0.1, B: 0.15, A: 1})
//		f.DrawSprite(lumen.NewSprite(g.hero, lumen.Vec2{}), ctx.Camera)
//		f.DrawPointLight(lumen.NewPointLight(lumen.Vec2{Y: -80},
//			lumen.RGB{R: 1, G: 0.9, B: 0.7}, 1, 200), ctx.Camera)
//		return nil
//	}
//
//	lumen.Run(&game{}, lumen.DefaultConfig())
//
// For full control, create a [Renderer] yourself and call
// [Renderer.BeginFrame] and [Renderer.EndFrame]:
//
//	surface := lumen.NewImageSurface(640, 480)
//	r, err := lumen.NewRenderer(surface, lumen.RendererConfig{})
//	...
//	f, err := r.BeginFrame()
//	f.DrawCircle(lumen.Vec2{}, 20, lumen.ColorWhite, nil)
//	err = r.EndFrame(f)
//
// # Frames
//
// A [Frame] records draw and light calls; the Renderer composes them in a
// fixed order when the frame ends. Opaque geometry is drawn in submission
// order. Lighting is additive, so light order never matters. Any call on a
// frame that has already ended panics with a [*ProtocolError].
//
// World-space coordinates go through a [Camera2D]. Pass nil for the default
// camera, which puts the world origin at the center of the frame.
//
// # Lights
//
// [PointLight] attenuates as intensity * (1 - d/radius)^falloff and reaches
// zero at its radius. A spot light is a point light with a [Spot] emission:
// pixels outside its cone receive nothing. [DirectionalLight] adds a uniform
// term with no attenuation and no shadows, which makes it a convenient
// ambient light.
//
// # Resources
//
// Textures and glyphs live in the Renderer's resource table and are
// addressed by [Handle]. Releasing a resource makes its handle stale; using
// a stale handle is reported with [ErrStaleHandle] rather than aliasing a
// newer resource. [TextureCache] and [GlyphCache] deduplicate loads by key.
// Removing a cache entry forgets the mapping only; call
// [Renderer.Release], or use Evict, to free the resource itself.
//
// # Configuration
//
// [Config] can be loaded from TOML with [LoadConfig]. Logging goes through
// a charmbracelet logger; replace it with [SetLogger].
package lumen
