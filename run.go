package lumen

import (
	"errors"
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// App is a program driven by Run.
type App interface {
	// Setup runs once before the first tick. Load resources here.
	Setup(ctx *Context) error
	// Update runs once per tick.
	Update(ctx *Context) error
	// Draw records the current frame into ctx.Frame.
	Draw(ctx *Context) error
}

// Context is the state Run shares with an App.
type Context struct {
	Renderer *Renderer
	Textures *TextureCache
	Glyphs   *GlyphCache
	// Camera is advanced once per tick before Update.
	Camera *Camera2D
	// Frame is the open frame during Draw and nil otherwise.
	Frame *Frame
	// Delta is the tick length in seconds.
	Delta float64

	watcher *TextureWatcher
	exit    bool
}

// LoadTexture loads path through the texture cache. With Config.HotReload
// the file is also watched and reloaded when it changes.
func (c *Context) LoadTexture(path string) (Handle, error) {
	h, err := c.Textures.LoadFile(path)
	if err != nil {
		return Handle{}, err
	}
	if c.watcher != nil {
		if err := c.watcher.Watch(path); err != nil {
			logger.Warn("hot reload disabled for texture", "path", path, "err", err)
		}
	}
	return h, nil
}

// Exit ends Run after the current tick.
func (c *Context) Exit() {
	c.exit = true
}

// Run opens a window and drives app until the window closes, app returns an
// error, or ctx.Exit is called. The renderer presents into an offscreen
// image sized to the window's layout; when the layout changes the renderer
// is reconfigured.
func Run(app App, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	canvas := &ebitenSurface{img: ebiten.NewImage(cfg.Width, cfg.Height)}
	r, err := NewRenderer(canvas, cfg.Renderer)
	if err != nil {
		return err
	}
	ctx := &Context{
		Renderer: r,
		Textures: NewTextureCache(r),
		Glyphs:   NewGlyphCache(r),
		Camera:   NewCamera2D(),
	}
	if cfg.HotReload {
		w, err := NewTextureWatcher(ctx.Textures)
		if err != nil {
			return err
		}
		defer w.Close()
		ctx.watcher = w
	}
	if err := app.Setup(ctx); err != nil {
		return fmt.Errorf("lumen: setup: %w", err)
	}

	tps := cfg.TPS
	if tps > 0 {
		ebiten.SetTPS(tps)
	} else {
		tps = ebiten.TPS()
	}
	ctx.Delta = 1 / float64(tps)

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g := &game{app: app, ctx: ctx, canvas: canvas, w: cfg.Width, h: cfg.Height}
	err = ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// game adapts an App to ebiten.Game.
type game struct {
	app    App
	ctx    *Context
	canvas *ebitenSurface
	w, h   int
	// drawErr carries a Draw failure to the next Update, since
	// ebiten.Game.Draw cannot return one.
	drawErr error
}

func (g *game) Update() error {
	if g.drawErr != nil {
		return g.drawErr
	}
	ctx := g.ctx
	if ctx.watcher != nil {
		if n, err := ctx.watcher.Poll(); err != nil {
			logger.Warn("hot reload", "err", err)
		} else if n > 0 {
			logger.Debug("textures reloaded", "count", n)
		}
	}
	ctx.Camera.SetTargetSize(ctx.Renderer.Size())
	ctx.Camera.Update(float32(ctx.Delta))
	if err := g.app.Update(ctx); err != nil {
		return err
	}
	if ctx.exit {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.drawErr != nil {
		return
	}
	if err := g.drawFrame(); err != nil {
		g.drawErr = err
		return
	}
	screen.DrawImage(g.canvas.img, nil)
}

// drawFrame records and presents one frame into the canvas. After a layout
// change the renderer reports ErrDeviceUnavailable and is reconfigured.
func (g *game) drawFrame() error {
	r := g.ctx.Renderer
	f, err := r.BeginFrame()
	if errors.Is(err, ErrDeviceUnavailable) {
		if err := r.Configure(g.canvas); err != nil {
			return err
		}
		f, err = r.BeginFrame()
	}
	if err != nil {
		return err
	}

	g.ctx.Frame = f
	drawErr := g.app.Draw(g.ctx)
	g.ctx.Frame = nil
	if f.Open() {
		if err := r.EndFrame(f); err != nil {
			return err
		}
	}
	return drawErr
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 && (outsideWidth != g.w || outsideHeight != g.h) {
		g.w, g.h = outsideWidth, outsideHeight
		g.canvas.img.Deallocate()
		g.canvas.img = ebiten.NewImage(g.w, g.h)
	}
	return g.w, g.h
}

// ebitenSurface is the Surface Run presents into. The image behind it is
// replaced when the window layout changes.
type ebitenSurface struct {
	img *ebiten.Image
}

func (s *ebitenSurface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

func (s *ebitenSurface) WritePixels(pix []byte) {
	s.img.WritePixels(pix)
}
