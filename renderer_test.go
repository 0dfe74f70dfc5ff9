package lumen

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pixel returns the presented RGBA bytes at (x, y).
func pixel(s *ImageSurface, x, y int) color.RGBA {
	return s.Image().RGBAAt(x, y)
}

// level converts a linear component to its expected presented byte.
func level(v float64) uint8 {
	return to8(clamp01(v))
}

func assertPixel(t *testing.T, s *ImageSurface, x, y int, want color.RGBA) {
	t.Helper()
	got := pixel(s, x, y)
	for i, pair := range [][2]uint8{{got.R, want.R}, {got.G, want.G}, {got.B, want.B}, {got.A, want.A}} {
		if d := int(pair[0]) - int(pair[1]); d < -1 || d > 1 {
			t.Errorf("pixel(%d,%d) channel %d = %d, want %d (got %v)", x, y, i, pair[0], pair[1], got)
		}
	}
}

func renderFrame(t *testing.T, r *Renderer, draw func(f *Frame)) {
	t.Helper()
	f, err := r.BeginFrame()
	require.NoError(t, err)
	draw(f)
	require.NoError(t, r.EndFrame(f))
}

// lowerHalf is a world-space rectangle covering the bottom half of a 64x64
// target viewed through the default camera.
var lowerHalf = []Vec2{{-32, 0}, {32, 0}, {32, 32}, {-32, 32}}

func TestClearOnly(t *testing.T) {
	r, s := newTestRenderer(t, 16, 16)
	renderFrame(t, r, func(f *Frame) {
		f.Clear(Color{0.1, 0.1, 0.15, 1})
	})
	assertPixel(t, s, 3, 12, color.RGBA{level(0.1), level(0.1), level(0.15), 255})
}

func TestDefaultClearIsOpaqueBlack(t *testing.T) {
	r, s := newTestRenderer(t, 4, 4)
	renderFrame(t, r, func(f *Frame) {})
	assertPixel(t, s, 1, 1, color.RGBA{0, 0, 0, 255})
}

func TestOccluderShadowsLight(t *testing.T) {
	const ambient = 0.05
	r, s := newTestRenderer(t, 64, 64)
	renderFrame(t, r, func(f *Frame) {
		f.Clear(Color{0.1, 0.1, 0.15, 1})
		f.DrawPolygon(lowerHalf, Color{0.2, 0.2, 0.2, 1}, nil)
		f.DrawPointLight(NewPointLight(Vec2{0, -16}, RGB{1, 1, 1}, 1, 100), nil)
		f.DrawDirectionalLight(NewAmbientLight(RGB{1, 1, 1}, ambient))
	})

	shadowed := color.RGBA{level(0.2 + ambient), level(0.2 + ambient), level(0.2 + ambient), 255}
	for _, p := range [][2]int{{32, 50}, {10, 60}, {54, 60}, {32, 40}} {
		assertPixel(t, s, p[0], p[1], shadowed)
	}

	// Above the occluder the light reaches the background.
	lit := pixel(s, 32, 24)
	assert.Greater(t, int(lit.R), int(level(0.1+ambient))+100)
	// The occluder's own front row faces the light.
	front := pixel(s, 32, 32)
	assert.Greater(t, int(front.R), int(shadowed.R)+50)
}

func TestNoOcclusionPolygonDoesNotShadow(t *testing.T) {
	r, s := newTestRenderer(t, 64, 64)
	renderFrame(t, r, func(f *Frame) {
		f.Clear(Color{0.1, 0.1, 0.15, 1})
		f.DrawPolygonNoOcclusion(lowerHalf, Color{0.2, 0.2, 0.2, 1}, nil)
		f.DrawPointLight(NewPointLight(Vec2{0, -16}, RGB{1, 1, 1}, 1, 100), nil)
	})

	// dist from (32,16) to (32.5,50.5) is ~34.5 px: attenuation (1-0.345)^2.
	d := math.Hypot(0.5, 34.5) / 100
	want := 0.2 + math.Pow(1-d, 2)
	assertPixel(t, s, 32, 50, color.RGBA{level(want), level(want), level(want), 255})
}

func TestLightOrderIndependent(t *testing.T) {
	a := NewPointLight(Vec2{-10, 0}, RGB{1, 0.2, 0.1}, 0.8, 30)
	b := NewSpotLight(Vec2{10, 5}, Vec2{-1, 0}, RGB{0.1, 0.3, 1}, 1.2, 40)
	render := func(first, second PointLight) []byte {
		r, s := newTestRenderer(t, 48, 48)
		renderFrame(t, r, func(f *Frame) {
			f.DrawCircle(Vec2{0, 8}, 4, Color{0.5, 0.5, 0.5, 1}, nil)
			f.DrawPointLight(first, nil)
			f.DrawPointLight(second, nil)
		})
		return append([]byte(nil), s.Image().Pix...)
	}
	ab, ba := render(a, b), render(b, a)
	require.Len(t, ba, len(ab))
	for i := range ab {
		// Float sums may differ in the last bit; allow one level of rounding.
		if d := int(ab[i]) - int(ba[i]); d < -1 || d > 1 {
			t.Fatalf("byte %d: %d vs %d", i, ab[i], ba[i])
		}
	}
}

func TestOpaquePaintOrder(t *testing.T) {
	square := []Vec2{{-8, -8}, {8, -8}, {8, 8}, {-8, 8}}
	red := Color{1, 0, 0, 1}
	green := Color{0, 1, 0, 1}

	r, s := newTestRenderer(t, 32, 32)
	renderFrame(t, r, func(f *Frame) {
		f.DrawPolygon(square, red, nil)
		f.DrawPolygon(square, green, nil)
	})
	assertPixel(t, s, 16, 16, color.RGBA{0, 255, 0, 255})

	renderFrame(t, r, func(f *Frame) {
		f.DrawPolygon(square, green, nil)
		f.DrawPolygon(square, red, nil)
	})
	assertPixel(t, s, 16, 16, color.RGBA{255, 0, 0, 255})
}

func TestTranslucentPolygonBlends(t *testing.T) {
	r, s := newTestRenderer(t, 16, 16)
	renderFrame(t, r, func(f *Frame) {
		f.Clear(Color{0, 0, 1, 1})
		f.DrawPolygon([]Vec2{{-8, -8}, {8, -8}, {8, 8}, {-8, 8}}, Color{1, 0, 0, 0.5}, nil)
	})
	assertPixel(t, s, 8, 8, color.RGBA{level(0.5), 0, level(0.5), 255})
}

func TestDegeneratePolygonDrawsNothing(t *testing.T) {
	r, s := newTestRenderer(t, 8, 8)
	renderFrame(t, r, func(f *Frame) {
		f.DrawPolygon([]Vec2{{0, 0}, {3, 3}}, ColorWhite, nil)
		f.DrawCircle(Vec2{}, 0, ColorWhite, nil)
	})
	assertPixel(t, s, 4, 4, color.RGBA{0, 0, 0, 255})
	assert.Zero(t, r.occluderCount)
}

func TestPolygonClippedToTarget(t *testing.T) {
	r, s := newTestRenderer(t, 16, 16)
	renderFrame(t, r, func(f *Frame) {
		f.DrawPolygon([]Vec2{{-1000, -1000}, {1000, -1000}, {1000, 1000}, {-1000, 1000}}, ColorWhite, nil)
	})
	assertPixel(t, s, 0, 0, color.RGBA{255, 255, 255, 255})
	assertPixel(t, s, 15, 15, color.RGBA{255, 255, 255, 255})
	assert.Equal(t, 16*16, r.occluderCount)
}

func TestCircle(t *testing.T) {
	r, s := newTestRenderer(t, 32, 32)
	renderFrame(t, r, func(f *Frame) {
		f.DrawCircleNoOcclusion(Vec2{}, 8, ColorWhite, nil)
	})
	assertPixel(t, s, 16, 16, color.RGBA{255, 255, 255, 255})
	assertPixel(t, s, 16, 2, color.RGBA{0, 0, 0, 255})
	assert.Zero(t, r.occluderCount)
}

func TestSpotLightCone(t *testing.T) {
	r, s := newTestRenderer(t, 64, 64)
	renderFrame(t, r, func(f *Frame) {
		f.DrawPointLight(NewSpotLight(Vec2{}, Vec2{0, -1}, RGB{1, 1, 1}, 1, 30).WithHalfAngle(math.Pi/8), nil)
	})
	assert.Greater(t, pixel(s, 32, 20).R, uint8(50), "inside the cone")
	assertPixel(t, s, 32, 44, color.RGBA{0, 0, 0, 255})
	assertPixel(t, s, 44, 32, color.RGBA{0, 0, 0, 255})
}

func TestLightRadiusFollowsCameraZoom(t *testing.T) {
	cam := NewCamera2D()
	cam.Zoom = 2
	r, s := newTestRenderer(t, 64, 64)
	renderFrame(t, r, func(f *Frame) {
		f.DrawPointLight(NewPointLight(Vec2{}, RGB{1, 1, 1}, 1, 10).WithFalloff(1), cam)
	})
	// World radius 10 covers 20 screen pixels at zoom 2.
	assert.Greater(t, pixel(s, 32+15, 32).R, uint8(0))
	assertPixel(t, s, 32+25, 32, color.RGBA{0, 0, 0, 255})
}

func TestInvalidLightSkipped(t *testing.T) {
	r, s := newTestRenderer(t, 8, 8)
	renderFrame(t, r, func(f *Frame) {
		f.DrawPointLight(PointLight{Position: Vec2{}, Color: RGB{1, 1, 1}, Intensity: 1}, nil)
	})
	assertPixel(t, s, 4, 4, color.RGBA{0, 0, 0, 255})
}

func TestHDRLightClampsAndReinhard(t *testing.T) {
	r, s := newTestRenderer(t, 4, 4)
	renderFrame(t, r, func(f *Frame) {
		f.DrawDirectionalLight(NewAmbientLight(RGB{3, 1, 0}, 1))
	})
	assertPixel(t, s, 0, 0, color.RGBA{255, 255, 0, 255})

	cfg := DefaultConfig().Renderer
	cfg.ToneMap = ToneMapReinhard
	s2 := NewImageSurface(4, 4)
	r2, err := NewRenderer(s2, cfg)
	require.NoError(t, err)
	renderFrame(t, r2, func(f *Frame) {
		f.DrawDirectionalLight(NewAmbientLight(RGB{3, 1, 0}, 1))
	})
	assertPixel(t, s2, 0, 0, color.RGBA{level(0.75), level(0.5), 0, 255})
}

func TestSpriteDrawsAndOccludes(t *testing.T) {
	r, s := newTestRenderer(t, 64, 64)
	pix := make([]byte, 2*16*4)
	for i := range pix {
		pix[i] = 255
	}
	tex, err := r.LoadTextureFromRGBA(pix, 2, 16)
	require.NoError(t, err)

	renderFrame(t, r, func(f *Frame) {
		sp := NewSprite(tex, Vec2{})
		sp.Tint = Color{0.5, 0.5, 0.5, 1}
		f.DrawSprite(sp, nil)
		f.DrawPointLight(NewPointLight(Vec2{-16, 0}, RGB{1, 1, 1}, 1, 64), nil)
	})

	// The sprite spans screen x 31..32, y 24..39.
	assert.Equal(t, 2*16, r.occluderCount)
	assertPixel(t, s, 48, 32, color.RGBA{0, 0, 0, 255})
	assert.Greater(t, pixel(s, 48, 2).R, uint8(0), "clear of the sprite")
	assert.Greater(t, pixel(s, 31, 32).R, level(0.5))
}

func TestSpriteNoOcclusion(t *testing.T) {
	r, _ := newTestRenderer(t, 32, 32)
	tex, err := r.LoadTextureFromRGBA([]byte{255, 255, 255, 255}, 1, 1)
	require.NoError(t, err)
	renderFrame(t, r, func(f *Frame) {
		sp := NewSprite(tex, Vec2{})
		sp.Occluder = false
		f.DrawSprite(sp, nil)
	})
	assert.Zero(t, r.occluderCount)
}

func TestSpriteTranslucentTexelsDoNotOcclude(t *testing.T) {
	r, _ := newTestRenderer(t, 32, 32)
	tex, err := r.LoadTextureFromRGBA([]byte{255, 255, 255, 100}, 1, 1)
	require.NoError(t, err)
	renderFrame(t, r, func(f *Frame) {
		f.DrawSprite(NewSprite(tex, Vec2{}), nil)
	})
	assert.Zero(t, r.occluderCount)
}

func TestDrawText(t *testing.T) {
	r, s := newTestRenderer(t, 96, 48)
	glyphs := NewGlyphCache(r)
	src := DefaultFaceSource()

	renderFrame(t, r, func(f *Frame) {
		require.NoError(t, f.DrawText("Hi H", Vec2{-40, 8}, 16, ColorWhite, glyphs, src, nil))
	})
	assert.Equal(t, 3, glyphs.Len(), "H, i and space")
	assert.Zero(t, r.occluderCount, "text never occludes")

	lit := 0
	for _, b := range s.Image().Pix {
		if b > 0 && b < 255 {
			lit++
		}
	}
	assert.Positive(t, lit)

	renderFrame(t, r, func(f *Frame) {
		require.NoError(t, f.DrawText("HiH", Vec2{}, 16, ColorWhite, glyphs, src, nil))
	})
	assert.Equal(t, 3, glyphs.Len())
}

func TestEndFramePresentsOnlyOnEnd(t *testing.T) {
	r, s := newTestRenderer(t, 4, 4)
	f, err := r.BeginFrame()
	require.NoError(t, err)
	f.Clear(ColorWhite)
	assertPixel(t, s, 0, 0, color.RGBA{})
	require.NoError(t, f.End())
	assertPixel(t, s, 0, 0, color.RGBA{255, 255, 255, 255})
	assert.Equal(t, uint64(1), r.FrameCount())
}

func TestDeviceUnavailableAfterResize(t *testing.T) {
	r, s := newTestRenderer(t, 16, 16)
	s.Resize(24, 8)

	_, err := r.BeginFrame()
	require.ErrorIs(t, err, ErrDeviceUnavailable)

	require.NoError(t, r.Configure(s))
	w, h := r.Size()
	assert.Equal(t, 24, w)
	assert.Equal(t, 8, h)
	renderFrame(t, r, func(f *Frame) { f.Clear(ColorWhite) })
	assertPixel(t, s, 23, 7, color.RGBA{255, 255, 255, 255})
}

func TestResizeDuringFrameDropsIt(t *testing.T) {
	r, s := newTestRenderer(t, 16, 16)
	f, err := r.BeginFrame()
	require.NoError(t, err)
	s.Resize(8, 8)
	require.ErrorIs(t, r.EndFrame(f), ErrDeviceUnavailable)
	assert.False(t, f.Open())
}

func TestDeviceLost(t *testing.T) {
	r, s := newTestRenderer(t, 8, 8)
	tex, err := r.LoadTextureFromRGBA(make([]byte, 4), 1, 1)
	require.NoError(t, err)

	s.Lose()
	_, err = r.BeginFrame()
	require.ErrorIs(t, err, ErrDeviceLost)
	require.ErrorIs(t, r.Configure(NewImageSurface(8, 8)), ErrDeviceLost)
	assert.True(t, r.Valid(tex), "resources are not dropped on loss")
}

func TestConfigureRejectsEmptySurface(t *testing.T) {
	_, err := NewRenderer(NewImageSurface(0, 10), DefaultConfig().Renderer)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestNewRendererRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig().Renderer
	cfg.ShadowBias = -1
	_, err := NewRenderer(NewImageSurface(4, 4), cfg)
	assert.Error(t, err)
}

func TestNewRendererFillsDefaults(t *testing.T) {
	r, err := NewRenderer(NewImageSurface(4, 4), RendererConfig{})
	require.NoError(t, err)
	cfg := r.Config()
	assert.Equal(t, FilterBilinear, cfg.Filter)
	assert.Equal(t, ToneMapClamp, cfg.ToneMap)
	assert.Equal(t, 4096, cfg.MaxShadowBins)
}

func TestCircleSegments(t *testing.T) {
	assert.Equal(t, 16, circleSegments(1))
	assert.Equal(t, 32, circleSegments(10))
	assert.Equal(t, 512, circleSegments(1e6))
}
