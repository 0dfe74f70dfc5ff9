package lumen

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Sampling filters for sprite resampling.
const (
	FilterNearest  = "nearest"
	FilterBilinear = "bilinear"
)

// Tone mapping operators applied at presentation.
const (
	ToneMapClamp    = "clamp"
	ToneMapReinhard = "reinhard"
)

// Config holds window, renderer, and tooling settings. It can be loaded from
// TOML:
//
//	title = "Dungeon"
//	width = 800
//	height = 600
//
//	[renderer]
//	shadow_bias = 1.5
//	filter = "nearest"
type Config struct {
	// Title is the window title used by Run.
	Title string `toml:"title"`
	// Width and Height are the logical surface size in pixels.
	Width  int `toml:"width"`
	Height int `toml:"height"`
	// TPS is the driving loop's tick rate. Zero keeps Ebitengine's default.
	TPS int `toml:"tps"`

	Renderer RendererConfig `toml:"renderer"`

	// HotReload watches files loaded through TextureCache.LoadFile and
	// reloads them when they change on disk.
	HotReload bool `toml:"hot_reload"`
}

// RendererConfig tunes the compositor.
type RendererConfig struct {
	// ShadowBias is the distance in pixels an occluder must be in front of a
	// pixel before the pixel counts as shadowed.
	ShadowBias float64 `toml:"shadow_bias"`
	// MaxShadowBins caps the angular resolution of a light's occlusion map.
	MaxShadowBins int `toml:"max_shadow_bins"`
	// Filter selects sprite resampling: "nearest" or "bilinear".
	Filter string `toml:"filter"`
	// ToneMap selects how HDR values are brought into [0, 1] at present:
	// "clamp" or "reinhard".
	ToneMap string `toml:"tone_map"`
	// Debug logs per-frame stats at debug level.
	Debug bool `toml:"debug"`
	// ScreenshotDir is where Renderer.Screenshot writes PNG files.
	ScreenshotDir string `toml:"screenshot_dir"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Title:  "lumen",
		Width:  800,
		Height: 600,
		Renderer: RendererConfig{
			ShadowBias:    1.0,
			MaxShadowBins: 4096,
			Filter:        FilterBilinear,
			ToneMap:       ToneMapClamp,
			ScreenshotDir: "screenshots",
		},
	}
}

// ParseConfig decodes TOML data on top of DefaultConfig and validates it.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("lumen: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a TOML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("lumen: read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// Validate checks the configuration's invariants.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("lumen: config size %dx%d: %w", c.Width, c.Height, ErrInvalidSize)
	}
	if c.TPS < 0 {
		return fmt.Errorf("lumen: config tps %d must be >= 0", c.TPS)
	}
	return c.Renderer.Validate()
}

// Validate checks the renderer settings.
func (c RendererConfig) Validate() error {
	if c.ShadowBias < 0 {
		return fmt.Errorf("lumen: shadow_bias %v must be >= 0", c.ShadowBias)
	}
	if c.MaxShadowBins < minShadowBins {
		return fmt.Errorf("lumen: max_shadow_bins %d must be >= %d", c.MaxShadowBins, minShadowBins)
	}
	switch c.Filter {
	case FilterNearest, FilterBilinear:
	default:
		return fmt.Errorf("lumen: unknown filter %q", c.Filter)
	}
	switch c.ToneMap {
	case ToneMapClamp, ToneMapReinhard:
	default:
		return fmt.Errorf("lumen: unknown tone_map %q", c.ToneMap)
	}
	return nil
}
