package lumen

// Sprite couples a texture with a placement, a tint, and an occluder flag.
// The texture is centered on Transform.Position.
type Sprite struct {
	Texture   Handle
	Transform Transform2D
	// Tint multiplies the texture color; ColorWhite leaves it unchanged.
	// Components may exceed 1. A zero alpha makes the sprite invisible.
	Tint Color
	// Occluder makes the sprite's opaque texels cast shadows.
	Occluder bool
}

// NewSprite returns a sprite at pos with unit scale, white tint, and the
// occluder flag set.
func NewSprite(tex Handle, pos Vec2) Sprite {
	return Sprite{
		Texture:   tex,
		Transform: NewTransform2D(pos),
		Tint:      ColorWhite,
		Occluder:  true,
	}
}

// SetSizePx scales the sprite so a texture of resourcePx pixels is drawn at
// sizePx pixels, per axis. A zero size collapses that axis and the sprite
// draws nothing.
func (s *Sprite) SetSizePx(sizePx, resourcePx Vec2) {
	s.Transform.Scale = Vec2{sizePx.X / resourcePx.X, sizePx.Y / resourcePx.Y}
}
