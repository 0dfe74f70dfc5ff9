package lumen

import (
	"fmt"
	"math"
)

const (
	// DefaultFalloff is the attenuation exponent given to new lights (quadratic).
	DefaultFalloff = 2.0
	// DefaultHalfAngle is the cone half-angle given to new spotlights.
	DefaultHalfAngle = math.Pi / 4
)

// Emission describes the angular shape of a point light. It is either
// [Omni] or [Spot]; no other implementations exist.
type Emission interface {
	// AngularTerm returns the multiplier applied to a pixel lying in
	// direction toPixel from the light.
	AngularTerm(toPixel Vec2) float64
	isEmission()
}

// Omni emits equally in every direction.
type Omni struct{}

// AngularTerm is always 1 for an omnidirectional light.
func (Omni) AngularTerm(Vec2) float64 { return 1 }

func (Omni) isEmission() {}

// Spot emits inside a cone around a unit direction.
type Spot struct {
	direction Vec2
	halfAngle float64
}

// NewSpot returns a cone around direction with the given half-angle in
// radians. The direction is normalized; a zero-length direction is a
// precondition violation and yields an undefined cone.
func NewSpot(direction Vec2, halfAngle float64) Spot {
	return Spot{direction: direction.Normalize(), halfAngle: halfAngle}
}

// Direction returns the unit cone axis.
func (s Spot) Direction() Vec2 { return s.direction }

// HalfAngle returns the cone half-angle in radians.
func (s Spot) HalfAngle() float64 { return s.halfAngle }

// AngularTerm returns 1 when the angle between the cone axis and toPixel is
// at most the half-angle and 0 otherwise. The boundary is hard; it is not
// smoothed. A pixel at the light's own position receives 1.
func (s Spot) AngularTerm(toPixel Vec2) float64 {
	l := toPixel.Len()
	if l == 0 {
		return 1
	}
	cos := s.direction.Dot(toPixel) / l
	theta := math.Acos(math.Max(-1, math.Min(1, cos)))
	if theta <= s.halfAngle {
		return 1
	}
	return 0
}

func (Spot) isEmission() {}

// PointLight is a positioned light with radial falloff, optionally limited
// to a cone. It is plain value data; the renderer copies it per frame.
type PointLight struct {
	// Position is the light's world-space position.
	Position Vec2
	// Color is the HDR light color; components may exceed 1.
	Color RGB
	// Intensity scales the light's contribution. Must be >= 0.
	Intensity float64
	// Radius is the world-space reach of the light. Must be > 0.
	Radius float64
	// Falloff is the attenuation exponent: 1 = linear, 2 = quadratic.
	Falloff float64
	// Emission is Omni{} or a Spot cone. Nil is treated as Omni.
	Emission Emission
}

// NewPointLight returns an omnidirectional light with the default falloff.
func NewPointLight(pos Vec2, color RGB, intensity, radius float64) PointLight {
	return PointLight{
		Position:  pos,
		Color:     color,
		Intensity: intensity,
		Radius:    radius,
		Falloff:   DefaultFalloff,
		Emission:  Omni{},
	}
}

// NewSpotLight returns a spotlight aimed along direction with the default
// falloff and half-angle. The stored direction is always unit length.
func NewSpotLight(pos, direction Vec2, color RGB, intensity, radius float64) PointLight {
	l := NewPointLight(pos, color, intensity, radius)
	l.Emission = NewSpot(direction, DefaultHalfAngle)
	return l
}

// WithFalloff returns a copy of the light using the given falloff exponent.
func (l PointLight) WithFalloff(falloff float64) PointLight {
	l.Falloff = falloff
	return l
}

// WithHalfAngle returns a copy of the light with its cone half-angle set.
// An omnidirectional light is returned unchanged.
func (l PointLight) WithHalfAngle(halfAngle float64) PointLight {
	if s, ok := l.Emission.(Spot); ok {
		s.halfAngle = halfAngle
		l.Emission = s
	}
	return l
}

// IsSpot reports whether the light is limited to a cone.
func (l PointLight) IsSpot() bool {
	_, ok := l.Emission.(Spot)
	return ok
}

// Validate checks the light's invariants.
func (l PointLight) Validate() error {
	if !(l.Radius > 0) {
		return fmt.Errorf("lumen: point light radius %v must be > 0", l.Radius)
	}
	if l.Falloff < 0 || math.IsNaN(l.Falloff) {
		return fmt.Errorf("lumen: point light falloff %v must be >= 0", l.Falloff)
	}
	if l.Intensity < 0 || math.IsNaN(l.Intensity) {
		return fmt.Errorf("lumen: point light intensity %v must be >= 0", l.Intensity)
	}
	if s, ok := l.Emission.(Spot); ok {
		if !(s.halfAngle > 0 && s.halfAngle <= math.Pi) {
			return fmt.Errorf("lumen: spot half-angle %v must be in (0, pi]", s.halfAngle)
		}
	}
	return nil
}

// Attenuation returns intensity * (1 - d)^falloff where d is distance
// divided by radius. Distances at or beyond the radius yield 0.
func (l PointLight) Attenuation(distance float64) float64 {
	return attenuate(distance/l.Radius, l.Intensity, l.Falloff)
}

// attenuate evaluates the falloff curve at a normalized distance d.
func attenuate(d, intensity, falloff float64) float64 {
	if d >= 1 {
		return 0
	}
	if d < 0 {
		d = 0
	}
	a := intensity * math.Pow(1-d, falloff)
	if a < 0 {
		return 0
	}
	return a
}

// AngularTerm returns the cone multiplier for a pixel at world point p.
func (l PointLight) AngularTerm(p Vec2) float64 {
	if l.Emission == nil {
		return 1
	}
	return l.Emission.AngularTerm(p.Sub(l.Position))
}

// Contribution returns the unoccluded light added at world point p:
// color * attenuation * angular term.
func (l PointLight) Contribution(p Vec2) RGB {
	k := l.Attenuation(p.Sub(l.Position).Len())
	if k == 0 {
		return RGB{}
	}
	k *= l.AngularTerm(p)
	return RGB{l.Color.R * k, l.Color.G * k, l.Color.B * k}
}

// DirectionalLight is an infinitely distant light. It adds a uniform term
// to every pixel and is never occluded.
type DirectionalLight struct {
	// Direction is the unit direction the light travels in.
	Direction Vec2
	// Color is the HDR light color.
	Color RGB
	// Intensity scales the contribution. Must be >= 0.
	Intensity float64
}

// NewDirectionalLight returns a directional light with a normalized direction.
// A zero direction is kept as is; ambient light has no meaningful direction.
func NewDirectionalLight(direction Vec2, color RGB, intensity float64) DirectionalLight {
	if direction != (Vec2{}) {
		direction = direction.Normalize()
	}
	return DirectionalLight{Direction: direction, Color: color, Intensity: intensity}
}

// NewAmbientLight returns a directionless light of the given color and intensity.
func NewAmbientLight(color RGB, intensity float64) DirectionalLight {
	return DirectionalLight{Color: color, Intensity: intensity}
}

// Contribution returns color * intensity.
func (l DirectionalLight) Contribution() RGB {
	return RGB{l.Color.R * l.Intensity, l.Color.G * l.Intensity, l.Color.B * l.Intensity}
}
