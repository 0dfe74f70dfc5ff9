package lumen

import "math"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// Transform2D places a drawable in world space.
type Transform2D struct {
	// Position is the world-space point the drawable is centered on.
	Position Vec2
	// Rotation is the rotation in radians (clockwise, Y down).
	Rotation float64
	// Scale multiplies the drawable's native size per axis.
	Scale Vec2
}

// NewTransform2D returns a transform at pos with no rotation and unit scale.
func NewTransform2D(pos Vec2) Transform2D {
	return Transform2D{Position: pos, Scale: Vec2{1, 1}}
}

// Matrix returns the affine matrix for the transform. Returns [a, b, c, d, tx, ty].
//
// Composition order:
//
//	Scale -> Rotate -> Translate(Position)
func (t Transform2D) Matrix() [6]float64 {
	sin, cos := math.Sincos(t.Rotation)
	sx, sy := t.Scale.X, t.Scale.Y
	return [6]float64{
		cos * sx, sin * sx,
		-sin * sy, cos * sy,
		t.Position.X, t.Position.Y,
	}
}

// Apply maps a point from the transform's local space to world space.
func (t Transform2D) Apply(p Vec2) Vec2 {
	x, y := transformPoint(t.Matrix(), p.X, p.Y)
	return Vec2{x, y}
}

// Compose returns the affine matrix of child placed inside parent
// (parent * child).
func Compose(parent, child Transform2D) [6]float64 {
	return multiplyAffine(parent.Matrix(), child.Matrix())
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular (determinant ~ 0).
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// affineScale returns the average linear scale factor of m. Used to convert
// world-space lengths (radii) into screen pixels.
func affineScale(m [6]float64) float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[2]*m[1]))
}

// boundsAABB computes the axis-aligned bounding box of a w x h rectangle
// whose local origin is at (ox, oy), transformed by m.
func boundsAABB(m [6]float64, ox, oy, w, h float64) Rect {
	x0, y0 := transformPoint(m, ox, oy)
	x1, y1 := transformPoint(m, ox+w, oy)
	x2, y2 := transformPoint(m, ox+w, oy+h)
	x3, y3 := transformPoint(m, ox, oy+h)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
