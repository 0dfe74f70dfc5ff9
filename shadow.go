package lumen

import (
	"image"
	"math"
)

// minShadowBins is the smallest angular resolution of an occlusion map.
const minShadowBins = 64

// shadowMap is a polar occlusion map around one light: for each angular bin,
// the distance to the nearest occluder pixel. Each occluder pixel is written
// into every bin it subtends, so thin occluders do not leak light between
// bins.
type shadowMap struct {
	bins []float64
	n    int
	bias float64
}

// build fills the map for a light at (lx, ly) with screen reach radius,
// considering occluder pixels inside rect. It returns the number of occluder
// pixels found; zero means every pixel is visible.
func (s *shadowMap) build(occ []bool, stride int, rect image.Rectangle, lx, ly, radius float64, maxBins int, bias float64) int {
	n := int(math.Ceil(2 * math.Pi * radius))
	n = max(minShadowBins, min(n, maxBins))
	if cap(s.bins) < n {
		s.bins = make([]float64, n)
	}
	s.bins = s.bins[:n]
	s.n = n
	s.bias = bias
	for i := range s.bins {
		s.bins[i] = math.Inf(1)
	}

	perRad := float64(n) / (2 * math.Pi)
	found := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := occ[y*stride : (y+1)*stride]
		dy := float64(y) + 0.5 - ly
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if !row[x] {
				continue
			}
			dx := float64(x) + 0.5 - lx
			dist := math.Hypot(dx, dy)
			if dist >= radius {
				continue
			}
			found++
			if dist < 1 {
				// The light sits inside this pixel; it blocks every direction.
				for i := range s.bins {
					s.bins[i] = math.Min(s.bins[i], dist)
				}
				continue
			}
			// Half-width of the pixel as seen from the light.
			half := (math.Sqrt2 / 2) / dist
			center := angleOf(dx, dy) * perRad
			lo := int(math.Floor(center - half*perRad))
			hi := int(math.Floor(center + half*perRad))
			if hi-lo+1 >= n {
				lo, hi = 0, n-1
			}
			for i := lo; i <= hi; i++ {
				b := ((i % n) + n) % n
				if dist < s.bins[b] {
					s.bins[b] = dist
				}
			}
		}
	}
	return found
}

// visible reports whether a pixel at offset (dx, dy) and distance dist from
// the light is not behind an occluder.
func (s *shadowMap) visible(dx, dy, dist float64) bool {
	b := int(angleOf(dx, dy)*float64(s.n)/(2*math.Pi)) % s.n
	return dist <= s.bins[b]+s.bias
}

// angleOf returns the angle of (dx, dy) in [0, 2*pi).
func angleOf(dx, dy float64) float64 {
	a := math.Atan2(dy, dx)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
