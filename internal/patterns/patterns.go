// Package patterns generates synthetic reconstruction masks for testing
// viewers end to end.
package patterns

import (
	"fmt"
	"math"
)

const (
	DefaultWidth      = 400
	DefaultHeight     = 300
	DefaultIntensity  = 1000.0
	DefaultSquareSize = 50
)

// Mask is a generated pair of sample arrays. B is nil when the pattern is
// naturally single-channel.
type Mask struct {
	Width  int
	Height int
	A      []int16
	B      []int16
}

// Names lists the available generators.
func Names() []string {
	return []string{"radial", "checkerboard", "gradient"}
}

// Generate builds the named pattern at width x height.
func Generate(name string, width, height int) (Mask, error) {
	if width <= 0 || height <= 0 {
		return Mask{}, fmt.Errorf("patterns: invalid size %dx%d", width, height)
	}
	switch name {
	case "radial":
		return Radial(width, height, DefaultIntensity), nil
	case "checkerboard":
		return Checkerboard(width, height, DefaultSquareSize), nil
	case "gradient":
		return Gradient(width, height), nil
	default:
		return Mask{}, fmt.Errorf("patterns: unknown pattern %q", name)
	}
}

// Radial is strongest at the centre and fades to zero at the corners.
func Radial(width, height int, intensity float64) Mask {
	cx, cy := float64(width)/2, float64(height)/2
	maxDist := math.Hypot(cx, cy)
	a := make([]int16, width*height)
	for y := range height {
		for x := range width {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			a[y*width+x] = int16((1 - d/maxDist) * intensity)
		}
	}
	return Mask{Width: width, Height: height, A: a}
}

// Checkerboard alternates 0 and 1000 in squares of the given size.
func Checkerboard(width, height, square int) Mask {
	square = max(1, square)
	a := make([]int16, width*height)
	for y := range height {
		for x := range width {
			a[y*width+x] = int16((x/square+y/square)%2) * 1000
		}
	}
	return Mask{Width: width, Height: height, A: a}
}

// Gradient has a horizontal ramp in A and a vertical ramp in B, both
// spanning -1000..1000.
func Gradient(width, height int) Mask {
	a := make([]int16, width*height)
	b := make([]int16, width*height)
	for y := range height {
		for x := range width {
			i := y*width + x
			a[i] = int16(float64(x)/float64(width)*2000 - 1000)
			b[i] = int16(float64(y)/float64(height)*2000 - 1000)
		}
	}
	return Mask{Width: width, Height: height, A: a, B: b}
}

// Dual returns m with an explicit B channel, copying A when m is single-channel.
func (m Mask) Dual() Mask {
	if m.B != nil {
		return m
	}
	b := make([]int16, len(m.A))
	copy(b, m.A)
	m.B = b
	return m
}
