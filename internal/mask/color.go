package mask

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// ColorMode selects how RGB channels of the overlay are filled.
type ColorMode uint8

const (
	// ModeOverlay paints every pixel in the configured overlay colour.
	ModeOverlay ColorMode = iota
	// ModeDiagnostic maps alpha to a hue for inspecting mask magnitude.
	ModeDiagnostic
)

func (m ColorMode) String() string {
	switch m {
	case ModeOverlay:
		return "overlay"
	case ModeDiagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}

// ParseColorMode parses "overlay" or "diagnostic".
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overlay":
		return ModeOverlay, nil
	case "diagnostic", "heatmap":
		return ModeDiagnostic, nil
	default:
		return 0, fmt.Errorf("unknown color mode %q", s)
	}
}

// White is the default overlay colour.
var White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// ParseHexColor parses "#RGB", "#RRGGBB" or "#RRGGBBAA".
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	var expanded string
	switch len(hex) {
	case 3:
		expanded = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + "ff"
	case 6:
		expanded = hex + "ff"
	case 8:
		expanded = hex
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(expanded, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// hsl converts h in degrees, s and l in [0, 1] to 8-bit RGB.
func hsl(h, s, l float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	h /= 360

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h*6, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 1.0/6:
		r, g, b = c, x, 0
	case h < 2.0/6:
		r, g, b = x, c, 0
	case h < 3.0/6:
		r, g, b = 0, c, x
	case h < 4.0/6:
		r, g, b = 0, x, c
	case h < 5.0/6:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return to8(r + m), to8(g + m), to8(b + m)
}

func to8(v float64) uint8 {
	return uint8(clamp255(math.Round(v * 255)))
}

func clamp255(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}

// hueTable maps every alpha value to its diagnostic colour.
var hueTable = func() (t [256][3]uint8) {
	for a := range t {
		r, g, b := hsl(float64(a)/255*360, 1, 0.5)
		t[a] = [3]uint8{r, g, b}
	}
	return t
}()
