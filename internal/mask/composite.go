package mask

import (
	"image"
	"image/color"
	"math"

	"github.com/samcharles93/artorize/pkg/sac"
)

// Options controls how samples become overlay pixels.
type Options struct {
	Mode    ColorMode
	Color   color.NRGBA
	Opacity float64
}

// DefaultOptions returns overlay mode in opaque white at unit opacity.
func DefaultOptions() Options {
	return Options{Mode: ModeOverlay, Color: White, Opacity: 1}
}

// Image is a non-premultiplied RGBA overlay, 4 bytes per pixel.
type Image struct {
	Width  int
	Height int
	Pix    []byte
	// Mono records that the single-channel path produced the image.
	Mono bool
}

// NRGBA wraps the pixel buffer as an image without copying.
func (m *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    m.Pix,
		Stride: m.Width * 4,
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
}

// Alpha returns the alpha channel of pixel i.
func (m *Image) Alpha(i int) uint8 {
	return m.Pix[i*4+3]
}

// Composite converts a width x height sample source into an overlay image.
// Mono sources take a single-buffer path using |A|; Dual sources use
// sqrt(A²+B²). Alpha is clamped to [0, 255] so any sample range is accepted.
func Composite(src sac.SampleSource, width, height int, opts Options) *Image {
	width = max(1, width)
	height = max(1, height)
	img := &Image{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
	n := min(width*height, src.Len())

	switch s := src.(type) {
	case sac.Mono:
		img.Mono = true
		a := s.Samples[:n]
		for i, v := range a {
			mag := int32(v)
			if mag < 0 {
				mag = -mag
			}
			setPixel(img.Pix[i*4:i*4+4], alphaOf(float64(mag), opts.Opacity), opts)
		}
	case sac.Dual:
		a, b := s.A[:n], s.B[:n]
		for i := range a {
			va, vb := int64(a[i]), int64(b[i])
			mag := math.Sqrt(float64(va*va + vb*vb))
			setPixel(img.Pix[i*4:i*4+4], alphaOf(mag, opts.Opacity), opts)
		}
	}
	return img
}

func alphaOf(magnitude, opacity float64) uint8 {
	v := magnitude * opacity
	if !(v > 0) {
		return 0
	}
	return uint8(clamp255(math.Round(v)))
}

func setPixel(px []byte, alpha uint8, opts Options) {
	if opts.Mode == ModeDiagnostic {
		rgb := hueTable[alpha]
		px[0], px[1], px[2], px[3] = rgb[0], rgb[1], rgb[2], alpha
		return
	}
	c := opts.Color
	px[0], px[1], px[2] = c.R, c.G, c.B
	px[3] = uint8((uint32(alpha)*uint32(c.A) + 127) / 255)
}
