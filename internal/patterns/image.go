package patterns

import (
	"image"
	"image/color"
)

// TestImage returns an opaque RGB gradient to composite masks over: red
// ramps left to right, green top to bottom and blue along the diagonal.
// Channel values are truncated, so the far corner stays just below 255.
func TestImage(width, height int) *image.NRGBA {
	width, height = max(1, width), max(1, height)
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: uint8((x + y) * 255 / (width + height)),
				A: 255,
			})
		}
	}
	return img
}
