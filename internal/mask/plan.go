// Package mask turns decoded reconstruction samples into a displayable RGBA
// overlay sized for the current viewport.
package mask

import "math"

// DownsampleThreshold is the mask-to-target ratio above which resampling is
// worth its cost. Between 1x and this ratio the mask is composited at full
// size and the sink scales it.
const DownsampleThreshold = 2.0

// Viewport is the logical display box and device pixel ratio of a render target.
type Viewport struct {
	DisplayWidth  float64
	DisplayHeight float64
	PixelDensity  float64
}

// Ready reports whether the viewport has been laid out.
func (v Viewport) Ready() bool {
	return v.DisplayWidth > 0 && v.DisplayHeight > 0
}

// DeviceSize returns the device-pixel target size, ceil(display * density).
func (v Viewport) DeviceSize() (int, int) {
	d := v.density()
	return max(1, int(math.Ceil(v.DisplayWidth*d))), max(1, int(math.Ceil(v.DisplayHeight*d)))
}

func (v Viewport) density() float64 {
	if math.IsNaN(v.PixelDensity) || v.PixelDensity < 1 {
		return 1
	}
	return v.PixelDensity
}

// Plan is the resolution decision for one render.
type Plan struct {
	RenderWidth  int
	RenderHeight int
	TargetWidth  int
	TargetHeight int
	Downsample   bool
}

// PlanResolution decides whether a maskWidth x maskHeight mask should be
// downsampled before compositing for the given viewport.
func PlanResolution(maskWidth, maskHeight int, vp Viewport) Plan {
	maskWidth = max(1, maskWidth)
	maskHeight = max(1, maskHeight)
	tw, th := vp.DeviceSize()

	p := Plan{
		RenderWidth:  maskWidth,
		RenderHeight: maskHeight,
		TargetWidth:  tw,
		TargetHeight: th,
	}

	ratio := math.Max(float64(maskWidth)/float64(tw), float64(maskHeight)/float64(th))
	if ratio <= DownsampleThreshold {
		return p
	}

	scale := math.Min(float64(tw)/float64(maskWidth), float64(th)/float64(maskHeight))
	p.RenderWidth = max(1, int(math.Floor(float64(maskWidth)*scale)))
	p.RenderHeight = max(1, int(math.Floor(float64(maskHeight)*scale)))
	p.Downsample = true
	return p
}
