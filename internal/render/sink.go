package render

import (
	"errors"
	"image"
	"image/draw"
	"image/png"
	"io"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/samcharles93/artorize/internal/mask"
)

// Sink paints overlay pixels. rgba is non-premultiplied, 4 bytes per pixel.
type Sink interface {
	Present(width, height int, rgba []byte) error
}

// DisplaySizer is implemented by sinks that scale their visual box to the
// logical display size. It is called before Present.
type DisplaySizer interface {
	SetDisplaySize(vp mask.Viewport, deviceWidth, deviceHeight int)
}

// Clearer is implemented by sinks that can remove a previously presented overlay.
type Clearer interface {
	Clear() error
}

// Draw presents f to sink. A nil frame clears the sink when supported.
func Draw(sink Sink, f *Frame) error {
	if sink == nil {
		return errors.New("render: nil sink")
	}
	if f == nil || f.Image == nil {
		if c, ok := sink.(Clearer); ok {
			return c.Clear()
		}
		return nil
	}
	if ds, ok := sink.(DisplaySizer); ok {
		ds.SetDisplaySize(f.Viewport, f.Plan.TargetWidth, f.Plan.TargetHeight)
	}
	return sink.Present(f.Image.Width, f.Image.Height, f.Image.Pix)
}

// MemorySink keeps the last presented overlay in memory.
type MemorySink struct {
	mu       sync.Mutex
	Presents int
	Clears   int
	Width    int
	Height   int
	Pix      []byte
	Display  mask.Viewport
	DeviceW  int
	DeviceH  int
}

func (m *MemorySink) Present(width, height int, rgba []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Presents++
	m.Width, m.Height, m.Pix = width, height, rgba
	return nil
}

func (m *MemorySink) SetDisplaySize(vp mask.Viewport, deviceWidth, deviceHeight int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Display, m.DeviceW, m.DeviceH = vp, deviceWidth, deviceHeight
}

func (m *MemorySink) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Clears++
	m.Width, m.Height, m.Pix = 0, 0, nil
	return nil
}

// Snapshot returns the present count and last overlay size.
func (m *MemorySink) Snapshot() (presents, width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Presents, m.Width, m.Height
}

// PNGSink composites the overlay over an optional base image at device
// resolution and encodes the result as PNG.
type PNGSink struct {
	Out  io.Writer
	Base image.Image

	deviceW, deviceH int
}

func (p *PNGSink) SetDisplaySize(_ mask.Viewport, deviceWidth, deviceHeight int) {
	p.deviceW, p.deviceH = deviceWidth, deviceHeight
}

func (p *PNGSink) Present(width, height int, rgba []byte) error {
	if p.Out == nil {
		return errors.New("render: png sink has no output")
	}
	overlay := (&mask.Image{Width: width, Height: height, Pix: rgba}).NRGBA()

	dw, dh := p.deviceW, p.deviceH
	if dw <= 0 || dh <= 0 {
		dw, dh = width, height
	}
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	if p.Base != nil {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), p.Base, p.Base.Bounds(), draw.Src, nil)
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), overlay, overlay.Bounds(), draw.Over, nil)
	return png.Encode(p.Out, dst)
}

// Clear writes the base image alone, the degraded-only view.
func (p *PNGSink) Clear() error {
	if p.Out == nil || p.Base == nil {
		return nil
	}
	b := p.Base.Bounds()
	dw, dh := p.deviceW, p.deviceH
	if dw <= 0 || dh <= 0 {
		dw, dh = b.Dx(), b.Dy()
	}
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), p.Base, b, draw.Src, nil)
	return png.Encode(p.Out, dst)
}
