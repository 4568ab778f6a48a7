// Package sac implements the Simple Array Container format.
//
// SAC carries one or two parallel arrays of signed 16-bit reconstruction
// samples plus an optional shape hint. Version 1.0 always stores two arrays;
// version 1.1 adds the SINGLE_ARRAY flag, in which case one array is stored
// and used for both channels.
package sac

// Wire format constants.
const (
	// Magic is the file magic for all SAC containers.
	Magic = "SAC1"

	// HeaderSize is the fixed size of the container header in bytes.
	HeaderSize = 24

	// DTypeInt16 is the only supported sample type.
	DTypeInt16 uint8 = 1

	// FlagSingleArray marks a v1.1 container carrying one sample array.
	FlagSingleArray uint8 = 1 << 0

	sampleSize = 2
)

// Mode describes how many sample arrays a container physically stores.
type Mode uint8

const (
	ModeDual Mode = iota
	ModeSingle
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeDual:
		return "dual"
	default:
		return "unknown"
	}
}

// Header is the decoded fixed-size container header.
type Header struct {
	Magic      [4]byte
	Flags      uint8
	DType      uint8
	ArrayCount uint8
	Reserved   uint8
	LengthA    uint32
	LengthB    uint32
	Width      uint32
	Height     uint32
}

// Single reports whether the SINGLE_ARRAY flag is set.
func (h *Header) Single() bool {
	return h.Flags&FlagSingleArray != 0
}

// PayloadSize returns the number of payload bytes the header declares.
func (h *Header) PayloadSize() uint64 {
	n := uint64(h.LengthA) * sampleSize
	if !h.Single() {
		n += uint64(h.LengthB) * sampleSize
	}
	return n
}

// HasShape reports whether the header carries a usable width/height hint.
func (h *Header) HasShape() bool {
	return uint64(h.Width)*uint64(h.Height) != 0
}

// Container is one decoded mask file.
//
// In single-array mode B is the same slice as A, not a copy.
type Container struct {
	Header Header
	A      []int16
	B      []int16
}

// Mode returns the storage mode of the container.
func (c *Container) Mode() Mode {
	if c.Header.Single() {
		return ModeSingle
	}
	return ModeDual
}

// Width returns the shape hint width, or 0 when unspecified.
func (c *Container) Width() int { return int(c.Header.Width) }

// Height returns the shape hint height, or 0 when unspecified.
func (c *Container) Height() int { return int(c.Header.Height) }

// Source returns the tagged sample source for the container.
func (c *Container) Source() SampleSource {
	if c.Header.Single() {
		return Mono{Samples: c.A}
	}
	return Dual{A: c.A, B: c.B}
}

// Shape resolves the effective mask dimensions. The container's own hint wins;
// when it is unspecified the caller must supply the natural size of the image
// the mask belongs to. Either way the shape must match both arrays.
func (c *Container) Shape(naturalWidth, naturalHeight int) (int, int, error) {
	w, h := naturalWidth, naturalHeight
	if c.Header.HasShape() {
		w, h = int(c.Header.Width), int(c.Header.Height)
	} else if w <= 0 || h <= 0 {
		return 0, 0, newFormatError(KindShapeMismatch, "container has no shape hint and no natural size was supplied")
	}
	n := uint64(w) * uint64(h)
	if uint64(len(c.A)) != n || uint64(len(c.B)) != n {
		return 0, 0, newFormatError(KindShapeMismatch, "shape %dx%d does not match %d/%d samples", w, h, len(c.A), len(c.B))
	}
	return w, h, nil
}
