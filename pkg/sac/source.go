package sac

import "unsafe"

// SampleSource is either Mono or Dual. The variant is fixed at decode time so
// consumers never have to infer grayscale mode from buffer contents.
type SampleSource interface {
	// Len returns the number of samples per channel.
	Len() int
	sampleSource()
}

// Mono is a single-channel source; both channels read the same buffer.
type Mono struct {
	Samples []int16
}

// Dual is a two-channel source with independent buffers.
type Dual struct {
	A []int16
	B []int16
}

func (m Mono) Len() int { return len(m.Samples) }
func (d Dual) Len() int { return len(d.A) }

func (Mono) sampleSource() {}
func (Dual) sampleSource() {}

// Channels returns the two channel buffers of a source. For Mono both results
// are the same slice.
func Channels(src SampleSource) ([]int16, []int16) {
	switch s := src.(type) {
	case Mono:
		return s.Samples, s.Samples
	case Dual:
		return s.A, s.B
	default:
		return nil, nil
	}
}

// SameBuffer reports whether a and b share the same backing array and length.
func SameBuffer(a, b []int16) bool {
	return len(a) == len(b) && unsafe.SliceData(a) == unsafe.SliceData(b)
}
