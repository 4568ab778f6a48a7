package sac

// Summary describes a decoded container for inspection output.
type Summary struct {
	Magic      string `json:"magic"`
	Flags      uint8  `json:"flags"`
	Mode       string `json:"mode"`
	DType      uint8  `json:"dtype"`
	ArrayCount uint8  `json:"array_count"`
	LengthA    uint32 `json:"length_a"`
	LengthB    uint32 `json:"length_b"`
	Width      uint32 `json:"width"`
	Height     uint32 `json:"height"`
	Bytes      int    `json:"bytes"`
	Compressed bool   `json:"compressed"`
	A          Stats  `json:"a"`
	B          *Stats `json:"b,omitempty"`
}

// Stats are simple per-array sample statistics.
type Stats struct {
	Min     int16   `json:"min"`
	Max     int16   `json:"max"`
	MeanAbs float64 `json:"mean_abs"`
	Zero    int     `json:"zero"`
}

// Summarize reports header fields and sample statistics. size is the number
// of bytes the container was read from.
func Summarize(c *Container, size int, compressed bool) Summary {
	h := c.Header
	s := Summary{
		Magic:      string(h.Magic[:]),
		Flags:      h.Flags,
		Mode:       c.Mode().String(),
		DType:      h.DType,
		ArrayCount: h.ArrayCount,
		LengthA:    h.LengthA,
		LengthB:    h.LengthB,
		Width:      h.Width,
		Height:     h.Height,
		Bytes:      size,
		Compressed: compressed,
		A:          statsOf(c.A),
	}
	if c.Mode() == ModeDual {
		b := statsOf(c.B)
		s.B = &b
	}
	return s
}

func statsOf(samples []int16) Stats {
	if len(samples) == 0 {
		return Stats{}
	}
	st := Stats{Min: samples[0], Max: samples[0]}
	var sum float64
	for _, v := range samples {
		st.Min = min(st.Min, v)
		st.Max = max(st.Max, v)
		if v == 0 {
			st.Zero++
		}
		if v < 0 {
			sum -= float64(v)
		} else {
			sum += float64(v)
		}
	}
	st.MeanAbs = sum / float64(len(samples))
	return st
}
