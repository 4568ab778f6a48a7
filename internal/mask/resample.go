package mask

import "github.com/samcharles93/artorize/pkg/sac"

// Resample resizes a row-major srcW x srcH buffer to dstW x dstH using nearest
// neighbour sampling. Sample values are copied, never blended. The source is
// not modified and must hold at least srcW*srcH samples.
func Resample(buf []int16, srcW, srcH, dstW, dstH int) []int16 {
	dstW = max(1, dstW)
	dstH = max(1, dstH)
	srcW = max(1, srcW)
	srcH = max(1, srcH)

	out := make([]int16, dstW*dstH)
	cols := make([]int, dstW)
	for x := range cols {
		cols[x] = int(int64(x) * int64(srcW) / int64(dstW))
	}
	for y := range dstH {
		row := int(int64(y)*int64(srcH)/int64(dstH)) * srcW
		dst := out[y*dstW : (y+1)*dstW]
		for x, sx := range cols {
			dst[x] = buf[row+sx]
		}
	}
	return out
}

// ResampleSource resamples every channel of src. A Mono source is resampled
// once and stays Mono.
func ResampleSource(src sac.SampleSource, srcW, srcH, dstW, dstH int) sac.SampleSource {
	switch s := src.(type) {
	case sac.Mono:
		return sac.Mono{Samples: Resample(s.Samples, srcW, srcH, dstW, dstH)}
	case sac.Dual:
		return sac.Dual{
			A: Resample(s.A, srcW, srcH, dstW, dstH),
			B: Resample(s.B, srcW, srcH, dstW, dstH),
		}
	default:
		return src
	}
}
