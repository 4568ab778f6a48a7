package sac

import "encoding/binary"

func encodeHeader(dst []byte, h Header) bool {
	if len(dst) < HeaderSize {
		return false
	}
	le := binary.LittleEndian
	copy(dst[0:4], h.Magic[:])
	dst[4] = h.Flags
	dst[5] = h.DType
	dst[6] = h.ArrayCount
	dst[7] = h.Reserved
	le.PutUint32(dst[8:12], h.LengthA)
	le.PutUint32(dst[12:16], h.LengthB)
	le.PutUint32(dst[16:20], h.Width)
	le.PutUint32(dst[20:24], h.Height)
	return true
}

func decodeHeader(src []byte) (Header, bool) {
	if len(src) < HeaderSize {
		return Header{}, false
	}
	le := binary.LittleEndian
	var h Header
	copy(h.Magic[:], src[0:4])
	h.Flags = src[4]
	h.DType = src[5]
	h.ArrayCount = src[6]
	h.Reserved = src[7]
	h.LengthA = le.Uint32(src[8:12])
	h.LengthB = le.Uint32(src[12:16])
	h.Width = le.Uint32(src[16:20])
	h.Height = le.Uint32(src[20:24])
	return h, true
}

func decodeSamples(src []byte, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(src[i*sampleSize:]))
	}
	return out
}

func appendSamples(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}
