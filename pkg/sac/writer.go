package sac

import (
	"errors"
	"io"
	"os"
)

// Encode builds a container from one or two sample arrays. A nil b, or a b
// that is the same slice as a, selects single-array mode. width and height
// may both be zero to omit the shape hint; otherwise every array must hold
// exactly width*height samples.
func Encode(a, b []int16, width, height int) ([]byte, error) {
	hdr, err := buildHeader(a, b, width, height)
	if err != nil {
		return nil, err
	}
	out := make([]byte, HeaderSize, uint64(HeaderSize)+hdr.PayloadSize())
	encodeHeader(out, hdr)
	out = appendSamples(out, a)
	if !hdr.Single() {
		out = appendSamples(out, b)
	}
	return out, nil
}

// EncodeSource encodes a tagged sample source.
func EncodeSource(src SampleSource, width, height int) ([]byte, error) {
	switch s := src.(type) {
	case Mono:
		return Encode(s.Samples, nil, width, height)
	case Dual:
		return Encode(s.A, s.B, width, height)
	default:
		return nil, errors.New("sac: unknown sample source")
	}
}

// MustEncode is like Encode but panics on a shape mismatch. It is meant for
// build-time callers where a mismatch is a programming error.
func MustEncode(a, b []int16, width, height int) []byte {
	out, err := Encode(a, b, width, height)
	if err != nil {
		panic(err)
	}
	return out
}

func buildHeader(a, b []int16, width, height int) (Header, error) {
	if width < 0 || height < 0 {
		return Header{}, newFormatError(KindShapeMismatch, "negative shape %dx%d", width, height)
	}
	if uint64(len(a)) > uint64(^uint32(0)) || uint64(len(b)) > uint64(^uint32(0)) {
		return Header{}, newFormatError(KindLengthMismatch, "array too long for uint32 length field")
	}
	single := b == nil || SameBuffer(a, b)

	if width != 0 || height != 0 {
		n := uint64(width) * uint64(height)
		if uint64(len(a)) != n {
			return Header{}, newFormatError(KindShapeMismatch, "len(a) %d != %dx%d", len(a), width, height)
		}
		if !single && uint64(len(b)) != n {
			return Header{}, newFormatError(KindShapeMismatch, "len(b) %d != %dx%d", len(b), width, height)
		}
	}

	hdr := Header{
		DType:   DTypeInt16,
		LengthA: uint32(len(a)),
		Width:   uint32(width),
		Height:  uint32(height),
	}
	copy(hdr.Magic[:], Magic)
	if single {
		hdr.Flags = FlagSingleArray
		hdr.ArrayCount = 1
		hdr.LengthB = hdr.LengthA
	} else {
		hdr.ArrayCount = 2
		hdr.LengthB = uint32(len(b))
	}
	return hdr, nil
}

// Writer streams encoded containers to an io.Writer.
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter returns a Writer targeting w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes and writes one container, returning the number of bytes written.
func (w *Writer) Write(a, b []int16, width, height int) (int, error) {
	if w == nil || w.w == nil {
		return 0, errors.New("sac: nil writer")
	}
	hdr, err := buildHeader(a, b, width, height)
	if err != nil {
		return 0, err
	}
	w.buf = w.buf[:0]
	w.buf = append(w.buf, make([]byte, HeaderSize)...)
	encodeHeader(w.buf, hdr)
	w.buf = appendSamples(w.buf, a)
	if !hdr.Single() {
		w.buf = appendSamples(w.buf, b)
	}
	return writeFull(w.w, w.buf)
}

// WriteFile encodes a container into path, optionally zstd-compressed.
func WriteFile(path string, a, b []int16, width, height int, compress bool) error {
	data, err := Encode(a, b, width, height)
	if err != nil {
		return err
	}
	if compress {
		data, err = Compress(data)
		if err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := writeFull(f, data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeFull(w io.Writer, p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		n, err := w.Write(p)
		total += n
		if err != nil {
			return total, err
		}
		p = p[n:]
	}
	return total, nil
}
