package sac

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Decode parses a complete container. Validation runs in a fixed order:
// magic, data type, array count against the flag, total length, shape.
// In single-array mode the returned container's B is the same slice as A.
func Decode(data []byte) (*Container, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return nil, newFormatError(KindBadMagic, "expected %q", Magic)
	}
	if err := checkLayout(data); err != nil {
		return nil, err
	}
	hdr, ok := decodeHeader(data)
	if !ok {
		return nil, newFormatError(KindLengthMismatch, "truncated header: %d bytes", len(data))
	}

	want := uint64(HeaderSize) + hdr.PayloadSize()
	if uint64(len(data)) != want {
		return nil, newFormatError(KindLengthMismatch, "got %d bytes, header declares %d", len(data), want)
	}

	if hdr.HasShape() {
		n := uint64(hdr.Width) * uint64(hdr.Height)
		if uint64(hdr.LengthA) != n {
			return nil, newFormatError(KindShapeMismatch, "lengthA %d != %dx%d", hdr.LengthA, hdr.Width, hdr.Height)
		}
		if !hdr.Single() && uint64(hdr.LengthB) != n {
			return nil, newFormatError(KindShapeMismatch, "lengthB %d != %dx%d", hdr.LengthB, hdr.Width, hdr.Height)
		}
	}

	payload := data[HeaderSize:]
	lenA := int(hdr.LengthA)
	a := decodeSamples(payload, lenA)
	b := a
	if !hdr.Single() {
		b = decodeSamples(payload[lenA*sampleSize:], int(hdr.LengthB))
	}
	return &Container{Header: hdr, A: a, B: b}, nil
}

// checkLayout validates the flag, dtype and array count bytes, which are
// checked whenever present even if the rest of the header is truncated.
func checkLayout(data []byte) error {
	if len(data) < 7 {
		return nil
	}
	flags, dtype, count := data[4], data[5], data[6]
	if dtype != DTypeInt16 {
		return newFormatError(KindUnsupportedDataType, "dtype %d", dtype)
	}
	wantCount := uint8(2)
	if flags&FlagSingleArray != 0 {
		wantCount = 1
	}
	if count != wantCount {
		return newFormatError(KindBadArrayCount, "array count %d with flags %#02x", count, flags)
	}
	return nil
}

// Open maps a container file read-only and decodes it. Samples are copied out
// of the mapping, which is released before Open returns. If mmap is
// unavailable it falls back to ReadAt-based loading.
func Open(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 > int64(int(^uint(0)>>1)) {
		return nil, newFormatError(KindLengthMismatch, "file too large: %d bytes", size64)
	}
	size := int(size64)
	if size < HeaderSize {
		// Too small to map usefully; let Decode report the precise error.
		data, err := readAllAt(f, size)
		if err != nil {
			return nil, err
		}
		return DecodeAuto(data)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		c, decErr := DecodeAuto(data)
		if unmapErr := unix.Munmap(data); decErr == nil && unmapErr != nil {
			return nil, unmapErr
		}
		return c, decErr
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return DecodeAuto(data)
}

// OpenReaderAt loads and decodes a container from a random-access reader.
func OpenReaderAt(r io.ReaderAt, size int64) (*Container, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, newFormatError(KindLengthMismatch, "invalid size %d", size)
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return DecodeAuto(data)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}
