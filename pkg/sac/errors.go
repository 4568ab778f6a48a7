package sac

import (
	"errors"
	"fmt"
)

var (
	ErrBadMagic            = errors.New("sac: bad magic")
	ErrUnsupportedDataType = errors.New("sac: unsupported data type")
	ErrBadArrayCount       = errors.New("sac: bad array count")
	ErrLengthMismatch      = errors.New("sac: length mismatch")
	ErrShapeMismatch       = errors.New("sac: shape mismatch")
)

// Kind identifies a structural failure class.
type Kind uint8

const (
	KindBadMagic Kind = iota + 1
	KindUnsupportedDataType
	KindBadArrayCount
	KindLengthMismatch
	KindShapeMismatch
)

func (k Kind) String() string {
	switch k {
	case KindBadMagic:
		return "BadMagic"
	case KindUnsupportedDataType:
		return "UnsupportedDataType"
	case KindBadArrayCount:
		return "BadArrayCount"
	case KindLengthMismatch:
		return "LengthMismatch"
	case KindShapeMismatch:
		return "ShapeMismatch"
	default:
		return "Unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindBadMagic:
		return ErrBadMagic
	case KindUnsupportedDataType:
		return ErrUnsupportedDataType
	case KindBadArrayCount:
		return ErrBadArrayCount
	case KindLengthMismatch:
		return ErrLengthMismatch
	case KindShapeMismatch:
		return ErrShapeMismatch
	default:
		return nil
	}
}

// FormatError is returned for every structural rejection. It unwraps to the
// sentinel for its Kind.
type FormatError struct {
	Kind Kind
	Msg  string
}

func (e *FormatError) Error() string {
	return e.Kind.sentinel().Error() + ": " + e.Msg
}

func (e *FormatError) Unwrap() error {
	return e.Kind.sentinel()
}

func newFormatError(kind Kind, format string, args ...any) error {
	return &FormatError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the format error kind of err, or 0 if err is not a FormatError.
func KindOf(err error) Kind {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
