// Package errs defines the bounded error taxonomy surfaced by every
// layer of the volume-header and EFS decoders: Codec, Io, Value, and
// Bounds. No layer retries, masks, or logs a failure; errors simply
// propagate upward, wrapped with github.com/pkg/errors so a stack
// trace is attached at the point of failure.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the closed set of failure categories a caller can switch on.
type Kind int

const (
	// KindCodec marks a decoding failure: bad magic, out-of-enum tag,
	// length-prefix mismatch, or a reserved-nonzero byte.
	KindCodec Kind = iota
	// KindIo marks a byte-source failure underneath a read or seek.
	KindIo
	// KindValue marks a structurally valid record rejected on semantic
	// grounds: signed-to-unsigned overflow, an unknown mode type, a
	// non-UTF-8 name, non-contiguous extents, a geometry divisibility
	// failure, or numextents above the documented ceiling.
	KindValue
	// KindBounds marks an attempted read outside the partition window,
	// a compact-offset outside the directory-block payload, or an
	// inode number whose derived offset falls outside the filesystem.
	KindBounds
)

func (k Kind) String() string {
	switch k {
	case KindCodec:
		return "codec"
	case KindIo:
		return "io"
	case KindValue:
		return "value"
	case KindBounds:
		return "bounds"
	default:
		return "unknown"
	}
}

// Error is the concrete error type carrying a Kind and a detail message.
type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.cause }

// Is allows errors.Is(err, errs.Codec("")) style kind checks by
// comparing Kind only, ignoring Detail and cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func newf(kind Kind, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: kind, Detail: fmt.Sprintf(format, args...)})
}

// Codec builds a KindCodec error.
func Codec(format string, args ...interface{}) error {
	return newf(KindCodec, format, args...)
}

// Io wraps an underlying byte-source error as KindIo.
func Io(cause error, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: KindIo, Detail: fmt.Sprintf(format, args...), cause: cause})
}

// Value builds a KindValue error.
func Value(format string, args ...interface{}) error {
	return newf(KindValue, format, args...)
}

// Bounds builds a KindBounds error.
func Bounds(format string, args ...interface{}) error {
	return newf(KindBounds, format, args...)
}

// IsKind reports whether err (or anything it wraps) carries the given Kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
