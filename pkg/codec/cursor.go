// Package codec implements the declarative big-endian record decoder
// shared by the volume-header and EFS layers: fixed-size primitive and
// array reads, enum tag decoding against a closed value set, magic-
// number gates, reserved-padding skips, and flexible (length-prefixed)
// tails. It never seeks — positioning within the caller's byte slice
// is entirely offset-based, and a Cursor is always backed by an
// in-memory buffer that was itself obtained with a single ReadAt.
package codec

import (
	"encoding/binary"

	"github.com/bgrewell/sgidisk-kit/pkg/errs"
)

// Cursor decodes big-endian fields sequentially out of a fixed byte
// slice, tracking its own read offset. It never grows, shrinks, or
// reallocates the underlying slice.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor wraps data for sequential decoding starting at offset 0.
func NewCursor(data []byte) *Cursor {
	return &Cursor{buf: data}
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of unconsumed bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// need fails with Codec if fewer than n bytes remain.
func (c *Cursor) need(n int, field string) error {
	if c.Remaining() < n {
		return errs.Codec("field %q needs %d bytes but only %d remain at offset %d", field, n, c.Remaining(), c.off)
	}
	return nil
}

// U8 reads one unsigned byte.
func (c *Cursor) U8(field string) (uint8, error) {
	if err := c.need(1, field); err != nil {
		return 0, err
	}
	v := c.buf[c.off]
	c.off++
	return v, nil
}

// I8 reads one signed byte.
func (c *Cursor) I8(field string) (int8, error) {
	v, err := c.U8(field)
	return int8(v), err
}

// U16 reads a big-endian unsigned 16-bit field.
func (c *Cursor) U16(field string) (uint16, error) {
	if err := c.need(2, field); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v, nil
}

// I16 reads a big-endian signed 16-bit field.
func (c *Cursor) I16(field string) (int16, error) {
	v, err := c.U16(field)
	return int16(v), err
}

// U24 reads a big-endian 24-bit field into the low bits of a uint32.
func (c *Cursor) U24(field string) (uint32, error) {
	if err := c.need(3, field); err != nil {
		return 0, err
	}
	v := uint32(c.buf[c.off])<<16 | uint32(c.buf[c.off+1])<<8 | uint32(c.buf[c.off+2])
	c.off += 3
	return v, nil
}

// U32 reads a big-endian unsigned 32-bit field.
func (c *Cursor) U32(field string) (uint32, error) {
	if err := c.need(4, field); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v, nil
}

// I32 reads a big-endian signed 32-bit field.
func (c *Cursor) I32(field string) (int32, error) {
	v, err := c.U32(field)
	return int32(v), err
}

// Fixed reads a fixed-size byte array field, returning a copy so the
// caller never aliases the cursor's backing buffer.
func (c *Cursor) Fixed(n int, field string) ([]byte, error) {
	if err := c.need(n, field); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.buf[c.off:c.off+n])
	c.off += n
	return out, nil
}

// Skip advances the cursor by n bytes without emitting anything. Used
// for reserved/padding regions that the record declares but the
// decoder does not expose.
func (c *Cursor) Skip(n int, field string) error {
	if err := c.need(n, field); err != nil {
		return err
	}
	c.off += n
	return nil
}

// Magic verifies that the next len(want) bytes equal want exactly,
// failing Codec on any mismatch. The bytes are consumed whether or not
// they match.
func (c *Cursor) Magic(want []byte, field string) error {
	got, err := c.Fixed(len(want), field)
	if err != nil {
		return err
	}
	for i := range want {
		if got[i] != want[i] {
			return errs.Codec("bad magic for %q: got % x, want % x", field, got, want)
		}
	}
	return nil
}

// Flex reads a variable-length tail whose length was decoded earlier
// (e.g. a name-length prefix). It is just Fixed under a name that
// documents intent at call sites.
func (c *Cursor) Flex(n int, field string) ([]byte, error) {
	return c.Fixed(n, field)
}

// NarrowU16 narrows a signed 16-bit value to unsigned, failing Value
// on negative input. Used for fields declared signed on disk (e.g.
// root/swap partition indices) that are semantically unsigned.
func NarrowU16(v int16, field string) (uint16, error) {
	if v < 0 {
		return 0, errs.Value("%s: negative value %d cannot narrow to unsigned", field, v)
	}
	return uint16(v), nil
}

// NarrowU32 narrows a signed 32-bit value to unsigned, failing Value
// on negative input.
func NarrowU32(v int32, field string) (uint32, error) {
	if v < 0 {
		return 0, errs.Value("%s: negative value %d cannot narrow to unsigned", field, v)
	}
	return uint32(v), nil
}

// TrimmedASCII converts a fixed-size byte block into an optional
// trimmed ASCII string, returning ("", false) when every byte is zero.
func TrimmedASCII(b []byte) (string, bool) {
	allZero := true
	for _, c := range b {
		if c != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return "", false
	}
	end := len(b)
	for end > 0 && (b[end-1] == 0 || b[end-1] == ' ') {
		end--
	}
	return string(b[:end]), true
}
