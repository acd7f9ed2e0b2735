package efs

import (
	"github.com/bgrewell/sgidisk-kit/pkg/codec"
	"github.com/bgrewell/sgidisk-kit/pkg/errs"
)

// extentSize is the on-disk length of one extent record.
const extentSize = 8

// Extent is a physical run of basic blocks covering a contiguous
// logical range of a file's content.
type Extent struct {
	// BlockNumber is the 24-bit physical Basic Block number.
	BlockNumber uint32
	// Length is the extent's length in Basic Blocks.
	Length uint8
	// LogicalOffset is the logical Basic Block offset into the file.
	LogicalOffset uint32
}

// unmarshalExtent decodes one 8-byte extent record: a reserved leading
// zero byte, a 24-bit block number, an 8-bit length, and a 24-bit
// logical offset.
func unmarshalExtent(c *codec.Cursor) (Extent, error) {
	if err := c.Magic([]byte{0x00}, "ex_reserved"); err != nil {
		return Extent{}, err
	}
	bn, err := c.U24("ex_bn")
	if err != nil {
		return Extent{}, err
	}
	length, err := c.U8("ex_length")
	if err != nil {
		return Extent{}, err
	}
	offset, err := c.U24("ex_offset")
	if err != nil {
		return Extent{}, err
	}
	return Extent{BlockNumber: bn, Length: length, LogicalOffset: offset}, nil
}

// parseExtents decodes a buffer of back-to-back 8-byte extent records.
func parseExtents(buf []byte) ([]Extent, error) {
	if len(buf)%extentSize != 0 {
		return nil, errs.Value("extent area of %d bytes is not a multiple of extent record size %d", len(buf), extentSize)
	}
	out := make([]Extent, 0, len(buf)/extentSize)
	c := codec.NewCursor(buf)
	for c.Remaining() > 0 {
		e, err := unmarshalExtent(c)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
