package efs

import (
	"github.com/bgrewell/sgidisk-kit/pkg/codec"
	"github.com/bgrewell/sgidisk-kit/pkg/errs"
)

// dirBlockMagic is the 2-byte tag at the start of every directory block.
var dirBlockMagic = []byte{0xBE, 0xEF}

// dirHeaderSize is the size of the fixed directory-block header.
const dirHeaderSize = 4

// dirSpaceSize is the payload region following the header, sized so
// header+space equals exactly one Basic Block.
const dirSpaceSize = BlockSize - dirHeaderSize

// dirEntryMinSize is the space charged per entry when bounding the
// maximum entry count: a 1-byte slot offset plus a 4-byte inode
// number, 1-byte name length, and 1-byte name (7 bytes), rounded up
// to 8.
const dirEntryMinSize = 8

// maxDirEntries bounds DirectoryBlock.Slots against forged values.
const maxDirEntries = dirSpaceSize / dirEntryMinSize

// DirectoryBlock is one 512-byte block of an EFS directory inode's
// content: a small header followed by a slot table (growing up from
// the header) and variable-length entries (growing down from the end
// of the block).
type DirectoryBlock struct {
	// FirstUsed is the offset to the first used entry byte. It is
	// informational only; entry resolution goes through Slots instead.
	FirstUsed uint8
	// Slots is the number of populated offset slots.
	Slots uint8
	space []byte
}

// DirectoryEntry is one resolved directory entry: a child inode number
// and its name within the parent directory.
type DirectoryEntry struct {
	Inode uint32
	Name  []byte
}

// unmarshalDirectoryBlock decodes one 512-byte directory block.
func unmarshalDirectoryBlock(data []byte) (*DirectoryBlock, error) {
	if len(data) != BlockSize {
		return nil, errs.Codec("directory block record must be exactly %d bytes, got %d", BlockSize, len(data))
	}
	c := codec.NewCursor(data)
	if err := c.Magic(dirBlockMagic, "db_magic"); err != nil {
		return nil, err
	}
	firstUsed, err := c.U8("firstused")
	if err != nil {
		return nil, err
	}
	slots, err := c.U8("slots")
	if err != nil {
		return nil, err
	}
	space, err := c.Fixed(dirSpaceSize, "space")
	if err != nil {
		return nil, err
	}

	return &DirectoryBlock{FirstUsed: firstUsed, Slots: slots, space: space}, nil
}

// Entries resolves every populated slot in the block's offset table
// into a directory entry. Each slot holds a "compact offset":
// shifting it left one bit and subtracting the header size yields the
// real byte offset into the space region.
func (b *DirectoryBlock) Entries() ([]DirectoryEntry, error) {
	slots := int(b.Slots)
	if slots > maxDirEntries {
		return nil, errs.Value("directory block lists %d entries, more than the maximum possible %d", slots, maxDirEntries)
	}

	entries := make([]DirectoryEntry, 0, slots)
	for slot := 0; slot < slots; slot++ {
		compact := int(b.space[slot])
		if compact < dirHeaderSize>>1 {
			return nil, errs.Bounds("directory entry offset for slot %d is before the start of the payload area (compact %d)", slot, compact)
		}
		offset := (compact << 1) - dirHeaderSize
		if offset >= dirSpaceSize {
			return nil, errs.Bounds("directory entry offset for slot %d is past the end of the payload area, at %d", slot, offset)
		}

		entry, err := unmarshalDirectoryEntry(b.space[offset:])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func unmarshalDirectoryEntry(buf []byte) (DirectoryEntry, error) {
	c := codec.NewCursor(buf)
	inode, err := c.U32("inode")
	if err != nil {
		return DirectoryEntry{}, err
	}
	nameLen, err := c.U8("d_namelen")
	if err != nil {
		return DirectoryEntry{}, err
	}
	name, err := c.Flex(int(nameLen), "d_name")
	if err != nil {
		return DirectoryEntry{}, err
	}
	return DirectoryEntry{Inode: inode, Name: name}, nil
}
