package efs

import (
	"github.com/bgrewell/sgidisk-kit/pkg/codec"
	"github.com/bgrewell/sgidisk-kit/pkg/errs"
)

// extentDataAreaSize is the size of the union area holding either
// direct/indirect extents or device data.
const extentDataAreaSize = 96

// directExtents is the number of extents directly mappable from an
// inode (and so also the number of possible indirect block-run
// descriptors, since those live in the same direct extent table).
const directExtents = 12

// maxExtents bounds di_numextents: it is a signed 16-bit count on disk.
const maxExtents = 32767

const (
	modeMask uint16 = 0o7777
	typeMask uint16 = 0o170000

	typeFifo        uint16 = 0o010000
	typeCharSpecial uint16 = 0o020000
	typeCharSpecialLink uint16 = 0o030000
	typeDirectory   uint16 = 0o040000
	typeBlockSpecial uint16 = 0o060000
	typeBlockSpecialLink uint16 = 0o070000
	typeRegular     uint16 = 0o100000
	typeSymlink     uint16 = 0o120000
	typeSocket      uint16 = 0o140000
)

// InodeType is the closed set of inode formats an EFS inode can take.
type InodeType int

const (
	TypeFifo InodeType = iota
	TypeCharacterSpecial
	TypeCharacterSpecialLink
	TypeDirectory
	TypeBlockSpecial
	TypeBlockSpecialLink
	TypeRegularFile
	TypeSymbolicLink
	TypeSocket
)

func (t InodeType) String() string {
	switch t {
	case TypeFifo:
		return "Fifo"
	case TypeCharacterSpecial:
		return "CharacterSpecial"
	case TypeCharacterSpecialLink:
		return "CharacterSpecialLink"
	case TypeDirectory:
		return "Directory"
	case TypeBlockSpecial:
		return "BlockSpecial"
	case TypeBlockSpecialLink:
		return "BlockSpecialLink"
	case TypeRegularFile:
		return "RegularFile"
	case TypeSymbolicLink:
		return "SymbolicLink"
	case TypeSocket:
		return "Socket"
	default:
		return "Unknown"
	}
}

// decodeInodeType extracts and validates the type nibble (high 4 bits
// of mode) against the closed set of known EFS inode formats.
func decodeInodeType(mode uint16) (InodeType, error) {
	switch mode & typeMask {
	case typeFifo:
		return TypeFifo, nil
	case typeCharSpecial:
		return TypeCharacterSpecial, nil
	case typeCharSpecialLink:
		return TypeCharacterSpecialLink, nil
	case typeDirectory:
		return TypeDirectory, nil
	case typeBlockSpecial:
		return TypeBlockSpecial, nil
	case typeBlockSpecialLink:
		return TypeBlockSpecialLink, nil
	case typeRegular:
		return TypeRegularFile, nil
	case typeSymlink:
		return TypeSymbolicLink, nil
	case typeSocket:
		return TypeSocket, nil
	default:
		return 0, errs.Value("di_mode: unknown inode type tag %#o", mode&typeMask)
	}
}

// rawInode is the as-decoded 128-byte on-disk inode record, before
// type/extent normalization.
type rawInode struct {
	mode        uint16
	nlink       int16
	uid         uint16
	gid         uint16
	size        int32
	atime       int32
	mtime       int32
	ctime       int32
	gen         uint32
	numExtents  int16
	version     uint8
	spare       uint8
	data        []byte
}

// unmarshalRawInode decodes a 128-byte inode record.
func unmarshalRawInode(buf []byte) (*rawInode, error) {
	if len(buf) != inodeSize {
		return nil, errs.Codec("inode record must be exactly %d bytes, got %d", inodeSize, len(buf))
	}
	c := codec.NewCursor(buf)

	mode, err := c.U16("di_mode")
	if err != nil {
		return nil, err
	}
	nlink, err := c.I16("di_nlink")
	if err != nil {
		return nil, err
	}
	uid, err := c.U16("di_uid")
	if err != nil {
		return nil, err
	}
	gid, err := c.U16("di_gid")
	if err != nil {
		return nil, err
	}
	size, err := c.I32("di_size")
	if err != nil {
		return nil, err
	}
	atime, err := c.I32("di_atime")
	if err != nil {
		return nil, err
	}
	mtime, err := c.I32("di_mtime")
	if err != nil {
		return nil, err
	}
	ctime, err := c.I32("di_ctime")
	if err != nil {
		return nil, err
	}
	gen, err := c.U32("di_gen")
	if err != nil {
		return nil, err
	}
	numExtents, err := c.I16("di_numextents")
	if err != nil {
		return nil, err
	}
	version, err := c.U8("di_version")
	if err != nil {
		return nil, err
	}
	spare, err := c.U8("di_spare")
	if err != nil {
		return nil, err
	}
	data, err := c.Fixed(extentDataAreaSize, "data")
	if err != nil {
		return nil, err
	}

	return &rawInode{
		mode:       mode,
		nlink:      nlink,
		uid:        uid,
		gid:        gid,
		size:       size,
		atime:      atime,
		mtime:      mtime,
		ctime:      ctime,
		gen:        gen,
		numExtents: numExtents,
		version:    version,
		spare:      spare,
		data:       data,
	}, nil
}
