// Package efs decodes the Extent File System: its superblock geometry,
// inodes, extents, and directory blocks, and resolves inode numbers to
// the byte offsets that hold them.
package efs

import (
	"github.com/bgrewell/sgidisk-kit/pkg/codec"
	"github.com/bgrewell/sgidisk-kit/pkg/errs"
)

// BlockSize is the canonical EFS "Basic Block" size in bytes. Every
// geometry field is expressed as a count of basic blocks.
const BlockSize = 512

// superblockSize is the on-disk length of the superblock record.
const superblockSize = 92

// inodeSize is the on-disk length of one EFS inode record.
const inodeSize = 128

// SuperblockDirty is the closed set of values fs_dirty may carry.
type SuperblockDirty int16

const (
	// DirtyClean means unmounted and clean.
	DirtyClean SuperblockDirty = 0x0000
	// DirtyActiveDirty means a dirty root filesystem was mounted anyway.
	DirtyActiveDirty SuperblockDirty = 0x0BAD
	// DirtyActive means mounted and clean.
	DirtyActive SuperblockDirty = 0x7777
	// DirtyDirty is an explicit known-dirty marker.
	DirtyDirty SuperblockDirty = 0x1234
)

// SuperblockMagic is the closed set of values fs_magic may carry.
type SuperblockMagic int32

const (
	// MagicOld marks a pre-IRIX-3.3-compatible filesystem.
	MagicOld SuperblockMagic = 0x00072959
	// MagicNew marks an IRIX-3.3-and-later filesystem.
	MagicNew SuperblockMagic = 0x0007295a
)

// Superblock is the decoded EFS superblock, found at Basic Block 1 of
// the partition (Basic Block 0 is reserved for a bootstrap program).
type Superblock struct {
	// SizeSectors is the filesystem size in sectors.
	SizeSectors int32
	// FirstCG is the Basic Block offset to the first cylinder group.
	FirstCG int32
	// CGSize is the size of a cylinder group in Basic Blocks.
	CGSize int32
	// CGInodeSize is the Basic Blocks of inodes per cylinder group.
	CGInodeSize int16
	SectorsPerTrack int16
	HeadsPerCylinder int16
	// CGCount is the number of cylinder groups in the filesystem.
	CGCount int16
	Dirty   SuperblockDirty
	Time    int32
	Magic   SuperblockMagic
	FSName  string
	FSPack  string
	BitmapSize   int32
	TotalFree    int32
	TotalFreeInodes int32
	BitmapBlock  int32
	ReplicatedSB int32
	LastIAlloc   int32
	Checksum     int32
}

// unmarshalSuperblock decodes a 92-byte superblock record.
func unmarshalSuperblock(data []byte) (*Superblock, error) {
	if len(data) != superblockSize {
		return nil, errs.Codec("superblock record must be exactly %d bytes, got %d", superblockSize, len(data))
	}
	c := codec.NewCursor(data)

	size, err := c.I32("fs_size")
	if err != nil {
		return nil, err
	}
	firstCG, err := c.I32("fs_firstcg")
	if err != nil {
		return nil, err
	}
	cgSize, err := c.I32("fs_cgfsize")
	if err != nil {
		return nil, err
	}
	cgInodeSize, err := c.I16("fs_cgisize")
	if err != nil {
		return nil, err
	}
	sectorsPerTrack, err := c.I16("fs_sectors")
	if err != nil {
		return nil, err
	}
	headsPerCylinder, err := c.I16("fs_heads")
	if err != nil {
		return nil, err
	}
	cgCount, err := c.I16("fs_ncg")
	if err != nil {
		return nil, err
	}
	dirtyRaw, err := c.I16("fs_dirty")
	if err != nil {
		return nil, err
	}
	dirty, err := decodeDirty(dirtyRaw)
	if err != nil {
		return nil, err
	}
	if err := c.Skip(2, "fs_reserved0"); err != nil {
		return nil, err
	}
	fsTime, err := c.I32("fs_time")
	if err != nil {
		return nil, err
	}
	magicRaw, err := c.I32("fs_magic")
	if err != nil {
		return nil, err
	}
	magic, err := decodeMagic(magicRaw)
	if err != nil {
		return nil, err
	}
	fnameRaw, err := c.Fixed(6, "fs_fname")
	if err != nil {
		return nil, err
	}
	fpackRaw, err := c.Fixed(6, "fs_fpack")
	if err != nil {
		return nil, err
	}
	bmsize, err := c.I32("fs_bmsize")
	if err != nil {
		return nil, err
	}
	tfree, err := c.I32("fs_tfree")
	if err != nil {
		return nil, err
	}
	tinode, err := c.I32("fs_tinode")
	if err != nil {
		return nil, err
	}
	bmblock, err := c.I32("fs_bmblock")
	if err != nil {
		return nil, err
	}
	replsb, err := c.I32("fs_replsb")
	if err != nil {
		return nil, err
	}
	lastialloc, err := c.I32("fs_lastialloc")
	if err != nil {
		return nil, err
	}
	if err := c.Skip(20, "fs_spare"); err != nil {
		return nil, err
	}
	checksum, err := c.I32("fs_checksum")
	if err != nil {
		return nil, err
	}

	fname, _ := codec.TrimmedASCII(fnameRaw)
	fpack, _ := codec.TrimmedASCII(fpackRaw)

	return &Superblock{
		SizeSectors:      size,
		FirstCG:          firstCG,
		CGSize:           cgSize,
		CGInodeSize:      cgInodeSize,
		SectorsPerTrack:  sectorsPerTrack,
		HeadsPerCylinder: headsPerCylinder,
		CGCount:          cgCount,
		Dirty:            dirty,
		Time:             fsTime,
		Magic:            magic,
		FSName:           fname,
		FSPack:           fpack,
		BitmapSize:       bmsize,
		TotalFree:        tfree,
		TotalFreeInodes:  tinode,
		BitmapBlock:      bmblock,
		ReplicatedSB:     replsb,
		LastIAlloc:       lastialloc,
		Checksum:         checksum,
	}, nil
}

func decodeDirty(v int16) (SuperblockDirty, error) {
	switch SuperblockDirty(v) {
	case DirtyClean, DirtyActiveDirty, DirtyActive, DirtyDirty:
		return SuperblockDirty(v), nil
	default:
		return 0, errs.Codec("fs_dirty: unknown tag %#x", uint16(v))
	}
}

func decodeMagic(v int32) (SuperblockMagic, error) {
	switch SuperblockMagic(v) {
	case MagicOld, MagicNew:
		return SuperblockMagic(v), nil
	default:
		return 0, errs.Codec("fs_magic: unknown tag %#x", uint32(v))
	}
}

// deriveGeometry converts a decoded Superblock plus the volume's sector
// size into the instance geometry an EFS needs for inode/block lookups.
func deriveGeometry(sb *Superblock, sectorSize uint64) (sizeBytes, cgStart, cgSize, cgInodes, cgCount uint64, err error) {
	if sb.SizeSectors < 0 {
		return 0, 0, 0, 0, 0, errs.Value("fs_size: negative filesystem size %d", sb.SizeSectors)
	}
	sizeBytes = uint64(sb.SizeSectors) * sectorSize

	if sb.FirstCG < 0 {
		return 0, 0, 0, 0, 0, errs.Value("fs_firstcg: negative cylinder group start %d", sb.FirstCG)
	}
	cgStart = uint64(sb.FirstCG)

	if sb.CGSize < 0 {
		return 0, 0, 0, 0, 0, errs.Value("fs_cgfsize: negative cylinder group size %d", sb.CGSize)
	}
	cgSize = uint64(sb.CGSize)

	cgInodeAreaBytes := int64(sb.CGInodeSize) * int64(BlockSize)
	if cgInodeAreaBytes < 0 || cgInodeAreaBytes%int64(inodeSize) != 0 {
		return 0, 0, 0, 0, 0, errs.Value("fs_cgisize: cylinder group inode area (%d bytes) is not a non-negative multiple of inode size %d", cgInodeAreaBytes, inodeSize)
	}
	cgInodes = uint64(cgInodeAreaBytes) / uint64(inodeSize)

	if sb.CGCount < 0 {
		return 0, 0, 0, 0, 0, errs.Value("fs_ncg: negative cylinder group count %d", sb.CGCount)
	}
	cgCount = uint64(sb.CGCount)

	return sizeBytes, cgStart, cgSize, cgInodes, cgCount, nil
}
