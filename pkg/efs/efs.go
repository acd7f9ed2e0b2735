package efs

import (
	"io"

	"github.com/bgrewell/sgidisk-kit/pkg/errs"
	"github.com/bgrewell/sgidisk-kit/pkg/logging"
)

// RootInode is the well-known inode number of an EFS partition's root
// directory.
const RootInode = 2

// EFS is an Extent File System instance bound to a partition window
// within a byte source. It never retains a cursor of its own: every
// read is issued as an absolute-offset ReadAt, so independent EFS
// values over the same source may be used concurrently.
type EFS struct {
	source         io.ReaderAt
	log            *logging.Logger
	SectorSize     uint64
	PartitionStart uint64
	Size           uint64 // filesystem size in bytes
	CGStart        uint64 // in Basic Blocks
	CGSize         uint64 // in Basic Blocks
	CGInodes       uint64
	CGCount        uint64
}

// Option configures Open.
type Option func(*EFS)

// WithLogger attaches a logger to the EFS instance.
func WithLogger(l *logging.Logger) Option {
	return func(e *EFS) { e.log = l }
}

// Open reads the EFS superblock at the start of the given partition
// window and derives the filesystem's geometry.
func Open(source io.ReaderAt, sectorSize, partitionStart uint64, opts ...Option) (*EFS, error) {
	buf := make([]byte, superblockSize)
	// Basic Block 0 is reserved for a bootstrap program; the
	// superblock lives at Basic Block 1.
	if _, err := source.ReadAt(buf, int64(partitionStart)+BlockSize); err != nil {
		return nil, errs.Io(err, "reading EFS superblock at partition offset %d", partitionStart)
	}

	sb, err := unmarshalSuperblock(buf)
	if err != nil {
		return nil, err
	}

	sizeBytes, cgStart, cgSize, cgInodes, cgCount, err := deriveGeometry(sb, sectorSize)
	if err != nil {
		return nil, err
	}

	e := &EFS{
		source:         source,
		log:            logging.DefaultLogger(),
		SectorSize:     sectorSize,
		PartitionStart: partitionStart,
		Size:           sizeBytes,
		CGStart:        cgStart,
		CGSize:         cgSize,
		CGInodes:       cgInodes,
		CGCount:        cgCount,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log.Debug("opened EFS partition", "start", partitionStart, "size", sizeBytes, "cylinder_groups", cgCount)
	return e, nil
}

// checkReadAbsolute fails Bounds if [start, start+length) is not
// entirely within this filesystem's partition window.
func (e *EFS) checkReadAbsolute(start, length uint64) error {
	if start < e.PartitionStart {
		return errs.Bounds("read at %d starts before the beginning of the filesystem (%d)", start, e.PartitionStart)
	}
	if start+length > e.PartitionStart+e.Size {
		return errs.Bounds("read at %d for %d bytes goes past the end of the filesystem", start, length)
	}
	return nil
}

// CheckReadAbsolute is the exported form of checkReadAbsolute, for
// callers (e.g. the CLI) that want to validate a read before issuing it.
func (e *EFS) CheckReadAbsolute(start, length uint64) error {
	return e.checkReadAbsolute(start, length)
}

// checkReadBlock fails Bounds if the length bytes starting at Basic
// Block startBlock fall outside the partition window.
func (e *EFS) checkReadBlock(startBlock, length uint64) error {
	start := e.PartitionStart + startBlock*BlockSize
	return e.checkReadAbsolute(start, length)
}

// CheckReadBlock is the exported form of checkReadBlock.
func (e *EFS) CheckReadBlock(startBlock, length uint64) error {
	return e.checkReadBlock(startBlock, length)
}

// blockAbsolute converts a Basic Block number into an absolute byte
// offset within the source.
func (e *EFS) blockAbsolute(block uint64) uint64 {
	return e.PartitionStart + block*BlockSize
}

// cgStartRel returns the byte offset of cylinder group cg, relative
// to the start of the partition, or an error if cg is out of range.
func (e *EFS) cgStartRel(cg uint64) (uint64, error) {
	if cg >= e.CGCount {
		return 0, errs.Bounds("cylinder group %d is past the end of the filesystem (%d groups)", cg, e.CGCount)
	}
	rel := (e.CGStart + cg*e.CGSize) * BlockSize
	if rel > e.Size {
		return 0, errs.Bounds("cylinder group %d starts past the end of the filesystem", cg)
	}
	return rel, nil
}

// inodeStart returns the absolute byte offset of inode number inode.
func (e *EFS) inodeStart(inode uint64) (uint64, error) {
	cg := inode / e.CGInodes
	cgStart, err := e.cgStartRel(cg)
	if err != nil {
		return 0, errs.Bounds("inode %d has invalid offset: %v", inode, err)
	}
	inodeOff := (inode % e.CGInodes) * inodeSize
	return e.PartitionStart + cgStart + inodeOff, nil
}

// InodeStart is the exported form of inodeStart.
func (e *EFS) InodeStart(inode uint64) (uint64, error) {
	return e.inodeStart(inode)
}

// ReadInode reads and normalizes the inode numbered inode.
func (e *EFS) ReadInode(inode uint64) (*Inode, error) {
	offset, err := e.inodeStart(inode)
	if err != nil {
		return nil, err
	}
	if err := e.checkReadAbsolute(offset, inodeSize); err != nil {
		return nil, err
	}

	buf := make([]byte, inodeSize)
	if _, err := e.source.ReadAt(buf, int64(offset)); err != nil {
		return nil, errs.Io(err, "reading inode %d at offset %d", inode, offset)
	}

	raw, err := unmarshalRawInode(buf)
	if err != nil {
		return nil, err
	}
	result, err := newInode(raw)
	if err != nil {
		return nil, err
	}
	if err := result.normalizeExtents(e.source, e); err != nil {
		return nil, err
	}
	return result, nil
}

// ReadBlock reads one Basic Block of raw bytes at the given block
// number, bounds-checked against the partition window.
func (e *EFS) ReadBlock(block uint64) ([]byte, error) {
	if err := e.checkReadBlock(block, BlockSize); err != nil {
		return nil, err
	}
	buf := make([]byte, BlockSize)
	offset := e.blockAbsolute(block)
	if _, err := e.source.ReadAt(buf, int64(offset)); err != nil {
		return nil, errs.Io(err, "reading block %d at offset %d", block, offset)
	}
	return buf, nil
}
