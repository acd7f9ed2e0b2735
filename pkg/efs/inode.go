package efs

import (
	"io"
	"sort"
	"time"

	"github.com/bgrewell/sgidisk-kit/pkg/errs"
)

// Inode is the normalized, in-memory view of an EFS inode: its type,
// permissions, ownership, size, timestamps, and the extent list that
// covers its content contiguously from logical offset zero.
type Inode struct {
	Type       InodeType
	Mode       uint16 // permission bits only, type nibble masked off
	UID        uint16
	GID        uint16
	Size       uint64
	ATime      time.Time
	MTime      time.Time
	CTime      time.Time
	NumExtents int
	Extents    []Extent
}

// Blocks returns a lazy, forward-only iterator over the absolute
// physical Basic Block numbers backing this inode's content, in
// logical order.
func (n *Inode) Blocks() *BlockIterator {
	return &BlockIterator{inode: n}
}

// BlockIterator walks an Inode's normalized extents one block at a
// time. It holds no reference to the byte source; it only produces
// block numbers.
type BlockIterator struct {
	inode        *Inode
	extentIndex  int
	blockInExtent int
}

// Next returns the next absolute Basic Block number, or ok=false once
// every extent has been consumed.
func (it *BlockIterator) Next() (blockNumber uint64, ok bool) {
	if it.extentIndex >= len(it.inode.Extents) {
		return 0, false
	}
	ext := it.inode.Extents[it.extentIndex]
	block := uint64(ext.BlockNumber) + uint64(it.blockInExtent)

	it.blockInExtent++
	if it.blockInExtent >= int(ext.Length) {
		it.extentIndex++
		it.blockInExtent = 0
	}

	return block, true
}

// newInode converts a decoded raw inode record into its normalized
// façade, without yet expanding indirect extents (that requires a byte
// source and is done by the owning EFS in ReadInode).
func newInode(raw *rawInode) (*Inode, error) {
	inodeType, err := decodeInodeType(raw.mode)
	if err != nil {
		return nil, err
	}

	if raw.size < 0 {
		return nil, errs.Value("di_size: negative size %d", raw.size)
	}

	if raw.numExtents < 0 {
		return nil, errs.Value("di_numextents: negative count %d", raw.numExtents)
	}
	numExtents := int(raw.numExtents)
	if numExtents > maxExtents {
		return nil, errs.Value("di_numextents: %d exceeds maximum of %d", numExtents, maxExtents)
	}

	extentAreaSize := numExtents * extentSize
	if extentAreaSize > extentDataAreaSize {
		extentAreaSize = extentDataAreaSize
	}
	direct, err := parseExtents(raw.data[:extentAreaSize])
	if err != nil {
		return nil, err
	}
	direct = filterZeroLength(direct)

	return &Inode{
		Type:       inodeType,
		Mode:       raw.mode & modeMask,
		UID:        raw.uid,
		GID:        raw.gid,
		Size:       uint64(raw.size),
		ATime:      time.Unix(int64(raw.atime), 0),
		MTime:      time.Unix(int64(raw.mtime), 0),
		CTime:      time.Unix(int64(raw.ctime), 0),
		NumExtents: numExtents,
		Extents:    direct,
	}, nil
}

func filterZeroLength(extents []Extent) []Extent {
	out := extents[:0]
	for _, e := range extents {
		if e.Length > 0 {
			out = append(out, e)
		}
	}
	return out
}

// normalizeExtents expands indirect extents (when NumExtents exceeds
// the number that fit directly in the inode), sorts the result
// ascending by logical offset, and checks that the extents cover the
// file contiguously from offset zero.
func (n *Inode) normalizeExtents(source io.ReaderAt, fs *EFS) error {
	if err := n.expandExtents(source, fs); err != nil {
		return err
	}
	n.sortExtents()
	return n.checkExtents()
}

// expandExtents replaces the direct extent table with the indirect
// extents it describes, when NumExtents is larger than the direct
// table can hold. Each direct entry is then treated as a run of blocks
// packed with further extent records.
func (n *Inode) expandExtents(source io.ReaderAt, fs *EFS) error {
	if n.NumExtents <= directExtents {
		return nil
	}

	expanded := make([]Extent, 0, n.NumExtents)
	remaining := n.NumExtents

	for _, direct := range n.Extents {
		from := fs.blockAbsolute(uint64(direct.BlockNumber))
		size := uint64(direct.Length) * BlockSize
		if err := fs.checkReadAbsolute(from, size); err != nil {
			return err
		}

		for block := 0; block < int(direct.Length); block++ {
			readSize := BlockSize
			if want := remaining * extentSize; want < readSize {
				readSize = want
			}
			buf := make([]byte, readSize)
			if _, err := io.ReadFull(io.NewSectionReader(source, int64(from)+int64(block)*BlockSize, int64(readSize)), buf); err != nil {
				return errs.Io(err, "reading indirect extent block %d of inode extent at block %d", block, direct.BlockNumber)
			}
			blockExtents, err := parseExtents(buf)
			if err != nil {
				return err
			}
			remaining -= len(blockExtents)
			expanded = append(expanded, blockExtents...)
		}
	}

	n.Extents = expanded
	return nil
}

func (n *Inode) sortExtents() {
	sort.Slice(n.Extents, func(i, j int) bool {
		return n.Extents[i].LogicalOffset < n.Extents[j].LogicalOffset
	})
}

// checkExtents verifies that each extent's logical offset equals the
// sum of all prior extents' lengths, i.e. the file is covered
// contiguously starting from logical block zero.
func (n *Inode) checkExtents() error {
	var offset uint64
	for _, e := range n.Extents {
		if offset != uint64(e.LogicalOffset) {
			return errs.Value("extent at logical offset %d does not continue from prior coverage ending at %d", e.LogicalOffset, offset)
		}
		offset += uint64(e.Length)
	}
	return nil
}
