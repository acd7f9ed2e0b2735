package sgidisk

import (
	"encoding/binary"
	"testing"

	"github.com/bgrewell/sgidisk-kit/pkg/efs"
	"github.com/stretchr/testify/require"
)

type memReaderAt []byte

func (m memReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, m[off:])
	return n, nil
}

const (
	testDirectoryMode = 0o040000
	testRegularMode   = 0o100000
)

// buildImage assembles a full disk image: a volume header whose
// device-reported sector size is 1024 bytes (deliberately not 512,
// the fixed Basic Block size), a volume-directory file living at
// Basic Block 1, and an EFS partition at Basic Block 4 holding a root
// directory (inode 2) naming one regular file (inode 3, "a").
func buildImage(t *testing.T) []byte {
	t.Helper()
	const imageSize = 8192
	buf := make([]byte, imageSize)

	copy(buf[0:4], []byte{0x0B, 0xE5, 0xA9, 0x41})
	binary.BigEndian.PutUint16(buf[4:], 7) // vh_rootpt -> partition 7
	// Device parameters start at offset 24; dp_secbytes at +16 = 40.
	binary.BigEndian.PutUint16(buf[40:], 1024)

	// Volume directory starts at offset 24+48=72, 16 bytes each.
	fileOff := 72
	copy(buf[fileOff:], []byte("README"))
	binary.BigEndian.PutUint32(buf[fileOff+8:], 1)  // vd_lbn: Basic Block 1
	binary.BigEndian.PutUint32(buf[fileOff+12:], 5) // vd_nbytes
	copy(buf[efs.BlockSize*1:], []byte("HELLO"))

	// Partition table starts at 72+15*16=312, 12 bytes each; slot 7 at 312+7*12=396.
	partOff := 312 + 7*12
	binary.BigEndian.PutUint32(buf[partOff:], 10)  // pt_nblks
	binary.BigEndian.PutUint32(buf[partOff+4:], 4) // pt_firstlbn: Basic Block 4
	binary.BigEndian.PutUint32(buf[partOff+8:], 7) // pt_type: Efs

	partitionStart := 4 * efs.BlockSize

	// EFS superblock at partitionStart + BlockSize.
	sbOff := partitionStart + efs.BlockSize
	binary.BigEndian.PutUint32(buf[sbOff+0:], 8)  // fs_size (sectors, at the volume's 1024-byte sector size)
	binary.BigEndian.PutUint32(buf[sbOff+4:], 2)  // fs_firstcg (BB)
	binary.BigEndian.PutUint32(buf[sbOff+8:], 4)  // fs_cgfsize (BB)
	binary.BigEndian.PutUint16(buf[sbOff+12:], 1) // fs_cgisize (BB) -> 4 inodes/cg
	binary.BigEndian.PutUint16(buf[sbOff+18:], 1) // fs_ncg
	binary.BigEndian.PutUint16(buf[sbOff+20:], 0) // fs_dirty = clean
	binary.BigEndian.PutUint32(buf[sbOff+28:], 0x0007295a) // fs_magic = new

	// Inode 2 (root directory) at cg area offset 256.
	inode2Off := partitionStart + 1024 + 256
	binary.BigEndian.PutUint16(buf[inode2Off+0:], testDirectoryMode|0755)
	binary.BigEndian.PutUint32(buf[inode2Off+8:], 512)
	binary.BigEndian.PutUint16(buf[inode2Off+28:], 1)
	putExtent(buf, inode2Off+32, 5, 1, 0) // one extent -> block 5 (relative to partition)

	// Inode 3 (regular file) at cg area offset 384.
	inode3Off := partitionStart + 1024 + 384
	binary.BigEndian.PutUint16(buf[inode3Off+0:], testRegularMode|0644)

	// Directory block at partition-relative Basic Block 5.
	dirOff := partitionStart + 5*efs.BlockSize
	buf[dirOff+0] = 0xBE
	buf[dirOff+1] = 0xEF
	buf[dirOff+3] = 1 // slots
	space := buf[dirOff+4:]
	space[0] = 252 // compact offset -> real offset 500
	binary.BigEndian.PutUint32(space[500:], 3)
	space[504] = 1
	space[505] = 'a'

	return buf
}

func putExtent(buf []byte, at int, blockNumber uint32, length uint8, logicalOffset uint32) {
	buf[at] = 0x00
	buf[at+1] = byte(blockNumber >> 16)
	buf[at+2] = byte(blockNumber >> 8)
	buf[at+3] = byte(blockNumber)
	buf[at+4] = length
	buf[at+5] = byte(logicalOffset >> 16)
	buf[at+6] = byte(logicalOffset >> 8)
	buf[at+7] = byte(logicalOffset)
}

// TestOpenEFSUsesFixedBlockSizeNotDeviceSectorSize guards against
// computing a partition's byte offset from the volume header's
// device sector size (1024 here) instead of the fixed 512-byte Basic
// Block size partition table entries are always expressed in.
func TestOpenEFSUsesFixedBlockSizeNotDeviceSectorSize(t *testing.T) {
	source := memReaderAt(buildImage(t))
	img, err := OpenReader(source)
	require.NoError(t, err)
	require.Equal(t, 1024, img.VolumeHeader().SectorSize())

	fs, err := img.OpenEFS(7)
	require.NoError(t, err)
	require.Equal(t, uint64(4*efs.BlockSize), fs.PartitionStart)
	require.Equal(t, uint64(1024), fs.SectorSize)
	// fs_size (8 sectors) * the volume's 1024-byte sector size.
	require.Equal(t, uint64(8*1024), fs.Size)

	dir, err := fs.ReadDirectory(efs.RootInode)
	require.NoError(t, err)
	require.Contains(t, dir.Entries, "a")
}

// TestReadFileRangeUsesFixedBlockSize guards against the same bug in
// the volume-directory file path: the file's block start is in Basic
// Blocks, not device sectors.
func TestReadFileRangeUsesFixedBlockSize(t *testing.T) {
	source := memReaderAt(buildImage(t))
	img, err := OpenReader(source)
	require.NoError(t, err)

	files := img.VolumeHeader().InUseFiles()
	require.Len(t, files, 1)

	data, err := img.ReadFileRange(files[0])
	require.NoError(t, err)
	require.Equal(t, "HELLO", string(data))
}
