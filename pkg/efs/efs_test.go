package efs

import (
	"encoding/binary"
	"testing"

	"github.com/bgrewell/sgidisk-kit/pkg/errs"
	"github.com/stretchr/testify/require"
)

// buildTestImage assembles a minimal, self-consistent EFS partition
// starting at byte 0 of the returned buffer: one cylinder group
// holding a root directory inode (2) with one extent pointing at a
// directory block that names a single regular-file child (inode 3).
func buildTestImage(t *testing.T) []byte {
	t.Helper()
	const imageSize = 4096
	buf := make([]byte, imageSize)

	// Superblock at Basic Block 1 (offset 512).
	sbOff := BlockSize
	binary.BigEndian.PutUint32(buf[sbOff+0:], 20)             // fs_size (sectors)
	binary.BigEndian.PutUint32(buf[sbOff+4:], 2)               // fs_firstcg (BB)
	binary.BigEndian.PutUint32(buf[sbOff+8:], 4)               // fs_cgfsize (BB)
	binary.BigEndian.PutUint16(buf[sbOff+12:], 1)              // fs_cgisize (BB) -> 4 inodes/cg
	binary.BigEndian.PutUint16(buf[sbOff+18:], 1)              // fs_ncg
	binary.BigEndian.PutUint16(buf[sbOff+20:], uint16(DirtyClean))
	binary.BigEndian.PutUint32(buf[sbOff+28:], uint32(MagicNew))

	// Inode 2 (root directory) at cg area offset 256 (1024+256=1280).
	inode2Off := 1280
	binary.BigEndian.PutUint16(buf[inode2Off+0:], typeDirectory|0755) // di_mode
	binary.BigEndian.PutUint32(buf[inode2Off+8:], 512)                // di_size
	binary.BigEndian.PutUint16(buf[inode2Off+28:], 1)                 // di_numextents
	putExtent(buf, inode2Off+32, 5, 1, 0)                             // one extent -> block 5

	// Inode 3 (regular file) at cg area offset 384 (1024+384=1408).
	inode3Off := 1408
	binary.BigEndian.PutUint16(buf[inode3Off+0:], typeRegular|0644)
	binary.BigEndian.PutUint32(buf[inode3Off+8:], 0)
	binary.BigEndian.PutUint16(buf[inode3Off+28:], 0)

	// Directory block at Basic Block 5 (offset 2560), naming inode 3 as "a".
	dirOff := 5 * BlockSize
	buf[dirOff+0] = 0xBE
	buf[dirOff+1] = 0xEF
	buf[dirOff+3] = 1 // slots
	space := buf[dirOff+4:]
	space[0] = 252 // compact offset -> real offset 500
	binary.BigEndian.PutUint32(space[500:], 3) // inode number
	space[504] = 1                              // d_namelen
	space[505] = 'a'                            // d_name

	return buf
}

func openTestEFS(t *testing.T) *EFS {
	t.Helper()
	source := memReaderAt(buildTestImage(t))
	fs, err := Open(source, 512, 0)
	require.NoError(t, err)
	return fs
}

func TestOpenDerivesGeometry(t *testing.T) {
	fs := openTestEFS(t)
	require.Equal(t, uint64(20*512), fs.Size)
	require.Equal(t, uint64(2), fs.CGStart)
	require.Equal(t, uint64(4), fs.CGSize)
	require.Equal(t, uint64(4), fs.CGInodes)
	require.Equal(t, uint64(1), fs.CGCount)
}

func TestCheckReadAbsoluteBounds(t *testing.T) {
	fs := openTestEFS(t)
	require.NoError(t, fs.CheckReadAbsolute(0, 512))
	require.Error(t, fs.CheckReadAbsolute(fs.Size, 1))
	require.True(t, errs.IsKind(fs.CheckReadAbsolute(fs.Size, 1), errs.KindBounds))
}

func TestInodeStartArithmetic(t *testing.T) {
	fs := openTestEFS(t)
	off, err := fs.InodeStart(2)
	require.NoError(t, err)
	require.Equal(t, uint64(1280), off)

	off, err = fs.InodeStart(3)
	require.NoError(t, err)
	require.Equal(t, uint64(1408), off)
}

func TestReadInodeRoot(t *testing.T) {
	fs := openTestEFS(t)
	n, err := fs.ReadInode(2)
	require.NoError(t, err)
	require.Equal(t, TypeDirectory, n.Type)
	require.Len(t, n.Extents, 1)
	require.Equal(t, uint32(5), n.Extents[0].BlockNumber)
}

func TestReadDirectoryListsChild(t *testing.T) {
	fs := openTestEFS(t)
	dir, err := fs.ReadDirectory(RootInode)
	require.NoError(t, err)
	require.Contains(t, dir.Entries, "a")
	require.Equal(t, uint64(3), dir.Entries["a"].InodeNumber)
	require.Equal(t, TypeRegularFile, dir.Entries["a"].Inode.Type)
}

func TestReadDirectoryRejectsNonDirectory(t *testing.T) {
	fs := openTestEFS(t)
	_, err := fs.ReadDirectory(3)
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindValue))
}

func TestResolvePathFindsFile(t *testing.T) {
	fs := openTestEFS(t)
	inodeNumber, inode, err := fs.ResolvePath("/a")
	require.NoError(t, err)
	require.Equal(t, uint64(3), inodeNumber)
	require.Equal(t, TypeRegularFile, inode.Type)
}

func TestResolvePathRoot(t *testing.T) {
	fs := openTestEFS(t)
	inodeNumber, inode, err := fs.ResolvePath("/")
	require.NoError(t, err)
	require.Equal(t, uint64(RootInode), inodeNumber)
	require.Equal(t, TypeDirectory, inode.Type)
}

func TestResolvePathMissingSegment(t *testing.T) {
	fs := openTestEFS(t)
	_, _, err := fs.ResolvePath("/missing")
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindValue))
}

func TestResolvePathThroughNonDirectory(t *testing.T) {
	fs := openTestEFS(t)
	_, _, err := fs.ResolvePath("/a/child")
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindValue))
}
