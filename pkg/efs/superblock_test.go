package efs

import (
	"encoding/binary"
	"testing"

	"github.com/bgrewell/sgidisk-kit/pkg/errs"
	"github.com/stretchr/testify/require"
)

func buildSuperblockBuf(fixups func(buf []byte)) []byte {
	buf := make([]byte, superblockSize)
	binary.BigEndian.PutUint32(buf[0:], 1000)             // fs_size
	binary.BigEndian.PutUint32(buf[4:], 1)                // fs_firstcg
	binary.BigEndian.PutUint32(buf[8:], 100)               // fs_cgfsize
	binary.BigEndian.PutUint16(buf[12:], 3)                // fs_cgisize
	binary.BigEndian.PutUint16(buf[14:], 32)               // fs_sectors
	binary.BigEndian.PutUint16(buf[16:], 4)                // fs_heads
	binary.BigEndian.PutUint16(buf[18:], 10)               // fs_ncg
	binary.BigEndian.PutUint16(buf[20:], uint16(DirtyClean))
	binary.BigEndian.PutUint32(buf[28:], uint32(MagicNew))
	if fixups != nil {
		fixups(buf)
	}
	return buf
}

func TestUnmarshalSuperblockValidGeometry(t *testing.T) {
	buf := buildSuperblockBuf(nil)
	sb, err := unmarshalSuperblock(buf)
	require.NoError(t, err)
	require.Equal(t, DirtyClean, sb.Dirty)
	require.Equal(t, MagicNew, sb.Magic)

	size, cgStart, cgSize, cgInodes, cgCount, err := deriveGeometry(sb, 512)
	require.NoError(t, err)
	require.Equal(t, uint64(1000*512), size)
	require.Equal(t, uint64(1), cgStart)
	require.Equal(t, uint64(100), cgSize)
	require.Equal(t, uint64(12), cgInodes) // 3 BBs * 512 / 128-byte inodes
	require.Equal(t, uint64(10), cgCount)
}

func TestUnmarshalSuperblockNegativeCGInodeSize(t *testing.T) {
	buf := buildSuperblockBuf(func(buf []byte) {
		binary.BigEndian.PutUint16(buf[12:], 0xFFFF) // fs_cgisize = -1
	})
	sb, err := unmarshalSuperblock(buf)
	require.NoError(t, err)

	_, _, _, _, _, err = deriveGeometry(sb, 512)
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindValue))
}

func TestUnmarshalSuperblockUnknownDirty(t *testing.T) {
	buf := buildSuperblockBuf(func(buf []byte) {
		binary.BigEndian.PutUint16(buf[20:], 0x4242)
	})
	_, err := unmarshalSuperblock(buf)
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindCodec))
}

func TestUnmarshalSuperblockUnknownMagic(t *testing.T) {
	buf := buildSuperblockBuf(func(buf []byte) {
		binary.BigEndian.PutUint32(buf[28:], 0xDEADBEEF)
	})
	_, err := unmarshalSuperblock(buf)
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindCodec))
}

func TestUnmarshalSuperblockWrongLength(t *testing.T) {
	_, err := unmarshalSuperblock(make([]byte, superblockSize-1))
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindCodec))
}
