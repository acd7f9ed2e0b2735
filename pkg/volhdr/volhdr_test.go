package volhdr

import (
	"encoding/binary"
	"testing"

	"github.com/bgrewell/sgidisk-kit/pkg/errs"
	"github.com/stretchr/testify/require"
)

// buildHeader assembles a syntactically valid 512-byte volume header,
// letting the caller poke specific fields via fixups.
func buildHeader(t *testing.T, fixups func(buf []byte)) []byte {
	t.Helper()
	buf := make([]byte, Size)
	copy(buf[0:4], magic)

	// vh_rootpt, vh_swappt default to 0; vh_bootfile all zero.
	off := 4 + 2 + 2 + bootFileNameSize

	// Device parameters: 48 bytes total (4 pad + 2 + 2 pad + 2 + 1 + 3 pad + 2 + 2 + 2 pad + 4 + 20 + 4).
	off += 48

	// 15 volume directory entries of 16 bytes each, 16 partition entries of 12 bytes each.
	off += volumeDirEntries * 16
	off += partitionEntries * 12

	// Checksum + 4 reserved bytes bring total to 512; off should equal Size-8.
	require.Equal(t, Size-8, off)

	if fixups != nil {
		fixups(buf)
	}
	return buf
}

func putPartition(buf []byte, slot int, ptype PartitionType, blockStart, blockCount uint32) {
	base := 4 + 2 + 2 + bootFileNameSize + 48 + volumeDirEntries*16 + slot*12
	binary.BigEndian.PutUint32(buf[base:], blockCount)
	binary.BigEndian.PutUint32(buf[base+4:], blockStart)
	binary.BigEndian.PutUint32(buf[base+8:], uint32(ptype))
}

func TestUnmarshalValidHeader(t *testing.T) {
	buf := buildHeader(t, func(buf []byte) {
		binary.BigEndian.PutUint16(buf[4:], 2) // vh_rootpt
		binary.BigEndian.PutUint16(buf[6:], 1) // vh_swappt
		putPartition(buf, 7, PartitionEfs, 8192, 409600)
	})

	vh, err := Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, uint16(2), vh.RootPartition)
	require.Equal(t, uint16(1), vh.SwapPartition)
	require.False(t, vh.HasBootFile)
	require.Equal(t, PartitionEfs, vh.Partitions[7].Type)
	require.Equal(t, uint32(8192), vh.Partitions[7].BlockStart)
	require.Equal(t, uint32(409600), vh.Partitions[7].BlockCount)
	require.True(t, vh.Partitions[7].InUse())

	inUse := vh.InUsePartitions()
	require.Len(t, inUse, 1)
	require.Equal(t, PartitionEfs, inUse[0].Type)
}

func TestUnmarshalBadMagic(t *testing.T) {
	buf := make([]byte, Size)
	_, err := Unmarshal(buf)
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindCodec))
}

func TestUnmarshalWrongLength(t *testing.T) {
	_, err := Unmarshal(make([]byte, Size-1))
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindCodec))
}

func TestUnmarshalNegativeRootPartition(t *testing.T) {
	buf := buildHeader(t, func(buf []byte) {
		binary.BigEndian.PutUint16(buf[4:], 0xFFFF) // -1 as i16
	})
	_, err := Unmarshal(buf)
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindValue))
}

func TestUnmarshalOldEfsNegativeVolumeDirectoryOffset(t *testing.T) {
	buf := buildHeader(t, func(buf []byte) {
		base := 4 + 2 + 2 + bootFileNameSize + 48
		binary.BigEndian.PutUint32(buf[base+8:], 0xFFFFFFFF) // vd_lbn = -1
		binary.BigEndian.PutUint32(buf[base+12:], 1024)      // vd_nbytes
	})
	vh, err := Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(0), vh.Files[0].BlockStart)
	require.Equal(t, uint32(1024), vh.Files[0].ByteSize)
}

func TestUnmarshalUnknownPartitionType(t *testing.T) {
	buf := buildHeader(t, func(buf []byte) {
		putPartition(buf, 0, PartitionType(99), 0, 1)
	})
	_, err := Unmarshal(buf)
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindCodec))
}
