package efs

import (
	"testing"

	"github.com/bgrewell/sgidisk-kit/pkg/errs"
	"github.com/stretchr/testify/require"
)

func TestDecodeInodeType(t *testing.T) {
	cases := []struct {
		mode uint16
		want InodeType
	}{
		{typeFifo | 0644, TypeFifo},
		{typeCharSpecial | 0644, TypeCharacterSpecial},
		{typeCharSpecialLink | 0644, TypeCharacterSpecialLink},
		{typeDirectory | 0755, TypeDirectory},
		{typeBlockSpecial | 0644, TypeBlockSpecial},
		{typeBlockSpecialLink | 0644, TypeBlockSpecialLink},
		{typeRegular | 0644, TypeRegularFile},
		{typeSymlink | 0777, TypeSymbolicLink},
		{typeSocket | 0644, TypeSocket},
	}
	for _, c := range cases {
		got, err := decodeInodeType(c.mode)
		require.NoError(t, err)
		require.Equal(t, c.want, got)
	}
}

func TestDecodeInodeTypeUnknown(t *testing.T) {
	_, err := decodeInodeType(0o150000 | 0644)
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindValue))
}

func TestParseExtentsRejectsUnalignedBuffer(t *testing.T) {
	_, err := parseExtents(make([]byte, 7))
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindValue))
}

func TestUnmarshalExtentRejectsNonZeroReservedByte(t *testing.T) {
	buf := []byte{0x01, 0x00, 0x00, 0x01, 0x02, 0x00, 0x00, 0x00}
	_, err := parseExtents(buf)
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindCodec))
}

func TestUnmarshalRawInodeWrongLength(t *testing.T) {
	_, err := unmarshalRawInode(make([]byte, inodeSize-1))
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindCodec))
}
