// Package volhdr decodes the SGI Volume Header: the 512-byte record at
// sector 0 of every IRIX disk, naming the root and swap partitions, up
// to 15 named files (boot blocks, bad-sector tables, the error summary
// table), and the 16-entry partition table.
package volhdr

import (
	"github.com/bgrewell/sgidisk-kit/pkg/codec"
	"github.com/bgrewell/sgidisk-kit/pkg/errs"
)

// Size is the on-disk length of a Volume Header in bytes.
const Size = 512

var magic = []byte{0x0B, 0xE5, 0xA9, 0x41}

const (
	bootFileNameSize  = 16
	volumeDirEntries  = 15
	volumeDirNameSize = 8
	partitionEntries  = 16
)

// PartitionType is the closed set of uses a PartitionEntry can declare.
type PartitionType int32

const (
	// PartitionVolumeHeader marks the partition holding this volume header.
	PartitionVolumeHeader PartitionType = 0
	PartitionUnsupported1 PartitionType = 1
	PartitionUnsupported2 PartitionType = 2
	// PartitionRaw marks a partition used for raw data.
	PartitionRaw PartitionType = 3
	PartitionUnsupported4 PartitionType = 4
	PartitionUnsupported5 PartitionType = 5
	// PartitionEntireVolume marks a partition spanning the whole image.
	PartitionEntireVolume PartitionType = 6
	// PartitionEfs marks an SGI EFS partition.
	PartitionEfs PartitionType = 7
	// PartitionLogicalVolume marks a partition that is part of a logical volume.
	PartitionLogicalVolume PartitionType = 8
	// PartitionRawLogicalVolume marks a partition that is part of a raw logical volume.
	PartitionRawLogicalVolume PartitionType = 9
	// PartitionXfs marks an SGI XFS partition.
	PartitionXfs PartitionType = 10
	// PartitionXfsLog marks an SGI XFS log partition.
	PartitionXfsLog PartitionType = 11
	// PartitionXlv marks a partition that is part of an XLV volume.
	PartitionXlv PartitionType = 12
	// PartitionXvm marks an SGI XVM partition.
	PartitionXvm PartitionType = 13
	// PartitionVxvm marks an SGI VxVM partition.
	PartitionVxvm PartitionType = 14
)

// String renders the partition type the way the CLI prints it.
func (t PartitionType) String() string {
	switch t {
	case PartitionVolumeHeader:
		return "VolumeHeader"
	case PartitionUnsupported1:
		return "Unsupported1"
	case PartitionUnsupported2:
		return "Unsupported2"
	case PartitionRaw:
		return "Raw"
	case PartitionUnsupported4:
		return "Unsupported4"
	case PartitionUnsupported5:
		return "Unsupported5"
	case PartitionEntireVolume:
		return "EntireVolume"
	case PartitionEfs:
		return "Efs"
	case PartitionLogicalVolume:
		return "LogicalVolume"
	case PartitionRawLogicalVolume:
		return "RawLogicalVolume"
	case PartitionXfs:
		return "Xfs"
	case PartitionXfsLog:
		return "XfsLog"
	case PartitionXlv:
		return "Xlv"
	case PartitionXvm:
		return "Xvm"
	case PartitionVxvm:
		return "Vxvm"
	default:
		return "Unknown"
	}
}

// DeviceParameters carries the physical-device mapping fields and the
// backwards-compatibility-only fields that ride alongside them.
type DeviceParameters struct {
	// Cylinders is backwards-compatibility only; programs should not rely on it.
	Cylinders uint16 `json:"cylinders"`
	// Heads is backwards-compatibility only.
	Heads uint16 `json:"heads"`
	// CTQDepth is the depth of the Command Tag Queueing queue.
	CTQDepth uint8 `json:"ctq_depth"`
	// Sectors is backwards-compatibility only.
	Sectors uint16 `json:"sectors"`
	// SectorBytes is the length of a sector in bytes.
	SectorBytes uint16 `json:"sector_bytes"`
	// Flags are disk-driver flags; bit 0x1 marks CTQ enabled.
	Flags int32 `json:"flags"`
	// DriveCapacity is the drive capacity in blocks, often zero on older drives.
	DriveCapacity uint32 `json:"drive_capacity"`
}

const ctqEnabledFlag = 0x1

// CTQEnabled reports whether Command Tag Queueing is enabled.
func (dp DeviceParameters) CTQEnabled() bool {
	return dp.Flags&ctqEnabledFlag == ctqEnabledFlag
}

// VolumeDirectoryFile is one of up to 15 named files in the volume
// directory: boot blocks, bad-sector tables, the error summary table.
type VolumeDirectoryFile struct {
	// Name is absent when the stored name field is all zero bytes.
	Name string `json:"name"`
	// HasName reports whether Name is meaningful.
	HasName bool `json:"has_name"`
	// BlockStart is the file's starting logical block. A stored -1
	// (an older-EFS quirk) is normalized to 0.
	BlockStart uint32 `json:"block_start"`
	// ByteSize is the file length in bytes.
	ByteSize uint32 `json:"byte_size"`
}

// InUse reports whether this slot names a file.
func (f VolumeDirectoryFile) InUse() bool { return f.HasName }

// PartitionEntry is one of the 16 fixed partition-table slots.
type PartitionEntry struct {
	// Type names the partition's use.
	Type PartitionType `json:"type"`
	// BlockCount is the number of logical blocks in the partition. Zero
	// marks the slot unused.
	BlockCount uint32 `json:"block_count"`
	// BlockStart is the first logical block of the partition. Should be
	// cylinder-aligned but this is never enforced.
	BlockStart uint32 `json:"block_start"`
}

// InUse reports whether this partition slot is populated.
func (p PartitionEntry) InUse() bool { return p.BlockCount > 0 }

// VolumeHeader is the decoded sector-0 record.
type VolumeHeader struct {
	// RootPartition is the index of the root partition in Partitions.
	RootPartition uint16 `json:"root_partition"`
	// SwapPartition is the index of the swap partition in Partitions.
	SwapPartition uint16 `json:"swap_partition"`
	// BootFile is the name of the file to boot, absent when unset.
	BootFile   string `json:"boot_file"`
	HasBootFile bool  `json:"has_boot_file"`
	// DeviceParameters describes the physical device this header sits on.
	DeviceParameters DeviceParameters `json:"device_parameters"`
	// Files holds the 15 volume-directory slots, in on-disk order.
	Files [volumeDirEntries]VolumeDirectoryFile `json:"files"`
	// Partitions holds the 16 partition-table slots, in on-disk order.
	Partitions [partitionEntries]PartitionEntry `json:"partitions"`
	// Checksum is the stored 2's-complement checksum. It is reported,
	// never enforced: a correctly computed checksum of the whole record
	// sums to zero, but no decode path verifies this.
	Checksum int32 `json:"checksum"`
}

// SectorSize returns the sector size in bytes, as recorded in the
// device parameters.
func (vh *VolumeHeader) SectorSize() int {
	return int(vh.DeviceParameters.SectorBytes)
}

// InUsePartitions returns the partition table filtered to populated slots.
func (vh *VolumeHeader) InUsePartitions() []PartitionEntry {
	out := make([]PartitionEntry, 0, partitionEntries)
	for _, p := range vh.Partitions {
		if p.InUse() {
			out = append(out, p)
		}
	}
	return out
}

// InUseFiles returns the volume-directory slots filtered to named entries.
func (vh *VolumeHeader) InUseFiles() []VolumeDirectoryFile {
	out := make([]VolumeDirectoryFile, 0, volumeDirEntries)
	for _, f := range vh.Files {
		if f.InUse() {
			out = append(out, f)
		}
	}
	return out
}

// Unmarshal decodes a 512-byte sector-0 record into vh.
func Unmarshal(data []byte) (*VolumeHeader, error) {
	if len(data) != Size {
		return nil, errs.Codec("volume header record must be exactly %d bytes, got %d", Size, len(data))
	}

	c := codec.NewCursor(data)
	if err := c.Magic(magic, "vh_magic"); err != nil {
		return nil, err
	}

	rootRaw, err := c.I16("vh_rootpt")
	if err != nil {
		return nil, err
	}
	root, err := codec.NarrowU16(rootRaw, "vh_rootpt")
	if err != nil {
		return nil, err
	}

	swapRaw, err := c.I16("vh_swappt")
	if err != nil {
		return nil, err
	}
	swap, err := codec.NarrowU16(swapRaw, "vh_swappt")
	if err != nil {
		return nil, err
	}

	bootRaw, err := c.Fixed(bootFileNameSize, "vh_bootfile")
	if err != nil {
		return nil, err
	}
	bootFile, hasBootFile := codec.TrimmedASCII(bootRaw)

	dp, err := unmarshalDeviceParameters(c)
	if err != nil {
		return nil, err
	}

	var files [volumeDirEntries]VolumeDirectoryFile
	for i := range files {
		f, err := unmarshalVolumeDirectoryFile(c)
		if err != nil {
			return nil, err
		}
		files[i] = f
	}

	var partitions [partitionEntries]PartitionEntry
	for i := range partitions {
		p, err := unmarshalPartitionEntry(c)
		if err != nil {
			return nil, err
		}
		partitions[i] = p
	}

	checksum, err := c.I32("vh_csum")
	if err != nil {
		return nil, err
	}
	if err := c.Skip(4, "vh_reserved"); err != nil {
		return nil, err
	}

	return &VolumeHeader{
		RootPartition:    root,
		SwapPartition:    swap,
		BootFile:         bootFile,
		HasBootFile:      hasBootFile,
		DeviceParameters: dp,
		Files:            files,
		Partitions:       partitions,
		Checksum:         checksum,
	}, nil
}

func unmarshalDeviceParameters(c *codec.Cursor) (DeviceParameters, error) {
	if err := c.Skip(4, "dp_reserved0"); err != nil {
		return DeviceParameters{}, err
	}
	cylinders, err := c.U16("dp_cylinders")
	if err != nil {
		return DeviceParameters{}, err
	}
	if err := c.Skip(2, "dp_reserved1"); err != nil {
		return DeviceParameters{}, err
	}
	heads, err := c.U16("dp_heads")
	if err != nil {
		return DeviceParameters{}, err
	}
	ctqDepth, err := c.U8("dp_ctq_depth")
	if err != nil {
		return DeviceParameters{}, err
	}
	if err := c.Skip(3, "dp_reserved2"); err != nil {
		return DeviceParameters{}, err
	}
	sectors, err := c.U16("dp_sect")
	if err != nil {
		return DeviceParameters{}, err
	}
	secBytes, err := c.U16("dp_secbytes")
	if err != nil {
		return DeviceParameters{}, err
	}
	if err := c.Skip(2, "dp_reserved3"); err != nil {
		return DeviceParameters{}, err
	}
	flags, err := c.I32("dp_flags")
	if err != nil {
		return DeviceParameters{}, err
	}
	if err := c.Skip(20, "dp_reserved4"); err != nil {
		return DeviceParameters{}, err
	}
	driveCap, err := c.U32("dp_drivecap")
	if err != nil {
		return DeviceParameters{}, err
	}

	return DeviceParameters{
		Cylinders:     cylinders,
		Heads:         heads,
		CTQDepth:      ctqDepth,
		Sectors:       sectors,
		SectorBytes:   secBytes,
		Flags:         flags,
		DriveCapacity: driveCap,
	}, nil
}

func unmarshalVolumeDirectoryFile(c *codec.Cursor) (VolumeDirectoryFile, error) {
	nameRaw, err := c.Fixed(volumeDirNameSize, "vd_name")
	if err != nil {
		return VolumeDirectoryFile{}, err
	}
	name, hasName := codec.TrimmedASCII(nameRaw)

	lbn, err := c.I32("vd_lbn")
	if err != nil {
		return VolumeDirectoryFile{}, err
	}
	var blockStart uint32
	if lbn == -1 {
		blockStart = 0
	} else {
		blockStart, err = codec.NarrowU32(lbn, "vd_lbn")
		if err != nil {
			return VolumeDirectoryFile{}, err
		}
	}

	nbytes, err := c.I32("vd_nbytes")
	if err != nil {
		return VolumeDirectoryFile{}, err
	}
	byteSize, err := codec.NarrowU32(nbytes, "vd_nbytes")
	if err != nil {
		return VolumeDirectoryFile{}, err
	}

	return VolumeDirectoryFile{
		Name:       name,
		HasName:    hasName,
		BlockStart: blockStart,
		ByteSize:   byteSize,
	}, nil
}

func unmarshalPartitionEntry(c *codec.Cursor) (PartitionEntry, error) {
	nblks, err := c.U32("pt_nblks")
	if err != nil {
		return PartitionEntry{}, err
	}
	firstLbn, err := c.U32("pt_firstlbn")
	if err != nil {
		return PartitionEntry{}, err
	}
	typeRaw, err := c.I32("pt_type")
	if err != nil {
		return PartitionEntry{}, err
	}
	if typeRaw < int32(PartitionVolumeHeader) || typeRaw > int32(PartitionVxvm) {
		return PartitionEntry{}, errs.Codec("pt_type: unknown partition type tag %d", typeRaw)
	}

	return PartitionEntry{
		Type:       PartitionType(typeRaw),
		BlockCount: nblks,
		BlockStart: firstLbn,
	}, nil
}
