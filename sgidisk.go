// Package sgidisk provides read-only inspection of SGI disk images: the
// volume header at sector 0, and the EFS partitions it references.
package sgidisk

import (
	"fmt"
	"io"
	"os"

	"github.com/bgrewell/sgidisk-kit/pkg/efs"
	"github.com/bgrewell/sgidisk-kit/pkg/errs"
	"github.com/bgrewell/sgidisk-kit/pkg/logging"
	"github.com/bgrewell/sgidisk-kit/pkg/volhdr"
)

// Options configures Open.
type Options struct {
	logger *logging.Logger
}

// Option configures an Image via Open.
type Option func(*Options)

// WithLogger attaches a logger used for diagnostics while opening and
// inspecting the image.
func WithLogger(logger *logging.Logger) Option {
	return func(o *Options) { o.logger = logger }
}

// Image is an opened SGI disk image: its volume header, plus lazy
// access to the EFS partitions it names.
type Image struct {
	source io.ReaderAt
	closer io.Closer
	log    *logging.Logger
	header *volhdr.VolumeHeader
}

// Open reads the volume header from the file at path.
func Open(path string, opts ...Option) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	img, err := OpenReader(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	img.closer = f
	return img, nil
}

// OpenReader reads the volume header from an already-open byte source.
// The caller retains ownership of source; Close is a no-op unless the
// source was supplied via Open.
func OpenReader(source io.ReaderAt, opts ...Option) (*Image, error) {
	options := Options{logger: logging.DefaultLogger()}
	for _, opt := range opts {
		opt(&options)
	}

	buf := make([]byte, volhdr.Size)
	if _, err := source.ReadAt(buf, 0); err != nil {
		return nil, errs.Io(err, "reading volume header")
	}

	header, err := volhdr.Unmarshal(buf)
	if err != nil {
		return nil, fmt.Errorf("parsing volume header: %w", err)
	}

	options.logger.Debug("opened volume header", "root_partition", header.RootPartition, "swap_partition", header.SwapPartition)

	return &Image{source: source, log: options.logger, header: header}, nil
}

// Close releases the underlying file, if Open opened one.
func (img *Image) Close() error {
	if img.closer != nil {
		return img.closer.Close()
	}
	return nil
}

// VolumeHeader returns the decoded volume header.
func (img *Image) VolumeHeader() *volhdr.VolumeHeader {
	return img.header
}

// OpenEFS opens the EFS filesystem inside the partition at the given
// index (0-15). The partition must be populated and is not required
// to carry the Efs tag, since callers may want to inspect a partition
// whose tag disagrees with its contents.
func (img *Image) OpenEFS(partitionIndex int, opts ...efs.Option) (*efs.EFS, error) {
	if partitionIndex < 0 || partitionIndex >= len(img.header.Partitions) {
		return nil, fmt.Errorf("partition index %d out of range", partitionIndex)
	}
	p := img.header.Partitions[partitionIndex]
	if !p.InUse() {
		return nil, fmt.Errorf("partition %d is unused", partitionIndex)
	}

	// Partition table entries are in Basic Blocks (always 512 bytes),
	// not device sectors; sectorSize only feeds the EFS superblock's
	// own fs_size*sector_sz geometry derivation below.
	sectorSize := uint64(img.header.SectorSize())
	if sectorSize == 0 {
		sectorSize = volhdr.Size
	}
	partitionStart := uint64(p.BlockStart) * efs.BlockSize

	return efs.Open(img.source, sectorSize, partitionStart, opts...)
}

// ReadFileRange reads the byte range backing a volume-directory file.
func (img *Image) ReadFileRange(file volhdr.VolumeDirectoryFile) ([]byte, error) {
	offset := int64(file.BlockStart) * efs.BlockSize
	buf := make([]byte, file.ByteSize)
	if _, err := img.source.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("reading volume directory file %q: %w", file.Name, err)
	}
	return buf, nil
}
