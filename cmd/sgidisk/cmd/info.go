package cmd

import (
	"fmt"

	"github.com/bgrewell/sgidisk-kit"
	"github.com/bgrewell/sgidisk-kit/pkg/efs"
	"github.com/spf13/cobra"
)

func DefineInfoCommand() *cobra.Command {
	var efsPartition int
	var showEfs bool

	cmd := &cobra.Command{
		Use:   "info <image>",
		Short: "Print the volume header (and, with --efs, EFS superblock geometry)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args[0], showEfs, efsPartition)
		},
	}

	cmd.Flags().BoolVar(&showEfs, "efs", false, "also open and summarize an EFS partition")
	cmd.Flags().IntVar(&efsPartition, "partition", -1, "partition index to open as EFS (used with --efs)")

	return cmd
}

func runInfo(path string, showEfs bool, partitionIndex int) error {
	logVerbose("opening %s", path)
	img, err := sgidisk.Open(path, sgidisk.WithLogger(activeLogger))
	if err != nil {
		return wrapOpenError(err)
	}
	defer img.Close()

	vh := img.VolumeHeader()

	type fileRow struct {
		Name  string `json:"name"`
		Start uint32 `json:"block_start"`
		Bytes uint32 `json:"byte_size"`
	}
	type partitionRow struct {
		Index int    `json:"index"`
		Type  string `json:"type"`
		Start uint32 `json:"block_start"`
		Count uint32 `json:"block_count"`
	}
	summary := struct {
		SectorSize    int            `json:"sector_size"`
		RootPartition uint16         `json:"root_partition"`
		SwapPartition uint16         `json:"swap_partition"`
		CTQEnabled    bool           `json:"ctq_enabled"`
		CTQDepth      uint8          `json:"ctq_depth"`
		BootFile      string         `json:"boot_file"`
		Checksum      int32          `json:"checksum"`
		Files         []fileRow      `json:"files"`
		Partitions    []partitionRow `json:"partitions"`
	}{
		SectorSize:    vh.SectorSize(),
		RootPartition: vh.RootPartition,
		SwapPartition: vh.SwapPartition,
		CTQEnabled:    vh.DeviceParameters.CTQEnabled(),
		CTQDepth:      vh.DeviceParameters.CTQDepth,
		BootFile:      vh.BootFile,
		Checksum:      vh.Checksum,
	}

	for _, f := range vh.InUseFiles() {
		summary.Files = append(summary.Files, fileRow{Name: f.Name, Start: f.BlockStart, Bytes: f.ByteSize})
	}
	for i, p := range vh.Partitions {
		if !p.InUse() {
			continue
		}
		summary.Partitions = append(summary.Partitions, partitionRow{Index: i, Type: p.Type.String(), Start: p.BlockStart, Count: p.BlockCount})
	}

	rows := [][]string{
		{"sector_size", fmt.Sprintf("%d", summary.SectorSize)},
		{"root_partition", fmt.Sprintf("%d", summary.RootPartition)},
		{"swap_partition", fmt.Sprintf("%d", summary.SwapPartition)},
		{"ctq_enabled", fmt.Sprintf("%t", summary.CTQEnabled)},
		{"ctq_depth", fmt.Sprintf("%d", summary.CTQDepth)},
		{"boot_file", summary.BootFile},
		{"checksum", fmt.Sprintf("%d", summary.Checksum)},
	}
	for _, p := range summary.Partitions {
		rows = append(rows, []string{fmt.Sprintf("partition[%d]", p.Index), fmt.Sprintf("%s start=%d count=%d", p.Type, p.Start, p.Count)})
	}
	for _, f := range summary.Files {
		rows = append(rows, []string{fmt.Sprintf("file[%s]", f.Name), fmt.Sprintf("start=%d bytes=%d", f.Start, f.Bytes)})
	}

	if err := printTable([]string{"field", "value"}, rows, summary); err != nil {
		return err
	}

	if showEfs {
		if partitionIndex < 0 {
			partitionIndex = int(vh.RootPartition)
		}
		fs, err := img.OpenEFS(partitionIndex, efs.WithLogger(activeLogger))
		if err != nil {
			return wrapOpenError(err)
		}
		fmt.Printf("\nEFS partition %d: size=%d bytes, cylinder_groups=%d, inodes_per_group=%d\n",
			partitionIndex, fs.Size, fs.CGCount, fs.CGInodes)
	}

	return nil
}
