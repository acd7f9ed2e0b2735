package cmd

import (
	"fmt"
	"strconv"

	"github.com/bgrewell/sgidisk-kit"
	"github.com/bgrewell/sgidisk-kit/pkg/efs"
	"github.com/spf13/cobra"
)

func DefineEfsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "efs",
		Short: "Inspect an EFS partition's directory tree",
	}
	cmd.AddCommand(defineEfsLsCommand())
	cmd.AddCommand(defineEfsStatCommand())
	return cmd
}

func defineEfsLsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <image> <partition> <path>",
		Short: "List a directory's entries",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEfsLs(args[0], args[1], args[2])
		},
	}
}

func defineEfsStatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <image> <partition> <path>",
		Short: "Print one inode's fields",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEfsStat(args[0], args[1], args[2])
		},
	}
}

func openPartitionEFS(imagePath, partitionArg string) (*sgidisk.Image, *efs.EFS, error) {
	partitionIndex, err := strconv.Atoi(partitionArg)
	if err != nil {
		return nil, nil, fmt.Errorf("partition must be an integer index: %w", err)
	}

	img, err := sgidisk.Open(imagePath, sgidisk.WithLogger(activeLogger))
	if err != nil {
		return nil, nil, wrapOpenError(err)
	}

	fs, err := img.OpenEFS(partitionIndex, efs.WithLogger(activeLogger))
	if err != nil {
		img.Close()
		return nil, nil, wrapOpenError(err)
	}
	return img, fs, nil
}

func runEfsLs(imagePath, partitionArg, path string) error {
	img, fs, err := openPartitionEFS(imagePath, partitionArg)
	if err != nil {
		return err
	}
	defer img.Close()

	inodeNumber, inode, err := fs.ResolvePath(path)
	if err != nil {
		return err
	}
	if inode.Type != efs.TypeDirectory {
		return fmt.Errorf("%s is not a directory (is %s)", path, inode.Type)
	}

	dir, err := fs.ReadDirectory(inodeNumber)
	if err != nil {
		return err
	}

	type entryRow struct {
		Name  string `json:"name"`
		Inode uint64 `json:"inode"`
		Type  string `json:"type"`
		Size  int64  `json:"size"`
	}
	var entries []entryRow
	for name, child := range dir.Entries {
		entries = append(entries, entryRow{Name: name, Inode: child.InodeNumber, Type: child.Inode.Type.String(), Size: int64(child.Inode.Size)})
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Name, fmt.Sprintf("%d", e.Inode), e.Type, fmt.Sprintf("%d", e.Size)}
	}
	return printTable([]string{"name", "inode", "type", "size"}, rows, entries)
}

func runEfsStat(imagePath, partitionArg, path string) error {
	img, fs, err := openPartitionEFS(imagePath, partitionArg)
	if err != nil {
		return err
	}
	defer img.Close()

	inodeNumber, inode, err := fs.ResolvePath(path)
	if err != nil {
		return err
	}

	rows := [][]string{
		{"inode", fmt.Sprintf("%d", inodeNumber)},
		{"type", inode.Type.String()},
		{"mode", fmt.Sprintf("%#o", inode.Mode)},
		{"uid", fmt.Sprintf("%d", inode.UID)},
		{"gid", fmt.Sprintf("%d", inode.GID)},
		{"size", fmt.Sprintf("%d", inode.Size)},
		{"atime", inode.ATime.String()},
		{"mtime", inode.MTime.String()},
		{"ctime", inode.CTime.String()},
		{"num_extents", fmt.Sprintf("%d", inode.NumExtents)},
	}
	return printTable([]string{"field", "value"}, rows, inode)
}
