package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bgrewell/sgidisk-kit"
	"github.com/bgrewell/sgidisk-kit/pkg/globmatch"
	"github.com/spf13/cobra"
)

func DefineCpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cp <image> <dest> <pattern>",
		Short: "Copy volume-directory files matching pattern into dest",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCp(args[0], args[1], args[2])
		},
	}
	return cmd
}

func runCp(path, dest, pattern string) error {
	matcher, err := globmatch.Compile(pattern)
	if err != nil {
		return err
	}

	img, err := sgidisk.Open(path, sgidisk.WithLogger(activeLogger))
	if err != nil {
		return wrapOpenError(err)
	}
	defer img.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	copied := 0
	for _, f := range img.VolumeHeader().InUseFiles() {
		if !matcher.Match(f.Name) {
			continue
		}
		data, err := img.ReadFileRange(f)
		if err != nil {
			return err
		}
		out := filepath.Join(dest, f.Name)
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		logVerbose("copied %s (%d bytes) -> %s", f.Name, len(data), out)
		copied++
	}

	if copied == 0 {
		warnf("no volume directory files matched %q", pattern)
	} else {
		fmt.Printf("copied %d file(s) to %s\n", copied, dest)
	}
	return nil
}
