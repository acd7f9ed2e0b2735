package cmd

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bgrewell/sgidisk-kit"
	"github.com/bgrewell/sgidisk-kit/pkg/efs"
	"github.com/bgrewell/sgidisk-kit/pkg/hashing"
	"github.com/spf13/cobra"
	"github.com/theckman/yacspin"
	"golang.org/x/term"
)

func DefineHashCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <image>",
		Short: "Hash the whole image, each partition, and each volume-header file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(args[0])
		},
	}
	return cmd
}

type hashTarget struct {
	Name   string `json:"name"`
	Offset int64  `json:"offset"`
	Length int64  `json:"length"`
}

type hashResult struct {
	Name    string `json:"name"`
	SHA256  string `json:"sha256"`
	BLAKE3  string `json:"blake3"`
	ErrText string `json:"error,omitempty"`
}

func runHash(path string) error {
	img, err := sgidisk.Open(path, sgidisk.WithLogger(activeLogger))
	if err != nil {
		return wrapOpenError(err)
	}
	defer img.Close()

	st, err := os.Stat(path)
	if err != nil {
		return wrapOpenError(err)
	}

	vh := img.VolumeHeader()

	// Partition and volume-directory-file block numbers are always in
	// fixed 512-byte Basic Blocks, not the device's reported sector size.
	targets := []hashTarget{{Name: "image", Offset: 0, Length: st.Size()}}
	for i, p := range vh.Partitions {
		if !p.InUse() {
			continue
		}
		targets = append(targets, hashTarget{
			Name:   fmt.Sprintf("partition[%d:%s]", i, p.Type),
			Offset: int64(p.BlockStart) * efs.BlockSize,
			Length: int64(p.BlockCount) * efs.BlockSize,
		})
	}
	for _, f := range vh.InUseFiles() {
		targets = append(targets, hashTarget{
			Name:   fmt.Sprintf("file[%s]", f.Name),
			Offset: int64(f.BlockStart) * efs.BlockSize,
			Length: int64(f.ByteSize),
		})
	}

	spinner := startHashSpinner(len(targets))

	source, err := os.Open(path)
	if err != nil {
		return wrapOpenError(err)
	}
	defer source.Close()

	results := make([]hashResult, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t hashTarget) {
			defer wg.Done()
			digest, err := hashing.Range(source, t.Offset, t.Length)
			r := hashResult{Name: t.Name}
			if err != nil {
				r.ErrText = err.Error()
			} else {
				r.SHA256 = digest.SHA256
				r.BLAKE3 = digest.BLAKE3
			}
			results[i] = r
		}(i, t)
	}
	wg.Wait()

	stopHashSpinner(spinner)

	rows := make([][]string, len(results))
	for i, r := range results {
		if r.ErrText != "" {
			rows[i] = []string{r.Name, "-", "-", r.ErrText}
		} else {
			rows[i] = []string{r.Name, r.SHA256, r.BLAKE3, ""}
		}
	}
	return printTable([]string{"target", "sha256", "blake3", "error"}, rows, results)
}

func startHashSpinner(targetCount int) *yacspin.Spinner {
	if flagJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}
	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          fmt.Sprintf(" hashing %d target(s)", targetCount),
		SuffixAutoColon: true,
	}
	s, err := yacspin.New(cfg)
	if err != nil {
		return nil
	}
	_ = s.Start()
	return s
}

func stopHashSpinner(s *yacspin.Spinner) {
	if s == nil {
		return
	}
	_ = s.Stop()
}
