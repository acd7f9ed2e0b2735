package main

import (
	"fmt"
	"os"

	"github.com/bgrewell/sgidisk-kit/cmd/sgidisk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cmd.ExitCode(err))
	}
}
