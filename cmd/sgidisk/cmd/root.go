// Package cmd wires the sgidisk subcommand tree: info, cp, hash, efs.
package cmd

import (
	"errors"
	"fmt"

	"github.com/bgrewell/sgidisk-kit/pkg/config"
	"github.com/bgrewell/sgidisk-kit/pkg/errs"
	"github.com/bgrewell/sgidisk-kit/pkg/logging"
	"github.com/bgrewell/sgidisk-kit/pkg/version"
	"github.com/spf13/cobra"
)

const AppName = "sgidisk"

var (
	flagJSON    bool
	flagVerbose bool
	flagConfig  string

	// activeLogger is built from flagVerbose in rootCmd's
	// PersistentPreRunE, once flags are parsed; subcommands attach it
	// to sgidisk.Open/Image.OpenEFS via sgidisk.WithLogger.
	activeLogger = logging.DefaultLogger()
)

// Execute runs the root command.
func Execute() error {
	rootCmd := &cobra.Command{
		Use:          AppName,
		Short:        AppName + " - SGI disk image inspection",
		Version:      fmt.Sprintf("%s (%s, built %s, rev %s)", version.Version(), version.Branch(), version.Date(), version.Revision()),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			defaults := config.Load(flagConfig)
			if !cmd.Flags().Changed("json") && defaults.OutputFormat == "json" {
				flagJSON = true
			}
			if !cmd.Flags().Changed("verbose") && defaults.Verbose {
				flagVerbose = true
			}
			activeLogger = logging.VerboseLogger(flagVerbose)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "render output as JSON instead of a table")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log each operation as it happens")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a config file (default ~/.sgidisk.yaml)")

	rootCmd.AddCommand(DefineInfoCommand())
	rootCmd.AddCommand(DefineCpCommand())
	rootCmd.AddCommand(DefineHashCommand())
	rootCmd.AddCommand(DefineEfsCommand())

	return rootCmd.Execute()
}

// openError marks a failure that happened while opening the volume
// header or an EFS partition, as opposed to a plain CLI usage error.
type openError struct{ cause error }

func (e *openError) Error() string { return e.cause.Error() }
func (e *openError) Unwrap() error { return e.cause }

func wrapOpenError(err error) error {
	if err == nil {
		return nil
	}
	return &openError{cause: err}
}

// ExitCode maps an error returned from Execute to the process exit
// status: 1 for a plain CLI error, 2 for a volume-header or EFS open
// failure, 3 for an I/O failure underneath either.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errs.IsKind(err, errs.KindIo) {
		return 3
	}
	var oe *openError
	if errors.As(err, &oe) {
		return 2
	}
	return 1
}
