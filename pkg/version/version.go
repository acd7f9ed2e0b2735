// Package version holds build-time stamped version metadata, wired
// into rootCmd.Version so `sgidisk --version` prints it.
package version

// These are overridden at build time, e.g.:
//   -ldflags "-X github.com/bgrewell/sgidisk-kit/pkg/version.version=1.2.3"
var (
	version  = "dev"
	branch   = "unknown"
	date     = "unknown"
	revision = "unknown"
)

func Version() string  { return version }
func Branch() string   { return branch }
func Date() string     { return date }
func Revision() string { return revision }
