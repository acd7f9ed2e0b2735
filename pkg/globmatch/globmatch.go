// Package globmatch wraps github.com/gobwas/glob for matching volume-
// directory file names against a caller-supplied pattern, the way
// pkg/vproj compiles ignore patterns for project file trees.
package globmatch

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Matcher matches names case-sensitively, with '/' as the only
// separator a '*' will not cross (volume-directory file names never
// contain '/', so this only matters for multi-segment patterns passed
// through verbatim).
type Matcher struct {
	g glob.Glob
}

// Compile compiles pattern into a Matcher.
func Compile(pattern string) (*Matcher, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("compiling glob pattern %q: %w", pattern, err)
	}
	return &Matcher{g: g}, nil
}

// Match reports whether name satisfies the compiled pattern.
func (m *Matcher) Match(name string) bool {
	return m.g.Match(name)
}
