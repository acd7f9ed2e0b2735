package globmatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchIsCaseSensitive(t *testing.T) {
	m, err := Compile("BOOT*")
	require.NoError(t, err)
	require.True(t, m.Match("BOOTFILE"))
	require.False(t, m.Match("bootfile"))
}

func TestMatchLiteralLeadingDot(t *testing.T) {
	m, err := Compile("*")
	require.NoError(t, err)
	require.True(t, m.Match(".hidden"))
}

func TestCompileRejectsInvalidPattern(t *testing.T) {
	_, err := Compile("[")
	require.Error(t, err)
}
