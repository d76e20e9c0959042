package commands

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runVersion(t *testing.T, info BuildInfo, args ...string) string {
	t.Helper()
	cmd := NewVersionCommand(info)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestVersionCommand(t *testing.T) {
	out := runVersion(t, BuildInfo{Version: "1.2.3", Commit: "abc1234", Date: "2026-01-02"})

	assert.Contains(t, out, "leapxmla 1.2.3\n")
	assert.Contains(t, out, "commit:  abc1234")
	assert.Contains(t, out, "built:   2026-01-02")
	assert.Contains(t, out, runtime.Version())
}

func TestVersionCommand_Short(t *testing.T) {
	assert.Equal(t, "dev\n", runVersion(t, BuildInfo{Version: "dev"}, "--short"))
}

func TestVersionCommand_RejectsArgs(t *testing.T) {
	cmd := NewVersionCommand(BuildInfo{})
	cmd.SetArgs([]string{"extra"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
