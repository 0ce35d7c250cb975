package syncer

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_Success(t *testing.T) {
	requireShell(t)
	var stdout bytes.Buffer

	res, err := ExecRunner{Stdout: &stdout}.Run(context.Background(), "sh", "-c", "echo synced")

	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "synced\n", stdout.String())
	assert.Equal(t, "synced\n", res.Stdout)
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	requireShell(t)
	var stderr bytes.Buffer

	res, err := ExecRunner{Stderr: &stderr}.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")

	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "boom\n", res.Stderr)
	assert.Equal(t, "boom\n", stderr.String())
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "twsync-definitely-not-a-real-tool")
	assert.Error(t, err)
}
