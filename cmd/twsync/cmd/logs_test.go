package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "twsync.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestLogs_Tail(t *testing.T) {
	// Given: a JSON log with three entries
	path := writeLog(t,
		`{"time":"2026-01-02T10:00:00Z","level":"INFO","msg":"Starting synchronization..."}`,
		`{"time":"2026-01-02T10:00:01Z","level":"SUCCESS","msg":"Synchronization successful","src":"/w/foo"}`,
		`{"time":"2026-01-02T10:00:02Z","level":"ERROR","msg":"Synchronization failed","exit_code":3}`,
	)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	// When: showing the last two lines
	err := runLogs(context.Background(), out, errOut, logsOptions{lines: 2, logFile: path, noColor: true})

	// Then: only those entries are printed
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "Starting synchronization")
	assert.Contains(t, out.String(), "Synchronization successful")
	assert.Contains(t, out.String(), "Synchronization failed")
	assert.Contains(t, errOut.String(), "Log file: "+path)
}

func TestLogs_LevelFilter(t *testing.T) {
	path := writeLog(t,
		`{"time":"2026-01-02T10:00:00Z","level":"INFO","msg":"Starting synchronization..."}`,
		`{"time":"2026-01-02T10:00:02Z","level":"ERROR","msg":"Synchronization failed"}`,
	)
	out := &bytes.Buffer{}

	err := runLogs(context.Background(), out, &bytes.Buffer{}, logsOptions{lines: 50, logFile: path, level: "warn", noColor: true})

	require.NoError(t, err)
	assert.NotContains(t, out.String(), "Starting")
	assert.Contains(t, out.String(), "Synchronization failed")
}

func TestLogs_InvalidFilter(t *testing.T) {
	path := writeLog(t, `{"level":"INFO","msg":"x"}`)

	err := runLogs(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, logsOptions{lines: 1, logFile: path, filter: "("})

	assert.ErrorContains(t, err, "invalid filter pattern")
}

func TestLogs_MissingFile(t *testing.T) {
	err := runLogs(context.Background(), &bytes.Buffer{}, &bytes.Buffer{},
		logsOptions{lines: 1, logFile: filepath.Join(t.TempDir(), "none.log")})

	assert.Error(t, err)
}
