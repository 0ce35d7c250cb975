package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/twsync/internal/syncer"
)

// testEnv points every twsync path into a temp dir.
type testEnv struct {
	dir        string
	configPath string
	src        string
	dest       string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config", "config.yaml"),
		src:        filepath.Join(dir, "src"),
		dest:       filepath.Join(dir, "dst"),
	}
	t.Setenv("TWSYNC_CONFIG_PATH", env.configPath)
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("TWSYNC_LOG_PATH", "")
	t.Setenv("TWSYNC_DEFAULT_SRC", "")
	t.Setenv("TWSYNC_DEFAULT_DEST", "")
	t.Setenv("TWSYNC_MERGE_TOOL", "")
	t.Setenv("TWSYNC_QUEUE_SIZE", "")
	t.Setenv("NO_COLOR", "1")
	require.NoError(t, os.MkdirAll(env.src, 0o755))
	return env
}

func (e *testEnv) mkdir(t *testing.T, rel ...string) string {
	t.Helper()
	p := filepath.Join(append([]string{e.src}, rel...)...)
	require.NoError(t, os.MkdirAll(p, 0o755))
	return p
}

func (e *testEnv) writeConfig(t *testing.T, extra string) {
	t.Helper()
	content := "default_src: " + e.src + "\n" +
		"default_dest: " + e.dest + "\n" +
		"exclude:\n  - node_modules\n" + extra
	require.NoError(t, os.MkdirAll(filepath.Dir(e.configPath), 0o755))
	require.NoError(t, os.WriteFile(e.configPath, []byte(content), 0o644))
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// stubRunner answers commands by binary name.
type stubRunner struct {
	results map[string]syncer.Result
	errs    map[string]error
	calls   [][]string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) (syncer.Result, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	if err := s.errs[name]; err != nil {
		return syncer.Result{ExitCode: -1}, err
	}
	return s.results[name], nil
}
