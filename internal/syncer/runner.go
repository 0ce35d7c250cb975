package syncer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

// Result is the outcome of running an external command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes an external command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec. Stdout and stderr are forwarded
// to the given writers and also captured in the Result.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Runner. A non-zero exit is reported through Result with a
// nil error; the error is reserved for failures to start the command.
// The command runs in its own process group, so a terminal interrupt
// reaches twsync only and an in-flight sync is left to finish.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = tee(r.Stdout, &stdout)
	cmd.Stderr = tee(r.Stderr, &stderr)
	detachProcessGroup(cmd)

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		res.ExitCode = -1
		return res, err
	}
	return res, nil
}

func tee(w io.Writer, captured *bytes.Buffer) io.Writer {
	if w == nil {
		return captured
	}
	return io.MultiWriter(w, captured)
}
