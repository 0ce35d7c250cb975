package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/twsync/internal/daemon"
	twerrors "github.com/Aman-CERP/twsync/internal/errors"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a running 'twsync start'",
		Long: `Send SIGTERM to the running synchronizer. It finishes the sync in
progress, if any, and exits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStop(cmd, daemon.NewPIDFile(daemon.PIDPath(daemon.StateDir())))
		},
	}
}

func runStop(cmd *cobra.Command, pidFile *daemon.PIDFile) error {
	out := cmd.OutOrStdout()

	pid, err := pidFile.Stop()
	switch {
	case errors.Is(err, daemon.ErrNotRunning):
		_, _ = fmt.Fprintln(out, "twsync is not running")
		return nil
	case err != nil:
		return twerrors.InternalError("cannot stop twsync", err)
	}

	_, _ = fmt.Fprintf(out, "Sent stop signal to twsync (pid %d)\n", pid)
	return nil
}
