// Package cmd provides the CLI commands for twsync.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/twsync/internal/daemon"
	twerrors "github.com/Aman-CERP/twsync/internal/errors"
	"github.com/Aman-CERP/twsync/internal/logging"
	"github.com/Aman-CERP/twsync/internal/ui"
	"github.com/Aman-CERP/twsync/pkg/version"
)

// Global flags
var (
	verbose        bool
	logPath        string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the twsync CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "twsync",
		Short: "Two-way sync between WSL2 and OneDrive",
		Long: `twsync watches directories inside WSL2 and keeps them in two-way sync
with their counterparts on the Windows side (typically OneDrive) using unison.

Run 'twsync init' once to install prerequisites and write the configuration,
'twsync status' to see what will be synchronized, and 'twsync start' to run.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: startLogging,
		PersistentPostRun: stopLogging,
	}

	cmd.SetVersionTemplate("twsync version {{.Version}}\n")

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Increase output verbosity to DEBUG level")
	cmd.PersistentFlags().StringVarP(&logPath, "log", "l", "",
		fmt.Sprintf("Also write JSON logs to this file (e.g. %s; env %s)", logging.DefaultLogPath(), logging.EnvLogPath))

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging installs the console handler, plus the JSON file handler
// when --log or $TWSYNC_LOG_PATH is set.
func startLogging(cmd *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if verbose {
		cfg = logging.DebugConfig()
	}
	cfg.Console = cmd.ErrOrStderr()
	cfg.Color = ui.UseColor(cfg.Console)
	cfg.FilePath = logging.ResolveLogPath(logPath)

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)

	if cfg.FilePath != "" {
		slog.Debug("File logging enabled", slog.String("log_file", cfg.FilePath))
	}
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// Execute runs the root command and prints failures for the terminal.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		stopLogging(nil, nil)
		var se *twerrors.SyncError
		if errors.As(err, &se) {
			_, _ = fmt.Fprint(os.Stderr, twerrors.FormatForCLI(err))
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return err
}

// historyPath is where the sync ledger lives.
func historyPath() string {
	return filepath.Join(daemon.StateDir(), "history.db")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
