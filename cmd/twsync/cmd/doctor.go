package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/twsync/internal/config"
	twerrors "github.com/Aman-CERP/twsync/internal/errors"
	"github.com/Aman-CERP/twsync/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that this system can run twsync",
		Long: `Run the system checks used by 'init' and 'start':
  - Linux platform (WSL detected)
  - unison is installed
  - inotify watch limit
  - default destination is writable (when a config exists)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd.Context(), cmd)
		},
	}
}

func runDoctor(ctx context.Context, cmd *cobra.Command) error {
	tool := config.DefaultMergeTool
	var destRoot string

	if path := config.GetConfigPath(); config.Exists(path) {
		cfg, err := config.Load(path)
		if err != nil {
			slog.Warn("Config file is invalid", twerrors.FormatForLog(err)...)
		} else {
			tool = cfg.MergeTool
			destRoot = cfg.DefaultDest
		}
	}

	checker := preflight.New(
		preflight.WithOutput(cmd.OutOrStdout()),
		preflight.WithTool(tool),
		preflight.WithVerbose(verbose),
	)
	results := checker.RunAll(ctx, destRoot)
	checker.PrintResults(results)

	if checker.HasCriticalFailures(results) {
		return fmt.Errorf("system check failed")
	}
	return nil
}
