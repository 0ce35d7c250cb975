package cmd

import (
	"context"
	"log/slog"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/twsync/internal/config"
	"github.com/Aman-CERP/twsync/internal/daemon"
	"github.com/Aman-CERP/twsync/internal/history"
	"github.com/Aman-CERP/twsync/internal/ui"
)

// recentRuns is how many history entries status shows.
const recentRuns = 10

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what will be synchronized",
		Long: `Display the resolved configuration without watching anything:
  - Configured items and their destinations
  - The resolved sync list as a tree
  - Excluded paths and ignored name patterns
  - Whether 'twsync start' is running
  - The most recent synchronizations`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	sc, cfg, err := config.LoadContext(osfs.New("/"), config.GetConfigPath())
	if err != nil {
		return err
	}

	info := collectStatus(ctx, sc, cfg)

	out := cmd.OutOrStdout()
	renderer := ui.NewStatusRenderer(out, !ui.UseColor(out))
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}

func collectStatus(ctx context.Context, sc *config.Context, cfg *config.Config) ui.StatusInfo {
	info := ui.StatusInfo{
		ConfigPath:  sc.ConfigPath,
		DefaultSrc:  sc.DefaultSrc,
		DefaultDest: sc.DefaultDest,
		MergeTool:   sc.MergeTool,
		Items:       make([]ui.ItemStatus, 0, len(cfg.Items)),
		Mappings:    ui.MappingEntries(sc.Mapping),
		Excluded:    sc.Excluded.Paths(),
		Globs:       sc.Globs,
	}

	for _, item := range cfg.Items {
		info.Items = append(info.Items, ui.ItemStatus{
			Source:  cfg.ItemSource(item),
			Dest:    cfg.ItemDestination(item),
			Enabled: item.Enabled,
		})
	}

	info.PID, info.Running = daemon.NewPIDFile(daemon.PIDPath(daemon.StateDir())).Running()

	// status never creates the history database
	if path := historyPath(); fileExists(path) {
		store, err := history.Open(path)
		if err != nil {
			slog.Debug("Cannot open sync history", slog.String("error", err.Error()))
			return info
		}
		defer func() { _ = store.Close() }()

		runs, err := store.Recent(ctx, recentRuns)
		if err != nil {
			slog.Debug("Cannot read sync history", slog.String("error", err.Error()))
			return info
		}
		info.Recent = runs
	}

	return info
}
