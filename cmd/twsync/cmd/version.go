package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/twsync/internal/config"
	"github.com/Aman-CERP/twsync/internal/syncer"
	"github.com/Aman-CERP/twsync/pkg/version"
)

// versionInfo is the --json output: build info plus the merge tool found on
// this machine.
type versionInfo struct {
	version.BuildInfo
	MergeTool        string `json:"merge_tool"`
	MergeToolVersion string `json:"merge_tool_version,omitempty"`
}

func newVersionCmd() *cobra.Command {
	return newVersionCmdWith(syncer.ExecRunner{})
}

func newVersionCmdWith(runner syncer.Runner) *cobra.Command {
	var jsonOutput, shortOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print twsync and merge tool versions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if shortOutput {
				_, err := fmt.Fprintln(out, version.Short())
				return err
			}

			tool := configuredMergeTool()
			info := versionInfo{
				BuildInfo:        version.GetInfo(),
				MergeTool:        tool,
				MergeToolVersion: mergeToolVersion(cmd.Context(), runner, tool),
			}

			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			toolLine := info.MergeToolVersion
			if toolLine == "" {
				toolLine = tool + " not found (run 'twsync init')"
			}
			_, err := fmt.Fprintf(out, "%s\nmerge tool: %s\n", version.String(), toolLine)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the twsync version")

	return cmd
}

// configuredMergeTool returns the merge tool named in a valid config file,
// or the default.
func configuredMergeTool() string {
	if path := config.GetConfigPath(); config.Exists(path) {
		if cfg, err := config.Load(path); err == nil {
			return cfg.MergeTool
		}
	}
	return config.DefaultMergeTool
}

// mergeToolVersion returns the first line of "<tool> -version", or "" when
// the tool cannot be run.
func mergeToolVersion(ctx context.Context, runner syncer.Runner, tool string) string {
	res, err := runner.Run(ctx, tool, "-version")
	if err != nil || res.ExitCode != 0 {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(res.Stdout), "\n")
	return line
}
