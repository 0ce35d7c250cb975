package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/twsync/internal/config"
	twerrors "github.com/Aman-CERP/twsync/internal/errors"
	"github.com/Aman-CERP/twsync/internal/logging"
	"github.com/Aman-CERP/twsync/internal/preflight"
	"github.com/Aman-CERP/twsync/internal/prompt"
	"github.com/Aman-CERP/twsync/internal/ui"
)

// initOptions holds init's flags and the collaborators tests replace.
type initOptions struct {
	noInstall bool
	yes       bool
	checker   *preflight.Checker
	installer *preflight.Installer
}

func newInitCmd() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Install required packages and initialize the configuration file",
		Long: `Check that unison is installed (offering to install it with the
distribution's package manager), then ask for the default source and
destination directories and write the configuration file.

An existing configuration is imported and backed up before it is rewritten.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.noInstall, "no-install", false, "Do not install missing packages")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Accept defaults and install without asking")

	return cmd
}

func runInit(ctx context.Context, cmd *cobra.Command, opts initOptions) error {
	out := cmd.OutOrStdout()
	path := config.GetConfigPath()

	cfg := config.NewConfig()
	if config.Exists(path) {
		existing, err := config.Load(path)
		if err != nil {
			slog.Warn("Existing config file is invalid, starting from defaults", twerrors.FormatForLog(err)...)
		} else {
			slog.Warn("Config file already exists, importing it...", slog.String("path", path))
			cfg = existing
		}
	}

	checker := opts.checker
	if checker == nil {
		checker = preflight.New(preflight.WithOutput(out), preflight.WithTool(cfg.MergeTool))
	}
	if res := checker.CheckPlatform(); res.IsCritical() {
		return twerrors.UnsupportedPlatform(runtime.GOOS)
	}

	p := prompt.New(out, cmd.InOrStdin(), ui.UseColor(out))

	slog.Info("Checking required packages...")
	if err := ensureMergeTool(ctx, checker, p, cfg.MergeTool, opts); err != nil {
		// the config is still worth writing; start reports the missing tool
		slog.Error("Installation failed", twerrors.FormatForLog(err)...)
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), twerrors.FormatForCLI(err))
	}

	if !opts.yes {
		src, err := p.Ask("Enter the source directory", cfg.DefaultSrc)
		if err != nil {
			return err
		}
		dest, err := p.Ask("Enter the destination directory", cfg.DefaultDest)
		if err != nil {
			return err
		}
		cfg.DefaultSrc = config.ExpandHome(src)
		cfg.DefaultDest = config.ExpandHome(dest)
	}

	if err := cfg.Validate(); err != nil {
		return twerrors.ConfigError(err.Error(), err)
	}

	if config.Exists(path) {
		backup, err := config.Backup(path)
		if err != nil {
			return twerrors.ConfigError("cannot back up existing config", err)
		}
		slog.Info("Previous config backed up", slog.String("backup", backup))
	}

	if err := cfg.WriteYAML(path); err != nil {
		return twerrors.ConfigError("cannot write config", err)
	}
	logging.Success("Configuration written", slog.String("path", path))
	return nil
}

// ensureMergeTool installs the merge tool when it is missing and the user
// agrees.
func ensureMergeTool(ctx context.Context, checker *preflight.Checker, p *prompt.Prompter, tool string, opts initOptions) error {
	res := checker.CheckMergeTool(ctx)
	if res.Status != preflight.StatusFail {
		slog.Info("Required packages are installed.")
		return nil
	}

	if opts.noInstall {
		slog.Warn(tool+" is not installed, skipping installation", slog.String("reason", "--no-install"))
		return nil
	}

	if !opts.yes {
		ok, err := p.Confirm(tool+" is not installed. Install it now?", true)
		if err != nil {
			return err
		}
		if !ok {
			slog.Warn("Skipping installation of " + tool)
			return nil
		}
	}

	installer := opts.installer
	if installer == nil {
		installer = preflight.NewInstaller()
	}
	return installer.Install(ctx, tool)
}
