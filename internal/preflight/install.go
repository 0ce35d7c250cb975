package preflight

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	twerrors "github.com/Aman-CERP/twsync/internal/errors"
	"github.com/Aman-CERP/twsync/internal/logging"
	"github.com/Aman-CERP/twsync/internal/syncer"
)

// Distro identifies a Linux distribution from /etc/os-release.
type Distro struct {
	ID     string
	IDLike []string
	Name   string
}

// ReadDistro parses an os-release file.
func ReadDistro(path string) (Distro, error) {
	f, err := os.Open(path)
	if err != nil {
		return Distro{}, fmt.Errorf("read os-release: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseOSRelease(f)
}

// ParseOSRelease parses os-release(5) content.
func ParseOSRelease(r io.Reader) (Distro, error) {
	var d Distro
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)
		switch key {
		case "ID":
			d.ID = strings.ToLower(value)
		case "ID_LIKE":
			d.IDLike = strings.Fields(strings.ToLower(value))
		case "PRETTY_NAME":
			d.Name = value
		case "NAME":
			if d.Name == "" {
				d.Name = value
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Distro{}, fmt.Errorf("parse os-release: %w", err)
	}
	return d, nil
}

// installCommands maps a distribution family to its install command,
// without the package name.
var installCommands = map[string][]string{
	"ubuntu": {"sudo", "apt", "install", "-y"},
	"debian": {"sudo", "apt", "install", "-y"},
	"arch":   {"sudo", "pacman", "-S", "--noconfirm"},
	"fedora": {"sudo", "dnf", "install", "-y"},
	"centos": {"sudo", "yum", "install", "-y"},
	"rhel":   {"sudo", "yum", "install", "-y"},
}

// InstallCommand returns the command that installs pkg on d. ID is tried
// before ID_LIKE entries.
func (d Distro) InstallCommand(pkg string) ([]string, bool) {
	for _, id := range append([]string{d.ID}, d.IDLike...) {
		if cmd, ok := installCommands[id]; ok {
			return append(append([]string(nil), cmd...), pkg), true
		}
	}
	return nil, false
}

// Installer installs the merge tool with the system package manager.
type Installer struct {
	OSRelease string
	Runner    syncer.Runner
}

// NewInstaller returns an Installer that reads /etc/os-release and runs
// the package manager attached to the terminal.
func NewInstaller() *Installer {
	return &Installer{
		OSRelease: "/etc/os-release",
		Runner:    syncer.ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr},
	}
}

// Install installs pkg. Unsupported distributions and failed package
// manager runs yield ERR_302.
func (i *Installer) Install(ctx context.Context, pkg string) error {
	slog.Info("Installing required packages...")

	distro, err := ReadDistro(i.OSRelease)
	if err != nil {
		return twerrors.New(twerrors.ErrCodeInstallFailed, "cannot detect distribution", err).
			WithSuggestion("Install " + pkg + " manually")
	}
	slog.Debug("Detected distribution", slog.String("id", distro.ID), slog.String("name", distro.Name))

	cmd, ok := distro.InstallCommand(pkg)
	if !ok {
		return twerrors.New(twerrors.ErrCodeInstallFailed, "unsupported distribution: "+distro.Name, nil).
			WithDetail("id", distro.ID).
			WithSuggestion("Install " + pkg + " manually")
	}

	slog.Debug("Running " + strings.Join(cmd, " "))
	res, err := i.Runner.Run(ctx, cmd[0], cmd[1:]...)
	if err != nil {
		return twerrors.New(twerrors.ErrCodeInstallFailed, "failed to run "+cmd[1], err)
	}
	if res.ExitCode != 0 {
		return twerrors.New(twerrors.ErrCodeInstallFailed,
			fmt.Sprintf("%s exited with status %d", cmd[1], res.ExitCode), nil)
	}
	logging.Success("Packages installed successfully", slog.String("package", pkg))
	return nil
}
