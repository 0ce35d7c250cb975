package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	twerrors "github.com/Aman-CERP/twsync/internal/errors"
	"github.com/Aman-CERP/twsync/internal/synclist"
)

const (
	// DefaultMergeTool is the external two-way merge tool.
	DefaultMergeTool = "unison"

	// DefaultQueueSize bounds the event queue between watcher and router.
	DefaultQueueSize = 1024

	// MergeToolPattern matches the merge tool's own transient files. It is
	// always excluded in addition to the configured globs.
	MergeToolPattern = ".unison*"
)

// Environment variables recognised by Load.
const (
	EnvConfigPath  = "TWSYNC_CONFIG_PATH"
	EnvDefaultSrc  = "TWSYNC_DEFAULT_SRC"
	EnvDefaultDest = "TWSYNC_DEFAULT_DEST"
	EnvMergeTool   = "TWSYNC_MERGE_TOOL"
	EnvQueueSize   = "TWSYNC_QUEUE_SIZE"
)

var defaultExcludePatterns = []string{
	"node_modules",
}

// Config is the on-disk twsync configuration.
type Config struct {
	DefaultSrc  string       `yaml:"default_src" json:"default_src"`
	DefaultDest string       `yaml:"default_dest" json:"default_dest"`
	Items       []ItemConfig `yaml:"items" json:"items"`
	Exclude     []string     `yaml:"exclude" json:"exclude"`
	MergeTool   string       `yaml:"merge_tool,omitempty" json:"merge_tool,omitempty"`
	QueueSize   int          `yaml:"queue_size,omitempty" json:"queue_size,omitempty"`
}

// ItemConfig overrides the default mapping for one source directory.
type ItemConfig struct {
	Src     string `yaml:"src" json:"src"`
	Dest    string `yaml:"dest,omitempty" json:"dest,omitempty"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// UnmarshalYAML defaults Enabled to true when the key is absent.
func (i *ItemConfig) UnmarshalYAML(node *yaml.Node) error {
	type raw ItemConfig
	item := raw{Enabled: true}
	if err := node.Decode(&item); err != nil {
		return err
	}
	*i = ItemConfig(item)
	return nil
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		DefaultSrc:  defaultSrc(),
		DefaultDest: defaultDest(),
		Items:       []ItemConfig{},
		Exclude:     append([]string(nil), defaultExcludePatterns...),
		MergeTool:   DefaultMergeTool,
		QueueSize:   DefaultQueueSize,
	}
}

func defaultSrc() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "workspace")
	}
	return filepath.Join(home, "workspace")
}

// defaultDest points at the OneDrive workspace of the Windows user with the
// same name, the layout twsync was written for under WSL2.
func defaultDest() string {
	name := "user"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	return filepath.Join("/mnt/c/Users", name, "OneDrive", "workspace")
}

// GetConfigPath returns the configuration file location:
//   - $TWSYNC_CONFIG_PATH (if set)
//   - $XDG_CONFIG_HOME/twsync/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/twsync/config.yaml (default)
func GetConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return ExpandHome(p)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "twsync", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "twsync", "config.yaml")
	}
	return filepath.Join(home, ".config", "twsync", "config.yaml")
}

// Exists reports whether a regular file exists at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads the configuration at path. It applies, in order of increasing
// precedence: defaults, the YAML file, then TWSYNC_* environment variables.
// A missing file is reported as ERR_101; anything unparsable or invalid as
// ERR_102.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, twerrors.ConfigError("invalid configuration: "+err.Error(), err).
			WithDetail("path", path)
	}
	return cfg, nil
}

// loadYAML decodes path over the current values. Keys absent from the file
// keep their defaults.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return twerrors.ConfigMissing(path, err)
		}
		return twerrors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return twerrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvDefaultSrc); v != "" {
		c.DefaultSrc = v
	}
	if v := os.Getenv(EnvDefaultDest); v != "" {
		c.DefaultDest = v
	}
	if v := os.Getenv(EnvMergeTool); v != "" {
		c.MergeTool = v
	}
	if v := os.Getenv(EnvQueueSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.QueueSize = n
		}
	}
}

func (c *Config) expandPaths() {
	c.DefaultSrc = ExpandHome(c.DefaultSrc)
	c.DefaultDest = ExpandHome(c.DefaultDest)
	for i := range c.Items {
		c.Items[i].Src = ExpandHome(c.Items[i].Src)
		c.Items[i].Dest = ExpandHome(c.Items[i].Dest)
	}
	if c.MergeTool == "" {
		c.MergeTool = DefaultMergeTool
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
}

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !filepath.IsAbs(c.DefaultSrc) {
		return fmt.Errorf("default_src must be an absolute path, got %q", c.DefaultSrc)
	}
	if !filepath.IsAbs(c.DefaultDest) {
		return fmt.Errorf("default_dest must be an absolute path, got %q", c.DefaultDest)
	}

	for i, item := range c.Items {
		if item.Src == "" {
			return fmt.Errorf("items[%d].src is required", i)
		}
		if filepath.IsAbs(item.Src) && item.Enabled && item.Dest == "" {
			return fmt.Errorf("items[%d]: absolute src %s requires a dest", i, item.Src)
		}
	}

	for _, pattern := range c.Exclude {
		if _, err := filepath.Match(synclist.TranslateGlob(pattern), ""); err != nil {
			return fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
	}

	if strings.TrimSpace(c.MergeTool) == "" {
		return fmt.Errorf("merge_tool must not be empty")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}

	return nil
}

// ExcludeGlobs returns the configured exclude patterns plus the merge
// tool's transient-file pattern.
func (c *Config) ExcludeGlobs() []string {
	globs := make([]string, 0, len(c.Exclude)+1)
	globs = append(globs, c.Exclude...)
	for _, g := range globs {
		if g == MergeToolPattern {
			return globs
		}
	}
	return append(globs, MergeToolPattern)
}

// ItemSource returns the absolute source directory an item refers to.
func (c *Config) ItemSource(item ItemConfig) string {
	if filepath.IsAbs(item.Src) {
		return filepath.Clean(item.Src)
	}
	return filepath.Join(c.DefaultSrc, item.Src)
}

// ItemDestination returns the destination shown for an item: its explicit
// dest (relative values resolve against default_dest) or the default
// layout.
func (c *Config) ItemDestination(item ItemConfig) string {
	switch {
	case item.Dest == "":
		return filepath.Join(c.DefaultDest, item.Src)
	case filepath.IsAbs(item.Dest):
		return filepath.Clean(item.Dest)
	default:
		return filepath.Join(c.DefaultDest, item.Dest)
	}
}

// WriteYAML writes the configuration to path, creating parent directories.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
