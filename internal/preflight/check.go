package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Aman-CERP/twsync/internal/syncer"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker performs preflight validation checks.
type Checker struct {
	verbose bool
	output  io.Writer
	tool    string
	runner  syncer.Runner
	goos    string
	procDir string
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose enables verbose output.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// WithTool sets the merge tool binary to look for.
func WithTool(tool string) Option {
	return func(c *Checker) {
		c.tool = tool
	}
}

// WithRunner sets how external commands are executed.
func WithRunner(r syncer.Runner) Option {
	return func(c *Checker) {
		c.runner = r
	}
}

// WithPlatform overrides the detected GOOS and the /proc mount.
func WithPlatform(goos, procDir string) Option {
	return func(c *Checker) {
		c.goos = goos
		c.procDir = procDir
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		output:  os.Stdout,
		tool:    "unison",
		runner:  syncer.ExecRunner{},
		goos:    runtime.GOOS,
		procDir: "/proc",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs all preflight checks and returns the results. destRoot is
// the default destination; an empty value skips the write check.
func (c *Checker) RunAll(ctx context.Context, destRoot string) []CheckResult {
	results := []CheckResult{
		c.CheckPlatform(),
		c.CheckMergeTool(ctx),
		c.CheckInotifyWatches(),
	}
	if destRoot != "" {
		results = append(results, c.CheckWritePermissions(destRoot))
	}
	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns a summary status string for the results.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	hasCriticalFailure := false

	for _, r := range results {
		if r.IsCritical() {
			hasCriticalFailure = true
		}
		if r.Status == StatusWarn || (r.Status == StatusFail && !r.Required) {
			hasWarnings = true
		}
	}

	if hasCriticalFailure {
		return "failed"
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "twsync System Check")
	_, _ = fmt.Fprintln(c.output, "===================")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "      %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(c.SummaryStatus(results)))
}

// CheckPlatform requires Linux, where inotify is available. WSL2 is
// reported in the details since it is the intended deployment.
func (c *Checker) CheckPlatform() CheckResult {
	result := CheckResult{
		Name:     "platform",
		Required: true,
	}

	if c.goos != "linux" {
		result.Status = StatusFail
		result.Message = "unsupported system: " + c.goos
		result.Details = "twsync relies on inotify and only runs on Linux"
		return result
	}

	result.Status = StatusPass
	result.Message = "linux"
	if c.IsWSL() {
		result.Message = "linux (WSL)"
	}
	return result
}

// IsWSL reports whether the kernel identifies itself as a WSL kernel.
func (c *Checker) IsWSL() bool {
	data, err := os.ReadFile(filepath.Join(c.procDir, "version"))
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), "microsoft")
}

// CheckMergeTool runs "<tool> -version".
func (c *Checker) CheckMergeTool(ctx context.Context) CheckResult {
	result := CheckResult{
		Name:     "merge_tool",
		Required: true,
	}

	res, err := c.runner.Run(ctx, c.tool, "-version")
	if err != nil || res.ExitCode != 0 {
		result.Status = StatusFail
		result.Message = c.tool + " is not installed"
		result.Details = "Run 'twsync init' to install it"
		return result
	}

	result.Status = StatusPass
	result.Message = c.tool
	return result
}

// CheckWritePermissions checks that path exists, or can be created, and
// is writable.
func (c *Checker) CheckWritePermissions(path string) CheckResult {
	result := CheckResult{
		Name:     "write_permissions",
		Required: false,
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("cannot create %s: %v", path, err)
		result.Details = "Is the Windows drive mounted?"
		return result
	}

	testFile := filepath.Join(path, ".twsync-preflight-test")
	f, err := os.Create(testFile)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(testFile)

	result.Status = StatusPass
	result.Message = "OK"
	return result
}
