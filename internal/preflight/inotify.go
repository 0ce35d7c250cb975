package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// MinInotifyWatches is the watch limit below which large workspaces
// start losing watches.
const MinInotifyWatches = 65536

// CheckInotifyWatches reads fs.inotify.max_user_watches. Every watched
// directory consumes one watch.
func (c *Checker) CheckInotifyWatches() CheckResult {
	result := CheckResult{
		Name:     "inotify_watches",
		Required: false,
	}

	data, err := os.ReadFile(filepath.Join(c.procDir, "sys", "fs", "inotify", "max_user_watches"))
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to read inotify watch limit: %v", err)
		return result
	}

	limit, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("unexpected inotify watch limit %q", strings.TrimSpace(string(data)))
		return result
	}

	result.Message = fmt.Sprintf("%d (recommended: %d)", limit, MinInotifyWatches)
	if limit < MinInotifyWatches {
		result.Status = StatusWarn
		result.Details = "Run 'sudo sysctl fs.inotify.max_user_watches=524288' to increase the limit"
		return result
	}

	result.Status = StatusPass
	return result
}
