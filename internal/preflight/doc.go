// Package preflight checks that twsync can run on this machine and
// installs the merge tool when it is missing.
//
// The package validates:
//   - The platform (Linux, including WSL2; inotify is required)
//   - The merge tool is installed and runnable
//   - The inotify watch limit is large enough for typical workspaces
//   - The destination root is writable
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New(preflight.WithTool("unison"))
//	results := checker.RunAll(ctx, "/mnt/c/Users/me/OneDrive/workspace")
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
