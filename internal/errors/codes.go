// Package errors provides structured error handling for twsync.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration and platform errors
//   - 2XX: Filesystem errors (vanished paths, empty sync lists)
//   - 3XX: External tool errors (missing merge tool, install failures)
//   - 4XX: Synchronization errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration or platform errors.
	CategoryConfig Category = "CONFIG"
	// CategoryFS indicates filesystem errors.
	CategoryFS Category = "FS"
	// CategoryTool indicates errors from the external merge tool or its installation.
	CategoryTool Category = "TOOL"
	// CategorySync indicates errors while dispatching a synchronization.
	CategorySync Category = "SYNC"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound      = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid       = "ERR_102_CONFIG_INVALID"
	ErrCodeUnsupportedPlatform = "ERR_103_UNSUPPORTED_PLATFORM"

	// Filesystem errors (200-299)
	ErrCodePathVanished = "ERR_201_PATH_VANISHED"
	ErrCodeNoSyncRoots  = "ERR_202_NO_SYNC_ROOTS"

	// Tool errors (300-399)
	ErrCodeToolMissing   = "ERR_301_TOOL_MISSING"
	ErrCodeInstallFailed = "ERR_302_INSTALL_FAILED"

	// Sync errors (400-499)
	ErrCodeNoMappingRoot    = "ERR_401_NO_MAPPING_ROOT"
	ErrCodeInvocationFailed = "ERR_402_INVOCATION_FAILED"

	// Internal errors (500-599)
	ErrCodeInternal       = "ERR_501_INTERNAL"
	ErrCodeAlreadyRunning = "ERR_502_ALREADY_RUNNING"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryFS
	case '3':
		return CategoryTool
	case '4':
		return CategorySync
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeConfigNotFound, ErrCodeConfigInvalid, ErrCodeUnsupportedPlatform,
		ErrCodeNoSyncRoots, ErrCodeAlreadyRunning:
		return SeverityFatal
	case ErrCodePathVanished:
		return SeverityWarning
	default:
		return SeverityError
	}
}
