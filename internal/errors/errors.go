package errors

import (
	"errors"
	"fmt"
)

// SyncError is the structured error type for twsync.
// It provides rich context for error handling, logging, and user presentation.
type SyncError struct {
	// Code is the unique error code (e.g., "ERR_201_PATH_VANISHED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, FS, Tool, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with SyncError.
func (e *SyncError) Is(target error) bool {
	if t, ok := target.(*SyncError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SyncError) WithDetail(key, value string) *SyncError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *SyncError) WithSuggestion(suggestion string) *SyncError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SyncError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *SyncError {
	return &SyncError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a SyncError from an existing error.
// The error's message becomes the SyncError message.
func Wrap(code string, err error) *SyncError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigMissing reports that no configuration file exists at path.
func ConfigMissing(path string, cause error) *SyncError {
	return New(ErrCodeConfigNotFound, "config file not found: "+path, cause).
		WithDetail("path", path).
		WithSuggestion("Run 'twsync init' to create one")
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SyncError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// UnsupportedPlatform reports that twsync cannot run on the given OS.
func UnsupportedPlatform(goos string) *SyncError {
	return New(ErrCodeUnsupportedPlatform, "unsupported system: "+goos, nil).
		WithSuggestion("twsync relies on inotify and only runs on Linux (including WSL2)")
}

// PathVanished reports a watch target or mapping root that disappeared
// between discovery and use.
func PathVanished(path string, cause error) *SyncError {
	return New(ErrCodePathVanished, "path vanished: "+path, cause).WithDetail("path", path)
}

// ToolMissing reports that the external merge tool is not installed.
func ToolMissing(tool string, cause error) *SyncError {
	return New(ErrCodeToolMissing, tool+" is not installed", cause).
		WithDetail("tool", tool).
		WithSuggestion("Run 'twsync init' to install the required packages")
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SyncError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a SyncError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a SyncError anywhere in the chain.
// Returns empty string if there is none.
func GetCategory(err error) Category {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}
