// Package errors provides structured error handling for filesweep.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Watch errors (filesystem notification)
//   - 3XX: Move errors
//   - 4XX: Scan errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryWatch indicates filesystem-notification errors.
	CategoryWatch Category = "WATCH"
	// CategoryMove indicates file-move errors.
	CategoryMove Category = "MOVE"
	// CategoryScan indicates directory-scan errors.
	CategoryScan Category = "SCAN"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but processing can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeWatchPathMissing = "ERR_101_WATCH_PATH_MISSING"
	ErrCodeWatchPathInvalid = "ERR_102_WATCH_PATH_INVALID"
	ErrCodeTargetInvalid    = "ERR_103_TARGET_INVALID"
	ErrCodePatternInvalid   = "ERR_104_PATTERN_INVALID"
	ErrCodeConfigInvalid    = "ERR_105_CONFIG_INVALID"

	// Watch errors (200-299)
	ErrCodeWatchRegister = "ERR_201_WATCH_REGISTER"
	ErrCodeWatchClosed   = "ERR_202_WATCH_CLOSED"

	// Move errors (300-399)
	ErrCodeSourceLocked  = "ERR_301_SOURCE_LOCKED"
	ErrCodeTargetExists  = "ERR_302_TARGET_EXISTS"
	ErrCodeMoveFailed    = "ERR_303_MOVE_FAILED"
	ErrCodeRetryExceeded = "ERR_304_RETRY_EXCEEDED"

	// Scan errors (400-499)
	ErrCodeScanFailed = "ERR_401_SCAN_FAILED"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryWatch
	case '3':
		return CategoryMove
	case '4':
		return CategoryScan
	default:
		return CategoryInternal
	}
}

// severityFromCode derives severity from error code.
// Configuration errors abort startup; everything else is per-job.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryConfig:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether the code represents a transient condition.
// Only a lock held by another writer is retried; all other move errors are
// terminal for the job.
func isRetryableCode(code string) bool {
	return code == ErrCodeSourceLocked
}
