package review

import (
	"errors"
	"fmt"
)

// Code is one of the closed set of error codes surfaced by the bridge. Every
// failure that crosses a transport boundary is rendered as "CODE: message".
type Code string

const (
	// CodeTimeout indicates a reviewer turn exceeded its deadline.
	CodeTimeout Code = "CODEX_TIMEOUT"

	// CodeParseError indicates two consecutive malformed or
	// schema-invalid reviewer responses.
	CodeParseError Code = "CODEX_PARSE_ERROR"

	// CodeGitError indicates the external git invocation failed.
	CodeGitError Code = "GIT_ERROR"

	// CodeConfigError indicates the config file was unreadable or
	// invalid.
	CodeConfigError Code = "CONFIG_ERROR"

	// CodeStorageError indicates a persistence operation failed.
	CodeStorageError Code = "STORAGE_ERROR"

	// CodeSessionNotFound indicates a resume referenced an unknown
	// reviewer thread.
	CodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// CodeAuthError indicates a missing or invalid credential.
	CodeAuthError Code = "AUTH_ERROR"

	// CodeModelError indicates the configured model is unsupported.
	CodeModelError Code = "MODEL_ERROR"

	// CodeRateLimited indicates an upstream rate-limit response.
	CodeRateLimited Code = "RATE_LIMITED"

	// CodeNetworkError indicates a DNS, connect, or fetch failure.
	CodeNetworkError Code = "NETWORK_ERROR"

	// CodeUnknown is the fallback for anything else. The raw message is
	// preserved.
	CodeUnknown Code = "UNKNOWN_ERROR"
)

// Error is a bridge error value carrying one of the closed codes. It renders
// as "CODE: message" on every surface.
type Error struct {
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// E constructs a bridge Error with the given code and formatted message.
func E(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// CodeOf extracts the bridge error code from err, falling back to
// CodeUnknown for errors that did not originate in the taxonomy.
func CodeOf(err error) Code {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries the given bridge error code.
func IsCode(err error, code Code) bool {
	var be *Error
	return errors.As(err, &be) && be.Code == code
}

// AsBridgeError renders any error as a bridge Error, preserving the raw
// message under CodeUnknown when the error is not already in the taxonomy.
func AsBridgeError(err error) *Error {
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	return &Error{Code: CodeUnknown, Message: err.Error()}
}
