package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Skim error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrInvalidURL        ErrorCode = "INVALID_URL"        // 400
	ErrMissingCredential ErrorCode = "MISSING_CREDENTIAL" // 401
	ErrPathNotWritable   ErrorCode = "PATH_NOT_WRITABLE"  // 403
	ErrBusy              ErrorCode = "BUSY"               // 409
	ErrEmptySummary      ErrorCode = "EMPTY_SUMMARY"      // 502
	ErrExportIOFailure   ErrorCode = "EXPORT_IO_FAILURE"  // 500
	ErrOpenFileFailure   ErrorCode = "OPEN_FILE_FAILURE"  // 500
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// User-facing messages shown on the summary channel.
const (
	MsgMissingCredential = "You must provide an API key"
	MsgInvalidURL        = "The URL is not valid"
	MsgEmptySummary      = "The summary could not be generated"
)

// SkimError represents a structured error with code, status, and details.
type SkimError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *SkimError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *SkimError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SkimError {
	return &SkimError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidURL creates a 400 error for a URL that does not parse as absolute.
func NewInvalidURL(raw string, cause error) *SkimError {
	return &SkimError{
		Code:    ErrInvalidURL,
		Status:  400,
		Message: MsgInvalidURL,
		Details: map[string]any{"url": raw},
		cause:   cause,
	}
}

// NewMissingCredential creates a 401 error for when no API key is stored.
func NewMissingCredential() *SkimError {
	return &SkimError{
		Code:    ErrMissingCredential,
		Status:  401,
		Message: MsgMissingCredential,
	}
}

// NewPathNotWritable creates a 403 error for an output folder that fails the write probe.
func NewPathNotWritable(path string) *SkimError {
	return &SkimError{
		Code:    ErrPathNotWritable,
		Status:  403,
		Message: fmt.Sprintf("path is not writable: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewBusy creates a 409 error when a channel already has a request in flight.
func NewBusy(channel string) *SkimError {
	return &SkimError{
		Code:    ErrBusy,
		Status:  409,
		Message: fmt.Sprintf("a %s request is already in progress", channel),
		Details: map[string]any{"channel": channel},
	}
}

// NewEmptySummary creates a 502 error when the summarization service produced no text.
// A transport failure is carried as the cause; the code stays EMPTY_SUMMARY.
func NewEmptySummary(cause error) *SkimError {
	return &SkimError{
		Code:    ErrEmptySummary,
		Status:  502,
		Message: MsgEmptySummary,
		cause:   cause,
	}
}

// NewExportIOFailure creates a 500 error for a failed export write.
func NewExportIOFailure(path string, cause error) *SkimError {
	msg := "export failed"
	if cause != nil {
		msg = fmt.Sprintf("export failed: %v", cause)
	}
	return &SkimError{
		Code:    ErrExportIOFailure,
		Status:  500,
		Message: msg,
		Details: map[string]any{"path": path},
		cause:   cause,
	}
}

// NewOpenFileFailure creates a 500 error when neither the file nor its folder could be opened.
func NewOpenFileFailure(path string, cause error) *SkimError {
	return &SkimError{
		Code:    ErrOpenFileFailure,
		Status:  500,
		Message: fmt.Sprintf("could not open %s", path),
		Details: map[string]any{"path": path},
		cause:   cause,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SkimError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SkimError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a SkimError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SkimError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// As returns err as a *SkimError, wrapping unknown errors as INTERNAL.
func As(err error) *SkimError {
	var sErr *SkimError
	if stderrors.As(err, &sErr) {
		return sErr
	}
	return NewInternal(err)
}
