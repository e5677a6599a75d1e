package errors

import (
	"fmt"
)

// ErrorCode represents a specific error type for pipeline and query operations.
type ErrorCode string

const (
	// ErrCodeConfiguration indicates invalid chunking or embedding parameters.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeUnsupportedFormat indicates an unknown document format.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// ErrCodeCorruptFile indicates the uploaded bytes could not be parsed.
	ErrCodeCorruptFile ErrorCode = "CORRUPT_FILE"
	// ErrCodeEmbedding indicates embedding generation failure.
	ErrCodeEmbedding ErrorCode = "EMBEDDING_ERROR"
	// ErrCodeIndexBuild indicates the vector index could not be built.
	ErrCodeIndexBuild ErrorCode = "INDEX_BUILD_ERROR"
	// ErrCodeNotFound indicates a missing document, index, or user.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeDocumentNotReady indicates the document has not finished ingestion.
	ErrCodeDocumentNotReady ErrorCode = "DOCUMENT_NOT_READY"
	// ErrCodeQuotaExceeded indicates the daily question quota is spent.
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"
	// ErrCodeConcurrencyConflict indicates lock contention exhausted retries.
	ErrCodeConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"
	// ErrCodeUnauthorized indicates authentication failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeTimeout indicates the operation exceeded its wall-clock budget.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an unexpected failure that must not leak details.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Error represents a structured, code-carrying error.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *Error) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// Configuration creates a configuration error.
func Configuration(msg string) *Error {
	return &Error{Code: ErrCodeConfiguration, Message: msg}
}

// UnsupportedFormat creates an unsupported format error.
func UnsupportedFormat(format string) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedFormat,
		Message: fmt.Sprintf("unsupported document format: %s", format),
	}
}

// CorruptFile creates a corrupt file error.
func CorruptFile(msg string, cause error) *Error {
	return &Error{Code: ErrCodeCorruptFile, Message: msg, Cause: cause}
}

// Embedding creates an embedding error.
func Embedding(msg string, cause error) *Error {
	return &Error{Code: ErrCodeEmbedding, Message: msg, Cause: cause}
}

// IndexBuild creates an index build error.
func IndexBuild(msg string) *Error {
	return &Error{Code: ErrCodeIndexBuild, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: msg}
}

// DocumentNotReady creates a document not ready error.
func DocumentNotReady(status string) *Error {
	return &Error{
		Code:    ErrCodeDocumentNotReady,
		Message: fmt.Sprintf("document is not ready for questions (status: %s)", status),
	}
}

// QuotaExceeded creates a quota exceeded error.
func QuotaExceeded(limit int) *Error {
	return &Error{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("daily question limit reached (%d), resets at UTC midnight", limit),
	}
}

// ConcurrencyConflict creates a concurrency conflict error.
func ConcurrencyConflict(msg string, cause error) *Error {
	return &Error{Code: ErrCodeConcurrencyConflict, Message: msg, Cause: cause}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: ErrCodeUnauthorized, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: msg}
}

// Timeout creates a timeout error.
func Timeout(msg string) *Error {
	return &Error{Code: ErrCodeTimeout, Message: msg}
}

// Internal creates an internal error.
func Internal(cause error) *Error {
	return &Error{Code: ErrCodeInternal, Message: "internal error", Cause: cause}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error carries a specific code.
func IsCode(err error, code ErrorCode) bool {
	if appErr, ok := err.(*Error); ok {
		return appErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an *Error.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if appErr, ok := err.(*Error); ok {
		return appErr.Code
	}
	return defaultCode
}
