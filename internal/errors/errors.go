// Package errors carries coded application errors across layer
// boundaries. Domain sentinels map onto stable codes that the CLI and
// API surface to users.
package errors

import (
	stderrors "errors"
	"fmt"

	"datacheck/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Stable error codes
const (
	CodeSchemaViolation   = "SCHEMA_VIOLATION"
	CodeSchemaMismatch    = "SCHEMA_MISMATCH"
	CodeAccumulatorClosed = "ACCUMULATOR_CLOSED"
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeIngestFailed      = "INGEST_FAILED"
	CodeQueryFailed       = "QUERY_FAILED"
	CodeRenderFailed      = "RENDER_FAILED"
	CodeInternal          = "INTERNAL_ERROR"
)

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap adds context to an error, preserving or deriving its code
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    CodeOf(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// CodeOf resolves any error to its stable code. Coded errors keep their
// code; domain sentinels map to theirs; everything else is internal.
func CodeOf(err error) string {
	var app *AppError
	switch {
	case err == nil:
		return ""
	case stderrors.As(err, &app):
		return app.Code
	case core.IsSchemaViolation(err):
		return CodeSchemaViolation
	case core.IsSchemaMismatch(err):
		return CodeSchemaMismatch
	case core.IsAccumulatorClosed(err):
		return CodeAccumulatorClosed
	case stderrors.Is(err, core.ErrInvalidConfig):
		return CodeConfigInvalid
	default:
		return CodeInternal
	}
}

// IsAppError checks if an error carries a code
func IsAppError(err error) bool {
	var app *AppError
	return stderrors.As(err, &app)
}

// Common error constructors

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func IngestFailed(source string, cause error) *AppError {
	return &AppError{
		Code:    CodeIngestFailed,
		Message: fmt.Sprintf("failed to read dataset from %s", source),
		Cause:   cause,
	}
}

func QueryFailed(cause error) *AppError {
	return &AppError{
		Code:    CodeQueryFailed,
		Message: "dataset query failed",
		Cause:   cause,
	}
}

func RenderFailed(format string, cause error) *AppError {
	return &AppError{
		Code:    CodeRenderFailed,
		Message: fmt.Sprintf("failed to render %s report", format),
		Cause:   cause,
	}
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}
