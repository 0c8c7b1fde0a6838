package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Fatal input/invariant errors
	ErrSchemaViolation   = errors.New("row shape disagrees with column schema")
	ErrSchemaMismatch    = errors.New("column stats are not comparable")
	ErrAccumulatorClosed = errors.New("accumulator already finalized")
	ErrInvalidConfig     = errors.New("invalid configuration")

	// Skip conditions - a detector or comparator declines to produce a
	// finding. Never fatal; callers treat these as "no finding".
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrNotApplicable    = errors.New("analysis not applicable to column")
)

// Error constructors with context
func NewSchemaViolationError(rowIndex int, expected, actual int) error {
	return fmt.Errorf("%w: row %d has %d fields, schema declares %d", ErrSchemaViolation, rowIndex, actual, expected)
}

func NewSchemaMismatchError(trainColumn, testColumn string, reason string) error {
	return fmt.Errorf("%w: train %q vs test %q: %s", ErrSchemaMismatch, trainColumn, testColumn, reason)
}

func NewAccumulatorClosedError(column string) error {
	return fmt.Errorf("%w: column %q", ErrAccumulatorClosed, column)
}

func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, reason)
}

// Error checking helpers
func IsSchemaViolation(err error) bool {
	return errors.Is(err, ErrSchemaViolation)
}

func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

func IsAccumulatorClosed(err error) bool {
	return errors.Is(err, ErrAccumulatorClosed)
}

// IsSkip reports whether err only means "no finding here": the run must
// continue and nothing is surfaced to the caller.
func IsSkip(err error) bool {
	return errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrNotApplicable)
}

// IsFatal reports whether err must abort the current run.
func IsFatal(err error) bool {
	if err == nil || IsSkip(err) {
		return false
	}
	return true
}
