// Package faults defines the error taxonomy shared by the PMS domain
// services. Handlers map these onto HTTP statuses; stores translate driver
// errors into them.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a guarded update observed one state but a
	// concurrent writer committed another. Callers may retry after re-reading.
	ErrConflict = errors.New("stale state: record changed concurrently")
)

// ValidationError reports a violated business invariant. It is surfaced to
// the caller verbatim and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// PermissionError reports a caller acting outside its role, stage, or edit
// window.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return e.Reason
}

func Permissionf(format string, args ...any) error {
	return &PermissionError{Reason: fmt.Sprintf(format, args...)}
}

// ConfigurationError aggregates every configuration problem found during a
// batch pre-validation, so the caller sees the full list instead of the
// first offender.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "configuration errors: " + strings.Join(e.Problems, "; ")
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
