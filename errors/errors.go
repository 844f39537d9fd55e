// Package errors provides standardized error handling for semvocab.
// It defines the error taxonomy of the vocabulary core (not-found, invalid
// source configuration, retrieval failure, missing capability), an error
// classification scheme, and helper functions for consistent wrapping.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for the vocabulary core.
//
// Callers distinguish the four kinds with errors.Is or the Is* helpers below;
// they must never be collapsed into one generic failure.
var (
	// ErrNotFound indicates an identifier or prefix absent from the registry.
	// Never defaulted to an empty or placeholder entry.
	ErrNotFound = errors.New("vocabulary not found")

	// ErrInvalidSource indicates a context source constructed with zero or
	// more than one of inline, url, derivesFrom set.
	ErrInvalidSource = errors.New("invalid context source")

	// ErrInvalidConfig indicates invalid registry or resolver configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrRetrieval indicates the underlying fetch timed out, returned a
	// non-success status, or the transport failed. Surfaced verbatim; the
	// core performs no retry of its own.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrCapabilityUnavailable indicates an optional capability (e.g. a
	// Turtle parser) was required but not supplied to the environment.
	// Distinct from ErrRetrieval: "we cannot even attempt this" rather than
	// "we tried and the network failed."
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrInvalidData indicates a payload that could not be parsed.
	ErrInvalidData = errors.New("invalid data format")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsNotFound reports whether err indicates an unknown vocabulary identifier.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidSource reports whether err indicates a misconfigured context source.
func IsInvalidSource(err error) bool {
	return errors.Is(err, ErrInvalidSource)
}

// IsRetrieval reports whether err indicates a failed fetch: timeout,
// non-success status, or transport failure.
func IsRetrieval(err error) bool {
	return errors.Is(err, ErrRetrieval)
}

// IsCapabilityUnavailable reports whether err indicates a missing optional
// capability.
func IsCapabilityUnavailable(err error) bool {
	return errors.Is(err, ErrCapabilityUnavailable)
}

// IsTransient checks if an error is transient and may succeed on retry
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	return errors.Is(err, ErrRetrieval) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	return errors.Is(err, ErrCapabilityUnavailable)
}

// IsInvalid checks if an error is due to invalid input or configuration
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidSource) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidData)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient // Default for nil
	}

	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}

	// Default to transient for unknown errors to allow retry
	return ErrorTransient
}

// newClassified creates a new classified error.
// Internal helper - use WrapTransient(), WrapFatal(), or WrapInvalid() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}
