// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, actions, symbols and volumes
//   - Signal feed errors (200-299): Unreadable or malformed signal uploads
//   - Venue errors (500-599): Gateway handshake, quote lookup and order submission errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidAction, "action must be buy or sell")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeQuoteUnavailable, "no ask price for %s", symbol)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeGatewayUnavailable, "terminal handshake failed", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeVenueRejected) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// ParseError reports the first row of a signal upload that could not be parsed.
// Row is the 1-based data row (the header is row 0).
type ParseError struct {
	Row    int
	Value  string
	Reason string
}

// NewParseError creates a new ParseError.
func NewParseError(row int, value, reason string) *ParseError {
	return &ParseError{
		Row:    row,
		Value:  value,
		Reason: reason,
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}

	return fmt.Sprintf("row %d: %s (%q)", e.Row, e.Reason, e.Value)
}

// IsParseError checks if an error is a ParseError.
// It uses errors.As to check the error chain.
func IsParseError(err error) bool {
	var parseErr *ParseError

	return errors.As(err, &parseErr)
}

// VenueRejectedError carries the status code and message a venue returned
// when it processed an order request but declined it.
type VenueRejectedError struct {
	Code    string
	Message string
}

// NewVenueRejectedError creates a new VenueRejectedError.
func NewVenueRejectedError(code, message string) *VenueRejectedError {
	return &VenueRejectedError{
		Code:    code,
		Message: message,
	}
}

// Error implements the error interface.
func (e *VenueRejectedError) Error() string {
	return fmt.Sprintf("venue rejected order (code %s): %s", e.Code, e.Message)
}

// AsVenueRejected returns the VenueRejectedError in err's chain, if any.
func AsVenueRejected(err error) (*VenueRejectedError, bool) {
	var rejected *VenueRejectedError
	if errors.As(err, &rejected) {
		return rejected, true
	}

	return nil, false
}
