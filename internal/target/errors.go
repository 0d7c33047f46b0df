package target

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
// The concrete errors returned by this package are *InvalidRangeError and
// *InvalidHostError, which match these sentinels.
var (
	// ErrInvalidRange matches every *InvalidRangeError.
	ErrInvalidRange = errors.New("invalid port range")

	// ErrInvalidHost matches every *InvalidHostError.
	ErrInvalidHost = errors.New("invalid host")
)

// InvalidRangeError is returned when a port expression is malformed, when
// start > end, or when a bound falls outside 1..65535.
type InvalidRangeError struct {
	// Expr is the offending expression as given by the caller.
	Expr string

	// Reason describes what is wrong with it.
	Reason string
}

// Error implements the error interface.
func (e *InvalidRangeError) Error() string {
	if e.Expr == "" {
		return fmt.Sprintf("invalid port range: %s", e.Reason)
	}
	return fmt.Sprintf("invalid port range %q: %s", e.Expr, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidRange) succeed.
func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// InvalidHostError is returned when the host string is empty.
type InvalidHostError struct {
	// Host is the offending host string.
	Host string
}

// Error implements the error interface.
func (e *InvalidHostError) Error() string {
	return fmt.Sprintf("invalid host %q: must not be empty", e.Host)
}

// Is lets errors.Is(err, ErrInvalidHost) succeed.
func (e *InvalidHostError) Is(target error) bool {
	return target == ErrInvalidHost
}

// bound parse failures, wrapped into InvalidRangeError reasons.
var (
	errMissing   = errors.New("is missing")
	errNotNumber = errors.New("is not a number")
)
