package model

import (
	"errors"
	"fmt"
)

// Error kinds. Only ErrAuthentication is ever surfaced to the event source.
var (
	ErrAuthentication  = errors.New("authentication failed")
	ErrUpstreamService = errors.New("upstream service failed")
	ErrConfiguration   = errors.New("configuration missing or invalid")
)

// Error tags a cause with one of the kinds above.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func AuthenticationError(op string, err error) error {
	return &Error{Op: op, Kind: ErrAuthentication, Err: err}
}

func UpstreamError(op string, err error) error {
	return &Error{Op: op, Kind: ErrUpstreamService, Err: err}
}

func ConfigurationError(op string, err error) error {
	return &Error{Op: op, Kind: ErrConfiguration, Err: err}
}

// KindOf returns a short label for metrics and logs.
func KindOf(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrUpstreamService):
		return "upstream"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "internal"
	}
}
