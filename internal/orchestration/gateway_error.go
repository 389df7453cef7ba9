package orchestration

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed gateway call.
type ErrorKind int

const (
	// Unreachable covers transport failures, timeouts, cancellation and an
	// open circuit breaker.
	Unreachable ErrorKind = iota + 1
	// ServerError is any non-2xx response.
	ServerError
	// Malformed is a 2xx response whose body fails decoding or validation.
	Malformed
)

func (k ErrorKind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case ServerError:
		return "server_error"
	case Malformed:
		return "malformed"
	}
	return "unknown"
}

// GatewayError is returned by every MindEaseClient call that fails.
type GatewayError struct {
	Op         string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// KindOf extracts the gateway error kind from err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind, true
	}
	return 0, false
}

func unreachable(op string, err error) error {
	return &GatewayError{Op: op, Kind: Unreachable, Err: err}
}

func serverError(op string, status int, err error) error {
	return &GatewayError{Op: op, Kind: ServerError, StatusCode: status, Err: err}
}

func malformed(op string, err error) error {
	return &GatewayError{Op: op, Kind: Malformed, Err: err}
}
