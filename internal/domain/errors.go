package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownOperator is returned when an operator key is not configured
var ErrUnknownOperator = errors.New("unknown operator")

// TransportError wraps a network-level failure (connection, timeout, cancelled request).
// It is scoped to the cycle or listing that issued the call and is retried on the next tick.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err carries a TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
