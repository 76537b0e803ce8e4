package statcast

import (
	"errors"
)

// Sentinel error kinds for this package.
var (
	ErrUpstream = errors.New("statcast upstream error")
)

// transientError marks failures worth retrying: network errors, throttling
// and 5xx responses.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
