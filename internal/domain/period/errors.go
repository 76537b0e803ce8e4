package period

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidYear = errors.New("invalid season year")
)
