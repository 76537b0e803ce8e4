package csvstore

import "errors"

// Sentinel error kinds for this package.
var (
	ErrParse = errors.New("csv parse failed")
)
