package table

import "errors"

// Sentinel error kinds for this package.
var (
	ErrColumnNotFound = errors.New("column not found")
	ErrMalformed      = errors.New("malformed csv")
)
