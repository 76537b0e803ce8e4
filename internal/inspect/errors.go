package inspect

import "errors"

// Sentinel error kinds for this package.
var (
	ErrNotNumeric = errors.New("column is not numeric")
)
