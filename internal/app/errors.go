package service

import "errors"

// Sentinel error kinds for this package.
var (
	ErrIncompleteSeason = errors.New("season incomplete: period files missing")
	ErrNoSource         = errors.New("no upstream source configured")
)
