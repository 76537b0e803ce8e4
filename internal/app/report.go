package service

import (
	"time"

	"github.com/okian/savant/internal/domain/period"
)

// FileError pairs a period file with the reason it failed validation.
type FileError struct {
	Path string
	Err  error
}

// Report summarises one fetch and/or merge run.
type Report struct {
	RunID string
	Year  int
	Dir   string

	// Written lists the period files produced by this run, in season order.
	Written []string
	// Invalid lists period files that failed the validation pass.
	Invalid []FileError
	// Missing lists periods without a file at merge time.
	Missing []period.Period

	// Rows is the row count of the combined file; Duplicates the rows dropped to reach it.
	Rows         int
	Duplicates   int
	CombinedPath string

	Started  time.Time
	Finished time.Time
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
