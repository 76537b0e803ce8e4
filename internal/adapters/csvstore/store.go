// Package csvstore persists season tables under a per-year directory:
//
//	<base>/<year>/<month>_<year>.csv   one file per period
//	<base>/<year>/savantdata-<year>.csv combined, deduplicated season
package csvstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/savant/internal/domain/period"
	"github.com/okian/savant/internal/domain/table"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o644
)

const (
	defaultReservedPrefix = "savant"
	defaultCombinedStem   = "savantdata"
	csvExt                = ".csv"
)

// Store reads and writes season CSV files below a base directory.
type Store struct {
	baseDir        string
	reservedPrefix string
	combinedStem   string
}

// New creates a Store rooted at baseDir.
func New(baseDir string, opts ...Option) *Store {
	s := &Store{
		baseDir:        baseDir,
		reservedPrefix: defaultReservedPrefix,
		combinedStem:   defaultCombinedStem,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// YearDir returns the directory holding one season's files.
func (s *Store) YearDir(year int) string {
	return filepath.Join(s.baseDir, strconv.Itoa(year))
}

// PeriodPath returns the file path for one period of a season.
func (s *Store) PeriodPath(year int, p period.Period) string {
	return filepath.Join(s.YearDir(year), p.FileName(year))
}

// CombinedPath returns the path of the combined season file.
func (s *Store) CombinedPath(year int) string {
	return filepath.Join(s.YearDir(year), fmt.Sprintf("%s-%d%s", s.combinedStem, year, csvExt))
}

// EnsureYearDir creates the season directory. An existing directory is not an error.
func (s *Store) EnsureYearDir(year int) (string, error) {
	dir := s.YearDir(year)
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dir, nil
}

// Write stores t at path, replacing any previous content.
func (s *Store) Write(path string, t *table.Table) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file %s: %w", path, cerr)
		}
	}()

	if err := table.Encode(file, t); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Read loads the table stored at path.
func (s *Store) Read(path string) (*table.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	t, err := table.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	return t, nil
}

// Validate parses the file at path and discards the result.
func (s *Store) Validate(path string) error {
	_, err := s.Read(path)
	return err
}

// ListPeriodFiles returns every .csv file in the season directory whose
// name does not start with the reserved prefix, sorted by name.
func (s *Store) ListPeriodFiles(year int) ([]string, error) {
	dir := s.YearDir(year)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, csvExt) || strings.HasPrefix(name, s.reservedPrefix) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}
