// Package service implements the season pipeline: fetch every period of a
// season from the upstream source, persist one file per period, and merge
// the period files into one deduplicated season file.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/savant/internal/adapters/csvstore"
	"github.com/okian/savant/internal/domain/dedupe"
	"github.com/okian/savant/internal/domain/period"
	"github.com/okian/savant/internal/domain/table"
	"github.com/okian/savant/pkg/logger"
	"github.com/okian/savant/pkg/metrics"
)

// Source returns the pitch-event table for an inclusive date range.
type Source interface {
	Fetch(ctx context.Context, start, end time.Time) (*table.Table, error)
}

// ProgressFunc is called after each period has been written.
type ProgressFunc func(p period.Period, done, total int)

// Service runs the season pipeline. Runs are sequential; a Service must
// not be used by concurrent callers against the same season directory.
type Service struct {
	source            Source
	store             *csvstore.Store
	requireAllPeriods bool
	progress          ProgressFunc
	logger            logger.Logger
	now               func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the upstream source.
func WithSource(src Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithStore sets the file store.
func WithStore(store *csvstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRequireAllPeriods makes a merge fail when any period file is missing.
func WithRequireAllPeriods(required bool) Option {
	return func(s *Service) {
		s.requireAllPeriods = required
	}
}

// WithProgress registers a per-period progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) {
		s.progress = fn
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service. Without WithStore it writes below ./files.
func New(opts ...Option) *Service {
	s := &Service{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = csvstore.New("files")
	}
	if s.logger == nil {
		s.logger = logger.Named("pipeline")
	}
	return s
}

// Run fetches every period of the season, writes the period files, then
// merges them. Any fetch or write error aborts the run.
func (s *Service) Run(ctx context.Context, year int) (*Report, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	periods, err := period.Season(year)
	if err != nil {
		return nil, err
	}

	rep := s.newReport(year)
	log := s.logger.With(logger.String("run_id", rep.RunID), logger.Int("year", year))

	dir, err := s.store.EnsureYearDir(year)
	if err != nil {
		return rep, err
	}
	rep.Dir = dir

	log.Info(ctx, "fetching season", logger.Int("periods", len(periods)), logger.String("dir", dir))
	for i, p := range periods {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		path, rows, err := s.fetchPeriod(ctx, year, p)
		if err != nil {
			log.Error(ctx, "period fetch failed", logger.String("period", p.String()), logger.Error(err))
			return rep, fmt.Errorf("period %s: %w", p.Name, err)
		}
		rep.Written = append(rep.Written, path)
		log.Info(ctx, "period written",
			logger.String("period", p.String()),
			logger.String("path", path),
			logger.Int("rows", rows))
		if s.progress != nil {
			s.progress(p, i+1, len(periods))
		}
	}

	if err := s.merge(ctx, log, year, periods, rep); err != nil {
		return rep, err
	}
	s.finish(ctx, log, rep)
	return rep, nil
}

// Merge rebuilds the season file from the period files already on disk.
func (s *Service) Merge(ctx context.Context, year int) (*Report, error) {
	periods, err := period.Season(year)
	if err != nil {
		return nil, err
	}

	rep := s.newReport(year)
	rep.Dir = s.store.YearDir(year)
	log := s.logger.With(logger.String("run_id", rep.RunID), logger.Int("year", year))

	if err := s.merge(ctx, log, year, periods, rep); err != nil {
		return rep, err
	}
	s.finish(ctx, log, rep)
	return rep, nil
}

func (s *Service) newReport(year int) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Year:    year,
		Started: s.now(),
	}
}

func (s *Service) finish(ctx context.Context, log logger.Logger, rep *Report) {
	rep.Finished = s.now()
	metrics.RecordRunSuccess(rep.Finished, rep.Duration())
	log.Info(ctx, "season file written",
		logger.String("path", rep.CombinedPath),
		logger.Int("rows", rep.Rows),
		logger.Int("duplicates", rep.Duplicates),
		logger.Int("invalid", len(rep.Invalid)),
		logger.Int("missing", len(rep.Missing)),
		logger.Duration("took", rep.Duration()))
}

// fetchPeriod fetches one period and writes it unmodified to its file.
func (s *Service) fetchPeriod(ctx context.Context, year int, p period.Period) (string, int, error) {
	started := time.Now()
	t, err := s.source.Fetch(ctx, p.Start, p.End)
	if err != nil {
		return "", 0, err
	}
	metrics.RecordPeriodFetched(time.Since(started))

	path := s.store.PeriodPath(year, p)
	if err := s.store.Write(path, t); err != nil {
		return "", 0, err
	}
	metrics.RecordRowsWritten(metrics.KindPeriod, t.Len())
	return path, t.Len(), nil
}

// merge validates every period file, then loads them again, concatenates,
// drops exact duplicates and writes the season file. Validation failures
// are reported but do not exclude the file; if it cannot be loaded the
// merge fails on it.
func (s *Service) merge(ctx context.Context, log logger.Logger, year int, periods []period.Period, rep *Report) error {
	files, err := s.store.ListPeriodFiles(year)
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := s.store.Validate(f); err != nil {
			metrics.RecordInvalidFile()
			rep.Invalid = append(rep.Invalid, FileError{Path: f, Err: err})
			log.Error(ctx, "error in file", logger.String("path", f), logger.Error(err))
		}
	}

	rep.Missing = missingPeriods(year, periods, files)
	metrics.UpdateMissingPeriods(len(rep.Missing))
	if len(rep.Missing) > 0 {
		names := make([]string, len(rep.Missing))
		for i, p := range rep.Missing {
			names[i] = p.Name
		}
		if s.requireAllPeriods {
			return fmt.Errorf("%w: %v", ErrIncompleteSeason, names)
		}
		log.Warn(ctx, "merging incomplete season", logger.Any("missing", names))
	}

	tables := make([]*table.Table, 0, len(files))
	for _, f := range files {
		t, err := s.store.Read(f)
		if err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		tables = append(tables, t)
	}

	combined := table.Concat(tables...)
	rep.Duplicates = combined.DropDuplicates(ctx, dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0)))
	rep.Rows = combined.Len()
	metrics.RecordDuplicatesDropped(rep.Duplicates)

	rep.CombinedPath = s.store.CombinedPath(year)
	if err := s.store.Write(rep.CombinedPath, combined); err != nil {
		return err
	}
	metrics.RecordRowsWritten(metrics.KindCombined, rep.Rows)
	return nil
}

func missingPeriods(year int, periods []period.Period, files []string) []period.Period {
	present := make(map[string]struct{}, len(files))
	for _, f := range files {
		present[filepath.Base(f)] = struct{}{}
	}
	var missing []period.Period
	for _, p := range periods {
		if _, ok := present[p.FileName(year)]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}
