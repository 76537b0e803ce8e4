package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/okian/savant/internal/adapters/csvstore"
	"github.com/okian/savant/internal/adapters/statcast"
	app "github.com/okian/savant/internal/app"
	"github.com/okian/savant/internal/config"
	"github.com/okian/savant/internal/domain/period"
	"github.com/okian/savant/internal/inspect"
	"github.com/okian/savant/pkg/logger"
	"github.com/okian/savant/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// flags holds per-invocation overrides of the loaded configuration.
type flags struct {
	configFile  string
	year        string
	baseDir     string
	requireAll  bool
	metricsFile string
	file        string
	column      string
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := logger.Init(logger.WithWriter(stderr)); err != nil {
		fmt.Fprintf(stderr, "failed to initialize logging: %v\n", err)
		return 1
	}

	var f flags
	root := &cobra.Command{
		Use:           "savant",
		Short:         "Fetch, merge and inspect a season of Statcast pitch data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.configFile, "config", "", "YAML config file (overrides SAVANT_CONFIG)")
	root.PersistentFlags().StringVar(&f.year, "year", "", "season to process")
	root.PersistentFlags().StringVar(&f.baseDir, "base-dir", "", "directory holding one folder per season")
	root.AddCommand(fetchSubcommand(&f, stderr))
	root.AddCommand(mergeSubcommand(&f))
	root.AddCommand(inspectSubcommand(&f, stdout))
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Get().Error(ctx, "savant failed", logger.Error(err))
		return 1
	}
	return 0
}

// setup initialises logging and resolves the configuration for a command.
func setup(cmd *cobra.Command, f *flags) (*config.Config, error) {
	ctx := cmd.Context()
	path := f.configFile
	if path == "" {
		path = os.Getenv("SAVANT_CONFIG")
	}
	cfg, err := config.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if f.year != "" {
		y, err := period.ParseYear(f.year)
		if err != nil {
			return nil, err
		}
		cfg.Year = y
	}
	if f.baseDir != "" {
		cfg.BaseDir = f.baseDir
	}
	if cmd.Flags().Changed("require-all-periods") {
		cfg.RequireAllPeriods = f.requireAll
	}
	if f.metricsFile != "" {
		cfg.MetricsFile = f.metricsFile
	}
	if f.file != "" {
		cfg.InspectFile = f.file
	}
	if f.column != "" {
		cfg.InspectColumn = f.column
	}

	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithJSON(cfg.LogFormat == "json")); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

func newService(cfg *config.Config, opts ...app.Option) *app.Service {
	store := csvstore.New(cfg.BaseDir, csvstore.WithReservedPrefix(cfg.ReservedPrefix))
	opts = append(opts,
		app.WithStore(store),
		app.WithRequireAllPeriods(cfg.RequireAllPeriods),
	)
	return app.New(opts...)
}

func fetchSubcommand(f *flags, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download every period of the season and merge them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(cmd, f)
			if err != nil {
				return err
			}
			client := statcast.NewClient(
				statcast.WithBaseURL(cfg.SourceURL),
				statcast.WithTimeout(cfg.Timeout()),
				statcast.WithRetries(cfg.Retries, cfg.RetryBackoff()),
			)

			var bar *progressbar.ProgressBar
			progress := func(p period.Period, done, total int) {
				if bar == nil {
					bar = progressbar.NewOptions(total,
						progressbar.OptionSetWriter(stderr),
						progressbar.OptionSetWidth(40),
						progressbar.OptionShowCount(),
						progressbar.OptionOnCompletion(func() {
							fmt.Fprintf(stderr, "\n")
						}),
					)
				}
				bar.Describe(p.Name)
				_ = bar.Set(done)
			}

			svc := newService(cfg, app.WithSource(client), app.WithProgress(progress))
			_, err = svc.Run(cmd.Context(), cfg.Year)
			return finishRun(cmd.Context(), cfg, err)
		},
	}
	cmd.Flags().BoolVar(&f.requireAll, "require-all-periods", false, "fail the merge when a period file is missing")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write run metrics to this file")
	return cmd
}

func mergeSubcommand(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge the period files already on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(cmd, f)
			if err != nil {
				return err
			}
			_, err = newService(cfg).Merge(cmd.Context(), cfg.Year)
			return finishRun(cmd.Context(), cfg, err)
		},
	}
	cmd.Flags().BoolVar(&f.requireAll, "require-all-periods", false, "fail the merge when a period file is missing")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write run metrics to this file")
	return cmd
}

func inspectSubcommand(f *flags, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print descriptive statistics for one column of a period file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(cmd, f)
			if err != nil {
				return err
			}
			store := csvstore.New(cfg.BaseDir, csvstore.WithReservedPrefix(cfg.ReservedPrefix))
			sum, err := inspect.Describe(store, cfg.InspectPath(), cfg.InspectColumn)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(stdout, sum.String())
			return err
		},
	}
	cmd.Flags().StringVar(&f.file, "file", "", "period file to read (default: April of --year)")
	cmd.Flags().StringVar(&f.column, "column", "", "column to describe")
	return cmd
}

// finishRun exports metrics when configured, for failed runs too.
func finishRun(ctx context.Context, cfg *config.Config, runErr error) error {
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Get().Error(ctx, "metrics export failed", logger.String("path", cfg.MetricsFile), logger.Error(err))
		}
	}
	return runErr
}
