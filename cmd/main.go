package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rollcall/rollcall/internal/adapters/tabular"
	"github.com/rollcall/rollcall/internal/app"
	"github.com/rollcall/rollcall/internal/config"
	"github.com/rollcall/rollcall/pkg/logger"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// errMissingInputs is returned by parseFlags when the two mandatory
// input files are not given.
var errMissingInputs = errors.New("both -events and -roster are required")

// inputPaths carries the per-run file arguments that have no config
// counterpart.
type inputPaths struct {
	events    string
	roster    string
	overrides string
	decisions string
}

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom pipeline metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Command-line flags override file and environment settings.
	paths, err := parseFlags(flag.CommandLine, os.Args[1:], cfg)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		if errors.Is(err, errMissingInputs) {
			flag.Usage()
		}
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(2)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, loggerInstance, cfg, paths); err != nil {
		loggerInstance.Error(ctx, "reconciliation failed", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// parseFlags registers the command-line flags on fs, layering their
// values on top of the already loaded cfg, and returns the input file
// paths. Config-backed flags default to the loaded config values, so
// precedence ends up defaults -> file -> env -> flags.
func parseFlags(fs *flag.FlagSet, args []string, cfg *config.Config) (inputPaths, error) {
	var p inputPaths
	fs.StringVar(&p.events, "events", "", "activity log CSV (name, hours, event)")
	fs.StringVar(&p.roster, "roster", "", "roster CSV keyed by email")
	fs.StringVar(&p.overrides, "overrides", "", "manual override rules CSV")
	fs.StringVar(&p.decisions, "decisions", "", "filled-in review CSV; defaults to the review file in -out when present")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "directory result tables are written to")
	fs.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "optional SQLite database mirroring every result table")
	fs.StringVar(&cfg.Category, "category", cfg.Category, "restrict final totals to one roster category")
	fs.Float64Var(&cfg.MinMatch, "min-match", cfg.MinMatch, "score threshold below which automatic assignments are flagged for review")
	fs.IntVar(&cfg.TopK, "top-k", cfg.TopK, "candidates kept per source name in the review table")
	fs.IntVar(&cfg.WorkerCount, "workers", cfg.WorkerCount, "ranking concurrency")

	if err := fs.Parse(args); err != nil {
		return p, err
	}
	if p.events == "" || p.roster == "" {
		return p, errMissingInputs
	}
	return p, nil
}

// reviewFile returns the decisions path to load: the explicit one when
// given, otherwise the review table left by a previous run, if any.
func reviewFile(explicit, outDir string) string {
	if explicit != "" {
		return explicit
	}
	path := filepath.Join(outDir, app.ReviewFileName)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// run wires the sources, sinks, and review inputs into a Service and
// executes one reconciliation batch.
func run(ctx context.Context, log logger.Logger, cfg *config.Config, paths inputPaths) error {
	runID := uuid.NewString()

	csvSink, err := tabular.NewCSVSink(cfg.OutDir)
	if err != nil {
		return err
	}

	opts := []app.Option{
		app.WithRunID(runID),
		app.WithLogger(log.Named("reconcile")),
		app.WithSource(tabular.NewCSVSource(paths.events, paths.roster)),
		app.WithSink(csvSink),
		app.WithMinMatch(cfg.MinMatch),
		app.WithTopK(cfg.TopK),
		app.WithWorkers(cfg.WorkerCount),
		app.WithCategory(cfg.Category),
		app.WithNicknames(cfg.Nicknames),
	}

	if cfg.SQLitePath != "" {
		sqliteSink, err := tabular.NewSQLiteSink(cfg.SQLitePath, runID)
		if err != nil {
			return err
		}
		defer func() { _ = sqliteSink.Close() }()
		opts = append(opts, app.WithSink(sqliteSink))
	}

	if paths.overrides != "" {
		rules, err := tabular.ReadOverrides(ctx, paths.overrides)
		if err != nil {
			return err
		}
		log.Info(ctx, "loaded override rules", logger.String("path", paths.overrides), logger.Int("rules", len(rules)))
		opts = append(opts, app.WithOverrides(rules))
	}

	if path := reviewFile(paths.decisions, cfg.OutDir); path != "" {
		decisions, err := tabular.ReadDecisions(ctx, path)
		if err != nil {
			return err
		}
		log.Info(ctx, "loaded review verdicts", logger.String("path", path), logger.Int("decisions", len(decisions)))
		opts = append(opts, app.WithDecisions(decisions))
	}

	sum, err := app.New(opts...).Run(ctx)
	if err != nil {
		return err
	}

	log.Info(ctx, "results written",
		logger.String("run_id", sum.RunID),
		logger.String("out_dir", cfg.OutDir),
		logger.Int("events", sum.Events),
		logger.Int("identities", sum.Identities),
		logger.Int("totals", sum.Totals),
		logger.Int("unmatched", sum.Unmatched),
	)
	return nil
}
