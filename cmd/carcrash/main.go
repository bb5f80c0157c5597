// Command carcrash loads the crash datasets named in a config file, runs the
// selected analyses and writes each result table to the configured sink.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carcrash/internal/analysis"
	"carcrash/internal/config"
	"carcrash/internal/session"
	"carcrash/internal/storage"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/google/uuid"

	// register all backends with the storage factory; SINK.kind picks one.
	_ "carcrash/internal/storage/all"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	cfgPath  string
	analyses string
	parallel int
	validate bool
	verbose  bool
	debug    bool
	noColor  bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("carcrash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.cfgPath, "config", "config.yaml", "run configuration (YAML, or JSON when the name ends in .json)")
	fs.StringVar(&o.analyses, "analyses", "", "comma separated analysis IDs to run (overrides RUNTIME.analyses)")
	fs.IntVar(&o.parallel, "parallel", 0, "analyses run concurrently (overrides RUNTIME.parallelism when > 0)")
	fs.BoolVar(&o.validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&o.verbose, "v", false, "enable debug logs")
	fs.BoolVar(&o.debug, "debug", false, "dump the resolved configuration and results to stderr")
	fs.BoolVar(&o.noColor, "no-color", false, "disable colored report output")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

// run is main without the process exit, so tests can drive it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if o.noColor {
		color.NoColor = true
	}

	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return exitFailed
	}
	hasError := false
	for _, iss := range config.Validate(cfg) {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fmt.Fprintf(stderr, "configuration is invalid: %s\n", o.cfgPath)
		return exitFailed
	}
	if o.validate {
		fmt.Fprintf(stdout, "configuration is valid: %s\n", o.cfgPath)
		return exitOK
	}

	if err := applyOverrides(&cfg, o); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	list, err := analysis.Select(cfg.Runtime.Analyses)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	logger, closeLog, err := newLogger(cfg.Logging, o.verbose, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "logging: %v\n", err)
		return exitFailed
	}
	defer closeLog()
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	slog.SetDefault(logger)

	flush := setupMetrics(cfg.Metrics, runID)
	defer flush()

	if o.debug {
		spew.Fdump(stderr, cfg)
	}

	start := time.Now()
	results, runErr := execute(ctx, cfg, list, runID)
	writeReport(stdout, list, results)
	if o.debug {
		spew.Fdump(stderr, results)
	}

	if runErr != nil {
		slog.Error("run failed", "component", "main", "err", runErr, "elapsed", time.Since(start))
		return exitFailed
	}
	slog.Info("run complete", "component", "main", "analyses", len(results), "elapsed", time.Since(start))
	return exitOK
}

// applyOverrides folds command line flags into cfg.
func applyOverrides(cfg *config.Config, o options) error {
	if o.analyses != "" {
		ids, err := analysis.ParseIDs(o.analyses)
		if err != nil {
			return err
		}
		cfg.Runtime.Analyses = ids
	}
	if o.parallel > 0 {
		cfg.Runtime.Parallelism = o.parallel
	}
	return nil
}

// execute builds the session and sink, loads the needed datasets and runs
// list.
func execute(ctx context.Context, cfg config.Config, list []analysis.Analysis, runID string) ([]analysis.Result, error) {
	job := cfg.Metrics.Job

	var sink session.Writer
	if len(cfg.Output) > 0 {
		s, err := storage.NewSink(storage.SinkConfig{
			Kind:      cfg.Sink.Kind,
			DSN:       cfg.Sink.DSN,
			BatchSize: cfg.Sink.BatchSize,
			Replace:   cfg.Sink.ReplaceTables(),
			Options:   cfg.Sink.Options,
			Job:       job,
		})
		if err != nil {
			return nil, err
		}
		sink = s
	}

	sess := session.New(session.Config{
		Inputs: cfg.Input,
		Loader: loaderOptions(cfg.Parser),
		HTTP:   httpConfig(cfg.Parser),
		Dedup:  dedupRules(cfg.Dedup),
		Job:    job,
		RunID:  runID,
	}, sink)

	needed := analysis.DatasetsFor(list)
	if unused := sess.Unused(needed); len(unused) > 0 {
		slog.Warn("datasets configured but not needed by the selected analyses",
			"component", "main", "datasets", unused)
	}
	if err := sess.Preload(ctx, needed); err != nil {
		return nil, err
	}

	r := &analysis.Runner{
		Datasets:    sess,
		Outputs:     cfg.Output,
		Parallelism: cfg.Runtime.Parallelism,
		Job:         job,
	}
	if sink != nil {
		r.Sink = sess
	}
	return r.Run(ctx, list)
}
