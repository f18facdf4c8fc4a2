package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"editbench/internal/config"
	"editbench/internal/engine"
	"editbench/internal/fixture"
	"editbench/internal/history"
	"editbench/internal/report"
	"editbench/internal/runner"
	"editbench/internal/scoring"
	"editbench/internal/ui/live"
)

// runOptions holds flags for the run command.
type runOptions struct {
	engineID   string
	strategy   string
	language   string
	outputDir  string
	uiMode     string
	traceFile  string
	workers    int
	window     int
	timeout    time.Duration
	failOnMiss bool
	noHistory  bool
}

var runAndWrite = runner.RunAndWrite

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <fixture>",
		Short: "Evaluate an engine against every marker of a fixture",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, rootOpts, opts, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.engineID, "engine", "", "engine id from the config (default: default_engine)")
	flags.StringVar(&opts.strategy, "strategy", "", "scoring strategy (edit_kind|keyword|first_decisive)")
	flags.StringVar(&opts.language, "language", "", "fixture language")
	flags.StringVar(&opts.outputDir, "output-dir", "", "override output directory")
	flags.StringVar(&opts.uiMode, "ui", uiAuto, "progress display (auto|live|plain)")
	flags.StringVar(&opts.traceFile, "trace-file", "", "write OpenTelemetry spans as JSON to this file")
	flags.IntVar(&opts.workers, "workers", 0, "concurrent engine calls")
	flags.IntVar(&opts.window, "window", 0, "context lines on each side of the cursor")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-call engine timeout")
	flags.BoolVar(&opts.failOnMiss, "fail-on-miss", false, "exit 3 when any verdict fails")
	flags.BoolVar(&opts.noHistory, "no-history", false, "do not record the run in the history database")
	return cmd
}

func runRun(cmd *cobra.Command, rootOpts *rootOptions, opts *runOptions, fixturePath string) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	decision, err := resolveUIMode(opts.uiMode, rootOpts.Verbose, stdout)
	if err != nil {
		return &exitError{code: ExitUsage, err: err}
	}
	if decision.warning != "" {
		fmt.Fprintln(stderr, decision.warning)
	}

	loaded, err := loadConfig(rootOpts.ConfigPath)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	if err := applyRunOverrides(&cfg, opts, loaded.Root); err != nil {
		return &exitError{code: ExitUsage, err: err}
	}
	engineCfg, ok := cfg.Engine(cfg.DefaultEngine)
	if !ok {
		return &exitError{code: ExitUsage, err: fmt.Errorf("unknown engine %q", cfg.DefaultEngine)}
	}

	logger := newLogger(stderr, rootOpts.Verbose)
	if decision.useLive {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	syntax, err := fixture.CompileSyntax(cfg.Fixture.HeadingPattern, cfg.Fixture.MarkerPhrase, cfg.Fixture.IntentDelimiters, cfg.Fixture.CommentPrefixes)
	if err != nil {
		return err
	}
	eng, err := engine.Build(ctx, engineCfg, engine.BuildOptions{BaseDir: loaded.Root})
	if err != nil {
		return err
	}
	scorer, err := scoring.FromConfig(cfg.Scoring, cfg.Fixture.Language)
	if err != nil {
		return err
	}

	params := runner.RunParams{
		FixturePath:          fixturePath,
		FixtureOptions:       []fixture.Option{fixture.WithSyntax(syntax)},
		Engine:               eng,
		EngineName:           engineCfg.ID,
		Scorer:               scorer,
		Language:             cfg.Fixture.Language,
		Workers:              cfg.Runner.Workers,
		WindowLines:          cfg.Runner.WindowLines,
		Timeout:              engine.CallTimeout(engineCfg, cfg.Runner.TimeoutMS),
		UnavailableThreshold: cfg.Runner.UnavailableThreshold,
		Logger:               logger,
		Verbose:              rootOpts.Verbose,
		VerboseWriter:        stderr,
		NoColor:              rootOpts.NoColor,
	}

	if opts.traceFile != "" {
		tracer, shutdown, err := setupTracing(opts.traceFile)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("flush traces", "err", err)
			}
		}()
		params.Tracer = tracer
	}

	var controller *live.Controller
	if decision.useLive {
		controller = live.Start(stdout, live.Options{NoColor: rootOpts.NoColor, OnQuit: cancel})
		params.Observer = controller
	}

	outputDir := opts.outputDir
	if outputDir == "" {
		outputDir = config.ResolvePath(loaded.Root, cfg.OutputDir)
	}
	result, paths, runErr := runAndWrite(ctx, params, outputDir)
	if controller != nil {
		controller.Close()
		controller.Wait()
	}
	if result.RunID == "" {
		return runErr
	}

	if err := report.RenderText(stdout, result, rootOpts.NoColor || !isTerminal(stdout)); err != nil {
		return err
	}
	if paths.Root != "" {
		fmt.Fprintf(stdout, "Results: %s\n", paths.ResultsPath())
		fmt.Fprintf(stdout, "Report: %s\n", paths.ReportPath())
		fmt.Fprintf(stdout, "Metrics: %s\n", paths.MetricsPath())
	}
	if !opts.noHistory {
		recordHistory(context.WithoutCancel(ctx), logger, config.ResolvePath(loaded.Root, cfg.HistoryDB), result)
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		return &exitError{code: ExitError, err: fmt.Errorf("run cancelled after %d of %d markers", result.Summary.Completed, result.Summary.Total)}
	case runErr != nil:
		return runErr
	case opts.failOnMiss && result.Summary.Fail > 0:
		return &exitError{code: ExitMiss, err: fmt.Errorf("%d of %d markers failed", result.Summary.Fail, result.Summary.Total)}
	}
	return nil
}

// applyRunOverrides applies flag values to the config and revalidates it.
func applyRunOverrides(cfg *config.Config, opts *runOptions, root string) error {
	if opts.engineID != "" {
		cfg.DefaultEngine = opts.engineID
	}
	if opts.strategy != "" {
		cfg.Scoring.Strategy = opts.strategy
		cfg.Scoring.Chain = nil
	}
	if opts.language != "" {
		cfg.Fixture.Language = opts.language
	}
	if opts.workers != 0 {
		cfg.Runner.Workers = opts.workers
	}
	if opts.window != 0 {
		cfg.Runner.WindowLines = opts.window
	}
	if opts.timeout != 0 {
		cfg.Runner.TimeoutMS = int(opts.timeout / time.Millisecond)
		for i := range cfg.Engines {
			cfg.Engines[i].TimeoutMS = 0
		}
	}
	config.Normalize(cfg)
	return config.Validate(cfg, root)
}

// recordHistory stores the report; failures are logged, not fatal.
func recordHistory(ctx context.Context, logger *slog.Logger, path string, result report.Report) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Warn("create history dir", "err", err)
		return
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		logger.Warn("open history", "path", path, "err", err)
		return
	}
	defer store.Close()
	if err := store.Record(ctx, result); err != nil {
		logger.Warn("record history", "run_id", result.RunID, "err", err)
	}
}
