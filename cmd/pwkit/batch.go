package main

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/pwkit/pwkit/pkg/browser"
	"github.com/pwkit/pwkit/pkg/config"
	"github.com/pwkit/pwkit/pkg/intercept"
)

// jobResult pairs a job name with its envelope in batch output.
type jobResult struct {
	Name string `json:"name"`
	intercept.Result
}

// runBatchCommand runs every job from the config file and writes one
// envelope per job, in job order. The command fails when any job does.
func runBatchCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	configPath := fs.String("config", "pwkit.yaml", "path to a pwkit config file (YAML)")
	parallel := fs.Int("parallel", 0, "concurrent jobs (default from config)")
	output := fs.String("output", "", "write results to a file instead of stdout")
	pretty := fs.Bool("pretty", true, "indent the JSON output")
	debugLog := fs.Bool("debug-log", false, "also append logs to the per-run session file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if len(cfg.Jobs) == 0 {
		return fmt.Errorf("no jobs configured in %s", *configPath)
	}
	if *debugLog {
		if err := enableDebugLog(cfg); err != nil {
			return err
		}
	}

	logger, err := cfg.BuildLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if cfg.Logging.File != "" {
		logger.Info("logging to file", zap.String("path", cfg.Logging.File))
	}

	jobs, err := cfg.BatchJobs()
	if err != nil {
		return err
	}
	solver := cfg.Solver(logger)
	for i := range jobs {
		jobs[i].Options.Solver = solver
	}

	workers := cfg.Intercept.Parallel
	if *parallel > 0 {
		workers = *parallel
	}

	launcher := browser.New(
		browser.WithLogger(logger),
		browser.WithBrowsers(cfg.Browser.Type),
	)
	if err := launcher.Start(); err != nil {
		return err
	}
	defer func() {
		if err := launcher.Stop(); err != nil {
			logger.Warn("failed to stop playwright", zap.Error(err))
		}
	}()

	ic := intercept.New(launcher, intercept.WithLogger(logger))
	results := ic.Batch(ctx, jobs, workers)

	out := make([]jobResult, len(results))
	failed := 0
	for i, res := range results {
		out[i] = jobResult{Name: jobs[i].Name, Result: res}
		if res.Failed() {
			failed++
		}
	}

	if err := writeJSON(*output, *pretty, out); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(jobs))
	}
	return nil
}
