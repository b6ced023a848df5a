package main

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/pwkit/pwkit/pkg/browser"
	"github.com/pwkit/pwkit/pkg/intercept"
)

// runFetchCommand loads one page, captures the hidden API response
// selected by -match or -glob and writes the result envelope as JSON.
// The exit status reflects the envelope: a failed interception is an
// error even though an envelope was written.
func runFetchCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a pwkit config file (YAML)")
	pageURL := fs.String("url", "", "page to load (required)")
	match := fs.String("match", "", "substring of the hidden API URL")
	globPattern := fs.String("glob", "", "glob matching the hidden API URL (overrides -match)")
	timeout := fs.Duration("timeout", 0, "poll budget (default from config)")
	headed := fs.Bool("headed", false, "run the browser with a visible window")
	output := fs.String("output", "", "write the result to a file instead of stdout")
	pretty := fs.Bool("pretty", true, "indent the JSON output")
	debugLog := fs.Bool("debug-log", false, "also append logs to the per-run session file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pageURL == "" {
		return fmt.Errorf("-url is required")
	}
	if *match == "" && *globPattern == "" {
		return fmt.Errorf("one of -match or -glob is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *headed {
		cfg.Browser.Headless = false
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

	matcher := intercept.MatchSubstring(*match)
	if *globPattern != "" {
		matcher, err = intercept.MatchGlob(*globPattern)
		if err != nil {
			return err
		}
	}

	opts := cfg.InterceptOptions()
	opts.Solver = cfg.Solver(logger)
	if *timeout > 0 {
		opts.Timeout = *timeout
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
	result := ic.InterceptJSON(ctx, *pageURL, matcher, opts)

	if err := writeJSON(*output, *pretty, result); err != nil {
		return err
	}
	if result.Failed() {
		return fmt.Errorf("interception failed: %s", result.Kind)
	}
	return nil
}
