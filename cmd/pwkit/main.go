// Package main provides the pwkit command line tool: hidden API
// interception, batch scraping runs and HTML cleanup from a terminal or
// CI pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/pwkit/pwkit/pkg/config"
	"github.com/pwkit/pwkit/pkg/logging"
)

// Version information - set via ldflags during build
var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printHelp()
		os.Exit(2)
	}

	switch args[0] {
	case "--version", "-v", "version":
		printVersion()
	case "--help", "-h", "help":
		printHelp()
	case "fetch":
		os.Exit(runCommand(runFetchCommand, args[1:]))
	case "batch":
		os.Exit(runCommand(runBatchCommand, args[1:]))
	case "clean":
		os.Exit(runCommand(runCleanCommand, args[1:]))
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		printHelp()
		os.Exit(2)
	}
}

func runCommand(handler func(context.Context, []string) error, args []string) int {
	ctx, cancel := signalContext()
	defer cancel()

	if err := handler(ctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// signalContext returns a context cancelled on SIGINT or SIGTERM so an
// interrupted run still reports what it captured.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	return ctx, cancel
}

// loadConfig loads and validates the config file, or the defaults when
// no path is given.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// enableDebugLog routes a copy of the log stream to this run's session
// file. A file already configured in the logging section wins.
func enableDebugLog(cfg *config.Config) error {
	if cfg.Logging.File != "" {
		return nil
	}
	path, err := logging.SessionFile()
	if err != nil {
		return fmt.Errorf("debug log unavailable: %w", err)
	}
	cfg.Logging.File = path
	return nil
}

// readInput reads the file at path, or stdin when path is empty.
func readInput(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// writeJSON writes v as JSON to path, or stdout when path is empty.
func writeJSON(path string, pretty bool, v interface{}) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func printVersion() {
	fmt.Printf("pwkit %s\n", version)
	if commit != "unknown" {
		fmt.Printf("  Commit:     %s\n", commit)
	}
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `pwkit - browser scraping toolkit

Usage: pwkit <command> [options]

Commands:
  fetch    Load a page and capture a hidden API response
  batch    Run the interception jobs from a config file
  clean    Strip noise from an HTML document
  version  Show version information
  help     Show this help

Run 'pwkit <command> -h' for command options.
`)
}
